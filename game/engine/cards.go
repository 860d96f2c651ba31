package engine

import "fmt"

// EffectKind enumerates what a card does when drawn
type EffectKind string

const (
	EffectAdvanceTo        EffectKind = "advance-to"
	EffectAdvanceToNearest EffectKind = "advance-to-nearest"
	EffectGoToJail         EffectKind = "go-to-jail"
	EffectMoveBack         EffectKind = "move-back"
	EffectCollect          EffectKind = "collect"
	EffectPay              EffectKind = "pay"
	EffectJailFree         EffectKind = "jail-free"
	EffectRepairs          EffectKind = "repairs"
	EffectCollectFromEach  EffectKind = "collect-from-each"
	EffectPayEach          EffectKind = "pay-each"
)

// Effect describes a card's behavior as data.
//
//   - Target: board index for advance-to
//   - Steps: spaces for move-back
//   - Asset: railroad or utility for advance-to-nearest
//   - Amount: money for transfers, per-house cost for repairs,
//     rent multiplier for advance-to-nearest
type Effect struct {
	Kind   EffectKind `json:"kind"`
	Target int        `json:"target,omitempty"`
	Steps  int        `json:"steps,omitempty"`
	Asset  Category   `json:"asset,omitempty"`
	Amount int        `json:"amount,omitempty"`
}

// Card is one entry of a deck catalogue
type Card struct {
	ID          int      `json:"id"`
	Deck        DeckKind `json:"deck"`
	Description string   `json:"description"`
	Effect      Effect   `json:"effect"`
}

var chanceCards = []Card{
	{ID: 0, Description: "Advance to GO. Collect $200", Effect: Effect{Kind: EffectAdvanceTo, Target: GoIndex}},
	{ID: 1, Description: "Advance to Trafalgar Square", Effect: Effect{Kind: EffectAdvanceTo, Target: TrafalgarSquareIndex}},
	{ID: 2, Description: "Advance to Pall Mall", Effect: Effect{Kind: EffectAdvanceTo, Target: PallMallIndex}},
	{ID: 3, Description: "Advance to the nearest Utility. If owned, pay ten times the dice roll", Effect: Effect{Kind: EffectAdvanceToNearest, Asset: CategoryUtility, Amount: 10}},
	{ID: 4, Description: "Advance to the nearest Station. If owned, pay twice the rent", Effect: Effect{Kind: EffectAdvanceToNearest, Asset: CategoryRailroad, Amount: 2}},
	{ID: 5, Description: "Bank pays you a dividend of $50", Effect: Effect{Kind: EffectCollect, Amount: 50}},
	{ID: 6, Description: "Get Out of Jail Free", Effect: Effect{Kind: EffectJailFree}},
	{ID: 7, Description: "Go back 3 spaces", Effect: Effect{Kind: EffectMoveBack, Steps: 3}},
	{ID: 8, Description: "Go to Jail. Do not pass GO, do not collect $200", Effect: Effect{Kind: EffectGoToJail}},
	{ID: 9, Description: "Make general repairs on all your property: $25 per house", Effect: Effect{Kind: EffectRepairs, Amount: 25}},
	{ID: 10, Description: "Pay poor tax of $15", Effect: Effect{Kind: EffectPay, Amount: 15}},
	{ID: 11, Description: "Take a trip to Kings Cross Station", Effect: Effect{Kind: EffectAdvanceTo, Target: KingsCrossIndex}},
	{ID: 12, Description: "Advance to Mayfair", Effect: Effect{Kind: EffectAdvanceTo, Target: MayfairIndex}},
	{ID: 13, Description: "You have been elected Chairman of the Board. Pay each player $50", Effect: Effect{Kind: EffectPayEach, Amount: 50}},
	{ID: 14, Description: "Your building loan matures. Collect $150", Effect: Effect{Kind: EffectCollect, Amount: 150}},
	{ID: 15, Description: "You have won a crossword competition. Collect $100", Effect: Effect{Kind: EffectCollect, Amount: 100}},
}

var communityChestCards = []Card{
	{ID: 0, Description: "Advance to GO. Collect $200", Effect: Effect{Kind: EffectAdvanceTo, Target: GoIndex}},
	{ID: 1, Description: "Bank error in your favor. Collect $200", Effect: Effect{Kind: EffectCollect, Amount: 200}},
	{ID: 2, Description: "Doctor's fees. Pay $50", Effect: Effect{Kind: EffectPay, Amount: 50}},
	{ID: 3, Description: "From sale of stock you get $50", Effect: Effect{Kind: EffectCollect, Amount: 50}},
	{ID: 4, Description: "Get Out of Jail Free", Effect: Effect{Kind: EffectJailFree}},
	{ID: 5, Description: "Go to Jail. Do not pass GO, do not collect $200", Effect: Effect{Kind: EffectGoToJail}},
	{ID: 6, Description: "Grand Opera Night. Collect $50 from every player", Effect: Effect{Kind: EffectCollectFromEach, Amount: 50}},
	{ID: 7, Description: "Holiday fund matures. Receive $100", Effect: Effect{Kind: EffectCollect, Amount: 100}},
	{ID: 8, Description: "Income tax refund. Collect $20", Effect: Effect{Kind: EffectCollect, Amount: 20}},
	{ID: 9, Description: "It is your birthday. Collect $10 from every player", Effect: Effect{Kind: EffectCollectFromEach, Amount: 10}},
	{ID: 10, Description: "Life insurance matures. Collect $100", Effect: Effect{Kind: EffectCollect, Amount: 100}},
	{ID: 11, Description: "Pay hospital fees of $50", Effect: Effect{Kind: EffectPay, Amount: 50}},
	{ID: 12, Description: "Pay school fees of $50", Effect: Effect{Kind: EffectPay, Amount: 50}},
	{ID: 13, Description: "Receive $25 consultancy fee", Effect: Effect{Kind: EffectCollect, Amount: 25}},
	{ID: 14, Description: "You are assessed for street repairs: $40 per house", Effect: Effect{Kind: EffectRepairs, Amount: 40}},
	{ID: 15, Description: "You have won second prize in a beauty contest. Collect $10", Effect: Effect{Kind: EffectCollect, Amount: 10}},
}

// Catalogue returns a copy of the full card list for a deck
func Catalogue(kind DeckKind) []Card {
	var source []Card
	switch kind {
	case DeckChance:
		source = chanceCards
	case DeckCommunityChest:
		source = communityChestCards
	default:
		return nil
	}

	cards := make([]Card, len(source))
	for i, c := range source {
		c.Deck = kind
		cards[i] = c
	}
	return cards
}

// CardByID looks up a catalogue entry
func CardByID(kind DeckKind, id int) (Card, bool) {
	for _, c := range Catalogue(kind) {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// NearestIndex returns the first index strictly after pos, wrapping to the
// first entry when none remain ahead. indices must be sorted ascending.
func NearestIndex(pos int, indices []int) int {
	for _, idx := range indices {
		if idx > pos {
			return idx
		}
	}
	return indices[0]
}

func (e *GameEngine) deck(kind DeckKind) *Deck {
	if kind == DeckCommunityChest {
		return &e.state.CommunityChestDeck
	}
	return &e.state.ChanceDeck
}

func (e *GameEngine) drawCard(p *Player, kind DeckKind) {
	card, ok := e.deck(kind).Draw(e.rng)
	if !ok {
		return
	}
	e.emit(Event{
		Type:     EventDrewCard,
		PlayerID: p.ID,
		Message:  fmt.Sprintf("%s drew %s: %s", p.Name, kind, card.Description),
		CardID:   card.ID,
		From:     p.Position,
		To:       p.Position,
	})
	e.applyEffect(p, card)
}

// applyEffect interprets a card effect against the drawing player.
// Relocations resolve the landed space but never draw another card.
func (e *GameEngine) applyEffect(p *Player, card Card) {
	effect := card.Effect
	switch effect.Kind {
	case EffectAdvanceTo:
		e.relocate(p, effect.Target)

	case EffectAdvanceToNearest:
		indices := RailroadIndices
		if effect.Asset == CategoryUtility {
			indices = UtilityIndices
		}
		e.relocate(p, NearestIndex(p.Position, indices))
		e.chargeNearestRent(p, effect)

	case EffectGoToJail:
		e.sendToJail(p)

	case EffectMoveBack:
		e.moveBack(p, effect.Steps)

	case EffectCollect:
		e.credit(p, effect.Amount, card.Description)

	case EffectPay:
		e.debit(p, effect.Amount, card.Description)

	case EffectJailFree:
		p.GetOutOfJailCards++

	case EffectRepairs:
		houses := 0
		for _, id := range p.Properties {
			if space, ok := e.state.SpaceAt(id); ok {
				houses += space.Houses
			}
		}
		if cost := houses * effect.Amount; cost > 0 {
			e.debit(p, cost, card.Description)
		}

	case EffectCollectFromEach:
		for _, other := range e.otherSolventPlayers(p) {
			e.transfer(other, p, effect.Amount, EventPaid, card.Description)
		}

	case EffectPayEach:
		for _, other := range e.otherSolventPlayers(p) {
			e.transfer(p, other, effect.Amount, EventPaid, card.Description)
		}
	}
}

// chargeNearestRent applies the card's rent multiplier when the asset the
// player was sent to belongs to another solvent player
func (e *GameEngine) chargeNearestRent(p *Player, effect Effect) {
	space, ok := e.state.SpaceAt(p.Position)
	if !ok {
		return
	}
	owner := e.rentCollector(p, space)
	if owner == nil {
		return
	}

	var rent int
	if space.Category == CategoryUtility {
		roll := RollDice(e.rng)
		rent = effect.Amount * roll.Sum()
	} else {
		rent = effect.Amount * space.Rent
	}
	e.transfer(p, owner, rent, EventPaidRent, space.Name)
}

func (e *GameEngine) otherSolventPlayers(p *Player) []*Player {
	others := make([]*Player, 0, len(e.state.Players))
	for _, other := range e.state.Players {
		if other.ID != p.ID && !other.IsBankrupt {
			others = append(others, other)
		}
	}
	return others
}
