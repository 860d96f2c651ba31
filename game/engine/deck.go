package engine

// DeckKind identifies one of the two card decks
type DeckKind string

const (
	DeckChance         DeckKind = "chance"
	DeckCommunityChest DeckKind = "community-chest"
)

// Deck holds the ids of the cards still to be drawn, top first
type Deck struct {
	Kind  DeckKind `json:"kind"`
	Cards []int    `json:"cards"`
}

// NewDeck returns the full catalogue for kind, shuffled with rng
func NewDeck(kind DeckKind, rng Randomizer) Deck {
	d := Deck{Kind: kind}
	d.Reshuffle(rng)
	return d
}

// Reshuffle refills the deck from the catalogue and shuffles it (Fisher-Yates)
func (d *Deck) Reshuffle(rng Randomizer) {
	catalogue := Catalogue(d.Kind)
	d.Cards = make([]int, len(catalogue))
	for i, card := range catalogue {
		d.Cards[i] = card.ID
	}
	for i := len(d.Cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	}
}

// Draw removes and returns the top card, reshuffling first when the deck is empty
func (d *Deck) Draw(rng Randomizer) (Card, bool) {
	if len(d.Cards) == 0 {
		d.Reshuffle(rng)
	}
	if len(d.Cards) == 0 {
		return Card{}, false
	}
	id := d.Cards[0]
	d.Cards = d.Cards[1:]
	return CardByID(d.Kind, id)
}

// Remaining returns the number of undrawn cards
func (d *Deck) Remaining() int {
	return len(d.Cards)
}
