package engine

import "errors"

// Status represents the lifecycle phase of a game session
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Category classifies a board space
type Category string

const (
	CategoryStreet   Category = "street"
	CategoryRailroad Category = "railroad"
	CategoryUtility  Category = "utility"
	CategoryTax      Category = "tax"
	CategorySpecial  Category = "special"
	CategoryCardDraw Category = "card-draw"
)

// ActionKind names an inbound player action
type ActionKind string

const (
	ActionRollDice    ActionKind = "ROLL_DICE"
	ActionBuyProperty ActionKind = "BUY_PROPERTY"
	ActionEndTurn     ActionKind = "END_TURN"
	ActionAuction     ActionKind = "AUCTION"
	ActionMortgage    ActionKind = "MORTGAGE"
	ActionUseJailCard ActionKind = "USE_JAIL_CARD"
	ActionPayJailFine ActionKind = "PAY_JAIL_FINE"
)

// Rejection reasons reported on ActionResult.Reason
const (
	ReasonNotInProgress  = "game not in progress"
	ReasonUnknownPlayer  = "unknown player"
	ReasonBankrupt       = "player is bankrupt"
	ReasonNotYourTurn    = "not your turn"
	ReasonAlreadyRolled  = "dice already rolled this turn"
	ReasonNotImplemented = "not implemented"
	ReasonUnknownAction  = "unknown action"
	ReasonInvalidSpace   = "no space at player position"
	ReasonNotForSale     = "space is not for sale"
	ReasonAlreadyOwned   = "space already owned"
	ReasonCannotAfford   = "insufficient funds"
	ReasonNotInJail      = "player is not in jail"
	ReasonNoJailCard     = "no get out of jail free card"
)

var (
	ErrGameFull        = errors.New("game is full")
	ErrGameNotWaiting  = errors.New("game is not accepting players")
	ErrPlayerExists    = errors.New("player already joined")
	ErrInvalidPlayerID = errors.New("player id is required")
)

// PropertySpace is a single square of the board
type PropertySpace struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	Price     int      `json:"price"`
	Rent      int      `json:"rent"`
	Color     string   `json:"color,omitempty"`
	Deck      DeckKind `json:"deck,omitempty"` // Only for card-draw spaces
	Owner     string   `json:"owner,omitempty"`
	Houses    int      `json:"houses"`
	Mortgaged bool     `json:"mortgaged"`
}

// Purchasable reports whether the space can ever be owned
func (s PropertySpace) Purchasable() bool {
	return s.Price > 0
}

// Player is a seated participant
type Player struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Money             int    `json:"money"`
	Position          int    `json:"position"`
	Properties        []int  `json:"properties"`
	InJail            bool   `json:"in_jail"`
	JailTurns         int    `json:"jail_turns"`
	GetOutOfJailCards int    `json:"get_out_of_jail_cards"`
	Token             string `json:"token"`
	IsBankrupt        bool   `json:"is_bankrupt"`
}

// OwnsProperty reports whether the player holds the given space id
func (p *Player) OwnsProperty(id int) bool {
	for _, owned := range p.Properties {
		if owned == id {
			return true
		}
	}
	return false
}

// Dice holds the two faces of the last roll
type Dice [2]int

// Sum returns the total of both dice
func (d Dice) Sum() int {
	return d[0] + d[1]
}

// IsDoubles reports whether both dice show the same value
func (d Dice) IsDoubles() bool {
	return d[0] == d[1]
}

// GameState represents the complete state of one session
type GameState struct {
	ID                 string          `json:"id"`
	Players            []*Player       `json:"players"`
	CurrentPlayer      int             `json:"current_player"`
	Board              []PropertySpace `json:"board"`
	Dice               *Dice           `json:"dice"`
	CanRollAgain       bool            `json:"can_roll_again"`
	Status             Status          `json:"status"`
	Winner             string          `json:"winner,omitempty"`
	ChanceDeck         Deck            `json:"chance_deck"`
	CommunityChestDeck Deck            `json:"community_chest_deck"`
	ConfigName         string          `json:"config_name"`
	TurnNumber         int             `json:"turn_number"`
	History            []Event         `json:"history"`
}

// Action is an inbound request from a player
type Action struct {
	Type     ActionKind     `json:"type"`
	PlayerID string         `json:"player_id"`
	Data     map[string]any `json:"data,omitempty"`
}

// ActionResult is returned for every processed action, applied or not
type ActionResult struct {
	State   *GameState `json:"game_state"`
	Events  []Event    `json:"events"`
	Applied bool       `json:"applied"`
	Reason  string     `json:"reason,omitempty"`
}

// PlayerByID returns the player with the given id and its seat index
func (gs *GameState) PlayerByID(id string) (*Player, int) {
	for i, p := range gs.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// ActivePlayer returns the player whose turn it is, or nil before anyone joined
func (gs *GameState) ActivePlayer() *Player {
	if gs.CurrentPlayer < 0 || gs.CurrentPlayer >= len(gs.Players) {
		return nil
	}
	return gs.Players[gs.CurrentPlayer]
}

// SolventPlayers returns all players not flagged bankrupt, in seat order
func (gs *GameState) SolventPlayers() []*Player {
	solvent := make([]*Player, 0, len(gs.Players))
	for _, p := range gs.Players {
		if !p.IsBankrupt {
			solvent = append(solvent, p)
		}
	}
	return solvent
}

// Clone returns a deep copy that shares no memory with gs
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}

	clone := *gs

	clone.Players = make([]*Player, len(gs.Players))
	for i, p := range gs.Players {
		pc := *p
		pc.Properties = append([]int{}, p.Properties...)
		clone.Players[i] = &pc
	}

	clone.Board = append([]PropertySpace(nil), gs.Board...)

	if gs.Dice != nil {
		d := *gs.Dice
		clone.Dice = &d
	}

	clone.ChanceDeck.Cards = append([]int{}, gs.ChanceDeck.Cards...)
	clone.CommunityChestDeck.Cards = append([]int{}, gs.CommunityChestDeck.Cards...)
	clone.History = append([]Event{}, gs.History...)

	return &clone
}
