package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Engine provides the main interface for game operations
type Engine interface {
	GetState() *GameState
	Snapshot() *GameState
	SetState(state *GameState) error
	GetConfig() *GameConfig

	Join(playerID, name string) ([]Event, error)
	ProcessAction(action Action) *ActionResult

	IsGameOver() bool
}

// GameEngine implements Engine for a single session. It is not safe for
// concurrent use; callers serialize access per session.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    Randomizer
	logger *zap.Logger
	now    func() time.Time

	events []Event
}

// Option customizes a GameEngine
type Option func(*GameEngine)

// WithRandomizer replaces the random source used for dice and shuffles
func WithRandomizer(rng Randomizer) Option {
	return func(e *GameEngine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *GameEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the event timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// Configure applies opts to an existing engine, such as one restored with SetState
func (e *GameEngine) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(e)
	}
}

// NewEngine creates a waiting session with a fresh board and shuffled decks.
// A nil config selects DefaultGameConfig.
func NewEngine(id string, config *GameConfig, opts ...Option) (*GameEngine, error) {
	if config == nil {
		config = DefaultGameConfig()
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config: config,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = NewSecureRandomizer()
	}

	e.state = NewGameState(id, config, e.rng)
	return e, nil
}

// NewGameState builds the initial state of a session
func NewGameState(id string, config *GameConfig, rng Randomizer) *GameState {
	return &GameState{
		ID:                 id,
		Players:            []*Player{},
		CurrentPlayer:      0,
		Board:              NewBoard(),
		Dice:               nil,
		Status:             StatusWaiting,
		ChanceDeck:         NewDeck(DeckChance, rng),
		CommunityChestDeck: NewDeck(DeckCommunityChest, rng),
		ConfigName:         config.Name,
		History:            []Event{},
	}
}

// GetState returns the live game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// Snapshot returns a deep copy of the game state
func (e *GameEngine) Snapshot() *GameState {
	return e.state.Clone()
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if len(state.Board) != BoardSize {
		return fmt.Errorf("state board must have %d spaces, got %d", BoardSize, len(state.Board))
	}
	e.state = state
	return nil
}

// GetConfig returns the rules the session plays under
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// IsGameOver reports whether the session reached its terminal state
func (e *GameEngine) IsGameOver() bool {
	return e.state.Status == StatusFinished
}

// Join seats a new player. The session starts once MinPlayers have joined.
func (e *GameEngine) Join(playerID, name string) ([]Event, error) {
	if playerID == "" {
		return nil, ErrInvalidPlayerID
	}
	if len(e.state.Players) >= e.config.MaxPlayers {
		return nil, ErrGameFull
	}
	if e.state.Status != StatusWaiting {
		return nil, ErrGameNotWaiting
	}
	if p, _ := e.state.PlayerByID(playerID); p != nil {
		return nil, ErrPlayerExists
	}
	if name == "" {
		name = playerID
	}

	tokens := e.config.Tokens
	player := &Player{
		ID:         playerID,
		Name:       name,
		Money:      e.config.StartingMoney,
		Position:   GoIndex,
		Properties: []int{},
		Token:      tokens[len(e.state.Players)%len(tokens)],
	}
	e.state.Players = append(e.state.Players, player)
	e.emitf(EventPlayerJoined, player.ID, "%s joined as %s", player.Name, player.Token)

	if len(e.state.Players) == e.config.MinPlayers {
		e.state.Status = StatusPlaying
		e.state.CurrentPlayer = 0
		e.state.TurnNumber = 1
		e.emitf(EventGameStarted, e.state.Players[0].ID, "game started, %s goes first", e.state.Players[0].Name)
	}

	e.logger.Debug("player joined",
		zap.String("session", e.state.ID),
		zap.String("player", player.ID),
		zap.Int("players", len(e.state.Players)))

	return e.flushEvents(), nil
}

// ProcessAction validates and applies one action. It never fails: rejected
// actions leave the state untouched and carry a Reason.
func (e *GameEngine) ProcessAction(action Action) *ActionResult {
	e.events = nil

	player, reason := e.checkActor(action)
	if reason == "" {
		reason = e.dispatch(player, action)
	}

	if reason != "" {
		e.events = nil
		e.logger.Debug("action rejected",
			zap.String("session", e.state.ID),
			zap.String("player", action.PlayerID),
			zap.String("type", string(action.Type)),
			zap.String("reason", reason))
		return &ActionResult{State: e.state.Clone(), Events: []Event{}, Applied: false, Reason: reason}
	}

	e.settleBankruptcies()
	e.evaluateWinner()

	events := e.flushEvents()
	e.logger.Debug("action applied",
		zap.String("session", e.state.ID),
		zap.String("player", action.PlayerID),
		zap.String("type", string(action.Type)),
		zap.Int("events", len(events)))

	return &ActionResult{State: e.state.Clone(), Events: events, Applied: true}
}

// checkActor enforces the preconditions shared by every action
func (e *GameEngine) checkActor(action Action) (*Player, string) {
	if e.state.Status != StatusPlaying {
		return nil, ReasonNotInProgress
	}
	player, _ := e.state.PlayerByID(action.PlayerID)
	if player == nil {
		return nil, ReasonUnknownPlayer
	}
	if player.IsBankrupt {
		return nil, ReasonBankrupt
	}
	return player, ""
}

// dispatch routes the action and returns a rejection reason, or "" when the
// action was applied. Handlers validate fully before mutating anything.
func (e *GameEngine) dispatch(p *Player, action Action) string {
	switch action.Type {
	case ActionAuction, ActionMortgage:
		return ReasonNotImplemented
	case ActionRollDice, ActionBuyProperty, ActionEndTurn, ActionUseJailCard, ActionPayJailFine:
	default:
		return ReasonUnknownAction
	}

	if e.config.StrictTurnOrder && e.state.ActivePlayer() != p {
		return ReasonNotYourTurn
	}

	switch action.Type {
	case ActionRollDice:
		return e.rollDice(p)
	case ActionBuyProperty:
		return e.buyProperty(p)
	case ActionEndTurn:
		e.advanceTurn()
		return ""
	case ActionUseJailCard:
		return e.useJailCard(p)
	default:
		return e.payJailFine(p)
	}
}
