package engine

import (
	"fmt"
	"time"
)

// EventType names something that happened while processing an action
type EventType string

const (
	EventDiceRolled     EventType = "dice-rolled"
	EventMoved          EventType = "moved"
	EventPassedGo       EventType = "passed-go"
	EventPaidTax        EventType = "paid-tax"
	EventWentToJail     EventType = "went-to-jail"
	EventLeftJail       EventType = "left-jail"
	EventDrewCard       EventType = "drew-card"
	EventPaidRent       EventType = "paid-rent"
	EventCollected      EventType = "collected"
	EventPaid           EventType = "paid"
	EventBoughtProperty EventType = "bought-property"
	EventTurnEnded      EventType = "turn-ended"
	EventWentBankrupt   EventType = "went-bankrupt"
	EventGameOver       EventType = "game-over"
	EventPlayerJoined   EventType = "player-joined"
	EventGameStarted    EventType = "game-started"
)

// Event is a structured record of one state change.
// From and To are board indices for movement events; Recipient is the
// player receiving money in transfers.
type Event struct {
	Type      EventType `json:"type"`
	PlayerID  string    `json:"player_id,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	Message   string    `json:"message"`
	Amount    int       `json:"amount,omitempty"`
	From      int       `json:"from"`
	To        int       `json:"to"`
	CardID    int       `json:"card_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *GameEngine) emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}
	e.events = append(e.events, ev)
}

func (e *GameEngine) emitf(typ EventType, playerID string, format string, args ...any) {
	e.emit(Event{Type: typ, PlayerID: playerID, Message: fmt.Sprintf(format, args...)})
}

// flushEvents hands the pending events to the caller and records them in the
// bounded history on the state
func (e *GameEngine) flushEvents() []Event {
	events := e.events
	e.events = nil
	if len(events) == 0 {
		return []Event{}
	}

	limit := e.config.HistoryLimit
	if limit <= 0 {
		return events
	}
	history := append(e.state.History, events...)
	if len(history) > limit {
		history = append([]Event{}, history[len(history)-limit:]...)
	}
	e.state.History = history
	return events
}

// RecentEvents returns up to limit of the most recent history events, oldest first
func (gs *GameState) RecentEvents(limit int) []Event {
	if limit <= 0 || limit >= len(gs.History) {
		return append([]Event{}, gs.History...)
	}
	return append([]Event{}, gs.History[len(gs.History)-limit:]...)
}
