package service

import (
	"time"

	"github.com/wricardo/monopoly-game/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Status         engine.Status      `json:"status"`
	PlayerCount    int                `json:"player_count"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// JoinResult is returned when a player takes a seat
type JoinResult struct {
	SessionID string            `json:"session_id"`
	PlayerID  string            `json:"player_id"`
	GameState *engine.GameState `json:"game_state"`
	Events    []engine.Event    `json:"events"`
}

// ConfigInfo provides information about a rules preset
type ConfigInfo struct {
	Filename      string `json:"filename"`
	ConfigID      string `json:"config_id"` // The identifier to use for session creation
	Name          string `json:"name"`      // Display name
	Description   string `json:"description"`
	StartingMoney int    `json:"starting_money"`
	MinPlayers    int    `json:"min_players"`
	MaxPlayers    int    `json:"max_players"`
	RentOnLanding bool   `json:"rent_on_landing"`
}

// NewSessionInfo builds the public view of a session
func NewSessionInfo(sess *Session) *SessionInfo {
	state, lastAccessed := sess.View()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.Config.Name,
		Status:         state.Status,
		PlayerCount:    len(state.Players),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: lastAccessed,
		GameState:      state,
		GameConfig:     sess.Config,
	}
}
