package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/monopoly-game/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, sessionID, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	JoinSession(ctx context.Context, sessionID, playerID, name string) (*JoinResult, error)

	// Game Operations
	ApplyAction(ctx context.Context, sessionID string, action engine.Action) (*engine.ActionResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetEvents(ctx context.Context, sessionID string, limit int) ([]engine.Event, error)
	GetBoard(ctx context.Context) []engine.PropertySpace

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	Join(id, playerID, name string) ([]engine.Event, *engine.GameState, error)
	Apply(id string, action engine.Action) (*engine.ActionResult, error)
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles rules preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session. All engine access goes through
// Do so that two actions on one session never interleave.
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Do runs fn while holding the session lock
func (s *Session) Do(fn func(eng *engine.GameEngine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.Engine)
}

// Snapshot returns a copy of the session state taken under the session lock
func (s *Session) Snapshot() *engine.GameState {
	var state *engine.GameState
	s.Do(func(eng *engine.GameEngine) error {
		state = eng.Snapshot()
		return nil
	})
	return state
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	s.LastAccessedAt = t
	s.mu.Unlock()
}

// LastAccess returns the time of the most recent access
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastAccessedAt
}

// View returns a state copy together with the last access time, both read
// under one hold of the session lock
func (s *Session) View() (*engine.GameState, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.Snapshot(), s.LastAccessedAt
}
