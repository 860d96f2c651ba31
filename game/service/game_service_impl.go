package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/monopoly-game/game/engine"
)

// ErrConfigUnavailable is returned when a session asks for an unknown preset
var ErrConfigUnavailable = errors.New("config not available")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *zap.Logger
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
}

// CreateSession creates a new game session. An empty sessionID lets the
// session manager generate one; an empty configName selects the default preset.
func (s *gameServiceImpl) CreateSession(ctx context.Context, sessionID, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	if configName != "" {
		loaded, err := s.configs.LoadConfig(configName)
		if err != nil {
			available, listErr := s.configs.ListConfigs()
			if listErr == nil && len(available) > 0 {
				ids := make([]string, 0, len(available))
				for _, cfg := range available {
					ids = append(ids, cfg.ConfigID)
				}
				return nil, fmt.Errorf("%w: '%s' (available: %v): %v", ErrConfigUnavailable, configName, ids, err)
			}
			return nil, fmt.Errorf("%w: '%s': %v", ErrConfigUnavailable, configName, err)
		}
		config = loaded
	} else {
		config = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create(sessionID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created",
		zap.String("session", sess.ID),
		zap.String("config", config.Name))

	return NewSessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return NewSessionInfo(sess), nil
}

// ListSessions returns all active sessions, newest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, NewSessionInfo(sess))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.logger.Info("session deleted", zap.String("session", sessionID))
	return nil
}

// JoinSession seats a player. An empty playerID gets a generated one.
func (s *gameServiceImpl) JoinSession(ctx context.Context, sessionID, playerID, name string) (*JoinResult, error) {
	if playerID == "" {
		playerID = uuid.NewString()
	}

	events, state, err := s.sessions.Join(sessionID, playerID, name)
	if err != nil {
		return nil, fmt.Errorf("join session %s: %w", sessionID, err)
	}

	s.logger.Info("player joined",
		zap.String("session", sessionID),
		zap.String("player", playerID),
		zap.String("status", string(state.Status)))

	return &JoinResult{
		SessionID: sessionID,
		PlayerID:  playerID,
		GameState: state,
		Events:    events,
	}, nil
}

// ApplyAction routes one player action to the session's engine. Rule
// violations come back as an unapplied result, never as an error.
func (s *gameServiceImpl) ApplyAction(ctx context.Context, sessionID string, action engine.Action) (*engine.ActionResult, error) {
	result, err := s.sessions.Apply(sessionID, action)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	if !result.Applied {
		s.logger.Debug("action not applied",
			zap.String("session", sessionID),
			zap.String("player", action.PlayerID),
			zap.String("type", string(action.Type)),
			zap.String("reason", result.Reason))
	}
	if result.State.Status == engine.StatusFinished && result.Applied {
		for _, ev := range result.Events {
			if ev.Type == engine.EventGameOver {
				s.logger.Info("game finished",
					zap.String("session", sessionID),
					zap.String("winner", result.State.Winner))
			}
		}
	}

	return result, nil
}

// GetGameState returns a snapshot of the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Snapshot(), nil
}

// GetEvents returns the most recent events of a session, oldest first
func (s *gameServiceImpl) GetEvents(ctx context.Context, sessionID string, limit int) ([]engine.Event, error) {
	state, err := s.GetGameState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return state.RecentEvents(limit), nil
}

// GetBoard returns the canonical board layout
func (s *gameServiceImpl) GetBoard(ctx context.Context) []engine.PropertySpace {
	return engine.NewBoard()
}

// ListConfigs returns available rules presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific rules preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a rules preset
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
