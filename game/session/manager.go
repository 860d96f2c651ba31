package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Manager is the session registry. The map is guarded by mu; each session's
// engine is guarded by the session's own lock, so actions on one session are
// serialized while different sessions proceed in parallel.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	logger      *zap.Logger
	newRandom   func() engine.Randomizer
	mu          sync.RWMutex
}

// Option customizes a Manager
type Option func(*Manager)

// WithPersistence enables write-through persistence
func WithPersistence(p SessionPersistence) Option {
	return func(m *Manager) { m.persistence = p }
}

// WithLogger sets the manager logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRandomSource sets the factory used to seed each new session's dice and decks
func WithRandomSource(factory func() engine.Randomizer) Option {
	return func(m *Manager) {
		if factory != nil {
			m.newRandom = factory
		}
	}
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:  make(map[string]*service.Session),
		logger:    zap.NewNop(),
		newRandom: engine.NewSecureRandomizer,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, opts ...Option) *Manager {
	return NewManager(append([]Option{WithPersistence(persistence)}, opts...)...)
}

// Create creates a new waiting session. An empty id gets a generated one.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if config == nil {
		config = engine.DefaultGameConfig()
	}

	m.mu.Lock()
	if id == "" {
		id = m.generateSessionID()
	} else if !sessionIDPattern.MatchString(id) {
		m.mu.Unlock()
		return nil, ErrInvalidSessionID
	}
	if m.sessionExists(id) {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(id, config, m.engineOptions(id)...)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	sess := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[strings.ToLower(id)] = sess
	m.mu.Unlock()

	m.persist(sess)
	return sess, nil
}

// Get retrieves a session by ID (case-insensitive), falling back to persistence
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if exists {
		return sess, nil
	}

	if m.persistence == nil || !sessionIDPattern.MatchString(id) || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}
	loaded.Engine.Configure(m.engineOptions(loaded.ID)...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.sessions[strings.ToLower(id)]; ok {
		return current, nil
	}
	m.sessions[strings.ToLower(id)] = loaded
	return loaded, nil
}

// Join seats a player in the session and returns the events and the new state
func (m *Manager) Join(id, playerID, name string) ([]engine.Event, *engine.GameState, error) {
	sess, err := m.Get(id)
	if err != nil {
		return nil, nil, err
	}

	var (
		events []engine.Event
		state  *engine.GameState
	)
	err = sess.Do(func(eng *engine.GameEngine) error {
		var joinErr error
		events, joinErr = eng.Join(playerID, name)
		if joinErr != nil {
			return joinErr
		}
		state = eng.Snapshot()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sess.Touch(time.Now())
	m.persist(sess)
	return events, state, nil
}

// Apply processes one action on the session under its lock
func (m *Manager) Apply(id string, action engine.Action) (*engine.ActionResult, error) {
	sess, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	var result *engine.ActionResult
	sess.Do(func(eng *engine.GameEngine) error {
		result = eng.ProcessAction(action)
		return nil
	})

	sess.Touch(time.Now())
	if result.Applied {
		m.persist(sess)
	}
	return result, nil
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Delete removes a session from memory and persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, inMemory := m.sessions[strings.ToLower(id)]
	delete(m.sessions, strings.ToLower(id))
	m.mu.Unlock()

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.sessions[key]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, key)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	sess.Touch(time.Now())
	return nil
}

// Save saves a specific session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(sess)
}

// CleanupExpiredSessions drops sessions idle for longer than maxAge from memory
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, sess := range m.sessions {
		if sess.LastAccess().Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info("expired sessions removed", zap.Int("count", removed))
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range sessionIDs {
		if _, exists := m.sessions[strings.ToLower(id)]; exists {
			continue
		}

		sess, err := m.persistence.Load(id)
		if err != nil {
			m.logger.Warn("failed to load persisted session", zap.String("session", id), zap.Error(err))
			continue
		}
		sess.Engine.Configure(m.engineOptions(sess.ID)...)
		m.sessions[strings.ToLower(id)] = sess
		loaded++
	}

	if loaded > 0 {
		m.logger.Info("persisted sessions loaded", zap.Int("count", loaded))
	}
	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	failed := 0
	for _, sess := range m.List() {
		if err := m.persistence.Save(sess); err != nil {
			m.logger.Warn("failed to save session", zap.String("session", sess.ID), zap.Error(err))
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to save %d sessions", failed)
	}
	return nil
}

// persist writes the session through; failures are logged, never returned
func (m *Manager) persist(sess *service.Session) {
	if m.persistence == nil {
		return
	}
	if err := m.persistence.Save(sess); err != nil {
		m.logger.Warn("failed to persist session", zap.String("session", sess.ID), zap.Error(err))
	}
}

// engineOptions gives created and restored engines the manager's random
// source and a session-scoped logger
func (m *Manager) engineOptions(id string) []engine.Option {
	return []engine.Option{
		engine.WithRandomizer(m.newRandom()),
		engine.WithLogger(m.logger.With(zap.String("session", id))),
	}
}

// generateSessionID generates a random 4-character session ID not yet in use.
// Callers hold m.mu.
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) {
			return id
		}
	}
}

// sessionExists checks if a session exists (case-insensitive). Callers hold m.mu.
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
