package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedRandomizer replays fixed values; once exhausted it returns 0
type scriptedRandomizer struct {
	values []int
}

func (s *scriptedRandomizer) Intn(n int) int {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v % n
}

// rolls converts dice faces into the Intn values that produce them
func rolls(faces ...int) []int {
	values := make([]int, len(faces))
	for i, f := range faces {
		values[i] = f - 1
	}
	return values
}

func createTestConfig() *GameConfig {
	config := DefaultGameConfig()
	config.Name = "engine-test"
	config.Description = "Configuration for engine tests"
	return config
}

// newTestEngine builds a session with the given players already seated and
// the game started. MinPlayers is set to the player count.
func newTestEngine(t *testing.T, config *GameConfig, playerIDs ...string) *GameEngine {
	t.Helper()
	if config == nil {
		config = createTestConfig()
	}
	if len(playerIDs) >= MinPlayerLimit {
		config.MinPlayers = len(playerIDs)
		if config.MaxPlayers < config.MinPlayers {
			config.MaxPlayers = config.MinPlayers
		}
	}

	e, err := NewEngine("test", config, WithRandomizer(NewRandomizer(42)))
	require.NoError(t, err)

	for _, id := range playerIDs {
		_, err := e.Join(id, "name-"+id)
		require.NoError(t, err)
	}
	return e
}

// script replaces the engine's random source with fixed dice faces
func script(e *GameEngine, faces ...int) {
	e.rng = &scriptedRandomizer{values: rolls(faces...)}
}

func player(t *testing.T, e *GameEngine, id string) *Player {
	t.Helper()
	p, _ := e.state.PlayerByID(id)
	require.NotNil(t, p, "player %s", id)
	return p
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func act(e *GameEngine, kind ActionKind, playerID string) *ActionResult {
	return e.ProcessAction(Action{Type: kind, PlayerID: playerID})
}
