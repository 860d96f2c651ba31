package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/monopoly-game/game/config"
	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/service"
	"github.com/wricardo/monopoly-game/game/session"
	"github.com/wricardo/monopoly-game/transport/websocket"
)

type testEnv struct {
	server  *Server
	service service.GameService
	hub     *websocket.Hub
}

// newTestEnv wires the real session, config and service layers over a copy
// of the shipped presets
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{"classic.json", "house_rules.json"} {
		raw, err := os.ReadFile(filepath.Join("..", "configs", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0644))
	}

	configs, err := config.NewManager(dir)
	require.NoError(t, err)

	seed := int64(0)
	sessions := session.NewManager(session.WithRandomSource(func() engine.Randomizer {
		seed++
		return engine.NewRandomizer(seed)
	}))
	svc := service.NewGameService(sessions, configs, nil)

	hub := websocket.NewHub(svc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	return &testEnv{
		server:  NewServer(svc, hub),
		service: svc,
		hub:     hub,
	}
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
}

// startGame creates a session and seats two players
func (env *testEnv) startGame(t *testing.T, id string) {
	t.Helper()
	w := env.do(t, "POST", "/api/sessions", map[string]string{"id": id})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	for _, p := range []string{"p1", "p2"} {
		w := env.do(t, "POST", "/api/sessions/"+id+"/join", map[string]string{"player_id": p})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedConfig string
	}{
		{name: "default config", body: nil, expectedStatus: http.StatusCreated, expectedConfig: "classic"},
		{name: "named config", body: map[string]string{"config_id": "house_rules"}, expectedStatus: http.StatusCreated, expectedConfig: "house_rules"},
		{name: "explicit id", body: map[string]string{"id": "table-1"}, expectedStatus: http.StatusCreated, expectedConfig: "classic"},
		{name: "duplicate id", body: map[string]string{"id": "TABLE-1"}, expectedStatus: http.StatusConflict},
		{name: "invalid id", body: map[string]string{"id": "no spaces"}, expectedStatus: http.StatusBadRequest},
		{name: "unknown config", body: map[string]string{"config_id": "nonexistent"}, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/api/sessions", tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusCreated {
				return
			}
			var info service.SessionInfo
			decode(t, w, &info)
			assert.Equal(t, tt.expectedConfig, info.ConfigName)
			assert.Equal(t, engine.StatusWaiting, info.Status)
			assert.NotEmpty(t, info.ID)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{"))
		w := httptest.NewRecorder()
		env.server.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestJoinSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "POST", "/api/sessions", map[string]string{"id": "g1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/api/sessions/g1/join", map[string]string{"player_id": "p1", "name": "Alice"})
	require.Equal(t, http.StatusOK, w.Code)
	var first service.JoinResult
	decode(t, w, &first)
	assert.Equal(t, "p1", first.PlayerID)
	assert.Equal(t, engine.StatusWaiting, first.GameState.Status)

	w = env.do(t, "POST", "/api/sessions/g1/join", map[string]string{"player_id": "p1"})
	assert.Equal(t, http.StatusConflict, w.Code, "duplicate player")

	w = env.do(t, "POST", "/api/sessions/g1/join", map[string]string{"name": "Bob"})
	require.Equal(t, http.StatusOK, w.Code)
	var second service.JoinResult
	decode(t, w, &second)
	assert.NotEmpty(t, second.PlayerID)
	assert.Equal(t, engine.StatusPlaying, second.GameState.Status)

	w = env.do(t, "POST", "/api/sessions/g1/join", map[string]string{"player_id": "p3"})
	assert.Equal(t, http.StatusConflict, w.Code, "game already started")

	w = env.do(t, "POST", "/api/sessions/missing/join", map[string]string{"player_id": "p1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActions(t *testing.T) {
	env := newTestEnv(t)
	env.startGame(t, "g1")

	t.Run("rejected action answers 200 with reason", func(t *testing.T) {
		w := env.do(t, "POST", "/api/sessions/g1/actions", engine.Action{Type: engine.ActionRollDice, PlayerID: "p2"})
		require.Equal(t, http.StatusOK, w.Code)
		var result engine.ActionResult
		decode(t, w, &result)
		assert.False(t, result.Applied)
		assert.Equal(t, engine.ReasonNotYourTurn, result.Reason)
		assert.Nil(t, result.State.Dice)
	})

	t.Run("roll", func(t *testing.T) {
		w := env.do(t, "POST", "/api/sessions/g1/actions", map[string]string{"type": "roll_dice", "player_id": "p1"})
		require.Equal(t, http.StatusOK, w.Code)
		var result engine.ActionResult
		decode(t, w, &result)
		assert.True(t, result.Applied)
		require.NotNil(t, result.State.Dice)
		assert.NotEmpty(t, result.Events)
	})

	t.Run("not implemented", func(t *testing.T) {
		w := env.do(t, "POST", "/api/sessions/g1/actions", engine.Action{Type: engine.ActionAuction, PlayerID: "p1"})
		require.Equal(t, http.StatusOK, w.Code)
		var result engine.ActionResult
		decode(t, w, &result)
		assert.False(t, result.Applied)
		assert.Equal(t, engine.ReasonNotImplemented, result.Reason)
	})

	t.Run("missing type", func(t *testing.T) {
		w := env.do(t, "POST", "/api/sessions/g1/actions", map[string]string{"player_id": "p1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		w := env.do(t, "POST", "/api/sessions/nope/actions", engine.Action{Type: engine.ActionEndTurn, PlayerID: "p1"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetStateAndEvents(t *testing.T) {
	env := newTestEnv(t)
	env.startGame(t, "g1")
	w := env.do(t, "POST", "/api/sessions/g1/actions", engine.Action{Type: engine.ActionEndTurn, PlayerID: "p1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/sessions/g1/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state engine.GameState
	decode(t, w, &state)
	assert.Equal(t, 1, state.CurrentPlayer)
	assert.Equal(t, 2, state.TurnNumber)
	assert.Len(t, state.Board, engine.BoardSize)

	w = env.do(t, "GET", "/api/sessions/g1/events?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events struct {
		Count  int            `json:"count"`
		Events []engine.Event `json:"events"`
	}
	decode(t, w, &events)
	require.Equal(t, 1, events.Count)
	assert.Equal(t, engine.EventTurnEnded, events.Events[0].Type)

	w = env.do(t, "GET", "/api/sessions/g1/events?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "GET", "/api/sessions/nope/state", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSessions(t *testing.T) {
	env := newTestEnv(t)
	for _, id := range []string{"a", "b", "c"} {
		w := env.do(t, "POST", "/api/sessions", map[string]string{"id": id})
		require.Equal(t, http.StatusCreated, w.Code)
		time.Sleep(2 * time.Millisecond)
	}
	env.startGame(t, "d")

	var resp struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
		Sort     string                 `json:"sort"`
		Order    string                 `json:"order"`
	}

	w := env.do(t, "GET", "/api/sessions?sort=created&order=asc&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, "a", resp.Sessions[0].ID)
	assert.Equal(t, "created", resp.Sort)
	assert.Equal(t, "asc", resp.Order)

	w = env.do(t, "GET", "/api/sessions?status=playing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "d", resp.Sessions[0].ID)
}

func TestGetAndDeleteSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "POST", "/api/sessions", map[string]string{"id": "g1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "GET", "/api/sessions/g1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info service.SessionInfo
	decode(t, w, &info)
	assert.Equal(t, "g1", info.ID)
	require.NotNil(t, info.GameConfig)
	assert.Equal(t, 1500, info.GameConfig.StartingMoney)

	w = env.do(t, "DELETE", "/api/sessions/g1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/sessions/g1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, "DELETE", "/api/sessions/g1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBoard(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/api/board", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var board []engine.PropertySpace
	decode(t, w, &board)
	require.Len(t, board, engine.BoardSize)
	assert.Equal(t, "Mayfair", board[engine.MayfairIndex].Name)
}

func TestConfigs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/configs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var infos []service.ConfigInfo
	decode(t, w, &infos)
	require.Len(t, infos, 2)
	assert.Equal(t, "classic", infos[0].ConfigID)

	w = env.do(t, "GET", "/api/configs/house_rules.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var houseRules engine.GameConfig
	decode(t, w, &houseRules)
	assert.True(t, houseRules.RentOnLanding)

	w = env.do(t, "GET", "/api/configs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	custom := engine.DefaultGameConfig()
	custom.Name = "quick"
	custom.StartingMoney = 500
	w = env.do(t, "POST", "/api/configs", custom)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, "POST", "/api/sessions", map[string]string{"config_id": "quick"})
	require.Equal(t, http.StatusCreated, w.Code)

	invalid := engine.DefaultGameConfig()
	invalid.Name = "broken"
	invalid.MinPlayers = 9
	w = env.do(t, "POST", "/api/configs", invalid)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/api/configs", map[string]int{"starting_money": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code, "name is required")
}

func TestHealthAndCORS(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	req := httptest.NewRequest("OPTIONS", "/api/sessions", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(session.ErrSessionNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(engine.ErrGameFull))
	assert.Equal(t, http.StatusBadRequest, statusFor(engine.ErrInvalidPlayerID))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestWebSocket(t *testing.T) {
	env := newTestEnv(t)
	env.startGame(t, "g1")

	ts := httptest.NewServer(env.server)
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	t.Run("missing session parameter", func(t *testing.T) {
		_, resp, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, resp, err := gorillaws.DefaultDialer.Dial(wsURL+"?session=nope", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("rest actions reach socket clients", func(t *testing.T) {
		conn, _, err := gorillaws.DefaultDialer.Dial(wsURL+"?session=g1&player=p2", nil)
		require.NoError(t, err)
		defer conn.Close()
		require.Eventually(t, func() bool { return env.hub.ClientCount("g1") == 1 },
			time.Second, 5*time.Millisecond)

		w := env.do(t, "POST", "/api/sessions/g1/actions", engine.Action{Type: engine.ActionEndTurn, PlayerID: "p1"})
		require.Equal(t, http.StatusOK, w.Code)

		conn.SetReadDeadline(time.Now().Add(time.Second))
		var msg websocket.Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, websocket.EventStateUpdate, msg.Event)
		require.NotNil(t, msg.Applied)
		assert.True(t, *msg.Applied)
		assert.Equal(t, 1, msg.GameState.CurrentPlayer)

		// p2 now acts over the socket
		require.NoError(t, conn.WriteJSON(websocket.ActionRequest{Action: engine.ActionRollDice}))
		conn.SetReadDeadline(time.Now().Add(time.Second))
		require.NoError(t, conn.ReadJSON(&msg))
		require.NotNil(t, msg.Applied)
		assert.True(t, *msg.Applied)
		assert.Equal(t, "p2", msg.PlayerID)
		assert.NotNil(t, msg.GameState.Dice)
	})
}
