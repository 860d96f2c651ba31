package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/monopoly-game/game/engine"
)

var errNoSession = errors.New("session not found")

// engineApplier runs actions against one in-process engine
type engineApplier struct {
	sessionID string
	engine    *engine.GameEngine
	mu        sync.Mutex
}

func newEngineApplier(t *testing.T, sessionID string) *engineApplier {
	t.Helper()
	eng, err := engine.NewEngine(sessionID, nil, engine.WithRandomizer(engine.NewRandomizer(1)))
	require.NoError(t, err)
	_, err = eng.Join("p1", "Alice")
	require.NoError(t, err)
	_, err = eng.Join("p2", "Bob")
	require.NoError(t, err)
	return &engineApplier{sessionID: sessionID, engine: eng}
}

func (a *engineApplier) ApplyAction(ctx context.Context, sessionID string, action engine.Action) (*engine.ActionResult, error) {
	if sessionID != a.sessionID {
		return nil, errNoSession
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.ProcessAction(action), nil
}

func startHub(t *testing.T, applier ActionApplier) (*Hub, string) {
	t.Helper()
	hub := NewHub(applier, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		hub.ServeWS(w, r, q.Get("session"), q.Get("player"))
	}))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, hub *Hub, baseURL, sessionID, playerID string) *websocket.Conn {
	t.Helper()
	before := hub.ClientCount(sessionID)
	conn, _, err := websocket.DefaultDialer.Dial(baseURL+"?session="+sessionID+"&player="+playerID, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount(sessionID) == before+1 },
		time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil, nil)
	require.NotNil(t, hub)
	assert.NotNil(t, hub.sessions)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.logger)
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil, nil)
	first := &Client{hub: hub, sessionID: "s1", send: make(chan []byte, 1)}
	second := &Client{hub: hub, sessionID: "s1", send: make(chan []byte, 1)}

	hub.registerClient(first)
	hub.registerClient(second)
	assert.Equal(t, 2, hub.ClientCount("s1"))

	hub.unregisterClient(first)
	assert.Equal(t, 1, hub.ClientCount("s1"))
	_, open := <-first.send
	assert.False(t, open, "send queue is closed on unregister")

	hub.unregisterClient(first)
	hub.unregisterClient(second)
	assert.Equal(t, 0, hub.ClientCount("s1"))
	_, exists := hub.sessions["s1"]
	assert.False(t, exists, "empty sessions are removed")
}

func TestHubDeliverDropsStalledClient(t *testing.T) {
	hub := NewHub(nil, nil)
	stalled := &Client{hub: hub, sessionID: "s1", send: make(chan []byte)}
	hub.registerClient(stalled)

	hub.deliver(&Message{SessionID: "s1", Event: "ping"})
	assert.Equal(t, 0, hub.ClientCount("s1"))
}

func TestWebSocketConnectAndDisconnect(t *testing.T) {
	hub, url := startHub(t, nil)
	conn := dial(t, hub, url, "ws-test", "")

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount("ws-test") == 0 },
		time.Second, 5*time.Millisecond)
}

func TestBroadcastToSession(t *testing.T) {
	hub, url := startHub(t, nil)
	inSession := dial(t, hub, url, "msg-test", "")
	other := dial(t, hub, url, "other", "")

	state := engine.NewGameState("msg-test", engine.DefaultGameConfig(), engine.NewRandomizer(1))
	state.TurnNumber = 7
	hub.BroadcastToSession("msg-test", state)

	msg := readMessage(t, inSession)
	assert.Equal(t, "msg-test", msg.SessionID)
	assert.Equal(t, EventStateUpdate, msg.Event)
	require.NotNil(t, msg.GameState)
	assert.Equal(t, 7, msg.GameState.TurnNumber)
	assert.Len(t, msg.GameState.Board, engine.BoardSize)

	other.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "clients of other sessions receive nothing")
}

func TestBroadcastIgnoresSessionIDCase(t *testing.T) {
	hub, url := startHub(t, nil)
	upper := dial(t, hub, url, "GAME", "")
	lower := dial(t, hub, url, "game", "")
	assert.Equal(t, 2, hub.ClientCount("Game"))

	state := engine.NewGameState("game", engine.DefaultGameConfig(), engine.NewRandomizer(1))
	hub.BroadcastToSession("game", state)

	for _, conn := range []*websocket.Conn{upper, lower} {
		msg := readMessage(t, conn)
		assert.Equal(t, EventStateUpdate, msg.Event)
		require.NotNil(t, msg.GameState)
	}
}

func TestBroadcastEvent(t *testing.T) {
	hub, url := startHub(t, nil)
	conn := dial(t, hub, url, "s1", "")

	hub.BroadcastEvent("s1", "session_deleted", map[string]string{"id": "s1"})

	msg := readMessage(t, conn)
	assert.Equal(t, "session_deleted", msg.Event)
	assert.Equal(t, map[string]any{"id": "s1"}, msg.Data)
}

func TestInboundActionIsBroadcast(t *testing.T) {
	applier := newEngineApplier(t, "game")
	hub, url := startHub(t, applier)
	alice := dial(t, hub, url, "game", "p1")
	bob := dial(t, hub, url, "game", "p2")

	require.NoError(t, alice.WriteJSON(ActionRequest{Action: engine.ActionEndTurn}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := readMessage(t, conn)
		assert.Equal(t, EventStateUpdate, msg.Event)
		assert.Equal(t, "p1", msg.PlayerID, "the seat from the query is the default actor")
		assert.Equal(t, engine.ActionEndTurn, msg.Action)
		require.NotNil(t, msg.Applied)
		assert.True(t, *msg.Applied)
		assert.Equal(t, 1, msg.GameState.CurrentPlayer)
		require.NotEmpty(t, msg.Events)
		assert.Equal(t, engine.EventTurnEnded, msg.Events[len(msg.Events)-1].Type)
	}
}

func TestInboundRejectedActionIsBroadcast(t *testing.T) {
	applier := newEngineApplier(t, "game")
	hub, url := startHub(t, applier)
	bob := dial(t, hub, url, "game", "p2")

	require.NoError(t, bob.WriteJSON(ActionRequest{Action: engine.ActionRollDice}))

	msg := readMessage(t, bob)
	require.NotNil(t, msg.Applied)
	assert.False(t, *msg.Applied)
	assert.Equal(t, engine.ReasonNotYourTurn, msg.Reason)
	assert.Nil(t, msg.GameState.Dice)
	assert.Empty(t, msg.Events)
}

func TestInboundErrorsGoToSenderOnly(t *testing.T) {
	applier := newEngineApplier(t, "game")
	hub, url := startHub(t, applier)
	sender := dial(t, hub, url, "game", "p1")
	watcher := dial(t, hub, url, "game", "p2")

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("{not json")))

	msg := readMessage(t, sender)
	assert.Equal(t, EventError, msg.Event)
	assert.NotEmpty(t, msg.Error)

	watcher.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	_, _, err := watcher.ReadMessage()
	assert.Error(t, err)
}

func TestInboundUnknownSession(t *testing.T) {
	applier := newEngineApplier(t, "game")
	hub, url := startHub(t, applier)
	conn := dial(t, hub, url, "elsewhere", "p1")

	require.NoError(t, conn.WriteJSON(ActionRequest{Action: engine.ActionRollDice}))

	msg := readMessage(t, conn)
	assert.Equal(t, EventError, msg.Event)
	assert.Contains(t, msg.Error, "session not found")
}

func TestRunStopsOnCancel(t *testing.T) {
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	done := make(chan struct{})
	go func() {
		hub.BroadcastEvent("s1", "late", nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after shutdown")
	}
}
