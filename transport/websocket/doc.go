// Package websocket provides the real-time transport of the Monopoly server.
//
// A single Hub goroutine owns the per-session client sets; every outbound
// message goes through its broadcast channel, so fan-out never races with
// registration. Each connection runs a read pump and a write pump.
//
// Clients attach with ?session=<id>&player=<id>. The player id is optional
// and is used as the actor of inbound actions that do not name one.
//
// Inbound frames:
//
//	{"action": "ROLL_DICE"}
//	{"action": "BUY_PROPERTY", "player_id": "p2"}
//
// Every processed action, applied or rejected, is broadcast to the whole
// session as a state_update carrying the new state, the events produced and
// the rejection reason if any. Malformed frames and unknown sessions are
// answered with an error message to the sender only.
//
// Usage:
//
//	hub := websocket.NewHub(gameService, logger)
//	go hub.Run(ctx)
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		q := r.URL.Query()
//		hub.ServeWS(w, r, q.Get("session"), q.Get("player"))
//	})
package websocket
