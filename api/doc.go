// Package api provides the HTTP REST API for the Monopoly game server.
//
// The api package implements:
//   - Session lifecycle endpoints (create, list, inspect, delete)
//   - Seating players and submitting turn actions
//   - Game state and recent event queries
//   - Rules preset listing, lookup and upload
//   - WebSocket upgrade handling for live state updates
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"id": "...", "config_id": "classic"}, both optional)
//   - GET /api/sessions - List sessions, newest first
//   - GET /api/sessions/{id} - Get session summary with game state
//   - DELETE /api/sessions/{id} - Delete a session
//
// Gameplay:
//   - POST /api/sessions/{id}/join - Seat a player ({"player_id": "p1", "name": "Alice"})
//   - POST /api/sessions/{id}/actions - Apply an action ({"type": "ROLL_DICE", "player_id": "p1"})
//   - GET /api/sessions/{id}/state - Current game state
//   - GET /api/sessions/{id}/events?limit=20 - Most recent events
//   - GET /api/board - The static board layout
//
// Rules presets:
//   - GET /api/configs - List valid presets
//   - GET /api/configs/{name} - Get one preset
//   - POST /api/configs - Save a preset
//
// Other:
//   - GET /ws?session={id}&player={id} - WebSocket stream for a session
//   - GET /health - Liveness probe
//
// Action responses:
//
// A well-formed action always returns 200 with an ActionResult. Rule
// violations are reported in the body, not as HTTP errors:
//
//	{
//	  "applied": false,
//	  "reason": "not your turn",
//	  "events": [],
//	  "game_state": { ... }
//	}
//
// Every processed action is also pushed to WebSocket subscribers of the session.
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status derived from the service
// error: 404 for unknown sessions or presets, 409 for conflicts such as a full
// table or a duplicate id, 400 for malformed input.
//
//	{
//	  "error": "session not found"
//	}
package api
