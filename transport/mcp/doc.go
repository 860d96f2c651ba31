// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool call becomes a request to the REST API
// and the JSON answer is rendered as text. Rejected actions come back as
// normal tool results carrying the rejection reason; only transport and
// lookup failures are tool errors.
//
// Tools:
//   - create_session, get_session, list_sessions, join_session
//   - game_state, recent_events
//   - roll_dice, buy_property, end_turn, game_action
//   - list_configs, game_rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
