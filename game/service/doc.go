// Package service provides the business logic layer of the Monopoly server.
//
// The service package implements:
//   - Multi-session game management
//   - Player seating and action routing
//   - Rules preset lookup
//   - Event history queries
//
// Core Interfaces:
//
// GameService is what the transports (REST, WebSocket, MCP) talk to.
// SessionManager stores sessions and serializes engine access per session.
// ConfigManager loads rules presets.
//
// Rule violations are not errors at this layer: ApplyAction returns an
// engine.ActionResult with Applied set to false and a Reason. Errors are kept
// for missing sessions, unknown presets and failed joins, and wrap the
// underlying sentinel so callers can test them with errors.Is.
//
// Usage:
//
//	sessions := session.NewManager()
//	configs, _ := config.NewManager("configs")
//	svc := service.NewGameService(sessions, configs, logger)
//
//	info, err := svc.CreateSession(ctx, "", "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc.JoinSession(ctx, info.ID, "p1", "Alice")
//	svc.JoinSession(ctx, info.ID, "p2", "Bob")
//
//	result, err := svc.ApplyAction(ctx, info.ID, engine.Action{
//		Type:     engine.ActionRollDice,
//		PlayerID: "p1",
//	})
package service
