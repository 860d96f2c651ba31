// Package config provides rules preset management for the board game server.
//
// Presets are JSON files in the configs directory; the file name without
// extension is the preset id used when creating a session. Each preset sets
// starting money, the GO bonus, jail and tax amounts, seat limits, the token
// pool and the optional rules (strict turn order, rent on landing, automatic
// bankruptcy).
//
// Shipped presets:
//   - classic: two to four players, no rent on landing
//   - house_rules: three to six players, rent charged on landing
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rules, err := manager.LoadConfig("house_rules")
//	defaults := manager.GetDefault()
//	presets, err := manager.ListConfigs()
//
// Every preset is checked with engine.ValidateGameConfig before it is cached
// or written.
package config
