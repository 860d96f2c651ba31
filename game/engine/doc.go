// Package engine provides the core game logic for the property-trading board game.
//
// The engine package implements the game mechanics including:
//   - The 40-space board with streets, stations, utilities, taxes and card spaces
//   - Dice rolling, movement and the GO bonus
//   - Jail entry and the three ways out (doubles, a held card, the fine)
//   - Chance and community chest decks with reshuffle on exhaustion
//   - Purchases, turn rotation, bankruptcy and win detection
//   - Rules presets loaded from JSON and validated
//
// Core Types:
//
// The Engine interface defines the contract for one session, implemented by
// GameEngine. GameState is the serializable session state, GameConfig is a
// named rules preset. Every call to ProcessAction returns an ActionResult
// holding a copy of the state and the events the action produced; rejected
// actions leave the state untouched and report why in Reason.
//
// Usage:
//
//	eng, err := engine.NewEngine("a1b2", engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.Join("p1", "Alice")
//	eng.Join("p2", "Bob")
//
//	result := eng.ProcessAction(engine.Action{Type: engine.ActionRollDice, PlayerID: "p1"})
//	for _, ev := range result.Events {
//		fmt.Println(ev.Message)
//	}
//
// Randomness:
//
// Dice and shuffles read from a Randomizer. Production sessions use a
// crypto-seeded source; tests pass WithRandomizer to script rolls.
package engine
