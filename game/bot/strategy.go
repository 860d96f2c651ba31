// Package bot drives games with scripted players. It is used by the preset
// analyzer and validator to play seeded games end to end.
package bot

import "github.com/wricardo/monopoly-game/game/engine"

// Strategy picks the next action for the active player
type Strategy interface {
	Next(state *engine.GameState, config *engine.GameConfig) engine.Action
}

// Greedy buys every affordable property while keeping Reserve dollars in
// hand, leaves jail with a card when it has one and pays the fine when it
// can spare JailReserve.
type Greedy struct {
	Reserve     int
	JailReserve int
}

// DefaultStrategy is a Greedy bot keeping a small cash cushion
func DefaultStrategy() Greedy {
	return Greedy{Reserve: 100, JailReserve: 300}
}

// Next implements Strategy
func (g Greedy) Next(state *engine.GameState, config *engine.GameConfig) engine.Action {
	p := state.ActivePlayer()
	if p == nil {
		return engine.Action{Type: engine.ActionEndTurn}
	}
	act := func(kind engine.ActionKind) engine.Action {
		return engine.Action{Type: kind, PlayerID: p.ID}
	}

	if state.Dice == nil {
		if p.InJail {
			if p.GetOutOfJailCards > 0 {
				return act(engine.ActionUseJailCard)
			}
			if config != nil && p.Money-config.JailFine >= g.JailReserve {
				return act(engine.ActionPayJailFine)
			}
		}
		return act(engine.ActionRollDice)
	}

	if g.shouldBuy(state, p) {
		return act(engine.ActionBuyProperty)
	}
	if state.CanRollAgain {
		return act(engine.ActionRollDice)
	}
	return act(engine.ActionEndTurn)
}

func (g Greedy) shouldBuy(state *engine.GameState, p *engine.Player) bool {
	space, ok := state.SpaceAt(p.Position)
	if !ok || !space.Purchasable() || space.Owner != "" {
		return false
	}
	return p.Money-space.Price >= g.Reserve
}
