package bot

import (
	"errors"
	"fmt"

	"github.com/wricardo/monopoly-game/game/engine"
)

// ErrStuck is returned when the strategy cannot get an action accepted
var ErrStuck = errors.New("bot could not make progress")

// Outcome summarizes one played game
type Outcome struct {
	Finished         bool   `json:"finished"`
	Winner           string `json:"winner,omitempty"`
	Turns            int    `json:"turns"`
	Actions          int    `json:"actions"`
	Rejected         int    `json:"rejected"`
	Bankruptcies     int    `json:"bankruptcies"`
	PropertiesBought int    `json:"properties_bought"`
	PassedGo         int    `json:"passed_go"`
	JailVisits       int    `json:"jail_visits"`
}

// Play drives eng with strategy until the game finishes or maxActions
// actions have been applied
func Play(eng *engine.GameEngine, strategy Strategy, maxActions int) (Outcome, error) {
	var out Outcome
	config := eng.GetConfig()

	for out.Actions < maxActions {
		state := eng.GetState()
		if state.Status != engine.StatusPlaying {
			break
		}

		action := strategy.Next(state, config)
		result := eng.ProcessAction(action)
		if !result.Applied {
			out.Rejected++
			fallback := engine.Action{Type: engine.ActionEndTurn, PlayerID: action.PlayerID}
			if action.Type == engine.ActionEndTurn {
				return out, fmt.Errorf("%w: %s", ErrStuck, result.Reason)
			}
			result = eng.ProcessAction(fallback)
			if !result.Applied {
				return out, fmt.Errorf("%w: %s", ErrStuck, result.Reason)
			}
		}

		out.Actions++
		out.record(result.Events)
	}

	final := eng.GetState()
	out.Turns = final.TurnNumber
	out.Finished = final.Status == engine.StatusFinished
	out.Winner = final.Winner
	return out, nil
}

func (o *Outcome) record(events []engine.Event) {
	for _, ev := range events {
		switch ev.Type {
		case engine.EventWentBankrupt:
			o.Bankruptcies++
		case engine.EventBoughtProperty:
			o.PropertiesBought++
		case engine.EventPassedGo:
			o.PassedGo++
		case engine.EventWentToJail:
			o.JailVisits++
		}
	}
}

// Simulate seats config.MinPlayers bots in a fresh seeded engine and plays it
func Simulate(config *engine.GameConfig, seed int64, strategy Strategy, maxActions int) (Outcome, error) {
	eng, err := engine.NewEngine(fmt.Sprintf("sim-%d", seed), config,
		engine.WithRandomizer(engine.NewRandomizer(seed)))
	if err != nil {
		return Outcome{}, err
	}

	for i := 1; i <= eng.GetConfig().MinPlayers; i++ {
		id := fmt.Sprintf("bot%d", i)
		if _, err := eng.Join(id, id); err != nil {
			return Outcome{}, fmt.Errorf("failed to seat %s: %w", id, err)
		}
	}

	return Play(eng, strategy, maxActions)
}
