// Command analyze prints quick, human-readable heuristics about the rules
// presets in the configs directory. For each preset it summarizes the money
// and player settings, then plays a batch of seeded bot games and reports how
// often they finish, how long they run and how many players go bankrupt.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/monopoly-game/game/bot"
	"github.com/wricardo/monopoly-game/game/config"
	"github.com/wricardo/monopoly-game/game/engine"
)

// Report aggregates the simulated games of one preset
type Report struct {
	ConfigID         string         `json:"config_id"`
	Name             string         `json:"name"`
	Players          int            `json:"players"`
	Games            int            `json:"games"`
	Finished         int            `json:"finished"`
	FinishRate       float64        `json:"finish_rate"`
	AvgTurns         float64        `json:"avg_turns"`
	AvgActions       float64        `json:"avg_actions"`
	Bankruptcies     int            `json:"bankruptcies"`
	PropertiesBought int            `json:"properties_bought"`
	JailVisits       int            `json:"jail_visits"`
	Wins             map[string]int `json:"wins"`
	Failures         []string       `json:"failures,omitempty"`
	Warnings         []string       `json:"warnings,omitempty"`
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "Simulate bot games for each rules preset and print heuristics",
		ArgsUsage: "[preset...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing rules presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "games", Value: 20, Usage: "Games to simulate per preset"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "Seed of the first game; game i uses seed+i"},
			&cli.IntFlag{Name: "max-actions", Value: 2000, Usage: "Actions after which a game counts as unfinished"},
			&cli.BoolFlag{Name: "json", Usage: "Print reports as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reports, err := analyzeDir(cmd.String("config-dir"), cmd.Args().Slice(),
				int(cmd.Int("games")), int64(cmd.Int("seed")), int(cmd.Int("max-actions")))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			for _, r := range reports {
				printReport(os.Stdout, r)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

// analyzeDir analyzes the named presets, or every valid preset when none are named
func analyzeDir(dir string, presets []string, games int, seed int64, maxActions int) ([]Report, error) {
	manager, err := config.NewManager(dir)
	if err != nil {
		return nil, err
	}

	if len(presets) == 0 {
		infos, err := manager.ListConfigs()
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			presets = append(presets, info.ConfigID)
		}
	}

	reports := make([]Report, 0, len(presets))
	for _, id := range presets {
		cfg, err := manager.LoadConfig(id)
		if err != nil {
			return nil, err
		}
		reports = append(reports, analyzeConfig(id, cfg, games, seed, maxActions))
	}
	return reports, nil
}

// analyzeConfig plays a batch of seeded bot games under cfg
func analyzeConfig(id string, cfg *engine.GameConfig, games int, seed int64, maxActions int) Report {
	report := Report{
		ConfigID: id,
		Name:     cfg.Name,
		Players:  cfg.MinPlayers,
		Games:    games,
		Wins:     make(map[string]int),
	}
	report.Warnings = heuristics(cfg)

	totalTurns, totalActions := 0, 0
	for i := 0; i < games; i++ {
		out, err := bot.Simulate(cfg, seed+int64(i), bot.DefaultStrategy(), maxActions)
		if err != nil {
			report.Failures = append(report.Failures, fmt.Sprintf("seed %d: %v", seed+int64(i), err))
			continue
		}
		totalTurns += out.Turns
		totalActions += out.Actions
		report.Bankruptcies += out.Bankruptcies
		report.PropertiesBought += out.PropertiesBought
		report.JailVisits += out.JailVisits
		if out.Finished {
			report.Finished++
			if out.Winner != "" {
				report.Wins[out.Winner]++
			}
		}
	}

	if played := games - len(report.Failures); played > 0 {
		report.FinishRate = float64(report.Finished) / float64(played)
		report.AvgTurns = float64(totalTurns) / float64(played)
		report.AvgActions = float64(totalActions) / float64(played)
	}
	if games > 0 && report.Finished == 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("no game finished within %d actions", maxActions))
	}
	return report
}

// heuristics flags settings that make for odd games
func heuristics(cfg *engine.GameConfig) []string {
	var warnings []string
	if len(cfg.Tokens) < cfg.MaxPlayers {
		warnings = append(warnings, fmt.Sprintf("%d tokens for up to %d players, tokens will repeat", len(cfg.Tokens), cfg.MaxPlayers))
	}
	if !cfg.RentOnLanding && cfg.GoBonus > 0 {
		warnings = append(warnings, "no rent and a GO bonus: money only drains through taxes, cards and jail")
	}
	if !cfg.AutoBankruptcy {
		warnings = append(warnings, "auto bankruptcy off: games cannot end")
	}
	if cfg.StartingMoney < cfg.JailFine {
		warnings = append(warnings, "starting money below the jail fine")
	}
	return warnings
}

func printReport(w io.Writer, r Report) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", r.ConfigID)
	fmt.Fprintf(w, "Name: %s\n", r.Name)
	fmt.Fprintf(w, "Bots per game: %d\n", r.Players)
	fmt.Fprintf(w, "Games: %d (finished %d, %.0f%%)\n", r.Games, r.Finished, r.FinishRate*100)
	fmt.Fprintf(w, "Average turns: %.1f\n", r.AvgTurns)
	fmt.Fprintf(w, "Average actions: %.1f\n", r.AvgActions)
	fmt.Fprintf(w, "Bankruptcies: %d\n", r.Bankruptcies)
	fmt.Fprintf(w, "Properties bought: %d\n", r.PropertiesBought)
	fmt.Fprintf(w, "Jail visits: %d\n", r.JailVisits)

	for i := 1; i <= r.Players; i++ {
		id := fmt.Sprintf("bot%d", i)
		fmt.Fprintf(w, "  %s wins: %d\n", id, r.Wins[id])
	}

	for _, f := range r.Failures {
		fmt.Fprintf(w, "❌ %s\n", f)
	}
	if len(r.Warnings) == 0 {
		fmt.Fprintf(w, "✅ No rule warnings\n")
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "⚠️  WARNING: %s\n", warning)
	}
}
