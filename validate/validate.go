// Command validate provides a small CLI that validates rules preset JSON
// files in the ../configs directory. It checks:
//   - JSON structure, rejecting unknown fields
//   - Rule bounds (money, taxes, jail and player limits, tokens)
//   - The preset name matches its file name
//   - Enough distinct tokens for a full table
//   - Playability: a seeded bot game runs without getting stuck
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/monopoly-game/game/bot"
	"github.com/wricardo/monopoly-game/game/engine"
)

// playabilityActions bounds the smoke game played for each preset
const playabilityActions = 500

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset JSON file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}
	result.info("Rules: $%d start, $%d GO bonus, %d-%d players", config.StartingMoney, config.GoBonus, config.MinPlayers, config.MaxPlayers)

	if id := strings.TrimSuffix(result.File, ".json"); config.Name != id {
		result.fail("Name '%s' does not match file name '%s'", config.Name, id)
	}

	if len(config.Tokens) < config.MaxPlayers {
		result.fail("Only %d tokens for max_players %d", len(config.Tokens), config.MaxPlayers)
	}

	validatePlayability(&config, &result)
	return result
}

// validatePlayability seats the minimum table of bots and plays a short game
func validatePlayability(config *engine.GameConfig, result *ValidationResult) {
	out, err := bot.Simulate(config, 1, bot.DefaultStrategy(), playabilityActions)
	if err != nil {
		result.fail("Playability failure: %v", err)
		return
	}
	if out.Rejected > 0 {
		result.fail("Playability failure: %d actions rejected", out.Rejected)
		return
	}
	result.info("Playability: %d bots played %d actions over %d turns", config.MinPlayers, out.Actions, out.Turns)
}

// validateDir validates every *.json file in dir and reports whether all passed
func validateDir(dir string, report func(ValidationResult)) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)
		if !result.Valid {
			allValid = false
		}
		report(result)
	}
	return allValid, nil
}

func printResult(result ValidationResult) {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Println("✅ VALID")
		for _, info := range result.Errors {
			fmt.Println("  " + info)
		}
		return
	}

	fmt.Println("❌ INVALID")
	for _, err := range result.Errors {
		if !strings.HasPrefix(err, "✓") {
			fmt.Println("  ❌ " + err)
		}
	}
}

// main scans the configs directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	cmd := &cli.Command{
		Name:  "validate",
		Usage: "Validate rules preset files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "../configs", Usage: "Directory containing rules presets", Sources: cli.EnvVars("CONFIG_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			allValid, err := validateDir(cmd.String("dir"), printResult)
			if err != nil {
				return err
			}

			fmt.Printf("\n%s\n", strings.Repeat("=", 40))
			if !allValid {
				fmt.Println("❌ Some configurations have errors")
				return fmt.Errorf("invalid configurations in %s", cmd.String("dir"))
			}
			fmt.Println("✅ All configurations are valid!")
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
