package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Rule bounds enforced by ValidateGameConfig
const (
	MinPlayerLimit  = 2
	MaxPlayerLimit  = 8
	MaxJailTurnsCap = 10
)

// DefaultTokens is the token set handed out round-robin on join
var DefaultTokens = []string{"car", "hat", "dog", "ship", "boot", "iron", "thimble", "wheelbarrow"}

// GameConfig is a named rules preset applied to a session
type GameConfig struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	StartingMoney   int      `json:"starting_money"`
	GoBonus         int      `json:"go_bonus"`
	JailFine        int      `json:"jail_fine"`
	MaxJailTurns    int      `json:"max_jail_turns"`
	IncomeTax       int      `json:"income_tax"`
	LuxuryTax       int      `json:"luxury_tax"`
	MinPlayers      int      `json:"min_players"`
	MaxPlayers      int      `json:"max_players"`
	Tokens          []string `json:"tokens"`
	StrictTurnOrder bool     `json:"strict_turn_order"`
	RentOnLanding   bool     `json:"rent_on_landing"`
	AutoBankruptcy  bool     `json:"auto_bankruptcy"`
	HistoryLimit    int      `json:"history_limit"`
}

// DefaultGameConfig returns the classic rules preset
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:            "classic",
		Description:     "Standard rules: $1500 start, $200 for passing GO, $50 jail fine",
		StartingMoney:   1500,
		GoBonus:         200,
		JailFine:        50,
		MaxJailTurns:    3,
		IncomeTax:       200,
		LuxuryTax:       100,
		MinPlayers:      2,
		MaxPlayers:      4,
		Tokens:          append([]string{}, DefaultTokens...),
		StrictTurnOrder: true,
		RentOnLanding:   false,
		AutoBankruptcy:  true,
		HistoryLimit:    50,
	}
}

// ValidateGameConfig validates a rules preset for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.StartingMoney <= 0 {
		return fmt.Errorf("config validation: starting_money must be positive, got %d", config.StartingMoney)
	}
	if config.GoBonus < 0 {
		return fmt.Errorf("config validation: go_bonus cannot be negative, got %d", config.GoBonus)
	}
	if config.JailFine < 0 {
		return fmt.Errorf("config validation: jail_fine cannot be negative, got %d", config.JailFine)
	}
	if config.IncomeTax < 0 || config.LuxuryTax < 0 {
		return fmt.Errorf("config validation: taxes cannot be negative, got income=%d luxury=%d", config.IncomeTax, config.LuxuryTax)
	}
	if config.MaxJailTurns < 1 || config.MaxJailTurns > MaxJailTurnsCap {
		return fmt.Errorf("config validation: max_jail_turns must be between 1 and %d, got %d", MaxJailTurnsCap, config.MaxJailTurns)
	}

	if config.MinPlayers < MinPlayerLimit || config.MinPlayers > MaxPlayerLimit {
		return fmt.Errorf("config validation: min_players must be between %d and %d, got %d", MinPlayerLimit, MaxPlayerLimit, config.MinPlayers)
	}
	if config.MaxPlayers < config.MinPlayers || config.MaxPlayers > MaxPlayerLimit {
		return fmt.Errorf("config validation: max_players must be between min_players (%d) and %d, got %d",
			config.MinPlayers, MaxPlayerLimit, config.MaxPlayers)
	}

	if len(config.Tokens) == 0 {
		return fmt.Errorf("config validation: at least one token is required")
	}
	seen := make(map[string]bool, len(config.Tokens))
	for i, token := range config.Tokens {
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("config validation: token %d is empty", i+1)
		}
		if seen[token] {
			return fmt.Errorf("config validation: duplicate token '%s'", token)
		}
		seen[token] = true
	}

	if config.HistoryLimit < 0 {
		return fmt.Errorf("config validation: history_limit cannot be negative, got %d", config.HistoryLimit)
	}

	return nil
}

// LoadGameConfig loads a rules preset from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigByName loads a rules preset by name from the configs directory
func LoadConfigByName(configName string) (*GameConfig, error) {
	if !strings.HasSuffix(configName, ".json") {
		configName = configName + ".json"
	}

	configPath := filepath.Join("configs", configName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file '%s' not found", configName)
	}

	config, err := LoadGameConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config '%s': %v", configName, err)
	}

	return config, nil
}
