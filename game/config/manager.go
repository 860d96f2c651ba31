package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultPresetName is the preset used when a session names none
const DefaultPresetName = "classic"

// Manager loads rules presets from a directory and caches them by id.
// A preset id is its file name without the .json extension.
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	mu            sync.RWMutex
}

// NewManager creates a preset manager over configDir
func NewManager(configDir string) (*Manager, error) {
	info, err := os.Stat(configDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
	}
	m.defaultConfig = m.resolveDefault()
	return m, nil
}

// LoadConfig returns the preset with the given id, reading it on first use
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id, err := presetID(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	cached, ok := m.configs[id]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	config, err := readPreset(filepath.Join(m.configDir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("preset '%s': %w", id, err)
	}

	m.mu.Lock()
	if existing, ok := m.configs[id]; ok {
		config = existing
	} else {
		m.configs[id] = config
	}
	m.mu.Unlock()

	return config, nil
}

// ListConfigs describes every valid preset in the directory, sorted by id.
// Invalid files are skipped.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	infos := make([]*service.ConfigInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		config, err := m.LoadConfig(id)
		if err != nil {
			continue
		}
		infos = append(infos, &service.ConfigInfo{
			Filename:      entry.Name(),
			ConfigID:      id,
			Name:          config.Name,
			Description:   config.Description,
			StartingMoney: config.StartingMoney,
			MinPlayers:    config.MinPlayers,
			MaxPlayers:    config.MaxPlayers,
			RentOnLanding: config.RentOnLanding,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ConfigID < infos[j].ConfigID })
	return infos, nil
}

// GetDefault returns the default preset
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault makes the named preset the default
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// RefreshCache drops cached presets and re-resolves the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	def := m.resolveDefault()

	m.mu.Lock()
	m.defaultConfig = def
	m.mu.Unlock()
}

// SaveConfig validates and writes a preset, replacing any cached copy
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	id, err := presetID(name)
	if err != nil {
		return err
	}
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.configDir, id+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()
	return nil
}

// resolveDefault prefers classic.json, then the first valid preset on disk,
// then the built-in classic rules
func (m *Manager) resolveDefault() *engine.GameConfig {
	if config, err := m.LoadConfig(DefaultPresetName); err == nil {
		return config
	}
	if infos, err := m.ListConfigs(); err == nil && len(infos) > 0 {
		if config, err := m.LoadConfig(infos[0].ConfigID); err == nil {
			return config
		}
	}
	return engine.DefaultGameConfig()
}

// presetID strips the extension and refuses names that would escape the directory
func presetID(name string) (string, error) {
	id := strings.TrimSuffix(strings.TrimSpace(name), ".json")
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: '%s'", ErrConfigNotFound, name)
	}
	return id, nil
}

func readPreset(path string) (*engine.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := engine.ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &config, nil
}
