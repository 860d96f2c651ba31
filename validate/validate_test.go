package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPreset = `{
	"name": "%NAME%",
	"description": "Test preset",
	"starting_money": 1500,
	"go_bonus": 200,
	"jail_fine": 50,
	"max_jail_turns": 3,
	"income_tax": 200,
	"luxury_tax": 100,
	"min_players": 2,
	"max_players": 4,
	"tokens": ["car", "hat", "dog", "ship"],
	"strict_turn_order": true,
	"rent_on_landing": true,
	"auto_bankruptcy": true,
	"history_limit": 50
}`

func writePreset(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name+".json")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(body, "%NAME%", name)), 0644))
	return path
}

func hasError(result ValidationResult, substr string) bool {
	for _, e := range result.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writePreset(t, t.TempDir(), "table", validPreset)

	result := validateConfig(path)
	assert.True(t, result.Valid, "unexpected errors: %v", result.Errors)
	assert.Equal(t, "table.json", result.File)
	assert.True(t, hasError(result, "✓ Rules: $1500 start"))
	assert.True(t, hasError(result, "✓ Playability: 2 bots played"))
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "broken",
			body: `{"name": "broken",`,
			want: "Invalid JSON",
		},
		{
			name: "unknown",
			body: strings.Replace(validPreset, `"history_limit": 50`, `"history_limit": 50, "free_parking_jackpot": true`, 1),
			want: "unknown field",
		},
		{
			name: "poor",
			body: strings.Replace(validPreset, `"starting_money": 1500`, `"starting_money": 0`, 1),
			want: "starting_money must be positive",
		},
		{
			name: "crowded",
			body: strings.Replace(validPreset, `"max_players": 4`, `"max_players": 12`, 1),
			want: "max_players must be between",
		},
		{
			name: "tokens",
			body: strings.Replace(validPreset, `["car", "hat", "dog", "ship"]`, `["car", "hat"]`, 1),
			want: "Only 2 tokens for max_players 4",
		},
		{
			name: "duplicate",
			body: strings.Replace(validPreset, `["car", "hat", "dog", "ship"]`, `["car", "car", "dog", "ship"]`, 1),
			want: "duplicate token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePreset(t, t.TempDir(), tt.name, tt.body)

			result := validateConfig(path)
			assert.False(t, result.Valid)
			assert.True(t, hasError(result, tt.want), "errors: %v", result.Errors)
		})
	}
}

func TestValidateConfig_NameMismatch(t *testing.T) {
	dir := t.TempDir()
	body := strings.ReplaceAll(validPreset, "%NAME%", "other")
	path := filepath.Join(dir, "table.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	result := validateConfig(path)
	assert.False(t, result.Valid)
	assert.True(t, hasError(result, "Name 'other' does not match file name 'table'"))
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.False(t, result.Valid)
	assert.True(t, hasError(result, "Failed to read file"))
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "good", validPreset)

	var seen []string
	allValid, err := validateDir(dir, func(r ValidationResult) { seen = append(seen, r.File) })
	require.NoError(t, err)
	assert.True(t, allValid)
	assert.Equal(t, []string{"good.json"}, seen)

	writePreset(t, dir, "bad", `{}`)
	allValid, err = validateDir(dir, func(ValidationResult) {})
	require.NoError(t, err)
	assert.False(t, allValid)
}

func TestValidateDirEmpty(t *testing.T) {
	_, err := validateDir(t.TempDir(), func(ValidationResult) {})
	assert.Error(t, err)
}

func TestShippedPresetsAreValid(t *testing.T) {
	allValid, err := validateDir("../configs", func(r ValidationResult) {
		assert.True(t, r.Valid, "%s: %v", r.File, r.Errors)
	})
	require.NoError(t, err)
	assert.True(t, allValid)
}
