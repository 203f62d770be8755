package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StateDirName is the per-project state directory holding config,
// database, ledger and task payloads.
const StateDirName = ".ctx"

// Config represents the flat ctx configuration.
type Config struct {
	Version         string `json:"version"`
	ConceptsDir     string `json:"concepts_dir"`               // concept documents root
	BaselineConcept string `json:"baseline_concept,omitempty"` // implicitly loaded for every task
	DefaultTemplate string `json:"default_template,omitempty"` // report template name
	AgentBinary     string `json:"agent_binary,omitempty"`     // external agent CLI
}

// DefaultConfig returns the configuration written by `ctx init`.
func DefaultConfig() *Config {
	return &Config{
		Version:         "1",
		ConceptsDir:     filepath.Join("context", "concepts"),
		DefaultTemplate: "default",
	}
}

// StateDir returns the state directory under dir.
func StateDir(dir string) string {
	return filepath.Join(dir, StateDirName)
}

// LoadConfig reads .ctx/config.json from the specified directory.
// Resolution order: cwd only (no home fallback). A missing file yields
// the defaults so read-only commands work before `ctx init`.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(StateDir(dir), "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ConceptsDir == "" {
		cfg.ConceptsDir = DefaultConfig().ConceptsDir
	}
	if cfg.DefaultTemplate == "" {
		cfg.DefaultTemplate = DefaultConfig().DefaultTemplate
	}

	return &cfg, nil
}

// SaveConfig writes config.json to the directory's state dir.
func SaveConfig(dir string, cfg *Config) error {
	stateDir := StateDir(dir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", StateDirName, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(stateDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
