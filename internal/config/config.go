// Package config persists the workspace configuration: which
// repository the user is working against and who they are.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the workspace configuration created by 'dipcp init'.
// The store holds state for one repository at a time: re-initializing
// against a different repository overwrites path-keyed state.
type Config struct {
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	DefaultBranch string `json:"default_branch"`
	Username      string `json:"username"`
}

// StateDir returns the root state directory (DIPCP_STATE_DIR, or
// ~/.dipcp).
func StateDir() string {
	if dir := os.Getenv("DIPCP_STATE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dipcp"
	}
	return filepath.Join(home, ".dipcp")
}

func configPath() string {
	return filepath.Join(StateDir(), "config.json")
}

// Load reads the workspace config. Fails if 'dipcp init' has not run.
func Load() (*Config, error) {
	data, err := os.ReadFile(configPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse workspace config: %w", err)
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("workspace config is missing repository coordinates")
	}
	return &cfg, nil
}

// Save writes the workspace config, creating the state dir if needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(StateDir(), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workspace config: %w", err)
	}
	if err := os.WriteFile(configPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write workspace config: %w", err)
	}
	return nil
}

// StoreDir returns the directory holding the dual-store partitions.
func (c *Config) StoreDir() string {
	return filepath.Join(StateDir(), "store")
}
