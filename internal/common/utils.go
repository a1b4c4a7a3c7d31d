package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/gh"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/ui"
)

// GenerateUUID generates a 16-character hex identifier for submissions
func GenerateUUID() string {
	u := uuid.New()
	hexStr := strings.ReplaceAll(u.String(), "-", "")
	return hexStr[:16]
}

// InitClients loads the workspace config and initializes the store and
// GitHub client. Returns an error that is suitable for use in PreRunE
// hooks.
func InitClients() (*config.Config, *store.Store, *gh.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		ui.Error("No workspace configured. Run 'dipcp init' first")
		return nil, nil, nil, fmt.Errorf("config load failed: %w", err)
	}

	st, err := store.Open(cfg.StoreDir())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("store initialization failed: %w", err)
	}

	return cfg, st, gh.NewClient(), nil
}
