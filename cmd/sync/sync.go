package sync

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/sync"
	"github.com/dipcp/dipcp/internal/ui"
)

// Command mirrors the remote repository into the local file cache
type Command struct {
	// Flags
	Quiet bool

	// Clients (can be mocked in tests)
	Config *config.Config
	Store  *store.Store
	Engine *sync.Engine
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the latest remote state into the file cache",
		Long: `Mirror the repository's default branch into the local file cache.

Local edits are never touched: they live in a separate partition and
keep winning over the cached copy until submitted.

Example:
  dipcp sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, ghClient, err := common.InitClients()
			if err != nil {
				return err
			}
			c.Config = cfg
			c.Store = st
			c.Engine = sync.NewEngine(ghClient, st)
			return c.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&c.Quiet, "quiet", "q", false, "suppress per-file progress")

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run(ctx context.Context) error {
	ui.Infof("Syncing %s/%s@%s", c.Config.Owner, c.Config.Repo, c.Config.DefaultBranch)

	progress, err := c.Engine.Sync(ctx, c.Config.Owner, c.Config.Repo, c.Config.DefaultBranch)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	var total, failed int
	for p := range progress {
		total = p.Total
		if p.Err != nil {
			failed++
			ui.Warningf("%s: %v", p.Path, p.Err)
			continue
		}
		if !c.Quiet {
			ui.Printf("  [%3d%%] %s\n", p.Percent, p.Path)
		}
	}

	if failed > 0 {
		ui.Warningf("Synced %d file(s), %d failed", total-failed, failed)
		return nil
	}
	ui.Successf("Synced %d file(s)", total)
	return nil
}
