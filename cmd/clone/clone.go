package clone

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/localgit"
	"github.com/dipcp/dipcp/internal/ui"
)

// Command clones the configured repository to disk
type Command struct {
	// Arguments
	Dir string

	// Clients (can be mocked in tests)
	Config *config.Config
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "clone [dir]",
		Short: "Clone the configured repository to disk",
		Long: `Clone the configured repository's default branch into a local
directory, for working with tools outside this CLI. The clone is
independent of the workspace store.

Example:
  dipcp clone
  dipcp clone ~/src/content`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				c.Dir = args[0]
			}
			cfg, _, _, err := common.InitClients()
			if err != nil {
				return err
			}
			c.Config = cfg
			return c.Run(cmd.Context())
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run(ctx context.Context) error {
	dir := c.Dir
	if dir == "" {
		dir = c.Config.Repo
	}

	ui.Infof("Cloning %s/%s into %s", c.Config.Owner, c.Config.Repo, dir)
	if err := localgit.Clone(ctx, dir, c.Config.Owner, c.Config.Repo, c.Config.DefaultBranch); err != nil {
		return err
	}

	ui.Successf("Cloned %s/%s", c.Config.Owner, c.Config.Repo)
	return nil
}
