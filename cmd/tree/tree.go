package tree

import (
	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/tree"
	"github.com/dipcp/dipcp/internal/ui"
)

// Command renders the project file tree
type Command struct {
	// Clients (can be mocked in tests)
	Config *config.Config
	Store  *store.Store
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the project file tree",
		Long: `Show the project as a directory tree.

The tree merges the cached remote state with local edits (local wins)
and excludes files marked for deletion. Locally edited files are
tagged [local].`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, _, err := common.InitClients()
			if err != nil {
				return err
			}
			c.Config = cfg
			c.Store = st
			return c.Run()
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run() error {
	records := c.Store.EffectiveAll()
	root := tree.Build(records)

	title := c.Config.Owner + "/" + c.Config.Repo
	ui.Println(ui.RenderFileTree(title, root))

	var files, dirs, local int
	for _, rec := range records {
		if rec.IsDir() {
			dirs++
			continue
		}
		files++
		if rec.IsLocal {
			local++
		}
	}
	ui.Println(ui.RenderTreeSummary(files, dirs, local))
	return nil
}
