package status

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/editor"
	"github.com/dipcp/dipcp/internal/roles"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/ui"
)

// Command shows the workspace status
type Command struct {
	// Flags
	All bool

	// Clients (can be mocked in tests)
	Config  *config.Config
	Store   *store.Store
	Session *editor.Session
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show local edits, pending deletions, and your roles",
		Long: `Show the state of the workspace: which files carry local edits,
which are marked for deletion, which have a pending submission, and
the roles you hold in the repository.

By default only files with local changes are listed; --all includes
synced files too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, _, err := common.InitClients()
			if err != nil {
				return err
			}
			c.Config = cfg
			c.Store = st
			c.Session = editor.NewSession(st, cfg.Owner, cfg.Repo)
			return c.Run()
		},
	}

	cmd.Flags().BoolVarP(&c.All, "all", "a", false, "include unchanged files")

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run() error {
	ui.Println(ui.RenderRepoHeader(c.Config.Owner, c.Config.Repo, c.Config.DefaultBranch))
	ui.Println(ui.RenderSeparator(ui.GetTerminalWidth()))

	var synced, local, modified, submitted, deleted int
	table := ui.NewTable().Headers("STATE", "FILE")

	for _, rec := range c.Store.EffectiveAll() {
		if rec.IsDir() {
			continue
		}
		state := c.fileState(rec.Path)
		switch state {
		case ui.StateLocal:
			local++
		case ui.StateModified:
			modified++
		case ui.StateSubmitted:
			submitted++
		default:
			synced++
			if !c.All {
				continue
			}
		}
		table.Row(ui.RenderFileStatusRow(rec.Path, state)...)
	}

	for _, rec := range c.Store.DeletionRecords() {
		deleted++
		table.Row(ui.RenderFileStatusRow(rec.Path, ui.StateDeleted)...)
	}

	if local+modified+submitted+deleted > 0 || c.All {
		ui.Println(table.Render())
	}
	ui.Println(ui.FormatWorkspaceSummary(synced, local, modified, submitted, deleted))

	set, err := roles.Load(c.Session, c.Config.Username, c.Config.Owner)
	if err != nil {
		ui.Warningf("could not determine roles: %v", err)
		return nil
	}
	names := set.Names()
	if len(names) == 0 {
		ui.Println(ui.Dim("Roles: none"))
	} else {
		ui.Println(ui.Dim("Roles: ") + strings.Join(names, ", "))
	}
	return nil
}

// fileState classifies one path for display
func (c *Command) fileState(path string) string {
	_, inWorkspace := c.Store.WorkspaceGet(path)
	if !inWorkspace {
		return ui.StateSynced
	}
	if c.Session.Submitted(path) {
		return ui.StateSubmitted
	}
	if _, inCache := c.Store.CacheGet(path); inCache {
		return ui.StateModified
	}
	return ui.StateLocal
}
