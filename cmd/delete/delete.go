package delete

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/editor"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/ui"
)

// Command marks a file for deletion
type Command struct {
	// Arguments
	Path string

	// Flags
	Force bool

	// Clients (can be mocked in tests)
	Config  *config.Config
	Store   *store.Store
	Session *editor.Session
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Mark a file for deletion",
		Long: `Delete a file from the local workspace.

A purely local file disappears immediately. A file that exists in the
cached remote state gets a deletion marker that rides along with the
next submission, removing it upstream once the submission is merged.

Example:
  dipcp delete docs/obsolete.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Path = args[0]
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

	cmd.Flags().BoolVarP(&c.Force, "force", "f", false, "skip the confirmation prompt")

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run() error {
	if _, found := c.Store.Effective(c.Path); !found {
		return fmt.Errorf("no such file: %s", c.Path)
	}

	if !c.Force {
		prompt := fmt.Sprintf("Type the file path to confirm deletion (%s): ", c.Path)
		if !ui.Confirm(prompt, c.Path) {
			ui.Info("Aborted")
			return nil
		}
	}

	if err := c.Session.Delete(c.Path); err != nil {
		return err
	}

	if c.Store.IsDeleted(c.Path) {
		ui.Successf("Marked %s for deletion, it will be removed with your next submission", c.Path)
	} else {
		ui.Successf("Deleted local file %s", c.Path)
	}
	return nil
}
