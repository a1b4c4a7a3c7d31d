package show

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/editor"
	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/ui"
)

// Command prints a file's effective content
type Command struct {
	// Arguments
	Path string

	// Clients (can be mocked in tests)
	Config  *config.Config
	Store   *store.Store
	Session *editor.Session
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Print a file's content",
		Long: `Print the effective content of a file: the local edit if one
exists, otherwise the cached remote copy.

Without a path, opens a fuzzy finder over all files.

Example:
  dipcp show README.md
  dipcp show`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				c.Path = args[0]
			}
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

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run() error {
	if c.Path == "" {
		picked, err := pickFile(c.Store)
		if err != nil {
			return err
		}
		if picked == "" {
			return nil
		}
		c.Path = picked
	}

	content, found, err := c.Session.Load(c.Path)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no such file: %s", c.Path)
	}

	if c.Session.IsLocal(c.Path) {
		ui.Header(c.Path + " (local edit)")
	} else {
		ui.Header(c.Path)
	}
	ui.Println(content)
	return nil
}

// pickFile runs the fuzzy finder over all non-directory records.
// Returns "" when the user cancels.
func pickFile(st *store.Store) (string, error) {
	var files []*model.FileRecord
	for _, rec := range st.EffectiveAll() {
		if !rec.IsDir() {
			files = append(files, rec)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no files in the workspace, run 'dipcp sync' first")
	}

	picked, err := ui.SelectFile(files)
	if err != nil {
		return "", err
	}
	if picked == nil {
		return "", nil
	}
	return picked.Path, nil
}
