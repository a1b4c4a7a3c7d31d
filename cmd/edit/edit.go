package edit

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/editor"
	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/ui"
)

// Command edits a file in the local workspace
type Command struct {
	// Arguments
	Path string

	// Flags
	FromFile string
	Create   bool

	// Clients (can be mocked in tests)
	Config  *config.Config
	Store   *store.Store
	Session *editor.Session
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "edit [path]",
		Short: "Edit a file in the local workspace",
		Long: `Open a file in $EDITOR and save the result as a local edit.

The edit stays local until 'dipcp submit'. Editing a file that was
already submitted marks it as needing a new submission.

Without a path, opens a fuzzy finder over all files. With --from, the
given local file's content is taken verbatim instead of opening an
editor.

Example:
  dipcp edit docs/guide.md
  dipcp edit --create docs/new-page.md
  dipcp edit docs/diagram.md --from ~/drafts/diagram.md`,
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

	cmd.Flags().StringVar(&c.FromFile, "from", "", "take content from this local file instead of opening an editor")
	cmd.Flags().BoolVar(&c.Create, "create", false, "create a new file")

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run() error {
	if c.Path == "" {
		if c.Create {
			return fmt.Errorf("--create requires a path")
		}
		picked, err := c.pickFile()
		if err != nil {
			return err
		}
		if picked == "" {
			return nil
		}
		c.Path = picked
	}

	var current string
	if !c.Create {
		content, found, err := c.Session.Load(c.Path)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no such file: %s (use --create for new files)", c.Path)
		}
		current = content
	}

	var next string
	var err error
	if c.FromFile != "" {
		data, err := os.ReadFile(c.FromFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", c.FromFile, err)
		}
		next = string(data)
	} else {
		next, err = openEditor(c.Path, current)
		if err != nil {
			return err
		}
	}

	if !c.Create && next == current {
		ui.Info("No changes")
		return nil
	}

	if c.Create {
		err = c.Session.Create(c.Path, next)
	} else {
		err = c.Session.Save(c.Path, next)
	}
	if err != nil {
		return err
	}

	ui.Successf("Saved %s locally", c.Path)
	ui.Info("Run 'dipcp submit' to send it for review")
	return nil
}

func (c *Command) pickFile() (string, error) {
	var files []*model.FileRecord
	for _, rec := range c.Store.EffectiveAll() {
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

// openEditor writes content to a temp file, opens $EDITOR on it, and
// returns the file's content afterwards.
func openEditor(path, content string) (string, error) {
	editorBin := os.Getenv("EDITOR")
	if editorBin == "" {
		editorBin = "vi"
	}

	tmp, err := os.CreateTemp("", "dipcp-*-"+filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	cmd := exec.Command(editorBin, tmp.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor failed: %w", err)
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	return string(data), nil
}
