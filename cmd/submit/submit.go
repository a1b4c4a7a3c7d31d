package submit

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/editor"
	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/submit"
	"github.com/dipcp/dipcp/internal/ui"
)

// Command submits a locally edited file for review
type Command struct {
	// Arguments
	Path string

	// Flags
	Message string

	// Clients (can be mocked in tests)
	Config   *config.Config
	Store    *store.Store
	Session  *editor.Session
	Protocol *submit.Protocol
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "submit [path]",
		Short: "Submit a local edit for review",
		Long: `Submit a locally edited file as a pull request.

Your previous unreviewed submissions are folded into the new one: their
files ride along, their messages are preserved in the PR body, and the
old PRs are closed. A submission a maintainer has already claimed is
left untouched. Pending deletions are included automatically.

Without a path, opens a fuzzy finder over your locally edited files.

Example:
  dipcp submit docs/guide.md -m "clarify the setup steps"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				c.Path = args[0]
			}
			cfg, st, ghClient, err := common.InitClients()
			if err != nil {
				return err
			}
			c.Config = cfg
			c.Store = st
			c.Session = editor.NewSession(st, cfg.Owner, cfg.Repo)
			c.Protocol = submit.NewProtocol(ghClient, st, cfg.Owner, cfg.Repo, cfg.DefaultBranch, cfg.Username)
			return c.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&c.Message, "message", "m", "", "message shown to reviewers (required)")

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run(ctx context.Context) error {
	if strings.TrimSpace(c.Message) == "" {
		return fmt.Errorf("a submission message is required, pass -m")
	}

	if c.Path == "" {
		picked, err := c.pickLocalFile()
		if err != nil {
			return err
		}
		if picked == "" {
			return nil
		}
		c.Path = picked
	}

	if _, found := c.Store.WorkspaceGet(c.Path); !found {
		return fmt.Errorf("%s has no local edit to submit", c.Path)
	}
	if c.Session.Submitted(c.Path) {
		ui.Infof("%s is already submitted, resubmitting", c.Path)
	}

	content, _, err := c.Session.Load(c.Path)
	if err != nil {
		return err
	}

	res, err := c.Protocol.Submit(ctx, submit.Request{
		Path:    c.Path,
		Content: content,
		Message: c.Message,
	})
	if err != nil {
		return err
	}

	for _, closed := range res.ClosedPRs {
		ui.Infof("Folded and closed previous PR #%d", closed)
	}
	for _, skippedFile := range res.SkippedFiles {
		ui.Warningf("Could not carry %s over from a previous PR", skippedFile)
	}
	if len(res.DeletedPaths) > 0 {
		ui.Infof("Included %d pending deletion(s)", len(res.DeletedPaths))
	}

	ui.Successf("Submitted %d file(s) as PR #%d", len(res.Files), res.PRNumber)
	if res.PRURL != "" {
		ui.Println(ui.Dim(res.PRURL))
	}
	return nil
}

// pickLocalFile fuzzy-picks among files with local edits
func (c *Command) pickLocalFile() (string, error) {
	var files []*model.FileRecord
	for _, rec := range c.Store.WorkspaceAll() {
		if !rec.IsDir() {
			files = append(files, rec)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no local edits to submit, run 'dipcp edit' first")
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
