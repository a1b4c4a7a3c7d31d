package initcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/gh"
	"github.com/dipcp/dipcp/internal/localgit"
	"github.com/dipcp/dipcp/internal/names"
	"github.com/dipcp/dipcp/internal/ui"
)

// Command initializes the workspace against a repository
type Command struct {
	// Arguments
	Repo     string
	Username string

	// Clients (can be mocked in tests)
	GH *gh.Client
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "init <owner>/<repo>",
		Short: "Point the workspace at a repository",
		Long: `Initialize the workspace against a GitHub repository.

Resolves the repository's default branch, determines your username from
the global git config (override with --username), and stores both for
every later command.

Re-initializing against a different repository overwrites the local
store, which is keyed by bare file paths.

Example:
  dipcp init acme/content
  dipcp init acme/content --username alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Repo = args[0]
			c.GH = gh.NewClient()
			return c.Run()
		},
	}

	cmd.Flags().StringVarP(&c.Username, "username", "u", "", "username used for branches and labels")

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run() error {
	if !strings.Contains(c.Repo, "/") {
		return fmt.Errorf("repository must be given as <owner>/<repo>")
	}

	info, err := c.GH.RepoInfo(c.Repo)
	if err != nil {
		return err
	}

	username := c.Username
	if username == "" {
		username, err = localgit.Username()
		if err != nil || username == "" {
			return fmt.Errorf("could not determine username from git config, pass --username")
		}
	}
	username = names.SanitizeUsername(username)

	cfg := &config.Config{
		Owner:         info.Owner,
		Repo:          info.Name,
		DefaultBranch: info.DefaultBranch,
		Username:      username,
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	ui.Successf("Workspace initialized for %s/%s (branch %s, user %s)",
		cfg.Owner, cfg.Repo, cfg.DefaultBranch, cfg.Username)
	ui.Info("Run 'dipcp sync' to fetch the repository contents")
	return nil
}
