package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/cmd/clone"
	deletecmd "github.com/dipcp/dipcp/cmd/delete"
	"github.com/dipcp/dipcp/cmd/edit"
	"github.com/dipcp/dipcp/cmd/initcmd"
	"github.com/dipcp/dipcp/cmd/review"
	"github.com/dipcp/dipcp/cmd/show"
	"github.com/dipcp/dipcp/cmd/status"
	"github.com/dipcp/dipcp/cmd/submit"
	synccmd "github.com/dipcp/dipcp/cmd/sync"
	treecmd "github.com/dipcp/dipcp/cmd/tree"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dipcp",
	Short: "Offline-first collaborative content review for GitHub",
	Long: `dipcp keeps a local mirror of a GitHub repository, lets you edit
files offline, and turns your edits into reviewable pull requests.

Local edits never touch the remote until you submit them; submissions
from the same user are folded into a single open PR; maintainers review
submissions one at a time, oldest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
}

func init() {
	// Register all commands
	commands := []Command{
		&initcmd.Command{},
		&synccmd.Command{},
		&treecmd.Command{},
		&show.Command{},
		&edit.Command{},
		&deletecmd.Command{},
		&status.Command{},
		&submit.Command{},
		&review.Command{},
		&clone.Command{},
	}

	for _, cmd := range commands {
		cmd.Register(rootCmd)
	}
}
