package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/config"
	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/review"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/ui"
)

// Sizes and impacts accepted for an approval.
var (
	commitSizes = []string{"trivial", "small", "medium", "large"}
	impacts     = []string{"low", "medium", "high"}
)

// Command is the maintainer review workflow
type Command struct {
	// Flags
	Comment string
	Size    string
	Impact  string
	Reason  string

	// Clients (can be mocked in tests)
	Config *config.Config
	Store  *store.Store
	Queue  *review.Queue
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review pending submissions",
		Long: `Review submissions as a maintainer.

One submission is surfaced at a time, oldest first. Claiming one makes
it stick to you across reloads and protects it from being replaced by
the author's next submission.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	next := &cobra.Command{
		Use:   "next",
		Short: "Show and claim the next submission to review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.init(); err != nil {
				return err
			}
			return c.RunNext(cmd.Context())
		},
	}

	approve := &cobra.Command{
		Use:   "approve <pr-number>",
		Short: "Approve and merge a submission",
		Long: `Approve a submission: merge its PR and announce the outcome in
the repository's discussion board.

A comment, a commit-size classification (trivial, small, medium,
large), and an impact classification (low, medium, high) are all
required. Flags left unset are asked for interactively, and nothing
is merged until all three are present.

Example:
  dipcp review approve 5 -c "reads well" --size small --impact medium`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.init(); err != nil {
				return err
			}
			return c.RunApprove(cmd.Context(), args[0])
		},
	}
	approve.Flags().StringVarP(&c.Comment, "comment", "c", "", "review comment (required)")
	approve.Flags().StringVar(&c.Size, "size", "", "commit-size classification (required)")
	approve.Flags().StringVar(&c.Impact, "impact", "", "impact classification (required)")

	reject := &cobra.Command{
		Use:   "reject <pr-number>",
		Short: "Reject a submission",
		Long: `Reject a submission: close its PR without merging and announce
the rejection with the given reason.

Example:
  dipcp review reject 5 -r "duplicates docs/guide.md"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.init(); err != nil {
				return err
			}
			return c.RunReject(cmd.Context(), args[0])
		},
	}
	reject.Flags().StringVarP(&c.Reason, "reason", "r", "", "rejection reason (required)")

	cmd.AddCommand(next, approve, reject)
	parent.AddCommand(cmd)
}

func (c *Command) init() error {
	cfg, st, ghClient, err := common.InitClients()
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Store = st
	c.Queue = review.NewQueue(ghClient, st, cfg.Owner, cfg.Repo, cfg.Username)
	return nil
}

// RunNext surfaces and claims the next submission
func (c *Command) RunNext(ctx context.Context) error {
	item, err := c.Queue.Next(ctx)
	if err != nil {
		return err
	}
	if item == nil {
		ui.Success("Nothing to review")
		return nil
	}

	c.Queue.Claim(item)
	ui.Println(ui.RenderReviewItem(item))
	ui.Infof("Approve with 'dipcp review approve %d' or reject with 'dipcp review reject %d'",
		item.Number, item.Number)
	return nil
}

// RunApprove merges a submission after validating the decision
func (c *Command) RunApprove(ctx context.Context, arg string) error {
	item, err := c.lookupItem(ctx, arg)
	if err != nil {
		return err
	}

	// Flags not passed on the command line are collected interactively.
	// An empty answer falls through to validation below.
	if c.Comment == "" {
		c.Comment = ui.Prompt("Review comment: ")
	}
	if c.Size == "" {
		c.Size = ui.PromptChoice(fmt.Sprintf("Commit size (%s): ", strings.Join(commitSizes, "/")), commitSizes)
	}
	if c.Impact == "" {
		c.Impact = ui.PromptChoice(fmt.Sprintf("Impact (%s): ", strings.Join(impacts, "/")), impacts)
	}

	if c.Size != "" && !contains(commitSizes, c.Size) {
		return fmt.Errorf("invalid size %q, expected one of: %v", c.Size, commitSizes)
	}
	if c.Impact != "" && !contains(impacts, c.Impact) {
		return fmt.Errorf("invalid impact %q, expected one of: %v", c.Impact, impacts)
	}

	err = c.Queue.Approve(ctx, item, model.ReviewDecision{
		Comment: c.Comment,
		Size:    c.Size,
		Impact:  c.Impact,
	})
	switch {
	case errors.Is(err, review.ErrMissingComment):
		return fmt.Errorf("pass a review comment with -c")
	case errors.Is(err, review.ErrMissingSize):
		return fmt.Errorf("pass a commit-size classification with --size (%v)", commitSizes)
	case errors.Is(err, review.ErrMissingImpact):
		return fmt.Errorf("pass an impact classification with --impact (%v)", impacts)
	case err != nil:
		return err
	}

	ui.Successf("Approved and merged #%d from %s", item.Number, item.Author)
	return nil
}

// RunReject closes a submission without merging
func (c *Command) RunReject(ctx context.Context, arg string) error {
	item, err := c.lookupItem(ctx, arg)
	if err != nil {
		return err
	}

	if c.Reason == "" {
		c.Reason = ui.Prompt("Rejection reason: ")
	}

	err = c.Queue.Reject(ctx, item, c.Reason)
	if errors.Is(err, review.ErrMissingReason) {
		return fmt.Errorf("pass a rejection reason with -r")
	}
	if err != nil {
		return err
	}

	ui.Successf("Rejected #%d from %s", item.Number, item.Author)
	return nil
}

// lookupItem materializes the PR named on the command line
func (c *Command) lookupItem(ctx context.Context, arg string) (*model.ReviewItem, error) {
	var number int
	if _, err := fmt.Sscanf(arg, "%d", &number); err != nil || number <= 0 {
		return nil, fmt.Errorf("invalid PR number %q", arg)
	}
	item, err := c.Queue.Item(ctx, number)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
