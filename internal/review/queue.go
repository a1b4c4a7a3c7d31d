// Package review implements the maintainer workflow: surface the
// oldest open submission one at a time, claim it with labels, and
// resolve it by merging or closing with an announcement discussion.
package review

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dipcp/dipcp/internal/gh"
	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/names"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/ui"
)

// AnnouncementCategory is the preferred discussion category for review
// outcomes. When a repository has no category with this name, the first
// available category is used instead.
const AnnouncementCategory = "Announcements"

// Validation errors for review decisions. Each one names the missing
// field so the caller can point at the exact input to fix.
var (
	ErrMissingComment = fmt.Errorf("review comment is required")
	ErrMissingSize    = fmt.Errorf("commit-size classification is required")
	ErrMissingImpact  = fmt.Errorf("impact classification is required")
	ErrMissingReason  = fmt.Errorf("rejection reason is required")
)

// GithubClient defines the GitHub operations needed by the review queue
type GithubClient interface {
	SearchPRs(query string) ([]gh.SearchResult, error)
	PullRequest(owner, repo string, number int) (*gh.PullRequest, error)
	PRFiles(owner, repo string, number int) ([]gh.PRFile, error)
	AddLabels(owner, repo string, number int, labels []string) error
	MergePR(owner, repo string, number int, commitTitle, commitMessage string) error
	ClosePR(owner, repo string, number int) error
	DiscussionCategories(owner, repo string) (string, []gh.DiscussionCategory, error)
	CreateDiscussion(repositoryID, categoryID, title, body string) (string, error)
}

// Queue surfaces review work for one maintainer against one repository.
type Queue struct {
	gh       GithubClient
	store    *store.Store
	owner    string
	repo     string
	username string
}

// NewQueue creates a new review queue
func NewQueue(ghClient GithubClient, st *store.Store, owner, repo, username string) *Queue {
	return &Queue{
		gh:       ghClient,
		store:    st,
		owner:    owner,
		repo:     repo,
		username: username,
	}
}

// Next returns the single PR this maintainer should look at: the one
// they already claimed if there is one, otherwise the oldest unclaimed
// submission. Returns (nil, nil) when the queue is empty. PRs the
// maintainer authored or committed themselves never surface.
func (q *Queue) Next(ctx context.Context) (*model.ReviewItem, error) {
	repoQ := fmt.Sprintf("repo:%s/%s is:pr is:open", q.owner, q.repo)
	exclude := fmt.Sprintf("-author:%s -label:%s", q.username, names.CommitterLabel(q.username))

	unclaimed, err := q.gh.SearchPRs(fmt.Sprintf("%s -label:%s %s", repoQ, names.MaintainingLabel, exclude))
	if err != nil {
		return nil, fmt.Errorf("failed to search open submissions: %w", err)
	}

	mine, err := q.gh.SearchPRs(fmt.Sprintf("%s label:%s label:%s %s",
		repoQ, names.MaintainingLabel, names.MaintainerLabel(q.username), exclude))
	if err != nil {
		return nil, fmt.Errorf("failed to search claimed submissions: %w", err)
	}

	// A sticky claim outranks everything else; otherwise oldest first
	candidates := append(mine, unclaimed...)
	if len(candidates) == 0 {
		return nil, nil
	}
	pick := candidates[0]
	if len(mine) == 0 {
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		})
		pick = candidates[0]
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return q.materialize(pick.Number)
}

// Item materializes one PR by number, for resolving a review decision
// against a previously surfaced item.
func (q *Queue) Item(ctx context.Context, number int) (*model.ReviewItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return q.materialize(number)
}

// materialize turns a search hit into a full ReviewItem. Search results
// are issue-shaped and carry no head information, so the PR and its
// changed files are fetched separately.
func (q *Queue) materialize(number int) (*model.ReviewItem, error) {
	pr, err := q.gh.PullRequest(q.owner, q.repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to load PR #%d: %w", number, err)
	}
	files, err := q.gh.PRFiles(q.owner, q.repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to load files of PR #%d: %w", number, err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Filename)
	}

	return &model.ReviewItem{
		Number:    pr.Number,
		Title:     deriveTitle(paths),
		Author:    pr.Author,
		Body:      pr.Body,
		Files:     paths,
		HeadRef:   pr.HeadRef,
		HeadOwner: pr.HeadOwner,
		HeadRepo:  pr.HeadRepo,
		CreatedAt: pr.CreatedAt,
		Labels:    pr.Labels,
	}, nil
}

// deriveTitle names a review item after its changed files.
func deriveTitle(paths []string) string {
	switch len(paths) {
	case 0:
		return "Submission"
	case 1:
		return paths[0]
	default:
		return fmt.Sprintf("%s (+%d more)", paths[0], len(paths)-1)
	}
}

// Claim marks the item as being handled by this maintainer. The labels
// make the claim sticky across reloads and shield the PR from the
// author's next submission. Label failures are logged, not fatal; the
// next Next call will simply re-surface the item as unclaimed.
func (q *Queue) Claim(item *model.ReviewItem) {
	labels := []string{
		names.MaintainingLabel,
		names.MaintainerLabel(q.username),
		names.CommitterLabel(item.Author),
	}
	if err := q.gh.AddLabels(q.owner, q.repo, item.Number, labels); err != nil {
		ui.Warningf("failed to claim PR #%d: %v", item.Number, err)
		return
	}
	for _, l := range labels {
		if !item.HasLabel(l) {
			item.Labels = append(item.Labels, l)
		}
	}
}

// Approve validates the decision, merges the PR, and posts an
// announcement. Validation happens before any API call so an incomplete
// decision never mutates remote state.
func (q *Queue) Approve(ctx context.Context, item *model.ReviewItem, decision model.ReviewDecision) error {
	if strings.TrimSpace(decision.Comment) == "" {
		return ErrMissingComment
	}
	if strings.TrimSpace(decision.Size) == "" {
		return ErrMissingSize
	}
	if strings.TrimSpace(decision.Impact) == "" {
		return ErrMissingImpact
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	title := fmt.Sprintf("Approve submission from %s", item.Author)
	message := fmt.Sprintf("Author: %s\nSize: %s\nImpact: %s\n\n%s",
		item.Author, decision.Size, decision.Impact, decision.Comment)
	if err := q.gh.MergePR(q.owner, q.repo, item.Number, title, message); err != nil {
		return fmt.Errorf("failed to merge PR #%d: %w", item.Number, err)
	}

	body := fmt.Sprintf("Submission #%d by %s was approved.\n\nSize: %s\nImpact: %s\n\n%s",
		item.Number, item.Author, decision.Size, decision.Impact, decision.Comment)
	return q.announce(fmt.Sprintf("Approved: %s", item.Title), body)
}

// Reject validates the reason, closes the PR without merging, and posts
// a rejection announcement.
func (q *Queue) Reject(ctx context.Context, item *model.ReviewItem, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrMissingReason
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := q.gh.ClosePR(q.owner, q.repo, item.Number); err != nil {
		return fmt.Errorf("failed to close PR #%d: %w", item.Number, err)
	}

	body := fmt.Sprintf("Submission #%d by %s was rejected.\n\nReason: %s",
		item.Number, item.Author, reason)
	return q.announce(fmt.Sprintf("Rejected: %s", item.Title), body)
}

// announce posts to the announcement category, falling back to the
// first category the repository has. The category list is cached per
// repository; a cache miss refetches transparently.
func (q *Queue) announce(title, body string) error {
	repositoryID, categories, err := q.categories()
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return fmt.Errorf("repository has no discussion categories")
	}

	category := categories[0]
	for _, c := range categories {
		if c.Name == AnnouncementCategory {
			category = c
			break
		}
	}

	if _, err := q.gh.CreateDiscussion(repositoryID, category.ID, title, body); err != nil {
		return fmt.Errorf("failed to post announcement: %w", err)
	}
	return nil
}

// categories returns the repository node ID and discussion categories,
// reading through the per-repo cache. The repository ID is stored as a
// pseudo category entry so one cache serves both values.
func (q *Queue) categories() (string, []model.DiscussionCategory, error) {
	if cached, ok := q.store.Categories(q.owner, q.repo); ok && len(cached) > 1 {
		return cached[0].ID, cached[1:], nil
	}

	repositoryID, fetched, err := q.gh.DiscussionCategories(q.owner, q.repo)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list discussion categories: %w", err)
	}

	cacheable := make([]model.DiscussionCategory, 0, len(fetched)+1)
	cacheable = append(cacheable, model.DiscussionCategory{ID: repositoryID, Name: ""})
	categories := make([]model.DiscussionCategory, 0, len(fetched))
	for _, c := range fetched {
		categories = append(categories, model.DiscussionCategory{ID: c.ID, Name: c.Name})
	}
	cacheable = append(cacheable, categories...)

	if err := q.store.SetCategories(q.owner, q.repo, cacheable); err != nil {
		ui.Warningf("failed to cache discussion categories: %v", err)
	}
	return repositoryID, categories, nil
}
