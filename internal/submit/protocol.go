// Package submit implements the submission/reconciliation protocol: a
// user's newest edit, everything still outstanding from their previous
// unreviewed pull requests, and their pending deletions are folded into
// one commit on a stable per-user branch behind a single open PR.
package submit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/gh"
	"github.com/dipcp/dipcp/internal/names"
	"github.com/dipcp/dipcp/internal/store"
	"github.com/dipcp/dipcp/internal/ui"
)

// DefaultTitle is the generic title of every submission PR.
const DefaultTitle = "Content submission"

// messageSeparator joins the new submission message with the preserved
// bodies of superseded PRs.
const messageSeparator = "\n\n---\n\n"

// GithubClient defines the GitHub operations needed by the protocol
type GithubClient interface {
	BranchHead(owner, repo, branch string) (sha string, found bool, err error)
	ListOpenPRs(owner, repo, head string) ([]*gh.PullRequest, error)
	PRFiles(owner, repo string, number int) ([]gh.PRFile, error)
	FileContents(owner, repo, path, ref string) (*gh.FileContents, bool, error)
	ClosePR(owner, repo string, number int) error
	CreateRef(owner, repo, branch, sha string) error
	UpdateRef(owner, repo, branch, sha string, force bool) error
	CreateFile(owner, repo, path, branch, message string, content []byte) error
	CreateBlob(owner, repo string, content []byte) (string, error)
	CommitInfo(owner, repo, sha string) (*gh.CommitInfo, error)
	CreateTree(owner, repo, baseTree string, entries []gh.TreeSpec) (string, error)
	CreateCommit(owner, repo, message, treeSHA string, parents []string) (string, error)
	CreatePR(owner, repo, title, body, head, base string) (*gh.PullRequest, error)
	AddLabels(owner, repo string, number int, labels []string) error
}

// Protocol runs submissions for one user against one repository.
type Protocol struct {
	gh            GithubClient
	store         *store.Store
	owner         string
	repo          string
	defaultBranch string
	username      string
}

// NewProtocol creates a new submission protocol
func NewProtocol(ghClient GithubClient, st *store.Store, owner, repo, defaultBranch, username string) *Protocol {
	return &Protocol{
		gh:            ghClient,
		store:         st,
		owner:         owner,
		repo:          repo,
		defaultBranch: defaultBranch,
		username:      username,
	}
}

// Request is one submission: the file just edited plus the message the
// user wrote for reviewers.
type Request struct {
	Path    string
	Content string
	Message string
}

// Result describes what a submission produced.
type Result struct {
	Branch       string
	PRNumber     int
	PRURL        string
	Files        []string // paths included in the push
	DeletedPaths []string // tombstones pushed as deletions
	ClosedPRs    []int    // superseded PRs that were folded in and closed
	SkippedFiles []string // stale files whose content could not be fetched
}

// Submit runs the reconciliation. Ordering is strict: stale-PR content
// is read into memory before any PR is closed or the branch is reset.
// Resetting the branch is only safe because everything unreviewed was
// captured first. A failure after the reset but before the PR opens
// leaves a valid branch with no open PR; re-running the submission
// recovers.
func (p *Protocol) Submit(ctx context.Context, req Request) (*Result, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("no file to submit")
	}

	branch := names.SubmissionBranch(p.username)

	// Pending local deletions ride along with every submission
	deleted := make(map[string]bool)
	for _, rec := range p.store.DeletionRecords() {
		deleted[rec.Path] = true
	}

	prs, err := p.gh.ListOpenPRs(p.owner, p.repo, p.owner+":"+branch)
	if err != nil {
		return nil, fmt.Errorf("failed to list open PRs: %w", err)
	}

	// A PR a maintainer has claimed is theirs now; leave it alone
	var candidates []*gh.PullRequest
	for _, pr := range prs {
		if pr.HasLabel(names.MaintainingLabel) {
			continue
		}
		candidates = append(candidates, pr)
	}

	collected, prevMessages, skipped := p.collectStaleContent(candidates, deleted)

	// Content is captured; only now may the superseded PRs go away
	var closed []int
	for _, pr := range candidates {
		if err := p.gh.ClosePR(p.owner, p.repo, pr.Number); err != nil {
			return nil, fmt.Errorf("failed to close superseded PR #%d: %w", pr.Number, err)
		}
		closed = append(closed, pr.Number)
	}

	baseSHA, found, err := p.gh.BranchHead(p.owner, p.repo, p.defaultBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", p.defaultBranch, err)
	}
	if !found {
		return nil, fmt.Errorf("default branch %s not found", p.defaultBranch)
	}

	_, branchExists, err := p.gh.BranchHead(p.owner, p.repo, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", branch, err)
	}

	// The current edit always wins over any stale copy, including a
	// pending deletion of the same path
	collected[req.Path] = req.Content
	delete(deleted, req.Path)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if branchExists {
		if err := p.gh.UpdateRef(p.owner, p.repo, branch, baseSHA, true); err != nil {
			return nil, err
		}
	} else {
		if err := p.gh.CreateRef(p.owner, p.repo, branch, baseSHA); err != nil {
			return nil, err
		}
	}

	message := p.commitMessage(len(collected), len(deleted))
	files := sortedKeys(collected)
	if err := p.commitFileSet(branch, branchExists, baseSHA, message, files, collected, deleted); err != nil {
		return nil, err
	}

	// Deletions are upstream now; forget the tombstones
	deletedPaths := sortedKeys(deleted)
	if err := p.store.ClearDeletionRecords(deletedPaths); err != nil {
		return nil, err
	}

	body := req.Message
	for _, prev := range prevMessages {
		body += messageSeparator + prev
	}

	pr, err := p.gh.CreatePR(p.owner, p.repo, DefaultTitle, body, branch, p.defaultBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to open PR: %w", err)
	}

	// Committer tag drives the review-queue filters; not worth failing
	// a completed submission over
	if err := p.gh.AddLabels(p.owner, p.repo, pr.Number, []string{names.CommitterLabel(p.username)}); err != nil {
		ui.Warningf("failed to tag PR #%d: %v", pr.Number, err)
	}

	if err := p.store.SetSubmissionStatus(p.owner, p.repo, req.Path); err != nil {
		return nil, err
	}

	return &Result{
		Branch:       branch,
		PRNumber:     pr.Number,
		PRURL:        pr.URL,
		Files:        files,
		DeletedPaths: deletedPaths,
		ClosedPRs:    closed,
		SkippedFiles: skipped,
	}, nil
}

// collectStaleContent reads the changed files and bodies of the
// candidate PRs. Individual fetch failures skip that file with a
// warning; the rest of the reconciliation proceeds. Skipped files are
// genuinely lost once the superseded PR closes, so every skip is
// surfaced both in the warning and in the result.
func (p *Protocol) collectStaleContent(candidates []*gh.PullRequest, deleted map[string]bool) (map[string]string, []string, []string) {
	collected := make(map[string]string)
	var prevMessages []string
	var skipped []string

	for _, pr := range candidates {
		files, err := p.gh.PRFiles(p.owner, p.repo, pr.Number)
		if err != nil {
			ui.Warningf("failed to list files of PR #%d, its changes will be dropped: %v", pr.Number, err)
			continue
		}

		for _, f := range files {
			if f.Status == "removed" || deleted[f.Filename] {
				continue
			}
			if _, ok := collected[f.Filename]; ok {
				continue
			}

			contents, found, err := p.gh.FileContents(pr.HeadOwner, pr.HeadRepo, f.Filename, pr.HeadRef)
			if err != nil || !found {
				ui.Warningf("failed to fetch %s from PR #%d, skipping: %v", f.Filename, pr.Number, err)
				skipped = append(skipped, f.Filename)
				continue
			}
			collected[f.Filename] = contents.Content
		}

		if strings.TrimSpace(pr.Body) != "" {
			prevMessages = append(prevMessages, pr.Body)
		}
	}

	return collected, prevMessages, skipped
}

// commitFileSet lands the full file set as one commit on branch. A
// freshly created branch first gets one file through the contents API
// to establish a commit the batched tree can be based on; everything
// else goes through a single blob/tree/commit/ref sequence. The ref
// update comes last, so no partial tree is ever reachable.
func (p *Protocol) commitFileSet(branch string, branchExisted bool, baseSHA, message string, files []string, collected map[string]string, deleted map[string]bool) error {
	head := baseSHA

	if !branchExisted && len(files) > 0 {
		first := files[0]
		if err := p.gh.CreateFile(p.owner, p.repo, first, branch, message, []byte(collected[first])); err != nil {
			return err
		}
		files = files[1:]
		if len(files) == 0 && len(deleted) == 0 {
			return nil
		}

		sha, found, err := p.gh.BranchHead(p.owner, p.repo, branch)
		if err != nil {
			return fmt.Errorf("failed to resolve %s after bootstrap commit: %w", branch, err)
		}
		if !found {
			return fmt.Errorf("branch %s vanished after bootstrap commit", branch)
		}
		head = sha
	}

	if len(files) == 0 && len(deleted) == 0 {
		return nil
	}

	headCommit, err := p.gh.CommitInfo(p.owner, p.repo, head)
	if err != nil {
		return err
	}

	var entries []gh.TreeSpec
	for _, path := range files {
		blobSHA, err := p.gh.CreateBlob(p.owner, p.repo, []byte(collected[path]))
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}
		entries = append(entries, gh.TreeSpec{Path: path, SHA: &blobSHA})
	}
	for _, path := range sortedKeys(deleted) {
		entries = append(entries, gh.TreeSpec{Path: path, SHA: nil})
	}

	treeSHA, err := p.gh.CreateTree(p.owner, p.repo, headCommit.TreeSHA, entries)
	if err != nil {
		return err
	}

	commitSHA, err := p.gh.CreateCommit(p.owner, p.repo, message, treeSHA, []string{head})
	if err != nil {
		return err
	}

	return p.gh.UpdateRef(p.owner, p.repo, branch, commitSHA, true)
}

func (p *Protocol) commitMessage(fileCount, deleteCount int) string {
	msg := fmt.Sprintf("Submission from %s: %d file(s)", p.username, fileCount)
	if deleteCount > 0 {
		msg += fmt.Sprintf(", %d deletion(s)", deleteCount)
	}
	return msg + "\n\nSubmission-ID: " + common.GenerateUUID()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
