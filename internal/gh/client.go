// Package gh provides GitHub operations via the gh CLI. Authentication
// is delegated entirely to gh; no token ever passes through this
// process.
package gh

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// runner executes a gh invocation. Tests substitute a fake.
type runner func(stdin []byte, args ...string) ([]byte, error)

// Client provides GitHub operations via gh CLI
type Client struct {
	run runner
}

// NewClient creates a new GitHub client
func NewClient() *Client {
	return &Client{run: execGH}
}

// RepoInfo returns owner, name, and default branch of the repository gh
// resolves for the given "owner/name" argument.
func (c *Client) RepoInfo(repo string) (*RepoInfo, error) {
	output, err := c.run(nil, "repo", "view", repo, "--json", "name,owner,defaultBranchRef")
	if err != nil {
		return nil, fmt.Errorf("failed to view repo %s: %w", repo, err)
	}

	var view repoViewJSON
	if err := json.Unmarshal(output, &view); err != nil {
		return nil, fmt.Errorf("failed to parse repo info: %w", err)
	}

	return &RepoInfo{
		Owner:         view.Owner.Login,
		Name:          view.Name,
		DefaultBranch: view.DefaultBranchRef.Name,
	}, nil
}

// BranchHead returns the commit sha a branch points at. found is false
// if the branch does not exist.
func (c *Client) BranchHead(owner, repo, branch string) (sha string, found bool, err error) {
	output, err := c.api(fmt.Sprintf("repos/%s/%s/git/ref/heads/%s", owner, repo, branch))
	if err != nil {
		if isNotFoundError(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to resolve branch %s: %w", branch, err)
	}

	var ref refJSON
	if err := json.Unmarshal(output, &ref); err != nil {
		return "", false, fmt.Errorf("failed to parse ref: %w", err)
	}
	return ref.Object.SHA, true, nil
}

// Tree lists the full remote file tree at ref, recursively.
func (c *Client) Tree(owner, repo, ref string) ([]TreeEntry, error) {
	output, err := c.api(fmt.Sprintf("repos/%s/%s/git/trees/%s?recursive=1", owner, repo, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to list tree at %s: %w", ref, err)
	}

	var tree treeJSON
	if err := json.Unmarshal(output, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	return tree.Tree, nil
}

// Blob fetches raw blob content by sha. Content stays in its wire
// encoding; callers decode when they need the text.
func (c *Client) Blob(owner, repo, sha string) (*BlobContent, error) {
	output, err := c.api(fmt.Sprintf("repos/%s/%s/git/blobs/%s", owner, repo, sha))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob %s: %w", sha, err)
	}

	var blob blobJSON
	if err := json.Unmarshal(output, &blob); err != nil {
		return nil, fmt.Errorf("failed to parse blob: %w", err)
	}
	return &BlobContent{
		SHA:      blob.SHA,
		Content:  blob.Content,
		Encoding: blob.Encoding,
		Size:     blob.Size,
	}, nil
}

// FileContents fetches a file's decoded content at a ref. found is
// false if the path does not exist at that ref.
func (c *Client) FileContents(owner, repo, path, ref string) (*FileContents, bool, error) {
	output, err := c.api(fmt.Sprintf("repos/%s/%s/contents/%s?ref=%s", owner, repo, path, ref))
	if err != nil {
		if isNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to fetch contents of %s: %w", path, err)
	}

	var contents contentsJSON
	if err := json.Unmarshal(output, &contents); err != nil {
		return nil, false, fmt.Errorf("failed to parse contents: %w", err)
	}

	text := contents.Content
	if contents.Encoding == "base64" {
		decoded, err := DecodeBase64(contents.Content)
		if err != nil {
			return nil, false, fmt.Errorf("failed to decode contents of %s: %w", path, err)
		}
		text = decoded
	}

	return &FileContents{Path: contents.Path, SHA: contents.SHA, Content: text}, true, nil
}

// CreateFile creates or updates a single file on branch via the
// contents API. Used to bootstrap a freshly created branch before a
// batched tree commit.
func (c *Client) CreateFile(owner, repo, path, branch, message string, content []byte) error {
	body := map[string]string{
		"message": message,
		"branch":  branch,
		"content": base64.StdEncoding.EncodeToString(content),
	}
	_, err := c.apiInput("PUT", fmt.Sprintf("repos/%s/%s/contents/%s", owner, repo, path), body)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	return nil
}

// CreateBlob uploads content as a blob and returns its sha.
func (c *Client) CreateBlob(owner, repo string, content []byte) (string, error) {
	body := map[string]string{
		"content":  base64.StdEncoding.EncodeToString(content),
		"encoding": "base64",
	}
	output, err := c.apiInput("POST", fmt.Sprintf("repos/%s/%s/git/blobs", owner, repo), body)
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}

	var blob shaJSON
	if err := json.Unmarshal(output, &blob); err != nil {
		return "", fmt.Errorf("failed to parse blob response: %w", err)
	}
	return blob.SHA, nil
}

// CommitInfo fetches the commit object for sha.
func (c *Client) CommitInfo(owner, repo, sha string) (*CommitInfo, error) {
	output, err := c.api(fmt.Sprintf("repos/%s/%s/git/commits/%s", owner, repo, sha))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commit %s: %w", sha, err)
	}

	var commit commitJSON
	if err := json.Unmarshal(output, &commit); err != nil {
		return nil, fmt.Errorf("failed to parse commit: %w", err)
	}
	return &CommitInfo{SHA: commit.SHA, TreeSHA: commit.Tree.SHA}, nil
}

// CreateTree creates a tree based on baseTree. Entries with a nil SHA
// delete their path.
func (c *Client) CreateTree(owner, repo, baseTree string, entries []TreeSpec) (string, error) {
	type treeEntryBody struct {
		Path string  `json:"path"`
		Mode string  `json:"mode"`
		Type string  `json:"type"`
		SHA  *string `json:"sha"`
	}
	body := struct {
		BaseTree string          `json:"base_tree,omitempty"`
		Tree     []treeEntryBody `json:"tree"`
	}{BaseTree: baseTree}

	for _, e := range entries {
		body.Tree = append(body.Tree, treeEntryBody{
			Path: e.Path,
			Mode: "100644",
			Type: "blob",
			SHA:  e.SHA,
		})
	}

	output, err := c.apiInput("POST", fmt.Sprintf("repos/%s/%s/git/trees", owner, repo), body)
	if err != nil {
		return "", fmt.Errorf("failed to create tree: %w", err)
	}

	var tree shaJSON
	if err := json.Unmarshal(output, &tree); err != nil {
		return "", fmt.Errorf("failed to parse tree response: %w", err)
	}
	return tree.SHA, nil
}

// CreateCommit creates a commit object pointing at treeSHA.
func (c *Client) CreateCommit(owner, repo, message, treeSHA string, parents []string) (string, error) {
	body := struct {
		Message string   `json:"message"`
		Tree    string   `json:"tree"`
		Parents []string `json:"parents"`
	}{Message: message, Tree: treeSHA, Parents: parents}

	output, err := c.apiInput("POST", fmt.Sprintf("repos/%s/%s/git/commits", owner, repo), body)
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}

	var commit shaJSON
	if err := json.Unmarshal(output, &commit); err != nil {
		return "", fmt.Errorf("failed to parse commit response: %w", err)
	}
	return commit.SHA, nil
}

// CreateRef creates branch at sha.
func (c *Client) CreateRef(owner, repo, branch, sha string) error {
	body := map[string]string{
		"ref": "refs/heads/" + branch,
		"sha": sha,
	}
	_, err := c.apiInput("POST", fmt.Sprintf("repos/%s/%s/git/refs", owner, repo), body)
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

// UpdateRef points branch at sha. The ref move is the last, atomic step
// of every commit sequence: it only succeeds after all objects exist.
func (c *Client) UpdateRef(owner, repo, branch, sha string, force bool) error {
	body := struct {
		SHA   string `json:"sha"`
		Force bool   `json:"force"`
	}{SHA: sha, Force: force}

	_, err := c.apiInput("PATCH", fmt.Sprintf("repos/%s/%s/git/refs/heads/%s", owner, repo, branch), body)
	if err != nil {
		return fmt.Errorf("failed to update branch %s: %w", branch, err)
	}
	return nil
}

// ListOpenPRs lists open PRs whose head is "owner:branch".
func (c *Client) ListOpenPRs(owner, repo, head string) ([]*PullRequest, error) {
	output, err := c.api(fmt.Sprintf("repos/%s/%s/pulls?state=open&head=%s", owner, repo, head))
	if err != nil {
		return nil, fmt.Errorf("failed to list open PRs: %w", err)
	}

	var prs []prJSON
	if err := json.Unmarshal(output, &prs); err != nil {
		return nil, fmt.Errorf("failed to parse PR list: %w", err)
	}

	result := make([]*PullRequest, len(prs))
	for i := range prs {
		result[i] = prs[i].toPullRequest()
	}
	return result, nil
}

// PullRequest fetches a single PR by number.
func (c *Client) PullRequest(owner, repo string, number int) (*PullRequest, error) {
	output, err := c.api(fmt.Sprintf("repos/%s/%s/pulls/%d", owner, repo, number))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR #%d: %w", number, err)
	}

	var pr prJSON
	if err := json.Unmarshal(output, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse PR: %w", err)
	}
	return pr.toPullRequest(), nil
}

// PRFiles lists the changed files of a PR.
func (c *Client) PRFiles(owner, repo string, number int) ([]PRFile, error) {
	output, err := c.run(nil, "api", "--paginate", fmt.Sprintf("repos/%s/%s/pulls/%d/files", owner, repo, number))
	if err != nil {
		return nil, fmt.Errorf("failed to list files of PR #%d: %w", number, err)
	}

	// --paginate concatenates JSON arrays; decode them in sequence.
	var files []PRFile
	dec := json.NewDecoder(bytes.NewReader(output))
	for dec.More() {
		var page []PRFile
		if err := dec.Decode(&page); err != nil {
			return nil, fmt.Errorf("failed to parse PR files: %w", err)
		}
		files = append(files, page...)
	}
	return files, nil
}

// CreatePR opens a pull request from head into base.
func (c *Client) CreatePR(owner, repo, title, body, head, base string) (*PullRequest, error) {
	reqBody := map[string]string{
		"title": title,
		"body":  body,
		"head":  head,
		"base":  base,
	}
	output, err := c.apiInput("POST", fmt.Sprintf("repos/%s/%s/pulls", owner, repo), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create PR: %w", err)
	}

	var pr prJSON
	if err := json.Unmarshal(output, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse created PR: %w", err)
	}
	return pr.toPullRequest(), nil
}

// ClosePR closes a PR without merging.
func (c *Client) ClosePR(owner, repo string, number int) error {
	body := map[string]string{"state": "closed"}
	_, err := c.apiInput("PATCH", fmt.Sprintf("repos/%s/%s/pulls/%d", owner, repo, number), body)
	if err != nil {
		return fmt.Errorf("failed to close PR #%d: %w", number, err)
	}
	return nil
}

// MergePR merges a PR with the given commit title and message.
func (c *Client) MergePR(owner, repo string, number int, commitTitle, commitMessage string) error {
	body := map[string]string{
		"commit_title":   commitTitle,
		"commit_message": commitMessage,
		"merge_method":   "merge",
	}
	_, err := c.apiInput("PUT", fmt.Sprintf("repos/%s/%s/pulls/%d/merge", owner, repo, number), body)
	if err != nil {
		return fmt.Errorf("failed to merge PR #%d: %w", number, err)
	}
	return nil
}

// AddLabels adds labels to a PR (issues endpoint; PRs are issues).
func (c *Client) AddLabels(owner, repo string, number int, labels []string) error {
	body := struct {
		Labels []string `json:"labels"`
	}{Labels: labels}

	_, err := c.apiInput("POST", fmt.Sprintf("repos/%s/%s/issues/%d/labels", owner, repo, number), body)
	if err != nil {
		return fmt.Errorf("failed to add labels to PR #%d: %w", number, err)
	}
	return nil
}

// SearchPRs runs an issue search query and returns the matching PRs.
func (c *Client) SearchPRs(query string) ([]SearchResult, error) {
	output, err := c.run(nil, "api", "-X", "GET", "search/issues", "-f", "q="+query, "-f", "per_page=100")
	if err != nil {
		return nil, fmt.Errorf("failed to search PRs: %w", err)
	}

	var search searchJSON
	if err := json.Unmarshal(output, &search); err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	results := make([]SearchResult, 0, len(search.Items))
	for _, item := range search.Items {
		r := SearchResult{
			Number:    item.Number,
			Title:     item.Title,
			Author:    item.User.Login,
			CreatedAt: item.CreatedAt,
		}
		for _, l := range item.Labels {
			r.Labels = append(r.Labels, l.Name)
		}
		results = append(results, r)
	}
	return results, nil
}

// DecodeBase64 decodes GitHub blob content, which is base64 with
// embedded newlines.
func DecodeBase64(content string) (string, error) {
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, content)

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 content: %w", err)
	}
	return string(decoded), nil
}

// api executes a GET against the REST API.
func (c *Client) api(path string) ([]byte, error) {
	return c.run(nil, "api", path)
}

// apiInput executes a mutating REST call with a JSON body on stdin.
func (c *Client) apiInput(method, path string, body interface{}) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.run(data, "api", "-X", method, path, "--input", "-")
}

// execGH executes a gh CLI command and returns the output
func execGH(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command("gh", args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("gh CLI error: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("failed to execute gh: %w", err)
	}
	return output, nil
}

// isNotFoundError checks if an error is a 404 from the API
func isNotFoundError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "HTTP 404") || strings.Contains(msg, "Not Found")
}
