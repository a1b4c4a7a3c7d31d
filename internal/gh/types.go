package gh

import "time"

// RepoInfo describes the repository the client is pointed at.
type RepoInfo struct {
	Owner         string
	Name          string
	DefaultBranch string
}

// TreeEntry is one entry of a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

// BlobContent is raw blob content as returned by the git data API.
// Content is kept in its wire encoding (base64 for text blobs).
type BlobContent struct {
	SHA      string
	Content  string
	Encoding string
	Size     int64
}

// FileContents is decoded file content fetched through the contents
// API at a specific ref.
type FileContents struct {
	Path    string
	SHA     string
	Content string
}

// CommitInfo is the subset of a git commit object needed to build a
// child commit.
type CommitInfo struct {
	SHA     string
	TreeSHA string
}

// TreeSpec is one entry of a tree to be created. A nil SHA deletes the
// path from the base tree.
type TreeSpec struct {
	Path string
	SHA  *string
}

// PullRequest is a pull request as returned by the REST API.
type PullRequest struct {
	Number    int
	URL       string
	Title     string
	Body      string
	State     string
	Author    string
	HeadRef   string
	HeadSHA   string
	HeadOwner string
	HeadRepo  string
	BaseRef   string
	Labels    []string
	CreatedAt time.Time
}

// HasLabel reports whether the PR carries the given label.
func (p *PullRequest) HasLabel(name string) bool {
	for _, l := range p.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// PRFile is one changed file of a pull request.
type PRFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"` // "added", "modified", "removed", "renamed"
}

// SearchResult is one pull request surfaced by the search API. The
// search endpoint returns issue-shaped items, so head information is
// not included and must be fetched separately.
type SearchResult struct {
	Number    int
	Title     string
	Author    string
	Labels    []string
	CreatedAt time.Time
}

// DiscussionCategory identifies a discussion category of a repository.
type DiscussionCategory struct {
	ID   string
	Name string
}

// wire shapes

type repoViewJSON struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	DefaultBranchRef struct {
		Name string `json:"name"`
	} `json:"defaultBranchRef"`
}

type refJSON struct {
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type treeJSON struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type blobJSON struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
}

type contentsJSON struct {
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type commitJSON struct {
	SHA  string `json:"sha"`
	Tree struct {
		SHA string `json:"sha"`
	} `json:"tree"`
}

type shaJSON struct {
	SHA string `json:"sha"`
}

type labelJSON struct {
	Name string `json:"name"`
}

type prJSON struct {
	Number    int         `json:"number"`
	HTMLURL   string      `json:"html_url"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	State     string      `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	Labels    []labelJSON `json:"labels"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	Head struct {
		Ref  string `json:"ref"`
		SHA  string `json:"sha"`
		Repo struct {
			Name  string `json:"name"`
			Owner struct {
				Login string `json:"login"`
			} `json:"owner"`
		} `json:"repo"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
}

func (p *prJSON) toPullRequest() *PullRequest {
	pr := &PullRequest{
		Number:    p.Number,
		URL:       p.HTMLURL,
		Title:     p.Title,
		Body:      p.Body,
		State:     p.State,
		Author:    p.User.Login,
		HeadRef:   p.Head.Ref,
		HeadSHA:   p.Head.SHA,
		HeadOwner: p.Head.Repo.Owner.Login,
		HeadRepo:  p.Head.Repo.Name,
		BaseRef:   p.Base.Ref,
		CreatedAt: p.CreatedAt,
	}
	for _, l := range p.Labels {
		pr.Labels = append(pr.Labels, l.Name)
	}
	return pr
}

type searchJSON struct {
	Items []struct {
		Number    int         `json:"number"`
		Title     string      `json:"title"`
		CreatedAt time.Time   `json:"created_at"`
		Labels    []labelJSON `json:"labels"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"items"`
}
