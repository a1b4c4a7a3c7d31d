package model

import "time"

// ReviewItem is a materialized view of exactly one open pull request
// surfaced to a reviewer. It is fetched on demand (oldest unclaimed PR
// first), claimed via labels, and disappears once merged or closed.
type ReviewItem struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"` // derived from the changed-file list
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Files     []string  `json:"files"`
	HeadRef   string    `json:"head_ref"`
	HeadOwner string    `json:"head_owner"`
	HeadRepo  string    `json:"head_repo"`
	CreatedAt time.Time `json:"created_at"`
	Labels    []string  `json:"labels"`
}

// HasLabel reports whether the item carries the given label.
func (r *ReviewItem) HasLabel(name string) bool {
	for _, l := range r.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// ReviewDecision holds the reviewer's input for an approval. All fields
// are required; validation happens before any API call is made.
type ReviewDecision struct {
	Comment string // free-form review comment
	Size    string // commit-size classification
	Impact  string // impact-multiplier classification
}

// DiscussionCategory identifies a GitHub discussion category. The list
// is cached per repository to avoid refetching on every review action.
type DiscussionCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
