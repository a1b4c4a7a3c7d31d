// Package names formalizes the branch, label, and storage-key naming
// conventions shared by the submission and review workflows. Every name
// that crosses the GitHub API boundary is produced and parsed here so
// the encoding rules live in one place.
package names

import "strings"

const (
	// BranchPrefix prefixes every per-user submission branch.
	BranchPrefix = "dipcp/"

	// MaintainingLabel marks a PR as claimed by an active reviewer.
	// A PR carrying it is exempt from the reconciliation reset/close
	// cycle.
	MaintainingLabel = "maintaining"

	maintainerLabelPrefix = "m_"
	committerLabelPrefix  = "c_"

	// DeletionPrefix is the reserved key namespace for deletion
	// tombstones inside the local workspace partition.
	DeletionPrefix = "__deletions__/"
)

// SanitizeUsername maps a GitHub username to the character set allowed
// in branch and label names: lowercase letters, digits, underscore, and
// hyphen. Anything else is dropped. An empty result falls back to
// "user". Two usernames may sanitize to the same value; callers accept
// that collision risk (the raw username is not recoverable).
func SanitizeUsername(username string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(username) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// SubmissionBranch returns the per-user submission branch name,
// e.g. "dipcp/alice".
func SubmissionBranch(username string) string {
	return BranchPrefix + SanitizeUsername(username)
}

// ParseSubmissionBranch extracts the sanitized username from a
// submission branch name. ok is false if the branch does not follow the
// submission naming scheme.
func ParseSubmissionBranch(branch string) (username string, ok bool) {
	rest, found := strings.CutPrefix(branch, BranchPrefix)
	if !found || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// MaintainerLabel returns the claim label for a reviewer,
// e.g. "m_alice".
func MaintainerLabel(username string) string {
	return maintainerLabelPrefix + SanitizeUsername(username)
}

// ParseMaintainerLabel extracts the sanitized reviewer name from a
// maintainer claim label.
func ParseMaintainerLabel(label string) (username string, ok bool) {
	rest, found := strings.CutPrefix(label, maintainerLabelPrefix)
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

// CommitterLabel returns the committer-identity tag applied to
// submission PRs, e.g. "c_alice". It is used to filter a reviewer's own
// submissions out of their review queue.
func CommitterLabel(username string) string {
	return committerLabelPrefix + SanitizeUsername(username)
}

// ParseCommitterLabel extracts the sanitized committer name from a
// committer-identity label.
func ParseCommitterLabel(label string) (username string, ok bool) {
	rest, found := strings.CutPrefix(label, committerLabelPrefix)
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

// DeletionKey returns the workspace key under which a tombstone for
// path is stored.
func DeletionKey(path string) string {
	return DeletionPrefix + path
}

// IsDeletionKey reports whether a workspace key belongs to the
// tombstone namespace.
func IsDeletionKey(key string) bool {
	return strings.HasPrefix(key, DeletionPrefix)
}

// ParseDeletionKey extracts the tombstoned path from a deletion key.
func ParseDeletionKey(key string) (path string, ok bool) {
	rest, found := strings.CutPrefix(key, DeletionPrefix)
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}
