// Package roles derives a user's review-workflow roles from the
// plain-text membership files kept in the repository itself.
package roles

import (
	"sort"
	"strings"
)

// Role is one of the review-workflow roles a user may hold.
type Role string

const (
	Director     Role = "director"
	Reviewer     Role = "reviewer"
	Maintainer   Role = "maintainer"
	Collaborator Role = "collaborator"
	Owner        Role = "owner"
)

// membershipFiles maps each named role to its line-list file.
var membershipFiles = map[Role]string{
	Director:     "directors.txt",
	Reviewer:     "reviewers.txt",
	Maintainer:   "maintainers.txt",
	Collaborator: "collaborators.txt",
}

// ContentSource resolves repository file content. The editing session
// satisfies this.
type ContentSource interface {
	Load(path string) (content string, found bool, err error)
}

// Set is the collection of roles a user holds. A user may hold several
// roles at once.
type Set map[Role]bool

// Has reports whether the set contains role.
func (s Set) Has(role Role) bool {
	return s[role]
}

// Names returns the held roles sorted by name.
func (s Set) Names() []string {
	var out []string
	for role, held := range s {
		if held {
			out = append(out, string(role))
		}
	}
	sort.Strings(out)
	return out
}

// Load reads the membership files and returns username's roles.
// repoOwner grants the implied owner role: the repository creator who
// also holds any named role. Missing membership files simply grant
// nothing.
func Load(src ContentSource, username, repoOwner string) (Set, error) {
	set := make(Set)

	for role, file := range membershipFiles {
		content, found, err := src.Load(file)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		if containsUser(content, username) {
			set[role] = true
		}
	}

	if len(set) > 0 && strings.EqualFold(username, repoOwner) {
		set[Owner] = true
	}

	return set, nil
}

// containsUser scans a line-list file: one username per line, blank
// lines and #-comments ignored, comparison case-insensitive.
func containsUser(content, username string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.EqualFold(line, username) {
			return true
		}
	}
	return false
}
