// Package editor implements the editing session over the dual store:
// reads resolve workspace-then-cache, writes only ever touch the
// workspace partition.
package editor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dipcp/dipcp/internal/gh"
	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/names"
	"github.com/dipcp/dipcp/internal/store"
)

// protectedPrefix guards workflow and configuration files from editing
// through the app, regardless of the user's role.
const protectedPrefix = ".github/"

var (
	// ErrProtectedPath is returned for edit attempts under .github/.
	ErrProtectedPath = errors.New("path is protected and cannot be edited")

	// ErrNotFound is returned when a path exists in neither partition.
	ErrNotFound = errors.New("file not found")

	// ErrAlreadyExists is returned by Create for an occupied path.
	ErrAlreadyExists = errors.New("file already exists")
)

var validFileNameRegex = regexp.MustCompile(`^[^\x00-\x1f\\:*?"<>|]+$`)

// Session is an editing session bound to one repository's store.
type Session struct {
	store *store.Store
	owner string
	repo  string
}

// NewSession creates a new editing session
func NewSession(st *store.Store, owner, repo string) *Session {
	return &Session{store: st, owner: owner, repo: repo}
}

// Load returns the effective content for path: the workspace copy if
// present, else the cached copy. Base64-encoded cache content is
// decoded transparently. found is false when the path is unknown.
func (s *Session) Load(path string) (content string, found bool, err error) {
	rec, ok := s.store.Effective(path)
	if !ok || rec.IsDir() {
		return "", false, nil
	}

	if rec.Encoding == model.EncodingBase64 {
		decoded, err := gh.DecodeBase64(rec.Content)
		if err != nil {
			return "", false, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return decoded, true, nil
	}
	return rec.Content, true, nil
}

// IsLocal reports whether the authoritative copy of path right now is a
// workspace edit.
func (s *Session) IsLocal(path string) bool {
	_, ok := s.store.WorkspaceGet(path)
	return ok
}

// Save writes content for path into the workspace partition. The cache
// partition is never written by edits. Saving invalidates any prior
// submission flag: the new content has not been reviewed. A pending
// deletion tombstone for the path is dropped: the newer edit wins over
// the older deletion.
func (s *Session) Save(path, content string) error {
	if err := validatePath(path); err != nil {
		return err
	}

	now := time.Now()
	created := now
	if prev, ok := s.store.WorkspaceGet(path); ok {
		created = prev.Created
	}

	rec := &model.FileRecord{
		Path:     path,
		Content:  content,
		SHA:      "", // no remote commit holds this content yet
		Created:  created,
		Modified: now,
		IsLocal:  true,
		Size:     int64(len(content)), // UTF-8 bytes, not runes
	}

	if err := s.store.WorkspacePut(rec); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	if s.store.IsDeleted(path) {
		if err := s.store.ClearDeletionRecords([]string{path}); err != nil {
			return fmt.Errorf("failed to revive %s: %w", path, err)
		}
	}
	return s.store.ClearSubmissionStatus(s.owner, s.repo, path)
}

// Create adds a new file. The path must not exist in either partition;
// a cache path with a pending deletion tombstone counts as free.
func (s *Session) Create(path, content string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if _, ok := s.store.Effective(path); ok && !s.store.IsDeleted(path) {
		return ErrAlreadyExists
	}
	return s.Save(path, content)
}

// Delete removes path from the user's view. A workspace-only file is
// simply dropped; a cache-backed file additionally gets a deletion
// tombstone, since the cache itself must stay an untouched remote
// mirror until the deletion is pushed.
func (s *Session) Delete(path string) error {
	if err := validatePath(path); err != nil {
		return err
	}

	_, inWorkspace := s.store.WorkspaceGet(path)
	_, inCache := s.store.CacheGet(path)
	if !inWorkspace && !inCache {
		return ErrNotFound
	}

	if inWorkspace {
		if err := s.store.WorkspaceDelete(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
		if err := s.store.ClearSubmissionStatus(s.owner, s.repo, path); err != nil {
			return err
		}
	}

	if inCache {
		deletedFrom := "fileCache"
		if inWorkspace {
			deletedFrom = "localWorkspace"
		}
		if err := s.store.MarkDeleted(path, deletedFrom); err != nil {
			return fmt.Errorf("failed to record deletion of %s: %w", path, err)
		}
	}

	return nil
}

// Submitted reports whether the current local edit of path is already
// part of an open submission.
func (s *Session) Submitted(path string) bool {
	status, ok := s.store.SubmissionStatus(s.owner, s.repo, path)
	return ok && status.Submitted
}

func validatePath(path string) error {
	if path == "" || strings.TrimSpace(path) == "" {
		return fmt.Errorf("invalid path: empty")
	}
	if names.IsDeletionKey(path) {
		return fmt.Errorf("invalid path %q: reserved namespace", path)
	}
	if strings.HasPrefix(path, "/") || strings.Contains(path, "..") {
		return fmt.Errorf("invalid path %q", path)
	}
	if path == strings.TrimSuffix(protectedPrefix, "/") || strings.HasPrefix(path, protectedPrefix) {
		return ErrProtectedPath
	}
	for _, segment := range strings.Split(strings.TrimSuffix(path, "/"), "/") {
		if !validFileNameRegex.MatchString(segment) {
			return fmt.Errorf("invalid file name %q", segment)
		}
	}
	return nil
}
