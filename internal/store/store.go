// Package store implements the local dual-store cache: a file-cache
// partition mirroring the last known remote state and a local-workspace
// partition holding the user's edits and deletion tombstones. Each
// partition is kept in memory and persisted as a JSON file in the
// workspace state directory.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/names"
)

const (
	cacheFile       = "file-cache.json"
	workspaceFile   = "local-workspace.json"
	submissionsFile = "submissions.json"
	categoriesFile  = "categories.json"
)

// Store is the dual-store cache. The cache partition is written only by
// the synchronization engine; the workspace partition only by user
// actions. A path may exist in both partitions at once (edited over
// cached) and the workspace copy always wins on read.
type Store struct {
	dir string

	mu          sync.Mutex
	cache       map[string]*model.FileRecord
	workspace   workspaceState
	submissions map[string]*model.SubmissionStatus
	categories  map[string][]model.DiscussionCategory
}

// workspaceState is the persisted shape of the local-workspace
// partition. Tombstones keep their reserved key namespace but carry an
// explicit record type instead of being shoehorned into FileRecord.
type workspaceState struct {
	Files     map[string]*model.FileRecord     `json:"files"`
	Deletions map[string]*model.DeletionRecord `json:"deletions"`
}

// Open loads the store from dir, creating it if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &Store{
		dir:         dir,
		cache:       make(map[string]*model.FileRecord),
		workspace:   workspaceState{Files: map[string]*model.FileRecord{}, Deletions: map[string]*model.DeletionRecord{}},
		submissions: make(map[string]*model.SubmissionStatus),
		categories:  make(map[string][]model.DiscussionCategory),
	}

	if err := loadJSON(filepath.Join(dir, cacheFile), &s.cache); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, workspaceFile), &s.workspace); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, submissionsFile), &s.submissions); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, categoriesFile), &s.categories); err != nil {
		return nil, err
	}

	if s.workspace.Files == nil {
		s.workspace.Files = map[string]*model.FileRecord{}
	}
	if s.workspace.Deletions == nil {
		s.workspace.Deletions = map[string]*model.DeletionRecord{}
	}

	return s, nil
}

// CachePut writes a record into the file-cache partition, overwriting
// any previous record for the same path. Only the sync engine calls
// this.
func (s *Store) CachePut(rec *model.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[rec.Path] = rec
	return s.saveCache()
}

// CacheGet returns the cached record for path, if any.
func (s *Store) CacheGet(path string) (*model.FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.cache[path]
	return rec, ok
}

// CacheAll returns all cached records sorted by path.
func (s *Store) CacheAll() []*model.FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedRecords(s.cache)
}

// WorkspacePut writes a record into the local-workspace partition.
func (s *Store) WorkspacePut(rec *model.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workspace.Files[rec.Path] = rec
	return s.saveWorkspace()
}

// WorkspaceGet returns the workspace record for path, if any.
func (s *Store) WorkspaceGet(path string) (*model.FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.workspace.Files[path]
	return rec, ok
}

// WorkspaceDelete removes the workspace record for path. Removing a
// record that does not exist is not an error.
func (s *Store) WorkspaceDelete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.workspace.Files, path)
	return s.saveWorkspace()
}

// WorkspaceAll returns all workspace records sorted by path.
func (s *Store) WorkspaceAll() []*model.FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedRecords(s.workspace.Files)
}

// Effective resolves the current content record for path: the
// workspace copy if present, else the cached copy.
func (s *Store) Effective(path string) (*model.FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.workspace.Files[path]; ok {
		return rec, true
	}
	if rec, ok := s.cache[path]; ok {
		return rec, true
	}
	return nil, false
}

// EffectiveAll returns the merged view of both partitions: one record
// per path with the workspace copy winning, tombstoned paths excluded.
// This is the file list the project tree is derived from.
func (s *Store) EffectiveAll() []*model.FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[string]*model.FileRecord, len(s.cache)+len(s.workspace.Files))
	for path, rec := range s.cache {
		merged[path] = rec
	}
	for path, rec := range s.workspace.Files {
		merged[path] = rec
	}
	for key := range s.workspace.Deletions {
		if path, ok := names.ParseDeletionKey(key); ok {
			delete(merged, path)
			delete(merged, path+"/")
		}
	}
	return sortedRecords(merged)
}

// MarkDeleted records a deletion tombstone for path. The cache
// partition is never mutated by user actions, so the tombstone is the
// only trace of the deletion until it is pushed upstream.
func (s *Store) MarkDeleted(path, deletedFrom string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workspace.Deletions[names.DeletionKey(path)] = &model.DeletionRecord{
		Path:        path,
		DeletedFrom: deletedFrom,
		DeletedAt:   time.Now(),
	}
	return s.saveWorkspace()
}

// IsDeleted reports whether path carries a pending deletion tombstone.
func (s *Store) IsDeleted(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.workspace.Deletions[names.DeletionKey(path)]
	return ok
}

// DeletionRecords returns all pending tombstones sorted by path.
func (s *Store) DeletionRecords() []model.DeletionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]model.DeletionRecord, 0, len(s.workspace.Deletions))
	for _, rec := range s.workspace.Deletions {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records
}

// ClearDeletionRecords drops the tombstones for the given paths,
// typically after a submission has pushed the deletions upstream.
func (s *Store) ClearDeletionRecords(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range paths {
		delete(s.workspace.Deletions, names.DeletionKey(path))
	}
	return s.saveWorkspace()
}

// SubmissionStatus returns the submission flag for (owner, repo, path).
func (s *Store) SubmissionStatus(owner, repo, path string) (model.SubmissionStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.submissions[statusKey(owner, repo, path)]
	if !ok {
		return model.SubmissionStatus{}, false
	}
	return *status, true
}

// SetSubmissionStatus marks the current local edit of path as included
// in an open submission.
func (s *Store) SetSubmissionStatus(owner, repo, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submissions[statusKey(owner, repo, path)] = &model.SubmissionStatus{
		Submitted: true,
		UpdatedAt: time.Now(),
	}
	return s.saveSubmissions()
}

// ClearSubmissionStatus drops the submission flag for path. Called on
// every edit: new content has not been reviewed.
func (s *Store) ClearSubmissionStatus(owner, repo, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.submissions, statusKey(owner, repo, path))
	return s.saveSubmissions()
}

// Categories returns the cached discussion category list for a repo.
func (s *Store) Categories(owner, repo string) ([]model.DiscussionCategory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, ok := s.categories[owner+"/"+repo]
	return categories, ok
}

// SetCategories caches the discussion category list for a repo.
func (s *Store) SetCategories(owner, repo string, categories []model.DiscussionCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories[owner+"/"+repo] = categories
	return s.saveCategories()
}

func statusKey(owner, repo, path string) string {
	return owner + "/" + repo + "#" + path
}

func sortedRecords(m map[string]*model.FileRecord) []*model.FileRecord {
	records := make([]*model.FileRecord, 0, len(m))
	for _, rec := range m {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records
}

func (s *Store) saveCache() error {
	return writeJSON(filepath.Join(s.dir, cacheFile), s.cache)
}

func (s *Store) saveWorkspace() error {
	return writeJSON(filepath.Join(s.dir, workspaceFile), s.workspace)
}

func (s *Store) saveSubmissions() error {
	return writeJSON(filepath.Join(s.dir, submissionsFile), s.submissions)
}

func (s *Store) saveCategories() error {
	return writeJSON(filepath.Join(s.dir, categoriesFile), s.categories)
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON persists v atomically: write to a temp file in the same
// directory, then rename over the target.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
