// Package sync pulls the full remote file tree into the file-cache
// partition of the local store.
package sync

import (
	"context"
	"time"

	"github.com/dipcp/dipcp/internal/gh"
	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/store"
)

// GithubClient defines the GitHub operations needed by the sync engine
type GithubClient interface {
	Tree(owner, repo, ref string) ([]gh.TreeEntry, error)
	Blob(owner, repo, sha string) (*gh.BlobContent, error)
}

// Progress is one event of a sync run, emitted after each processed
// file. A non-nil Err means that single file failed; the run continues.
type Progress struct {
	Path      string
	Processed int
	Total     int
	Percent   int
	Err       error
}

// Engine synchronizes remote repository content into the file cache.
// It never touches the local workspace or deletion tombstones, so a
// sync can always run without risk to unsubmitted edits.
type Engine struct {
	gh    GithubClient
	store *store.Store
}

// NewEngine creates a new sync engine
func NewEngine(ghClient GithubClient, st *store.Store) *Engine {
	return &Engine{gh: ghClient, store: st}
}

// Sync lists the remote tree at ref and streams one Progress event per
// file while writing fetched content into the cache. A failure to list
// the tree aborts before anything is written; per-file fetch failures
// and failed directory writes are carried in the event stream and do
// not stop the run. Safe to
// re-run: each run overwrites cache entries with the latest remote
// content.
func (e *Engine) Sync(ctx context.Context, owner, repo, ref string) (<-chan Progress, error) {
	entries, err := e.gh.Tree(owner, repo, ref)
	if err != nil {
		return nil, err
	}

	var blobs []gh.TreeEntry
	var dirs []gh.TreeEntry
	for _, entry := range entries {
		switch entry.Type {
		case "blob":
			blobs = append(blobs, entry)
		case "tree":
			dirs = append(dirs, entry)
		}
	}

	events := make(chan Progress)
	go func() {
		defer close(events)

		total := len(blobs)

		now := time.Now()
		for _, dir := range dirs {
			// Directory entries carry no content, so a successful write
			// emits no event. A failed one still surfaces as an error.
			err := e.store.CachePut(&model.FileRecord{
				Path:     dir.Path + "/",
				SHA:      dir.SHA,
				Created:  now,
				Modified: now,
			})
			if err == nil {
				continue
			}
			select {
			case events <- Progress{Path: dir.Path + "/", Total: total, Err: err}:
			case <-ctx.Done():
				return
			}
		}
		for i, entry := range blobs {
			if ctx.Err() != nil {
				return
			}

			event := Progress{
				Path:      entry.Path,
				Processed: i + 1,
				Total:     total,
				Percent:   (i + 1) * 100 / total,
			}

			if err := e.syncFile(owner, repo, entry); err != nil {
				event.Err = err
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (e *Engine) syncFile(owner, repo string, entry gh.TreeEntry) error {
	blob, err := e.gh.Blob(owner, repo, entry.SHA)
	if err != nil {
		return err
	}

	now := time.Now()
	return e.store.CachePut(&model.FileRecord{
		Path:     entry.Path,
		Content:  blob.Content,
		Encoding: blob.Encoding,
		SHA:      entry.SHA,
		Created:  now,
		Modified: now,
		Size:     blob.Size,
	})
}
