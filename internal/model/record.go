package model

import "time"

// Encoding values for FileRecord content.
const (
	EncodingUTF8   = ""
	EncodingBase64 = "base64"
)

// FileRecord represents one file or directory entry as known locally.
// Records live in one of the two store partitions: the file cache (last
// known remote state) or the local workspace (user edits).
type FileRecord struct {
	Path     string    `json:"path"`               // repository-relative; directories end with "/"
	Content  string    `json:"content"`            // empty for directories and deletion markers
	Encoding string    `json:"encoding,omitempty"` // "base64" for raw GitHub blob content
	SHA      string    `json:"sha"`                // remote blob hash; empty for local-only edits
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	IsLocal  bool      `json:"is_local"` // true if the authoritative copy is the user's edit
	Size     int64     `json:"size"`     // UTF-8 byte length of the decoded content
}

// IsDir reports whether the record describes a directory entry.
func (r *FileRecord) IsDir() bool {
	return len(r.Path) > 0 && r.Path[len(r.Path)-1] == '/'
}

// DeletionRecord is a tombstone for a cache-backed file the user marked
// deleted. The cache partition is never mutated by user actions, so the
// deletion has to be remembered independently until it is pushed upstream.
type DeletionRecord struct {
	Path        string    `json:"path"`
	DeletedFrom string    `json:"deleted_from"` // "fileCache" or "localWorkspace"
	DeletedAt   time.Time `json:"deleted_at"`
}

// SubmissionStatus records whether the current local edit of a file has
// already been included in an open, not-yet-merged submission. It is
// cleared whenever the file is edited again.
type SubmissionStatus struct {
	Submitted bool      `json:"submitted"`
	UpdatedAt time.Time `json:"updated_at"`
}
