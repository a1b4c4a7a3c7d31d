package editor

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/store"
)

func newTestSession(t *testing.T) (*Session, *store.Store) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return NewSession(st, "octo", "content"), st
}

func TestLoad_ResolutionPrecedence(t *testing.T) {
	s, st := newTestSession(t)

	require.NoError(t, st.CachePut(&model.FileRecord{Path: "readme.md", Content: "remote"}))

	content, found, err := s.Load("readme.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "remote", content)

	require.NoError(t, s.Save("readme.md", "local edit"))

	content, found, err = s.Load("readme.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "local edit", content, "workspace copy wins over cache")

	_, found, err = s.Load("missing.md")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoad_DecodesBase64CacheContent(t *testing.T) {
	s, st := newTestSession(t)

	encoded := base64.StdEncoding.EncodeToString([]byte("hello"))
	require.NoError(t, st.CachePut(&model.FileRecord{
		Path:     "readme.md",
		Content:  encoded,
		Encoding: model.EncodingBase64,
	}))

	content, found, err := s.Load("readme.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", content)
}

func TestSave_WritesWorkspaceOnly(t *testing.T) {
	s, st := newTestSession(t)

	require.NoError(t, st.CachePut(&model.FileRecord{Path: "readme.md", Content: "remote", SHA: "abc"}))
	require.NoError(t, s.Save("readme.md", "héllo"))

	rec, ok := st.WorkspaceGet("readme.md")
	require.True(t, ok)
	assert.True(t, rec.IsLocal)
	assert.Empty(t, rec.SHA)
	assert.Equal(t, int64(6), rec.Size, "size counts UTF-8 bytes, not runes")

	cached, ok := st.CacheGet("readme.md")
	require.True(t, ok)
	assert.Equal(t, "remote", cached.Content, "cache partition untouched by edits")
}

func TestSave_ClearsSubmissionStatus(t *testing.T) {
	s, st := newTestSession(t)

	require.NoError(t, s.Save("readme.md", "v1"))
	require.NoError(t, st.SetSubmissionStatus("octo", "content", "readme.md"))
	require.True(t, s.Submitted("readme.md"))

	require.NoError(t, s.Save("readme.md", "v2"))
	assert.False(t, s.Submitted("readme.md"), "a new edit invalidates the submitted flag")
}

func TestSave_ProtectedPaths(t *testing.T) {
	s, _ := newTestSession(t)

	assert.ErrorIs(t, s.Save(".github/workflows/ci.yml", "x"), ErrProtectedPath)
	assert.ErrorIs(t, s.Save(".github", "x"), ErrProtectedPath)
	assert.NoError(t, s.Save("github.md", "x"))
}

func TestSave_InvalidPaths(t *testing.T) {
	s, _ := newTestSession(t)

	assert.Error(t, s.Save("", "x"))
	assert.Error(t, s.Save("  ", "x"))
	assert.Error(t, s.Save("/abs/path.md", "x"))
	assert.Error(t, s.Save("../escape.md", "x"))
	assert.Error(t, s.Save("__deletions__/readme.md", "x"))
	assert.Error(t, s.Save("bad\x00name", "x"))
}

func TestCreate(t *testing.T) {
	s, st := newTestSession(t)

	require.NoError(t, s.Create("new.md", "fresh"))
	assert.ErrorIs(t, s.Create("new.md", "again"), ErrAlreadyExists)

	require.NoError(t, st.CachePut(&model.FileRecord{Path: "cached.md", Content: "remote"}))
	assert.ErrorIs(t, s.Create("cached.md", "x"), ErrAlreadyExists)
}

func TestDelete_WorkspaceOnlyFile(t *testing.T) {
	s, st := newTestSession(t)

	require.NoError(t, s.Save("draft.md", "x"))
	require.NoError(t, s.Delete("draft.md"))

	_, ok := st.WorkspaceGet("draft.md")
	assert.False(t, ok)
	assert.False(t, st.IsDeleted("draft.md"), "no tombstone needed for a file the remote never had")
}

func TestDelete_CacheBackedFile(t *testing.T) {
	s, st := newTestSession(t)

	require.NoError(t, st.CachePut(&model.FileRecord{Path: "old.md", Content: "remote"}))
	require.NoError(t, s.Delete("old.md"))

	assert.True(t, st.IsDeleted("old.md"))
	_, ok := st.CacheGet("old.md")
	assert.True(t, ok, "cache partition still mirrors the remote")

	records := st.DeletionRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "fileCache", records[0].DeletedFrom)
}

func TestDelete_EditedOverCachedFile(t *testing.T) {
	s, st := newTestSession(t)

	require.NoError(t, st.CachePut(&model.FileRecord{Path: "both.md", Content: "remote"}))
	require.NoError(t, s.Save("both.md", "edited"))
	require.NoError(t, s.Delete("both.md"))

	_, ok := st.WorkspaceGet("both.md")
	assert.False(t, ok)
	assert.True(t, st.IsDeleted("both.md"))

	records := st.DeletionRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "localWorkspace", records[0].DeletedFrom)
}

func TestDelete_UnknownPath(t *testing.T) {
	s, _ := newTestSession(t)
	assert.ErrorIs(t, s.Delete("ghost.md"), ErrNotFound)
}

func TestSave_RevivesDeletedFile(t *testing.T) {
	s, st := newTestSession(t)

	require.NoError(t, st.CachePut(&model.FileRecord{Path: "a.md", Content: "remote"}))
	require.NoError(t, s.Delete("a.md"))
	require.True(t, st.IsDeleted("a.md"))

	require.NoError(t, s.Save("a.md", "recreated"))

	assert.False(t, st.IsDeleted("a.md"), "new edit supersedes the pending deletion")
	paths := effectivePaths(st)
	assert.Contains(t, paths, "a.md", "revived file is visible again")

	content, found, err := s.Load("a.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "recreated", content)
}

func TestCreate_OverTombstonedPath(t *testing.T) {
	s, st := newTestSession(t)

	require.NoError(t, st.CachePut(&model.FileRecord{Path: "a.md", Content: "remote"}))
	require.NoError(t, s.Delete("a.md"))

	require.NoError(t, s.Create("a.md", "fresh start"), "a tombstoned path counts as free")
	assert.False(t, st.IsDeleted("a.md"))

	content, found, err := s.Load("a.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "fresh start", content)
}

func effectivePaths(st *store.Store) []string {
	var paths []string
	for _, rec := range st.EffectiveAll() {
		paths = append(paths, rec.Path)
	}
	return paths
}
