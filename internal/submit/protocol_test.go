package submit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dipcp/dipcp/internal/editor"
	"github.com/dipcp/dipcp/internal/gh"
	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/store"
)

// MockGithubClient records every call in order so tests can assert
// that content capture happens before any destructive operation.
type MockGithubClient struct {
	mock.Mock
	calls []string
}

func (m *MockGithubClient) record(name string) {
	m.calls = append(m.calls, name)
}

func (m *MockGithubClient) BranchHead(owner, repo, branch string) (string, bool, error) {
	m.record("BranchHead")
	args := m.Called(owner, repo, branch)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockGithubClient) ListOpenPRs(owner, repo, head string) ([]*gh.PullRequest, error) {
	m.record("ListOpenPRs")
	args := m.Called(owner, repo, head)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*gh.PullRequest), args.Error(1)
}

func (m *MockGithubClient) PRFiles(owner, repo string, number int) ([]gh.PRFile, error) {
	m.record("PRFiles")
	args := m.Called(owner, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gh.PRFile), args.Error(1)
}

func (m *MockGithubClient) FileContents(owner, repo, path, ref string) (*gh.FileContents, bool, error) {
	m.record("FileContents")
	args := m.Called(owner, repo, path, ref)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*gh.FileContents), args.Bool(1), args.Error(2)
}

func (m *MockGithubClient) ClosePR(owner, repo string, number int) error {
	m.record("ClosePR")
	args := m.Called(owner, repo, number)
	return args.Error(0)
}

func (m *MockGithubClient) CreateRef(owner, repo, branch, sha string) error {
	m.record("CreateRef")
	args := m.Called(owner, repo, branch, sha)
	return args.Error(0)
}

func (m *MockGithubClient) UpdateRef(owner, repo, branch, sha string, force bool) error {
	m.record("UpdateRef")
	args := m.Called(owner, repo, branch, sha, force)
	return args.Error(0)
}

func (m *MockGithubClient) CreateFile(owner, repo, path, branch, message string, content []byte) error {
	m.record("CreateFile")
	args := m.Called(owner, repo, path, branch, message, content)
	return args.Error(0)
}

func (m *MockGithubClient) CreateBlob(owner, repo string, content []byte) (string, error) {
	m.record("CreateBlob")
	args := m.Called(owner, repo, content)
	return args.String(0), args.Error(1)
}

func (m *MockGithubClient) CommitInfo(owner, repo, sha string) (*gh.CommitInfo, error) {
	m.record("CommitInfo")
	args := m.Called(owner, repo, sha)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gh.CommitInfo), args.Error(1)
}

func (m *MockGithubClient) CreateTree(owner, repo, baseTree string, entries []gh.TreeSpec) (string, error) {
	m.record("CreateTree")
	args := m.Called(owner, repo, baseTree, entries)
	return args.String(0), args.Error(1)
}

func (m *MockGithubClient) CreateCommit(owner, repo, message, treeSHA string, parents []string) (string, error) {
	m.record("CreateCommit")
	args := m.Called(owner, repo, message, treeSHA, parents)
	return args.String(0), args.Error(1)
}

func (m *MockGithubClient) CreatePR(owner, repo, title, body, head, base string) (*gh.PullRequest, error) {
	m.record("CreatePR")
	args := m.Called(owner, repo, title, body, head, base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gh.PullRequest), args.Error(1)
}

func (m *MockGithubClient) AddLabels(owner, repo string, number int, labels []string) error {
	m.record("AddLabels")
	args := m.Called(owner, repo, number, labels)
	return args.Error(0)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestSubmitFreshBranch(t *testing.T) {
	m := new(MockGithubClient)
	st := newTestStore(t)
	p := NewProtocol(m, st, "acme", "content", "main", "alice")

	m.On("ListOpenPRs", "acme", "content", "acme:dipcp/alice").Return([]*gh.PullRequest{}, nil)
	m.On("BranchHead", "acme", "content", "main").Return("base123", true, nil)
	m.On("BranchHead", "acme", "content", "dipcp/alice").Return("", false, nil).Once()
	m.On("CreateRef", "acme", "content", "dipcp/alice", "base123").Return(nil)
	m.On("CreateFile", "acme", "content", "README.md", "dipcp/alice", mock.Anything, []byte("hello world")).Return(nil)
	m.On("CreatePR", "acme", "content", DefaultTitle, "first draft", "dipcp/alice", "main").
		Return(&gh.PullRequest{Number: 42, URL: "https://github.com/acme/content/pull/42"}, nil)
	m.On("AddLabels", "acme", "content", 42, []string{"c_alice"}).Return(nil)

	res, err := p.Submit(context.Background(), Request{
		Path:    "README.md",
		Content: "hello world",
		Message: "first draft",
	})
	require.NoError(t, err)

	// One file on a brand new branch needs no batched commit
	m.AssertNotCalled(t, "CreateBlob", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "UpdateRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	assert.Equal(t, "dipcp/alice", res.Branch)
	assert.Equal(t, 42, res.PRNumber)
	assert.Equal(t, []string{"README.md"}, res.Files)
	assert.Empty(t, res.ClosedPRs)

	status, ok := st.SubmissionStatus("acme", "content", "README.md")
	require.True(t, ok)
	assert.True(t, status.Submitted)

	m.AssertExpectations(t)
}

func TestSubmitFoldsStalePRs(t *testing.T) {
	m := new(MockGithubClient)
	st := newTestStore(t)
	p := NewProtocol(m, st, "acme", "content", "main", "alice")

	stale := &gh.PullRequest{
		Number:    7,
		Body:      "earlier changes",
		HeadRef:   "dipcp/alice",
		HeadOwner: "acme",
		HeadRepo:  "content",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	m.On("ListOpenPRs", "acme", "content", "acme:dipcp/alice").Return([]*gh.PullRequest{stale}, nil)
	m.On("PRFiles", "acme", "content", 7).Return([]gh.PRFile{
		{Filename: "a.md", Status: "modified"},
		{Filename: "b.md", Status: "added"},
		{Filename: "old.md", Status: "removed"},
	}, nil)
	m.On("FileContents", "acme", "content", "a.md", "dipcp/alice").
		Return(&gh.FileContents{Path: "a.md", Content: "stale a"}, true, nil)
	m.On("FileContents", "acme", "content", "b.md", "dipcp/alice").
		Return(&gh.FileContents{Path: "b.md", Content: "stale b"}, true, nil)
	m.On("ClosePR", "acme", "content", 7).Return(nil)
	m.On("BranchHead", "acme", "content", "main").Return("base123", true, nil)
	m.On("BranchHead", "acme", "content", "dipcp/alice").Return("head456", true, nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "base123", true).Return(nil)
	m.On("CommitInfo", "acme", "content", "base123").Return(&gh.CommitInfo{SHA: "base123", TreeSHA: "tree0"}, nil)
	m.On("CreateBlob", "acme", "content", []byte("stale a")).Return("blobA", nil)
	m.On("CreateBlob", "acme", "content", []byte("stale b")).Return("blobB", nil)
	m.On("CreateBlob", "acme", "content", []byte("fresh c")).Return("blobC", nil)
	m.On("CreateTree", "acme", "content", "tree0", mock.Anything).Return("tree1", nil)
	m.On("CreateCommit", "acme", "content", mock.Anything, "tree1", []string{"base123"}).Return("commit1", nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "commit1", true).Return(nil)
	m.On("CreatePR", "acme", "content", DefaultTitle, "new edit\n\n---\n\nearlier changes", "dipcp/alice", "main").
		Return(&gh.PullRequest{Number: 43, URL: "https://github.com/acme/content/pull/43"}, nil)
	m.On("AddLabels", "acme", "content", 43, []string{"c_alice"}).Return(nil)

	res, err := p.Submit(context.Background(), Request{
		Path:    "c.md",
		Content: "fresh c",
		Message: "new edit",
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a.md", "b.md", "c.md"}, res.Files)
	assert.Equal(t, []int{7}, res.ClosedPRs)
	assert.Equal(t, 43, res.PRNumber)
	m.AssertExpectations(t)
}

func TestSubmitCapturesBeforeDestroying(t *testing.T) {
	m := new(MockGithubClient)
	st := newTestStore(t)
	p := NewProtocol(m, st, "acme", "content", "main", "alice")

	stale := &gh.PullRequest{Number: 7, HeadRef: "dipcp/alice", HeadOwner: "acme", HeadRepo: "content"}
	m.On("ListOpenPRs", mock.Anything, mock.Anything, mock.Anything).Return([]*gh.PullRequest{stale}, nil)
	m.On("PRFiles", mock.Anything, mock.Anything, mock.Anything).Return([]gh.PRFile{{Filename: "a.md", Status: "modified"}}, nil)
	m.On("FileContents", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&gh.FileContents{Path: "a.md", Content: "stale a"}, true, nil)
	m.On("ClosePR", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.On("BranchHead", "acme", "content", "main").Return("base123", true, nil)
	m.On("BranchHead", "acme", "content", "dipcp/alice").Return("head456", true, nil)
	m.On("UpdateRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.On("CommitInfo", mock.Anything, mock.Anything, mock.Anything).Return(&gh.CommitInfo{TreeSHA: "tree0"}, nil)
	m.On("CreateBlob", mock.Anything, mock.Anything, mock.Anything).Return("blob", nil)
	m.On("CreateTree", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("tree1", nil)
	m.On("CreateCommit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("commit1", nil)
	m.On("CreatePR", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&gh.PullRequest{Number: 44}, nil)
	m.On("AddLabels", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := p.Submit(context.Background(), Request{Path: "c.md", Content: "fresh", Message: "msg"})
	require.NoError(t, err)

	lastFetch, firstDestroy := -1, len(m.calls)
	for i, call := range m.calls {
		switch call {
		case "FileContents":
			lastFetch = i
		case "ClosePR", "UpdateRef", "CreateRef":
			if i < firstDestroy {
				firstDestroy = i
			}
		}
	}
	require.GreaterOrEqual(t, lastFetch, 0)
	assert.Less(t, lastFetch, firstDestroy, "stale content must be captured before any PR close or branch reset")
}

func TestSubmitLeavesMaintainedPRAlone(t *testing.T) {
	m := new(MockGithubClient)
	st := newTestStore(t)
	p := NewProtocol(m, st, "acme", "content", "main", "alice")

	claimed := &gh.PullRequest{
		Number: 9,
		Body:   "under review",
		Labels: []string{"maintaining", "m_bob", "c_alice"},
	}
	m.On("ListOpenPRs", "acme", "content", "acme:dipcp/alice").Return([]*gh.PullRequest{claimed}, nil)
	m.On("BranchHead", "acme", "content", "main").Return("base123", true, nil)
	m.On("BranchHead", "acme", "content", "dipcp/alice").Return("head456", true, nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "base123", true).Return(nil)
	m.On("CommitInfo", "acme", "content", "base123").Return(&gh.CommitInfo{TreeSHA: "tree0"}, nil)
	m.On("CreateBlob", "acme", "content", []byte("fresh")).Return("blob", nil)
	m.On("CreateTree", "acme", "content", "tree0", mock.Anything).Return("tree1", nil)
	m.On("CreateCommit", "acme", "content", mock.Anything, "tree1", []string{"base123"}).Return("commit1", nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "commit1", true).Return(nil)
	// Body of the claimed PR is not folded into the new one
	m.On("CreatePR", "acme", "content", DefaultTitle, "msg", "dipcp/alice", "main").
		Return(&gh.PullRequest{Number: 45}, nil)
	m.On("AddLabels", "acme", "content", 45, []string{"c_alice"}).Return(nil)

	res, err := p.Submit(context.Background(), Request{Path: "c.md", Content: "fresh", Message: "msg"})
	require.NoError(t, err)

	m.AssertNotCalled(t, "ClosePR", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "PRFiles", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, res.ClosedPRs)
	m.AssertExpectations(t)
}

func TestSubmitPushesDeletions(t *testing.T) {
	m := new(MockGithubClient)
	st := newTestStore(t)
	require.NoError(t, st.CachePut(&model.FileRecord{Path: "gone.md", Content: "x"}))
	require.NoError(t, st.MarkDeleted("gone.md", "fileCache"))
	p := NewProtocol(m, st, "acme", "content", "main", "alice")

	m.On("ListOpenPRs", "acme", "content", "acme:dipcp/alice").Return([]*gh.PullRequest{}, nil)
	m.On("BranchHead", "acme", "content", "main").Return("base123", true, nil)
	m.On("BranchHead", "acme", "content", "dipcp/alice").Return("head456", true, nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "base123", true).Return(nil)
	m.On("CommitInfo", "acme", "content", "base123").Return(&gh.CommitInfo{TreeSHA: "tree0"}, nil)
	m.On("CreateBlob", "acme", "content", []byte("fresh")).Return("blob", nil)
	m.On("CreateTree", "acme", "content", "tree0", mock.MatchedBy(func(entries []gh.TreeSpec) bool {
		for _, e := range entries {
			if e.Path == "gone.md" && e.SHA == nil {
				return true
			}
		}
		return false
	})).Return("tree1", nil)
	m.On("CreateCommit", "acme", "content", mock.Anything, "tree1", []string{"base123"}).Return("commit1", nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "commit1", true).Return(nil)
	m.On("CreatePR", "acme", "content", DefaultTitle, "msg", "dipcp/alice", "main").
		Return(&gh.PullRequest{Number: 46}, nil)
	m.On("AddLabels", "acme", "content", 46, []string{"c_alice"}).Return(nil)

	res, err := p.Submit(context.Background(), Request{Path: "c.md", Content: "fresh", Message: "msg"})
	require.NoError(t, err)

	assert.Equal(t, []string{"gone.md"}, res.DeletedPaths)
	assert.False(t, st.IsDeleted("gone.md"), "pushed tombstones are cleared")
	m.AssertExpectations(t)
}

func TestSubmitSkipsUnfetchableStaleFile(t *testing.T) {
	m := new(MockGithubClient)
	st := newTestStore(t)
	p := NewProtocol(m, st, "acme", "content", "main", "alice")

	stale := &gh.PullRequest{Number: 7, HeadRef: "dipcp/alice", HeadOwner: "acme", HeadRepo: "content"}
	m.On("ListOpenPRs", mock.Anything, mock.Anything, mock.Anything).Return([]*gh.PullRequest{stale}, nil)
	m.On("PRFiles", "acme", "content", 7).Return([]gh.PRFile{
		{Filename: "lost.md", Status: "modified"},
		{Filename: "kept.md", Status: "modified"},
	}, nil)
	m.On("FileContents", "acme", "content", "lost.md", "dipcp/alice").
		Return(nil, false, assert.AnError)
	m.On("FileContents", "acme", "content", "kept.md", "dipcp/alice").
		Return(&gh.FileContents{Path: "kept.md", Content: "kept"}, true, nil)
	m.On("ClosePR", "acme", "content", 7).Return(nil)
	m.On("BranchHead", "acme", "content", "main").Return("base123", true, nil)
	m.On("BranchHead", "acme", "content", "dipcp/alice").Return("head456", true, nil)
	m.On("UpdateRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.On("CommitInfo", mock.Anything, mock.Anything, mock.Anything).Return(&gh.CommitInfo{TreeSHA: "tree0"}, nil)
	m.On("CreateBlob", mock.Anything, mock.Anything, mock.Anything).Return("blob", nil)
	m.On("CreateTree", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("tree1", nil)
	m.On("CreateCommit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("commit1", nil)
	m.On("CreatePR", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&gh.PullRequest{Number: 47}, nil)
	m.On("AddLabels", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := p.Submit(context.Background(), Request{Path: "c.md", Content: "fresh", Message: "msg"})
	require.NoError(t, err)

	assert.Equal(t, []string{"lost.md"}, res.SkippedFiles)
	assert.ElementsMatch(t, []string{"kept.md", "c.md"}, res.Files)
	m.AssertExpectations(t)
}

func TestSubmitCurrentEditOverridesStaleCopy(t *testing.T) {
	m := new(MockGithubClient)
	st := newTestStore(t)
	p := NewProtocol(m, st, "acme", "content", "main", "alice")

	// The stale PR also touches the file being resubmitted
	stale := &gh.PullRequest{Number: 7, HeadRef: "dipcp/alice", HeadOwner: "acme", HeadRepo: "content"}
	m.On("ListOpenPRs", "acme", "content", "acme:dipcp/alice").Return([]*gh.PullRequest{stale}, nil)
	m.On("PRFiles", "acme", "content", 7).Return([]gh.PRFile{
		{Filename: "a.md", Status: "modified"},
		{Filename: "c.md", Status: "modified"},
	}, nil)
	m.On("FileContents", "acme", "content", "a.md", "dipcp/alice").
		Return(&gh.FileContents{Path: "a.md", Content: "stale a"}, true, nil)
	m.On("FileContents", "acme", "content", "c.md", "dipcp/alice").
		Return(&gh.FileContents{Path: "c.md", Content: "stale c"}, true, nil)
	m.On("ClosePR", "acme", "content", 7).Return(nil)
	m.On("BranchHead", "acme", "content", "main").Return("base123", true, nil)
	m.On("BranchHead", "acme", "content", "dipcp/alice").Return("head456", true, nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "base123", true).Return(nil)
	m.On("CommitInfo", "acme", "content", "base123").Return(&gh.CommitInfo{TreeSHA: "tree0"}, nil)
	m.On("CreateBlob", "acme", "content", []byte("stale a")).Return("blobA", nil)
	m.On("CreateBlob", "acme", "content", []byte("fresh c")).Return("blobC", nil)
	m.On("CreateTree", "acme", "content", "tree0", mock.Anything).Return("tree1", nil)
	m.On("CreateCommit", "acme", "content", mock.Anything, "tree1", []string{"base123"}).Return("commit1", nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "commit1", true).Return(nil)
	m.On("CreatePR", "acme", "content", DefaultTitle, "msg", "dipcp/alice", "main").
		Return(&gh.PullRequest{Number: 48}, nil)
	m.On("AddLabels", "acme", "content", 48, []string{"c_alice"}).Return(nil)

	res, err := p.Submit(context.Background(), Request{Path: "c.md", Content: "fresh c", Message: "msg"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a.md", "c.md"}, res.Files)
	m.AssertNotCalled(t, "CreateBlob", "acme", "content", []byte("stale c"))
	m.AssertExpectations(t)
}

func TestSubmitSkipsRevivedDeletion(t *testing.T) {
	m := new(MockGithubClient)
	st := newTestStore(t)
	session := editor.NewSession(st, "acme", "content")

	// Delete a cache-backed file, then re-edit it before submitting
	// something else; the stale tombstone must not ride along
	require.NoError(t, st.CachePut(&model.FileRecord{Path: "a.md", Content: "remote"}))
	require.NoError(t, session.Delete("a.md"))
	require.NoError(t, session.Save("a.md", "recreated"))
	require.NoError(t, session.Save("b.md", "new file"))

	p := NewProtocol(m, st, "acme", "content", "main", "alice")

	m.On("ListOpenPRs", "acme", "content", "acme:dipcp/alice").Return([]*gh.PullRequest{}, nil)
	m.On("BranchHead", "acme", "content", "main").Return("base123", true, nil)
	m.On("BranchHead", "acme", "content", "dipcp/alice").Return("head456", true, nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "base123", true).Return(nil)
	m.On("CommitInfo", "acme", "content", "base123").Return(&gh.CommitInfo{TreeSHA: "tree0"}, nil)
	m.On("CreateBlob", "acme", "content", []byte("new file")).Return("blob", nil)
	m.On("CreateTree", "acme", "content", "tree0", mock.MatchedBy(func(entries []gh.TreeSpec) bool {
		for _, e := range entries {
			if e.SHA == nil {
				return false
			}
		}
		return true
	})).Return("tree1", nil)
	m.On("CreateCommit", "acme", "content", mock.Anything, "tree1", []string{"base123"}).Return("commit1", nil)
	m.On("UpdateRef", "acme", "content", "dipcp/alice", "commit1", true).Return(nil)
	m.On("CreatePR", "acme", "content", DefaultTitle, "msg", "dipcp/alice", "main").
		Return(&gh.PullRequest{Number: 49}, nil)
	m.On("AddLabels", "acme", "content", 49, []string{"c_alice"}).Return(nil)

	res, err := p.Submit(context.Background(), Request{Path: "b.md", Content: "new file", Message: "msg"})
	require.NoError(t, err)

	assert.Empty(t, res.DeletedPaths, "revived files carry no deletion")
	m.AssertExpectations(t)
}
