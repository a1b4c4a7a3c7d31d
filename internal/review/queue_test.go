package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dipcp/dipcp/internal/gh"
	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/store"
)

type MockGithubClient struct {
	mock.Mock
}

func (m *MockGithubClient) SearchPRs(query string) ([]gh.SearchResult, error) {
	args := m.Called(query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gh.SearchResult), args.Error(1)
}

func (m *MockGithubClient) PullRequest(owner, repo string, number int) (*gh.PullRequest, error) {
	args := m.Called(owner, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gh.PullRequest), args.Error(1)
}

func (m *MockGithubClient) PRFiles(owner, repo string, number int) ([]gh.PRFile, error) {
	args := m.Called(owner, repo, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gh.PRFile), args.Error(1)
}

func (m *MockGithubClient) AddLabels(owner, repo string, number int, labels []string) error {
	args := m.Called(owner, repo, number, labels)
	return args.Error(0)
}

func (m *MockGithubClient) MergePR(owner, repo string, number int, commitTitle, commitMessage string) error {
	args := m.Called(owner, repo, number, commitTitle, commitMessage)
	return args.Error(0)
}

func (m *MockGithubClient) ClosePR(owner, repo string, number int) error {
	args := m.Called(owner, repo, number)
	return args.Error(0)
}

func (m *MockGithubClient) DiscussionCategories(owner, repo string) (string, []gh.DiscussionCategory, error) {
	args := m.Called(owner, repo)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).([]gh.DiscussionCategory), args.Error(2)
}

func (m *MockGithubClient) CreateDiscussion(repositoryID, categoryID, title, body string) (string, error) {
	args := m.Called(repositoryID, categoryID, title, body)
	return args.String(0), args.Error(1)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestNextSurfacesOldestUnclaimed(t *testing.T) {
	m := new(MockGithubClient)
	q := NewQueue(m, newTestStore(t), "acme", "content", "bob")

	m.On("SearchPRs", "repo:acme/content is:pr is:open -label:maintaining -author:bob -label:c_bob").
		Return([]gh.SearchResult{
			{Number: 7, CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
			{Number: 5, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		}, nil)
	m.On("SearchPRs", "repo:acme/content is:pr is:open label:maintaining label:m_bob -author:bob -label:c_bob").
		Return([]gh.SearchResult{}, nil)
	m.On("PullRequest", "acme", "content", 5).Return(&gh.PullRequest{
		Number:  5,
		Author:  "alice",
		Body:    "fix typo",
		HeadRef: "dipcp/alice",
	}, nil)
	m.On("PRFiles", "acme", "content", 5).Return([]gh.PRFile{
		{Filename: "README.md", Status: "modified"},
	}, nil)

	item, err := q.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, 5, item.Number)
	assert.Equal(t, "alice", item.Author)
	assert.Equal(t, "README.md", item.Title)
	assert.Equal(t, []string{"README.md"}, item.Files)
	m.AssertExpectations(t)
}

func TestNextPrefersStickyClaim(t *testing.T) {
	m := new(MockGithubClient)
	q := NewQueue(m, newTestStore(t), "acme", "content", "bob")

	m.On("SearchPRs", mock.MatchedBy(func(q string) bool {
		return q == "repo:acme/content is:pr is:open -label:maintaining -author:bob -label:c_bob"
	})).Return([]gh.SearchResult{
		{Number: 2, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}, nil)
	m.On("SearchPRs", mock.MatchedBy(func(q string) bool {
		return q == "repo:acme/content is:pr is:open label:maintaining label:m_bob -author:bob -label:c_bob"
	})).Return([]gh.SearchResult{
		// Claimed later than the unclaimed one, still wins
		{Number: 9, CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}, nil)
	m.On("PullRequest", "acme", "content", 9).Return(&gh.PullRequest{Number: 9, Author: "carol"}, nil)
	m.On("PRFiles", "acme", "content", 9).Return([]gh.PRFile{}, nil)

	item, err := q.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 9, item.Number)
}

func TestNextEmptyQueue(t *testing.T) {
	m := new(MockGithubClient)
	q := NewQueue(m, newTestStore(t), "acme", "content", "bob")

	m.On("SearchPRs", mock.Anything).Return([]gh.SearchResult{}, nil)

	item, err := q.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestClaimAddsLabels(t *testing.T) {
	m := new(MockGithubClient)
	q := NewQueue(m, newTestStore(t), "acme", "content", "bob")

	item := &model.ReviewItem{Number: 5, Author: "alice"}
	m.On("AddLabels", "acme", "content", 5, []string{"maintaining", "m_bob", "c_alice"}).Return(nil)

	q.Claim(item)

	assert.True(t, item.HasLabel("maintaining"))
	assert.True(t, item.HasLabel("m_bob"))
	assert.True(t, item.HasLabel("c_alice"))
	m.AssertExpectations(t)
}

func TestClaimFailureIsNotFatal(t *testing.T) {
	m := new(MockGithubClient)
	q := NewQueue(m, newTestStore(t), "acme", "content", "bob")

	item := &model.ReviewItem{Number: 5, Author: "alice"}
	m.On("AddLabels", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	q.Claim(item)

	assert.False(t, item.HasLabel("maintaining"))
}

func TestApproveValidatesBeforeAnyAPICall(t *testing.T) {
	m := new(MockGithubClient)
	q := NewQueue(m, newTestStore(t), "acme", "content", "bob")
	item := &model.ReviewItem{Number: 5, Author: "alice", Title: "README.md"}

	err := q.Approve(context.Background(), item, model.ReviewDecision{Size: "small"})
	assert.ErrorIs(t, err, ErrMissingComment)

	err = q.Approve(context.Background(), item, model.ReviewDecision{Comment: "lgtm", Size: "small"})
	assert.ErrorIs(t, err, ErrMissingImpact)

	err = q.Approve(context.Background(), item, model.ReviewDecision{Comment: "lgtm", Impact: "high"})
	assert.ErrorIs(t, err, ErrMissingSize)

	m.AssertNotCalled(t, "MergePR", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "CreateDiscussion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveMergesAndAnnounces(t *testing.T) {
	m := new(MockGithubClient)
	st := newTestStore(t)
	q := NewQueue(m, st, "acme", "content", "bob")
	item := &model.ReviewItem{Number: 5, Author: "alice", Title: "README.md"}

	m.On("MergePR", "acme", "content", 5,
		"Approve submission from alice",
		"Author: alice\nSize: small\nImpact: high\n\nlooks good").Return(nil)
	m.On("DiscussionCategories", "acme", "content").Return("R_repo1", []gh.DiscussionCategory{
		{ID: "CAT_general", Name: "General"},
		{ID: "CAT_ann", Name: "Announcements"},
	}, nil)
	m.On("CreateDiscussion", "R_repo1", "CAT_ann", "Approved: README.md", mock.Anything).
		Return("https://github.com/acme/content/discussions/1", nil)

	err := q.Approve(context.Background(), item, model.ReviewDecision{
		Comment: "looks good",
		Size:    "small",
		Impact:  "high",
	})
	require.NoError(t, err)
	m.AssertExpectations(t)

	// Second approval reuses the cached category list
	m.On("MergePR", "acme", "content", 5, mock.Anything, mock.Anything).Return(nil)
	m.On("CreateDiscussion", "R_repo1", "CAT_ann", mock.Anything, mock.Anything).Return("url", nil)
	err = q.Approve(context.Background(), item, model.ReviewDecision{
		Comment: "still good",
		Size:    "small",
		Impact:  "low",
	})
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "DiscussionCategories", 1)
}

func TestAnnounceFallsBackToFirstCategory(t *testing.T) {
	m := new(MockGithubClient)
	q := NewQueue(m, newTestStore(t), "acme", "content", "bob")
	item := &model.ReviewItem{Number: 5, Author: "alice", Title: "README.md"}

	m.On("ClosePR", "acme", "content", 5).Return(nil)
	m.On("DiscussionCategories", "acme", "content").Return("R_repo1", []gh.DiscussionCategory{
		{ID: "CAT_general", Name: "General"},
	}, nil)
	m.On("CreateDiscussion", "R_repo1", "CAT_general", "Rejected: README.md", mock.Anything).
		Return("url", nil)

	err := q.Reject(context.Background(), item, "duplicate submission")
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestRejectRequiresReason(t *testing.T) {
	m := new(MockGithubClient)
	q := NewQueue(m, newTestStore(t), "acme", "content", "bob")
	item := &model.ReviewItem{Number: 5, Author: "alice"}

	err := q.Reject(context.Background(), item, "  ")
	assert.ErrorIs(t, err, ErrMissingReason)
	m.AssertNotCalled(t, "ClosePR", mock.Anything, mock.Anything, mock.Anything)
}
