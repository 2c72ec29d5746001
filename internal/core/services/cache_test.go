package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/devcorner/tvdash/internal/core/domain"
	"github.com/devcorner/tvdash/internal/core/mocks"
	"github.com/devcorner/tvdash/internal/core/ports"
	"github.com/devcorner/tvdash/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func issueWithID(id string) domain.Issue {
	return domain.Issue{ID: id, Key: "NOVA-" + id}
}

// expectSearch routes a mocked search result by JQL.
func expectSearch(searcher *mocks.MockIssueSearcher, jql string, issues []domain.Issue, total int) *mock.Call {
	return searcher.On("Search", mock.Anything, mock.MatchedBy(func(p ports.SearchParams) bool {
		return p.JQL == jql
	})).Return(&ports.SearchResult{Issues: issues, Total: total}, nil)
}

func expectSearchError(searcher *mocks.MockIssueSearcher, jql string, err error) *mock.Call {
	return searcher.On("Search", mock.Anything, mock.MatchedBy(func(p ports.SearchParams) bool {
		return p.JQL == jql
	})).Return(nil, err)
}

func expectCount(searcher *mocks.MockIssueSearcher, jql string, total int) *mock.Call {
	return searcher.On("Count", mock.Anything, jql).Return(total, nil)
}

func TestCache_StaleBeforeFirstRefresh(t *testing.T) {
	searcher := mocks.NewMockIssueSearcher()
	cache := services.NewCache("nova", nil, 30*time.Minute, searcher, nil, testLogger())

	assert.True(t, cache.IsStale())
	assert.False(t, cache.HasData())

	status := cache.Status()
	assert.Equal(t, "nova", status.Name)
	assert.True(t, status.Stale)
	assert.False(t, status.Loading)
	assert.Nil(t, status.LastFetched)
	assert.Equal(t, "30m0s", status.TTL)
}

func TestCache_RefreshCommitsAllQueries(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, "q-open", []domain.Issue{issueWithID("1"), issueWithID("2")}, 2)
	expectCount(searcher, "q-count", 41)

	queries := []services.QuerySpec{
		{Name: "open", JQL: "q-open", MaxResults: 100},
		{Name: "openCount", JQL: "q-count", CountOnly: true},
	}
	cache := services.NewCache("trevor", queries, 30*time.Minute, searcher, nil, testLogger())

	require.NoError(t, cache.Refresh(ctx, false))

	assert.False(t, cache.IsStale())
	assert.True(t, cache.HasData())
	assert.Len(t, cache.List("open"), 2)
	assert.Equal(t, 2, cache.Total("open"))
	assert.Equal(t, 41, cache.Total("openCount"))
	assert.Empty(t, cache.List("openCount"), "count-only queries keep no issues")

	status := cache.Status()
	require.NotNil(t, status.LastFetched)
	assert.False(t, status.Stale)
	assert.Empty(t, status.Error)
}

func TestCache_CountOnlyFetchesNoIssues(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	expectCount(searcher, "q-count", 7)

	queries := []services.QuerySpec{{Name: "openCount", JQL: "q-count", CountOnly: true}}
	cache := services.NewCache("trevor", queries, time.Minute, searcher, nil, testLogger())

	require.NoError(t, cache.Refresh(ctx, false))
	assert.Equal(t, 7, cache.Total("openCount"))
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestCache_StalenessGate(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, "q-open", []domain.Issue{issueWithID("1")}, 1)

	queries := []services.QuerySpec{{Name: "open", JQL: "q-open", MaxResults: 100}}
	cache := services.NewCache("nova", queries, 5*time.Minute, searcher, nil, testLogger())

	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	cache.SetNow(func() time.Time { return now })

	require.NoError(t, cache.Refresh(ctx, false))
	searcher.AssertNumberOfCalls(t, "Search", 1)

	// Fresh data: the gate drops the call.
	require.NoError(t, cache.Refresh(ctx, false))
	searcher.AssertNumberOfCalls(t, "Search", 1)

	// Forced refresh bypasses the gate.
	require.NoError(t, cache.Refresh(ctx, true))
	searcher.AssertNumberOfCalls(t, "Search", 2)

	// TTL expiry reopens it.
	now = now.Add(5*time.Minute + time.Second)
	assert.True(t, cache.IsStale())
	require.NoError(t, cache.Refresh(ctx, false))
	searcher.AssertNumberOfCalls(t, "Search", 3)
}

func TestCache_OverlappingRefreshIsDropped(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()

	started := make(chan struct{})
	release := make(chan struct{})
	searcher.On("Search", mock.Anything, mock.MatchedBy(func(p ports.SearchParams) bool {
		return p.JQL == "q-open"
	})).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(&ports.SearchResult{Issues: []domain.Issue{issueWithID("1")}, Total: 1}, nil)

	queries := []services.QuerySpec{{Name: "open", JQL: "q-open", MaxResults: 100}}
	cache := services.NewCache("nova", queries, time.Minute, searcher, nil, testLogger())

	done := make(chan error, 1)
	go func() { done <- cache.Refresh(ctx, false) }()
	<-started

	// The first refresh is parked inside the search call; an overlapping
	// call must return immediately without issuing queries, even forced.
	assert.True(t, cache.Status().Loading)
	require.NoError(t, cache.Refresh(ctx, true))
	searcher.AssertNumberOfCalls(t, "Search", 1)

	close(release)
	require.NoError(t, <-done)

	assert.True(t, cache.HasData())
	assert.False(t, cache.Status().Loading)
	searcher.AssertNumberOfCalls(t, "Search", 1)
}

func TestCache_OptionalQueryFailureDegrades(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, "q-open", []domain.Issue{issueWithID("1")}, 1)
	expectSearchError(searcher, "q-overdue", errors.New("field 'duedate' does not exist"))

	queries := []services.QuerySpec{
		{Name: "open", JQL: "q-open", MaxResults: 100},
		{Name: "overdue", JQL: "q-overdue", MaxResults: 100, Optional: true},
	}
	cache := services.NewCache("nova", queries, time.Minute, searcher, nil, testLogger())

	require.NoError(t, cache.Refresh(ctx, false))

	assert.True(t, cache.HasData())
	assert.Len(t, cache.List("open"), 1)
	assert.Empty(t, cache.List("overdue"))
	assert.Empty(t, cache.Status().Error)
}

func TestCache_RequiredQueryFailureKeepsPreviousData(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	queries := []services.QuerySpec{{Name: "open", JQL: "q-open", MaxResults: 100}}
	cache := services.NewCache("nova", queries, time.Minute, searcher, nil, testLogger())

	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	cache.SetNow(func() time.Time { return now })

	// Unset does not work on MatchedBy expectations (testify #1236), so the
	// good call is limited to a single use instead.
	expectSearch(searcher, "q-open", []domain.Issue{issueWithID("1")}, 1).Once()
	require.NoError(t, cache.Refresh(ctx, false))
	require.Len(t, cache.List("open"), 1)

	expectSearchError(searcher, "q-open", errors.New("jira: 500 internal error"))
	now = now.Add(2 * time.Minute)
	err := cache.Refresh(ctx, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
	assert.Len(t, cache.List("open"), 1, "previous data stays visible")

	status := cache.Status()
	assert.NotEmpty(t, status.Error)
	assert.True(t, status.Stale, "a failed refresh does not reset the clock")
}

func TestCache_ErrorClearedOnNextSuccess(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	queries := []services.QuerySpec{{Name: "open", JQL: "q-open", MaxResults: 100}}
	cache := services.NewCache("nova", queries, time.Minute, searcher, nil, testLogger())

	expectSearchError(searcher, "q-open", errors.New("jira: 503")).Once()
	require.Error(t, cache.Refresh(ctx, false))
	assert.NotEmpty(t, cache.Status().Error)

	expectSearch(searcher, "q-open", []domain.Issue{issueWithID("1")}, 1)
	require.NoError(t, cache.Refresh(ctx, false))
	assert.Empty(t, cache.Status().Error)
}

func TestCache_BroadcastsOnCommitAndFailure(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	events := mocks.NewMockEventBroadcaster()
	queries := []services.QuerySpec{{Name: "open", JQL: "q-open", MaxResults: 100}}
	cache := services.NewCache("nova", queries, time.Minute, searcher, events, testLogger())

	expectSearch(searcher, "q-open", []domain.Issue{issueWithID("1")}, 1).Once()
	events.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
		return e.Type == domain.EventDashboardRefreshed && e.Dashboard == "nova" && e.Error == ""
	})).Return().Once()
	require.NoError(t, cache.Refresh(ctx, false))

	expectSearchError(searcher, "q-open", errors.New("jira: 502"))
	events.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
		return e.Type == domain.EventDashboardFailed && e.Error != ""
	})).Return().Once()
	require.Error(t, cache.Refresh(ctx, true))

	events.AssertExpectations(t)
}

func TestCache_AllIssuesDeduplicates(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, "q-open", []domain.Issue{issueWithID("1"), issueWithID("2")}, 2)
	expectSearch(searcher, "q-today", []domain.Issue{issueWithID("2"), issueWithID("3")}, 2)
	expectCount(searcher, "q-count", 50)

	queries := []services.QuerySpec{
		{Name: "open", JQL: "q-open", MaxResults: 100},
		{Name: "today", JQL: "q-today", MaxResults: 100},
		{Name: "openCount", JQL: "q-count", CountOnly: true},
	}
	cache := services.NewCache("nova", queries, time.Minute, searcher, nil, testLogger())
	require.NoError(t, cache.Refresh(ctx, false))

	all := cache.AllIssues()
	ids := make([]string, 0, len(all))
	for _, issue := range all {
		ids = append(ids, issue.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids, "first occurrence wins, count-only lists excluded")
}
