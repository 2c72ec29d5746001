package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/devcorner/tvdash/internal/core/domain"
	"github.com/devcorner/tvdash/internal/core/mocks"
	"github.com/devcorner/tvdash/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignedIssue(id, accountID, name string, done bool) domain.Issue {
	issue := domain.Issue{ID: id, Key: "NOVA-" + id}
	issue.Fields.Assignee = &domain.User{AccountID: accountID, DisplayName: name}
	if done {
		issue.Fields.Status = domain.IssueStatus{Name: "Done", Category: &domain.StatusCategory{Key: "done"}}
	} else {
		issue.Fields.Status = domain.IssueStatus{Name: "To Do", Category: &domain.StatusCategory{Key: "new"}}
	}
	return issue
}

func TestPartitionedDashboard_Analytics(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, services.NovaOpenJQL("NOVA"), []domain.Issue{
		assignedIssue("1", "a1", "Roy R", false),
		assignedIssue("2", "a1", "Roy R", false),
		assignedIssue("3", "a2", "James Cassidy", false),
	}, 3)
	expectSearch(searcher, services.NovaTodayJQL("NOVA"), []domain.Issue{
		assignedIssue("1", "a1", "Roy R", false),
	}, 1)
	expectSearch(searcher, services.NovaOverdueJQL("NOVA"), nil, 0)
	expectSearch(searcher, services.NovaDoneJQL("NOVA"), []domain.Issue{
		assignedIssue("10", "a2", "James Cassidy", true),
	}, 1)

	d := services.NewPartitionedDashboard("nova", "NOVA", 5*time.Minute, 100, searcher, nil, testLogger())
	require.NoError(t, d.Refresh(ctx, false))

	got, ok := d.Analytics().(domain.Analytics)
	require.True(t, ok)
	assert.Equal(t, 3, got.TotalOpen)
	assert.Equal(t, 1, got.TotalToday)
	assert.Equal(t, 0, got.TotalOverdue)
	assert.Equal(t, 1, got.TotalDone)

	require.Len(t, got.ByAssignee, 2)
	assert.Equal(t, "Roy R", got.ByAssignee[0].DisplayName)
	assert.Equal(t, 2, got.ByAssignee[0].OpenCount)
	assert.Equal(t, 1, got.ByAssignee[0].TodayCount)
}

func TestPartitionedDashboard_IssuesUnion(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, services.NovaOpenJQL("NOVA"), []domain.Issue{
		assignedIssue("1", "a1", "Roy R", false),
	}, 1)
	expectSearch(searcher, services.NovaTodayJQL("NOVA"), []domain.Issue{
		assignedIssue("1", "a1", "Roy R", false),
		assignedIssue("2", "a2", "James Cassidy", false),
	}, 2)
	expectSearch(searcher, services.NovaOverdueJQL("NOVA"), nil, 0)
	expectSearch(searcher, services.NovaDoneJQL("NOVA"), nil, 0)

	d := services.NewPartitionedDashboard("nova", "NOVA", 5*time.Minute, 100, searcher, nil, testLogger())
	require.NoError(t, d.Refresh(ctx, false))

	assert.Len(t, d.Issues(), 2)
}

func TestTeamDashboard_OpenCountOverride(t *testing.T) {
	ctx := context.Background()
	listJQL := services.TeamListJQL([]string{"OPRD", "CM", "NOVA"}, []string{"a1", "a2"})
	openJQL := services.TeamOpenJQL([]string{"OPRD", "CM", "NOVA"}, []string{"a1", "a2"})

	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, listJQL, []domain.Issue{
		assignedIssue("1", "a1", "Roy R", false),
		assignedIssue("2", "a2", "James Cassidy", false),
	}, 2)
	expectCount(searcher, openJQL, 57)

	d := services.NewTeamDashboard("trevor", listJQL, openJQL, []string{"a1", "a2"}, 30*time.Minute, 100, searcher, nil, testLogger())

	// Before the first refresh the local count stands.
	before, ok := d.Analytics().(domain.Analytics)
	require.True(t, ok)
	assert.Equal(t, 0, before.TotalOpen)

	require.NoError(t, d.Refresh(ctx, false))

	after, ok := d.Analytics().(domain.Analytics)
	require.True(t, ok)
	assert.Equal(t, 57, after.TotalOpen, "the Jira total overrides the local count")
	assert.Len(t, after.ByAssignee, 2)
}

func TestTeamDashboard_AccountFilter(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, "list-jql", []domain.Issue{
		assignedIssue("1", "a1", "Roy R", false),
		assignedIssue("2", "zz", "Someone Else", false),
	}, 2)
	expectCount(searcher, "open-jql", 10)

	d := services.NewTeamDashboard("trevor", "list-jql", "open-jql", []string{"a1"}, 30*time.Minute, 100, searcher, nil, testLogger())
	require.NoError(t, d.Refresh(ctx, false))

	issues := d.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "a1", issues[0].AssigneeKey())

	got, ok := d.Analytics().(domain.Analytics)
	require.True(t, ok)
	require.Len(t, got.ByAssignee, 1)
	assert.Equal(t, "Roy R", got.ByAssignee[0].DisplayName)
}

func TestTeamDashboard_NoFilterKeepsAll(t *testing.T) {
	ctx := context.Background()
	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, "list-jql", []domain.Issue{
		assignedIssue("1", "a1", "Roy R", false),
		assignedIssue("2", "zz", "Someone Else", false),
	}, 2)
	expectCount(searcher, "open-jql", 2)

	d := services.NewTeamDashboard("dev1", "list-jql", "open-jql", nil, 30*time.Minute, 100, searcher, nil, testLogger())
	require.NoError(t, d.Refresh(ctx, false))

	assert.Len(t, d.Issues(), 2)
}

func TestOperationalDashboard_Analytics(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	open := assignedIssue("1", "a1", "Roy R", false)
	open.Fields.Created = now.AddDate(0, 0, -3).Format("2006-01-02T15:04:05.000-0700")

	searcher := mocks.NewMockIssueSearcher()
	expectSearch(searcher, services.OperationalOpenJQL("NOVA"), []domain.Issue{open}, 1)
	expectSearch(searcher, services.OperationalOpenedTodayJQL("NOVA"), []domain.Issue{assignedIssue("2", "a1", "Roy R", false)}, 1)
	expectSearch(searcher, services.OperationalClosedTodayJQL("NOVA"), nil, 0)
	expectSearch(searcher, services.OperationalCreatedLast14JQL("NOVA"), nil, 0)
	expectSearch(searcher, services.OperationalResolvedLast14JQL("NOVA"), nil, 0)

	d := services.NewOperationalDashboard("operational", "NOVA", 30*time.Minute, 100, searcher, nil, testLogger())
	d.SetNow(func() time.Time { return now })
	require.NoError(t, d.Refresh(ctx, false))

	got, ok := d.Analytics().(domain.OperationalAnalytics)
	require.True(t, ok)
	assert.Equal(t, 1, got.Kpis.OpenCount)
	assert.Equal(t, 1, got.Kpis.OpenedToday)
	assert.Equal(t, 1, got.Kpis.NetChangeToday)
	assert.Equal(t, 3, got.Kpis.OldestAgeDays)
	assert.Len(t, got.FlowData, 14)
	assert.Len(t, got.BacklogByDueDate, 5)
}

func TestRegistry(t *testing.T) {
	searcher := mocks.NewMockIssueSearcher()
	nova := services.NewPartitionedDashboard("nova", "NOVA", 5*time.Minute, 100, searcher, nil, testLogger())
	ops := services.NewOperationalDashboard("operational", "NOVA", 30*time.Minute, 100, searcher, nil, testLogger())

	reg := services.NewRegistry(nova, ops)

	got, ok := reg.Get("nova")
	require.True(t, ok)
	assert.Equal(t, "nova", got.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "nova", all[0].Name())
	assert.Equal(t, "operational", all[1].Name())
}
