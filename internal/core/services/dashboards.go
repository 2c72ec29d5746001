package services

import (
	"log/slog"
	"time"

	"github.com/devcorner/tvdash/internal/core/analytics"
	"github.com/devcorner/tvdash/internal/core/domain"
	"github.com/devcorner/tvdash/internal/core/ports"
)

// Query names within a dashboard's query set.
const (
	queryOpen           = "open"
	queryToday          = "today"
	queryOverdue        = "overdue"
	queryDone           = "done"
	queryIssues         = "issues"
	queryOpenCount      = "openCount"
	queryOpenedToday    = "openedToday"
	queryClosedToday    = "closedToday"
	queryCreatedLast14  = "createdLast14"
	queryResolvedLast14 = "resolvedLast14"
)

// PartitionedDashboard serves a project board from four pre-partitioned
// queries. The overdue and done queries are optional: boards without due
// dates or resolutions still render.
type PartitionedDashboard struct {
	*Cache
}

var _ ports.Dashboard = (*PartitionedDashboard)(nil)

// NewPartitionedDashboard creates the dashboard and its query set for the
// given project.
func NewPartitionedDashboard(name, project string, ttl time.Duration, maxResults int, searcher ports.IssueSearcher, events ports.EventBroadcaster, logger *slog.Logger) *PartitionedDashboard {
	queries := []QuerySpec{
		{Name: queryOpen, JQL: NovaOpenJQL(project), MaxResults: maxResults},
		{Name: queryToday, JQL: NovaTodayJQL(project), MaxResults: maxResults},
		{Name: queryOverdue, JQL: NovaOverdueJQL(project), MaxResults: maxResults, Optional: true},
		{Name: queryDone, JQL: NovaDoneJQL(project), MaxResults: maxResults, Optional: true},
	}
	return &PartitionedDashboard{
		Cache: NewCache(name, queries, ttl, searcher, events, logger),
	}
}

// Analytics derives the per-assignee snapshot from the cached partitions.
func (d *PartitionedDashboard) Analytics() interface{} {
	return analytics.BuildFromQueryPartitions(analytics.QueryPartitions{
		Open:    d.List(queryOpen),
		Today:   d.List(queryToday),
		Overdue: d.List(queryOverdue),
		Done:    d.List(queryDone),
	})
}

// Issues returns the deduplicated union of all partitions.
func (d *PartitionedDashboard) Issues() []domain.Issue {
	return d.AllIssues()
}

// TeamDashboard serves a board from a single issue list plus a count-only
// open query whose Jira total overrides the locally counted open issues.
// An optional account-ID filter confines the analytics to team members when
// the list query matches a wider set.
type TeamDashboard struct {
	*Cache
	filterIDs map[string]struct{}
}

var _ ports.Dashboard = (*TeamDashboard)(nil)

// NewTeamDashboard creates a single-list dashboard. filterAccountIDs may be
// empty; openJQL is fetched count-only.
func NewTeamDashboard(name, listJQL, openJQL string, filterAccountIDs []string, ttl time.Duration, maxResults int, searcher ports.IssueSearcher, events ports.EventBroadcaster, logger *slog.Logger) *TeamDashboard {
	queries := []QuerySpec{
		{Name: queryIssues, JQL: listJQL, MaxResults: maxResults},
		{Name: queryOpenCount, JQL: openJQL, CountOnly: true},
	}
	var filter map[string]struct{}
	if len(filterAccountIDs) > 0 {
		filter = make(map[string]struct{}, len(filterAccountIDs))
		for _, id := range filterAccountIDs {
			filter[id] = struct{}{}
		}
	}
	return &TeamDashboard{
		Cache:     NewCache(name, queries, ttl, searcher, events, logger),
		filterIDs: filter,
	}
}

// Analytics derives the snapshot from the cached list. The open-count
// override is applied only once a refresh has succeeded; before that the
// locally counted open issues stand.
func (d *TeamDashboard) Analytics() interface{} {
	in := analytics.IssueListInput{
		Issues:           d.List(queryIssues),
		FilterAccountIDs: d.filterIDs,
	}
	if d.HasData() {
		total := d.Total(queryOpenCount)
		in.OpenCountOverride = &total
	}
	return analytics.BuildFromIssueList(in, d.nowFn())
}

// Issues returns the cached list, confined to the account filter when one
// is set.
func (d *TeamDashboard) Issues() []domain.Issue {
	all := d.List(queryIssues)
	if d.filterIDs == nil {
		return all
	}
	out := make([]domain.Issue, 0, len(all))
	for _, issue := range all {
		if _, ok := d.filterIDs[issue.AssigneeKey()]; ok {
			out = append(out, issue)
		}
	}
	return out
}

// OperationalDashboard serves the ops TV screen from five required queries.
type OperationalDashboard struct {
	*Cache
}

var _ ports.Dashboard = (*OperationalDashboard)(nil)

// NewOperationalDashboard creates the dashboard and its query set for the
// given project.
func NewOperationalDashboard(name, project string, ttl time.Duration, maxResults int, searcher ports.IssueSearcher, events ports.EventBroadcaster, logger *slog.Logger) *OperationalDashboard {
	queries := []QuerySpec{
		{Name: queryOpen, JQL: OperationalOpenJQL(project), MaxResults: maxResults},
		{Name: queryOpenedToday, JQL: OperationalOpenedTodayJQL(project), MaxResults: maxResults},
		{Name: queryClosedToday, JQL: OperationalClosedTodayJQL(project), MaxResults: maxResults},
		{Name: queryCreatedLast14, JQL: OperationalCreatedLast14JQL(project), MaxResults: maxResults},
		{Name: queryResolvedLast14, JQL: OperationalResolvedLast14JQL(project), MaxResults: maxResults},
	}
	return &OperationalDashboard{
		Cache: NewCache(name, queries, ttl, searcher, events, logger),
	}
}

// Analytics recomputes the operational snapshot from the cached lists.
func (d *OperationalDashboard) Analytics() interface{} {
	return analytics.BuildOperational(analytics.OperationalInput{
		Open:           d.List(queryOpen),
		OpenedToday:    d.List(queryOpenedToday),
		ClosedToday:    d.List(queryClosedToday),
		CreatedLast14:  d.List(queryCreatedLast14),
		ResolvedLast14: d.List(queryResolvedLast14),
	}, d.nowFn())
}

// Issues returns the deduplicated union of all five lists.
func (d *OperationalDashboard) Issues() []domain.Issue {
	return d.AllIssues()
}
