// Package analytics holds the pure aggregation functions that turn cached
// Jira issue lists into dashboard snapshots. Builders never mutate their
// inputs and never touch the wall clock themselves; callers pass now in so
// the same input always yields the same output.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/devcorner/tvdash/internal/core/domain"
)

// QueryPartitions is the input of the multi-query aggregator: four lists
// already partitioned by the caller's JQL queries. The lists may overlap in
// membership; today and overdue act purely as id-membership sets that flag
// rows found in the open list.
type QueryPartitions struct {
	Open    []domain.Issue
	Today   []domain.Issue
	Overdue []domain.Issue
	Done    []domain.Issue
}

// IssueListInput is the input of the single-list aggregator.
type IssueListInput struct {
	Issues []domain.Issue
	// FilterAccountIDs, when non-nil, restricts the computation to issues
	// assigned to these account IDs.
	FilterAccountIDs map[string]struct{}
	// OpenCountOverride, when non-nil, replaces the locally counted open
	// total. It comes from a separate count-only query and is taken as
	// authoritative without reconciliation: the fetched page may be capped
	// below the true total.
	OpenCountOverride *int
}

// BuildFromQueryPartitions aggregates four pre-partitioned issue lists into
// an Analytics snapshot. Unassigned issues are excluded everywhere, including
// the global totals, which count assigned issues per partition rather than
// summing per-assignee rows.
func BuildFromQueryPartitions(in QueryPartitions) domain.Analytics {
	assignedOpen := filterAssigned(in.Open)
	assignedToday := filterAssigned(in.Today)
	assignedOverdue := filterAssigned(in.Overdue)
	assignedDone := filterAssigned(in.Done)

	todayIDs := idSet(assignedToday)
	overdueIDs := idSet(assignedOverdue)
	doneSeed := doneCountsByAssignee(assignedDone)

	acc := newAccumulator(doneSeed)
	tl := newTallies()

	for _, issue := range assignedOpen {
		row := acc.row(issue.AssigneeKey(), issue.AssigneeName())
		row.OpenCount++
		if todayIDs[issue.ID] {
			row.TodayCount++
		}
		if overdueIDs[issue.ID] {
			row.OverdueCount++
		}
		if issue.IsBug() {
			row.BugCount++
		}
		tl.add(issue)
	}

	acc.absorbDone(assignedDone)

	return domain.Analytics{
		TotalOpen:    len(assignedOpen),
		TotalToday:   len(assignedToday),
		TotalOverdue: len(assignedOverdue),
		TotalDone:    len(assignedDone),
		ByAssignee:   acc.sorted(),
		ByProject:    nilIfEmpty(tl.byProject),
		ByType:       nilIfEmpty(tl.byType),
		ByComponent:  nilIfEmpty(tl.byComponent),
	}
}

// BuildFromIssueList classifies one combined issue list client-side into
// open/done/today/overdue and aggregates it the same way as the multi-query
// variant. now is the instant the today/overdue predicates are evaluated
// against.
func BuildFromIssueList(in IssueListInput, now time.Time) domain.Analytics {
	filtered := in.Issues
	if in.FilterAccountIDs != nil {
		filtered = make([]domain.Issue, 0, len(in.Issues))
		for _, issue := range in.Issues {
			if issue.Fields.Assignee == nil {
				continue
			}
			if _, ok := in.FilterAccountIDs[issue.Fields.Assignee.AccountID]; ok {
				filtered = append(filtered, issue)
			}
		}
	}

	assigned := filterAssigned(filtered)

	var open, done, today, overdue []domain.Issue
	for _, issue := range assigned {
		if issue.IsDone() {
			done = append(done, issue)
		} else {
			open = append(open, issue)
		}
		if issue.IsUpdatedToday(now) {
			today = append(today, issue)
		}
		if issue.IsOverdue(now) {
			overdue = append(overdue, issue)
		}
	}

	doneSeed := doneCountsByAssignee(done)
	acc := newAccumulator(doneSeed)
	tl := newTallies()

	for _, issue := range open {
		row := acc.row(issue.AssigneeKey(), issue.AssigneeName())
		row.OpenCount++
		if issue.IsUpdatedToday(now) {
			row.TodayCount++
		}
		if issue.IsOverdue(now) {
			row.OverdueCount++
		}
		if issue.IsBug() {
			row.BugCount++
		}
		tl.add(issue)
	}

	acc.absorbDone(done)

	totalOpen := len(open)
	if in.OpenCountOverride != nil {
		totalOpen = *in.OpenCountOverride
	}

	return domain.Analytics{
		TotalOpen:    totalOpen,
		TotalToday:   len(today),
		TotalOverdue: len(overdue),
		TotalDone:    len(done),
		ByAssignee:   acc.sorted(),
		ByProject:    nilIfEmpty(tl.byProject),
		ByType:       nilIfEmpty(tl.byType),
		ByComponent:  nilIfEmpty(tl.byComponent),
	}
}

// accumulator upserts per-assignee rows while remembering the order in which
// assignees were first seen, so that equal open counts sort in query return
// order.
type accumulator struct {
	order    []string
	rows     map[string]*domain.AssigneeStats
	doneSeed map[string]int
}

func newAccumulator(doneSeed map[string]int) *accumulator {
	return &accumulator{
		rows:     make(map[string]*domain.AssigneeStats),
		doneSeed: doneSeed,
	}
}

func (a *accumulator) row(id, name string) *domain.AssigneeStats {
	if r, ok := a.rows[id]; ok {
		return r
	}
	r := &domain.AssigneeStats{
		AssigneeID:  id,
		DisplayName: name,
		DoneCount:   a.doneSeed[id],
	}
	a.rows[id] = r
	a.order = append(a.order, id)
	return r
}

// absorbDone guarantees a row for every assignee that appears in the done
// list (zero-initialized except for the done count) and stores the average
// days-to-close, rounded to one decimal, for assignees with at least one
// done issue with resolvable dates. Unknown durations are skipped, never
// averaged in as zero.
func (a *accumulator) absorbDone(done []domain.Issue) {
	type closeStats struct {
		sum float64
		n   int
	}
	byAssignee := make(map[string]*closeStats)

	for _, issue := range done {
		a.row(issue.AssigneeKey(), issue.AssigneeName())
		days, ok := issue.DaysToClose()
		if !ok {
			continue
		}
		cs := byAssignee[issue.AssigneeKey()]
		if cs == nil {
			cs = &closeStats{}
			byAssignee[issue.AssigneeKey()] = cs
		}
		cs.sum += float64(days)
		cs.n++
	}

	for id, cs := range byAssignee {
		avg := round1(cs.sum / float64(cs.n))
		a.rows[id].AvgDaysToClose = &avg
	}
}

func (a *accumulator) sorted() []domain.AssigneeStats {
	out := make([]domain.AssigneeStats, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.rows[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenCount > out[j].OpenCount
	})
	return out
}

// tallies accumulates the optional keyed breakdowns. Components fan out: an
// issue with N components increments N buckets.
type tallies struct {
	byProject   map[string]int
	byType      map[string]int
	byComponent map[string]int
}

func newTallies() *tallies {
	return &tallies{
		byProject:   make(map[string]int),
		byType:      make(map[string]int),
		byComponent: make(map[string]int),
	}
}

func (t *tallies) add(issue domain.Issue) {
	t.byProject[issue.ProjectKey()]++
	t.byType[issue.TypeName()]++
	for _, name := range issue.ComponentNames() {
		t.byComponent[name]++
	}
}

func filterAssigned(issues []domain.Issue) []domain.Issue {
	out := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsAssigned() {
			out = append(out, issue)
		}
	}
	return out
}

func idSet(issues []domain.Issue) map[string]bool {
	set := make(map[string]bool, len(issues))
	for _, issue := range issues {
		set[issue.ID] = true
	}
	return set
}

func doneCountsByAssignee(done []domain.Issue) map[string]int {
	counts := make(map[string]int)
	for _, issue := range done {
		counts[issue.AssigneeKey()]++
	}
	return counts
}

func nilIfEmpty(m map[string]int) map[string]int {
	if len(m) == 0 {
		return nil
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
