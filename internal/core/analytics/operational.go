package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/devcorner/tvdash/internal/core/domain"
)

const (
	// AgingThresholdDays marks a backlog component group as aging when any
	// of its issues is older than this.
	AgingThresholdDays = 7
	// FlowWindowDays is the length of the created/resolved flow series.
	FlowWindowDays = 14
	// OldestRankSize caps the oldest-ticket ranking.
	OldestRankSize = 10
)

const dayLayout = "2006-01-02"

// Due-date bucket labels, in emission order.
const (
	DueOverdue  = "Overdue"
	DueThisWeek = "This week"
	DueNextWeek = "Next week"
	DueLater    = "Later"
	DueNoDate   = "No date"
)

var agingBucketDefs = []domain.AgingBucket{
	{Label: "0-1d", MinDays: 0, MaxDays: 1},
	{Label: "2-3d", MinDays: 2, MaxDays: 3},
	{Label: "4-7d", MinDays: 4, MaxDays: 7},
	{Label: "8-14d", MinDays: 8, MaxDays: 14},
	{Label: "15+d", MinDays: 15, MaxDays: 9999},
}

// OperationalInput is the input of the operational aggregator: five lists
// fetched by separate queries. CreatedLast14 and ResolvedLast14 feed only the
// flow series and are independent of the partitions used for the KPIs.
type OperationalInput struct {
	Open           []domain.Issue
	OpenedToday    []domain.Issue
	ClosedToday    []domain.Issue
	CreatedLast14  []domain.Issue
	ResolvedLast14 []domain.Issue
}

// BuildOperational derives the operational dashboard snapshot. now anchors
// every date computation: issue ages, the 14-day flow window, and the
// due-date week buckets.
func BuildOperational(in OperationalInput, now time.Time) domain.OperationalAnalytics {
	open := make([]domain.Issue, 0, len(in.Open))
	for _, issue := range in.Open {
		if !issue.IsDone() {
			open = append(open, issue)
		}
	}

	return domain.OperationalAnalytics{
		Kpis:               buildKpis(open, len(in.OpenedToday), len(in.ClosedToday), now),
		FlowData:           buildFlowSeries(in.CreatedLast14, in.ResolvedLast14, now),
		BacklogByComponent: buildBacklogByComponent(open, now),
		BacklogByAssignee:  buildBacklogByAssignee(open),
		BacklogByDueDate:   buildBacklogByDueDate(open, now),
		DevLoadMatrix:      buildDevLoadMatrix(open, now),
		Assignees:          distinctAssignees(open),
		Components:         distinctComponents(open),
		AgingBuckets:       buildAgingBuckets(open, now),
		Oldest10:           buildOldestRows(open, now),
	}
}

func buildKpis(open []domain.Issue, openedToday, closedToday int, now time.Time) domain.Kpis {
	ages := knownAges(open, now)

	var avg float64
	oldest := 0
	if len(ages) > 0 {
		sum := 0
		for _, a := range ages {
			sum += a
			if a > oldest {
				oldest = a
			}
		}
		avg = round1(float64(sum) / float64(len(ages)))
	}

	return domain.Kpis{
		OpenCount:      len(open),
		OpenedToday:    openedToday,
		ClosedToday:    closedToday,
		NetChangeToday: openedToday - closedToday,
		AvgAgeDays:     avg,
		OldestAgeDays:  oldest,
	}
}

// buildFlowSeries emits one point per calendar day for the trailing
// FlowWindowDays days including today. Days are pre-seeded with zero before
// counting, so the series always has exactly FlowWindowDays contiguous
// entries no matter how sparse the input lists are.
func buildFlowSeries(created, resolved []domain.Issue, now time.Time) []domain.FlowDay {
	days := make([]string, FlowWindowDays)
	opened := make(map[string]int, FlowWindowDays)
	closed := make(map[string]int, FlowWindowDays)
	for i := 0; i < FlowWindowDays; i++ {
		day := now.UTC().AddDate(0, 0, -(FlowWindowDays - 1 - i)).Format(dayLayout)
		days[i] = day
		opened[day] = 0
		closed[day] = 0
	}

	for _, issue := range created {
		if day := issue.CreatedDay(); day != "" {
			if _, ok := opened[day]; ok {
				opened[day]++
			}
		}
	}
	for _, issue := range resolved {
		if day := issue.ResolvedDay(); day != "" {
			if _, ok := closed[day]; ok {
				closed[day]++
			}
		}
	}

	series := make([]domain.FlowDay, 0, FlowWindowDays)
	for _, day := range days {
		series = append(series, domain.FlowDay{Date: day, Opened: opened[day], Closed: closed[day]})
	}
	return series
}

func buildBacklogByComponent(open []domain.Issue, now time.Time) []domain.BacklogByComponentItem {
	var order []string
	groups := make(map[string]*domain.BacklogByComponentItem)

	for _, issue := range open {
		age, _ := issue.AgeDays(now)
		for _, name := range issue.ComponentNames() {
			item, ok := groups[name]
			if !ok {
				item = &domain.BacklogByComponentItem{Component: name}
				groups[name] = item
				order = append(order, name)
			}
			item.OpenCount++
			if age > AgingThresholdDays {
				item.HasAging = true
			}
		}
	}

	out := make([]domain.BacklogByComponentItem, 0, len(order))
	for _, name := range order {
		out = append(out, *groups[name])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenCount > out[j].OpenCount })
	return out
}

// buildBacklogByAssignee groups by display name rather than account ID: the
// display name is the join key this widget renders with.
func buildBacklogByAssignee(open []domain.Issue) []domain.BacklogByAssigneeItem {
	var order []string
	counts := make(map[string]int)

	for _, issue := range open {
		name := issue.AssigneeName()
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name]++
	}

	out := make([]domain.BacklogByAssigneeItem, 0, len(order))
	for _, name := range order {
		out = append(out, domain.BacklogByAssigneeItem{AssigneeName: name, OpenCount: counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenCount > out[j].OpenCount })
	return out
}

// buildBacklogByDueDate classifies each open issue's due date into exactly
// one of five fixed buckets relative to the start of the current week. The
// week boundary is the upcoming Sunday: today + (7 - weekday), with Sunday
// itself counting as weekday 0. All five buckets are always emitted, zero
// counts included.
func buildBacklogByDueDate(open []domain.Issue, now time.Time) []domain.BacklogByDueDateItem {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfWeek := today.AddDate(0, 0, 7-int(today.Weekday()))
	endOfNextWeek := endOfWeek.AddDate(0, 0, 7)

	counts := map[string]int{
		DueOverdue: 0, DueThisWeek: 0, DueNextWeek: 0, DueLater: 0, DueNoDate: 0,
	}

	for _, issue := range open {
		due, ok := issue.DueDateTime()
		if !ok {
			counts[DueNoDate]++
			continue
		}
		// Normalize to local midnight of the due date's own calendar day.
		d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, now.Location())
		switch {
		case d.Before(today):
			counts[DueOverdue]++
		case !d.After(endOfWeek):
			counts[DueThisWeek]++
		case !d.After(endOfNextWeek):
			counts[DueNextWeek]++
		default:
			counts[DueLater]++
		}
	}

	return []domain.BacklogByDueDateItem{
		{Label: DueOverdue, OpenCount: counts[DueOverdue]},
		{Label: DueThisWeek, OpenCount: counts[DueThisWeek]},
		{Label: DueNextWeek, OpenCount: counts[DueNextWeek]},
		{Label: DueLater, OpenCount: counts[DueLater]},
		{Label: DueNoDate, OpenCount: counts[DueNoDate]},
	}
}

// buildDevLoadMatrix emits the full cross product of distinct assignees and
// distinct components, zero cells included, so the heatmap is always
// rectangular.
func buildDevLoadMatrix(open []domain.Issue, now time.Time) []domain.DevLoadMatrixCell {
	assignees := distinctAssignees(open)
	components := distinctComponents(open)

	counts := make(map[string]int)
	names := make(map[string]string)
	for _, issue := range open {
		id := issue.AssigneeKey()
		// Latest occurrence wins, so a renamed account shows its current name.
		names[id] = issue.AssigneeName()
		for _, comp := range issue.ComponentNames() {
			counts[id+"|"+comp]++
		}
	}

	matrix := make([]domain.DevLoadMatrixCell, 0, len(assignees)*len(components))
	for _, id := range assignees {
		for _, comp := range components {
			matrix = append(matrix, domain.DevLoadMatrixCell{
				AssigneeID:   id,
				AssigneeName: names[id],
				Component:    comp,
				Count:        counts[id+"|"+comp],
			})
		}
	}
	return matrix
}

func buildAgingBuckets(open []domain.Issue, now time.Time) []domain.AgingBucket {
	ages := knownAges(open, now)

	buckets := make([]domain.AgingBucket, len(agingBucketDefs))
	copy(buckets, agingBucketDefs)
	for i := range buckets {
		for _, age := range ages {
			if age >= buckets[i].MinDays && age <= buckets[i].MaxDays {
				buckets[i].Count++
			}
		}
	}
	return buckets
}

func buildOldestRows(open []domain.Issue, now time.Time) []domain.OldestTicketRow {
	sorted := make([]domain.Issue, len(open))
	copy(sorted, open)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, _ := sorted[i].AgeDays(now)
		aj, _ := sorted[j].AgeDays(now)
		return ai > aj
	})

	if len(sorted) > OldestRankSize {
		sorted = sorted[:OldestRankSize]
	}

	rows := make([]domain.OldestTicketRow, 0, len(sorted))
	for _, issue := range sorted {
		age, _ := issue.AgeDays(now)
		rows = append(rows, domain.OldestTicketRow{
			Key:       issue.Key,
			Summary:   issue.Fields.Summary,
			Assignee:  issue.AssigneeName(),
			Component: strings.Join(issue.ComponentNames(), ", "),
			AgeDays:   age,
			Status:    issue.Fields.Status.Name,
		})
	}
	return rows
}

// knownAges returns the ages of open issues with a parsable created date,
// excluding negative ages from clock skew or bad data.
func knownAges(open []domain.Issue, now time.Time) []int {
	ages := make([]int, 0, len(open))
	for _, issue := range open {
		age, ok := issue.AgeDays(now)
		if ok && age >= 0 {
			ages = append(ages, age)
		}
	}
	return ages
}

func distinctAssignees(open []domain.Issue) []string {
	var order []string
	seen := make(map[string]bool)
	for _, issue := range open {
		id := issue.AssigneeKey()
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	return order
}

func distinctComponents(open []domain.Issue) []string {
	var names []string
	seen := make(map[string]bool)
	for _, issue := range open {
		for _, comp := range issue.ComponentNames() {
			if !seen[comp] {
				seen[comp] = true
				names = append(names, comp)
			}
		}
	}
	sort.Strings(names)
	return names
}
