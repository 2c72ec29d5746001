package domain

// AssigneeStats is one per-assignee row of a dashboard analytics snapshot.
// Rows are keyed by Jira account ID; unassigned issues never produce a row.
type AssigneeStats struct {
	AssigneeID   string `json:"assigneeId"`
	DisplayName  string `json:"displayName"`
	OpenCount    int    `json:"openCount"`
	TodayCount   int    `json:"todayCount"`
	OverdueCount int    `json:"overdueCount"`
	BugCount     int    `json:"bugCount"`
	DoneCount    int    `json:"doneCount"`
	// AvgDaysToClose is the mean created-to-resolution time over this
	// assignee's done issues, rounded to one decimal. Nil when no done issue
	// has resolvable dates.
	AvgDaysToClose *float64 `json:"avgDaysToClose,omitempty"`
}

// Analytics is a derived snapshot over a dashboard's cached issue lists.
// It has no lifecycle of its own: it is recomputed from the current cache on
// every read and never persisted.
type Analytics struct {
	TotalOpen    int `json:"totalOpen"`
	TotalToday   int `json:"totalToday"`
	TotalOverdue int `json:"totalOverdue"`
	TotalDone    int `json:"totalDone"`
	// ByAssignee is ordered descending by open count; ties keep the order the
	// assignees were first seen in (query return order).
	ByAssignee []AssigneeStats `json:"byAssignee"`
	// Breakdown maps are nil, not empty, when there is nothing to show.
	// Consumers must branch on presence before rendering.
	ByProject   map[string]int `json:"byProject,omitempty"`
	ByType      map[string]int `json:"byType,omitempty"`
	ByComponent map[string]int `json:"byComponent,omitempty"`
}
