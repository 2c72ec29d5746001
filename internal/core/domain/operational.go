package domain

// Kpis are the headline numbers of the operational dashboard.
type Kpis struct {
	OpenCount      int     `json:"openCount"`
	OpenedToday    int     `json:"openedToday"`
	ClosedToday    int     `json:"closedToday"`
	NetChangeToday int     `json:"netChangeToday"`
	AvgAgeDays     float64 `json:"avgAgeDays"`
	OldestAgeDays  int     `json:"oldestAgeDays"`
}

// FlowDay is one point of the 14-day created/resolved flow series.
type FlowDay struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Opened int    `json:"opened"`
	Closed int    `json:"closed"`
}

// BacklogByComponentItem counts open issues per component. HasAging is set
// when any issue in the group is older than the aging threshold.
type BacklogByComponentItem struct {
	Component string `json:"component"`
	OpenCount int    `json:"openCount"`
	HasAging  bool   `json:"hasAging"`
}

// BacklogByAssigneeItem counts open issues per assignee display name.
type BacklogByAssigneeItem struct {
	AssigneeName string `json:"assigneeName"`
	OpenCount    int    `json:"openCount"`
}

// BacklogByDueDateItem is one of the five fixed due-date buckets.
type BacklogByDueDateItem struct {
	Label     string `json:"label"`
	OpenCount int    `json:"openCount"`
}

// DevLoadMatrixCell is one cell of the assignee x component load heatmap.
// The matrix is rectangular: every assignee/component pair is present, zero
// counts included.
type DevLoadMatrixCell struct {
	AssigneeID   string `json:"assigneeId"`
	AssigneeName string `json:"assigneeName"`
	Component    string `json:"component"`
	Count        int    `json:"count"`
}

// AgingBucket counts open issues whose age falls in [MinDays, MaxDays].
type AgingBucket struct {
	Label   string `json:"label"`
	MinDays int    `json:"minDays"`
	MaxDays int    `json:"maxDays"`
	Count   int    `json:"count"`
}

// OldestTicketRow is a display projection of one of the oldest open issues.
type OldestTicketRow struct {
	Key       string `json:"key"`
	Summary   string `json:"summary"`
	Assignee  string `json:"assignee"`
	Component string `json:"component"`
	AgeDays   int    `json:"ageDays"`
	Status    string `json:"status"`
}

// OperationalAnalytics is the full snapshot for the operational TV screen.
// Like Analytics it is a pure derived value, recomputed on every read.
type OperationalAnalytics struct {
	Kpis               Kpis                     `json:"kpis"`
	FlowData           []FlowDay                `json:"flowData"` // always exactly 14 entries
	BacklogByComponent []BacklogByComponentItem `json:"backlogByComponent"`
	BacklogByAssignee  []BacklogByAssigneeItem  `json:"backlogByAssignee"`
	BacklogByDueDate   []BacklogByDueDateItem   `json:"backlogByDueDate"` // always the 5 fixed buckets
	DevLoadMatrix      []DevLoadMatrixCell      `json:"devLoadMatrix"`
	Assignees          []string                 `json:"assignees"`
	Components         []string                 `json:"components"`
	AgingBuckets       []AgingBucket            `json:"agingBuckets"`
	Oldest10           []OldestTicketRow        `json:"oldest10"`
}
