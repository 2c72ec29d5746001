package domain

import (
	"math"
	"strings"
	"time"
)

// StatusCategoryDone is the Jira status category key that marks an issue as
// resolved. Classification relies on this key, never on display status names.
const StatusCategoryDone = "done"

// Fallback labels for issues with missing optional fields.
const (
	UnassignedKey     = "unassigned"
	UnassignedName    = "Unassigned"
	UnknownProjectKey = "unknown"
	UnknownTypeName   = "Unknown"
	NoComponentName   = "No component"
)

// Jira timestamp layouts. Search responses carry datetimes with millisecond
// precision and a numeric zone offset; due dates are bare dates.
const (
	jiraDateTimeLayout = "2006-01-02T15:04:05.000-0700"
	jiraDateLayout     = "2006-01-02"
)

// StatusCategory is Jira's coarse status grouping (new / indeterminate / done).
type StatusCategory struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// IssueStatus is the workflow status of an issue.
type IssueStatus struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Category *StatusCategory `json:"statusCategory,omitempty"`
}

// Project identifies the Jira project an issue belongs to.
type Project struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// User is a Jira account reference.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// IssueType is the kind of work item (Bug, Story, Task, ...).
type IssueType struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Priority is the issue priority.
type Priority struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Component is a Jira component tag (e.g. Backend, Frontend).
type Component struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// IssueFields holds the subset of Jira issue fields the dashboards use.
// Everything beyond summary/status/created/updated is optional on the wire
// and must be accessed through the defensive helpers on Issue.
type IssueFields struct {
	Summary        string      `json:"summary"`
	Status         IssueStatus `json:"status"`
	Project        Project     `json:"project"`
	Assignee       *User       `json:"assignee"`
	Created        string      `json:"created"`
	Updated        string      `json:"updated"`
	IssueType      IssueType   `json:"issuetype"`
	Priority       *Priority   `json:"priority,omitempty"`
	DueDate        string      `json:"duedate,omitempty"`
	ResolutionDate string      `json:"resolutiondate,omitempty"`
	Components     []Component `json:"components,omitempty"`
}

// Issue is one tracked work item as returned by Jira search.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self,omitempty"`
	Fields IssueFields `json:"fields"`
}

// AssigneeKey returns the assignee account ID, or a stable placeholder for
// unassigned issues.
func (i Issue) AssigneeKey() string {
	if i.Fields.Assignee == nil || i.Fields.Assignee.AccountID == "" {
		return UnassignedKey
	}
	return i.Fields.Assignee.AccountID
}

// AssigneeName returns the assignee display name, or "Unassigned".
func (i Issue) AssigneeName() string {
	if i.Fields.Assignee == nil || i.Fields.Assignee.DisplayName == "" {
		return UnassignedName
	}
	return i.Fields.Assignee.DisplayName
}

// ProjectKey returns the project key, or "unknown" when absent.
func (i Issue) ProjectKey() string {
	if i.Fields.Project.Key == "" {
		return UnknownProjectKey
	}
	return i.Fields.Project.Key
}

// TypeName returns the issue type name, or "Unknown" when absent.
func (i Issue) TypeName() string {
	if i.Fields.IssueType.Name == "" {
		return UnknownTypeName
	}
	return i.Fields.IssueType.Name
}

// ComponentNames returns the issue's component names. Nameless components
// are dropped; an issue left with none reports the synthetic "No component"
// so every issue lands in at least one component bucket.
func (i Issue) ComponentNames() []string {
	names := make([]string, 0, len(i.Fields.Components))
	for _, c := range i.Fields.Components {
		if c.Name == "" {
			continue
		}
		names = append(names, c.Name)
	}
	if len(names) == 0 {
		return []string{NoComponentName}
	}
	return names
}

// IsAssigned reports whether the issue has an assignee.
func (i Issue) IsAssigned() bool {
	return i.Fields.Assignee != nil
}

// IsDone reports whether the issue's status category is "done". This is the
// single source of truth for the open/done split.
func (i Issue) IsDone() bool {
	return i.Fields.Status.Category != nil && i.Fields.Status.Category.Key == StatusCategoryDone
}

// IsBug reports whether the issue type is "Bug", case-insensitively.
func (i Issue) IsBug() bool {
	return strings.EqualFold(i.Fields.IssueType.Name, "bug")
}

// IsUpdatedToday reports whether the issue's updated timestamp falls on the
// same calendar day as now, comparing the date portions of the ISO strings
// with now normalized to UTC.
func (i Issue) IsUpdatedToday(now time.Time) bool {
	if len(i.Fields.Updated) < len(jiraDateLayout) {
		return false
	}
	return i.Fields.Updated[:len(jiraDateLayout)] == now.UTC().Format(jiraDateLayout)
}

// IsOverdue reports whether the issue has a due date strictly before now and
// is not yet done. Done issues are never overdue regardless of due date.
func (i Issue) IsOverdue(now time.Time) bool {
	if i.IsDone() {
		return false
	}
	due, ok := i.DueDateTime()
	if !ok {
		return false
	}
	return due.Before(now)
}

// DueDateTime parses the due date as a bare date (midnight UTC). The second
// return value is false when the due date is missing or unparsable.
func (i Issue) DueDateTime() (time.Time, bool) {
	if i.Fields.DueDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(jiraDateLayout, i.Fields.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysToClose returns the rounded number of days from created to resolution.
// When resolutiondate is absent the updated timestamp stands in for it. The
// second return value is false when either endpoint is missing or unparsable;
// unknown durations are excluded from averages, never coerced to zero.
func (i Issue) DaysToClose() (int, bool) {
	created, ok := parseJiraTime(i.Fields.Created)
	if !ok {
		return 0, false
	}
	resolvedRaw := i.Fields.ResolutionDate
	if resolvedRaw == "" {
		resolvedRaw = i.Fields.Updated
	}
	resolved, ok := parseJiraTime(resolvedRaw)
	if !ok {
		return 0, false
	}
	return int(math.Round(resolved.Sub(created).Hours() / 24)), true
}

// AgeDays returns the issue age in whole days since creation, rounded down.
// The second return value is false when created is missing or unparsable.
// Negative ages (clock skew, bad data) are returned as-is; aggregates filter
// them out rather than clamping to zero.
func (i Issue) AgeDays(now time.Time) (int, bool) {
	created, ok := parseJiraTime(i.Fields.Created)
	if !ok {
		return 0, false
	}
	return int(math.Floor(now.Sub(created).Hours() / 24)), true
}

// CreatedDay returns the YYYY-MM-DD portion of the created timestamp, or ""
// when absent.
func (i Issue) CreatedDay() string {
	return isoDay(i.Fields.Created)
}

// ResolvedDay returns the YYYY-MM-DD portion of the resolution timestamp, or
// "" when the issue is unresolved.
func (i Issue) ResolvedDay() string {
	return isoDay(i.Fields.ResolutionDate)
}

func isoDay(ts string) string {
	if len(ts) < len(jiraDateLayout) {
		return ""
	}
	return ts[:len(jiraDateLayout)]
}

// parseJiraTime accepts Jira's millisecond-offset layout, RFC3339, and bare
// dates.
func parseJiraTime(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{jiraDateTimeLayout, time.RFC3339, jiraDateLayout} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
