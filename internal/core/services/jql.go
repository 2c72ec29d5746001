package services

import (
	"fmt"
	"strings"
)

// JQL builders for the configured dashboards. The query shapes mirror the
// saved board filters the TV screens were built around.

// NovaTodayJQL matches issues touched since the start of today.
func NovaTodayJQL(project string) string {
	return fmt.Sprintf("project = %s AND updated >= startOfDay(-0) order by updated DESC", project)
}

// NovaOpenJQL matches all issues not in the Done status category.
func NovaOpenJQL(project string) string {
	return fmt.Sprintf("project = %s AND statusCategory != Done order by updated DESC", project)
}

// NovaOverdueJQL matches open issues whose due date has passed.
func NovaOverdueJQL(project string) string {
	return fmt.Sprintf("project = %s AND duedate < now() AND statusCategory != Done order by duedate ASC", project)
}

// NovaDoneJQL matches issues resolved in the trailing two weeks, the window
// the days-to-close average is computed over.
func NovaDoneJQL(project string) string {
	return fmt.Sprintf("project = %s AND statusCategory = Done AND resolutiondate >= startOfDay(-14) order by resolutiondate DESC", project)
}

// teamBaseJQL confines the team board to its projects and members, the last
// six months, and real work items. Epics and sub-tasks would double-count
// their children.
func teamBaseJQL(projects, accountIDs []string) string {
	return fmt.Sprintf(
		`project IN (%s) AND assignee IN (%s) AND createdDate >= startOfMonth(-6) AND issuetype NOT IN ("case phase", "Epic", "Sub-task")`,
		strings.Join(projects, ", "), strings.Join(accountIDs, ", "))
}

// TeamListJQL is the full team list for charts.
func TeamListJQL(projects, accountIDs []string) string {
	return teamBaseJQL(projects, accountIDs) + " ORDER BY created DESC"
}

// TeamOpenJQL is the open subset. Fetch it count-only: the Jira match count
// gives the open count without paging through the issues.
func TeamOpenJQL(projects, accountIDs []string) string {
	return teamBaseJQL(projects, accountIDs) + " AND statusCategory != Done"
}

// ProjectListJQL is the six-month work-item list of a single project.
func ProjectListJQL(project string) string {
	return fmt.Sprintf("project = %s AND createdDate >= startOfMonth(-6) ORDER BY created DESC", project)
}

// ProjectOpenJQL matches a project's open issues.
func ProjectOpenJQL(project string) string {
	return fmt.Sprintf("project = %s AND statusCategory != Done order by updated DESC", project)
}

// CurrentUserListJQL is the six-month list of the authenticated user's
// issues, for boards keyed to the API credential's own account.
func CurrentUserListJQL() string {
	return "assignee = currentUser() AND createdDate >= startOfMonth(-6) ORDER BY created DESC"
}

// CurrentUserOpenJQL matches the authenticated user's open issues.
func CurrentUserOpenJQL() string {
	return "assignee = currentUser() AND statusCategory != Done order by updated DESC"
}

// operationalBaseJQL scopes the operational board to a project's real work
// items.
func operationalBaseJQL(project string) string {
	return fmt.Sprintf(`project = %s AND issuetype NOT IN ("Epic", "Sub-task")`, project)
}

// OperationalOpenJQL matches all open work items, oldest first.
func OperationalOpenJQL(project string) string {
	return operationalBaseJQL(project) + " AND statusCategory != Done ORDER BY created ASC"
}

// OperationalOpenedTodayJQL matches work items created since start of day.
func OperationalOpenedTodayJQL(project string) string {
	return operationalBaseJQL(project) + " AND created >= startOfDay() ORDER BY created DESC"
}

// OperationalClosedTodayJQL matches work items resolved since start of day.
func OperationalClosedTodayJQL(project string) string {
	return operationalBaseJQL(project) + " AND resolutiondate >= startOfDay() ORDER BY resolutiondate DESC"
}

// OperationalCreatedLast14JQL feeds the opened side of the flow series.
func OperationalCreatedLast14JQL(project string) string {
	return operationalBaseJQL(project) + " AND created >= startOfDay(-14) ORDER BY created DESC"
}

// OperationalResolvedLast14JQL feeds the closed side of the flow series.
func OperationalResolvedLast14JQL(project string) string {
	return operationalBaseJQL(project) + " AND resolutiondate >= startOfDay(-14) ORDER BY resolutiondate DESC"
}
