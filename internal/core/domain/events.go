package domain

import "time"

// EventType identifies a real-time event pushed to connected screens.
type EventType string

const (
	// EventDashboardRefreshed fires after a dashboard commits fresh issue
	// lists from Jira.
	EventDashboardRefreshed EventType = "dashboard.refreshed"
	// EventDashboardFailed fires when a refresh cycle ends in an error.
	EventDashboardFailed EventType = "dashboard.failed"
)

// Event is a real-time notification about a dashboard's cache state.
type Event struct {
	Type      EventType `json:"type"`
	Dashboard string    `json:"dashboard"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
	Error     string    `json:"error,omitempty"`
}
