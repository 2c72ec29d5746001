package ports

import (
	"context"
	"time"

	"github.com/devcorner/tvdash/internal/core/domain"
)

// DashboardStatus describes the freshness of a dashboard's cached data.
type DashboardStatus struct {
	Name        string     `json:"name"`
	LastFetched *time.Time `json:"lastFetched"`
	Stale       bool       `json:"stale"`
	Loading     bool       `json:"loading"`
	Error       string     `json:"error,omitempty"`
	TTL         string     `json:"ttl"`
}

// Dashboard defines the port for one TV dashboard: a cache of Jira query
// results plus an analytics projection derived from it on every read.
type Dashboard interface {
	Name() string
	Refresh(ctx context.Context, force bool) error
	IsStale() bool
	Status() DashboardStatus
	Analytics() interface{}
	Issues() []domain.Issue
}

// DashboardRegistry defines the port for looking up configured dashboards.
type DashboardRegistry interface {
	Get(name string) (Dashboard, bool)
	All() []Dashboard
}

// EventBroadcaster defines the port for pushing refresh events to
// connected screens.
type EventBroadcaster interface {
	Broadcast(event domain.Event)
}
