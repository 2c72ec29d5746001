package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devcorner/tvdash/internal/core/domain"
	"github.com/devcorner/tvdash/internal/core/ports"
)

// defaultFields is the field list requested from Jira for every query. It
// covers everything the analytics builders read.
var defaultFields = []string{
	"summary", "status", "assignee", "project", "issuetype",
	"components", "priority", "created", "updated", "duedate", "resolutiondate",
}

// QuerySpec names one JQL query of a dashboard's query set.
type QuerySpec struct {
	Name       string
	JQL        string
	MaxResults int
	// Optional queries degrade to an empty list when they fail instead of
	// failing the whole refresh.
	Optional bool
	// CountOnly queries go through the count endpoint; only the match count
	// is kept, no issues are fetched.
	CountOnly bool
}

// Cache fetches a dashboard's query set from Jira and holds the results in
// memory until they go stale. All reads and writes go through the mutex; a
// refresh commits either the complete new result set or nothing.
type Cache struct {
	name     string
	queries  []QuerySpec
	ttl      time.Duration
	searcher ports.IssueSearcher
	events   ports.EventBroadcaster
	logger   *slog.Logger
	nowFn    func() time.Time

	mu          sync.Mutex
	lists       map[string][]domain.Issue
	totals      map[string]int
	lastFetched time.Time
	loading     bool
	lastErr     string
}

// NewCache creates a cache for one dashboard. events may be nil when nothing
// listens for refresh notifications.
func NewCache(name string, queries []QuerySpec, ttl time.Duration, searcher ports.IssueSearcher, events ports.EventBroadcaster, logger *slog.Logger) *Cache {
	return &Cache{
		name:     name,
		queries:  queries,
		ttl:      ttl,
		searcher: searcher,
		events:   events,
		logger:   logger,
		nowFn:    time.Now,
		lists:    make(map[string][]domain.Issue),
		totals:   make(map[string]int),
	}
}

// Name returns the dashboard name this cache serves.
func (c *Cache) Name() string {
	return c.name
}

// IsStale reports whether the cached data is older than the TTL. A cache
// that has never been successfully refreshed is stale.
func (c *Cache) IsStale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staleLocked()
}

func (c *Cache) staleLocked() bool {
	if c.lastFetched.IsZero() {
		return true
	}
	return c.nowFn().Sub(c.lastFetched) > c.ttl
}

// HasData reports whether at least one refresh has committed.
func (c *Cache) HasData() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.lastFetched.IsZero()
}

// Status returns a freshness snapshot for the status endpoints.
func (c *Cache) Status() ports.DashboardStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := ports.DashboardStatus{
		Name:    c.name,
		Stale:   c.staleLocked(),
		Loading: c.loading,
		Error:   c.lastErr,
		TTL:     c.ttl.String(),
	}
	if !c.lastFetched.IsZero() {
		t := c.lastFetched
		status.LastFetched = &t
	}
	return status
}

// List returns the cached issue list of the named query.
func (c *Cache) List(name string) []domain.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists[name]
}

// Total returns the server-side total of the named query.
func (c *Cache) Total(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[name]
}

// AllIssues returns the union of all cached lists, deduplicated by issue ID.
// The first occurrence wins; lists are walked in query order.
func (c *Cache) AllIssues() []domain.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool)
	var out []domain.Issue
	for _, q := range c.queries {
		if q.CountOnly {
			continue
		}
		for _, issue := range c.lists[q.Name] {
			if seen[issue.ID] {
				continue
			}
			seen[issue.ID] = true
			out = append(out, issue)
		}
	}
	return out
}

type queryResult struct {
	spec   QuerySpec
	issues []domain.Issue
	total  int
	err    error
}

// Refresh fetches all queries of the set concurrently and commits the
// results atomically. Calls overlapping an in-flight refresh return
// immediately, as do calls while the cache is still fresh unless forced.
// When a required query fails the previous data stays visible and the error
// is recorded; optional query failures degrade to empty lists.
func (c *Cache) Refresh(ctx context.Context, force bool) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil
	}
	if !force && !c.staleLocked() {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()

	results := make([]queryResult, len(c.queries))
	var wg sync.WaitGroup
	for i, q := range c.queries {
		wg.Add(1)
		go func(i int, q QuerySpec) {
			defer wg.Done()
			results[i] = c.runQuery(ctx, q)
		}(i, q)
	}
	wg.Wait()

	lists := make(map[string][]domain.Issue, len(c.queries))
	totals := make(map[string]int, len(c.queries))
	var firstErr error
	for _, res := range results {
		if res.err != nil {
			if res.spec.Optional {
				c.logger.Warn("optional query failed, serving empty list",
					"dashboard", c.name, "query", res.spec.Name, "error", res.err)
				lists[res.spec.Name] = nil
				totals[res.spec.Name] = 0
				continue
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("query %q: %w", res.spec.Name, res.err)
			}
			continue
		}
		lists[res.spec.Name] = res.issues
		totals[res.spec.Name] = res.total
	}

	c.mu.Lock()
	c.loading = false
	if firstErr != nil {
		c.lastErr = firstErr.Error()
		c.mu.Unlock()
		c.broadcast(domain.EventDashboardFailed, firstErr.Error())
		return firstErr
	}
	c.lists = lists
	c.totals = totals
	c.lastFetched = c.nowFn()
	c.lastErr = ""
	c.mu.Unlock()

	c.broadcast(domain.EventDashboardRefreshed, "")
	return nil
}

func (c *Cache) runQuery(ctx context.Context, q QuerySpec) queryResult {
	if q.CountOnly {
		total, err := c.searcher.Count(ctx, q.JQL)
		if err != nil {
			return queryResult{spec: q, err: err}
		}
		return queryResult{spec: q, total: total}
	}

	res, err := c.searcher.Search(ctx, ports.SearchParams{
		JQL:        q.JQL,
		MaxResults: q.MaxResults,
		Fields:     defaultFields,
	})
	if err != nil {
		return queryResult{spec: q, err: err}
	}
	return queryResult{spec: q, issues: res.Issues, total: res.Total}
}

func (c *Cache) broadcast(eventType domain.EventType, errMsg string) {
	if c.events == nil {
		return
	}
	c.events.Broadcast(domain.Event{
		Type:      eventType,
		Dashboard: c.name,
		FetchedAt: c.nowFn().UTC(),
		Error:     errMsg,
	})
}
