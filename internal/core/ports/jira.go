package ports

import (
	"context"

	"github.com/devcorner/tvdash/internal/core/domain"
)

// SearchParams defines the input for a JQL issue search.
type SearchParams struct {
	JQL        string
	MaxResults int
	Fields     []string
}

// SearchResult carries one page of issues plus the server-side total.
// Total may exceed len(Issues) when the query matched more than MaxResults.
type SearchResult struct {
	Issues []domain.Issue
	Total  int
}

// IssueSearcher defines the port for reading issues from Jira. Count answers
// how many issues match a JQL query without fetching any of them.
type IssueSearcher interface {
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
	Count(ctx context.Context, jql string) (int, error)
	Myself(ctx context.Context) (*domain.User, error)
	Ping(ctx context.Context) error
}
