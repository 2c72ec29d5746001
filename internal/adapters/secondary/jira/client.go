package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/devcorner/tvdash/internal/core/domain"
	apperrors "github.com/devcorner/tvdash/internal/core/errors"
	"github.com/devcorner/tvdash/internal/core/ports"
)

const restPrefix = "/rest/api/3"

const (
	maxAttempts    = 3
	initialBackoff = 300 * time.Millisecond
)

// Client is a secondary adapter for the Jira Cloud REST API v3.
// It implements the ports.IssueSearcher interface.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.IssueSearcher = (*Client)(nil)

// NewClient creates a Jira client. Missing base URL or credentials are not
// an error here: they surface on the first request so a misconfigured
// deployment still starts and reports the problem through dashboard status.
func NewClient(baseURL, email, apiToken string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      email,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "jira_client"),
	}
}

type searchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields,omitempty"`
}

type searchResponse struct {
	Issues []domain.Issue `json:"issues"`
	Total  *int           `json:"total"`
	IsLast bool           `json:"isLast"`
}

// Search runs a JQL query via POST /rest/api/3/search/jql and returns one
// page of issues. The response carries no total; callers needing an exact
// match count should use Count.
func (c *Client) Search(ctx context.Context, params ports.SearchParams) (*ports.SearchResult, error) {
	if strings.TrimSpace(params.JQL) == "" {
		return nil, apperrors.ErrJQLRequired
	}

	body := searchRequest{
		JQL:        params.JQL,
		MaxResults: params.MaxResults,
		Fields:     params.Fields,
	}

	var out searchResponse
	if err := c.doJSON(ctx, http.MethodPost, restPrefix+"/search/jql", body, &out); err != nil {
		return nil, err
	}

	result := &ports.SearchResult{Issues: out.Issues}
	if out.Total != nil {
		result.Total = *out.Total
	} else {
		result.Total = len(out.Issues)
	}
	return result, nil
}

type countRequest struct {
	JQL string `json:"jql"`
}

type countResponse struct {
	Count int `json:"count"`
}

// Count returns the number of issues matching a JQL query via
// POST /rest/api/3/search/approximate-count, without fetching any issues.
func (c *Client) Count(ctx context.Context, jql string) (int, error) {
	if strings.TrimSpace(jql) == "" {
		return 0, apperrors.ErrJQLRequired
	}

	var out countResponse
	if err := c.doJSON(ctx, http.MethodPost, restPrefix+"/search/approximate-count", countRequest{JQL: jql}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Myself returns the user the API token belongs to. Used to verify
// credentials and as the readiness probe.
func (c *Client) Myself(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodGet, restPrefix+"/myself", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping checks connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Myself(ctx)
	return err
}

// doJSON sends one request with bounded retries on 429 and 5xx responses.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	if c.baseURL == "" || c.email == "" || c.apiToken == "" {
		return apperrors.ErrJiraNotConfigured
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	url := c.baseURL + path
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.SetBasicAuth(c.email, c.apiToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("jira api status=%d: %s", resp.StatusCode, errorMessage(resp.StatusCode, respBody))
			c.logger.Warn("retryable jira response",
				"status", resp.StatusCode,
				"path", path,
				"attempt", attempt,
			)
			continue
		}

		if resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("jira api status=%d: %s", resp.StatusCode, errorMessage(resp.StatusCode, respBody))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return lastErr
}

// errorMessage extracts the human-readable message from a Jira error body.
// Jira reports either an errorMessages array or an errors object keyed by
// field name.
func errorMessage(status int, body []byte) string {
	var parsed struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.ErrorMessages) > 0 {
			return strings.Join(parsed.ErrorMessages, "; ")
		}
		if len(parsed.Errors) > 0 {
			parts := make([]string, 0, len(parsed.Errors))
			for field, msg := range parsed.Errors {
				parts = append(parts, field+": "+msg)
			}
			return strings.Join(parts, "; ")
		}
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return http.StatusText(status)
	}
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}
