package jira_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devcorner/tvdash/internal/adapters/secondary/jira"
	apperrors "github.com/devcorner/tvdash/internal/core/errors"
	"github.com/devcorner/tvdash/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) (*jira.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := jira.NewClient(server.URL, "kyle@devcorner.dev", "token-123", 5*time.Second, testLogger())
	return client, server
}

func TestClient_Search(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"isLast": true,
			"issues": [
				{"id": "1", "key": "NOVA-1", "fields": {"summary": "Fix login"}},
				{"id": "2", "key": "NOVA-2", "fields": {"summary": "Update deps"}}
			]
		}`))
	}))

	result, err := client.Search(context.Background(), ports.SearchParams{
		JQL:        "project = NOVA",
		MaxResults: 50,
		Fields:     []string{"summary", "status"},
	})

	require.NoError(t, err)
	assert.Equal(t, "/rest/api/3/search/jql", gotPath)
	assert.Contains(t, gotAuth, "Basic ")
	assert.Equal(t, "project = NOVA", gotBody["jql"])
	assert.Equal(t, float64(50), gotBody["maxResults"])

	require.Len(t, result.Issues, 2)
	assert.Equal(t, "NOVA-1", result.Issues[0].Key)
	assert.Equal(t, "Fix login", result.Issues[0].Fields.Summary)
	assert.Equal(t, 2, result.Total, "no total in the response falls back to the page length")
}

func TestClient_SearchRequiresJQL(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := client.Search(context.Background(), ports.SearchParams{JQL: "   "})
	assert.ErrorIs(t, err, apperrors.ErrJQLRequired)
}

func TestClient_SearchErrorBodyExtraction(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessages": ["The value 'NOPE' does not exist for the field 'project'."]}`))
	}))

	_, err := client.Search(context.Background(), ports.SearchParams{JQL: "project = NOPE"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
	assert.Contains(t, err.Error(), "does not exist for the field 'project'")
}

func TestClient_SearchRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"issues": [{"id": "1", "key": "NOVA-1", "fields": {}}]}`))
	}))

	result, err := client.Search(context.Background(), ports.SearchParams{JQL: "project = NOVA"})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, result.Issues, 1)
}

func TestClient_SearchGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.Search(context.Background(), ports.SearchParams{JQL: "project = NOVA"})

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, err.Error(), "status=503")
}

func TestClient_SearchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessages": ["Client must be authenticated"]}`))
	}))

	_, err := client.Search(context.Background(), ports.SearchParams{JQL: "project = NOVA"})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Count(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"count": 57}`))
	}))

	count, err := client.Count(context.Background(), "project = NOVA AND statusCategory != Done")

	require.NoError(t, err)
	assert.Equal(t, "/rest/api/3/search/approximate-count", gotPath)
	assert.Equal(t, "project = NOVA AND statusCategory != Done", gotBody["jql"])
	assert.Equal(t, 57, count)
}

func TestClient_Myself(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/api/3/myself", r.URL.Path)
		w.Write([]byte(`{"accountId": "a1", "displayName": "Kyle", "emailAddress": "kyle@devcorner.dev"}`))
	}))

	user, err := client.Myself(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "a1", user.AccountID)
	assert.Equal(t, "Kyle", user.DisplayName)
}

func TestClient_NotConfigured(t *testing.T) {
	client := jira.NewClient("", "", "", 5*time.Second, testLogger())

	_, err := client.Search(context.Background(), ports.SearchParams{JQL: "project = NOVA"})
	assert.ErrorIs(t, err, apperrors.ErrJiraNotConfigured)

	_, err = client.Count(context.Background(), "project = NOVA")
	assert.ErrorIs(t, err, apperrors.ErrJiraNotConfigured)

	assert.ErrorIs(t, client.Ping(context.Background()), apperrors.ErrJiraNotConfigured)
}
