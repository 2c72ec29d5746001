package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/devcorner/tvdash/internal/core/domain"
	"github.com/devcorner/tvdash/internal/core/errors"
	"github.com/devcorner/tvdash/internal/core/ports"
)

const maxSearchResults = 100

// JiraHandler proxies ad-hoc search requests to the Jira REST API so TV
// screens never hold Jira credentials themselves.
type JiraHandler struct {
	searcher     ports.IssueSearcher
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewJiraHandler creates a new Jira proxy handler
func NewJiraHandler(
	searcher ports.IssueSearcher,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *JiraHandler {
	return &JiraHandler{
		searcher:     searcher,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "jira"),
	}
}

// RegisterRoutes sets up the routing for the Jira proxy endpoints.
func (h *JiraHandler) RegisterRoutes(r chi.Router) {
	r.Get("/search", h.HandleSearch)
	r.Get("/myself", h.HandleMyself)
}

// SearchResponse is the JSON response for a proxied search.
type SearchResponse struct {
	Issues []domain.Issue `json:"issues"`
	Total  int            `json:"total"`
}

// HandleSearch handles GET /jira/search
func (h *JiraHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	jql := r.URL.Query().Get("jql")
	if jql == "" {
		h.errorHandler.Handle(w, r, errors.ErrJQLRequired)
		return
	}

	maxResults, err := h.parseMaxResults(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.searcher.Search(r.Context(), ports.SearchParams{
		JQL:        jql,
		MaxResults: maxResults,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Debug("search proxied",
		"jql", jql,
		"max_results", maxResults,
		"returned", len(result.Issues),
	)

	WriteJSON(w, http.StatusOK, SearchResponse{
		Issues: result.Issues,
		Total:  result.Total,
	})
}

// HandleMyself handles GET /jira/myself
func (h *JiraHandler) HandleMyself(w http.ResponseWriter, r *http.Request) {
	user, err := h.searcher.Myself(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteSuccess(w, user)
}

func (h *JiraHandler) parseMaxResults(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("maxResults")
	if raw == "" {
		return maxSearchResults, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewBadRequestError(err, "maxResults must be a positive integer")
	}
	if parsed <= 0 {
		return 0, errors.NewBadRequestError(errors.ErrBadRequest, "maxResults must be a positive integer")
	}
	if parsed > maxSearchResults {
		return 0, errors.ErrMaxResultsTooLarge
	}
	return parsed, nil
}
