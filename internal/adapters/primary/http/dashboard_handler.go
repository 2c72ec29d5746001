package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devcorner/tvdash/internal/core/errors"
	"github.com/devcorner/tvdash/internal/core/ports"
)

// DashboardHandler handles HTTP requests for dashboards
type DashboardHandler struct {
	registry     ports.DashboardRegistry
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	registry ports.DashboardRegistry,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		registry:     registry,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "dashboard"),
	}
}

// RegisterRoutes sets up the routing for all dashboard endpoints.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListDashboards)

	r.Route("/{name}", func(r chi.Router) {
		r.Get("/", h.HandleGetDashboard)
		r.Get("/issues", h.HandleListIssues)
		r.Post("/refresh", h.HandleRefresh)
	})
}

// DashboardResponse is the JSON response for a single dashboard.
type DashboardResponse struct {
	Status    ports.DashboardStatus `json:"status"`
	Analytics interface{}           `json:"analytics"`
}

// HandleListDashboards handles GET /dashboards
func (h *DashboardHandler) HandleListDashboards(w http.ResponseWriter, r *http.Request) {
	dashboards := h.registry.All()

	statuses := make([]ports.DashboardStatus, 0, len(dashboards))
	for _, d := range dashboards {
		statuses = append(statuses, d.Status())
	}

	WriteList(w, statuses)
}

// HandleGetDashboard handles GET /dashboards/{name}
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.lookup(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, DashboardResponse{
		Status:    dashboard.Status(),
		Analytics: dashboard.Analytics(),
	})
}

// HandleListIssues handles GET /dashboards/{name}/issues
func (h *DashboardHandler) HandleListIssues(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.lookup(w, r)
	if !ok {
		return
	}

	WriteList(w, dashboard.Issues())
}

// HandleRefresh handles POST /dashboards/{name}/refresh
func (h *DashboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.lookup(w, r)
	if !ok {
		return
	}

	force := r.URL.Query().Get("force") == "true"

	if err := dashboard.Refresh(r.Context(), force); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("dashboard refresh requested",
		"dashboard", dashboard.Name(),
		"force", force,
	)

	WriteJSON(w, http.StatusOK, dashboard.Status())
}

// lookup resolves the dashboard named in the URL, writing a not-found
// response when it is unknown
func (h *DashboardHandler) lookup(w http.ResponseWriter, r *http.Request) (ports.Dashboard, bool) {
	name := chi.URLParam(r, "name")

	dashboard, ok := h.registry.Get(name)
	if !ok {
		h.errorHandler.Handle(w, r, errors.ErrDashboardNotFound)
		return nil, false
	}
	return dashboard, true
}
