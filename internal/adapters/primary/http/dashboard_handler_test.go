package http

import (
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devcorner/tvdash/internal/core/domain"
	"github.com/devcorner/tvdash/internal/core/mocks"
	"github.com/devcorner/tvdash/internal/core/ports"
	"github.com/devcorner/tvdash/internal/core/services"
)

func newDashboardRouter(dashboards ...ports.Dashboard) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := NewErrorHandler(logger)
	handler := NewDashboardHandler(services.NewRegistry(dashboards...), errorHandler, logger)

	router := chi.NewRouter()
	router.Route("/dashboards", handler.RegisterRoutes)
	return router
}

func stubDashboard(name string) *mocks.MockDashboard {
	dashboard := mocks.NewMockDashboard()
	dashboard.On("Name").Return(name).Maybe()
	dashboard.On("Status").Return(ports.DashboardStatus{Name: name, Stale: true, TTL: "30m0s"}).Maybe()
	return dashboard
}

func TestDashboardHandler_List(t *testing.T) {
	router := newDashboardRouter(stubDashboard("nova"), stubDashboard("operational"))

	req := httptest.NewRequest(stdhttp.MethodGet, "/dashboards", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response ListResponse[ports.DashboardStatus]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Equal(t, 2, response.Count)
	assert.Equal(t, "nova", response.Data[0].Name)
	assert.Equal(t, "operational", response.Data[1].Name)
}

func TestDashboardHandler_Get(t *testing.T) {
	dashboard := stubDashboard("nova")
	dashboard.On("Analytics").Return(domain.Analytics{TotalOpen: 7}).Once()

	router := newDashboardRouter(dashboard)

	req := httptest.NewRequest(stdhttp.MethodGet, "/dashboards/nova", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response struct {
		Status    ports.DashboardStatus `json:"status"`
		Analytics domain.Analytics      `json:"analytics"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "nova", response.Status.Name)
	assert.Equal(t, 7, response.Analytics.TotalOpen)
	dashboard.AssertExpectations(t)
}

func TestDashboardHandler_GetUnknownName(t *testing.T) {
	router := newDashboardRouter(stubDashboard("nova"))

	req := httptest.NewRequest(stdhttp.MethodGet, "/dashboards/missing", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusNotFound, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "DASHBOARD_NOT_FOUND", response.Code)
}

func TestDashboardHandler_Issues(t *testing.T) {
	dashboard := stubDashboard("trevor")
	dashboard.On("Issues").Return([]domain.Issue{{ID: "1", Key: "NOVA-1"}, {ID: "2", Key: "NOVA-2"}}).Once()

	router := newDashboardRouter(dashboard)

	req := httptest.NewRequest(stdhttp.MethodGet, "/dashboards/trevor/issues", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response ListResponse[domain.Issue]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Equal(t, 2, response.Count)
	assert.Equal(t, "NOVA-1", response.Data[0].Key)
}

func TestDashboardHandler_Refresh(t *testing.T) {
	dashboard := stubDashboard("nova")
	dashboard.On("Refresh", mock.Anything, true).Return(nil).Once()

	router := newDashboardRouter(dashboard)

	req := httptest.NewRequest(stdhttp.MethodPost, "/dashboards/nova/refresh?force=true", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	dashboard.AssertExpectations(t)
}

func TestDashboardHandler_RefreshWithoutForce(t *testing.T) {
	dashboard := stubDashboard("nova")
	dashboard.On("Refresh", mock.Anything, false).Return(nil).Once()

	router := newDashboardRouter(dashboard)

	req := httptest.NewRequest(stdhttp.MethodPost, "/dashboards/nova/refresh", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	dashboard.AssertExpectations(t)
}

func TestDashboardHandler_RefreshUpstreamFailure(t *testing.T) {
	dashboard := stubDashboard("nova")
	dashboard.On("Refresh", mock.Anything, false).Return(assert.AnError).Once()

	router := newDashboardRouter(dashboard)

	req := httptest.NewRequest(stdhttp.MethodPost, "/dashboards/nova/refresh", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusInternalServerError, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "INTERNAL_ERROR", response.Code)
}
