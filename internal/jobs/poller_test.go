package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devcorner/tvdash/internal/core/mocks"
	"github.com/devcorner/tvdash/internal/core/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoller_RefreshAll(t *testing.T) {
	first := mocks.NewMockDashboard()
	first.On("Name").Return("nova").Maybe()
	first.On("Refresh", mock.Anything, false).Return(nil).Once()

	second := mocks.NewMockDashboard()
	second.On("Name").Return("operational").Maybe()
	second.On("Refresh", mock.Anything, false).Return(nil).Once()

	poller := NewPoller(services.NewRegistry(first, second), time.Minute, testLogger())
	poller.RefreshAll(context.Background())

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestPoller_RefreshAllContinuesPastFailures(t *testing.T) {
	failing := mocks.NewMockDashboard()
	failing.On("Name").Return("nova").Maybe()
	failing.On("Refresh", mock.Anything, false).Return(assert.AnError).Once()

	healthy := mocks.NewMockDashboard()
	healthy.On("Name").Return("operational").Maybe()
	healthy.On("Refresh", mock.Anything, false).Return(nil).Once()

	poller := NewPoller(services.NewRegistry(failing, healthy), time.Minute, testLogger())
	poller.RefreshAll(context.Background())

	healthy.AssertExpectations(t)
}

func TestPoller_StartRunsWarmUp(t *testing.T) {
	refreshed := make(chan struct{}, 1)

	dashboard := mocks.NewMockDashboard()
	dashboard.On("Name").Return("nova").Maybe()
	dashboard.On("Refresh", mock.Anything, false).Return(nil).Run(func(args mock.Arguments) {
		select {
		case refreshed <- struct{}{}:
		default:
		}
	})

	poller := NewPoller(services.NewRegistry(dashboard), time.Hour, testLogger())
	require.NoError(t, poller.Start(context.Background()))
	defer poller.Stop()

	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("warm-up refresh never ran")
	}
}
