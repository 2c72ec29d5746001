package mocks

import (
	"context"

	"github.com/devcorner/tvdash/internal/core/domain"
	"github.com/devcorner/tvdash/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockIssueSearcher is a mock implementation of ports.IssueSearcher
type MockIssueSearcher struct {
	mock.Mock
}

func NewMockIssueSearcher() *MockIssueSearcher {
	return &MockIssueSearcher{}
}

func (m *MockIssueSearcher) Search(ctx context.Context, params ports.SearchParams) (*ports.SearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.SearchResult), args.Error(1)
}

func (m *MockIssueSearcher) Count(ctx context.Context, jql string) (int, error) {
	args := m.Called(ctx, jql)
	return args.Int(0), args.Error(1)
}

func (m *MockIssueSearcher) Myself(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockIssueSearcher) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) {
	m.Called(event)
}

// MockDashboard is a mock implementation of ports.Dashboard
type MockDashboard struct {
	mock.Mock
}

func NewMockDashboard() *MockDashboard {
	return &MockDashboard{}
}

func (m *MockDashboard) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDashboard) Refresh(ctx context.Context, force bool) error {
	args := m.Called(ctx, force)
	return args.Error(0)
}

func (m *MockDashboard) IsStale() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockDashboard) Status() ports.DashboardStatus {
	args := m.Called()
	return args.Get(0).(ports.DashboardStatus)
}

func (m *MockDashboard) Analytics() interface{} {
	args := m.Called()
	return args.Get(0)
}

func (m *MockDashboard) Issues() []domain.Issue {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Issue)
}
