package service

import (
	"context"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/repository"
)

type MockStaffRepository struct {
	mock.Mock
}

func (m *MockStaffRepository) ListAssignable(ctx context.Context) ([]domain.RosterEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RosterEntry), args.Error(1)
}

func (m *MockStaffRepository) ListProfiles(ctx context.Context) ([]domain.RosterEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RosterEntry), args.Error(1)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) List(ctx context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Lead), args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, id string, update repository.LeadUpdate) (*domain.Lead, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

func (m *MockLeadRepository) Assign(ctx context.Context, id, staffID string) (*domain.Lead, error) {
	args := m.Called(ctx, id, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lead), args.Error(1)
}

func (m *MockLeadRepository) AddFollowUp(ctx context.Context, leadID string, input domain.FollowUpInput) (*domain.FollowUp, error) {
	args := m.Called(ctx, leadID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FollowUp), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) List(ctx context.Context) ([]domain.Notification, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockNotificationRepository) Create(ctx context.Context, input domain.NotificationInput) (*domain.Notification, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) List(ctx context.Context, page, limit int) (*domain.ActivityPage, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActivityPage), args.Error(1)
}

// openGate is a notification gate that always allows.
type openGate struct{ allowed bool }

func (g *openGate) Allowed(context.Context) bool { return g.allowed }

// switchGate can be flipped while a fetch is in flight.
type switchGate struct{ allowed atomic.Bool }

func (g *switchGate) Allowed(context.Context) bool { return g.allowed.Load() }
