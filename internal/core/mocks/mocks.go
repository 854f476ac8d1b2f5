package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListByQueue(ctx context.Context, queueID uuid.UUID, status *domain.TicketStatus) ([]*domain.Ticket, error) {
	args := m.Called(ctx, queueID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

// MockQueueRepository is a mock implementation of ports.QueueRepository
type MockQueueRepository struct {
	mock.Mock
}

func NewMockQueueRepository() *MockQueueRepository {
	return &MockQueueRepository{}
}

func (m *MockQueueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Queue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Queue), args.Error(1)
}

// MockSnapshotBuilder is a mock implementation of ports.SnapshotBuilder
type MockSnapshotBuilder struct {
	mock.Mock
}

func NewMockSnapshotBuilder() *MockSnapshotBuilder {
	return &MockSnapshotBuilder{}
}

func (m *MockSnapshotBuilder) BuildQueueSnapshot(ctx context.Context, queueID uuid.UUID) (*domain.QueueSnapshot, error) {
	args := m.Called(ctx, queueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueSnapshot), args.Error(1)
}

// MockSink is a mock implementation of ports.Sink
type MockSink struct {
	mock.Mock
}

func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) Send(event domain.StreamEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockSink) KeepAlive() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSink) Close() error {
	args := m.Called()
	return args.Error(0)
}
