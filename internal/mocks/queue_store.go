package mocks

import (
	"context"
	"encoding/json"
	"testing"

	"selfservice-kiosk/internal/domain"
	"selfservice-kiosk/internal/storage"

	"github.com/stretchr/testify/mock"
)

type QueueStore struct {
	mock.Mock
}

func NewQueueStore(t *testing.T) *QueueStore {
	m := &QueueStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *QueueStore) EnqueueOrder(ctx context.Context, payload json.RawMessage) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *QueueStore) GetOrder(ctx context.Context, id string) (*domain.PendingOrder, error) {
	args := m.Called(ctx, id)
	var record *domain.PendingOrder
	if args.Get(0) != nil {
		record = args.Get(0).(*domain.PendingOrder)
	}
	return record, args.Error(1)
}

func (m *QueueStore) UpdateOrder(ctx context.Context, record *domain.PendingOrder) error {
	return m.Called(ctx, record).Error(0)
}

func (m *QueueStore) ListOrdersByStatus(ctx context.Context, status domain.PendingStatus) ([]domain.PendingOrder, error) {
	args := m.Called(ctx, status)
	var records []domain.PendingOrder
	if args.Get(0) != nil {
		records = args.Get(0).([]domain.PendingOrder)
	}
	return records, args.Error(1)
}

func (m *QueueStore) DeleteOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *QueueStore) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *QueueStore) EnqueueSyncItem(ctx context.Context, item domain.SyncQueueItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *QueueStore) ListSyncQueue(ctx context.Context) ([]domain.SyncQueueItem, error) {
	args := m.Called(ctx)
	var items []domain.SyncQueueItem
	if args.Get(0) != nil {
		items = args.Get(0).([]domain.SyncQueueItem)
	}
	return items, args.Error(1)
}

func (m *QueueStore) UpdateSyncItem(ctx context.Context, item *domain.SyncQueueItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *QueueStore) DeleteSyncItem(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *QueueStore) ReclaimSyncing(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var _ storage.QueueStore = (*QueueStore)(nil)
