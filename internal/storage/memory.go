package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"selfservice-kiosk/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore implements QueueStore without durability. It backs the
// degraded mode (database unreachable at startup) and the tests.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]domain.PendingOrder
	queue  map[string]domain.SyncQueueItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]domain.PendingOrder),
		queue:  make(map[string]domain.SyncQueueItem),
	}
}

func (s *MemoryStore) EnqueueOrder(_ context.Context, payload json.RawMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.orders[id] = domain.PendingOrder{
		ID:        id,
		Data:      append(json.RawMessage(nil), payload...),
		Timestamp: time.Now().UTC(),
		Status:    domain.PendingStatusPending,
	}
	return id, nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id string) (*domain.PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *MemoryStore) UpdateOrder(_ context.Context, record *domain.PendingOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.orders[record.ID]
	if !ok {
		return ErrNotFound
	}
	// synced is terminal
	if existing.Status == domain.PendingStatusSynced && record.Status != domain.PendingStatusSynced {
		return ErrNotFound
	}
	existing.Status = record.Status
	existing.Retries = record.Retries
	existing.LastError = record.LastError
	s.orders[record.ID] = existing
	return nil
}

func (s *MemoryStore) ListOrdersByStatus(_ context.Context, status domain.PendingStatus) ([]domain.PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []domain.PendingOrder
	for _, record := range s.orders {
		if record.Status == status {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
	return records, nil
}

func (s *MemoryStore) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make(map[string]domain.PendingOrder)
	s.queue = make(map[string]domain.SyncQueueItem)
	return nil
}

func (s *MemoryStore) EnqueueSyncItem(_ context.Context, item domain.SyncQueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}
	s.queue[item.ID] = item
	return nil
}

func (s *MemoryStore) ListSyncQueue(_ context.Context) ([]domain.SyncQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []domain.SyncQueueItem
	for _, item := range s.queue {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Timestamp.Before(items[j].Timestamp) })
	return items, nil
}

func (s *MemoryStore) UpdateSyncItem(_ context.Context, item *domain.SyncQueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.queue[item.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Retries = item.Retries
	s.queue[item.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteSyncItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queue, id)
	return nil
}

func (s *MemoryStore) ReclaimSyncing(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reclaimed int64
	for id, record := range s.orders {
		if record.Status == domain.PendingStatusSyncing {
			record.Status = domain.PendingStatusPending
			s.orders[id] = record
			reclaimed++
		}
	}
	return reclaimed, nil
}

var _ QueueStore = (*MemoryStore)(nil)
