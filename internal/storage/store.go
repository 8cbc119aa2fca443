package storage

import (
	"context"
	"encoding/json"
	"errors"

	"selfservice-kiosk/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// QueueStore is the durable queue behind order submission. Records
// survive restarts; synced orders are kept as an audit trail. The
// in-memory implementation backs the degraded mode used when the
// database is unreachable at startup.
type QueueStore interface {
	EnqueueOrder(ctx context.Context, payload json.RawMessage) (string, error)
	GetOrder(ctx context.Context, id string) (*domain.PendingOrder, error)
	UpdateOrder(ctx context.Context, record *domain.PendingOrder) error
	ListOrdersByStatus(ctx context.Context, status domain.PendingStatus) ([]domain.PendingOrder, error)
	DeleteOrder(ctx context.Context, id string) error
	Clear(ctx context.Context) error

	EnqueueSyncItem(ctx context.Context, item domain.SyncQueueItem) error
	ListSyncQueue(ctx context.Context) ([]domain.SyncQueueItem, error)
	UpdateSyncItem(ctx context.Context, item *domain.SyncQueueItem) error
	DeleteSyncItem(ctx context.Context, id string) error

	// ReclaimSyncing resets records stuck in syncing back to pending.
	// Run once at startup: a crash mid-call leaves syncing rows that
	// would otherwise never be retried.
	ReclaimSyncing(ctx context.Context) (int64, error)
}
