package tests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"selfservice-kiosk/internal/client"
	"selfservice-kiosk/internal/domain"
	"selfservice-kiosk/internal/mocks"
	"selfservice-kiosk/internal/storage"
	"selfservice-kiosk/internal/syncer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const maxSyncRetries = 3

func enqueue(t *testing.T, store storage.QueueStore, payload string) string {
	t.Helper()
	id, err := store.EnqueueOrder(context.Background(), json.RawMessage(payload))
	assert.NoError(t, err)
	return id
}

func TestEngine_SyncsPendingOrderOnceOnline(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	remote := mocks.NewRemoteAPI(t)
	publisher := mocks.NewEventPublisher(t)
	engine := syncer.NewEngine(store, remote, publisher, maxSyncRetries)

	// enqueued while offline: the record is durable before any attempt
	id := enqueue(t, store, `{"total":42}`)
	record, err := store.GetOrder(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, domain.PendingStatusPending, record.Status)

	remote.On("SubmitRaw", mock.Anything, mock.Anything).
		Return(&client.SubmitResult{ID: "o-1", OrderNumber: "A001"}, nil).Once()
	publisher.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(ev domain.OrderEvent) bool {
		return ev.Type == "order_synced" && ev.OrderID == id
	})).Return(nil).Once()

	engine.SyncAll(ctx)

	record, err = store.GetOrder(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, domain.PendingStatusSynced, record.Status)
	assert.Empty(t, record.LastError)
}

func TestEngine_SyncedRecordIsNeverResubmitted(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	remote := mocks.NewRemoteAPI(t)
	engine := syncer.NewEngine(store, remote, nil, maxSyncRetries)

	id := enqueue(t, store, `{}`)
	record, _ := store.GetOrder(ctx, id)
	record.Status = domain.PendingStatusSynced
	assert.NoError(t, store.UpdateOrder(ctx, record))

	assert.NoError(t, engine.SyncOrder(ctx, id))
	engine.SyncAll(ctx)

	remote.AssertNotCalled(t, "SubmitRaw", mock.Anything, mock.Anything)
	record, _ = store.GetOrder(ctx, id)
	assert.Equal(t, domain.PendingStatusSynced, record.Status)
}

func TestEngine_ExhaustedRetriesLeaveQueryableFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	remote := mocks.NewRemoteAPI(t)
	publisher := mocks.NewEventPublisher(t)
	engine := syncer.NewEngine(store, remote, publisher, maxSyncRetries)

	id := enqueue(t, store, `{"total":10}`)

	remote.On("SubmitRaw", mock.Anything, mock.Anything).
		Return(nil, domain.NewRemoteError(500, "boom")).Times(maxSyncRetries)
	publisher.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(ev domain.OrderEvent) bool {
		return ev.Type == "order_failed" && ev.Retries == maxSyncRetries
	})).Return(nil).Once()

	for i := 0; i < maxSyncRetries+2; i++ {
		engine.SyncAll(ctx)
	}

	record, err := store.GetOrder(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, domain.PendingStatusFailed, record.Status)
	assert.Equal(t, maxSyncRetries, record.Retries)
	assert.Contains(t, record.LastError, "boom")

	failed, err := store.ListOrdersByStatus(ctx, domain.PendingStatusFailed)
	assert.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestEngine_ProcessesOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	remote := mocks.NewRemoteAPI(t)
	engine := syncer.NewEngine(store, remote, nil, maxSyncRetries)

	enqueue(t, store, `{"seq":1}`)
	time.Sleep(2 * time.Millisecond)
	enqueue(t, store, `{"seq":2}`)

	var seen []string
	remote.On("SubmitRaw", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			seen = append(seen, string(args.Get(1).(json.RawMessage)))
		}).
		Return(&client.SubmitResult{ID: "x"}, nil).Times(2)

	engine.SyncAll(ctx)

	assert.Equal(t, []string{`{"seq":1}`, `{"seq":2}`}, seen)
}

func TestEngine_SingleFlight(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	remote := mocks.NewRemoteAPI(t)
	engine := syncer.NewEngine(store, remote, nil, maxSyncRetries)

	enqueue(t, store, `{}`)

	started := make(chan struct{})
	release := make(chan struct{})
	remote.On("SubmitRaw", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&client.SubmitResult{ID: "x"}, nil).Once()

	done := make(chan struct{})
	go func() {
		engine.SyncAll(ctx)
		close(done)
	}()

	<-started
	// a trigger while a pass is running is a no-op, not queued
	engine.SyncAll(ctx)
	close(release)
	<-done

	remote.AssertNumberOfCalls(t, "SubmitRaw", 1)
}

func TestEngine_SyncQueueDeletesOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	remote := mocks.NewRemoteAPI(t)
	engine := syncer.NewEngine(store, remote, nil, maxSyncRetries)

	assert.NoError(t, engine.Defer(ctx, "status_update", "PATCH", "/orders/o-1/status", json.RawMessage(`{"status":"ready"}`)))

	remote.On("Do", mock.Anything, "PATCH", "/orders/o-1/status", mock.Anything).Return(nil).Once()
	engine.ProcessSyncQueue(ctx)

	items, err := store.ListSyncQueue(ctx)
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestEngine_SyncQueueDiscardsAfterRetryCap(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	remote := mocks.NewRemoteAPI(t)
	engine := syncer.NewEngine(store, remote, nil, maxSyncRetries)

	assert.NoError(t, engine.Defer(ctx, "cancel_order", "POST", "/orders/o-9/cancel", nil))

	remote.On("Do", mock.Anything, "POST", "/orders/o-9/cancel", mock.Anything).
		Return(domain.NewNetworkError(assert.AnError)).Times(maxSyncRetries)

	for i := 0; i < maxSyncRetries; i++ {
		engine.ProcessSyncQueue(ctx)
	}

	items, err := store.ListSyncQueue(ctx)
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestEngine_RetryOrderResetsExhaustedRecord(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	remote := mocks.NewRemoteAPI(t)
	engine := syncer.NewEngine(store, remote, nil, maxSyncRetries)

	id := enqueue(t, store, `{}`)
	record, _ := store.GetOrder(ctx, id)
	record.Status = domain.PendingStatusFailed
	record.Retries = maxSyncRetries
	record.LastError = "boom"
	assert.NoError(t, store.UpdateOrder(ctx, record))

	assert.NoError(t, engine.RetryOrder(ctx, id))

	record, _ = store.GetOrder(ctx, id)
	assert.Equal(t, domain.PendingStatusPending, record.Status)
	assert.Equal(t, 0, record.Retries)
	assert.Empty(t, record.LastError)
}

func TestMemoryStore_ReclaimSyncing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	id := enqueue(t, store, `{}`)
	record, _ := store.GetOrder(ctx, id)
	record.Status = domain.PendingStatusSyncing
	assert.NoError(t, store.UpdateOrder(ctx, record))

	reclaimed, err := store.ReclaimSyncing(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), reclaimed)

	record, _ = store.GetOrder(ctx, id)
	assert.Equal(t, domain.PendingStatusPending, record.Status)
}
