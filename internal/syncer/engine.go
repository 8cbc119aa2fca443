package syncer

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"selfservice-kiosk/internal/client"
	"selfservice-kiosk/internal/domain"
	"selfservice-kiosk/internal/storage"

	"github.com/google/uuid"
)

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}

type EngineInterface interface {
	SyncAll(ctx context.Context)
	SyncOrder(ctx context.Context, id string) error
	ProcessSyncQueue(ctx context.Context)
	Defer(ctx context.Context, itemType, method, endpoint string, payload json.RawMessage) error
	RetryOrder(ctx context.Context, id string) error
}

// Engine drains the durable queue against the remote service. One pass
// runs at a time; items are processed sequentially, oldest first.
type Engine struct {
	store      storage.QueueStore
	remote     client.RemoteAPI
	publisher  EventPublisher
	maxRetries int
	syncing    atomic.Bool
}

func NewEngine(store storage.QueueStore, remote client.RemoteAPI, publisher EventPublisher, maxRetries int) *Engine {
	return &Engine{store: store, remote: remote, publisher: publisher, maxRetries: maxRetries}
}

// SyncAll is single-flight: a trigger arriving while a pass runs is a
// no-op, not queued.
func (e *Engine) SyncAll(ctx context.Context) {
	if !e.syncing.CompareAndSwap(false, true) {
		return
	}
	defer e.syncing.Store(false)

	for _, record := range e.retryable(ctx) {
		if err := e.SyncOrder(ctx, record.ID); err != nil {
			log.Printf("Sync failed for order %s: %v", record.ID, err)
		}
	}
	e.ProcessSyncQueue(ctx)
}

// retryable returns pending records plus failed ones that have not
// exhausted their retries, in submission order.
func (e *Engine) retryable(ctx context.Context) []domain.PendingOrder {
	pending, err := e.store.ListOrdersByStatus(ctx, domain.PendingStatusPending)
	if err != nil {
		log.Printf("Failed to list pending orders: %v", err)
		return nil
	}
	failed, err := e.store.ListOrdersByStatus(ctx, domain.PendingStatusFailed)
	if err != nil {
		log.Printf("Failed to list failed orders: %v", err)
		failed = nil
	}

	var records []domain.PendingOrder
	for _, record := range append(pending, failed...) {
		if record.Retries < e.maxRetries {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
	return records
}

// SyncOrder submits one queued order. Already-synced records are an
// idempotent no-op and are never re-submitted. The syncing transition
// is persisted before the network call.
func (e *Engine) SyncOrder(ctx context.Context, id string) error {
	record, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if record.Status == domain.PendingStatusSynced {
		return nil
	}

	record.Status = domain.PendingStatusSyncing
	if err := e.store.UpdateOrder(ctx, record); err != nil {
		return err
	}

	result, submitErr := e.remote.SubmitRaw(ctx, record.Data)
	if submitErr == nil {
		record.Status = domain.PendingStatusSynced
		record.LastError = ""
		if err := e.store.UpdateOrder(ctx, record); err != nil {
			return err
		}
		e.publish(ctx, domain.OrderEvent{
			Type:      "order_synced",
			OrderID:   record.ID,
			Retries:   record.Retries,
			Timestamp: time.Now(),
		})
		log.Printf("Order %s synced (remote order %s)", record.ID, result.OrderNumber)
		return nil
	}

	// Reload before writing the failure, the record may have been
	// touched while the call was in flight.
	record, err = e.store.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	record.Status = domain.PendingStatusFailed
	record.Retries++
	record.LastError = submitErr.Error()
	if err := e.store.UpdateOrder(ctx, record); err != nil {
		return err
	}
	if record.Retries >= e.maxRetries {
		e.publish(ctx, domain.OrderEvent{
			Type:      "order_failed",
			OrderID:   record.ID,
			Retries:   record.Retries,
			Error:     record.LastError,
			Timestamp: time.Now(),
		})
	}
	return submitErr
}

// ProcessSyncQueue drains the generic state-change queue. Successful
// items are deleted; items that exhaust their retries are discarded
// rather than retried forever.
func (e *Engine) ProcessSyncQueue(ctx context.Context) {
	items, err := e.store.ListSyncQueue(ctx)
	if err != nil {
		log.Printf("Failed to list sync queue: %v", err)
		return
	}

	for _, item := range items {
		if err := e.remote.Do(ctx, item.Method, item.Endpoint, item.Data); err != nil {
			item.Retries++
			if item.Retries >= e.maxRetries {
				log.Printf("Discarding sync item %s (%s) after %d retries: %v", item.ID, item.Type, item.Retries, err)
				if delErr := e.store.DeleteSyncItem(ctx, item.ID); delErr != nil {
					log.Printf("Failed to discard sync item %s: %v", item.ID, delErr)
				}
				continue
			}
			if updErr := e.store.UpdateSyncItem(ctx, &item); updErr != nil {
				log.Printf("Failed to update sync item %s: %v", item.ID, updErr)
			}
			continue
		}
		if err := e.store.DeleteSyncItem(ctx, item.ID); err != nil {
			log.Printf("Failed to delete sync item %s: %v", item.ID, err)
		}
	}
}

// Defer enqueues a secondary state-change call for the next pass.
func (e *Engine) Defer(ctx context.Context, itemType, method, endpoint string, payload json.RawMessage) error {
	return e.store.EnqueueSyncItem(ctx, domain.SyncQueueItem{
		ID:        uuid.NewString(),
		Type:      itemType,
		Endpoint:  endpoint,
		Method:    method,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	})
}

// RetryOrder puts an exhausted failed record back into rotation.
func (e *Engine) RetryOrder(ctx context.Context, id string) error {
	record, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if record.Status == domain.PendingStatusSynced {
		return nil
	}
	record.Status = domain.PendingStatusPending
	record.Retries = 0
	record.LastError = ""
	return e.store.UpdateOrder(ctx, record)
}

func (e *Engine) publish(ctx context.Context, event domain.OrderEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishOrderEvent(ctx, event); err != nil {
		log.Printf("Warning: failed to publish order event: %v", err)
	}
}

var _ EngineInterface = (*Engine)(nil)
