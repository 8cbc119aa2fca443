package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"selfservice-kiosk/internal/domain"

	"github.com/google/uuid"
)

type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pending_orders (
			id TEXT PRIMARY KEY,
			data JSONB NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			retries INT NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			method TEXT NOT NULL,
			data JSONB,
			timestamp TIMESTAMPTZ NOT NULL,
			retries INT NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.DB.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// EnqueueOrder durably records the submission before any network
// attempt is made.
func (s *PostgresStore) EnqueueOrder(ctx context.Context, payload json.RawMessage) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO pending_orders (id, data, timestamp, status, retries, last_error)
		VALUES ($1, $2, $3, 'pending', 0, '')
	`, id, []byte(payload), time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*domain.PendingOrder, error) {
	var record domain.PendingOrder
	var data []byte
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, data, timestamp, status, retries, last_error
		FROM pending_orders WHERE id = $1
	`, id).Scan(&record.ID, &data, &record.Timestamp, &record.Status, &record.Retries, &record.LastError)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record.Data = data
	return &record, nil
}

// UpdateOrder refuses to move a synced record anywhere else; synced is
// terminal.
func (s *PostgresStore) UpdateOrder(ctx context.Context, record *domain.PendingOrder) error {
	result, err := s.DB.ExecContext(ctx, `
		UPDATE pending_orders
		SET status = $2, retries = $3, last_error = $4
		WHERE id = $1 AND (status <> 'synced' OR $2 = 'synced')
	`, record.ID, record.Status, record.Retries, record.LastError)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListOrdersByStatus(ctx context.Context, status domain.PendingStatus) ([]domain.PendingOrder, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, data, timestamp, status, retries, last_error
		FROM pending_orders
		WHERE status = $1
		ORDER BY timestamp ASC
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PendingOrder
	for rows.Next() {
		var record domain.PendingOrder
		var data []byte
		if err := rows.Scan(&record.ID, &data, &record.Timestamp, &record.Status, &record.Retries, &record.LastError); err != nil {
			continue
		}
		record.Data = data
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *PostgresStore) DeleteOrder(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM pending_orders WHERE id = $1", id)
	return err
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, "DELETE FROM pending_orders"); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, "DELETE FROM sync_queue")
	return err
}

func (s *PostgresStore) EnqueueSyncItem(ctx context.Context, item domain.SyncQueueItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO sync_queue (id, type, endpoint, method, data, timestamp, retries)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.Type, item.Endpoint, item.Method, []byte(item.Data), item.Timestamp, item.Retries)
	return err
}

func (s *PostgresStore) ListSyncQueue(ctx context.Context) ([]domain.SyncQueueItem, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, type, endpoint, method, data, timestamp, retries
		FROM sync_queue
		ORDER BY timestamp ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SyncQueueItem
	for rows.Next() {
		var item domain.SyncQueueItem
		var data []byte
		if err := rows.Scan(&item.ID, &item.Type, &item.Endpoint, &item.Method, &data, &item.Timestamp, &item.Retries); err != nil {
			continue
		}
		item.Data = data
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) UpdateSyncItem(ctx context.Context, item *domain.SyncQueueItem) error {
	_, err := s.DB.ExecContext(ctx, "UPDATE sync_queue SET retries = $2 WHERE id = $1", item.ID, item.Retries)
	return err
}

func (s *PostgresStore) DeleteSyncItem(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM sync_queue WHERE id = $1", id)
	return err
}

func (s *PostgresStore) ReclaimSyncing(ctx context.Context) (int64, error) {
	result, err := s.DB.ExecContext(ctx, "UPDATE pending_orders SET status = 'pending' WHERE status = 'syncing'")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

var _ QueueStore = (*PostgresStore)(nil)
