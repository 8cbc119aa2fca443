package mocks

import (
	"context"
	"encoding/json"
	"testing"

	httpapi "selfservice-kiosk/internal/api/http"
	"selfservice-kiosk/internal/domain"
	"selfservice-kiosk/internal/syncer"

	"github.com/stretchr/testify/mock"
)

type EngineInterface struct {
	mock.Mock
}

func NewEngineInterface(t *testing.T) *EngineInterface {
	m := &EngineInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EngineInterface) SyncAll(ctx context.Context) {
	m.Called(ctx)
}

func (m *EngineInterface) SyncOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *EngineInterface) ProcessSyncQueue(ctx context.Context) {
	m.Called(ctx)
}

func (m *EngineInterface) Defer(ctx context.Context, itemType, method, endpoint string, payload json.RawMessage) error {
	return m.Called(ctx, itemType, method, endpoint, payload).Error(0)
}

func (m *EngineInterface) RetryOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

var _ syncer.EngineInterface = (*EngineInterface)(nil)

type EventPublisher struct {
	mock.Mock
}

func NewEventPublisher(t *testing.T) *EventPublisher {
	m := &EventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EventPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

var _ syncer.EventPublisher = (*EventPublisher)(nil)

type Waker struct {
	mock.Mock
}

func NewWaker(t *testing.T) *Waker {
	m := &Waker{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Waker) Wake(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *Waker) Online() bool {
	return m.Called().Bool(0)
}

var _ httpapi.Waker = (*Waker)(nil)
