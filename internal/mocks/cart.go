package mocks

import (
	"context"
	"testing"

	"selfservice-kiosk/internal/cart"
	"selfservice-kiosk/internal/domain"

	"github.com/stretchr/testify/mock"
)

type AggregateInterface struct {
	mock.Mock
}

func NewAggregateInterface(t *testing.T) *AggregateInterface {
	m := &AggregateInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AggregateInterface) AddItem(ctx context.Context, line domain.CartLine) (domain.Cart, error) {
	args := m.Called(ctx, line)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *AggregateInterface) UpdateQuantity(ctx context.Context, id string, quantity int) (domain.Cart, error) {
	args := m.Called(ctx, id, quantity)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *AggregateInterface) UpdateCustomizations(ctx context.Context, id string, c domain.Customizations) (domain.Cart, error) {
	args := m.Called(ctx, id, c)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *AggregateInterface) RemoveItem(ctx context.Context, id string) (domain.Cart, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *AggregateInterface) Clear(ctx context.Context) (domain.Cart, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *AggregateInterface) Cart() domain.Cart {
	return m.Called().Get(0).(domain.Cart)
}

var _ cart.AggregateInterface = (*AggregateInterface)(nil)

type SessionStore struct {
	mock.Mock
}

func NewSessionStore(t *testing.T) *SessionStore {
	m := &SessionStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SessionStore) Save(ctx context.Context, snapshot domain.Cart) error {
	return m.Called(ctx, snapshot).Error(0)
}

func (m *SessionStore) Load(ctx context.Context) (*domain.Cart, error) {
	args := m.Called(ctx)
	var snapshot *domain.Cart
	if args.Get(0) != nil {
		snapshot = args.Get(0).(*domain.Cart)
	}
	return snapshot, args.Error(1)
}

func (m *SessionStore) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var _ cart.SessionStore = (*SessionStore)(nil)
