package mocks

import (
	"context"
	"encoding/json"
	"testing"

	"selfservice-kiosk/internal/client"
	"selfservice-kiosk/internal/domain"

	"github.com/stretchr/testify/mock"
)

type RemoteAPI struct {
	mock.Mock
}

func NewRemoteAPI(t *testing.T) *RemoteAPI {
	m := &RemoteAPI{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *RemoteAPI) SubmitOrder(ctx context.Context, submission domain.OrderSubmission) (*client.SubmitResult, error) {
	args := m.Called(ctx, submission)
	var result *client.SubmitResult
	if args.Get(0) != nil {
		result = args.Get(0).(*client.SubmitResult)
	}
	return result, args.Error(1)
}

func (m *RemoteAPI) SubmitRaw(ctx context.Context, payload json.RawMessage) (*client.SubmitResult, error) {
	args := m.Called(ctx, payload)
	var result *client.SubmitResult
	if args.Get(0) != nil {
		result = args.Get(0).(*client.SubmitResult)
	}
	return result, args.Error(1)
}

func (m *RemoteAPI) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, notes string) error {
	return m.Called(ctx, orderID, status, notes).Error(0)
}

func (m *RemoteAPI) CancelOrder(ctx context.Context, orderID, reason string) error {
	return m.Called(ctx, orderID, reason).Error(0)
}

func (m *RemoteAPI) ProcessPayment(ctx context.Context, orderID string, method domain.PaymentMethod, amount float64) (*client.PaymentResult, error) {
	args := m.Called(ctx, orderID, method, amount)
	var result *client.PaymentResult
	if args.Get(0) != nil {
		result = args.Get(0).(*client.PaymentResult)
	}
	return result, args.Error(1)
}

func (m *RemoteAPI) Do(ctx context.Context, method, endpoint string, payload json.RawMessage) error {
	return m.Called(ctx, method, endpoint, payload).Error(0)
}

func (m *RemoteAPI) Healthy(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

var _ client.RemoteAPI = (*RemoteAPI)(nil)
