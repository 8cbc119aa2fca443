package mocks

import (
	"context"
	"testing"

	"selfservice-kiosk/internal/checkout"
	"selfservice-kiosk/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MachineInterface struct {
	mock.Mock
}

func NewMachineInterface(t *testing.T) *MachineInterface {
	m := &MachineInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MachineInterface) Begin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MachineInterface) SetOrderType(orderType domain.OrderType) error {
	return m.Called(orderType).Error(0)
}

func (m *MachineInterface) SetCustomer(name, phone, notes string) error {
	return m.Called(name, phone, notes).Error(0)
}

func (m *MachineInterface) SetPaymentMethod(method domain.PaymentMethod) error {
	return m.Called(method).Error(0)
}

func (m *MachineInterface) NextStep() error {
	return m.Called().Error(0)
}

func (m *MachineInterface) PreviousStep() error {
	return m.Called().Error(0)
}

func (m *MachineInterface) GoToStep(target checkout.Step) error {
	return m.Called(target).Error(0)
}

func (m *MachineInterface) CanProceed(step checkout.Step) bool {
	return m.Called(step).Bool(0)
}

func (m *MachineInterface) ProcessCheckout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MachineInterface) Cancel(ctx context.Context, reason string) error {
	return m.Called(ctx, reason).Error(0)
}

func (m *MachineInterface) Reset() {
	m.Called()
}

func (m *MachineInterface) Session() checkout.Session {
	return m.Called().Get(0).(checkout.Session)
}

func (m *MachineInterface) Order() *domain.Order {
	args := m.Called()
	var order *domain.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*domain.Order)
	}
	return order
}

func (m *MachineInterface) QRCodePNG() ([]byte, error) {
	args := m.Called()
	var png []byte
	if args.Get(0) != nil {
		png = args.Get(0).([]byte)
	}
	return png, args.Error(1)
}

var _ checkout.MachineInterface = (*MachineInterface)(nil)
