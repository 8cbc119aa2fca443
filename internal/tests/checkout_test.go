package tests

import (
	"context"
	"errors"
	"testing"

	"selfservice-kiosk/internal/cart"
	"selfservice-kiosk/internal/checkout"
	"selfservice-kiosk/internal/client"
	"selfservice-kiosk/internal/domain"
	"selfservice-kiosk/internal/mocks"
	"selfservice-kiosk/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCheckoutFixture(t *testing.T) (*checkout.Machine, *cart.Aggregate, *storage.MemoryStore, *mocks.RemoteAPI) {
	agg := cart.NewAggregate(0.10, nil)
	store := storage.NewMemoryStore()
	remote := mocks.NewRemoteAPI(t)
	machine := checkout.NewMachine(agg, remote, store, checkout.PixQRRenderer{})
	return machine, agg, store, remote
}

func fillCart(t *testing.T, agg *cart.Aggregate) {
	t.Helper()
	_, err := agg.AddItem(context.Background(), line("p1", 20, 2))
	assert.NoError(t, err)
}

func TestCheckout_BeginRequiresItems(t *testing.T) {
	machine, _, _, _ := newCheckoutFixture(t)
	assert.ErrorIs(t, machine.Begin(context.Background()), checkout.ErrCannotAdvance)
}

func TestCheckout_StepGuards(t *testing.T) {
	ctx := context.Background()
	machine, agg, _, _ := newCheckoutFixture(t)
	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))

	assert.True(t, machine.CanProceed(checkout.StepCart))
	assert.False(t, machine.CanProceed(checkout.StepType))
	assert.False(t, machine.CanProceed(checkout.StepCustomer))
	assert.False(t, machine.CanProceed(checkout.StepPayment))
	assert.False(t, machine.CanProceed(checkout.StepProcessing))
	assert.False(t, machine.CanProceed(checkout.StepSuccess))

	assert.NoError(t, machine.SetOrderType(domain.OrderTypeDineIn))
	assert.True(t, machine.CanProceed(checkout.StepType))

	assert.NoError(t, machine.SetCustomer("Maria", "555-0101", ""))
	assert.True(t, machine.CanProceed(checkout.StepCustomer))

	assert.NoError(t, machine.SetPaymentMethod(domain.PaymentPix))
	assert.True(t, machine.CanProceed(checkout.StepPayment))
}

func TestCheckout_Navigation(t *testing.T) {
	ctx := context.Background()
	machine, agg, _, _ := newCheckoutFixture(t)
	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))

	// cannot skip ahead
	assert.ErrorIs(t, machine.GoToStep(checkout.StepCustomer), checkout.ErrStepLocked)

	assert.NoError(t, machine.NextStep())
	assert.Equal(t, checkout.StepType, machine.Session().CurrentStep)

	// type not selected yet
	assert.ErrorIs(t, machine.NextStep(), checkout.ErrCannotAdvance)

	assert.NoError(t, machine.SetOrderType(domain.OrderTypeTakeout))
	assert.NoError(t, machine.NextStep())
	assert.NoError(t, machine.SetCustomer("Jo", "", ""))
	assert.NoError(t, machine.NextStep())
	assert.Equal(t, checkout.StepPayment, machine.Session().CurrentStep)

	// processing is never reachable manually
	assert.ErrorIs(t, machine.GoToStep(checkout.StepProcessing), checkout.ErrStepLocked)
	assert.NoError(t, machine.SetPaymentMethod(domain.PaymentCash))
	assert.ErrorIs(t, machine.NextStep(), checkout.ErrStepLocked)

	// moving back is always allowed
	assert.NoError(t, machine.GoToStep(checkout.StepCart))
	assert.Equal(t, checkout.StepCart, machine.Session().CurrentStep)

	assert.NoError(t, machine.PreviousStep())
	assert.Equal(t, checkout.StepCart, machine.Session().CurrentStep)
}

func TestCheckout_ProcessPreconditions(t *testing.T) {
	ctx := context.Background()
	machine, agg, _, _ := newCheckoutFixture(t)

	assert.ErrorIs(t, machine.ProcessCheckout(ctx), checkout.ErrNoActiveOrder)

	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))
	assert.NoError(t, machine.SetOrderType(domain.OrderTypeDineIn))
	assert.NoError(t, machine.SetCustomer("Maria", "", ""))
	assert.NoError(t, machine.NextStep())
	assert.NoError(t, machine.NextStep())
	assert.NoError(t, machine.NextStep())
	assert.Equal(t, checkout.StepPayment, machine.Session().CurrentStep)

	assert.False(t, machine.CanProceed(checkout.StepPayment))
	assert.ErrorIs(t, machine.ProcessCheckout(ctx), checkout.ErrPaymentMethodRequired)
	assert.Equal(t, checkout.StepPayment, machine.Session().CurrentStep)
}

func TestCheckout_ProcessCashSuccess(t *testing.T) {
	ctx := context.Background()
	machine, agg, store, remote := newCheckoutFixture(t)
	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))
	assert.NoError(t, machine.SetOrderType(domain.OrderTypeDineIn))
	assert.NoError(t, machine.SetCustomer("Maria", "", ""))
	assert.NoError(t, machine.SetPaymentMethod(domain.PaymentCash))

	remote.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(&client.SubmitResult{ID: "o-1", OrderNumber: "A042", Status: "confirmed"}, nil).Once()

	assert.NoError(t, machine.ProcessCheckout(ctx))

	session := machine.Session()
	assert.Equal(t, checkout.StepSuccess, session.CurrentStep)
	assert.Equal(t, "A042", session.OrderNumber)
	assert.Empty(t, session.QRCode)

	// cash never touches the payment endpoint
	remote.AssertNotCalled(t, "ProcessPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// cart cleared, write-ahead record resolved
	assert.Equal(t, 0, agg.Cart().ItemCount)
	synced, err := store.ListOrdersByStatus(ctx, domain.PendingStatusSynced)
	assert.NoError(t, err)
	assert.Len(t, synced, 1)
}

func TestCheckout_ProcessPixCarriesQRCode(t *testing.T) {
	ctx := context.Background()
	machine, agg, _, remote := newCheckoutFixture(t)
	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))
	assert.NoError(t, machine.SetOrderType(domain.OrderTypeTakeout))
	assert.NoError(t, machine.SetCustomer("Jo", "", ""))
	assert.NoError(t, machine.SetPaymentMethod(domain.PaymentPix))

	remote.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(&client.SubmitResult{ID: "o-2", OrderNumber: "A043"}, nil).Once()
	remote.On("ProcessPayment", mock.Anything, "o-2", domain.PaymentPix, mock.Anything).
		Return(&client.PaymentResult{Success: true, QRCode: "pix-copy-paste-payload", Status: "pending"}, nil).Once()

	assert.NoError(t, machine.ProcessCheckout(ctx))

	session := machine.Session()
	assert.Equal(t, checkout.StepSuccess, session.CurrentStep)
	assert.Equal(t, "pix-copy-paste-payload", session.QRCode)

	png, err := machine.QRCodePNG()
	assert.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestCheckout_SuccessStepIsTerminal(t *testing.T) {
	ctx := context.Background()
	machine, agg, _, remote := newCheckoutFixture(t)
	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))
	assert.NoError(t, machine.SetOrderType(domain.OrderTypeDineIn))
	assert.NoError(t, machine.SetCustomer("Maria", "", ""))
	assert.NoError(t, machine.SetPaymentMethod(domain.PaymentCash))

	remote.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(&client.SubmitResult{ID: "o-1", OrderNumber: "A042"}, nil).Once()
	assert.NoError(t, machine.ProcessCheckout(ctx))
	assert.Equal(t, checkout.StepSuccess, machine.Session().CurrentStep)

	// no navigation leaves the terminal step
	assert.ErrorIs(t, machine.NextStep(), checkout.ErrStepLocked)
	assert.ErrorIs(t, machine.PreviousStep(), checkout.ErrStepLocked)
	assert.ErrorIs(t, machine.GoToStep(checkout.StepPayment), checkout.ErrStepLocked)
	assert.Equal(t, checkout.StepSuccess, machine.Session().CurrentStep)
}

func TestCheckout_ProcessRejectsReentry(t *testing.T) {
	ctx := context.Background()
	machine, agg, _, remote := newCheckoutFixture(t)
	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))
	assert.NoError(t, machine.SetOrderType(domain.OrderTypeDineIn))
	assert.NoError(t, machine.SetCustomer("Maria", "", ""))
	assert.NoError(t, machine.SetPaymentMethod(domain.PaymentCash))

	started := make(chan struct{})
	release := make(chan struct{})
	remote.On("SubmitOrder", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&client.SubmitResult{ID: "o-1", OrderNumber: "A042"}, nil).Once()

	done := make(chan error, 1)
	go func() { done <- machine.ProcessCheckout(ctx) }()

	<-started
	// a double-tap while the submission is in flight must not submit again
	assert.ErrorIs(t, machine.ProcessCheckout(ctx), checkout.ErrProcessing)
	close(release)
	assert.NoError(t, <-done)

	remote.AssertNumberOfCalls(t, "SubmitOrder", 1)
}

func TestCheckout_RecordMarkedSyncingDuringSubmission(t *testing.T) {
	ctx := context.Background()
	machine, agg, store, remote := newCheckoutFixture(t)
	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))
	assert.NoError(t, machine.SetOrderType(domain.OrderTypeDineIn))
	assert.NoError(t, machine.SetCustomer("Maria", "", ""))
	assert.NoError(t, machine.SetPaymentMethod(domain.PaymentCash))

	// while the direct call is in flight the record must not be listed
	// as pending, or a concurrent sync pass would replay it
	remote.On("SubmitOrder", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			pending, err := store.ListOrdersByStatus(ctx, domain.PendingStatusPending)
			assert.NoError(t, err)
			assert.Empty(t, pending)
			syncing, err := store.ListOrdersByStatus(ctx, domain.PendingStatusSyncing)
			assert.NoError(t, err)
			assert.Len(t, syncing, 1)
		}).
		Return(&client.SubmitResult{ID: "o-1", OrderNumber: "A042"}, nil).Once()

	assert.NoError(t, machine.ProcessCheckout(ctx))

	synced, err := store.ListOrdersByStatus(ctx, domain.PendingStatusSynced)
	assert.NoError(t, err)
	assert.Len(t, synced, 1)
}

func TestCheckout_SubmitFailureRollsBackToPayment(t *testing.T) {
	ctx := context.Background()
	machine, agg, store, remote := newCheckoutFixture(t)
	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))
	assert.NoError(t, machine.SetOrderType(domain.OrderTypeDineIn))
	assert.NoError(t, machine.SetCustomer("Maria", "", ""))
	assert.NoError(t, machine.SetPaymentMethod(domain.PaymentCreditCard))

	remote.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(nil, domain.NewRemoteError(503, "service unavailable")).Once()

	err := machine.ProcessCheckout(ctx)
	assert.Error(t, err)

	session := machine.Session()
	assert.Equal(t, checkout.StepPayment, session.CurrentStep)
	assert.NotEmpty(t, session.Error)

	// customer and payment context survive the rollback
	order := machine.Order()
	assert.Equal(t, "Maria", order.CustomerName)
	assert.Equal(t, domain.PaymentCreditCard, order.PaymentMethod)

	// the write-ahead record stays queued for the sync engine
	pending, listErr := store.ListOrdersByStatus(ctx, domain.PendingStatusPending)
	assert.NoError(t, listErr)
	assert.Len(t, pending, 1)
}

func TestCheckout_PaymentFailureRollsBackToPayment(t *testing.T) {
	ctx := context.Background()
	machine, agg, _, remote := newCheckoutFixture(t)
	fillCart(t, agg)
	assert.NoError(t, machine.Begin(ctx))
	assert.NoError(t, machine.SetOrderType(domain.OrderTypeDineIn))
	assert.NoError(t, machine.SetCustomer("Maria", "", ""))
	assert.NoError(t, machine.SetPaymentMethod(domain.PaymentDebitCard))

	remote.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(&client.SubmitResult{ID: "o-3", OrderNumber: "A044"}, nil).Once()
	remote.On("ProcessPayment", mock.Anything, "o-3", domain.PaymentDebitCard, mock.Anything).
		Return(nil, domain.NewPaymentError("payment was declined")).Once()

	err := machine.ProcessCheckout(ctx)
	assert.Error(t, err)

	var appErr *domain.Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.ErrKindPayment, appErr.Kind)
	assert.False(t, appErr.Recoverable())

	assert.Equal(t, checkout.StepPayment, machine.Session().CurrentStep)
}
