package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"selfservice-kiosk/internal/cart"
	"selfservice-kiosk/internal/client"
	"selfservice-kiosk/internal/domain"
	"selfservice-kiosk/internal/storage"

	"github.com/google/uuid"
)

type Step string

const (
	StepCart       Step = "cart"
	StepType       Step = "type"
	StepCustomer   Step = "customer"
	StepPayment    Step = "payment"
	StepProcessing Step = "processing"
	StepSuccess    Step = "success"
)

var stepOrder = []Step{StepCart, StepType, StepCustomer, StepPayment, StepProcessing, StepSuccess}

func stepIndex(step Step) int {
	for i, s := range stepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

var (
	ErrNoActiveOrder         = errors.New("no active order")
	ErrPaymentMethodRequired = errors.New("payment method required")
	ErrCannotAdvance         = errors.New("current step requirements not met")
	ErrStepLocked            = errors.New("step cannot be reached manually")
	ErrProcessing            = errors.New("checkout is processing")
)

// Session is the transient state of one checkout attempt.
type Session struct {
	CurrentStep  Step   `json:"current_step"`
	IsProcessing bool   `json:"is_processing"`
	Error        string `json:"error,omitempty"`
	OrderNumber  string `json:"order_number,omitempty"`
	QRCode       string `json:"qr_code,omitempty"`
}

type MachineInterface interface {
	Begin(ctx context.Context) error
	SetOrderType(orderType domain.OrderType) error
	SetCustomer(name, phone, notes string) error
	SetPaymentMethod(method domain.PaymentMethod) error
	NextStep() error
	PreviousStep() error
	GoToStep(target Step) error
	CanProceed(step Step) bool
	ProcessCheckout(ctx context.Context) error
	Cancel(ctx context.Context, reason string) error
	Reset()
	Session() Session
	Order() *domain.Order
	QRCodePNG() ([]byte, error)
}

// Machine drives the linear purchase flow
// cart → type → customer → payment → processing → success.
type Machine struct {
	mu     sync.Mutex
	cart   cart.AggregateInterface
	remote client.RemoteAPI
	store  storage.QueueStore
	qr     QRRenderer

	step        Step
	order       *domain.Order
	processing  bool
	lastError   string
	orderNumber string
	qrPayload   string
}

func NewMachine(agg cart.AggregateInterface, remote client.RemoteAPI, store storage.QueueStore, qr QRRenderer) *Machine {
	return &Machine{cart: agg, remote: remote, store: store, qr: qr, step: StepCart}
}

// Begin opens a draft order over the current cart.
func (m *Machine) Begin(ctx context.Context) error {
	snapshot := m.cart.Cart()
	if snapshot.ItemCount == 0 {
		return ErrCannotAdvance
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.order = &domain.Order{
		ID:        uuid.NewString(),
		Items:     snapshot.Items,
		Subtotal:  snapshot.Subtotal,
		Tax:       snapshot.Tax,
		Discount:  snapshot.Discount,
		Total:     snapshot.Total,
		Status:    domain.OrderDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.step = StepCart
	m.lastError = ""
	m.orderNumber = ""
	m.qrPayload = ""
	return nil
}

func (m *Machine) SetOrderType(orderType domain.OrderType) error {
	if !orderType.Valid() {
		return domain.NewValidationError("unknown order type")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.order == nil {
		return ErrNoActiveOrder
	}
	m.order.Type = orderType
	m.order.UpdatedAt = time.Now()
	return nil
}

func (m *Machine) SetCustomer(name, phone, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.order == nil {
		return ErrNoActiveOrder
	}
	m.order.CustomerName = name
	m.order.CustomerPhone = phone
	m.order.Notes = notes
	m.order.UpdatedAt = time.Now()
	return nil
}

func (m *Machine) SetPaymentMethod(method domain.PaymentMethod) error {
	if !method.Valid() {
		return domain.NewValidationError("unknown payment method")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.order == nil {
		return ErrNoActiveOrder
	}
	m.order.PaymentMethod = method
	m.order.Status = domain.OrderPendingPayment
	m.order.UpdatedAt = time.Now()
	return nil
}

// CanProceed reports whether the given step's requirements are met.
// processing and success never permit manual advance.
func (m *Machine) CanProceed(step Step) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canProceedLocked(step)
}

func (m *Machine) canProceedLocked(step Step) bool {
	switch step {
	case StepCart:
		return m.cart.Cart().ItemCount > 0
	case StepType:
		return m.order != nil && m.order.Type.Valid()
	case StepCustomer:
		return m.order != nil && m.order.CustomerName != ""
	case StepPayment:
		return m.order != nil && m.order.PaymentMethod.Valid()
	}
	return false
}

// NextStep advances exactly one position, stopping before processing:
// entering processing happens only through ProcessCheckout.
func (m *Machine) NextStep() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processing {
		return ErrProcessing
	}
	if m.step == StepSuccess {
		return ErrStepLocked
	}
	index := stepIndex(m.step)
	if stepOrder[index+1] == StepProcessing {
		return ErrStepLocked
	}
	if !m.canProceedLocked(m.step) {
		return ErrCannotAdvance
	}
	m.step = stepOrder[index+1]
	return nil
}

// PreviousStep moves one position back. Back navigation is disabled
// while processing and from the terminal success step.
func (m *Machine) PreviousStep() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processing || m.step == StepProcessing {
		return ErrProcessing
	}
	if m.step == StepSuccess {
		return ErrStepLocked
	}
	index := stepIndex(m.step)
	if index == 0 {
		return nil
	}
	m.step = stepOrder[index-1]
	return nil
}

// GoToStep allows free movement to earlier steps and a single forward
// hop; required steps cannot be skipped and success is terminal.
func (m *Machine) GoToStep(target Step) error {
	targetIndex := stepIndex(target)
	if targetIndex < 0 {
		return domain.NewValidationError("unknown checkout step")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processing || m.step == StepProcessing {
		return ErrProcessing
	}
	if m.step == StepSuccess || target == StepProcessing || target == StepSuccess {
		return ErrStepLocked
	}
	current := stepIndex(m.step)
	if targetIndex <= current {
		m.step = target
		return nil
	}
	if targetIndex > current+1 {
		return ErrStepLocked
	}
	if !m.canProceedLocked(m.step) {
		return ErrCannotAdvance
	}
	m.step = target
	return nil
}

// ProcessCheckout submits the order. The submission payload is written
// to the durable queue before the remote call, so a crash mid-flight
// leaves a pending record the sync engine resumes from. On any failure
// the flow rolls back to the payment step, keeping the collected
// customer and payment context.
func (m *Machine) ProcessCheckout(ctx context.Context) error {
	m.mu.Lock()
	if m.processing {
		m.mu.Unlock()
		return ErrProcessing
	}
	if m.order == nil {
		m.mu.Unlock()
		return ErrNoActiveOrder
	}
	if !m.order.PaymentMethod.Valid() {
		m.mu.Unlock()
		return ErrPaymentMethodRequired
	}
	order := *m.order
	m.step = StepProcessing
	m.processing = true
	m.lastError = ""
	m.mu.Unlock()

	err := m.submit(ctx, &order)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.processing = false
	if err != nil {
		appErr := domain.Normalize(err)
		m.step = StepPayment
		m.lastError = appErr.Message
		return appErr
	}
	m.order = &order
	m.step = StepSuccess
	return nil
}

func (m *Machine) submit(ctx context.Context, order *domain.Order) error {
	submission := domain.SubmissionFromOrder(order)
	payload, err := json.Marshal(submission)
	if err != nil {
		return domain.NewSystemError(err)
	}

	pendingID, err := m.store.EnqueueOrder(ctx, payload)
	if err != nil {
		// Degraded path: attempt the submission anyway, there is just
		// no crash recovery for it.
		log.Printf("Warning: failed to enqueue order before submission: %v", err)
	}
	// Mark the record in flight so a concurrent sync pass does not
	// replay the same payload.
	m.markPending(ctx, pendingID, domain.PendingStatusSyncing)

	result, err := m.remote.SubmitOrder(ctx, submission)
	if err != nil {
		m.markPending(ctx, pendingID, domain.PendingStatusPending)
		return err
	}
	m.markPending(ctx, pendingID, domain.PendingStatusSynced)

	order.ID = result.ID
	order.Status = domain.OrderConfirmed
	order.OrderNumber = result.OrderNumber
	order.UpdatedAt = time.Now()

	qrPayload := ""
	if order.PaymentMethod != domain.PaymentCash {
		payment, err := m.remote.ProcessPayment(ctx, result.ID, order.PaymentMethod, order.Total)
		if err != nil {
			return err
		}
		order.Status = domain.OrderPaid
		qrPayload = payment.QRCode
	}

	if _, err := m.cart.Clear(ctx); err != nil {
		log.Printf("Warning: failed to clear cart after checkout: %v", err)
	}

	m.mu.Lock()
	m.orderNumber = result.OrderNumber
	m.qrPayload = qrPayload
	m.mu.Unlock()
	return nil
}

func (m *Machine) markPending(ctx context.Context, pendingID string, status domain.PendingStatus) {
	if pendingID == "" {
		return
	}
	record, err := m.store.GetOrder(ctx, pendingID)
	if err != nil {
		log.Printf("Warning: failed to load pending record %s: %v", pendingID, err)
		return
	}
	record.Status = status
	if err := m.store.UpdateOrder(ctx, record); err != nil {
		log.Printf("Warning: failed to mark pending record %s %s: %v", pendingID, status, err)
	}
}

// Cancel aborts the active order. If it already reached the remote
// service the cancellation call is attempted directly and queued for
// the sync engine when it fails.
func (m *Machine) Cancel(ctx context.Context, reason string) error {
	m.mu.Lock()
	if m.order == nil {
		m.mu.Unlock()
		return ErrNoActiveOrder
	}
	if m.processing {
		m.mu.Unlock()
		return ErrProcessing
	}
	order := *m.order
	m.mu.Unlock()

	if order.OrderNumber != "" {
		if err := m.remote.CancelOrder(ctx, order.ID, reason); err != nil {
			var body json.RawMessage
			if reason != "" {
				body, _ = json.Marshal(map[string]string{"reason": reason})
			}
			if deferErr := m.store.EnqueueSyncItem(ctx, domain.SyncQueueItem{
				Type:      "cancel_order",
				Endpoint:  "/orders/" + order.ID + "/cancel",
				Method:    "POST",
				Data:      body,
				Timestamp: time.Now().UTC(),
			}); deferErr != nil {
				return deferErr
			}
		}
	}

	m.mu.Lock()
	m.order = nil
	m.step = StepCart
	m.lastError = ""
	m.orderNumber = ""
	m.qrPayload = ""
	m.mu.Unlock()
	return nil
}

// Reset discards the session without touching the remote service.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = nil
	m.step = StepCart
	m.processing = false
	m.lastError = ""
	m.orderNumber = ""
	m.qrPayload = ""
}

func (m *Machine) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Session{
		CurrentStep:  m.step,
		IsProcessing: m.processing,
		Error:        m.lastError,
		OrderNumber:  m.orderNumber,
		QRCode:       m.qrPayload,
	}
}

func (m *Machine) Order() *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.order == nil {
		return nil
	}
	order := *m.order
	return &order
}

// QRCodePNG renders the payment QR payload for the success screen.
func (m *Machine) QRCodePNG() ([]byte, error) {
	m.mu.Lock()
	payload := m.qrPayload
	m.mu.Unlock()
	if payload == "" {
		return nil, domain.NewValidationError("no payment qr code available")
	}
	return m.qr.Render(payload)
}

var _ MachineInterface = (*Machine)(nil)
