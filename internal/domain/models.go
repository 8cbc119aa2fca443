package domain

import (
	"encoding/json"
	"time"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeout  OrderType = "takeout"
	OrderTypeDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeout, OrderTypeDelivery:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentPix        PaymentMethod = "pix"
	PaymentCash       PaymentMethod = "cash"
	PaymentVoucher    PaymentMethod = "voucher"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentPix, PaymentCash, PaymentVoucher:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderDraft          OrderStatus = "draft"
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderPaid           OrderStatus = "paid"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

type Addition struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Removal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Customizations struct {
	Additions []Addition `json:"additions,omitempty"`
	Removals  []Removal  `json:"removals,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// Key serializes the customizations into a stable value used to decide
// whether two lines for the same product can be merged.
func (c Customizations) Key() string {
	raw, _ := json.Marshal(c)
	return string(raw)
}

type CartLine struct {
	ID             string         `json:"id"`
	ProductID      string         `json:"product_id"`
	Name           string         `json:"name"`
	UnitPrice      float64        `json:"unit_price"`
	Quantity       int            `json:"quantity"`
	Customizations Customizations `json:"customizations"`
	Subtotal       float64        `json:"subtotal"`
}

type Cart struct {
	Items     []CartLine `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	Tax       float64    `json:"tax"`
	Discount  float64    `json:"discount"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
}

type Order struct {
	ID            string        `json:"id"`
	OrderNumber   string        `json:"order_number,omitempty"`
	Items         []CartLine    `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	Discount      float64       `json:"discount"`
	Total         float64       `json:"total"`
	Type          OrderType     `json:"type"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        OrderStatus   `json:"status"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type PendingStatus string

const (
	PendingStatusPending PendingStatus = "pending"
	PendingStatusSyncing PendingStatus = "syncing"
	PendingStatusSynced  PendingStatus = "synced"
	PendingStatusFailed  PendingStatus = "failed"
)

// PendingOrder is the write-ahead record of an order submission. It is
// written before the first remote attempt and kept after success as an
// audit trail.
type PendingOrder struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Status    PendingStatus   `json:"status"`
	Retries   int             `json:"retries"`
	LastError string          `json:"last_error,omitempty"`
}

// SyncQueueItem carries a secondary state-change call (status update,
// cancellation). Unlike pending orders it is deleted on success and
// discarded once it exhausts its retries.
type SyncQueueItem struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Endpoint  string          `json:"endpoint"`
	Method    string          `json:"method"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Retries   int             `json:"retries"`
}

// OrderSubmission is the wire payload for POST /selfservice/orders.
type OrderSubmission struct {
	Items         []SubmissionItem `json:"items"`
	Type          OrderType        `json:"type"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	Subtotal      float64          `json:"subtotal"`
	Tax           float64          `json:"tax"`
	Total         float64          `json:"total"`
}

type SubmissionItem struct {
	ProductID      string         `json:"product_id"`
	Quantity       int            `json:"quantity"`
	Price          float64        `json:"price"`
	Customizations Customizations `json:"customizations"`
}

// SubmissionFromOrder snapshots an order into its wire payload.
func SubmissionFromOrder(order *Order) OrderSubmission {
	items := make([]SubmissionItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, SubmissionItem{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			Price:          line.UnitPrice,
			Customizations: line.Customizations,
		})
	}
	return OrderSubmission{
		Items:         items,
		Type:          order.Type,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Notes:         order.Notes,
		PaymentMethod: order.PaymentMethod,
		Subtotal:      order.Subtotal,
		Tax:           order.Tax,
		Total:         order.Total,
	}
}

// OrderEvent is published to Kafka when a queued order reaches a
// terminal sync outcome.
type OrderEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	Retries   int       `json:"retries"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
