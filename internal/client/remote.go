package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"selfservice-kiosk/internal/domain"
)

type SubmitResult struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
}

type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	QRCode        string `json:"qr_code,omitempty"`
	Status        string `json:"status"`
}

type RemoteAPI interface {
	SubmitOrder(ctx context.Context, submission domain.OrderSubmission) (*SubmitResult, error)
	SubmitRaw(ctx context.Context, payload json.RawMessage) (*SubmitResult, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, notes string) error
	CancelOrder(ctx context.Context, orderID, reason string) error
	ProcessPayment(ctx context.Context, orderID string, method domain.PaymentMethod, amount float64) (*PaymentResult, error)
	Do(ctx context.Context, method, endpoint string, payload json.RawMessage) error
	Healthy(ctx context.Context) bool
}

// Remote is the typed client for the order/payment service.
type Remote struct {
	baseURL        string
	doer           Doer
	paymentTimeout time.Duration
}

func NewRemote(baseURL string, doer Doer, paymentTimeout time.Duration) *Remote {
	return &Remote{baseURL: baseURL, doer: doer, paymentTimeout: paymentTimeout}
}

func (r *Remote) SubmitOrder(ctx context.Context, submission domain.OrderSubmission) (*SubmitResult, error) {
	resp, err := r.doer.Send(ctx, http.MethodPost, r.baseURL+"/selfservice/orders", submission, Options{})
	if err != nil {
		return nil, err
	}
	return decodeSubmit(resp.Body)
}

// SubmitRaw replays a previously enqueued submission payload verbatim.
func (r *Remote) SubmitRaw(ctx context.Context, payload json.RawMessage) (*SubmitResult, error) {
	resp, err := r.doer.Send(ctx, http.MethodPost, r.baseURL+"/selfservice/orders", payload, Options{})
	if err != nil {
		return nil, err
	}
	return decodeSubmit(resp.Body)
}

func (r *Remote) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, notes string) error {
	body := map[string]interface{}{"status": status}
	if notes != "" {
		body["notes"] = notes
	}
	_, err := r.doer.Send(ctx, http.MethodPatch, r.baseURL+"/orders/"+orderID+"/status", body, Options{})
	return err
}

func (r *Remote) CancelOrder(ctx context.Context, orderID, reason string) error {
	var body interface{}
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	_, err := r.doer.Send(ctx, http.MethodPost, r.baseURL+"/orders/"+orderID+"/cancel", body, Options{})
	return err
}

// ProcessPayment uses the longer payment timeout; card processors are
// slower than the order API.
func (r *Remote) ProcessPayment(ctx context.Context, orderID string, method domain.PaymentMethod, amount float64) (*PaymentResult, error) {
	body := map[string]interface{}{
		"order_id":       orderID,
		"payment_method": method,
		"amount":         amount,
	}
	resp, err := r.doer.Send(ctx, http.MethodPost, r.baseURL+"/payments/process", body, Options{Timeout: r.paymentTimeout})
	if err != nil {
		return nil, err
	}

	var result PaymentResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, domain.NewSystemError(err)
	}
	if !result.Success {
		return &result, domain.NewPaymentError("payment was declined")
	}
	return &result, nil
}

// Do dispatches a generic sync-queue call against a stored endpoint.
func (r *Remote) Do(ctx context.Context, method, endpoint string, payload json.RawMessage) error {
	var body interface{}
	if len(payload) > 0 {
		body = payload
	}
	_, err := r.doer.Send(ctx, method, r.baseURL+endpoint, body, Options{})
	return err
}

// Healthy probes the remote with a short single attempt. Any HTTP
// response counts as online; only transport failure means offline.
func (r *Remote) Healthy(ctx context.Context) bool {
	resp, err := r.doer.Send(ctx, http.MethodGet, r.baseURL+"/health", nil, Options{Timeout: 5 * time.Second, Retries: 1})
	if err != nil {
		return domain.Normalize(err).Kind == domain.ErrKindRemote
	}
	return resp != nil
}

func decodeSubmit(body []byte) (*SubmitResult, error) {
	var result SubmitResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, domain.NewSystemError(err)
	}
	return &result, nil
}

var _ RemoteAPI = (*Remote)(nil)
