package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"selfservice-kiosk/internal/cart"
	"selfservice-kiosk/internal/checkout"
	"selfservice-kiosk/internal/domain"
	"selfservice-kiosk/internal/storage"
	"selfservice-kiosk/internal/syncer"

	"github.com/gorilla/mux"
)

// Waker is the slice of the connectivity monitor the API needs.
type Waker interface {
	Wake(ctx context.Context) bool
	Online() bool
}

type Handler struct {
	Cart     cart.AggregateInterface
	Checkout checkout.MachineInterface
	Store    storage.QueueStore
	Engine   syncer.EngineInterface
	Monitor  Waker
}

func NewHandler(agg cart.AggregateInterface, machine checkout.MachineInterface, store storage.QueueStore, engine syncer.EngineInterface, monitor Waker) *Handler {
	return &Handler{Cart: agg, Checkout: machine, Store: store, Engine: engine, Monitor: monitor}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/cart", h.getCart).Methods("GET")
	r.HandleFunc("/api/cart", h.clearCart).Methods("DELETE")
	r.HandleFunc("/api/cart/items", h.addItem).Methods("POST")
	r.HandleFunc("/api/cart/items/{id}/quantity", h.updateQuantity).Methods("PATCH")
	r.HandleFunc("/api/cart/items/{id}/customizations", h.updateCustomizations).Methods("PATCH")
	r.HandleFunc("/api/cart/items/{id}", h.removeItem).Methods("DELETE")

	r.HandleFunc("/api/checkout", h.getSession).Methods("GET")
	r.HandleFunc("/api/checkout/begin", h.beginCheckout).Methods("POST")
	r.HandleFunc("/api/checkout/next", h.nextStep).Methods("POST")
	r.HandleFunc("/api/checkout/previous", h.previousStep).Methods("POST")
	r.HandleFunc("/api/checkout/step", h.goToStep).Methods("POST")
	r.HandleFunc("/api/checkout/type", h.setOrderType).Methods("PUT")
	r.HandleFunc("/api/checkout/customer", h.setCustomer).Methods("PUT")
	r.HandleFunc("/api/checkout/payment-method", h.setPaymentMethod).Methods("PUT")
	r.HandleFunc("/api/checkout/process", h.processCheckout).Methods("POST")
	r.HandleFunc("/api/checkout/cancel", h.cancelCheckout).Methods("POST")
	r.HandleFunc("/api/checkout/qrcode", h.getQRCode).Methods("GET")

	r.HandleFunc("/api/queue", h.listQueue).Methods("GET")
	r.HandleFunc("/api/queue/{id}/retry", h.retryOrder).Methods("POST")
	r.HandleFunc("/api/sync", h.triggerSync).Methods("POST")
	r.HandleFunc("/api/status", h.getStatus).Methods("GET")
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Cart.Cart())
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var line domain.CartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := h.Cart.AddItem(r.Context(), line)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, updated)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := h.Cart.UpdateQuantity(r.Context(), mux.Vars(r)["id"], payload.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, updated)
}

func (h *Handler) updateCustomizations(w http.ResponseWriter, r *http.Request) {
	var payload domain.Customizations
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := h.Cart.UpdateCustomizations(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, updated)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Cart.RemoveItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, updated)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Cart.Clear(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, updated)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) beginCheckout(w http.ResponseWriter, r *http.Request) {
	if err := h.Checkout.Begin(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) nextStep(w http.ResponseWriter, r *http.Request) {
	if err := h.Checkout.NextStep(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) previousStep(w http.ResponseWriter, r *http.Request) {
	if err := h.Checkout.PreviousStep(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) goToStep(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Step checkout.Step `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Checkout.GoToStep(payload.Step); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) setOrderType(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Type domain.OrderType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Checkout.SetOrderType(payload.Type); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) setCustomer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Checkout.SetCustomer(payload.Name, payload.Phone, payload.Notes); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) setPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PaymentMethod domain.PaymentMethod `json:"payment_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Checkout.SetPaymentMethod(payload.PaymentMethod); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) processCheckout(w http.ResponseWriter, r *http.Request) {
	if err := h.Checkout.ProcessCheckout(r.Context()); err != nil {
		session := h.Checkout.Session()
		status := errorStatus(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   err.Error(),
			"session": session,
		})
		return
	}
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) cancelCheckout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	if err := h.Checkout.Cancel(r.Context(), payload.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.Checkout.Session())
}

func (h *Handler) getQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.Checkout.QRCodePNG()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) listQueue(w http.ResponseWriter, r *http.Request) {
	status := domain.PendingStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.PendingStatusPending
	}
	records, err := h.Store.ListOrdersByStatus(r.Context(), status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []domain.PendingOrder{}
	}
	writeJSON(w, records)
}

func (h *Handler) retryOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.RetryOrder(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// triggerSync is the deferred-retry hook: an external wake (or the UI)
// can request a pass even when no connectivity event fired.
func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	if !h.Monitor.Wake(r.Context()) {
		http.Error(w, "remote service unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]bool{"online": h.Monitor.Online()})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errorStatus(err))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, checkout.ErrNoActiveOrder),
		errors.Is(err, checkout.ErrPaymentMethodRequired),
		errors.Is(err, checkout.ErrCannotAdvance),
		errors.Is(err, checkout.ErrStepLocked):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrProcessing):
		return http.StatusConflict
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	}

	var appErr *domain.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case domain.ErrKindValidation:
			return http.StatusBadRequest
		case domain.ErrKindPayment:
			return http.StatusPaymentRequired
		case domain.ErrKindNetwork:
			return http.StatusServiceUnavailable
		case domain.ErrKindRemote:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}
