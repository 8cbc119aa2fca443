package cart

import (
	"context"
	"log"
	"math"
	"sync"

	"selfservice-kiosk/internal/domain"

	"github.com/google/uuid"
)

// SessionStore mirrors the active cart into session-scoped storage so a
// kiosk restart within the same session can restore it. This is not the
// durable order queue; it is cleared on logout or reset.
type SessionStore interface {
	Save(ctx context.Context, cart domain.Cart) error
	Load(ctx context.Context) (*domain.Cart, error)
	Clear(ctx context.Context) error
}

type AggregateInterface interface {
	AddItem(ctx context.Context, line domain.CartLine) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) (domain.Cart, error)
	UpdateCustomizations(ctx context.Context, id string, c domain.Customizations) (domain.Cart, error)
	RemoveItem(ctx context.Context, id string) (domain.Cart, error)
	Clear(ctx context.Context) (domain.Cart, error)
	Cart() domain.Cart
}

// Aggregate owns the session's cart lines and the derived totals.
// Totals are recomputed from scratch after every mutation.
type Aggregate struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	discount float64
	taxRate  float64
	session  SessionStore
}

func NewAggregate(taxRate float64, session SessionStore) *Aggregate {
	return &Aggregate{taxRate: taxRate, session: session}
}

// Restore loads a previously mirrored cart, if any.
func (a *Aggregate) Restore(ctx context.Context) error {
	if a.session == nil {
		return nil
	}
	saved, err := a.session.Load(ctx)
	if err != nil || saved == nil {
		return err
	}
	a.mu.Lock()
	a.lines = saved.Items
	a.discount = saved.Discount
	a.mu.Unlock()
	return nil
}

// AddItem merges into an existing line when product and customizations
// match by value, otherwise appends a new line with a fresh id.
func (a *Aggregate) AddItem(ctx context.Context, line domain.CartLine) (domain.Cart, error) {
	if line.ProductID == "" {
		return a.Cart(), domain.NewValidationError("product id is required")
	}
	if line.Quantity < 1 {
		return a.Cart(), domain.NewValidationError("quantity must be at least 1")
	}

	a.mu.Lock()
	key := line.Customizations.Key()
	merged := false
	for i := range a.lines {
		if a.lines[i].ProductID == line.ProductID && a.lines[i].Customizations.Key() == key {
			a.lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		line.ID = uuid.NewString()
		a.lines = append(a.lines, line)
	}
	cart := a.recomputeLocked()
	a.mu.Unlock()

	a.mirror(ctx, cart)
	return cart, nil
}

// UpdateQuantity with a non-positive quantity removes the line; zero or
// negative quantities are never kept.
func (a *Aggregate) UpdateQuantity(ctx context.Context, id string, quantity int) (domain.Cart, error) {
	if quantity <= 0 {
		return a.RemoveItem(ctx, id)
	}

	a.mu.Lock()
	found := false
	for i := range a.lines {
		if a.lines[i].ID == id {
			a.lines[i].Quantity = quantity
			found = true
			break
		}
	}
	cart := a.recomputeLocked()
	a.mu.Unlock()

	if !found {
		return cart, domain.NewValidationError("cart line not found")
	}
	a.mirror(ctx, cart)
	return cart, nil
}

func (a *Aggregate) UpdateCustomizations(ctx context.Context, id string, c domain.Customizations) (domain.Cart, error) {
	a.mu.Lock()
	found := false
	for i := range a.lines {
		if a.lines[i].ID == id {
			a.lines[i].Customizations = c
			found = true
			break
		}
	}
	cart := a.recomputeLocked()
	a.mu.Unlock()

	if !found {
		return cart, domain.NewValidationError("cart line not found")
	}
	a.mirror(ctx, cart)
	return cart, nil
}

func (a *Aggregate) RemoveItem(ctx context.Context, id string) (domain.Cart, error) {
	a.mu.Lock()
	kept := a.lines[:0]
	for _, line := range a.lines {
		if line.ID != id {
			kept = append(kept, line)
		}
	}
	a.lines = kept
	cart := a.recomputeLocked()
	a.mu.Unlock()

	a.mirror(ctx, cart)
	return cart, nil
}

func (a *Aggregate) Clear(ctx context.Context) (domain.Cart, error) {
	a.mu.Lock()
	a.lines = nil
	a.discount = 0
	cart := a.recomputeLocked()
	a.mu.Unlock()

	if a.session != nil {
		if err := a.session.Clear(ctx); err != nil {
			log.Printf("Warning: failed to clear cart session: %v", err)
		}
	}
	return cart, nil
}

// Cart returns the current derived snapshot.
func (a *Aggregate) Cart() domain.Cart {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recomputeLocked()
}

func (a *Aggregate) recomputeLocked() domain.Cart {
	items := make([]domain.CartLine, len(a.lines))
	cart := domain.Cart{Discount: a.discount}
	for i, line := range a.lines {
		unit := line.UnitPrice
		for _, add := range line.Customizations.Additions {
			unit += add.Price
		}
		line.Subtotal = roundMoney(unit * float64(line.Quantity))
		a.lines[i].Subtotal = line.Subtotal
		items[i] = line
		cart.Subtotal += line.Subtotal
		cart.ItemCount += line.Quantity
	}
	cart.Items = items
	cart.Subtotal = roundMoney(cart.Subtotal)
	cart.Tax = roundMoney(cart.Subtotal * a.taxRate)
	cart.Total = roundMoney(cart.Subtotal + cart.Tax - cart.Discount)
	return cart
}

func (a *Aggregate) mirror(ctx context.Context, cart domain.Cart) {
	if a.session == nil {
		return
	}
	if err := a.session.Save(ctx, cart); err != nil {
		log.Printf("Warning: failed to mirror cart to session store: %v", err)
	}
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ AggregateInterface = (*Aggregate)(nil)
