package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ngoctd/storefront/internal/logger"
	"github.com/ngoctd/storefront/internal/model"
)

// OrderAPI is the slice of the store API the cart store depends on.
type OrderAPI interface {
	CreateOrder(ctx context.Context, bearer string, draft model.OrderDraft) (*model.Order, error)
}

// Cart maintains the cart aggregate: line items, the shipping address draft
// and the selected payment method. It enforces two invariants: at most one
// line item per product, and no line item with a non-positive quantity.
type Cart struct {
	api    OrderAPI
	state  model.StateStore
	logger *logger.Logger

	mu       sync.Mutex
	cart     model.Cart
	hydrated bool
	placing  bool
}

// NewCart creates the cart store. The cart is empty until Hydrate runs.
func NewCart(api OrderAPI, state model.StateStore, logger *logger.Logger) *Cart {
	return &Cart{
		api:    api,
		state:  state,
		logger: logger,
		cart:   model.NewCart(),
	}
}

// Hydrate loads the persisted cart. Unusable durable state falls back to an
// empty cart rather than failing.
func (c *Cart) Hydrate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hydrated {
		return nil
	}
	c.hydrated = true

	data, err := c.state.Load(ctx, model.CartStateName)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		c.logger.Error("Cart store: failed to load persisted cart", "error", err.Error())
		return fmt.Errorf("failed to load persisted cart: %w", err)
	}

	var persisted model.CartState
	if err := json.Unmarshal(data, &persisted); err != nil {
		c.logger.Warn("Cart store: discarding corrupt persisted cart", "error", err.Error())
		return nil
	}
	if persisted.Version != model.StateVersion {
		c.logger.Warn("Cart store: discarding persisted cart of unsupported version",
			"version", persisted.Version)
		return nil
	}

	c.cart = persisted.Cart
	if c.cart.Items == nil {
		c.cart.Items = []model.CartItem{}
	}
	if c.cart.PaymentMethod == "" {
		c.cart.PaymentMethod = model.DefaultPaymentMethod
	}
	return nil
}

// Hydrated reports whether Hydrate has completed. Consumers should not
// render cart-dependent UI, such as the header item count, before then.
func (c *Cart) Hydrated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hydrated
}

// Cart returns a snapshot of the aggregate. The item slice is copied so
// callers cannot mutate store state behind the mutex.
func (c *Cart) Cart() model.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// AddToCart puts quantity units of the product in the cart. A product
// already present has its quantity incremented; its snapshot fields keep
// their add-time values. A new product is appended, preserving insertion
// order for display. Non-positive quantities are ignored.
func (c *Cart) AddToCart(ctx context.Context, product model.Product, quantity int) error {
	if quantity <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.cart.Items {
		if c.cart.Items[i].ProductID == product.ID {
			c.cart.Items[i].Quantity += quantity
			c.logger.Debug("Cart store: incremented quantity",
				"product_id", product.ID,
				"quantity", c.cart.Items[i].Quantity)
			return c.persistLocked(ctx)
		}
	}

	c.cart.Items = append(c.cart.Items, model.Snapshot(product, quantity))
	c.logger.Debug("Cart store: added item",
		"product_id", product.ID,
		"quantity", quantity)
	return c.persistLocked(ctx)
}

// RemoveFromCart removes the line item for productID. Removing an absent
// product is a no-op, not an error.
func (c *Cart) RemoveFromCart(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.cart.Items[:0]
	removed := false
	for _, item := range c.cart.Items {
		if item.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil
	}

	c.cart.Items = kept
	c.logger.Debug("Cart store: removed item", "product_id", productID)
	return c.persistLocked(ctx)
}

// UpdateQuantity sets the line item's quantity. A non-positive quantity
// removes the line item entirely; an unknown product is a no-op.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.cart.Items {
		if c.cart.Items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			c.cart.Items = append(c.cart.Items[:i], c.cart.Items[i+1:]...)
			c.logger.Debug("Cart store: removed item on zero quantity", "product_id", productID)
		} else {
			c.cart.Items[i].Quantity = quantity
			c.logger.Debug("Cart store: set quantity",
				"product_id", productID,
				"quantity", quantity)
		}
		return c.persistLocked(ctx)
	}
	return nil
}

// SaveShippingAddress replaces the address draft wholesale.
func (c *Cart) SaveShippingAddress(ctx context.Context, address model.ShippingAddress) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cart.ShippingAddress = address
	return c.persistLocked(ctx)
}

// SavePaymentMethod replaces the selected payment method.
func (c *Cart) SavePaymentMethod(ctx context.Context, method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cart.PaymentMethod = method
	return c.persistLocked(ctx)
}

// ClearCart empties the line items. Shipping address and payment method are
// kept so a returning customer finds their delivery details prefilled.
func (c *Cart) ClearCart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cart.Items = []model.CartItem{}
	c.logger.Debug("Cart store: cleared items")
	return c.persistLocked(ctx)
}

// PlaceOrder submits the cart as a new order for the given session, or as a
// guest order when the session is logged out and guest details are given.
// A second submission while one is outstanding fails with
// ErrRequestInFlight. Items are cleared only after the server accepts the
// order; address and payment method survive for the next purchase.
func (c *Cart) PlaceOrder(ctx context.Context, session model.Session, guest *model.GuestDetails) (*model.Order, error) {
	c.mu.Lock()
	if c.placing {
		c.mu.Unlock()
		return nil, model.ErrRequestInFlight
	}
	if len(c.cart.Items) == 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("cannot place an order with an empty cart")
	}
	if !session.Authenticated() && guest == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("guest checkout requires guest details")
	}
	c.placing = true
	draft := c.draftLocked(session, guest)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.placing = false
		c.mu.Unlock()
	}()

	c.logger.Debug("Cart store: placing order",
		"request_id", draft.RequestID,
		"items", len(draft.Items),
		"total", draft.TotalAmount)

	order, err := c.api.CreateOrder(ctx, session.Token, draft)
	if err != nil {
		c.logger.Error("Cart store: order placement failed",
			"request_id", draft.RequestID,
			"error", err.Error())
		return nil, fmt.Errorf("order placement failed: %w", err)
	}

	c.mu.Lock()
	c.cart.Items = []model.CartItem{}
	persistErr := c.persistLocked(ctx)
	c.mu.Unlock()

	c.logger.Info("Cart store: order placed",
		"order_id", order.ID,
		"request_id", draft.RequestID)
	if persistErr != nil {
		return order, persistErr
	}
	return order, nil
}

// draftLocked freezes the cart into an order payload. Prices are computed
// from the add-time snapshots, never refetched.
func (c *Cart) draftLocked(session model.Session, guest *model.GuestDetails) model.OrderDraft {
	items := make([]model.OrderItem, 0, len(c.cart.Items))
	for _, item := range c.cart.Items {
		items = append(items, model.OrderItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Image:     item.Image,
			Price:     item.Price,
			ProductID: item.ProductID,
		})
	}

	draft := model.OrderDraft{
		RequestID:       uuid.NewString(),
		Items:           items,
		ShippingAddress: c.cart.ShippingAddress,
		PaymentMethod:   c.cart.PaymentMethod,
		ItemsPrice:      c.cart.Subtotal(),
		ShippingPrice:   c.cart.ShippingFee(),
		TaxPrice:        0,
		TotalAmount:     c.cart.Total(),
	}
	if session.Authenticated() {
		draft.UserID = session.User.ID
	} else {
		draft.GuestDetails = guest
	}
	return draft
}

func (c *Cart) snapshotLocked() model.Cart {
	snapshot := c.cart
	snapshot.Items = make([]model.CartItem, len(c.cart.Items))
	copy(snapshot.Items, c.cart.Items)
	return snapshot
}

func (c *Cart) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(model.CartState{Version: model.StateVersion, Cart: c.cart})
	if err != nil {
		return fmt.Errorf("failed to encode cart state: %w", err)
	}
	if err := c.state.Save(ctx, model.CartStateName, data); err != nil {
		c.logger.Error("Cart store: failed to persist cart", "error", err.Error())
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}
