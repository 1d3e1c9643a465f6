package model

// FlatShippingFee is the flat delivery surcharge in VND, applied to any
// non-empty cart.
const FlatShippingFee int64 = 30000

// DefaultPaymentMethod is the payment method a fresh cart starts with. The
// field stays an open string so new methods need no schema change.
const DefaultPaymentMethod = "cash"

// CartItem is a product snapshot frozen at add time plus the chosen quantity.
// Price, name and image deliberately do not track later product updates, so
// the checkout total matches what the customer saw when adding the item.
type CartItem struct {
	ProductID    string `json:"_id"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Price        int64  `json:"price"`
	Image        string `json:"image"`
	CountInStock int    `json:"countInStock"`
	Quantity     int    `json:"quantity"`
}

// ShippingAddress is the single delivery address draft kept with the cart.
// It is replaced wholesale on save; there is no per-field merge.
type ShippingAddress struct {
	FullName    string `json:"fullName"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PhoneNumber string `json:"phoneNumber"`
}

// Cart is the aggregate owned by the cart store: line items in insertion
// order, the address draft and the selected payment method.
type Cart struct {
	Items           []CartItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
}

// NewCart returns an empty cart with the default payment method selected.
func NewCart() Cart {
	return Cart{Items: []CartItem{}, PaymentMethod: DefaultPaymentMethod}
}

// Subtotal is the sum of unit price times quantity over all line items.
// Recomputed on every call, never cached.
func (c Cart) Subtotal() int64 {
	var sum int64
	for _, item := range c.Items {
		sum += item.Price * int64(item.Quantity)
	}
	return sum
}

// ShippingFee is the flat surcharge for a non-empty cart, zero otherwise.
func (c Cart) ShippingFee() int64 {
	if c.Subtotal() > 0 {
		return FlatShippingFee
	}
	return 0
}

// Total is subtotal plus shipping fee.
func (c Cart) Total() int64 {
	return c.Subtotal() + c.ShippingFee()
}

// ItemCount is the number of units across all line items, used by header
// badges and similar projections.
func (c Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Snapshot builds a cart line item from a product, freezing the fields the
// cart keeps at add time.
func Snapshot(p Product, quantity int) CartItem {
	return CartItem{
		ProductID:    p.ID,
		Name:         p.Name,
		Brand:        p.Brand,
		Price:        p.Price,
		Image:        p.Image,
		CountInStock: p.CountInStock,
		Quantity:     quantity,
	}
}
