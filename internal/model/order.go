package model

import "time"

// Payment status values reported by the store API.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// OrderItem is a line of a placed order as echoed back by the API.
type OrderItem struct {
	ID        string `json:"_id,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image"`
	Price     int64  `json:"price"`
	ProductID string `json:"product"`
}

// GuestDetails identifies a customer checking out without an account.
type GuestDetails struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// PaymentResult is the gateway confirmation attached to a paid order.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

// Order is the full order resource returned by the store API.
type Order struct {
	ID              string          `json:"_id"`
	UserID          string          `json:"user,omitempty"`
	GuestDetails    *GuestDetails   `json:"guestDetails,omitempty"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	ItemsPrice      int64           `json:"itemsPrice"`
	TaxPrice        int64           `json:"taxPrice"`
	ShippingPrice   int64           `json:"shippingPrice"`
	TotalAmount     int64           `json:"totalAmount"`
	PaymentStatus   string          `json:"paymentStatus"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderDraft is the payload for creating a new order. Exactly one of UserID
// and GuestDetails should be set depending on whether the customer is logged
// in. RequestID is generated client-side so a retried submission can be
// recognized by the server.
type OrderDraft struct {
	RequestID       string          `json:"requestId,omitempty"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      int64           `json:"itemsPrice"`
	ShippingPrice   int64           `json:"shippingPrice"`
	TaxPrice        int64           `json:"taxPrice"`
	TotalAmount     int64           `json:"totalAmount"`
	UserID          string          `json:"user,omitempty"`
	GuestDetails    *GuestDetails   `json:"guestDetails,omitempty"`
}
