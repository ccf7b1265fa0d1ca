package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrAmountMismatch    = errors.New("payment amount does not match order total")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusCompleted},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

type Order struct {
	ID            int64
	UserID        *int64
	TotalCents    int64
	Status        Status
	OnlinePayment bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderItem struct {
	ID             int64
	OrderID        int64
	ProductID      int64
	ProductName    string
	Quantity       int
	UnitPriceCents int64
	Size           string
}

// LineTotal is derived, never stored independently.
func (it OrderItem) LineTotal() int64 {
	return int64(it.Quantity) * it.UnitPriceCents
}

type ShippingAddress struct {
	ID          int64
	OrderID     int64
	Address     string
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentCaptured PaymentStatus = "captured"
	PaymentFailed   PaymentStatus = "failed"
)

type Payment struct {
	ID          int64
	OrderID     int64
	Method      string
	Status      PaymentStatus
	AmountCents int64
	CreatedAt   time.Time
}

// Graph is the order row with everything created alongside it in one
// transaction: items, shipping address and payment.
type Graph struct {
	Order    Order
	Items    []OrderItem
	Shipping ShippingAddress
	Payment  Payment
}

// NewGraph builds an unsaved pending order graph. The order total and the
// payment amount are both derived from the items, keeping
// total_price == sum(line totals) and payment.amount == total_price true
// from the moment of construction.
func NewGraph(userID *int64, items []OrderItem, shipping ShippingAddress, paymentMethod string, online bool) Graph {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	now := time.Now().UTC()
	return Graph{
		Order: Order{
			UserID:        userID,
			TotalCents:    total,
			Status:        StatusPending,
			OnlinePayment: online,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		Items:    items,
		Shipping: shipping,
		Payment: Payment{
			Method:      paymentMethod,
			Status:      PaymentPending,
			AmountCents: total,
			CreatedAt:   now,
		},
	}
}
