package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus describes where an order is in its lifecycle.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Payment statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// allowedTransitions is the full set of legal status edges. Delivered and
// cancelled have no outgoing edges, which is what makes them terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:        {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:  {OrderStatusDelivering},
	OrderStatusDelivering: {OrderStatusDelivered},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusPreparing, OrderStatusDelivering, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the edge s -> next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order represents a submitted customer order.
type Order struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"userId" db:"user_id"`
	Total         float64     `json:"total" db:"total"`
	Status        OrderStatus `json:"status" db:"status"`
	Address       string      `json:"address" db:"address"`
	Phone         string      `json:"phone" db:"phone"`
	PaymentMethod string      `json:"paymentMethod" db:"payment_method"`
	PaymentStatus string      `json:"paymentStatus" db:"payment_status"`
	PaymentRef    *string     `json:"paymentRef,omitempty" db:"payment_ref"`
	UsedCoins     int         `json:"usedCoins" db:"used_coins"`
	EarnedCoins   int         `json:"earnedCoins" db:"earned_coins"`
	Version       int         `json:"version" db:"version"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item snapshot taken at submission time.
type OrderItem struct {
	ID             uuid.UUID `json:"-" db:"id"`
	OrderID        uuid.UUID `json:"-" db:"order_id"`
	MenuItemID     uuid.UUID `json:"menuItemId" db:"menu_item_id"`
	Name           string    `json:"name" db:"name"`
	UnitPrice      float64   `json:"unitPrice" db:"unit_price"`
	Quantity       int       `json:"quantity" db:"quantity"`
	Customizations []string  `json:"customizations,omitempty" db:"customizations"`
}

// StatusChange records one edge of an order's lifecycle.
type StatusChange struct {
	ID         uuid.UUID   `json:"-" db:"id"`
	OrderID    uuid.UUID   `json:"orderId" db:"order_id"`
	FromStatus OrderStatus `json:"from" db:"from_status"`
	ToStatus   OrderStatus `json:"to" db:"to_status"`
	ChangedAt  time.Time   `json:"changedAt" db:"changed_at"`
}

// OrderRequest represents the request payload for submitting an order.
type OrderRequest struct {
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Total         float64            `json:"total" validate:"gte=0"`
	Address       string             `json:"address" validate:"required"`
	Phone         string             `json:"phone" validate:"required"`
	PaymentMethod string             `json:"paymentMethod" validate:"required"`
	UsedCoins     int                `json:"usedCoins" validate:"gte=0"`
	EarnedCoins   int                `json:"earnedCoins" validate:"gte=0"`
}

// OrderItemRequest represents a single cart line in an order request.
type OrderItemRequest struct {
	MenuItemID     uuid.UUID `json:"menuItemId" validate:"required"`
	Name           string    `json:"name" validate:"required"`
	UnitPrice      float64   `json:"unitPrice" validate:"gte=0"`
	Quantity       int       `json:"quantity" validate:"gt=0"`
	Customizations []string  `json:"customizations,omitempty"`
}

// OrderResponse represents an order with its nested items.
type OrderResponse struct {
	Order
	Items []OrderItem `json:"items"`
}

// CreateOrderResponse carries the identifier of a newly submitted order.
type CreateOrderResponse struct {
	ID uuid.UUID `json:"id"`
}

// StatusUpdateRequest represents the admin payload for a status transition.
type StatusUpdateRequest struct {
	Status  OrderStatus `json:"status" validate:"required"`
	Version int         `json:"version" validate:"gt=0"`
}

// PaymentRequest represents the payload for processing a payment.
type PaymentRequest struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
}

// PaymentResponse carries the gateway receipt for a processed payment.
type PaymentResponse struct {
	OrderID       uuid.UUID `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	PaymentStatus string    `json:"paymentStatus"`
}
