package models

import (
	"github.com/craftline/marketplace/internal/utils"
)

type OrderStatus string

const (
	StatusPending     OrderStatus = "pending"
	StatusConfirmed   OrderStatus = "confirmed"
	StatusProcessing  OrderStatus = "processing"
	StatusReadyToShip OrderStatus = "ready_to_ship"
	StatusShipped     OrderStatus = "shipped"
	StatusDelivered   OrderStatus = "delivered"
	StatusCancelled   OrderStatus = "cancelled"
	StatusRefunded    OrderStatus = "refunded"
)

// PaymentStatus tracks the payment side of an order. It is independent of
// OrderStatus: a delivered order may still carry a pending payment
// (cash on delivery).
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// StatusChange is one append-only entry of an order's status history.
// The last entry always mirrors the order's current status.
type StatusChange struct {
	Status    OrderStatus       `json:"status"`
	ChangedAt utils.RFC3339Date `json:"changed_at"`
	ChangedBy string            `json:"changed_by"`
}

// Note is a free-text annotation on an order. Notes are never edited or
// deleted, only appended.
type Note struct {
	Author    string            `json:"author"`
	Text      string            `json:"text"`
	CreatedAt utils.RFC3339Date `json:"created_at"`
}

// LineItem is immutable once the order is persisted.
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
}

type Order struct {
	Number        string            `json:"number"`
	Status        OrderStatus       `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	CustomerID    string            `json:"customer_id"`
	ArtisanID     string            `json:"artisan_id"`
	Items         []LineItem        `json:"items"`
	History       []StatusChange    `json:"status_history"`
	Notes         []Note            `json:"notes,omitempty"`
	CreatedAt     utils.RFC3339Date `json:"created_at"`
}

// Total is always derived from line items, never stored or edited on its own.
func (o Order) Total() Money {
	var sum Money
	for _, item := range o.Items {
		sum += Money(item.Quantity) * item.UnitPrice
	}
	return sum
}
