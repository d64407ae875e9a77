package models

// CheckoutItem is one requested line item; unit price comes in major units
// and is converted to Money at the service boundary.
type CheckoutItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type CheckoutRequest struct {
	ArtisanID *string        `json:"artisan_id"`
	Items     []CheckoutItem `json:"items"`
}

type TransitionRequest struct {
	Status *string `json:"status"`
	Note   *string `json:"note,omitempty"`
}

type PaymentRequest struct {
	PaymentStatus *string `json:"payment_status"`
}

// ActionsResponse lists the statuses the caller may request next for an
// order. An empty list means no action is available, not an error.
type ActionsResponse struct {
	Number  string        `json:"number"`
	Status  OrderStatus   `json:"status"`
	Actions []OrderStatus `json:"actions"`
}
