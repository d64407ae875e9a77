package models

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

//go:generate mockgen -destination=mocks/mock_auth.go . AuthService
type AuthService interface {
	Register(ctx context.Context, account UnknownAccount) error

	Login(ctx context.Context, account UnknownAccount) error

	GetAccount(ctx context.Context, login string) (*Account, error)
}

//go:generate mockgen -destination=mocks/mock_jwt.go . JWTService
type JWTService interface {
	GenerateJWT(subject string, role Role) (string, error)

	ValidateToken(token string) (*jwt.Token, error)
}

// OrderFilter narrows admin order listings. Nil fields mean "any".
type OrderFilter struct {
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
}

//go:generate mockgen -destination=mocks/mock_order.go . OrderService
type OrderService interface {
	VerifyOrderNumber(number string) bool

	Checkout(ctx context.Context, customerID string, req CheckoutRequest) (Order, error)

	GetOrders(ctx context.Context, actor Actor, filter OrderFilter) ([]Order, error)

	GetOrder(ctx context.Context, actor Actor, number string) (*Order, error)

	Transition(ctx context.Context, actor Actor, number string, target OrderStatus, note string) (Order, error)

	AddNote(ctx context.Context, actor Actor, number, text string) error

	SetPaymentStatus(ctx context.Context, number string, status PaymentStatus) error
}

//go:generate mockgen -destination=mocks/mock_notifier.go . NotifierService
type NotifierService interface {
	NotifyStatusChange(orderNumber string)

	StartRedelivery(ctx context.Context) error
}
