package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/craftline/marketplace/internal/database"
	"github.com/craftline/marketplace/internal/lifecycle"
	"github.com/craftline/marketplace/internal/models"
	"github.com/craftline/marketplace/internal/utils"
)

var (
	ErrOrderIsNotExist   = errors.New("order does not exist")
	ErrOrderAccessDenied = errors.New("order belongs to another account")
	ErrOrderIsEmpty      = errors.New("order must contain at least one item")
	ErrLineItemIsInvalid = errors.New("line item quantity and price must be positive")
)

// OrderService owns order creation and everything that mutates an order
// after creation. All transition legality checks are delegated to the
// lifecycle package; this service adds ownership checks and persistence.
type OrderService struct {
	storage orderStorage
}

type orderStorage interface {
	CreateOrder(ctx context.Context, order models.Order) error
	FindOrder(ctx context.Context, number string) (*database.OrderDB, error)
	FindOrders(ctx context.Context, filter database.OrdersFilter) (*[]database.OrderDB, error)
	UpdateOrderStatus(ctx context.Context, number string, status database.OrderStatusDB, changedBy string, note *string) error
	UpdatePaymentStatus(ctx context.Context, number string, status database.PaymentStatusDB) error
	AppendNote(ctx context.Context, number, authorID, body string) error
}

func NewOrderService(storage orderStorage) *OrderService {
	return &OrderService{storage: storage}
}

// VerifyOrderNumber checks the ORD-YYYYMMDD-XXXXXX format without touching
// storage, so handlers can reject malformed numbers up front.
func (o *OrderService) VerifyOrderNumber(number string) bool {
	if len(number) != 19 || number[:4] != "ORD-" || number[12] != '-' {
		return false
	}

	for _, c := range number[4:12] {
		if c < '0' || c > '9' {
			return false
		}
	}

	for _, c := range number[13:] {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			return false
		}
	}

	return true
}

func newOrderNumber() string {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		panic(err)
	}
	return fmt.Sprintf("ORD-%s-%X", time.Now().UTC().Format("20060102"), suffix)
}

// Checkout creates a pending order for the customer with an initial history
// entry. Line items are validated here and immutable afterwards.
func (o *OrderService) Checkout(ctx context.Context, customerID string, req models.CheckoutRequest) (models.Order, error) {
	if req.ArtisanID == nil || *req.ArtisanID == "" {
		return models.Order{}, errors.New("artisan_id must not be empty")
	}

	if len(req.Items) == 0 {
		return models.Order{}, ErrOrderIsEmpty
	}

	items := make([]models.LineItem, len(req.Items))
	for i, item := range req.Items {
		price := models.NewMoneyFromFloat(item.UnitPrice)
		if item.Quantity <= 0 || price <= 0 {
			return models.Order{}, ErrLineItemIsInvalid
		}
		items[i] = models.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: price,
		}
	}

	now := utils.RFC3339Date{Time: time.Now().UTC()}
	order := models.Order{
		Number:        newOrderNumber(),
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		CustomerID:    customerID,
		ArtisanID:     *req.ArtisanID,
		Items:         items,
		History: []models.StatusChange{
			{Status: models.StatusPending, ChangedAt: now, ChangedBy: customerID},
		},
		CreatedAt: now,
	}

	if err := o.storage.CreateOrder(ctx, order); err != nil {
		return models.Order{}, err
	}

	return order, nil
}

// GetOrders returns the actor's view of the order book: customers see their
// own orders, artisans their queue, admins everything with optional status
// and payment filters.
func (o *OrderService) GetOrders(ctx context.Context, actor models.Actor, filter models.OrderFilter) ([]models.Order, error) {
	dbFilter := database.OrdersFilter{}

	switch actor.Role {
	case models.RoleCustomer:
		dbFilter.CustomerID = &actor.ID
	case models.RoleArtisan:
		dbFilter.ArtisanID = &actor.ID
	case models.RoleAdmin:
		if filter.Status != nil {
			if !lifecycle.KnownStatus(*filter.Status) {
				return nil, lifecycle.ErrUnknownStatus
			}
			status := string(*filter.Status)
			dbFilter.Status = &status
		}
		if filter.PaymentStatus != nil {
			if !lifecycle.KnownPaymentStatus(*filter.PaymentStatus) {
				return nil, lifecycle.ErrUnknownStatus
			}
			paymentStatus := string(*filter.PaymentStatus)
			dbFilter.PaymentStatus = &paymentStatus
		}
	default:
		return []models.Order{}, nil
	}

	orders, err := o.storage.FindOrders(ctx, dbFilter)
	if err != nil {
		return nil, err
	}

	if orders == nil {
		return []models.Order{}, nil
	}

	result := make([]models.Order, len(*orders))
	for i, order := range *orders {
		result[i] = mapOrder(order)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Time.Before(result[j].CreatedAt.Time)
	})

	return result, nil
}

// GetOrder loads one order with history and notes, enforcing ownership for
// customers and artisans.
func (o *OrderService) GetOrder(ctx context.Context, actor models.Actor, number string) (*models.Order, error) {
	dbOrder, err := o.loadOwned(ctx, actor, number)
	if err != nil {
		return nil, err
	}

	order := mapOrder(*dbOrder)
	return &order, nil
}

// Transition runs the lifecycle validation and, when it passes, persists
// the new status together with its history entry. The webhook push happens
// afterwards in the notifier; legality is fully decided here.
func (o *OrderService) Transition(ctx context.Context, actor models.Actor, number string, target models.OrderStatus, note string) (models.Order, error) {
	dbOrder, err := o.loadOwned(ctx, actor, number)
	if err != nil {
		return models.Order{}, err
	}

	next, err := lifecycle.RequestTransition(mapOrder(*dbOrder), target, actor, note)
	if err != nil {
		return models.Order{}, err
	}

	var notePtr *string
	if note != "" {
		notePtr = &note
	}

	if err := o.storage.UpdateOrderStatus(ctx, number, database.OrderStatusDB{OrderStatus: target}, actor.ID, notePtr); err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return models.Order{}, ErrOrderIsNotExist
		}
		return models.Order{}, err
	}

	return next, nil
}

// AddNote appends a note; permitted in every known status, including
// terminal ones.
func (o *OrderService) AddNote(ctx context.Context, actor models.Actor, number, text string) error {
	dbOrder, err := o.loadOwned(ctx, actor, number)
	if err != nil {
		return err
	}

	if !lifecycle.CanAddNote(dbOrder.Status.OrderStatus) {
		return lifecycle.ErrUnknownStatus
	}

	return o.storage.AppendNote(ctx, number, actor.ID, text)
}

// SetPaymentStatus updates the orthogonal payment state. It deliberately
// skips the order status tables; the two machines do not gate one another.
func (o *OrderService) SetPaymentStatus(ctx context.Context, number string, status models.PaymentStatus) error {
	if !lifecycle.KnownPaymentStatus(status) {
		return lifecycle.ErrUnknownStatus
	}

	if err := o.storage.UpdatePaymentStatus(ctx, number, database.PaymentStatusDB{PaymentStatus: status}); err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return ErrOrderIsNotExist
		}
		return err
	}

	return nil
}

func (o *OrderService) loadOwned(ctx context.Context, actor models.Actor, number string) (*database.OrderDB, error) {
	dbOrder, err := o.storage.FindOrder(ctx, number)
	if err != nil {
		return nil, err
	}

	if dbOrder == nil {
		return nil, ErrOrderIsNotExist
	}

	switch actor.Role {
	case models.RoleCustomer:
		if dbOrder.CustomerID != actor.ID {
			return nil, ErrOrderAccessDenied
		}
	case models.RoleArtisan:
		if dbOrder.ArtisanID != actor.ID {
			return nil, ErrOrderAccessDenied
		}
	case models.RoleAdmin:
	default:
		return nil, ErrOrderAccessDenied
	}

	return dbOrder, nil
}

func mapOrder(order database.OrderDB) models.Order {
	items := make([]models.LineItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = models.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: models.Money(item.UnitPriceCents),
		}
	}

	history := make([]models.StatusChange, len(order.History))
	for i, change := range order.History {
		history[i] = models.StatusChange{
			Status:    change.Status.OrderStatus,
			ChangedAt: utils.RFC3339Date{Time: change.ChangedAt},
			ChangedBy: change.ChangedBy,
		}
	}

	notes := make([]models.Note, len(order.Notes))
	for i, note := range order.Notes {
		notes[i] = models.Note{
			Author:    note.AuthorID,
			Text:      note.Body,
			CreatedAt: utils.RFC3339Date{Time: note.CreatedAt},
		}
	}

	return models.Order{
		Number:        order.Number,
		Status:        order.Status.OrderStatus,
		PaymentStatus: order.PaymentStatus.PaymentStatus,
		CustomerID:    order.CustomerID,
		ArtisanID:     order.ArtisanID,
		Items:         items,
		History:       history,
		Notes:         notes,
		CreatedAt:     utils.RFC3339Date{Time: order.CreatedAt},
	}
}
