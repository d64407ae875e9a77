package services

import (
	"context"
	"testing"
	"time"

	"github.com/craftline/marketplace/internal/database"
	"github.com/craftline/marketplace/internal/lifecycle"
	"github.com/craftline/marketplace/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderStorage keeps orders in a map so service behavior can be tested
// without a database.
type fakeOrderStorage struct {
	orders map[string]*database.OrderDB
}

func newFakeOrderStorage() *fakeOrderStorage {
	return &fakeOrderStorage{orders: map[string]*database.OrderDB{}}
}

func (s *fakeOrderStorage) CreateOrder(_ context.Context, order models.Order) error {
	if _, ok := s.orders[order.Number]; ok {
		return database.ErrDuplicateOrder
	}

	items := make([]database.OrderItemDB, len(order.Items))
	for i, item := range order.Items {
		items[i] = database.OrderItemDB{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: int64(item.UnitPrice),
		}
	}

	history := make([]database.StatusChangeDB, len(order.History))
	for i, change := range order.History {
		history[i] = database.StatusChangeDB{
			OrderNumber: order.Number,
			Status:      database.OrderStatusDB{OrderStatus: change.Status},
			ChangedBy:   change.ChangedBy,
			ChangedAt:   change.ChangedAt.Time,
		}
	}

	s.orders[order.Number] = &database.OrderDB{
		Number:        order.Number,
		CustomerID:    order.CustomerID,
		ArtisanID:     order.ArtisanID,
		Status:        database.OrderStatusDB{OrderStatus: order.Status},
		PaymentStatus: database.PaymentStatusDB{PaymentStatus: order.PaymentStatus},
		CreatedAt:     order.CreatedAt.Time,
		Items:         items,
		History:       history,
	}

	return nil
}

func (s *fakeOrderStorage) FindOrder(_ context.Context, number string) (*database.OrderDB, error) {
	order, ok := s.orders[number]
	if !ok {
		return nil, nil
	}

	return order, nil
}

func (s *fakeOrderStorage) FindOrders(_ context.Context, filter database.OrdersFilter) (*[]database.OrderDB, error) {
	result := []database.OrderDB{}
	for _, order := range s.orders {
		if filter.CustomerID != nil && order.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.ArtisanID != nil && order.ArtisanID != *filter.ArtisanID {
			continue
		}
		if filter.Status != nil && string(order.Status.OrderStatus) != *filter.Status {
			continue
		}
		if filter.PaymentStatus != nil && string(order.PaymentStatus.PaymentStatus) != *filter.PaymentStatus {
			continue
		}
		result = append(result, *order)
	}

	return &result, nil
}

func (s *fakeOrderStorage) UpdateOrderStatus(_ context.Context, number string, status database.OrderStatusDB, changedBy string, note *string) error {
	order, ok := s.orders[number]
	if !ok {
		return database.ErrOrderNotFound
	}

	order.Status = status
	order.History = append(order.History, database.StatusChangeDB{
		OrderNumber: number,
		Status:      status,
		ChangedBy:   changedBy,
		ChangedAt:   time.Now().UTC(),
		Note:        note,
	})

	if note != nil {
		order.Notes = append(order.Notes, database.NoteDB{
			AuthorID:  changedBy,
			Body:      *note,
			CreatedAt: time.Now().UTC(),
		})
	}

	return nil
}

func (s *fakeOrderStorage) UpdatePaymentStatus(_ context.Context, number string, status database.PaymentStatusDB) error {
	order, ok := s.orders[number]
	if !ok {
		return database.ErrOrderNotFound
	}

	order.PaymentStatus = status
	return nil
}

func (s *fakeOrderStorage) AppendNote(_ context.Context, number, authorID, body string) error {
	order, ok := s.orders[number]
	if !ok {
		return database.ErrOrderNotFound
	}

	order.Notes = append(order.Notes, database.NoteDB{
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})

	return nil
}

func placeOrder(t *testing.T, service *OrderService, customerID, artisanID string) models.Order {
	t.Helper()

	artisan := artisanID
	order, err := service.Checkout(context.Background(), customerID, models.CheckoutRequest{
		ArtisanID: &artisan,
		Items: []models.CheckoutItem{
			{ProductID: "prod-1", Name: "Walnut cutting board", Quantity: 1, UnitPrice: 64.0},
		},
	})
	require.NoError(t, err)

	return order
}

func TestVerifyOrderNumber(t *testing.T) {
	service := NewOrderService(newFakeOrderStorage())

	testCases := []struct {
		number string
		valid  bool
	}{
		{"ORD-20250310-A1B2C3", true},
		{"ORD-20250310-0FF1CE", true},
		{"ord-20250310-A1B2C3", false},
		{"ORD-2025031-A1B2C3", false},
		{"ORD-20250310-a1b2c3", false},
		{"ORD-20250310-A1B2C", false},
		{"ORD-20250310-G1B2C3", false},
		{"ORD-2025031X-A1B2C3", false},
		{"", false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.valid, service.VerifyOrderNumber(tc.number), tc.number)
	}
}

func TestCheckout(t *testing.T) {
	service := NewOrderService(newFakeOrderStorage())
	artisanID := "artisan-1"

	t.Run("Should reject empty item list", func(t *testing.T) {
		_, err := service.Checkout(context.Background(), "customer-1", models.CheckoutRequest{ArtisanID: &artisanID})
		assert.ErrorIs(t, err, ErrOrderIsEmpty)
	})

	t.Run("Should reject non-positive quantity", func(t *testing.T) {
		_, err := service.Checkout(context.Background(), "customer-1", models.CheckoutRequest{
			ArtisanID: &artisanID,
			Items:     []models.CheckoutItem{{ProductID: "prod-1", Name: "Mug", Quantity: 0, UnitPrice: 10}},
		})
		assert.ErrorIs(t, err, ErrLineItemIsInvalid)
	})

	t.Run("Should reject non-positive price", func(t *testing.T) {
		_, err := service.Checkout(context.Background(), "customer-1", models.CheckoutRequest{
			ArtisanID: &artisanID,
			Items:     []models.CheckoutItem{{ProductID: "prod-1", Name: "Mug", Quantity: 1, UnitPrice: 0}},
		})
		assert.ErrorIs(t, err, ErrLineItemIsInvalid)
	})

	t.Run("Should create a pending order with an initial history entry", func(t *testing.T) {
		order := placeOrder(t, service, "customer-1", artisanID)

		assert.True(t, service.VerifyOrderNumber(order.Number))
		assert.Equal(t, models.StatusPending, order.Status)
		assert.Equal(t, models.PaymentPending, order.PaymentStatus)
		assert.Equal(t, models.Money(6400), order.Total())

		require.Len(t, order.History, 1)
		assert.Equal(t, models.StatusPending, order.History[0].Status)
		assert.Equal(t, "customer-1", order.History[0].ChangedBy)
	})
}

func TestGetOrdersScoping(t *testing.T) {
	service := NewOrderService(newFakeOrderStorage())

	first := placeOrder(t, service, "customer-1", "artisan-1")
	second := placeOrder(t, service, "customer-2", "artisan-1")
	placeOrder(t, service, "customer-2", "artisan-2")

	t.Run("Customer sees only own orders", func(t *testing.T) {
		orders, err := service.GetOrders(context.Background(), models.Actor{ID: "customer-1", Role: models.RoleCustomer}, models.OrderFilter{})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, first.Number, orders[0].Number)
	})

	t.Run("Artisan sees own queue", func(t *testing.T) {
		orders, err := service.GetOrders(context.Background(), models.Actor{ID: "artisan-1", Role: models.RoleArtisan}, models.OrderFilter{})
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("Admin sees everything", func(t *testing.T) {
		orders, err := service.GetOrders(context.Background(), models.Actor{ID: "admin-1", Role: models.RoleAdmin}, models.OrderFilter{})
		require.NoError(t, err)
		assert.Len(t, orders, 3)
	})

	t.Run("Admin filter narrows by status", func(t *testing.T) {
		admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}

		_, err := service.Transition(context.Background(), admin, second.Number, models.StatusConfirmed, "")
		require.NoError(t, err)

		status := models.StatusConfirmed
		orders, err := service.GetOrders(context.Background(), admin, models.OrderFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, second.Number, orders[0].Number)
	})

	t.Run("Admin filter rejects unknown status", func(t *testing.T) {
		status := models.OrderStatus("misplaced")
		_, err := service.GetOrders(context.Background(), models.Actor{ID: "admin-1", Role: models.RoleAdmin}, models.OrderFilter{Status: &status})
		assert.ErrorIs(t, err, lifecycle.ErrUnknownStatus)
	})
}

func TestTransition(t *testing.T) {
	service := NewOrderService(newFakeOrderStorage())

	customer := models.Actor{ID: "customer-1", Role: models.RoleCustomer}
	artisan := models.Actor{ID: "artisan-1", Role: models.RoleArtisan}
	admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}

	order := placeOrder(t, service, customer.ID, artisan.ID)

	t.Run("Stranger cannot touch the order", func(t *testing.T) {
		_, err := service.Transition(context.Background(), models.Actor{ID: "customer-2", Role: models.RoleCustomer}, order.Number, models.StatusCancelled, "")
		assert.ErrorIs(t, err, ErrOrderAccessDenied)
	})

	t.Run("Missing order is reported", func(t *testing.T) {
		_, err := service.Transition(context.Background(), admin, "ORD-20250310-FFFFFF", models.StatusConfirmed, "")
		assert.ErrorIs(t, err, ErrOrderIsNotExist)
	})

	t.Run("Artisan walks the order to shipped readiness", func(t *testing.T) {
		for _, target := range []models.OrderStatus{models.StatusConfirmed, models.StatusProcessing, models.StatusReadyToShip} {
			updated, err := service.Transition(context.Background(), artisan, order.Number, target, "")
			require.NoError(t, err)
			assert.Equal(t, target, updated.Status)
		}
	})

	t.Run("Customer cannot cancel after processing", func(t *testing.T) {
		_, err := service.Transition(context.Background(), customer, order.Number, models.StatusCancelled, "")
		assert.ErrorIs(t, err, lifecycle.ErrTransitionForbidden)
	})

	t.Run("Artisan cannot mark shipped", func(t *testing.T) {
		_, err := service.Transition(context.Background(), artisan, order.Number, models.StatusShipped, "")
		assert.ErrorIs(t, err, lifecycle.ErrTransitionForbidden)
	})

	t.Run("Admin ships and delivers with a note", func(t *testing.T) {
		_, err := service.Transition(context.Background(), admin, order.Number, models.StatusShipped, "")
		require.NoError(t, err)

		updated, err := service.Transition(context.Background(), admin, order.Number, models.StatusDelivered, "left at the front desk")
		require.NoError(t, err)

		assert.Equal(t, models.StatusDelivered, updated.Status)
		require.NotEmpty(t, updated.Notes)
		assert.Equal(t, "left at the front desk", updated.Notes[len(updated.Notes)-1].Text)
	})

	t.Run("Delivered order refuses further transitions", func(t *testing.T) {
		_, err := service.Transition(context.Background(), admin, order.Number, models.StatusRefunded, "")
		assert.ErrorIs(t, err, lifecycle.ErrOrderAlreadyTerminal)
	})

	t.Run("History records every hop", func(t *testing.T) {
		loaded, err := service.GetOrder(context.Background(), admin, order.Number)
		require.NoError(t, err)

		statuses := make([]models.OrderStatus, len(loaded.History))
		for i, change := range loaded.History {
			statuses[i] = change.Status
		}

		assert.Equal(t, []models.OrderStatus{
			models.StatusPending,
			models.StatusConfirmed,
			models.StatusProcessing,
			models.StatusReadyToShip,
			models.StatusShipped,
			models.StatusDelivered,
		}, statuses)
	})
}

func TestAddNoteAndPayment(t *testing.T) {
	service := NewOrderService(newFakeOrderStorage())

	customer := models.Actor{ID: "customer-1", Role: models.RoleCustomer}
	admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}

	order := placeOrder(t, service, customer.ID, "artisan-1")

	t.Run("Customer cancels a pending order and still adds a note", func(t *testing.T) {
		_, err := service.Transition(context.Background(), customer, order.Number, models.StatusCancelled, "changed my mind")
		require.NoError(t, err)

		require.NoError(t, service.AddNote(context.Background(), customer, order.Number, "please refund to the original card"))

		loaded, err := service.GetOrder(context.Background(), customer, order.Number)
		require.NoError(t, err)
		require.Len(t, loaded.Notes, 2)
		assert.Equal(t, "please refund to the original card", loaded.Notes[1].Text)
	})

	t.Run("Payment status moves independently of the cancelled order", func(t *testing.T) {
		require.NoError(t, service.SetPaymentStatus(context.Background(), order.Number, models.PaymentRefunded))

		loaded, err := service.GetOrder(context.Background(), admin, order.Number)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentRefunded, loaded.PaymentStatus)
	})

	t.Run("Unknown payment status is rejected", func(t *testing.T) {
		err := service.SetPaymentStatus(context.Background(), order.Number, models.PaymentStatus("voided"))
		assert.ErrorIs(t, err, lifecycle.ErrUnknownStatus)
	})

	t.Run("Missing order is reported", func(t *testing.T) {
		err := service.SetPaymentStatus(context.Background(), "ORD-20250310-FFFFFF", models.PaymentCompleted)
		assert.ErrorIs(t, err, ErrOrderIsNotExist)
	})
}
