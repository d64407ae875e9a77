package lifecycle

import (
	"testing"
	"time"

	"github.com/craftline/marketplace/internal/models"
	"github.com/craftline/marketplace/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(status models.OrderStatus) models.Order {
	created := utils.RFC3339Date{Time: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	return models.Order{
		Number:        "ORD-20250310-A1B2C3",
		Status:        status,
		PaymentStatus: models.PaymentPending,
		CustomerID:    "customer-1",
		ArtisanID:     "artisan-1",
		Items: []models.LineItem{
			{ProductID: "prod-1", Name: "Ceramic mug", Quantity: 2, UnitPrice: 1850},
		},
		History: []models.StatusChange{
			{Status: models.StatusPending, ChangedAt: created, ChangedBy: "customer-1"},
		},
		CreatedAt: created,
	}
}

func TestTransitionTable(t *testing.T) {
	testCases := []struct {
		current  models.OrderStatus
		expected []models.OrderStatus
	}{
		{models.StatusPending, []models.OrderStatus{models.StatusConfirmed, models.StatusCancelled}},
		{models.StatusConfirmed, []models.OrderStatus{models.StatusProcessing, models.StatusCancelled}},
		{models.StatusProcessing, []models.OrderStatus{models.StatusReadyToShip, models.StatusCancelled}},
		{models.StatusReadyToShip, []models.OrderStatus{models.StatusShipped, models.StatusCancelled}},
		{models.StatusShipped, []models.OrderStatus{models.StatusDelivered, models.StatusRefunded}},
		{models.StatusDelivered, []models.OrderStatus{}},
		{models.StatusCancelled, []models.OrderStatus{}},
		{models.StatusRefunded, []models.OrderStatus{}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.current), func(t *testing.T) {
			assert.ElementsMatch(t, tc.expected, AllowedNextStatuses(tc.current))
		})
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	for _, status := range []models.OrderStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusProcessing,
		models.StatusReadyToShip, models.StatusShipped, models.StatusDelivered,
		models.StatusCancelled, models.StatusRefunded,
	} {
		if IsTerminal(status) {
			assert.Empty(t, AllowedNextStatuses(status), "terminal status %s must have no transitions", status)
		} else {
			assert.NotEmpty(t, AllowedNextStatuses(status), "non-terminal status %s must have transitions", status)
		}
	}
}

func TestPreShipmentStatusesAreCancellable(t *testing.T) {
	for _, status := range []models.OrderStatus{
		models.StatusPending, models.StatusConfirmed,
		models.StatusProcessing, models.StatusReadyToShip,
	} {
		assert.Contains(t, AllowedNextStatuses(status), models.StatusCancelled,
			"status %s must allow cancellation", status)
	}
	assert.NotContains(t, AllowedNextStatuses(models.StatusShipped), models.StatusCancelled)
}

func TestRolePermissionsNeverExceedBaseTable(t *testing.T) {
	allStatuses := []models.OrderStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusProcessing,
		models.StatusReadyToShip, models.StatusShipped, models.StatusDelivered,
		models.StatusCancelled, models.StatusRefunded,
	}

	for _, role := range []models.Role{models.RoleCustomer, models.RoleArtisan, models.RoleAdmin} {
		for _, status := range allStatuses {
			base := AllowedNextStatuses(status)
			for _, target := range AllowedNextStatusesForRole(status, role) {
				assert.Contains(t, base, target,
					"role %s was granted %s -> %s which the base table forbids", role, status, target)
			}
		}
	}
}

func TestAllowedNextStatusesForRole(t *testing.T) {
	testCases := []struct {
		name     string
		current  models.OrderStatus
		role     models.Role
		expected []models.OrderStatus
	}{
		{
			name:     "artisan confirms or cancels a pending order",
			current:  models.StatusPending,
			role:     models.RoleArtisan,
			expected: []models.OrderStatus{models.StatusConfirmed, models.StatusCancelled},
		},
		{
			name:     "artisan cannot touch a shipped order",
			current:  models.StatusShipped,
			role:     models.RoleArtisan,
			expected: []models.OrderStatus{},
		},
		{
			name:     "admin resolves a shipped order",
			current:  models.StatusShipped,
			role:     models.RoleAdmin,
			expected: []models.OrderStatus{models.StatusDelivered, models.StatusRefunded},
		},
		{
			name:     "customer may cancel before shipment",
			current:  models.StatusProcessing,
			role:     models.RoleCustomer,
			expected: []models.OrderStatus{models.StatusCancelled},
		},
		{
			name:     "customer may not cancel once ready to ship",
			current:  models.StatusReadyToShip,
			role:     models.RoleCustomer,
			expected: []models.OrderStatus{},
		},
		{
			name:     "unknown role gets nothing",
			current:  models.StatusPending,
			role:     models.Role("support"),
			expected: []models.OrderStatus{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ElementsMatch(t, tc.expected, AllowedNextStatusesForRole(tc.current, tc.role))
			assert.Equal(t, len(tc.expected) > 0, CanActorModify(tc.current, tc.role))
		})
	}
}

func TestRequestTransition(t *testing.T) {
	testCases := []struct {
		name        string
		current     models.OrderStatus
		target      models.OrderStatus
		actor       models.Actor
		expectedErr error
	}{
		{
			name:    "artisan confirms a pending order",
			current: models.StatusPending,
			target:  models.StatusConfirmed,
			actor:   models.Actor{ID: "artisan-1", Role: models.RoleArtisan},
		},
		{
			name:        "artisan cannot mark an order shipped",
			current:     models.StatusPending,
			target:      models.StatusShipped,
			actor:       models.Actor{ID: "artisan-1", Role: models.RoleArtisan},
			expectedErr: ErrTransitionForbidden,
		},
		{
			name:    "admin marks a shipped order delivered",
			current: models.StatusShipped,
			target:  models.StatusDelivered,
			actor:   models.Actor{ID: "admin-1", Role: models.RoleAdmin},
		},
		{
			name:        "cancelled orders accept no transition",
			current:     models.StatusCancelled,
			target:      models.StatusConfirmed,
			actor:       models.Actor{ID: "admin-1", Role: models.RoleAdmin},
			expectedErr: ErrOrderAlreadyTerminal,
		},
		{
			name:    "customer cancels a confirmed order",
			current: models.StatusConfirmed,
			target:  models.StatusCancelled,
			actor:   models.Actor{ID: "customer-1", Role: models.RoleCustomer},
		},
		{
			name:        "unknown target status is rejected",
			current:     models.StatusPending,
			target:      models.OrderStatus("misplaced"),
			actor:       models.Actor{ID: "admin-1", Role: models.RoleAdmin},
			expectedErr: ErrUnknownStatus,
		},
		{
			name:        "unknown current status is rejected",
			current:     models.OrderStatus("corrupted"),
			target:      models.StatusConfirmed,
			actor:       models.Actor{ID: "admin-1", Role: models.RoleAdmin},
			expectedErr: ErrUnknownStatus,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			order := testOrder(tc.current)

			next, err := RequestTransition(order, tc.target, tc.actor, "")

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				assert.Equal(t, order, next, "a failed transition must return the order unchanged")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.target, next.Status)

			last := next.History[len(next.History)-1]
			assert.Equal(t, tc.target, last.Status)
			assert.Equal(t, tc.actor.ID, last.ChangedBy)
		})
	}
}

func TestRequestTransitionDoesNotMutateInput(t *testing.T) {
	order := testOrder(models.StatusPending)
	actor := models.Actor{ID: "artisan-1", Role: models.RoleArtisan}

	next, err := RequestTransition(order, models.StatusConfirmed, actor, "picked up by the workshop")
	require.NoError(t, err)

	// The input keeps its original status, history and notes.
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Len(t, order.History, 1)
	assert.Empty(t, order.Notes)

	assert.Equal(t, models.StatusConfirmed, next.Status)
	assert.Len(t, next.History, 2)
	require.Len(t, next.Notes, 1)
	assert.Equal(t, "picked up by the workshop", next.Notes[0].Text)
	assert.Equal(t, "artisan-1", next.Notes[0].Author)
}

func TestCanAddNote(t *testing.T) {
	for _, status := range []models.OrderStatus{
		models.StatusPending, models.StatusShipped,
		models.StatusDelivered, models.StatusCancelled, models.StatusRefunded,
	} {
		assert.True(t, CanAddNote(status), "notes must be appendable in status %s", status)
	}
	assert.False(t, CanAddNote(models.OrderStatus("misplaced")))
}
