package lifecycle

import (
	"github.com/craftline/marketplace/internal/models"
)

// transitions is the base table of legal one-step moves, independent of who
// is asking. delivered, cancelled and refunded are terminal. shipped moves
// only forward: once dispatched, an order can no longer be cancelled, only
// delivered or refunded.
var transitions = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.StatusPending:     {models.StatusConfirmed: true, models.StatusCancelled: true},
	models.StatusConfirmed:   {models.StatusProcessing: true, models.StatusCancelled: true},
	models.StatusProcessing:  {models.StatusReadyToShip: true, models.StatusCancelled: true},
	models.StatusReadyToShip: {models.StatusShipped: true, models.StatusCancelled: true},
	models.StatusShipped:     {models.StatusDelivered: true, models.StatusRefunded: true},
	models.StatusDelivered:   {},
	models.StatusCancelled:   {},
	models.StatusRefunded:    {},
}

// CanTransition reports whether current -> target is in the base table.
func CanTransition(current, target models.OrderStatus) bool {
	next := transitions[current]
	return next != nil && next[target]
}

// AllowedNextStatuses returns every status reachable in one step from
// current, regardless of actor. Terminal and unrecognized statuses yield an
// empty slice.
func AllowedNextStatuses(current models.OrderStatus) []models.OrderStatus {
	next := transitions[current]
	if len(next) == 0 {
		return []models.OrderStatus{}
	}

	result := make([]models.OrderStatus, 0, len(next))
	for _, status := range statusProgression {
		if next[status] {
			result = append(result, status)
		}
	}
	return result
}
