package lifecycle

import (
	"github.com/craftline/marketplace/internal/models"
)

// roleTargets lists the statuses each role may request. Artisans run the
// workshop side of the lifecycle but never shipping outcomes; admins are
// unrestricted; customers may only cancel.
var roleTargets = map[models.Role]map[models.OrderStatus]bool{
	models.RoleArtisan: {
		models.StatusConfirmed:   true,
		models.StatusProcessing:  true,
		models.StatusReadyToShip: true,
		models.StatusCancelled:   true,
	},
	models.RoleAdmin: knownStatuses,
	models.RoleCustomer: {
		models.StatusCancelled: true,
	},
}

// customerCancelSources limits customer cancellation to before shipment.
var customerCancelSources = map[models.OrderStatus]bool{
	models.StatusPending:    true,
	models.StatusConfirmed:  true,
	models.StatusProcessing: true,
}

// AllowedNextStatusesForRole intersects the base transition table with the
// role permission table. An empty result means "no action available" for
// that actor, not an error.
func AllowedNextStatusesForRole(current models.OrderStatus, role models.Role) []models.OrderStatus {
	targets := roleTargets[role]
	if targets == nil {
		return []models.OrderStatus{}
	}

	if role == models.RoleCustomer && !customerCancelSources[current] {
		return []models.OrderStatus{}
	}

	result := []models.OrderStatus{}
	for _, status := range AllowedNextStatuses(current) {
		if targets[status] {
			result = append(result, status)
		}
	}
	return result
}

// CanActorModify reports whether the role has at least one permitted
// transition from the given status. Surfaces use it to decide whether to
// render an action menu at all.
func CanActorModify(current models.OrderStatus, role models.Role) bool {
	return len(AllowedNextStatusesForRole(current, role)) > 0
}
