// Package lifecycle is the single source of truth for order status
// transitions and the roles allowed to request them. Every surface that
// offers status actions (customer order view, artisan queue, admin table)
// must consult this package instead of keeping its own list.
//
// The package is pure computation: no I/O, no clock other than stamping
// history entries, no persistence. Callers persist the returned state.
package lifecycle

import (
	"github.com/craftline/marketplace/internal/models"
)

// statusProgression fixes the order in which statuses are reported to
// callers, so action menus render consistently across surfaces.
var statusProgression = []models.OrderStatus{
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusProcessing,
	models.StatusReadyToShip,
	models.StatusShipped,
	models.StatusDelivered,
	models.StatusCancelled,
	models.StatusRefunded,
}

var knownStatuses = map[models.OrderStatus]bool{
	models.StatusPending:     true,
	models.StatusConfirmed:   true,
	models.StatusProcessing:  true,
	models.StatusReadyToShip: true,
	models.StatusShipped:     true,
	models.StatusDelivered:   true,
	models.StatusCancelled:   true,
	models.StatusRefunded:    true,
}

var knownPaymentStatuses = map[models.PaymentStatus]bool{
	models.PaymentPending:    true,
	models.PaymentProcessing: true,
	models.PaymentCompleted:  true,
	models.PaymentFailed:     true,
	models.PaymentRefunded:   true,
}

var knownRoles = map[models.Role]bool{
	models.RoleCustomer: true,
	models.RoleArtisan:  true,
	models.RoleAdmin:    true,
}

var terminalStatuses = map[models.OrderStatus]bool{
	models.StatusDelivered: true,
	models.StatusCancelled: true,
	models.StatusRefunded:  true,
}

// KnownStatus reports whether the value is a member of the status
// enumeration. Unrecognized values never fall back to a default; callers
// must surface them as ErrUnknownStatus.
func KnownStatus(status models.OrderStatus) bool {
	return knownStatuses[status]
}

func KnownPaymentStatus(status models.PaymentStatus) bool {
	return knownPaymentStatuses[status]
}

func KnownRole(role models.Role) bool {
	return knownRoles[role]
}

// IsTerminal reports whether no further status transition exists. Terminal
// orders still accept notes.
func IsTerminal(status models.OrderStatus) bool {
	return terminalStatuses[status]
}

// CanAddNote is permissive: annotating a cancelled or refunded order is
// still valid historical record keeping. Only unrecognized statuses are
// rejected.
func CanAddNote(status models.OrderStatus) bool {
	return knownStatuses[status]
}
