package lifecycle

import (
	"errors"
	"time"

	"github.com/craftline/marketplace/internal/models"
	"github.com/craftline/marketplace/internal/utils"
)

// Typed failures of RequestTransition. Callers branch on these with
// errors.Is to pick the right messaging: Forbidden means the UI offered a
// stale action, AlreadyTerminal means the view needs a refresh,
// UnknownStatus means the value never belonged to the enumeration.
var (
	ErrTransitionForbidden  = errors.New("transition is not permitted for this role")
	ErrOrderAlreadyTerminal = errors.New("order is already in a terminal status")
	ErrUnknownStatus        = errors.New("unknown order status")
)

// RequestTransition validates current -> target for the actor and returns a
// copy of the order with the new status, an appended history entry and, when
// note is non-empty, an appended note. The input order is never mutated:
// on failure the caller's copy is exactly what it was.
//
// The function performs no I/O. Persisting the returned order (and sending
// it to any downstream consumer) is the caller's job.
func RequestTransition(order models.Order, target models.OrderStatus, actor models.Actor, note string) (models.Order, error) {
	if !KnownStatus(order.Status) || !KnownStatus(target) {
		return order, ErrUnknownStatus
	}

	if IsTerminal(order.Status) {
		return order, ErrOrderAlreadyTerminal
	}

	if !permitted(order.Status, target, actor.Role) {
		return order, ErrTransitionForbidden
	}

	now := utils.RFC3339Date{Time: time.Now().UTC()}

	next := order
	next.Status = target

	next.History = make([]models.StatusChange, len(order.History), len(order.History)+1)
	copy(next.History, order.History)
	next.History = append(next.History, models.StatusChange{
		Status:    target,
		ChangedAt: now,
		ChangedBy: actor.ID,
	})

	if note != "" {
		next.Notes = make([]models.Note, len(order.Notes), len(order.Notes)+1)
		copy(next.Notes, order.Notes)
		next.Notes = append(next.Notes, models.Note{
			Author:    actor.ID,
			Text:      note,
			CreatedAt: now,
		})
	}

	return next, nil
}

func permitted(current, target models.OrderStatus, role models.Role) bool {
	for _, status := range AllowedNextStatusesForRole(current, role) {
		if status == target {
			return true
		}
	}
	return false
}
