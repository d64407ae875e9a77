package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/craftline/marketplace/internal/lifecycle"
	"github.com/craftline/marketplace/internal/middlewares"
	"github.com/craftline/marketplace/internal/models"
	"github.com/craftline/marketplace/internal/services"
	"github.com/go-chi/chi/v5"
)

// Checkout creates a pending order from the customer's submitted items.
func Checkout(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.CheckoutRequest](w, r)
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	account := middlewares.GetAccountFromContext(w, r)

	if account.Role != models.RoleCustomer {
		http.Error(w, "Only customers can place orders", http.StatusForbidden)
		return
	}

	order, err := (*orderService).Checkout(r.Context(), account.ID, data)
	if err != nil {
		if errors.Is(err, services.ErrOrderIsEmpty) || errors.Is(err, services.ErrLineItemIsInvalid) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during creating order: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	middlewares.EncodeJSONResponse(w, order)
}

// GetOrders returns the actor's role-scoped order list. Admins may filter
// by status and payment_status query parameters.
func GetOrders(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	account := middlewares.GetAccountFromContext(w, r)

	filter := models.OrderFilter{}
	if status := r.URL.Query().Get("status"); status != "" {
		orderStatus := models.OrderStatus(status)
		filter.Status = &orderStatus
	}
	if paymentStatus := r.URL.Query().Get("payment_status"); paymentStatus != "" {
		ps := models.PaymentStatus(paymentStatus)
		filter.PaymentStatus = &ps
	}

	orders, err := (*orderService).GetOrders(r.Context(), account.Actor(), filter)
	if err != nil {
		if errors.Is(err, lifecycle.ErrUnknownStatus) {
			http.Error(w, "Status filter is not a recognized status", http.StatusUnprocessableEntity)
			return
		}

		http.Error(w, fmt.Sprintf("Error occurred during getting orders: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	middlewares.EncodeJSONResponse(w, orders)
}

// GetOrder returns one order with its status history and notes.
func GetOrder(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	account := middlewares.GetAccountFromContext(w, r)

	number := chi.URLParam(r, "number")
	if !(*orderService).VerifyOrderNumber(number) {
		http.Error(w, "Order number is invalid", http.StatusUnprocessableEntity)
		return
	}

	order, err := (*orderService).GetOrder(r.Context(), account.Actor(), number)
	if err != nil {
		writeOrderError(w, err, "getting order")
		return
	}

	middlewares.EncodeJSONResponse(w, order)
}

// GetActions lists the statuses the caller may request next. An empty list
// means no action is available; that is a normal response, not an error.
func GetActions(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	account := middlewares.GetAccountFromContext(w, r)

	number := chi.URLParam(r, "number")
	if !(*orderService).VerifyOrderNumber(number) {
		http.Error(w, "Order number is invalid", http.StatusUnprocessableEntity)
		return
	}

	order, err := (*orderService).GetOrder(r.Context(), account.Actor(), number)
	if err != nil {
		writeOrderError(w, err, "getting order")
		return
	}

	middlewares.EncodeJSONResponse(w, models.ActionsResponse{
		Number:  order.Number,
		Status:  order.Status,
		Actions: lifecycle.AllowedNextStatusesForRole(order.Status, account.Role),
	})
}

// ChangeStatus requests a status transition for the order.
func ChangeStatus(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.TransitionRequest](w, r)
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	notifierService := middlewares.GetServiceFromContext[models.NotifierService](w, r, middlewares.NotifierServiceKey)
	account := middlewares.GetAccountFromContext(w, r)

	number := chi.URLParam(r, "number")
	if !(*orderService).VerifyOrderNumber(number) {
		http.Error(w, "Order number is invalid", http.StatusUnprocessableEntity)
		return
	}

	if data.Status == nil {
		http.Error(w, "Request doesn't contain a target status", http.StatusBadRequest)
		return
	}

	note := ""
	if data.Note != nil {
		note = *data.Note
	}

	order, err := (*orderService).Transition(r.Context(), account.Actor(), number, models.OrderStatus(*data.Status), note)
	if err != nil {
		if errors.Is(err, lifecycle.ErrTransitionForbidden) {
			http.Error(w, fmt.Sprintf("Transition to %s is not permitted for role %s", *data.Status, account.Role), http.StatusForbidden)
			return
		}

		if errors.Is(err, lifecycle.ErrOrderAlreadyTerminal) {
			http.Error(w, "Order is already in a terminal status", http.StatusConflict)
			return
		}

		if errors.Is(err, lifecycle.ErrUnknownStatus) {
			http.Error(w, fmt.Sprintf("Status %s is not a recognized status", *data.Status), http.StatusUnprocessableEntity)
			return
		}

		writeOrderError(w, err, "changing order status")
		return
	}

	(*notifierService).NotifyStatusChange(order.Number)

	middlewares.EncodeJSONResponse(w, order)
}

// AddNote appends a plain-text note to the order.
func AddNote(w http.ResponseWriter, r *http.Request) {
	text := middlewares.GetParsedTextData(w, r)
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	account := middlewares.GetAccountFromContext(w, r)

	number := chi.URLParam(r, "number")
	if !(*orderService).VerifyOrderNumber(number) {
		http.Error(w, "Order number is invalid", http.StatusUnprocessableEntity)
		return
	}

	if len(text) == 0 {
		http.Error(w, "Note text is empty", http.StatusUnprocessableEntity)
		return
	}

	if err := (*orderService).AddNote(r.Context(), account.Actor(), number, text); err != nil {
		if errors.Is(err, lifecycle.ErrUnknownStatus) {
			http.Error(w, "Order status is not a recognized status", http.StatusUnprocessableEntity)
			return
		}

		writeOrderError(w, err, "adding note")
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// SetPaymentStatus is admin-only bookkeeping for the payment state machine.
func SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.PaymentRequest](w, r)
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	account := middlewares.GetAccountFromContext(w, r)

	if account.Role != models.RoleAdmin {
		http.Error(w, "Only admins can update payment status", http.StatusForbidden)
		return
	}

	number := chi.URLParam(r, "number")
	if !(*orderService).VerifyOrderNumber(number) {
		http.Error(w, "Order number is invalid", http.StatusUnprocessableEntity)
		return
	}

	if data.PaymentStatus == nil {
		http.Error(w, "Request doesn't contain a payment status", http.StatusBadRequest)
		return
	}

	if err := (*orderService).SetPaymentStatus(r.Context(), number, models.PaymentStatus(*data.PaymentStatus)); err != nil {
		if errors.Is(err, lifecycle.ErrUnknownStatus) {
			http.Error(w, fmt.Sprintf("Payment status %s is not recognized", *data.PaymentStatus), http.StatusUnprocessableEntity)
			return
		}

		writeOrderError(w, err, "updating payment status")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func writeOrderError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, services.ErrOrderIsNotExist) {
		http.Error(w, "Order is not found", http.StatusNotFound)
		return
	}

	if errors.Is(err, services.ErrOrderAccessDenied) {
		http.Error(w, "Order belongs to another account", http.StatusForbidden)
		return
	}

	http.Error(w, fmt.Sprintf("Error occurred during %s: %s", action, err.Error()), http.StatusInternalServerError)
}
