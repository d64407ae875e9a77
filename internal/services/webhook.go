package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/craftline/marketplace/internal/database"
	"github.com/craftline/marketplace/internal/logger"
	"github.com/craftline/marketplace/internal/utils"
	"go.uber.org/zap"
)

var errWebhookRejected = errors.New("fulfillment endpoint rejected the event")

// retryDelay spaces out redelivery attempts after a failed push.
const retryDelay = time.Minute

// NotifierService pushes committed status changes to the external
// fulfillment endpoint in the background. Transition legality is decided
// before anything reaches this service; it owns transport concerns only.
// Undelivered changes are tracked in storage so they survive restarts.
type NotifierService struct {
	storage          notifierStorage
	jobQueueService  notifierJobQueueService
	externalEndpoint string
	serviceToken     string
}

type notifierStorage interface {
	FindUndeliveredOrders(ctx context.Context) ([]string, error)

	FindUndeliveredStatusChanges(ctx context.Context, number string) ([]database.StatusChangeDB, error)

	MarkStatusChangeDelivered(ctx context.Context, id int64) error
}

type notifierJobQueueService interface {
	Enqueue(job Job) error

	ScheduleJob(job Job, delay time.Duration)

	PauseAndResume(delay time.Duration)
}

func NewNotifierService(storage notifierStorage, jobQueueService notifierJobQueueService, externalEndpoint, serviceToken string) *NotifierService {
	return &NotifierService{
		storage:          storage,
		jobQueueService:  jobQueueService,
		externalEndpoint: externalEndpoint,
		serviceToken:     serviceToken,
	}
}

// statusChangeEvent is the payload shape the fulfillment endpoint accepts.
type statusChangeEvent struct {
	OrderNumber string            `json:"order_number"`
	Status      string            `json:"status"`
	Note        *string           `json:"note,omitempty"`
	ChangedBy   string            `json:"changed_by"`
	ChangedAt   utils.RFC3339Date `json:"changed_at"`
}

// NotifyStatusChange enqueues delivery of the order's unpushed status
// changes, oldest first. Safe to call repeatedly for the same order.
func (ns *NotifierService) NotifyStatusChange(orderNumber string) {
	err := ns.jobQueueService.Enqueue(func(ctx context.Context) {
		changes, err := ns.storage.FindUndeliveredStatusChanges(ctx, orderNumber)
		if err != nil {
			logger.Log.Error("failed to load undelivered status changes", zap.Error(err), zap.String("orderNumber", orderNumber))
			return
		}

		for _, change := range changes {
			retryAfter, err := ns.pushStatusChange(ctx, change)

			if retryAfter > 0 {
				logger.Log.Info("got retryAfter from fulfillment endpoint",
					zap.Int("retryAfter", retryAfter),
					zap.String("orderNumber", orderNumber),
				)
				ns.jobQueueService.PauseAndResume(time.Second * time.Duration(retryAfter))
				ns.NotifyStatusChange(orderNumber)
				return
			}

			if err != nil {
				logger.Log.Error("failed to push status change", zap.Error(err), zap.String("orderNumber", orderNumber))
				ns.jobQueueService.ScheduleJob(func(ctx context.Context) {
					ns.NotifyStatusChange(orderNumber)
				}, retryDelay)
				return
			}

			if err := ns.storage.MarkStatusChangeDelivered(ctx, change.ID); err != nil {
				logger.Log.Error("failed to mark status change delivered", zap.Error(err), zap.Int64("changeID", change.ID))
				return
			}

			logger.Log.Info("pushed status change",
				zap.String("orderNumber", orderNumber),
				zap.String("status", string(change.Status.OrderStatus)),
			)
		}
	})
	if err != nil {
		logger.Log.Error("failed to enqueue status change delivery", zap.Error(err), zap.String("orderNumber", orderNumber))
	}
}

// StartRedelivery re-enqueues every order that still has unpushed status
// changes. Called once at startup.
func (ns *NotifierService) StartRedelivery(ctx context.Context) error {
	orderNumbers, err := ns.storage.FindUndeliveredOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to find undelivered orders: %w", err)
	}

	for _, orderNumber := range orderNumbers {
		ns.NotifyStatusChange(orderNumber)
	}

	return nil
}

// pushStatusChange POSTs one event. A 429 response yields the Retry-After
// value in seconds with no error; any other non-2xx status is an error.
func (ns *NotifierService) pushStatusChange(ctx context.Context, change database.StatusChangeDB) (int, error) {
	event := statusChangeEvent{
		OrderNumber: change.OrderNumber,
		Status:      string(change.Status.OrderStatus),
		Note:        change.Note,
		ChangedBy:   change.ChangedBy,
		ChangedAt:   utils.RFC3339Date{Time: change.ChangedAt},
	}

	body, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to encode status change event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ns.externalEndpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if ns.serviceToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", ns.serviceToken))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call fulfillment endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
		if err != nil || retryAfter <= 0 {
			retryAfter = int(retryDelay / time.Second)
		}
		return retryAfter, nil
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("%w: status %d", errWebhookRejected, resp.StatusCode)
	}

	return 0, nil
}
