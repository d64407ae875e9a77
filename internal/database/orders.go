package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/craftline/marketplace/internal/lifecycle"
	"github.com/craftline/marketplace/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateOrder = errors.New("order already exists")
	ErrOrderNotFound  = errors.New("order not found")
)

const (
	InsertOrderQuery = `
		INSERT INTO
			orders (number, customer_id, artisan_id, status, payment_status)
		VALUES ($1, $2, $3, $4, $5)
	`
	InsertOrderItemQuery = `
		INSERT INTO
			order_items (order_number, product_id, name, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5)
	`
	SelectOrderQuery = `
		SELECT
			number,
			customer_id,
			artisan_id,
			status,
			payment_status,
			created_at
		FROM
			orders
		WHERE
			number = $1
	`
	SelectOrdersQuery = `
		SELECT
			number,
			customer_id,
			artisan_id,
			status,
			payment_status,
			created_at
		FROM
			orders
		WHERE
			($1::uuid IS NULL OR customer_id = $1)
			AND ($2::uuid IS NULL OR artisan_id = $2)
			AND ($3::text IS NULL OR status = $3)
			AND ($4::text IS NULL OR payment_status = $4)
	`
	SelectOrderItemsQuery = `
		SELECT
			product_id,
			name,
			quantity,
			unit_price_cents
		FROM
			order_items
		WHERE
			order_number = $1
		ORDER BY
			id
	`
	SelectStatusHistoryQuery = `
		SELECT
			id,
			order_number,
			status,
			changed_by,
			changed_at,
			note,
			delivered
		FROM
			status_history
		WHERE
			order_number = $1
		ORDER BY
			id
	`
	SelectOrderNotesQuery = `
		SELECT
			author_id,
			body,
			created_at
		FROM
			order_notes
		WHERE
			order_number = $1
		ORDER BY
			id
	`
	UpdateOrderStatusQuery = `
		UPDATE
			orders
		SET
			status = $2
		WHERE
			number = $1
	`
	UpdatePaymentStatusQuery = `
		UPDATE
			orders
		SET
			payment_status = $2
		WHERE
			number = $1
	`
	InsertStatusHistoryQuery = `
		INSERT INTO
			status_history (order_number, status, changed_by, note)
		VALUES ($1, $2, $3, $4)
	`
	InsertOrderNoteQuery = `
		INSERT INTO
			order_notes (order_number, author_id, body)
		VALUES ($1, $2, $3)
	`
	SelectUndeliveredOrdersQuery = `
		SELECT DISTINCT
			order_number
		FROM
			status_history
		WHERE
			NOT delivered
	`
	SelectUndeliveredStatusChangesQuery = `
		SELECT
			id,
			order_number,
			status,
			changed_by,
			changed_at,
			note,
			delivered
		FROM
			status_history
		WHERE
			order_number = $1
			AND NOT delivered
		ORDER BY
			id
	`
	MarkStatusChangeDeliveredQuery = `
		UPDATE
			status_history
		SET
			delivered = TRUE
		WHERE
			id = $1
	`
)

type OrderDB struct {
	Number        string
	CustomerID    string
	ArtisanID     string
	Status        OrderStatusDB
	PaymentStatus PaymentStatusDB
	CreatedAt     time.Time
	Items         []OrderItemDB
	History       []StatusChangeDB
	Notes         []NoteDB
}

type OrderItemDB struct {
	ProductID      string
	Name           string
	Quantity       int
	UnitPriceCents int64
}

type StatusChangeDB struct {
	ID          int64
	OrderNumber string
	Status      OrderStatusDB
	ChangedBy   string
	ChangedAt   time.Time
	Note        *string
	Delivered   bool
}

type NoteDB struct {
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// OrdersFilter narrows FindOrders. Nil fields are not applied.
type OrdersFilter struct {
	CustomerID    *string
	ArtisanID     *string
	Status        *string
	PaymentStatus *string
}

// OrderStatusDB adapts models.OrderStatus to a text column. Scan rejects
// values outside the enumeration so corrupt rows surface as errors instead
// of leaking unknown statuses into the policy layer.
type OrderStatusDB struct {
	models.OrderStatus
}

func (s *OrderStatusDB) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("order status must be a string, not %T", value)
	}

	if !lifecycle.KnownStatus(models.OrderStatus(strVal)) {
		return fmt.Errorf("order status %q: %w", strVal, lifecycle.ErrUnknownStatus)
	}

	*s = OrderStatusDB{models.OrderStatus(strVal)}
	return nil
}

func (s OrderStatusDB) Value() (driver.Value, error) {
	return string(s.OrderStatus), nil
}

type PaymentStatusDB struct {
	models.PaymentStatus
}

func (s *PaymentStatusDB) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("payment status must be a string, not %T", value)
	}

	if !lifecycle.KnownPaymentStatus(models.PaymentStatus(strVal)) {
		return fmt.Errorf("payment status %q: %w", strVal, lifecycle.ErrUnknownStatus)
	}

	*s = PaymentStatusDB{models.PaymentStatus(strVal)}
	return nil
}

func (s PaymentStatusDB) Value() (driver.Value, error) {
	return string(s.PaymentStatus), nil
}

// CreateOrder persists the order, its line items and the initial history
// entry in one transaction.
func (d *Database) CreateOrder(ctx context.Context, order models.Order) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, InsertOrderQuery,
		order.Number,
		order.CustomerID,
		order.ArtisanID,
		OrderStatusDB{order.Status},
		PaymentStatusDB{order.PaymentStatus},
	)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		if _, err := tx.Exec(ctx, InsertOrderItemQuery,
			order.Number, item.ProductID, item.Name, item.Quantity, int64(item.UnitPrice),
		); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	for _, change := range order.History {
		if _, err := tx.Exec(ctx, InsertStatusHistoryQuery,
			order.Number, OrderStatusDB{change.Status}, change.ChangedBy, nil,
		); err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindOrder loads an order with its items, status history and notes.
// Returns nil without error when the order does not exist.
func (d *Database) FindOrder(ctx context.Context, number string) (*OrderDB, error) {
	order := &OrderDB{}

	err := d.db.QueryRow(ctx, SelectOrderQuery, number).
		Scan(&order.Number, &order.CustomerID, &order.ArtisanID, &order.Status, &order.PaymentStatus, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if order.Items, err = d.findOrderItems(ctx, number); err != nil {
		return nil, err
	}

	if order.History, err = d.findStatusHistory(ctx, number); err != nil {
		return nil, err
	}

	if order.Notes, err = d.findOrderNotes(ctx, number); err != nil {
		return nil, err
	}

	return order, nil
}

func (d *Database) findOrderItems(ctx context.Context, number string) ([]OrderItemDB, error) {
	rows, err := d.db.Query(ctx, SelectOrderItemsQuery, number)
	if err != nil {
		return nil, fmt.Errorf("failed to find order items: %w", err)
	}
	defer rows.Close()

	var result []OrderItemDB
	for rows.Next() {
		var item OrderItemDB
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("failed to scan order item row: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order item rows: %w", err)
	}

	return result, nil
}

func (d *Database) findStatusHistory(ctx context.Context, number string) ([]StatusChangeDB, error) {
	return d.queryStatusChanges(ctx, SelectStatusHistoryQuery, number)
}

func (d *Database) findOrderNotes(ctx context.Context, number string) ([]NoteDB, error) {
	rows, err := d.db.Query(ctx, SelectOrderNotesQuery, number)
	if err != nil {
		return nil, fmt.Errorf("failed to find order notes: %w", err)
	}
	defer rows.Close()

	var result []NoteDB
	for rows.Next() {
		var note NoteDB
		if err := rows.Scan(&note.AuthorID, &note.Body, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order note row: %w", err)
		}
		result = append(result, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order note rows: %w", err)
	}

	return result, nil
}

// FindOrders returns order rows with their items (no history or notes) for
// listing surfaces.
func (d *Database) FindOrders(ctx context.Context, filter OrdersFilter) (*[]OrderDB, error) {
	rows, err := d.db.Query(ctx, SelectOrdersQuery,
		filter.CustomerID, filter.ArtisanID, filter.Status, filter.PaymentStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer rows.Close()

	var result []OrderDB
	for rows.Next() {
		var item OrderDB
		if err := rows.Scan(&item.Number, &item.CustomerID, &item.ArtisanID, &item.Status, &item.PaymentStatus, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order rows: %w", err)
	}

	for i := range result {
		if result[i].Items, err = d.findOrderItems(ctx, result[i].Number); err != nil {
			return nil, err
		}
	}

	return &result, nil
}

// UpdateOrderStatus updates the order row and appends the matching history
// entry (and optional note) in one transaction, keeping the invariant that
// the last history entry equals the current status.
func (d *Database) UpdateOrderStatus(ctx context.Context, number string, status OrderStatusDB, changedBy string, note *string) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, UpdateOrderStatusQuery, number, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	if _, err := tx.Exec(ctx, InsertStatusHistoryQuery, number, status, changedBy, note); err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}

	if note != nil {
		if _, err := tx.Exec(ctx, InsertOrderNoteQuery, number, changedBy, *note); err != nil {
			return fmt.Errorf("failed to record transition note: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}

	return nil
}

// UpdatePaymentStatus is plain bookkeeping; payment status has no history.
func (d *Database) UpdatePaymentStatus(ctx context.Context, number string, status PaymentStatusDB) error {
	tag, err := d.db.Exec(ctx, UpdatePaymentStatusQuery, number, status)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// AppendNote adds a free-text note; notes are append-only.
func (d *Database) AppendNote(ctx context.Context, number, authorID, body string) error {
	if _, err := d.db.Exec(ctx, InsertOrderNoteQuery, number, authorID, body); err != nil {
		return fmt.Errorf("failed to append note: %w", err)
	}
	return nil
}

// FindUndeliveredOrders returns the numbers of orders that still have
// status changes not yet pushed to the fulfillment endpoint.
func (d *Database) FindUndeliveredOrders(ctx context.Context) ([]string, error) {
	rows, err := d.db.Query(ctx, SelectUndeliveredOrdersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to find undelivered orders: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("failed to scan order number: %w", err)
		}
		result = append(result, number)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order numbers: %w", err)
	}

	return result, nil
}

// FindUndeliveredStatusChanges returns an order's unpushed history entries
// in insertion order.
func (d *Database) FindUndeliveredStatusChanges(ctx context.Context, number string) ([]StatusChangeDB, error) {
	return d.queryStatusChanges(ctx, SelectUndeliveredStatusChangesQuery, number)
}

// MarkStatusChangeDelivered records that a history entry reached the
// fulfillment endpoint.
func (d *Database) MarkStatusChangeDelivered(ctx context.Context, id int64) error {
	if _, err := d.db.Exec(ctx, MarkStatusChangeDeliveredQuery, id); err != nil {
		return fmt.Errorf("failed to mark status change delivered: %w", err)
	}
	return nil
}

func (d *Database) queryStatusChanges(ctx context.Context, query, number string) ([]StatusChangeDB, error) {
	rows, err := d.db.Query(ctx, query, number)
	if err != nil {
		return nil, fmt.Errorf("failed to find status history: %w", err)
	}
	defer rows.Close()

	var result []StatusChangeDB
	for rows.Next() {
		var change StatusChangeDB
		if err := rows.Scan(&change.ID, &change.OrderNumber, &change.Status, &change.ChangedBy, &change.ChangedAt, &change.Note, &change.Delivered); err != nil {
			return nil, fmt.Errorf("failed to scan status history row: %w", err)
		}
		result = append(result, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status history rows: %w", err)
	}

	return result, nil
}
