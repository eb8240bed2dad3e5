// Package orders keeps an append-only journal of checkout outcomes in Postgres.
package orders

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shoebot/core/logger"
)

const (
	component    = "shop.orders"
	defaultLimit = 10
	maxLimit     = 100
)

// Entry is one journaled checkout outcome. Amount is in minor units.
type Entry struct {
	ID        uuid.UUID     `db:"id"`
	UserID    int64         `db:"user_id"`
	Status    string        `db:"status"`
	ProductID int           `db:"product_id"`
	SizeID    int           `db:"size_id"`
	Filters   string        `db:"filters"`
	Amount    int64         `db:"amount"`
	Currency  string        `db:"currency"`
	ReceiptID sql.NullInt64 `db:"receipt_id"`
	Error     string        `db:"error"`
	CreatedAt time.Time     `db:"created_at"`
}

// Journal writes entries through sqlx.
type Journal struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewJournal returns a journal over db.
func NewJournal(db *sqlx.DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

const insertEntry = `
INSERT INTO orders (id, user_id, status, product_id, size_id, filters, amount, currency, receipt_id, error, created_at)
VALUES (:id, :user_id, :status, :product_id, :size_id, :filters, :amount, :currency, :receipt_id, :error, :created_at)`

// Record stores e, assigning its id and timestamp.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return e, fmt.Errorf("orders: new id: %w", err)
	}
	e.ID = id
	e.CreatedAt = j.now().UTC()

	start := time.Now()
	if _, err := j.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		logger.Error(ctx, component, "orders.record",
			slog.String("status", "fail"),
			slog.Int64("user_id", e.UserID),
			slog.String("order_status", e.Status),
			slog.String("err", err.Error()),
		)
		return e, fmt.Errorf("orders: record: %w", err)
	}
	logger.Debug(ctx, component, "orders.record",
		slog.String("status", "ok"),
		slog.String("id", e.ID.String()),
		slog.String("order_status", e.Status),
		slog.Duration("duration", logger.Took(start)),
	)
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	var out []Entry
	err := j.db.SelectContext(ctx, &out,
		`SELECT id, user_id, status, product_id, size_id, filters, amount, currency, receipt_id, error, created_at
		 FROM orders ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("orders: recent: %w", err)
	}
	return out, nil
}
