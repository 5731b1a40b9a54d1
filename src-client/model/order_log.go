package model

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// OrderLog keeps every order delivered over the push channel, so the
// terminal can re-list recent orders without asking the backend again.
type OrderLog struct {
	bun.BaseModel `bun:"table:order_logs"`

	ID                    int64   `bun:"id,pk,autoincrement"`
	OrderID               int64   `bun:"order_id,notnull"`
	Customer              string  `bun:"customer"`
	Total                 float64 `bun:"total"`
	ProductCount          int     `bun:"product_count"`
	CustomerPhone         string  `bun:"customer_phone"`
	ReceivedAtUnixUTC     int64   `bun:"received_at,notnull"`
	AcknowledgedAtUnixUTC int64   `bun:"acknowledged_at"`
}

func (o *OrderLog) Insert(ctx context.Context, db bun.IDB) error {
	if o.OrderID == 0 {
		return fmt.Errorf("order id is empty")
	}
	if o.ReceivedAtUnixUTC == 0 {
		o.ReceivedAtUnixUTC = time.Now().UTC().Unix()
	}

	if _, err := db.
		NewInsert().
		Model(o).
		Exec(ctx); err != nil {
		return fmt.Errorf("OrderLog.Insert: %w", err)
	}

	return nil
}

// Mark the log row of an order as acknowledged back to the backend.
func MarkOrderAcknowledged(ctx context.Context, db bun.IDB, orderID int64) error {
	if _, err := db.
		NewUpdate().
		Model((*OrderLog)(nil)).
		Set("acknowledged_at = ?", time.Now().UTC().Unix()).
		Where("order_id = ?", orderID).
		Where("acknowledged_at = ?", 0).
		Exec(ctx); err != nil {
		return fmt.Errorf("MarkOrderAcknowledged: %w", err)
	}
	return nil
}

// Most recent orders first.
func RecentOrders(ctx context.Context, db bun.IDB, limit int) ([]OrderLog, error) {
	orderLogModels := make([]OrderLog, 0)
	if err := db.
		NewSelect().
		Model(&orderLogModels).
		Order("received_at DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("RecentOrders: %w", err)
	}
	return orderLogModels, nil
}

// Drop log rows older than the retention window.
func PruneOrderLog(ctx context.Context, db bun.IDB, olderThan time.Time) (int64, error) {
	res, err := db.
		NewDelete().
		Model((*OrderLog)(nil)).
		Where("received_at < ?", olderThan.UTC().Unix()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("PruneOrderLog: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
