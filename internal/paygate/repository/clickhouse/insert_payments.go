package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
)

// InsertPayments stores completed and partial payments.
func (r *Repository) InsertPayments(ctx context.Context, payments []model.PaymentRecord) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_payments", len(payments), err, start)
	}()

	if len(payments) == 0 {
		return nil
	}

	const query = `
INSERT INTO paygate_payments (
	order_id,
	address,
	order_total,
	received,
	kind,
	observed_at
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare payments batch: %w", err)
	}

	for _, p := range payments {
		if err = batch.Append(
			p.OrderID,
			p.Address,
			model.RoundBTC(p.OrderTotal),
			model.RoundBTC(p.Received),
			string(p.Kind),
			p.ObservedAt.UTC(),
		); err != nil {
			return fmt.Errorf("append payment: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert payments: %w", err)
	}
	return nil
}

// PaymentsByOrder returns every ledger row recorded for orderID, oldest first.
func (r *Repository) PaymentsByOrder(ctx context.Context, orderID string) (payments []model.PaymentRecord, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("payments_by_order", len(payments), err, start)
	}()

	const query = `
SELECT order_id, address, order_total, received, kind, observed_at
FROM paygate_payments FINAL
WHERE order_id = ?
ORDER BY observed_at`

	rows, err := r.conn.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var (
			p    model.PaymentRecord
			kind string
		)
		if err = rows.Scan(&p.OrderID, &p.Address, &p.OrderTotal, &p.Received, &kind, &p.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Kind = model.PaymentKind(kind)
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}
