package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
)

// InsertBalanceChecks stores reconciliation observations.
func (r *Repository) InsertBalanceChecks(ctx context.Context, checks []model.BalanceCheck) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_balance_checks", len(checks), err, start)
	}()

	if len(checks) == 0 {
		return nil
	}

	const query = `
INSERT INTO paygate_balance_checks (
	address,
	origin,
	status_before,
	status_after,
	balance,
	provider,
	success,
	checked_at
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare balance checks batch: %w", err)
	}

	for _, c := range checks {
		if err = batch.Append(
			c.Address,
			c.OriginID,
			string(c.Before),
			string(c.After),
			model.RoundBTC(c.Balance),
			c.Provider,
			c.Success,
			c.CheckedAt.UTC(),
		); err != nil {
			return fmt.Errorf("append balance check: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert balance checks: %w", err)
	}
	return nil
}
