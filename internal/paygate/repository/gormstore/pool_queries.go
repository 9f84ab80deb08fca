package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/goodnatureofminers/blockinsight7000-paygate/pkg/safe"
	"gorm.io/gorm"
)

// FastPathCandidate returns the lowest-index address that can be handed out without a balance recheck.
func (s *Store) FastPathCandidate(ctx context.Context, q model.PoolQuery) (addr model.Address, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("fast_path_candidate", err, started)
	}()

	tx := s.db.WithContext(ctx).Where("origin_id = ? AND total_received_funds = 0", q.OriginID)
	if q.ReuseExpired {
		tx = tx.Where("(status = ? OR (status = ? AND assigned_at < ? AND received_funds_checked_at > ?))",
			model.AddressUnused, model.AddressAssigned, q.AssignedBefore.UTC(), q.FreshAfter.UTC())
	} else {
		tx = tx.Where("status = ?", model.AddressUnused)
	}

	var row addressRow
	if err = tx.Order("index_in_wallet ASC").Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Address{}, model.ErrAddressNotFound
		}
		return model.Address{}, fmt.Errorf("find fast path candidate: %w", err)
	}
	return row.toModel()
}

// RevalidationCandidates returns zero-balance addresses whose balance must be rechecked before reuse.
func (s *Store) RevalidationCandidates(ctx context.Context, q model.PoolQuery, limit int) (addrs []model.Address, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("revalidation_candidates", err, started)
	}()

	tx := s.db.WithContext(ctx).Where("origin_id = ? AND total_received_funds = 0", q.OriginID)
	if q.ReuseExpired {
		tx = tx.Where("(status IN ? OR (status = ? AND assigned_at < ? AND (received_funds_checked_at IS NULL OR received_funds_checked_at <= ?)))",
			[]model.AddressStatus{model.AddressUnused, model.AddressUnknown},
			model.AddressAssigned, q.AssignedBefore.UTC(), q.FreshAfter.UTC())
	} else {
		tx = tx.Where("status IN ?", []model.AddressStatus{model.AddressUnused, model.AddressUnknown})
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []addressRow
	if err = tx.Order("index_in_wallet ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find revalidation candidates: %w", err)
	}
	return toModels(rows)
}

// MaxIndex returns the highest derivation index stored for origin. ok is false for a fresh origin.
func (s *Store) MaxIndex(ctx context.Context, originID string) (index uint32, ok bool, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("max_index", err, started)
	}()

	var maxIndex sql.NullInt64
	err = s.db.WithContext(ctx).
		Model(&addressRow{}).
		Where("origin_id = ?", originID).
		Select("MAX(index_in_wallet)").
		Row().
		Scan(&maxIndex)
	if err != nil {
		return 0, false, fmt.Errorf("select max index: %w", err)
	}
	if !maxIndex.Valid {
		return 0, false, nil
	}
	index, err = safe.Uint32(maxIndex.Int64)
	if err != nil {
		return 0, false, err
	}
	return index, true, nil
}

// Insert stores a freshly derived address. A clash on address or (origin, index) is a version conflict.
func (s *Store) Insert(ctx context.Context, a model.Address) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("insert", err, started)
	}()

	row, err := toRow(a)
	if err != nil {
		return err
	}
	row.Version = 0
	if err = s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("insert %s at index %d: %w", a.Address, a.Index, model.ErrVersionConflict)
		}
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// Get loads one address.
func (s *Store) Get(ctx context.Context, address string) (addr model.Address, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("get", err, started)
	}()

	var row addressRow
	if err = s.db.WithContext(ctx).Where("address = ?", address).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Address{}, model.ErrAddressNotFound
		}
		return model.Address{}, fmt.Errorf("get address: %w", err)
	}
	return row.toModel()
}

// CompareAndSwap writes next when the stored version still equals next.Version.
// It returns the record as stored, with the bumped version.
func (s *Store) CompareAndSwap(ctx context.Context, next model.Address) (stored model.Address, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("compare_and_swap", err, started)
	}()

	row, err := toRow(next)
	if err != nil {
		return model.Address{}, err
	}

	res := s.db.WithContext(ctx).
		Model(&addressRow{}).
		Where("address = ? AND version = ?", row.Address, row.Version).
		Updates(map[string]any{
			"status":                    row.Status,
			"total_received_funds":      row.TotalReceivedFunds,
			"received_funds_checked_at": row.ReceivedFundsCheckedAt,
			"assigned_at":               row.AssignedAt,
			"last_assigned_to_ip":       row.LastAssignedToIP,
			"metadata":                  row.Metadata,
			"notify_pending":            row.NotifyPending,
			"version":                   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return model.Address{}, fmt.Errorf("compare and swap %s: %w", next.Address, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Address{}, fmt.Errorf("compare and swap %s at version %d: %w", next.Address, next.Version, model.ErrVersionConflict)
	}

	next.Version++
	next.TotalReceived = row.TotalReceivedFunds
	next.CheckedAt = row.ReceivedFundsCheckedAt
	next.AssignedAt = row.AssignedAt
	return next, nil
}

// ReconcileCandidates returns assigned addresses inside their window and revalidate addresses,
// whose last check is older than q.CheckedBefore, least recently checked first.
func (s *Store) ReconcileCandidates(ctx context.Context, q model.ReconcileQuery) (addrs []model.Address, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("reconcile_candidates", err, started)
	}()

	tx := s.db.WithContext(ctx).
		Where("((status = ? AND assigned_at > ?) OR status = ?)",
			model.AddressAssigned, q.AssignedAfter.UTC(), model.AddressRevalidate).
		Where("(received_funds_checked_at IS NULL OR received_funds_checked_at < ?)", q.CheckedBefore.UTC())
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []addressRow
	if err = tx.Order("received_funds_checked_at ASC").Order("index_in_wallet ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find reconcile candidates: %w", err)
	}
	return toModels(rows)
}

// CountAvailable counts zero-balance addresses of q.OriginID that allocation could hand out.
func (s *Store) CountAvailable(ctx context.Context, q model.PoolQuery) (count int, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("count_available", err, started)
	}()

	tx := s.db.WithContext(ctx).Model(&addressRow{}).Where("origin_id = ? AND total_received_funds = 0", q.OriginID)
	if q.ReuseExpired {
		tx = tx.Where("(status = ? OR (status = ? AND assigned_at < ?))",
			model.AddressUnused, model.AddressAssigned, q.AssignedBefore.UTC())
	} else {
		tx = tx.Where("status = ?", model.AddressUnused)
	}

	var n int64
	if err = tx.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count available addresses: %w", err)
	}
	return int(n), nil
}

// PendingNotifications returns used addresses whose completed payment was not yet reported.
func (s *Store) PendingNotifications(ctx context.Context, limit int) (addrs []model.Address, err error) {
	started := time.Now()
	defer func() {
		s.metrics.Observe("pending_notifications", err, started)
	}()

	tx := s.db.WithContext(ctx).Where("status = ? AND notify_pending = ?", model.AddressUsed, true)
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []addressRow
	if err = tx.Order("index_in_wallet ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find pending notifications: %w", err)
	}
	return toModels(rows)
}
