package gormstore

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/goodnatureofminers/blockinsight7000-paygate/pkg/safe"
	"github.com/shopspring/decimal"
)

type addressRow struct {
	Address                string          `gorm:"primaryKey;size:64"`
	OriginID               string          `gorm:"size:200;not null;uniqueIndex:idx_btc_addresses_origin_index,priority:1"`
	IndexInWallet          int64           `gorm:"not null;uniqueIndex:idx_btc_addresses_origin_index,priority:2"`
	Status                 string          `gorm:"size:16;not null;index"`
	TotalReceivedFunds     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	ReceivedFundsCheckedAt *time.Time      `gorm:"index"`
	AssignedAt             *time.Time
	LastAssignedToIP       string         `gorm:"size:45"`
	Metadata               model.Metadata `gorm:"type:text"`
	NotifyPending          bool           `gorm:"not null;default:false;index"`
	Version                int64          `gorm:"not null;default:0"`
}

func (addressRow) TableName() string {
	return "btc_addresses"
}

func toRow(a model.Address) (addressRow, error) {
	version, err := safe.Int64(a.Version)
	if err != nil {
		return addressRow{}, err
	}
	return addressRow{
		Address:                a.Address,
		OriginID:               a.OriginID,
		IndexInWallet:          int64(a.Index),
		Status:                 string(a.Status),
		TotalReceivedFunds:     model.RoundBTC(a.TotalReceived),
		ReceivedFundsCheckedAt: utc(a.CheckedAt),
		AssignedAt:             utc(a.AssignedAt),
		LastAssignedToIP:       a.LastAssignedToIP,
		Metadata:               a.Metadata,
		NotifyPending:          a.NotifyPending,
		Version:                version,
	}, nil
}

func (r addressRow) toModel() (model.Address, error) {
	index, err := safe.Uint32(r.IndexInWallet)
	if err != nil {
		return model.Address{}, err
	}
	version, err := safe.Uint64(r.Version)
	if err != nil {
		return model.Address{}, err
	}
	return model.Address{
		Address:          r.Address,
		OriginID:         r.OriginID,
		Index:            index,
		Status:           model.AddressStatus(r.Status),
		TotalReceived:    model.RoundBTC(r.TotalReceivedFunds),
		CheckedAt:        r.ReceivedFundsCheckedAt,
		AssignedAt:       r.AssignedAt,
		LastAssignedToIP: r.LastAssignedToIP,
		Metadata:         r.Metadata,
		NotifyPending:    r.NotifyPending,
		Version:          version,
	}, nil
}

func toModels(rows []addressRow) ([]model.Address, error) {
	out := make([]model.Address, 0, len(rows))
	for _, r := range rows {
		a, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
