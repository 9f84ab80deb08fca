package reconciler

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/breaker"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/balance"
)

type Config struct {
	Confirmations     int
	BalanceTimeout    time.Duration
	BatchLimit        int
	Workers           int
	FailureLimit      int
	LowWaterMark      int
	ReplenishPerPass  int
	NotificationBatch int
}

func DefaultConfig() Config {
	return Config{
		Confirmations:     4,
		BalanceTimeout:    balance.DefaultTimeout,
		BatchLimit:        500,
		Workers:           1,
		FailureLimit:      breaker.DefaultLimit,
		LowWaterMark:      200,
		ReplenishPerPass:  5,
		NotificationBatch: 100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Confirmations < 0 {
		c.Confirmations = 0
	}
	if c.BalanceTimeout <= 0 {
		c.BalanceTimeout = d.BalanceTimeout
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = d.BatchLimit
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.FailureLimit <= 0 {
		c.FailureLimit = d.FailureLimit
	}
	if c.LowWaterMark < 0 {
		c.LowWaterMark = 0
	}
	if c.ReplenishPerPass < 0 {
		c.ReplenishPerPass = 0
	}
	if c.NotificationBatch <= 0 {
		c.NotificationBatch = d.NotificationBatch
	}
	return c
}
