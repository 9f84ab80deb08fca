package pool

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/breaker"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/balance"
)

// Config tunes allocation and the windows that decide when an address may be reused.
type Config struct {
	AssignmentTTL           time.Duration
	FundsCheckTTL           time.Duration
	RecheckInterval         time.Duration
	ReuseExpired            bool
	AllocationConfirmations int
	BalanceTimeout          time.Duration
	FailureLimit            int
	MaxUnproductive         int
	MaxAllocationAttempts   int
	RevalidationBatch       int
}

func DefaultConfig() Config {
	return Config{
		AssignmentTTL:           240 * time.Minute,
		FundsCheckTTL:           240 * time.Minute,
		RecheckInterval:         5 * time.Minute,
		ReuseExpired:            true,
		AllocationConfirmations: 0,
		BalanceTimeout:          balance.DefaultTimeout,
		FailureLimit:            breaker.DefaultLimit,
		MaxUnproductive:         20,
		MaxAllocationAttempts:   3,
		RevalidationBatch:       50,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AssignmentTTL <= 0 {
		c.AssignmentTTL = d.AssignmentTTL
	}
	if c.FundsCheckTTL <= 0 {
		c.FundsCheckTTL = d.FundsCheckTTL
	}
	if c.RecheckInterval <= 0 {
		c.RecheckInterval = d.RecheckInterval
	}
	if c.AllocationConfirmations < 0 {
		c.AllocationConfirmations = 0
	}
	if c.BalanceTimeout <= 0 {
		c.BalanceTimeout = d.BalanceTimeout
	}
	if c.FailureLimit <= 0 {
		c.FailureLimit = d.FailureLimit
	}
	if c.MaxUnproductive <= 0 {
		c.MaxUnproductive = d.MaxUnproductive
	}
	if c.MaxAllocationAttempts <= 0 {
		c.MaxAllocationAttempts = d.MaxAllocationAttempts
	}
	if c.RevalidationBatch <= 0 {
		c.RevalidationBatch = d.RevalidationBatch
	}
	return c
}
