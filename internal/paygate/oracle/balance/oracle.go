// Package balance looks up how much an address has received, falling back across providers.
package balance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 30 * time.Second

// Result is a successful lookup.
type Result struct {
	Balance  decimal.Decimal
	Provider string
}

// ProviderFailure is the reply of one provider that could not be used.
type ProviderFailure struct {
	Provider string
	Err      error
}

// ProvidersError is returned when every provider failed. It matches model.ErrOracleUnavailable.
type ProvidersError struct {
	Address  string
	Failures []ProviderFailure
}

func (e *ProvidersError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Provider, f.Err))
	}
	return fmt.Sprintf("all balance providers failed for %s: %s", e.Address, strings.Join(parts, "; "))
}

func (e *ProvidersError) Unwrap() error {
	return model.ErrOracleUnavailable
}

// Replies returns the raw provider replies for diagnostics.
func (e *ProvidersError) Replies() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		var re *ReplyError
		if errors.As(f.Err, &re) {
			out = append(out, fmt.Sprintf("%s [%d]: %s", f.Provider, re.StatusCode, re.Body))
			continue
		}
		out = append(out, fmt.Sprintf("%s: %v", f.Provider, f.Err))
	}
	return out
}

// Oracle queries providers in order until one returns a numeric amount.
type Oracle struct {
	providers []Provider
	metrics   Metrics
	logger    *zap.Logger
}

// NewOracle builds an Oracle. Providers are tried in the given order.
func NewOracle(metrics Metrics, logger *zap.Logger, providers ...Provider) (*Oracle, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one balance provider is required")
	}
	if metrics == nil {
		return nil, errors.New("balance oracle metrics is required")
	}
	return &Oracle{
		providers: providers,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// GetReceived returns the BTC amount received by address with at least minConfirmations.
// Zero is a valid result. The error matches model.ErrOracleUnavailable when all providers failed.
func (o *Oracle) GetReceived(ctx context.Context, address string, minConfirmations int, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	failures := make([]ProviderFailure, 0, len(o.providers))
	for _, p := range o.providers {
		sat, err := o.query(ctx, p, address, minConfirmations, timeout)
		if err == nil {
			o.metrics.ObserveLookup(nil)
			return Result{Balance: model.RoundBTC(sat.Shift(-model.BTCPrecision)), Provider: p.Name()}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}

		o.logger.Debug("balance provider failed",
			zap.String("provider", p.Name()),
			zap.String("address", address),
			zap.Error(err),
		)
		failures = append(failures, ProviderFailure{Provider: p.Name(), Err: err})
	}

	err := &ProvidersError{Address: address, Failures: failures}
	o.metrics.ObserveLookup(err)
	return Result{}, err
}

func (o *Oracle) query(ctx context.Context, p Provider, address string, minConfirmations int, timeout time.Duration) (sat decimal.Decimal, err error) {
	started := time.Now()
	defer func() {
		o.metrics.ObserveProvider(p.Name(), err, started)
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sat, err = p.Received(ctx, address, minConfirmations)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if sat.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative amount %s", sat)
	}
	return sat, nil
}
