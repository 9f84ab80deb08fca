// Package rate converts store currency amounts into BTC prices using public rate services.
package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one rate provider call.
const DefaultTimeout = 10 * time.Second

var (
	ErrRateUnavailable     = errors.New("exchange rate unavailable")
	ErrCurrencyNotQuoted   = errors.New("currency not quoted by provider")
	errMissingRateProvider = errors.New("rate provider is required")
)

// Oracle picks a BTC price from a primary ticker with weighted and flat fallbacks.
type Oracle struct {
	ticker   TickerProvider
	weighted RateProvider
	flat     RateProvider
	timeout  time.Duration
	metrics  Metrics
	logger   *zap.Logger
}

func NewOracle(ticker TickerProvider, weighted, flat RateProvider, timeout time.Duration, metrics Metrics, logger *zap.Logger) (*Oracle, error) {
	if ticker == nil || weighted == nil || flat == nil {
		return nil, errMissingRateProvider
	}
	if metrics == nil {
		return nil, errors.New("rate oracle metrics is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Oracle{
		ticker:   ticker,
		weighted: weighted,
		flat:     flat,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// GetRate returns how many units of currency one BTC costs.
func (o *Oracle) GetRate(ctx context.Context, currency string, mode Mode) (rate decimal.Decimal, err error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "BTC" {
		return decimal.NewFromInt(1), nil
	}
	defer func() {
		o.metrics.ObserveLookup(mode.String(), err)
	}()

	var failures []string
	candidates := make([]decimal.Decimal, 0, 2)

	primary, err := o.fromTicker(ctx, currency, mode)
	if err == nil {
		candidates = append(candidates, primary)
		if mode == ModeBestRate {
			if flat, ferr := o.fromRate(ctx, o.flat, currency); ferr == nil {
				candidates = append(candidates, flat)
			} else {
				o.logFailure(o.flat.Name(), currency, ferr)
			}
		}
	} else {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Decimal{}, ctxErr
		}
		o.logFailure(o.ticker.Name(), currency, err)
		failures = append(failures, fmt.Sprintf("%s: %v", o.ticker.Name(), err))

		fallback := o.flat
		if mode == ModeVWAP {
			fallback = o.weighted
		}
		r, ferr := o.fromRate(ctx, fallback, currency)
		if ferr == nil {
			candidates = append(candidates, r)
		} else {
			o.logFailure(fallback.Name(), currency, ferr)
			failures = append(failures, fmt.Sprintf("%s: %v", fallback.Name(), ferr))
		}
	}

	if len(candidates) == 0 {
		return decimal.Decimal{}, fmt.Errorf("%w for %s: %s", ErrRateUnavailable, currency, strings.Join(failures, "; "))
	}
	return decimal.Min(candidates[0], candidates[1:]...), nil
}

func (o *Oracle) fromTicker(ctx context.Context, currency string, mode Mode) (rate decimal.Decimal, err error) {
	started := time.Now()
	defer func() {
		o.metrics.ObserveProvider(o.ticker.Name(), err, started)
	}()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	t, err := o.ticker.Ticker(ctx, currency)
	if err != nil {
		return decimal.Decimal{}, err
	}
	r, ok := t.Select(mode)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("ticker has no usable %s price", mode)
	}
	return r, nil
}

func (o *Oracle) fromRate(ctx context.Context, p RateProvider, currency string) (rate decimal.Decimal, err error) {
	started := time.Now()
	defer func() {
		o.metrics.ObserveProvider(p.Name(), err, started)
	}()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	r, err := p.Rate(ctx, currency)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !r.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("non-positive rate %s", r)
	}
	return r, nil
}

func (o *Oracle) logFailure(provider, currency string, err error) {
	o.logger.Warn("exchange rate provider failed",
		zap.String("provider", provider),
		zap.String("currency", currency),
		zap.Error(err),
	)
}
