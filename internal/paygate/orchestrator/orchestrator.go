// Package orchestrator prepares a bitcoin payment for an order: price, address and order metadata.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/derive"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/balance"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/rate"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/pool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Gateway is the name under which payment metadata is stored on the order.
const Gateway = "bitcoin"

type Config struct {
	Currency string
	RateMode rate.Mode
}

// PaymentMeta is attached to the order once an address is bound.
type PaymentMeta struct {
	BitcoinAddress string          `json:"bitcoin_addr"`
	TotalInBTC     decimal.Decimal `json:"total_in_btc"`
	Rate           decimal.Decimal `json:"exchange_rate"`
	Currency       string          `json:"currency"`
}

// Payment is what the customer is asked to pay.
type Payment struct {
	OrderID   string
	Address   string
	AmountBTC decimal.Decimal
	Rate      decimal.Decimal
	Currency  string
}

type Orchestrator struct {
	pool   Allocator
	rates  RateOracle
	key    pool.Key
	keyErr error
	clock  clock.Clock
	cfg    Config
	logger *zap.Logger
}

// New builds an Orchestrator for a parsed master key. A nil key, as left by a rejected key,
// does not fail construction; Ready reports it and Prepare refuses to run.
func New(allocator Allocator, rates RateOracle, key pool.Key, clk clock.Clock, cfg Config, logger *zap.Logger) (*Orchestrator, error) {
	if allocator == nil {
		return nil, errors.New("address allocator is required")
	}
	if rates == nil {
		return nil, errors.New("rate oracle is required")
	}
	if clk == nil {
		clk = clock.System()
	}
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if cfg.Currency == "" {
		return nil, errors.New("store currency is required")
	}

	var keyErr error
	if key == nil {
		keyErr = fmt.Errorf("%w: no usable master public key configured", model.ErrInvalidKeyFormat)
	}
	return &Orchestrator{
		pool:   allocator,
		rates:  rates,
		key:    key,
		keyErr: keyErr,
		clock:  clk,
		cfg:    cfg,
		logger: logger.Named("orchestrator"),
	}, nil
}

// Ready checks that orders can be processed: a valid key, working curve arithmetic and a reachable rate source.
func (o *Orchestrator) Ready(ctx context.Context) error {
	if o.keyErr != nil {
		return o.keyErr
	}
	if err := derive.SelfCheck(); err != nil {
		return err
	}
	if _, err := o.rates.GetRate(ctx, o.cfg.Currency, o.cfg.RateMode); err != nil {
		return fmt.Errorf("exchange rate for %s: %w", o.cfg.Currency, err)
	}
	return nil
}

// Prepare prices order in BTC, binds an address to it and records both on the order.
// Failures to price or allocate are returned as *PaymentUnavailableError.
func (o *Orchestrator) Prepare(ctx context.Context, order Order, requesterIP string) (Payment, error) {
	orderID := order.GetOrderID()
	amount := order.GetAmount()
	if orderID == "" || !amount.IsPositive() {
		return Payment{}, fmt.Errorf("order %q amount %s: %w", orderID, amount, ErrInvalidOrder)
	}
	logger := o.logger.With(zap.String("order_id", orderID))

	if o.keyErr != nil {
		logger.Error("master public key is not usable", zap.Error(o.keyErr))
		return Payment{}, &PaymentUnavailableError{Reason: string(model.ReasonInvalidKeyFormat), Err: o.keyErr}
	}

	price, err := o.rates.GetRate(ctx, o.cfg.Currency, o.cfg.RateMode)
	if err == nil && !price.IsPositive() {
		err = fmt.Errorf("non-positive rate %s: %w", price, rate.ErrRateUnavailable)
	}
	if err != nil {
		logger.Warn("exchange rate unavailable", zap.String("currency", o.cfg.Currency), zap.Error(err))
		return Payment{}, &PaymentUnavailableError{Reason: ReasonRateUnavailable, Err: err}
	}

	total := amount.DivRound(price, model.BTCPrecision)
	if !total.IsPositive() {
		return Payment{}, fmt.Errorf("order %s amount %s rounds to zero BTC: %w", orderID, amount, ErrInvalidOrder)
	}

	addr, err := o.pool.Allocate(ctx, o.key, model.OrderBinding{
		OrderID:       orderID,
		OrderTotal:    total,
		Currency:      o.cfg.Currency,
		RequestedAt:   o.clock.Now(),
		RequestedByIP: requesterIP,
	})
	if errors.Is(err, model.ErrInvalidBinding) {
		return Payment{}, fmt.Errorf("order %s: %v: %w", orderID, err, ErrInvalidOrder)
	}
	if err != nil {
		reason := string(model.ReasonNoCleanAddress)
		var ae *model.AllocationError
		if errors.As(err, &ae) {
			reason = string(ae.Reason)
		}
		fields := []zap.Field{zap.String("reason", reason), zap.Error(err)}
		var pe *balance.ProvidersError
		if errors.As(err, &pe) {
			fields = append(fields, zap.Strings("replies", pe.Replies()))
		}
		logger.Warn("no address for order", fields...)
		return Payment{}, &PaymentUnavailableError{Reason: reason, Err: err}
	}

	meta := PaymentMeta{
		BitcoinAddress: addr.Address,
		TotalInBTC:     total,
		Rate:           price,
		Currency:       o.cfg.Currency,
	}
	if err := order.SetOrderMeta(ctx, Gateway, meta); err != nil {
		return Payment{}, fmt.Errorf("record payment on order %s: %w", orderID, err)
	}

	logger.Info("payment prepared",
		zap.String("address", addr.Address),
		zap.String("amount_btc", total.StringFixed(model.BTCPrecision)),
		zap.String("rate", price.String()),
	)
	return Payment{
		OrderID:   orderID,
		Address:   addr.Address,
		AmountBTC: total,
		Rate:      price,
		Currency:  o.cfg.Currency,
	}, nil
}
