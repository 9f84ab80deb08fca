package rate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	TickerProvider interface {
		Name() string
		Ticker(ctx context.Context, currency string) (Ticker, error)
	}

	// RateProvider returns a single BTC price in currency.
	RateProvider interface {
		Name() string
		Rate(ctx context.Context, currency string) (decimal.Decimal, error)
	}

	Metrics interface {
		ObserveProvider(provider string, err error, started time.Time)
		ObserveLookup(mode string, err error)
	}
)
