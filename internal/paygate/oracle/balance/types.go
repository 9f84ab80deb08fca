package balance

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Provider returns the total amount ever received by an address, in satoshis.
	Provider interface {
		Name() string
		Received(ctx context.Context, address string, minConfirmations int) (decimal.Decimal, error)
	}

	Metrics interface {
		ObserveProvider(provider string, err error, started time.Time)
		ObserveLookup(err error)
	}

	NodeClient interface {
		GetReceivedByAddressMinConf(address btcutil.Address, minConfs int) (btcutil.Amount, error)
	}
)
