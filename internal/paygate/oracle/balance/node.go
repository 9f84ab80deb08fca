package balance

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/shopspring/decimal"
)

// NodeProvider asks a bitcoind-compatible node through RPC. The node must watch the address.
type NodeProvider struct {
	client NodeClient
	params *chaincfg.Params
}

func NewNodeProvider(client NodeClient, params *chaincfg.Params) *NodeProvider {
	return &NodeProvider{client: client, params: params}
}

func (p *NodeProvider) Name() string {
	return "node"
}

func (p *NodeProvider) Received(ctx context.Context, address string, minConfirmations int) (decimal.Decimal, error) {
	addr, err := btcutil.DecodeAddress(address, p.params)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode address: %w", err)
	}

	type reply struct {
		amount btcutil.Amount
		err    error
	}
	done := make(chan reply, 1)
	go func() {
		amount, err := p.client.GetReceivedByAddressMinConf(addr, minConfirmations)
		done <- reply{amount: amount, err: err}
	}()

	select {
	case <-ctx.Done():
		return decimal.Decimal{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return decimal.Decimal{}, fmt.Errorf("get received by address: %w", r.err)
		}
		return decimal.NewFromInt(int64(r.amount)), nil
	}
}
