// Package config holds the command-line groups shared by the paygate binaries.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/derive"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/balance"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/rate"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/pool"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/reconciler"
)

// Pool configures the address pool of the active master public key.
type Pool struct {
	MasterKey       string        `long:"master-key" env:"MASTER_KEY" description:"Electrum v1 master public key (128 hex chars) or xpub/tpub" required:"true"`
	AssignmentTTL   time.Duration `long:"assignment-ttl" env:"ASSIGNMENT_TTL" description:"how long an assigned address stays reserved for its order" default:"240m"`
	FundsCheckTTL   time.Duration `long:"funds-check-ttl" env:"FUNDS_CHECK_TTL" description:"how long a zero balance check is trusted" default:"240m"`
	RecheckInterval time.Duration `long:"recheck-interval" env:"RECHECK_INTERVAL" description:"minimum age of a balance check before reconciliation rechecks it" default:"5m"`
	NoReuseExpired  bool          `long:"no-reuse-expired" env:"NO_REUSE_EXPIRED" description:"never hand out addresses of expired assignments again"`
	MaxUnproductive int           `long:"max-unproductive" env:"MAX_UNPRODUCTIVE" description:"derived addresses without a clean one before giving up" default:"20"`
	FailureLimit    int           `long:"failure-limit" env:"FAILURE_LIMIT" description:"consecutive balance oracle failures that abort a batch" default:"3"`

	key derive.MasterKey
}

// Validate parses the master key. Key is usable only after a successful Validate.
func (p *Pool) Validate() error {
	key, err := derive.ParseMasterKey(strings.TrimSpace(p.MasterKey))
	if err != nil {
		return fmt.Errorf("master-key: %w", err)
	}
	p.key = key
	return nil
}

func (p *Pool) Key() derive.MasterKey {
	return p.key
}

// Network is the chain of the parsed key, mainnet until Validate succeeds.
func (p *Pool) Network() *chaincfg.Params {
	if p.key.Kind() == 0 {
		return &chaincfg.MainNetParams
	}
	return p.key.Network()
}

func (p *Pool) PoolConfig() pool.Config {
	cfg := pool.DefaultConfig()
	cfg.AssignmentTTL = p.AssignmentTTL
	cfg.FundsCheckTTL = p.FundsCheckTTL
	cfg.RecheckInterval = p.RecheckInterval
	cfg.ReuseExpired = !p.NoReuseExpired
	cfg.MaxUnproductive = p.MaxUnproductive
	cfg.FailureLimit = p.FailureLimit
	return cfg
}

// Oracles configures balance and exchange rate providers.
type Oracles struct {
	AggregatorURL     string        `long:"aggregator-url" env:"AGGREGATOR_URL" description:"balance aggregator endpoint, tried first when set"`
	BlockchainInfoURL string        `long:"blockchain-info-url" env:"BLOCKCHAIN_INFO_URL" description:"blockchain.info base URL, empty to disable" default:"https://blockchain.info"`
	BlockExplorerURL  string        `long:"block-explorer-url" env:"BLOCK_EXPLORER_URL" description:"insight explorer base URL, empty to disable" default:"https://blockexplorer.com"`
	BalanceTimeout    time.Duration `long:"balance-timeout" env:"BALANCE_TIMEOUT" description:"timeout of one balance provider request" default:"30s"`
	BalanceRPS        int           `long:"balance-rps" env:"BALANCE_RPS" description:"requests per second to each balance provider, 0 for unlimited" default:"5"`

	NodeRPCURL      string `long:"node-rpc-url" env:"NODE_RPC_URL" description:"bitcoin node RPC URL used as last balance provider"`
	NodeRPCUser     string `long:"node-rpc-user" env:"NODE_RPC_USER" description:"bitcoin node RPC username"`
	NodeRPCPassword string `long:"node-rpc-password" env:"NODE_RPC_PASSWORD" description:"bitcoin node RPC password"`

	Currency    string        `long:"currency" env:"CURRENCY" description:"store currency" default:"USD"`
	RateMode    rate.Mode     `long:"rate-mode" env:"RATE_MODE" description:"realtime, vwap or bestrate" default:"realtime"`
	TickerURL   string        `long:"ticker-url" env:"TICKER_URL" description:"primary ticker base URL"`
	WeightedURL string        `long:"weighted-url" env:"WEIGHTED_URL" description:"weighted prices URL"`
	FlatURL     string        `long:"flat-url" env:"FLAT_URL" description:"flat rates URL"`
	RateTimeout time.Duration `long:"rate-timeout" env:"RATE_TIMEOUT" description:"timeout of one rate provider request" default:"10s"`
	RateRPS     int           `long:"rate-rps" env:"RATE_RPS" description:"requests per second to each rate provider, 0 for unlimited" default:"2"`
}

func (o *Oracles) Validate() error {
	if o.AggregatorURL == "" && o.BlockchainInfoURL == "" && o.BlockExplorerURL == "" && o.NodeRPCURL == "" {
		return errors.New("at least one balance provider must be configured")
	}
	if _, err := rate.ParseMode(o.RateMode.String()); err != nil {
		return fmt.Errorf("rate-mode: %w", err)
	}
	o.Currency = strings.ToUpper(strings.TrimSpace(o.Currency))
	if o.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

// BalanceProviders returns the HTTP providers in fallback order followed by node, when given.
func (o *Oracles) BalanceProviders(client *http.Client, node balance.Provider) []balance.Provider {
	var providers []balance.Provider
	if o.AggregatorURL != "" {
		providers = append(providers, balance.NewAggregator(o.AggregatorURL, client, o.BalanceRPS))
	}
	if o.BlockchainInfoURL != "" {
		providers = append(providers, balance.NewBlockchainInfo(o.BlockchainInfoURL, client, o.BalanceRPS))
	}
	if o.BlockExplorerURL != "" {
		providers = append(providers, balance.NewBlockExplorer(o.BlockExplorerURL, client, o.BalanceRPS))
	}
	if node != nil {
		providers = append(providers, node)
	}
	return providers
}

func orDefault(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

// RateServices returns the primary ticker and the weighted and flat fallbacks.
func (o *Oracles) RateServices(client *http.Client) (*rate.TickerService, *rate.WeightedService, *rate.FlatService) {
	return rate.NewTickerService(orDefault(o.TickerURL, rate.DefaultTickerURL), client, o.RateRPS),
		rate.NewWeightedService(orDefault(o.WeightedURL, rate.DefaultWeightedURL), client, o.RateRPS),
		rate.NewFlatService(orDefault(o.FlatURL, rate.DefaultFlatURL), client, o.RateRPS)
}

// Store configures persistence.
type Store struct {
	SQLitePath    string `long:"sqlite-path" env:"SQLITE_PATH" description:"address pool database file" default:"data/paygate.db"`
	ClickhouseDSN string `long:"clickhouse-dsn" env:"CLICKHOUSE_DSN" description:"ClickHouse DSN of the payment ledger, empty to disable"`
}

func (s *Store) Validate() error {
	if strings.TrimSpace(s.SQLitePath) == "" {
		return errors.New("sqlite-path is required")
	}
	return nil
}

// Reconciler configures the reconciliation worker.
type Reconciler struct {
	Confirmations    int           `long:"confirmations" env:"CONFIRMATIONS" description:"confirmations required to complete an order" default:"4"`
	BatchLimit       int           `long:"batch-limit" env:"BATCH_LIMIT" description:"addresses rechecked per pass" default:"500"`
	Workers          int           `long:"workers" env:"WORKERS" description:"concurrent balance checks" default:"1"`
	LowWaterMark     int           `long:"low-water-mark" env:"LOW_WATER_MARK" description:"available addresses below which full passes replenish the pool" default:"200"`
	ReplenishPerPass int           `long:"replenish-per-pass" env:"REPLENISH_PER_PASS" description:"addresses generated per full pass at most" default:"5"`
	LightInterval    time.Duration `long:"light-interval" env:"LIGHT_INTERVAL" description:"pause between passes" default:"1m"`
	FullInterval     time.Duration `long:"full-interval" env:"FULL_INTERVAL" description:"interval of full passes" default:"15m"`
	ZMQAddr          string        `long:"zmq-addr" env:"ZMQ_ADDR" description:"node zmq hashblock endpoint, wakes the worker on new blocks"`
}

func (r *Reconciler) WorkerConfig(o Oracles, p Pool) reconciler.Config {
	cfg := reconciler.DefaultConfig()
	cfg.Confirmations = r.Confirmations
	cfg.BalanceTimeout = o.BalanceTimeout
	cfg.BatchLimit = r.BatchLimit
	cfg.Workers = r.Workers
	cfg.FailureLimit = p.FailureLimit
	cfg.LowWaterMark = r.LowWaterMark
	cfg.ReplenishPerPass = r.ReplenishPerPass
	return cfg
}
