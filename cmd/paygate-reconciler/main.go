package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/clock"
	appconfig "github.com/goodnatureofminers/blockinsight7000-paygate/internal/config"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/ledger"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/balance"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/orders"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/pool"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/reconciler"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/repository/clickhouse"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/repository/gormstore"
	rpcclient2 "github.com/goodnatureofminers/blockinsight7000-paygate/internal/pkg/btcd/rpcclient"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type config struct {
	MetricsAddr string `long:"metrics-addr" env:"PAYGATE_RECONCILER_METRICS_ADDR" description:"address for metrics server" default:":2112"`

	Pool       appconfig.Pool       `group:"Pool" namespace:"pool" env-namespace:"PAYGATE_POOL"`
	Oracles    appconfig.Oracles    `group:"Oracles" namespace:"oracles" env-namespace:"PAYGATE_ORACLES"`
	Store      appconfig.Store      `group:"Store" namespace:"store" env-namespace:"PAYGATE_STORE"`
	Reconciler appconfig.Reconciler `group:"Reconciler" namespace:"reconciler" env-namespace:"PAYGATE_RECONCILER"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}
	if err := cfg.Oracles.Validate(); err != nil {
		logger.Fatal("invalid oracle settings", zap.Error(err))
	}
	if err := cfg.Store.Validate(); err != nil {
		logger.Fatal("invalid store settings", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("paygate reconciler failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	// Existing addresses are still reconciled without a usable key; only replenishment stops.
	var key pool.Key
	if err := cfg.Pool.Validate(); err != nil {
		logger.Error("master public key rejected, pool replenishment disabled", zap.Error(err))
	} else {
		key = cfg.Pool.Key()
	}

	db, err := gormstore.Open(cfg.Store.SQLitePath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	store, err := gormstore.New(db, metrics.NewAddressStore())
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	var node balance.Provider
	if cfg.Oracles.NodeRPCURL != "" {
		rpcClient, err := newRPCClient(cfg.Oracles.NodeRPCURL, cfg.Oracles.NodeRPCUser, cfg.Oracles.NodeRPCPassword)
		if err != nil {
			return fmt.Errorf("init node rpc client: %w", err)
		}
		defer func() {
			rpcClient.Shutdown()
			rpcClient.WaitForShutdown()
		}()
		observed := rpcclient2.NewObservedClient(rpcClient, metrics.NewRPCClient(cfg.Pool.Network().Name))
		if height, err := observed.GetBlockCount(); err != nil {
			logger.Warn("bitcoin node unreachable, it stays the last balance provider", zap.Error(err))
		} else {
			logger.Info("bitcoin node connected", zap.Int64("height", height))
		}
		node = balance.NewNodeProvider(observed, cfg.Pool.Network())
	}

	balanceOracle, err := balance.NewOracle(
		metrics.NewBalanceOracle(),
		logger,
		cfg.Oracles.BalanceProviders(&http.Client{Timeout: cfg.Oracles.BalanceTimeout}, node)...,
	)
	if err != nil {
		return fmt.Errorf("init balance oracle: %w", err)
	}

	addressPool, err := pool.New(store, balanceOracle, metrics.NewAddressPool(), clock.System(), cfg.Pool.PoolConfig(), logger)
	if err != nil {
		return fmt.Errorf("init address pool: %w", err)
	}

	var paymentLedger reconciler.Ledger
	if cfg.Store.ClickhouseDSN != "" {
		repo, err := clickhouse.NewRepository(cfg.Store.ClickhouseDSN, metrics.NewClickhouseRepository())
		if err != nil {
			return fmt.Errorf("init ledger repository: %w", err)
		}
		defer repo.Close()

		writer, err := ledger.NewWriter(repo, ledger.DefaultConfig(), logger)
		if err != nil {
			return fmt.Errorf("init ledger writer: %w", err)
		}
		// Stop drains queued rows and runs before the repository closes.
		writer.Start(ctx)
		defer writer.Stop()
		paymentLedger = writer
	}

	notifier, err := orders.NewNotifier(store, clock.System(), logger)
	if err != nil {
		return err
	}

	worker, err := reconciler.NewWorker(
		addressPool,
		balanceOracle,
		notifier,
		paymentLedger,
		metrics.NewReconciler(),
		key,
		clock.System(),
		cfg.Reconciler.WorkerConfig(cfg.Oracles, cfg.Pool),
		logger,
	)
	if err != nil {
		return fmt.Errorf("init reconciler: %w", err)
	}

	blockSignal, err := startBlockSignal(ctx, cfg.Reconciler.ZMQAddr, logger)
	if err != nil {
		return fmt.Errorf("init block signal: %w", err)
	}

	loop, err := reconciler.NewLoop(worker, cfg.Reconciler.LightInterval, cfg.Reconciler.FullInterval, blockSignal, logger)
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	return rpcclient.New(&rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
}
