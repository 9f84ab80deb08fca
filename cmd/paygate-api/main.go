package main

import (
	"context"
	"errors"
	"fmt"
	"net"
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
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/balance"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/oracle/rate"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/orchestrator"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/pool"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/repository/gormstore"
	rpcclient2 "github.com/goodnatureofminers/blockinsight7000-paygate/internal/pkg/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/transport"
	grpcMiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpcZap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpcRecovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpcCtxTags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	grpcPrometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type config struct {
	Addr           string        `long:"addr" env:"PAYGATE_API_ADDR" description:"gRPC addr" default:":8000"`
	RestAddr       string        `long:"rest-addr" env:"PAYGATE_API_REST_ADDR" description:"rest addr" default:":8001"`
	HealthInterval time.Duration `long:"health-interval" env:"PAYGATE_API_HEALTH_INTERVAL" description:"interval of readiness probes" default:"1m"`

	Pool    appconfig.Pool    `group:"Pool" namespace:"pool" env-namespace:"PAYGATE_POOL"`
	Oracles appconfig.Oracles `group:"Oracles" namespace:"oracles" env-namespace:"PAYGATE_ORACLES"`
	Store   appconfig.Store   `group:"Store" namespace:"store" env-namespace:"PAYGATE_STORE"`
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
	grpcZap.ReplaceGrpcLoggerV2(logger)

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
	// An unusable key keeps the service up but not ready.
	var key pool.Key
	if err := cfg.Pool.Validate(); err != nil {
		logger.Error("master public key rejected, bitcoin payments disabled", zap.Error(err))
	} else {
		key = cfg.Pool.Key()
	}

	if err := run(ctx, cfg, key, logger); err != nil {
		logger.Fatal("paygate api failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, key pool.Key, logger *zap.Logger) error {
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
	ticker, weighted, flat := cfg.Oracles.RateServices(&http.Client{Timeout: cfg.Oracles.RateTimeout})
	rateOracle, err := rate.NewOracle(ticker, weighted, flat, cfg.Oracles.RateTimeout, metrics.NewRateOracle(), logger)
	if err != nil {
		return fmt.Errorf("init rate oracle: %w", err)
	}

	addressPool, err := pool.New(store, balanceOracle, metrics.NewAddressPool(), clock.System(), cfg.Pool.PoolConfig(), logger)
	if err != nil {
		return fmt.Errorf("init address pool: %w", err)
	}
	payments, err := orchestrator.New(addressPool, rateOracle, key, clock.System(), orchestrator.Config{
		Currency: cfg.Oracles.Currency,
		RateMode: cfg.Oracles.RateMode,
	}, logger)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	chain := []grpc.UnaryServerInterceptor{
		grpcRecovery.UnaryServerInterceptor(),
		grpcCtxTags.UnaryServerInterceptor(),
		grpcPrometheus.UnaryServerInterceptor,
		grpcZap.UnaryServerInterceptor(logger),
	}
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpcMiddleware.ChainUnaryServer(chain...)),
	)
	grpcPrometheus.EnableHandlingTimeHistogram()

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	grpcPrometheus.Register(grpcServer)
	go transport.NewHealthReporter(payments, healthServer, cfg.HealthInterval, logger).Run(ctx)

	socket, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	go func() {
		if serveErr := grpcServer.Serve(socket); serveErr != nil {
			logger.Fatal("Start GRPC server", zap.Error(serveErr))
		}
	}()
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down gRPC server")
		healthServer.Shutdown()
		grpcServer.GracefulStop()
	}()

	conn, err := grpc.NewClient("passthrough:///"+cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial gRPC server: %w", err)
	}
	defer conn.Close()

	gw := gwruntime.NewServeMux(gwruntime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
	handler, err := transport.NewPaymentHandler(payments, store, cfg.Oracles.Currency, logger)
	if err != nil {
		return err
	}
	if err := handler.Register(gw); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", gw)
	mux.Handle("/metrics", promhttp.Handler())

	s := &http.Server{
		Addr:              cfg.RestAddr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting HTTP server", zap.String("addr", cfg.RestAddr))
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
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
