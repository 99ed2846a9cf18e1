package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/tcrview/internal/doccache"
	"github.com/jmerrifield20/tcrview/internal/ethereum"
	"github.com/jmerrifield20/tcrview/internal/gateway"
	"github.com/jmerrifield20/tcrview/internal/metrics"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("gateway exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ─────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	viper.SetConfigName("gateway")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("chain.rpc_url", "http://localhost:8545")
	viper.SetDefault("chain.block_time", "15s")
	viper.SetDefault("chain.blocks_per_request", 0)
	viper.SetDefault("rpc.rate_limit_rps", 10)
	viper.SetDefault("registry.address", "")
	viper.SetDefault("registry.view_address", "")
	viper.SetDefault("registry.deployment_block", 0)
	viper.SetDefault("registry.factory_address", "")
	viper.SetDefault("registry.factory_deployment_block", 0)
	viper.SetDefault("registry.schema_ttl", "5m")
	viper.SetDefault("ipfs.gateway", "https://ipfs.kleros.io")
	viper.SetDefault("ipfs.timeout", "30s")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.ttl", "24h")
	viper.SetDefault("gateway.port", 8090)
	viper.SetDefault("gateway.rate_limit_rps", 20)
	viper.SetDefault("gateway.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("gateway.request_timeout", "60s")

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	registryAddr, err := hexAddress("registry.address")
	if err != nil {
		return err
	}
	viewAddr, err := hexAddress("registry.view_address")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Chain connection ──────────────────────────────────────────────────────
	rpcURL := viper.GetString("chain.rpc_url")
	conn, err := ethereum.Dial(ctx, rpcURL,
		ethereum.WithRateLimit(viper.GetFloat64("rpc.rate_limit_rps"), 1),
		ethereum.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer conn.Close()

	// ── Meta evidence documents ───────────────────────────────────────────────
	var fetcher gtcr.DocumentFetcher = metaevidence.NewHTTPFetcher(
		viper.GetString("ipfs.gateway"),
		viper.GetDuration("ipfs.timeout"),
	)
	if u := viper.GetString("redis.url"); u != "" {
		opt, err := redis.ParseURL(u)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, documents will be fetched uncached", zap.Error(err))
		}
		fetcher = doccache.New(rdb, fetcher,
			doccache.WithTTL(viper.GetDuration("redis.ttl")),
			doccache.WithLogger(logger),
		)
	}

	// ── Registry client ───────────────────────────────────────────────────────
	m := metrics.New(nil)
	opts := []gtcr.Option{
		gtcr.WithLogger(logger),
		gtcr.WithBlockTime(viper.GetDuration("chain.block_time")),
		gtcr.WithDeploymentBlock(viper.GetUint64("registry.deployment_block")),
		gtcr.WithSchemaTTL(viper.GetDuration("registry.schema_ttl")),
		gtcr.WithArbitratorDialer(conn.ArbitratorDialer()),
		gtcr.WithObserver(m),
	}
	if n := viper.GetUint64("chain.blocks_per_request"); n > 0 {
		opts = append(opts, gtcr.WithBlocksPerRequest(n))
	}
	client, err := gtcr.New(conn, conn.Registry(registryAddr), conn.View(viewAddr), fetcher, opts...)
	if err != nil {
		return fmt.Errorf("create registry client: %w", err)
	}

	var lists gateway.Lister
	if viper.GetString("registry.factory_address") != "" {
		factoryAddr, err := hexAddress("registry.factory_address")
		if err != nil {
			return err
		}
		factory, err := gtcr.NewFactory(conn, factoryAddr,
			gtcr.WithLogger(logger),
			gtcr.WithBlockTime(viper.GetDuration("chain.block_time")),
			gtcr.WithDeploymentBlock(viper.GetUint64("registry.factory_deployment_block")),
			gtcr.WithObserver(m),
		)
		if err != nil {
			return fmt.Errorf("create factory client: %w", err)
		}
		lists = factory
	}

	network, err := client.Network(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", rpcURL, err)
	}

	// ── HTTP Router ───────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := gateway.NewRegistryHandler(client, registryAddr, lists, logger)
	router := gateway.NewRouter(ctx, gateway.Config{
		CORSOrigins:  viper.GetStringSlice("gateway.cors_origins"),
		RateLimitRPS: viper.GetFloat64("gateway.rate_limit_rps"),
	}, h, m, logger)

	port := viper.GetInt("gateway.port")
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           http.TimeoutHandler(router, viper.GetDuration("gateway.request_timeout"), `{"error":"request timed out"}`),
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("gateway listening",
			zap.Int("port", port),
			zap.String("registry", registryAddr.Hex()),
			zap.String("network", network.Name),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP serve error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ──────────────────────────────────────────────────────
	<-quit
	logger.Info("shutting down gateway...")
	cancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown", zap.Error(err))
	}

	logger.Info("gateway stopped")
	return nil
}

func hexAddress(key string) (common.Address, error) {
	s := viper.GetString(key)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: %q is not a hex address", key, s)
	}
	return common.HexToAddress(s), nil
}
