package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stonklabs/mememarket/params"
	"github.com/stonklabs/mememarket/pkg/api"
	"github.com/stonklabs/mememarket/pkg/engine"
	"github.com/stonklabs/mememarket/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	// Setup logging (write to both console and file)
	logger, err := util.NewLoggerWithFile(cfg.Server.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Server.LogFile)

	// ---- Engine ----
	registry := engine.NewRegistry(cfg.Market.Catalog, cfg.Market.PriceFloor)
	walk := engine.NewWalk(nil, cfg.Market.PriceFloor)

	var news *engine.NewsEngine
	if cfg.Market.NewsEnabled {
		news = engine.NewNewsEngine(nil, engine.DefaultNewsEvents())
	}

	eng := engine.New(registry, walk, news, util.RealClock{}, cfg.Market.TickInterval, sugar)

	sessions := engine.NewSessionManager(registry,
		cfg.Trading.InitialCash, cfg.Trading.MaxOrderQty, cfg.Trading.StrictQuantity)

	sugar.Infow("market_configured",
		"assets", registry.Count(),
		"tick_interval_ms", cfg.Market.TickInterval.Milliseconds(),
		"initial_cash", cfg.Trading.InitialCash.String(),
		"max_order_qty", cfg.Trading.MaxOrderQty,
		"strict_qty", cfg.Trading.StrictQuantity,
		"news_enabled", cfg.Market.NewsEnabled)

	// ---- API Server ----
	apiServer := api.NewServer(registry, sessions, cfg.Server.JournalFile, cfg.Trading.StrictQuantity)

	// Hook the engine to the API server: every tick fans out to subscribers.
	eng.OnSnapshot = apiServer.BroadcastSnapshot
	eng.OnNews = apiServer.BroadcastNews

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infow("api_server_starting", "addr", cfg.Server.Addr)
		if err := apiServer.Start(cfg.Server.Addr, cfg.Server.AllowedOrigins); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	// Block on the simulation clock until shutdown.
	if err := eng.Run(ctx); err != nil {
		sugar.Fatalw("engine_failed", "err", err)
	}
}
