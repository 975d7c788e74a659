package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/perp_leverage_bot/internal/config"
	"github.com/vitos/perp_leverage_bot/internal/infrastructure/exchange"
	"github.com/vitos/perp_leverage_bot/internal/infrastructure/logger"
	"github.com/vitos/perp_leverage_bot/internal/infrastructure/policy"
	"github.com/vitos/perp_leverage_bot/internal/infrastructure/storage"
	"github.com/vitos/perp_leverage_bot/internal/usecase"
	"github.com/vitos/perp_leverage_bot/internal/web"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	creds, err := config.LoadCredentials(cfg.Mode)
	if err != nil {
		fmt.Printf("Failed to load credentials: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()
	journal := storage.NewJSONJournal(cfg.Storage.HistoryFile)

	// 4. Init Exchange
	restURL, wsURL := cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint
	if cfg.Exchange.Testnet {
		if restURL == "" {
			restURL = exchange.BinanceTestnetBaseURL
		}
		if wsURL == "" {
			wsURL = exchange.BinanceTestnetWSURL
		}
	}
	adapter := exchange.NewBinanceAdapter(creds.APIKey, creds.APISecret, restURL, wsURL)
	if err := adapter.Init(ctx, cfg.Symbol); err != nil {
		log.Warn("Failed to load symbol filters, using default step", zap.Error(err))
	}

	// 5. Init Executor + Session
	var (
		executor usecase.Executor
		profile  usecase.Profile
	)
	if cfg.Mode == config.ModeLive {
		profile = usecase.LiveProfile(cfg.Trading.MaxLeverage, adapter.PrecisionStep(cfg.Symbol))
		executor, err = usecase.NewLiveExecutor(ctx, adapter, cfg.Symbol, profile, log)
		if err != nil {
			log.Fatal("Failed to init live session", zap.Error(err))
		}
	} else {
		profile = usecase.SimProfile(cfg.Trading.MaxLeverage, cfg.Trading.InitialBalance)
		executor = usecase.NewSimulatedExecutor(profile, log)
	}

	session, err := usecase.NewTradingSession(cfg.Symbol, profile, executor, journal, store, log)
	if err != nil {
		log.Fatal("Failed to init session", zap.Error(err))
	}

	// 6. Init Worker with its own cycle log
	workerLog := log
	if cfg.Logging.WorkerFile != "" {
		workerLog, err = logger.NewFileLogger(cfg.Logging.WorkerFile, cfg.Logging.Level)
		if err != nil {
			log.Error("Failed to init worker logger, using default", zap.Error(err))
			workerLog = log
		}
	}
	bridge := policy.NewHTTPBridge(cfg.Policy.Endpoint)
	interval := time.Duration(cfg.Trading.CycleIntervalMs) * time.Millisecond
	worker := usecase.NewBotWorker(session, bridge, adapter, interval, workerLog)

	// 7. Price stream
	adapter.OnPriceUpdate(worker.OnPriceUpdate)
	if err := adapter.ConnectWS([]string{cfg.Symbol}); err != nil {
		log.Warn("Websocket unavailable, falling back to REST prices", zap.Error(err))
	}
	defer adapter.Close()

	go worker.Run(ctx)

	// 8. Web server
	server := web.NewServer(cfg.Server.Port, session, worker, store, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}
