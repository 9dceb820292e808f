// Package main runs the sniper: candidate discovery from all sources,
// the filter pipeline, paper execution and the position monitor, plus
// the HTTP surface (webhook, health, status, metrics).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"solana-curve-sniper/internal/config"
	"solana-curve-sniper/internal/discovery"
	"solana-curve-sniper/internal/enrich"
	"solana-curve-sniper/internal/enrich/stub"
	"solana-curve-sniper/internal/execution"
	"solana-curve-sniper/internal/filters"
	"solana-curve-sniper/internal/ledger"
	"solana-curve-sniper/internal/logging"
	"solana-curve-sniper/internal/server"
	"solana-curve-sniper/internal/solana"
	"solana-curve-sniper/internal/storage"
	chstore "solana-curve-sniper/internal/storage/clickhouse"
	"solana-curve-sniper/internal/storage/memory"
	"solana-curve-sniper/internal/storage/migrations"
	pgstore "solana-curve-sniper/internal/storage/postgres"
	"solana-curve-sniper/internal/storage/redisdb"
	"solana-curve-sniper/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg, log); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("sniper exited with error")
	}
	log.Info().Msg("shutdown complete")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tradeLog, obsStore, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("building stores: %w", err)
	}
	defer cleanup()

	ledgerCfg := cfg.LedgerConfig()
	ledgerCfg.SessionID = uuid.NewString()
	book := ledger.New(ledgerCfg, tradeLog, log)

	// Paper sessions run on the stub provider; live enrichment plugs in
	// behind the same interfaces.
	provider := stub.NewProvider()
	var prices enrich.PriceSource = provider
	var volumes enrich.VolumeSource = provider

	engine, err := execution.New(cfg.ExecutionConfig(), execution.Deps{
		Prices: prices,
		Ledger: book,
		Log:    log,
	})
	if err != nil {
		return fmt.Errorf("building execution engine: %w", err)
	}

	orch, err := strategy.New(cfg.StrategyConfig(), strategy.Deps{
		Enricher:     provider,
		Prices:       prices,
		Volumes:      volumes,
		Filters:      filters.NewPipeline(cfg.FilterConfig()),
		Engine:       engine,
		Ledger:       book,
		Observations: obsStore,
		Log:          log,
	})
	if err != nil {
		return fmt.Errorf("building orchestrator: %w", err)
	}

	detector := discovery.NewDetector(cfg.ParserConfig(), log)
	detector.SetCallback(orch.OnCandidate)

	srv := server.New(server.Config{
		Port:            cfg.Server.Port,
		ReadTimeout:     server.DefaultConfig().ReadTimeout,
		WriteTimeout:    server.DefaultConfig().WriteTimeout,
		ShutdownTimeout: server.DefaultConfig().ShutdownTimeout,
	}, detector, book, log)

	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		orch.Run(ctx)
	}()

	if cfg.Discovery.AggregatorURL != "" {
		poller := discovery.NewPoller(cfg.PollerConfig(), detector, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	if cfg.Storage.RetentionDays > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweepTradeLog(ctx, tradeLog, cfg.Storage.RetentionDays, log)
		}()
	}

	if cfg.Discovery.WSURL != "" {
		stream, err := solana.NewLogStream(ctx, cfg.Discovery.WSURL, cfg.Discovery.ProgramID, nil, log)
		if err != nil {
			return fmt.Errorf("connecting log stream: %w", err)
		}
		defer stream.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			detector.ConsumeLogs(ctx, stream.Events())
		}()
	}

	log.Info().
		Str("mode", cfg.Mode).
		Str("storage", cfg.Storage.Backend).
		Int("port", cfg.Server.Port).
		Msg("sniper started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		srv.Stop(context.Background())
		wg.Wait()
		return err
	}

	if err := srv.Stop(context.Background()); err != nil {
		log.Warn().Err(err).Msg("http server shutdown failed")
	}
	wg.Wait()
	return nil
}

// buildStores wires the trade log and the optional volume-observation
// store according to the configured backend.
func buildStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.TradeLogStore, storage.VolumeObservationStore, func(), error) {
	var (
		tradeLog storage.TradeLogStore
		cleanups []func()
	)

	switch cfg.Storage.Backend {
	case "memory":
		tradeLog = memory.NewTradeLogStore()

	case "redis":
		store, err := redisdb.NewTradeLogStore(ctx, redisdb.Config{
			Addr:      cfg.Storage.RedisAddr,
			Password:  cfg.Storage.RedisPassword,
			DB:        cfg.Storage.RedisDB,
			Retention: redisdb.DefaultRetention,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting redis: %w", err)
		}
		tradeLog = store

	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connecting postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("running postgres migrations: %w", err)
		}
		tradeLog = pgstore.NewTradeLogStore(pool)
		cleanups = append(cleanups, pool.Close)

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	var obsStore storage.VolumeObservationStore = memory.NewVolumeObservationStore()
	if cfg.Storage.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickHouseDSN)
		if err != nil {
			runCleanups(cleanups)
			return nil, nil, nil, fmt.Errorf("running clickhouse migrations: %w", err)
		}
		obsStore = chstore.NewVolumeObservationStore(conn)
		cleanups = append(cleanups, func() { conn.Close() })
	}

	log.Info().Str("backend", cfg.Storage.Backend).
		Bool("clickhouse", cfg.Storage.ClickHouseDSN != "").
		Msg("storage initialized")

	return tradeLog, obsStore, func() { runCleanups(cleanups) }, nil
}

func runCleanups(cleanups []func()) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// sweepTradeLog drops trade records past the retention horizon once at
// startup and then every six hours. Backends with native TTL report
// zero dropped.
func sweepTradeLog(ctx context.Context, store storage.TradeLogStore, retentionDays int, log zerolog.Logger) {
	sweep := func() {
		cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
		dropped, err := store.Sweep(ctx, cutoff)
		if err != nil {
			log.Warn().Err(err).Msg("trade log sweep failed")
			return
		}
		if dropped > 0 {
			log.Info().Int("dropped", dropped).
				Str("cutoff", cutoff.Format("2006-01-02")).
				Msg("trade log swept")
		}
	}

	sweep()
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
