package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/uhyunpark/ome/params"
	"github.com/uhyunpark/ome/pkg/api"
	"github.com/uhyunpark/ome/pkg/app/core/ingest"
	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
	"github.com/uhyunpark/ome/pkg/app/matching"
	"github.com/uhyunpark/ome/pkg/audit"
	"github.com/uhyunpark/ome/pkg/gateway"
	"github.com/uhyunpark/ome/pkg/metrics"
	"github.com/uhyunpark/ome/pkg/storage"
	"github.com/uhyunpark/ome/pkg/util"
)

func main() {
	// ENV > .env > defaults
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.LogFile, cfg.Verbose)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.LogFile, "verbose", cfg.Verbose)

	m := metrics.New()

	// ---- Audit sinks ----
	var sinks []audit.Sink

	var wal audit.Sink = storage.NewNopWAL()
	if cfg.Audit.File != "" {
		fw, err := storage.NewFileWAL(cfg.Audit.File, cfg.Audit.Truncate)
		if err != nil {
			sugar.Fatalw("audit_file_open_failed", "path", cfg.Audit.File, "err", err)
		}
		wal = fw
	}
	sinks = append(sinks, wal)

	var matches api.MatchReader
	if cfg.Audit.MatchDBPath != "" {
		store, err := storage.NewPebbleStore(cfg.Audit.MatchDBPath)
		if err != nil {
			sugar.Fatalw("match_store_open_failed", "path", cfg.Audit.MatchDBPath, "err", err)
		}
		sinks = append(sinks, store)
		matches = store
	}

	if len(cfg.Audit.KafkaBrokers) > 0 {
		sinks = append(sinks, audit.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic))
		sugar.Infow("kafka_sink_enabled", "brokers", cfg.Audit.KafkaBrokers, "topic", cfg.Audit.KafkaTopic)
	}

	auditLog := audit.NewLog(audit.Options{Buffer: cfg.Audit.Buffer, Logger: sugar}, sinks...)
	go auditLog.Run()

	// ---- Engine ----
	book := orderbook.NewOrderBook(auditLog)
	queue := ingest.NewQueue()

	worker := matching.NewWorker(queue, book, auditLog)
	worker.Logger = sugar
	worker.Metrics = m

	gw := gateway.NewServer(gateway.Config{
		Addr:          cfg.Gateway.Addr,
		MaxConns:      cfg.Gateway.MaxConns,
		ReadTimeout:   cfg.Gateway.ReadTimeout,
		DefaultSymbol: cfg.Gateway.DefaultSymbol,
		Logger:        sugar,
		Metrics:       m,
	}, book, queue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// ---- API Server (optional) ----
	if cfg.API.Addr != "" {
		apiServer := api.NewServer(api.Options{
			Book:        book,
			Queue:       queue,
			Matches:     matches,
			Metrics:     m,
			CORSOrigins: cfg.API.CORSOrigins,
			Logger:      sugar,
		})
		worker.OnFill = apiServer.BroadcastFill
		worker.OnPrices = apiServer.BroadcastPrices

		g.Go(func() error {
			return apiServer.Start(gctx, cfg.API.Addr)
		})
	} else {
		sugar.Info("api_disabled")
	}

	g.Go(func() error {
		// Handlers are drained before Serve returns, so nothing pushes
		// after the queue is closed.
		defer queue.Close()
		return gw.ListenAndServe(gctx)
	})

	g.Go(worker.Run)

	sugar.Infow("omed_starting",
		"gateway_addr", cfg.Gateway.Addr,
		"api_addr", cfg.API.Addr,
		"audit_file", cfg.Audit.File,
		"audit_sinks", len(sinks))

	if err := g.Wait(); err != nil {
		sugar.Errorw("omed_failed", "err", err)
	}

	// Worker is done; flush whatever it recorded.
	auditLog.Close()
	<-auditLog.Done()
	sugar.Infow("omed_stopped", "processed", worker.Processed())
}
