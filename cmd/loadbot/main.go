package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/uhyunpark/ome/params"
	"github.com/uhyunpark/ome/pkg/loadgen"
	"github.com/uhyunpark/ome/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	lc := loadgen.DefaultConfig()
	flag.StringVar(&lc.Addr, "addr", cfg.LoadBot.Addr, "gateway address")
	flag.StringVar(&lc.Symbol, "symbol", cfg.LoadBot.Symbol, "symbol to trade")
	flag.IntVar(&lc.Bots, "bots", cfg.LoadBot.Bots, "number of orders, one connection each")
	flag.IntVar(&lc.Concurrency, "concurrency", cfg.LoadBot.Concurrency, "max in-flight connections")
	flag.Int64Var(&lc.Seed, "seed", cfg.LoadBot.Seed, "random seed (0 = time based)")
	flag.DurationVar(&lc.Interval, "interval", cfg.LoadBot.Interval, "pause between batches")
	flag.IntVar(&lc.BatchSize, "batch", cfg.LoadBot.BatchSize, "orders per batch when pacing")
	flag.Parse()

	logger, err := util.NewLogger(cfg.Verbose)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := loadgen.Run(ctx, lc, sugar)
	if err != nil {
		sugar.Warnw("loadbot_interrupted", "err", err, "sent", stats.Sent)
		os.Exit(1)
	}
	if stats.Failed > 0 {
		os.Exit(2)
	}
}
