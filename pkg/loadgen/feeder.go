package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
	"github.com/uhyunpark/ome/pkg/gateway"
	"github.com/uhyunpark/ome/pkg/util"
)

// Config controls how many bots run and how fast.
type Config struct {
	Addr        string
	Symbol      string
	Bots        int
	Concurrency int   // in-flight connections; <= 0 means one per bot
	Seed        int64 // 0 seeds from the wall clock

	// Pacing: sleep Interval after every BatchSize orders. Zero disables.
	Interval  time.Duration
	BatchSize int

	DialTimeout time.Duration
}

// DefaultConfig mirrors a burst of independent clients against a local gateway.
func DefaultConfig() Config {
	return Config{
		Addr:        "127.0.0.1:8080",
		Symbol:      "AAPL",
		Bots:        10000,
		Concurrency: 256,
		DialTimeout: 5 * time.Second,
	}
}

type Stats struct {
	Sent    int64
	Failed  int64
	Buys    int
	Sells   int
	Elapsed time.Duration
}

func (s Stats) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Sent) / s.Elapsed.Seconds()
}

// Run sends cfg.Bots orders, each on its own connection. A failed bot is
// counted and does not stop the others. Cancelling ctx stops launching new
// bots; the returned error is ctx.Err() in that case.
func Run(ctx context.Context, cfg Config, log *zap.SugaredLogger) (Stats, error) {
	log = util.OrNop(log)
	if cfg.Addr == "" {
		return Stats{}, errors.New("loadgen: empty target address")
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	gen := NewGenerator(cfg.Symbol, cfg.Seed)
	var sent, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}

	log.Infow("loadgen_started", "addr", cfg.Addr, "symbol", cfg.Symbol, "bots", cfg.Bots,
		"concurrency", cfg.Concurrency, "seed", cfg.Seed)
	start := time.Now()

launch:
	for i := 0; i < cfg.Bots; i++ {
		if cfg.Interval > 0 && cfg.BatchSize > 0 && i > 0 && i%cfg.BatchSize == 0 {
			t := time.NewTimer(cfg.Interval)
			select {
			case <-gctx.Done():
				t.Stop()
				break launch
			case <-t.C:
			}
		}
		if gctx.Err() != nil {
			break
		}

		o := gen.Next()
		g.Go(func() error {
			if err := Send(gctx, cfg.Addr, o, cfg.DialTimeout); err != nil {
				failed.Add(1)
				log.Debugw("bot_send_failed", "order_id", o.ID, "err", err)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	buys, sells := gen.Sides()
	stats := Stats{
		Sent:    sent.Load(),
		Failed:  failed.Load(),
		Buys:    buys,
		Sells:   sells,
		Elapsed: time.Since(start),
	}
	log.Infow("loadgen_finished", "sent", stats.Sent, "failed", stats.Failed,
		"elapsed", stats.Elapsed.Round(time.Millisecond), "rate", stats.Rate())

	return stats, ctx.Err()
}

// Send delivers one order on a fresh connection and closes it.
func Send(ctx context.Context, addr string, o orderbook.Order, timeout time.Duration) error {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(gateway.FormatOrder(o))); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
