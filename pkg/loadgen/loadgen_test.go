package loadgen

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/ome/pkg/app/core/ingest"
	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
	"github.com/uhyunpark/ome/pkg/gateway"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator("AAPL", 7).Batch(20)
	b := NewGenerator("AAPL", 7).Batch(20)
	assert.Equal(t, a, b)

	c := NewGenerator("AAPL", 8).Batch(20)
	assert.NotEqual(t, a[0].ID, c[0].ID)
}

func TestGenerator_Ranges(t *testing.T) {
	g := NewGenerator("MSFT", 42)
	seen := map[string]bool{}
	for _, o := range g.Batch(2000) {
		require.Equal(t, "MSFT", o.Symbol)
		require.Contains(t, []orderbook.Side{orderbook.Buy, orderbook.Sell}, o.Side)
		require.True(t, o.Price.IntPart() >= 50 && o.Price.IntPart() < 250, "price %s", o.Price)
		require.True(t, o.Qty >= 1 && o.Qty <= 100, "qty %d", o.Qty)
		require.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
	}
	buys, sells := g.Sides()
	assert.Equal(t, 2000, buys+sells)
	assert.InDelta(t, 1000, buys, 150)
}

func startGateway(t *testing.T) (string, *ingest.Queue) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	q := ingest.NewQueue()
	srv := gateway.NewServer(gateway.Config{}, orderbook.NewOrderBook(nil), q)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String(), q
}

func TestRun_DeliversEveryOrder(t *testing.T) {
	addr, q := startGateway(t)

	stats, err := Run(context.Background(), Config{
		Addr: addr, Symbol: "AAPL", Bots: 200, Concurrency: 16, Seed: 1,
		Interval: time.Millisecond, BatchSize: 50,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(200), stats.Sent)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, 200, stats.Buys+stats.Sells)

	require.Eventually(t, func() bool { return q.Len() == 200 }, 2*time.Second, 5*time.Millisecond)

	want := NewGenerator("AAPL", 1).Batch(200)
	ids := map[string]bool{}
	for _, o := range want {
		ids[o.ID] = true
	}
	for i := 0; i < 200; i++ {
		o, ok := q.Pop()
		require.True(t, ok)
		assert.True(t, ids[o.ID], "unexpected order %s", o.ID)
	}
}

func TestRun_UnreachableTargetCountsFailures(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	stats, err := Run(context.Background(), Config{Addr: addr, Symbol: "AAPL", Bots: 5, Concurrency: 2, Seed: 3}, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Sent)
	assert.Equal(t, int64(5), stats.Failed)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := Run(ctx, Config{Addr: "127.0.0.1:1", Bots: 10}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Sent)
}

func TestRun_RequiresAddr(t *testing.T) {
	_, err := Run(context.Background(), Config{Bots: 1}, nil)
	assert.Error(t, err)
}
