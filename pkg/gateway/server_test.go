package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/uhyunpark/ome/pkg/app/core/ingest"
	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
	"github.com/uhyunpark/ome/pkg/metrics"
)

type stubPrices map[string][2]string

func (s stubPrices) GetCurrentPrices(symbol string) (decimal.Decimal, decimal.Decimal) {
	p, ok := s[symbol]
	if !ok {
		return decimal.Zero, decimal.Zero
	}
	return decimal.RequireFromString(p[0]), decimal.RequireFromString(p[1])
}

type startedServer struct {
	srv    *Server
	addr   string
	cancel context.CancelFunc
	errc   chan error
}

func startServer(t *testing.T, cfg Config, book PriceReader, q Enqueuer) *startedServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := &startedServer{
		srv:    NewServer(cfg, book, q),
		addr:   ln.Addr().String(),
		cancel: cancel,
		errc:   make(chan error, 1),
	}
	go func() { s.errc <- s.srv.Serve(ctx, ln) }()
	t.Cleanup(func() { s.stop(t) })
	return s
}

func (s *startedServer) stop(t *testing.T) {
	t.Helper()
	s.cancel()
	select {
	case err, ok := <-s.errc:
		if ok {
			assert.NoError(t, err)
			close(s.errc)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("gateway did not stop")
	}
}

func roundTrip(t *testing.T, addr, payload string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(payload))
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(out)
}

func TestServer_PriceQuery(t *testing.T) {
	book := stubPrices{"AAPL": {"150", "155.5"}, "MSFT": {"300", "0"}}
	m := metrics.New()
	s := startServer(t, Config{DefaultSymbol: "AAPL", Metrics: m}, book, ingest.NewQueue())

	tests := []struct {
		request string
		body    string
	}{
		{"GET /orderbook HTTP/1.1\r\n\r\n", `{"buyPrice":150,"sellPrice":155.5}`},
		{"GET /orderbook/MSFT HTTP/1.1\r\n\r\n", `{"buyPrice":300,"sellPrice":0}`},
		{"GET /orderbook?symbol=NOPE HTTP/1.1\r\n\r\n", `{"buyPrice":0,"sellPrice":0}`},
	}
	for _, tt := range tests {
		got := roundTrip(t, s.addr, tt.request)
		assert.Equal(t, priceReplyHeader+tt.body, got)
	}
}

func TestServer_OrderIsEnqueued(t *testing.T) {
	q := ingest.NewQueue()
	s := startServer(t, Config{}, stubPrices{}, q)

	reply := roundTrip(t, s.addr, "42 AAPL buy 150 10\n")
	assert.Empty(t, reply, "order submissions get no response")

	o, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "42", o.ID)
	assert.Equal(t, orderbook.Buy, o.Side)
	assert.Equal(t, int64(10), o.Qty)
}

func TestServer_EmptyConnectionEnqueuesDefaultOrder(t *testing.T) {
	q := ingest.NewQueue()
	s := startServer(t, Config{}, stubPrices{}, q)

	conn, err := net.Dial("tcp", s.addr)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	done := make(chan orderbook.Order, 1)
	go func() {
		o, _ := q.Pop()
		done <- o
	}()
	select {
	case o := <-done:
		assert.Equal(t, orderbook.Order{}, o)
	case <-time.After(2 * time.Second):
		t.Fatal("no order enqueued for empty connection")
	}
}

func TestServer_ManyConcurrentClients(t *testing.T) {
	q := ingest.NewQueue()
	s := startServer(t, Config{MaxConns: 4}, stubPrices{}, q)

	const clients = 50
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			roundTrip(t, s.addr, "x AAPL sell 1 1\n")
		}()
	}
	wg.Wait()

	// roundTrip returns once the handler closed the socket, which is after Push.
	s.stop(t)
	assert.Equal(t, clients, q.Len())
}

func TestServer_ClosedQueueDropsOrder(t *testing.T) {
	q := ingest.NewQueue()
	q.Close()
	s := startServer(t, Config{}, stubPrices{}, q)

	roundTrip(t, s.addr, "1 AAPL buy 1 1\n")
	assert.Equal(t, 0, q.Len())
}

func TestServer_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(Config{Addr: ln.Addr().String()}, stubPrices{}, ingest.NewQueue())
	err = srv.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "gateway: listen"))
}

func TestServer_ServeAfterClose(t *testing.T) {
	srv := NewServer(Config{}, stubPrices{}, ingest.NewQueue())
	require.NoError(t, srv.Close())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	err = srv.Serve(context.Background(), ln)
	assert.True(t, errors.Is(err, ErrServerClosed))
}

func TestServer_ShutdownWithIdleClient(t *testing.T) {
	q := ingest.NewQueue()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(Config{MaxConns: 1024}, stubPrices{}, q)
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	// Connected but never writes, so its handler sits in Read.
	idle, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer idle.Close()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return with an idle client connected")
	}
	assert.Equal(t, 0, q.Len(), "aborted connection must not enqueue an order")
}

func TestServer_CloseAbortsIdleClient(t *testing.T) {
	q := ingest.NewQueue()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(Config{}, stubPrices{}, q)
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(context.Background(), ln) }()

	idle, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer idle.Close()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, srv.Close())
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close with an idle client connected")
	}
	assert.Equal(t, 0, q.Len())
}

func TestServer_StopWhileWaitingForSlotIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(Config{MaxConns: 1, Logger: zap.New(core).Sugar()}, stubPrices{}, ingest.NewQueue())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	// The idle client holds the only slot, so the loop waits in Acquire.
	idle, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer idle.Close()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.Equal(t, 1, logs.FilterMessage("gateway_stopped").Len())
}
