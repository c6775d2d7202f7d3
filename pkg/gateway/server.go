// Package gateway accepts raw TCP connections carrying either an order record
// or a price request and routes them to the ingestion queue or the book.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
	"github.com/uhyunpark/ome/pkg/metrics"
	"github.com/uhyunpark/ome/pkg/util"
)

const readChunk = 1024

var ErrServerClosed = errors.New("gateway: server closed")

// PriceReader is the read side of the book used by price queries.
type PriceReader interface {
	GetCurrentPrices(symbol string) (buy, sell decimal.Decimal)
}

// Enqueuer accepts parsed orders for the matching worker.
type Enqueuer interface {
	Push(o orderbook.Order) error
}

type Config struct {
	Addr          string
	MaxConns      int64         // 0 = unbounded
	ReadTimeout   time.Duration // 0 = no deadline
	DefaultSymbol string

	Logger  *zap.SugaredLogger
	Metrics *metrics.Metrics
}

type Server struct {
	cfg   Config
	book  PriceReader
	queue Enqueuer
	log   *zap.SugaredLogger
	sem   *semaphore.Weighted

	mu          sync.Mutex
	ln          net.Listener
	closed      bool
	cancelConns context.CancelFunc
	handlers    sync.WaitGroup
}

func NewServer(cfg Config, book PriceReader, queue Enqueuer) *Server {
	if cfg.DefaultSymbol == "" {
		cfg.DefaultSymbol = "AAPL"
	}
	s := &Server{
		cfg:   cfg,
		book:  book,
		queue: queue,
		log:   util.OrNop(cfg.Logger),
	}
	if cfg.MaxConns > 0 {
		s.sem = semaphore.NewWeighted(cfg.MaxConns)
	}
	return s
}

// ListenAndServe binds cfg.Addr and serves until ctx is cancelled or Close is
// called. A listen failure is returned immediately.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("gateway: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on ln. It returns nil after an orderly shutdown
// and the accept error otherwise. In both cases running handlers are drained
// before it returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.handlers.Wait()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	// Cancelled by Close; unblocks handlers still waiting on a read.
	connCtx, cancelConns := context.WithCancel(ctx)
	defer cancelConns()
	s.ln = ln
	s.cancelConns = cancelConns
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	s.log.Infow("gateway_listening", "addr", ln.Addr().String(), "max_conns", s.cfg.MaxConns)

	for {
		if s.sem != nil {
			// Only fails when ctx is done.
			if err := s.sem.Acquire(ctx, 1); err != nil {
				s.log.Infow("gateway_stopped")
				return nil
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			s.release()
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				s.log.Infow("gateway_stopped")
				return nil
			}
			s.cfg.Metrics.AcceptFailed()
			s.log.Errorw("accept_failed", "err", err)
			return fmt.Errorf("gateway: accept: %w", err)
		}

		s.handlers.Add(1)
		s.cfg.Metrics.ConnOpened()
		go func() {
			defer s.handlers.Done()
			defer s.release()
			defer s.cfg.Metrics.ConnClosed()
			s.handle(connCtx, conn)
		}()
	}
}

// Addr returns the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops the accept loop. Handlers still waiting for their payload are
// aborted without enqueueing anything; the rest finish normally.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cancelConns != nil {
		s.cancelConns()
	}
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) release() {
	if s.sem != nil {
		s.sem.Release(1)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	connID := uuid.NewString()

	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, readChunk)
	n, err := conn.Read(buf)
	if err != nil {
		if n == 0 && ctx.Err() != nil {
			s.log.Debugw("conn_aborted", "conn_id", connID)
			return
		}
		// An empty read still yields a default order below.
		s.log.Debugw("conn_read_failed", "conn_id", connID, "err", err)
	}
	payload := buf[:n]

	if IsPriceQuery(payload) {
		symbol := QuerySymbol(payload, s.cfg.DefaultSymbol)
		if err := s.writePrices(conn, symbol); err != nil {
			s.log.Warnw("price_reply_failed", "conn_id", connID, "symbol", symbol, "err", err)
			return
		}
		s.cfg.Metrics.QueryServed()
		return
	}

	o := ParseOrder(string(payload))
	if err := s.queue.Push(o); err != nil {
		s.log.Warnw("order_dropped", "conn_id", connID, "order_id", o.ID, "err", err)
		return
	}
	s.cfg.Metrics.OrderAccepted()
	s.log.Debugw("order_enqueued", "conn_id", connID, "order_id", o.ID, "symbol", o.Symbol)
}

const priceReplyHeader = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n"

type priceReply struct {
	BuyPrice  json.Number `json:"buyPrice"`
	SellPrice json.Number `json:"sellPrice"`
}

func (s *Server) writePrices(conn net.Conn, symbol string) error {
	buy, sell := s.book.GetCurrentPrices(symbol)
	body, err := json.Marshal(priceReply{
		BuyPrice:  json.Number(buy.String()),
		SellPrice: json.Number(sell.String()),
	})
	if err != nil {
		return err
	}
	_, err = conn.Write(append([]byte(priceReplyHeader), body...))
	return err
}
