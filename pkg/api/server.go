// Package api serves read-only HTTP and WebSocket views of the engine.
// Orders are only submitted through the raw gateway.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
	"github.com/uhyunpark/ome/pkg/audit"
	"github.com/uhyunpark/ome/pkg/metrics"
	"github.com/uhyunpark/ome/pkg/util"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 1000
)

// BookReader is the read side of the order book.
type BookReader interface {
	GetCurrentPrices(symbol string) (buy, sell decimal.Decimal)
	Snapshot(symbol string) orderbook.BookSnapshot
	Symbols() []string
}

// QueueReader reports ingestion backlog.
type QueueReader interface {
	Len() int
}

// MatchReader serves persisted matches, newest first.
type MatchReader interface {
	LoadRecentMatches(symbol string, limit int) ([]audit.Record, error)
}

type Options struct {
	Book        BookReader
	Queue       QueueReader
	Matches     MatchReader // nil: trades endpoint returns []
	Metrics     *metrics.Metrics
	CORSOrigins []string
	Logger      *zap.SugaredLogger
}

// Server handles REST API and WebSocket connections
type Server struct {
	opts   Options
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewServer(opts Options) *Server {
	log := util.OrNop(opts.Logger)
	s := &Server{
		opts:   opts,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}/prices", s.handleGetPrices).Methods("GET")
	api.HandleFunc("/markets/{symbol}/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/markets/{symbol}/trades", s.handleGetTrades).Methods("GET")
	api.HandleFunc("/queue/status", s.handleQueueStatus).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.Handle("/metrics", s.opts.Metrics.Handler()).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:3001"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Hub returns the WebSocket hub for broadcasting.
func (s *Server) Hub() *Hub { return s.hub }

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Infow("api_server_listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warnw("api_shutdown_failed", "err", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Infow("api_server_stopped")
	return nil
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	symbols := s.opts.Book.Symbols()
	response := make([]MarketInfo, len(symbols))
	for i, sym := range symbols {
		snap := s.opts.Book.Snapshot(sym)
		response[i] = MarketInfo{Symbol: sym, Bids: len(snap.Bids), Asks: len(snap.Asks)}
	}
	respondJSON(w, response)
}

func (s *Server) handleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	buy, sell := s.opts.Book.GetCurrentPrices(symbol)
	s.opts.Metrics.QueryServed()
	respondJSON(w, PricesInfo{
		Symbol:    symbol,
		BuyPrice:  number(buy),
		SellPrice: number(sell),
	})
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	snap := s.opts.Book.Snapshot(symbol)

	respondJSON(w, OrderbookSnapshot{
		Symbol:    symbol,
		Bids:      entries(snap.Bids),
		Asks:      entries(snap.Asks),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	limit := defaultTradeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", v)
			return
		}
		limit = min(n, maxTradeLimit)
	}

	trades := []TradeInfo{}
	if s.opts.Matches != nil {
		records, err := s.opts.Matches.LoadRecentMatches(symbol, limit)
		if err != nil {
			s.log.Errorw("load_matches_failed", "symbol", symbol, "err", err)
			respondError(w, http.StatusInternalServerError, "failed to load trades", err.Error())
			return
		}
		for _, rec := range records {
			trades = append(trades, TradeInfo{
				Seq:         rec.Seq,
				Symbol:      rec.Symbol,
				BuyOrderID:  rec.BuyOrderID,
				SellOrderID: rec.SellOrderID,
				BuyPrice:    number(rec.BuyPrice),
				SellPrice:   number(rec.SellPrice),
				Qty:         rec.Qty,
				Timestamp:   rec.Time.UnixMilli(),
			})
		}
	}
	respondJSON(w, trades)
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	var pending int
	if s.opts.Queue != nil {
		pending = s.opts.Queue.Len()
	}
	respondJSON(w, QueueStatus{Pending: pending})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Broadcast Methods (called from the matching worker)
// ==============================

func (s *Server) BroadcastPrices(symbol string, buy, sell decimal.Decimal) {
	s.hub.BroadcastToChannel("prices:"+symbol, PriceUpdate{
		Type:      "prices",
		Symbol:    symbol,
		BuyPrice:  number(buy),
		SellPrice: number(sell),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) BroadcastFill(f orderbook.Fill) {
	s.hub.BroadcastToChannel("fills:"+f.Symbol, FillUpdate{
		Type:        "fill",
		Symbol:      f.Symbol,
		BuyOrderID:  f.BuyID,
		SellOrderID: f.SellID,
		BuyPrice:    number(f.BuyPrice),
		SellPrice:   number(f.SellPrice),
		Qty:         f.Qty,
		Timestamp:   time.Now().UnixMilli(),
	})
}

// ==============================
// Helper Functions
// ==============================

func number(d decimal.Decimal) json.Number { return json.Number(d.String()) }

func entries(orders []orderbook.Order) []OrderEntry {
	out := make([]OrderEntry, len(orders))
	for i, o := range orders {
		out[i] = OrderEntry{ID: o.ID, Price: number(o.Price), Qty: o.Qty}
	}
	return out
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
