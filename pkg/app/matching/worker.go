package matching

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/ome/pkg/app/core/ingest"
	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
	"github.com/uhyunpark/ome/pkg/metrics"
	"github.com/uhyunpark/ome/pkg/util"
)

// ProcessRecorder receives an event for every order before it is applied.
type ProcessRecorder interface {
	OrderProcessing(o orderbook.Order)
}

type nopRecorder struct{}

func (nopRecorder) OrderProcessing(orderbook.Order) {}

// Worker is the single consumer of the ingestion queue and the only writer of
// the order book on the submission path.
type Worker struct {
	queue *ingest.Queue
	book  *orderbook.OrderBook
	rec   ProcessRecorder

	Logger  *zap.SugaredLogger
	Metrics *metrics.Metrics

	// Optional hooks, called from the worker goroutine after each order.
	OnFill   func(f orderbook.Fill)
	OnPrices func(symbol string, buy, sell decimal.Decimal)

	processed uint64
}

func NewWorker(queue *ingest.Queue, book *orderbook.OrderBook, rec ProcessRecorder) *Worker {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Worker{queue: queue, book: book, rec: rec}
}

// Run processes orders one at a time until the queue is closed and drained.
func (w *Worker) Run() error {
	log := util.OrNop(w.Logger)
	log.Infow("matching_worker_started")

	for {
		o, ok := w.queue.Pop()
		if !ok {
			log.Infow("matching_worker_stopped", "processed", w.processed)
			return nil
		}
		w.Metrics.SetQueueDepth(w.queue.Len())
		w.Process(o)
	}
}

// Process applies a single order: record, add, then match its symbol.
func (w *Worker) Process(o orderbook.Order) []orderbook.Fill {
	w.rec.OrderProcessing(o)
	w.book.AddOrder(o)
	fills := w.book.MatchOrders(o.Symbol)

	w.processed++
	w.Metrics.OrderProcessed(o.Side.String())
	for _, f := range fills {
		w.Metrics.Filled(f.Qty)
		if w.OnFill != nil {
			w.OnFill(f)
		}
	}

	if w.Logger != nil && len(fills) > 0 {
		w.Logger.Debugw("order_matched", "order_id", o.ID, "symbol", o.Symbol, "fills", len(fills))
	}

	if w.OnPrices != nil && o.Side != orderbook.SideUnknown {
		buy, sell := w.book.GetCurrentPrices(o.Symbol)
		w.OnPrices(o.Symbol, buy, sell)
	}
	return fills
}

// Processed returns how many orders the worker has applied. Only meaningful
// after Run returns or from the worker goroutine.
func (w *Worker) Processed() uint64 { return w.processed }
