package orderbook

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// book holds the outstanding orders of one symbol, each side in arrival order.
type book struct {
	mu   sync.Mutex
	bids []Order
	asks []Order
}

// BookSnapshot is a copy of one symbol's sequences, oldest first.
type BookSnapshot struct {
	Symbol string
	Bids   []Order
	Asks   []Order
}

// OrderBook keeps a sub-book per symbol. Each sub-book has its own mutex;
// mu only guards the symbol map.
type OrderBook struct {
	mu    sync.RWMutex
	books map[string]*book
	rec   Recorder
}

func NewOrderBook(rec Recorder) *OrderBook {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &OrderBook{
		books: make(map[string]*book),
		rec:   rec,
	}
}

func (ob *OrderBook) lookup(symbol string) *book {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.books[symbol]
}

func (ob *OrderBook) getOrCreate(symbol string) *book {
	if b := ob.lookup(symbol); b != nil {
		return b
	}
	ob.mu.Lock()
	defer ob.mu.Unlock()
	b, ok := ob.books[symbol]
	if !ok {
		b = &book{}
		ob.books[symbol] = b
	}
	return b
}

// AddOrder appends o to the back of its side. Orders with an unknown side or
// no quantity are dropped without error; the added event is still recorded.
func (ob *OrderBook) AddOrder(o Order) {
	if (o.Side != Buy && o.Side != Sell) || o.Qty <= 0 {
		ob.rec.OrderAdded(o)
		return
	}

	b := ob.getOrCreate(o.Symbol)
	b.mu.Lock()
	defer b.mu.Unlock()

	if o.Side == Buy {
		b.bids = append(b.bids, o)
	} else {
		b.asks = append(b.asks, o)
	}
	ob.rec.OrderAdded(o)
}

// MatchOrders crosses the most recently added buy against the most recently
// added sell while buy price >= sell price. Only the last element of each side
// is ever inspected: a deeper order that would cross is left alone once the
// top pair stops crossing.
func (ob *OrderBook) MatchOrders(symbol string) []Fill {
	b := ob.lookup(symbol)
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var fills []Fill
	for len(b.bids) > 0 && len(b.asks) > 0 {
		bid := &b.bids[len(b.bids)-1]
		ask := &b.asks[len(b.asks)-1]

		if bid.Price.LessThan(ask.Price) {
			break
		}

		qty := min(bid.Qty, ask.Qty)
		bid.Qty -= qty
		ask.Qty -= qty

		f := Fill{
			Symbol:    symbol,
			BuyID:     bid.ID,
			SellID:    ask.ID,
			BuyPrice:  bid.Price,
			SellPrice: ask.Price,
			Qty:       qty,
		}
		ob.rec.Matched(f)
		fills = append(fills, f)

		if bid.Qty == 0 {
			b.bids = b.bids[:len(b.bids)-1]
		}
		if ask.Qty == 0 {
			b.asks = b.asks[:len(b.asks)-1]
		}
	}
	return fills
}

// GetCurrentPrices returns the price of the newest outstanding buy and sell.
// A side with no orders reports zero.
func (ob *OrderBook) GetCurrentPrices(symbol string) (buy, sell decimal.Decimal) {
	b := ob.lookup(symbol)
	if b == nil {
		return decimal.Zero, decimal.Zero
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	buy, sell = decimal.Zero, decimal.Zero
	if n := len(b.bids); n > 0 {
		buy = b.bids[n-1].Price
	}
	if n := len(b.asks); n > 0 {
		sell = b.asks[n-1].Price
	}
	return buy, sell
}

// Snapshot copies both sequences of symbol.
func (ob *OrderBook) Snapshot(symbol string) BookSnapshot {
	snap := BookSnapshot{Symbol: symbol, Bids: []Order{}, Asks: []Order{}}
	b := ob.lookup(symbol)
	if b == nil {
		return snap
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	snap.Bids = append(snap.Bids, b.bids...)
	snap.Asks = append(snap.Asks, b.asks...)
	return snap
}

// Symbols returns every symbol that has ever received a buy or sell, sorted.
func (ob *OrderBook) Symbols() []string {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	out := make([]string, 0, len(ob.books))
	for sym := range ob.books {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
