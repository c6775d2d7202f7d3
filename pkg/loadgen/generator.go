// Package loadgen drives the gateway with random orders, one TCP connection
// per order.
package loadgen

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
)

const (
	minPrice  = 50
	priceSpan = 200 // prices in [50, 250)
	maxQty    = 100
)

// Generator creates random orders for one symbol. A fixed seed yields a fixed
// sequence, ids included.
type Generator struct {
	mu     sync.Mutex
	symbol string
	rng    *rand.Rand

	buys, sells int
}

func NewGenerator(symbol string, seed int64) *Generator {
	return &Generator{
		symbol: symbol,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Next returns a buy or sell (50/50) with an integral price in [50, 250) and
// quantity in [1, 100].
func (g *Generator) Next() orderbook.Order {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// math/rand never fails to read
		panic(err)
	}

	side := orderbook.Buy
	if g.rng.Intn(2) == 1 {
		side = orderbook.Sell
	}
	price := int64(minPrice + g.rng.Intn(priceSpan))
	qty := int64(g.rng.Intn(maxQty) + 1)

	if side == orderbook.Buy {
		g.buys++
	} else {
		g.sells++
	}

	return orderbook.Order{
		ID:     id.String(),
		Symbol: g.symbol,
		Side:   side,
		Price:  decimal.NewFromInt(price),
		Qty:    qty,
	}
}

// Batch returns count orders.
func (g *Generator) Batch(count int) []orderbook.Order {
	batch := make([]orderbook.Order, count)
	for i := range batch {
		batch[i] = g.Next()
	}
	return batch
}

// Sides reports how many buys and sells were generated so far.
func (g *Generator) Sides() (buys, sells int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buys, g.sells
}
