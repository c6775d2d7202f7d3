package orderbook

import "github.com/shopspring/decimal"

type Side int8

const (
	SideUnknown Side = iota
	Buy
	Sell
)

// ParseSide maps the wire tokens "buy" and "sell" (case-sensitive).
// Anything else is SideUnknown.
func ParseSide(s string) Side {
	switch s {
	case "buy":
		return Buy
	case "sell":
		return Sell
	default:
		return SideUnknown
	}
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Order is a resting or incoming order. Qty is the remaining unfilled quantity.
type Order struct {
	ID     string
	Symbol string
	Side   Side
	Price  decimal.Decimal
	Qty    int64

	// RawSide is the side token as submitted; audit records print it so a
	// dropped "BUY" still shows what the client sent.
	RawSide string
}

// Fill describes one cross between the newest buy and the newest sell of a symbol.
type Fill struct {
	Symbol    string
	BuyID     string
	SellID    string
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	Qty       int64
}

// Recorder receives book lifecycle events. Calls are made while the symbol
// lock is held, so per-symbol call order equals mutation order.
type Recorder interface {
	OrderAdded(o Order)
	Matched(f Fill)
}

type nopRecorder struct{}

func (nopRecorder) OrderAdded(Order) {}
func (nopRecorder) Matched(Fill)     {}
