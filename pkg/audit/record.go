// Package audit records order lifecycle events (added, processing, matched)
// and fans them out to sinks from a single writer goroutine.
package audit

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
)

type Kind uint8

const (
	KindAdded Kind = iota + 1
	KindProcessing
	KindMatched
)

func (k Kind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindProcessing:
		return "processing"
	case KindMatched:
		return "matched"
	default:
		return "unknown"
	}
}

// Record is one audit event. Seq and Time are assigned by the Log writer.
// Added/Processing use OrderID..Qty; Matched uses BuyOrderID..SellPrice and Qty.
type Record struct {
	Seq    uint64    `json:"seq"`
	Time   time.Time `json:"time"`
	Kind   Kind      `json:"kind"`
	Symbol string    `json:"symbol"`

	OrderID string          `json:"orderId,omitempty"`
	Side    string          `json:"side,omitempty"`
	Price   decimal.Decimal `json:"price"`
	Qty     int64           `json:"qty"`

	BuyOrderID  string          `json:"buyOrderId,omitempty"`
	SellOrderID string          `json:"sellOrderId,omitempty"`
	BuyPrice    decimal.Decimal `json:"buyPrice"`
	SellPrice   decimal.Decimal `json:"sellPrice"`
}

func orderRecord(k Kind, o orderbook.Order) Record {
	side := o.RawSide
	if side == "" {
		side = o.Side.String()
	}
	return Record{
		Kind:    k,
		Symbol:  o.Symbol,
		OrderID: o.ID,
		Side:    side,
		Price:   o.Price,
		Qty:     o.Qty,
	}
}

func fillRecord(f orderbook.Fill) Record {
	return Record{
		Kind:        KindMatched,
		Symbol:      f.Symbol,
		Qty:         f.Qty,
		BuyOrderID:  f.BuyID,
		SellOrderID: f.SellID,
		BuyPrice:    f.BuyPrice,
		SellPrice:   f.SellPrice,
	}
}

// String renders the record as one audit file line (no trailing newline).
func (r Record) String() string {
	switch r.Kind {
	case KindAdded:
		return fmt.Sprintf("Order added: %s, Symbol: %s, Side: %s, Price: %s, Quantity: %d",
			r.OrderID, r.Symbol, r.Side, r.Price, r.Qty)
	case KindProcessing:
		return fmt.Sprintf("Processing Order: %s, Symbol: %s, Side: %s, Price: %s, Quantity: %d",
			r.OrderID, r.Symbol, r.Side, r.Price, r.Qty)
	case KindMatched:
		return fmt.Sprintf("Matched Order! Buy Order ID: %s Sell Order ID: %s Quantity: %d",
			r.BuyOrderID, r.SellOrderID, r.Qty)
	default:
		return fmt.Sprintf("Unknown record kind %d", r.Kind)
	}
}

var (
	ErrUnrecognizedLine = errors.New("audit: unrecognized line")

	orderLine = regexp.MustCompile(`^(Order added|Processing Order): (\S*), Symbol: (\S*), Side: (\S*), Price: (\S*), Quantity: (-?\d+)$`)
	matchLine = regexp.MustCompile(`^Matched Order! Buy Order ID: (\S*) Sell Order ID: (\S*) Quantity: (-?\d+)$`)
)

// ParseLine is the inverse of Record.String. Seq and Time are left zero and
// Matched records carry no symbol or prices, since the text line has none.
func ParseLine(line string) (Record, error) {
	if m := orderLine.FindStringSubmatch(line); m != nil {
		price, err := decimal.NewFromString(m[5])
		if err != nil {
			return Record{}, fmt.Errorf("audit: parse price %q: %w", m[5], err)
		}
		qty, err := strconv.ParseInt(m[6], 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("audit: parse quantity %q: %w", m[6], err)
		}
		kind := KindAdded
		if m[1] == "Processing Order" {
			kind = KindProcessing
		}
		return Record{Kind: kind, OrderID: m[2], Symbol: m[3], Side: m[4], Price: price, Qty: qty}, nil
	}

	if m := matchLine.FindStringSubmatch(line); m != nil {
		qty, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("audit: parse quantity %q: %w", m[3], err)
		}
		return Record{Kind: KindMatched, BuyOrderID: m[1], SellOrderID: m[2], Qty: qty}, nil
	}

	return Record{}, ErrUnrecognizedLine
}
