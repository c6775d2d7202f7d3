package gateway

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    orderbook.Order
	}{
		{
			name:    "full record",
			payload: "1 AAPL buy 150.5 10\n",
			want:    orderbook.Order{ID: "1", Symbol: "AAPL", Side: orderbook.Buy, Price: decimal.RequireFromString("150.5"), Qty: 10},
		},
		{
			name:    "extra whitespace",
			payload: "  7\tMSFT   sell 99 3  \r\n",
			want:    orderbook.Order{ID: "7", Symbol: "MSFT", Side: orderbook.Sell, Price: decimal.NewFromInt(99), Qty: 3},
		},
		{
			name:    "empty",
			payload: "",
			want:    orderbook.Order{},
		},
		{
			name:    "missing quantity",
			payload: "1 AAPL buy 150",
			want:    orderbook.Order{ID: "1", Symbol: "AAPL", Side: orderbook.Buy, Price: decimal.NewFromInt(150)},
		},
		{
			name:    "garbled price stops extraction",
			payload: "1 AAPL buy abc 10",
			want:    orderbook.Order{ID: "1", Symbol: "AAPL", Side: orderbook.Buy},
		},
		{
			name:    "unknown side still parses numbers",
			payload: "1 AAPL BUY 150 10",
			want:    orderbook.Order{ID: "1", Symbol: "AAPL", Side: orderbook.SideUnknown, Price: decimal.NewFromInt(150), Qty: 10},
		},
		{
			name:    "fractional quantity truncated",
			payload: "1 AAPL sell 150 10.5",
			want:    orderbook.Order{ID: "1", Symbol: "AAPL", Side: orderbook.Sell, Price: decimal.NewFromInt(150), Qty: 10},
		},
		{
			name:    "negative quantity",
			payload: "1 AAPL sell 150 -4",
			want:    orderbook.Order{ID: "1", Symbol: "AAPL", Side: orderbook.Sell, Price: decimal.NewFromInt(150)},
		},
		{
			name:    "price prefix leaves remainder for quantity",
			payload: "1 AAPL buy 12.5x 10",
			want:    orderbook.Order{ID: "1", Symbol: "AAPL", Side: orderbook.Buy, Price: decimal.RequireFromString("12.5")},
		},
		{
			name:    "exponent price",
			payload: "1 AAPL buy 1.5e2 1",
			want:    orderbook.Order{ID: "1", Symbol: "AAPL", Side: orderbook.Buy, Price: decimal.NewFromInt(150), Qty: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOrder(tt.payload)
			if got.ID != tt.want.ID || got.Symbol != tt.want.Symbol || got.Side != tt.want.Side || got.Qty != tt.want.Qty {
				t.Fatalf("ParseOrder(%q) = %+v, want %+v", tt.payload, got, tt.want)
			}
			if !got.Price.Equal(tt.want.Price) {
				t.Fatalf("price = %s, want %s", got.Price, tt.want.Price)
			}
		})
	}
}

func TestParseOrder_KeepsRawSide(t *testing.T) {
	tests := []struct {
		payload string
		side    orderbook.Side
		raw     string
	}{
		{"1 AAPL buy 1 1", orderbook.Buy, "buy"},
		{"1 AAPL BUY 1 1", orderbook.SideUnknown, "BUY"},
		{"1 AAPL", orderbook.SideUnknown, ""},
	}
	for _, tt := range tests {
		got := ParseOrder(tt.payload)
		if got.Side != tt.side || got.RawSide != tt.raw {
			t.Errorf("ParseOrder(%q) side = %v/%q, want %v/%q", tt.payload, got.Side, got.RawSide, tt.side, tt.raw)
		}
	}
}

func TestFormatOrder_ParsesBack(t *testing.T) {
	o := orderbook.Order{ID: "abc", Symbol: "AAPL", Side: orderbook.Sell, Price: decimal.RequireFromString("101.25"), Qty: 42}
	line := FormatOrder(o)
	if line != "abc AAPL sell 101.25 42\n" {
		t.Fatalf("FormatOrder = %q", line)
	}
	got := ParseOrder(line)
	if got.ID != o.ID || got.Side != o.Side || !got.Price.Equal(o.Price) || got.Qty != o.Qty {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestQuerySymbol(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"GET /orderbook HTTP/1.1\r\nHost: x\r\n\r\n", "AAPL"},
		{"GET /orderbook/MSFT HTTP/1.1\r\n\r\n", "MSFT"},
		{"GET /orderbook/ HTTP/1.1\r\n\r\n", "AAPL"},
		{"GET /orderbook?symbol=TSLA HTTP/1.1\r\n\r\n", "TSLA"},
		{"GET /orderbook?depth=1 HTTP/1.1\r\n\r\n", "AAPL"},
		{"GET /orderbook/BRK%2EB?x=1 HTTP/1.1", "BRK.B"},
		{"GET /orderbook", "AAPL"},
		{"1 AAPL buy 1 1", "AAPL"},
	}
	for _, tt := range tests {
		if got := QuerySymbol([]byte(tt.payload), "AAPL"); got != tt.want {
			t.Errorf("QuerySymbol(%q) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}

func TestIsPriceQuery(t *testing.T) {
	if !IsPriceQuery([]byte("xx GET /orderbook yy")) {
		t.Error("marker anywhere in payload should match")
	}
	if IsPriceQuery([]byte("GET /markets")) {
		t.Error("other paths are orders")
	}
}
