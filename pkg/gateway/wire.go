package gateway

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
)

// Order record on the wire:
//
//	<orderId> <symbol> <side> <price> <quantity>\n
//
// Fields are consumed left to right like a formatted stream read. The first
// field that is missing or fails to parse, and every field after it, keep
// their zero value. Nothing is ever rejected.

var (
	decimalPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	integerPrefix = regexp.MustCompile(`^[+-]?\d+`)
)

// fieldReader hands out whitespace-separated tokens. A numeric read that
// consumes only part of a token leaves the remainder as the next token.
type fieldReader struct {
	fields []string
}

func (r *fieldReader) word() (string, bool) {
	if len(r.fields) == 0 {
		return "", false
	}
	w := r.fields[0]
	r.fields = r.fields[1:]
	return w, true
}

func (r *fieldReader) numeric(re *regexp.Regexp) (string, bool) {
	if len(r.fields) == 0 {
		return "", false
	}
	tok := r.fields[0]
	n := len(re.FindString(tok))
	if n == 0 {
		return "", false
	}
	if n == len(tok) {
		r.fields = r.fields[1:]
	} else {
		r.fields[0] = tok[n:]
	}
	return tok[:n], true
}

// ParseOrder decodes one order record, tolerating malformed input.
func ParseOrder(payload string) orderbook.Order {
	var o orderbook.Order
	r := &fieldReader{fields: strings.Fields(payload)}

	var ok bool
	if o.ID, ok = r.word(); !ok {
		return o
	}
	if o.Symbol, ok = r.word(); !ok {
		return o
	}
	side, ok := r.word()
	if !ok {
		return o
	}
	o.Side = orderbook.ParseSide(side)
	o.RawSide = side

	ps, ok := r.numeric(decimalPrefix)
	if !ok {
		return o
	}
	price, err := decimal.NewFromString(ps)
	if err != nil {
		return o
	}
	o.Price = price

	qs, ok := r.numeric(integerPrefix)
	if !ok {
		return o
	}
	qty, err := strconv.ParseInt(qs, 10, 64)
	if err != nil || qty < 0 {
		return o
	}
	o.Qty = qty
	return o
}

// FormatOrder encodes o as one wire record, newline terminated.
func FormatOrder(o orderbook.Order) string {
	return fmt.Sprintf("%s %s %s %s %d\n", o.ID, o.Symbol, o.Side, o.Price, o.Qty)
}

var priceQueryMarker = []byte("GET /orderbook")

// IsPriceQuery reports whether payload is a price request.
func IsPriceQuery(payload []byte) bool {
	return bytes.Contains(payload, priceQueryMarker)
}

// QuerySymbol extracts the symbol from "GET /orderbook/<SYM>" or
// "GET /orderbook?symbol=<SYM>". A bare "/orderbook" yields def.
func QuerySymbol(payload []byte, def string) string {
	i := bytes.Index(payload, priceQueryMarker)
	if i < 0 {
		return def
	}
	rest := payload[i+len(priceQueryMarker):]
	if end := bytes.IndexAny(rest, " \r\n"); end >= 0 {
		rest = rest[:end]
	}

	switch {
	case bytes.HasPrefix(rest, []byte("/")):
		sym := string(rest[1:])
		if q := strings.IndexByte(sym, '?'); q >= 0 {
			sym = sym[:q]
		}
		if sym, err := url.PathUnescape(strings.TrimSuffix(sym, "/")); err == nil && sym != "" {
			return sym
		}
	case bytes.HasPrefix(rest, []byte("?")):
		if vals, err := url.ParseQuery(string(rest[1:])); err == nil {
			if sym := vals.Get("symbol"); sym != "" {
				return sym
			}
		}
	}
	return def
}
