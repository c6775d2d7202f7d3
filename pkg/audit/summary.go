package audit

import (
	"bufio"
	"errors"
	"io"

	"github.com/shopspring/decimal"
)

// PriceRange tracks min/max price of added orders on one side.
type PriceRange struct {
	Count int
	Min   decimal.Decimal
	Max   decimal.Decimal
}

func (p *PriceRange) observe(price decimal.Decimal) {
	if p.Count == 0 || price.LessThan(p.Min) {
		p.Min = price
	}
	if p.Count == 0 || price.GreaterThan(p.Max) {
		p.Max = price
	}
	p.Count++
}

type Summary struct {
	Added      int
	Processed  int
	Matches    int
	MatchedQty int64
	Skipped    int // lines that were not audit records

	Buys  PriceRange
	Sells PriceRange
}

// Summarize reads an audit text stream and aggregates it.
func Summarize(r io.Reader) (Summary, error) {
	var s Summary
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		rec, err := ParseLine(sc.Text())
		if err != nil {
			if errors.Is(err, ErrUnrecognizedLine) {
				s.Skipped++
				continue
			}
			return s, err
		}

		switch rec.Kind {
		case KindAdded:
			s.Added++
			switch rec.Side {
			case "buy":
				s.Buys.observe(rec.Price)
			case "sell":
				s.Sells.observe(rec.Price)
			}
		case KindProcessing:
			s.Processed++
		case KindMatched:
			s.Matches++
			s.MatchedQty += rec.Qty
		}
	}
	return s, sc.Err()
}
