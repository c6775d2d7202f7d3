package storage

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/uhyunpark/ome/pkg/audit"
)

// PebbleStore keeps matched records per symbol for trade history queries.
// It is an audit.Sink; non-match records are ignored.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open match store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func (s *PebbleStore) Write(r audit.Record) error {
	if r.Kind != audit.KindMatched {
		return nil
	}
	return s.SaveMatch(r)
}

// SaveMatch persists a matched record under its symbol and sequence.
func (s *PebbleStore) SaveMatch(r audit.Record) error {
	val, err := encodeRecord(r)
	if err != nil {
		return fmt.Errorf("encode match %d: %w", r.Seq, err)
	}
	if err := s.db.Set(matchKey(r.Symbol, r.Seq), val, pebble.NoSync); err != nil {
		return fmt.Errorf("save match %d: %w", r.Seq, err)
	}
	return nil
}

// GetMatch loads one record. ok is false if it does not exist.
func (s *PebbleStore) GetMatch(symbol string, seq uint64) (audit.Record, bool, error) {
	val, closer, err := s.db.Get(matchKey(symbol, seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return audit.Record{}, false, nil
	}
	if err != nil {
		return audit.Record{}, false, fmt.Errorf("get match: %w", err)
	}
	defer closer.Close()

	r, err := decodeRecord(val)
	if err != nil {
		return audit.Record{}, false, fmt.Errorf("decode match: %w", err)
	}
	return r, true, nil
}

// LoadRecentMatches returns up to limit matches for symbol, newest first.
func (s *PebbleStore) LoadRecentMatches(symbol string, limit int) ([]audit.Record, error) {
	prefix := matchPrefix(symbol)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("match iterator: %w", err)
	}
	defer iter.Close()

	out := []audit.Record{}
	for iter.Last(); iter.Valid() && len(out) < limit; iter.Prev() {
		r, err := decodeRecord(iter.Value())
		if err != nil {
			continue // Skip invalid entries
		}
		out = append(out, r)
	}
	return out, iter.Error()
}

var _ audit.Sink = (*PebbleStore)(nil)
