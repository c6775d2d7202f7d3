package storage

import (
	"fmt"
)

// Key schema for the pebble match store:
//
//	match:<len(symbol)>:<symbol>:<seq> → gob-encoded audit.Record (KindMatched only)
//
// The length prefix keeps one symbol's range from covering another that
// extends it (e.g. "A" and "A:B"). Seq is zero-padded (20 digits) so keys of
// one symbol sort by sequence.
const prefixMatch = "match:"

// matchKey returns the key for a matched record
func matchKey(symbol string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", matchPrefix(symbol), seq))
}

// matchPrefix returns the prefix for all matches of a symbol
func matchPrefix(symbol string) []byte {
	return []byte(fmt.Sprintf("%s%d:%s:", prefixMatch, len(symbol), symbol))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
