package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/uhyunpark/ome/params"
	"github.com/uhyunpark/ome/pkg/audit"
)

func main() {
	cfg := params.LoadFromEnv("")
	path := flag.String("file", cfg.Audit.File, "audit log to summarize (- for stdin)")
	flag.Parse()

	var in io.Reader = os.Stdin
	if *path != "-" {
		f, err := os.Open(*path)
		if err != nil {
			log.Fatalf("open %s: %v", *path, err)
		}
		defer f.Close()
		in = f
	}

	s, err := audit.Summarize(in)
	if err != nil {
		log.Fatalf("summarize: %v", err)
	}
	printSummary(os.Stdout, s)
}

func printSummary(w io.Writer, s audit.Summary) {
	fmt.Fprintf(w, "orders added:     %d\n", s.Added)
	fmt.Fprintf(w, "orders processed: %d\n", s.Processed)
	fmt.Fprintf(w, "matches:          %d\n", s.Matches)
	fmt.Fprintf(w, "matched quantity: %d\n", s.MatchedQty)
	printRange(w, "buy", s.Buys)
	printRange(w, "sell", s.Sells)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "skipped lines:    %d\n", s.Skipped)
	}
}

func printRange(w io.Writer, side string, p audit.PriceRange) {
	if p.Count == 0 {
		fmt.Fprintf(w, "%-4s orders:      0\n", side)
		return
	}
	fmt.Fprintf(w, "%-4s orders:      %d (price %s .. %s)\n", side, p.Count, p.Min, p.Max)
}
