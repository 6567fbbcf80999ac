// Command order-audit scans gzip JSONL order exports and reports order
// numbers that appear in more than one file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
)

func main() {
	var (
		capacity uint
		fpr      float64
	)

	flag.UintVar(&capacity, "capacity", 1_000_000, "expected order numbers per file")
	flag.Float64Var(&fpr, "fpr", 0.001, "bloom filter false positive rate")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] export1.jsonl.gz export2.jsonl.gz ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	a := auditor{capacity: capacity, fpr: fpr}
	dups, err := a.run(ctx, flag.Args())
	if err != nil {
		slog.Error("order audit failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, d := range dups {
		fmt.Printf("%s\t%v\n", d.Number, d.Files)
	}
	slog.Info("order audit completed", slog.Int("duplicates", len(dups)))
	if len(dups) > 0 {
		os.Exit(2)
	}
}
