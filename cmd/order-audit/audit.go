package main

import (
	"cmp"
	"context"
	"log/slog"
	"math/bits"
	"os"
	"slices"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/hrc-bakery/storefront/internal/orderview"
)

// maxFiles is bounded by the width of the per-number file bitmask.
const maxFiles = bits.UintSize

// progressEvery controls how often pass progress is logged.
const progressEvery = 100_000

// Duplicate is an order number found in two or more export files.
type Duplicate struct {
	Number string
	Files  []string
}

type auditor struct {
	capacity uint
	fpr      float64
}

// run builds one bloom filter per file, then rescans each file against the
// other files' filters and confirms candidates by exact membership.
func (a auditor) run(ctx context.Context, files []string) ([]Duplicate, error) {
	if len(files) < 2 {
		return nil, errors.New("at least two export files are required")
	}
	if len(files) > maxFiles {
		return nil, errors.Errorf("at most %d export files are supported, got %d", maxFiles, len(files))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := a.buildFilters(ctx, files)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: finding candidate order numbers")

	masks, err := findCandidates(ctx, files, filters)
	if err != nil {
		return nil, errors.Wrap(err, "find candidates")
	}

	var dups []Duplicate
	for number, mask := range masks {
		if bits.OnesCount(mask) < 2 {
			continue
		}
		d := Duplicate{Number: number}
		for i, f := range files {
			if mask&(1<<uint(i)) != 0 {
				d.Files = append(d.Files, f)
			}
		}
		dups = append(dups, d)
	}
	slices.SortFunc(dups, func(x, y Duplicate) int { return cmp.Compare(x.Number, y.Number) })
	return dups, nil
}

func (a auditor) buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(a.capacity, a.fpr)
			var count uint64

			if err := streamExport(ctx, path, func(number string) {
				filter.AddString(number)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("file", i+1), slog.Uint64("orders", count))
				}
			}); err != nil {
				return errors.Wrapf(err, "build filter for %s", path)
			}

			slog.Info("pass 1 complete", slog.Int("file", i+1), slog.Uint64("orders", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// findCandidates returns, for every order number that some other file's
// filter may contain, the bitmask of files it was actually read from.
// Bloom false positives only add a number to the map under its own file, so
// a number ends up with two bits set only if two files really contain it.
func findCandidates(ctx context.Context, files []string, filters []*bloom.BloomFilter) (map[string]uint, error) {
	results := make([]map[string]uint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			candidates := make(map[string]uint)
			fileBit := uint(1) << uint(i)

			if err := streamExport(ctx, path, func(number string) {
				for j, f := range filters {
					if j != i && f.TestString(number) {
						candidates[number] |= fileBit
						return
					}
				}
			}); err != nil {
				return errors.Wrapf(err, "scan %s for candidates", path)
			}

			slog.Info("pass 2 complete", slog.Int("file", i+1), slog.Int("candidates", len(candidates)))
			results[i] = candidates
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, r := range results {
		for number, mask := range r {
			merged[number] |= mask
		}
	}
	return merged, nil
}

// streamExport calls fn with the order number of every line of a gzip
// JSONL export.
func streamExport(ctx context.Context, path string, fn func(number string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	return orderview.ReadOrderNumbers(gz, func(number string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(number)
		return nil
	})
}
