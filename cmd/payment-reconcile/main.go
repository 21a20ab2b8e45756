// Command payment-reconcile compares Paystack exports of successful
// transaction references against the orders table and prints every
// reference that was charged but has no order.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/masterpiece-shawarma/storefront/internal/repository"
)

const (
	bloomFPR      = 0.001
	confirmBatch  = 1000
	progressEvery = 100_000
)

// referenceStore is the part of the order repository reconciliation needs.
type referenceStore interface {
	EachReference(ctx context.Context, fn func(ref string) error) error
	ReferencesIn(ctx context.Context, refs []string) (map[string]bool, error)
}

// fileResult holds the references found in a single export.
type fileResult struct {
	absent    map[string]struct{}
	candidate map[string]struct{}
	lines     uint64
}

// report is the outcome of a reconciliation run.
type report struct {
	Scanned uint64
	// Missing references, sorted. Each one is a charge without an order.
	Missing []string
	// FalsePositives counts bloom hits that the exact query rejected.
	FalsePositives int
}

func main() {
	var (
		databaseURL string
		capacity    uint
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&capacity, "capacity", 1_000_000, "expected number of order references")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] export.gz...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, capacity, files); err != nil {
		slog.Error("reconcile failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL string, capacity uint, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	rep, err := reconcile(ctx, repository.NewOrderRepository(pool), capacity, files)
	if err != nil {
		return err
	}

	slog.Info("reconcile complete",
		slog.Uint64("scanned", rep.Scanned),
		slog.Int("missing", len(rep.Missing)),
		slog.Int("false_positives", rep.FalsePositives),
	)
	return writeReport(os.Stdout, rep)
}

func reconcile(ctx context.Context, store referenceStore, capacity uint, files []string) (*report, error) {
	slog.Info("loading order references")

	filter, err := loadFilter(ctx, store, capacity)
	if err != nil {
		return nil, errors.Wrap(err, "load references")
	}

	slog.Info("scanning exports", slog.Int("files", len(files)))

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(scanFile(gctx, i, f, filter, results))
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "scan exports")
	}

	// The same charge may appear in several exports.
	absent := make(map[string]struct{})
	candidates := make(map[string]struct{})
	rep := &report{}
	for _, r := range results {
		rep.Scanned += r.lines
		for ref := range r.absent {
			absent[ref] = struct{}{}
		}
		for ref := range r.candidate {
			candidates[ref] = struct{}{}
		}
	}

	falsePositives, err := confirm(ctx, store, candidates)
	if err != nil {
		return nil, errors.Wrap(err, "confirm candidates")
	}
	rep.FalsePositives = len(falsePositives)
	for _, ref := range falsePositives {
		absent[ref] = struct{}{}
	}

	rep.Missing = make([]string, 0, len(absent))
	for ref := range absent {
		rep.Missing = append(rep.Missing, ref)
	}
	slices.Sort(rep.Missing)
	return rep, nil
}

func loadFilter(ctx context.Context, store referenceStore, capacity uint) (*bloom.BloomFilter, error) {
	filter := bloom.NewWithEstimates(max(capacity, 1), bloomFPR)
	var count uint64
	if err := store.EachReference(ctx, func(ref string) error {
		filter.AddString(ref)
		count++
		return nil
	}); err != nil {
		return nil, err
	}
	slog.Info("order references loaded", slog.Uint64("count", count))
	return filter, nil
}

func scanFile(
	ctx context.Context,
	idx int,
	path string,
	filter *bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		res := fileResult{
			absent:    make(map[string]struct{}),
			candidate: make(map[string]struct{}),
		}

		if err := streamGzFile(ctx, path, func(ref string) {
			res.lines++
			if res.lines%progressEvery == 0 {
				slog.Info("scan progress",
					slog.String("file", path),
					slog.Uint64("references", res.lines),
				)
			}
			// TestString is read-only and safe for concurrent use.
			if filter.TestString(ref) {
				res.candidate[ref] = struct{}{}
			} else {
				res.absent[ref] = struct{}{}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d", idx+1)
		}

		slog.Info("scan complete",
			slog.String("file", path),
			slog.Uint64("references", res.lines),
			slog.Int("absent", len(res.absent)),
		)

		results[idx] = res
		return nil
	}
}

// confirm runs the exact lookup for bloom hits and returns those that are
// not on any order.
func confirm(ctx context.Context, store referenceStore, candidates map[string]struct{}) ([]string, error) {
	refs := make([]string, 0, len(candidates))
	for ref := range candidates {
		refs = append(refs, ref)
	}
	slices.Sort(refs)

	var missing []string
	for batch := range slices.Chunk(refs, confirmBatch) {
		found, err := store.ReferencesIn(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, ref := range batch {
			if !found[ref] {
				missing = append(missing, ref)
			}
		}
	}
	return missing, nil
}

// streamGzFile opens a gzip-compressed export and calls fn for each
// non-empty line.
func streamGzFile(ctx context.Context, path string, fn func(ref string)) error {
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

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := strings.TrimSpace(scanner.Text())
		if ref == "" {
			continue
		}
		fn(ref)
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

func writeReport(w io.Writer, rep *report) error {
	bw := bufio.NewWriter(w)
	for _, ref := range rep.Missing {
		if _, err := fmt.Fprintln(bw, ref); err != nil {
			return errors.Wrap(err, "write report")
		}
	}
	return bw.Flush()
}
