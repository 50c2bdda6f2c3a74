// Command lot-ingest loads inventory lots from gzipped receiving
// manifests into the database. Each manifest line is
// "lot_code,product_id,quantity,expiration_date" with the date as
// YYYY-MM-DD. Manifests from different suppliers may repeat lot codes;
// a bloom filter backed by an exact set keeps ingestion idempotent
// within one run.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/avolkov/wholesale-orders/internal/domain/inventory"
	"github.com/avolkov/wholesale-orders/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz lot manifests")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("lot ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("lot ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list manifests")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz manifests in %s", dataDir)
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lots := postgres.NewLotRepository(pool)
	dedupe := newDedupe()

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(ingestFile(ctx, f, lots, dedupe))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("manifests processed", slog.Int("files", len(files)))
	return nil
}

// dedupe tracks lot codes seen during this run. The bloom filter answers
// "definitely new" cheaply; possible hits fall through to the exact set so
// a false positive never drops a real lot.
type dedupe struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	seen   map[string]struct{}
}

func newDedupe() *dedupe {
	return &dedupe{
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		seen:   make(map[string]struct{}),
	}
}

// markNew records the code and reports whether it was seen before.
func (d *dedupe) markNew(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.filter.TestString(code) {
		if _, ok := d.seen[code]; ok {
			return false
		}
	}
	d.filter.AddString(code)
	d.seen[code] = struct{}{}
	return true
}

func ingestFile(ctx context.Context, path string, lots *postgres.LotRepository, dedupe *dedupe) func() error {
	return func() error {
		var count, skipped uint64

		err := streamGzFile(ctx, path, func(line string) error {
			lot, err := parseLine(line)
			if err != nil {
				return errors.Wrapf(err, "line %q", line)
			}
			if !dedupe.markNew(lot.ID) {
				skipped++
				return nil
			}
			if err := lots.Create(ctx, lot); err != nil {
				return err
			}
			count++
			if count%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("lots", count),
				)
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "ingest %s", path)
		}

		slog.Info("ingest complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("lots", count),
			slog.Uint64("duplicates_skipped", skipped),
		)
		return nil
	}
}

// parseLine converts one manifest line into a lot. The received quantity
// becomes both the remaining and the input quantity.
func parseLine(line string) (inventory.Lot, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return inventory.Lot{}, errors.New("expected 4 comma-separated fields")
	}

	qty, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		return inventory.Lot{}, errors.Wrap(err, "parse quantity")
	}
	if qty <= 0 {
		return inventory.Lot{}, errors.New("quantity must be positive")
	}

	exp, err := time.Parse("2006-01-02", strings.TrimSpace(parts[3]))
	if err != nil {
		return inventory.Lot{}, errors.Wrap(err, "parse expiration date")
	}

	return inventory.Lot{
		ID:             strings.TrimSpace(parts[0]),
		ProductID:      strings.TrimSpace(parts[1]),
		Quantity:       qty,
		InputQuantity:  qty,
		ExpirationDate: exp,
	}, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each
// non-empty line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
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
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
