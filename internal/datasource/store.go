package datasource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stockchat/internal/config"
	"github.com/seenimoa/stockchat/internal/infra"
	"github.com/seenimoa/stockchat/pkg/models"
)

// SampleSize caps each bar table in Store.Sample.
const SampleSize = 100

const snapshotKey = "snapshot"

// Store reads the datasets from disk. With a positive cache TTL the parsed
// snapshot is reused until it expires; otherwise every call reloads.
type Store struct {
	infoPath      string
	barsPath      string
	processedPath string
	cache         *infra.Cache[*Snapshot]
	logger        *zap.Logger
}

// NewStore creates a store for the files named in cfg.
func NewStore(cfg config.DataConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		infoPath:      filepath.Join(cfg.Dir, cfg.InfoFile),
		barsPath:      filepath.Join(cfg.Dir, cfg.BarsFile),
		processedPath: filepath.Join(cfg.Dir, cfg.ProcessedFile),
		cache:         infra.NewCache[*Snapshot](time.Duration(cfg.CacheTTL) * time.Second),
		logger:        logger.Named("datasource"),
	}
}

// Snapshot returns the current dataset snapshot, loading it if needed.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	return s.cache.GetOrLoad(snapshotKey, func() (*Snapshot, error) {
		return s.load(ctx)
	})
}

// Invalidate drops the cached snapshot so the next read reloads from disk.
func (s *Store) Invalidate() {
	s.cache.Invalidate(snapshotKey)
}

// Indices returns every index record.
func (s *Store) Indices(ctx context.Context) ([]models.IndexRecord, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Indices(), nil
}

// FindBySymbol returns at most limit raw bars for symbol in on-disk order.
func (s *Store) FindBySymbol(ctx context.Context, symbol string, limit int) ([]models.Bar, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.BySymbol(symbol, limit), nil
}

// RecentBySymbol returns at most limit raw bars for symbol, newest first.
func (s *Store) RecentBySymbol(ctx context.Context, symbol string, limit int) ([]models.Bar, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.RecentBySymbol(symbol, limit), nil
}

// FindByRegion returns index records whose region contains phrase.
func (s *Store) FindByRegion(ctx context.Context, phrase string) ([]models.IndexRecord, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ByRegion(phrase), nil
}

// Summary describes the loaded datasets.
func (s *Store) Summary(ctx context.Context) (models.DataSummary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return models.DataSummary{}, err
	}
	return snap.Summary(), nil
}

// Sample returns all index records and the first SampleSize rows of each
// bar table.
func (s *Store) Sample(ctx context.Context) (models.RawSample, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return models.RawSample{}, err
	}
	return snap.Sample(SampleSize), nil
}

// load parses the three files concurrently.
func (s *Store) load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	var (
		info      []models.IndexRecord
		bars      []models.Bar
		processed []models.Bar
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = readFile(gctx, s.infoPath, ParseIndexInfo)
		return err
	})
	g.Go(func() error {
		var err error
		bars, err = readFile(gctx, s.barsPath, ParseBars)
		return err
	})
	g.Go(func() error {
		var err error
		processed, err = readFile(gctx, s.processedPath, ParseBars)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("dataset load failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("dataset loaded",
		zap.Int("indices", len(info)),
		zap.Int("bars", len(bars)),
		zap.Int("processed", len(processed)),
		zap.Duration("took", time.Since(start)),
	)
	return NewSnapshot(info, bars, processed), nil
}

func readFile[T any](ctx context.Context, path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DataError{File: path, Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataError{File: path, Err: err}
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		return nil, &DataError{File: path, Err: err}
	}
	return rows, nil
}
