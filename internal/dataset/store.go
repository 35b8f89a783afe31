package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"searchlens/internal/timeframe"
)

// Store holds the current snapshot. Readers never block; loads are
// serialized and publish a complete snapshot in one atomic swap.
type Store struct {
	logger *slog.Logger
	source Source
	clock  timeframe.TimeProvider

	loadMu  sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store reading from source.
func NewStore(logger *slog.Logger, source Source, clock timeframe.TimeProvider) *Store {
	if clock == nil {
		clock = &timeframe.DefaultTimeProvider{}
	}
	return &Store{logger: logger, source: source, clock: clock}
}

// Source returns the underlying source.
func (s *Store) Source() Source {
	return s.source
}

// Current returns the published snapshot or ErrNotLoaded.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Load fetches both datasets concurrently, builds a snapshot and publishes
// it. On error the previous snapshot stays current.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	payloads := make([]Payload, len(Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		g.Go(func() error {
			p, err := s.source.Fetch(gctx, kind)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", kind, err)
			}
			payloads[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Dataset load failed",
			slog.String("source", s.source.Describe()),
			slog.Any("error", err))
		return nil, err
	}

	snap := BuildSnapshot(uuid.NewString(), s.clock.Now(time.UTC), payloads[0], payloads[1])
	s.current.Store(snap)

	s.logger.Info("Dataset snapshot published",
		slog.String("snapshot_id", snap.ID),
		slog.Int("analytics_rows", len(snap.Records.Analytics)),
		slog.Int("search_rows", len(snap.Records.Search)),
		slog.Int("joined_rows", len(snap.Joined)),
		slog.Duration("duration", time.Since(start)))

	return snap, nil
}
