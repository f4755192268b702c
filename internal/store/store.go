// Package store is the Entity Store: the single owner of every record, its
// id generation and its persistence. Commands run one at a time through
// Update; each one either commits and is durable before Update returns, or
// leaves the state untouched.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/clock"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	"github.com/smallbiznis/nel3/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultKey = "nel3.mockdb.v1"

	lockTTL = 10 * time.Second
)

type Config struct {
	KV       storage.KV
	Key      string
	Clock    clock.Clock
	Node     *snowflake.Node
	Location *time.Location
	Log      *zap.Logger
	Metrics  *metrics.StoreMetrics
	// Seed writes the demo data when no snapshot exists yet.
	Seed bool
}

type Store struct {
	mu    sync.RWMutex
	state *Snapshot

	kv      storage.KV
	locker  storage.Locker
	key     string
	clock   clock.Clock
	ids     *snowflake.Node
	loc     *time.Location
	log     *zap.Logger
	metrics *metrics.StoreMetrics
	tracer  trace.Tracer
}

// Open reads the snapshot from cfg.KV, seeding it on first load when asked.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.KV == nil {
		return nil, errors.New("store: storage backend is required")
	}
	if cfg.Node == nil {
		node, err := snowflake.NewNode(1)
		if err != nil {
			return nil, err
		}
		cfg.Node = node
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}

	s := &Store{
		kv:      cfg.KV,
		key:     cfg.Key,
		clock:   cfg.Clock,
		ids:     cfg.Node,
		loc:     cfg.Location,
		log:     cfg.Log.Named("store"),
		metrics: cfg.Metrics,
		tracer:  otel.Tracer("nel3/store"),
	}
	if l, ok := cfg.KV.(storage.Locker); ok {
		s.locker = l
	}

	snap, found, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case found:
		s.state = snap
		s.log.Info("snapshot loaded", zap.String("key", s.key), zap.String("backend", s.kv.Name()))
	case cfg.Seed:
		seeded := Seed(s.clock.Now(), s.loc)
		if err := s.write(ctx, seeded); err != nil {
			return nil, fmt.Errorf("store: persist seed: %w", err)
		}
		s.state = seeded
		s.log.Info("snapshot seeded", zap.String("key", s.key), zap.String("backend", s.kv.Name()))
	default:
		s.state = emptySnapshot()
	}
	return s, nil
}

func (s *Store) read(ctx context.Context) (*Snapshot, bool, error) {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, false, fmt.Errorf("store: read snapshot: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	snap := &Snapshot{}
	if err := storage.Decode(data, snap); err != nil {
		return nil, false, err
	}
	if snap.Version > SchemaVersion {
		return nil, false, fmt.Errorf("store: snapshot version %d is newer than %d", snap.Version, SchemaVersion)
	}
	snap.Version = SchemaVersion
	snap.normalize()
	return snap, true, nil
}

func (s *Store) write(ctx context.Context, snap *Snapshot) error {
	data, err := storage.Encode(snap)
	if err != nil {
		return err
	}
	start := time.Now()
	err = s.kv.Put(ctx, s.key, data)
	s.metrics.ObserveSnapshotWrite(s.kv.Name(), time.Since(start).Seconds(), err)
	if err == nil {
		s.metrics.SetSnapshotBytes(len(data))
	}
	return err
}

// Update runs fn against a private copy of the state. When fn succeeds the
// copy is persisted and then becomes the current state.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.Update")
	defer func() {
		if err != nil {
			span.SetAttributes(attribute.String("error.kind", apperror.Kind(err)))
			span.SetStatus(codes.Error, apperror.Kind(err))
		}
		span.End()
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, s.key, lockTTL)
		if err != nil {
			s.metrics.ObserveCommand("failed")
			return fmt.Errorf("store: lock snapshot: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("snapshot unlock failed", zap.Error(err))
			}
		}()
		// another process may have committed since our last command
		if snap, found, err := s.read(ctx); err != nil {
			s.metrics.ObserveCommand("failed")
			return err
		} else if found {
			s.state = snap
		}
	}

	next, err := s.state.clone()
	if err != nil {
		s.metrics.ObserveCommand("failed")
		return fmt.Errorf("store: clone snapshot: %w", err)
	}

	tx := &Tx{snap: next, now: s.clock.Now(), loc: s.loc, ids: s.ids}
	if err := fn(tx); err != nil {
		s.metrics.ObserveCommand("rejected")
		return err
	}

	if err := s.write(ctx, next); err != nil {
		s.metrics.ObserveCommand("failed")
		s.log.Error("snapshot write failed", zap.String("backend", s.kv.Name()), zap.Error(err))
		return fmt.Errorf("store: persist snapshot: %w", err)
	}
	s.state = next
	s.metrics.ObserveCommand("ok")
	return nil
}

// View runs fn against the current state under the read lock.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) (err error) {
	_, span := s.tracer.Start(ctx, "store.View")
	defer func() {
		if err != nil {
			span.SetAttributes(attribute.String("error.kind", apperror.Kind(err)))
			span.SetStatus(codes.Error, apperror.Kind(err))
		}
		span.End()
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{snap: s.state, now: s.clock.Now(), loc: s.loc, ids: s.ids, readOnly: true})
}

// Export returns a deep copy of the whole state.
func (s *Store) Export(ctx context.Context) (*Snapshot, error) {
	var out *Snapshot
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		out, err = tx.snap.clone()
		return err
	})
	return out, err
}

// Reset replaces the state with the demo seed, or an empty state when seed is false.
func (s *Store) Reset(ctx context.Context, seed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := emptySnapshot()
	if seed {
		next = Seed(s.clock.Now(), s.loc)
	}
	if err := s.write(ctx, next); err != nil {
		return fmt.Errorf("store: persist snapshot: %w", err)
	}
	s.state = next
	s.log.Info("snapshot reset", zap.Bool("seed", seed))
	return nil
}

// Location is the business timezone used for period buckets.
func (s *Store) Location() *time.Location { return s.loc }
