package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/clock"
	partnerdomain "github.com/smallbiznis/nel3/internal/partner/domain"
	"github.com/smallbiznis/nel3/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func openTest(t *testing.T, kv storage.KV, seed bool) *Store {
	t.Helper()
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)
	s, err := Open(context.Background(), Config{
		KV:    kv,
		Clock: clock.NewFakeClock(testNow),
		Node:  node,
		Seed:  seed,
	})
	require.NoError(t, err)
	return s
}

func TestOpenSeedsFirstLoadAndPersists(t *testing.T) {
	kv := storage.NewMemory()
	s := openTest(t, kv, true)

	snap, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Partners, 4)
	assert.NotEmpty(t, snap.Services)
	assert.Equal(t, int64(3), snap.Sequences[SequenceNotification])

	_, found, err := kv.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestOpenWithoutSeedStartsEmpty(t *testing.T) {
	s := openTest(t, storage.NewMemory(), false)

	snap, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Partners)
	assert.NotNil(t, snap.Ledger)
}

func TestSeedIsDeterministic(t *testing.T) {
	a := Seed(testNow, time.UTC)
	b := Seed(testNow, time.UTC)
	assert.Equal(t, a, b)
}

func TestUpdateFailureLeavesStateUntouched(t *testing.T) {
	s := openTest(t, storage.NewMemory(), true)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx *Tx) error {
		tx.Partners().Delete("p1")
		tx.LedgerAdd("p1", "daily:2026-03-10", decimal.NewFromInt(10))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		_, ok := tx.Partners().FindOne("p1")
		assert.True(t, ok)
		return nil
	}))
}

func TestUpdateSurvivesReopen(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	s := openTest(t, kv, false)

	var id string
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		id = tx.NewID()
		tx.Partners().Create(partnerdomain.Partner{ID: id, Name: "Hospital X", City: "SP"})
		tx.LedgerAdd(id, "daily:2026-03-10", decimal.RequireFromString("1000.00"))
		return nil
	}))

	reopened := openTest(t, kv, true)
	require.NoError(t, reopened.View(ctx, func(tx *Tx) error {
		p, ok := tx.Partners().FindOne(id)
		require.True(t, ok)
		assert.Equal(t, "Hospital X", p.Name)
		assert.True(t, tx.LedgerConsumed(id, "daily:2026-03-10").Equal(decimal.NewFromInt(1000)))
		// existing snapshot wins over the seed
		_, seeded := tx.Partners().FindOne("p1")
		assert.False(t, seeded)
		return nil
	}))
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	s := openTest(t, storage.NewMemory(), false)
	ctx := context.Background()
	seen := map[string]bool{}

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Update(ctx, func(tx *Tx) error {
			id := tx.NewID()
			assert.False(t, seen[id])
			seen[id] = true
			tx.Partners().Create(partnerdomain.Partner{ID: id})
			tx.Partners().Delete(id)
			return nil
		}))
	}
}

func TestNextSequenceIsMonotonic(t *testing.T) {
	s := openTest(t, storage.NewMemory(), true)
	ctx := context.Background()

	var got int64
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		got = tx.NextSequence(SequenceInvoice)
		return nil
	}))
	assert.Equal(t, int64(4), got)
}

func TestPartnerNamePlaceholder(t *testing.T) {
	s := openTest(t, storage.NewMemory(), true)
	require.NoError(t, s.View(context.Background(), func(tx *Tx) error {
		assert.Equal(t, "Hospital São Lucas", PartnerName(tx, "p1"))
		assert.Equal(t, RemovedPlaceholder, PartnerName(tx, "gone"))
		assert.Equal(t, RemovedPlaceholder, AffiliateName(tx, "gone"))
		return nil
	}))
}

type failingKV struct {
	storage.KV
}

func (failingKV) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func TestUpdateWriteFailureKeepsPreviousState(t *testing.T) {
	mem := storage.NewMemory()
	s := openTest(t, mem, true)
	s.kv = failingKV{KV: mem}
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) error {
		tx.Partners().Delete("p1")
		return nil
	})
	require.Error(t, err)

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		_, ok := tx.Partners().FindOne("p1")
		assert.True(t, ok)
		return nil
	}))
}

func TestResetRestoresSeed(t *testing.T) {
	s := openTest(t, storage.NewMemory(), true)
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		tx.Partners().Delete("p1")
		return nil
	}))

	require.NoError(t, s.Reset(ctx, true))
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		assert.Equal(t, 4, tx.Partners().Count(nil))
		return nil
	}))

	require.NoError(t, s.Reset(ctx, false))
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		assert.Zero(t, tx.Partners().Count(nil))
		return nil
	}))
}

func TestViewRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	s := openTest(t, storage.NewMemory(), true)
	ctx := context.Background()

	require.NoError(t, s.View(ctx, func(tx *Tx) error { return nil }))
	err := s.View(ctx, func(tx *Tx) error { return apperror.NotFound("partner", "ghost") })
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "store.View", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String("error.kind", "not_found"))
}
