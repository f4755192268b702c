// Package storetest builds stores backed by memory for service tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/nel3/internal/clock"
	"github.com/smallbiznis/nel3/internal/storage"
	"github.com/smallbiznis/nel3/internal/store"
	"github.com/stretchr/testify/require"
)

// Now is the fake clock start: 2026-03-10 12:00 in São Paulo.
var Now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func Location(t testing.TB) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		// tzdata missing on the host
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// New opens a memory-backed store. seed loads the demo data.
func New(t testing.TB, seed bool) (*store.Store, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(Now)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	s, err := store.Open(context.Background(), store.Config{
		KV:       storage.NewMemory(),
		Clock:    clk,
		Node:     node,
		Location: Location(t),
		Seed:     seed,
	})
	require.NoError(t, err)
	return s, clk
}
