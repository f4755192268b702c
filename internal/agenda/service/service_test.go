package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/nel3/internal/agenda/domain"
	"github.com/smallbiznis/nel3/internal/apperror"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/notification/notificationtest"
	"github.com/smallbiznis/nel3/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *notificationtest.MockEmitter) {
	t.Helper()
	st, _ := storetest.New(t, true)
	em := notificationtest.NewMockEmitter()
	return New(Params{Store: st, Emitter: em, Log: zap.NewNop()}), em
}

func TestUpsertLastWriteWins(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertSlotRequest{PartnerID: "p3", Date: "2026-03-20", Capacity: 8, Booked: 2})
	require.NoError(t, err)
	slot, err := svc.Upsert(ctx, domain.UpsertSlotRequest{PartnerID: "p3", Date: "2026-03-20", Capacity: 6, Booked: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, slot.Available())

	slots, err := svc.ListByPartner(ctx, "p3")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 6, slots[0].Capacity)
	assert.Empty(t, em.Drafts())
}

func TestUpsertValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []domain.UpsertSlotRequest{
		{PartnerID: "p1", Date: "2026-03-20", Capacity: 5, Booked: 6},
		{PartnerID: "p1", Date: "2026-03-20", Capacity: -1, Booked: 0},
		{PartnerID: "p1", Date: "20/03/2026", Capacity: 5, Booked: 0},
		{PartnerID: "", Date: "2026-03-20", Capacity: 5, Booked: 0},
		{PartnerID: "ghost", Date: "2026-03-20", Capacity: 5, Booked: 0},
	}
	for _, c := range cases {
		_, err := svc.Upsert(ctx, c)
		assert.ErrorIs(t, err, apperror.ErrValidation, "%+v", c)
	}
}

func TestUpsertFillingSlotNotifies(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertSlotRequest{PartnerID: "p1", Date: "2026-03-21", Capacity: 3, Booked: 2})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, domain.UpsertSlotRequest{PartnerID: "p1", Date: "2026-03-21", Capacity: 3, Booked: 3})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, domain.UpsertSlotRequest{PartnerID: "p1", Date: "2026-03-21", Capacity: 3, Booked: 3})
	require.NoError(t, err)

	drafts := em.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, notificationdomain.TypeAgenda, drafts[0].Type)
}

func TestGetAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	first := all[0]

	got, err := svc.Get(ctx, first.PartnerID, first.Date)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	removed, err := svc.Delete(ctx, first.PartnerID, first.Date)
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = svc.Get(ctx, first.PartnerID, first.Date)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
