package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/apperror"
	obscontext "github.com/smallbiznis/nel3/internal/observability/context"
	"github.com/smallbiznis/nel3/internal/rate/domain"
	"github.com/smallbiznis/nel3/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	st, _ := storetest.New(t, true)
	return New(Params{Store: st, Log: zap.NewNop()})
}

func TestDerivedStatusOfSeed(t *testing.T) {
	svc := newTestService(t)

	views, err := svc.ListViews(context.Background())
	require.NoError(t, err)
	got := map[string]domain.DerivedStatus{}
	for _, v := range views {
		got[v.ID] = v.Status
	}
	assert.Equal(t, domain.DerivedActive, got["r1"])
	assert.Equal(t, domain.DerivedActive, got["r2"])
	assert.Equal(t, domain.DerivedFuture, got["r3"])
	assert.Equal(t, domain.DerivedExpired, got["r4"])
	assert.Equal(t, domain.DerivedInactive, got["r5"])
}

func TestStatusPrecedence(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	r := domain.Rate{IsActive: false, EffectiveDate: now.AddDate(0, 0, 5), ExpirationDate: &past}
	assert.Equal(t, domain.DerivedInactive, r.StatusAt(now))
	r.IsActive = true
	assert.Equal(t, domain.DerivedExpired, r.StatusAt(now))
	r.ExpirationDate = nil
	assert.Equal(t, domain.DerivedFuture, r.StatusAt(now))
}

func TestActiveForPicksLatestEffective(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRateRequest{
		PartnerID:     "p1",
		ServiceID:     "antecipacao",
		BaseRatePct:   decimal.RequireFromString("2.5"),
		EffectiveDate: storetest.Now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	r, err := svc.ActiveFor(ctx, "p1", "antecipacao")
	require.NoError(t, err)
	assert.Equal(t, "2.5", r.BaseRatePct.String())

	_, err = svc.ActiveFor(ctx, "p2", "antecipacao")
	assert.ErrorIs(t, err, domain.ErrNoActiveRate)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	effective := storetest.Now
	before := effective.AddDate(0, 0, -1)

	_, err := svc.Create(ctx, domain.CreateRateRequest{PartnerID: "p1", ServiceID: "nope", EffectiveDate: effective})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, domain.CreateRateRequest{PartnerID: "p1", ServiceID: "exames", EffectiveDate: effective, ExpirationDate: &before})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, domain.CreateRateRequest{PartnerID: "p1", ServiceID: "exames", BaseRatePct: decimal.NewFromInt(-1), EffectiveDate: effective})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpsertRecordsEditorAndClearsExpiration(t *testing.T) {
	svc := newTestService(t)
	ctx := obscontext.WithActor(context.Background(), "nel3", "operador@nel3.com")

	r, err := svc.Upsert(ctx, domain.UpsertRateRequest{ID: "r4", ClearExpiration: true})
	require.NoError(t, err)
	assert.Nil(t, r.ExpirationDate)
	assert.Equal(t, "operador@nel3.com", r.UpdatedBy)
	assert.Equal(t, storetest.Now, r.UpdatedAt)

	views, err := svc.ListByPartner(ctx, "p4")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, domain.DerivedActive, views[0].Status)
}
