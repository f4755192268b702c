package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/invoice/domain"
	"github.com/smallbiznis/nel3/internal/invoice/render"
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
	return New(Params{Store: st, Emitter: em, Renderer: render.NewRenderer(), Log: zap.NewNop()}), em
}

func TestCreateAllocatesNumber(t *testing.T) {
	svc, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{
		AffiliateID: "a1",
		Amount:      decimal.RequireFromString("250.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "NF-20260310-000004", inv.Number)
	assert.Equal(t, domain.StatusPending, inv.Status)
	assert.Equal(t, storetest.Now, inv.IssueDate)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateInvoiceRequest{Amount: decimal.Zero})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, domain.CreateInvoiceRequest{AffiliateID: "ghost", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	first, err := svc.Create(ctx, domain.CreateInvoiceRequest{Number: "NF-X", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateInvoiceRequest{Number: first.Number, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpsertMerges(t *testing.T) {
	svc, _ := newTestService(t)
	amount := decimal.RequireFromString("1600.00")
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	before, err := svc.Get(context.Background(), "inv1")
	require.NoError(t, err)

	inv, err := svc.Upsert(context.Background(), domain.UpsertInvoiceRequest{ID: "inv1", Amount: &amount, IssueDate: &issued})
	require.NoError(t, err)
	assert.True(t, inv.Amount.Equal(amount))
	assert.Equal(t, issued, inv.IssueDate)
	assert.Equal(t, before.Number, inv.Number)
	assert.Equal(t, before.AffiliateID, inv.AffiliateID)
}

func TestApproveRejectAreTerminal(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	inv, err := svc.Approve(ctx, "inv1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, inv.Status)

	_, err = svc.Reject(ctx, "inv1")
	assert.ErrorIs(t, err, apperror.ErrTransition)
	_, err = svc.Approve(ctx, "inv2")
	assert.ErrorIs(t, err, apperror.ErrTransition)

	drafts := em.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, notificationdomain.TypeInvoice, drafts[0].Type)
	assert.Equal(t, "a1", drafts[0].AffiliateID)
	assert.Equal(t, "p1", drafts[0].PartnerID)
	assert.Contains(t, drafts[0].Message, "R$ 1.500,00")
}

func TestRejectEmitsHighPriority(t *testing.T) {
	svc, em := newTestService(t)

	_, err := svc.Reject(context.Background(), "inv1")
	require.NoError(t, err)
	require.Len(t, em.Drafts(), 1)
	assert.Equal(t, notificationdomain.PriorityHigh, em.Drafts()[0].Priority)
}

func TestRender(t *testing.T) {
	svc, _ := newTestService(t)

	html, err := svc.Render(context.Background(), "inv1")
	require.NoError(t, err)
	assert.Contains(t, html, "Dra. Ana Souza")

	_, err = svc.Render(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
