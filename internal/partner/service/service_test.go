package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/kyc"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/notification/notificationtest"
	"github.com/smallbiznis/nel3/internal/partner/domain"
	"github.com/smallbiznis/nel3/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, seed bool) (domain.Service, *notificationtest.MockEmitter) {
	t.Helper()
	st, _ := storetest.New(t, seed)
	em := notificationtest.NewMockEmitter()
	return New(Params{Store: st, Emitter: em, Log: zap.NewNop()}), em
}

func validCreate() domain.CreatePartnerRequest {
	return domain.CreatePartnerRequest{
		Name: "Hospital X",
		CNPJ: "11.222.333/0001-81",
		City: "SP",
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreateAssignsFreshIDAndDefaults(t *testing.T) {
	svc, em := newTestService(t, false)

	p, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.Equal(t, kyc.StatusPending, p.KYCStatus)
	assert.NotNil(t, p.Documents)
	assert.Empty(t, em.Drafts())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	cases := map[string]func(*domain.CreatePartnerRequest){
		"blank name": func(r *domain.CreatePartnerRequest) { r.Name = "  " },
		"blank city": func(r *domain.CreatePartnerRequest) { r.City = "" },
		"bad cnpj":   func(r *domain.CreatePartnerRequest) { r.CNPJ = "11.222.333/0001-82" },
		"bad status": func(r *domain.CreatePartnerRequest) { r.Status = "closed" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCreate()
			mutate(&req)
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestUpsertPreservesFieldsNotInPayload(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	before, err := svc.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, before.Documents)

	after, err := svc.Upsert(ctx, domain.UpsertPartnerRequest{ID: "p1", Status: ptr(domain.StatusInactive)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, after.Status)
	assert.Equal(t, before.Documents, after.Documents)
	assert.Equal(t, before.CNPJ, after.CNPJ)
	assert.Equal(t, before.Address, after.Address)
}

func TestUpsertUnknownIDCreates(t *testing.T) {
	svc, _ := newTestService(t, false)
	req := domain.UpsertPartnerRequest{
		ID:   "client-chosen",
		Name: ptr("Clínica Y"),
		CNPJ: ptr("60470198000107"),
		City: ptr("Recife"),
	}

	p, err := svc.Upsert(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "client-chosen", p.ID)
	assert.Equal(t, "Clínica Y", p.Name)
}

func TestUpsertKYCChangeFollowsMachine(t *testing.T) {
	svc, em := newTestService(t, true)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertPartnerRequest{ID: "p1", KYCStatus: ptr(kyc.StatusPending)})
	assert.ErrorIs(t, err, apperror.ErrTransition)

	p, err := svc.Upsert(ctx, domain.UpsertPartnerRequest{ID: "p2", KYCStatus: ptr(kyc.StatusUnderReview)})
	require.NoError(t, err)
	assert.Equal(t, kyc.StatusUnderReview, p.KYCStatus)
	require.Len(t, em.Drafts(), 1)
	assert.Equal(t, notificationdomain.PriorityLow, em.Drafts()[0].Priority)
}

func TestApproveKYC(t *testing.T) {
	svc, em := newTestService(t, true)
	ctx := context.Background()

	p, err := svc.ApproveKYC(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, kyc.StatusApproved, p.KYCStatus)

	// approving twice is a no-op
	_, err = svc.ApproveKYC(ctx, "p2")
	require.NoError(t, err)

	drafts := em.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, "p2", drafts[0].PartnerID)
	assert.Equal(t, notificationdomain.PriorityMedium, drafts[0].Priority)

	approved, err := svc.ListApproved(ctx)
	require.NoError(t, err)
	assert.Len(t, approved, 3)
}

func TestRejectKYCDeletes(t *testing.T) {
	svc, em := newTestService(t, true)
	ctx := context.Background()

	require.NoError(t, svc.RejectKYC(ctx, "p2"))

	_, err := svc.Get(ctx, "p2")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	all, err := svc.List(ctx)
	require.NoError(t, err)
	for _, p := range all {
		assert.NotEqual(t, "p2", p.ID)
	}

	drafts := em.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, notificationdomain.PriorityHigh, drafts[0].Priority)
}

func TestRejectApprovedPartnerIsRefused(t *testing.T) {
	svc, em := newTestService(t, true)
	ctx := context.Background()

	err := svc.RejectKYC(ctx, "p1")
	assert.ErrorIs(t, err, apperror.ErrTransition)

	_, err = svc.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, em.Drafts())
}

func TestTransitionUnknownPartner(t *testing.T) {
	svc, _ := newTestService(t, false)
	_, err := svc.ApproveKYC(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	removed, err := svc.Delete(ctx, "p3")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Delete(ctx, "p3")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestReadsAndWritesDoNotShareDocuments(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	req := validCreate()
	req.Documents = []domain.Document{{Name: "contrato.pdf"}}
	req.Contracts = ptr(4)
	p, err := svc.Create(ctx, req)
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	got.Documents[0].Name = "tampered"
	*got.Contracts = 0

	again, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "contrato.pdf", again.Documents[0].Name)
	assert.Equal(t, 4, *again.Contracts)

	docs := []domain.Document{{Name: "aditivo.pdf"}}
	_, err = svc.Upsert(ctx, domain.UpsertPartnerRequest{ID: p.ID, Documents: &docs})
	require.NoError(t, err)
	docs[0].Name = "caller-mutated"

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "aditivo.pdf", list[0].Documents[0].Name)
}
