package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/nel3/internal/affiliate/domain"
	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/kyc"
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

func ptr[T any](v T) *T { return &v }

func newRequest(partners ...string) domain.CreateAffiliateRequest {
	return domain.CreateAffiliateRequest{
		Name:                 "Dr. João Pereira",
		TaxID:                "529.982.247-25",
		Email:                "joao@example.com",
		City:                 "Campinas",
		AssociatedPartnerIDs: partners,
	}
}

func TestCreateRequiresExistingPartner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, newRequest())
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, newRequest("p1", "ghost"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	a, err := svc.Create(ctx, newRequest("p1", "p1", "p2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, a.AssociatedPartnerIDs)
	assert.Equal(t, kyc.StatusPending, a.KYCStatus)
}

func TestCreateSimplifiedAllowsNoPartner(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.CreateSimplified(context.Background(), newRequest())
	require.NoError(t, err)
	assert.Empty(t, a.AssociatedPartnerIDs)
}

func TestCreateValidatesDocumentAndEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := newRequest("p1")
	req.TaxID = "123.456.789-00"
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	req = newRequest("p1")
	req.Email = "not-an-email"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// a CNPJ is accepted too
	req = newRequest("p1")
	req.TaxID = "33.592.451/0001-14"
	_, err = svc.Create(ctx, req)
	require.NoError(t, err)
}

func TestListByPartner(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.ListByPartner(context.Background(), "p1")
	require.NoError(t, err)
	ids := []string{}
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"a1", "a2"}, ids)
}

func TestUpsertMergesAndChecksPartners(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Upsert(ctx, domain.UpsertAffiliateRequest{ID: "a1", Phone: ptr("(11) 90000-0000")})
	require.NoError(t, err)
	assert.Equal(t, "(11) 90000-0000", a.Phone)
	assert.Equal(t, "CRM-SP 123456", a.CRM)
	assert.Equal(t, []string{"p1"}, a.AssociatedPartnerIDs)

	_, err = svc.Upsert(ctx, domain.UpsertAffiliateRequest{ID: "a1", AssociatedPartnerIDs: ptr([]string{"ghost"})})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestApproveAndRejectKYC(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	a, err := svc.ApproveKYC(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, kyc.StatusApproved, a.KYCStatus)

	require.NoError(t, svc.RejectKYC(ctx, "a3"))
	_, err = svc.Get(ctx, "a3")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// approved affiliates cannot be rejected
	assert.ErrorIs(t, svc.RejectKYC(ctx, "a1"), apperror.ErrTransition)

	drafts := em.Drafts()
	require.Len(t, drafts, 2)
	assert.Equal(t, notificationdomain.PriorityMedium, drafts[0].Priority)
	assert.Equal(t, "a2", drafts[0].AffiliateID)
	assert.Equal(t, notificationdomain.PriorityHigh, drafts[1].Priority)
	assert.Equal(t, "p3", drafts[1].PartnerID)
}

func TestTransitionKYCRejectedDeletes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.TransitionKYC(ctx, "a2", kyc.StatusRejected)
	require.NoError(t, err)
	_, err = svc.Get(ctx, "a2")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.TransitionKYC(ctx, "a1", "bogus")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
