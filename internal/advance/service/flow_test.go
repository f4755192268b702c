package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/nel3/internal/advance/domain"
	"github.com/smallbiznis/nel3/internal/config"
	"github.com/smallbiznis/nel3/internal/kyc"
	limitdomain "github.com/smallbiznis/nel3/internal/limit/domain"
	limitservice "github.com/smallbiznis/nel3/internal/limit/service"
	notificationservice "github.com/smallbiznis/nel3/internal/notification/service"
	partnerdomain "github.com/smallbiznis/nel3/internal/partner/domain"
	partnerservice "github.com/smallbiznis/nel3/internal/partner/service"
	"github.com/smallbiznis/nel3/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewPartnerAdvanceLifecycleNotifiesInOrder(t *testing.T) {
	st, _ := storetest.New(t, false)
	ctx := context.Background()
	holder := config.NewStaticLimits(config.DefaultLimits())
	notifications := notificationservice.New(notificationservice.Params{Store: st, Log: zap.NewNop()})
	ledger := limitservice.New(limitservice.Params{Store: st, Limits: holder, Log: zap.NewNop()})
	partners := partnerservice.New(partnerservice.Params{Store: st, Emitter: notifications, Log: zap.NewNop()})
	advances := New(Params{Store: st, Ledger: ledger, Limits: holder, Emitter: notifications, Log: zap.NewNop()})

	p, err := partners.Create(ctx, partnerdomain.CreatePartnerRequest{
		Name: "Hospital X",
		CNPJ: "11.222.333/0001-81",
		City: "São Paulo",
	})
	require.NoError(t, err)
	assert.Equal(t, kyc.StatusPending, p.KYCStatus)

	_, err = partners.ApproveKYC(ctx, p.ID)
	require.NoError(t, err)

	a, err := advances.Create(ctx, domain.CreateAdvanceRequest{PartnerID: p.ID, Amount: d("1000")})
	require.NoError(t, err)
	rate := d("2.9")
	a, err = advances.Approve(ctx, domain.ApproveAdvanceRequest{ID: a.ID, RatePct: &rate})
	require.NoError(t, err)
	a, err = advances.Settle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSettled, a.Status)
	assert.Equal(t, "2.9", a.AppliedRatePct.String())

	list, err := notifications.ListForPartner(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Antecipação liquidada", list[0].Title)
	assert.Equal(t, "Antecipação aprovada", list[1].Title)
	assert.Equal(t, "KYC aprovado", list[2].Title)
	for _, n := range list {
		assert.Equal(t, p.ID, n.PartnerID)
		assert.False(t, n.Read)
	}

	usage, err := ledger.Usage(ctx, p.ID, limitdomain.PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, "1000", usage.Consumed.String())
}
