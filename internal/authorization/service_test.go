package authorization

import (
	"context"
	"testing"

	sessiondomain "github.com/smallbiznis/nel3/internal/session/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewEnforcer()
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

var (
	operator = sessiondomain.User{ID: "u1", Role: sessiondomain.RoleOperator}
	hospital = sessiondomain.User{ID: "u2", Role: sessiondomain.RoleHospital, PartnerID: "p1"}
)

func TestOperatorMayDoEverything(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, operator, ObjectPartner, ActionKYCTransition))
	assert.NoError(t, svc.Authorize(ctx, operator, ObjectAdvance, ActionAdvanceApprove))
	assert.NoError(t, svc.Authorize(ctx, operator, ObjectStore, ActionStoreReset))
}

func TestHospitalIsLimited(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, hospital, ObjectAdvance, ActionCreate))
	assert.NoError(t, svc.Authorize(ctx, hospital, ObjectAgenda, ActionUpdate))
	assert.ErrorIs(t, svc.Authorize(ctx, hospital, ObjectAdvance, ActionAdvanceApprove), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, hospital, ObjectPartner, ActionKYCTransition), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, hospital, ObjectReconciliation, ActionView), ErrForbidden)
}

func TestRoleChangeReplacesLink(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, operator, ObjectRate, ActionDelete))
	demoted := sessiondomain.User{ID: operator.ID, Role: sessiondomain.RoleHospital}
	assert.ErrorIs(t, svc.Authorize(ctx, demoted, ObjectRate, ActionDelete), ErrForbidden)
}

func TestInvalidInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, sessiondomain.User{}, ObjectRate, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, operator, " ", ActionView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, operator, ObjectRate, ""), ErrInvalidAction)
}
