package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	sessiondomain "github.com/smallbiznis/nel3/internal/session/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed model.conf
var modelText string

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

const (
	ObjectPartner        = "partner"
	ObjectAffiliate      = "affiliate"
	ObjectInvoice        = "invoice"
	ObjectCharge         = "charge"
	ObjectRate           = "rate"
	ObjectSettlement     = "settlement"
	ObjectAdvance        = "advance"
	ObjectReconciliation = "reconciliation"
	ObjectAgenda         = "agenda"
	ObjectNotification   = "notification"
	ObjectCatalog        = "catalog"
	ObjectLimit          = "limit"
	ObjectOverview       = "overview"
	ObjectStore          = "store"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ActionKYCTransition   = "kyc.transition"
	ActionAdvanceApprove  = "advance.approve"
	ActionAdvanceReject   = "advance.reject"
	ActionAdvanceSettle   = "advance.settle"
	ActionInvoiceDecide   = "invoice.decide"
	ActionChargeTransit   = "charge.transition"
	ActionSettlementExec  = "settlement.execute"
	ActionReconcileImport = "reconciliation.import"
	ActionReconcileMatch  = "reconciliation.match"
	ActionLimitUse        = "limit.use"
	ActionStoreReset      = "store.reset"
)

type Service interface {
	Authorize(ctx context.Context, user sessiondomain.User, object, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an in-memory enforcer holding the fixed role policies.
func NewEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, user sessiondomain.User, object string, action string) error {
	userID := strings.TrimSpace(user.ID)
	role := strings.TrimSpace(string(user.Role))
	if userID == "" || role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := "user:" + userID
	if err := s.ensureGrouping(subject, "role:"+role); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		logger.WithContext(ctx, s.log).Warn("authorization denied",
			zap.String("subject", subject),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps exactly one role link for subject.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(rule[0], rule[1]); err != nil {
			return fmt.Errorf("remove role link: %w", err)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	operator := "role:" + string(sessiondomain.RoleOperator)
	hospital := "role:" + string(sessiondomain.RoleHospital)

	policies := [][]string{
		// Operator runs the whole back office.
		{operator, "*", "*"},

		// Hospital users see their own records and request advances.
		{hospital, ObjectPartner, ActionView},
		{hospital, ObjectCatalog, ActionView},
		{hospital, ObjectRate, ActionView},
		{hospital, ObjectAgenda, ActionView},
		{hospital, ObjectAgenda, ActionUpdate},
		{hospital, ObjectAdvance, ActionView},
		{hospital, ObjectAdvance, ActionCreate},
		{hospital, ObjectSettlement, ActionView},
		{hospital, ObjectCharge, ActionView},
		{hospital, ObjectLimit, ActionView},
		{hospital, ObjectNotification, ActionView},
		{hospital, ObjectNotification, ActionUpdate},
		{hospital, ObjectOverview, ActionView},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
