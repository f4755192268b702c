package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/advance/domain"
	"github.com/smallbiznis/nel3/internal/apperror"
	catalogdomain "github.com/smallbiznis/nel3/internal/catalog/domain"
	"github.com/smallbiznis/nel3/internal/config"
	"github.com/smallbiznis/nel3/internal/format"
	"github.com/smallbiznis/nel3/internal/kyc"
	limitdomain "github.com/smallbiznis/nel3/internal/limit/domain"
	limitservice "github.com/smallbiznis/nel3/internal/limit/service"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	rateservice "github.com/smallbiznis/nel3/internal/rate/service"
	"github.com/smallbiznis/nel3/internal/store"
	"github.com/smallbiznis/nel3/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *store.Store
	Ledger  *limitservice.Service
	Limits  *config.LimitsHolder
	Emitter notificationdomain.Emitter
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store   *store.Store
	ledger  *limitservice.Service
	limits  *config.LimitsHolder
	emitter notificationdomain.Emitter
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		ledger:  p.Ledger,
		limits:  p.Limits,
		emitter: p.Emitter,
		log:     p.Log.Named("advance.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Advance, error) {
	return s.find(ctx, nil)
}

func (s *Service) ListByPartner(ctx context.Context, partnerID string) ([]domain.Advance, error) {
	return s.find(ctx, func(a domain.Advance) bool { return a.PartnerID == partnerID })
}

func (s *Service) find(ctx context.Context, filter func(domain.Advance) bool) ([]domain.Advance, error) {
	var out []domain.Advance
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Advances().Find(filter)
		return nil
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (domain.Advance, error) {
	var out domain.Advance
	err := s.store.View(ctx, func(tx *store.Tx) error {
		a, ok := tx.Advances().FindOne(id)
		if !ok {
			return apperror.NotFound("advance", id)
		}
		out = a
		return nil
	})
	return out, err
}

// checkPartner requires an existing partner whose KYC is approved.
func checkPartner(tx *store.Tx, partnerID string) error {
	p, ok := tx.Partners().FindOne(partnerID)
	if !ok {
		return apperror.Invalid("advance", "partnerId", "unknown_partner", fmt.Sprintf("partner %q does not exist", partnerID))
	}
	if p.KYCStatus != kyc.StatusApproved {
		return apperror.Invalid("advance", "partnerId", "kyc_not_approved", "partner KYC is not approved")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateAdvanceRequest) (domain.Advance, error) {
	var out domain.Advance
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		out, err = createTx(tx, req)
		return err
	})
	if err != nil {
		return domain.Advance{}, err
	}
	logger.WithContext(ctx, s.log).Info("advance requested",
		zap.String("advance_id", out.ID),
		zap.String("partner_id", out.PartnerID),
		zap.String("amount", out.Amount.StringFixed(2)),
	)
	return out, nil
}

func createTx(tx *store.Tx, req domain.CreateAdvanceRequest) (domain.Advance, error) {
	req.PartnerID = strings.TrimSpace(req.PartnerID)
	if err := validation.Struct("advance", req); err != nil {
		return domain.Advance{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.Advance{}, apperror.Invalid("advance", "amount", "invalid", "amount must be positive")
	}
	if err := checkPartner(tx, req.PartnerID); err != nil {
		return domain.Advance{}, err
	}
	a := domain.Advance{
		ID:          tx.NewID(),
		PartnerID:   req.PartnerID,
		Amount:      req.Amount,
		Status:      domain.StatusRequested,
		RequestedAt: tx.Now(),
		UpdatedAt:   tx.Now(),
	}
	tx.Advances().Create(a)
	return a, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertAdvanceRequest) (domain.Advance, error) {
	var out domain.Advance
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		a, ok := tx.Advances().FindOne(strings.TrimSpace(req.ID))
		if !ok {
			create := domain.CreateAdvanceRequest{}
			if req.PartnerID != nil {
				create.PartnerID = *req.PartnerID
			}
			if req.Amount != nil {
				create.Amount = *req.Amount
			}
			var err error
			out, err = createTx(tx, create)
			return err
		}
		if a.Status != domain.StatusRequested {
			return apperror.Invalid("advance", "status", "read_only", "only requested advances can be edited")
		}
		if req.PartnerID != nil {
			a.PartnerID = strings.TrimSpace(*req.PartnerID)
			if err := checkPartner(tx, a.PartnerID); err != nil {
				return err
			}
		}
		if req.Amount != nil {
			if !req.Amount.IsPositive() {
				return apperror.Invalid("advance", "amount", "invalid", "amount must be positive")
			}
			a.Amount = *req.Amount
		}
		a.UpdatedAt = tx.Now()
		tx.Advances().Save(a)
		out = a
		return nil
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Advances().Delete(id)
		return nil
	})
	return removed, err
}

// resolveRate picks the explicit rate, else the partner's active advance
// rate, else the configured default.
func (s *Service) resolveRate(tx *store.Tx, partnerID string, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil {
		if explicit.IsNegative() {
			return decimal.Zero, apperror.Invalid("advance", "ratePct", "invalid", "rate cannot be negative")
		}
		return *explicit, nil
	}
	if r, ok := rateservice.ActiveForTx(tx, partnerID, catalogdomain.AdvanceServiceID); ok {
		return r.BaseRatePct, nil
	}
	return s.limits.Get().DefaultRate, nil
}

// Approve moves requested -> approved. The status change and the limit
// reservation commit together; a refused reservation leaves both untouched.
func (s *Service) Approve(ctx context.Context, req domain.ApproveAdvanceRequest) (domain.Advance, error) {
	var (
		out     domain.Advance
		res     limitdomain.Reservation
		partner string
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		a, ok := tx.Advances().FindOne(req.ID)
		if !ok {
			return apperror.NotFound("advance", req.ID)
		}
		if err := domain.Machine.Check(a.ID, a.Status, domain.StatusApproved); err != nil {
			s.metrics.RecordTransitionRefused(ctx, "advance", string(a.Status), string(domain.StatusApproved))
			return err
		}
		rate, err := s.resolveRate(tx, a.PartnerID, req.RatePct)
		if err != nil {
			return err
		}
		res, err = s.ledger.TryReserveTx(ctx, tx, a.PartnerID, a.Amount, limitdomain.PeriodDaily)
		if err != nil {
			return err
		}

		now := tx.Now()
		a.Status = domain.StatusApproved
		a.AppliedRatePct = &rate
		a.ApprovedAt = &now
		a.UpdatedAt = now
		tx.Advances().Save(a)
		out = a
		partner = store.PartnerName(tx, a.PartnerID)
		return nil
	})
	if err != nil {
		return domain.Advance{}, err
	}

	s.metrics.RecordTransition(ctx, "advance", string(domain.StatusRequested), string(domain.StatusApproved))
	logger.WithContext(ctx, s.log).Info("advance approved",
		zap.String("advance_id", out.ID),
		zap.String("partner_id", out.PartnerID),
		zap.String("rate_pct", out.AppliedRatePct.String()),
		zap.String("bucket", res.Bucket),
		zap.String("remaining", res.Remaining.StringFixed(2)),
	)
	s.emitter.Emit(ctx, notificationdomain.Draft{
		Type:  notificationdomain.TypeAdvance,
		Title: "Antecipação aprovada",
		Message: fmt.Sprintf("Antecipação de %s para %s aprovada com taxa de %s.",
			format.BRL(out.Amount), partner, format.Percent(*out.AppliedRatePct)),
		Priority:  notificationdomain.PriorityMedium,
		PartnerID: out.PartnerID,
		ActionURL: "/advances/" + out.ID,
	})
	return out, nil
}

func (s *Service) Reject(ctx context.Context, id string) (domain.Advance, error) {
	out, partner, err := s.transition(ctx, id, domain.StatusRejected, func(a *domain.Advance, tx *store.Tx) {
		now := tx.Now()
		a.RejectedAt = &now
	})
	if err != nil {
		return domain.Advance{}, err
	}
	s.emitter.Emit(ctx, notificationdomain.Draft{
		Type:      notificationdomain.TypeAdvance,
		Title:     "Antecipação rejeitada",
		Message:   fmt.Sprintf("A antecipação de %s para %s foi rejeitada.", format.BRL(out.Amount), partner),
		Priority:  notificationdomain.PriorityHigh,
		PartnerID: out.PartnerID,
		ActionURL: "/advances/" + out.ID,
	})
	return out, nil
}

// Settle moves approved -> settled. The applied rate is carried unchanged.
func (s *Service) Settle(ctx context.Context, id string) (domain.Advance, error) {
	out, partner, err := s.transition(ctx, id, domain.StatusSettled, func(a *domain.Advance, tx *store.Tx) {
		now := tx.Now()
		a.SettledAt = &now
	})
	if err != nil {
		return domain.Advance{}, err
	}
	s.emitter.Emit(ctx, notificationdomain.Draft{
		Type:      notificationdomain.TypeAdvance,
		Title:     "Antecipação liquidada",
		Message:   fmt.Sprintf("A antecipação de %s para %s foi liquidada.", format.BRL(out.Amount), partner),
		Priority:  notificationdomain.PriorityLow,
		PartnerID: out.PartnerID,
		ActionURL: "/advances/" + out.ID,
	})
	return out, nil
}

func (s *Service) transition(ctx context.Context, id string, to domain.Status, stamp func(*domain.Advance, *store.Tx)) (domain.Advance, string, error) {
	var (
		out     domain.Advance
		from    domain.Status
		partner string
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		a, ok := tx.Advances().FindOne(id)
		if !ok {
			return apperror.NotFound("advance", id)
		}
		if err := domain.Machine.Check(id, a.Status, to); err != nil {
			s.metrics.RecordTransitionRefused(ctx, "advance", string(a.Status), string(to))
			return err
		}
		from = a.Status
		a.Status = to
		a.UpdatedAt = tx.Now()
		stamp(&a, tx)
		tx.Advances().Save(a)
		out = a
		partner = store.PartnerName(tx, a.PartnerID)
		return nil
	})
	if err != nil {
		return domain.Advance{}, "", err
	}
	s.metrics.RecordTransition(ctx, "advance", string(from), string(to))
	logger.WithContext(ctx, s.log).Info("advance status changed",
		zap.String("advance_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return out, partner, nil
}
