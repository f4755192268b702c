package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/format"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	"github.com/smallbiznis/nel3/internal/settlement/domain"
	"github.com/smallbiznis/nel3/internal/store"
	"github.com/smallbiznis/nel3/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *store.Store
	Emitter notificationdomain.Emitter
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store   *store.Store
	emitter notificationdomain.Emitter
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		emitter: p.Emitter,
		log:     p.Log.Named("settlement.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Settlement, error) {
	return s.find(ctx, nil)
}

func (s *Service) ListByPartner(ctx context.Context, partnerID string) ([]domain.Settlement, error) {
	return s.find(ctx, func(st domain.Settlement) bool { return st.PartnerID == partnerID })
}

func (s *Service) find(ctx context.Context, filter func(domain.Settlement) bool) ([]domain.Settlement, error) {
	var out []domain.Settlement
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Settlements().Find(filter)
		return nil
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (domain.Settlement, error) {
	var out domain.Settlement
	err := s.store.View(ctx, func(tx *store.Tx) error {
		st, ok := tx.Settlements().FindOne(id)
		if !ok {
			return apperror.NotFound("settlement", id)
		}
		out = st
		return nil
	})
	return out, err
}

func (s *Service) Create(ctx context.Context, req domain.CreateSettlementRequest) (domain.Settlement, error) {
	var out domain.Settlement
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		out, err = createTx(tx, req)
		return err
	})
	return out, err
}

func createTx(tx *store.Tx, req domain.CreateSettlementRequest) (domain.Settlement, error) {
	req.PartnerID = strings.TrimSpace(req.PartnerID)
	if err := validation.Struct("settlement", req); err != nil {
		return domain.Settlement{}, err
	}
	v := apperror.NewValidation("settlement")
	if _, ok := tx.Partners().FindOne(req.PartnerID); !ok {
		v.Add("partnerId", "unknown_partner", fmt.Sprintf("partner %q does not exist", req.PartnerID))
	}
	if !req.Amount.IsPositive() {
		v.Add("amount", "invalid", "amount must be positive")
	}
	if err := v.OrNil(); err != nil {
		return domain.Settlement{}, err
	}

	st := domain.Settlement{
		ID:        tx.NewID(),
		PartnerID: req.PartnerID,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
		Status:    domain.StatusScheduled,
		CreatedAt: tx.Now(),
		UpdatedAt: tx.Now(),
	}
	tx.Settlements().Create(st)
	return st, nil
}

// Upsert edits a scheduled settlement. Executed settlements are read-only.
func (s *Service) Upsert(ctx context.Context, req domain.UpsertSettlementRequest) (domain.Settlement, error) {
	var out domain.Settlement
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		st, ok := tx.Settlements().FindOne(strings.TrimSpace(req.ID))
		if !ok {
			create := domain.CreateSettlementRequest{}
			if req.PartnerID != nil {
				create.PartnerID = *req.PartnerID
			}
			if req.Amount != nil {
				create.Amount = *req.Amount
			}
			if req.DueDate != nil {
				create.DueDate = *req.DueDate
			}
			var err error
			out, err = createTx(tx, create)
			return err
		}
		if st.Status != domain.StatusScheduled {
			return apperror.Invalid("settlement", "status", "read_only", "executed settlements cannot be edited")
		}

		v := apperror.NewValidation("settlement")
		if req.PartnerID != nil {
			st.PartnerID = strings.TrimSpace(*req.PartnerID)
			if _, ok := tx.Partners().FindOne(st.PartnerID); !ok {
				v.Add("partnerId", "unknown_partner", fmt.Sprintf("partner %q does not exist", st.PartnerID))
			}
		}
		if req.Amount != nil {
			st.Amount = *req.Amount
			if !st.Amount.IsPositive() {
				v.Add("amount", "invalid", "amount must be positive")
			}
		}
		if req.DueDate != nil {
			if req.DueDate.IsZero() {
				v.Add("dueDate", "required", "due date is required")
			}
			st.DueDate = *req.DueDate
		}
		if err := v.OrNil(); err != nil {
			return err
		}
		st.UpdatedAt = tx.Now()
		tx.Settlements().Save(st)
		out = st
		return nil
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Settlements().Delete(id)
		return nil
	})
	return removed, err
}

func (s *Service) Execute(ctx context.Context, id string) (domain.Settlement, error) {
	var (
		out     domain.Settlement
		partner string
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		st, ok := tx.Settlements().FindOne(id)
		if !ok {
			return apperror.NotFound("settlement", id)
		}
		if err := domain.Machine.Check(id, st.Status, domain.StatusExecuted); err != nil {
			s.metrics.RecordTransitionRefused(ctx, "settlement", string(st.Status), string(domain.StatusExecuted))
			return err
		}
		now := tx.Now()
		st.Status = domain.StatusExecuted
		st.ExecutedAt = &now
		st.UpdatedAt = now
		tx.Settlements().Save(st)
		out = st
		partner = store.PartnerName(tx, st.PartnerID)
		return nil
	})
	if err != nil {
		return domain.Settlement{}, err
	}

	s.metrics.RecordTransition(ctx, "settlement", string(domain.StatusScheduled), string(domain.StatusExecuted))
	logger.WithContext(ctx, s.log).Info("settlement executed",
		zap.String("settlement_id", out.ID),
		zap.String("partner_id", out.PartnerID),
		zap.String("amount", out.Amount.StringFixed(2)),
	)
	s.emitter.Emit(ctx, notificationdomain.Draft{
		Type:      notificationdomain.TypeSettlement,
		Title:     "Repasse executado",
		Message:   fmt.Sprintf("Repasse de %s para %s executado.", format.BRL(out.Amount), partner),
		Priority:  notificationdomain.PriorityLow,
		PartnerID: out.PartnerID,
		ActionURL: "/settlements/" + out.ID,
	})
	return out, nil
}
