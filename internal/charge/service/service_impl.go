package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/charge/domain"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	"github.com/smallbiznis/nel3/internal/store"
	"github.com/smallbiznis/nel3/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *store.Store
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store   *store.Store
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("charge.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Charge, error) {
	return s.find(ctx, nil)
}

func (s *Service) ListByPartner(ctx context.Context, partnerID string) ([]domain.Charge, error) {
	return s.find(ctx, func(c domain.Charge) bool { return c.PartnerID == partnerID })
}

func (s *Service) find(ctx context.Context, filter func(domain.Charge) bool) ([]domain.Charge, error) {
	var out []domain.Charge
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Charges().Find(filter)
		return nil
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (domain.Charge, error) {
	var out domain.Charge
	err := s.store.View(ctx, func(tx *store.Tx) error {
		c, ok := tx.Charges().FindOne(id)
		if !ok {
			return apperror.NotFound("charge", id)
		}
		out = c
		return nil
	})
	return out, err
}

// validate checks c. The partner is resolved only when checkPartner is set so
// that charges of a removed partner stay editable.
func validate(tx *store.Tx, c domain.Charge, checkPartner bool) error {
	v := apperror.NewValidation("charge")
	if strings.TrimSpace(c.PartnerID) == "" {
		v.Add("partnerId", "required", "partner is required")
	} else if _, ok := tx.Partners().FindOne(c.PartnerID); checkPartner && !ok {
		v.Add("partnerId", "unknown_partner", fmt.Sprintf("partner %q does not exist", c.PartnerID))
	}
	if c.ServiceID != "" {
		if _, ok := tx.Services().FindOne(c.ServiceID); !ok {
			v.Add("serviceId", "unknown_service", fmt.Sprintf("service %q does not exist", c.ServiceID))
		}
	}
	if !c.Amount.IsPositive() {
		v.Add("amount", "invalid", "amount must be positive")
	}
	return v.OrNil()
}

func (s *Service) Create(ctx context.Context, req domain.CreateChargeRequest) (domain.Charge, error) {
	var out domain.Charge
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		out, err = createTx(tx, req)
		return err
	})
	return out, err
}

func createTx(tx *store.Tx, req domain.CreateChargeRequest) (domain.Charge, error) {
	req.PartnerID = strings.TrimSpace(req.PartnerID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.ReferenceID = strings.TrimSpace(req.ReferenceID)
	if err := validation.Struct("charge", req); err != nil {
		return domain.Charge{}, err
	}
	c := domain.Charge{
		ID:          tx.NewID(),
		PartnerID:   req.PartnerID,
		ServiceID:   req.ServiceID,
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
		Status:      domain.StatusPending,
		CreatedAt:   tx.Now(),
		UpdatedAt:   tx.Now(),
	}
	if err := validate(tx, c, true); err != nil {
		return domain.Charge{}, err
	}
	tx.Charges().Create(c)
	return c, nil
}

// Upsert never changes the status; use Transition for that.
func (s *Service) Upsert(ctx context.Context, req domain.UpsertChargeRequest) (domain.Charge, error) {
	var out domain.Charge
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		c, ok := tx.Charges().FindOne(strings.TrimSpace(req.ID))
		if !ok {
			create := domain.CreateChargeRequest{}
			if req.PartnerID != nil {
				create.PartnerID = *req.PartnerID
			}
			if req.ServiceID != nil {
				create.ServiceID = *req.ServiceID
			}
			if req.Amount != nil {
				create.Amount = *req.Amount
			}
			if req.ReferenceID != nil {
				create.ReferenceID = *req.ReferenceID
			}
			var err error
			out, err = createTx(tx, create)
			return err
		}

		if req.PartnerID != nil {
			c.PartnerID = strings.TrimSpace(*req.PartnerID)
		}
		if req.ServiceID != nil {
			c.ServiceID = strings.TrimSpace(*req.ServiceID)
		}
		if req.Amount != nil {
			c.Amount = *req.Amount
		}
		if req.ReferenceID != nil {
			c.ReferenceID = strings.TrimSpace(*req.ReferenceID)
		}
		if err := validate(tx, c, req.PartnerID != nil); err != nil {
			return err
		}
		c.UpdatedAt = tx.Now()
		tx.Charges().Save(c)
		out = c
		return nil
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Charges().Delete(id)
		return nil
	})
	return removed, err
}

func (s *Service) Transition(ctx context.Context, id string, to domain.Status) (domain.Charge, error) {
	if !domain.Machine.Valid(to) {
		return domain.Charge{}, apperror.Invalid("charge", "status", "invalid", fmt.Sprintf("unknown status %q", to))
	}
	var (
		out  domain.Charge
		from domain.Status
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		c, ok := tx.Charges().FindOne(id)
		if !ok {
			return apperror.NotFound("charge", id)
		}
		if err := domain.Machine.Check(id, c.Status, to); err != nil {
			s.metrics.RecordTransitionRefused(ctx, "charge", string(c.Status), string(to))
			return err
		}
		from = c.Status
		c.Status = to
		c.UpdatedAt = tx.Now()
		tx.Charges().Save(c)
		out = c
		return nil
	})
	if err != nil {
		return domain.Charge{}, err
	}
	s.metrics.RecordTransition(ctx, "charge", string(from), string(to))
	logger.WithContext(ctx, s.log).Info("charge status changed",
		zap.String("charge_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return out, nil
}

func (s *Service) MarkPaid(ctx context.Context, id string) (domain.Charge, error) {
	return s.Transition(ctx, id, domain.StatusPaid)
}

func (s *Service) Contest(ctx context.Context, id string) (domain.Charge, error) {
	return s.Transition(ctx, id, domain.StatusContested)
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Charge, error) {
	return s.Transition(ctx, id, domain.StatusCanceled)
}
