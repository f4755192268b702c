package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/nel3/internal/apperror"
	obscontext "github.com/smallbiznis/nel3/internal/observability/context"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/rate/domain"
	"github.com/smallbiznis/nel3/internal/store"
	"github.com/smallbiznis/nel3/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store *store.Store
	Log   *zap.Logger
}

type Service struct {
	store *store.Store
	log   *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		store: p.Store,
		log:   p.Log.Named("rate.service"),
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Rate, error) {
	var out []domain.Rate
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Rates().Find(nil)
		return nil
	})
	return out, err
}

func (s *Service) ListViews(ctx context.Context) ([]domain.View, error) {
	return s.views(ctx, nil)
}

func (s *Service) ListByPartner(ctx context.Context, partnerID string) ([]domain.View, error) {
	return s.views(ctx, func(r domain.Rate) bool { return r.PartnerID == partnerID })
}

func (s *Service) views(ctx context.Context, filter func(domain.Rate) bool) ([]domain.View, error) {
	var out []domain.View
	err := s.store.View(ctx, func(tx *store.Tx) error {
		rates := tx.Rates().Find(filter)
		out = make([]domain.View, 0, len(rates))
		for _, r := range rates {
			out = append(out, domain.View{Rate: r, Status: r.StatusAt(tx.Now())})
		}
		return nil
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (domain.Rate, error) {
	var out domain.Rate
	err := s.store.View(ctx, func(tx *store.Tx) error {
		r, ok := tx.Rates().FindOne(id)
		if !ok {
			return apperror.NotFound("rate", id)
		}
		out = r
		return nil
	})
	return out, err
}

func validate(tx *store.Tx, r domain.Rate, checkRefs bool) error {
	v := apperror.NewValidation("rate")
	if checkRefs {
		if _, ok := tx.Partners().FindOne(r.PartnerID); !ok {
			v.Add("partnerId", "unknown_partner", fmt.Sprintf("partner %q does not exist", r.PartnerID))
		}
		if _, ok := tx.Services().FindOne(r.ServiceID); !ok {
			v.Add("serviceId", "unknown_service", fmt.Sprintf("service %q does not exist", r.ServiceID))
		}
	}
	if r.BaseRatePct.IsNegative() {
		v.Add("baseRatePct", "invalid", "rate cannot be negative")
	}
	if r.FixedFee.IsNegative() {
		v.Add("fixedFee", "invalid", "fee cannot be negative")
	}
	if r.EffectiveDate.IsZero() {
		v.Add("effectiveDate", "required", "effective date is required")
	}
	if r.ExpirationDate != nil && !r.ExpirationDate.After(r.EffectiveDate) {
		v.Add("expirationDate", "invalid", "expiration must be after the effective date")
	}
	return v.OrNil()
}

// editor is the request's updatedBy, else the signed-in actor.
func editor(ctx context.Context, given string) string {
	if given = strings.TrimSpace(given); given != "" {
		return given
	}
	if _, id := obscontext.ActorFromContext(ctx); id != "" {
		return id
	}
	return "system"
}

func (s *Service) Create(ctx context.Context, req domain.CreateRateRequest) (domain.Rate, error) {
	var out domain.Rate
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		out, err = createTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return domain.Rate{}, err
	}
	logger.WithContext(ctx, s.log).Info("rate created",
		zap.String("rate_id", out.ID),
		zap.String("partner_id", out.PartnerID),
		zap.String("service_id", out.ServiceID),
	)
	return out, nil
}

func createTx(ctx context.Context, tx *store.Tx, req domain.CreateRateRequest) (domain.Rate, error) {
	req.PartnerID = strings.TrimSpace(req.PartnerID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if err := validation.Struct("rate", req); err != nil {
		return domain.Rate{}, err
	}
	r := domain.Rate{
		ID:             tx.NewID(),
		PartnerID:      req.PartnerID,
		ServiceID:      req.ServiceID,
		BaseRatePct:    req.BaseRatePct,
		FixedFee:       req.FixedFee,
		EffectiveDate:  req.EffectiveDate,
		ExpirationDate: req.ExpirationDate,
		IsActive:       true,
		UpdatedAt:      tx.Now(),
		UpdatedBy:      editor(ctx, req.UpdatedBy),
	}
	if req.IsActive != nil {
		r.IsActive = *req.IsActive
	}
	if err := validate(tx, r, true); err != nil {
		return domain.Rate{}, err
	}
	tx.Rates().Create(r)
	return r, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRateRequest) (domain.Rate, error) {
	var out domain.Rate
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		r, ok := tx.Rates().FindOne(strings.TrimSpace(req.ID))
		if !ok {
			create := domain.CreateRateRequest{
				ExpirationDate: req.ExpirationDate,
				IsActive:       req.IsActive,
				UpdatedBy:      req.UpdatedBy,
			}
			if req.PartnerID != nil {
				create.PartnerID = *req.PartnerID
			}
			if req.ServiceID != nil {
				create.ServiceID = *req.ServiceID
			}
			if req.BaseRatePct != nil {
				create.BaseRatePct = *req.BaseRatePct
			}
			if req.FixedFee != nil {
				create.FixedFee = *req.FixedFee
			}
			if req.EffectiveDate != nil {
				create.EffectiveDate = *req.EffectiveDate
			}
			var err error
			out, err = createTx(ctx, tx, create)
			return err
		}

		refsChanged := req.PartnerID != nil || req.ServiceID != nil
		if req.PartnerID != nil {
			r.PartnerID = strings.TrimSpace(*req.PartnerID)
		}
		if req.ServiceID != nil {
			r.ServiceID = strings.TrimSpace(*req.ServiceID)
		}
		if req.BaseRatePct != nil {
			r.BaseRatePct = *req.BaseRatePct
		}
		if req.FixedFee != nil {
			r.FixedFee = *req.FixedFee
		}
		if req.EffectiveDate != nil {
			r.EffectiveDate = *req.EffectiveDate
		}
		switch {
		case req.ClearExpiration:
			r.ExpirationDate = nil
		case req.ExpirationDate != nil:
			r.ExpirationDate = req.ExpirationDate
		}
		if req.IsActive != nil {
			r.IsActive = *req.IsActive
		}
		if err := validate(tx, r, refsChanged); err != nil {
			return err
		}
		r.UpdatedAt = tx.Now()
		r.UpdatedBy = editor(ctx, req.UpdatedBy)
		tx.Rates().Save(r)
		out = r
		return nil
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Rates().Delete(id)
		return nil
	})
	return removed, err
}

func (s *Service) ActiveFor(ctx context.Context, partnerID, serviceID string) (domain.Rate, error) {
	var (
		out   domain.Rate
		found bool
	)
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out, found = ActiveForTx(tx, partnerID, serviceID)
		return nil
	})
	if err != nil {
		return domain.Rate{}, err
	}
	if !found {
		return domain.Rate{}, domain.ErrNoActiveRate
	}
	return out, nil
}

// ActiveForTx resolves the active rate inside an existing transaction.
func ActiveForTx(tx *store.Tx, partnerID, serviceID string) (domain.Rate, bool) {
	return domain.PickActive(tx.Rates().Find(nil), partnerID, serviceID, tx.Now())
}
