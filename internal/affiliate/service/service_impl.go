package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/smallbiznis/nel3/internal/affiliate/domain"
	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/kyc"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
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
		log:     p.Log.Named("affiliate.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Affiliate, error) {
	return s.find(ctx, nil)
}

func (s *Service) ListByPartner(ctx context.Context, partnerID string) ([]domain.Affiliate, error) {
	return s.find(ctx, func(a domain.Affiliate) bool {
		return slices.Contains(a.AssociatedPartnerIDs, partnerID)
	})
}

func (s *Service) find(ctx context.Context, filter func(domain.Affiliate) bool) ([]domain.Affiliate, error) {
	var out []domain.Affiliate
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Affiliates().Find(filter)
		return nil
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (domain.Affiliate, error) {
	var out domain.Affiliate
	err := s.store.View(ctx, func(tx *store.Tx) error {
		a, ok := tx.Affiliates().FindOne(id)
		if !ok {
			return apperror.NotFound("affiliate", id)
		}
		out = a
		return nil
	})
	return out, err
}

func normalizeCreate(req domain.CreateAffiliateRequest) (domain.CreateAffiliateRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.TaxID = strings.TrimSpace(req.TaxID)
	req.CRM = strings.TrimSpace(req.CRM)
	req.Specialty = strings.TrimSpace(req.Specialty)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.City = strings.TrimSpace(req.City)
	req.Address = strings.TrimSpace(req.Address)
	req.AssociatedPartnerIDs = dedupe(req.AssociatedPartnerIDs)
	if req.Status == "" {
		req.Status = domain.StatusActive
	}
	if req.KYCStatus == "" {
		req.KYCStatus = kyc.StatusPending
	}
	if err := validation.Struct("affiliate", req); err != nil {
		return req, err
	}
	if req.KYCStatus == kyc.StatusRejected {
		return req, apperror.Invalid("affiliate", "kycStatus", "invalid", "an affiliate cannot be created rejected")
	}
	return req, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// checkPartners requires every associated partner to exist. required asks for at least one.
func checkPartners(tx *store.Tx, ids []string, required bool) error {
	if required && len(ids) == 0 {
		return apperror.Invalid("affiliate", "associatedPartnerIds", "required", "at least one partner is required")
	}
	v := apperror.NewValidation("affiliate")
	for _, id := range ids {
		if _, ok := tx.Partners().FindOne(id); !ok {
			v.Add("associatedPartnerIds", "unknown_partner", fmt.Sprintf("partner %q does not exist", id))
		}
	}
	return v.OrNil()
}

func (s *Service) Create(ctx context.Context, req domain.CreateAffiliateRequest) (domain.Affiliate, error) {
	return s.create(ctx, req, true)
}

func (s *Service) CreateSimplified(ctx context.Context, req domain.CreateAffiliateRequest) (domain.Affiliate, error) {
	return s.create(ctx, req, false)
}

func (s *Service) create(ctx context.Context, req domain.CreateAffiliateRequest, requirePartner bool) (domain.Affiliate, error) {
	req, err := normalizeCreate(req)
	if err != nil {
		return domain.Affiliate{}, err
	}

	var out domain.Affiliate
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		if err := checkPartners(tx, req.AssociatedPartnerIDs, requirePartner); err != nil {
			return err
		}
		out = createTx(tx, req)
		return nil
	})
	if err != nil {
		return domain.Affiliate{}, err
	}
	logger.WithContext(ctx, s.log).Info("affiliate created",
		zap.String("affiliate_id", out.ID),
		zap.Int("partners", len(out.AssociatedPartnerIDs)),
	)
	return out, nil
}

func createTx(tx *store.Tx, req domain.CreateAffiliateRequest) domain.Affiliate {
	a := domain.Affiliate{
		ID:                   tx.NewID(),
		Name:                 req.Name,
		TaxID:                req.TaxID,
		CRM:                  req.CRM,
		Specialty:            req.Specialty,
		Email:                req.Email,
		Phone:                req.Phone,
		City:                 req.City,
		Address:              req.Address,
		Status:               req.Status,
		KYCStatus:            req.KYCStatus,
		AssociatedPartnerIDs: req.AssociatedPartnerIDs,
		CreatedAt:            tx.Now(),
		UpdatedAt:            tx.Now(),
	}
	tx.Affiliates().Create(a)
	return a
}

// Upsert merges non-nil fields or creates through the simplified flow when
// the id is blank or unknown.
func (s *Service) Upsert(ctx context.Context, req domain.UpsertAffiliateRequest) (domain.Affiliate, error) {
	var (
		out     domain.Affiliate
		from    kyc.Status
		changed bool
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		current, ok := tx.Affiliates().FindOne(strings.TrimSpace(req.ID))
		if !ok {
			create, err := normalizeCreate(toCreate(merge(domain.Affiliate{}, req)))
			if err != nil {
				return err
			}
			if err := checkPartners(tx, create.AssociatedPartnerIDs, false); err != nil {
				return err
			}
			out = createTx(tx, create)
			return nil
		}

		merged := merge(current, req)
		if merged.KYCStatus != current.KYCStatus {
			if merged.KYCStatus == kyc.StatusRejected {
				return apperror.Invalid("affiliate", "kycStatus", "invalid", "rejection removes the affiliate; use the reject operation")
			}
			if err := kyc.Machine.Check(current.ID, current.KYCStatus, merged.KYCStatus); err != nil {
				s.metrics.RecordTransitionRefused(ctx, "affiliate", string(current.KYCStatus), string(merged.KYCStatus))
				return err
			}
			from, changed = current.KYCStatus, true
		}
		normalized, err := normalizeCreate(toCreate(merged))
		if err != nil {
			return err
		}
		if req.AssociatedPartnerIDs != nil {
			if err := checkPartners(tx, normalized.AssociatedPartnerIDs, false); err != nil {
				return err
			}
			merged.AssociatedPartnerIDs = normalized.AssociatedPartnerIDs
		}
		merged.UpdatedAt = tx.Now()
		tx.Affiliates().Save(merged)
		out = merged
		return nil
	})
	if err != nil {
		return domain.Affiliate{}, err
	}
	if changed {
		s.afterKYC(ctx, out, from, out.KYCStatus)
	}
	return out, nil
}

func merge(a domain.Affiliate, req domain.UpsertAffiliateRequest) domain.Affiliate {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.Name, req.Name)
	set(&a.TaxID, req.TaxID)
	set(&a.CRM, req.CRM)
	set(&a.Specialty, req.Specialty)
	set(&a.Email, req.Email)
	set(&a.Phone, req.Phone)
	set(&a.City, req.City)
	set(&a.Address, req.Address)
	if req.Status != nil {
		a.Status = *req.Status
	}
	if req.KYCStatus != nil {
		a.KYCStatus = *req.KYCStatus
	}
	if req.AssociatedPartnerIDs != nil {
		a.AssociatedPartnerIDs = *req.AssociatedPartnerIDs
	}
	return a
}

func toCreate(m domain.Affiliate) domain.CreateAffiliateRequest {
	return domain.CreateAffiliateRequest{
		Name:                 m.Name,
		TaxID:                m.TaxID,
		CRM:                  m.CRM,
		Specialty:            m.Specialty,
		Email:                m.Email,
		Phone:                m.Phone,
		City:                 m.City,
		Address:              m.Address,
		Status:               m.Status,
		KYCStatus:            m.KYCStatus,
		AssociatedPartnerIDs: m.AssociatedPartnerIDs,
	}
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Affiliates().Delete(id)
		return nil
	})
	return removed, err
}

func (s *Service) TransitionKYC(ctx context.Context, id string, to kyc.Status) (domain.Affiliate, error) {
	if !kyc.Machine.Valid(to) {
		return domain.Affiliate{}, apperror.Invalid("affiliate", "kycStatus", "invalid", fmt.Sprintf("unknown status %q", to))
	}
	if to == kyc.StatusRejected {
		return domain.Affiliate{}, s.RejectKYC(ctx, id)
	}

	var (
		out  domain.Affiliate
		from kyc.Status
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		a, ok := tx.Affiliates().FindOne(id)
		if !ok {
			return apperror.NotFound("affiliate", id)
		}
		if err := kyc.Machine.Check(id, a.KYCStatus, to); err != nil {
			s.metrics.RecordTransitionRefused(ctx, "affiliate", string(a.KYCStatus), string(to))
			return err
		}
		from = a.KYCStatus
		if !kyc.Machine.NoOp(from, to) {
			a.KYCStatus = to
			a.UpdatedAt = tx.Now()
			tx.Affiliates().Save(a)
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Affiliate{}, err
	}
	if !kyc.Machine.NoOp(from, to) {
		s.afterKYC(ctx, out, from, to)
	}
	return out, nil
}

func (s *Service) ApproveKYC(ctx context.Context, id string) (domain.Affiliate, error) {
	return s.TransitionKYC(ctx, id, kyc.StatusApproved)
}

// RejectKYC removes the affiliate.
func (s *Service) RejectKYC(ctx context.Context, id string) error {
	var a domain.Affiliate
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		current, ok := tx.Affiliates().FindOne(id)
		if !ok {
			return apperror.NotFound("affiliate", id)
		}
		if err := kyc.Machine.Check(id, current.KYCStatus, kyc.StatusRejected); err != nil {
			s.metrics.RecordTransitionRefused(ctx, "affiliate", string(current.KYCStatus), string(kyc.StatusRejected))
			return err
		}
		a = current
		tx.Affiliates().Delete(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.afterKYC(ctx, a, a.KYCStatus, kyc.StatusRejected)
	return nil
}

func (s *Service) afterKYC(ctx context.Context, a domain.Affiliate, from, to kyc.Status) {
	draft := notificationdomain.Draft{
		Type:        notificationdomain.TypeKYC,
		AffiliateID: a.ID,
		ActionURL:   "/affiliates/" + a.ID,
	}
	if len(a.AssociatedPartnerIDs) > 0 {
		draft.PartnerID = a.AssociatedPartnerIDs[0]
	}
	switch to {
	case kyc.StatusRejected:
		draft.Title = "KYC reprovado"
		draft.Message = fmt.Sprintf("O cadastro de %s foi reprovado e removido.", a.Name)
		draft.Priority = notificationdomain.PriorityHigh
		draft.ActionURL = "/affiliates"
	case kyc.StatusApproved:
		draft.Title = "KYC aprovado"
		draft.Message = fmt.Sprintf("%s foi aprovado.", a.Name)
		draft.Priority = notificationdomain.PriorityMedium
	default:
		draft.Title = "KYC em análise"
		draft.Message = fmt.Sprintf("O cadastro de %s está em análise.", a.Name)
		draft.Priority = notificationdomain.PriorityLow
	}

	s.metrics.RecordTransition(ctx, "affiliate", string(from), string(to))
	logger.WithContext(ctx, s.log).Info("affiliate kyc changed",
		zap.String("affiliate_id", a.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.emitter.Emit(ctx, draft)
}
