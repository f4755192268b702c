package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/kyc"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	"github.com/smallbiznis/nel3/internal/partner/domain"
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
		log:     p.Log.Named("partner.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Partner, error) {
	var out []domain.Partner
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Partners().Find(nil)
		return nil
	})
	return out, err
}

func (s *Service) ListApproved(ctx context.Context) ([]domain.Partner, error) {
	var out []domain.Partner
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Partners().Find(func(p domain.Partner) bool { return p.KYCStatus == kyc.StatusApproved })
		return nil
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (domain.Partner, error) {
	var out domain.Partner
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, ok := tx.Partners().FindOne(id)
		if !ok {
			return apperror.NotFound("partner", id)
		}
		out = p
		return nil
	})
	return out, err
}

func normalizeCreate(req domain.CreatePartnerRequest) (domain.CreatePartnerRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.CNPJ = strings.TrimSpace(req.CNPJ)
	req.City = strings.TrimSpace(req.City)
	req.Address = strings.TrimSpace(req.Address)
	if req.Status == "" {
		req.Status = domain.StatusActive
	}
	if req.KYCStatus == "" {
		req.KYCStatus = kyc.StatusPending
	}
	if err := validation.Struct("partner", req); err != nil {
		return req, err
	}
	if req.KYCStatus == kyc.StatusRejected {
		return req, apperror.Invalid("partner", "kycStatus", "invalid", "a partner cannot be created rejected")
	}
	return req, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreatePartnerRequest) (domain.Partner, error) {
	req, err := normalizeCreate(req)
	if err != nil {
		return domain.Partner{}, err
	}

	var out domain.Partner
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		out = createTx(tx, req)
		return nil
	})
	if err != nil {
		return domain.Partner{}, err
	}
	logger.WithContext(ctx, s.log).Info("partner created", zap.String("partner_id", out.ID))
	return out, nil
}

func createTx(tx *store.Tx, req domain.CreatePartnerRequest) domain.Partner {
	docs := req.Documents
	if docs == nil {
		docs = []domain.Document{}
	}
	p := domain.Partner{
		ID:              tx.NewID(),
		Name:            req.Name,
		CNPJ:            req.CNPJ,
		City:            req.City,
		Address:         req.Address,
		Status:          req.Status,
		KYCStatus:       req.KYCStatus,
		VolumeMonthly:   req.VolumeMonthly,
		Contracts:       req.Contracts,
		AffiliatesCount: req.AffiliatesCount,
		Documents:       docs,
		CreatedAt:       tx.Now(),
		UpdatedAt:       tx.Now(),
	}
	tx.Partners().Create(p)
	return p
}

// Upsert merges the non-nil fields onto the partner with req.ID, or creates a
// new partner when the id is blank or unknown. A kycStatus change is checked
// against the KYC table and notified like TransitionKYC.
func (s *Service) Upsert(ctx context.Context, req domain.UpsertPartnerRequest) (domain.Partner, error) {
	var (
		out     domain.Partner
		from    kyc.Status
		changed bool
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		current, ok := tx.Partners().FindOne(strings.TrimSpace(req.ID))
		if !ok {
			create, err := normalizeCreate(createFromUpsert(req))
			if err != nil {
				return err
			}
			out = createTx(tx, create)
			return nil
		}

		merged := merge(current, req)
		if merged.KYCStatus != current.KYCStatus {
			if merged.KYCStatus == kyc.StatusRejected {
				return apperror.Invalid("partner", "kycStatus", "invalid", "rejection removes the partner; use the reject operation")
			}
			if err := kyc.Machine.Check(current.ID, current.KYCStatus, merged.KYCStatus); err != nil {
				s.metrics.RecordTransitionRefused(ctx, "partner", string(current.KYCStatus), string(merged.KYCStatus))
				return err
			}
			from, changed = current.KYCStatus, true
		}
		if _, err := normalizeCreate(toCreate(merged)); err != nil {
			return err
		}
		merged.UpdatedAt = tx.Now()
		tx.Partners().Save(merged)
		out = merged
		return nil
	})
	if err != nil {
		return domain.Partner{}, err
	}
	if changed {
		s.afterKYC(ctx, out, from, out.KYCStatus)
	}
	return out, nil
}

func createFromUpsert(req domain.UpsertPartnerRequest) domain.CreatePartnerRequest {
	out := domain.CreatePartnerRequest{
		VolumeMonthly:   req.VolumeMonthly,
		Contracts:       req.Contracts,
		AffiliatesCount: req.AffiliatesCount,
	}
	if req.Name != nil {
		out.Name = *req.Name
	}
	if req.CNPJ != nil {
		out.CNPJ = *req.CNPJ
	}
	if req.City != nil {
		out.City = *req.City
	}
	if req.Address != nil {
		out.Address = *req.Address
	}
	if req.Status != nil {
		out.Status = *req.Status
	}
	if req.KYCStatus != nil {
		out.KYCStatus = *req.KYCStatus
	}
	if req.Documents != nil {
		out.Documents = *req.Documents
	}
	return out
}

func merge(p domain.Partner, req domain.UpsertPartnerRequest) domain.Partner {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.CNPJ != nil {
		p.CNPJ = strings.TrimSpace(*req.CNPJ)
	}
	if req.City != nil {
		p.City = strings.TrimSpace(*req.City)
	}
	if req.Address != nil {
		p.Address = strings.TrimSpace(*req.Address)
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.KYCStatus != nil {
		p.KYCStatus = *req.KYCStatus
	}
	if req.VolumeMonthly != nil {
		p.VolumeMonthly = req.VolumeMonthly
	}
	if req.Contracts != nil {
		p.Contracts = req.Contracts
	}
	if req.AffiliatesCount != nil {
		p.AffiliatesCount = req.AffiliatesCount
	}
	if req.Documents != nil {
		p.Documents = *req.Documents
	}
	return p
}

func toCreate(p domain.Partner) domain.CreatePartnerRequest {
	return domain.CreatePartnerRequest{
		Name:            p.Name,
		CNPJ:            p.CNPJ,
		City:            p.City,
		Address:         p.Address,
		Status:          p.Status,
		KYCStatus:       p.KYCStatus,
		VolumeMonthly:   p.VolumeMonthly,
		Contracts:       p.Contracts,
		AffiliatesCount: p.AffiliatesCount,
		Documents:       p.Documents,
	}
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Partners().Delete(id)
		return nil
	})
	return removed, err
}

func (s *Service) TransitionKYC(ctx context.Context, id string, to kyc.Status) (domain.Partner, error) {
	if !kyc.Machine.Valid(to) {
		return domain.Partner{}, apperror.Invalid("partner", "kycStatus", "invalid", fmt.Sprintf("unknown status %q", to))
	}
	if to == kyc.StatusRejected {
		return domain.Partner{}, s.RejectKYC(ctx, id)
	}

	var (
		out  domain.Partner
		from kyc.Status
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		p, ok := tx.Partners().FindOne(id)
		if !ok {
			return apperror.NotFound("partner", id)
		}
		if err := kyc.Machine.Check(id, p.KYCStatus, to); err != nil {
			s.metrics.RecordTransitionRefused(ctx, "partner", string(p.KYCStatus), string(to))
			return err
		}
		from = p.KYCStatus
		if kyc.Machine.NoOp(from, to) {
			out = p
			return nil
		}
		p.KYCStatus = to
		p.UpdatedAt = tx.Now()
		tx.Partners().Save(p)
		out = p
		return nil
	})
	if err != nil {
		return domain.Partner{}, err
	}
	if !kyc.Machine.NoOp(from, to) {
		s.afterKYC(ctx, out, from, to)
	}
	return out, nil
}

func (s *Service) ApproveKYC(ctx context.Context, id string) (domain.Partner, error) {
	return s.TransitionKYC(ctx, id, kyc.StatusApproved)
}

// RejectKYC deletes the partner. Records that still reference it keep the id.
func (s *Service) RejectKYC(ctx context.Context, id string) error {
	var p domain.Partner
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		current, ok := tx.Partners().FindOne(id)
		if !ok {
			return apperror.NotFound("partner", id)
		}
		if err := kyc.Machine.Check(id, current.KYCStatus, kyc.StatusRejected); err != nil {
			s.metrics.RecordTransitionRefused(ctx, "partner", string(current.KYCStatus), string(kyc.StatusRejected))
			return err
		}
		p = current
		tx.Partners().Delete(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.afterKYC(ctx, p, p.KYCStatus, kyc.StatusRejected)
	return nil
}

// afterKYC records a committed KYC change. For a rejection p is the deleted record.
func (s *Service) afterKYC(ctx context.Context, p domain.Partner, from, to kyc.Status) {
	draft := notificationdomain.Draft{
		Type:      notificationdomain.TypeKYC,
		PartnerID: p.ID,
		ActionURL: "/partners/" + p.ID,
	}
	switch to {
	case kyc.StatusRejected:
		draft.Title = "KYC reprovado"
		draft.Message = fmt.Sprintf("O cadastro do parceiro %s foi reprovado e removido.", p.Name)
		draft.Priority = notificationdomain.PriorityHigh
		draft.ActionURL = "/partners"
	case kyc.StatusApproved:
		draft.Title = "KYC aprovado"
		draft.Message = fmt.Sprintf("O parceiro %s foi aprovado.", p.Name)
		draft.Priority = notificationdomain.PriorityMedium
	default:
		draft.Title = "KYC em análise"
		draft.Message = fmt.Sprintf("O cadastro do parceiro %s está em análise.", p.Name)
		draft.Priority = notificationdomain.PriorityLow
	}

	s.metrics.RecordTransition(ctx, "partner", string(from), string(to))
	logger.WithContext(ctx, s.log).Info("partner kyc changed",
		zap.String("partner_id", p.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.emitter.Emit(ctx, draft)
}
