package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/format"
	"github.com/smallbiznis/nel3/internal/invoice/domain"
	"github.com/smallbiznis/nel3/internal/invoice/render"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	"github.com/smallbiznis/nel3/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store    *store.Store
	Emitter  notificationdomain.Emitter
	Renderer render.Renderer
	Log      *zap.Logger
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	store    *store.Store
	emitter  notificationdomain.Emitter
	renderer render.Renderer
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:    p.Store,
		emitter:  p.Emitter,
		renderer: p.Renderer,
		log:      p.Log.Named("invoice.service"),
		metrics:  p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Invoice, error) {
	return s.find(ctx, nil)
}

func (s *Service) ListByAffiliate(ctx context.Context, affiliateID string) ([]domain.Invoice, error) {
	return s.find(ctx, func(i domain.Invoice) bool { return i.AffiliateID == affiliateID })
}

func (s *Service) find(ctx context.Context, filter func(domain.Invoice) bool) ([]domain.Invoice, error) {
	var out []domain.Invoice
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Invoices().Find(filter)
		return nil
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (domain.Invoice, error) {
	var out domain.Invoice
	err := s.store.View(ctx, func(tx *store.Tx) error {
		inv, ok := tx.Invoices().FindOne(id)
		if !ok {
			return apperror.NotFound("invoice", id)
		}
		out = inv
		return nil
	})
	return out, err
}

// validate checks inv against the rest of the state. Numbers are unique.
func validate(tx *store.Tx, inv domain.Invoice) error {
	v := apperror.NewValidation("invoice")
	if strings.TrimSpace(inv.Number) == "" {
		v.Add("number", "required", "number is required")
	}
	if !inv.Amount.IsPositive() {
		v.Add("amount", "invalid", "amount must be positive")
	}
	if inv.IssueDate.IsZero() {
		v.Add("issueDate", "required", "issue date is required")
	}
	if inv.AffiliateID != "" {
		if _, ok := tx.Affiliates().FindOne(inv.AffiliateID); !ok {
			v.Add("affiliateId", "unknown_affiliate", fmt.Sprintf("affiliate %q does not exist", inv.AffiliateID))
		}
	}
	dup := tx.Invoices().Count(func(other domain.Invoice) bool {
		return other.ID != inv.ID && other.Number == inv.Number
	})
	if dup > 0 {
		v.Add("number", "duplicate", "number already in use")
	}
	return v.OrNil()
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	var out domain.Invoice
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		out, err = createTx(tx, req)
		return err
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	logger.WithContext(ctx, s.log).Info("invoice created",
		zap.String("invoice_id", out.ID),
		zap.String("number", out.Number),
	)
	return out, nil
}

func createTx(tx *store.Tx, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	inv := domain.Invoice{
		ID:          tx.NewID(),
		Number:      strings.TrimSpace(req.Number),
		AffiliateID: strings.TrimSpace(req.AffiliateID),
		IssueDate:   tx.Now(),
		Amount:      req.Amount,
		Status:      domain.StatusPending,
		CreatedAt:   tx.Now(),
		UpdatedAt:   tx.Now(),
	}
	if req.IssueDate != nil {
		inv.IssueDate = *req.IssueDate
	}
	if inv.Number == "" {
		number, err := format.InvoiceNumber(format.DefaultInvoiceNumberTemplate, inv.IssueDate.In(tx.Location()), tx.NextSequence(store.SequenceInvoice))
		if err != nil {
			return domain.Invoice{}, err
		}
		inv.Number = number
	}
	if err := validate(tx, inv); err != nil {
		return domain.Invoice{}, err
	}
	tx.Invoices().Create(inv)
	return inv, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertInvoiceRequest) (domain.Invoice, error) {
	var out domain.Invoice
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		current, ok := tx.Invoices().FindOne(strings.TrimSpace(req.ID))
		if !ok {
			create := domain.CreateInvoiceRequest{IssueDate: req.IssueDate}
			if req.Number != nil {
				create.Number = *req.Number
			}
			if req.AffiliateID != nil {
				create.AffiliateID = *req.AffiliateID
			}
			if req.Amount != nil {
				create.Amount = *req.Amount
			}
			var err error
			out, err = createTx(tx, create)
			return err
		}

		if req.Number != nil {
			current.Number = strings.TrimSpace(*req.Number)
		}
		if req.AffiliateID != nil {
			current.AffiliateID = strings.TrimSpace(*req.AffiliateID)
		}
		if req.IssueDate != nil {
			current.IssueDate = *req.IssueDate
		}
		if req.Amount != nil {
			current.Amount = *req.Amount
		}
		if err := validate(tx, current); err != nil {
			return err
		}
		current.UpdatedAt = tx.Now()
		tx.Invoices().Save(current)
		out = current
		return nil
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Invoices().Delete(id)
		return nil
	})
	return removed, err
}

func (s *Service) Approve(ctx context.Context, id string) (domain.Invoice, error) {
	return s.transition(ctx, id, domain.StatusApproved)
}

func (s *Service) Reject(ctx context.Context, id string) (domain.Invoice, error) {
	return s.transition(ctx, id, domain.StatusRejected)
}

func (s *Service) transition(ctx context.Context, id string, to domain.Status) (domain.Invoice, error) {
	var (
		out          domain.Invoice
		from         domain.Status
		affiliate    string
		partnerOfAff string
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		inv, ok := tx.Invoices().FindOne(id)
		if !ok {
			return apperror.NotFound("invoice", id)
		}
		if err := domain.Machine.Check(id, inv.Status, to); err != nil {
			s.metrics.RecordTransitionRefused(ctx, "invoice", string(inv.Status), string(to))
			return err
		}
		from = inv.Status
		inv.Status = to
		inv.UpdatedAt = tx.Now()
		tx.Invoices().Save(inv)
		out = inv

		if inv.AffiliateID != "" {
			affiliate = store.AffiliateName(tx, inv.AffiliateID)
			if a, ok := tx.Affiliates().FindOne(inv.AffiliateID); ok && len(a.AssociatedPartnerIDs) > 0 {
				partnerOfAff = a.AssociatedPartnerIDs[0]
			}
		}
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.metrics.RecordTransition(ctx, "invoice", string(from), string(to))
	logger.WithContext(ctx, s.log).Info("invoice status changed",
		zap.String("invoice_id", out.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	draft := notificationdomain.Draft{
		Type:        notificationdomain.TypeInvoice,
		AffiliateID: out.AffiliateID,
		PartnerID:   partnerOfAff,
		ActionURL:   "/invoices/" + out.ID,
	}
	suffix := ""
	if affiliate != "" {
		suffix = " de " + affiliate
	}
	if to == domain.StatusApproved {
		draft.Title = "Nota aprovada"
		draft.Message = fmt.Sprintf("A nota %s%s no valor de %s foi aprovada.", out.Number, suffix, format.BRL(out.Amount))
		draft.Priority = notificationdomain.PriorityMedium
	} else {
		draft.Title = "Nota rejeitada"
		draft.Message = fmt.Sprintf("A nota %s%s no valor de %s foi rejeitada.", out.Number, suffix, format.BRL(out.Amount))
		draft.Priority = notificationdomain.PriorityHigh
	}
	s.emitter.Emit(ctx, draft)
	return out, nil
}

func (s *Service) Render(ctx context.Context, id string) (string, error) {
	var input render.RenderInput
	err := s.store.View(ctx, func(tx *store.Tx) error {
		inv, ok := tx.Invoices().FindOne(id)
		if !ok {
			return apperror.NotFound("invoice", id)
		}
		input.Invoice = inv
		if inv.AffiliateID != "" {
			input.AffiliateName = store.AffiliateName(tx, inv.AffiliateID)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.renderer.RenderHTML(input)
}
