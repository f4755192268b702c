package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/apperror"
	chargedomain "github.com/smallbiznis/nel3/internal/charge/domain"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	"github.com/smallbiznis/nel3/internal/reconciliation/domain"
	settlementdomain "github.com/smallbiznis/nel3/internal/settlement/domain"
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
		log:     p.Log.Named("reconciliation.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) AddItems(ctx context.Context, items []domain.NewItem) ([]domain.Item, error) {
	var out []domain.Item
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		out, err = addItemsTx(tx, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx, s.log).Info("reconciliation items imported", zap.Int("count", len(out)))
	return out, nil
}

func addItemsTx(tx *store.Tx, items []domain.NewItem) ([]domain.Item, error) {
	for _, it := range items {
		if err := validation.Struct("reconciliation", it); err != nil {
			return nil, err
		}
	}

	now := tx.Now()
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		date := now
		if it.TransactionDate != nil {
			date = *it.TransactionDate
		}
		out = append(out, domain.Item{
			ID:              tx.NewID(),
			ReferenceID:     strings.TrimSpace(it.ReferenceID),
			AmountFile:      it.Amount,
			PartnerID:       strings.TrimSpace(it.PartnerID),
			TransactionDate: date,
			BankCode:        strings.TrimSpace(it.BankCode),
			Status:          domain.StatusPending,
			ImportedAt:      now,
		})
	}
	tx.Reconciliation().BatchCreate(out)
	return out, nil
}

func (s *Service) Import(ctx context.Context, text string, opts domain.ParseOptions) (domain.ImportResult, error) {
	parsed := ParseFeed(text, opts)
	items, err := s.AddItems(ctx, parsed.Items)
	if err != nil {
		return domain.ImportResult{}, err
	}
	if len(parsed.Quarantined) > 0 {
		logger.WithContext(ctx, s.log).Warn("reconciliation rows quarantined", zap.Int("count", len(parsed.Quarantined)))
	}
	return domain.ImportResult{Items: items, Quarantined: parsed.Quarantined}, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Item, error) {
	var out []domain.Item
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Reconciliation().Find(nil)
		return nil
	})
	return out, err
}

func (s *Service) ListViews(ctx context.Context) ([]domain.View, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.View, 0, len(items))
	for _, it := range items {
		out = append(out, domain.View{Item: it, Display: it.Display(), Difference: it.Difference()})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Item, error) {
	var out domain.Item
	err := s.store.View(ctx, func(tx *store.Tx) error {
		it, ok := tx.Reconciliation().FindOne(id)
		if !ok {
			return apperror.NotFound("reconciliation", id)
		}
		out = it
		return nil
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Reconciliation().Delete(id)
		return nil
	})
	return removed, err
}

type candidate struct {
	kind      domain.MatchKind
	id        string
	partnerID string
	amount    decimal.Decimal
}

func within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(domain.Tolerance)
}

// AutoMatch pairs unmatched items by reference: a charge with the same
// referenceId or a settlement whose id is the referenceId. Items carrying a
// partner also accept that partner's settlement of the same amount. A
// referenced candidate outside tolerance records its amount and leaves the
// item divergent. Each record backs at most one item.
func (s *Service) AutoMatch(ctx context.Context) (domain.MatchSummary, error) {
	var sum domain.MatchSummary
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		sum = domain.MatchSummary{}
		used := map[string]struct{}{}
		for _, it := range tx.Reconciliation().Find(func(i domain.Item) bool { return i.Matched }) {
			used[string(it.MatchedKind)+":"+it.MatchedID] = struct{}{}
		}
		free := func(c candidate) bool {
			_, taken := used[string(c.kind)+":"+c.id]
			return !taken
		}

		charges := tx.Charges().Find(nil)
		settlements := tx.Settlements().Find(nil)

		for _, it := range tx.Reconciliation().Find(func(i domain.Item) bool { return !i.Matched }) {
			sum.Examined++
			referenced := referencedCandidates(it, charges, settlements)

			var hit *candidate
			for i := range referenced {
				if free(referenced[i]) && within(it.AmountFile, referenced[i].amount) {
					hit = &referenced[i]
					break
				}
			}
			if hit == nil && it.PartnerID != "" {
				for _, st := range settlements {
					c := candidate{kind: domain.MatchSettlement, id: st.ID, partnerID: st.PartnerID, amount: st.Amount}
					if st.PartnerID == it.PartnerID && free(c) && within(it.AmountFile, c.amount) {
						hit = &c
						break
					}
				}
			}

			switch {
			case hit != nil:
				amount := hit.amount
				it.AmountSystem = &amount
				it.Matched = true
				it.Status = domain.StatusMatched
				it.MatchedKind = hit.kind
				it.MatchedID = hit.id
				if it.PartnerID == "" {
					it.PartnerID = hit.partnerID
				}
				used[string(hit.kind)+":"+hit.id] = struct{}{}
				sum.Matched++
			case len(referenced) > 0:
				amount := closest(it.AmountFile, referenced)
				it.AmountSystem = &amount
				sum.Divergent++
			default:
				it.AmountSystem = nil
				sum.Unmatched++
			}
			tx.Reconciliation().Save(it)
		}
		return nil
	})
	if err != nil {
		return domain.MatchSummary{}, err
	}

	s.metrics.RecordReconciliationMatched(ctx, "auto", sum.Matched)
	logger.WithContext(ctx, s.log).Info("reconciliation auto-match finished",
		zap.Int("examined", sum.Examined),
		zap.Int("matched", sum.Matched),
		zap.Int("divergent", sum.Divergent),
		zap.Int("unmatched", sum.Unmatched),
	)
	return sum, nil
}

func referencedCandidates(it domain.Item, charges []chargedomain.Charge, settlements []settlementdomain.Settlement) []candidate {
	var out []candidate
	for _, c := range charges {
		if c.ReferenceID != "" && c.ReferenceID == it.ReferenceID {
			out = append(out, candidate{kind: domain.MatchCharge, id: c.ID, partnerID: c.PartnerID, amount: c.Amount})
		}
	}
	for _, st := range settlements {
		if st.ID == it.ReferenceID {
			out = append(out, candidate{kind: domain.MatchSettlement, id: st.ID, partnerID: st.PartnerID, amount: st.Amount})
		}
	}
	return out
}

func closest(amount decimal.Decimal, cs []candidate) decimal.Decimal {
	best := cs[0].amount
	for _, c := range cs[1:] {
		if c.amount.Sub(amount).Abs().LessThan(best.Sub(amount).Abs()) {
			best = c.amount
		}
	}
	return best
}
