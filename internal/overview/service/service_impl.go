package service

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	advancedomain "github.com/smallbiznis/nel3/internal/advance/domain"
	affiliatedomain "github.com/smallbiznis/nel3/internal/affiliate/domain"
	agendadomain "github.com/smallbiznis/nel3/internal/agenda/domain"
	chargedomain "github.com/smallbiznis/nel3/internal/charge/domain"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/overview/domain"
	partnerdomain "github.com/smallbiznis/nel3/internal/partner/domain"
	reconciliationdomain "github.com/smallbiznis/nel3/internal/reconciliation/domain"
	settlementdomain "github.com/smallbiznis/nel3/internal/settlement/domain"
	"github.com/smallbiznis/nel3/internal/store"
)

type Service struct {
	store *store.Store
}

func New(st *store.Store) domain.Service {
	return &Service{store: st}
}

func (s *Service) Get(ctx context.Context, partnerID string) (domain.Overview, error) {
	out := domain.Overview{
		PartnerID:       partnerID,
		PartnersByKYC:   map[string]int{},
		AffiliatesByKYC: map[string]int{},
		Advances:        domain.Totals{},
		Charges:         domain.Totals{},
		Settlements:     domain.Totals{},
		Invoices:        domain.Totals{},
		FeesCollected:   decimal.Zero,
	}
	mine := func(id string) bool { return partnerID == "" || id == partnerID }

	err := s.store.View(ctx, func(tx *store.Tx) error {
		for _, p := range tx.Partners().Find(func(p partnerdomain.Partner) bool { return mine(p.ID) }) {
			out.PartnersByKYC[string(p.KYCStatus)]++
		}

		affiliates := map[string]struct{}{}
		for _, a := range tx.Affiliates().Find(func(a affiliatedomain.Affiliate) bool {
			return partnerID == "" || slices.Contains(a.AssociatedPartnerIDs, partnerID)
		}) {
			affiliates[a.ID] = struct{}{}
			out.AffiliatesByKYC[string(a.KYCStatus)]++
		}
		for _, inv := range tx.Invoices().Find(nil) {
			if _, ok := affiliates[inv.AffiliateID]; ok {
				out.Invoices.Add(string(inv.Status), inv.Amount)
			}
		}

		for _, a := range tx.Advances().Find(func(a advancedomain.Advance) bool { return mine(a.PartnerID) }) {
			out.Advances.Add(string(a.Status), a.Amount)
			if a.Status == advancedomain.StatusApproved || a.Status == advancedomain.StatusSettled {
				out.FeesCollected = out.FeesCollected.Add(a.Fee())
			}
		}
		for _, c := range tx.Charges().Find(func(c chargedomain.Charge) bool { return mine(c.PartnerID) }) {
			out.Charges.Add(string(c.Status), c.Amount)
		}
		for _, st := range tx.Settlements().Find(func(st settlementdomain.Settlement) bool { return mine(st.PartnerID) }) {
			out.Settlements.Add(string(st.Status), st.Amount)
		}

		out.UnreadNotifications = tx.Notifications().Count(func(n notificationdomain.Notification) bool {
			return !n.Read && mine(n.PartnerID)
		})

		for _, it := range tx.Reconciliation().Find(func(i reconciliationdomain.Item) bool { return mine(i.PartnerID) }) {
			switch it.Display() {
			case reconciliationdomain.DisplayMatched:
				out.Reconciliation.Matched++
			case reconciliationdomain.DisplayDivergent:
				out.Reconciliation.Divergent++
			default:
				out.Reconciliation.Pending++
			}
		}

		for _, sl := range tx.Agenda().Find(func(sl agendadomain.Slot) bool { return mine(sl.PartnerID) }) {
			out.AgendaAvailable += max(sl.Available(), 0)
		}
		return nil
	})
	return out, err
}
