package store

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	advancedomain "github.com/smallbiznis/nel3/internal/advance/domain"
	affiliatedomain "github.com/smallbiznis/nel3/internal/affiliate/domain"
	agendadomain "github.com/smallbiznis/nel3/internal/agenda/domain"
	catalogdomain "github.com/smallbiznis/nel3/internal/catalog/domain"
	chargedomain "github.com/smallbiznis/nel3/internal/charge/domain"
	invoicedomain "github.com/smallbiznis/nel3/internal/invoice/domain"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	partnerdomain "github.com/smallbiznis/nel3/internal/partner/domain"
	ratedomain "github.com/smallbiznis/nel3/internal/rate/domain"
	reconciliationdomain "github.com/smallbiznis/nel3/internal/reconciliation/domain"
	settlementdomain "github.com/smallbiznis/nel3/internal/settlement/domain"
	"github.com/smallbiznis/nel3/pkg/repository"
)

// RemovedPlaceholder is shown for references to deleted records.
const RemovedPlaceholder = "(removido)"

// Tx is the view of the state handed to one Update or View callback.
// Inside View it must not be mutated.
type Tx struct {
	snap     *Snapshot
	now      time.Time
	loc      *time.Location
	ids      *snowflake.Node
	readOnly bool
}

// Now is fixed for the whole command.
func (tx *Tx) Now() time.Time { return tx.now }

// Location is the business timezone.
func (tx *Tx) Location() *time.Location { return tx.loc }

func (tx *Tx) ReadOnly() bool { return tx.readOnly }

// NewID allocates an id that is never handed out again.
func (tx *Tx) NewID() string {
	return tx.ids.Generate().String()
}

// NextSequence increments and returns the named counter.
func (tx *Tx) NextSequence(name string) int64 {
	tx.snap.Sequences[name]++
	return tx.snap.Sequences[name]
}

func (tx *Tx) Partners() repository.Repository[partnerdomain.Partner] {
	return repository.Over(&tx.snap.Partners, func(p partnerdomain.Partner) string { return p.ID })
}

func (tx *Tx) Affiliates() repository.Repository[affiliatedomain.Affiliate] {
	return repository.Over(&tx.snap.Affiliates, func(a affiliatedomain.Affiliate) string { return a.ID })
}

func (tx *Tx) Invoices() repository.Repository[invoicedomain.Invoice] {
	return repository.Over(&tx.snap.Invoices, func(i invoicedomain.Invoice) string { return i.ID })
}

func (tx *Tx) Charges() repository.Repository[chargedomain.Charge] {
	return repository.Over(&tx.snap.Charges, func(c chargedomain.Charge) string { return c.ID })
}

func (tx *Tx) Rates() repository.Repository[ratedomain.Rate] {
	return repository.Over(&tx.snap.Rates, func(r ratedomain.Rate) string { return r.ID })
}

func (tx *Tx) Settlements() repository.Repository[settlementdomain.Settlement] {
	return repository.Over(&tx.snap.Settlements, func(s settlementdomain.Settlement) string { return s.ID })
}

func (tx *Tx) Advances() repository.Repository[advancedomain.Advance] {
	return repository.Over(&tx.snap.Advances, func(a advancedomain.Advance) string { return a.ID })
}

func (tx *Tx) Reconciliation() repository.Repository[reconciliationdomain.Item] {
	return repository.Over(&tx.snap.Reconciliation, func(i reconciliationdomain.Item) string { return i.ID })
}

// Agenda is keyed by agendadomain.SlotKey(partnerID, date).
func (tx *Tx) Agenda() repository.Repository[agendadomain.Slot] {
	return repository.Over(&tx.snap.Agenda, agendadomain.Slot.Key)
}

func (tx *Tx) Notifications() repository.Repository[notificationdomain.Notification] {
	return repository.Over(&tx.snap.Notifications, func(n notificationdomain.Notification) string { return n.ID })
}

func (tx *Tx) Services() repository.Repository[catalogdomain.Service] {
	return repository.Over(&tx.snap.Services, func(s catalogdomain.Service) string { return s.ID })
}

// LedgerConsumed returns the amount used by partnerID in bucket.
func (tx *Tx) LedgerConsumed(partnerID, bucket string) decimal.Decimal {
	return tx.snap.Ledger[partnerID][bucket]
}

// LedgerAdd adds amount to the partner's bucket.
func (tx *Tx) LedgerAdd(partnerID, bucket string, amount decimal.Decimal) decimal.Decimal {
	buckets, ok := tx.snap.Ledger[partnerID]
	if !ok {
		buckets = map[string]decimal.Decimal{}
		tx.snap.Ledger[partnerID] = buckets
	}
	buckets[bucket] = buckets[bucket].Add(amount)
	return buckets[bucket]
}

// PartnerName resolves a partner id for display.
func PartnerName(tx *Tx, id string) string {
	if p, ok := tx.Partners().FindOne(id); ok {
		return p.Name
	}
	return RemovedPlaceholder
}

// AffiliateName resolves an affiliate id for display.
func AffiliateName(tx *Tx, id string) string {
	if a, ok := tx.Affiliates().FindOne(id); ok {
		return a.Name
	}
	return RemovedPlaceholder
}
