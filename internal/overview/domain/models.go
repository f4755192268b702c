package domain

import "github.com/shopspring/decimal"

// Bucket is a count and amount total for one status.
type Bucket struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

func (b *Bucket) add(amount decimal.Decimal) {
	b.Count++
	b.Amount = b.Amount.Add(amount)
}

// Totals indexes buckets by status.
type Totals map[string]Bucket

// Add counts amount under status.
func (t Totals) Add(status string, amount decimal.Decimal) {
	b := t[status]
	b.add(amount)
	t[status] = b
}

type Reconciliation struct {
	Matched   int `json:"matched"`
	Divergent int `json:"divergent"`
	Pending   int `json:"pending"`
}

// Overview is the dashboard summary. Every field is derived at read time.
type Overview struct {
	PartnerID           string          `json:"partnerId,omitempty"`
	PartnersByKYC       map[string]int  `json:"partnersByKyc"`
	AffiliatesByKYC     map[string]int  `json:"affiliatesByKyc"`
	Advances            Totals          `json:"advances"`
	Charges             Totals          `json:"charges"`
	Settlements         Totals          `json:"settlements"`
	Invoices            Totals          `json:"invoices"`
	FeesCollected       decimal.Decimal `json:"feesCollected"`
	UnreadNotifications int             `json:"unreadNotifications"`
	Reconciliation      Reconciliation  `json:"reconciliation"`
	AgendaAvailable     int             `json:"agendaAvailable"`
}
