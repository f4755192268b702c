package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/pkg/repository"
)

// Tolerance is the largest amount difference still considered a match.
var Tolerance = decimal.RequireFromString("0.01")

type Status string

const (
	StatusPending Status = "pending"
	StatusMatched Status = "matched"
)

// DisplayStatus is derived for the reconciliation screen.
type DisplayStatus string

const (
	DisplayMatched   DisplayStatus = "Conciliado"
	DisplayDivergent DisplayStatus = "Divergência"
	DisplayPending   DisplayStatus = "Pendente"
)

type MatchKind string

const (
	MatchCharge     MatchKind = "charge"
	MatchSettlement MatchKind = "settlement"
)

// Item is one externally reported transaction.
type Item struct {
	ID              string           `json:"id"`
	ReferenceID     string           `json:"referenceId"`
	AmountFile      decimal.Decimal  `json:"amountFile"`
	AmountSystem    *decimal.Decimal `json:"amountSystem,omitempty"`
	Matched         bool             `json:"matched"`
	PartnerID       string           `json:"partnerId,omitempty"`
	TransactionDate time.Time        `json:"transactionDate"`
	BankCode        string           `json:"bankCode,omitempty"`
	Status          Status           `json:"status"`
	MatchedKind     MatchKind        `json:"matchedKind,omitempty"`
	MatchedID       string           `json:"matchedId,omitempty"`
	ImportedAt      time.Time        `json:"importedAt"`
}

func (i Item) Clone() Item {
	i.AmountSystem = repository.ClonePtr(i.AmountSystem)
	return i
}

// Display derives the screen status. An unmatched item that carries a system
// amount had a candidate outside tolerance.
func (i Item) Display() DisplayStatus {
	switch {
	case i.Matched:
		return DisplayMatched
	case i.AmountSystem != nil:
		return DisplayDivergent
	default:
		return DisplayPending
	}
}

// Difference is amountFile - amountSystem, zero when there is no system amount.
func (i Item) Difference() decimal.Decimal {
	if i.AmountSystem == nil {
		return decimal.Zero
	}
	return i.AmountFile.Sub(*i.AmountSystem)
}

type View struct {
	Item
	Display    DisplayStatus   `json:"displayStatus"`
	Difference decimal.Decimal `json:"difference"`
}

type NewItem struct {
	ReferenceID     string          `json:"referenceId" validate:"notblank"`
	Amount          decimal.Decimal `json:"amount"`
	PartnerID       string          `json:"partnerId"`
	TransactionDate *time.Time      `json:"transactionDate"`
	BankCode        string          `json:"bankCode"`
}

type MatchSummary struct {
	Examined  int `json:"examined"`
	Matched   int `json:"matched"`
	Divergent int `json:"divergent"`
	Unmatched int `json:"unmatched"`
}
