package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/lifecycle"
	"github.com/smallbiznis/nel3/pkg/repository"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSettled   Status = "settled"
)

// Machine: rejected and settled are terminal.
var Machine = lifecycle.New("advance", []Status{
	StatusRequested,
	StatusApproved,
	StatusRejected,
	StatusSettled,
}, []lifecycle.Edge[Status]{
	{From: StatusRequested, To: StatusApproved},
	{From: StatusRequested, To: StatusRejected},
	{From: StatusApproved, To: StatusSettled},
})

// Advance is a cash advance against a partner's future receivables.
type Advance struct {
	ID             string           `json:"id"`
	PartnerID      string           `json:"partnerId"`
	Amount         decimal.Decimal  `json:"amount"`
	Status         Status           `json:"status"`
	AppliedRatePct *decimal.Decimal `json:"appliedRatePct,omitempty"`
	RequestedAt    time.Time        `json:"requestedAt"`
	ApprovedAt     *time.Time       `json:"approvedAt,omitempty"`
	RejectedAt     *time.Time       `json:"rejectedAt,omitempty"`
	SettledAt      *time.Time       `json:"settledAt,omitempty"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func (a Advance) Clone() Advance {
	a.AppliedRatePct = repository.ClonePtr(a.AppliedRatePct)
	a.ApprovedAt = repository.ClonePtr(a.ApprovedAt)
	a.RejectedAt = repository.ClonePtr(a.RejectedAt)
	a.SettledAt = repository.ClonePtr(a.SettledAt)
	return a
}

// Fee is the discount charged on approval, amount * appliedRatePct / 100.
func (a Advance) Fee() decimal.Decimal {
	if a.AppliedRatePct == nil {
		return decimal.Zero
	}
	return a.Amount.Mul(*a.AppliedRatePct).Div(decimal.NewFromInt(100)).Round(2)
}

type CreateAdvanceRequest struct {
	PartnerID string          `json:"partnerId" validate:"notblank"`
	Amount    decimal.Decimal `json:"amount"`
}

type UpsertAdvanceRequest struct {
	ID        string           `json:"id"`
	PartnerID *string          `json:"partnerId"`
	Amount    *decimal.Decimal `json:"amount"`
}

type ApproveAdvanceRequest struct {
	ID string `json:"id"`
	// RatePct overrides the partner's active advance rate.
	RatePct *decimal.Decimal `json:"ratePct"`
}
