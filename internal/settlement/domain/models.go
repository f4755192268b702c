package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/lifecycle"
	"github.com/smallbiznis/nel3/pkg/repository"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusExecuted  Status = "executed"
)

var Machine = lifecycle.New("settlement", []Status{
	StatusScheduled,
	StatusExecuted,
}, []lifecycle.Edge[Status]{
	{From: StatusScheduled, To: StatusExecuted},
})

// Settlement is a payout to a partner.
type Settlement struct {
	ID         string          `json:"id"`
	PartnerID  string          `json:"partnerId"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"dueDate"`
	Status     Status          `json:"status"`
	ExecutedAt *time.Time      `json:"executedAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (s Settlement) Clone() Settlement {
	s.ExecutedAt = repository.ClonePtr(s.ExecutedAt)
	return s
}

type CreateSettlementRequest struct {
	PartnerID string          `json:"partnerId" validate:"notblank"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"dueDate" validate:"required"`
}

type UpsertSettlementRequest struct {
	ID        string           `json:"id"`
	PartnerID *string          `json:"partnerId"`
	Amount    *decimal.Decimal `json:"amount"`
	DueDate   *time.Time       `json:"dueDate"`
}
