package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/lifecycle"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusContested Status = "contested"
	StatusCanceled  Status = "canceled"
)

// Machine has no way out of canceled.
var Machine = lifecycle.New("charge", []Status{
	StatusPending,
	StatusPaid,
	StatusContested,
	StatusCanceled,
}, []lifecycle.Edge[Status]{
	{From: StatusPending, To: StatusPaid},
	{From: StatusPending, To: StatusContested},
	{From: StatusPending, To: StatusCanceled},
	{From: StatusPaid, To: StatusCanceled},
	{From: StatusContested, To: StatusCanceled},
})

// Charge is an amount billed to a partner for a service.
type Charge struct {
	ID          string          `json:"id"`
	PartnerID   string          `json:"partnerId"`
	ServiceID   string          `json:"serviceId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"referenceId,omitempty"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CreateChargeRequest struct {
	PartnerID   string          `json:"partnerId" validate:"notblank"`
	ServiceID   string          `json:"serviceId"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"referenceId"`
}

type UpsertChargeRequest struct {
	ID          string           `json:"id"`
	PartnerID   *string          `json:"partnerId"`
	ServiceID   *string          `json:"serviceId"`
	Amount      *decimal.Decimal `json:"amount"`
	ReferenceID *string          `json:"referenceId"`
}
