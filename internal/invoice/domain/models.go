package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/lifecycle"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Machine: pending -> approved | rejected, terminal thereafter.
var Machine = lifecycle.New("invoice", []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
}, []lifecycle.Edge[Status]{
	{From: StatusPending, To: StatusApproved},
	{From: StatusPending, To: StatusRejected},
})

// Invoice is a fiscal note issued by an affiliate.
type Invoice struct {
	ID          string          `json:"id"`
	Number      string          `json:"number"`
	AffiliateID string          `json:"affiliateId,omitempty"`
	IssueDate   time.Time       `json:"issueDate"`
	Amount      decimal.Decimal `json:"amount"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CreateInvoiceRequest struct {
	// Number is allocated from the invoice sequence when blank.
	Number      string          `json:"number"`
	AffiliateID string          `json:"affiliateId"`
	IssueDate   *time.Time      `json:"issueDate"`
	Amount      decimal.Decimal `json:"amount"`
}

type UpsertInvoiceRequest struct {
	ID          string           `json:"id"`
	Number      *string          `json:"number"`
	AffiliateID *string          `json:"affiliateId"`
	IssueDate   *time.Time       `json:"issueDate"`
	Amount      *decimal.Decimal `json:"amount"`
}
