package kyc

import "github.com/smallbiznis/nel3/internal/lifecycle"

// Status is the Know-Your-Customer verification state shared by partners and affiliates.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

// Machine is the KYC transition table. approved -> approved is accepted as a no-op.
var Machine = lifecycle.New("kyc", []Status{
	StatusPending,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
}, []lifecycle.Edge[Status]{
	{From: StatusPending, To: StatusUnderReview},
	{From: StatusPending, To: StatusApproved},
	{From: StatusPending, To: StatusRejected},
	{From: StatusUnderReview, To: StatusApproved},
	{From: StatusUnderReview, To: StatusRejected},
}).Idempotent(StatusApproved)

// Parse normalizes a raw value; empty means pending.
func Parse(raw string) (Status, bool) {
	s := Status(raw)
	if raw == "" {
		return StatusPending, true
	}
	return s, Machine.Valid(s)
}
