package domain

import "context"

type Service interface {
	List(ctx context.Context) ([]Advance, error)
	ListByPartner(ctx context.Context, partnerID string) ([]Advance, error)
	Get(ctx context.Context, id string) (Advance, error)
	Create(ctx context.Context, req CreateAdvanceRequest) (Advance, error)
	// Upsert edits amount or partner while the advance is still requested.
	Upsert(ctx context.Context, req UpsertAdvanceRequest) (Advance, error)
	Delete(ctx context.Context, id string) (bool, error)

	// Approve reserves the amount on the partner's daily limit and fixes the rate.
	Approve(ctx context.Context, req ApproveAdvanceRequest) (Advance, error)
	Reject(ctx context.Context, id string) (Advance, error)
	Settle(ctx context.Context, id string) (Advance, error)
}
