package domain

import "context"

type Service interface {
	List(ctx context.Context) ([]Charge, error)
	ListByPartner(ctx context.Context, partnerID string) ([]Charge, error)
	Get(ctx context.Context, id string) (Charge, error)
	Create(ctx context.Context, req CreateChargeRequest) (Charge, error)
	Upsert(ctx context.Context, req UpsertChargeRequest) (Charge, error)
	Delete(ctx context.Context, id string) (bool, error)

	Transition(ctx context.Context, id string, to Status) (Charge, error)
	MarkPaid(ctx context.Context, id string) (Charge, error)
	Contest(ctx context.Context, id string) (Charge, error)
	Cancel(ctx context.Context, id string) (Charge, error)
}
