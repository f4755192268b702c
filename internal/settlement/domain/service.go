package domain

import "context"

type Service interface {
	List(ctx context.Context) ([]Settlement, error)
	ListByPartner(ctx context.Context, partnerID string) ([]Settlement, error)
	Get(ctx context.Context, id string) (Settlement, error)
	Create(ctx context.Context, req CreateSettlementRequest) (Settlement, error)
	Upsert(ctx context.Context, req UpsertSettlementRequest) (Settlement, error)
	Delete(ctx context.Context, id string) (bool, error)

	Execute(ctx context.Context, id string) (Settlement, error)
}
