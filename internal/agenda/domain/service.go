package domain

import "context"

type Service interface {
	List(ctx context.Context) ([]Slot, error)
	ListByPartner(ctx context.Context, partnerID string) ([]Slot, error)
	Get(ctx context.Context, partnerID, date string) (Slot, error)
	// Upsert replaces the slot for (partnerId, date) wholesale.
	Upsert(ctx context.Context, req UpsertSlotRequest) (Slot, error)
	Delete(ctx context.Context, partnerID, date string) (bool, error)
}
