package domain

import (
	"context"
	"errors"
)

var ErrNoActiveRate = errors.New("no_active_rate")

type Service interface {
	List(ctx context.Context) ([]Rate, error)
	// ListViews adds the derived status.
	ListViews(ctx context.Context) ([]View, error)
	ListByPartner(ctx context.Context, partnerID string) ([]View, error)
	Get(ctx context.Context, id string) (Rate, error)
	Create(ctx context.Context, req CreateRateRequest) (Rate, error)
	Upsert(ctx context.Context, req UpsertRateRequest) (Rate, error)
	Delete(ctx context.Context, id string) (bool, error)

	// ActiveFor picks the active rate with the latest effective date, or ErrNoActiveRate.
	ActiveFor(ctx context.Context, partnerID, serviceID string) (Rate, error)
}
