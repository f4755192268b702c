package domain

import (
	"context"

	"github.com/smallbiznis/nel3/internal/kyc"
)

type Service interface {
	List(ctx context.Context) ([]Affiliate, error)
	ListByPartner(ctx context.Context, partnerID string) ([]Affiliate, error)
	Get(ctx context.Context, id string) (Affiliate, error)
	// Create is the standard flow: at least one existing partner is required.
	Create(ctx context.Context, req CreateAffiliateRequest) (Affiliate, error)
	// CreateSimplified accepts an affiliate with no partner association.
	CreateSimplified(ctx context.Context, req CreateAffiliateRequest) (Affiliate, error)
	Upsert(ctx context.Context, req UpsertAffiliateRequest) (Affiliate, error)
	Delete(ctx context.Context, id string) (bool, error)

	TransitionKYC(ctx context.Context, id string, to kyc.Status) (Affiliate, error)
	ApproveKYC(ctx context.Context, id string) (Affiliate, error)
	RejectKYC(ctx context.Context, id string) error
}
