package domain

import (
	"context"

	"github.com/smallbiznis/nel3/internal/kyc"
)

type Service interface {
	List(ctx context.Context) ([]Partner, error)
	// ListApproved returns partners whose KYC is approved.
	ListApproved(ctx context.Context) ([]Partner, error)
	Get(ctx context.Context, id string) (Partner, error)
	Create(ctx context.Context, req CreatePartnerRequest) (Partner, error)
	Upsert(ctx context.Context, req UpsertPartnerRequest) (Partner, error)
	Delete(ctx context.Context, id string) (bool, error)

	// TransitionKYC moves kycStatus along the KYC table.
	TransitionKYC(ctx context.Context, id string, to kyc.Status) (Partner, error)
	ApproveKYC(ctx context.Context, id string) (Partner, error)
	// RejectKYC removes the partner.
	RejectKYC(ctx context.Context, id string) error
}
