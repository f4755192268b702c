package domain

import "context"

type Service interface {
	List(ctx context.Context) ([]Invoice, error)
	ListByAffiliate(ctx context.Context, affiliateID string) ([]Invoice, error)
	Get(ctx context.Context, id string) (Invoice, error)
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	Upsert(ctx context.Context, req UpsertInvoiceRequest) (Invoice, error)
	Delete(ctx context.Context, id string) (bool, error)

	Approve(ctx context.Context, id string) (Invoice, error)
	Reject(ctx context.Context, id string) (Invoice, error)

	// Render returns the printable HTML view.
	Render(ctx context.Context, id string) (string, error)
}
