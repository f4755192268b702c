package domain

import "context"

type Service interface {
	// Get summarises everything, or only partnerID's records when it is set.
	Get(ctx context.Context, partnerID string) (Overview, error)
}
