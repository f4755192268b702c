package domain

import "context"

type Service interface {
	AddItems(ctx context.Context, items []NewItem) ([]Item, error)
	// Import parses a referenceId,amount feed and appends the admitted rows.
	Import(ctx context.Context, text string, opts ParseOptions) (ImportResult, error)
	List(ctx context.Context) ([]Item, error)
	ListViews(ctx context.Context) ([]View, error)
	Get(ctx context.Context, id string) (Item, error)
	Delete(ctx context.Context, id string) (bool, error)

	// AutoMatch pairs every unmatched item with a charge or settlement within Tolerance.
	AutoMatch(ctx context.Context) (MatchSummary, error)
}
