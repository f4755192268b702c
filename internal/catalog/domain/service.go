package domain

import "context"

type Catalog interface {
	List(ctx context.Context) ([]Service, error)
	Get(ctx context.Context, id string) (Service, error)
}
