package service

import (
	"context"

	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/catalog/domain"
	"github.com/smallbiznis/nel3/internal/store"
)

type Service struct {
	store *store.Store
}

func New(st *store.Store) domain.Catalog {
	return &Service{store: st}
}

func (s *Service) List(ctx context.Context) ([]domain.Service, error) {
	var out []domain.Service
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Services().Find(nil)
		return nil
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (domain.Service, error) {
	var out domain.Service
	err := s.store.View(ctx, func(tx *store.Tx) error {
		svc, ok := tx.Services().FindOne(id)
		if !ok {
			return apperror.NotFound("service", id)
		}
		out = svc
		return nil
	})
	return out, err
}
