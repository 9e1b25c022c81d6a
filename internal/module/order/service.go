package order

import (
	"context"
	"log/slog"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/store"
)

// Service reads and edits orders.
type Service struct {
	repo *store.Repository[domain.Order]
}

// NewService creates an order Service backed by repo.
func NewService(repo *store.Repository[domain.Order]) *Service {
	return &Service{repo: repo}
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.Get(ctx, id)
}

// Update changes an order's status or delivery partner.
func (s *Service) Update(ctx context.Context, id string, u domain.OrderUpdate) (domain.Order, error) {
	o, err := s.repo.Modify(ctx, id, func(o *domain.Order) error {
		o.Apply(u)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	slog.InfoContext(ctx, "order updated", "id", id, "number", o.Number, "status", o.Status)
	return *o, nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "order deleted", "id", id)
	return nil
}
