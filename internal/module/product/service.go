package product

import (
	"context"
	"log/slog"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/store"
)

// Catalog is where products are read from and edited. The merchant backend
// and the local database both satisfy it.
type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, id string, u domain.ProductUpdate) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// Service edits products stored in the local database.
type Service struct {
	repo *store.Repository[domain.Product]
}

// NewService creates a product Service backed by repo.
func NewService(repo *store.Repository[domain.Product]) *Service {
	return &Service{repo: repo}
}

// List returns every product, newest listing first.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.Get(ctx, id)
}

// Update applies u to the stored product.
func (s *Service) Update(ctx context.Context, id string, u domain.ProductUpdate) (domain.Product, error) {
	p, err := s.repo.Modify(ctx, id, func(p *domain.Product) error {
		p.Apply(u)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	slog.InfoContext(ctx, "product updated", "id", id, "sku", p.SKU, "status", p.Status)
	return *p, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "product deleted", "id", id)
	return nil
}

// RemoteClient is the part of the merchant backend client used for products.
type RemoteClient interface {
	ListAllProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id string, u domain.ProductUpdate) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Remote serves the catalogue from the merchant backend.
type Remote struct {
	client RemoteClient
}

// NewRemote creates a Catalog over the backend client.
func NewRemote(client RemoteClient) *Remote {
	return &Remote{client: client}
}

// List fetches every product page from the backend.
func (r *Remote) List(ctx context.Context) ([]domain.Product, error) {
	return r.client.ListAllProducts(ctx)
}

// Update sends u to the backend's product edit form.
func (r *Remote) Update(ctx context.Context, id string, u domain.ProductUpdate) (domain.Product, error) {
	p, err := r.client.UpdateProduct(ctx, id, u)
	if err != nil {
		return domain.Product{}, err
	}
	slog.InfoContext(ctx, "product updated upstream", "id", id, "status", p.Status)
	return p, nil
}

// Delete removes the product on the backend.
func (r *Remote) Delete(ctx context.Context, id string) error {
	if err := r.client.DeleteProduct(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "product deleted upstream", "id", id)
	return nil
}
