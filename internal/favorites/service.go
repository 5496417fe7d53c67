package favorites

import (
	"context"

	"github.com/freshmart/storefront-backend/internal/catalog"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
)

// Service keeps the per-user set of favorited products.
type Service interface {
	ListForUser(ctx context.Context, userID uint64) ([]uint64, error)
	Products(ctx context.Context, userID uint64) ([]catalog.ProductDTO, error)
	Set(ctx context.Context, userID, productID uint64, favorite bool) error
}

type store interface {
	Add(ctx context.Context, userID, productID uint64) error
	Remove(ctx context.Context, userID, productID uint64) error
	ListIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

type productLookup interface {
	Get(ctx context.Context, id uint64) (*catalog.ProductDTO, error)
	GetMany(ctx context.Context, ids []uint64) ([]catalog.ProductDTO, error)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Repo    store
	Catalog productLookup
}

type service struct {
	repo    store
	catalog productLookup
}

// NewService builds a favorites service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "favorites repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service is required")
	}
	return &service{repo: params.Repo, catalog: params.Catalog}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uint64) ([]uint64, error) {
	if userID == 0 {
		return []uint64{}, nil
	}
	ids, err := s.repo.ListIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	return ids, nil
}

// Products returns favorited products that still exist, in favorite order.
func (s *service) Products(ctx context.Context, userID uint64) ([]catalog.ProductDTO, error) {
	ids, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]catalog.ProductDTO, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]catalog.ProductDTO, 0, len(products))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Set is idempotent in both directions.
func (s *service) Set(ctx context.Context, userID, productID uint64, favorite bool) error {
	if userID == 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Please log in to manage favorites.")
	}
	if !favorite {
		if err := s.repo.Remove(ctx, userID, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
		}
		return nil
	}
	if _, err := s.catalog.Get(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add favorite")
	}
	return nil
}
