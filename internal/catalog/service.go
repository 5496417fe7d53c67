package catalog

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes catalog reads for shoppers and CRUD for admins. It does no
// authorization of its own; admin routes sit behind role middleware.
type Service interface {
	List(ctx context.Context, filter Filter) ([]ProductDTO, error)
	Get(ctx context.Context, id uint64) (*ProductDTO, error)
	GetMany(ctx context.Context, ids []uint64) ([]ProductDTO, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uint64, input ProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uint64) error
	DecrementStock(ctx context.Context, id uint64, qty int) (bool, error)
}

type store interface {
	List(ctx context.Context, filter Filter) ([]ProductDTO, error)
	FindByID(ctx context.Context, id uint64) (*ProductDTO, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]ProductDTO, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, input ProductInput) (uint64, error)
	Update(ctx context.Context, id uint64, input ProductInput) error
	Delete(ctx context.Context, id uint64) error
	DecrementStock(ctx context.Context, id uint64, qty int) (bool, error)
}

type service struct {
	repo store
}

// NewService builds a catalog service.
func NewService(repo store) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id uint64) (*ProductDTO, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "load product")
	}
	return product, nil
}

func (s *service) GetMany(ctx context.Context, ids []uint64) ([]ProductDTO, error) {
	products, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	return products, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return s.Get(ctx, id)
}

// Update overwrites the product; an empty Image keeps the current one.
func (s *service) Update(ctx context.Context, id uint64, input ProductInput) (*ProductDTO, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Image == "" {
		input.Image = current.ImageFile
	}
	if err := s.repo.Update(ctx, id, input); err != nil {
		return nil, mapNotFound(err, "update product")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err, "delete product")
	}
	return nil
}

func (s *service) DecrementStock(ctx context.Context, id uint64, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	ok, err := s.repo.DecrementStock(ctx, id, qty)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	return ok, nil
}

var hundred = decimal.NewFromInt(100)

func normalizeInput(input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)
	input.Image = strings.TrimSpace(input.Image)

	if input.Name == "" {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "Product name is required")
	}
	if input.Price.IsNegative() {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "Price must be zero or more")
	}
	if input.Stock < 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "Stock must be zero or more")
	}
	if pct := input.DiscountPercentage; pct != nil {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "Discount must be between 0 and 100")
		}
		if pct.IsZero() {
			input.DiscountPercentage = nil
		}
	}
	input.Price = input.Price.Round(2)
	return input, nil
}

func mapNotFound(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
