package reviews

import (
	"context"
	"strings"

	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
)

// Service records and lists product reviews.
type Service interface {
	Create(ctx context.Context, userID uint64, role enums.Role, productID uint64, input CreateReviewInput) (*ReviewDTO, error)
	ListForProduct(ctx context.Context, productID uint64) ([]ReviewDTO, error)
	ListForUser(ctx context.Context, userID uint64) ([]UserReviewDTO, error)
}

type store interface {
	Create(ctx context.Context, review *models.Review) error
	ListForProduct(ctx context.Context, productID uint64, limit int) ([]ReviewDTO, error)
	ListForUser(ctx context.Context, userID uint64) ([]UserReviewDTO, error)
}

type productLookup interface {
	Get(ctx context.Context, id uint64) (*catalog.ProductDTO, error)
}

// ServiceParams groups dependencies for the reviews service.
type ServiceParams struct {
	Repo    store
	Catalog productLookup
}

type service struct {
	repo    store
	catalog productLookup
}

// NewService builds a reviews service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reviews repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service is required")
	}
	return &service{repo: params.Repo, catalog: params.Catalog}, nil
}

func (s *service) Create(ctx context.Context, userID uint64, role enums.Role, productID uint64, input CreateReviewInput) (*ReviewDTO, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Please log in to leave a review.")
	}
	if role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Admins cannot post reviews.")
	}
	if _, err := s.catalog.Get(ctx, productID); err != nil {
		return nil, err
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    ClampRating(input.Rating),
		Comment:   NormalizeComment(input.Comment),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save review")
	}
	return &ReviewDTO{
		ID:        review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uint64) ([]ReviewDTO, error) {
	rows, err := s.repo.ListForProduct(ctx, productID, ProductPageLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product reviews")
	}
	return rows, nil
}

func (s *service) ListForUser(ctx context.Context, userID uint64) ([]UserReviewDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user reviews")
	}
	return rows, nil
}

// ClampRating forces rating into 1..5.
func ClampRating(rating int) int {
	switch {
	case rating < 1:
		return 1
	case rating > 5:
		return 5
	default:
		return rating
	}
}

// NormalizeComment trims comment and cuts it to MaxCommentLength characters.
func NormalizeComment(comment string) string {
	comment = strings.TrimSpace(comment)
	runes := []rune(comment)
	if len(runes) > MaxCommentLength {
		return string(runes[:MaxCommentLength])
	}
	return comment
}
