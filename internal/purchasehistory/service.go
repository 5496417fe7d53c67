package purchasehistory

import (
	"context"

	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
)

type store interface {
	ListForUser(ctx context.Context, userID uint64, search string) ([]EntryDTO, error)
	ListAll(ctx context.Context, search string) ([]EntryDTO, error)
}

// Service lists purchase history. Admins see every shopper's purchases.
type Service interface {
	List(ctx context.Context, userID uint64, isAdmin bool, search string) ([]EntryDTO, error)
}

type service struct {
	repo store
}

// NewService builds a purchase history service.
func NewService(repo store) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchase history repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uint64, isAdmin bool, search string) ([]EntryDTO, error) {
	var (
		rows []EntryDTO
		err  error
	)
	if isAdmin {
		rows, err = s.repo.ListAll(ctx, search)
	} else {
		rows, err = s.repo.ListForUser(ctx, userID, search)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase history")
	}
	return rows, nil
}
