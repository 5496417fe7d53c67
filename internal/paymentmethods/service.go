package paymentmethods

import (
	"context"

	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
)

// Service manages the one saved card a shopper may keep on file.
type Service interface {
	Get(ctx context.Context, userID uint64) (*PaymentMethodDTO, error)
	Save(ctx context.Context, userID uint64, role enums.Role, card Card) (*PaymentMethodDTO, error)
	Remove(ctx context.Context, userID uint64) error
}

type store interface {
	FindByUser(ctx context.Context, userID uint64) (*models.PaymentMethod, error)
	Upsert(ctx context.Context, method *models.PaymentMethod) error
	DeleteByUser(ctx context.Context, userID uint64) error
}

type service struct {
	repo store
}

// NewService constructs a payment method service.
func NewService(repo store) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method repo required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uint64) (*PaymentMethodDTO, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	method, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	return FromModel(method), nil
}

// Save stores card as the user's payment method, replacing any previous one.
// Admin accounts cannot keep a card on file.
func (s *service) Save(ctx context.Context, userID uint64, role enums.Role, card Card) (*PaymentMethodDTO, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Admins cannot save payment methods.")
	}
	if len(card.Last4) != 4 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MsgCardNumber)
	}

	method := &models.PaymentMethod{
		UserID:   userID,
		Last4:    card.Last4,
		CardName: card.Name,
		Label:    card.Label(),
		Expiry:   card.Expiry,
		CVV:      card.CVV,
	}
	if err := s.repo.Upsert(ctx, method); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment method")
	}
	return FromModel(method), nil
}

func (s *service) Remove(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove payment method")
	}
	return nil
}
