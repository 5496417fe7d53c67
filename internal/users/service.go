package users

import (
	"context"
	"errors"
	"strings"

	"github.com/freshmart/storefront-backend/internal/paymentmethods"
	"github.com/freshmart/storefront-backend/pkg/config"
	"github.com/freshmart/storefront-backend/pkg/db"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/security"
	"gorm.io/gorm"
)

// MinPasswordLength applies to registration and password changes.
const MinPasswordLength = 6

// Profile is the account page view model.
type Profile struct {
	User          *UserDTO                         `json:"user"`
	PaymentMethod *paymentmethods.PaymentMethodDTO `json:"paymentMethod"`
}

// Service covers self-service profile management and admin account management.
type Service interface {
	Get(ctx context.Context, id uint64) (*UserDTO, error)
	Profile(ctx context.Context, id uint64) (*Profile, error)
	UpdateProfile(ctx context.Context, id uint64, input ProfileInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, id uint64, input PasswordChangeInput) error
	List(ctx context.Context) ([]UserDTO, error)
	Promote(ctx context.Context, actorID, targetID uint64) error
	Delete(ctx context.Context, actorID, targetID uint64) error
}

type userStore interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
	EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id uint64, input ProfileInput) error
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
	SetRole(ctx context.Context, id uint64, role enums.Role) error
	Delete(ctx context.Context, id uint64) error
}

// ServiceParams groups dependencies for the users service.
type ServiceParams struct {
	Repo           userStore
	PaymentMethods paymentmethods.Service
	PasswordConfig config.PasswordConfig
}

type service struct {
	repo           userStore
	paymentMethods paymentmethods.Service
	passwordCfg    config.PasswordConfig
}

// NewService builds a users service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo is required")
	}
	if params.PaymentMethods == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method service is required")
	}
	return &service{
		repo:           params.Repo,
		paymentMethods: params.PaymentMethods,
		passwordCfg:    params.PasswordConfig,
	}, nil
}

func (s *service) Get(ctx context.Context, id uint64) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// Profile returns the account with its saved card. Admin accounts never keep a
// card, so any leftover one is purged here.
func (s *service) Profile(ctx context.Context, id uint64) (*Profile, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: FromModel(user)}
	if user.Role.IsAdmin() {
		if err := s.paymentMethods.Remove(ctx, user.ID); err != nil {
			return nil, err
		}
		return profile, nil
	}

	method, err := s.paymentMethods.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	profile.PaymentMethod = method
	return profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uint64, input ProfileInput) (*UserDTO, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = NormalizeEmail(input.Email)
	input.Address = strings.TrimSpace(input.Address)
	input.Contact = strings.TrimSpace(input.Contact)

	if input.Username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Username is required")
	}
	if input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email is required")
	}

	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	taken, err := s.repo.EmailTaken(ctx, input.Email, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Email is already in use")
	}

	if err := s.repo.UpdateProfile(ctx, id, input); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Email is already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.Get(ctx, id)
}

func (s *service) ChangePassword(ctx context.Context, id uint64, input PasswordChangeInput) error {
	if len(input.NewPassword) < MinPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "New password must be at least 6 characters")
	}
	if input.NewPassword != input.ConfirmPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "Passwords do not match")
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "Current password is incorrect")
	}

	hash, err := security.HashPassword(input.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Promote grants the admin role and drops the target's saved card.
func (s *service) Promote(ctx context.Context, actorID, targetID uint64) error {
	target, err := s.load(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "User is already an admin")
	}
	if err := s.repo.SetRole(ctx, targetID, enums.RoleAdmin); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote user")
	}
	return s.paymentMethods.Remove(ctx, targetID)
}

// Delete removes a shopper account. Admins cannot delete themselves or other admins.
func (s *service) Delete(ctx context.Context, actorID, targetID uint64) error {
	if actorID == targetID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "You cannot delete your own account")
	}
	target, err := s.load(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Admin accounts cannot be deleted")
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uint64) (*models.User, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
