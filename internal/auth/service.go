package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/freshmart/storefront-backend/internal/users"
	"github.com/freshmart/storefront-backend/pkg/config"
	"github.com/freshmart/storefront-backend/pkg/db"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"github.com/freshmart/storefront-backend/pkg/security"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "Invalid username/email or password"

func badCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
}

type service struct {
	users       userRepository
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

type userRepository interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
}

type ServiceParams struct {
	UserRepo       userRepository
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, errors.New("auth: nil user repository")
	}
	return &service{
		users:       params.UserRepo,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Identifier, req.Password)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{User: users.FromModel(user)}, nil
}

// Register opens a shopper account. Self-registration never grants admin.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	req = req.normalized()
	if err := req.check(); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailTaken(ctx, req.Email, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "An account with that email already exists")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Address:      req.Address,
		Contact:      req.Contact,
		Role:         enums.RoleUser,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "An account with that email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return &LoginResponse{User: users.FromModel(user)}, nil
}

// authenticate answers every unknown account, bad password and unreadable
// hash with the same message.
func (s *service) authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, badCredentials()
	}
	user, err := s.users.FindByIdentifier(ctx, identifier)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, badCredentials()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	switch {
	case errors.Is(err, security.ErrInvalidHash):
		return nil, badCredentials()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	case !ok:
		return nil, badCredentials()
	}

	if security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		s.upgradeHash(ctx, user, password)
	}
	return user, nil
}

// upgradeHash stores the password again under the configured argon2id cost.
// A failure leaves the old hash in place for the next login to retry.
func (s *service) upgradeHash(ctx context.Context, user *models.User, password string) {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID), "password rehash failed")
		return
	}
	user.PasswordHash = hash
}
