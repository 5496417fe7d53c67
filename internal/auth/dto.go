package auth

import (
	"strings"

	"github.com/freshmart/storefront-backend/internal/users"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
)

// LoginRequest captures the credentials sent to the login form. Identifier is
// either the username or the email address.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Password   string `json:"password" validate:"required"`
}

// RegisterRequest contains the payload required to open a shopper account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Address  string `json:"address" validate:"required,max=255"`
	Contact  string `json:"contact" validate:"required,max=50"`
}

// LoginResponse is the authenticated account, ready to be placed in the session.
type LoginResponse struct {
	User *users.UserDTO `json:"user"`
}

func (r RegisterRequest) normalized() RegisterRequest {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = users.NormalizeEmail(r.Email)
	r.Address = strings.TrimSpace(r.Address)
	r.Contact = strings.TrimSpace(r.Contact)
	return r
}

func (r RegisterRequest) check() error {
	if r.Username == "" || r.Email == "" || r.Address == "" || r.Contact == "" || r.Password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "All fields are required")
	}
	if len(r.Password) < users.MinPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "Password must be at least 6 characters")
	}
	return nil
}
