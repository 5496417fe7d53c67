package session

import (
	"github.com/freshmart/storefront-backend/pkg/enums"
	"github.com/freshmart/storefront-backend/pkg/types"
)

// User is the identity snapshot stored in a session after login.
type User struct {
	ID       uint64     `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     enums.Role `json:"role"`
	Contact  string     `json:"contact"`
	Address  string     `json:"address"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsAdmin()
}

// Flash holds one-shot page messages.
type Flash struct {
	Errors  []string `json:"errors,omitempty"`
	Success []string `json:"success,omitempty"`
}

// State is everything the storefront keeps per browser session.
type State struct {
	User          *User            `json:"user,omitempty"`
	Cart          []types.CartLine `json:"cart,omitempty"`
	CartErrors    []string         `json:"cartErrors,omitempty"`
	CartMessages  []string         `json:"cartMessages,omitempty"`
	Flash         Flash            `json:"flash"`
	LastInvoiceID uint64           `json:"lastInvoiceId,omitempty"`
}

// UserID returns the logged-in user's id, or 0 for anonymous visitors.
func (s *State) UserID() uint64 {
	if s == nil || s.User == nil {
		return 0
	}
	return s.User.ID
}

func (s *State) AddCartError(msg string) {
	if msg != "" {
		s.CartErrors = append(s.CartErrors, msg)
	}
}

func (s *State) AddCartMessage(msg string) {
	if msg != "" {
		s.CartMessages = append(s.CartMessages, msg)
	}
}

func (s *State) AddError(msg string) {
	if msg != "" {
		s.Flash.Errors = append(s.Flash.Errors, msg)
	}
}

func (s *State) AddSuccess(msg string) {
	if msg != "" {
		s.Flash.Success = append(s.Flash.Success, msg)
	}
}

// ConsumeCartFeedback returns and clears the pending cart errors and messages.
func (s *State) ConsumeCartFeedback() (errs []string, msgs []string) {
	errs, msgs = s.CartErrors, s.CartMessages
	s.CartErrors, s.CartMessages = nil, nil
	return nonNil(errs), nonNil(msgs)
}

// ConsumeFlash returns and clears the pending page flash.
func (s *State) ConsumeFlash() Flash {
	flash := Flash{Errors: nonNil(s.Flash.Errors), Success: nonNil(s.Flash.Success)}
	s.Flash = Flash{}
	return flash
}

func (s *State) isEmpty() bool {
	return s.User == nil &&
		len(s.Cart) == 0 &&
		len(s.CartErrors) == 0 &&
		len(s.CartMessages) == 0 &&
		len(s.Flash.Errors) == 0 &&
		len(s.Flash.Success) == 0 &&
		s.LastInvoiceID == 0
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
