package auth

import "github.com/golang-jwt/jwt/v5"

// SessionTokenClaims is the payload of the session cookie. The registered ID
// (jti) is the server-side session identifier; everything else about the
// visitor lives in the session store.
type SessionTokenClaims struct {
	jwt.RegisteredClaims
}

// SessionID returns the session identifier carried by the token.
func (c *SessionTokenClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}
