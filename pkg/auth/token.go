package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/freshmart/storefront-backend/pkg/config"
)

var (
	ErrNoSecret     = errors.New("session secret is required")
	ErrNoSessionID  = errors.New("session id is required")
	ErrMissingJTI   = errors.New("session token carries no jti")
	signingMethod   = jwt.SigningMethodHS256
	clockSkewLeeway = 5 * time.Second
)

func checkConfig(cfg config.SessionConfig) error {
	switch {
	case cfg.Secret == "":
		return ErrNoSecret
	case cfg.Issuer == "":
		return errors.New("session issuer is required")
	case cfg.TTL <= 0:
		return fmt.Errorf("session ttl must be positive, got %s", cfg.TTL)
	}
	return nil
}

// MintSessionToken signs the cookie value for sessionID. The token only names
// the session; its contents live in redis.
func MintSessionToken(cfg config.SessionConfig, now time.Time, sessionID string) (string, error) {
	if err := checkConfig(cfg); err != nil {
		return "", err
	}
	if sessionID = strings.TrimSpace(sessionID); sessionID == "" {
		return "", ErrNoSessionID
	}
	claims := &SessionTokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        sessionID,
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
	}}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken checks signature, issuer and expiry, then returns the claims.
func ParseSessionToken(cfg config.SessionConfig, raw string) (*SessionTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	claims := &SessionTokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkewLeeway),
	)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrMissingJTI
	}
	return claims, nil
}
