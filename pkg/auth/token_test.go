package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/storefront-backend/pkg/config"
)

func sessionCfg() config.SessionConfig {
	return config.SessionConfig{Secret: "secret", Issuer: "storefront", TTL: time.Hour}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := sessionCfg()
	id := uuid.NewString()

	token, err := MintSessionToken(cfg, time.Now(), " "+id+" ")
	require.NoError(t, err)

	claims, err := ParseSessionToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.SessionID())
	assert.Equal(t, "storefront", claims.Issuer)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestParseSessionTokenRejects(t *testing.T) {
	t.Parallel()
	cfg := sessionCfg()
	token, err := MintSessionToken(cfg, time.Now(), "abc")
	require.NoError(t, err)
	expired, err := MintSessionToken(cfg, time.Now().Add(-2*time.Hour), "abc")
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	otherSecret, otherIssuer := cfg, cfg
	otherSecret.Secret = "different"
	otherIssuer.Issuer = "someone-else"

	cases := map[string]struct {
		cfg   config.SessionConfig
		token string
	}{
		"wrong secret":  {otherSecret, token},
		"wrong issuer":  {otherIssuer, token},
		"bad signature": {cfg, parts[0] + "." + parts[1] + ".bogus"},
		"expired":       {cfg, expired},
		"garbage":       {cfg, "not-a-token"},
	}
	for name, tc := range cases {
		_, err := ParseSessionToken(tc.cfg, tc.token)
		assert.Error(t, err, name)
	}
}

func TestParseSessionTokenRequiresJTI(t *testing.T) {
	t.Parallel()
	cfg := sessionCfg()
	now := time.Now()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionTokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}}).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseSessionToken(cfg, raw)
	require.ErrorIs(t, err, ErrMissingJTI)
}

func TestMintSessionTokenValidatesInput(t *testing.T) {
	t.Parallel()
	cfg := sessionCfg()
	_, err := MintSessionToken(cfg, time.Now(), "  ")
	require.ErrorIs(t, err, ErrNoSessionID)

	noSecret := cfg
	noSecret.Secret = ""
	_, err = MintSessionToken(noSecret, time.Now(), "abc")
	require.ErrorIs(t, err, ErrNoSecret)

	noTTL := cfg
	noTTL.TTL = 0
	_, err = MintSessionToken(noTTL, time.Now(), "abc")
	require.Error(t, err)
}
