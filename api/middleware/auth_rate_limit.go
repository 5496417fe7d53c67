package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/freshmart/storefront-backend/api/responses"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
)

// MsgTooManyAttempts is flashed on the form page when a limit trips.
const MsgTooManyAttempts = "Too many attempts. Please wait a moment and try again."

// identity bodies are tiny; anything larger is not a login form
const maxIdentityBody = 16 << 10

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy bounds attempts per client IP and per submitted identity
// (email on register, username or email on login) inside one fixed window.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int64
	identityLimit int64
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, identityLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: int64(ipLimit), identityLimit: int64(identityLimit)}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.identityLimit > 0)
}

type limitCheck struct {
	scope string
	key   string
	limit int64
}

func (p AuthRateLimitPolicy) checks(ip, identity string) []limitCheck {
	var out []limitCheck
	if p.ipLimit > 0 && ip != "" {
		out = append(out, limitCheck{scope: "ip", key: p.name + ":ip:" + ip, limit: p.ipLimit})
	}
	if p.identityLimit > 0 && identity != "" {
		sum := sha256.Sum256([]byte(identity))
		out = append(out, limitCheck{scope: "identity", key: p.name + ":id:" + hex.EncodeToString(sum[:]), limit: p.identityLimit})
	}
	return out
}

// AuthRateLimit throttles auth form posts. A blocked visitor with a session is
// sent back to the form with MsgTooManyAttempts; other clients get a 429.
// Limiter failures are logged and the request goes through.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := ""
			if policy.identityLimit > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxIdentityBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				identity = submittedIdentity(body)
			}

			for _, check := range policy.checks(clientIP(r), identity) {
				allowed, attempts, err := limiter.FixedWindowAllow(ctx, check.key, check.limit, policy.window)
				if err != nil {
					logg.Error(logg.WithField(ctx, "policy", policy.name), "auth.rate_limit.unavailable", err)
					break
				}
				if !allowed {
					blocked(w, r, logg, policy, check, attempts)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func blocked(w http.ResponseWriter, r *http.Request, logg *logger.Logger, policy AuthRateLimitPolicy, check limitCheck, attempts int64) {
	ctx := logg.WithFields(r.Context(), map[string]any{
		"policy":   policy.name,
		"scope":    check.scope,
		"attempts": attempts,
		"limit":    check.limit,
	})
	logg.Warn(ctx, "auth.rate_limit.blocked")

	w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
	if sess := SessionFromContext(r.Context()); sess != nil {
		sess.State.AddError(MsgTooManyAttempts)
		responses.Redirect(w, r, r.URL.Path)
		return
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, MsgTooManyAttempts))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func submittedIdentity(body []byte) string {
	var form struct {
		Email      string `json:"email"`
		Identifier string `json:"identifier"`
		Username   string `json:"username"`
	}
	if json.Unmarshal(body, &form) != nil {
		return ""
	}
	for _, v := range []string{form.Email, form.Identifier, form.Username} {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			return v
		}
	}
	return ""
}
