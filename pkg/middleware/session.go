// pkg/middleware/session.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"embedgate/pkg/config"
)

type sessionCtxKey struct{}

// SessionAuth validates embedded-app session tokens. The platform signs them
// HS256 with the app's shared secret; aud is the app's client id and dest
// carries the shop origin. The resolved shop domain is stored in context.
func SessionAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimSpace(authz[len("Bearer "):])
			if cfg.APISecret == "" {
				http.Error(w, "auth not configured", http.StatusInternalServerError)
				return
			}
			parseOpts := []jwt.ParseOption{
				jwt.WithKey(jwa.HS256, []byte(cfg.APISecret)),
				jwt.WithValidate(true),
				jwt.WithAcceptableSkew(10 * time.Second),
			}
			if cfg.APIKey != "" {
				parseOpts = append(parseOpts, jwt.WithAudience(cfg.APIKey))
			}
			tok, err := jwt.Parse([]byte(raw), parseOpts...)
			if err != nil {
				http.Error(w, "invalid session token", http.StatusUnauthorized)
				return
			}
			shop := shopFromDest(tok)
			if shop == "" {
				http.Error(w, "invalid session token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, shop)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionShopFrom returns the shop domain of the verified session token.
func SessionShopFrom(ctx context.Context) string {
	if v := ctx.Value(sessionCtxKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func shopFromDest(tok jwt.Token) string {
	v, ok := tok.Get("dest")
	if !ok {
		return ""
	}
	dest, _ := v.(string)
	dest = strings.TrimPrefix(dest, "https://")
	dest = strings.TrimPrefix(dest, "http://")
	if i := strings.Index(dest, "/"); i > 0 {
		dest = dest[:i]
	}
	return dest
}
