package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"embedgate/internal/api"
	"embedgate/pkg/config"
	"embedgate/pkg/logger"
	"embedgate/pkg/tokens"
)

func apiConfig() config.Config {
	return config.Config{
		APIKey:     "client-id",
		APISecret:  "topsecret",
		ShopSuffix: "example-platform.com",
	}
}

func bearerFor(t *testing.T, shop string) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Audience([]string{"client-id"}).
		Claim("dest", "https://"+shop).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Minute)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("topsecret")))
	require.NoError(t, err)
	return "Bearer " + string(signed)
}

func TestSessionEndpoint(t *testing.T) {
	store := tokens.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), tokens.ShopToken{
		Shop:        "acme.example-platform.com",
		Slug:        "acme",
		AccessToken: "shpat_abc",
	}))

	r := chi.NewRouter()
	api.RegisterRoutes(r, apiConfig(), logger.Nop(), store)

	t.Run("installed shop", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.Header.Set("Authorization", bearerFor(t, "acme.example-platform.com"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, "acme.example-platform.com", got["shop"])
		require.Equal(t, "acme", got["slug"])
		require.Equal(t, true, got["installed"])
	})

	t.Run("unknown shop", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.Header.Set("Authorization", bearerFor(t, "globex.example-platform.com"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, false, got["installed"])
	})

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
