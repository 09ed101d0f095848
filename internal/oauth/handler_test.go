package oauth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"embedgate/internal/policy"
	"embedgate/pkg/config"
	"embedgate/pkg/logger"
	"embedgate/pkg/macsig"
	"embedgate/pkg/tokens"
)

type fakeExchanger struct {
	calls int
	tok   AccessToken
	err   error
}

func (f *fakeExchanger) Exchange(ctx context.Context, shop, code string) (AccessToken, error) {
	f.calls++
	return f.tok, f.err
}

func testConfig() config.Config {
	return config.Config{
		APIKey:          "client-id",
		APISecret:       "topsecret",
		AppHandle:       "demo",
		AdminHost:       "admin.example-platform.com",
		ShopSuffix:      "example-platform.com",
		ExchangeTimeout: 2 * time.Second,
	}
}

func newCallbackRouter(cfg config.Config, ex Exchanger, store tokens.Store, gate *policy.InstallGate) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, cfg, logger.Nop(), macsig.New(cfg.APISecret), ex, store, gate)
	return r
}

func signedQuery(t *testing.T, secret string, kv map[string]string) url.Values {
	t.Helper()
	q := url.Values{}
	for k, v := range kv {
		q.Set(k, v)
	}
	q.Set("hmac", macsig.New(secret).SignQuery(q))
	return q
}

func getCallback(router http.Handler, q url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil))
	return w
}

func TestCallbackMissingParams(t *testing.T) {
	ex := &fakeExchanger{tok: AccessToken{Token: "at"}}
	router := newCallbackRouter(testConfig(), ex, tokens.NewMemoryStore(), nil)

	for _, q := range []url.Values{
		{},
		{"shop": {"acme.example-platform.com"}, "hmac": {"deadbeef"}}, // no code
		{"shop": {"acme.example-platform.com"}, "code": {"abc"}},      // no hmac
		{"code": {"abc"}, "hmac": {"deadbeef"}},                       // no shop
	} {
		w := getCallback(router, q)
		require.Equal(t, http.StatusBadRequest, w.Code)
	}
	require.Zero(t, ex.calls, "no outbound call may happen before validation")
}

func TestCallbackBadMAC(t *testing.T) {
	ex := &fakeExchanger{tok: AccessToken{Token: "at"}}
	router := newCallbackRouter(testConfig(), ex, tokens.NewMemoryStore(), nil)

	q := signedQuery(t, "topsecret", map[string]string{"shop": "acme.example-platform.com", "code": "abc"})
	q.Set("hmac", "0000"+q.Get("hmac")[4:])

	w := getCallback(router, q)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Zero(t, ex.calls)
}

func TestCallbackSuccess(t *testing.T) {
	ex := &fakeExchanger{tok: AccessToken{Token: "at-123", Scope: "read_products"}}
	store := tokens.NewMemoryStore()
	router := newCallbackRouter(testConfig(), ex, store, nil)

	host := base64.StdEncoding.EncodeToString([]byte("admin.example-platform.com/store/acme"))
	q := signedQuery(t, "topsecret", map[string]string{
		"shop": "acme.example-platform.com",
		"code": "abc",
		"host": host,
	})

	w := getCallback(router, q)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, 1, ex.calls)

	// Post-authorization navigation always targets the app surface, with the
	// context token carried forward.
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "admin.example-platform.com", loc.Host)
	require.Equal(t, "/store/acme/apps/demo", loc.Path)
	require.Equal(t, host, loc.Query().Get("host"))

	saved, err := store.Get(context.Background(), "acme.example-platform.com")
	require.NoError(t, err)
	require.Equal(t, "at-123", saved.AccessToken)
	require.Equal(t, "acme", saved.Slug)
}

func TestCallbackExchangeTransportError(t *testing.T) {
	ex := &fakeExchanger{err: errors.New("connection refused")}
	router := newCallbackRouter(testConfig(), ex, tokens.NewMemoryStore(), nil)

	q := signedQuery(t, "topsecret", map[string]string{"shop": "acme.example-platform.com", "code": "abc"})
	w := getCallback(router, q)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, ex.calls)
}

func TestCallbackExchangeWithoutToken(t *testing.T) {
	ex := &fakeExchanger{tok: AccessToken{}}
	router := newCallbackRouter(testConfig(), ex, tokens.NewMemoryStore(), nil)

	q := signedQuery(t, "topsecret", map[string]string{"shop": "acme.example-platform.com", "code": "abc"})
	w := getCallback(router, q)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, ex.calls)
}

func TestCallbackPolicyDenied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "install.rego")
	src := `package install

default allow = false

allow {
	input.shop == "good.example-platform.com"
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	gate, err := policy.LoadInstallGate(path)
	require.NoError(t, err)

	ex := &fakeExchanger{tok: AccessToken{Token: "at"}}
	router := newCallbackRouter(testConfig(), ex, tokens.NewMemoryStore(), gate)

	q := signedQuery(t, "topsecret", map[string]string{"shop": "bad.example-platform.com", "code": "abc"})
	w := getCallback(router, q)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Zero(t, ex.calls)

	allowed := signedQuery(t, "topsecret", map[string]string{"shop": "good.example-platform.com", "code": "abc"})
	w = getCallback(router, allowed)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, 1, ex.calls)
}
