// internal/oauth/handler.go
package oauth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"embedgate/internal/policy"
	"embedgate/pkg/config"
	"embedgate/pkg/macsig"
	"embedgate/pkg/tenants"
	"embedgate/pkg/tokens"
)

var callbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "embedgate_oauth_callbacks_total",
	Help: "Authorization callback outcomes.",
}, []string{"outcome"})

// Handler drives the authorization callback: validate, exchange, redirect.
// One pass per request, no retries; the browser reload is the retry path.
type Handler struct {
	cfg       config.Config
	log       *zap.SugaredLogger
	verifier  macsig.Verifier
	exchanger Exchanger
	store     tokens.Store
	gate      *policy.InstallGate
	urls      tenants.URLBuilder
}

func RegisterRoutes(r chi.Router, cfg config.Config, log *zap.SugaredLogger, verifier macsig.Verifier, exchanger Exchanger, store tokens.Store, gate *policy.InstallGate) {
	h := &Handler{
		cfg:       cfg,
		log:       log,
		verifier:  verifier,
		exchanger: exchanger,
		store:     store,
		gate:      gate,
		urls:      tenants.URLBuilder{AdminHost: cfg.AdminHost, AppHandle: cfg.AppHandle},
	}
	r.Get("/auth/callback", h.callback)
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shop := q.Get("shop")
	code := q.Get("code")
	mac := q.Get("hmac")
	hostToken := q.Get("host")

	if shop == "" || code == "" || mac == "" {
		callbacksTotal.WithLabelValues("missing_params").Inc()
		http.Error(w, "missing required oauth params", http.StatusBadRequest)
		return
	}
	// The host token is an ordinary canonicalized parameter; only hmac itself
	// is excluded from the digest.
	if !h.verifier.VerifyQuery(q) {
		callbacksTotal.WithLabelValues("hmac_invalid").Inc()
		h.log.Warnw("callback hmac mismatch", "shop", shop)
		http.Error(w, "hmac invalid", http.StatusUnauthorized)
		return
	}

	slug := tenants.ResolveSlug(shop, hostToken, h.cfg.ShopSuffix)
	if h.gate != nil && !h.gate.Allow(r.Context(), shop, slug) {
		callbacksTotal.WithLabelValues("policy_denied").Inc()
		h.log.Warnw("install denied by policy", "shop", shop, "slug", slug)
		http.Error(w, "install not permitted", http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.ExchangeTimeout)
	defer cancel()
	tok, err := h.exchanger.Exchange(ctx, shop, code)
	if err != nil {
		callbacksTotal.WithLabelValues("exchange_error").Inc()
		h.log.Errorw("token exchange failed", "shop", shop, "err", err)
		http.Error(w, "oauth exchange failed", http.StatusInternalServerError)
		return
	}
	if tok.Token == "" {
		callbacksTotal.WithLabelValues("exchange_empty").Inc()
		h.log.Errorw("token exchange returned no token", "shop", shop)
		http.Error(w, "failed to obtain access token", http.StatusInternalServerError)
		return
	}

	if h.store != nil {
		saved := tokens.ShopToken{Shop: shop, Slug: slug, AccessToken: tok.Token, Scope: tok.Scope}
		if err := h.store.Save(ctx, saved); err != nil {
			// Durability is best-effort at this hop; the install still completes.
			h.log.Warnw("token store save failed", "shop", shop, "err", err)
		}
	}

	callbacksTotal.WithLabelValues("ok").Inc()
	h.log.Infow("install authorized", "shop", shop, "slug", slug)
	http.Redirect(w, r, h.urls.AppSurfaceURL(slug, hostToken), http.StatusFound)
}
