// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"embedgate/pkg/config"
	"embedgate/pkg/middleware"
	"embedgate/pkg/tenants"
	"embedgate/pkg/tokens"
)

// Handler serves the embedded admin UI's backend calls, authenticated with
// platform session tokens rather than cookies.
type Handler struct {
	cfg   config.Config
	log   *zap.SugaredLogger
	store tokens.Store
}

func RegisterRoutes(r chi.Router, cfg config.Config, log *zap.SugaredLogger, store tokens.Store) {
	h := &Handler{cfg: cfg, log: log, store: store}
	r.Route("/api", func(ar chi.Router) {
		ar.Use(middleware.SessionAuth(cfg))
		ar.Get("/session", h.session)
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	shop := middleware.SessionShopFrom(r.Context())
	slug := tenants.ResolveSlug(shop, "", h.cfg.ShopSuffix)

	installed := false
	if h.store != nil {
		if _, err := h.store.Get(r.Context(), shop); err == nil {
			installed = true
		} else if !errors.Is(err, tokens.ErrNotFound) {
			h.log.Warnw("token store lookup failed", "shop", shop, "err", err)
		}
	}

	writeJSON(w, map[string]any{"shop": shop, "slug": slug, "installed": installed}, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
