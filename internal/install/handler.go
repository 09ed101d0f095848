// internal/install/handler.go
package install

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"embedgate/pkg/config"
	"embedgate/pkg/tenants"
)

var embeddedPage = template.Must(template.New("embedded").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Handle}}</title>
  <script src="https://cdn.shopify.com/shopifycloud/app-bridge.js" data-api-key="{{.APIKey}}"></script>
</head>
<body>
  <h1>{{.Handle}} is installed</h1>
  <p>Loaded for {{.Shop}}.</p>
</body>
</html>
`))

type Handler struct {
	cfg  config.Config
	log  *zap.SugaredLogger
	urls tenants.URLBuilder
}

func RegisterRoutes(r chi.Router, cfg config.Config, log *zap.SugaredLogger) {
	h := &Handler{
		cfg:  cfg,
		log:  log,
		urls: tenants.URLBuilder{AdminHost: cfg.AdminHost, AppHandle: cfg.AppHandle},
	}
	r.Get("/", h.root)
	r.Get("/app", h.app)
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s oauth backend is running\n", h.cfg.AppHandle)
}

// app translates the navigation decision into a redirect or a rendered body.
// The CSP is set on every response on this route so the admin console can
// frame the page; no frame-blocking header may appear here.
func (h *Handler) app(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := NavRequest{
		Shop:     q.Get("shop"),
		Host:     q.Get("host"),
		MAC:      q.Get("hmac"),
		Embedded: q.Get("embedded"),
	}
	w.Header().Set("Content-Security-Policy",
		fmt.Sprintf("frame-ancestors https://*.%s https://%s;", h.cfg.ShopSuffix, h.cfg.AdminHost))

	slug := tenants.ResolveSlug(req.Shop, req.Host, h.cfg.ShopSuffix)
	target := Decide(req, slug, h.urls)
	switch target.Kind {
	case ConsentRedirect, AppSurfaceRedirect:
		h.log.Infow("app navigation redirect", "shop", req.Shop, "slug", slug, "embedded", req.Embedded, "target", target.Location)
		http.Redirect(w, r, target.Location, http.StatusFound)
	case EmbeddedRender:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := map[string]string{"APIKey": h.cfg.APIKey, "Handle": h.cfg.AppHandle, "Shop": req.Shop}
		if err := embeddedPage.Execute(w, data); err != nil {
			h.log.Warnw("embedded page render", "err", err)
		}
	default:
		// Unroutable request; prefer some response over an error status.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "%s app is installed\n", h.cfg.AppHandle)
	}
}
