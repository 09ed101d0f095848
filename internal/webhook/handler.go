// internal/webhook/handler.go
package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	jmes "github.com/jmespath/go-jmespath"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"embedgate/pkg/macsig"
)

const (
	macHeader      = "X-Shopify-Hmac-Sha256"
	deliveryHeader = "X-Shopify-Webhook-Id"
	maxBody        = 1 << 20
	dedupeTTL      = 24 * time.Hour
)

var webhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "embedgate_webhooks_total",
	Help: "Compliance webhook deliveries by topic and result.",
}, []string{"topic", "result"})

// Handler acknowledges the platform's mandatory compliance webhooks. The only
// contract here is never acknowledging an unauthenticated notification; the
// actual export/erasure work belongs to a downstream collaborator.
type Handler struct {
	log      *zap.SugaredLogger
	verifier macsig.Verifier
	rdb      *redis.Client // optional duplicate suppression
}

func RegisterRoutes(r chi.Router, log *zap.SugaredLogger, verifier macsig.Verifier, rdb *redis.Client) {
	h := &Handler{log: log, verifier: verifier, rdb: rdb}
	r.Post("/webhooks/customers/data_request", h.compliance("customers/data_request"))
	r.Post("/webhooks/customers/redact", h.compliance("customers/redact"))
	r.Post("/webhooks/shop/redact", h.compliance("shop/redact"))
}

func (h *Handler) compliance(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Capture the body as delivered, before any content-type parsing.
		// The platform does not guarantee application/json and the digest
		// is over the exact bytes.
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			webhooksTotal.WithLabelValues(topic, "unreadable").Inc()
			http.Error(w, "invalid webhook", http.StatusUnauthorized)
			return
		}
		if !h.verifier.VerifyBody(raw, r.Header.Get(macHeader)) {
			webhooksTotal.WithLabelValues(topic, "rejected").Inc()
			h.log.Warnw("webhook hmac mismatch", "topic", topic)
			http.Error(w, "invalid webhook hmac", http.StatusUnauthorized)
			return
		}

		if id := r.Header.Get(deliveryHeader); id != "" && h.rdb != nil {
			fresh, err := h.rdb.SetNX(r.Context(), "webhook:"+id, 1, dedupeTTL).Result()
			if err == nil && !fresh {
				// Redelivery of an already-acknowledged notification.
				webhooksTotal.WithLabelValues(topic, "duplicate").Inc()
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		h.log.Infow("compliance webhook acknowledged", "topic", topic, "shop", shopDomain(raw))
		webhooksTotal.WithLabelValues(topic, "accepted").Inc()
		w.WriteHeader(http.StatusOK)
	}
}

// shopDomain pulls shop_domain out of the payload for the acknowledgement
// log. Payload shape varies per topic; a miss is fine.
func shopDomain(raw []byte) string {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	v, err := jmes.Search("shop_domain", payload)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
