// cmd/embedgate/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"embedgate/internal/api"
	"embedgate/internal/install"
	"embedgate/internal/oauth"
	"embedgate/internal/policy"
	"embedgate/internal/webhook"
	"embedgate/pkg/config"
	"embedgate/pkg/db"
	"embedgate/pkg/logger"
	"embedgate/pkg/macsig"
	"embedgate/pkg/middleware"
	"embedgate/pkg/tokens"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var store tokens.Store
	if pool != nil {
		if err := tokens.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("token schema", "err", err)
		}
		store = tokens.NewPostgresStore(pool, log)
	} else {
		store = tokens.NewMemoryStore()
	}

	gate, err := policy.LoadInstallGate(cfg.InstallPolicyPath)
	if err != nil {
		log.Fatalw("install policy", "path", cfg.InstallPolicyPath, "err", err)
	}
	if gate != nil {
		log.Infow("install policy active", "path", cfg.InstallPolicyPath)
	}

	verifier := macsig.New(cfg.APISecret)
	exchanger := oauth.NewHTTPExchanger(cfg.APIKey, cfg.APISecret, cfg.ExchangeTimeout)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	install.RegisterRoutes(r, cfg, log)
	oauth.RegisterRoutes(r, cfg, log, verifier, exchanger, store, gate)
	webhook.RegisterRoutes(r, log, verifier, rdb)
	api.RegisterRoutes(r, cfg, log, store)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("embedgate listening", "addr", cfg.HTTPAddr, "handle", cfg.AppHandle)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("embedgate stopped")
}
