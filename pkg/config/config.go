// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Platform app credentials; the secret keys MAC verification and session tokens
	APIKey    string
	APISecret string
	AppHandle string

	// Platform hosts used to build navigation targets
	AdminHost  string // admin console host (admin.shopify.com)
	ShopSuffix string // storefront domain suffix (myshopify.com)

	// Deadline for the outbound access-token exchange call
	ExchangeTimeout time.Duration

	// Optional install gating policy (rego file)
	InstallPolicyPath string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:               env("APP_ENV", "dev"),
		HTTPAddr:          env("HTTP_ADDR", ":"+env("PORT", "3000")),
		APIKey:            env("SHOPIFY_API_KEY", ""),
		APISecret:         env("SHOPIFY_API_SECRET", ""),
		AppHandle:         env("APP_HANDLE", "embedgate"),
		AdminHost:         env("PLATFORM_ADMIN_HOST", "admin.shopify.com"),
		ShopSuffix:        env("PLATFORM_SHOP_SUFFIX", "myshopify.com"),
		ExchangeTimeout:   envDur("EXCHANGE_TIMEOUT_SEC", 10) * time.Second,
		InstallPolicyPath: env("INSTALL_POLICY_PATH", ""),
		RedisURL:          env("REDIS_URL", ""),
		DatabaseURL:       env("DATABASE_URL", ""),
	}
	if cfg.APISecret == "" {
		log.Println("[WARN] SHOPIFY_API_SECRET not set, all MAC verification will fail")
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set, using in-memory token store")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil && i > 0 {
			return time.Duration(i)
		}
	}
	return time.Duration(def)
}
