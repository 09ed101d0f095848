package tokens

import (
	"context"
	"errors"
	"time"
)

// ShopToken is the credential obtained from a completed install.
type ShopToken struct {
	Shop        string // full tenant domain (acme.myshopify.com)
	Slug        string
	AccessToken string
	Scope       string
	InstalledAt time.Time
}

var ErrNotFound = errors.New("token not found")

// Store persists access tokens per tenant. The install flow treats a failed
// Save as non-fatal; readers get ErrNotFound for unknown shops.
type Store interface {
	Save(ctx context.Context, t ShopToken) error
	Get(ctx context.Context, shop string) (ShopToken, error)
}
