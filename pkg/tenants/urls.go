// pkg/tenants/urls.go
package tenants

import (
	"net/url"
)

// URLBuilder builds the platform-hosted navigation targets for a tenant.
type URLBuilder struct {
	AdminHost string // admin.shopify.com
	AppHandle string
}

// GrantURL is the top-level consent surface; the platform sets its first-party
// cookies there before the embedded surface is allowed to load.
func (b URLBuilder) GrantURL(slug, shop, hostToken string) string {
	q := url.Values{}
	if shop != "" {
		q.Set("shop", shop)
	}
	if hostToken != "" {
		q.Set("host", hostToken)
	}
	target := "https://" + b.AdminHost + "/store/" + slug + "/app/grant"
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	return target
}

// AppSurfaceURL is the hosted application surface inside the admin console.
// The host token is forwarded when present so the UI loads with full context.
func (b URLBuilder) AppSurfaceURL(slug, hostToken string) string {
	target := "https://" + b.AdminHost + "/store/" + slug + "/apps/" + b.AppHandle
	if hostToken != "" {
		target += "?host=" + url.QueryEscape(hostToken)
	}
	return target
}
