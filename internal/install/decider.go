// internal/install/decider.go
package install

import (
	"embedgate/pkg/tenants"
)

// TargetKind enumerates the navigation outcomes for an /app request.
type TargetKind int

const (
	ConsentRedirect TargetKind = iota
	AppSurfaceRedirect
	EmbeddedRender
	FallbackRender
)

// NavigationTarget is the decider's output; Location is set for redirects.
type NavigationTarget struct {
	Kind     TargetKind
	Location string
}

// NavRequest carries the raw /app query parameters.
type NavRequest struct {
	Shop     string // tenant domain (shop)
	Host     string // opaque context token (host)
	MAC      string // hmac, presence only; the platform's probe sequence keys on it
	Embedded string // "1" when already inside the iframe
}

// Decide picks the next navigation step. First matching rule wins and the
// order is part of the platform's install verification contract: the consent
// rules must precede the app-surface rule, because a request carrying a MAC
// (or arriving outside the iframe) needs the top-level grant surface to set
// first-party cookies before the embedded surface may load.
func Decide(req NavRequest, slug string, urls tenants.URLBuilder) NavigationTarget {
	switch {
	case slug != "" && req.Shop != "" && req.Host != "" && req.MAC != "":
		return NavigationTarget{Kind: ConsentRedirect, Location: urls.GrantURL(slug, req.Shop, req.Host)}
	case slug != "" && req.Shop != "" && req.Host != "" && req.Embedded != "1":
		return NavigationTarget{Kind: ConsentRedirect, Location: urls.GrantURL(slug, req.Shop, req.Host)}
	case req.Embedded == "1":
		return NavigationTarget{Kind: EmbeddedRender}
	case slug != "" && req.Shop != "":
		return NavigationTarget{Kind: AppSurfaceRedirect, Location: urls.AppSurfaceURL(slug, req.Host)}
	default:
		return NavigationTarget{Kind: FallbackRender}
	}
}
