// pkg/tenants/slug.go
package tenants

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

// ResolveSlug derives the storefront slug for a tenant. The host token, when
// present and decodable, wins; otherwise the shop domain minus the platform
// suffix. Returns "" when neither source yields a slug.
func ResolveSlug(shopDomain, hostToken, shopSuffix string) string {
	if slug := slugFromHostToken(hostToken); slug != "" {
		return slug
	}
	if shopDomain == "" {
		return ""
	}
	return strings.TrimSuffix(shopDomain, "."+shopSuffix)
}

// slugFromHostToken decodes the opaque platform host token: base64 text of the
// admin URL for the store, e.g. "admin.shopify.com/store/acme". A malformed
// token is not an error, only "no slug from this source".
func slugFromHostToken(token string) string {
	if token == "" {
		return ""
	}
	raw, err := decodeBase64(token)
	if err != nil {
		return ""
	}
	decoded := string(raw)
	if !strings.HasPrefix(decoded, "https://") && !strings.HasPrefix(decoded, "http://") {
		decoded = "https://" + decoded
	}
	u, err := url.Parse(decoded)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segs {
		if seg == "store" && i+1 < len(segs) && segs[i+1] != "" {
			return segs[i+1]
		}
	}
	return ""
}

// The platform emits both padded and unpadded tokens depending on surface.
func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("not base64")
}
