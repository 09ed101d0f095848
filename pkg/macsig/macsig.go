// pkg/macsig/macsig.go
package macsig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Verifier computes and checks the platform's two MAC schemes with one shared
// secret: sorted-query (hex) for browser redirects and raw-body (base64) for
// webhooks. Verification failure is a normal outcome, never an error.
type Verifier struct {
	secret []byte
}

func New(secret string) Verifier {
	return Verifier{secret: []byte(secret)}
}

// SignQuery canonicalizes the query the way the platform does: remove the
// hmac entry, sort remaining keys bytewise ascending, join k=v pairs with "&".
// Values go in as received; the platform's unescaped concatenation is the
// canonical form even when a value itself contains "&" or "=".
func (v Verifier) SignQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, val := range params[k] {
			parts = append(parts, k+"="+val)
		}
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyQuery checks the hmac parameter against the sorted-query digest.
func (v Verifier) VerifyQuery(params url.Values) bool {
	provided := params.Get("hmac")
	if provided == "" || len(v.secret) == 0 {
		return false
	}
	return hmac.Equal([]byte(v.SignQuery(params)), []byte(provided))
}

// SignBody digests the exact request bytes. Callers must pass the body as
// delivered; parsing and re-serializing first breaks the digest.
func (v Verifier) SignBody(raw []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(raw)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyBody checks the vendor MAC header value against the raw-body digest.
func (v Verifier) VerifyBody(raw []byte, provided string) bool {
	if provided == "" || len(v.secret) == 0 {
		return false
	}
	return hmac.Equal([]byte(v.SignBody(raw)), []byte(provided))
}
