// internal/oauth/exchange.go
package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AccessToken is the credential returned by the platform's token endpoint.
type AccessToken struct {
	Token string `json:"access_token"`
	Scope string `json:"scope"`
}

// Exchanger swaps an authorization code for an access token. The HTTP
// implementation talks to the tenant's own admin host; tests substitute fakes.
type Exchanger interface {
	Exchange(ctx context.Context, shop, code string) (AccessToken, error)
}

type httpExchanger struct {
	client    *http.Client
	apiKey    string
	apiSecret string
	// scheme is https outside tests
	scheme string
}

func NewHTTPExchanger(apiKey, apiSecret string, timeout time.Duration) Exchanger {
	return &httpExchanger{
		client:    &http.Client{Timeout: timeout},
		apiKey:    apiKey,
		apiSecret: apiSecret,
		scheme:    "https",
	}
}

func (e *httpExchanger) Exchange(ctx context.Context, shop, code string) (AccessToken, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     e.apiKey,
		"client_secret": e.apiSecret,
		"code":          code,
	})
	if err != nil {
		return AccessToken{}, err
	}
	tokenURL := fmt.Sprintf("%s://%s/admin/oauth/access_token", e.scheme, shop)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(payload))
	if err != nil {
		return AccessToken{}, fmt.Errorf("token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return AccessToken{}, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return AccessToken{}, fmt.Errorf("token exchange status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	var tok AccessToken
	if err := json.Unmarshal(body, &tok); err != nil {
		return AccessToken{}, fmt.Errorf("token response decode: %w", err)
	}
	return tok, nil
}
