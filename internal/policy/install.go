// internal/policy/install.go
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// InstallGate evaluates an operator-supplied rego module before any token
// exchange. The entrypoint is data.install.allow with {shop, slug} as input.
type InstallGate struct {
	query rego.PreparedEvalQuery
}

// LoadInstallGate prepares the policy once at startup. An empty path means no
// gating: the caller gets a nil gate and skips the check.
func LoadInstallGate(path string) (*InstallGate, error) {
	if path == "" {
		return nil, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("install policy read: %w", err)
	}
	r := rego.New(
		rego.Query("data.install.allow"),
		rego.Module("install.rego", string(src)),
	)
	pq, err := r.PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("install policy compile: %w", err)
	}
	return &InstallGate{query: pq}, nil
}

// Allow returns false on any evaluation problem; gating fails closed.
func (g *InstallGate) Allow(ctx context.Context, shop, slug string) bool {
	rs, err := g.query.Eval(ctx, rego.EvalInput(map[string]any{"shop": shop, "slug": slug}))
	if err != nil || len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false
	}
	allowed, _ := rs[0].Expressions[0].Value.(bool)
	return allowed
}
