// Package admission evaluates the generated permission policy against an
// action's required-permissions input. The policy is compiled once at
// startup into a prepared rego.PreparedEvalQuery and evaluated many times;
// there is no bundle server to poll, so there is no reload path.
package admission

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/coldstore/sentinel/internal/policygen"
)

// Engine holds a prepared Rego query for the current granted-permission
// set. Rebuilding it is cheap; callers typically build one per process
// start from the loaded ExecutorPolicy.
type Engine struct {
	query rego.PreparedEvalQuery
}

// New compiles the admission policy generated from grantedPermissions.
func New(ctx context.Context, grantedPermissions []string) (*Engine, error) {
	module := policygen.GenerateAdmissionPolicy(grantedPermissions)

	query, err := rego.New(
		rego.Query(fmt.Sprintf("data.%s", policygen.ModulePackage())),
		rego.Module("admission.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile admission policy: %w", err)
	}
	return &Engine{query: query}, nil
}

// decision mirrors the shape of the compiled Rego module's package object.
type decision struct {
	Allow   bool     `json:"allow"`
	Missing []string `json:"missing"`
}

// Evaluate reports whether requiredPermissions are all covered by the
// granted set the Engine was built with, and which ones are missing when
// they are not.
func (e *Engine) Evaluate(ctx context.Context, requiredPermissions []string) (allowed bool, missing []string, err error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"required_permissions": requiredPermissions,
	}))
	if err != nil {
		return false, nil, fmt.Errorf("evaluate admission policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, requiredPermissions, nil
	}

	raw, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return false, requiredPermissions, nil
	}

	var d decision
	if allow, ok := raw["allow"].(bool); ok {
		d.Allow = allow
	}
	if missingRaw, ok := raw["missing"].([]interface{}); ok {
		for _, m := range missingRaw {
			if s, ok := m.(string); ok {
				d.Missing = append(d.Missing, s)
			}
		}
	}
	return d.Allow, d.Missing, nil
}
