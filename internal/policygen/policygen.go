// Package policygen renders the executor's granted-permission set into a
// Rego module: config in, a self-contained Rego string out, no AST
// building.
package policygen

import (
	"fmt"
	"strings"
)

const modulePackage = "coldstore.admission"

// GenerateAdmissionPolicy renders a Rego module that decides, for a given
// action's required permissions, whether the granted set covers all of
// them. input is expected to look like:
//
//	{"required_permissions": ["s3:GetObject", "s3:PutObject"]}
//
// and the module exposes `allow` (bool) and `missing` (array of the
// permissions in required_permissions not present in the granted set).
func GenerateAdmissionPolicy(grantedPermissions []string) string {
	set := formatStringSet(grantedPermissions)

	return fmt.Sprintf(`package %s

granted := %s

missing := [p |
	p := input.required_permissions[_]
	not granted[p]
]

default allow = false

allow {
	count(missing) == 0
}
`, modulePackage, set)
}

// formatStringSet renders a Rego set literal, e.g. {"a", "b"}.
func formatStringSet(items []string) string {
	if len(items) == 0 {
		return "{}"
	}
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

// ModulePackage is the Rego package name the generated module declares,
// used by internal/admission to address the `allow`/`missing` rules.
func ModulePackage() string { return modulePackage }
