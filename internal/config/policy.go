package config

import "time"

// ExecutorPolicy is the admission-control configuration. Its
// GrantedPermissions are rendered by internal/policygen into the Rego module
// internal/admission evaluates; the executor reads every other field
// directly (destructive guard, max actions, failure threshold, rate
// limiting).
type ExecutorPolicy struct {
	GrantedPermissions  []string
	AllowDestructive    bool
	MaxFailures         int
	MaxActions          int
	DelayBetweenActions time.Duration
	DelayAfterFailure   time.Duration
}

// HasPermission reports whether perm is in the granted set.
func (e ExecutorPolicy) HasPermission(perm string) bool {
	for _, p := range e.GrantedPermissions {
		if p == perm {
			return true
		}
	}
	return false
}

// MissingPermissions returns the subset of required not present in the
// granted set, preserving the order of required.
func (e ExecutorPolicy) MissingPermissions(required []string) []string {
	var missing []string
	for _, r := range required {
		if !e.HasPermission(r) {
			missing = append(missing, r)
		}
	}
	return missing
}

func loadExecutorPolicy() ExecutorPolicy {
	return ExecutorPolicy{
		GrantedPermissions:  getEnvStringList("GRANTED_PERMISSIONS"),
		AllowDestructive:    isExactlyTrue(getEnv("ALLOW_DESTRUCTIVE_EXECUTION", "false")),
		MaxFailures:         getEnvInt("MAX_FAILURES", 5),
		MaxActions:          getEnvInt("MAX_ACTIONS", 100),
		DelayBetweenActions: time.Duration(getEnvInt("DELAY_BETWEEN_ACTIONS_MS", 0)) * time.Millisecond,
		DelayAfterFailure:   time.Duration(getEnvInt("DELAY_AFTER_FAILURE_MS", 0)) * time.Millisecond,
	}
}
