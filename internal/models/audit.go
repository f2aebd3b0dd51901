package models

import "time"

// ExecutionAuditRecord is one immutable row describing an attempted action.
// Only RollbackStatus, RolledBackAt, and Message may change after insert,
// and only via the rollback-status update path.
type ExecutionAuditRecord struct {
	AuditID             string                 `json:"audit_id"`
	ExecutionID         string                 `json:"execution_id"`
	RunID               string                 `json:"run_id"`
	RecommendationID    string                 `json:"recommendation_id"`
	RecommendationType  RecommendationType     `json:"recommendation_type"`
	Bucket              string                 `json:"bucket"`
	Key                 *string                `json:"key,omitempty"`
	ActionStatus        ActionStatus           `json:"action_status"`
	Message             string                 `json:"message"`
	RiskLevel           RiskLevel              `json:"risk_level"`
	RequiresApproval    bool                   `json:"requires_approval"`
	Permitted           bool                   `json:"permitted"`
	RequiredPermissions []string               `json:"required_permissions"`
	MissingPermissions  []string               `json:"missing_permissions"`
	Simulated           bool                   `json:"simulated"`
	PreChangeState      map[string]interface{} `json:"pre_change_state"`
	PostChangeState     map[string]interface{} `json:"post_change_state,omitempty"`
	RollbackAvailable   bool                   `json:"rollback_available"`
	RollbackStatus      RollbackStatus         `json:"rollback_status"`
	RolledBackAt        *time.Time             `json:"rolled_back_at,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
}
