package store

import "time"

// RunRow is the GORM-mapped row backing the runs table. Every nested
// structure (recommendations, scores, savings, execution) is marshaled to
// JSON text and stored in a gorm:"type:text" column rather than normalized
// into child tables.
type RunRow struct {
	RunID               string `gorm:"column:run_id;primaryKey"`
	Status              string `gorm:"column:status;not null"`
	RecommendationsJSON string `gorm:"column:recommendations_json;type:text"`
	ScoresJSON          string `gorm:"column:scores_json;type:text"`
	SavingsDetailsJSON  string `gorm:"column:savings_details_json;type:text"`
	SavingsSummaryJSON  string `gorm:"column:savings_summary_json;type:text"`
	ExecutionJSON       string `gorm:"column:execution_json;type:text"`
	ScanErrorsJSON      string `gorm:"column:scan_errors_json;type:text"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at;index:idx_runs_updated_at,sort:desc"`
}

func (RunRow) TableName() string { return "runs" }

// AuditRow is the GORM-mapped row backing the execution_audit table.
type AuditRow struct {
	AuditID             string     `gorm:"column:audit_id;primaryKey"`
	ExecutionID         string     `gorm:"column:execution_id;index:idx_audit_execution_id"`
	RunID               string     `gorm:"column:run_id;index:idx_audit_run_created"`
	RecommendationID    string     `gorm:"column:recommendation_id"`
	RecommendationType  string     `gorm:"column:recommendation_type"`
	Bucket              string     `gorm:"column:bucket"`
	Key                 string     `gorm:"column:key"`
	ActionStatus        string     `gorm:"column:action_status"`
	Message             string     `gorm:"column:message;type:text"`
	RiskLevel           string     `gorm:"column:risk_level"`
	RequiresApproval    bool       `gorm:"column:requires_approval"`
	Permitted           bool       `gorm:"column:permitted"`
	RequiredPermsJSON   string     `gorm:"column:required_permissions_json;type:text"`
	MissingPermsJSON    string     `gorm:"column:missing_permissions_json;type:text"`
	Simulated           bool       `gorm:"column:simulated"`
	PreChangeStateJSON  string     `gorm:"column:pre_change_state_json;type:text"`
	PostChangeStateJSON string     `gorm:"column:post_change_state_json;type:text"`
	RollbackAvailable   bool       `gorm:"column:rollback_available"`
	RollbackStatus      string     `gorm:"column:rollback_status"`
	RolledBackAt        *time.Time `gorm:"column:rolled_back_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;index:idx_audit_run_created,sort:desc"`
}

func (AuditRow) TableName() string { return "execution_audit" }
