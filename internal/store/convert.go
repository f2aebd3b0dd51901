package store

import (
	"encoding/json"

	"github.com/coldstore/sentinel/internal/models"
)

func marshalJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalInto(raw string, v interface{}) {
	if raw == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw), v)
}

func rowFromRun(run models.Run) RunRow {
	return RunRow{
		RunID:               run.RunID,
		Status:              string(run.Status),
		RecommendationsJSON: marshalJSON(run.Recommendations),
		ScoresJSON:          marshalJSON(run.Scores),
		SavingsDetailsJSON:  marshalJSON(run.SavingsDetails),
		SavingsSummaryJSON:  marshalJSON(run.SavingsSummary),
		ExecutionJSON:       marshalJSON(run.Execution),
		ScanErrorsJSON:      marshalJSON(run.ScanErrors),
		CreatedAt:           run.CreatedAt,
		UpdatedAt:           run.UpdatedAt,
	}
}

func runFromRow(row RunRow) models.Run {
	run := models.Run{
		RunID:     row.RunID,
		Status:    models.RunStatus(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	unmarshalInto(row.RecommendationsJSON, &run.Recommendations)
	unmarshalInto(row.ScoresJSON, &run.Scores)
	unmarshalInto(row.SavingsDetailsJSON, &run.SavingsDetails)
	unmarshalInto(row.ScanErrorsJSON, &run.ScanErrors)
	if row.SavingsSummaryJSON != "" {
		var s models.SavingsSummary
		unmarshalInto(row.SavingsSummaryJSON, &s)
		run.SavingsSummary = &s
	}
	if row.ExecutionJSON != "" {
		var e models.ExecuteResponse
		unmarshalInto(row.ExecutionJSON, &e)
		run.Execution = &e
	}
	return run
}

func rowFromAudit(rec models.ExecutionAuditRecord) AuditRow {
	key := ""
	if rec.Key != nil {
		key = *rec.Key
	}
	return AuditRow{
		AuditID:             rec.AuditID,
		ExecutionID:         rec.ExecutionID,
		RunID:               rec.RunID,
		RecommendationID:    rec.RecommendationID,
		RecommendationType:  string(rec.RecommendationType),
		Bucket:              rec.Bucket,
		Key:                 key,
		ActionStatus:        string(rec.ActionStatus),
		Message:             rec.Message,
		RiskLevel:           string(rec.RiskLevel),
		RequiresApproval:    rec.RequiresApproval,
		Permitted:           rec.Permitted,
		RequiredPermsJSON:   marshalJSON(rec.RequiredPermissions),
		MissingPermsJSON:    marshalJSON(rec.MissingPermissions),
		Simulated:           rec.Simulated,
		PreChangeStateJSON:  marshalJSON(rec.PreChangeState),
		PostChangeStateJSON: marshalJSON(rec.PostChangeState),
		RollbackAvailable:   rec.RollbackAvailable,
		RollbackStatus:      string(rec.RollbackStatus),
		RolledBackAt:        rec.RolledBackAt,
		CreatedAt:           rec.CreatedAt,
	}
}

func auditFromRow(row AuditRow) models.ExecutionAuditRecord {
	var key *string
	if row.Key != "" {
		k := row.Key
		key = &k
	}
	rec := models.ExecutionAuditRecord{
		AuditID:            row.AuditID,
		ExecutionID:        row.ExecutionID,
		RunID:              row.RunID,
		RecommendationID:   row.RecommendationID,
		RecommendationType: models.RecommendationType(row.RecommendationType),
		Bucket:             row.Bucket,
		Key:                key,
		ActionStatus:       models.ActionStatus(row.ActionStatus),
		Message:            row.Message,
		RiskLevel:          models.RiskLevel(row.RiskLevel),
		RequiresApproval:   row.RequiresApproval,
		Permitted:          row.Permitted,
		Simulated:          row.Simulated,
		RollbackAvailable:  row.RollbackAvailable,
		RollbackStatus:     models.RollbackStatus(row.RollbackStatus),
		RolledBackAt:       row.RolledBackAt,
		CreatedAt:          row.CreatedAt,
	}
	unmarshalInto(row.RequiredPermsJSON, &rec.RequiredPermissions)
	unmarshalInto(row.MissingPermsJSON, &rec.MissingPermissions)
	unmarshalInto(row.PreChangeStateJSON, &rec.PreChangeState)
	unmarshalInto(row.PostChangeStateJSON, &rec.PostChangeState)
	return rec
}
