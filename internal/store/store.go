// Package store is the durable, single-writer run store: the state machine
// that takes a run from SCANNED through SCORED to EXECUTED, plus its
// immutable execution-audit log. Rows are GORM models over Postgres with
// structured fields marshaled into JSON-text columns.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldstore/sentinel/internal/models"
)

// Store serializes every mutating operation behind a single mutex, as the
// spec requires: readers may proceed concurrently, but create/set_scores/
// set_execution/update_rollback_status never interleave with each other.
type Store struct {
	db  *gorm.DB
	mu  sync.Mutex
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Create inserts a new run with status SCANNED.
func (s *Store) Create(recommendations []models.Recommendation, scanErrors []string) (models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	run := models.Run{
		RunID:           uuid.NewString(),
		Status:          models.RunScanned,
		Recommendations: recommendations,
		ScanErrors:      scanErrors,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	row := rowFromRun(run)
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	}); err != nil {
		return models.Run{}, err
	}
	return run, nil
}

// Get returns the run, or (Run{}, false, nil) if absent.
func (s *Store) Get(runID string) (models.Run, bool, error) {
	var row RunRow
	err := s.db.First(&row, "run_id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Run{}, false, nil
	}
	if err != nil {
		return models.Run{}, false, err
	}
	return runFromRow(row), true, nil
}

// List returns every run ordered by updated_at descending.
func (s *Store) List() ([]models.Run, error) {
	var rows []RunRow
	if err := s.db.Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	runs := make([]models.Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, runFromRow(r))
	}
	return runs, nil
}

// SetScores advances a run to at least SCORED, overwriting its prior score
// fields. Status only ever moves forward: re-scoring an already-EXECUTED run
// leaves it at EXECUTED rather than reverting it to SCORED. It is
// idempotent: calling it twice with the same inputs leaves the run in an
// identical observable state (aside from updated_at).
func (s *Store) SetScores(runID string, scores []models.RiskScore, savingsDetails []models.SavingsEstimate, summary models.SavingsSummary) (models.Run, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result models.Run
	found := true
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row RunRow
		if err := tx.First(&row, "run_id = ?", runID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return err
		}
		if models.RunStatus(row.Status) != models.RunExecuted {
			row.Status = string(models.RunScored)
		}
		row.ScoresJSON = marshalJSON(scores)
		row.SavingsDetailsJSON = marshalJSON(savingsDetails)
		row.SavingsSummaryJSON = marshalJSON(summary)
		row.UpdatedAt = s.now()
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		result = runFromRow(row)
		return nil
	})
	if err != nil {
		return models.Run{}, false, err
	}
	return result, found, nil
}

// SetExecution advances a run to EXECUTED, records the latest execution
// pointer, and inserts every action result as an audit row (upsert by
// audit_id) — all inside one transaction.
func (s *Store) SetExecution(runID string, execution models.ExecuteResponse) (models.Run, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result models.Run
	found := true
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row RunRow
		if err := tx.First(&row, "run_id = ?", runID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return err
		}
		row.Status = string(models.RunExecuted)
		row.ExecutionJSON = marshalJSON(execution)
		row.UpdatedAt = s.now()
		if err := tx.Save(&row).Error; err != nil {
			return err
		}

		for _, rec := range execution.ActionResults {
			auditRow := rowFromAudit(rec)
			if err := tx.Save(&auditRow).Error; err != nil {
				return err
			}
		}

		result = runFromRow(row)
		return nil
	})
	if err != nil {
		return models.Run{}, false, err
	}
	return result, found, nil
}

// ListExecutionAudit returns audit rows for a run, optionally filtered by
// execution_id and/or a specific set of audit_ids, ordered by created_at
// descending. An empty auditIDs slice means "no audit-id filter" — this is
// contractual, not an oversight.
func (s *Store) ListExecutionAudit(runID string, executionID string, auditIDs []string) ([]models.ExecutionAuditRecord, error) {
	q := s.db.Where("run_id = ?", runID)
	if executionID != "" {
		q = q.Where("execution_id = ?", executionID)
	}
	if len(auditIDs) > 0 {
		q = q.Where("audit_id IN ?", auditIDs)
	}
	var rows []AuditRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]models.ExecutionAuditRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, auditFromRow(r))
	}
	return records, nil
}

// UpdateRollbackStatus atomically updates a single audit row's rollback
// status. It sets rolled_back_at iff status=ROLLED_BACK, preserves the
// existing message when message is nil, and bumps the owning run's
// updated_at. Returns false iff the row does not exist.
func (s *Store) UpdateRollbackStatus(auditID string, status models.RollbackStatus, message *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := true
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row AuditRow
		if err := tx.First(&row, "audit_id = ?", auditID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return err
		}
		row.RollbackStatus = string(status)
		if status == models.RollbackRolledBack {
			now := s.now()
			row.RolledBackAt = &now
		}
		if message != nil {
			row.Message = *message
		}
		if err := tx.Save(&row).Error; err != nil {
			return err
		}

		return tx.Model(&RunRow{}).Where("run_id = ?", row.RunID).
			Update("updated_at", s.now()).Error
	})
	if err != nil {
		return false, err
	}
	return found, nil
}
