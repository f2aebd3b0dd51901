package httpapi

import (
	"context"

	"github.com/coldstore/sentinel/internal/executor"
	"github.com/coldstore/sentinel/internal/models"
	"github.com/coldstore/sentinel/internal/rollback"
	"github.com/coldstore/sentinel/internal/scanner"
	"github.com/coldstore/sentinel/internal/scoring"
	"github.com/coldstore/sentinel/internal/store"
)

// Service sequences the four pipeline stages against the run store. It is
// the only place that knows the stages must run in this order; every stage
// itself stays ignorant of its neighbors.
type Service struct {
	store    *store.Store
	scanner  *scanner.Scanner
	scorer   *scoring.Scorer
	executor *executor.Executor
	rollback *rollback.Manager
}

func NewService(st *store.Store, sc *scanner.Scanner, sr *scoring.Scorer, ex *executor.Executor, rb *rollback.Manager) *Service {
	return &Service{store: st, scanner: sc, scorer: sr, executor: ex, rollback: rb}
}

// Scan runs the scanner against filters and persists a new run.
func (s *Service) Scan(ctx context.Context, filters models.ScanFilters) (models.ScanResponse, error) {
	recs, scanErrors, err := s.scanner.Scan(ctx, filters)
	if err != nil {
		return models.ScanResponse{}, err
	}
	run, err := s.store.Create(recs, scanErrors)
	if err != nil {
		return models.ScanResponse{}, err
	}

	var total float64
	for _, r := range recs {
		total += r.EstimatedMonthlySavings
	}
	return models.ScanResponse{
		RunID:                   run.RunID,
		Recommendations:         recs,
		EstimatedMonthlySavings: total,
	}, nil
}

// Score scores a previously-scanned run's recommendations and persists the
// result, advancing the run to SCORED.
func (s *Service) Score(ctx context.Context, runID string) (models.ScoreResponse, error) {
	run, ok, err := s.store.Get(runID)
	if err != nil {
		return models.ScoreResponse{}, err
	}
	if !ok {
		return models.ScoreResponse{}, ErrRunNotFound
	}

	scores, savingsDetails, summary := s.scorer.Score(run.Recommendations)
	if _, ok, err := s.store.SetScores(runID, scores, savingsDetails, summary); err != nil {
		return models.ScoreResponse{}, err
	} else if !ok {
		return models.ScoreResponse{}, ErrRunNotFound
	}

	var safe, approval int
	for _, sc := range scores {
		if sc.SafeToAutomate {
			safe++
		}
		if sc.RequiresApproval {
			approval++
		}
	}

	return models.ScoreResponse{
		Scores:           scores,
		SavingsDetails:   savingsDetails,
		SavingsSummary:   summary,
		SafeToAutomate:   safe,
		RequiresApproval: approval,
	}, nil
}

// Execute runs one execution batch against a scored run and persists the
// resulting audit rows.
func (s *Service) Execute(ctx context.Context, req models.ExecuteRequest) (models.ExecuteResponse, error) {
	run, ok, err := s.store.Get(req.RunID)
	if err != nil {
		return models.ExecuteResponse{}, err
	}
	if !ok {
		return models.ExecuteResponse{}, ErrRunNotFound
	}
	if !run.Scored() {
		return models.ExecuteResponse{}, ErrNotScored
	}

	resp := s.executor.Execute(ctx, req, run)
	if _, ok, err := s.store.SetExecution(req.RunID, resp); err != nil {
		return models.ExecuteResponse{}, err
	} else if !ok {
		return models.ExecuteResponse{}, ErrRunNotFound
	}
	return resp, nil
}

// Rollback resolves the audit records a RollbackRequest targets and
// attempts to invert each eligible one, persisting a rollback-status update
// per attempted row.
func (s *Service) Rollback(ctx context.Context, req models.RollbackRequest) (models.RollbackResponse, error) {
	run, ok, err := s.store.Get(req.RunID)
	if err != nil {
		return models.RollbackResponse{}, err
	}
	if !ok {
		return models.RollbackResponse{}, ErrRunNotFound
	}

	if req.ExecutionID == nil && len(req.AuditIDs) == 0 {
		if run.Execution == nil {
			return models.RollbackResponse{}, ErrNoExecution
		}
		eid := run.Execution.ExecutionID
		req.ExecutionID = &eid
	}

	all, err := s.store.ListExecutionAudit(req.RunID, "", nil)
	if err != nil {
		return models.RollbackResponse{}, err
	}
	records := rollback.SelectRecords(req, all)
	if len(records) == 0 {
		return models.RollbackResponse{}, ErrNoAuditMatch
	}

	resp, updates := s.rollback.Rollback(ctx, req, records)
	resp.RunID = req.RunID
	for _, u := range updates {
		msg := u.Message
		if _, err := s.store.UpdateRollbackStatus(u.AuditID, u.Status, &msg); err != nil {
			return models.RollbackResponse{}, err
		}
	}
	return resp, nil
}

// GetRun returns the full record for one run, including its latest
// execution pointer.
func (s *Service) GetRun(runID string) (models.Run, error) {
	run, ok, err := s.store.Get(runID)
	if err != nil {
		return models.Run{}, err
	}
	if !ok {
		return models.Run{}, ErrRunNotFound
	}
	return run, nil
}

// ListRuns returns every run, most recently updated first.
func (s *Service) ListRuns() ([]models.Run, error) {
	return s.store.List()
}

// GetAudit returns a run's audit rows, optionally narrowed to one
// execution_id.
func (s *Service) GetAudit(runID, executionID string) ([]models.ExecutionAuditRecord, error) {
	if _, ok, err := s.store.Get(runID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrRunNotFound
	}
	return s.store.ListExecutionAudit(runID, executionID, nil)
}
