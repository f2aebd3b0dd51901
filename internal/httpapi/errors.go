// Package httpapi is the thin fiber surface of the control plane: parse a
// request, call the core packages in the sequence a run's lifecycle
// requires, marshal the response. fiber.New is wired with cors/logger/
// recover middleware and a typed ErrorHandler.
package httpapi

import "errors"

// Sentinel errors the service layer raises at lifecycle boundaries; the
// handlers map these to specific HTTP status codes. Everything else (a DB
// error, a scanner adapter failure) is a plain error and maps to 500.
var (
	ErrRunNotFound    = errors.New("run not found")
	ErrNotScored      = errors.New("run has no scores")
	ErrNoExecution    = errors.New("run has no execution and no execution_id was supplied")
	ErrNoAuditMatch   = errors.New("no audit records match the requested filter")
)
