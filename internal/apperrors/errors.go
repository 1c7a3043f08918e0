package apperrors

import "fmt"

// ValidationError means the uploaded file itself is defective. It is
// raised before any campaign record exists, so the caller can fix the
// file and retry without leaving partial state behind.
type ValidationError struct {
	Row    int // 1-based data row; 0 for file-level problems
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 && e.Field != "" {
		return fmt.Sprintf("invalid input: row %d, column %q: %s", e.Row, e.Field, e.Reason)
	}
	if e.Row > 0 {
		return fmt.Sprintf("invalid input: row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func NewFileValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

func NewRowValidationError(row int, field, reason string) error {
	return &ValidationError{Row: row, Field: field, Reason: reason}
}

// ScoringUnavailableError means the scoring engine was unreachable or
// timed out. Transient: the caller may retry the whole run later.
type ScoringUnavailableError struct {
	Cause error
}

func (e *ScoringUnavailableError) Error() string {
	return fmt.Sprintf("scoring engine unavailable: %v", e.Cause)
}

func (e *ScoringUnavailableError) Unwrap() error { return e.Cause }

// ScoringResponseError means the engine answered but the body violated
// the response contract (missing fields, mismatched lengths, values out
// of range). Internal, never user-correctable.
type ScoringResponseError struct {
	Reason string
}

func (e *ScoringResponseError) Error() string {
	return fmt.Sprintf("malformed scoring response: %s", e.Reason)
}

// ReconciliationError means the engine's predictions cannot be mapped
// back onto the input rows. Contract violation, fatal for the run.
type ReconciliationError struct {
	Reason string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation failed: %s", e.Reason)
}

// PersistenceError reports a chunk-insert failure. Committed counts the
// rows durably persisted by earlier chunks; those are kept, not rolled
// back.
type PersistenceError struct {
	Committed int
	Cause     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed after %d committed rows: %v", e.Committed, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

type CampaignNotFoundError struct {
	CampaignID int
}

func (e *CampaignNotFoundError) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
	return &CampaignNotFoundError{CampaignID: id}
}

type LeadNotFoundError struct {
	LeadID int
}

func (e *LeadNotFoundError) Error() string {
	return fmt.Sprintf("lead with ID %d not found", e.LeadID)
}

func NewLeadNotFound(id int) error {
	return &LeadNotFoundError{LeadID: id}
}

// UnauthorizedError covers both missing/unknown credentials and callers
// whose role does not permit the operation.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string { return e.Reason }
