// Package store persists registration run records and score traces on disk,
// so later runs can be seeded from earlier results.
package store

// Store defines the interface for run-record persistence.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return *NotFoundError if the run doesn't exist (for Load/Delete/Latest)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun persists a run record, overwriting any record with the same ID.
	SaveRun(record *RunRecord) error

	// LoadRun retrieves one run record by ID.
	LoadRun(runID string) (*RunRecord, error)

	// ListRuns loads every readable record. The slice may be empty.
	ListRuns() ([]*RunRecord, error)

	// Latest returns the most recently created run record.
	Latest() (*RunRecord, error)

	// DeleteRun removes a record and its artifacts.
	DeleteRun(runID string) error
}
