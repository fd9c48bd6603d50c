package store

import (
	"time"

	"github.com/google/uuid"
)

// RunSettings holds the configuration a registration run was started with.
// It is persisted next to the result so a later run can be seeded from a
// compatible record.
type RunSettings struct {
	TilesDir            string  `json:"tilesDir"`
	Rows                int     `json:"rows"`
	Cols                int     `json:"cols"`
	Optimizer           string  `json:"optimizer"` // amoeba, mayfly
	MaxIterations       int     `json:"maxIterations"`
	Restarts            bool    `json:"restarts"`
	FractionalTolerance float64 `json:"fractionalTolerance"`
}

// RunRecord is the persisted outcome of one registration run.
type RunRecord struct {
	// ID is the unique identifier of the run.
	ID string `json:"id"`

	// CreatedAt records when the run finished.
	CreatedAt time.Time `json:"createdAt"`

	// Settings is the configuration the run used.
	Settings RunSettings `json:"settings"`

	// BestParameters is the dewarp parameter vector that achieved BestScore.
	BestParameters []float64 `json:"bestParameters"`

	// BestScore is the alignment objective achieved by BestParameters
	// (higher is better).
	BestScore float64 `json:"bestScore"`

	// InitialScore is the objective at the starting parameter vector.
	InitialScore float64 `json:"initialScore"`

	// StopCondition is the optimizer's human-readable stop reason.
	StopCondition string `json:"stopCondition"`

	// Evaluations is the number of objective evaluations performed.
	Evaluations int `json:"evaluations"`
}

// NewRunRecord assembles a record with a fresh ID and timestamp.
func NewRunRecord(settings RunSettings, bestParams []float64, bestScore, initialScore float64, stopCondition string, evaluations int) *RunRecord {
	return &RunRecord{
		ID:             uuid.New().String(),
		CreatedAt:      time.Now(),
		Settings:       settings,
		BestParameters: bestParams,
		BestScore:      bestScore,
		InitialScore:   initialScore,
		StopCondition:  stopCondition,
		Evaluations:    evaluations,
	}
}

// Validate checks that a record is complete enough to seed another run.
func (r *RunRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if len(r.BestParameters) == 0 {
		return &ValidationError{Field: "BestParameters", Reason: "cannot be empty"}
	}
	if r.CreatedAt.IsZero() {
		return &ValidationError{Field: "CreatedAt", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError describes an incomplete or inconsistent run record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// NotFoundError indicates that no record exists for the requested run.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	return "run not found: " + e.RunID
}
