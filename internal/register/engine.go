package register

import (
	"fmt"
	"log/slog"
	"time"

	"montagereg/internal/opt"
)

// Result holds the outcome of a registration run.
type Result struct {
	BestParameters []float64
	BestScore      float64
	InitialScore   float64
	StopCondition  string
	Evaluations    int
}

// Register drives the simplex optimizer over the convolution cost function
// from the given starting parameter vector. The cost function scores
// alignment (higher is better), while the amoeba minimizes, so the engine
// hands it the negated objective and reports the positive score.
//
// If progress is non-nil it is called after every objective evaluation with
// the evaluation count and the best score seen so far.
func Register(cost *ConvolutionCostFunction, amoeba *opt.AmoebaOptimizer, start []float64, progress func(evaluation int, bestScore float64)) (*Result, error) {
	if !cost.Initialized() {
		return nil, ErrNotInitialized
	}
	if len(start) != cost.NumParameters() {
		return nil, fmt.Errorf("register: starting vector has %d parameters, model expects %d",
			len(start), cost.NumParameters())
	}

	initial := cost.Value(start)
	slog.Info("Starting registration",
		"parameters", len(start),
		"overlap_pairs", len(cost.Overlaps()),
		"initial_score", initial,
	)

	began := time.Now()
	evaluations := 0
	bestSeen := initial
	best, negScore, err := amoeba.Minimize(func(p []float64) float64 {
		score := cost.Value(p)
		evaluations++
		if score > bestSeen {
			bestSeen = score
		}
		if progress != nil {
			progress(evaluations, bestSeen)
		}
		return -score
	}, start)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	result := &Result{
		BestParameters: best,
		BestScore:      -negScore,
		InitialScore:   initial,
		StopCondition:  amoeba.StopConditionDescription(),
		Evaluations:    amoeba.Evaluations(),
	}

	slog.Info("Registration complete",
		"elapsed", time.Since(began),
		"initial_score", initial,
		"best_score", result.BestScore,
		"evaluations", result.Evaluations,
		"stop_condition", result.StopCondition,
	)
	return result, nil
}
