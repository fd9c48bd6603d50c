package opt

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"
)

// Nelder-Mead coefficients and automatic-simplex sizing.
const (
	reflectCoeff  = 1.0
	expandCoeff   = 2.0
	contractCoeff = 0.5
	shrinkCoeff   = 0.5

	relativeDiameter = 0.05
	zeroTermDelta    = 0.00025
)

var (
	errBudgetExhausted = errors.New("evaluation budget exhausted")
	errCancelled       = errors.New("cancelled")
)

// AmoebaOptimizer is a derivative-free Nelder-Mead simplex search with an
// optional multi-restart heuristic. It minimizes its objective; callers
// maximizing a score hand it the negated value.
//
// The zero value is not usable; construct with NewAmoeba. Configuration is
// validated when a search starts, never mid-run to a broken state.
type AmoebaOptimizer struct {
	// MaximumNumberOfIterations bounds the total number of objective
	// evaluations across all restarts.
	MaximumNumberOfIterations int

	// FractionalTolerance is the function-value convergence criterion: a
	// simplex whose corner values differ by less than this fraction of
	// their magnitude has converged.
	FractionalTolerance float64

	// ParametersTolerance bounds the simplex diameter at convergence and
	// the per-axis parameter change that still counts as restart progress.
	ParametersTolerance float64

	// OptimizeWithRestarts reruns the search from the best solution found,
	// halving the simplex edge length each round, until the budget runs out
	// or the improvement between rounds falls below both tolerances.
	OptimizeWithRestarts bool

	automaticInitialSimplex bool
	initialSimplexDelta     []float64

	cancelled atomic.Bool

	evaluations   int
	stopCondition string
	bestParams    []float64
	bestValue     float64
}

// NewAmoeba returns an optimizer with the default configuration: automatic
// initial simplex, 500-evaluation budget, no restarts.
func NewAmoeba() *AmoebaOptimizer {
	return &AmoebaOptimizer{
		MaximumNumberOfIterations: 500,
		FractionalTolerance:       1e-5,
		ParametersTolerance:       1e-8,
		automaticInitialSimplex:   true,
	}
}

// SetInitialSimplexDelta supplies per-axis edge lengths for the initial
// simplex and switches to manual simplex mode, unless automatic is
// explicitly passed as true.
func (a *AmoebaOptimizer) SetInitialSimplexDelta(delta []float64, automatic ...bool) {
	a.initialSimplexDelta = append([]float64(nil), delta...)
	a.automaticInitialSimplex = len(automatic) > 0 && automatic[0]
}

// AutomaticInitialSimplex reports whether the initial simplex is sized
// automatically around the starting point.
func (a *AmoebaOptimizer) AutomaticInitialSimplex() bool { return a.automaticInitialSimplex }

// Cancel requests a cooperative stop. The flag is checked between objective
// evaluations; the search returns the best solution found so far.
func (a *AmoebaOptimizer) Cancel() { a.cancelled.Store(true) }

// Evaluations returns the number of objective evaluations performed by the
// last search.
func (a *AmoebaOptimizer) Evaluations() int { return a.evaluations }

// StopConditionDescription reports why the last search stopped.
func (a *AmoebaOptimizer) StopConditionDescription() string { return a.stopCondition }

// Minimize searches for a minimum of the objective starting from start.
// It returns the best parameters and objective value seen, including on
// cancellation; the stop reason is available from StopConditionDescription.
// Invalid configuration is rejected before any evaluation.
func (a *AmoebaOptimizer) Minimize(objective func([]float64) float64, start []float64) ([]float64, float64, error) {
	if err := a.validate(objective, start); err != nil {
		return nil, 0, err
	}

	a.cancelled.Store(false)
	a.evaluations = 0
	a.stopCondition = ""
	a.bestParams = append([]float64(nil), start...)
	a.bestValue = math.Inf(1)

	deltas := a.simplexDeltas(start)

	var (
		restarts   int
		prevParams []float64
		prevValue  = math.Inf(1)
		scale      = 1.0
	)
	current := append([]float64(nil), start...)

	for {
		err := a.runSimplex(objective, current, deltas, scale)
		switch {
		case errors.Is(err, errCancelled):
			a.stopCondition = fmt.Sprintf("cancelled after %d evaluations", a.evaluations)
			return a.result()
		case errors.Is(err, errBudgetExhausted):
			a.stopCondition = fmt.Sprintf("maximum number of iterations (%d) reached", a.MaximumNumberOfIterations)
			return a.result()
		}

		if !a.OptimizeWithRestarts {
			a.stopCondition = fmt.Sprintf("converged after %d evaluations", a.evaluations)
			return a.result()
		}

		if prevParams != nil {
			improvement := prevValue - a.bestValue
			change := floats.Distance(prevParams, a.bestParams, math.Inf(1))
			if improvement <= a.FractionalTolerance && change <= a.ParametersTolerance {
				a.stopCondition = fmt.Sprintf("converged after %d restarts and %d evaluations", restarts, a.evaluations)
				return a.result()
			}
		}

		prevParams = append([]float64(nil), a.bestParams...)
		prevValue = a.bestValue
		current = append([]float64(nil), a.bestParams...)
		scale /= 2
		restarts++
	}
}

// Run adapts the amoeba to the bounds-driven Optimizer interface: the search
// starts at the midpoint of the bounds with simplex edges spanning a
// twentieth of each range. On configuration error the start point itself is
// returned.
func (a *AmoebaOptimizer) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	start := make([]float64, dim)
	deltas := make([]float64, dim)
	for i := 0; i < dim; i++ {
		start[i] = (lower[i] + upper[i]) / 2
		deltas[i] = (upper[i] - lower[i]) / 20
	}
	if a.automaticInitialSimplex {
		a.SetInitialSimplexDelta(deltas)
	}

	best, value, err := a.Minimize(eval, start)
	if err != nil {
		return start, eval(start)
	}
	return best, value
}

// validate rejects unusable configurations before the search begins.
func (a *AmoebaOptimizer) validate(objective func([]float64) float64, start []float64) error {
	if objective == nil {
		return errors.New("amoeba: no cost function set")
	}
	if len(start) == 0 {
		return errors.New("amoeba: empty starting parameter vector")
	}
	if a.MaximumNumberOfIterations < 1 {
		return fmt.Errorf("amoeba: maximum number of iterations must be positive, got %d", a.MaximumNumberOfIterations)
	}
	if a.FractionalTolerance <= 0 {
		return fmt.Errorf("amoeba: fractional tolerance must be positive, got %g", a.FractionalTolerance)
	}
	if !a.automaticInitialSimplex {
		if len(a.initialSimplexDelta) != len(start) {
			return fmt.Errorf("amoeba: initial simplex delta has %d components for %d parameters",
				len(a.initialSimplexDelta), len(start))
		}
		for i, d := range a.initialSimplexDelta {
			if d == 0 {
				return fmt.Errorf("amoeba: degenerate initial simplex, delta component %d is zero", i)
			}
		}
	}
	return nil
}

// simplexDeltas returns the per-axis initial edge lengths.
func (a *AmoebaOptimizer) simplexDeltas(start []float64) []float64 {
	if !a.automaticInitialSimplex {
		return append([]float64(nil), a.initialSimplexDelta...)
	}
	deltas := make([]float64, len(start))
	for i, x := range start {
		if x != 0 {
			deltas[i] = relativeDiameter * math.Abs(x)
		} else {
			deltas[i] = zeroTermDelta
		}
	}
	return deltas
}

// evaluate runs the objective once, enforcing the budget and the cancel
// flag, and tracks the best solution seen.
func (a *AmoebaOptimizer) evaluate(objective func([]float64) float64, x []float64) (float64, error) {
	if a.cancelled.Load() {
		return 0, errCancelled
	}
	if a.evaluations >= a.MaximumNumberOfIterations {
		return 0, errBudgetExhausted
	}
	a.evaluations++
	v := objective(x)
	if v < a.bestValue {
		a.bestValue = v
		a.bestParams = append(a.bestParams[:0], x...)
	}
	return v, nil
}

// runSimplex performs one Nelder-Mead run from start with the given edge
// scale. It returns nil on convergence, or the sentinel that interrupted it.
func (a *AmoebaOptimizer) runSimplex(objective func([]float64) float64, start, deltas []float64, scale float64) error {
	n := len(start)

	vertices := make([][]float64, n+1)
	values := make([]float64, n+1)
	for i := range vertices {
		vertices[i] = append([]float64(nil), start...)
		if i > 0 {
			vertices[i][i-1] += deltas[i-1] * scale
		}
		v, err := a.evaluate(objective, vertices[i])
		if err != nil {
			return err
		}
		values[i] = v
	}

	order := make([]int, n+1)
	centroid := make([]float64, n)
	diff := make([]float64, n)
	trial := make([]float64, n)

	for {
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool { return values[order[i]] < values[order[j]] })
		best, worst, secondWorst := order[0], order[n], order[n-1]

		if a.converged(vertices, values, best, worst) {
			return nil
		}

		// Centroid of all vertices except the worst.
		for i := range centroid {
			centroid[i] = 0
		}
		for vi, vertex := range vertices {
			if vi == worst {
				continue
			}
			floats.Add(centroid, vertex)
		}
		floats.Scale(1/float64(n), centroid)

		floats.SubTo(diff, centroid, vertices[worst])

		// Reflect.
		floats.AddScaledTo(trial, centroid, reflectCoeff, diff)
		reflected, err := a.evaluate(objective, trial)
		if err != nil {
			return err
		}

		switch {
		case reflected < values[best]:
			// Expand.
			expandPoint := make([]float64, n)
			floats.AddScaledTo(expandPoint, centroid, expandCoeff, diff)
			expanded, err := a.evaluate(objective, expandPoint)
			if err != nil {
				return err
			}
			if expanded < reflected {
				copy(vertices[worst], expandPoint)
				values[worst] = expanded
			} else {
				copy(vertices[worst], trial)
				values[worst] = reflected
			}

		case reflected < values[secondWorst]:
			copy(vertices[worst], trial)
			values[worst] = reflected

		default:
			// Contract, outside if the reflected point improved on the
			// worst vertex, inside otherwise.
			contractPoint := make([]float64, n)
			if reflected < values[worst] {
				floats.AddScaledTo(contractPoint, centroid, contractCoeff, diff)
			} else {
				floats.AddScaledTo(contractPoint, centroid, -contractCoeff, diff)
			}
			contracted, err := a.evaluate(objective, contractPoint)
			if err != nil {
				return err
			}
			if contracted < math.Min(reflected, values[worst]) {
				copy(vertices[worst], contractPoint)
				values[worst] = contracted
			} else {
				// Shrink every vertex toward the best.
				for vi, vertex := range vertices {
					if vi == best {
						continue
					}
					for i := range vertex {
						vertex[i] = vertices[best][i] + shrinkCoeff*(vertex[i]-vertices[best][i])
					}
					v, err := a.evaluate(objective, vertex)
					if err != nil {
						return err
					}
					values[vi] = v
				}
			}
		}
	}
}

// converged tests both termination criteria: the spread of objective values
// at the simplex corners and the simplex diameter.
func (a *AmoebaOptimizer) converged(vertices [][]float64, values []float64, best, worst int) bool {
	spread := 2 * math.Abs(values[worst]-values[best]) /
		(math.Abs(values[worst]) + math.Abs(values[best]) + 1e-300)
	if spread >= a.FractionalTolerance {
		return false
	}
	for vi, vertex := range vertices {
		if vi == best {
			continue
		}
		if floats.Distance(vertex, vertices[best], math.Inf(1)) >= a.ParametersTolerance {
			return false
		}
	}
	return true
}

func (a *AmoebaOptimizer) result() ([]float64, float64, error) {
	return append([]float64(nil), a.bestParams...), a.bestValue, nil
}
