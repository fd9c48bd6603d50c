// Package register implements the dewarp registration core: a cost function
// that scores a trial parameter vector by FFT cross-convolution of tile
// overlap regions, and the engine that drives an optimizer over it.
package register

import (
	"errors"
	"fmt"
	"sync"

	"montagereg/internal/dewarp"
	"montagereg/internal/montage"
)

// ErrDerivativeUnsupported is returned when a derivative is requested from
// the convolution cost function. The objective is a discrete maximum over a
// numerically computed convolution and has no usable gradient.
var ErrDerivativeUnsupported = errors.New("register: convolution cost function is not differentiable")

// ErrNotInitialized is returned when the cost function is used before
// Initialize has populated the image grid.
var ErrNotInitialized = errors.New("register: cost function not initialized")

// ConvolutionCostFunction scores dewarp parameter vectors against a montage.
// Initialize must be called once before Value; after that the receiver is
// read-only and Value may be called repeatedly (each call fans out over the
// overlap pairs internally, but calls themselves are issued sequentially by
// the optimizer).
type ConvolutionCostFunction struct {
	model dewarp.Model

	grid     montage.ImageGrid
	overlaps []montage.OverlapPair

	nominalWidth  int
	nominalHeight int
}

// NewConvolutionCostFunction creates a cost function for the given
// distortion model.
func NewConvolutionCostFunction(model dewarp.Model) *ConvolutionCostFunction {
	return &ConvolutionCostFunction{model: model}
}

// Initialize samples every tile of the montage into the image grid and
// builds the overlap pair catalog. Not safe to call concurrently with Value.
func (f *ConvolutionCostFunction) Initialize(m montage.Montage, name string) error {
	nominalWidth, nominalHeight, err := montage.NominalDims(m)
	if err != nil {
		return fmt.Errorf("initialize cost function: %w", err)
	}

	grid, err := montage.SampleGrid(m, name, nominalWidth, nominalHeight)
	if err != nil {
		return fmt.Errorf("initialize cost function: %w", err)
	}

	f.grid = grid
	f.overlaps = montage.BuildOverlapPairs(montage.CatalogBounds(grid))
	f.nominalWidth = nominalWidth
	f.nominalHeight = nominalHeight
	return nil
}

// Initialized reports whether the image grid has been populated.
func (f *ConvolutionCostFunction) Initialized() bool { return f.grid != nil }

// NumParameters returns the parameter count fixed by the distortion model.
func (f *ConvolutionCostFunction) NumParameters() int { return f.model.ParameterCount() }

// Overlaps returns the overlap pairs built during initialization.
func (f *ConvolutionCostFunction) Overlaps() []montage.OverlapPair { return f.overlaps }

// Value evaluates the alignment objective for a trial parameter vector: the
// square of the summed per-pair convolution peaks. Higher is better. Pairs
// are scored in parallel; the sum is the only shared state and is guarded by
// a mutex. Value is a pure function of the parameters once initialized.
func (f *ConvolutionCostFunction) Value(params []float64) float64 {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		residual float64
	)
	for _, overlap := range f.overlaps {
		wg.Add(1)
		go func(overlap montage.OverlapPair) {
			defer wg.Done()
			score := f.scoreOverlap(overlap, params)
			mu.Lock()
			residual += score
			mu.Unlock()
		}(overlap)
	}
	wg.Wait()

	return residual * residual
}

// scoreOverlap resamples one pair under the trial parameters and returns the
// peak of the cross-convolution of the cropped images. A pair whose valid
// region shrinks to nothing under a bad trial vector contributes zero rather
// than failing, so the search can recover.
func (f *ConvolutionCostFunction) scoreOverlap(overlap montage.OverlapPair, params []float64) float64 {
	first, second := resampleOverlap(overlap, f.grid, f.model, params, f.nominalWidth, f.nominalHeight)
	if first.Width == 0 || first.Height == 0 {
		return 0
	}
	return convolvePeak(first, second)
}

// Derivative always fails: the objective is not differentiable by design.
func (f *ConvolutionCostFunction) Derivative(params []float64) ([]float64, error) {
	return nil, ErrDerivativeUnsupported
}
