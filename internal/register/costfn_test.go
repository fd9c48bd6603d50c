package register

import (
	"errors"
	"math"
	"testing"

	"montagereg/internal/dewarp"
	"montagereg/internal/montage"
)

const testIntensity = "Gray"

// pattern is a deterministic strictly-positive texture so that shrinking or
// warping an overlap window visibly lowers its convolution peak.
func pattern(x, y int) float64 {
	fx, fy := float64(x), float64(y)
	return 2 + math.Sin(0.37*fx)*math.Cos(0.23*fy) + 0.5*math.Sin(1.3*fx+0.7*fy)
}

// alignedMontage cuts a rows x cols montage of 100x100 tiles out of one
// shared pattern, stepping 90 pixels so neighbors overlap by 10. Overlap
// content is therefore identical across tiles.
func alignedMontage(t *testing.T, rows, cols int) *montage.DataMontage {
	t.Helper()
	m := montage.NewDataMontage(rows, cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			geom := montage.TileGeometry{
				Width:    100,
				Height:   100,
				OriginX:  float64(col * 90),
				OriginY:  float64(row * 90),
				SpacingX: 1,
				SpacingY: 1,
			}
			data := make([]float64, 100*100)
			for y := 0; y < 100; y++ {
				for x := 0; x < 100; x++ {
					data[y*100+x] = pattern(col*90+x, row*90+y)
				}
			}
			if err := m.SetTile(row, col, geom, testIntensity, data); err != nil {
				t.Fatalf("set tile (%d,%d): %v", col, row, err)
			}
		}
	}
	return m
}

func initializedCost(t *testing.T, rows, cols int) *ConvolutionCostFunction {
	t.Helper()
	cost := NewConvolutionCostFunction(dewarp.NewPolyModel())
	if err := cost.Initialize(alignedMontage(t, rows, cols), testIntensity); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return cost
}

func TestInitializeBuildsOverlapPairs(t *testing.T) {
	cost := initializedCost(t, 2, 2)
	if !cost.Initialized() {
		t.Fatal("cost function should report initialized")
	}
	if got := len(cost.Overlaps()); got != 4 {
		t.Fatalf("2x2 montage built %d pairs, want 4", got)
	}
	if got := cost.NumParameters(); got != 14 {
		t.Errorf("NumParameters() = %d, want 14", got)
	}
}

func TestValueIsDeterministic(t *testing.T) {
	cost := initializedCost(t, 2, 2)
	params := dewarp.NewPolyModel().IdentityParameters()

	first := cost.Value(params)
	second := cost.Value(params)
	if first != second {
		t.Errorf("Value changed between identical calls: %g then %g", first, second)
	}
	if first <= 0 {
		t.Errorf("aligned montage scored %g, want > 0", first)
	}
}

func TestIdentityScoresAtLeastPerturbed(t *testing.T) {
	cost := initializedCost(t, 1, 2)
	model := dewarp.NewPolyModel()
	identity := model.IdentityParameters()
	identityScore := cost.Value(identity)

	perturbations := []struct {
		name  string
		index int
		value float64
	}{
		{"x stretch", 0, 1.2},
		{"x quadratic", 2, 0.05},
		{"y stretch", 8, 1.3},
		{"y quadratic", 10, 0.05},
	}
	for _, p := range perturbations {
		params := model.IdentityParameters()
		params[p.index] = p.value
		if score := cost.Value(params); score > identityScore {
			t.Errorf("%s scored %g, above identity's %g", p.name, score, identityScore)
		}
	}
}

func TestValueZeroWhenMappingLeavesTiles(t *testing.T) {
	cost := initializedCost(t, 1, 2)
	// Every mapped coordinate lands far outside the first tile, so the
	// reconstructed image is all zeros.
	params := make([]float64, 14)
	for i := range params {
		params[i] = 1e6
	}
	if got := cost.Value(params); got != 0 {
		t.Errorf("Value = %g for a mapping that misses every tile, want 0", got)
	}
}

func TestResampleOverlapShapesMatch(t *testing.T) {
	cost := initializedCost(t, 1, 2)
	pair := cost.Overlaps()[0]
	model := dewarp.NewPolyModel()

	identity := model.IdentityParameters()
	warped := model.IdentityParameters()
	warped[2] = 0.02

	for _, params := range [][]float64{identity, warped} {
		first, second := resampleOverlap(pair, cost.grid, model, params, cost.nominalWidth, cost.nominalHeight)
		if first.Width != second.Width || first.Height != second.Height {
			t.Errorf("cropped pair shapes differ: %dx%d vs %dx%d",
				first.Width, first.Height, second.Width, second.Height)
		}
		if first.OriginX != second.OriginX || first.OriginY != second.OriginY {
			t.Errorf("cropped pair origins differ: (%d,%d) vs (%d,%d)",
				first.OriginX, first.OriginY, second.OriginX, second.OriginY)
		}
	}
}

func TestResampleOverlapIdentityKeepsFullRegion(t *testing.T) {
	cost := initializedCost(t, 1, 2)
	pair := cost.Overlaps()[0]
	model := dewarp.NewPolyModel()

	first, second := resampleOverlap(pair, cost.grid, model, model.IdentityParameters(), cost.nominalWidth, cost.nominalHeight)
	if first.Width != pair.Region.Width() || first.Height != pair.Region.Height() {
		t.Fatalf("identity crop is %dx%d, want full region %dx%d",
			first.Width, first.Height, pair.Region.Width(), pair.Region.Height())
	}
	// The aligned montage stores the same pattern in both tiles, so the two
	// overlap images must agree sample for sample.
	for i := range first.Pix {
		if first.Pix[i] != second.Pix[i] {
			t.Fatalf("overlap images differ at sample %d: %g vs %g", i, first.Pix[i], second.Pix[i])
		}
	}
}

func TestDerivativeUnsupported(t *testing.T) {
	cost := initializedCost(t, 1, 2)
	grad, err := cost.Derivative(dewarp.NewPolyModel().IdentityParameters())
	if grad != nil {
		t.Errorf("Derivative returned a gradient: %v", grad)
	}
	if !errors.Is(err, ErrDerivativeUnsupported) {
		t.Errorf("Derivative error = %v, want ErrDerivativeUnsupported", err)
	}
}

func TestConvolvePeakImpulse(t *testing.T) {
	first := montage.NewTileImage(0, 0, 8, 8)
	second := montage.NewTileImage(0, 0, 8, 8)
	first.Pix[3*8+2] = 1
	second.Pix[1*8+5] = 1

	if got := convolvePeak(first, second); math.Abs(got-1) > 1e-9 {
		t.Errorf("impulse convolution peak = %g, want 1", got)
	}
}

func TestConvolvePeakFlat(t *testing.T) {
	first := montage.NewTileImage(0, 0, 4, 4)
	second := montage.NewTileImage(0, 0, 4, 4)
	for i := range first.Pix {
		first.Pix[i] = 1
		second.Pix[i] = 1
	}

	// Full linear convolution of two 4x4 blocks of ones peaks at 16 where
	// the blocks fully overlap.
	if got := convolvePeak(first, second); math.Abs(got-16) > 1e-9 {
		t.Errorf("flat convolution peak = %g, want 16", got)
	}
}
