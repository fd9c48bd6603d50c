package dewarp

import (
	"math"

	"montagereg/internal/montage"
)

// paramsPerAxis is the number of monomial coefficients per output axis:
// u, v, u², v², uv, u²v, uv².
const paramsPerAxis = 7

// PolyModel is a separable degree-2 polynomial distortion. Each output axis
// is a linear combination of seven monomials of the shifted input
// coordinate, so the full parameter vector holds 14 values: the x-axis
// coefficients followed by the y-axis coefficients.
type PolyModel struct{}

// NewPolyModel returns the polynomial distortion model.
func NewPolyModel() PolyModel { return PolyModel{} }

func (PolyModel) ParameterCount() int { return 2 * paramsPerAxis }

// IdentityParameters returns the parameter vector that maps every
// coordinate to itself: coefficient 1 on the matching linear term, 0
// elsewhere.
func (PolyModel) IdentityParameters() []float64 {
	params := make([]float64, 2*paramsPerAxis)
	params[0] = 1               // x: u term
	params[paramsPerAxis+1] = 1 // y: v term
	return params
}

// OldIndex shifts idx by the origin offset, evaluates both polynomials, and
// shifts back. The forward and backward shift cancel exactly under the
// identity parameters.
func (PolyModel) OldIndex(idx, offset montage.PixelIndex, params []float64) montage.PixelIndex {
	u := float64(idx.X + offset.X)
	v := float64(idx.Y + offset.Y)

	terms := [paramsPerAxis]float64{u, v, u * u, v * v, u * v, u * u * v, u * v * v}

	var oldU, oldV float64
	for i, t := range terms {
		oldU += params[i] * t
		oldV += params[paramsPerAxis+i] * t
	}

	return montage.PixelIndex{
		X: int(math.Round(oldU)) - offset.X,
		Y: int(math.Round(oldV)) - offset.Y,
	}
}
