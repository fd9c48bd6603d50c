// Package dewarp defines the coordinate-distortion model contract used by
// the registration cost function, together with a polynomial reference
// implementation. The cost function only ever sees the Model interface, so
// any parametrization can be injected.
package dewarp

import "montagereg/internal/montage"

// Model maps a pixel coordinate in a tile's nominal ("new") frame back to
// the corresponding coordinate in its distorted ("old") frame, given a trial
// parameter vector. Implementations must be safe for concurrent use: OldIndex
// is called from many goroutines during a single cost evaluation.
type Model interface {
	// ParameterCount is the fixed length of the parameter vector.
	ParameterCount() int

	// OldIndex maps idx, relative to the given origin offset, through the
	// distortion described by params. len(params) must equal ParameterCount.
	OldIndex(idx, offset montage.PixelIndex, params []float64) montage.PixelIndex
}
