package register

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"montagereg/internal/montage"
)

// convolvePeak computes the 2-D linear cross-convolution of two equal-sized
// overlap images in the frequency domain and returns the maximum sample of
// the result. The peak is the pair's alignment score: the better the two
// overlap images line up, the larger the strongest convolution response.
func convolvePeak(first, second *montage.TileImage) float64 {
	h, w := first.Height, first.Width

	// Grid for linear (non-circular) convolution. Gonum's FFT accepts any
	// length, but power-of-two grids are faster.
	fh := nextPow2(2*h - 1)
	fw := nextPow2(2*w - 1)

	a := make([]complex128, fh*fw)
	b := make([]complex128, fh*fw)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a[y*fw+x] = complex(first.Pix[y*w+x], 0)
			b[y*fw+x] = complex(second.Pix[y*w+x], 0)
		}
	}

	fft2(a, fh, fw, true)
	fft2(b, fh, fw, true)

	for i := range a {
		a[i] *= b[i]
	}

	fft2(a, fh, fw, false)

	// Gonum transforms are unnormalized; forward then inverse scales every
	// sample by the grid size.
	scale := float64(fh * fw)
	max := real(a[0]) / scale
	for _, v := range a[1:] {
		if r := real(v) / scale; r > max {
			max = r
		}
	}
	return max
}

// fft2 runs an in-place 2-D transform over a row-major grid: rows first,
// then columns.
func fft2(grid []complex128, h, w int, forward bool) {
	rowFFT := fourier.NewCmplxFFT(w)
	colFFT := fourier.NewCmplxFFT(h)

	for y := 0; y < h; y++ {
		row := grid[y*w : (y+1)*w]
		if forward {
			rowFFT.Coefficients(row, row)
		} else {
			rowFFT.Sequence(row, row)
		}
	}

	col := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = grid[y*w+x]
		}
		if forward {
			colFFT.Coefficients(col, col)
		} else {
			colFFT.Sequence(col, col)
		}
		for y := 0; y < h; y++ {
			grid[y*w+x] = col[y]
		}
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
