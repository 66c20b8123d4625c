package fourier

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/nvr-ai/go-imgproc/common"
)

// Gonum computes the 2D transform as row then column passes of gonum's
// mixed-radix complex FFT. Any grid size is supported.
type Gonum struct{}

// Forward2D implements Transformer.
func (Gonum) Forward2D(width, height int, grid []complex128) ([]complex128, error) {
	if err := checkGrid(width, height, grid); err != nil {
		return nil, err
	}
	transformRows(width, height, grid, false)
	transformColumns(width, height, grid, false)
	return grid, nil
}

// Inverse2D implements Transformer.
func (Gonum) Inverse2D(width, height int, grid []complex128) ([]complex128, error) {
	if err := checkGrid(width, height, grid); err != nil {
		return nil, err
	}
	transformRows(width, height, grid, true)
	transformColumns(width, height, grid, true)
	return grid, nil
}

// transformRows runs a 1D FFT over every row. A CmplxFFT holds work buffers
// and must not be shared between goroutines, so each partition builds its own.
func transformRows(width, height int, grid []complex128, inverse bool) {
	common.ParallelN(height, width, func(start, end int) {
		fft := fourier.NewCmplxFFT(width)
		out := make([]complex128, width)
		for y := start; y < end; y++ {
			row := grid[y*width : (y+1)*width]
			if inverse {
				fft.Sequence(out, row)
			} else {
				fft.Coefficients(out, row)
			}
			copy(row, out)
		}
	})
}

func transformColumns(width, height int, grid []complex128, inverse bool) {
	common.ParallelN(width, height, func(start, end int) {
		fft := fourier.NewCmplxFFT(height)
		col := make([]complex128, height)
		out := make([]complex128, height)
		for x := start; x < end; x++ {
			for y := 0; y < height; y++ {
				col[y] = grid[y*width+x]
			}
			if inverse {
				fft.Sequence(out, col)
			} else {
				fft.Coefficients(out, col)
			}
			for y := 0; y < height; y++ {
				grid[y*width+x] = out[y]
			}
		}
	})
}
