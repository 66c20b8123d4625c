package fourier

import (
	"github.com/mjibson/go-dsp/fft"
)

// GoDSP delegates to go-dsp's 2D FFT. go-dsp normalizes its inverse, so the
// result is rescaled by width*height to honour the unnormalized contract.
type GoDSP struct{}

// Forward2D implements Transformer.
func (GoDSP) Forward2D(width, height int, grid []complex128) ([]complex128, error) {
	if err := checkGrid(width, height, grid); err != nil {
		return nil, err
	}
	out := fft.FFT2(toMatrix(width, height, grid))
	fromMatrix(width, grid, out, 1)
	return grid, nil
}

// Inverse2D implements Transformer.
func (GoDSP) Inverse2D(width, height int, grid []complex128) ([]complex128, error) {
	if err := checkGrid(width, height, grid); err != nil {
		return nil, err
	}
	out := fft.IFFT2(toMatrix(width, height, grid))
	fromMatrix(width, grid, out, complex(float64(width*height), 0))
	return grid, nil
}

// toMatrix views the row-major grid as [height][width] without copying.
func toMatrix(width, height int, grid []complex128) [][]complex128 {
	m := make([][]complex128, height)
	for y := range m {
		m[y] = grid[y*width : (y+1)*width : (y+1)*width]
	}
	return m
}

func fromMatrix(width int, grid []complex128, m [][]complex128, scale complex128) {
	for y, row := range m {
		dst := grid[y*width : (y+1)*width]
		for x, v := range row {
			dst[x] = v * scale
		}
	}
}
