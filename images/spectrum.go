package images

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imgproc/common"
	"github.com/nvr-ai/go-imgproc/fourier"
)

// gridPool recycles complex grids between spectra of the same size.
var gridPool sync.Pool // *[]complex128

func getGrid(n int) []complex128 {
	if v := gridPool.Get(); v != nil {
		grid := *(v.(*[]complex128))
		if cap(grid) >= n {
			return grid[:n]
		}
	}
	return make([]complex128, n)
}

func putGrid(grid []complex128) {
	gridPool.Put(&grid)
}

// Spectrum holds the frequency domain representation of a buffer.
//
// The complex grid is the only lossless representation and is opaque outside
// this package. The display buffer is a log-scaled, quadrant shifted
// magnitude view for visualization only.
type Spectrum struct {
	// Width of the transformed grid.
	Width int
	// Height of the transformed grid.
	Height int

	grid        []complex128
	display     Buffer
	transformer fourier.Transformer
}

// NewSpectrum runs the forward transform over buf.
//
// Arguments:
// - buf: Row-major spatial samples.
// - width, height: Grid dimensions.
// - tr: The transform backend; nil selects the default backend.
//
// Returns:
// - The spectrum, which must be released with Release.
// - error if dimensions mismatch or the transform fails.
//
// @example
// s, err := NewSpectrum(buf, w, h, nil)
// defer s.Release()
func NewSpectrum(buf Buffer, width, height int, tr fourier.Transformer) (*Spectrum, error) {
	if width <= 0 || height <= 0 || len(buf) != width*height {
		return nil, errors.Wrapf(ErrDimensions, "%d samples for %dx%d", len(buf), width, height)
	}
	if tr == nil {
		var err error
		if tr, err = fourier.New(""); err != nil {
			return nil, err
		}
	}

	grid := getGrid(len(buf))
	for i, v := range buf {
		grid[i] = complex(float64(v), 0)
	}
	if _, err := tr.Forward2D(width, height, grid); err != nil {
		putGrid(grid)
		return nil, errors.Wrap(err, "forward transform")
	}

	s := &Spectrum{Width: width, Height: height, grid: grid, transformer: tr}
	s.refreshDisplay()
	return s, nil
}

// refreshDisplay rebuilds the display buffer from the grid. Bin (x,y) lands at
// ((x+w/2) mod w, (y+h/2) mod h) so the zero frequency sits at the center.
func (s *Spectrum) refreshDisplay() {
	w, h := s.Width, s.Height
	if len(s.display) != w*h {
		s.display = make(Buffer, w*h)
	}
	common.ParallelN(h, w, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			dy := (y + h/2) % h
			for x := 0; x < w; x++ {
				dx := (x + w/2) % w
				s.display[dx+dy*w] = float32(math.Log10(1 + cmplx.Abs(s.grid[x+y*w])))
			}
		}
	})
}

// Display returns a copy of the log-magnitude view.
func (s *Spectrum) Display() Buffer {
	return s.display.Clone()
}

// Coefficient returns the unnormalized transform coefficient of bin (x, y).
func (s *Spectrum) Coefficient(x, y int) (complex128, error) {
	if s.grid == nil {
		return 0, ErrNoSpectrum
	}
	return s.grid[x+y*s.Width], nil
}

// Released reports whether the grid has been returned.
func (s *Spectrum) Released() bool {
	return s.grid == nil
}

// Reconstruct runs the inverse transform over a copy of the grid, divides by
// the pixel count and takes the per-pixel magnitude. The result is always
// non-negative; the sign of the real part is not recovered. The grid is left
// untouched so Reconstruct may be repeated.
func (s *Spectrum) Reconstruct() (Buffer, error) {
	if s.grid == nil {
		return nil, ErrNoSpectrum
	}

	n := len(s.grid)
	scratch := getGrid(n)
	defer putGrid(scratch)
	copy(scratch, s.grid)

	if _, err := s.transformer.Inverse2D(s.Width, s.Height, scratch); err != nil {
		return nil, errors.Wrap(err, "inverse transform")
	}

	out := make(Buffer, n)
	scale := 1 / float64(n)
	common.Parallel(n, func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			out[i] = float32(cmplx.Abs(scratch[i] * complex(scale, 0)))
		}
	})
	return out, nil
}

// frequency returns the signed frequency of bin i out of n in cycles per
// pixel, in [-0.5, 0.5).
func frequency(i, n int) float64 {
	if i > (n-1)/2 {
		i -= n
	}
	return float64(i) / float64(n)
}

// ApplyMask multiplies every coefficient by mask(fx, fy), where fx and fy are
// the signed bin frequencies in cycles per pixel. The grid is changed in place
// and the display view is refreshed.
func (s *Spectrum) ApplyMask(mask func(fx, fy float64) float64) error {
	if s.grid == nil {
		return ErrNoSpectrum
	}

	w, h := s.Width, s.Height
	common.ParallelN(h, w, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			fy := frequency(y, h)
			for x := 0; x < w; x++ {
				s.grid[x+y*w] *= complex(mask(frequency(x, w), fy), 0)
			}
		}
	})
	s.refreshDisplay()
	return nil
}

// LowPass attenuates frequencies with a Gaussian of standard deviation cutoff
// (cycles per pixel). The zero frequency is kept intact.
func (s *Spectrum) LowPass(cutoff float64) error {
	if !(cutoff > 0) {
		return errors.Wrapf(ErrInvalidParameter, "cutoff %v", cutoff)
	}
	denom := 2 * cutoff * cutoff
	return s.ApplyMask(func(fx, fy float64) float64 {
		return math.Exp(-(fx*fx + fy*fy) / denom)
	})
}

// HighPass is the complement of LowPass; the zero frequency is removed.
func (s *Spectrum) HighPass(cutoff float64) error {
	if !(cutoff > 0) {
		return errors.Wrapf(ErrInvalidParameter, "cutoff %v", cutoff)
	}
	denom := 2 * cutoff * cutoff
	return s.ApplyMask(func(fx, fy float64) float64 {
		return 1 - math.Exp(-(fx*fx+fy*fy)/denom)
	})
}

// Release returns the complex grid to the pool. It is safe to call more than
// once; later spectral calls fail with ErrNoSpectrum.
func (s *Spectrum) Release() {
	if s == nil || s.grid == nil {
		return
	}
	putGrid(s.grid)
	s.grid = nil
}
