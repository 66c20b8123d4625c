package kernels

import (
	"github.com/pkg/errors"
)

// ConvolutionType selects the convolution algorithm.
type ConvolutionType int

const (
	// Convolution2D accumulates over the full kernel footprint: O(w·h·size²).
	Convolution2D ConvolutionType = iota
	// ConvolutionSeparable runs a horizontal then a vertical 1D pass using the
	// kernel's split profiles: O(w·h·size). Only valid for separable kernels.
	ConvolutionSeparable
)

// String returns a short name for logs.
func (t ConvolutionType) String() string {
	if t == ConvolutionSeparable {
		return "separable"
	}
	return "2d"
}

// Convolve filters src with k using the selected algorithm and returns a new
// buffer. src is never modified.
//
// Arguments:
// - src: Row-major source samples, len(src) == width*height.
// - width, height: Image dimensions.
// - k: The kernel.
// - kind: Convolution2D or ConvolutionSeparable.
// - opt: Edge handling, pooling and parallelism.
//
// Returns:
// - The filtered buffer.
// - error if dimensions mismatch or a separable pass is requested for a
// non-separable kernel.
//
// @example
// k, _ := NewGaussian(1.5)
// out, err := Convolve(buf, w, h, k, ConvolutionSeparable, Options{Parallel: true})
func Convolve(src []float32, width, height int, k *Kernel, kind ConvolutionType, opt Options) ([]float32, error) {
	if kind == ConvolutionSeparable {
		return ConvolveSeparable(src, width, height, k, opt)
	}
	return Convolve2D(src, width, height, k, opt)
}

// Convolve2D is the brute-force convolution: every output pixel accumulates
// source[mapped neighbour] * weight over the whole kernel footprint.
func Convolve2D(src []float32, width, height int, k *Kernel, opt Options) ([]float32, error) {
	if err := checkDimensions(src, width, height); err != nil {
		return nil, err
	}

	dst := opt.Pool.Get(len(src))
	center := k.Center()

	rowTask := func(y int) {
		row := y * width
		for x := 0; x < width; x++ {
			var sum float64
			for ky := 0; ky < k.Size; ky++ {
				srcRow := mapCoord(y+ky-center, height, opt.Edge) * width
				weights := k.Values[ky*k.Size : (ky+1)*k.Size]
				for kx, weight := range weights {
					srcX := mapCoord(x+kx-center, width, opt.Edge)
					sum += float64(src[srcRow+srcX]) * weight
				}
			}
			dst[row+x] = float32(sum)
		}
	}

	forEachLine(height, opt.Parallel, rowTask)
	return dst, nil
}

// ConvolveSeparable runs the two-pass 1D convolution using the kernel's X and
// Y profiles. For a genuinely separable kernel the result matches Convolve2D
// up to floating point rounding; other kernels are rejected.
func ConvolveSeparable(src []float32, width, height int, k *Kernel, opt Options) ([]float32, error) {
	if err := checkDimensions(src, width, height); err != nil {
		return nil, err
	}
	xProfile, yProfile, err := k.Split()
	if err != nil {
		return nil, err
	}

	tmp := opt.Pool.Get(len(src))
	defer opt.Pool.Put(tmp)
	dst := opt.Pool.Get(len(src))

	convolveHorizontal(src, tmp, width, height, xProfile, opt)
	convolveVertical(tmp, dst, width, height, yProfile, opt)
	return dst, nil
}

// convolveHorizontal applies a 1D kernel along each row.
func convolveHorizontal(src, dst []float32, width, height int, profile []float64, opt Options) {
	center := len(profile) / 2
	rowTask := func(y int) {
		row := y * width
		for x := 0; x < width; x++ {
			var sum float64
			for i, weight := range profile {
				srcX := mapCoord(x+i-center, width, opt.Edge)
				sum += float64(src[row+srcX]) * weight
			}
			dst[row+x] = float32(sum)
		}
	}
	forEachLine(height, opt.Parallel, rowTask)
}

// convolveVertical applies a 1D kernel along each column. Work is still split
// by rows so that each goroutine writes contiguous memory.
func convolveVertical(src, dst []float32, width, height int, profile []float64, opt Options) {
	center := len(profile) / 2
	rowTask := func(y int) {
		row := y * width
		for x := 0; x < width; x++ {
			var sum float64
			for i, weight := range profile {
				srcY := mapCoord(y+i-center, height, opt.Edge)
				sum += float64(src[srcY*width+x]) * weight
			}
			dst[row+x] = float32(sum)
		}
	}
	forEachLine(height, opt.Parallel, rowTask)
}

func checkDimensions(src []float32, width, height int) error {
	if width <= 0 || height <= 0 || len(src) != width*height {
		return errors.Wrapf(ErrDimensions, "%d samples for %dx%d", len(src), width, height)
	}
	return nil
}
