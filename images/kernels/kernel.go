// Package kernels - square convolution kernels and the spatial filter engine
// (2D convolution, separable two-pass convolution and bilateral smoothing)
// operating on row-major float32 luminance buffers.
package kernels

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidParameter is returned when a kernel parameter is outside its domain.
	ErrInvalidParameter = errors.New("invalid kernel parameter")
	// ErrNotSeparable is returned when a 1D decomposition is requested for a
	// kernel that is not known to be separable.
	ErrNotSeparable = errors.New("kernel is not separable")
	// ErrDimensions is returned when a buffer does not match its declared size.
	ErrDimensions = errors.New("buffer does not match image dimensions")
)

// separabilityTolerance bounds the rank-1 residual accepted for user kernels.
const separabilityTolerance = 1e-9

// MaxKernelSize is the largest side length a kernel or filter window may
// have. It bounds Gaussian sigmas to (MaxKernelSize-1)/6.
const MaxKernelSize = 1001

// Kernel is a square weight matrix with an odd side length.
//
// Values are stored row-major: Values[x + y*Size].
type Kernel struct {
	// Size is the side length in pixels, always odd.
	Size int
	// Values holds Size*Size weights.
	Values []float64

	separable bool
}

// NewKernel creates an empty kernel, rounding even sizes up to the next odd
// value so that the kernel has a unique center.
//
// Arguments:
// - size: The requested side length (>= 1).
//
// Returns:
// - The kernel with zeroed weights.
// - error if size is not positive.
//
// @example
// k, _ := NewKernel(10) // k.Size == 11
func NewKernel(size int) (*Kernel, error) {
	if size < 1 || size > MaxKernelSize {
		return nil, errors.Wrapf(ErrInvalidParameter, "kernel size %d not in [1,%d]", size, MaxKernelSize)
	}
	k := &Kernel{}
	k.Resize(size)
	return k, nil
}

// NewGaussian is shorthand for NewKernel(1) followed by CreateGauss(sigma).
func NewGaussian(sigma float64) (*Kernel, error) {
	k := &Kernel{Size: 1}
	if err := k.CreateGauss(sigma); err != nil {
		return nil, err
	}
	return k, nil
}

// NewFromValues builds a kernel from explicit row-major weights.
func NewFromValues(values []float64) (*Kernel, error) {
	k := &Kernel{}
	if err := k.CreateFromValues(values); err != nil {
		return nil, err
	}
	return k, nil
}

// Resize changes the side length, rounding even sizes up to odd, and
// reallocates zeroed weights.
func (k *Kernel) Resize(size int) {
	k.Size = oddSize(size)
	k.Values = make([]float64, k.Size*k.Size)
	k.separable = false
}

// Center returns the index of the center row and column.
func (k *Kernel) Center() int {
	return k.Size / 2
}

// At returns the weight at column x, row y.
func (k *Kernel) At(x, y int) float64 {
	return k.Values[x+y*k.Size]
}

// Separable reports whether Split may be used on this kernel.
func (k *Kernel) Separable() bool {
	return k.separable
}

// Sum returns the sum of all weights.
func (k *Kernel) Sum() float64 {
	var sum float64
	for _, v := range k.Values {
		sum += v
	}
	return sum
}

// CreateGauss fills the kernel with normalized Gaussian weights
// exp(-(x²+y²)/(2σ²)).
//
// The side length becomes the larger of the current size and 6σ+1 (rounded
// up to odd), so a kernel requested at size 10 with σ=1 keeps 11 taps while a
// 1x1 kernel grows to cover ±3σ.
//
// Arguments:
// - sigma: Standard deviation of the Gaussian, > 0.
//
// Returns:
// - error if sigma is not positive or needs a side above MaxKernelSize.
//
// @example
// k, _ := NewKernel(10)
// _ = k.CreateGauss(1.0) // k.Size == 11, k.Sum() == 1
func (k *Kernel) CreateGauss(sigma float64) error {
	size, err := GaussianSize(sigma)
	if err != nil {
		return errors.Wrap(err, "gaussian")
	}
	if k.Size > size {
		size = k.Size
	}
	k.Resize(size)

	center := k.Center()
	denom := 2.0 * sigma * sigma

	var sum float64
	for y := -center; y <= center; y++ {
		for x := -center; x <= center; x++ {
			w := math.Exp(-float64(x*x+y*y) / denom)
			k.Values[(x+center)+(y+center)*k.Size] = w
			sum += w
		}
	}
	for i := range k.Values {
		k.Values[i] /= sum
	}

	k.separable = true
	return nil
}

// CreateFromValues interprets a flat sequence of n² weights as an n×n kernel,
// verbatim and without normalization.
//
// The kernel is marked separable only when it is numerically an outer product
// of its center column and center row and both of those lines have a non-zero
// sum (the 1D profiles are renormalized by that sum).
func (k *Kernel) CreateFromValues(values []float64) error {
	n := int(math.Round(math.Sqrt(float64(len(values)))))
	if n == 0 || n*n != len(values) {
		return errors.Wrapf(ErrInvalidParameter, "%d values do not form a square kernel", len(values))
	}
	if n%2 == 0 {
		return errors.Wrapf(ErrInvalidParameter, "kernel side %d has no unique center", n)
	}

	k.Size = n
	k.Values = make([]float64, len(values))
	copy(k.Values, values)
	k.separable = k.isRankOne()
	return nil
}

// isRankOne checks K[x,y]*K[c,c] == K[x,c]*K[c,y] for every tap.
func (k *Kernel) isRankOne() bool {
	c := k.Center()
	pivot := k.At(c, c)
	if pivot == 0 {
		return false
	}

	var rowSum, colSum float64
	for i := 0; i < k.Size; i++ {
		rowSum += k.At(i, c)
		colSum += k.At(c, i)
	}
	if rowSum == 0 || colSum == 0 {
		return false
	}

	scale := 0.0
	for _, v := range k.Values {
		scale = math.Max(scale, math.Abs(v))
	}
	for y := 0; y < k.Size; y++ {
		for x := 0; x < k.Size; x++ {
			residual := k.At(x, y)*pivot - k.At(x, c)*k.At(c, y)
			if math.Abs(residual) > separabilityTolerance*scale*scale {
				return false
			}
		}
	}
	return true
}

// Split decomposes the kernel into two 1D profiles through its center.
//
// The X profile is the center row (varies along x) and the Y profile is the
// center column (varies along y); each is renormalized to sum to 1.
// Decomposing a non-separable kernel would silently produce a different
// filter, so such kernels are rejected with ErrNotSeparable.
//
// Returns:
// - xProfile: weights applied along the horizontal pass.
// - yProfile: weights applied along the vertical pass.
// - error if the kernel is not separable.
func (k *Kernel) Split() (xProfile, yProfile []float64, err error) {
	if !k.separable {
		return nil, nil, errors.Wrapf(ErrNotSeparable, "%dx%d kernel", k.Size, k.Size)
	}

	c := k.Center()
	xProfile = make([]float64, k.Size)
	yProfile = make([]float64, k.Size)

	var sumX, sumY float64
	for i := 0; i < k.Size; i++ {
		xProfile[i] = k.At(i, c)
		yProfile[i] = k.At(c, i)
		sumX += xProfile[i]
		sumY += yProfile[i]
	}
	for i := 0; i < k.Size; i++ {
		xProfile[i] /= sumX
		yProfile[i] /= sumY
	}
	return xProfile, yProfile, nil
}

// String renders the weights one row per line.
func (k *Kernel) String() string {
	var b strings.Builder
	for y := 0; y < k.Size; y++ {
		for x := 0; x < k.Size; x++ {
			if x > 0 {
				b.WriteString("   ")
			}
			fmt.Fprintf(&b, "%.6f", k.At(x, y))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// GaussianSize returns the side length covering ±3σ, ceil(6σ+1) rounded up to
// odd.
//
// Returns:
// - error if sigma is not positive or the side would exceed MaxKernelSize.
func GaussianSize(sigma float64) (int, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return 0, errors.Wrapf(ErrInvalidParameter, "sigma %v", sigma)
	}
	side := math.Ceil(6*sigma + 1)
	if side > MaxKernelSize {
		return 0, errors.Wrapf(ErrInvalidParameter, "sigma %v needs a %v pixel window, limit %d", sigma, side, MaxKernelSize)
	}
	return oddSize(int(side)), nil
}

func oddSize(size int) int {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		return size + 1
	}
	return size
}
