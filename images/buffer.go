// Package images - grayscale image transformation engine: pixel buffers,
// histogram/CDF estimation, pointwise operators, the spectral engine and the
// Image type composing them.
package images

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imgproc/codec"
	"github.com/nvr-ai/go-imgproc/common"
	"github.com/nvr-ai/go-imgproc/images/kernels"
)

var (
	// ErrEmptyBuffer is returned when a statistic is requested over zero pixels.
	ErrEmptyBuffer = errors.New("empty pixel buffer")
	// ErrInvalidParameter is returned when an operation argument is outside
	// its documented domain. It is the same sentinel the kernels package uses.
	ErrInvalidParameter = kernels.ErrInvalidParameter
	// ErrStaleState is returned when derived state (histogram or CDF) was
	// computed from a buffer that has since been mutated.
	ErrStaleState = errors.New("derived state is stale")
	// ErrNoSpectrum is returned when a spectral operation runs before
	// ComputeSpectrum or after the spectrum was released.
	ErrNoSpectrum = errors.New("spectrum not computed")
	// ErrDimensions is returned when a buffer does not match its dimensions.
	ErrDimensions = kernels.ErrDimensions
)

// Levels is the number of intensity levels used by the histogram and CDF.
const Levels = 256

// Buffer is a row-major sequence of normalized intensity samples.
type Buffer []float32

// Clone returns an independent copy of the buffer.
func (b Buffer) Clone() Buffer {
	out := make(Buffer, len(b))
	copy(out, b)
	return out
}

// level maps a sample to its histogram bin, round(v*255) clamped to [0,255].
// +Inf saturates to 255; NaN and -Inf map to 0.
func level(v float32) int {
	if !(v > 0) {
		return 0
	}
	if !(v < 1) {
		return Levels - 1
	}
	return common.Clamp(int(v*(Levels-1)+0.5), 0, Levels-1)
}

// ITU-R BT.709 luma coefficients.
const (
	redWeight   = 0.2126
	greenWeight = 0.7152
	blueWeight  = 0.0722
)

// Luminance reduces decoded samples to a single normalized channel.
//
// Three channel input is weighted with the BT.709 coefficients and divided by
// 255; single channel input is only normalized.
//
// Arguments:
// - raw: Decoded 8-bit interleaved samples.
//
// Returns:
// - The luminance buffer, len == raw.Width*raw.Height.
// - error if raw is malformed.
//
// @example
// raw, _ := codec.Default().DecodeFile("lena.png")
// buf, _ := Luminance(raw)
func Luminance(raw *codec.Raw) (Buffer, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	n := raw.Width * raw.Height
	out := make(Buffer, n)
	if raw.Channels == 1 {
		common.Parallel(n, func(partStart, partEnd int) {
			for i := partStart; i < partEnd; i++ {
				out[i] = float32(raw.Pix[i]) / 255
			}
		})
		return out, nil
	}

	common.Parallel(n, func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			px := raw.Pix[i*3 : i*3+3]
			luma := redWeight*float32(px[0]) + greenWeight*float32(px[1]) + blueWeight*float32(px[2])
			out[i] = common.Clamp(luma/255, 0, 1)
		}
	})
	return out, nil
}

// ToRaw quantizes the buffer to a single 8-bit channel. Samples outside [0,1]
// saturate.
func (b Buffer) ToRaw(width, height int) (*codec.Raw, error) {
	if width <= 0 || height <= 0 || len(b) != width*height {
		return nil, errors.Wrapf(ErrDimensions, "%d samples for %dx%d", len(b), width, height)
	}
	raw := &codec.Raw{Width: width, Height: height, Channels: 1, Pix: make([]uint8, len(b))}
	common.Parallel(len(b), func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			raw.Pix[i] = uint8(level(b[i]))
		}
	})
	return raw, nil
}
