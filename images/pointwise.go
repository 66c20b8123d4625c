package images

import (
	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-imgproc/common"
)

// The operators below rewrite a buffer in place. Every sample is independent
// so work is split across goroutines with common.Parallel. Arguments are not
// validated here; Operation.Validate covers the documented domains.

// ApplyNegative maps v to 1-v. No clamping.
func ApplyNegative(buf Buffer) {
	common.Parallel(len(buf), func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			buf[i] = 1 - buf[i]
		}
	})
}

// ApplyThreshold maps samples below t to 0 and everything else to 1.
func ApplyThreshold(buf Buffer, t float32) {
	common.Parallel(len(buf), func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			if buf[i] < t {
				buf[i] = 0
			} else {
				buf[i] = 1
			}
		}
	})
}

// ApplyBrightness adds b to every sample, clamped to [0,1].
func ApplyBrightness(buf Buffer, b float32) {
	common.Parallel(len(buf), func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			buf[i] = common.Clamp(buf[i]+b, 0, 1)
		}
	})
}

// ApplyContrast multiplies every sample by c, clamped to [0,1].
func ApplyContrast(buf Buffer, c float32) {
	common.Parallel(len(buf), func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			buf[i] = common.Clamp(buf[i]*c, 0, 1)
		}
	})
}

// ApplyGamma raises every sample to the power g, clamped to [0,1].
func ApplyGamma(buf Buffer, g float32) {
	common.Parallel(len(buf), func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			buf[i] = common.Clamp(math32.Pow(buf[i], g), 0, 1)
		}
	})
}

// ApplyQuantize reduces the buffer to k levels: floor(v*k + 1e-4)/k, clamped
// to [0,1]. This differs from floor(v*k)/k only for samples less than 1e-4/k
// below a step (for k = 4, within 2.5e-5 of 0.25, 0.5, 0.75 or 1), which are
// rounded up onto that step. Samples that are already quantized but carry
// float32 error therefore stay on their level.
//
// Arguments:
// - buf: The samples to rewrite.
// - k: Positive level count.
//
// @example
// ApplyQuantize(buf, 4) // 0.3 -> 0.25, 0.99 -> 0.75, 1.0 -> 1.0
func ApplyQuantize(buf Buffer, k int) {
	const quantizeTolerance = 1e-4

	levels := float32(k)
	common.Parallel(len(buf), func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			buf[i] = common.Clamp(math32.Floor(buf[i]*levels+quantizeTolerance)/levels, 0, 1)
		}
	})
}

// ApplyEqualize remaps every sample through the CDF: v' = CDF[round(v*255)],
// clamped to [0,1]. cdf must have been computed over buf.
func ApplyEqualize(buf Buffer, cdf *CDF) {
	common.Parallel(len(buf), func(partStart, partEnd int) {
		for i := partStart; i < partEnd; i++ {
			buf[i] = common.Clamp(cdf[level(buf[i])], 0, 1)
		}
	})
}
