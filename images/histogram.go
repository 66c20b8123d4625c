package images

import (
	"github.com/pkg/errors"
)

// Histogram counts samples per intensity level. The counts sum to the number
// of samples it was computed from.
type Histogram [Levels]int

// CDF is the cumulative distribution of a Histogram: non-decreasing, in
// [0,1], with CDF[Levels-1] == 1 up to rounding.
type CDF [Levels]float32

// ComputeHistogram bins every sample at round(v*255), clamped to [0,255].
//
// Arguments:
// - buf: The samples to count.
//
// Returns:
// - The histogram.
//
// @example
// h := ComputeHistogram(Buffer{0, 0.5, 1})
// // h[0] == 1, h[128] == 1, h[255] == 1
func ComputeHistogram(buf Buffer) Histogram {
	var h Histogram
	for _, v := range buf {
		h[level(v)]++
	}
	return h
}

// Total returns the sum of all counts.
func (h *Histogram) Total() int {
	total := 0
	for _, c := range h {
		total += c
	}
	return total
}

// ComputeCDF accumulates the normalized histogram:
// CDF[0] = h[0]/n, CDF[i] = CDF[i-1] + h[i]/n.
//
// Arguments:
// - h: The histogram.
// - pixelCount: The number of samples h was computed from.
//
// Returns:
// - The CDF.
// - ErrEmptyBuffer if pixelCount is not positive.
func ComputeCDF(h Histogram, pixelCount int) (CDF, error) {
	var cdf CDF
	if pixelCount <= 0 {
		return cdf, errors.Wrapf(ErrEmptyBuffer, "pixel count %d", pixelCount)
	}

	// Accumulate in float64 so 256 additions do not drift away from 1.
	n := float64(pixelCount)
	var acc float64
	for i, c := range h {
		acc += float64(c) / n
		cdf[i] = float32(acc)
	}
	return cdf, nil
}
