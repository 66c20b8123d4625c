package kernels

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBilateralFlatImageUnchanged(t *testing.T) {
	const w, h = 10, 10
	src := make([]float32, w*h)
	for i := range src {
		src[i] = 0.6
	}
	out, err := Bilateral(src, w, h, 1.0, 0.2, Options{})
	require.NoError(t, err)
	for i := range out {
		assert.InDelta(t, 0.6, out[i], 1e-6)
	}
}

func TestBilateralZeroIntensityIsFinite(t *testing.T) {
	const w, h = 16, 16
	src := generateBuffer(w, h, PatternChessboard)
	// Chessboard is exactly 0 and 1; black pixels hit the log floor.
	out, err := Bilateral(src, w, h, 1.0, 0.5, Options{Parallel: true})
	require.NoError(t, err)
	for i, v := range out {
		require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0), "index %d is %v", i, v)
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestBilateralPreservesEdges(t *testing.T) {
	// Left half dark, right half bright: a narrow range sigma keeps the step
	// while a Gaussian blur of the same spatial extent smears it.
	const w, h = 20, 6
	src := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= w/2 {
				src[y*w+x] = 0.9
			} else {
				src[y*w+x] = 0.1
			}
		}
	}

	out, err := Bilateral(src, w, h, 1.5, 0.1, Options{})
	require.NoError(t, err)

	k, err := NewGaussian(1.5)
	require.NoError(t, err)
	blurred, err := Convolve2D(src, w, h, k, Options{})
	require.NoError(t, err)

	edge := 3*w + w/2 - 1
	assert.InDelta(t, 0.1, out[edge], 0.01)
	assert.Greater(t, blurred[edge], float32(0.2))
}

func TestBilateralRejectsBadSigma(t *testing.T) {
	src := make([]float32, 4)
	_, err := Bilateral(src, 2, 2, 0, 0.1, Options{})
	assert.True(t, errors.Is(err, ErrInvalidParameter))
	_, err = Bilateral(src, 2, 2, 1, -0.1, Options{})
	assert.True(t, errors.Is(err, ErrInvalidParameter))
	_, err = Bilateral(src, 2, 2, 1e5, 0.1, Options{})
	assert.True(t, errors.Is(err, ErrInvalidParameter), "window above MaxKernelSize")
	_, err = Bilateral(src, 3, 2, 1, 0.1, Options{})
	assert.True(t, errors.Is(err, ErrDimensions))
}
