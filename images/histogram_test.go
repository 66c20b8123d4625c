package images

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBuffer(n int, seed int64) Buffer {
	rng := rand.New(rand.NewSource(seed))
	buf := make(Buffer, n)
	for i := range buf {
		buf[i] = rng.Float32()
	}
	return buf
}

func TestComputeHistogramLevels(t *testing.T) {
	testCases := []struct {
		name  string
		value float32
		level int
	}{
		{name: "black", value: 0, level: 0},
		{name: "white", value: 1, level: 255},
		{name: "midpoint rounds up", value: 0.5, level: 128},
		{name: "quarter", value: 0.25, level: 64},
		{name: "below range clamps", value: -0.3, level: 0},
		{name: "above range clamps", value: 1.7, level: 255},
		{name: "positive infinity saturates", value: float32(math.Inf(1)), level: 255},
		{name: "negative infinity is black", value: float32(math.Inf(-1)), level: 0},
		{name: "NaN is black", value: float32(math.NaN()), level: 0},
		{name: "huge overflow saturates", value: 3e38, level: 255},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := ComputeHistogram(Buffer{tc.value})
			assert.Equal(t, 1, h[tc.level])
			assert.Equal(t, 1, h.Total())
		})
	}
}

func TestHistogramSumsToPixelCount(t *testing.T) {
	buf := randomBuffer(999, 1)
	h := ComputeHistogram(buf)
	assert.Equal(t, len(buf), h.Total())
}

func TestCDFIsMonotoneAndEndsAtOne(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		buf := randomBuffer(64*48, seed)
		cdf, err := ComputeCDF(ComputeHistogram(buf), len(buf))
		require.NoError(t, err)

		for i := 1; i < Levels; i++ {
			assert.GreaterOrEqual(t, cdf[i], cdf[i-1], "level %d", i)
		}
		assert.InDelta(t, 1.0, cdf[Levels-1], 1e-6)
	}
}

func TestCDFAccumulatesHistogram(t *testing.T) {
	var h Histogram
	h[0], h[10], h[255] = 1, 2, 1

	cdf, err := ComputeCDF(h, 4)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cdf[0], 1e-7)
	assert.InDelta(t, 0.25, cdf[9], 1e-7)
	assert.InDelta(t, 0.75, cdf[10], 1e-7)
	assert.InDelta(t, 0.75, cdf[254], 1e-7)
	assert.InDelta(t, 1.0, cdf[255], 1e-7)
}

func TestComputeCDFRejectsEmptyBuffer(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := ComputeCDF(Histogram{}, n)
		assert.True(t, errors.Is(err, ErrEmptyBuffer), "pixel count %d", n)
	}
}
