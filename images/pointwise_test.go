package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(n int, v float32) Buffer {
	buf := make(Buffer, n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func TestNegativeMidpointIsFixed(t *testing.T) {
	buf := filled(4*4, 0.5)
	ApplyNegative(buf)
	for _, v := range buf {
		assert.Equal(t, float32(0.5), v)
	}
}

func TestNegativeTwiceIsIdentity(t *testing.T) {
	buf := randomBuffer(5000, 7)
	orig := buf.Clone()

	ApplyNegative(buf)
	ApplyNegative(buf)
	assert.InDeltaSlice(t, orig, buf, 1e-6)
}

func TestThreshold(t *testing.T) {
	buf := Buffer{0.0, 0.25, 0.5, 0.75, 1.0}
	ApplyThreshold(buf, 0.5)
	assert.Equal(t, Buffer{0, 0, 1, 1, 1}, buf)

	noisy := randomBuffer(4096, 3)
	ApplyThreshold(noisy, 0.3)
	for i, v := range noisy {
		assert.True(t, v == 0 || v == 1, "sample %d = %v", i, v)
	}
}

func TestClampedOperators(t *testing.T) {
	testCases := []struct {
		name     string
		apply    func(Buffer)
		input    Buffer
		expected Buffer
	}{
		{
			name:     "brightness up saturates",
			apply:    func(b Buffer) { ApplyBrightness(b, 0.5) },
			input:    Buffer{0, 0.25, 0.75, 1},
			expected: Buffer{0.5, 0.75, 1, 1},
		},
		{
			name:     "brightness down saturates",
			apply:    func(b Buffer) { ApplyBrightness(b, -0.5) },
			input:    Buffer{0, 0.25, 0.75, 1},
			expected: Buffer{0, 0, 0.25, 0.5},
		},
		{
			name:     "contrast",
			apply:    func(b Buffer) { ApplyContrast(b, 2) },
			input:    Buffer{0, 0.25, 0.5, 0.75},
			expected: Buffer{0, 0.5, 1, 1},
		},
		{
			name:     "gamma",
			apply:    func(b Buffer) { ApplyGamma(b, 2) },
			input:    Buffer{0, 0.5, 1},
			expected: Buffer{0, 0.25, 1},
		},
		{
			name:     "quantize",
			apply:    func(b Buffer) { ApplyQuantize(b, 4) },
			input:    Buffer{0, 0.3, 0.5, 0.99, 1},
			expected: Buffer{0, 0.25, 0.5, 0.75, 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := tc.input.Clone()
			tc.apply(buf)
			assert.InDeltaSlice(t, tc.expected, buf, 1e-6)
		})
	}
}

func TestQuantizeIsIdempotent(t *testing.T) {
	for _, k := range []int{1, 2, 3, 7, 10, 49, 255} {
		buf := randomBuffer(2048, int64(k))
		ApplyQuantize(buf, k)
		once := buf.Clone()
		ApplyQuantize(buf, k)
		assert.Equal(t, once, buf, "k=%d", k)
	}
}

func TestQuantizeToleranceBand(t *testing.T) {
	// For k = 4 only samples within 2.5e-5 below a step move up onto it.
	buf := Buffer{0.25 - 1e-5, 0.25 - 1e-4, 0.5 - 2e-5, 0.5 - 1e-3}
	ApplyQuantize(buf, 4)
	assert.InDeltaSlice(t, Buffer{0.25, 0, 0.5, 0.25}, buf, 1e-6)
}

func TestEqualizeFlatImage(t *testing.T) {
	// A flat white image has its single level at CDF 1 and is left unchanged.
	white := filled(16, 1)
	cdf, err := ComputeCDF(ComputeHistogram(white), len(white))
	require.NoError(t, err)
	ApplyEqualize(white, &cdf)
	assert.Equal(t, filled(16, 1), white)

	// Any other flat image stays flat.
	gray := filled(16, 0.4)
	cdf, err = ComputeCDF(ComputeHistogram(gray), len(gray))
	require.NoError(t, err)
	ApplyEqualize(gray, &cdf)
	for _, v := range gray {
		assert.Equal(t, gray[0], v)
	}
}

func TestEqualizeSpreadsLevels(t *testing.T) {
	// Two clusters squeezed into the low end are pushed apart.
	buf := Buffer{0.1, 0.1, 0.2, 0.2}
	cdf, err := ComputeCDF(ComputeHistogram(buf), len(buf))
	require.NoError(t, err)

	ApplyEqualize(buf, &cdf)
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 1, 1}, buf, 1e-6)
}
