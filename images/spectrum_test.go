package images

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-imgproc/fourier"
)

func TestSpectrumRoundTrip(t *testing.T) {
	for _, backend := range fourier.Backends() {
		t.Run(backend, func(t *testing.T) {
			tr, err := fourier.New(backend)
			require.NoError(t, err)

			for _, dims := range [][2]int{{8, 8}, {12, 6}, {7, 5}} {
				w, h := dims[0], dims[1]
				buf := randomBuffer(w*h, int64(w*h))

				s, err := NewSpectrum(buf, w, h, tr)
				require.NoError(t, err)

				out, err := s.Reconstruct()
				require.NoError(t, err)
				assert.InDeltaSlice(t, buf, out, 1e-5, "%dx%d", w, h)

				// The grid is not consumed by reconstruction.
				again, err := s.Reconstruct()
				require.NoError(t, err)
				assert.InDeltaSlice(t, out, again, 1e-9)
				s.Release()
			}
		})
	}
}

func TestSpectrumDisplayCentersZeroFrequency(t *testing.T) {
	const w, h = 4, 4
	s, err := NewSpectrum(filled(w*h, 0.5), w, h, nil)
	require.NoError(t, err)
	defer s.Release()

	dc, err := s.Coefficient(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, real(dc), 1e-9)

	display := s.Display()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == w/2 && y == h/2 {
				assert.InDelta(t, math.Log10(9), display[x+y*w], 1e-6)
				continue
			}
			assert.InDelta(t, 0.0, display[x+y*w], 1e-6, "(%d,%d)", x, y)
		}
	}
}

func TestSpectrumShiftIsSymmetric(t *testing.T) {
	// A horizontal cosine with one cycle over the width has energy in bins
	// 1 and w-1, which land on either side of the center column.
	const w, h = 8, 4
	buf := make(Buffer, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf[x+y*w] = float32(0.5 + 0.5*math.Cos(2*math.Pi*float64(x)/w))
		}
	}
	s, err := NewSpectrum(buf, w, h, nil)
	require.NoError(t, err)
	defer s.Release()

	display := s.Display()
	row := h / 2
	assert.InDelta(t, display[w/2-1+row*w], display[w/2+1+row*w], 1e-6)
	assert.Greater(t, display[w/2+1+row*w], float32(0.5))
}

func TestSpectrumFrequencyMasks(t *testing.T) {
	const w, h = 8, 8

	t.Run("low pass keeps a flat image", func(t *testing.T) {
		s, err := NewSpectrum(filled(w*h, 0.6), w, h, nil)
		require.NoError(t, err)
		defer s.Release()

		require.NoError(t, s.LowPass(0.1))
		out, err := s.Reconstruct()
		require.NoError(t, err)
		assert.InDeltaSlice(t, filled(w*h, 0.6), out, 1e-5)
	})

	t.Run("high pass removes a flat image", func(t *testing.T) {
		s, err := NewSpectrum(filled(w*h, 0.6), w, h, nil)
		require.NoError(t, err)
		defer s.Release()

		require.NoError(t, s.HighPass(0.1))
		out, err := s.Reconstruct()
		require.NoError(t, err)
		assert.InDeltaSlice(t, filled(w*h, 0), out, 1e-5)
	})

	t.Run("low pass smooths a chessboard", func(t *testing.T) {
		buf := make(Buffer, w*h)
		for i := range buf {
			buf[i] = float32((i%w + i/w) % 2)
		}
		s, err := NewSpectrum(buf, w, h, nil)
		require.NoError(t, err)
		defer s.Release()

		require.NoError(t, s.LowPass(0.05))
		out, err := s.Reconstruct()
		require.NoError(t, err)
		for _, v := range out {
			assert.InDelta(t, 0.5, v, 0.05)
		}
	})

	t.Run("cutoff must be positive", func(t *testing.T) {
		s, err := NewSpectrum(filled(w*h, 0.6), w, h, nil)
		require.NoError(t, err)
		defer s.Release()

		assert.True(t, errors.Is(s.LowPass(0), ErrInvalidParameter))
		assert.True(t, errors.Is(s.HighPass(-1), ErrInvalidParameter))
	})
}

func TestSpectrumRelease(t *testing.T) {
	s, err := NewSpectrum(filled(16, 0.2), 4, 4, nil)
	require.NoError(t, err)

	s.Release()
	s.Release()
	assert.True(t, s.Released())

	_, err = s.Reconstruct()
	assert.True(t, errors.Is(err, ErrNoSpectrum))
	assert.True(t, errors.Is(s.LowPass(0.1), ErrNoSpectrum))

	var nilSpectrum *Spectrum
	nilSpectrum.Release()
}

func TestNewSpectrumRejectsBadDimensions(t *testing.T) {
	_, err := NewSpectrum(make(Buffer, 10), 4, 4, nil)
	assert.True(t, errors.Is(err, ErrDimensions))
}
