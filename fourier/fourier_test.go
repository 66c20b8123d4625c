package fourier

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid(width, height int) []complex128 {
	grid := make([]complex128, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := math.Sin(float64(x)*0.7) + math.Cos(float64(y)*0.3) + float64((x*7+y*13)%5)/5
			grid[y*width+x] = complex(v, 0)
		}
	}
	return grid
}

// naiveDFT2 is the textbook O(n²) definition used as a reference.
func naiveDFT2(width, height int, grid []complex128) []complex128 {
	out := make([]complex128, len(grid))
	for v := 0; v < height; v++ {
		for u := 0; u < width; u++ {
			var sum complex128
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					angle := -2 * math.Pi * (float64(u*x)/float64(width) + float64(v*y)/float64(height))
					sum += grid[y*width+x] * cmplx.Exp(complex(0, angle))
				}
			}
			out[v*width+u] = sum
		}
	}
	return out
}

func TestBackendsMatchDefinition(t *testing.T) {
	sizes := []struct{ w, h int }{{8, 8}, {6, 4}, {5, 7}, {2, 3}}
	for _, name := range Backends() {
		tr, err := New(name)
		require.NoError(t, err)
		for _, s := range sizes {
			grid := testGrid(s.w, s.h)
			want := naiveDFT2(s.w, s.h, grid)

			got, err := tr.Forward2D(s.w, s.h, append([]complex128(nil), grid...))
			require.NoError(t, err)
			for i := range want {
				assert.InDelta(t, real(want[i]), real(got[i]), 1e-9, "%s %dx%d re[%d]", name, s.w, s.h, i)
				assert.InDelta(t, imag(want[i]), imag(got[i]), 1e-9, "%s %dx%d im[%d]", name, s.w, s.h, i)
			}
		}
	}
}

func TestInverseIsUnnormalized(t *testing.T) {
	const w, h = 12, 10
	for _, name := range Backends() {
		tr, err := New(name)
		require.NoError(t, err)

		orig := testGrid(w, h)
		grid := append([]complex128(nil), orig...)
		_, err = tr.Forward2D(w, h, grid)
		require.NoError(t, err)
		_, err = tr.Inverse2D(w, h, grid)
		require.NoError(t, err)

		for i := range orig {
			assert.InDelta(t, real(orig[i])*w*h, real(grid[i]), 1e-8, "%s index %d", name, i)
			assert.InDelta(t, 0, imag(grid[i]), 1e-8, "%s index %d", name, i)
		}
	}
}

func TestBackendsAgree(t *testing.T) {
	const w, h = 32, 24
	a := testGrid(w, h)
	b := append([]complex128(nil), a...)

	_, err := Gonum{}.Forward2D(w, h, a)
	require.NoError(t, err)
	_, err = GoDSP{}.Forward2D(w, h, b)
	require.NoError(t, err)

	for i := range a {
		assert.InDelta(t, 0, cmplx.Abs(a[i]-b[i]), 1e-8)
	}
}

func TestNew(t *testing.T) {
	tr, err := New("")
	require.NoError(t, err)
	assert.IsType(t, Gonum{}, tr)

	tr, err = New("GoDSP")
	require.NoError(t, err)
	assert.IsType(t, GoDSP{}, tr)

	_, err = New("fftw")
	assert.True(t, errors.Is(err, ErrUnknownBackend))
	assert.Equal(t, []string{"godsp", "gonum"}, Backends())
}

func TestDimensionCheck(t *testing.T) {
	_, err := Gonum{}.Forward2D(3, 3, make([]complex128, 8))
	assert.True(t, errors.Is(err, ErrDimensions))
	_, err = GoDSP{}.Inverse2D(0, 3, nil)
	assert.True(t, errors.Is(err, ErrDimensions))
}
