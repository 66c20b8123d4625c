package kernels

import (
	"math"

	"github.com/pkg/errors"
)

// LogFloor is the smallest intensity fed to the logarithm in the bilateral
// range term. Black pixels would otherwise produce log(0) = -Inf and NaN weights.
const LogFloor = 1.0 / 512.0

// Bilateral applies an edge-preserving bilateral filter.
//
// For each output pixel the filter averages a (6σs+1)² window, weighting
// every neighbour by a spatial Gaussian of its Euclidean distance to the
// center and a range Gaussian of the difference between the log intensities
// of center and neighbour:
//
//	w = exp(-d²/(2σs²)) * exp(-(log c - log n)²/(2σb²))
//
// Intensities are floored at LogFloor before taking the logarithm. The
// weighted sum is normalized by the sum of weights; the center always
// contributes weight 1 so the normalization never divides by zero.
//
// Arguments:
// - src: Row-major source samples.
// - width, height: Image dimensions.
// - spatialSigma: Standard deviation of the spatial Gaussian in pixels, > 0.
// - brightnessSigma: Standard deviation of the range Gaussian in log units, > 0.
// - opt: Edge handling, pooling and parallelism.
//
// Returns:
// - The filtered buffer.
// - error if a sigma is not positive, the window would exceed MaxKernelSize or
// dimensions mismatch.
//
// @example
// out, err := Bilateral(buf, w, h, 2.0, 0.3, Options{Parallel: true})
func Bilateral(src []float32, width, height int, spatialSigma, brightnessSigma float64, opt Options) ([]float32, error) {
	if err := checkDimensions(src, width, height); err != nil {
		return nil, err
	}
	size, err := GaussianSize(spatialSigma)
	if err != nil {
		return nil, errors.Wrap(err, "spatial")
	}
	if !(brightnessSigma > 0) || math.IsInf(brightnessSigma, 0) {
		return nil, errors.Wrapf(ErrInvalidParameter, "brightness sigma %v", brightnessSigma)
	}

	center := size / 2

	// Spatial weights depend only on the offset, so they are shared by every pixel.
	spatial := make([]float64, size*size)
	spatialDenom := 2 * spatialSigma * spatialSigma
	for fy := 0; fy < size; fy++ {
		dy := float64(fy - center)
		for fx := 0; fx < size; fx++ {
			dx := float64(fx - center)
			spatial[fx+fy*size] = math.Exp(-(dx*dx + dy*dy) / spatialDenom)
		}
	}

	logs := make([]float64, len(src))
	for i, v := range src {
		logs[i] = math.Log(math.Max(float64(v), LogFloor))
	}

	dst := opt.Pool.Get(len(src))
	rangeDenom := 2 * brightnessSigma * brightnessSigma

	rowTask := func(y int) {
		for x := 0; x < width; x++ {
			centerLog := logs[y*width+x]

			var intensitySum, normalization float64
			for fy := 0; fy < size; fy++ {
				row := mapCoord(y+fy-center, height, opt.Edge) * width
				for fx := 0; fx < size; fx++ {
					idx := row + mapCoord(x+fx-center, width, opt.Edge)

					diff := centerLog - logs[idx]
					weight := spatial[fx+fy*size] * math.Exp(-(diff*diff)/rangeDenom)

					intensitySum += weight * float64(src[idx])
					normalization += weight
				}
			}
			dst[y*width+x] = float32(intensitySum / normalization)
		}
	}

	forEachLine(height, opt.Parallel, rowTask)
	return dst, nil
}
