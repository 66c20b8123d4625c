package images

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imgproc/images/kernels"
)

// Operation is one transform of an Image with its typed arguments.
//
// The set of kinds is closed: every kind is declared in this file and handled
// by Image.Apply.
type Operation interface {
	// Name identifies the operation in logs and on the command line.
	Name() string
	// Prefix is prepended to the output file name.
	Prefix() string
	// Validate checks the arguments against their documented domain.
	Validate() error

	operation()
}

// Negate maps v to 1-v.
type Negate struct{}

// Threshold binarizes at Level, in (0,1).
type Threshold struct {
	Level float32 `json:"level" yaml:"level"`
}

// Brightness adds Delta, in (-1,1).
type Brightness struct {
	Delta float32 `json:"delta" yaml:"delta"`
}

// Contrast scales by Factor, > 0.
type Contrast struct {
	Factor float32 `json:"factor" yaml:"factor"`
}

// Gamma raises to Exponent, > 0.
type Gamma struct {
	Exponent float32 `json:"exponent" yaml:"exponent"`
}

// Quantize reduces to Levels intensity levels, >= 1.
type Quantize struct {
	Levels int `json:"levels" yaml:"levels"`
}

// Equalize performs histogram equalization.
type Equalize struct{}

// GaussianBlur convolves with a Gaussian kernel of standard deviation Sigma,
// optionally through the separable two-pass path.
type GaussianBlur struct {
	Sigma     float64 `json:"sigma" yaml:"sigma"`
	Separable bool    `json:"separable" yaml:"separable"`
}

// Convolution convolves with an arbitrary kernel.
type Convolution struct {
	Kernel *kernels.Kernel         `json:"kernel" yaml:"kernel"`
	Type   kernels.ConvolutionType `json:"type" yaml:"type"`
}

// BilateralFilter smooths while preserving edges.
type BilateralFilter struct {
	SpatialSigma    float64 `json:"spatialSigma" yaml:"spatialSigma"`
	BrightnessSigma float64 `json:"brightnessSigma" yaml:"brightnessSigma"`
}

// SpectrumView computes the spectrum and yields its display view.
type SpectrumView struct{}

// Reconstruct inverts the stored spectrum.
type Reconstruct struct{}

// FrequencyFilter applies a Gaussian low or high pass mask to the spectrum
// and reconstructs. Cutoff is in cycles per pixel.
type FrequencyFilter struct {
	Cutoff   float64 `json:"cutoff" yaml:"cutoff"`
	HighPass bool    `json:"highPass" yaml:"highPass"`
}

func (Negate) operation()          {}
func (Threshold) operation()       {}
func (Brightness) operation()      {}
func (Contrast) operation()        {}
func (Gamma) operation()           {}
func (Quantize) operation()        {}
func (Equalize) operation()        {}
func (GaussianBlur) operation()    {}
func (Convolution) operation()     {}
func (BilateralFilter) operation() {}
func (SpectrumView) operation()    {}
func (Reconstruct) operation()     {}
func (FrequencyFilter) operation() {}

func (Negate) Name() string          { return "negate" }
func (Threshold) Name() string       { return "threshold" }
func (Brightness) Name() string      { return "brightness" }
func (Contrast) Name() string        { return "contrast" }
func (Gamma) Name() string           { return "gamma" }
func (Quantize) Name() string        { return "quantize" }
func (Equalize) Name() string        { return "equalize" }
func (GaussianBlur) Name() string    { return "gauss" }
func (Convolution) Name() string     { return "convolve" }
func (BilateralFilter) Name() string { return "bilateral" }
func (SpectrumView) Name() string    { return "spectrum" }
func (Reconstruct) Name() string     { return "reconstruct" }

func (f FrequencyFilter) Name() string {
	if f.HighPass {
		return "highpass"
	}
	return "lowpass"
}

func (Negate) Prefix() string          { return "n_" }
func (Threshold) Prefix() string       { return "t_" }
func (Brightness) Prefix() string      { return "b_" }
func (Contrast) Prefix() string        { return "c_" }
func (Gamma) Prefix() string           { return "g_" }
func (Quantize) Prefix() string        { return "q_" }
func (Equalize) Prefix() string        { return "h_" }
func (GaussianBlur) Prefix() string    { return "gb_" }
func (Convolution) Prefix() string     { return "cv_" }
func (BilateralFilter) Prefix() string { return "bf_" }
func (SpectrumView) Prefix() string    { return "sp_" }
func (Reconstruct) Prefix() string     { return "r_" }

func (f FrequencyFilter) Prefix() string {
	if f.HighPass {
		return "hp_"
	}
	return "lp_"
}

func (Negate) Validate() error       { return nil }
func (Equalize) Validate() error     { return nil }
func (SpectrumView) Validate() error { return nil }
func (Reconstruct) Validate() error  { return nil }

func (o Threshold) Validate() error {
	if !(o.Level > 0 && o.Level < 1) {
		return errors.Wrapf(ErrInvalidParameter, "threshold %v not in (0,1)", o.Level)
	}
	return nil
}

func (o Brightness) Validate() error {
	if !(o.Delta > -1 && o.Delta < 1) {
		return errors.Wrapf(ErrInvalidParameter, "brightness %v not in (-1,1)", o.Delta)
	}
	return nil
}

func (o Contrast) Validate() error {
	return positive("contrast", float64(o.Factor))
}

func (o Gamma) Validate() error {
	return positive("gamma", float64(o.Exponent))
}

func (o Quantize) Validate() error {
	if o.Levels < 1 {
		return errors.Wrapf(ErrInvalidParameter, "quantize levels %d < 1", o.Levels)
	}
	return nil
}

func (o GaussianBlur) Validate() error {
	if _, err := kernels.GaussianSize(o.Sigma); err != nil {
		return errors.Wrap(err, "gaussian blur")
	}
	return nil
}

func (o Convolution) Validate() error {
	if o.Kernel == nil || len(o.Kernel.Values) != o.Kernel.Size*o.Kernel.Size || o.Kernel.Size%2 == 0 {
		return errors.Wrap(ErrInvalidParameter, "convolution needs an odd square kernel")
	}
	if o.Type == kernels.ConvolutionSeparable && !o.Kernel.Separable() {
		return errors.Wrapf(kernels.ErrNotSeparable, "%dx%d kernel", o.Kernel.Size, o.Kernel.Size)
	}
	return nil
}

func (o BilateralFilter) Validate() error {
	if _, err := kernels.GaussianSize(o.SpatialSigma); err != nil {
		return errors.Wrap(err, "bilateral spatial")
	}
	return positive("brightness sigma", o.BrightnessSigma)
}

func (o FrequencyFilter) Validate() error {
	return positive("cutoff", o.Cutoff)
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return errors.Wrapf(ErrInvalidParameter, "%s %v must be positive", name, v)
	}
	return nil
}

// Apply runs op against the buffer addressed by src.
//
// Pointwise operations rewrite the addressed buffer in place; on SourceImage
// the receiver itself is returned, on SourceSpectrum a new image holding a
// copy of the rewritten display view. Filters and spectral operations return
// a new image. Arguments are validated first and nothing is mutated when
// validation fails.
//
// Arguments:
// - op: The operation and its arguments.
// - src: SourceImage or SourceSpectrum.
//
// Returns:
// - The image holding the result.
// - error on invalid arguments, missing spectrum or filter failure.
//
// @example
// out, err := img.Apply(images.Gamma{Exponent: 2.2}, images.SourceImage)
func (img *Image) Apply(op Operation, src DataSource) (*Image, error) {
	if op == nil {
		return nil, errors.Wrap(ErrInvalidParameter, "nil operation")
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := img.apply(op, src)
	if err != nil {
		return nil, errors.Wrap(err, op.Name())
	}

	img.settings.logger.Debug().
		Str("op", op.Name()).
		Str("source", src.String()).
		Str("path", img.Path).
		Dur("elapsed", time.Since(start)).
		Msg("operation applied")
	return out, nil
}

func (img *Image) apply(op Operation, src DataSource) (*Image, error) {
	switch op := op.(type) {
	case Negate:
		return img.pointwise(src, ApplyNegative)
	case Threshold:
		return img.pointwise(src, func(b Buffer) { ApplyThreshold(b, op.Level) })
	case Brightness:
		return img.pointwise(src, func(b Buffer) { ApplyBrightness(b, op.Delta) })
	case Contrast:
		return img.pointwise(src, func(b Buffer) { ApplyContrast(b, op.Factor) })
	case Gamma:
		return img.pointwise(src, func(b Buffer) { ApplyGamma(b, op.Exponent) })
	case Quantize:
		return img.pointwise(src, func(b Buffer) { ApplyQuantize(b, op.Levels) })
	case Equalize:
		return img.equalize(src)
	case GaussianBlur:
		k, err := kernels.NewGaussian(op.Sigma)
		if err != nil {
			return nil, err
		}
		kind := kernels.Convolution2D
		if op.Separable {
			kind = kernels.ConvolutionSeparable
		}
		return img.convolve(src, k, kind)
	case Convolution:
		return img.convolve(src, op.Kernel, op.Type)
	case BilateralFilter:
		buf, err := img.buffer(src)
		if err != nil {
			return nil, err
		}
		out, err := kernels.Bilateral(buf, img.Width, img.Height, op.SpatialSigma, op.BrightnessSigma, img.settings.filter)
		if err != nil {
			return nil, err
		}
		return img.derive(out), nil
	case SpectrumView:
		if src != SourceImage {
			return nil, errors.Wrap(ErrInvalidParameter, "spectrum of the spectrum view")
		}
		s, err := img.ComputeSpectrum()
		if err != nil {
			return nil, err
		}
		return img.derive(s.Display()), nil
	case Reconstruct:
		return img.ReconstructFromSpectrum()
	case FrequencyFilter:
		return img.frequencyFilter(op)
	}
	return nil, errors.Wrapf(ErrInvalidParameter, "unhandled operation %T", op)
}

// Run applies op and saves the result to dir with the operation's prefix.
func (img *Image) Run(op Operation, src DataSource, dir string) (string, error) {
	out, err := img.Apply(op, src)
	if err != nil {
		return "", err
	}
	return out.Save(dir, op.Prefix(), SourceImage)
}

func (img *Image) pointwise(src DataSource, fn func(Buffer)) (*Image, error) {
	buf, err := img.buffer(src)
	if err != nil {
		return nil, err
	}
	fn(buf)
	if src == SourceSpectrum {
		return img.derive(buf.Clone()), nil
	}
	img.touch()
	return img, nil
}

// equalize refreshes the histogram and CDF of the addressed buffer before
// remapping it, so the CDF always describes the buffer being equalized.
func (img *Image) equalize(src DataSource) (*Image, error) {
	if src == SourceSpectrum {
		return img.pointwise(src, func(b Buffer) {
			cdf, err := ComputeCDF(ComputeHistogram(b), len(b))
			if err == nil {
				ApplyEqualize(b, &cdf)
			}
		})
	}

	img.ComputeHistogram()
	if err := img.ComputeCDF(); err != nil {
		return nil, err
	}
	if err := img.Equalize(); err != nil {
		return nil, err
	}
	return img, nil
}

func (img *Image) convolve(src DataSource, k *kernels.Kernel, kind kernels.ConvolutionType) (*Image, error) {
	buf, err := img.buffer(src)
	if err != nil {
		return nil, err
	}
	out, err := kernels.Convolve(buf, img.Width, img.Height, k, kind, img.settings.filter)
	if err != nil {
		return nil, err
	}
	return img.derive(out), nil
}

// frequencyFilter masks the spectrum of the current buffer and reconstructs
// it. A missing spectrum, or one computed before the last mutation, is
// recomputed first.
func (img *Image) frequencyFilter(op FrequencyFilter) (*Image, error) {
	s, err := img.Spectrum()
	if err != nil || !img.SpectrumCurrent() {
		s, err = img.ComputeSpectrum()
	}
	if err != nil {
		return nil, err
	}

	if op.HighPass {
		err = s.HighPass(op.Cutoff)
	} else {
		err = s.LowPass(op.Cutoff)
	}
	if err != nil {
		return nil, err
	}
	return img.ReconstructFromSpectrum()
}
