package images

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-imgproc/codec"
	"github.com/nvr-ai/go-imgproc/fourier"
	"github.com/nvr-ai/go-imgproc/images/kernels"
)

// DataSource selects which buffer of an Image an operation reads and writes.
type DataSource int

const (
	// SourceImage is the spatial pixel buffer.
	SourceImage DataSource = iota
	// SourceSpectrum is the display view of the computed spectrum.
	SourceSpectrum
)

// String returns the name used in logs and flags.
func (s DataSource) String() string {
	if s == SourceSpectrum {
		return "spectrum"
	}
	return "image"
}

// ParseDataSource maps "image" or "spectrum" to a DataSource.
func ParseDataSource(name string) (DataSource, error) {
	switch name {
	case "", "image":
		return SourceImage, nil
	case "spectrum":
		return SourceSpectrum, nil
	}
	return SourceImage, errors.Wrapf(ErrInvalidParameter, "data source %q", name)
}

// settings are the collaborators shared by an Image and the images derived
// from it.
type settings struct {
	logger      zerolog.Logger
	transformer fourier.Transformer
	codec       *codec.Codec
	filter      kernels.Options
}

// Option configures an Image.
type Option func(*settings)

// WithLogger sets the logger used for operation traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithTransformer sets the Fourier backend.
func WithTransformer(tr fourier.Transformer) Option {
	return func(s *settings) { s.transformer = tr }
}

// WithCodec sets the codec used by Load, Reload and Save.
func WithCodec(c *codec.Codec) Option {
	return func(s *settings) { s.codec = c }
}

// WithFilterOptions sets edge handling, pooling and parallelism for the
// spatial filters.
func WithFilterOptions(opt kernels.Options) Option {
	return func(s *settings) { s.filter = opt }
}

func newSettings(opts []Option) (settings, error) {
	s := settings{
		logger: zerolog.Nop(),
		filter: kernels.Options{Parallel: true},
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.codec == nil {
		s.codec = codec.Default()
	}
	if s.transformer == nil {
		tr, err := fourier.New("")
		if err != nil {
			return s, err
		}
		s.transformer = tr
	}
	return s, nil
}

// Image owns a luminance buffer and the state derived from it.
//
// Histogram and CDF are computed eagerly when loading from a file and only on
// request otherwise. They carry the buffer version they were computed from;
// a mutation bumps the version and makes them stale until recomputed.
// The spectrum is computed lazily and released by Close.
type Image struct {
	// Path is the file the image was loaded from; Save derives its output
	// name from it.
	Path string `json:"path" yaml:"path"`
	// Width in pixels.
	Width int `json:"width" yaml:"width"`
	// Height in pixels.
	Height int `json:"height" yaml:"height"`
	// Channels processed; always 1 (luminance).
	Channels int `json:"channels" yaml:"channels"`

	data Buffer

	histogram        Histogram
	cdf              CDF
	version          uint64
	histogramVersion uint64
	cdfVersion       uint64
	hasHistogram     bool
	hasCDF           bool

	spectrum        *Spectrum
	spectrumVersion uint64

	settings settings
}

// Load decodes the file at path, reduces it to luminance and computes the
// histogram and CDF.
//
// Arguments:
// - path: The image file.
// - opts: Collaborators (logger, codec, Fourier backend, filter options).
//
// Returns:
// - The image.
// - error wrapping codec.ErrDecode when the file is missing or unreadable.
//
// @example
// img, err := images.Load("lena.jpg", images.WithLogger(log))
// if err != nil { return err }
// defer img.Close()
func Load(path string, opts ...Option) (*Image, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	img := &Image{Channels: 1, settings: s}
	if err := img.Reload(path); err != nil {
		return nil, err
	}
	return img, nil
}

// FromBuffer wraps an already computed buffer. The image takes ownership of
// buf. No histogram or CDF is computed.
func FromBuffer(buf Buffer, width, height int, opts ...Option) (*Image, error) {
	if width <= 0 || height <= 0 || len(buf) != width*height {
		return nil, errors.Wrapf(ErrDimensions, "%d samples for %dx%d", len(buf), width, height)
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return &Image{Width: width, Height: height, Channels: 1, data: buf, version: 1, settings: s}, nil
}

// derive wraps buf in a new image sharing this image's path and settings.
func (img *Image) derive(buf Buffer) *Image {
	return &Image{
		Path:     img.Path,
		Width:    img.Width,
		Height:   img.Height,
		Channels: 1,
		data:     buf,
		version:  1,
		settings: img.settings,
	}
}

// Reload replaces the buffer with the decoded contents of path. On failure
// the image keeps its previous buffer and derived state.
func (img *Image) Reload(path string) error {
	start := time.Now()
	raw, err := img.settings.codec.DecodeFile(path)
	if err != nil {
		return err
	}
	buf, err := Luminance(raw)
	if err != nil {
		return errors.Wrapf(err, "luminance of %s", path)
	}

	img.releaseSpectrum()
	img.Path = path
	img.Width = raw.Width
	img.Height = raw.Height
	img.Channels = 1
	img.data = buf
	img.touch()

	img.ComputeHistogram()
	if err := img.ComputeCDF(); err != nil {
		return err
	}

	img.settings.logger.Debug().
		Str("path", path).
		Int("width", img.Width).
		Int("height", img.Height).
		Dur("elapsed", time.Since(start)).
		Msg("image loaded")
	return nil
}

// Pixels returns a copy of the luminance buffer.
func (img *Image) Pixels() Buffer {
	return img.data.Clone()
}

// At returns the sample at column x, row y.
func (img *Image) At(x, y int) float32 {
	return img.data[x+y*img.Width]
}

// touch records a mutation of the buffer.
func (img *Image) touch() {
	img.version++
}

// ComputeHistogram recomputes the histogram from the current buffer.
func (img *Image) ComputeHistogram() Histogram {
	img.histogram = ComputeHistogram(img.data)
	img.histogramVersion = img.version
	img.hasHistogram = true
	return img.histogram
}

// ComputeCDF recomputes the CDF from the histogram. The histogram must be
// current.
func (img *Image) ComputeCDF() error {
	if !img.hasHistogram || img.histogramVersion != img.version {
		return errors.Wrap(ErrStaleState, "histogram does not describe the current buffer")
	}
	cdf, err := ComputeCDF(img.histogram, len(img.data))
	if err != nil {
		return err
	}
	img.cdf = cdf
	img.cdfVersion = img.version
	img.hasCDF = true
	return nil
}

// Histogram returns the last computed histogram and whether it describes the
// current buffer.
func (img *Image) Histogram() (Histogram, bool) {
	return img.histogram, img.hasHistogram && img.histogramVersion == img.version
}

// CDF returns the last computed CDF and whether it describes the current
// buffer.
func (img *Image) CDF() (CDF, bool) {
	return img.cdf, img.hasCDF && img.cdfVersion == img.version
}

// Equalize remaps the buffer through its CDF. It fails with ErrStaleState,
// leaving the buffer unchanged, when the CDF was not computed over the current
// buffer.
func (img *Image) Equalize() error {
	if _, current := img.CDF(); !current {
		return errors.Wrap(ErrStaleState, "compute the histogram and CDF before equalizing")
	}
	ApplyEqualize(img.data, &img.cdf)
	img.touch()
	return nil
}

// ComputeSpectrum runs the forward transform over the current buffer,
// replacing any previous spectrum.
func (img *Image) ComputeSpectrum() (*Spectrum, error) {
	s, err := NewSpectrum(img.data, img.Width, img.Height, img.settings.transformer)
	if err != nil {
		return nil, err
	}
	img.releaseSpectrum()
	img.spectrum = s
	img.spectrumVersion = img.version
	return s, nil
}

// SpectrumCurrent reports whether a spectrum exists and was computed from the
// current buffer.
func (img *Image) SpectrumCurrent() bool {
	return img.spectrum != nil && !img.spectrum.Released() && img.spectrumVersion == img.version
}

// Spectrum returns the computed spectrum, or ErrNoSpectrum.
func (img *Image) Spectrum() (*Spectrum, error) {
	if img.spectrum == nil || img.spectrum.Released() {
		return nil, ErrNoSpectrum
	}
	return img.spectrum, nil
}

// ReconstructFromSpectrum builds a new image from the inverse transform of the
// stored spectrum.
func (img *Image) ReconstructFromSpectrum() (*Image, error) {
	s, err := img.Spectrum()
	if err != nil {
		return nil, err
	}
	buf, err := s.Reconstruct()
	if err != nil {
		return nil, err
	}
	return img.derive(buf), nil
}

func (img *Image) releaseSpectrum() {
	if img.spectrum != nil {
		img.spectrum.Release()
		img.spectrum = nil
	}
}

// buffer returns the samples addressed by src.
func (img *Image) buffer(src DataSource) (Buffer, error) {
	if src == SourceSpectrum {
		s, err := img.Spectrum()
		if err != nil {
			return nil, err
		}
		return s.display, nil
	}
	return img.data, nil
}

// Save encodes the buffer addressed by src to dir/<prefix><base name of Path>.
// The codec writes the luminance as three identical channels.
//
// Arguments:
// - dir: Output directory; empty means the directory of Path.
// - prefix: Prepended to the file name, e.g. "n_".
// - src: SourceImage or SourceSpectrum.
//
// Returns:
// - The written path.
// - error if the buffer is unavailable or encoding fails.
func (img *Image) Save(dir, prefix string, src DataSource) (string, error) {
	buf, err := img.buffer(src)
	if err != nil {
		return "", err
	}
	name := filepath.Base(img.Path)
	if img.Path == "" {
		name = "image.png"
	}
	if dir == "" {
		dir = filepath.Dir(img.Path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}

	raw, err := buf.ToRaw(img.Width, img.Height)
	if err != nil {
		return "", err
	}

	out := filepath.Join(dir, prefix+name)
	if err := img.settings.codec.EncodeFile(out, raw); err != nil {
		return "", err
	}
	img.settings.logger.Debug().Str("path", out).Str("source", src.String()).Msg("image saved")
	return out, nil
}

// Close releases the spectrum. The image must not be used afterwards.
func (img *Image) Close() {
	img.releaseSpectrum()
	img.data = nil
}
