// Package codec - decodes image files into 8-bit interleaved samples and
// encodes samples back to files. The transformation engine only ever sees
// Raw values; the concrete decoder is a pluggable Backend.
package codec

import (
	"image"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// DefaultQuality is the quality used for lossy output formats.
const DefaultQuality = 90

var (
	// ErrDecode is returned when a file is missing or cannot be decoded.
	ErrDecode = errors.New("decode failed")
	// ErrEncode is returned when samples cannot be written.
	ErrEncode = errors.New("encode failed")
	// ErrUnsupportedFormat is returned for file extensions no backend handles.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrUnknownBackend is returned by New for an unregistered backend.
	ErrUnknownBackend = errors.New("unknown codec backend")
	// ErrInvalidRaw is returned when a Raw does not describe its own samples.
	ErrInvalidRaw = errors.New("invalid raw image")
)

// Backend decodes and encodes image files.
type Backend interface {
	// Name identifies the backend in configuration and logs.
	Name() string
	// Decode reads the file at path.
	Decode(path string) (image.Image, error)
	// Encode writes img to path, choosing the format from the extension.
	Encode(path string, img image.Image, quality int) error
}

// Backend names.
const (
	BackendImaging = "imaging"
	BackendOpenCV  = "opencv"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Backend{
		BackendImaging: func() Backend { return imagingBackend{} },
	}
)

// register makes a backend available to New. Backends built behind build
// tags call it from init.
func register(name string, ctor func() Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw is a decoded image as interleaved 8-bit samples.
type Raw struct {
	// Width in pixels.
	Width int `json:"width" yaml:"width"`
	// Height in pixels.
	Height int `json:"height" yaml:"height"`
	// Channels per pixel (1 for gray, 3 for RGB).
	Channels int `json:"channels" yaml:"channels"`
	// Pix holds Width*Height*Channels samples, row-major.
	Pix []uint8 `json:"-" yaml:"-"`
}

// Validate checks that Pix matches the declared geometry.
func (r *Raw) Validate() error {
	if r == nil {
		return errors.Wrap(ErrInvalidRaw, "nil raw image")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Wrapf(ErrInvalidRaw, "dimensions %dx%d", r.Width, r.Height)
	}
	if r.Channels != 1 && r.Channels != 3 {
		return errors.Wrapf(ErrInvalidRaw, "%d channels", r.Channels)
	}
	if len(r.Pix) != r.Width*r.Height*r.Channels {
		return errors.Wrapf(ErrInvalidRaw, "%d samples for %dx%dx%d", len(r.Pix), r.Width, r.Height, r.Channels)
	}
	return nil
}

// Options configures a Codec.
type Options struct {
	// Backend name; empty selects imaging.
	Backend string `json:"backend" yaml:"backend"`
	// Quality for lossy formats; zero selects DefaultQuality.
	Quality int `json:"quality" yaml:"quality"`
	// MaxDimension downscales decoded images whose width or height exceeds
	// it, preserving aspect ratio. Zero disables downscaling.
	MaxDimension int `json:"maxDimension" yaml:"maxDimension"`
}

// Codec turns files into Raw samples and back.
type Codec struct {
	backend      Backend
	quality      int
	maxDimension int
}

// New builds a codec for the given options.
//
// Arguments:
// - opts: Backend selection, output quality and optional downscale limit.
//
// Returns:
// - The codec.
// - error if the backend is not registered.
//
// @example
// c, err := codec.New(codec.Options{Quality: 90})
func New(opts Options) (*Codec, error) {
	name := strings.ToLower(opts.Backend)
	if name == "" {
		name = BackendImaging
	}

	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "%q (available: %s)", opts.Backend, strings.Join(Backends(), ", "))
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Codec{backend: ctor(), quality: quality, maxDimension: opts.MaxDimension}, nil
}

// Default returns the imaging-backed codec at DefaultQuality.
func Default() *Codec {
	return &Codec{backend: imagingBackend{}, quality: DefaultQuality}
}

// Backend returns the name of the active backend.
func (c *Codec) Backend() string {
	return c.backend.Name()
}

// Quality returns the lossy output quality.
func (c *Codec) Quality() int {
	return c.quality
}

// DecodeFile reads path and returns its pixels as interleaved RGB samples.
func (c *Codec) DecodeFile(path string) (*Raw, error) {
	img, err := c.backend.Decode(path)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%s: %v", path, err)
	}
	if c.maxDimension > 0 {
		img = downscale(img, c.maxDimension)
	}
	return FromImage(img), nil
}

// EncodeFile writes raw to path. Single channel samples are expanded to three
// identical channels.
func (c *Codec) EncodeFile(path string, raw *Raw) error {
	if err := raw.Validate(); err != nil {
		return err
	}
	if !Supported(path) {
		return errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
	if err := c.backend.Encode(path, raw.Image(), c.quality); err != nil {
		return errors.Wrapf(ErrEncode, "%s: %v", path, err)
	}
	return nil
}

// Supported reports whether the extension of path is a known image format.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}

// FromImage converts any image to interleaved 8-bit RGB, dropping alpha.
func FromImage(img image.Image) *Raw {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Rect, img, b.Min, draw.Src)
	}

	w, h := b.Dx(), b.Dy()
	raw := &Raw{Width: w, Height: h, Channels: 3, Pix: make([]uint8, w*h*3)}
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dst := raw.Pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			dst[x*3+0] = src[x*4+0]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return raw
}

// Image returns an opaque NRGBA view of the samples; gray samples are
// replicated into R, G and B.
func (r *Raw) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	n := r.Width * r.Height
	for i := 0; i < n; i++ {
		var red, green, blue uint8
		if r.Channels == 1 {
			red, green, blue = r.Pix[i], r.Pix[i], r.Pix[i]
		} else {
			red, green, blue = r.Pix[i*3], r.Pix[i*3+1], r.Pix[i*3+2]
		}
		img.Pix[i*4+0] = red
		img.Pix[i*4+1] = green
		img.Pix[i*4+2] = blue
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// downscale shrinks img so neither side exceeds maxDimension.
func downscale(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}
	return resize.Thumbnail(uint(maxDimension), uint(maxDimension), img, resize.Lanczos3)
}
