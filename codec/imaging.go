package codec

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// imagingBackend decodes with disintegration/imaging (JPEG, PNG, GIF, BMP,
// TIFF with EXIF auto-orientation) and handles WebP through chai2010/webp.
type imagingBackend struct{}

func (imagingBackend) Name() string { return BackendImaging }

func (imagingBackend) Decode(path string) (image.Image, error) {
	if isWebP(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return webp.Decode(f)
	}
	return imaging.Open(path, imaging.AutoOrientation(true))
}

func (imagingBackend) Encode(path string, img image.Image, quality int) error {
	if isWebP(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := webp.Encode(f, img, &webp.Options{Quality: float32(quality)}); err != nil {
			f.Close()
			return errors.Wrap(err, "webp")
		}
		return f.Close()
	}
	return imaging.Save(img, path, imaging.JPEGQuality(quality))
}

func isWebP(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".webp")
}
