//go:build gocv

package codec

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

func init() {
	register(BackendOpenCV, func() Backend { return openCVBackend{} })
}

// openCVBackend decodes and encodes through OpenCV's imgcodecs. It is only
// compiled with -tags gocv because it needs the native OpenCV libraries.
type openCVBackend struct{}

func (openCVBackend) Name() string { return BackendOpenCV }

func (openCVBackend) Decode(path string) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("opencv could not read image")
	}
	return mat.ToImage()
}

func (openCVBackend) Encode(path string, img image.Image, quality int) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	if !gocv.IMWriteWithParams(path, mat, []int{int(gocv.IMWriteJpegQuality), quality}) {
		return errors.New("opencv could not write image")
	}
	return nil
}
