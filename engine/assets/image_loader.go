package assets

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"os"

	"github.com/pkg/errors"
)

// LoadPNG returns width, height, and tightly packed RGBA8 pixels (row-major,
// top-left origin) of the PNG at path.
func LoadPNG(path string) (w, h int, rgba []byte, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, nil, errors.Wrapf(err, "open png '%s'", path)
	}
	img, err := DecodePNG(b)
	if err != nil {
		return 0, 0, nil, errors.Wrapf(err, "decode png '%s'", path)
	}
	w, h = img.Bounds().Dx(), img.Bounds().Dy()
	return w, h, img.Pix, nil
}

// DecodePNG decodes PNG data into an RGBA image with stride == 4*width.
func DecodePNG(data []byte) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ToRGBA(img), nil
}

// ToRGBA returns img as a tightly packed *image.RGBA with a zero origin,
// converting only when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if m, ok := img.(*image.RGBA); ok && m.Stride == m.Rect.Dx()*4 && m.Rect.Min == (image.Point{}) {
		return m
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}
