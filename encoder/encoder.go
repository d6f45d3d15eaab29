// Package encoder turns a buffer of 8-bit grayscale pixels into a compressed image file.
package encoder

import (
	"GrayscaleMandelbrot/misc"
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const (
	Png  Format = "png"
	Jpeg Format = "jpeg"
	Bmp  Format = "bmp"
	Tiff Format = "tiff"
)

// Format is the name of an image file format, also used as the file extension
type Format string

var (
	// ErrSizeMismatch is returned when the pixel buffer does not hold width*height bytes
	ErrSizeMismatch = errors.New("pixel buffer does not match image size")

	// ErrUnknownFormat is returned for a format name that has no encoder
	ErrUnknownFormat = errors.New("unknown image format")
)

// Encoder serializes a row-major buffer of grayscale pixels, one byte each, into an image file
type Encoder interface {
	Encode(pixels []byte, width int, height int) ([]byte, error)
	Format() Format
}

type Options struct {
	// JpegQuality ranges from 1 to 100, 0 picks the jpeg package default
	JpegQuality int
}

// ForFormat returns the encoder for the format name, ignoring case. "jpg" and "tif" are accepted as well.
func ForFormat(name string, options Options) (Encoder, error) {
	switch Format(strings.ToLower(name)) {
	case Png:
		return NewPngEncoder(), nil
	case Jpeg, "jpg":
		return NewJpegEncoder(options.JpegQuality), nil
	case Bmp:
		return NewBmpEncoder(), nil
	case Tiff, "tif":
		return NewTiffEncoder(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", name)
	}
}

// grayImage checks the buffer size and wraps the buffer as an image without copying it
func grayImage(pixels []byte, width int, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height {
		return nil, errors.Wrapf(ErrSizeMismatch, "%d bytes for a %dx%d image", len(pixels), width, height)
	}
	return misc.NewGrayImage(pixels, width, height), nil
}

type encodeFunc func(buffer *bytes.Buffer, img *image.Gray) error

func encode(format Format, pixels []byte, width int, height int, encodeImage encodeFunc) ([]byte, error) {
	img, err := grayImage(pixels, width, height)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	if err := encodeImage(&buffer, img); err != nil {
		return nil, errors.Wrapf(err, "encoding %dx%d %s image", width, height, format)
	}
	return buffer.Bytes(), nil
}

type PngEncoder struct {
	encoder png.Encoder
}

func NewPngEncoder() *PngEncoder {
	return &PngEncoder{encoder: png.Encoder{CompressionLevel: png.DefaultCompression}}
}

func (e *PngEncoder) Encode(pixels []byte, width int, height int) ([]byte, error) {
	return encode(Png, pixels, width, height, func(buffer *bytes.Buffer, img *image.Gray) error {
		return e.encoder.Encode(buffer, img)
	})
}

func (e *PngEncoder) Format() Format {
	return Png
}

// JpegEncoder is lossy; decoding its output only gives back an approximation of the pixels
type JpegEncoder struct {
	quality int
}

func NewJpegEncoder(quality int) *JpegEncoder {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &JpegEncoder{quality: quality}
}

func (e *JpegEncoder) Encode(pixels []byte, width int, height int) ([]byte, error) {
	return encode(Jpeg, pixels, width, height, func(buffer *bytes.Buffer, img *image.Gray) error {
		return jpeg.Encode(buffer, img, &jpeg.Options{Quality: e.quality})
	})
}

func (e *JpegEncoder) Format() Format {
	return Jpeg
}

// BmpEncoder writes an 8-bit paletted bitmap with a gray palette
type BmpEncoder struct{}

func NewBmpEncoder() *BmpEncoder {
	return &BmpEncoder{}
}

func (e *BmpEncoder) Encode(pixels []byte, width int, height int) ([]byte, error) {
	return encode(Bmp, pixels, width, height, func(buffer *bytes.Buffer, img *image.Gray) error {
		return bmp.Encode(buffer, img)
	})
}

func (e *BmpEncoder) Format() Format {
	return Bmp
}

type TiffEncoder struct {
	options tiff.Options
}

func NewTiffEncoder() *TiffEncoder {
	return &TiffEncoder{options: tiff.Options{Compression: tiff.Deflate}}
}

func (e *TiffEncoder) Encode(pixels []byte, width int, height int) ([]byte, error) {
	return encode(Tiff, pixels, width, height, func(buffer *bytes.Buffer, img *image.Gray) error {
		return tiff.Encode(buffer, img, &e.options)
	})
}

func (e *TiffEncoder) Format() Format {
	return Tiff
}
