package misc

import (
	"image"
	"image/color"
)

// NewGrayImage wraps a row-major buffer of grayscale bytes as an image. The buffer is shared, not copied.
func NewGrayImage(pixels []byte, width int, height int) *image.Gray {
	return &image.Gray{
		Pix:    pixels,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// GrayPixels converts any image to a row-major buffer of grayscale bytes
func GrayPixels(img image.Image) []byte {
	bounds := img.Bounds()
	pixels := make([]byte, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			pixels = append(pixels, gray.Y)
		}
	}
	return pixels
}
