package mandelbrot

import (
	"GrayscaleMandelbrot/encoder"
	"math"

	"github.com/pkg/errors"
)

// Draw renders the part of the Mandelbrot set between the (left, top) and (right, bottom) corners into an image of
// width by height pixels using threads goroutines, and returns it encoded as a grayscale PNG.
func Draw(width int, height int, left float64, top float64, right float64, bottom float64, threads int) ([]byte, error) {
	bounds := Bounds{Width: width, Height: height}
	pixels, err := DrawPixels(bounds, complex(left, top), complex(right, bottom), threads)
	if err != nil {
		return nil, err
	}

	png := encoder.NewPngEncoder()
	return png.Encode(pixels, width, height)
}

// DrawSettings renders the image described by settings and encodes it in the format the settings ask for
func DrawSettings(settings Settings) ([]byte, error) {
	imageEncoder, err := settings.Encoder()
	if err != nil {
		return nil, err
	}

	pixels, err := DrawPixels(settings.Bounds(), settings.UpperLeft(), settings.LowerRight(), settings.ThreadCount)
	if err != nil {
		return nil, err
	}

	return imageEncoder.Encode(pixels, settings.Width, settings.Height)
}

// DrawPixels renders the image and returns the raw buffer: one grayscale byte per pixel in row-major order
func DrawPixels(bounds Bounds, upperLeft complex128, lowerRight complex128, threads int) ([]byte, error) {
	if err := Validate(bounds, upperLeft, lowerRight, threads); err != nil {
		return nil, err
	}

	pixels := make([]byte, bounds.Pixels())
	scheduler := NewScheduler(threads, RenderBand)
	if err := scheduler.Run(pixels, bounds, upperLeft, lowerRight); err != nil {
		return nil, err
	}
	return pixels, nil
}

// Validate checks the arguments of a render. The viewport must be a rectangle with its upper left corner actually
// above and to the left of its lower right corner.
func Validate(bounds Bounds, upperLeft complex128, lowerRight complex128, threads int) error {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "image dimensions must be positive, got %dx%d", bounds.Width, bounds.Height)
	}
	if bounds.Width > math.MaxInt/bounds.Height {
		return errors.Wrapf(ErrInvalidArgument, "image dimensions %dx%d are too large", bounds.Width, bounds.Height)
	}
	if threads <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "thread count must be positive, got %d", threads)
	}
	// Written so NaN corners fail as well
	if !(real(upperLeft) < real(lowerRight)) || !(imag(upperLeft) > imag(lowerRight)) {
		return errors.Wrapf(ErrInvalidArgument, "viewport %v to %v is not a left-to-right, top-to-bottom rectangle",
			upperLeft, lowerRight)
	}
	return nil
}
