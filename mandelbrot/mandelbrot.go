package mandelbrot

import (
	"GrayscaleMandelbrot/task"

	"github.com/pkg/errors"
)

// IterationLimit is the number of iterations used to decide if a point escapes.
// It also bounds every intensity to a single byte.
const IterationLimit = 255

// Bounds is the width and height of an image (or a band of it) in pixels
type Bounds struct {
	Width  int
	Height int
}

// Pixels returns the number of pixels covered by the bounds
func (b Bounds) Pixels() int {
	return b.Width * b.Height
}

// Pixel is a (column, row) location in an image. Rows grow downward.
type Pixel struct {
	Column int
	Row    int
}

// PixelToPoint converts the (column, row) pixel of an image with the given bounds to the point it covers on the
// complex plane, where upperLeft and lowerRight are the points designating the corners of the image.
func PixelToPoint(bounds Bounds, pixel Pixel, upperLeft complex128, lowerRight complex128) complex128 {
	width := real(lowerRight) - real(upperLeft)
	height := imag(upperLeft) - imag(lowerRight)

	// The row increases going down while the imaginary component increases going up, hence the subtraction
	return complex(
		real(upperLeft)+float64(pixel.Column)*width/float64(bounds.Width),
		imag(upperLeft)-float64(pixel.Row)*height/float64(bounds.Height),
	)
}

// EscapeTime tries to determine if c is in the Mandelbrot set using at most limit iterations.
//
// If c escapes the circle of radius two centered on the origin the number of iterations it took is returned along
// with true. If the limit is reached without being able to prove that c escapes, c is probably a member of the set and
// false is returned.
// https://en.wikipedia.org/wiki/Plotting_algorithms_for_the_Mandelbrot_set#Unoptimized_na%C3%AFve_escape_time_algorithm
func EscapeTime(c complex128, limit int) (int, bool) {
	var z complex128
	for i := 0; i < limit; i++ {
		if real(z)*real(z)+imag(z)*imag(z) > 4.0 {
			return i, true
		}
		z = z*z + c
	}
	return 0, false
}

// Intensity is the grayscale value of a point: black for members of the set and brighter the faster a point escapes
func Intensity(iterations int, escaped bool) byte {
	if !escaped {
		return 0
	}
	return byte(IterationLimit - iterations)
}

// Render fills pixels, one grayscale byte per pixel in row-major order, with the part of the Mandelbrot set between
// upperLeft and lowerRight.
//
// pixels must hold exactly bounds.Width*bounds.Height bytes. Anything else is a programming error and panics with an
// error wrapping ErrContractViolation.
func Render(pixels []byte, bounds Bounds, upperLeft complex128, lowerRight complex128) {
	if len(pixels) != bounds.Pixels() {
		panic(errors.Wrapf(ErrContractViolation, "pixel buffer holds %d bytes but bounds %dx%d need %d",
			len(pixels), bounds.Width, bounds.Height, bounds.Pixels()))
	}

	RenderBand(pixels, bounds, task.Band{Rows: bounds.Height, Width: bounds.Width}, upperLeft, lowerRight)
}

// RenderBand fills pixels with the rows of band, part of an image with the given bounds covering upperLeft to
// lowerRight. Each pixel is mapped from its row in the full image, so a pixel gets the same value whichever band it
// falls in.
//
// pixels must hold exactly the band and the band must lie inside the image, otherwise RenderBand panics with an error
// wrapping ErrContractViolation.
func RenderBand(pixels []byte, bounds Bounds, band task.Band, upperLeft complex128, lowerRight complex128) {
	if band.Width != bounds.Width || band.Top < 0 || band.Rows < 0 || band.Top+band.Rows > bounds.Height {
		panic(errors.Wrapf(ErrContractViolation, "%s does not fit in a %dx%d image", band.String(), bounds.Width,
			bounds.Height))
	}
	if len(pixels) != band.Len() {
		panic(errors.Wrapf(ErrContractViolation, "pixel buffer holds %d bytes but %s needs %d",
			len(pixels), band.String(), band.Len()))
	}

	for row := 0; row < band.Rows; row++ {
		for column := 0; column < band.Width; column++ {
			point := PixelToPoint(bounds, Pixel{Column: column, Row: band.Top + row}, upperLeft, lowerRight)
			pixels[row*band.Width+column] = Intensity(EscapeTime(point, IterationLimit))
		}
	}
}
