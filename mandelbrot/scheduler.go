package mandelbrot

import (
	"GrayscaleMandelbrot/task"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// BandRenderer fills the pixels of one band of an image with the given bounds covering upperLeft to lowerRight.
// RenderBand is the renderer used for real images.
type BandRenderer func(pixels []byte, bounds Bounds, band task.Band, upperLeft complex128, lowerRight complex128)

// Scheduler splits an image into horizontal bands and renders them with a fixed pool of goroutines.
// Each goroutine claims the next band from a shared cursor, so a goroutine that finishes a cheap band early simply
// takes another one.
type Scheduler struct {
	logger      bslogger.Logger
	render      BandRenderer
	threadCount int
}

func NewScheduler(threadCount int, render BandRenderer) Scheduler {
	if render == nil {
		render = RenderBand
	}

	return Scheduler{
		logger:      bslogger.NewLogger("Scheduler", bslogger.Normal, nil),
		render:      render,
		threadCount: threadCount,
	}
}

// Run renders every band of pixels, an image with the given bounds covering upperLeft to lowerRight, and returns once
// all goroutines are done. If any goroutine panics no more bands are handed out and the panic is returned as an
// error wrapping ErrWorkerPanic.
func (s *Scheduler) Run(pixels []byte, bounds Bounds, upperLeft complex128, lowerRight complex128) error {
	if s.threadCount <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "thread count must be positive, got %d", s.threadCount)
	}
	if len(pixels) != bounds.Pixels() {
		return errors.Wrapf(ErrContractViolation, "pixel buffer holds %d bytes but bounds %dx%d need %d",
			len(pixels), bounds.Width, bounds.Height, bounds.Pixels())
	}

	bandRows := task.BandRows(bounds.Height, s.threadCount)
	bands := task.NewCursor(pixels, bounds.Width, bandRows)
	s.logger.Debugf("Rendering %dx%d image as %d bands of %d rows with %d threads",
		bounds.Width, bounds.Height, bands.Count(), bandRows, s.threadCount)

	var group errgroup.Group
	for i := 0; i < s.threadCount; i++ {
		i := i // per-iteration copy; go.mod targets go1.21 which predates per-iteration loop variables
		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					bands.Stop()
					err = panicError(i, r)
					s.logger.Error(err.Error())
				}
			}()

			for {
				band, chunk, ok := bands.Next()
				if !ok {
					return nil
				}

				bandUpperLeft, bandLowerRight := BandCorners(bounds, band, upperLeft, lowerRight)
				s.logger.Debugf("Thread %d rendering %s from %v to %v", i, band.String(), bandUpperLeft, bandLowerRight)

				// The whole image is passed along so pixels are mapped from their absolute rows
				s.render(chunk, bounds, band, upperLeft, lowerRight)
			}
		})
	}

	return group.Wait()
}

// BandCorners returns the points covered by the upper left corner of band and by the lower right corner just past it
func BandCorners(bounds Bounds, band task.Band, upperLeft complex128, lowerRight complex128) (complex128, complex128) {
	return PixelToPoint(bounds, Pixel{Column: 0, Row: band.Top}, upperLeft, lowerRight),
		PixelToPoint(bounds, Pixel{Column: bounds.Width, Row: band.Top + band.Rows}, upperLeft, lowerRight)
}

func panicError(thread int, recovered interface{}) error {
	if err, ok := recovered.(error); ok {
		return errors.Wrapf(panicCause{cause: err}, "thread %d", thread)
	}
	return errors.Wrapf(ErrWorkerPanic, "thread %d: %v", thread, recovered)
}

// panicCause keeps both ErrWorkerPanic and the error a goroutine panicked with visible to errors.Is
type panicCause struct {
	cause error
}

func (p panicCause) Error() string {
	return ErrWorkerPanic.Error() + ": " + p.cause.Error()
}

func (p panicCause) Is(target error) bool {
	return target == ErrWorkerPanic
}

func (p panicCause) Unwrap() error {
	return p.cause
}
