package mandelbrot

import (
	"GrayscaleMandelbrot/task"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRenderer adds one to every pixel it is given and records the bands it saw
type countingRenderer struct {
	mutex  sync.Mutex
	bands  []task.Band
	bounds []Bounds
	bytes  int
}

func (r *countingRenderer) render(pixels []byte, bounds Bounds, band task.Band, upperLeft complex128, lowerRight complex128) {
	for i := range pixels {
		pixels[i]++
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.bands = append(r.bands, band)
	r.bounds = append(r.bounds, bounds)
	r.bytes += len(pixels)
}

func TestSchedulerRendersEveryPixelOnce(t *testing.T) {
	for _, width := range []int{1, 7, 64} {
		for _, height := range []int{1, 2, 13, 100} {
			for _, threads := range []int{1, 2, 3, 8, 200} {
				t.Run(fmt.Sprintf("%dx%d/%d", width, height, threads), func(t *testing.T) {
					bounds := Bounds{Width: width, Height: height}
					pixels := make([]byte, bounds.Pixels())
					renderer := &countingRenderer{}

					scheduler := NewScheduler(threads, renderer.render)
					require.NoError(t, scheduler.Run(pixels, bounds, complex(-2, 1), complex(1, -1)))

					for i, count := range pixels {
						require.Equal(t, byte(1), count, "pixel %d", i)
					}
					assert.Equal(t, bounds.Pixels(), renderer.bytes)

					rows := 0
					bandRows := height/threads + 1
					for i, band := range renderer.bands {
						assert.Equal(t, bounds, renderer.bounds[i], "renderers get the full image")
						assert.Equal(t, width, band.Width)
						assert.LessOrEqual(t, band.Rows, bandRows)
						rows += band.Rows
					}
					assert.Equal(t, height, rows)
					assert.LessOrEqual(t, len(renderer.bands), threads)
				})
			}
		}
	}
}

func TestSchedulerBandTops(t *testing.T) {
	bounds := Bounds{Width: 10, Height: 64}
	renderer := &countingRenderer{}

	scheduler := NewScheduler(4, renderer.render)
	require.NoError(t, scheduler.Run(make([]byte, bounds.Pixels()), bounds, complex(-2.0, 1.0), complex(1.0, -1.0)))

	// 64 rows with 4 threads gives bands of 17 rows starting at rows 0, 17, 34 and 51
	var tops []int
	for _, band := range renderer.bands {
		tops = append(tops, band.Top)
	}
	sort.Ints(tops)
	assert.Equal(t, []int{0, 17, 34, 51}, tops)
}

func TestBandCorners(t *testing.T) {
	bounds := Bounds{Width: 10, Height: 64}
	upperLeft, lowerRight := complex(-2.0, 1.0), complex(1.0, -1.0)

	bandUpperLeft, bandLowerRight := BandCorners(bounds, task.Band{Index: 1, Top: 16, Rows: 16, Width: 10}, upperLeft, lowerRight)
	assert.Equal(t, complex(-2.0, 0.5), bandUpperLeft)
	assert.Equal(t, complex(1.0, 0.0), bandLowerRight)

	bandUpperLeft, bandLowerRight = BandCorners(bounds, task.Band{Index: 0, Top: 0, Rows: 64, Width: 10}, upperLeft, lowerRight)
	assert.Equal(t, upperLeft, bandUpperLeft)
	assert.Equal(t, lowerRight, bandLowerRight)
}

func TestSchedulerMatchesSingleRender(t *testing.T) {
	viewports := []struct {
		name                  string
		bounds                Bounds
		upperLeft, lowerRight complex128
	}{
		{"dyadic", Bounds{Width: 96, Height: 64}, complex(-2.0, 1.0), complex(1.0, -1.0)},
		{"default", Bounds{Width: 200, Height: 150}, complex(-1.20, 0.35), complex(-1.0, 0.20)},
		{"wide", Bounds{Width: 160, Height: 120}, complex(-2.2, 1.3), complex(0.9, -1.1)},
	}

	for _, viewport := range viewports {
		t.Run(viewport.name, func(t *testing.T) {
			expected := make([]byte, viewport.bounds.Pixels())
			Render(expected, viewport.bounds, viewport.upperLeft, viewport.lowerRight)

			for _, threads := range []int{1, 2, 3, 5, 7, 8, 13, 64, 100} {
				pixels := make([]byte, viewport.bounds.Pixels())
				scheduler := NewScheduler(threads, RenderBand)
				require.NoError(t, scheduler.Run(pixels, viewport.bounds, viewport.upperLeft, viewport.lowerRight))
				assert.Equal(t, expected, pixels, "%d threads", threads)
			}
		})
	}
}

func TestSchedulerWorkerPanic(t *testing.T) {
	bounds := Bounds{Width: 8, Height: 40}
	panicking := func(pixels []byte, bounds Bounds, band task.Band, upperLeft complex128, lowerRight complex128) {
		if band.Top >= bounds.Height/2 {
			panic("lower half is broken")
		}
		RenderBand(pixels, bounds, band, upperLeft, lowerRight)
	}

	scheduler := NewScheduler(4, panicking)
	err := scheduler.Run(make([]byte, bounds.Pixels()), bounds, complex(-2, 1), complex(1, -1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWorkerPanic))
	assert.Contains(t, err.Error(), "lower half is broken")
}

func TestSchedulerContractViolation(t *testing.T) {
	bounds := Bounds{Width: 8, Height: 8}
	shortBuffer := func(pixels []byte, bounds Bounds, band task.Band, upperLeft complex128, lowerRight complex128) {
		RenderBand(pixels[:len(pixels)-1], bounds, band, upperLeft, lowerRight)
	}

	scheduler := NewScheduler(2, shortBuffer)
	err := scheduler.Run(make([]byte, bounds.Pixels()), bounds, complex(-2, 1), complex(1, -1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWorkerPanic))
	assert.True(t, errors.Is(err, ErrContractViolation))
}

func TestSchedulerRejectsBadInput(t *testing.T) {
	bounds := Bounds{Width: 4, Height: 4}

	scheduler := NewScheduler(0, nil)
	err := scheduler.Run(make([]byte, bounds.Pixels()), bounds, complex(-2, 1), complex(1, -1))
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	scheduler = NewScheduler(2, nil)
	err = scheduler.Run(make([]byte, 3), bounds, complex(-2, 1), complex(1, -1))
	assert.True(t, errors.Is(err, ErrContractViolation))
}
