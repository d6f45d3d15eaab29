package task

import (
	"fmt"

	"github.com/pkg/errors"
)

// Task is one band of an image sent to a remote worker. UpperLeft and LowerRight are the corners of the band itself.
// The worker maps pixels using the whole image, ImageHeight rows tall between ImageUpperLeft and ImageLowerRight, and
// sends the task back with Results holding one grayscale byte per pixel of the band.
type Task struct {
	Band            Band
	ID              uint
	ImageHeight     int
	ImageLowerRight complex128
	ImageUpperLeft  complex128
	LowerRight      complex128
	Results         []byte
	UpperLeft       complex128
	WorkerAddress   string
}

func NewTask(id uint, band Band, upperLeft complex128, lowerRight complex128) Task {
	return Task{
		Band:       band,
		ID:         id,
		LowerRight: lowerRight,
		UpperLeft:  upperLeft,
	}
}

// ForImage records the image the band belongs to
func (t *Task) ForImage(height int, upperLeft complex128, lowerRight complex128) {
	t.ImageHeight = height
	t.ImageUpperLeft = upperLeft
	t.ImageLowerRight = lowerRight
}

func (t *Task) String() string {
	output := "{Task "
	output += fmt.Sprintf("ID: %d ", t.ID)
	output += fmt.Sprintf("Band: %s ", t.Band.String())
	output += fmt.Sprintf("UpperLeft: %v ", t.UpperLeft)
	output += fmt.Sprintf("LowerRight: %v ", t.LowerRight)
	output += fmt.Sprintf("Result Count: %d}", len(t.Results))
	return output
}

// Done reports if the results for every pixel of the band have been recorded
func (t *Task) Done() bool {
	return len(t.Results) == t.Band.Len()
}

// Verify checks that the results returned by a worker cover the band exactly
func (t *Task) Verify() error {
	if !t.Done() {
		return errors.Errorf("task %d returned %d results for a band of %d pixels", t.ID, len(t.Results), t.Band.Len())
	}
	return nil
}
