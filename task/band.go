package task

import "fmt"

// Band is a horizontal slice of an image: Rows full rows starting at row Top
type Band struct {
	Index int
	Rows  int
	Top   int
	Width int
}

// BandRows returns the height of the bands used to split an image of the given height between threads.
// It rounds up by one so the bands always cover every row; the last band may be shorter.
func BandRows(height int, threads int) int {
	return height/threads + 1
}

// Offset is the index of the first pixel of the band in the full image buffer
func (b Band) Offset() int {
	return b.Top * b.Width
}

// Len is the number of pixels in the band
func (b Band) Len() int {
	return b.Rows * b.Width
}

func (b Band) String() string {
	output := "{Band "
	output += fmt.Sprintf("Index: %d ", b.Index)
	output += fmt.Sprintf("Top: %d ", b.Top)
	output += fmt.Sprintf("Rows: %d ", b.Rows)
	output += fmt.Sprintf("Width: %d}", b.Width)
	return output
}
