package task

import "sync"

// Cursor hands out the bands of a pixel buffer one at a time, in order, to whoever asks next. Every band is bandRows
// rows of the image except the last one, which may be shorter.
//
// The byte slices it returns never overlap and their capacity ends where the band ends, so each band can be written
// by a different goroutine without any further locking.
type Cursor struct {
	bandRows int
	count    int
	mutex    sync.Mutex
	next     int
	pixels   []byte
	rows     int
	stopped  bool
	width    int
}

func NewCursor(pixels []byte, width int, bandRows int) *Cursor {
	rows := 0
	if width > 0 {
		rows = len(pixels) / width
	}

	count := 0
	if bandRows > 0 {
		count = (rows + bandRows - 1) / bandRows
	}

	return &Cursor{
		bandRows: bandRows,
		count:    count,
		pixels:   pixels,
		rows:     rows,
		width:    width,
	}
}

// Count is the total number of bands the cursor will hand out
func (c *Cursor) Count() int {
	return c.count
}

// Next returns the next band along with the part of the buffer it covers.
// False is returned once every band has been handed out or the cursor was stopped.
func (c *Cursor) Next() (Band, []byte, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.stopped || c.next >= c.count {
		return Band{}, nil, false
	}

	band := Band{
		Index: c.next,
		Rows:  c.bandRows,
		Top:   c.next * c.bandRows,
		Width: c.width,
	}
	if band.Top+band.Rows > c.rows {
		band.Rows = c.rows - band.Top
	}
	c.next++

	start, end := band.Offset(), band.Offset()+band.Len()
	return band, c.pixels[start:end:end], true
}

// Stop makes every following call to Next report that there are no bands left
func (c *Cursor) Stop() {
	c.mutex.Lock()
	c.stopped = true
	c.mutex.Unlock()
}
