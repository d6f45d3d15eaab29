package misc

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "image.png")

	written, err := WriteFile(fileName, []byte("mandelbrot"))
	require.NoError(t, err)
	assert.Equal(t, 10, written)

	contents, err := ReadFile(fileName)
	require.NoError(t, err)
	assert.Equal(t, []byte("mandelbrot"), contents)
}

func TestFileErrors(t *testing.T) {
	_, err := ReadFile("")
	assert.Error(t, err)

	_, err = WriteFile("", nil)
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMakeDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "run_1")
	require.NoError(t, MakeDirectory(path))
	require.NoError(t, MakeDirectory(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewGrayImageSharesBuffer(t *testing.T) {
	pixels := []byte{0, 1, 2, 3, 4, 5}
	img := NewGrayImage(pixels, 3, 2)

	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, color.Gray{Y: 5}, img.GrayAt(2, 1))

	pixels[4] = 200
	assert.Equal(t, color.Gray{Y: 200}, img.GrayAt(1, 1))
}

func TestGrayPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.White)
	img.Set(1, 0, color.Black)
	assert.Equal(t, []byte{255, 0}, GrayPixels(img))

	gray := NewGrayImage([]byte{9, 8, 7, 6}, 2, 2)
	assert.Equal(t, []byte{9, 8, 7, 6}, GrayPixels(gray))
}

func TestCheckError(t *testing.T) {
	logger := bslogger.NewLogger("Test", bslogger.Minimal, nil)
	assert.False(t, CheckError(nil, logger, Fatal))
	assert.True(t, CheckError(errors.New("ignored"), logger, Debug))
	assert.Equal(t, "Warning", Warning.String())
}

func TestGetFreePort(t *testing.T) {
	port, err := GetFreePort()
	require.NoError(t, err)
	assert.Greater(t, port, 0)
}

func TestDefaultAddress(t *testing.T) {
	address := DefaultAddress("51000")
	assert.Regexp(t, `^[0-9.]+:51000$`, address)
}
