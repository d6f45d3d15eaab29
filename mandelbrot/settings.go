package mandelbrot

import (
	"GrayscaleMandelbrot/encoder"
	"fmt"
	"runtime"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/pkg/errors"
)

type Settings struct {
	logger bslogger.Logger

	Bottom      float64
	Format      string
	Height      int
	JpegQuality int
	Left        float64
	Right       float64
	ThreadCount int
	Top         float64
	Width       int
}

// Verify fills in defaults for any value left unset and rejects values that cannot be rendered
func (s *Settings) Verify() error {
	s.logger = bslogger.NewLogger("MandelbrotSettings", bslogger.Normal, nil)

	if s.Width < 0 || s.Height < 0 {
		return errors.Wrapf(ErrInvalidArgument, "image dimensions must be positive, got %dx%d", s.Width, s.Height)
	}
	if s.Width == 0 {
		s.Width = 1000
	}
	if s.Height == 0 {
		s.Height = 750
	}

	if s.ThreadCount < 0 {
		return errors.Wrapf(ErrInvalidArgument, "thread count must be positive, got %d", s.ThreadCount)
	}
	if s.ThreadCount == 0 {
		s.ThreadCount = runtime.NumCPU()
	}

	// An all zero viewport means none was given
	if s.Left == 0 && s.Top == 0 && s.Right == 0 && s.Bottom == 0 {
		s.Left, s.Top = -1.20, 0.35
		s.Right, s.Bottom = -1.0, 0.20
		s.logger.Infof("No viewport given, using %v to %v", s.UpperLeft(), s.LowerRight())
	}
	if !(s.Left < s.Right) || !(s.Top > s.Bottom) {
		return errors.Wrapf(ErrInvalidArgument, "viewport %v to %v is not a left-to-right, top-to-bottom rectangle",
			s.UpperLeft(), s.LowerRight())
	}

	if s.Format == "" {
		s.Format = string(encoder.Png)
	}
	if s.JpegQuality <= 0 || s.JpegQuality > 100 {
		s.JpegQuality = 90
	}
	if _, err := s.Encoder(); err != nil {
		return err
	}

	return nil
}

func (s *Settings) String() string {
	output := "\nMandelbrot settings\n"
	output += fmt.Sprintf("Size: %dx%d\n", s.Width, s.Height)
	output += fmt.Sprintf("Viewport: %v to %v\n", s.UpperLeft(), s.LowerRight())
	output += fmt.Sprintf("Thread Count: %d\n", s.ThreadCount)
	output += fmt.Sprintf("Format: %s\n", s.Format)
	return output
}

func (s *Settings) Bounds() Bounds {
	return Bounds{Width: s.Width, Height: s.Height}
}

func (s *Settings) UpperLeft() complex128 {
	return complex(s.Left, s.Top)
}

func (s *Settings) LowerRight() complex128 {
	return complex(s.Right, s.Bottom)
}

// Encoder returns the image encoder for the configured format
func (s *Settings) Encoder() (encoder.Encoder, error) {
	return encoder.ForFormat(s.Format, encoder.Options{JpegQuality: s.JpegQuality})
}
