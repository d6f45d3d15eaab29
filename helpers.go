package main

import (
	"GrayscaleMandelbrot/mandelbrot"
	"flag"
	"fmt"
	"os"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/pkg/errors"
)

type arguments struct {
	isCoordinator bool
	isWorker      bool
	output        string
	render        mandelbrot.Settings
	settingsFile  string
}

func parseArguments(args []string) (arguments, error) {
	var a arguments
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)

	flags.BoolVar(&a.isCoordinator, "coordinator", false, "Serve the bands of an image to workers, needs -settings")
	flags.BoolVar(&a.isWorker, "worker", false, "Render bands for a coordinator, needs -settings")
	flags.StringVar(&a.settingsFile, "settings", "", "Json settings file for the coordinator or worker")

	// Local rendering values
	flags.IntVar(&a.render.Width, "width", 1000, "Width of resulting image")
	flags.IntVar(&a.render.Height, "height", 750, "Height of resulting image")
	flags.Float64Var(&a.render.Left, "left", -1.20, "Real part of the upper left corner")
	flags.Float64Var(&a.render.Top, "top", 0.35, "Imaginary part of the upper left corner")
	flags.Float64Var(&a.render.Right, "right", -1.0, "Real part of the lower right corner")
	flags.Float64Var(&a.render.Bottom, "bottom", 0.20, "Imaginary part of the lower right corner")
	flags.IntVar(&a.render.ThreadCount, "threads", 0, "Number of threads rendering bands, 0 uses every cpu")
	flags.StringVar(&a.render.Format, "format", "png", "Image format: png, jpeg, bmp or tiff")
	flags.IntVar(&a.render.JpegQuality, "quality", 90, "Jpeg quality from 1 to 100")
	flags.StringVar(&a.output, "output", "", "File to write the image to, defaults to mandelbrot.<format>")

	if err := flags.Parse(args[1:]); err != nil {
		return a, err
	}

	if a.isCoordinator && a.isWorker {
		return a, errors.New("an instance cannot be both the coordinator and a worker")
	}
	if (a.isCoordinator || a.isWorker) && a.settingsFile == "" {
		return a, errors.New("a settings file is needed to run as the coordinator or a worker")
	}
	if !a.isCoordinator && !a.isWorker {
		if err := a.render.Verify(); err != nil {
			return a, err
		}
		if a.output == "" {
			a.output = "mandelbrot." + a.render.Format
		}
	}

	return a, nil
}

func logArguments(logger bslogger.Logger, a arguments) {
	switch {
	case a.isCoordinator:
		logger.Infof("Running as coordinator with settings %s", a.settingsFile)
	case a.isWorker:
		logger.Infof("Running as worker with settings %s", a.settingsFile)
	default:
		logger.Debug(a.render.String())
		logger.Infof("Rendering to %s", a.output)
	}
}

func exitUsage(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}
