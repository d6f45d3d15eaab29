package main

import (
	"GrayscaleMandelbrot/coordinator"
	"GrayscaleMandelbrot/mandelbrot"
	"GrayscaleMandelbrot/misc"
	"GrayscaleMandelbrot/worker"
	"errors"
	"flag"
	"os"
	"sync"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
)

func main() {
	logger := bslogger.NewLogger("Mandelbrot", bslogger.Normal, nil)

	args, err := parseArguments(os.Args)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		exitUsage(err)
	}
	logArguments(logger, args)

	switch {
	case args.isCoordinator:
		startCoordinator(logger, args.settingsFile)
	case args.isWorker:
		startWorker(logger, args.settingsFile)
	default:
		renderLocally(logger, args)
	}
}

func renderLocally(logger bslogger.Logger, args arguments) {
	startTime := time.Now()
	encoded, err := mandelbrot.DrawSettings(args.render)
	misc.CheckError(err, logger, misc.Fatal)
	logger.Infof("Rendered %dx%d image in %s", args.render.Width, args.render.Height, time.Since(startTime))

	_, err = misc.WriteFile(args.output, encoded)
	misc.CheckError(err, logger, misc.Fatal)
	logger.Infof("Saved image to %s", args.output)
}

func startCoordinator(logger bslogger.Logger, settingsFile string) {
	settings := coordinator.NewSettings(settingsFile)

	c, err := coordinator.NewCoordinator(settings)
	misc.CheckError(err, logger, misc.Fatal)
	misc.CheckError(c.Run(), logger, misc.Fatal)
	misc.CheckError(c.Wait(), logger, misc.Fatal)

	logger.Info("Shutting down")
}

func startWorker(logger bslogger.Logger, settingsFile string) {
	settings := worker.NewSettings(settingsFile)

	// Start up requested amount of workers
	var wg sync.WaitGroup
	for i := 0; i < settings.WorkerCount; i++ {
		w, err := worker.NewWorker(settings)
		if misc.CheckError(err, logger, misc.Error) {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			misc.CheckError(w.Run(), logger, misc.Error)
		}()
	}

	// Wait for all workers to be done with their work
	wg.Wait()
}
