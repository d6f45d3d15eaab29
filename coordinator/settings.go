package coordinator

import (
	"GrayscaleMandelbrot/mandelbrot"
	"GrayscaleMandelbrot/misc"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/pkg/errors"
)

// Settings for a coordinator, usually read by NewSettings where any problem with the file is fatal
type Settings struct {
	logger bslogger.Logger

	OutputFile     string
	RenderSettings mandelbrot.Settings
	RunName        string
	SavePath       string
	ServerAddress  string
}

func NewSettings(settingsFile string) Settings {
	s := Settings{
		logger: bslogger.NewLogger("CoordinatorSettings", bslogger.Normal, nil),
	}
	fileBytes, err := misc.ReadFile(settingsFile)
	misc.CheckError(err, s.logger, misc.Fatal)
	misc.CheckError(json.Unmarshal(fileBytes, &s), s.logger, misc.Fatal)
	misc.CheckError(s.Verify(), s.logger, misc.Fatal)
	s.logger.Debug(s.String())
	return s
}

func (s *Settings) String() string {
	output := "\nCoordinator settings\n"
	output += fmt.Sprintf("My Address: %s\n", s.ServerAddress)
	output += fmt.Sprintf("Output: %s\n", s.OutputPath())
	output += s.RenderSettings.String()
	return output
}

func (s *Settings) Verify() error {
	if err := s.RenderSettings.Verify(); err != nil {
		return errors.Wrap(err, "render settings")
	}
	if s.OutputFile == "" {
		s.OutputFile = "mandelbrot." + s.RenderSettings.Format
	}
	if s.RunName == "" {
		s.RunName = "run_" + time.Now().Format("2006_01_02-03_04_05")
	}
	if s.SavePath == "" {
		var err error
		s.SavePath, err = os.Getwd()
		if err != nil {
			return errors.Wrap(err, "finding working directory")
		}
	}
	if s.ServerAddress == "" {
		s.ServerAddress = misc.DefaultAddress("51000")
	}
	return nil
}

// RunPath is the directory holding everything this run produces
func (s *Settings) RunPath() string {
	return filepath.Join(s.SavePath, s.RunName)
}

func (s *Settings) OutputPath() string {
	return filepath.Join(s.RunPath(), s.OutputFile)
}
