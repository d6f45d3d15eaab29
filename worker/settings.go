package worker

import (
	"GrayscaleMandelbrot/misc"
	"encoding/json"
	"fmt"

	"github.com/BrugadaSyndrome/bslogger"
)

type Settings struct {
	logger bslogger.Logger

	CoordinatorAddress string
	WorkerCount        int
}

func NewSettings(settingsFile string) Settings {
	s := Settings{
		logger: bslogger.NewLogger("WorkerSettings", bslogger.Normal, nil),
	}
	fileBytes, err := misc.ReadFile(settingsFile)
	misc.CheckError(err, s.logger, misc.Fatal)
	misc.CheckError(json.Unmarshal(fileBytes, &s), s.logger, misc.Fatal)
	misc.CheckError(s.Verify(), s.logger, misc.Fatal)
	s.logger.Debug(s.String())
	return s
}

func (s *Settings) String() string {
	output := "\nWorker settings\n"
	output += fmt.Sprintf("Coordinator Address: %s\n", s.CoordinatorAddress)
	output += fmt.Sprintf("Worker Count: %d\n", s.WorkerCount)
	return output
}

func (s *Settings) Verify() error {
	if s.CoordinatorAddress == "" {
		s.CoordinatorAddress = misc.DefaultAddress("51000")
	}
	if s.WorkerCount <= 0 {
		s.WorkerCount = 1
	}
	return nil
}
