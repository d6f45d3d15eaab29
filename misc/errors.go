package misc

import "github.com/BrugadaSyndrome/bslogger"

const (
	Fatal Severity = iota
	Error
	Warning
	Info
	Debug
)

type Severity int

func (s Severity) String() string {
	return []string{
		"Fatal", "Error", "Warning", "Info", "Debug",
	}[s]
}

// Nothing is the empty request or reply of an RPC call
type Nothing struct{}

// CheckError logs err, if there is one, at the given severity. A Fatal severity exits the program.
// It returns true when there was an error.
func CheckError(err error, logger bslogger.Logger, severity Severity) bool {
	if err == nil {
		return false
	}

	switch severity {
	case Fatal:
		logger.Fatal(err.Error())
	case Error:
		logger.Error(err.Error())
	case Warning:
		logger.Warning(err.Error())
	case Info:
		logger.Info(err.Error())
	case Debug:
		logger.Debug(err.Error())
	default:
		logger.Fatal(err.Error())
	}
	return true
}
