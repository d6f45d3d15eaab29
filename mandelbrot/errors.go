package mandelbrot

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned before rendering when the dimensions, thread count or viewport are unusable
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrContractViolation is raised when a band buffer does not match the bounds it is rendered with
	ErrContractViolation = errors.New("contract violation")

	// ErrWorkerPanic is returned when a render worker panicked
	ErrWorkerPanic = errors.New("render worker panicked")
)
