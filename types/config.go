package types

import (
	"fmt"
	"log/slog"
	"runtime"
)

const (
	DefaultEpsilon       = 1.e-14
	DefaultSnapTolerance = 1.e-14
)

// Config carries every numeric and runtime option of the engine. It is passed
// explicitly to the entry points; nothing in the module reads process state.
type Config struct {
	// Epsilon is the classification tie-break: a nodal value with
	// |v| <= Epsilon*max|v| over the element counts as touching the interface.
	Epsilon float64
	// SnapTolerance is the relative threshold under which the quadrature
	// builder snaps a node value onto the interface.
	SnapTolerance float64
	// TimeSubdivision splits each slab interval between sign-change times
	// into this many equal pieces.
	TimeSubdivision int
	// NumThreads is the parallel degree of mesh-wide loops.
	NumThreads int
	Logger     *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Epsilon:         DefaultEpsilon,
		SnapTolerance:   DefaultSnapTolerance,
		TimeSubdivision: 1,
		NumThreads:      runtime.NumCPU(),
		Logger:          slog.New(slog.DiscardHandler),
	}
}

func (c Config) Validate() error {
	switch {
	case c.Epsilon < 0:
		return fmt.Errorf("%w: negative epsilon %g", ErrInvalidConfig, c.Epsilon)
	case c.SnapTolerance < 0:
		return fmt.Errorf("%w: negative snap tolerance %g", ErrInvalidConfig, c.SnapTolerance)
	case c.TimeSubdivision < 1:
		return fmt.Errorf("%w: time subdivision must be >= 1, have %d", ErrInvalidConfig, c.TimeSubdivision)
	case c.NumThreads < 1:
		return fmt.Errorf("%w: thread count must be >= 1, have %d", ErrInvalidConfig, c.NumThreads)
	}
	return nil
}

// Log returns the configured logger, never nil.
func (c Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
