package sim

import (
	"errors"
	"fmt"
)

var (
	ErrNoSolver = errors.New("sim: no solver")
	ErrDiverged = errors.New("sim: body position diverged (NaN or Inf)")
)

// TickError wraps an error with the tick it occurred on.
type TickError struct {
	Tick    int
	Time    float64
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error { return e.Wrapped }
