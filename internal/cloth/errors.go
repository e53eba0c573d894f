package cloth

import (
	"errors"
	"fmt"
)

// Domain errors for cloth construction and stepping.
var (
	// ErrInvalidTopology indicates a grid that cannot be built.
	ErrInvalidTopology = errors.New("cloth: invalid topology")

	// ErrInvalidTick indicates a step request that was rejected before any
	// vertex was touched.
	ErrInvalidTick = errors.New("cloth: invalid tick")

	// ErrIndexOverflow indicates the vertex count does not fit a 16-bit index buffer.
	ErrIndexOverflow = errors.New("cloth: vertex count exceeds 16-bit index range")
)

// TopologyError wraps ErrInvalidTopology with the rejected construction input.
type TopologyError struct {
	Length       float32
	Subdivisions uint32
	Reason       string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("%v: %s (length=%g, subdivisions=%d)", ErrInvalidTopology, e.Reason, e.Length, e.Subdivisions)
}

func (e *TopologyError) Unwrap() error {
	return ErrInvalidTopology
}

// TickError wraps ErrInvalidTick with the tick number and the offending input.
type TickError struct {
	Tick      uint64
	DeltaTime float32
	Reason    string
}

func (e *TickError) Error() string {
	return fmt.Sprintf("%v: tick %d (dt=%g): %s", ErrInvalidTick, e.Tick, e.DeltaTime, e.Reason)
}

func (e *TickError) Unwrap() error {
	return ErrInvalidTick
}
