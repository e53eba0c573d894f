// Package compute provides the worker backends that spread a cloth tick
// phase over CPU cores.
//
// Every backend satisfies cloth.Dispatcher: Dispatch splits [0, n) into
// chunks, runs them, and returns only once all chunks are done, which is the
// barrier between tick phases.
//
//   - serial: runs the whole range on the calling goroutine
//   - cpu: one goroutine per chunk, sized to runtime.NumCPU by default
//
// # Selecting a backend
//
//	backend, err := compute.New("cpu", 8)
//	if err != nil {
//	    return err
//	}
//	defer backend.Cleanup()
//	c, _ := cloth.New(1, 64, center, cloth.WithDispatcher(backend))
//
// Results never depend on the backend or its worker count; only wall-clock
// time does.
package compute
