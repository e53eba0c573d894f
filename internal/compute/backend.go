package compute

import (
	"fmt"
	"runtime"
	"sort"
)

type Backend interface {
	Name() string
	Workers() int
	Dispatch(n int, fn func(start, end int))
	Cleanup()
}

var constructors = map[string]func(workers int) Backend{
	"serial": func(int) Backend { return NewSerialBackend() },
	"cpu":    func(workers int) Backend { return NewCPUBackend(workers) },
}

// New returns the backend registered under name. workers <= 0 lets the
// backend pick its default.
func New(name string, workers int) (Backend, error) {
	if name == "" || name == "auto" {
		return AutoSelectBackend(), nil
	}
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s (available: %v)", name, Names())
	}
	return ctor(workers), nil
}

// Names lists the registered backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AutoSelectBackend picks the cpu backend when more than one core is
// available, serial otherwise.
func AutoSelectBackend() Backend {
	if runtime.NumCPU() > 1 {
		return NewCPUBackend(0)
	}
	return NewSerialBackend()
}
