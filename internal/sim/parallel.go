package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/compute"
	"golang.org/x/sync/errgroup"
)

// Builder creates a fresh cloth that runs its phases on d.
type Builder func(d cloth.Dispatcher) (*cloth.Clothe, error)

// Ensemble runs one configuration on several backends at once. Each run owns
// its own cloth, so nothing is shared between goroutines.
type Ensemble struct {
	build    Builder
	backends []compute.Backend
	opts     []Option
}

func NewEnsemble(build Builder, backends []compute.Backend, opts ...Option) *Ensemble {
	return &Ensemble{build: build, backends: backends, opts: opts}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.backends))

	g, ctx := errgroup.WithContext(ctx)
	for i, b := range e.backends {
		i, b := i, b // per-iteration copy (go1.21 loop semantics)
		g.Go(func() error {
			c, err := e.build(b)
			if err != nil {
				return fmt.Errorf("%s: %w", b.Name(), err)
			}
			res, err := New(c, e.opts...).Run(ctx, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", b.Name(), err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Agree reports whether every result ended in exactly the same state.
func Agree(results []*Result) bool {
	if len(results) < 2 {
		return true
	}
	ref := results[0].Final
	for _, r := range results[1:] {
		if len(r.Final) != len(ref) {
			return false
		}
		for i := range ref {
			if r.Final[i] != ref[i] {
				return false
			}
		}
	}
	return true
}
