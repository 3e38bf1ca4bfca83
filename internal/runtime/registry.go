package runtime

import (
	"fmt"
	"sort"

	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/ports"
)

// Registry maps processing steps to the stages that execute them.
type Registry struct {
	stages map[domain.Step]ports.Stage
}

// NewRegistry builds a registry from the given stages. Every stage must claim
// a distinct processing step.
func NewRegistry(stages ...ports.Stage) (*Registry, error) {
	r := &Registry{stages: make(map[domain.Step]ports.Stage, len(stages))}
	for _, s := range stages {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a stage to the registry.
func (r *Registry) Register(s ports.Stage) error {
	step := s.Step()
	if !step.Processing() {
		return fmt.Errorf("stage %q: %s is not a processing step", s.Name(), step)
	}
	if existing, ok := r.stages[step]; ok {
		return fmt.Errorf("stage %q: step %s already registered to %q", s.Name(), step, existing.Name())
	}
	r.stages[step] = s
	return nil
}

// Lookup returns the stage registered for a processing step.
func (r *Registry) Lookup(step domain.Step) (ports.Stage, bool) {
	s, ok := r.stages[step]
	return s, ok
}

// Steps returns the registered processing steps in stable order.
func (r *Registry) Steps() []domain.Step {
	out := make([]domain.Step, 0, len(r.stages))
	for step := range r.stages {
		out = append(out, step)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
