package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver. A Clip <= 0 disables gradient clipping.
type VanillaConfig struct {
	StepSize float64
	Batch    int
	Clip     float64
}

// NewVanilla returns a vanilla gradient descent Solver. The step size
// must be positive and the batch size at least 1.
func NewVanilla(stepSize float64, batchSize int,
	clip float64) (*Solver, error) {
	if stepSize <= 0 {
		return nil, fmt.Errorf("newvanilla: step size should be positive, "+
			"got %v", stepSize)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("newvanilla: batch size should be positive, "+
			"got %v", batchSize)
	}

	return newSolver(Vanilla, VanillaConfig{
		StepSize: stepSize,
		Batch:    batchSize,
		Clip:     clip,
	})
}

// Create returns the Gorgonia Solver the VanillaConfig describes
func (v VanillaConfig) Create() G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(float64(v.Batch)),
	}
	if v.Clip > 0 {
		opts = append(opts, G.WithClip(v.Clip))
	}
	return G.NewVanillaSolver(opts...)
}

// ValidType returns whether the given Solver type can be created from
// this configuration
func (v VanillaConfig) ValidType(t Type) bool {
	return t == Vanilla
}
