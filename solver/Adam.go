package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64
	Beta1    float64
	Beta2    float64
	Batch    int
}

// NewDefaultAdam returns an Adam Solver with the conventional default
// hyperparameters and the given step size
func NewDefaultAdam(stepSize float64, batchSize int) (*Solver, error) {
	return NewAdam(stepSize, 1e-8, 0.9, 0.999, batchSize)
}

// NewAdam returns an Adam Solver. The step size must be positive and
// the batch size at least 1.
func NewAdam(stepSize, epsilon, beta1, beta2 float64, batchSize int) (*Solver,
	error) {
	if stepSize <= 0 {
		return nil, fmt.Errorf("newadam: step size should be positive, "+
			"got %v", stepSize)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("newadam: batch size should be positive, "+
			"got %v", batchSize)
	}

	return newSolver(Adam, AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
		Batch:    batchSize,
	})
}

// Create returns the Gorgonia Solver the AdamConfig describes
func (a AdamConfig) Create() G.Solver {
	return G.NewAdamSolver(
		G.WithLearnRate(a.StepSize),
		G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
		G.WithBatchSize(float64(a.Batch)),
	)
}

// ValidType returns whether the given Solver type can be created from
// this configuration
func (a AdamConfig) ValidType(t Type) bool {
	return t == Adam
}
