package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter draws starting states from a seeded uniform
// distribution over per-feature intervals. A zero-width interval pins
// the corresponding feature to a fixed value.
type UniformStarter struct {
	features int
	dist     *distmv.Uniform
}

// NewUniformStarter returns a UniformStarter sampling feature i of the
// starting state from bounds[i]. NewUniformStarter panics if no bounds
// are given.
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	if len(bounds) == 0 {
		panic("uniformstarter: no starting-state bounds given")
	}

	dist := distmv.NewUniform(bounds, rand.NewSource(seed))
	return UniformStarter{features: len(bounds), dist: dist}
}

// Start samples and returns a starting state
func (u UniformStarter) Start() mat.Vector {
	return mat.NewVecDense(u.features, u.dist.Rand(nil))
}
