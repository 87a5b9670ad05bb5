package environment

import "gonum.org/v1/gonum/mat"

// Cardinality indicates whether the associated type is continuous or discrete
type Cardinality int

const (
	Discrete Cardinality = iota
	Continuous
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action, an observation, a discount, or a reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

// Spec implements a specification, which tells the type, shape, and bounds
// of an action, observation, discount, or reward
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification
func NewSpec(shape mat.Vector, t SpecType, lowerBound, upperBound mat.Vector,
	c Cardinality) Spec {
	return Spec{shape, t, lowerBound, upperBound, c}
}
