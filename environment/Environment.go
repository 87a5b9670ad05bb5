// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/farlearn/farlearn/timestep"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when an episode ends. Implementations inspect a
// TimeStep and, if the episode is over, mutate its StepType to
// timestep.Last.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment, along with the starting-state distribution and the
// episode-ending conditions.
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState mat.Vector) float64
	AtGoal(state mat.Matrix) bool
	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a Task
// to complete
type Environment interface {
	Task
	Reset() timestep.TimeStep // Resets between episodes
	Step(action mat.Vector) (timestep.TimeStep, bool)
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
