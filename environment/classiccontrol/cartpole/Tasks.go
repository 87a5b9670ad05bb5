package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/farlearn/farlearn/environment"
	ts "github.com/farlearn/farlearn/timestep"
)

const (
	// FailAngle is the pole angle beyond which the episode fails
	FailAngle float64 = 12 * 2 * math.Pi / 360

	// FailPosition is the cart displacement beyond which the episode
	// fails
	FailPosition float64 = 2.4
)

// Balance implements the classic control Cartpole balancing task. In
// this Task, the goal of the agent is to keep the pole upright on the
// cart for as long as possible.
//
// The reward is +1 on every timestep. Episodes end after a step limit,
// after the pole has fallen past FailAngle, or after the cart has
// moved past FailPosition.
type Balance struct {
	env.Starter
	stepLimiter  env.StepLimit
	stateLimiter env.Ender
	failAngle    float64
}

// NewBalance creates and returns a new Balance task
func NewBalance(s env.Starter, episodeSteps int) *Balance {
	stepLimiter := env.NewStepLimit(episodeSteps)

	// End episodes when the cart position or the pole angle leaves its
	// legal interval
	legal := []r1.Interval{
		{Min: -FailPosition, Max: FailPosition},
		{Min: -FailAngle, Max: FailAngle},
	}
	featureIndices := []int{0, 2}

	stateLimiter := env.NewIntervalLimit(legal, featureIndices)

	return &Balance{s, stepLimiter, stateLimiter, FailAngle}
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true. Otherwise,
// the function does not adjust the TimeStep and returns false.
func (b *Balance) End(t *ts.TimeStep) bool {
	if end := b.stateLimiter.End(t); end {
		return true
	}
	if end := b.stepLimiter.End(t); end {
		return true
	}
	return false
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState.
func (b *Balance) GetReward(_ mat.Vector, _ mat.Vector, _ mat.Vector) float64 {
	return 1.0
}

// AtGoal returns whether or not the goal position has been reached.
func (b *Balance) AtGoal(state mat.Matrix) bool {
	return math.Abs(state.At(0, 2)) < b.failAngle
}

// Min returns the minimum possible reward that can be received in the
// environment
func (b *Balance) Min() float64 {
	return 1.0
}

// Max returns the maximum possible reward that can be received in the
// environment
func (b *Balance) Max() float64 {
	return 1.0
}

// RewardSpec returns the reward specification for the environment
func (b *Balance) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{b.Min()})
	upperBound := mat.NewVecDense(1, []float64{b.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
