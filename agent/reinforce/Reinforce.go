// Package reinforce implements the episodic REINFORCE policy-gradient
// algorithm with the policy resident in a remote execution context.
//
// The policy is sent to the context once at construction and stays
// there for the lifetime of the agent. Every action selection crosses
// the ownership boundary exactly twice: the observation moves out to
// the context, and the action-probability distribution moves back in
// for local sampling. Policy updates run inside the context against
// the resident parameters, so the gradient is always taken with
// respect to the parameter values that produced the recorded
// log-probabilities.
package reinforce

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"

	"github.com/farlearn/farlearn/buffer"
	"github.com/farlearn/farlearn/environment"
	"github.com/farlearn/farlearn/policy"
	"github.com/farlearn/farlearn/remote"
	ts "github.com/farlearn/farlearn/timestep"
)

// ErrBadDistribution is returned when the policy produces an action
// distribution that cannot be sampled: non-finite entries, negative
// entries, or zero total probability mass. The condition signals
// numeric instability and is fatal to the training run.
var ErrBadDistribution = errors.New("degenerate action distribution")

// REINFORCE is an episodic policy-gradient agent whose policy resides
// in a remote execution context for the duration of training.
type REINFORCE struct {
	ctx    *remote.Context
	policy *policy.Categorical
	model  remote.Handle

	trajectory *buffer.Trajectory
	gamma      float64

	features int
	actions  int

	src rand.Source
}

// New creates a REINFORCE agent for the given environment, constructs
// its policy, and sends the policy into ctx. The returned agent must be
// Closed to bring the policy back.
func New(e environment.Environment, c Config, ctx *remote.Context,
	seed uint64) (*REINFORCE, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: invalid configuration: %v", err)
	}

	features := e.ObservationSpec().Shape.Len()
	actions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1

	pol, err := policy.NewCategorical(features, actions, c.MaxEpisodeSteps,
		c.HiddenSizes, c.Biases, c.Activations, c.InitWFn, c.Solver)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy: %v", err)
	}

	model, err := pol.Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("new: could not send policy: %v", err)
	}

	return &REINFORCE{
		ctx:        ctx,
		policy:     pol,
		model:      model,
		trajectory: buffer.NewTrajectory(c.MaxEpisodeSteps),
		gamma:      c.Gamma,
		features:   features,
		actions:    actions,
		src:        rand.NewSource(seed),
	}, nil
}

// SelectAction chooses an action for the current timestep by running
// the resident policy on the observation inside the remote context,
// then sampling locally from the retrieved distribution. The sampled
// action's log-probability and the observation are recorded in the
// episode trajectory.
func (a *REINFORCE) SelectAction(t ts.TimeStep) (*mat.VecDense, error) {
	obs := t.Observation
	if obs.Len() != a.features {
		return nil, fmt.Errorf("selectaction: observation should have %v "+
			"features, got %v", a.features, obs.Len())
	}

	raw := make([]float64, a.features)
	for i := range raw {
		raw[i] = obs.AtVec(i)
	}

	// Boundary crossing 1: observation moves into the context
	obsHandle, err := a.ctx.Send(tensor.New(
		tensor.WithBacking(raw),
		tensor.WithShape(a.features),
	))
	if err != nil {
		return nil, fmt.Errorf("selectaction: %v", err)
	}

	// Forward pass stays entirely remote
	distHandle, err := a.ctx.Apply(a.model, obsHandle)
	if err != nil {
		return nil, fmt.Errorf("selectaction: %v", err)
	}

	// Boundary crossing 2: the action distribution moves back for
	// local sampling
	dist, err := a.ctx.Retrieve(distHandle)
	if err != nil {
		return nil, fmt.Errorf("selectaction: %v", err)
	}

	// The spent observation is retrieved as well so transient inputs
	// never accumulate in the context
	spent, err := a.ctx.Retrieve(obsHandle)
	if err != nil {
		return nil, fmt.Errorf("selectaction: %v", err)
	}

	probs := dist.Data().([]float64)
	if err := checkDistribution(probs); err != nil {
		return nil, fmt.Errorf("selectaction: %w", err)
	}

	sampler := distuv.NewCategorical(probs, a.src)
	action := int(sampler.Rand())
	logProb := sampler.LogProb(float64(action))

	a.trajectory.StoreStep(spent.Data().([]float64), action, logProb)

	return mat.NewVecDense(1, []float64{float64(action)}), nil
}

// Observe records the reward of the transition caused by the last
// selected action
func (a *REINFORCE) Observe(_ mat.Vector, next ts.TimeStep) error {
	a.trajectory.StoreReward(next.Reward)
	return nil
}

// Update runs one REINFORCE policy update from the finished episode's
// trajectory: discounted returns are computed backward, normalized,
// and shipped into the remote context together with the episode's
// observations and actions for an in-place gradient step on the
// resident policy. The trajectory is cleared whether or not the update
// succeeds.
func (a *REINFORCE) Update() error {
	defer a.trajectory.Reset()

	obs, actions, _, rewards, err := a.trajectory.Data()
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}
	steps := len(rewards)
	if steps == 0 {
		return nil
	}

	returns := buffer.Normalize(buffer.Discounted(rewards, a.gamma))

	obsBatch := make([]float64, 0, steps*a.features)
	for _, o := range obs {
		obsBatch = append(obsBatch, o...)
	}
	actionBatch := make([]float64, steps)
	for i, act := range actions {
		actionBatch[i] = float64(act)
	}

	obsHandle, err := a.ctx.Send(tensor.New(
		tensor.WithBacking(obsBatch),
		tensor.WithShape(steps, a.features),
	))
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}
	actionHandle, err := a.ctx.Send(tensor.New(
		tensor.WithBacking(actionBatch),
		tensor.WithShape(steps),
	))
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}
	returnHandle, err := a.ctx.Send(tensor.New(
		tensor.WithBacking(returns),
		tensor.WithShape(steps),
	))
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}

	// The context consumes the batch handles, so nothing is left to
	// clean up on either path
	if err := a.ctx.Fit(a.model, obsHandle, actionHandle,
		returnHandle); err != nil {
		return fmt.Errorf("update: %v", err)
	}
	return nil
}

// Trajectory exposes the agent's episode trajectory for inspection
func (a *REINFORCE) Trajectory() *buffer.Trajectory {
	return a.trajectory
}

// Policy returns the agent's policy
func (a *REINFORCE) Policy() *policy.Categorical {
	return a.policy
}

// Close retrieves the policy from the remote context. After Close the
// policy is locally owned and can be inspected or checkpointed.
func (a *REINFORCE) Close() error {
	if a.policy.Owner() != remote.Remote {
		return nil
	}
	if err := a.policy.Retrieve(a.ctx, a.model); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return nil
}

// checkDistribution validates a probability vector before it is handed
// to the categorical sampler
func checkDistribution(probs []float64) error {
	sum := 0.0
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return fmt.Errorf("%w: probability %v at index %v",
				ErrBadDistribution, p, i)
		}
		sum += p
	}
	if sum <= 0 {
		return fmt.Errorf("%w: zero total probability mass",
			ErrBadDistribution)
	}
	return nil
}
