// Package buffer implements episodic trajectory storage and
// discounted-return computation for policy-gradient learning
package buffer

import "fmt"

// Trajectory stores the data of the episode currently being run: the
// log-probability of each sampled action and the raw reward of each
// step, together with the observations and action indices needed to
// rebuild the surrogate loss at update time.
//
// The log-probability and reward sequences must have equal length at
// the moment of a policy update, and a Trajectory must be Reset after
// every update, whether or not the update succeeded.
type Trajectory struct {
	obs      [][]float64
	actions  []int
	logProbs []float64
	rewards  []float64
}

// NewTrajectory returns an empty Trajectory with capacity for an
// episode of up to steps steps
func NewTrajectory(steps int) *Trajectory {
	return &Trajectory{
		obs:      make([][]float64, 0, steps),
		actions:  make([]int, 0, steps),
		logProbs: make([]float64, 0, steps),
		rewards:  make([]float64, 0, steps),
	}
}

// StoreStep records the data of one action selection: the observation
// the policy saw, the sampled action index, and its log-probability
// under the current policy. The Trajectory takes ownership of obs.
func (t *Trajectory) StoreStep(obs []float64, action int, logProb float64) {
	t.obs = append(t.obs, obs)
	t.actions = append(t.actions, action)
	t.logProbs = append(t.logProbs, logProb)
}

// StoreReward records the raw reward of the most recent step
func (t *Trajectory) StoreReward(reward float64) {
	t.rewards = append(t.rewards, reward)
}

// Steps returns the number of completed steps stored in the Trajectory
func (t *Trajectory) Steps() int {
	return len(t.rewards)
}

// LogProbs returns the log-probabilities of the sampled actions in
// execution order
func (t *Trajectory) LogProbs() []float64 {
	return t.logProbs
}

// Rewards returns the raw rewards in execution order
func (t *Trajectory) Rewards() []float64 {
	return t.rewards
}

// Data returns the stored episode, failing if the per-step sequences
// have diverged in length.
func (t *Trajectory) Data() (obs [][]float64, actions []int, logProbs,
	rewards []float64, err error) {
	n := len(t.logProbs)
	if len(t.rewards) != n || len(t.obs) != n || len(t.actions) != n {
		err = fmt.Errorf("data: misaligned trajectory: %v observations, "+
			"%v actions, %v log-probabilities, %v rewards", len(t.obs),
			len(t.actions), n, len(t.rewards))
		return nil, nil, nil, nil, err
	}

	return t.obs, t.actions, t.logProbs, t.rewards, nil
}

// Reset clears the Trajectory for the next episode
func (t *Trajectory) Reset() {
	t.obs = t.obs[:0]
	t.actions = t.actions[:0]
	t.logProbs = t.logProbs[:0]
	t.rewards = t.rewards[:0]
}
