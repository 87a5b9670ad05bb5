// Package experiment implements functionality for running a training
// run of an agent on an environment
package experiment

import (
	"fmt"
	"os"

	"github.com/gosuri/uilive"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/farlearn/farlearn/agent"
	env "github.com/farlearn/farlearn/environment"
	"github.com/farlearn/farlearn/experiment/trackers"
	"github.com/farlearn/farlearn/remote"
	ts "github.com/farlearn/farlearn/timestep"
)

// Report summarizes a completed training run
type Report struct {
	Episodes   int
	MeanReturn float64
	MaxReturn  float64
	Returns    []float64
}

func (r *Report) String() string {
	return fmt.Sprintf("Run | Episodes: %v  |  Mean return: %.2f  |  "+
		"Max return: %.2f", r.Episodes, r.MeanReturn, r.MaxReturn)
}

// Run executes a fixed number of episodes of an agent on an
// environment. The agent's remote execution context is cleared on
// every exit path, success or failure, after the agent has been
// closed; a completed Run leaves the context owning no values.
type Run struct {
	env.Environment
	agent.Agent
	ctx      *remote.Context
	episodes int
	maxSteps int
	returns  []float64
	trackers []trackers.Tracker
	live     *uilive.Writer
}

// NewRun creates a new Run of episodes episodes, each bounded by
// maxSteps steps, with the t trackers recording run data.
func NewRun(e env.Environment, a agent.Agent, ctx *remote.Context,
	episodes, maxSteps int, t ...trackers.Tracker) *Run {
	return &Run{
		Environment: e,
		Agent:       a,
		ctx:         ctx,
		episodes:    episodes,
		maxSteps:    maxSteps,
		returns:     make([]float64, 0, episodes),
		trackers:    t,
	}
}

// Register registers a tracker with the Run so that data generated
// during the run can be tracked and saved
func (r *Run) Register(t trackers.Tracker) {
	r.trackers = append(r.trackers, t)
}

// LiveProgress enables a live terminal line reporting per-episode
// progress during Execute
func (r *Run) LiveProgress() {
	r.live = uilive.New()
}

// RunEpisode runs a single episode and returns its total undiscounted
// reward. Any error aborts the episode, and an aborted episode is
// fatal to the run.
func (r *Run) RunEpisode() (float64, error) {
	step := r.Environment.Reset()
	r.track(step)

	total := 0.0
	for steps := 0; !step.Last() && steps < r.maxSteps; steps++ {
		action, err := r.Agent.SelectAction(step)
		if err != nil {
			return 0, fmt.Errorf("runepisode: could not select action: %w",
				err)
		}

		next, _ := r.Environment.Step(action)
		if err := r.Agent.Observe(action, next); err != nil {
			return 0, fmt.Errorf("runepisode: could not observe: %w", err)
		}

		total += next.Reward
		r.track(next)
		step = next
	}

	if err := r.Agent.Update(); err != nil {
		return 0, fmt.Errorf("runepisode: could not update policy: %w", err)
	}

	return total, nil
}

// Execute runs every episode of the Run and reports the aggregate
// reward statistics
func (r *Run) Execute() (*Report, error) {
	defer r.ctx.Clear()
	defer func() {
		if err := r.Agent.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not close agent: %v\n",
				err)
		}
	}()

	if r.episodes < 1 {
		return nil, fmt.Errorf("execute: run needs at least 1 episode, "+
			"got %v", r.episodes)
	}

	if r.live != nil {
		r.live.Start()
		defer r.live.Stop()
	}

	for episode := 1; episode <= r.episodes; episode++ {
		total, err := r.RunEpisode()
		if err != nil {
			return nil, fmt.Errorf("execute: episode %v: %w", episode, err)
		}
		r.returns = append(r.returns, total)

		if r.live != nil {
			fmt.Fprintf(r.live, "episode %v/%v  return %.1f  mean %.1f\n",
				episode, r.episodes, total, stat.Mean(r.returns, nil))
		}
	}

	return &Report{
		Episodes:   r.episodes,
		MeanReturn: stat.Mean(r.returns, nil),
		MaxReturn:  floats.Max(r.returns),
		Returns:    r.returns,
	}, nil
}

// Save saves all the data cached by the trackers to disk
func (r *Run) Save() {
	for _, t := range r.trackers {
		t.Save()
	}
}

// track caches the current timestep's data in each tracker
func (r *Run) track(t ts.TimeStep) {
	for _, tracker := range r.trackers {
		tracker.Track(t)
	}
}
