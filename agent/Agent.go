// Package agent outlines the interface that learning agents satisfy
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/farlearn/farlearn/timestep"
)

// Agent is an episodic learning agent. SelectAction chooses an action
// for the current timestep, Observe records the environmental response
// to the last action, and Update adjusts the agent's policy at the end
// of an episode. Close releases any resources the agent acquired, such
// as a policy resident in a remote execution context, and must be
// called exactly once when the agent is no longer needed.
type Agent interface {
	SelectAction(t timestep.TimeStep) (*mat.VecDense, error)
	Observe(action mat.Vector, next timestep.TimeStep) error
	Update() error
	Close() error
}
