package environment

import (
	"fmt"

	"github.com/farlearn/farlearn/timestep"
)

// StepLimit ends episodes once they reach a fixed number of steps
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit returns an Ender that cuts episodes off after
// episodeSteps steps. NewStepLimit panics if episodeSteps is not
// positive.
func NewStepLimit(episodeSteps int) StepLimit {
	if episodeSteps < 1 {
		panic(fmt.Sprintf("steplimit: episode steps should be positive, "+
			"got %v", episodeSteps))
	}
	return StepLimit{episodeSteps}
}

// End marks t as the last step of its episode if the step limit has
// been reached, reporting whether it did so
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Number < s.episodeSteps {
		return false
	}

	t.StepType = timestep.Last
	return true
}
