package cartpole

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/farlearn/farlearn/environment"
)

// zeroStarter returns a starter that always begins at the centred,
// upright state
func zeroStarter(seed uint64) env.Starter {
	bounds := make([]r1.Interval, 4)
	return env.NewUniformStarter(bounds, seed)
}

func TestNew(t *testing.T) {
	task := NewBalance(zeroStarter(1), 500)
	c, first := New(task, 1.0)

	if !first.First() {
		t.Errorf("first timestep should have type First, got %v",
			first.StepType)
	}
	if first.Observation.Len() != 4 {
		t.Errorf("cartpole observations should have 4 features, got %v",
			first.Observation.Len())
	}

	spec := c.ObservationSpec()
	if spec.Shape.Len() != 4 {
		t.Errorf("observation spec should have 4 features, got %v",
			spec.Shape.Len())
	}
	if upper := c.ActionSpec().UpperBound.AtVec(0); upper != 1.0 {
		t.Errorf("action upper bound should be 1, got %v", upper)
	}
}

func TestStepReward(t *testing.T) {
	task := NewBalance(zeroStarter(1), 500)
	c, _ := New(task, 1.0)

	right := mat.NewVecDense(1, []float64{1.0})
	step, _ := c.Step(right)

	if step.Reward != 1.0 {
		t.Errorf("balancing reward should be 1 on every step, got %v",
			step.Reward)
	}
	if step.Number != 1 {
		t.Errorf("first transition should have step number 1, got %v",
			step.Number)
	}
}

func TestConstantForceFails(t *testing.T) {
	episodeSteps := 500
	task := NewBalance(zeroStarter(1), episodeSteps)
	c, _ := New(task, 1.0)

	// Pushing the cart in one direction forever must tip the pole or
	// drive the cart out of bounds well before the step limit
	right := mat.NewVecDense(1, []float64{1.0})
	for i := 0; i < episodeSteps; i++ {
		step, last := c.Step(right)
		if last {
			if i >= episodeSteps-1 {
				t.Error("episode should fail before the step limit under " +
					"constant force")
			}
			if !step.Last() {
				t.Error("ending step should have type Last")
			}
			return
		}
	}
	t.Error("episode should have ended under constant force")
}

func TestStepLimitEndsEpisode(t *testing.T) {
	episodeSteps := 3
	task := NewBalance(zeroStarter(1), episodeSteps)
	c, _ := New(task, 1.0)

	// Alternate pushes keep the pole near upright, so only the step
	// limit can end this episode
	actions := []float64{1.0, 0.0, 1.0}
	var last bool
	var step int
	for i, a := range actions {
		_, last = c.Step(mat.NewVecDense(1, []float64{a}))
		step = i + 1
		if last {
			break
		}
	}
	if !last {
		t.Error("episode should have ended at the step limit")
	}
	if step != episodeSteps {
		t.Errorf("episode should end on step %v, ended on %v", episodeSteps,
			step)
	}
}

func TestIllegalActionPanics(t *testing.T) {
	task := NewBalance(zeroStarter(1), 500)
	c, _ := New(task, 1.0)

	defer func() {
		if recover() == nil {
			t.Error("stepping with an illegal action should panic")
		}
	}()
	c.Step(mat.NewVecDense(1, []float64{2.0}))
}

func TestReset(t *testing.T) {
	task := NewBalance(zeroStarter(1), 500)
	c, _ := New(task, 1.0)

	c.Step(mat.NewVecDense(1, []float64{1.0}))
	step := c.Reset()

	if !step.First() {
		t.Errorf("reset should return a First timestep, got %v", step.StepType)
	}
	if step.Number != 0 {
		t.Errorf("reset should return step number 0, got %v", step.Number)
	}
}
