package reinforce

import (
	"fmt"

	"github.com/farlearn/farlearn/initwfn"
	"github.com/farlearn/farlearn/network"
	"github.com/farlearn/farlearn/solver"
)

// Default hyperparameters
const (
	DefaultGamma        float64 = 0.95
	DefaultLearningRate float64 = 0.03
)

// Config describes a configuration of a REINFORCE agent
type Config struct {
	// Policy network architecture
	HiddenSizes []int
	Biases      []bool
	Activations []*network.Activation
	InitWFn     *initwfn.InitWFn

	// Optimizer for the policy-gradient step
	Solver *solver.Solver

	// Discount factor for return computation
	Gamma float64

	// MaxEpisodeSteps bounds the episode length and fixes the policy
	// network's batch size
	MaxEpisodeSteps int
}

// NewDefaultConfig returns a Config with a single tanh hidden layer of
// hidden units, Glorot uniform initialization, and a vanilla gradient
// descent solver with the default learning rate.
func NewDefaultConfig(hidden, maxEpisodeSteps int) (Config, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("newdefaultconfig: %v", err)
	}

	sol, err := solver.NewVanilla(DefaultLearningRate, 1, -1.0)
	if err != nil {
		return Config{}, fmt.Errorf("newdefaultconfig: %v", err)
	}

	return Config{
		HiddenSizes:     []int{hidden},
		Biases:          []bool{true},
		Activations:     []*network.Activation{network.TanH()},
		InitWFn:         init,
		Solver:          sol,
		Gamma:           DefaultGamma,
		MaxEpisodeSteps: maxEpisodeSteps,
	}, nil
}

// Validate returns an error describing why the Config cannot create an
// agent, or nil if it can.
func (c Config) Validate() error {
	if len(c.HiddenSizes) != len(c.Biases) ||
		len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("validate: hidden sizes, biases, and activations "+
			"should have equal lengths, got (%v, %v, %v)", len(c.HiddenSizes),
			len(c.Biases), len(c.Activations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}
	if c.Solver == nil {
		return fmt.Errorf("validate: no solver given")
	}
	if c.Gamma <= 0 || c.Gamma >= 1 {
		return fmt.Errorf("validate: discount factor should be in (0, 1), "+
			"got %v", c.Gamma)
	}
	if c.MaxEpisodeSteps < 1 {
		return fmt.Errorf("validate: max episode steps should be positive, "+
			"got %v", c.MaxEpisodeSteps)
	}
	return nil
}
