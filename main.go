// farlearn trains policy-gradient agents whose numeric computation
// runs in a remote execution context.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/farlearn/farlearn/agent/reinforce"
	env "github.com/farlearn/farlearn/environment"
	"github.com/farlearn/farlearn/environment/classiccontrol/cartpole"
	"github.com/farlearn/farlearn/experiment"
	"github.com/farlearn/farlearn/experiment/trackers"
	"github.com/farlearn/farlearn/initwfn"
	"github.com/farlearn/farlearn/remote"
	"github.com/farlearn/farlearn/solver"
)

var (
	episodes    int
	maxSteps    int
	gamma       float64
	lr          float64
	seed        uint64
	hidden      int
	solverName  string
	configFile  string
	returnsFile string
	plotFile    string
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "farlearn",
	Short: "Train policy-gradient agents in a remote execution context",
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a REINFORCE agent on cartpole",
	RunE:  train,
}

func init() {
	trainCmd.Flags().IntVar(&episodes, "episodes", 500,
		"number of training episodes")
	trainCmd.Flags().IntVar(&maxSteps, "max-steps", 500,
		"maximum steps per episode")
	trainCmd.Flags().Float64Var(&gamma, "gamma", reinforce.DefaultGamma,
		"discount factor for return computation")
	trainCmd.Flags().Float64Var(&lr, "lr", reinforce.DefaultLearningRate,
		"learning rate for the policy update")
	trainCmd.Flags().Uint64Var(&seed, "seed", 1,
		"random seed for the environment and agent")
	trainCmd.Flags().IntVar(&hidden, "hidden", 16,
		"hidden units in the policy network")
	trainCmd.Flags().StringVar(&solverName, "solver", "vanilla",
		"gradient solver: vanilla or adam")
	trainCmd.Flags().StringVar(&configFile, "config", "",
		"JSON file overriding the solver, weight initializer, and discount")
	trainCmd.Flags().StringVar(&returnsFile, "returns-file", "",
		"file to save episodic returns to (gob encoded)")
	trainCmd.Flags().StringVar(&plotFile, "plot-file", "",
		"file to save a learning-curve plot to (PNG)")
	trainCmd.Flags().BoolVar(&quiet, "quiet", false,
		"disable live progress output")
	rootCmd.AddCommand(trainCmd)
}

func train(_ *cobra.Command, _ []string) error {
	// Cartpole starts in a small uniform neighbourhood of the upright,
	// centred state
	bounds := make([]r1.Interval, 4)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -0.05, Max: 0.05}
	}
	starter := env.NewUniformStarter(bounds, seed)
	task := cartpole.NewBalance(starter, maxSteps)
	environment, _ := cartpole.New(task, 1.0)

	config, err := reinforce.NewDefaultConfig(hidden, maxSteps)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	config.Gamma = gamma

	switch solverName {
	case "vanilla":
		config.Solver, err = solver.NewVanilla(lr, 1, -1.0)
	case "adam":
		config.Solver, err = solver.NewDefaultAdam(lr, 1)
	default:
		return fmt.Errorf("train: unknown solver %q", solverName)
	}
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	// A config file wins over the individual flags
	if configFile != "" {
		if err := applyConfigFile(configFile, &config); err != nil {
			return fmt.Errorf("train: %v", err)
		}
	}

	ctx := remote.NewContext()
	a, err := reinforce.New(environment, config, ctx, seed)
	if err != nil {
		return fmt.Errorf("train: could not create agent: %v", err)
	}

	run := experiment.NewRun(environment, a, ctx, episodes, maxSteps)
	if returnsFile != "" {
		run.Register(trackers.NewReturn(returnsFile))
	}
	if plotFile != "" {
		run.Register(trackers.NewRewardPlot(plotFile))
	}
	if !quiet {
		run.LiveProgress()
	}

	report, err := run.Execute()
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	fmt.Println(report)
	run.Save()
	return nil
}

// applyConfigFile overrides config with the settings found in the JSON
// file at path. Absent settings leave the flag-derived values alone.
func applyConfigFile(path string, config *reinforce.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}

	var overrides struct {
		Gamma   *float64
		InitWFn *initwfn.InitWFn
		Solver  *solver.Solver
	}
	if err := json.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("could not parse config file: %v", err)
	}

	if overrides.Gamma != nil {
		config.Gamma = *overrides.Gamma
	}
	if overrides.InitWFn != nil {
		config.InitWFn = overrides.InitWFn
	}
	if overrides.Solver != nil {
		config.Solver = overrides.Solver
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
