package trackers

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"

	ts "github.com/farlearn/farlearn/timestep"
)

// Return tracks and saves the episodic return in a training run. When
// an environment returns a TimeStep, this Tracker extracts the reward
// and accumulates the return for each episode in the run.
//
// Note: An episode must finish for this Tracker to save its data. If
// the last episode in a run does not finish, that episode's return
// will not be saved.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) Tracker {
	var saver Return
	saver.lastTimeStep = -1
	saver.filename = filename
	return &saver
}

// Track tracks the rewards seen on a timestep. By calling this method
// on every timestep, the Tracker will store the cumulative reward for
// each episode as the episodic return. When a new episode starts, this
// method automatically detects this and starts accumulating the
// rewards of the new episode separately.
//
// Track panics if it is called for non-sequential timesteps
func (r *Return) Track(step ts.TimeStep) {
	// Ensure that Track is called on sequential timesteps
	if r.lastTimeStep+1 != step.Number {
		msg := fmt.Sprintf("warning: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			r.lastTimeStep, step.Number)
		panic(msg)
	}

	if !step.Last() {
		// Track return for same episode
		r.currentReturn += step.Reward
		r.lastTimeStep = step.Number
	} else {
		// Episode has ended, save the return and begin tracking the
		// return for a new episode
		r.currentReturn += step.Reward
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)

		// Reset tracking variables
		r.currentReturn = 0.0
		r.lastTimeStep = -1
	}
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() {
	// Open the file to save to
	file, err := os.Create(r.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	// Encode and save the file
	en := gob.NewEncoder(file)
	if err = en.Encode(r.episodeReturns); err != nil {
		log.Fatalf("could not encode return data: %v", err)
	}
}

// LoadData reads episodic returns saved by a Return Tracker back from
// disk
func LoadData(filename string) []float64 {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	var data []float64
	de := gob.NewDecoder(file)
	if err = de.Decode(&data); err != nil {
		log.Fatalf("could not decode return data: %v", err)
	}
	return data
}
