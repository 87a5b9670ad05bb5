// Package trackers implements trackers which cache and save data
// generated during a training run
package trackers

import "github.com/farlearn/farlearn/timestep"

// Tracker caches data from environment timesteps as they are
// generated, then saves the cached data to disk when Save is called.
type Tracker interface {
	Track(t timestep.TimeStep)
	Save()
}
