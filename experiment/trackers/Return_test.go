package trackers

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/farlearn/farlearn/timestep"
)

func episode(tracker Tracker, steps int, reward float64) {
	obs := mat.NewVecDense(1, []float64{0.0})

	tracker.Track(ts.New(ts.First, 0, 1.0, obs, 0))
	for i := 1; i < steps; i++ {
		tracker.Track(ts.New(ts.Mid, reward, 1.0, obs, i))
	}
	tracker.Track(ts.New(ts.Last, reward, 1.0, obs, steps))
}

func TestReturnTracksEpisodes(t *testing.T) {
	file := filepath.Join(t.TempDir(), "returns.bin")
	tracker := NewReturn(file)

	episode(tracker, 3, 1.0)
	episode(tracker, 5, 2.0)

	tracker.Save()
	data := LoadData(file)

	if len(data) != 2 {
		t.Fatalf("want 2 episodic returns, got %v", len(data))
	}
	if data[0] != 3.0 {
		t.Errorf("first episode should return 3, got %v", data[0])
	}
	if data[1] != 10.0 {
		t.Errorf("second episode should return 10, got %v", data[1])
	}
}

func TestReturnNonSequentialPanics(t *testing.T) {
	tracker := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))
	obs := mat.NewVecDense(1, []float64{0.0})

	defer func() {
		if recover() == nil {
			t.Error("tracking non-sequential timesteps should panic")
		}
	}()

	tracker.Track(ts.New(ts.First, 0, 1.0, obs, 0))
	tracker.Track(ts.New(ts.Mid, 1.0, 1.0, obs, 5))
}
