package trackers

import (
	"log"

	"github.com/fogleman/gg"

	ts "github.com/farlearn/farlearn/timestep"
)

// Plot dimensions in pixels
const (
	plotWidth  = 640
	plotHeight = 480
	plotMargin = 40.0
)

// RewardPlot tracks episodic returns and saves a learning-curve plot
// of return against episode number as a PNG image.
type RewardPlot struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewRewardPlot creates and returns a new *RewardPlot Tracker which
// saves its plot to filename
func NewRewardPlot(filename string) Tracker {
	var plotter RewardPlot
	plotter.lastTimeStep = -1
	plotter.filename = filename
	return &plotter
}

// Track accumulates the reward seen on a timestep into the current
// episode's return.
//
// Track panics if it is called for non-sequential timesteps
func (r *RewardPlot) Track(step ts.TimeStep) {
	if r.lastTimeStep+1 != step.Number {
		log.Panicf("track: last two timesteps tracked are not sequential: "+
			"timestep %v --> timestep %v were tracked", r.lastTimeStep,
			step.Number)
	}

	r.currentReturn += step.Reward
	if !step.Last() {
		r.lastTimeStep = step.Number
		return
	}

	r.episodeReturns = append(r.episodeReturns, r.currentReturn)
	r.currentReturn = 0.0
	r.lastTimeStep = -1
}

// Save renders the learning curve and writes it to disk
func (r *RewardPlot) Save() {
	if len(r.episodeReturns) < 2 {
		log.Printf("rewardplot: not enough episodes to plot, skipping")
		return
	}

	min, max := r.episodeReturns[0], r.episodeReturns[0]
	for _, ret := range r.episodeReturns {
		if ret < min {
			min = ret
		}
		if ret > max {
			max = ret
		}
	}
	if max == min {
		// Flat curve, give the vertical axis some span
		max = min + 1
	}

	dc := gg.NewContext(plotWidth, plotHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Axes
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(plotMargin, plotMargin, plotMargin, plotHeight-plotMargin)
	dc.DrawLine(plotMargin, plotHeight-plotMargin, plotWidth-plotMargin,
		plotHeight-plotMargin)
	dc.Stroke()

	// Learning curve
	dc.SetRGB(0.2, 0.4, 0.8)
	dc.SetLineWidth(2)
	xSpan := float64(plotWidth) - 2*plotMargin
	ySpan := float64(plotHeight) - 2*plotMargin
	for i, ret := range r.episodeReturns {
		x := plotMargin + xSpan*float64(i)/float64(len(r.episodeReturns)-1)
		y := float64(plotHeight) - plotMargin - ySpan*(ret-min)/(max-min)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()

	if err := dc.SavePNG(r.filename); err != nil {
		log.Fatalf("could not save reward plot: %v", err)
	}
}
