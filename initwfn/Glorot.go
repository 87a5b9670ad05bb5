package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// GlorotUConfig describes Glorot uniform weight initialization. The
// gain multiplies the half-width of the sampling interval.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a Glorot uniform weight initializer with the given
// gain. The gain must be positive.
func NewGlorotU(gain float64) (*InitWFn, error) {
	if gain <= 0 {
		return nil, fmt.Errorf("newglorotu: gain should be positive, got %v",
			gain)
	}
	return newInitWFn(GlorotUConfig{Gain: gain})
}

// Type returns the type of initialization the configuration describes
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the initialization algorithm as a Gorgonia InitWFn
func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// GlorotNConfig describes Glorot normal weight initialization. The
// gain multiplies the standard deviation of the sampling distribution.
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a Glorot normal weight initializer with the given
// gain. The gain must be positive.
func NewGlorotN(gain float64) (*InitWFn, error) {
	if gain <= 0 {
		return nil, fmt.Errorf("newglorotn: gain should be positive, got %v",
			gain)
	}
	return newInitWFn(GlorotNConfig{Gain: gain})
}

// Type returns the type of initialization the configuration describes
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the initialization algorithm as a Gorgonia InitWFn
func (g GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}
