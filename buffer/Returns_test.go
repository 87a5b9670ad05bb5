package buffer

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

const tolerance = 1e-8

func TestDiscounted(t *testing.T) {
	rewards := []float64{1.0, 1.0, 1.0}
	gamma := 0.95

	returns := Discounted(rewards, gamma)
	expected := []float64{
		1.0 + gamma*(1.0+gamma),
		1.0 + gamma,
		1.0,
	}

	for i := range expected {
		if math.Abs(returns[i]-expected[i]) > tolerance {
			t.Errorf("return at step %v: want %v, got %v", i, expected[i],
				returns[i])
		}
	}
}

func TestDiscountedEmpty(t *testing.T) {
	if returns := Discounted(nil, 0.95); len(returns) != 0 {
		t.Errorf("discounted returns of no rewards should be empty, got %v",
			returns)
	}
}

func TestNormalize(t *testing.T) {
	returns := Normalize(Discounted([]float64{1, 1, 1, 1, 1}, 0.95))

	if mean := stat.Mean(returns, nil); math.Abs(mean) > tolerance {
		t.Errorf("normalized returns should have mean 0, got %v", mean)
	}
	if std := stat.StdDev(returns, nil); math.Abs(std-1.0) > tolerance {
		t.Errorf("normalized returns should have unit standard deviation, "+
			"got %v", std)
	}
}

func TestNormalizeSingleStep(t *testing.T) {
	returns := Normalize([]float64{5.0})

	if len(returns) != 1 {
		t.Fatalf("want 1 normalized return, got %v", len(returns))
	}
	if returns[0] != 0.0 {
		t.Errorf("a single-step episode should normalize to [0], got %v",
			returns)
	}
}

func TestNormalizeConstant(t *testing.T) {
	returns := Normalize([]float64{2.0, 2.0, 2.0})

	for i, g := range returns {
		if g != 0.0 {
			t.Errorf("constant returns should center to 0 at step %v, got %v",
				i, g)
		}
	}
}
