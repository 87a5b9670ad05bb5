package solver

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalVanilla(t *testing.T) {
	data := []byte(`{"Type": "Vanilla", "Config": {"StepSize": 0.03, ` +
		`"Batch": 1, "Clip": -1}}`)

	var s Solver
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("could not unmarshal solver: %v", err)
	}

	if s.Type != Vanilla {
		t.Errorf("want type %v, got %v", Vanilla, s.Type)
	}
	config, ok := s.Config.(*VanillaConfig)
	if !ok {
		t.Fatalf("want *VanillaConfig, got %T", s.Config)
	}
	if config.StepSize != 0.03 {
		t.Errorf("want step size 0.03, got %v", config.StepSize)
	}
	if s.Solver == nil {
		t.Error("unmarshalled solver should create a Gorgonia solver")
	}
}

func TestUnmarshalAdam(t *testing.T) {
	data := []byte(`{"Type": "Adam", "Config": {"StepSize": 0.001, ` +
		`"Epsilon": 1e-8, "Beta1": 0.9, "Beta2": 0.999, "Batch": 1}}`)

	var s Solver
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("could not unmarshal solver: %v", err)
	}

	if s.Type != Adam {
		t.Errorf("want type %v, got %v", Adam, s.Type)
	}
	config, ok := s.Config.(*AdamConfig)
	if !ok {
		t.Fatalf("want *AdamConfig, got %T", s.Config)
	}
	if config.Beta2 != 0.999 {
		t.Errorf("want beta2 0.999, got %v", config.Beta2)
	}
	if s.Solver == nil {
		t.Error("unmarshalled solver should create a Gorgonia solver")
	}
}

func TestSolverValidation(t *testing.T) {
	if _, err := NewVanilla(0, 1, -1); err == nil {
		t.Error("a non-positive step size should be rejected")
	}
	if _, err := NewVanilla(0.03, 0, -1); err == nil {
		t.Error("a non-positive batch size should be rejected")
	}
	if _, err := NewAdam(-0.001, 1e-8, 0.9, 0.999, 1); err == nil {
		t.Error("a non-positive Adam step size should be rejected")
	}
}
