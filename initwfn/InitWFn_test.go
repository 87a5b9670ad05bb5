package initwfn

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalGlorotN(t *testing.T) {
	data := []byte(`{"Type": "GlorotN", "Config": {"Gain": 1.5}}`)

	var init InitWFn
	if err := json.Unmarshal(data, &init); err != nil {
		t.Fatalf("could not unmarshal initializer: %v", err)
	}

	if init.Type != GlorotN {
		t.Errorf("want type %v, got %v", GlorotN, init.Type)
	}
	config, ok := init.Config.(*GlorotNConfig)
	if !ok {
		t.Fatalf("want *GlorotNConfig, got %T", init.Config)
	}
	if config.Gain != 1.5 {
		t.Errorf("want gain 1.5, got %v", config.Gain)
	}
	if init.InitWFn() == nil {
		t.Error("unmarshalled initializer should create an InitWFn")
	}
}

func TestUnmarshalZeroes(t *testing.T) {
	data := []byte(`{"Type": "Zeroes", "Config": {}}`)

	var init InitWFn
	if err := json.Unmarshal(data, &init); err != nil {
		t.Fatalf("could not unmarshal initializer: %v", err)
	}

	if init.Type != Zeroes {
		t.Errorf("want type %v, got %v", Zeroes, init.Type)
	}
	if init.InitWFn() == nil {
		t.Error("unmarshalled initializer should create an InitWFn")
	}
}

func TestGlorotURoundTrip(t *testing.T) {
	init, err := NewGlorotU(2.0)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	data, err := json.Marshal(init)
	if err != nil {
		t.Fatalf("could not marshal initializer: %v", err)
	}

	var decoded InitWFn
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("could not unmarshal initializer: %v", err)
	}
	if decoded.Type != GlorotU {
		t.Errorf("want type %v, got %v", GlorotU, decoded.Type)
	}
	config, ok := decoded.Config.(*GlorotUConfig)
	if !ok {
		t.Fatalf("want *GlorotUConfig, got %T", decoded.Config)
	}
	if config.Gain != 2.0 {
		t.Errorf("want gain 2, got %v", config.Gain)
	}
}

func TestGlorotGainValidation(t *testing.T) {
	if _, err := NewGlorotU(0); err == nil {
		t.Error("a non-positive uniform gain should be rejected")
	}
	if _, err := NewGlorotN(-1.0); err == nil {
		t.Error("a non-positive normal gain should be rejected")
	}
}
