package remote

import (
	"errors"
	"testing"

	"gorgonia.org/tensor"
)

// doubler is a stub Model that doubles every element of its input
type doubler struct{}

func (doubler) Apply(in *tensor.Dense) (*tensor.Dense, error) {
	data := in.Data().([]float64)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = 2 * v
	}
	return tensor.New(tensor.WithBacking(out),
		tensor.WithShape(in.Shape()...)), nil
}

// recorder is a stub Learner that records the batches it was fit on
type recorder struct {
	doubler
	fits int
}

func (r *recorder) Fit(obs, actions, returns *tensor.Dense) error {
	r.fits++
	return nil
}

func TestSendRetrieve(t *testing.T) {
	ctx := NewContext()

	backing := []float64{1.5, -2.0, 3.25}
	h, err := ctx.Send(tensor.New(tensor.WithBacking(backing),
		tensor.WithShape(3)))
	if err != nil {
		t.Fatalf("could not send tensor: %v", err)
	}
	if ctx.Len() != 1 {
		t.Errorf("context should own 1 value after send, owns %v", ctx.Len())
	}

	got, err := ctx.Retrieve(h)
	if err != nil {
		t.Fatalf("could not retrieve tensor: %v", err)
	}
	data := got.Data().([]float64)
	for i := range backing {
		if data[i] != backing[i] {
			t.Errorf("retrieved value differs at index %v: want %v, got %v",
				i, backing[i], data[i])
		}
	}
	if ctx.Len() != 0 {
		t.Errorf("context should own nothing after retrieve, owns %v",
			ctx.Len())
	}
}

func TestRetrieveTwice(t *testing.T) {
	ctx := NewContext()

	h, err := ctx.Send(tensor.New(tensor.WithBacking([]float64{1.0}),
		tensor.WithShape(1)))
	if err != nil {
		t.Fatalf("could not send tensor: %v", err)
	}
	if _, err := ctx.Retrieve(h); err != nil {
		t.Fatalf("first retrieve failed: %v", err)
	}

	if _, err := ctx.Retrieve(h); !errors.Is(err, ErrNotFound) {
		t.Errorf("second retrieve should fail with ErrNotFound, got %v", err)
	}
}

func TestApplyStaysRemote(t *testing.T) {
	ctx := NewContext()

	model, err := ctx.SendModel(doubler{})
	if err != nil {
		t.Fatalf("could not send model: %v", err)
	}
	input, err := ctx.Send(tensor.New(tensor.WithBacking([]float64{1, 2}),
		tensor.WithShape(2)))
	if err != nil {
		t.Fatalf("could not send input: %v", err)
	}

	output, err := ctx.Apply(model, input)
	if err != nil {
		t.Fatalf("could not apply model: %v", err)
	}

	// The output is resident: model + input + output
	if ctx.Len() != 3 {
		t.Errorf("context should own 3 values after apply, owns %v", ctx.Len())
	}

	out, err := ctx.Retrieve(output)
	if err != nil {
		t.Fatalf("could not retrieve output: %v", err)
	}
	data := out.Data().([]float64)
	if data[0] != 2 || data[1] != 4 {
		t.Errorf("unexpected model output: %v", data)
	}

	// Input stays resident until retrieved
	if _, err := ctx.Retrieve(input); err != nil {
		t.Errorf("input should still be resident after apply: %v", err)
	}
}

func TestApplyUnknownHandles(t *testing.T) {
	ctx := NewContext()

	input, err := ctx.Send(tensor.New(tensor.WithBacking([]float64{1.0}),
		tensor.WithShape(1)))
	if err != nil {
		t.Fatalf("could not send input: %v", err)
	}

	if _, err := ctx.Apply(Handle(999), input); !errors.Is(err, ErrNotFound) {
		t.Errorf("apply with unknown model should fail with ErrNotFound, "+
			"got %v", err)
	}
}

func TestFitConsumesBatch(t *testing.T) {
	ctx := NewContext()

	learner := &recorder{}
	model, err := ctx.SendModel(learner)
	if err != nil {
		t.Fatalf("could not send model: %v", err)
	}

	handles := make([]Handle, 3)
	for i := range handles {
		handles[i], err = ctx.Send(tensor.New(
			tensor.WithBacking([]float64{float64(i)}), tensor.WithShape(1)))
		if err != nil {
			t.Fatalf("could not send batch tensor %v: %v", i, err)
		}
	}

	if err := ctx.Fit(model, handles[0], handles[1], handles[2]); err != nil {
		t.Fatalf("could not fit model: %v", err)
	}
	if learner.fits != 1 {
		t.Errorf("learner should have been fit once, was fit %v times",
			learner.fits)
	}

	// The batch handles were consumed; only the model remains
	if ctx.Len() != 1 {
		t.Errorf("context should own only the model after fit, owns %v",
			ctx.Len())
	}
	for _, h := range handles {
		if _, err := ctx.Retrieve(h); !errors.Is(err, ErrNotFound) {
			t.Errorf("batch handle %v should be consumed, retrieve got %v",
				h, err)
		}
	}
}

func TestFitNonLearner(t *testing.T) {
	ctx := NewContext()

	model, err := ctx.SendModel(doubler{})
	if err != nil {
		t.Fatalf("could not send model: %v", err)
	}
	h, err := ctx.Send(tensor.New(tensor.WithBacking([]float64{1.0}),
		tensor.WithShape(1)))
	if err != nil {
		t.Fatalf("could not send tensor: %v", err)
	}

	if err := ctx.Fit(model, h, h, h); err == nil {
		t.Error("fit on a model without Fit support should fail")
	}

	// The failed fit consumed nothing
	if _, err := ctx.Retrieve(h); err != nil {
		t.Errorf("batch tensor should stay resident after a rejected fit: %v",
			err)
	}
}

func TestFitBadHandleLeavesBatch(t *testing.T) {
	ctx := NewContext()

	model, err := ctx.SendModel(&recorder{})
	if err != nil {
		t.Fatalf("could not send model: %v", err)
	}

	handles := make([]Handle, 2)
	for i := range handles {
		handles[i], err = ctx.Send(tensor.New(
			tensor.WithBacking([]float64{float64(i)}), tensor.WithShape(1)))
		if err != nil {
			t.Fatalf("could not send batch tensor %v: %v", i, err)
		}
	}

	// An unresolvable returns handle fails the fit without consuming
	// the handles that did resolve
	err = ctx.Fit(model, handles[0], handles[1], Handle(999))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("fit with an unknown batch handle should fail with "+
			"ErrNotFound, got %v", err)
	}

	for i, h := range handles {
		if _, err := ctx.Retrieve(h); err != nil {
			t.Errorf("batch tensor %v should stay resident after a failed "+
				"fit: %v", i, err)
		}
	}
}

func TestClearIdempotent(t *testing.T) {
	ctx := NewContext()

	h, err := ctx.Send(tensor.New(tensor.WithBacking([]float64{1.0}),
		tensor.WithShape(1)))
	if err != nil {
		t.Fatalf("could not send tensor: %v", err)
	}
	if _, err := ctx.SendModel(doubler{}); err != nil {
		t.Fatalf("could not send model: %v", err)
	}

	ctx.Clear()
	if ctx.Len() != 0 {
		t.Errorf("context should own nothing after clear, owns %v", ctx.Len())
	}
	if _, err := ctx.Retrieve(h); !errors.Is(err, ErrNotFound) {
		t.Errorf("retrieve after clear should fail with ErrNotFound, got %v",
			err)
	}

	// Clearing an empty context is a no-op
	ctx.Clear()
	if ctx.Len() != 0 {
		t.Errorf("second clear should leave the context empty, owns %v",
			ctx.Len())
	}
}
