// Package remote implements an isolated execution context that owns
// tensors and models, simulating a worker on a separate machine.
//
// Values enter and leave the context only through Send and Retrieve,
// which move ownership rather than copy it: after Send the local side
// keeps the returned Handle purely as a retrieval receipt, and after
// Retrieve the context no longer owns the value. Apply evaluates a
// resident model on a resident tensor without crossing the ownership
// boundary. In a networked implementation Send and Retrieve are the
// only operations that would pay transport cost.
package remote

import (
	"errors"
	"fmt"

	"gorgonia.org/tensor"
)

var (
	// ErrNotFound is returned when a handle does not refer to a value
	// owned by the context, including handles that were already
	// retrieved.
	ErrNotFound = errors.New("no value owned under handle")

	// ErrNotOwned is returned when a computation is requested in a
	// context that does not own the operands.
	ErrNotOwned = errors.New("value not owned by this context")
)

// Owner tags which execution context currently owns a value
type Owner int

const (
	Local Owner = iota
	Remote
)

func (o Owner) String() string {
	if o == Local {
		return "Local"
	}
	return "Remote"
}

// Handle is an opaque receipt for a value owned by a Context
type Handle uint64

// Model is a function that a Context can evaluate on tensors it owns.
// Apply must not retain its argument.
type Model interface {
	Apply(*tensor.Dense) (*tensor.Dense, error)
}

// Learner is a Model whose parameters can be adjusted in place from an
// episode batch of observations, chosen action indices, and normalized
// returns.
type Learner interface {
	Model
	Fit(obs, actions, returns *tensor.Dense) error
}

// Context owns tensors and models sent to it and evaluates resident
// models on resident tensors. A Context is not safe for concurrent use.
type Context struct {
	tensors map[Handle]*tensor.Dense
	models  map[Handle]Model
	next    Handle
}

// NewContext returns a new Context owning no values
func NewContext() *Context {
	return &Context{
		tensors: make(map[Handle]*tensor.Dense),
		models:  make(map[Handle]Model),
	}
}

// Send moves ownership of t into the context and returns a handle for
// later retrieval. The caller must not use t afterwards.
func (c *Context) Send(t *tensor.Dense) (Handle, error) {
	if t == nil {
		return 0, fmt.Errorf("send: cannot send nil tensor")
	}

	h := c.nextHandle()
	c.tensors[h] = t
	return h, nil
}

// SendModel moves ownership of m, with all its parameters as a unit,
// into the context.
func (c *Context) SendModel(m Model) (Handle, error) {
	if m == nil {
		return 0, fmt.Errorf("sendmodel: cannot send nil model")
	}

	h := c.nextHandle()
	c.models[h] = m
	return h, nil
}

// Retrieve moves ownership of the tensor under h back to the caller,
// destroying the remote copy. Retrieving a handle twice fails with
// ErrNotFound.
func (c *Context) Retrieve(h Handle) (*tensor.Dense, error) {
	t, ok := c.tensors[h]
	if !ok {
		return nil, fmt.Errorf("retrieve: handle %d: %w", h, ErrNotFound)
	}

	delete(c.tensors, h)
	return t, nil
}

// RetrieveModel moves ownership of the model under h back to the
// caller, destroying the remote copy.
func (c *Context) RetrieveModel(h Handle) (Model, error) {
	m, ok := c.models[h]
	if !ok {
		return nil, fmt.Errorf("retrievemodel: handle %d: %w", h, ErrNotFound)
	}

	delete(c.models, h)
	return m, nil
}

// Apply evaluates the resident model under model on the resident tensor
// under input. The output stays owned by the context under the returned
// handle; the input remains resident until retrieved. Ownership never
// crosses the boundary.
func (c *Context) Apply(model, input Handle) (Handle, error) {
	m, ok := c.models[model]
	if !ok {
		return 0, fmt.Errorf("apply: model handle %d: %w", model, ErrNotFound)
	}
	in, ok := c.tensors[input]
	if !ok {
		return 0, fmt.Errorf("apply: input handle %d: %w", input, ErrNotFound)
	}

	out, err := m.Apply(in)
	if err != nil {
		return 0, fmt.Errorf("apply: %v", err)
	}

	h := c.nextHandle()
	c.tensors[h] = out
	return h, nil
}

// Fit runs one in-place parameter update of the resident Learner under
// model using the resident episode batch. Once the model and all three
// batch handles resolve, the obs, actions, and returns handles are
// consumed: the context destroys those tensors whether or not the
// learner's update succeeds. A handle that fails to resolve leaves the
// whole batch resident.
func (c *Context) Fit(model, obs, actions, returns Handle) error {
	m, ok := c.models[model]
	if !ok {
		return fmt.Errorf("fit: model handle %d: %w", model, ErrNotFound)
	}
	l, ok := m.(Learner)
	if !ok {
		return fmt.Errorf("fit: model %d does not support training", model)
	}

	// Resolve the whole batch before consuming any of it, so a bad
	// handle cannot leave the batch half-destroyed
	handles := []Handle{obs, actions, returns}
	batch := make([]*tensor.Dense, len(handles))
	for i, h := range handles {
		t, ok := c.tensors[h]
		if !ok {
			return fmt.Errorf("fit: batch handle %d: %w", h, ErrNotFound)
		}
		batch[i] = t
	}
	for _, h := range handles {
		delete(c.tensors, h)
	}

	if err := l.Fit(batch[0], batch[1], batch[2]); err != nil {
		return fmt.Errorf("fit: %v", err)
	}
	return nil
}

// Len returns the number of values, tensors and models, that the
// context currently owns
func (c *Context) Len() int {
	return len(c.tensors) + len(c.models)
}

// Clear destroys every value the context owns. Clear is idempotent and
// must run on every exit path of a training run.
func (c *Context) Clear() {
	for h := range c.tensors {
		delete(c.tensors, h)
	}
	for h := range c.models {
		delete(c.models, h)
	}
}

func (c *Context) nextHandle() Handle {
	c.next++
	return c.next
}
