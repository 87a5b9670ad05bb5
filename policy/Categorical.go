// Package policy implements parametrized action-selection policies
// that can be owned by a remote execution context
package policy

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/farlearn/farlearn/initwfn"
	"github.com/farlearn/farlearn/network"
	"github.com/farlearn/farlearn/remote"
	"github.com/farlearn/farlearn/solver"
)

// Categorical is a softmax policy over a discrete action set, backed by
// a multi-layered perceptron. Apply maps a single observation to the
// action-probability distribution; Fit performs one policy-gradient
// step from an episode batch of observations, chosen action indices,
// and normalized returns.
//
// All parameters of a Categorical share one owner at all times. Send
// moves the whole parameter set into a remote context as a unit and
// Retrieve moves it back; while the policy is remotely owned, local
// calls to Apply and Fit fail with remote.ErrNotOwned, and the only way
// to reach the policy is through the context that owns it.
//
// The network consumes a fixed batch of rows equal to the maximum
// episode length. Single-observation forward passes and shorter
// episodes pad the batch with zero rows; padded rows are given zero
// return weight, so they contribute nothing to the loss or its
// gradient. One graph serves both selection and update, which
// guarantees that gradients are always taken against the parameter
// values that produced the recorded behaviour.
type Categorical struct {
	net    network.NeuralNet
	vm     G.VM
	solver *solver.Solver

	actionIndices *G.Node
	advantages    *G.Node
	probs         *G.Node
	probsVal      G.Value

	features int
	actions  int
	batch    int

	owner remote.Owner
}

// NewCategorical returns a new Categorical policy. The batch parameter
// is the maximum number of steps in one episode. The network has one
// hidden layer per element of hiddenSizes; see network.NewMLP.
func NewCategorical(features, actions, batch int, hiddenSizes []int,
	biases []bool, activations []*network.Activation, init *initwfn.InitWFn,
	sol *solver.Solver) (*Categorical, error) {
	if features < 1 || actions < 2 || batch < 1 {
		return nil, fmt.Errorf("newcategorical: need features >= 1, "+
			"actions >= 2, batch >= 1, got (%v, %v, %v)", features, actions,
			batch)
	}

	g := G.NewGraph()
	net, err := network.NewMLP(features, batch, actions, g, hiddenSizes,
		biases, init.InitWFn(), activations)
	if err != nil {
		return nil, fmt.Errorf("newcategorical: could not create policy "+
			"network: %v", err)
	}

	logits := net.Prediction()
	probs := G.Must(G.SoftMax(logits, 1))

	// Log probability of the actions selected during the episode
	actionIndices := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, actions),
		G.WithName("actionIndices"),
		G.WithInit(G.Zeroes()),
	)
	chosenLogits := G.Must(G.Sum(G.Must(G.HadamardProd(actionIndices,
		logits)), 1))
	logProb := G.Must(G.Sub(chosenLogits, logSumExp(logits, 1)))

	// Policy-gradient surrogate loss: -Σ log π(a|s) * G'
	advantages := G.NewVector(
		g,
		tensor.Float64,
		G.WithShape(batch),
		G.WithName("advantages"),
		G.WithInit(G.Zeroes()),
	)
	loss := G.Must(G.HadamardProd(logProb, advantages))
	loss = G.Must(G.Sum(loss))
	loss = G.Must(G.Neg(loss))

	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		return nil, fmt.Errorf("newcategorical: could not construct "+
			"gradient: %v", err)
	}

	pol := &Categorical{
		net:           net,
		solver:        sol,
		actionIndices: actionIndices,
		advantages:    advantages,
		probs:         probs,
		features:      features,
		actions:       actions,
		batch:         batch,
		owner:         remote.Local,
	}
	G.Read(pol.probs, &pol.probsVal)

	pol.vm = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))

	return pol, nil
}

// Actions returns the number of discrete actions the policy selects
// between
func (p *Categorical) Actions() int {
	return p.actions
}

// Features returns the observation dimensionality the policy expects
func (p *Categorical) Features() int {
	return p.features
}

// Owner returns which execution context currently owns the policy's
// parameters
func (p *Categorical) Owner() remote.Owner {
	return p.owner
}

// Parameters returns the policy's parameter nodes in a fixed order
func (p *Categorical) Parameters() G.Nodes {
	return p.net.Learnables()
}

// ParameterValues returns a copy of the current parameter values, in
// the same order as Parameters. Useful for checkpoint comparison.
func (p *Categorical) ParameterValues() []*tensor.Dense {
	params := p.net.Learnables()
	values := make([]*tensor.Dense, len(params))
	for i, node := range params {
		values[i] = node.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	}
	return values
}

// Send moves ownership of the policy, with all its parameters as a
// unit, into ctx. The returned handle is the only way to reach the
// policy until it is retrieved.
func (p *Categorical) Send(ctx *remote.Context) (remote.Handle, error) {
	if p.owner != remote.Local {
		return 0, fmt.Errorf("send: policy: %w", remote.ErrNotOwned)
	}

	h, err := ctx.SendModel(resident{p})
	if err != nil {
		return 0, fmt.Errorf("send: policy: %v", err)
	}

	p.owner = remote.Remote
	return h, nil
}

// Retrieve moves ownership of the policy back from ctx, destroying the
// remote residency. The handle must be the one returned by Send.
func (p *Categorical) Retrieve(ctx *remote.Context, h remote.Handle) error {
	m, err := ctx.RetrieveModel(h)
	if err != nil {
		return fmt.Errorf("retrieve: policy: %w", err)
	}

	r, ok := m.(resident)
	if !ok || r.policy != p {
		return fmt.Errorf("retrieve: handle %d refers to a different model",
			h)
	}

	p.owner = remote.Local
	return nil
}

// Apply maps one observation to the action-probability distribution of
// the policy. Apply fails with remote.ErrNotOwned while the policy is
// owned by a remote context; route the call through that context
// instead.
func (p *Categorical) Apply(obs *tensor.Dense) (*tensor.Dense, error) {
	if p.owner != remote.Local {
		return nil, fmt.Errorf("apply: policy: %w", remote.ErrNotOwned)
	}
	return p.apply(obs)
}

// Fit runs one gradient step on the surrogate loss. Fit fails with
// remote.ErrNotOwned while the policy is owned by a remote context.
func (p *Categorical) Fit(obs, actions, returns *tensor.Dense) error {
	if p.owner != remote.Local {
		return fmt.Errorf("fit: policy: %w", remote.ErrNotOwned)
	}
	return p.fit(obs, actions, returns)
}

func (p *Categorical) apply(obs *tensor.Dense) (*tensor.Dense, error) {
	data, ok := obs.Data().([]float64)
	if !ok || len(data) != p.features {
		return nil, fmt.Errorf("apply: observation should have %v "+
			"features, got %v", p.features, obs.Shape())
	}

	// The observation occupies row 0; the remaining batch rows are
	// zero padding
	input := make([]float64, p.batch*p.features)
	copy(input, data)
	if err := p.net.SetInput(input); err != nil {
		return nil, fmt.Errorf("apply: could not set input: %v", err)
	}

	if err := p.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("apply: could not run forward pass: %v", err)
	}
	defer p.vm.Reset()

	out := p.probsVal.Data().([]float64)
	probs := make([]float64, p.actions)
	copy(probs, out[:p.actions])

	return tensor.New(tensor.WithBacking(probs),
		tensor.WithShape(p.actions)), nil
}

func (p *Categorical) fit(obs, actions, returns *tensor.Dense) error {
	obsData, ok := obs.Data().([]float64)
	if !ok || len(obsData) == 0 || len(obsData)%p.features != 0 {
		return fmt.Errorf("fit: observation batch shape %v does not hold "+
			"%v-feature rows", obs.Shape(), p.features)
	}
	steps := len(obsData) / p.features
	if steps > p.batch {
		return fmt.Errorf("fit: episode of %v steps exceeds maximum of %v",
			steps, p.batch)
	}

	actionData, ok := actions.Data().([]float64)
	if !ok || len(actionData) != steps {
		return fmt.Errorf("fit: want %v action indices, got shape %v", steps,
			actions.Shape())
	}
	returnData, ok := returns.Data().([]float64)
	if !ok || len(returnData) != steps {
		return fmt.Errorf("fit: want %v returns, got shape %v", steps,
			returns.Shape())
	}

	// Pad the episode out to the fixed batch. Padded rows get zero
	// advantage, so they add nothing to the loss or gradient.
	input := make([]float64, p.batch*p.features)
	copy(input, obsData)

	oneHot := make([]float64, p.batch*p.actions)
	for i := 0; i < steps; i++ {
		a := int(actionData[i])
		if a < 0 || a >= p.actions {
			return fmt.Errorf("fit: illegal action index %v at step %v", a, i)
		}
		oneHot[i*p.actions+a] = 1.0
	}

	advantages := make([]float64, p.batch)
	copy(advantages, returnData)

	err := G.Let(p.actionIndices, tensor.New(
		tensor.WithBacking(oneHot),
		tensor.WithShape(p.batch, p.actions),
	))
	if err != nil {
		return fmt.Errorf("fit: could not set action indices: %v", err)
	}

	err = G.Let(p.advantages, tensor.New(
		tensor.WithBacking(advantages),
		tensor.WithShape(p.batch),
	))
	if err != nil {
		return fmt.Errorf("fit: could not set advantages: %v", err)
	}

	if err := p.net.SetInput(input); err != nil {
		return fmt.Errorf("fit: could not set input: %v", err)
	}

	if err := p.vm.RunAll(); err != nil {
		return fmt.Errorf("fit: could not run backward pass: %v", err)
	}
	defer p.vm.Reset()

	if err := p.solver.Step(p.net.Model()); err != nil {
		return fmt.Errorf("fit: could not step solver: %v", err)
	}
	return nil
}

// resident is the remote-side view of a Categorical. It bypasses the
// local ownership guard, so only the owning context can hold one.
type resident struct {
	policy *Categorical
}

func (r resident) Apply(obs *tensor.Dense) (*tensor.Dense, error) {
	return r.policy.apply(obs)
}

func (r resident) Fit(obs, actions, returns *tensor.Dense) error {
	return r.policy.fit(obs, actions, returns)
}

// logSumExp computes log(Σ exp(logits)) along an axis in a numerically
// stable way
func logSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}
