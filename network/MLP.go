package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron with one output node per
// value to predict.
type mlp struct {
	g          *G.ExprGraph
	layers     []*fcLayer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// outputs output nodes, populating the graph g with its nodes.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1: a final
// linear layer with a bias unit and no activation is always added so
// that the network predicts outputs values. For index i, hiddenSizes[i]
// is the number of nodes in hidden layer i; biases[i] is true if hidden
// layer i contains a bias unit; and activations[i] is the activation
// function for hidden layer i. The parameter init determines the weight
// initialization scheme.
func NewMLP(features, batch, outputs int, g *G.ExprGraph, hiddenSizes []int,
	biases []bool, init G.InitWFn, activations []*Activation) (NeuralNet,
	error) {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newmlp: invalid number of activations\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newmlp: invalid number of biases\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	// Set up the input node
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Add the final linear layer predicting the output heads
	hiddenSizes = append(append([]int{}, hiddenSizes...), outputs)
	biases = append(append([]bool{}, biases...), true)
	activations = append(append([]*Activation{}, activations...), Identity())

	layers := addfcLayers(g, hiddenSizes, biases, activations, init, features)

	network := mlp{
		g:          g,
		layers:     layers,
		input:      input,
		numOutputs: outputs,
		numInputs:  features,
		batchSize:  batch,
	}
	if _, err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newmlp: could not compute forward pass: %v",
			err)
	}

	return &network, nil
}

// Graph returns the computational graph of the mlp
func (e *mlp) Graph() *G.ExprGraph {
	return e.g
}

// BatchSize returns the number of input rows the mlp consumes per
// forward pass
func (e *mlp) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single input vector
func (e *mlp) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs from the network
func (e *mlp) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass
func (e *mlp) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		msg := fmt.Sprintf("invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
		panic(msg)
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Learnables returns the learnable nodes in the mlp
func (e *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = e.computeLearnables()
	}
	return e.learnables
}

func (e *mlp) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))

	for i := range e.layers {
		learnables = append(learnables, e.layers[i].weights)
		if bias := e.layers[i].bias; bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients
func (e *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = e.computeModel()
	}
	return e.model
}

func (e *mlp) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(e.layers))
	for _, node := range e.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the mlp on the input node
func (e *mlp) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)

	return pred, nil
}

// Output returns the value of the mlp's output after the graph has
// been run
func (e *mlp) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the mlp
func (e *mlp) Prediction() *G.Node {
	return e.prediction
}
