// Package network implements fully connected neural networks on
// Gorgonia computational graphs
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a feedforward network on a Gorgonia graph. A NeuralNet
// only declares graph nodes; callers run the graph with their own
// virtual machine.
type NeuralNet interface {
	Graph() *G.ExprGraph
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}
