package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.weights != nil {
		x = G.Must(G.Mul(x, f.weights))
	}
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.bias, nil, []byte{0}))
	}
	if f.act == nil || f.act.IsIdentity() {
		return x, nil
	}
	return f.act.fwd(x)
}

// addfcLayers creates the fully connected layers of an MLP on graph g.
// For index i, hiddenSizes[i] is the number of units in layer i,
// biases[i] denotes whether layer i has a bias unit, and activations[i]
// is the activation function of layer i.
func addfcLayers(g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int) []*fcLayer {
	layers := make([]*fcLayer, 0, len(hiddenSizes))

	in := features
	for i, out := range hiddenSizes {
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(in, out),
			G.WithName(fmt.Sprintf("L%dW", i)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewVector(
				g,
				tensor.Float64,
				G.WithShape(out),
				G.WithName(fmt.Sprintf("L%dB", i)),
				G.WithInit(G.Zeroes()),
			)
		}

		layers = append(layers, &fcLayer{weights, bias, activations[i]})
		in = out
	}

	return layers
}
