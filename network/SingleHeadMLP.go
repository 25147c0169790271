package network

import G "gorgonia.org/gorgonia"

// NewSingleHeadMLPFromInput returns an MLP with a single output node.
// This function is a convenience function for calling
// NewMultiHeadMLPFromInput with an output size of 1.
//
// See NewMultiHeadMLPFromInput for more details.
func NewSingleHeadMLPFromInput(input *G.Node, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (NeuralNet, error) {
	return NewMultiHeadMLPFromInput(input, 1, g, hiddenSizes, biases, init,
		activations, prefix)
}
