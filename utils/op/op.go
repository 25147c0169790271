// Package op provides extended Gorgonia graph operations.
//
// Adapted from aunum/gold on GitHub
package op

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// Clip clips the value of a node elementwise to [min, max]. The bounds
// are nodes so that they may be bound to new values between runs of a
// graph.
//
// Bounds are selected by multiplying with 0/1 masks, so both must be
// finite: an infinite bound results in NaN. Use ±math.MaxFloat64 for
// an unbounded side.
func Clip(value, min, max *G.Node) (retVal *G.Node, err error) {
	// Check if its the min value
	minMask, err := G.Lt(value, min, true)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}
	minVal, err := G.HadamardProd(min, minMask)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}

	// Check if its the given value
	isMaskGte, err := G.Gte(value, min, true)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}
	isMaskLte, err := G.Lte(value, max, true)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}
	isMask, err := G.HadamardProd(isMaskGte, isMaskLte)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}
	isVal, err := G.HadamardProd(value, isMask)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}

	// Check if its the max value
	maxMask, err := G.Gt(value, max, true)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}
	maxVal, err := G.HadamardProd(max, maxMask)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}

	sum, err := G.Add(minVal, isVal)
	if err != nil {
		return nil, fmt.Errorf("clip: %v", err)
	}
	return G.Add(sum, maxVal)
}

// Min returns the min value between the nodes. If values are equal
// the first value is returned
func Min(a *G.Node, b *G.Node) (retVal *G.Node, err error) {
	aMask, err := G.Lte(a, b, true)
	if err != nil {
		return nil, err
	}
	aVal, err := G.HadamardProd(a, aMask)
	if err != nil {
		return nil, err
	}

	bMask, err := G.Lt(b, a, true)
	if err != nil {
		return nil, err
	}
	bVal, err := G.HadamardProd(b, bMask)
	if err != nil {
		return nil, err
	}
	return G.Add(aVal, bVal)
}

// Max value between the nodes. If values are equal the first value is returned.
func Max(a *G.Node, b *G.Node) (retVal *G.Node, err error) {
	aMask, err := G.Gte(a, b, true)
	if err != nil {
		return nil, err
	}
	aVal, err := G.HadamardProd(a, aMask)
	if err != nil {
		return nil, err
	}

	bMask, err := G.Gt(b, a, true)
	if err != nil {
		return nil, err
	}
	bVal, err := G.HadamardProd(b, bMask)
	if err != nil {
		return nil, err
	}
	return G.Add(aVal, bVal)
}

// LogSumExp calculates the log of the summation of exponentials of
// all logits along the given axis.
//
// Use this in place of Gorgonia's LogSumExp, which has the final sum
// and log interchanged, which is incorrect.
func LogSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}

// GaussianLogPdf calculates the log of the probability density function
// of actions drawn from a diagonal Gaussian distribution with mean mean
// and log standard deviation logStd.
//
// All arguments should be two-dimensional and of the same size m x n.
// The rows (m) denote the samples in the batch. For the mean and
// logStd, the columns (n) denote the main diagonal of the mean or log
// standard deviation respectively. For the actions, the columns denote
// each dimension of the actions. The returned node is a vector of m
// log densities.
func GaussianLogPdf(mean, logStd, actions *G.Node) *G.Node {
	graph := mean.Graph()
	if graph != logStd.Graph() || graph != actions.Graph() {
		panic("gaussianLogPdf: all nodes must share the same graph")
	}

	dims := float64(mean.Shape()[1])
	normalizer := G.NewConstant(0.5 * dims * math.Log(2*math.Pi))
	negativeHalf := G.NewConstant(-0.5)

	// (-1/2) Σ ((a - μ) / σ)²
	std := G.Must(G.Exp(logStd))
	z := G.Must(G.Sub(actions, mean))
	z = G.Must(G.HadamardDiv(z, std))
	exponent := G.Must(G.Square(z))
	exponent = G.Must(G.Sum(exponent, 1))
	exponent = G.Must(G.HadamardProd(exponent, negativeHalf))

	logDet := G.Must(G.Sum(logStd, 1))

	logProb := G.Must(G.Sub(exponent, logDet))
	return G.Must(G.Sub(logProb, normalizer))
}
