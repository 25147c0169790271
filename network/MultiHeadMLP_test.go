package network

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

func newTestMLP(t *testing.T, batch int) NeuralNet {
	t.Helper()

	g := G.NewGraph()
	net, err := NewMultiHeadMLP(3, batch, 2, g, []int{4}, []bool{true},
		G.GlorotU(1.0), []*Activation{TanH()}, "test")
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func forward(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()

	if err := net.SetInput(input); err != nil {
		t.Fatal(err)
	}
	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	return append([]float64(nil), net.Output().Data().([]float64)...)
}

// manual computes the forward pass of a single hidden layer tanh
// network with gonum
func manual(t *testing.T, net NeuralNet, batch int,
	input []float64) []float64 {
	t.Helper()

	params, err := Params(net.Learnables())
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 4 {
		t.Fatalf("want 4 parameter tensors, have %v", len(params))
	}

	x := mat.NewDense(batch, 3, input)
	w1 := mat.NewDense(3, 4, params[0])
	w2 := mat.NewDense(4, 2, params[2])

	var h mat.Dense
	h.Mul(x, w1)
	h.Apply(func(_, j int, v float64) float64 {
		return math.Tanh(v + params[1][j])
	}, &h)

	var out mat.Dense
	out.Mul(&h, w2)
	out.Apply(func(_, j int, v float64) float64 {
		return v + params[3][j]
	}, &out)

	return out.RawMatrix().Data
}

func TestMultiHeadMLPForward(t *testing.T) {
	const batch = 2
	input := []float64{0.1, -0.2, 0.3, 1, 2, -3}

	net := newTestMLP(t, batch)
	if net.Outputs() != 2 || net.Features() != 3 || net.BatchSize() != batch {
		t.Fatalf("unexpected dimensions: outputs %v features %v batch %v",
			net.Outputs(), net.Features(), net.BatchSize())
	}

	have := forward(t, net, input)
	want := manual(t, net, batch, input)
	if !floats.EqualApprox(want, have, 1e-9) {
		t.Errorf("want %v have %v", want, have)
	}

	if err := net.SetInput([]float64{1}); err == nil {
		t.Error("expected error for illegal input size")
	}
}

func TestCloneWithInputToAndSet(t *testing.T) {
	net := newTestMLP(t, 1)

	// Clone with a larger batch
	g := G.NewGraph()
	input := G.NewMatrix(g, G.Float64, G.WithShape(2, 3),
		G.WithName("obs"), G.WithInit(G.Zeroes()))
	clone, err := net.CloneWithInputTo(input, g)
	if err != nil {
		t.Fatal(err)
	}

	x := []float64{0.5, 0.5, -1}
	first := forward(t, net, x)
	cloned := forward(t, clone, append(append([]float64{}, x...), x...))
	if !floats.EqualApprox(first, cloned[:2], 1e-12) ||
		!floats.EqualApprox(first, cloned[2:], 1e-12) {
		t.Fatalf("clone output %v differs from original %v", cloned, first)
	}

	// Changing the clone must not change the original until Set
	for _, node := range clone.Learnables() {
		data := node.Value().Data().([]float64)
		for i := range data {
			data[i] += 0.1
		}
	}
	if again := forward(t, net, x); !floats.Equal(first, again) {
		t.Fatal("original changed with clone")
	}

	if err := net.Set(clone); err != nil {
		t.Fatal(err)
	}
	cloned = forward(t, clone, append(append([]float64{}, x...), x...))
	if set := forward(t, net, x); !floats.EqualApprox(set, cloned[:2],
		1e-12) {
		t.Errorf("after set: want %v have %v", cloned[:2], set)
	}
}

func TestSaveLoadParams(t *testing.T) {
	net := newTestMLP(t, 1)
	other := newTestMLP(t, 1)

	path := filepath.Join(t.TempDir(), "nested", "params")
	if err := SaveParams(path, net.Learnables()); err != nil {
		t.Fatal(err)
	}
	if err := LoadParams(path, other.Learnables()); err != nil {
		t.Fatal(err)
	}

	want, _ := Params(net.Learnables())
	have, _ := Params(other.Learnables())
	for i := range want {
		if !floats.Equal(want[i], have[i]) {
			t.Errorf("parameter %v: want %v have %v", i, want[i], have[i])
		}
	}

	// Parameters of a different architecture are rejected
	g := G.NewGraph()
	wide, err := NewMultiHeadMLP(3, 1, 2, g, []int{5}, []bool{true},
		G.GlorotU(1.0), []*Activation{TanH()}, "wide")
	if err != nil {
		t.Fatal(err)
	}
	if err := LoadParams(path, wide.Learnables()); err == nil {
		t.Error("expected error loading mismatched parameters")
	}
}

func TestActivationJSON(t *testing.T) {
	acts := []*Activation{ReLU(), TanH(), Identity(), Sigmoid()}
	data, err := json.Marshal(acts)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["relu","tanh","identity","sigmoid"]` {
		t.Errorf("unexpected encoding %s", data)
	}

	var decoded []*Activation
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for i := range acts {
		if decoded[i].String() != acts[i].String() {
			t.Errorf("want %v have %v", acts[i], decoded[i])
		}
	}

	var bad Activation
	if err := json.Unmarshal([]byte(`"softmax"`), &bad); err == nil {
		t.Error("expected error for unknown activation")
	}
}
