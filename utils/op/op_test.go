package op

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func matrix(g *G.ExprGraph, name string, rows, cols int,
	data []float64) *G.Node {
	backing := tensor.New(tensor.WithShape(rows, cols),
		tensor.WithBacking(data))
	return G.NewMatrix(g, G.Float64, G.WithShape(rows, cols),
		G.WithName(name), G.WithValue(backing))
}

func scalar(g *G.ExprGraph, name string, v float64) *G.Node {
	return G.NewScalar(g, G.Float64, G.WithName(name), G.WithValue(v))
}

// run runs the graph and returns the data of out
func run(t *testing.T, g *G.ExprGraph, out *G.Node) []float64 {
	t.Helper()

	var val G.Value
	G.Read(out, &val)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	switch data := val.Data().(type) {
	case []float64:
		return data
	case float64:
		return []float64{data}
	}
	t.Fatalf("unexpected data type %T", val.Data())
	return nil
}

func TestClip(t *testing.T) {
	g := G.NewGraph()
	x := matrix(g, "x", 2, 3, []float64{-2, -1, 0, 0.5, 1, 3})
	min := scalar(g, "min", -1)
	max := scalar(g, "max", 1)

	clipped, err := Clip(x, min, max)
	if err != nil {
		t.Fatal(err)
	}

	// Values equal to the bounds must be kept
	want := []float64{-1, -1, 0, 0.5, 1, 1}
	if have := run(t, g, clipped); !floats.Equal(want, have) {
		t.Errorf("want %v have %v", want, have)
	}
}

func TestClipUnbounded(t *testing.T) {
	g := G.NewGraph()
	x := matrix(g, "x", 1, 4, []float64{-1e10, -1, 0, 1e10})
	min := scalar(g, "min", -math.MaxFloat64)
	max := scalar(g, "max", math.MaxFloat64)

	clipped, err := Clip(x, min, max)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{-1e10, -1, 0, 1e10}
	if have := run(t, g, clipped); !floats.Equal(want, have) {
		t.Errorf("want %v have %v", want, have)
	}
}

func TestMinMax(t *testing.T) {
	g := G.NewGraph()
	a := matrix(g, "a", 1, 4, []float64{1, 5, -2, 3})
	b := matrix(g, "b", 1, 4, []float64{2, 4, -2, 0})

	max, err := Max(a, b)
	if err != nil {
		t.Fatal(err)
	}
	min, err := Min(a, b)
	if err != nil {
		t.Fatal(err)
	}

	var maxVal, minVal G.Value
	G.Read(max, &maxVal)
	G.Read(min, &minVal)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	wantMax := []float64{2, 5, -2, 3}
	if have := maxVal.Data().([]float64); !floats.Equal(wantMax, have) {
		t.Errorf("max: want %v have %v", wantMax, have)
	}
	wantMin := []float64{1, 4, -2, 0}
	if have := minVal.Data().([]float64); !floats.Equal(wantMin, have) {
		t.Errorf("min: want %v have %v", wantMin, have)
	}
}

func TestLogSumExp(t *testing.T) {
	data := []float64{1, 2, 3, 1000, 1000, 1000}

	g := G.NewGraph()
	x := matrix(g, "x", 2, 3, data)
	have := run(t, g, LogSumExp(x, 1))

	want := []float64{
		math.Log(math.Exp(1) + math.Exp(2) + math.Exp(3)),
		1000 + math.Log(3),
	}
	if !floats.EqualApprox(want, have, 1e-9) {
		t.Errorf("want %v have %v", want, have)
	}
}

func TestGaussianLogPdf(t *testing.T) {
	mean := []float64{0, 1, -1, 2}
	logStd := []float64{0, math.Log(0.5), math.Log(2), 0}
	actions := []float64{0.3, 0.2, 1, 2}

	g := G.NewGraph()
	meanNode := matrix(g, "mean", 2, 2, mean)
	logStdNode := matrix(g, "logStd", 2, 2, logStd)
	actionNode := matrix(g, "actions", 2, 2, actions)
	have := run(t, g, GaussianLogPdf(meanNode, logStdNode, actionNode))

	want := make([]float64, 2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			k := i*2 + j
			n := distuv.Normal{Mu: mean[k], Sigma: math.Exp(logStd[k])}
			want[i] += n.LogProb(actions[k])
		}
	}

	if !floats.EqualApprox(want, have, 1e-9) {
		t.Errorf("want %v have %v", want, have)
	}
}
