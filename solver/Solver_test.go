package solver

import (
	"encoding/json"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// param is a model parameter with a fixed gradient
type param struct {
	value, grad *tensor.Dense
}

func newParam(value, grad []float64) *param {
	return &param{
		value: tensor.New(tensor.WithShape(len(value)),
			tensor.WithBacking(append([]float64(nil), value...))),
		grad: tensor.New(tensor.WithShape(len(grad)),
			tensor.WithBacking(append([]float64(nil), grad...))),
	}
}

func (p *param) Value() G.Value         { return p.value }
func (p *param) Grad() (G.Value, error) { return p.grad, nil }
func (p *param) data() []float64        { return p.value.Data().([]float64) }
func (p *param) gradData() []float64    { return p.grad.Data().([]float64) }
func (p *param) setGrad(g []float64)    { copy(p.gradData(), g) }

func TestClipByGlobalNorm(t *testing.T) {
	grads := [][]float64{{3}, {4}}
	norm := ClipByGlobalNorm(grads, 1)
	if norm != 5 {
		t.Errorf("want norm 5 have %v", norm)
	}
	if !floats.EqualApprox(grads[0], []float64{0.6}, 1e-12) ||
		!floats.EqualApprox(grads[1], []float64{0.8}, 1e-12) {
		t.Errorf("unexpected clipped gradients %v", grads)
	}

	// Gradients within the norm are unchanged
	grads = [][]float64{{0.3}, {0.4}}
	ClipByGlobalNorm(grads, 1)
	if grads[0][0] != 0.3 || grads[1][0] != 0.4 {
		t.Errorf("gradients within norm changed: %v", grads)
	}
}

func TestAdamStep(t *testing.T) {
	const lr = 0.1

	s, err := NewDefaultAdam(lr, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Stepper.(*adam); !ok {
		t.Fatalf("want *adam stepper have %T", s.Stepper)
	}

	p := newParam([]float64{1, 2}, []float64{0.5, -0.25})
	model := []G.ValueGrad{p}

	// The first step moves each weight against its gradient
	if err := s.Step(model); err != nil {
		t.Fatal(err)
	}
	w := p.data()
	if !(w[0] < 1) || !(w[1] > 2) {
		t.Errorf("weights did not move against gradient: %v", w)
	}
	if !floats.Equal(p.gradData(), []float64{0, 0}) {
		t.Error("gradients not zeroed")
	}
	for _, x := range w {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("non-finite weights %v", w)
		}
	}

	// Changing the learning rate affects the next step only
	s.SetLearningRate(0)
	if s.LearningRate() != 0 {
		t.Errorf("want learning rate 0 have %v", s.LearningRate())
	}
	before := append([]float64(nil), p.data()...)
	p.setGrad([]float64{1, 1})
	if err := s.Step(model); err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(before, p.data()) {
		t.Errorf("step with zero learning rate changed weights")
	}
}

func TestAdamStepClipped(t *testing.T) {
	clipped, err := NewDefaultAdam(0.1, 1)
	if err != nil {
		t.Fatal(err)
	}
	unclipped, err := NewDefaultAdam(0.1, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Clipping by global norm must be the same as stepping with the
	// pre-scaled gradients
	p := newParam([]float64{0, 0}, []float64{3, 4})
	q := newParam([]float64{0, 0}, []float64{0.6, 0.8})
	for step := 0; step < 3; step++ {
		if err := clipped.Step([]G.ValueGrad{p}); err != nil {
			t.Fatal(err)
		}
		if err := unclipped.Step([]G.ValueGrad{q}); err != nil {
			t.Fatal(err)
		}
		if !floats.EqualApprox(p.data(), q.data(), 1e-12) {
			t.Errorf("step %v: want %v have %v", step, q.data(), p.data())
		}
		p.setGrad([]float64{3, 4})
		q.setGrad([]float64{0.6, 0.8})
	}
}

func TestVanillaStepClipped(t *testing.T) {
	s, err := NewVanilla(0.5, 1)
	if err != nil {
		t.Fatal(err)
	}

	p := newParam([]float64{0, 0}, []float64{3, 4})
	if err := s.Step([]G.ValueGrad{p}); err != nil {
		t.Fatal(err)
	}

	want := []float64{-0.3, -0.4}
	if !floats.EqualApprox(want, p.data(), 1e-12) {
		t.Errorf("want %v have %v", want, p.data())
	}
}

func TestSolverJSON(t *testing.T) {
	s, err := NewDefaultAdam(3e-4, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Solver
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != Adam || decoded.Config != s.Config {
		t.Errorf("want %v have %v", s.Config, decoded.Config)
	}
	if decoded.LearningRate() != 3e-4 {
		t.Errorf("want learning rate 3e-4 have %v", decoded.LearningRate())
	}

	if err := json.Unmarshal([]byte(`{"Type": "RMSProp", "Config": {}}`),
		&decoded); err == nil {
		t.Error("expected error for unknown solver type")
	}
	if _, err := NewAdam(0.1, 1e-5, 1, 0.9, 0); err == nil {
		t.Error("expected error for illegal beta")
	}
}
