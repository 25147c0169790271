package cartpole

import (
	"math"
	"testing"

	env "github.com/samuelfneumann/goppo/environment"
	ts "github.com/samuelfneumann/goppo/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func newStarter(x, xDot, th, thDot float64) env.Starter {
	return env.NewUniformStarter([]r1.Interval{
		{Min: x, Max: x},
		{Min: xDot, Max: xDot},
		{Min: th, Max: th},
		{Min: thDot, Max: thDot},
	}, 0)
}

func TestDiscreteIllegalAction(t *testing.T) {
	c, err := NewDiscrete(NewBalance(newStarter(0, 0, 0, 0), 10, FailAngle),
		1.0)
	if err != nil {
		t.Fatal(err)
	}

	for _, a := range []float64{-1, 3, 0.5} {
		if _, _, err := c.Step(mat.NewVecDense(1, []float64{a})); err == nil {
			t.Errorf("expected error for action %v", a)
		}
	}
}

func TestContinuousIllegalAction(t *testing.T) {
	c, err := NewContinuous(NewBalance(newStarter(0, 0, 0, 0), 10,
		FailAngle), 1.0)
	if err != nil {
		t.Fatal(err)
	}

	for _, a := range []float64{-1.5, 1.01} {
		if _, _, err := c.Step(mat.NewVecDense(1, []float64{a})); err == nil {
			t.Errorf("expected error for action %v", a)
		}
	}
	if _, _, err := c.Step(mat.NewVecDense(1, []float64{1})); err != nil {
		t.Errorf("unexpected error for legal action: %v", err)
	}
}

func TestDiscreteForceDirection(t *testing.T) {
	tests := []struct {
		action float64
		sign   float64
	}{
		{0, -1},
		{1, 0},
		{2, 1},
	}

	for _, test := range tests {
		c, err := NewDiscrete(NewBalance(newStarter(0, 0, 0, 0), 10,
			FailAngle), 1.0)
		if err != nil {
			t.Fatal(err)
		}

		// Position changes only on the second step under Euler
		// integration, speed on the first
		step, _, err := c.Step(mat.NewVecDense(1, []float64{test.action}))
		if err != nil {
			t.Fatal(err)
		}
		xDot := step.Observation.AtVec(1)
		if sign(xDot) != test.sign {
			t.Errorf("action %v: want speed sign %v have speed %v",
				test.action, test.sign, xDot)
		}
	}
}

func TestBalanceEnds(t *testing.T) {
	// A falling pole ends the episode in a terminal state
	c, err := NewDiscrete(NewBalance(newStarter(0, 0, FailAngle*0.99, 2),
		100, FailAngle), 1.0)
	if err != nil {
		t.Fatal(err)
	}
	step, done, err := c.Step(mat.NewVecDense(1, []float64{1}))
	if err != nil {
		t.Fatal(err)
	}
	if !done || step.EndType() != ts.TerminalStateReached {
		t.Errorf("want terminal end, have done %v and end type %v", done,
			step.EndType())
	}
	if step.Reward != -1 {
		t.Errorf("want reward -1 on failure, have %v", step.Reward)
	}

	// An upright pole ends the episode at the cutoff
	c, err = NewDiscrete(NewBalance(newStarter(0, 0, 0, 0), 3, FailAngle),
		1.0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		step, done, err = c.Step(mat.NewVecDense(1, []float64{1}))
		if err != nil {
			t.Fatal(err)
		}
		if step.Reward != 1 {
			t.Errorf("step %v: want reward 1, have %v", i, step.Reward)
		}
	}
	if !done || step.EndType() != ts.Timeout {
		t.Errorf("want timeout, have done %v and end type %v", done,
			step.EndType())
	}
}

func TestNormalizeAngle(t *testing.T) {
	bounds := r1.Interval{Min: -math.Pi, Max: math.Pi}
	tests := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{math.Pi + 0.5, -math.Pi + 0.5},
		{-math.Pi - 0.5, math.Pi - 0.5},
		{5 * math.Pi, math.Pi},
	}

	for _, test := range tests {
		have := normalizeAngle(test.in, bounds)
		if math.Abs(have-test.want) > 1e-9 {
			t.Errorf("normalizeAngle(%v): want %v have %v", test.in,
				test.want, have)
		}
	}
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
