package environment

import (
	"fmt"
	"testing"

	ts "github.com/samuelfneumann/goppo/timestep"
	"gonum.org/v1/gonum/mat"
)

// counter is an environment whose observation is the number of steps
// taken in the current episode and which ends every length steps
type counter struct {
	length  int
	offset  float64
	current ts.TimeStep
	fail    bool
}

func newCounter(length int, offset float64) *counter {
	c := &counter{length: length, offset: offset}
	c.Reset()
	return c
}

func (c *counter) Start() *mat.VecDense {
	return mat.NewVecDense(1, []float64{c.offset})
}

func (c *counter) End(t *ts.TimeStep) bool {
	if t.Number >= c.length {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
		return true
	}
	return false
}

func (c *counter) GetReward(_, action, _ mat.Vector) float64 {
	return action.AtVec(0)
}

func (c *counter) RewardSpec() Spec {
	return c.spec(Reward)
}

func (c *counter) Reset() (ts.TimeStep, error) {
	c.current = ts.New(ts.First, 0, 1, c.Start(), 0)
	return c.current, nil
}

func (c *counter) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if c.fail {
		return ts.TimeStep{}, false, fmt.Errorf("step: failure")
	}
	n := c.current.Number + 1
	obs := mat.NewVecDense(1, []float64{c.offset + float64(n)})
	step := ts.New(ts.Mid, c.GetReward(nil, a, nil), 1, obs, n)
	c.End(&step)
	c.current = step
	return step, step.Last(), nil
}

func (c *counter) CurrentTimeStep() ts.TimeStep { return c.current }
func (c *counter) DiscountSpec() Spec           { return c.spec(Discount) }
func (c *counter) ObservationSpec() Spec        { return c.spec(Observation) }
func (c *counter) ActionSpec() Spec             { return c.spec(Action) }

func (c *counter) spec(t SpecType) Spec {
	v := mat.NewVecDense(1, nil)
	return NewSpec(v, t, v, v, Continuous)
}

func TestSyncVecStep(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		envs := []Environment{newCounter(2, 0), newCounter(3, 10)}
		vec, err := NewSyncVec(envs, parallel)
		if err != nil {
			t.Fatal(err)
		}

		obs, err := vec.Reset()
		if err != nil {
			t.Fatal(err)
		}
		if obs.At(0, 0) != 0 || obs.At(1, 0) != 10 {
			t.Errorf("reset: unexpected observations %v", mat.Formatted(obs))
		}

		actions := mat.NewDense(2, 1, []float64{1, 2})
		wantObs := [][]float64{{1, 11}, {0, 12}, {1, 10}}
		wantDones := [][]bool{{false, false}, {true, false},
			{false, true}}

		for i := range wantObs {
			obs, rewards, dones, infos, err := vec.Step(actions)
			if err != nil {
				t.Fatal(err)
			}

			for j := range envs {
				if obs.At(j, 0) != wantObs[i][j] {
					t.Errorf("step %v env %v: want obs %v have %v", i, j,
						wantObs[i][j], obs.At(j, 0))
				}
				if dones[j] != wantDones[i][j] {
					t.Errorf("step %v env %v: want done %v have %v", i, j,
						wantDones[i][j], dones[j])
				}
				if rewards[j] != actions.At(j, 0) {
					t.Errorf("step %v env %v: want reward %v have %v", i, j,
						actions.At(j, 0), rewards[j])
				}

				// counter does not report episodes
				if infos[j].Episode != nil {
					t.Errorf("step %v env %v: unexpected episode info", i, j)
				}
			}
		}
	}
}

func TestSyncVecErrors(t *testing.T) {
	if _, err := NewSyncVec(nil, false); err == nil {
		t.Error("expected error for empty environment list")
	}

	failing := newCounter(5, 0)
	vec, err := NewSyncVec([]Environment{newCounter(5, 0), failing}, true)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, _, _, err := vec.Step(mat.NewDense(1, 1, nil)); err == nil {
		t.Error("expected error for illegal action shape")
	}

	failing.fail = true
	if _, _, _, _, err := vec.Step(mat.NewDense(2, 1, nil)); err == nil {
		t.Error("expected error from failing environment")
	}

	if err := vec.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := vec.Reset(); err == nil {
		t.Error("expected error resetting closed environment")
	}
}
