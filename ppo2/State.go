package ppo2

import "gonum.org/v1/gonum/mat"

// State is the recurrent state of a Model, one row per environment.
// A State is either present, holding a matrix, or absent. Memoryless
// models use the absent State.
type State struct {
	m *mat.Dense
}

// NoState returns the absent State
func NoState() State {
	return State{}
}

// NewState returns a State holding m. If m is nil, the absent State is
// returned.
func NewState(m *mat.Dense) State {
	return State{m}
}

// Value returns the matrix held by the State and whether the State is
// present
func (s State) Value() (*mat.Dense, bool) {
	return s.m, s.m != nil
}

// IsNone returns whether the State is absent
func (s State) IsNone() bool {
	return s.m == nil
}

// Rows returns a new State holding copies of the rows of the receiver
// for the environments envs, in order. The absent State stays absent,
// and if envs is empty the absent State is returned.
func (s State) Rows(envs []int) State {
	if s.m == nil || len(envs) == 0 {
		return NoState()
	}

	_, c := s.m.Dims()
	rows := mat.NewDense(len(envs), c, nil)
	for i, env := range envs {
		rows.SetRow(i, s.m.RawRowView(env))
	}
	return State{rows}
}

// Clone returns a deep copy of the State
func (s State) Clone() State {
	if s.m == nil {
		return s
	}
	return State{mat.DenseCopyOf(s.m)}
}
