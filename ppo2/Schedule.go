package ppo2

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSchedule is returned when a schedule is misconfigured
var ErrSchedule = errors.New("invalid schedule")

// ScheduleType determines how a Schedule computes its value
type ScheduleType string

const (
	// ConstantSchedule always returns its value
	ConstantSchedule ScheduleType = "Constant"

	// LinearSchedule returns its value scaled by the fraction of
	// training remaining, decaying linearly to 0
	LinearSchedule ScheduleType = "Linear"

	// FuncSchedule returns the value of an arbitrary function of the
	// fraction of training remaining. FuncSchedules cannot be
	// serialized.
	FuncSchedule ScheduleType = "Func"
)

// Schedule computes a hyperparameter as a function of the fraction of
// training remaining, which is 1 on the first update and decreases
// towards 0 on later updates.
type Schedule struct {
	Type  ScheduleType
	Value float64
	fn    func(float64) float64
}

// Constant returns a Schedule which always returns v
func Constant(v float64) Schedule {
	return Schedule{Type: ConstantSchedule, Value: v}
}

// Linear returns a Schedule which returns v scaled by the fraction of
// training remaining
func Linear(v float64) Schedule {
	return Schedule{Type: LinearSchedule, Value: v}
}

// Func returns a Schedule which returns f(frac) for the fraction of
// training remaining frac
func Func(f func(frac float64) float64) Schedule {
	return Schedule{Type: FuncSchedule, fn: f}
}

// NewSchedule returns a Schedule from v, which may be a float64, an
// int, a func(float64) float64, or a Schedule. Any other type results
// in an error wrapping ErrSchedule.
func NewSchedule(v interface{}) (Schedule, error) {
	var s Schedule
	switch v := v.(type) {
	case float64:
		s = Constant(v)
	case int:
		s = Constant(float64(v))
	case func(float64) float64:
		s = Func(v)
	case Schedule:
		s = v
	default:
		return Schedule{}, fmt.Errorf("newSchedule: cannot use %T as a "+
			"schedule: %w", v, ErrSchedule)
	}

	if err := s.Validate(); err != nil {
		return Schedule{}, fmt.Errorf("newSchedule: %w", err)
	}
	return s, nil
}

// Validate returns an error wrapping ErrSchedule if the Schedule
// cannot be evaluated
func (s Schedule) Validate() error {
	switch s.Type {
	case ConstantSchedule, LinearSchedule:
		return nil
	case FuncSchedule:
		if s.fn == nil {
			return fmt.Errorf("validate: nil function: %w", ErrSchedule)
		}
		return nil
	default:
		return fmt.Errorf("validate: unknown schedule type %q: %w", s.Type,
			ErrSchedule)
	}
}

// At returns the value of the Schedule when frac of training remains
func (s Schedule) At(frac float64) float64 {
	switch s.Type {
	case LinearSchedule:
		return s.Value * frac
	case FuncSchedule:
		return s.fn(frac)
	default:
		return s.Value
	}
}

// String implements the fmt.Stringer interface
func (s Schedule) String() string {
	if s.Type == FuncSchedule {
		return "Func"
	}
	return fmt.Sprintf("%v(%v)", s.Type, s.Value)
}

// MarshalJSON implements the json.Marshaler interface. Constant
// Schedules are encoded as a bare number.
func (s Schedule) MarshalJSON() ([]byte, error) {
	switch s.Type {
	case ConstantSchedule:
		return json.Marshal(s.Value)
	case LinearSchedule:
		return json.Marshal(struct {
			Type  ScheduleType
			Value float64
		}{s.Type, s.Value})
	default:
		return nil, fmt.Errorf("marshalJSON: cannot marshal schedule of "+
			"type %q: %w", s.Type, ErrSchedule)
	}
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Schedule) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*s = Constant(v)
		return nil
	}

	var obj struct {
		Type  ScheduleType
		Value float64
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshalJSON: %v: %w", err, ErrSchedule)
	}

	switch obj.Type {
	case ConstantSchedule:
		*s = Constant(obj.Value)
	case LinearSchedule:
		*s = Linear(obj.Value)
	default:
		return fmt.Errorf("unmarshalJSON: unknown schedule type %q: %w",
			obj.Type, ErrSchedule)
	}
	return nil
}

// FractionRemaining returns the fraction of training remaining at the
// start of update, counting from 1, out of nupdates updates
func FractionRemaining(update, nupdates int) float64 {
	return 1.0 - float64(update-1)/float64(nupdates)
}
