package ppo2

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFractionRemaining(t *testing.T) {
	const nupdates = 8
	if frac := FractionRemaining(1, nupdates); frac != 1 {
		t.Errorf("first update: want 1 have %v", frac)
	}
	if frac := FractionRemaining(nupdates, nupdates); frac != 1.0/nupdates {
		t.Errorf("last update: want %v have %v", 1.0/nupdates, frac)
	}
}

func TestNewSchedule(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		frac float64
		want float64
	}{
		{"float", 0.2, 0.5, 0.2},
		{"int", 3, 0.5, 3},
		{"func", func(f float64) float64 { return f * f }, 0.5, 0.25},
		{"schedule", Linear(2), 0.25, 0.5},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := NewSchedule(test.in)
			if err != nil {
				t.Fatal(err)
			}
			if have := s.At(test.frac); have != test.want {
				t.Errorf("want %v have %v", test.want, have)
			}
		})
	}

	for _, bad := range []interface{}{"0.1", nil, Schedule{},
		Func(nil)} {
		if _, err := NewSchedule(bad); !errors.Is(err, ErrSchedule) {
			t.Errorf("%#v: want ErrSchedule have %v", bad, err)
		}
	}
}

func TestScheduleJSON(t *testing.T) {
	data, err := json.Marshal([]Schedule{Constant(0.1), Linear(2.5e-4)})
	if err != nil {
		t.Fatal(err)
	}
	want := `[0.1,{"Type":"Linear","Value":0.00025}]`
	if string(data) != want {
		t.Errorf("want %s have %s", want, data)
	}

	var decoded []Schedule
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded[0].At(0.5) != 0.1 || decoded[1].At(0.5) != 1.25e-4 {
		t.Errorf("unexpected decoded schedules %v", decoded)
	}

	if _, err := json.Marshal(Func(func(float64) float64 {
		return 0
	})); err == nil {
		t.Error("expected error marshalling function schedule")
	}

	var s Schedule
	if err := json.Unmarshal([]byte(`{"Type":"Cosine"}`),
		&s); !errors.Is(err, ErrSchedule) {
		t.Errorf("want ErrSchedule have %v", err)
	}
}
