package envconfig

import (
	"encoding/json"
	"testing"

	env "github.com/samuelfneumann/goppo/environment"
	"gonum.org/v1/gonum/mat"
)

func TestCreateVec(t *testing.T) {
	tests := []struct {
		conf        Config
		obsDims     int
		cardinality env.Cardinality
	}{
		{NewConfig(Cartpole, Balance, false, 10, 0.99), 4, env.Discrete},
		{NewConfig(Cartpole, Balance, true, 10, 0.99), 4, env.Continuous},
		{NewConfig(Pendulum, SwingUp, false, 10, 0.99), 2, env.Discrete},
		{NewConfig(Pendulum, SwingUp, true, 10, 0.99), 2, env.Continuous},
	}

	for _, test := range tests {
		vec, err := test.conf.CreateVec(3, 1, false)
		if err != nil {
			t.Fatalf("%v: %v", test.conf.Environment, err)
		}

		if vec.NumEnvs() != 3 {
			t.Errorf("%v: want 3 environments have %v",
				test.conf.Environment, vec.NumEnvs())
		}
		if dims := vec.ObservationSpec().Dims(); dims != test.obsDims {
			t.Errorf("%v: want %v observation dimensions have %v",
				test.conf.Environment, test.obsDims, dims)
		}
		if c := vec.ActionSpec().Cardinality; c != test.cardinality {
			t.Errorf("%v: want %v actions have %v", test.conf.Environment,
				test.cardinality, c)
		}

		obs, err := vec.Reset()
		if err != nil {
			t.Fatal(err)
		}
		if r, c := obs.Dims(); r != 3 || c != test.obsDims {
			t.Errorf("%v: unexpected observation shape (%v, %v)",
				test.conf.Environment, r, c)
		}

		// Every episode ends within the cutoff, and ended episodes are
		// reported by the monitor
		episodes := 0
		for i := 0; i < 10; i++ {
			_, _, dones, infos, err := vec.Step(mat.NewDense(3, 1, nil))
			if err != nil {
				t.Fatalf("%v: %v", test.conf.Environment, err)
			}
			for j := range dones {
				if dones[j] != (infos[j].Episode != nil) {
					t.Errorf("%v: done %v but episode info %v",
						test.conf.Environment, dones[j], infos[j].Episode)
				}
				if dones[j] {
					episodes++
				}
			}
		}
		if episodes < 3 {
			t.Errorf("%v: want at least 3 episodes have %v",
				test.conf.Environment, episodes)
		}

		if err := vec.Close(); err != nil {
			t.Error(err)
		}
	}
}

func TestValidate(t *testing.T) {
	bad := []Config{
		NewConfig(Cartpole, SwingUp, false, 10, 0.99),
		NewConfig(Pendulum, Balance, false, 10, 0.99),
		NewConfig("Acrobot", Balance, false, 10, 0.99),
		NewConfig(Cartpole, Balance, false, 0, 0.99),
		NewConfig(Cartpole, Balance, false, 10, 1.5),
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}

	if _, err := NewConfig(Cartpole, Balance, false, 10,
		0.99).CreateVec(0, 1, false); err == nil {
		t.Error("expected error for no environments")
	}
}

func TestConfigJSON(t *testing.T) {
	data := []byte(`{"Environment": "Pendulum", "Task": "SwingUp", ` +
		`"ContinuousActions": true, "EpisodeCutoff": 200, "Discount": 0.9}`)

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatal(err)
	}
	if c != NewConfig(Pendulum, SwingUp, true, 200, 0.9) {
		t.Errorf("unexpected config %+v", c)
	}
}
