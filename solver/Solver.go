// Package solver implements gradient descent solvers for Gorgonia
// models which can be JSON serialized into configuraiton files. All
// solvers implement the Gorgonia Solver interface, have a learning
// rate which may change between steps, and can clip gradients by
// their global norm.
package solver

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
)

// registered maps each solver Type to its concrete Config type
var registered = map[string]reflect.Type{
	string(Vanilla): reflect.TypeOf(VanillaConfig{}),
	string(Adam):    reflect.TypeOf(AdamConfig{}),
}

// Stepper is a Gorgonia Solver whose learning rate and gradient
// clipping can be adjusted between steps
type Stepper interface {
	G.Solver
	SetLearningRate(float64)
	LearningRate() float64

	// SetClipNorm sets the maximum global norm of the gradients. If
	// norm <= 0, gradients are not clipped.
	SetClipNorm(norm float64)
}

// Solver wraps Steppers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	Stepper `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newSolver: %v", err)
	}

	solver := Solver{Type: t, Config: c}
	solver.Stepper = solver.Config.Create()

	return &solver, nil
}

// Clone returns a new Solver with the same configuration as s but none
// of its state
func (s *Solver) Clone() (*Solver, error) {
	return newSolver(s.Type, s.Config)
}

// MarshalJSON implements the json.Marshaler interface
func (s *Solver) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   Type
		Config Config
	}{s.Type, s.Config})
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config",
		registered)
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	solver, err := newSolver(typeName, config)
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}
	*s = *solver

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: missing field %v",
			typeJsonField)
	}

	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: unknown type %v",
			typeName)
	}
	value := reflect.New(ty).Interface()

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, value); err != nil {
		return nil, "", err
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(typeName), nil
}

// Config implements a solver configuration and can be used to create
// the solvers they describe.
type Config interface {
	Create() Stepper

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// Validate returns an error if the Config's hyperparameters are
	// illegal
	Validate() error
}

// clip scales the gradients of a model in place so that their global
// norm is at most maxNorm. If maxNorm <= 0, gradients are left as is.
func clip(model []G.ValueGrad, maxNorm float64) error {
	if maxNorm <= 0 {
		return nil
	}

	grads := make([][]float64, len(model))
	for i, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			return fmt.Errorf("clip: could not get gradient %v: %v", i, err)
		}

		var ok bool
		grads[i], ok = grad.Data().([]float64)
		if !ok {
			return fmt.Errorf("clip: gradient %v is not float64", i)
		}
	}

	ClipByGlobalNorm(grads, maxNorm)
	return nil
}

// GlobalNorm returns the L2 norm of all gradients concatenated
func GlobalNorm(grads [][]float64) float64 {
	var sumSquares float64
	for _, g := range grads {
		sumSquares += floats.Dot(g, g)
	}
	return math.Sqrt(sumSquares)
}

// ClipByGlobalNorm scales all gradients in place by
// maxNorm / max(norm, maxNorm), where norm is the global norm of the
// gradients. The global norm before clipping is returned.
func ClipByGlobalNorm(grads [][]float64, maxNorm float64) float64 {
	norm := GlobalNorm(grads)
	if norm > maxNorm {
		scale := maxNorm / norm
		for _, g := range grads {
			floats.Scale(scale, g)
		}
	}
	return norm
}
