package integrators

import (
	"fmt"
	"sort"
)

var steppers = map[string]func() Stepper{
	"rk4":    func() Stepper { return NewRK4() },
	"rk45":   func() Stepper { return NewRK45() },
	"euler":  func() Stepper { return NewEuler() },
	"verlet": func() Stepper { return NewVerlet() },
}

// New returns the stepper registered under name.
func New(name string) (Stepper, error) {
	fn, ok := steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// Names lists registered steppers in sorted order.
func Names() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
