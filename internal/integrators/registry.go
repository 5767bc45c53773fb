package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/cartpend/internal/dynamo"
)

var steppers = map[string]func() dynamo.Stepper{
	"dopri": func() dynamo.Stepper { return NewDormandPrince() },
	"rk4":   func() dynamo.Stepper { return NewRK4() },
	"euler": func() dynamo.Stepper { return NewEuler() },
}

// Get returns a fresh stepper by name.
func Get(name string) (dynamo.Stepper, error) {
	fn, ok := steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
