package models

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbdyn/internal/config"
)

// Reference is a mechanism with hand-derived equations of motion.
type Reference interface {
	Name() string
	Dim() int
	MassMatrix(q []float64) *mat.Dense
	Bias(q, v []float64) []float64
	GravityTorque(q []float64) []float64
	KineticEnergy(q, v []float64) float64
	PotentialEnergy(q []float64) float64
	Config(q, v []float64) *config.Config
}

var registry = map[string]func() Reference{
	"pendulum":        func() Reference { return NewPendulum() },
	"double_pendulum": func() Reference { return NewDoublePendulum() },
}

func Get(name string) (Reference, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown reference model: %s", name)
	}
	return build(), nil
}

func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
