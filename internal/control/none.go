package control

import "github.com/san-kum/cartpend/internal/physics"

type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Compute(physics.PlantState) (float64, error) {
	return 0, nil
}
