// Package linalg solves the small dense linear systems that appear in the
// equations of motion.
package linalg

import (
	"fmt"

	"github.com/san-kum/cartpend/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Solve returns x such that m·x = b. m is given row-major and must be square
// with len(b) rows. A singular or numerically ill-conditioned matrix yields an
// error wrapping dynamo.ErrSingularSystem. Neither argument is modified.
func Solve(m [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	if n == 0 {
		return nil, fmt.Errorf("linalg: empty system: %w", dynamo.ErrDimensionMismatch)
	}
	if len(m) != n {
		return nil, fmt.Errorf("linalg: %d rows for %d unknowns: %w", len(m), n, dynamo.ErrDimensionMismatch)
	}

	a := mat.NewDense(n, n, nil)
	for i, row := range m {
		if len(row) != n {
			return nil, fmt.Errorf("linalg: row %d has %d columns, want %d: %w", i, len(row), n, dynamo.ErrDimensionMismatch)
		}
		a.SetRow(i, row)
	}

	rhs := mat.NewVecDense(n, append([]float64(nil), b...))

	var x mat.VecDense
	if err := x.SolveVec(a, rhs); err != nil {
		return nil, fmt.Errorf("linalg: %v: %w", err, dynamo.ErrSingularSystem)
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}
