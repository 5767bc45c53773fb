package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

const (
	DefaultTolerance = 1e-10
	DefaultMaxSteps  = 100000
)

// DormandPrince is an adaptive embedded Runge-Kutta 5(4) stepper. Each
// Advance call sub-steps internally until the local error estimate meets
// the tolerance and returns the state at exactly t0+dt.
type DormandPrince struct {
	AbsTol   float64
	RelTol   float64
	MaxSteps int

	safety   float64
	minScale float64
	maxScale float64
}

func NewDormandPrince() *DormandPrince {
	return &DormandPrince{
		AbsTol:   DefaultTolerance,
		RelTol:   DefaultTolerance,
		MaxSteps: DefaultMaxSteps,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *DormandPrince) Advance(f dynamo.DerivFunc, t0, dt float64, x0 dynamo.State) (dynamo.State, error) {
	if dt == 0 {
		return x0.Clone(), nil
	}
	if !(dt > 0) || math.IsInf(dt, 1) {
		return nil, fmt.Errorf("dormand-prince: dt %g must be positive and finite: %w", dt, dynamo.ErrIntegration)
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("dormand-prince: initial state %v: %w", x0, dynamo.ErrIntegration)
	}

	n := len(x0)
	tEnd := t0 + dt
	t := t0
	x := x0.Clone()
	h := dt

	k1, err := eval(f, t, x)
	if err != nil {
		return nil, err
	}

	tmp := make(dynamo.State, n)
	xNew := make(dynamo.State, n)

	for steps := 0; steps < r.MaxSteps; steps++ {
		last := false
		if remaining := tEnd - t; h >= remaining {
			h = remaining
			last = true
		}

		for i := 0; i < n; i++ {
			tmp[i] = x[i] + h*b21*k1[i]
		}
		k2, err := eval(f, t+a2*h, tmp)
		if err != nil {
			return nil, err
		}

		for i := 0; i < n; i++ {
			tmp[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
		}
		k3, err := eval(f, t+a3*h, tmp)
		if err != nil {
			return nil, err
		}

		for i := 0; i < n; i++ {
			tmp[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
		}
		k4, err := eval(f, t+a4*h, tmp)
		if err != nil {
			return nil, err
		}

		for i := 0; i < n; i++ {
			tmp[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
		}
		k5, err := eval(f, t+a5*h, tmp)
		if err != nil {
			return nil, err
		}

		for i := 0; i < n; i++ {
			tmp[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
		}
		k6, err := eval(f, t+h, tmp)
		if err != nil {
			return nil, err
		}

		for i := 0; i < n; i++ {
			xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
		}
		k7, err := eval(f, t+h, xNew)
		if err != nil {
			return nil, err
		}

		errNorm := 0.0
		for i := 0; i < n; i++ {
			errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
			scale := r.AbsTol + r.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
			errNorm += (errEst / scale) * (errEst / scale)
		}
		errNorm = math.Sqrt(errNorm / float64(n))

		if errNorm <= 1 {
			if last {
				return xNew, nil
			}
			t += h
			x, xNew = xNew, x
			k1 = k7
		}

		h *= r.scale(errNorm)
		if h <= 16*epsilon*math.Max(math.Abs(t), math.Abs(tEnd)) {
			return nil, fmt.Errorf("dormand-prince: step size %g underflow at t=%g: %w", h, t, dynamo.ErrIntegration)
		}
	}

	return nil, fmt.Errorf("dormand-prince: no convergence within %d sub-steps (t=%g of %g): %w", r.MaxSteps, t, tEnd, dynamo.ErrIntegration)
}

// scale is the step-size factor for the next attempt.
func (r *DormandPrince) scale(errNorm float64) float64 {
	if errNorm == 0 {
		return r.maxScale
	}
	s := r.safety * math.Pow(errNorm, -0.2)
	if errNorm > 1 {
		return math.Max(r.minScale, s)
	}
	return math.Min(r.maxScale, s)
}

const epsilon = 2.220446049250313e-16

// eval calls f and rejects errors and non-finite results.
func eval(f dynamo.DerivFunc, t float64, x dynamo.State) (dynamo.State, error) {
	dx, err := f(t, x)
	if err != nil {
		return nil, fmt.Errorf("derivative at t=%g: %w: %w", t, err, dynamo.ErrIntegration)
	}
	if len(dx) != len(x) {
		return nil, fmt.Errorf("derivative at t=%g has %d entries, want %d: %w", t, len(dx), len(x), dynamo.ErrIntegration)
	}
	if !dx.IsValid() {
		return nil, fmt.Errorf("derivative at t=%g is not finite %v: %w", t, dx, dynamo.ErrIntegration)
	}
	return dx, nil
}
