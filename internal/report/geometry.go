package report

import (
	"math"

	"github.com/san-kum/cartpend/internal/physics"
)

// TrackHalfWidth is the half width, in metres, of the window the cart is
// drawn in. The cart re-enters on the other side when it leaves.
const TrackHalfWidth = 4.0

// Geometry is the drawable layout of a snapshot in track coordinates,
// y up, pivot at height zero.
type Geometry struct {
	CartX float64
	TipX  float64
	TipY  float64
	// ForceTip is the end of the force arrow drawn from the cart centre.
	ForceTip float64
}

func Layout(p physics.PlantState) Geometry {
	x := WrapTrack(p.Position)
	return Geometry{
		CartX:    x,
		TipX:     x + p.Length*math.Sin(p.Angle),
		TipY:     p.Length * math.Cos(p.Angle),
		ForceTip: x + 0.1*p.Force,
	}
}

// WrapTrack maps a cart position into [-TrackHalfWidth, TrackHalfWidth).
func WrapTrack(x float64) float64 {
	w := math.Mod(x+TrackHalfWidth, 2*TrackHalfWidth)
	if w < 0 {
		w += 2 * TrackHalfWidth
	}
	return w - TrackHalfWidth
}
