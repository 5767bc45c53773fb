package viz

import (
	"math"

	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/report"
)

const (
	cartWidth   = 0.6
	cartHeightX = 4
	bobRadius   = 2
)

// DrawPlant renders p onto c: track, cart, rod, bob and force arrow.
func DrawPlant(c *Canvas, p physics.PlantState) {
	w, h := c.PixelSize()
	g := report.Layout(p)

	scale := float64(w) / (2 * report.TrackHalfWidth)
	if p.Length > 0 {
		scale = math.Min(scale, 0.4*float64(h)/p.Length)
	}
	cx := float64(w) / 2
	pivotY := h / 2

	toScreen := func(x, y float64) (int, int) {
		return int(math.Round(cx + x*scale)), pivotY - int(math.Round(y*scale))
	}

	groundY := pivotY + cartHeightX + 1
	c.DrawLine(0, groundY, w-1, groundY)

	cartX, _ := toScreen(g.CartX, 0)
	half := int(math.Round(cartWidth * scale / 2))
	c.FillRect(cartX-half, pivotY, cartX+half, pivotY+cartHeightX-1)

	tipX, tipY := toScreen(g.TipX, g.TipY)
	c.DrawLine(cartX, pivotY, tipX, tipY)
	c.FillCircle(tipX, tipY, bobRadius)

	if p.Force != 0 {
		arrowY := pivotY + cartHeightX + 3
		endX, _ := toScreen(g.ForceTip, 0)
		c.DrawLine(cartX, arrowY, endX, arrowY)
		dir := 1
		if p.Force < 0 {
			dir = -1
		}
		c.DrawLine(endX, arrowY, endX-2*dir, arrowY-1)
		c.DrawLine(endX, arrowY, endX-2*dir, arrowY+1)
	}
}
