package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds a trajectory projected onto two plant variables.
type PhasePortrait struct {
	XLabel, YLabel string
	Points         []Point
}

// Phase projects r onto (wrapped angle, angular velocity).
func Phase(r *sim.Result) PhasePortrait {
	return Project(r, "angle", "omega",
		func(p physics.PlantState) float64 { return physics.WrapAngle(p.Angle) },
		func(p physics.PlantState) float64 { return p.AngularVelocity })
}

// Project builds a portrait from any two observables of the recorded states.
func Project(r *sim.Result, xLabel, yLabel string, fx, fy func(physics.PlantState) float64) PhasePortrait {
	portrait := PhasePortrait{XLabel: xLabel, YLabel: yLabel}
	if r == nil {
		return portrait
	}
	portrait.Points = make([]Point, 0, len(r.States))
	for _, p := range r.States {
		portrait.Points = append(portrait.Points, Point{X: fx(p), Y: fy(p)})
	}
	return portrait
}

func (pp PhasePortrait) bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = pp.Points[0].X, pp.Points[0].X
	minY, maxY = pp.Points[0].Y, pp.Points[0].Y
	for _, p := range pp.Points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.1, maxX + rangeX*0.1, minY - rangeY*0.1, maxY + rangeY*0.1
}

// ASCII renders the portrait on a width×height character grid, drawing the
// axes where they cross the visible area.
func (pp PhasePortrait) ASCII(width, height int) string {
	if len(pp.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := pp.bounds()
	rangeX, rangeY := maxX-minX, maxY-minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range pp.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int(-minX / rangeX * float64(width-1))
		for row := range grid {
			if grid[row][col] == ' ' {
				grid[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int(-minY/rangeY*float64(height-1))
		for col := range grid[row] {
			if grid[row][col] == ' ' {
				grid[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// SVG renders the portrait as a single polyline scaled into width×height.
func (pp PhasePortrait) SVG(width, height int, stroke string) string {
	if len(pp.Points) < 2 {
		return ""
	}

	minX, maxX, minY, maxY := pp.bounds()
	rangeX, rangeY := maxX-minX, maxY-minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`, width, height, width, height, stroke)

	for i, p := range pp.Points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}
