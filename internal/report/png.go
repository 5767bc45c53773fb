package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

func newPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = ylabel
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Tick.Marker = limitedTicker(10, "%.1f")
	p.Y.Tick.Marker = limitedTicker(8, "%.3g")
	p.Add(plotter.NewGrid())
	return p
}

func timeSeries(r *sim.Result, value func(physics.PlantState) float64) plotter.XYs {
	pts := make(plotter.XYs, len(r.States))
	for i, st := range r.States {
		pts[i].X = st.Time
		pts[i].Y = value(st)
	}
	return pts
}

// SavePNG writes a line plot of series s over the run to filename.
func SavePNG(r *sim.Result, s Series, filename string) error {
	return SaveComparePNG(map[string]*sim.Result{s.Name: r}, s, filename)
}

// SaveComparePNG overlays series s from several runs, one line per run.
func SaveComparePNG(runs map[string]*sim.Result, s Series, filename string) error {
	if len(runs) == 0 {
		return fmt.Errorf("report: no runs to plot")
	}

	p := newPlot(s.Name, fmt.Sprintf("%s (%s)", s.Name, s.Unit))

	names := make([]string, 0, len(runs))
	for name := range runs {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		r := runs[name]
		if r == nil || len(r.States) == 0 {
			return fmt.Errorf("report: run %q has no states", name)
		}
		line, err := plotter.NewLine(timeSeries(r, s.Value))
		if err != nil {
			return fmt.Errorf("report: %s: %w", name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		if len(runs) > 1 {
			p.Legend.Add(name, line)
		}
	}

	return savePlotPNG(p, 8.0, 4.5, filename)
}

func savePlotPNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
