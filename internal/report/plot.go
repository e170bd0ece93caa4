package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	panColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	tiltColor   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	searchColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// segments splits y into runs without NaN values.
func segments(x, y []float64) []plotter.XYs {
	var (
		out []plotter.XYs
		cur plotter.XYs
	)
	for i := range x {
		if math.IsNaN(y[i]) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: x[i], Y: y[i]})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func addSeries(p *plot.Plot, label string, c color.Color, x, y []float64) error {
	for i, seg := range segments(x, y) {
		line, err := plotter.NewLine(seg)
		if err != nil {
			return err
		}
		line.Color = c
		line.Width = vg.Points(1)
		p.Add(line)
		if i == 0 {
			p.Legend.Add(label, line)
		}
	}
	return nil
}

// NewTrajectoryPlot plots commanded pan and tilt against time, marking
// search ticks along the bottom.
func NewTrajectoryPlot(t Trajectory, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Angle (deg)"
	p.Y.Min, p.Y.Max = -95, 95
	p.Add(plotter.NewGrid())

	if err := addSeries(p, "pan", panColor, t.Seconds, t.Pan); err != nil {
		return nil, fmt.Errorf("failed to plot pan: %w", err)
	}
	if err := addSeries(p, "tilt", tiltColor, t.Seconds, t.Tilt); err != nil {
		return nil, fmt.Errorf("failed to plot tilt: %w", err)
	}

	var search plotter.XYs
	for i, mode := range t.Mode {
		if mode == "search" {
			search = append(search, plotter.XY{X: t.Seconds[i], Y: -92})
		}
	}
	if len(search) > 0 {
		sc, err := plotter.NewScatter(search)
		if err != nil {
			return nil, fmt.Errorf("failed to plot search ticks: %w", err)
		}
		sc.GlyphStyle.Color = searchColor
		sc.GlyphStyle.Radius = vg.Points(1)
		p.Add(sc)
		p.Legend.Add("search", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SaveTrajectoryPlot writes the plot to path. The format follows the file
// extension (png, svg, pdf).
func SaveTrajectoryPlot(t Trajectory, title, path string) error {
	if t.Len() == 0 {
		return fmt.Errorf("no ticks to plot")
	}
	p, err := NewTrajectoryPlot(t, title)
	if err != nil {
		return err
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
