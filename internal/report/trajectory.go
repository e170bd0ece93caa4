// Package report turns recorded tracking sessions into plots and summaries.
package report

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/ptz-tracker/internal/db"
)

// Trajectory holds a session's ticks as parallel columns. Missing values are
// NaN.
type Trajectory struct {
	Start   time.Time
	Seconds []float64
	Pan     []float64
	Tilt    []float64
	Zoom    []float64
	Mode    []string
}

// NewTrajectory converts recorded ticks. Seconds are relative to the first
// tick.
func NewTrajectory(ticks []db.TickRow) Trajectory {
	var t Trajectory
	if len(ticks) == 0 {
		return t
	}
	t.Start = ticks[0].Time
	for _, tick := range ticks {
		t.Seconds = append(t.Seconds, tick.Time.Sub(t.Start).Seconds())
		t.Pan = append(t.Pan, valueOrNaN(tick.Pan))
		t.Tilt = append(t.Tilt, valueOrNaN(tick.Tilt))
		t.Zoom = append(t.Zoom, valueOrNaN(tick.Zoom))
		t.Mode = append(t.Mode, tick.Mode)
	}
	return t
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func (t Trajectory) Len() int { return len(t.Seconds) }

// Summary describes a session at a glance.
type Summary struct {
	Ticks         int
	Duration      time.Duration
	TrackFraction float64
	Searches      int
	PanMin        float64
	PanMax        float64
	TiltMin       float64
	TiltMax       float64
	MeanZoom      float64
}

// Summarise computes a Summary. Ranges and means are NaN when no tick carried
// the value.
func Summarise(t Trajectory) Summary {
	s := Summary{Ticks: t.Len()}
	if s.Ticks == 0 {
		return s
	}
	s.Duration = time.Duration(t.Seconds[len(t.Seconds)-1] * float64(time.Second))

	tracked := 0
	for i, mode := range t.Mode {
		if mode == "track" {
			tracked++
		} else if i == 0 || t.Mode[i-1] != mode {
			s.Searches++
		}
	}
	s.TrackFraction = float64(tracked) / float64(s.Ticks)

	s.PanMin, s.PanMax = span(t.Pan)
	s.TiltMin, s.TiltMax = span(t.Tilt)
	if zoom := present(t.Zoom); len(zoom) > 0 {
		s.MeanZoom = stat.Mean(zoom, nil)
	} else {
		s.MeanZoom = math.NaN()
	}
	return s
}

func present(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func span(v []float64) (lo, hi float64) {
	p := present(v)
	if len(p) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(p), floats.Max(p)
}
