// Package tracking implements the pointing controller for a pan/tilt mount:
// per-axis PID, command smoothing and fill-ratio driven digital zoom.
package tracking

import "math"

const (
	// CommandLimit is the hardware travel limit on both axes, in degrees.
	CommandLimit = 90.0
	// DefaultMaxShift bounds the per-update change of each axis, in degrees.
	DefaultMaxShift = 5.0
)

// PanTilt is an absolute mount pose in degrees.
type PanTilt struct {
	Pan  float64
	Tilt float64
}

// Rounded returns the pose as integer degrees, rounding half away from zero.
func (p PanTilt) Rounded() (pan, tilt int) {
	return int(math.Round(p.Pan)), int(math.Round(p.Tilt))
}

// FrameSize is the pixel size of the frame a detection was made in.
type FrameSize struct {
	Width  int
	Height int
}

// Center returns the pixel centre of the frame.
func (f FrameSize) Center() Point {
	return Point{X: float64(f.Width) / 2, Y: float64(f.Height) / 2}
}

// TrackingContext is where the tracker currently commands the mount to be.
type TrackingContext struct {
	Zoom    float64
	Command PanTilt
}

// Config holds the tracker tuning.
type Config struct {
	Pan             PIDGains
	Tilt            PIDGains
	MaxShift        float64
	SmoothingWindow int
	Zoom            ZoomConfig
	Home            PanTilt
}

// DefaultConfig returns the gains and limits the mount was tuned with.
func DefaultConfig() Config {
	return Config{
		Pan:             PIDGains{Kp: 0.1, Ki: 0.01, Kd: 0.5},
		Tilt:            PIDGains{Kp: 0.1, Ki: 0.01, Kd: 0.5},
		MaxShift:        DefaultMaxShift,
		SmoothingWindow: DefaultSmoothingWindow,
		Zoom:            DefaultZoomConfig(),
		Home:            PanTilt{Pan: 0, Tilt: 90},
	}
}

// Tracker converts a held detection into a smoothed pan/tilt command and a
// zoom factor. It is not safe for concurrent use.
type Tracker struct {
	maxShift    float64
	pan         *PIDController
	tilt        *PIDController
	panHistory  *CommandHistory
	tiltHistory *CommandHistory
	zoom        ZoomController
	ctx         TrackingContext
}

// NewTracker creates a tracker commanding cfg.Home at 1x zoom.
func NewTracker(cfg Config) *Tracker {
	maxShift := cfg.MaxShift
	if maxShift <= 0 {
		maxShift = DefaultMaxShift
	}
	return &Tracker{
		maxShift:    maxShift,
		pan:         NewPIDController(cfg.Pan),
		tilt:        NewPIDController(cfg.Tilt),
		panHistory:  NewCommandHistory(cfg.SmoothingWindow),
		tiltHistory: NewCommandHistory(cfg.SmoothingWindow),
		zoom:        NewZoomController(cfg.Zoom),
		ctx:         TrackingContext{Zoom: 1.0, Command: cfg.Home},
	}
}

// Update steers towards det, observed in a frame of the given size, dt seconds
// after the previous update, and returns the new context.
func (t *Tracker) Update(frame FrameSize, det Detection, dt float64) TrackingContext {
	box := det.Box
	center := box.Center()
	frameCenter := frame.Center()

	// positive pan error drives pan right, positive tilt error drives tilt up
	errorX := frameCenter.X - center.X
	errorY := center.Y - frameCenter.Y

	panAdjust := clamp(t.pan.Compute(errorX, dt), -t.maxShift, t.maxShift)
	tiltAdjust := clamp(t.tilt.Compute(errorY, dt), -t.maxShift, t.maxShift)

	pan := clamp(t.ctx.Command.Pan+panAdjust, -CommandLimit, CommandLimit)
	tilt := clamp(t.ctx.Command.Tilt+tiltAdjust, -CommandLimit, CommandLimit)

	zoom := t.zoom.CalculateZoom(center, box.Width(), box.Height(),
		float64(frame.Width), float64(frame.Height), t.ctx.Zoom)

	t.ctx = TrackingContext{
		Zoom: t.zoom.Clamp(zoom),
		Command: PanTilt{
			Pan:  t.panHistory.Push(pan),
			Tilt: t.tiltHistory.Push(tilt),
		},
	}
	return t.ctx
}

// Context returns the current tracking context.
func (t *Tracker) Context() TrackingContext { return t.ctx }

// SetZoom overrides the zoom the next update measures boxes against.
func (t *Tracker) SetZoom(z float64) { t.ctx.Zoom = t.zoom.Clamp(z) }

// Resync moves the commanded pose to where the mount actually is and drops
// the smoothing history, which no longer describes the mount's position.
func (t *Tracker) Resync(cmd PanTilt) {
	t.ctx.Command = cmd
	t.panHistory.Reset()
	t.tiltHistory.Reset()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
