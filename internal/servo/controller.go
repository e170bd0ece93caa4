// Package servo closes the visual servo loop: it decides between tracking a
// detected target and sweeping for one, and turns that decision into mount and
// zoom commands.
package servo

import (
	"fmt"
	"time"

	"github.com/banshee-data/ptz-tracker/internal/monitoring"
	"github.com/banshee-data/ptz-tracker/internal/sweep"
	"github.com/banshee-data/ptz-tracker/internal/timeutil"
	"github.com/banshee-data/ptz-tracker/internal/tracking"
)

var logf = monitoring.Componentf("servo")

// Mode is the controller's top-level state.
type Mode int

const (
	ModeTrack Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeTrack:
		return "track"
	case ModeSearch:
		return "search"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config tunes mode switching. Persist is the number of consecutive empty
// frames the last detection is still steered towards.
type Config struct {
	Tracker      tracking.Config
	Persist      int
	ZoomOutAfter time.Duration
	SearchAfter  time.Duration
}

// DefaultConfig zooms out after 5s without a detection and starts searching
// after 10s.
func DefaultConfig() Config {
	return Config{
		Tracker:      tracking.DefaultConfig(),
		Persist:      0,
		ZoomOutAfter: 5 * time.Second,
		SearchAfter:  10 * time.Second,
	}
}

// PoseReader reports the last pose sent to the mount.
type PoseReader interface {
	LastCommand() (pan, tilt int)
}

// Transition records a mode change made during an update.
type Transition struct {
	From   Mode
	To     Mode
	Reason string
}

// Output is the result of one update. Nil Command or Zoom means nothing should
// be sent for that channel this tick.
type Output struct {
	Mode                  Mode
	Command               *tracking.PanTilt
	Zoom                  *float64
	Held                  *tracking.Detection
	FramesSinceLastDetect int
	Transition            *Transition
}

type modeState interface {
	mode() Mode
}

type trackState struct{}

func (trackState) mode() Mode { return ModeTrack }

// searchState owns the sweep; it only exists while searching.
type searchState struct {
	sweep sweep.State
}

func (*searchState) mode() Mode { return ModeSearch }

// Controller is the track/search state machine. It is driven from a single
// goroutine and is not safe for concurrent use.
type Controller struct {
	cfg     Config
	clock   timeutil.Clock
	pose    PoseReader
	tracker *tracking.Tracker

	state   modeState
	heading sweep.Heading

	lastDetection         *tracking.Detection
	timeOfLastDetect      time.Time
	framesSinceLastDetect int
	lastUpdate            time.Time
	zoomedOut             bool
}

// NewController creates a controller in track mode. The detection timers start
// at construction, so a target has SearchAfter to appear before searching
// begins.
func NewController(cfg Config, clock timeutil.Clock, pose PoseReader) *Controller {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	now := clock.Now()
	return &Controller{
		cfg:              cfg,
		clock:            clock,
		pose:             pose,
		tracker:          tracking.NewTracker(cfg.Tracker),
		state:            trackState{},
		heading:          sweep.DefaultHeading(),
		timeOfLastDetect: now,
		lastUpdate:       now,
	}
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode { return c.state.mode() }

// Context returns the tracker's commanded pose and zoom.
func (c *Controller) Context() tracking.TrackingContext { return c.tracker.Context() }

// LastDetection returns the detection currently being steered towards.
func (c *Controller) LastDetection() (tracking.Detection, bool) {
	if c.lastDetection == nil {
		return tracking.Detection{}, false
	}
	return *c.lastDetection, true
}

// FramesSinceLastDetect returns the number of consecutive frames without a
// detection.
func (c *Controller) FramesSinceLastDetect() int { return c.framesSinceLastDetect }

// TimeOfLastDetect returns when a detection was last seen.
func (c *Controller) TimeOfLastDetect() time.Time { return c.timeOfLastDetect }

// Update consumes the detections for one frame and returns what to send.
func (c *Controller) Update(frame tracking.FrameSize, detections []tracking.Detection) Output {
	now := c.clock.Now()
	dt := now.Sub(c.lastUpdate).Seconds()
	c.lastUpdate = now

	var reacquired *Transition
	if s, ok := c.state.(*searchState); ok {
		c.heading = s.sweep.Heading
		if len(detections) == 0 {
			pan, tilt := s.sweep.Step()
			return Output{
				Mode:                  ModeSearch,
				Command:               &tracking.PanTilt{Pan: float64(pan), Tilt: float64(tilt)},
				FramesSinceLastDetect: c.framesSinceLastDetect,
			}
		}

		// the mount is wherever the sweep left it
		pan, tilt := c.pose.LastCommand()
		c.tracker.Resync(tracking.PanTilt{Pan: float64(pan), Tilt: float64(tilt)})
		c.state = trackState{}
		reacquired = &Transition{From: ModeSearch, To: ModeTrack, Reason: "target reacquired"}
		logf("target reacquired at pan=%d tilt=%d: resuming track mode", pan, tilt)
	}

	out := c.track(now, dt, frame, detections)
	if reacquired != nil {
		out.Transition = reacquired
	}
	return out
}

func (c *Controller) track(now time.Time, dt float64, frame tracking.FrameSize, detections []tracking.Detection) Output {
	out := Output{Mode: ModeTrack}

	if best, ok := tracking.Best(detections); ok {
		c.timeOfLastDetect = now
		c.framesSinceLastDetect = 0
		c.lastDetection = &best
	} else {
		c.framesSinceLastDetect++
	}

	if c.lastDetection != nil {
		held := *c.lastDetection
		ctx := c.tracker.Update(frame, held, dt)
		cmd, zoom := ctx.Command, ctx.Zoom
		out.Command = &cmd
		out.Zoom = &zoom
		out.Held = &held
	}

	if c.framesSinceLastDetect > c.cfg.Persist {
		c.lastDetection = nil
	}

	lost := now.Sub(c.timeOfLastDetect)
	if lost > c.cfg.ZoomOutAfter {
		if !c.zoomedOut {
			logf("target lost for %s: zooming out", lost.Round(time.Millisecond))
			c.zoomedOut = true
		}
		c.tracker.SetZoom(1.0)
		zoom := c.tracker.Context().Zoom
		out.Zoom = &zoom
	} else {
		c.zoomedOut = false
	}

	if lost > c.cfg.SearchAfter {
		pan, tilt := c.pose.LastCommand()
		if out.Command != nil {
			// this tick's command has not reached the mount yet
			pan, tilt = out.Command.Rounded()
		}
		c.state = &searchState{sweep: sweep.NewState(pan, tilt, c.heading)}
		out.Mode = ModeSearch
		out.Transition = &Transition{From: ModeTrack, To: ModeSearch, Reason: "target lost"}
		logf("target still lost after %s: starting search mode from pan=%d tilt=%d",
			lost.Round(time.Millisecond), pan, tilt)
	}

	out.FramesSinceLastDetect = c.framesSinceLastDetect
	return out
}
