package servo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/banshee-data/ptz-tracker/internal/timeutil"
	"github.com/banshee-data/ptz-tracker/internal/tracking"
)

// ErrActuatorUnavailable is returned by Run when the mount rejected more
// consecutive commands than the loop tolerates.
var ErrActuatorUnavailable = errors.New("actuator unavailable")

// Frame is one captured image. Frames implementing io.Closer are closed once
// the tick that read them is done.
type Frame interface {
	Size() (width, height int)
}

// FrameSource yields frames and applies digital zoom. NextFrame returns io.EOF
// once the stream has ended.
type FrameSource interface {
	NextFrame(ctx context.Context) (Frame, error)
	SetZoom(factor float64)
}

// Detector finds targets in a frame. Implementations should return promptly
// once ctx is done.
type Detector interface {
	Detect(ctx context.Context, frame Frame) ([]tracking.Detection, error)
}

// Actuator accepts absolute pan/tilt commands in whole degrees.
type Actuator interface {
	PoseReader
	SendPanTilt(pan, tilt int) error
}

// Tick describes one completed loop iteration.
type Tick struct {
	Time       time.Time
	Output     Output
	Detections int
	SendFailed bool
}

// Recorder persists ticks. Recording failures never stop the loop.
type Recorder interface {
	RecordTick(Tick) error
}

// Status is a point-in-time summary of the loop for diagnostics.
type Status struct {
	Mode                  string    `json:"mode"`
	Pan                   int       `json:"pan"`
	Tilt                  int       `json:"tilt"`
	Zoom                  float64   `json:"zoom"`
	FramesSinceLastDetect int       `json:"frames_since_last_detect"`
	LastDetectAt          time.Time `json:"last_detect_at"`
	Ticks                 int64     `json:"ticks"`
	WriteFailures         int       `json:"write_failures"`
}

// Loop wires a frame source, detector and actuator to a Controller.
type Loop struct {
	Source     FrameSource
	Detector   Detector
	Actuator   Actuator
	Controller *Controller
	Recorder   Recorder
	Clock      timeutil.Clock

	// DetectTimeout bounds each detector call when positive. A call that
	// times out counts as a frame without detections.
	DetectTimeout time.Duration
	// MaxConsecutiveWriteFailures stops the loop after that many failed
	// actuator writes in a row. Zero tolerates any number.
	MaxConsecutiveWriteFailures int

	writeFailures int

	mu     sync.Mutex
	status Status
}

// Run processes frames until the source ends, ctx is cancelled or the actuator
// is declared unavailable. End of stream returns nil.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := l.Tick(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				logf("frame source exhausted: stopping control loop")
				return nil
			}
			return err
		}
	}
}

// Tick runs a single iteration: read a frame, detect, update the controller
// and apply its output.
func (l *Loop) Tick(ctx context.Context) (Output, error) {
	frame, err := l.Source.NextFrame(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Output{}, err
		}
		return Output{}, fmt.Errorf("failed to read frame: %w", err)
	}
	if c, ok := frame.(io.Closer); ok {
		defer c.Close()
	}

	detections := l.detect(ctx, frame)
	width, height := frame.Size()
	out := l.Controller.Update(tracking.FrameSize{Width: width, Height: height}, detections)

	var sendErr error
	if out.Command != nil {
		pan, tilt := out.Command.Rounded()
		if sendErr = l.Actuator.SendPanTilt(pan, tilt); sendErr != nil {
			l.writeFailures++
			logf("failed to send pan=%d tilt=%d (%d consecutive failures): %v", pan, tilt, l.writeFailures, sendErr)
		} else {
			l.writeFailures = 0
		}
	}
	if out.Zoom != nil {
		l.Source.SetZoom(*out.Zoom)
	}

	now := l.now()
	if l.Recorder != nil {
		tick := Tick{Time: now, Output: out, Detections: len(detections), SendFailed: sendErr != nil}
		if err := l.Recorder.RecordTick(tick); err != nil {
			logf("failed to record tick: %v", err)
		}
	}
	l.publish(out)

	if sendErr != nil && l.MaxConsecutiveWriteFailures > 0 && l.writeFailures >= l.MaxConsecutiveWriteFailures {
		return out, fmt.Errorf("%w: %d consecutive write failures: %v", ErrActuatorUnavailable, l.writeFailures, sendErr)
	}
	return out, nil
}

func (l *Loop) detect(ctx context.Context, frame Frame) []tracking.Detection {
	if l.DetectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.DetectTimeout)
		defer cancel()
	}
	detections, err := l.Detector.Detect(ctx, frame)
	if err != nil {
		logf("detection failed, treating frame as empty: %v", err)
		return nil
	}
	return detections
}

func (l *Loop) now() time.Time {
	if l.Clock == nil {
		return time.Now()
	}
	return l.Clock.Now()
}

func (l *Loop) publish(out Output) {
	pan, tilt := l.Actuator.LastCommand()
	ctx := l.Controller.Context()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.Mode = out.Mode.String()
	l.status.Pan = pan
	l.status.Tilt = tilt
	l.status.Zoom = ctx.Zoom
	l.status.FramesSinceLastDetect = l.Controller.FramesSinceLastDetect()
	l.status.LastDetectAt = l.Controller.TimeOfLastDetect()
	l.status.Ticks++
	l.status.WriteFailures = l.writeFailures
}

// Status returns the latest published status. It is safe to call from other
// goroutines.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}
