// Package actuator drives the pan/tilt mount over its serial command link.
package actuator

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/banshee-data/ptz-tracker/internal/monitoring"
	"github.com/banshee-data/ptz-tracker/internal/serialmux"
	"github.com/banshee-data/ptz-tracker/internal/timeutil"
)

var logf = monitoring.Componentf("actuator")

// DefaultSettleDelay is how long the mount controller needs after the port is
// opened before it accepts commands. Opening the port resets the board.
const DefaultSettleDelay = 2 * time.Second

// ErrClosed is returned by SendPanTilt after Close.
var ErrClosed = errors.New("actuator link closed")

// Pose is an absolute pan/tilt position in whole degrees.
type Pose struct {
	Pan  int `json:"pan"`
	Tilt int `json:"tilt"`
}

// Home is the pose the mount is reset to.
var Home = Pose{Pan: 0, Tilt: 90}

// Commander writes one command line to the mount. serialmux.SerialMux and
// serialmux.DisabledSerialMux implement it.
type Commander interface {
	SendCommand(string) error
}

// Options configure a Link. Zero values select the defaults.
type Options struct {
	Home        *Pose
	SettleDelay time.Duration
	Clock       timeutil.Clock
}

// Link sends pose commands and remembers the last one the mount accepted.
type Link struct {
	cmd   Commander
	home  Pose
	clock timeutil.Clock

	mu     sync.Mutex
	last   Pose
	closed bool
}

// NewLink waits for the mount to settle and returns a link whose last command
// is the home pose. It does not move the mount; call Reset for that.
func NewLink(cmd Commander, opts Options) *Link {
	l := &Link{cmd: cmd, home: Home, clock: opts.Clock}
	if opts.Home != nil {
		l.home = *opts.Home
	}
	if l.clock == nil {
		l.clock = timeutil.RealClock{}
	}
	if opts.SettleDelay > 0 {
		l.clock.Sleep(opts.SettleDelay)
	}
	l.last = l.home
	return l
}

// SendPanTilt writes an absolute pose. LastCommand only changes when the
// write succeeds.
func (l *Link) SendPanTilt(pan, tilt int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if err := l.cmd.SendCommand(serialmux.FormatPanTilt(pan, tilt)); err != nil {
		return fmt.Errorf("failed to send pan=%d tilt=%d: %w", pan, tilt, err)
	}
	l.last = Pose{Pan: pan, Tilt: tilt}
	return nil
}

// LastCommand returns the last pose successfully written, or the home pose
// before any write.
func (l *Link) LastCommand() (pan, tilt int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last.Pan, l.last.Tilt
}

// Reset sends the mount to its home pose.
func (l *Link) Reset() error {
	if err := l.SendPanTilt(l.home.Pan, l.home.Tilt); err != nil {
		return fmt.Errorf("failed to home mount: %w", err)
	}
	logf("mount homed to pan=%d tilt=%d", l.home.Pan, l.home.Tilt)
	return nil
}

// Close stops the link and closes the underlying commander if it can be
// closed. Further sends fail with ErrClosed.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if c, ok := l.cmd.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close serial connection: %w", err)
		}
	}
	logf("serial connection closed")
	return nil
}
