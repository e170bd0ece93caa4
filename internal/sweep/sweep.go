// Package sweep generates the raster search pattern the mount follows while no
// target is visible.
package sweep

const (
	PanMin   = -85
	PanMax   = 85
	TiltMin  = 5
	TiltMax  = 85
	PanStep  = 1
	TiltStep = 3
)

// Heading is the direction of travel on each axis. TiltDown means the tilt
// value increases at the next pan reversal.
type Heading struct {
	PanLeft  bool
	TiltDown bool
}

// DefaultHeading sweeps left first and moves tilt towards TiltMin.
func DefaultHeading() Heading {
	return Heading{PanLeft: true, TiltDown: false}
}

// State is the sweep position and heading. The zero value is not useful; use
// NewState.
type State struct {
	Pan     int
	Tilt    int
	Heading Heading
}

// NewState seeds a sweep at the given pose.
func NewState(pan, tilt int, h Heading) State {
	return State{Pan: pan, Tilt: tilt, Heading: h}
}

// Step advances the sweep by one tick and returns the new absolute pose. Pan
// moves one unit per tick; when it reaches a pan bound the pan direction flips
// and tilt moves TiltStep towards its current tilt bound, flipping at the
// bound. A coordinate that overshoots a bound is placed on it.
func (s *State) Step() (pan, tilt int) {
	if s.Heading.PanLeft {
		s.Pan -= PanStep
		if s.Pan <= PanMin {
			s.Pan = PanMin
			s.Heading.PanLeft = false
			s.stepTilt()
		}
	} else {
		s.Pan += PanStep
		if s.Pan >= PanMax {
			s.Pan = PanMax
			s.Heading.PanLeft = true
			s.stepTilt()
		}
	}
	return s.Pan, s.Tilt
}

func (s *State) stepTilt() {
	if s.Heading.TiltDown {
		s.Tilt += TiltStep
		if s.Tilt >= TiltMax {
			s.Tilt = TiltMax
			s.Heading.TiltDown = false
		}
		return
	}
	s.Tilt -= TiltStep
	if s.Tilt <= TiltMin {
		s.Tilt = TiltMin
		s.Heading.TiltDown = true
	}
}
