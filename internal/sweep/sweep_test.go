package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep_FirstStepFromHome(t *testing.T) {
	s := NewState(0, 90, DefaultHeading())
	pan, tilt := s.Step()
	assert.Equal(t, -1, pan)
	assert.Equal(t, 90, tilt)
}

func TestStep_VisitsEveryPanBeforeReversing(t *testing.T) {
	s := NewState(PanMax, 45, DefaultHeading())

	seen := make(map[int]bool)
	for {
		pan, _ := s.Step()
		seen[pan] = true
		if !s.Heading.PanLeft {
			break
		}
	}
	for p := PanMin; p < PanMax; p++ {
		assert.True(t, seen[p], "pan %d not visited on leftward pass", p)
	}
	assert.Equal(t, PanMin, s.Pan)

	// the rightward pass covers the range in the other direction
	seen = make(map[int]bool)
	for {
		pan, _ := s.Step()
		seen[pan] = true
		if s.Heading.PanLeft {
			break
		}
	}
	for p := PanMin + 1; p <= PanMax; p++ {
		assert.True(t, seen[p], "pan %d not visited on rightward pass", p)
	}
}

func TestStep_TiltChangesOnlyAtPanReversal(t *testing.T) {
	s := NewState(0, 45, DefaultHeading())
	prevTilt := s.Tilt
	for i := 0; i < 1000; i++ {
		prevLeft := s.Heading.PanLeft
		_, tilt := s.Step()
		if tilt != prevTilt {
			assert.NotEqual(t, prevLeft, s.Heading.PanLeft, "tilt moved without a pan reversal at step %d", i)
			assert.LessOrEqual(t, abs(tilt-prevTilt), TiltStep)
		}
		prevTilt = tilt
	}
}

func TestStep_TiltReversesExactlyAtBounds(t *testing.T) {
	s := NewState(0, 44, DefaultHeading())

	var reversals []int
	prevDown := s.Heading.TiltDown
	for i := 0; i < 40*171; i++ {
		_, tilt := s.Step()
		require.GreaterOrEqual(t, tilt, TiltMin)
		require.LessOrEqual(t, tilt, TiltMax)
		if s.Heading.TiltDown != prevDown {
			reversals = append(reversals, tilt)
			prevDown = s.Heading.TiltDown
		}
	}
	require.NotEmpty(t, reversals)
	for i, tilt := range reversals {
		if i%2 == 0 {
			assert.Equal(t, TiltMin, tilt)
		} else {
			assert.Equal(t, TiltMax, tilt)
		}
	}
}

func TestStep_OvershootIsPlacedOnBound(t *testing.T) {
	// seeded outside the sweep range, as happens when the mount was homed at
	// tilt 90
	s := NewState(-84, 90, Heading{PanLeft: true, TiltDown: true})
	pan, tilt := s.Step()
	assert.Equal(t, PanMin, pan)
	assert.Equal(t, TiltMax, tilt)
	assert.False(t, s.Heading.TiltDown)
	assert.False(t, s.Heading.PanLeft)
}

func TestStep_Deterministic(t *testing.T) {
	a := NewState(10, 50, DefaultHeading())
	b := NewState(10, 50, DefaultHeading())
	for i := 0; i < 500; i++ {
		ap, at := a.Step()
		bp, bt := b.Step()
		require.Equal(t, ap, bp)
		require.Equal(t, at, bt)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
