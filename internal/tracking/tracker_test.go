package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var frame640 = FrameSize{Width: 640, Height: 480}

// boxAt returns a w x h detection centred on (cx, cy).
func boxAt(cx, cy, w, h float64) Detection {
	return Detection{
		Box:        BoundingBox{X1: cx - w/2, Y1: cy - h/2, X2: cx + w/2, Y2: cy + h/2},
		Confidence: 0.9,
	}
}

func TestTracker_InitialContext(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	assert.Equal(t, TrackingContext{Zoom: 1.0, Command: PanTilt{Pan: 0, Tilt: 90}}, tr.Context())
}

func TestTracker_CentredTargetHoldsPose(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	det := boxAt(320, 240, 100, 100)

	for i := 0; i < 20; i++ {
		ctx := tr.Update(frame640, det, 0.1)
		assert.InDelta(t, 0.0, ctx.Command.Pan, 1e-9)
		assert.InDelta(t, 90.0, ctx.Command.Tilt, 1e-9)
		assert.InDelta(t, 2.0, ctx.Zoom, 1e-9)
	}
}

func TestTracker_ShiftIsClampedAndSmoothed(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	det := boxAt(420, 240, 100, 100) // 100px right of centre

	ctx := tr.Update(frame640, det, 0.1)
	// PID output is far beyond MaxShift, so pan moves exactly one max step
	assert.InDelta(t, -5.0, ctx.Command.Pan, 1e-9)
	assert.InDelta(t, 90.0, ctx.Command.Tilt, 1e-9)

	ctx = tr.Update(frame640, det, 0.1)
	// raw pan -10, averaged with the previous -5
	assert.InDelta(t, -7.5, ctx.Command.Pan, 1e-9)
}

func TestTracker_RespectsTravelLimits(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	det := boxAt(630, 470, 20, 20) // bottom right corner

	for i := 0; i < 200; i++ {
		ctx := tr.Update(frame640, det, 0.1)
		assert.GreaterOrEqual(t, ctx.Command.Pan, -CommandLimit)
		assert.LessOrEqual(t, ctx.Command.Pan, CommandLimit)
		assert.GreaterOrEqual(t, ctx.Command.Tilt, -CommandLimit)
		assert.LessOrEqual(t, ctx.Command.Tilt, CommandLimit)
	}
	assert.InDelta(t, -CommandLimit, tr.Context().Command.Pan, 1e-9)
	assert.InDelta(t, CommandLimit, tr.Context().Command.Tilt, 1e-9)
}

func TestTracker_ZeroDtDoesNotPanic(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	assert.NotPanics(t, func() {
		tr.Update(frame640, boxAt(300, 200, 50, 50), 0)
		tr.Update(frame640, boxAt(300, 200, 50, 50), -1)
	})
}

func TestTracker_SetZoomAndResync(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	det := boxAt(420, 240, 100, 100)
	tr.Update(frame640, det, 0.1)
	tr.Update(frame640, det, 0.1)

	tr.SetZoom(5)
	assert.Equal(t, 2.0, tr.Context().Zoom, "zoom override is clamped")
	tr.SetZoom(1)

	tr.Resync(PanTilt{Pan: 40, Tilt: 30})
	assert.Equal(t, PanTilt{Pan: 40, Tilt: 30}, tr.Context().Command)

	// a centred target after resync stays at the resynced pose, unaffected by
	// the pre-resync history
	tr2 := NewTracker(DefaultConfig())
	tr2.Resync(PanTilt{Pan: 40, Tilt: 30})
	ctx := tr2.Update(frame640, boxAt(320, 240, 100, 100), 0.1)
	assert.InDelta(t, 40.0, ctx.Command.Pan, 1e-9)
	assert.InDelta(t, 30.0, ctx.Command.Tilt, 1e-9)
}

func TestPanTilt_Rounded(t *testing.T) {
	pan, tilt := PanTilt{Pan: -2.5, Tilt: 89.5}.Rounded()
	assert.Equal(t, -3, pan)
	assert.Equal(t, 90, tilt)
}
