package servo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ptz-tracker/internal/monitoring"
	"github.com/banshee-data/ptz-tracker/internal/timeutil"
	"github.com/banshee-data/ptz-tracker/internal/tracking"
)

var (
	testStart = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	frame640  = tracking.FrameSize{Width: 640, Height: 480}
)

func init() {
	monitoring.SetLogger(nil)
}

// fakePose stands in for the actuator's cached last command.
type fakePose struct {
	pan, tilt int
}

func (p *fakePose) LastCommand() (int, int) { return p.pan, p.tilt }

// apply records out's command as sent, as the loop would.
func (p *fakePose) apply(out Output) {
	if out.Command != nil {
		p.pan, p.tilt = out.Command.Rounded()
	}
}

func centred(conf float64) tracking.Detection {
	return tracking.Detection{
		Box:        tracking.BoundingBox{X1: 270, Y1: 190, X2: 370, Y2: 290},
		Confidence: conf,
	}
}

func newTestController(cfg Config) (*Controller, *timeutil.MockClock, *fakePose) {
	clock := timeutil.NewMockClock(testStart)
	pose := &fakePose{pan: 0, tilt: 90}
	return NewController(cfg, clock, pose), clock, pose
}

func TestController_StartsInTrackMode(t *testing.T) {
	c, _, _ := newTestController(DefaultConfig())
	assert.Equal(t, ModeTrack, c.Mode())
	_, held := c.LastDetection()
	assert.False(t, held)
}

func TestController_PersistClearsLastDetection(t *testing.T) {
	for _, persist := range []int{0, 1, 3, 7} {
		cfg := DefaultConfig()
		cfg.Persist = persist
		c, clock, pose := newTestController(cfg)

		pose.apply(c.Update(frame640, []tracking.Detection{centred(0.9)}))
		for i := 1; i <= persist+1; i++ {
			clock.Advance(100 * time.Millisecond)
			out := c.Update(frame640, nil)
			pose.apply(out)

			_, held := c.LastDetection()
			assert.Equal(t, i, c.FramesSinceLastDetect())
			assert.NotNil(t, out.Command, "persist=%d: held detection still steers on frame %d", persist, i)
			if i > persist {
				assert.False(t, held, "persist=%d: detection must be dropped after %d empty frames", persist, i)
			} else {
				assert.True(t, held, "persist=%d: detection must be held after %d empty frames", persist, i)
			}
		}

		clock.Advance(100 * time.Millisecond)
		out := c.Update(frame640, nil)
		assert.Nil(t, out.Command, "persist=%d: nothing to steer towards", persist)
	}
}

func TestController_CentredTargetConverges(t *testing.T) {
	c, clock, pose := newTestController(DefaultConfig())

	var out Output
	for i := 0; i < 50; i++ {
		out = c.Update(frame640, []tracking.Detection{centred(0.9)})
		pose.apply(out)
		clock.Advance(100 * time.Millisecond)

		require.NotNil(t, out.Command)
		assert.InDelta(t, 0.0, out.Command.Pan, 1e-9)
		assert.InDelta(t, 90.0, out.Command.Tilt, 1e-9)
		assert.Equal(t, ModeTrack, out.Mode)
	}
	require.NotNil(t, out.Zoom)
	// a 100px box in a 480px-high frame wants 2.88x, capped at the 2x maximum
	assert.InDelta(t, 2.0, *out.Zoom, 1e-9)
}

func TestController_PicksMostConfidentDetection(t *testing.T) {
	c, _, _ := newTestController(DefaultConfig())
	dets := []tracking.Detection{
		{Box: tracking.BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.4, ClassID: 1},
		{Box: tracking.BoundingBox{X1: 10, Y1: 10, X2: 20, Y2: 20}, Confidence: 0.8, ClassID: 2},
		{Box: tracking.BoundingBox{X1: 20, Y1: 20, X2: 30, Y2: 30}, Confidence: 0.8, ClassID: 3},
	}
	out := c.Update(frame640, dets)
	require.NotNil(t, out.Held)
	assert.Equal(t, 2, out.Held.ClassID)
}

func TestController_LostTargetZoomsOutThenSearches(t *testing.T) {
	c, clock, pose := newTestController(DefaultConfig())

	// detection at t=0, none afterwards
	pose.apply(c.Update(frame640, []tracking.Detection{centred(0.9)}))

	var out Output
	for i := 1; i <= 50; i++ {
		clock.Advance(100 * time.Millisecond)
		out = c.Update(frame640, nil)
		pose.apply(out)
		if i > 1 {
			assert.Nil(t, out.Zoom, "no zoom change before 5s (tick %d)", i)
		}
	}

	// t=5.1s
	clock.Advance(100 * time.Millisecond)
	out = c.Update(frame640, nil)
	require.NotNil(t, out.Zoom)
	assert.Equal(t, 1.0, *out.Zoom)
	assert.Equal(t, 1.0, c.Context().Zoom)
	assert.Equal(t, ModeTrack, out.Mode)

	// up to t=10.0s the zoom stays forced and the mode stays track
	for i := 52; i <= 100; i++ {
		clock.Advance(100 * time.Millisecond)
		out = c.Update(frame640, nil)
		require.NotNil(t, out.Zoom)
		assert.Equal(t, ModeTrack, out.Mode, "tick %d", i)
	}

	// t=10.1s
	clock.Advance(100 * time.Millisecond)
	out = c.Update(frame640, nil)
	assert.Equal(t, ModeSearch, out.Mode)
	assert.Equal(t, ModeSearch, c.Mode())
	require.NotNil(t, out.Transition)
	assert.Equal(t, ModeTrack, out.Transition.From)
	assert.Equal(t, ModeSearch, out.Transition.To)

	lastPan, lastTilt := pose.LastCommand()
	clock.Advance(100 * time.Millisecond)
	out = c.Update(frame640, nil)
	require.NotNil(t, out.Command)
	pan, tilt := out.Command.Rounded()
	assert.Equal(t, lastPan-1, pan)
	assert.Equal(t, lastTilt, tilt)
	assert.Nil(t, out.Zoom, "sweep does not touch zoom")
}

func TestController_StartupGracePeriod(t *testing.T) {
	c, clock, _ := newTestController(DefaultConfig())

	clock.Advance(4900 * time.Millisecond)
	out := c.Update(frame640, nil)
	assert.Nil(t, out.Zoom)

	clock.Advance(200 * time.Millisecond)
	out = c.Update(frame640, nil)
	require.NotNil(t, out.Zoom)
	assert.Equal(t, 1.0, *out.Zoom)

	clock.Advance(5 * time.Second)
	out = c.Update(frame640, nil)
	assert.Equal(t, ModeSearch, out.Mode)
}

// enterSearch drives c into search mode without any detections.
func enterSearch(t *testing.T, c *Controller, clock *timeutil.MockClock, pose *fakePose) {
	t.Helper()
	for i := 0; i < 200 && c.Mode() != ModeSearch; i++ {
		clock.Advance(100 * time.Millisecond)
		pose.apply(c.Update(frame640, nil))
	}
	require.Equal(t, ModeSearch, c.Mode())
}

func TestController_DetectionDuringSearchReturnsToTrack(t *testing.T) {
	c, clock, pose := newTestController(DefaultConfig())
	enterSearch(t, c, clock, pose)

	for i := 0; i < 10; i++ {
		clock.Advance(100 * time.Millisecond)
		pose.apply(c.Update(frame640, nil))
	}
	sweptPan, sweptTilt := pose.LastCommand()
	assert.Equal(t, -10, sweptPan)

	clock.Advance(100 * time.Millisecond)
	out := c.Update(frame640, []tracking.Detection{centred(0.7)})
	assert.Equal(t, ModeTrack, out.Mode)
	assert.Equal(t, ModeTrack, c.Mode())
	assert.Equal(t, 0, out.FramesSinceLastDetect)
	assert.Equal(t, 0, c.FramesSinceLastDetect())
	require.NotNil(t, out.Transition)
	assert.Equal(t, ModeSearch, out.Transition.From)
	assert.Equal(t, ModeTrack, out.Transition.To)

	// tracking resumes from where the sweep left the mount
	require.NotNil(t, out.Command)
	assert.InDelta(t, float64(sweptPan), out.Command.Pan, 1e-9)
	assert.InDelta(t, float64(sweptTilt), out.Command.Tilt, 1e-9)
}

func TestController_SearchResumesHeading(t *testing.T) {
	c, clock, pose := newTestController(DefaultConfig())
	enterSearch(t, c, clock, pose)

	// sweep left from pan 0 until the pan direction reverses at -85
	for i := 0; i < 85; i++ {
		clock.Advance(100 * time.Millisecond)
		pose.apply(c.Update(frame640, nil))
	}
	pan, _ := pose.LastCommand()
	require.Equal(t, -85, pan)

	// reacquire, then lose the target again
	clock.Advance(100 * time.Millisecond)
	pose.apply(c.Update(frame640, []tracking.Detection{centred(0.9)}))
	enterSearch(t, c, clock, pose)

	before, _ := pose.LastCommand()
	clock.Advance(100 * time.Millisecond)
	out := c.Update(frame640, nil)
	require.NotNil(t, out.Command)
	after, _ := out.Command.Rounded()
	assert.Equal(t, before+1, after, "sweep continues rightwards after the earlier reversal")
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "track", ModeTrack.String())
	assert.Equal(t, "search", ModeSearch.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}
