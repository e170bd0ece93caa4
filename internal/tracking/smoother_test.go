package tracking

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCommandHistory_IdenticalValues(t *testing.T) {
	h := NewCommandHistory(5)
	var out float64
	for i := 0; i < 5; i++ {
		out = h.Push(42.5)
	}
	assert.InDelta(t, 42.5, out, 1e-9)
}

func TestCommandHistory_Lag(t *testing.T) {
	h := NewCommandHistory(5)
	var out float64
	for v := 1.0; v <= 7; v++ {
		out = h.Push(v)
		if v > 1 {
			assert.Less(t, out, v, "smoothed output must lag the raw value")
		}
	}
	// mean of 3..7
	assert.InDelta(t, 5.0, out, 1e-9)
}

func TestCommandHistory_EvictsOldest(t *testing.T) {
	h := NewCommandHistory(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		h.Push(v)
	}
	if diff := cmp.Diff([]float64{3, 4, 5}, h.Values()); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, h.Len())
}

func TestCommandHistory_PartialWindow(t *testing.T) {
	h := NewCommandHistory(5)
	assert.InDelta(t, 10.0, h.Push(10), 1e-9)
	assert.InDelta(t, 15.0, h.Push(20), 1e-9)
}

func TestCommandHistory_DefaultWindowAndReset(t *testing.T) {
	h := NewCommandHistory(0)
	for i := 0; i < 10; i++ {
		h.Push(float64(i))
	}
	assert.Equal(t, DefaultSmoothingWindow, h.Len())

	h.Reset()
	assert.Zero(t, h.Len())
	assert.InDelta(t, -3.0, h.Push(-3), 1e-9)
}
