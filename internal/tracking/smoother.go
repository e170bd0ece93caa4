package tracking

import "gonum.org/v1/gonum/stat"

// DefaultSmoothingWindow is the number of commands averaged per axis.
const DefaultSmoothingWindow = 5

// CommandHistory is a bounded FIFO of recent commands for one axis. Push
// returns the moving average over the retained values.
type CommandHistory struct {
	window int
	values []float64
}

// NewCommandHistory creates a history holding at most window values. A window
// below 1 falls back to DefaultSmoothingWindow.
func NewCommandHistory(window int) *CommandHistory {
	if window < 1 {
		window = DefaultSmoothingWindow
	}
	return &CommandHistory{window: window, values: make([]float64, 0, window+1)}
}

// Push appends v, evicts the oldest value beyond the window and returns the
// arithmetic mean of what remains.
func (h *CommandHistory) Push(v float64) float64 {
	h.values = append(h.values, v)
	if len(h.values) > h.window {
		h.values = append(h.values[:0], h.values[1:]...)
	}
	return stat.Mean(h.values, nil)
}

// Len returns the number of retained values.
func (h *CommandHistory) Len() int { return len(h.values) }

// Values returns a copy of the retained values, oldest first.
func (h *CommandHistory) Values() []float64 {
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}

// Reset drops all retained values.
func (h *CommandHistory) Reset() { h.values = h.values[:0] }
