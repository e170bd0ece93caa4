package detection

import (
	"slices"

	"github.com/banshee-data/ptz-tracker/internal/tracking"
)

// DefaultInputSize is the square network input the YOLO models were
// exported with.
const DefaultInputSize = 832

// Letterbox maps between a frame and the square network input it was fitted
// into with its aspect ratio preserved.
type Letterbox struct {
	Size     int
	Scale    float64
	PadX     int
	PadY     int
	ContentW int
	ContentH int
}

// NewLetterbox fits a width x height frame into a size x size square.
func NewLetterbox(width, height, size int) Letterbox {
	lb := Letterbox{Size: size}
	if width <= 0 || height <= 0 {
		return lb
	}
	if width >= height {
		lb.Scale = float64(size) / float64(width)
		lb.ContentW, lb.ContentH = size, height*size/width
	} else {
		lb.Scale = float64(size) / float64(height)
		lb.ContentW, lb.ContentH = width*size/height, size
	}
	lb.PadX = (size - lb.ContentW) / 2
	lb.PadY = (size - lb.ContentH) / 2
	return lb
}

// ToFrame converts a box given as normalised centre and size in network input
// space into frame pixels.
func (l Letterbox) ToFrame(cx, cy, w, h float64) tracking.BoundingBox {
	if l.Scale == 0 {
		return tracking.BoundingBox{}
	}
	size := float64(l.Size)
	px := (cx*size - float64(l.PadX)) / l.Scale
	py := (cy*size - float64(l.PadY)) / l.Scale
	pw := w * size / l.Scale
	ph := h * size / l.Scale
	return tracking.BoundingBox{X1: px - pw/2, Y1: py - ph/2, X2: px + pw/2, Y2: py + ph/2}
}

// Filter keeps detections of the wanted classes above a confidence floor.
type Filter struct {
	// ClassIDs to keep. Empty keeps every class.
	ClassIDs      []int
	MinConfidence float64
}

// Keep reports whether a raw detection passes the filter.
func (f Filter) Keep(classID int, confidence float64) bool {
	if confidence <= f.MinConfidence {
		return false
	}
	return len(f.ClassIDs) == 0 || slices.Contains(f.ClassIDs, classID)
}

func iou(a, b tracking.BoundingBox) float64 {
	ix := min(a.X2, b.X2) - max(a.X1, b.X1)
	iy := min(a.Y2, b.Y2) - max(a.Y1, b.Y1)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := a.Width()*a.Height() + b.Width()*b.Height() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// SuppressOverlaps performs greedy per-class non-maximum suppression: of any
// two same-class boxes overlapping by more than threshold IoU only the more
// confident survives. The result is ordered by descending confidence.
func SuppressOverlaps(dets []tracking.Detection, threshold float64) []tracking.Detection {
	sorted := slices.Clone(dets)
	slices.SortStableFunc(sorted, func(a, b tracking.Detection) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		}
		return 0
	})

	var kept []tracking.Detection
	for _, d := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == d.ClassID && iou(k.Box, d.Box) > threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, d)
		}
	}
	return kept
}
