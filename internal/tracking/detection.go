package tracking

import (
	"cmp"
	"fmt"
	"slices"
)

// Point is a pixel coordinate.
type Point struct {
	X, Y float64
}

// BoundingBox is an axis-aligned box in pixel coordinates, (X1,Y1) top-left and
// (X2,Y2) bottom-right.
type BoundingBox struct {
	X1, Y1, X2, Y2 float64
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Detection is a single detector output for one frame.
type Detection struct {
	Box        BoundingBox
	Confidence float64
	ClassID    int
}

func (d Detection) String() string {
	return fmt.Sprintf("class=%d conf=%.2f box=(%.0f,%.0f,%.0f,%.0f)",
		d.ClassID, d.Confidence, d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
}

// Best returns the most confident detection. Detections sharing the highest
// confidence resolve to the earliest one in the input order. The input slice is
// not reordered.
func Best(detections []Detection) (Detection, bool) {
	if len(detections) == 0 {
		return Detection{}, false
	}
	sorted := slices.Clone(detections)
	slices.SortStableFunc(sorted, func(a, b Detection) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return sorted[0], true
}
