package camera

import (
	"image"
	"math"
)

// ZoomBounds limit the digital zoom factor.
type ZoomBounds struct {
	Min float64
	Max float64
}

// DefaultZoomBounds allow 1x to 2x.
var DefaultZoomBounds = ZoomBounds{Min: 1, Max: 2}

// Clamp limits z to the bounds. NaN clamps to Min.
func (b ZoomBounds) Clamp(z float64) float64 {
	if math.IsNaN(z) || z < b.Min {
		return b.Min
	}
	if z > b.Max {
		return b.Max
	}
	return z
}

// CropRect is the centred region of a width x height frame that, scaled back
// up to the full frame, gives zoom. Zoom below 1 is treated as 1.
func CropRect(width, height int, zoom float64) image.Rectangle {
	if zoom < 1 || math.IsNaN(zoom) {
		zoom = 1
	}
	w := int(float64(width) / zoom)
	h := int(float64(height) / zoom)
	x := (width - w) / 2
	y := (height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}
