package tracking

import "math"

// minFillRatio is the fill ratio below which a box is treated as degenerate.
const minFillRatio = 0.01

// ZoomConfig bounds and tunes the digital zoom controller.
type ZoomConfig struct {
	Min             float64
	Max             float64
	TargetFillRatio float64
	// CenterThreshold is the centering score below which zoom is capped.
	CenterThreshold float64
}

// DefaultZoomConfig returns a 1x-2x zoom aiming for a 60% fill ratio.
func DefaultZoomConfig() ZoomConfig {
	return ZoomConfig{
		Min:             1.0,
		Max:             2.0,
		TargetFillRatio: 0.6,
		CenterThreshold: 0.7,
	}
}

// ZoomController derives a digital zoom factor from detection geometry.
type ZoomController struct {
	cfg ZoomConfig
}

// NewZoomController creates a controller for the given bounds.
func NewZoomController(cfg ZoomConfig) ZoomController {
	return ZoomController{cfg: cfg}
}

// Clamp bounds f to [Min, Max].
func (z ZoomController) Clamp(f float64) float64 {
	return math.Max(z.cfg.Min, math.Min(f, z.cfg.Max))
}

// CalculateZoom returns the zoom factor that would make the box fill
// TargetFillRatio of the frame. Box dimensions are measured in the currently
// zoomed frame, so they are divided by currZoom to recover their native size.
// Off-centre targets get a lower ceiling so that zooming in does not push them
// out of frame. The result is always within [Min, Max].
func (z ZoomController) CalculateZoom(center Point, boxW, boxH, frameW, frameH, currZoom float64) float64 {
	if frameW <= 0 || frameH <= 0 {
		return z.Clamp(1.0)
	}
	if currZoom <= 0 {
		currZoom = 1.0
	}

	widthRatio := (boxW / currZoom) / frameW
	heightRatio := (boxH / currZoom) / frameH
	fillRatio := math.Max(widthRatio, heightRatio)
	if fillRatio < minFillRatio {
		return z.Clamp(1.0)
	}

	target := z.Clamp(z.cfg.TargetFillRatio / fillRatio)

	score := CenterScore(center, frameW, frameH)
	if score < z.cfg.CenterThreshold {
		maxAllowed := 1.0 + (z.cfg.Max-1.0)*score
		target = math.Min(target, maxAllowed)
	}
	return z.Clamp(target)
}

// CenterScore rates how close center is to the middle of the frame: 1 when
// exactly centred, falling linearly with the mean normalised offset of both
// axes, floored at 0.
func CenterScore(center Point, frameW, frameH float64) float64 {
	if frameW <= 0 || frameH <= 0 {
		return 0
	}
	xRatio := math.Abs(center.X-frameW/2) / (frameW / 2)
	yRatio := math.Abs(center.Y-frameH/2) / (frameH / 2)
	return math.Max(0, 1.0-(xRatio+yRatio)/2)
}
