// Package camera reads frames from a video device or file and applies a
// centred digital zoom.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"github.com/banshee-data/ptz-tracker/internal/monitoring"
)

var logf = monitoring.Componentf("camera")

// ErrCameraClosed is returned by NextFrame after Close.
var ErrCameraClosed = errors.New("camera closed")

// Frame is one captured BGR image. The caller owns it and must Close it.
type Frame struct {
	Mat gocv.Mat
}

func (f *Frame) Size() (width, height int) { return f.Mat.Cols(), f.Mat.Rows() }

func (f *Frame) Close() error { return f.Mat.Close() }

// Capture is a frame source backed by gocv.VideoCapture.
type Capture struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	buf    gocv.Mat
	bounds ZoomBounds
	zoom   float64
	closed bool
}

// Open opens source, which is either a path to a video file or a numeric
// device ID.
func Open(source string, bounds ZoomBounds) (*Capture, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	if _, statErr := os.Stat(source); statErr == nil {
		vc, err = gocv.VideoCaptureFile(source)
	} else {
		id, convErr := strconv.Atoi(source)
		if convErr != nil {
			return nil, fmt.Errorf("camera source %q is neither a file nor a device ID", source)
		}
		vc, err = gocv.VideoCaptureDevice(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %s: %w", source, err)
	}
	logf("opened %s (%.0fx%.0f)", source, vc.Get(gocv.VideoCaptureFrameWidth), vc.Get(gocv.VideoCaptureFrameHeight))
	return &Capture{vc: vc, buf: gocv.NewMat(), bounds: bounds, zoom: bounds.Min}, nil
}

// SetZoom sets the zoom applied to subsequent frames, clamped to the bounds.
func (c *Capture) SetZoom(z float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = c.bounds.Clamp(z)
}

// NextFrame reads one frame. A failed read means the stream has ended and is
// reported as io.EOF.
func (c *Capture) NextFrame(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCameraClosed
	}
	if ok := c.vc.Read(&c.buf); !ok || c.buf.Empty() {
		return nil, io.EOF
	}

	w, h := c.buf.Cols(), c.buf.Rows()
	if c.zoom <= 1 {
		return &Frame{Mat: c.buf.Clone()}, nil
	}
	region := c.buf.Region(CropRect(w, h, c.zoom))
	defer region.Close()
	out := gocv.NewMat()
	gocv.Resize(region, &out, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
	return &Frame{Mat: out}, nil
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.buf.Close()
	return c.vc.Close()
}
