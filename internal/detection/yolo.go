// Package detection runs a YOLO network over camera frames with the OpenCV
// DNN module.
package detection

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/banshee-data/ptz-tracker/internal/monitoring"
	"github.com/banshee-data/ptz-tracker/internal/tracking"
)

var logf = monitoring.Componentf("detection")

const defaultNMSThreshold = 0.45

// Options configure a YOLODetector.
type Options struct {
	// InputSize is the square network input. Zero selects DefaultInputSize.
	InputSize    int
	Filter       Filter
	NMSThreshold float64
	// CUDA selects the CUDA backend instead of the CPU.
	CUDA bool
}

// YOLODetector runs a darknet or ONNX YOLO model whose output rows are
// [cx, cy, w, h, objectness, class scores...] normalised to the input size.
type YOLODetector struct {
	net  gocv.Net
	opts Options
	// busy holds a token while the net is in use; gocv.Net is not safe for
	// concurrent use and a timed-out inference keeps running.
	busy chan struct{}
}

// NewYOLODetector loads the model. config may be empty for single-file
// formats such as ONNX.
func NewYOLODetector(model, config string, opts Options) (*YOLODetector, error) {
	net := gocv.ReadNet(model, config)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO network from %s and %s", model, config)
	}
	if opts.CUDA {
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
	}
	if opts.InputSize <= 0 {
		opts.InputSize = DefaultInputSize
	}
	if opts.NMSThreshold <= 0 {
		opts.NMSThreshold = defaultNMSThreshold
	}
	logf("loaded %s (input %dx%d, classes %v, min confidence %.2f)",
		model, opts.InputSize, opts.InputSize, opts.Filter.ClassIDs, opts.Filter.MinConfidence)
	return &YOLODetector{net: net, opts: opts, busy: make(chan struct{}, 1)}, nil
}

// Detect runs the network on frame. If ctx ends first Detect returns its error
// and the inference finishes in the background.
func (d *YOLODetector) Detect(ctx context.Context, frame gocv.Mat) ([]tracking.Detection, error) {
	select {
	case d.busy <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	input := frame.Clone()
	type result struct {
		dets []tracking.Detection
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() { <-d.busy }()
		defer input.Close()
		dets, err := d.infer(input)
		done <- result{dets, err}
	}()

	select {
	case r := <-done:
		return r.dets, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *YOLODetector) letterbox(frame gocv.Mat) (gocv.Mat, Letterbox) {
	size := d.opts.InputSize
	lb := NewLetterbox(frame.Cols(), frame.Rows(), size)

	padded := gocv.NewMatWithSizeWithScalar(size, size, gocv.MatTypeCV8UC3, gocv.NewScalar(0, 0, 0, 0))
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(frame, &resized, image.Pt(lb.ContentW, lb.ContentH), 0, 0, gocv.InterpolationLinear)

	content := padded.Region(image.Rect(lb.PadX, lb.PadY, lb.PadX+lb.ContentW, lb.PadY+lb.ContentH))
	defer content.Close()
	resized.CopyTo(&content)
	return padded, lb
}

func (d *YOLODetector) infer(frame gocv.Mat) ([]tracking.Detection, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}
	padded, lb := d.letterbox(frame)
	defer padded.Close()

	blob := gocv.BlobFromImage(padded, 1.0/255.0, image.Pt(lb.Size, lb.Size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()
	if output.Cols() <= 5 {
		return nil, fmt.Errorf("unexpected YOLO output shape %dx%d", output.Rows(), output.Cols())
	}

	var dets []tracking.Detection
	for i := 0; i < output.Rows(); i++ {
		row := output.RowRange(i, i+1)
		scores := row.ColRange(5, row.Cols())
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(scores)
		classID, confidence := maxLoc.X, float64(maxVal)

		if d.opts.Filter.Keep(classID, confidence) {
			box := lb.ToFrame(
				float64(row.GetFloatAt(0, 0)),
				float64(row.GetFloatAt(0, 1)),
				float64(row.GetFloatAt(0, 2)),
				float64(row.GetFloatAt(0, 3)),
			)
			dets = append(dets, tracking.Detection{Box: box, Confidence: confidence, ClassID: classID})
		}
		scores.Close()
		row.Close()
	}
	return SuppressOverlaps(dets, d.opts.NMSThreshold), nil
}

func (d *YOLODetector) Close() error {
	// wait for any background inference before releasing the net
	d.busy <- struct{}{}
	return d.net.Close()
}
