package main

import (
	"context"
	"fmt"

	"github.com/banshee-data/ptz-tracker/internal/camera"
	"github.com/banshee-data/ptz-tracker/internal/detection"
	"github.com/banshee-data/ptz-tracker/internal/servo"
	"github.com/banshee-data/ptz-tracker/internal/tracking"
)

// cameraSource adapts camera.Capture to servo.FrameSource.
type cameraSource struct {
	*camera.Capture
}

func (s cameraSource) NextFrame(ctx context.Context) (servo.Frame, error) {
	f, err := s.Capture.NextFrame(ctx)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// yoloDetector adapts detection.YOLODetector to servo.Detector.
type yoloDetector struct {
	*detection.YOLODetector
}

func (d yoloDetector) Detect(ctx context.Context, frame servo.Frame) ([]tracking.Detection, error) {
	f, ok := frame.(*camera.Frame)
	if !ok {
		return nil, fmt.Errorf("unsupported frame type %T", frame)
	}
	return d.YOLODetector.Detect(ctx, f.Mat)
}
