// Package detect turns video frames into raw detections.
package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// Result is one frame's worth of raw detections as parallel slices.
type Result struct {
	Rects       []image.Rectangle
	ClassNames  []string
	Confidences []float64
}

// Provider runs an object detector on frames.
type Provider interface {
	Detect(frame gocv.Mat) (*Result, error)
	Close() error
}
