// Package video wraps frame capture and pre-detection frame filters.
package video

import (
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Capture is a frame source: a video file or a webcam.
type Capture struct {
	vc *gocv.VideoCapture
}

// OpenSource opens src as a device index when it parses as an integer,
// otherwise as a file path.
func OpenSource(src string) (*Capture, error) {
	if deviceID, err := strconv.Atoi(src); err == nil {
		vc, err := gocv.VideoCaptureDevice(deviceID)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't open capture device %d", deviceID)
		}
		return &Capture{vc: vc}, nil
	}
	vc, err := gocv.VideoCaptureFile(src)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open video file %s", src)
	}
	return &Capture{vc: vc}, nil
}

// Read fetches the next frame into dst. False means the stream ended.
func (c *Capture) Read(dst *gocv.Mat) bool {
	if ok := c.vc.Read(dst); !ok {
		return false
	}
	return !dst.Empty()
}

// Close releases the underlying capture.
func (c *Capture) Close() error {
	return c.vc.Close()
}
