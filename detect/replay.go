package detect

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// ReplayDetection is one recorded detection: box corners (x1, y1, x2, y2)
// in pixels, class label and confidence.
type ReplayDetection struct {
	Box        [4]float64 `json:"box"`
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
}

// ReplayFrame is one recorded frame. Width and Height carry the source
// frame size when the recording has it, 0 otherwise.
type ReplayFrame struct {
	Width      int               `json:"width,omitempty"`
	Height     int               `json:"height,omitempty"`
	Detections []ReplayDetection `json:"detections"`
}

// Replay plays back recorded detection frames from a file holding one
// JSON object per line. It stands in for the capture and detector pair,
// so the pipeline can run without a camera or a model.
type Replay struct {
	file    *os.File
	decoder *json.Decoder
}

// OpenReplay opens a recording.
func OpenReplay(path string) (*Replay, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open replay file")
	}
	return &Replay{
		file:    file,
		decoder: json.NewDecoder(file),
	}, nil
}

// Next returns the next recorded frame, io.EOF after the last one.
func (r *Replay) Next() (*ReplayFrame, error) {
	var frame ReplayFrame
	if err := r.decoder.Decode(&frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

// Close closes the recording.
func (r *Replay) Close() error {
	return r.file.Close()
}
