// Package track assigns persistent identities to per-frame detections.
package track

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/roadmetrics/vcount/count"
)

// Observation is a single detector output for one frame: a bounding box
// with its class label and confidence, no identity attached yet.
type Observation struct {
	Box        count.Rectangle
	Class      string
	Confidence float64
}

// Blob is one tracked object: an 8-state Kalman filter over the bounding
// box (center, size and their velocities) plus the counting identity the
// tracker assigned when the blob was registered.
type Blob struct {
	key        uuid.UUID
	identity   count.TrackID
	bbox       count.Rectangle
	predicted  count.Rectangle
	class      string
	confidence float64
	active     bool
	noMatch    int
	filter     *kalman_filter.KalmanBBox
}

// NewBlobWithTime spawns a blob from an observation with the given filter
// time step (seconds between frames).
func NewBlobWithTime(obs Observation, dt float64) *Blob {
	center := obs.Box.Center()

	// Kalman filter props
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	filter := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(center.X, center.Y, obs.Box.Width, obs.Box.Height),
	)

	return &Blob{
		key:        uuid.New(),
		bbox:       obs.Box,
		predicted:  obs.Box,
		class:      obs.Class,
		confidence: obs.Confidence,
		filter:     filter,
	}
}

// NewBlob spawns a blob with the default time step of 1.0.
func NewBlob(obs Observation) *Blob {
	return NewBlobWithTime(obs, 1.0)
}

// Key returns the blob's storage key.
func (blob *Blob) Key() uuid.UUID {
	return blob.key
}

// Identity returns the counting identity, 0 until the blob is registered.
func (blob *Blob) Identity() count.TrackID {
	return blob.identity
}

// BBox returns the current smoothed bounding box.
func (blob *Blob) BBox() count.Rectangle {
	return blob.bbox
}

// Predicted returns the bounding box predicted by the filter for the
// current frame.
func (blob *Blob) Predicted() count.Rectangle {
	return blob.predicted
}

// Class returns the latest class label.
func (blob *Blob) Class() string {
	return blob.class
}

// Confidence returns the latest detector confidence.
func (blob *Blob) Confidence() float64 {
	return blob.confidence
}

// Activate marks the blob as confirmed.
func (blob *Blob) Activate() {
	blob.active = true
}

// Active reports whether the blob has been confirmed.
func (blob *Blob) Active() bool {
	return blob.active
}

// NoMatchTimes returns for how many consecutive frames the blob went
// unmatched.
func (blob *Blob) NoMatchTimes() int {
	return blob.noMatch
}

// IncNoMatch increments the unmatched frames counter.
func (blob *Blob) IncNoMatch() {
	blob.noMatch++
}

// PredictNextPosition executes the filter prediction step and refreshes
// the predicted bounding box.
func (blob *Blob) PredictNextPosition() {
	blob.filter.Predict()
	cx, cy, w, h := blob.filter.GetState()
	blob.predicted = count.Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
}

// Update feeds a matched observation through the filter update step and
// refreshes the blob with the smoothed state.
func (blob *Blob) Update(obs Observation) error {
	center := obs.Box.Center()
	err := blob.filter.Update(center.X, center.Y, obs.Box.Width, obs.Box.Height)
	if err != nil {
		return errors.Wrap(err, "Can't update object tracker")
	}
	cx, cy, w, h := blob.filter.GetState()
	blob.bbox = count.Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
	blob.class = obs.Class
	blob.confidence = obs.Confidence
	blob.noMatch = 0
	return nil
}

// Velocity returns the filter's velocity estimates: vx, vy, vw, vh.
func (blob *Blob) Velocity() (float64, float64, float64, float64) {
	return blob.filter.GetVelocity()
}

// Detection renders the blob as a counting detection.
func (blob *Blob) Detection() count.Detection {
	return count.Detection{
		ID:         blob.identity,
		Class:      blob.class,
		Box:        blob.bbox,
		Confidence: blob.confidence,
	}
}
