package track

import (
	"testing"

	"github.com/google/uuid"

	"github.com/roadmetrics/vcount/count"
)

func obsAt(x, y, w, h float64) Observation {
	return Observation{
		Box:        count.NewRect(x, y, w, h),
		Class:      "car",
		Confidence: 0.9,
	}
}

func TestNewBlob(t *testing.T) {
	blob := NewBlob(obsAt(100, 100, 50, 50))
	if blob.Key() == uuid.Nil {
		t.Error("Blob should get a storage key")
	}
	if blob.Identity() != 0 {
		t.Errorf("Unregistered blob should have identity 0, but got %d", blob.Identity())
	}
	if blob.Class() != "car" {
		t.Errorf("Class should be car, but got %s", blob.Class())
	}
	center := blob.BBox().Center()
	if center.X != 125.0 || center.Y != 125.0 {
		t.Errorf("Center should be (125, 125), but got (%f, %f)", center.X, center.Y)
	}
	if blob.Active() {
		t.Error("Fresh blob should not be active")
	}
	if blob.NoMatchTimes() != 0 {
		t.Errorf("Fresh blob should have 0 unmatched frames, but got %d", blob.NoMatchTimes())
	}
}

func TestBlobUpdate(t *testing.T) {
	blob := NewBlob(obsAt(100, 100, 50, 50))
	blob.PredictNextPosition()
	blob.IncNoMatch()

	err := blob.Update(Observation{Box: count.NewRect(110, 100, 50, 50), Class: "truck", Confidence: 0.7})
	if err != nil {
		t.Fatalf("Update should succeed: %v", err)
	}
	if blob.NoMatchTimes() != 0 {
		t.Errorf("Update should reset the unmatched counter, but got %d", blob.NoMatchTimes())
	}
	if blob.Class() != "truck" || blob.Confidence() != 0.7 {
		t.Errorf("Update should refresh class and confidence, but got (%s, %f)", blob.Class(), blob.Confidence())
	}
	// The smoothed center lands between the previous state and the
	// measurement.
	center := blob.BBox().Center()
	if center.X < 124.0 || center.X > 136.0 {
		t.Errorf("Smoothed center X should stay within [124, 136], but got %f", center.X)
	}
}

func TestBlobVelocity(t *testing.T) {
	dt := 1.0 / 25.0
	blob := NewBlobWithTime(obsAt(100, 200, 60, 40), dt)
	for i := 1; i <= 10; i++ {
		blob.PredictNextPosition()
		err := blob.Update(obsAt(100+float64(i)*20, 200, 60, 40))
		if err != nil {
			t.Fatalf("Update %d should succeed: %v", i, err)
		}
	}
	vx, vy, _, _ := blob.Velocity()
	if vx <= 0.0 {
		t.Errorf("Object moving right should have positive X velocity, but got %f", vx)
	}
	if vy > vx {
		t.Errorf("Object moving horizontally should have vy below vx, but got vy=%f vx=%f", vy, vx)
	}
}

func TestBlobDetection(t *testing.T) {
	blob := NewBlob(obsAt(10, 20, 30, 40))
	blob.identity = 42
	det := blob.Detection()
	if det.ID != 42 {
		t.Errorf("Detection identity should be 42, but got %d", det.ID)
	}
	if det.Class != "car" || det.Confidence != 0.9 {
		t.Errorf("Detection should carry class and confidence, but got (%s, %f)", det.Class, det.Confidence)
	}
	if det.Box != blob.BBox() {
		t.Error("Detection should carry the blob's current box")
	}
}
