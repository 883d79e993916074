package count

import "sync"

// MaxTrackPoints is the default bound on per-identity trajectory history.
const MaxTrackPoints = 30

// TrackStore keeps the bounded centroid trajectory of every identity seen
// since the last reset, plus two per-frame snapshots: all detections of
// the current frame and the subset inside the region. Snapshots are
// replaced wholesale at the end of each frame, so concurrent readers
// never observe a half-built frame.
type TrackStore struct {
	mu        sync.RWMutex
	maxPoints int
	history   map[TrackID][]Point
	frameAll  map[TrackID]Detection
	frameROI  map[TrackID]Detection
}

// NewTrackStore creates a store bounding each trajectory at maxPoints.
// Non-positive maxPoints falls back to MaxTrackPoints.
func NewTrackStore(maxPoints int) *TrackStore {
	if maxPoints <= 0 {
		maxPoints = MaxTrackPoints
	}
	return &TrackStore{
		maxPoints: maxPoints,
		history:   make(map[TrackID][]Point),
		frameAll:  make(map[TrackID]Detection),
		frameROI:  make(map[TrackID]Detection),
	}
}

// RecordSighting appends the box centroid to the identity's trajectory,
// evicting the oldest point once the bound is exceeded.
func (s *TrackStore) RecordSighting(id TrackID, box Rectangle) {
	s.mu.Lock()
	track := append(s.history[id], box.Center())
	if len(track) > s.maxPoints {
		track = track[1:]
	}
	s.history[id] = track
	s.mu.Unlock()
}

// History returns a copy of the identity's trajectory, oldest point first.
func (s *TrackStore) History(id TrackID) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	track := s.history[id]
	if len(track) == 0 {
		return nil
	}
	out := make([]Point, len(track))
	copy(out, track)
	return out
}

// ReplaceFrame swaps in the snapshots of a freshly processed frame.
func (s *TrackStore) ReplaceFrame(all, inROI map[TrackID]Detection) {
	if all == nil {
		all = make(map[TrackID]Detection)
	}
	if inROI == nil {
		inROI = make(map[TrackID]Detection)
	}
	s.mu.Lock()
	s.frameAll = all
	s.frameROI = inROI
	s.mu.Unlock()
}

// FrameAll returns a copy of the current frame's full detection snapshot.
func (s *TrackStore) FrameAll() map[TrackID]Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFrame(s.frameAll)
}

// FrameInROI returns a copy of the current frame's in-region snapshot.
func (s *TrackStore) FrameInROI() map[TrackID]Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFrame(s.frameROI)
}

func copyFrame(frame map[TrackID]Detection) map[TrackID]Detection {
	out := make(map[TrackID]Detection, len(frame))
	for id, det := range frame {
		out[id] = det
	}
	return out
}

// Reset drops all trajectories and both snapshots.
func (s *TrackStore) Reset() {
	s.mu.Lock()
	s.history = make(map[TrackID][]Point)
	s.frameAll = make(map[TrackID]Detection)
	s.frameROI = make(map[TrackID]Detection)
	s.mu.Unlock()
}
