// Package count implements region-gated vehicle counting over tracked
// detections: a polygon region of interest, per-identity track state and
// a counting engine that counts every identity at most once per session.
package count

import "sync"

// TrackID is the persistent identity an upstream tracker assigned to an
// object. The counting engine treats it as an opaque key.
type TrackID int64

// ClassUnknown is the counting bucket for class labels outside the
// configured vocabulary.
const ClassUnknown = "unknown"

// DefaultClasses is the default vehicle vocabulary.
var DefaultClasses = []string{"car", "motorcycle", "bus", "truck"}

// Detection is one tracked object in one frame.
type Detection struct {
	ID         TrackID   `json:"id"`
	Class      string    `json:"class"`
	Box        Rectangle `json:"box"`
	Confidence float64   `json:"confidence"`
}

// CountEvent records the moment an identity was counted.
type CountEvent struct {
	ID    TrackID `json:"id"`
	Class string  `json:"class"`
	Total int     `json:"total"`
}

// FrameResult summarizes one processed frame.
type FrameResult struct {
	// Events holds a count event per identity counted this frame, in
	// the order the detections arrived.
	Events []CountEvent
	// Seen is the number of accepted detections.
	Seen int
	// InROI is how many accepted detections classified as inside the
	// region.
	InROI int
	// Rejected is how many detections were dropped as malformed.
	Rejected int
}

// Config tunes a counting session.
type Config struct {
	// Classes is the recognized class vocabulary. Empty means
	// DefaultClasses.
	Classes []string
	// MaxTrackPoints bounds per-identity trajectory history.
	// Non-positive means MaxTrackPoints.
	MaxTrackPoints int
}

// DefaultConfig returns the stock session tuning.
func DefaultConfig() Config {
	return Config{
		Classes:        DefaultClasses,
		MaxTrackPoints: MaxTrackPoints,
	}
}

// Session owns all counting state accumulated between resets: the set of
// counted identities, per-class totals and the track store. One session
// corresponds to one camera run.
type Session struct {
	region *Region
	store  *TrackStore

	mu      sync.RWMutex
	classes map[string]struct{}
	counted map[TrackID]struct{}
	byClass map[string]int
}

// NewSession creates a session counting inside the given region. A nil
// region starts undefined, so everything counts until one is confirmed.
func NewSession(region *Region, cfg Config) *Session {
	if region == nil {
		region = &Region{}
	}
	classes := cfg.Classes
	if len(classes) == 0 {
		classes = DefaultClasses
	}
	vocab := make(map[string]struct{}, len(classes))
	for _, class := range classes {
		vocab[class] = struct{}{}
	}
	return &Session{
		region:  region,
		store:   NewTrackStore(cfg.MaxTrackPoints),
		classes: vocab,
		counted: make(map[TrackID]struct{}),
		byClass: make(map[string]int),
	}
}

// Region returns the session's region manager.
func (s *Session) Region() *Region {
	return s.region
}

// ProcessFrame ingests one frame of tracked detections. Every accepted
// detection extends its identity's trajectory and lands in the frame
// snapshot; detections inside the region land in the region snapshot and
// are counted the first time their identity qualifies. Detections with a
// negative-sized box are rejected individually and the rest of the frame
// proceeds. An empty frame still swaps in empty snapshots.
func (s *Session) ProcessFrame(detections []Detection) FrameResult {
	all := make(map[TrackID]Detection, len(detections))
	inROI := make(map[TrackID]Detection, len(detections))
	var res FrameResult

	s.mu.Lock()
	for _, det := range detections {
		if !det.Box.Valid() {
			res.Rejected++
			continue
		}
		res.Seen++
		all[det.ID] = det
		s.store.RecordSighting(det.ID, det.Box)
		if !s.region.ContainsBox(det.Box) {
			continue
		}
		inROI[det.ID] = det
		res.InROI++
		if _, done := s.counted[det.ID]; done {
			continue
		}
		s.counted[det.ID] = struct{}{}
		class := s.normalizeClass(det.Class)
		s.byClass[class]++
		res.Events = append(res.Events, CountEvent{
			ID:    det.ID,
			Class: class,
			Total: len(s.counted),
		})
	}
	s.mu.Unlock()

	s.store.ReplaceFrame(all, inROI)
	return res
}

// normalizeClass maps labels outside the vocabulary to ClassUnknown.
// Callers must hold s.mu.
func (s *Session) normalizeClass(class string) string {
	if _, ok := s.classes[class]; ok {
		return class
	}
	return ClassUnknown
}

// Total returns how many identities have been counted.
func (s *Session) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counted)
}

// ByClass returns a copy of the per-class totals. The values always sum
// to Total.
func (s *Session) ByClass() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.byClass))
	for class, n := range s.byClass {
		out[class] = n
	}
	return out
}

// History returns the identity's trajectory, oldest point first.
func (s *Session) History(id TrackID) []Point {
	return s.store.History(id)
}

// FrameAll returns the latest full detection snapshot.
func (s *Session) FrameAll() map[TrackID]Detection {
	return s.store.FrameAll()
}

// FrameInROI returns the latest in-region detection snapshot.
func (s *Session) FrameInROI() map[TrackID]Detection {
	return s.store.FrameInROI()
}

// Reset clears the counted set, the per-class totals and the track store.
// The region definition survives. Resetting an already clean session is a
// no-op.
func (s *Session) Reset() {
	s.mu.Lock()
	s.counted = make(map[TrackID]struct{})
	s.byClass = make(map[string]int)
	s.mu.Unlock()
	s.store.Reset()
}
