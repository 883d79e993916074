package track

import (
	"fmt"

	hungarian "github.com/arthurkushman/go-hungarian"
	"github.com/google/uuid"

	"github.com/roadmetrics/vcount/count"
)

// MatchingAlgorithm selects how observations are assigned to tracks.
type MatchingAlgorithm uint16

const (
	// MatchingHungarian solves the assignment optimally (Kuhn-Munkres).
	MatchingHungarian MatchingAlgorithm = iota
	// MatchingGreedy takes pairs best score first. Faster, may be
	// suboptimal on crossing objects.
	MatchingGreedy
)

// Config tunes the tracker.
type Config struct {
	// MaxDisappeared is how many consecutive unmatched frames a track
	// survives before it is dropped.
	MaxDisappeared int
	// MinScore is the minimum match score to accept an assignment.
	MinScore float64
	// HighThresh is the confidence floor of the first matching stage.
	// Observations at or above it may also spawn new tracks.
	HighThresh float64
	// LowThresh is the confidence floor of the second matching stage.
	// Observations below it are ignored entirely.
	LowThresh float64
	// TimeStep is the filter time step in seconds, 1/fps.
	TimeStep float64
	// Algorithm selects the assignment strategy.
	Algorithm MatchingAlgorithm
}

// DefaultConfig returns tracker defaults suited to 25 fps road footage.
func DefaultConfig() Config {
	return Config{
		MaxDisappeared: 5,
		MinScore:       0.3,
		HighThresh:     0.5,
		LowThresh:      0.1,
		TimeStep:       1.0,
		Algorithm:      MatchingHungarian,
	}
}

// Tracker matches per-frame observations to live tracks in two stages:
// confident observations are matched first, the leftovers then pick up
// the remaining tracks. Unmatched confident observations spawn new
// tracks. Identities grow monotonically and are never reused within a
// session, objects lost longer than MaxDisappeared re-enter as new
// identities.
type Tracker struct {
	cfg    Config
	blobs  map[uuid.UUID]*Blob
	nextID count.TrackID
}

// NewTracker creates a tracker.
func NewTracker(cfg Config) *Tracker {
	if cfg.MaxDisappeared <= 0 {
		cfg.MaxDisappeared = 5
	}
	if cfg.TimeStep <= 0 {
		cfg.TimeStep = 1.0
	}
	return &Tracker{
		cfg:   cfg,
		blobs: make(map[uuid.UUID]*Blob),
	}
}

// blobPair pairs a storage key with the predicted box used for scoring.
type blobPair struct {
	key  uuid.UUID
	bbox count.Rectangle
}

// Track ingests one frame of observations and returns a detection for
// every blob seen this frame, identities attached, in observation order.
// Coasting blobs are kept alive internally but not reported.
func (t *Tracker) Track(observations []Observation) ([]count.Detection, error) {
	for _, blob := range t.blobs {
		blob.PredictNextPosition()
	}

	live := make([]blobPair, 0, len(t.blobs))
	for key, blob := range t.blobs {
		if blob.NoMatchTimes() < t.cfg.MaxDisappeared {
			live = append(live, blobPair{key: key, bbox: blob.Predicted()})
		}
	}

	var high, low []int
	for i, obs := range observations {
		switch {
		case obs.Confidence >= t.cfg.HighThresh:
			high = append(high, i)
		case obs.Confidence >= t.cfg.LowThresh:
			low = append(low, i)
		}
	}

	matched := make(map[uuid.UUID]struct{})
	assigned := make([]*Blob, len(observations))

	if err := t.matchStage(live, high, observations, matched, assigned); err != nil {
		return nil, fmt.Errorf("first matching stage: %w", err)
	}

	leftover := make([]blobPair, 0, len(live))
	for _, pair := range live {
		if _, ok := matched[pair.key]; !ok {
			leftover = append(leftover, pair)
		}
	}
	if err := t.matchStage(leftover, low, observations, matched, assigned); err != nil {
		return nil, fmt.Errorf("second matching stage: %w", err)
	}

	for _, idx := range high {
		if assigned[idx] != nil {
			continue
		}
		blob := NewBlobWithTime(observations[idx], t.cfg.TimeStep)
		blob.Activate()
		t.nextID++
		blob.identity = t.nextID
		t.blobs[blob.Key()] = blob
		matched[blob.Key()] = struct{}{}
		assigned[idx] = blob
	}

	for key, blob := range t.blobs {
		if _, ok := matched[key]; !ok {
			blob.IncNoMatch()
		}
	}
	for key, blob := range t.blobs {
		if blob.NoMatchTimes() >= t.cfg.MaxDisappeared {
			delete(t.blobs, key)
		}
	}

	detections := make([]count.Detection, 0, len(observations))
	for _, blob := range assigned {
		if blob != nil {
			detections = append(detections, blob.Detection())
		}
	}
	return detections, nil
}

// TrackCount returns the number of live tracks, coasting ones included.
func (t *Tracker) TrackCount() int {
	return len(t.blobs)
}

// matchStage assigns one stage's observations to the given tracks and
// applies the filter update on every accepted pair.
func (t *Tracker) matchStage(pairs []blobPair, obsIndices []int, observations []Observation, matched map[uuid.UUID]struct{}, assigned []*Blob) error {
	if len(pairs) == 0 || len(obsIndices) == 0 {
		return nil
	}
	scores := t.scoreMatrix(pairs, obsIndices, observations)
	var matches [][2]int
	switch t.cfg.Algorithm {
	case MatchingGreedy:
		matches = greedyMatches(scores, t.cfg.MinScore)
	default:
		matches = hungarianMatches(scores)
	}
	for _, match := range matches {
		row, col := match[0], match[1]
		if scores[row][col] < t.cfg.MinScore {
			continue
		}
		key := pairs[row].key
		blob, ok := t.blobs[key]
		if !ok {
			continue
		}
		obsIdx := obsIndices[col]
		if err := blob.Update(observations[obsIdx]); err != nil {
			return fmt.Errorf("update track %s: %w", key, err)
		}
		matched[key] = struct{}{}
		assigned[obsIdx] = blob
	}
	return nil
}

// scoreMatrix scores every track against every stage observation.
func (t *Tracker) scoreMatrix(pairs []blobPair, obsIndices []int, observations []Observation) [][]float64 {
	matrix := make([][]float64, len(pairs))
	for i, pair := range pairs {
		row := make([]float64, len(obsIndices))
		for j, obsIdx := range obsIndices {
			row[j] = matchScore(pair.bbox, observations[obsIdx].Box)
		}
		matrix[i] = row
	}
	return matrix
}

// matchScore blends IoU with a normalized center distance. Overlapping
// boxes score mostly on IoU; once boxes no longer overlap the distance
// term still lets a fast object be picked up again.
func matchScore(trackBox, obsBox count.Rectangle) float64 {
	iou := count.IoU(trackBox, obsBox)
	distance := count.Distance(trackBox.Center(), obsBox.Center())
	distanceScore := 1.0 / (1.0 + distance*0.01)
	if iou > 0.05 {
		return iou*0.8 + distanceScore*0.2
	}
	return distanceScore * 0.5
}

// hungarianMatches solves the assignment on the score matrix, padded
// square with zeros. Padding pairs never clear MinScore, so they are
// filtered out by the caller.
func hungarianMatches(scores [][]float64) [][2]int {
	numRows := len(scores)
	numCols := len(scores[0])
	padded := scores
	if numRows != numCols {
		size := numRows
		if numCols > size {
			size = numCols
		}
		padded = make([][]float64, size)
		for i := range padded {
			padded[i] = make([]float64, size)
		}
		for i := 0; i < numRows; i++ {
			copy(padded[i], scores[i])
		}
	}
	assignments := hungarian.SolveMax(padded)
	matches := make([][2]int, 0, len(assignments))
	for row, cols := range assignments {
		for col := range cols {
			if row < numRows && col < numCols {
				matches = append(matches, [2]int{row, col})
			}
			break
		}
	}
	return matches
}

// greedyMatches drains the score heap best pair first, reserving rows and
// columns as it goes.
func greedyMatches(scores [][]float64, minScore float64) [][2]int {
	pq := &scoreHeap{}
	for i, row := range scores {
		for j, score := range row {
			if score >= minScore {
				pq.Push(scoredPair{row: i, col: j, score: score})
			}
		}
	}
	usedRows := make(map[int]struct{})
	usedCols := make(map[int]struct{})
	matches := make([][2]int, 0)
	for pq.Len() > 0 {
		pair := pq.Pop()
		if _, ok := usedRows[pair.row]; ok {
			continue
		}
		if _, ok := usedCols[pair.col]; ok {
			continue
		}
		usedRows[pair.row] = struct{}{}
		usedCols[pair.col] = struct{}{}
		matches = append(matches, [2]int{pair.row, pair.col})
	}
	return matches
}
