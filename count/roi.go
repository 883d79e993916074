package count

import (
	"math"
	"sync"

	"github.com/pkg/errors"
)

// Fractions of the frame size used as margins by the auto-generated regions.
const (
	AutoMarginX = 0.10
	AutoMarginY = 0.15
)

// VoteFraction is the fraction of a box's sample points that must land
// inside the region for the whole box to classify as inside.
const VoteFraction = 0.3

// ErrFewVertices is returned when a polygon of fewer than 3 vertices is
// confirmed as a region.
var ErrFewVertices = errors.New("polygon needs at least 3 vertices")

// Region holds the active counting polygon. The zero value is the
// undefined region: every box classifies as inside until a polygon is
// confirmed.
type Region struct {
	mu      sync.RWMutex
	polygon Polygon
}

// Set confirms a polygon as the region, replacing any previous one.
// The polygon is copied, the caller keeps ownership of its slice.
func (r *Region) Set(polygon Polygon) error {
	if len(polygon) < 3 {
		return ErrFewVertices
	}
	vertices := make(Polygon, len(polygon))
	copy(vertices, polygon)
	r.mu.Lock()
	r.polygon = vertices
	r.mu.Unlock()
	return nil
}

// Defined reports whether a polygon has been confirmed.
func (r *Region) Defined() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.polygon) > 0
}

// Polygon returns a copy of the confirmed polygon, nil while undefined.
func (r *Region) Polygon() Polygon {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.polygon) == 0 {
		return nil
	}
	vertices := make(Polygon, len(r.polygon))
	copy(vertices, r.polygon)
	return vertices
}

// ContainsBox classifies a bounding box against the region. The box is
// sampled at its center, 4 corners and 4 edge midpoints; it classifies as
// inside when at least ceil(VoteFraction * 9) samples are inside the
// polygon or on its boundary. While the region is undefined every box
// classifies as inside.
func (r *Region) ContainsBox(box Rectangle) bool {
	r.mu.RLock()
	polygon := r.polygon
	r.mu.RUnlock()
	if len(polygon) == 0 {
		return true
	}
	samples := boxSamples(box)
	required := int(math.Ceil(VoteFraction * float64(len(samples))))
	hits := 0
	for _, pt := range samples {
		if polygon.Contains(pt) {
			hits++
			if hits >= required {
				return true
			}
		}
	}
	return false
}

func boxSamples(box Rectangle) [9]Point {
	x1 := box.X
	y1 := box.Y
	x2 := box.X + box.Width
	y2 := box.Y + box.Height
	cx := box.X + box.Width/2.0
	cy := box.Y + box.Height/2.0
	return [9]Point{
		{X: cx, Y: cy},
		{X: x1, Y: y1},
		{X: x2, Y: y1},
		{X: x2, Y: y2},
		{X: x1, Y: y2},
		{X: cx, Y: y1},
		{X: cx, Y: y2},
		{X: x1, Y: cy},
		{X: x2, Y: cy},
	}
}

// AutoRhombus builds the default diamond region for a frame: vertices on
// the frame's axis midlines, inset by AutoMarginX and AutoMarginY.
func AutoRhombus(frameWidth, frameHeight float64) Polygon {
	mx := AutoMarginX * frameWidth
	my := AutoMarginY * frameHeight
	cx := frameWidth / 2.0
	cy := frameHeight / 2.0
	return Polygon{
		{X: cx, Y: my},
		{X: frameWidth - mx, Y: cy},
		{X: cx, Y: frameHeight - my},
		{X: mx, Y: cy},
	}
}

// AutoRectangle builds the inset rectangle region with the same margins.
func AutoRectangle(frameWidth, frameHeight float64) Polygon {
	mx := AutoMarginX * frameWidth
	my := AutoMarginY * frameHeight
	return Polygon{
		{X: mx, Y: my},
		{X: frameWidth - mx, Y: my},
		{X: frameWidth - mx, Y: frameHeight - my},
		{X: mx, Y: frameHeight - my},
	}
}

// PolygonBuilder accumulates vertices while a region is being defined by
// hand. Vertices can be appended, undone one at a time or abandoned
// wholesale; Confirm hands the result over without touching the builder,
// so a failed confirmation can be fixed by adding more vertices.
type PolygonBuilder struct {
	vertices Polygon
}

// Add appends a vertex.
func (b *PolygonBuilder) Add(x, y float64) {
	b.vertices = append(b.vertices, Point{X: x, Y: y})
}

// Undo removes the most recently added vertex, if any.
func (b *PolygonBuilder) Undo() {
	if len(b.vertices) > 0 {
		b.vertices = b.vertices[:len(b.vertices)-1]
	}
}

// Len returns the number of accumulated vertices.
func (b *PolygonBuilder) Len() int {
	return len(b.vertices)
}

// Reset abandons all accumulated vertices.
func (b *PolygonBuilder) Reset() {
	b.vertices = b.vertices[:0]
}

// Confirm returns a copy of the accumulated polygon. With fewer than 3
// vertices it returns ErrFewVertices and keeps the builder state intact.
func (b *PolygonBuilder) Confirm() (Polygon, error) {
	if len(b.vertices) < 3 {
		return nil, ErrFewVertices
	}
	polygon := make(Polygon, len(b.vertices))
	copy(polygon, b.vertices)
	return polygon, nil
}
