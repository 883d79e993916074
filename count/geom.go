package count

import (
	"image"
	"math"
)

// Rectangle is an axis-aligned bounding box in frame pixel coordinates.
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a rectangle from its top-left corner and size.
func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// NewRectFromCorners creates a rectangle spanning (x1, y1) and (x2, y2).
func NewRectFromCorners(x1, y1, x2, y2 float64) Rectangle {
	return Rectangle{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

// NewRectFrom converts an image.Rectangle.
func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// Center returns the center point of the rectangle.
func (r Rectangle) Center() Point {
	return Point{
		X: r.X + r.Width/2.0,
		Y: r.Y + r.Height/2.0,
	}
}

// Valid reports whether the rectangle has non-negative width and height.
func (r Rectangle) Valid() bool {
	return r.Width >= 0 && r.Height >= 0
}

// Point is a point in 2D space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a point.
func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

// NewPointFrom converts an image.Point.
func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

// Distance calculates the Euclidean distance between two points.
func Distance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}

// IoU calculates the Intersection over Union of two rectangles.
func IoU(r1, r2 Rectangle) float64 {
	x1 := maxFloat64(r1.X, r2.X)
	y1 := maxFloat64(r1.Y, r2.Y)
	x2 := minFloat64(r1.X+r1.Width, r2.X+r2.Width)
	y2 := minFloat64(r1.Y+r1.Height, r2.Y+r2.Height)
	if x2 < x1 || y2 < y1 {
		return 0.0
	}
	intersection := (x2 - x1) * (y2 - y1)
	union := r1.Width*r1.Height + r2.Width*r2.Height - intersection
	if union <= 0.0 {
		return 0.0
	}
	return intersection / union
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Polygon is an ordered ring of vertices. The ring is implicitly closed:
// the last vertex connects back to the first.
type Polygon []Point

const boundaryEps = 1e-9

// Contains reports whether the point lies inside the ring or on its
// boundary. Even-odd ray casting, so non-convex and self-intersecting
// rings behave the way the even-odd rule defines. Rings with fewer than
// 3 vertices contain nothing.
func (p Polygon) Contains(pt Point) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		a := p[j]
		b := p[i]
		if onSegment(a, b, pt) {
			return true
		}
		if (b.Y > pt.Y) != (a.Y > pt.Y) {
			xCross := (a.X-b.X)*(pt.Y-b.Y)/(a.Y-b.Y) + b.X
			if pt.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// onSegment reports whether pt lies on the segment between a and b.
func onSegment(a, b, pt Point) bool {
	cross := (b.X-a.X)*(pt.Y-a.Y) - (b.Y-a.Y)*(pt.X-a.X)
	if math.Abs(cross) > boundaryEps {
		return false
	}
	return pt.X >= minFloat64(a.X, b.X)-boundaryEps && pt.X <= maxFloat64(a.X, b.X)+boundaryEps &&
		pt.Y >= minFloat64(a.Y, b.Y)-boundaryEps && pt.Y <= maxFloat64(a.Y, b.Y)+boundaryEps
}
