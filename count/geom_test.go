package count

import (
	"image"
	"math"
	"testing"
)

const eps = 0.00001

func TestNewRectFromCorners(t *testing.T) {
	rect := NewRectFromCorners(40, 40, 60, 70)
	if rect.X != 40 || rect.Y != 40 {
		t.Errorf("Top-left corner should be (40, 40), but got (%f, %f)", rect.X, rect.Y)
	}
	if rect.Width != 20 || rect.Height != 30 {
		t.Errorf("Size should be (20, 30), but got (%f, %f)", rect.Width, rect.Height)
	}
	if !rect.Valid() {
		t.Error("Rectangle with positive size should be valid")
	}
	inverted := NewRectFromCorners(60, 70, 40, 40)
	if inverted.Valid() {
		t.Errorf("Rectangle with inverted corners should be invalid, got size (%f, %f)", inverted.Width, inverted.Height)
	}
}

func TestNewRectFrom(t *testing.T) {
	rect := NewRectFrom(image.Rect(10, 20, 110, 70))
	if rect.X != 10 || rect.Y != 20 || rect.Width != 100 || rect.Height != 50 {
		t.Errorf("Expected rectangle (10, 20, 100, 50), but got (%f, %f, %f, %f)", rect.X, rect.Y, rect.Width, rect.Height)
	}
}

func TestRectangleCenter(t *testing.T) {
	rect := NewRect(10, 20, 100, 50)
	center := rect.Center()
	if math.Abs(center.X-60.0) > eps || math.Abs(center.Y-45.0) > eps {
		t.Errorf("Center should be (60, 45), but got (%f, %f)", center.X, center.Y)
	}
}

func TestDistance(t *testing.T) {
	p1 := NewPoint(0, 0)
	p2 := NewPoint(3, 4)
	correctAnswer := 5.0
	answer := Distance(p1, p2)
	if math.Abs(answer-correctAnswer) > eps {
		t.Errorf("Distance should be %f, but got %f", correctAnswer, answer)
	}
}

func TestIoU(t *testing.T) {
	r1 := NewRect(0, 0, 100, 100)
	if answer := IoU(r1, r1); math.Abs(answer-1.0) > eps {
		t.Errorf("IoU of a rectangle with itself should be 1, but got %f", answer)
	}
	r2 := NewRect(50, 0, 100, 100)
	// intersection 50x100, union 15000
	if answer := IoU(r1, r2); math.Abs(answer-1.0/3.0) > eps {
		t.Errorf("IoU should be %f, but got %f", 1.0/3.0, answer)
	}
	r3 := NewRect(500, 500, 10, 10)
	if answer := IoU(r1, r3); answer != 0.0 {
		t.Errorf("IoU of disjoint rectangles should be 0, but got %f", answer)
	}
}

func TestPolygonContainsSquare(t *testing.T) {
	square := Polygon{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 100, Y: 100},
		{X: 0, Y: 100},
	}
	inside := []Point{
		{X: 50, Y: 50},
		{X: 1, Y: 99},
		{X: 99, Y: 1},
	}
	for _, pt := range inside {
		if !square.Contains(pt) {
			t.Errorf("Point (%f, %f) should be inside the square", pt.X, pt.Y)
		}
	}
	outside := []Point{
		{X: 150, Y: 50},
		{X: -1, Y: 50},
		{X: 50, Y: -0.5},
		{X: 50, Y: 101},
	}
	for _, pt := range outside {
		if square.Contains(pt) {
			t.Errorf("Point (%f, %f) should be outside the square", pt.X, pt.Y)
		}
	}
}

func TestPolygonContainsBoundary(t *testing.T) {
	square := Polygon{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 100, Y: 100},
		{X: 0, Y: 100},
	}
	boundary := []Point{
		{X: 50, Y: 0},
		{X: 100, Y: 50},
		{X: 0, Y: 0},
		{X: 100, Y: 100},
	}
	for _, pt := range boundary {
		if !square.Contains(pt) {
			t.Errorf("Boundary point (%f, %f) should count as inside", pt.X, pt.Y)
		}
	}
}

func TestPolygonContainsNonConvex(t *testing.T) {
	// L-shape with the quadrant x>50, y>50 cut out
	lShape := Polygon{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 100, Y: 50},
		{X: 50, Y: 50},
		{X: 50, Y: 100},
		{X: 0, Y: 100},
	}
	if !lShape.Contains(Point{X: 75, Y: 25}) {
		t.Error("Point (75, 25) should be inside the L-shape")
	}
	if !lShape.Contains(Point{X: 25, Y: 75}) {
		t.Error("Point (25, 75) should be inside the L-shape")
	}
	if lShape.Contains(Point{X: 75, Y: 75}) {
		t.Error("Point (75, 75) lies in the cut-out and should be outside")
	}
}

func TestPolygonContainsDegenerate(t *testing.T) {
	var empty Polygon
	if empty.Contains(Point{X: 0, Y: 0}) {
		t.Error("Empty polygon should contain nothing")
	}
	segment := Polygon{{X: 0, Y: 0}, {X: 100, Y: 100}}
	if segment.Contains(Point{X: 50, Y: 50}) {
		t.Error("Two-vertex polygon should contain nothing")
	}
}
