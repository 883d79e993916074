// Package overlay draws counting state onto video frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"gocv.io/x/gocv"

	"github.com/roadmetrics/vcount/count"
)

// Style holds the drawing parameters of the annotated output frame.
type Style struct {
	RegionColor    color.RGBA
	BoxColor       color.RGBA
	MemberColor    color.RGBA
	TrailColor     color.RGBA
	TextColor      color.RGBA
	LineThickness  int
	TrailThickness int
	DotRadius      int
}

// DefaultStyle returns the stock palette: yellow region, green boxes,
// red boxes for region members, cyan trails.
func DefaultStyle() Style {
	return Style{
		RegionColor:    color.RGBA{R: 255, G: 255, B: 0, A: 0},
		BoxColor:       color.RGBA{R: 0, G: 255, B: 0, A: 0},
		MemberColor:    color.RGBA{R: 255, G: 0, B: 0, A: 0},
		TrailColor:     color.RGBA{R: 0, G: 255, B: 255, A: 0},
		TextColor:      color.RGBA{R: 255, G: 255, B: 255, A: 0},
		LineThickness:  2,
		TrailThickness: 2,
		DotRadius:      3,
	}
}

// View is everything one frame's annotation needs.
type View struct {
	Polygon count.Polygon
	All     map[count.TrackID]count.Detection
	InROI   map[count.TrackID]count.Detection
	Trails  map[count.TrackID][]count.Point
	Total   int
	ByClass map[string]int
}

// Draw annotates the frame in place: region outline, per-object boxes
// with identity labels, trajectories of region members and the totals
// in the top-left corner.
func Draw(img *gocv.Mat, view View, style Style) {
	for i := range view.Polygon {
		a := view.Polygon[i]
		b := view.Polygon[(i+1)%len(view.Polygon)]
		gocv.Line(img, pt(a), pt(b), style.RegionColor, style.LineThickness)
	}

	for id, det := range view.All {
		boxColor := style.BoxColor
		if _, ok := view.InROI[id]; ok {
			boxColor = style.MemberColor
		}
		gocv.Rectangle(img, rect(det.Box), boxColor, style.LineThickness)
		label := fmt.Sprintf("#%d %s", det.ID, det.Class)
		gocv.PutText(img, label, image.Pt(int(det.Box.X), int(det.Box.Y)-5), gocv.FontHersheyPlain, 1.2, boxColor, 2)
	}

	for id := range view.InROI {
		trail := view.Trails[id]
		for i := 1; i < len(trail); i++ {
			gocv.Line(img, pt(trail[i-1]), pt(trail[i]), style.TrailColor, style.TrailThickness)
		}
		if len(trail) > 0 {
			gocv.Circle(img, pt(trail[len(trail)-1]), style.DotRadius, style.TrailColor, -1)
		}
	}

	gocv.PutText(img, fmt.Sprintf("counted: %d", view.Total), image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, style.TextColor, 2)
	classes := make([]string, 0, len(view.ByClass))
	for class := range view.ByClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	y := 60
	for _, class := range classes {
		gocv.PutText(img, fmt.Sprintf("%s: %d", class, view.ByClass[class]), image.Pt(10, y), gocv.FontHersheySimplex, 0.6, style.TextColor, 2)
		y += 25
	}
}

func pt(p count.Point) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

func rect(r count.Rectangle) image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
}
