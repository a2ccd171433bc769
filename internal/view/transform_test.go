package view

import (
	"math"
	"reflect"
	"testing"

	"image-labeler/internal/annotation"
	"image-labeler/pkg/geometry"
)

func TestSetZoomClamping(t *testing.T) {
	tests := []struct {
		name string
		zoom float64
		want float64
	}{
		{"in range", 2.0, 2.0},
		{"below minimum", 0.01, MinZoom},
		{"above maximum", 50, MaxZoom},
		{"exact minimum", MinZoom, MinZoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransform()
			if got := tr.SetZoom(tt.zoom); got != tt.want {
				t.Errorf("SetZoom(%v) = %v, want %v", tt.zoom, got, tt.want)
			}
		})
	}
}

func TestZoomSteps(t *testing.T) {
	tr := NewTransform()
	tr.ZoomIn()
	if math.Abs(tr.Zoom()-ButtonZoomStep) > 1e-9 {
		t.Errorf("ZoomIn from 1.0 = %v, want %v", tr.Zoom(), ButtonZoomStep)
	}
	tr.Reset()
	tr.WheelZoom(1)
	if math.Abs(tr.Zoom()-WheelZoomStep) > 1e-9 {
		t.Errorf("WheelZoom(+) from 1.0 = %v, want %v", tr.Zoom(), WheelZoomStep)
	}
	tr.WheelZoom(-1)
	if math.Abs(tr.Zoom()-1.0) > 1e-9 {
		t.Errorf("wheel in then out = %v, want 1.0", tr.Zoom())
	}
}

func TestFitToWindow(t *testing.T) {
	tr := NewTransform()
	// 1000x500 image in a 500x500 viewport: limiting axis is width.
	got := tr.FitToWindow(1000, 500, 500, 500)
	want := 0.5 * FitMargin
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("FitToWindow = %v, want %v", got, want)
	}

	before := tr.Zoom()
	if tr.FitToWindow(0, 500, 500, 500) != before {
		t.Error("FitToWindow with zero image size changed the zoom")
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	tr := NewTransform()
	tr.SetZoom(2.5)

	coords := []float64{10, 20, 30, 44.4}
	disp := tr.ImageToDisplay(coords)
	if !reflect.DeepEqual(disp, []float64{25, 50, 75, 111}) {
		t.Errorf("ImageToDisplay = %v", disp)
	}
	for i := 0; i < len(coords); i += 2 {
		x, y := tr.DisplayToImage(disp[i], disp[i+1])
		if math.Abs(x-coords[i]) > 1e-9 || math.Abs(y-coords[i+1]) > 1e-9 {
			t.Errorf("round trip (%v, %v) -> (%v, %v)", coords[i], coords[i+1], x, y)
		}
	}
}

func TestNearestVertex(t *testing.T) {
	rect := annotation.NewRect(0, 0, 100, 100)

	tests := []struct {
		name      string
		zoom      float64
		p         geometry.Point2D
		wantIdx   int
		wantFound bool
	}{
		{"near top-left", 1, geometry.Point2D{X: 3, Y: 4}, 0, true},
		{"near bottom-right", 1, geometry.Point2D{X: 98, Y: 103}, 2, true},
		{"inside threshold", 1, geometry.Point2D{X: 9, Y: 0}, 0, true},
		{"just out of range", 1, geometry.Point2D{X: 11, Y: 0}, -1, false},
		{"too far", 1, geometry.Point2D{X: 50, Y: 50}, -1, false},
		// At zoom 2 the image-space threshold halves to 5.
		{"zoomed threshold shrinks", 2, geometry.Point2D{X: 8, Y: 0}, -1, false},
		{"zoomed still in range", 2, geometry.Point2D{X: 4, Y: 0}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransform()
			tr.SetZoom(tt.zoom)
			idx, found := tr.NearestVertex(tt.p, rect)
			if found != tt.wantFound || idx != tt.wantIdx {
				t.Errorf("NearestVertex(%v) = (%d, %v), want (%d, %v)", tt.p, idx, found, tt.wantIdx, tt.wantFound)
			}
		})
	}
}

func TestNearestVertexPicksClosest(t *testing.T) {
	tr := NewTransform()
	// Tiny rectangle: all four corners are within the threshold.
	rect := annotation.NewRect(0, 0, 4, 4)
	idx, found := tr.NearestVertex(geometry.Point2D{X: 3.6, Y: 3.9}, rect)
	if !found || idx != 2 {
		t.Errorf("got (%d, %v), want the closest corner (2, true)", idx, found)
	}
}

func TestNearestEdgeFirstMatch(t *testing.T) {
	rect := annotation.NewRect(0, 0, 10, 10)
	tr := NewTransform()

	// A point near the top-left corner sits within threshold of both the
	// top edge (0) and the left edge (3). First match in edge order wins.
	idx, found := tr.NearestEdge(geometry.Point2D{X: 5, Y: 0.1}, rect)
	if !found || idx != 0 {
		t.Errorf("NearestEdge near top = (%d, %v), want (0, true)", idx, found)
	}

	idx, found = tr.NearestEdge(geometry.Point2D{X: 0.5, Y: 0.5}, rect)
	if !found || idx != 0 {
		t.Errorf("corner point should hit the top edge first, got (%d, %v)", idx, found)
	}

	idx, found = tr.NearestEdge(geometry.Point2D{X: 0.2, Y: 5}, rect)
	if !found || idx != 3 {
		t.Errorf("NearestEdge near left = (%d, %v), want (3, true)", idx, found)
	}

	if _, found := tr.NearestEdge(geometry.Point2D{X: 50, Y: 50}, rect); found {
		t.Error("far point should miss all edges")
	}
}

func TestNearestEdgePolygonClosingEdge(t *testing.T) {
	tr := NewTransform()
	poly := annotation.NewPolygon([]geometry.Point2D{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	})
	// Near the left side, which is the closing edge (index 3).
	idx, found := tr.NearestEdge(geometry.Point2D{X: 1, Y: 50}, poly)
	if !found || idx != 3 {
		t.Errorf("closing edge hit = (%d, %v), want (3, true)", idx, found)
	}
}

func TestPointHasNoEdges(t *testing.T) {
	tr := NewTransform()
	p := annotation.NewPoint(5, 5)
	if _, found := tr.NearestEdge(geometry.Point2D{X: 5, Y: 5}, p); found {
		t.Error("point annotations must not report edge hits")
	}
	idx, found := tr.NearestVertex(geometry.Point2D{X: 7, Y: 5}, p)
	if !found || idx != 0 {
		t.Errorf("point vertex hit = (%d, %v), want (0, true)", idx, found)
	}
}
