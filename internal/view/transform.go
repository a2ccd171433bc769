// Package view provides the zoom transform between image and display
// coordinates, and zoom-aware vertex and edge hit-testing.
package view

import (
	"image-labeler/internal/annotation"
	"image-labeler/pkg/geometry"
)

const (
	// MinZoom and MaxZoom bound the zoom factor.
	MinZoom = 0.1
	MaxZoom = 5.0

	// WheelZoomStep is the factor per mouse wheel notch; ButtonZoomStep is
	// the coarser factor used by the zoom buttons and menu items.
	WheelZoomStep  = 1.1
	ButtonZoomStep = 1.2

	// FitMargin leaves a border when fitting the image to the viewport.
	FitMargin = 0.9

	// VertexThreshold and EdgeThreshold are hit-test distances in display
	// pixels. They are divided by the zoom so the grab area stays a
	// constant screen size at any magnification.
	VertexThreshold = 10.0
	EdgeThreshold   = 5.0
)

// Transform converts between image coordinates and zoomed display
// coordinates. Display = image * zoom.
type Transform struct {
	zoom float64
}

// NewTransform creates a transform at 1:1 zoom.
func NewTransform() *Transform {
	return &Transform{zoom: 1.0}
}

// Zoom returns the current zoom factor.
func (t *Transform) Zoom() float64 {
	return t.zoom
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom], and returns
// the value applied.
func (t *Transform) SetZoom(zoom float64) float64 {
	t.zoom = geometry.Clamp(zoom, MinZoom, MaxZoom)
	return t.zoom
}

// ZoomIn applies one button zoom step.
func (t *Transform) ZoomIn() float64 {
	return t.SetZoom(t.zoom * ButtonZoomStep)
}

// ZoomOut applies one button zoom step.
func (t *Transform) ZoomOut() float64 {
	return t.SetZoom(t.zoom / ButtonZoomStep)
}

// WheelZoom applies one wheel notch. Positive delta zooms in.
func (t *Transform) WheelZoom(delta float64) float64 {
	if delta > 0 {
		return t.SetZoom(t.zoom * WheelZoomStep)
	}
	if delta < 0 {
		return t.SetZoom(t.zoom / WheelZoomStep)
	}
	return t.zoom
}

// Reset restores 1:1 zoom.
func (t *Transform) Reset() {
	t.zoom = 1.0
}

// FitToWindow sets the zoom so the image fits the viewport with a margin.
// Zero or negative dimensions leave the zoom unchanged.
func (t *Transform) FitToWindow(imgW, imgH, viewW, viewH float64) float64 {
	if imgW <= 0 || imgH <= 0 || viewW <= 0 || viewH <= 0 {
		return t.zoom
	}
	zoom := viewW / imgW
	if zy := viewH / imgH; zy < zoom {
		zoom = zy
	}
	return t.SetZoom(zoom * FitMargin)
}

// ImageToDisplay converts a flat image-space coordinate list to display
// space.
func (t *Transform) ImageToDisplay(coords []float64) []float64 {
	out := make([]float64, len(coords))
	for i, c := range coords {
		out[i] = c * t.zoom
	}
	return out
}

// DisplayToImage converts a display position to image coordinates.
func (t *Transform) DisplayToImage(x, y float64) (float64, float64) {
	return x / t.zoom, y / t.zoom
}

// NearestVertex returns the index of the vertex of a nearest to p (image
// coordinates) within the grab threshold. When several vertices are in
// range the closest one wins.
func (t *Transform) NearestVertex(p geometry.Point2D, shape annotation.Shape) (int, bool) {
	threshold := VertexThreshold / t.zoom
	best := -1
	bestDist := threshold
	for i, v := range shape.Vertices() {
		if d := p.Distance(v); d <= bestDist {
			best = i
			bestDist = d
		}
	}
	return best, best >= 0
}

// NearestEdge returns the index of the first edge of a within the grab
// threshold of p, in the shape's edge order. Unlike NearestVertex this is
// first match, not closest match.
func (t *Transform) NearestEdge(p geometry.Point2D, shape annotation.Shape) (int, bool) {
	threshold := EdgeThreshold / t.zoom
	for i, e := range shape.Edges() {
		if geometry.PointToSegmentDistance(p, e[0], e[1]) <= threshold {
			return i, true
		}
	}
	return -1, false
}
