// Package annotation provides the annotation model: typed shapes, labels,
// and the per-image annotation store with undo history.
package annotation

import (
	"fmt"

	"image-labeler/pkg/geometry"
)

// Kind identifies the shape variant of an annotation.
type Kind string

const (
	KindPoint     Kind = "point"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindPolygon   Kind = "polygon"
)

// Edge is a line segment between two vertices.
type Edge [2]geometry.Point2D

// Shape is the closed set of annotation geometries. Rectangle and circle
// shapes are kept in bounding-box normal form (x1 <= x2, y1 <= y2) at all
// times; MoveVertex re-normalizes after a corner is dragged across the
// opposite one.
type Shape interface {
	Kind() Kind
	Coords() []float64
	Vertices() []geometry.Point2D
	Edges() []Edge
	MoveVertex(index int, to geometry.Point2D)
	Translate(dx, dy float64)
	Clone() Shape
	Area() float64
	Bounds() geometry.Rect
}

// NewShape constructs a shape from a flat coordinate list as found in
// annotation files. Arity is validated per kind: a point takes exactly 2
// values, rectangle and circle exactly 4, polygon an even count of at
// least 6.
func NewShape(kind Kind, coords []float64) (Shape, error) {
	switch kind {
	case KindPoint:
		if len(coords) != 2 {
			return nil, fmt.Errorf("point needs 2 coordinates, got %d", len(coords))
		}
		return NewPoint(coords[0], coords[1]), nil
	case KindRectangle:
		if len(coords) != 4 {
			return nil, fmt.Errorf("rectangle needs 4 coordinates, got %d", len(coords))
		}
		return NewRect(coords[0], coords[1], coords[2], coords[3]), nil
	case KindCircle:
		if len(coords) != 4 {
			return nil, fmt.Errorf("circle needs 4 coordinates, got %d", len(coords))
		}
		return NewCircle(coords[0], coords[1], coords[2], coords[3]), nil
	case KindPolygon:
		if len(coords) < 6 || len(coords)%2 != 0 {
			return nil, fmt.Errorf("polygon needs an even count of at least 6 coordinates, got %d", len(coords))
		}
		points := make([]geometry.Point2D, len(coords)/2)
		for i := range points {
			points[i] = geometry.Point2D{X: coords[2*i], Y: coords[2*i+1]}
		}
		return NewPolygon(points), nil
	default:
		return nil, fmt.Errorf("unknown annotation type %q", kind)
	}
}

// Point is a single marked position.
type Point struct {
	X, Y float64
}

// NewPoint creates a point shape.
func NewPoint(x, y float64) *Point {
	return &Point{X: x, Y: y}
}

func (p *Point) Kind() Kind        { return KindPoint }
func (p *Point) Coords() []float64 { return []float64{p.X, p.Y} }

func (p *Point) Vertices() []geometry.Point2D {
	return []geometry.Point2D{{X: p.X, Y: p.Y}}
}

func (p *Point) Edges() []Edge { return nil }

func (p *Point) MoveVertex(index int, to geometry.Point2D) {
	if index != 0 {
		return
	}
	p.X, p.Y = to.X, to.Y
}

func (p *Point) Translate(dx, dy float64) {
	p.X += dx
	p.Y += dy
}

func (p *Point) Clone() Shape { c := *p; return &c }

func (p *Point) Area() float64 { return 0 }

func (p *Point) Bounds() geometry.Rect {
	return geometry.Rect{X: p.X, Y: p.Y}
}

// box is the shared bounding-box geometry of rectangles and circles.
// Corner order is top-left, top-right, bottom-right, bottom-left; edge
// order is top, right, bottom, left.
type box struct {
	X1, Y1, X2, Y2 float64
}

func (b *box) normalize() {
	if b.X1 > b.X2 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y1 > b.Y2 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
}

func (b *box) coords() []float64 { return []float64{b.X1, b.Y1, b.X2, b.Y2} }

func (b *box) vertices() []geometry.Point2D {
	return []geometry.Point2D{
		{X: b.X1, Y: b.Y1},
		{X: b.X2, Y: b.Y1},
		{X: b.X2, Y: b.Y2},
		{X: b.X1, Y: b.Y2},
	}
}

func (b *box) edges() []Edge {
	v := b.vertices()
	return []Edge{
		{v[0], v[1]},
		{v[1], v[2]},
		{v[2], v[3]},
		{v[3], v[0]},
	}
}

func (b *box) moveVertex(index int, to geometry.Point2D) {
	switch index {
	case 0:
		b.X1, b.Y1 = to.X, to.Y
	case 1:
		b.X2, b.Y1 = to.X, to.Y
	case 2:
		b.X2, b.Y2 = to.X, to.Y
	case 3:
		b.X1, b.Y2 = to.X, to.Y
	default:
		return
	}
	b.normalize()
}

func (b *box) translate(dx, dy float64) {
	b.X1 += dx
	b.X2 += dx
	b.Y1 += dy
	b.Y2 += dy
}

func (b *box) area() float64 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

func (b *box) bounds() geometry.Rect {
	return geometry.Rect{X: b.X1, Y: b.Y1, Width: b.X2 - b.X1, Height: b.Y2 - b.Y1}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	box
}

// NewRect creates a rectangle, normalizing the corners to min/max form.
func NewRect(x1, y1, x2, y2 float64) *Rect {
	r := &Rect{box{X1: x1, Y1: y1, X2: x2, Y2: y2}}
	r.normalize()
	return r
}

func (r *Rect) Kind() Kind                               { return KindRectangle }
func (r *Rect) Coords() []float64                        { return r.coords() }
func (r *Rect) Vertices() []geometry.Point2D             { return r.vertices() }
func (r *Rect) Edges() []Edge                            { return r.edges() }
func (r *Rect) MoveVertex(i int, to geometry.Point2D)    { r.moveVertex(i, to) }
func (r *Rect) Translate(dx, dy float64)                 { r.translate(dx, dy) }
func (r *Rect) Clone() Shape                             { c := *r; return &c }
func (r *Rect) Area() float64                            { return r.area() }
func (r *Rect) Bounds() geometry.Rect                    { return r.bounds() }

// Circle is an ellipse inscribed in its bounding box.
type Circle struct {
	box
}

// NewCircle creates a circle from its bounding box, normalized to min/max form.
func NewCircle(x1, y1, x2, y2 float64) *Circle {
	c := &Circle{box{X1: x1, Y1: y1, X2: x2, Y2: y2}}
	c.normalize()
	return c
}

func (c *Circle) Kind() Kind                               { return KindCircle }
func (c *Circle) Coords() []float64                        { return c.coords() }
func (c *Circle) Vertices() []geometry.Point2D             { return c.vertices() }
func (c *Circle) Edges() []Edge                            { return c.edges() }
func (c *Circle) MoveVertex(i int, to geometry.Point2D)    { c.moveVertex(i, to) }
func (c *Circle) Translate(dx, dy float64)                 { c.translate(dx, dy) }
func (c *Circle) Clone() Shape                             { cc := *c; return &cc }
func (c *Circle) Area() float64                            { return c.area() }
func (c *Circle) Bounds() geometry.Rect                    { return c.bounds() }

// Polygon is a closed polygon with at least 3 vertices.
type Polygon struct {
	Points []geometry.Point2D
}

// NewPolygon creates a polygon shape. The points slice is copied.
func NewPolygon(points []geometry.Point2D) *Polygon {
	pts := make([]geometry.Point2D, len(points))
	copy(pts, points)
	return &Polygon{Points: pts}
}

func (p *Polygon) Kind() Kind { return KindPolygon }

func (p *Polygon) Coords() []float64 {
	coords := make([]float64, 0, len(p.Points)*2)
	for _, pt := range p.Points {
		coords = append(coords, pt.X, pt.Y)
	}
	return coords
}

func (p *Polygon) Vertices() []geometry.Point2D {
	pts := make([]geometry.Point2D, len(p.Points))
	copy(pts, p.Points)
	return pts
}

// Edges returns the polygon edges in vertex order. The closing edge from
// the last vertex back to the first comes last.
func (p *Polygon) Edges() []Edge {
	n := len(p.Points)
	if n < 2 {
		return nil
	}
	edges := make([]Edge, 0, n)
	for i := 0; i < n-1; i++ {
		edges = append(edges, Edge{p.Points[i], p.Points[i+1]})
	}
	edges = append(edges, Edge{p.Points[n-1], p.Points[0]})
	return edges
}

func (p *Polygon) MoveVertex(index int, to geometry.Point2D) {
	if index < 0 || index >= len(p.Points) {
		return
	}
	p.Points[index] = to
}

func (p *Polygon) Translate(dx, dy float64) {
	for i := range p.Points {
		p.Points[i].X += dx
		p.Points[i].Y += dy
	}
}

func (p *Polygon) Clone() Shape {
	return NewPolygon(p.Points)
}

func (p *Polygon) Area() float64 {
	return geometry.PolygonArea(p.Points)
}

func (p *Polygon) Bounds() geometry.Rect {
	return geometry.BoundingBox(p.Points)
}
