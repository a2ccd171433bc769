package annotation

import (
	"math"
	"reflect"
	"testing"

	"image-labeler/pkg/geometry"
)

func TestNewShapeValidation(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		coords  []float64
		wantErr bool
	}{
		{"valid point", KindPoint, []float64{3, 4}, false},
		{"point wrong arity", KindPoint, []float64{3}, true},
		{"valid rectangle", KindRectangle, []float64{0, 0, 10, 10}, false},
		{"rectangle wrong arity", KindRectangle, []float64{0, 0, 10}, true},
		{"valid circle", KindCircle, []float64{0, 0, 4, 4}, false},
		{"circle too many coords", KindCircle, []float64{0, 0, 4, 4, 5}, true},
		{"valid polygon", KindPolygon, []float64{0, 0, 10, 0, 10, 10}, false},
		{"polygon too few vertices", KindPolygon, []float64{0, 0, 10, 0}, true},
		{"polygon odd coord count", KindPolygon, []float64{0, 0, 10, 0, 10, 10, 5}, true},
		{"unknown kind", Kind("line"), []float64{0, 0, 1, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := NewShape(tt.kind, tt.coords)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewShape(%v, %v) error = %v, wantErr %v", tt.kind, tt.coords, err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(shape.Coords(), tt.coords) {
				t.Errorf("Coords() = %v, want %v", shape.Coords(), tt.coords)
			}
		})
	}
}

func TestRectNormalization(t *testing.T) {
	r := NewRect(50, 30, 10, 10)
	want := []float64{10, 10, 50, 30}
	if !reflect.DeepEqual(r.Coords(), want) {
		t.Errorf("NewRect with swapped corners = %v, want %v", r.Coords(), want)
	}
}

func TestRectMoveVertexKeepsNormalForm(t *testing.T) {
	tests := []struct {
		name   string
		vertex int
		to     geometry.Point2D
		want   []float64
	}{
		{"drag top-left", 0, geometry.Point2D{X: 2, Y: 3}, []float64{2, 3, 10, 10}},
		{"drag top-right", 1, geometry.Point2D{X: 12, Y: -2}, []float64{0, -2, 12, 10}},
		{"drag bottom-right", 2, geometry.Point2D{X: 8, Y: 8}, []float64{0, 0, 8, 8}},
		{"drag bottom-left", 3, geometry.Point2D{X: 1, Y: 12}, []float64{1, 0, 10, 12}},
		{"drag corner past opposite", 2, geometry.Point2D{X: -5, Y: -5}, []float64{-5, -5, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRect(0, 0, 10, 10)
			r.MoveVertex(tt.vertex, tt.to)
			got := r.Coords()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("after MoveVertex(%d, %v): %v, want %v", tt.vertex, tt.to, got, tt.want)
			}
			if got[0] > got[2] || got[1] > got[3] {
				t.Errorf("rectangle not in normal form: %v", got)
			}
		})
	}
}

func TestBoxVertexAndEdgeOrder(t *testing.T) {
	r := NewRect(0, 0, 10, 20)

	wantVertices := []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 20}, {X: 0, Y: 20}}
	if got := r.Vertices(); !reflect.DeepEqual(got, wantVertices) {
		t.Errorf("Vertices() = %v, want TL,TR,BR,BL order %v", got, wantVertices)
	}

	edges := r.Edges()
	if len(edges) != 4 {
		t.Fatalf("got %d edges, want 4", len(edges))
	}
	// top, right, bottom, left
	if edges[0][0].Y != 0 || edges[0][1].Y != 0 {
		t.Errorf("edge 0 is not the top edge: %v", edges[0])
	}
	if edges[1][0].X != 10 || edges[1][1].X != 10 {
		t.Errorf("edge 1 is not the right edge: %v", edges[1])
	}
	if edges[2][0].Y != 20 || edges[2][1].Y != 20 {
		t.Errorf("edge 2 is not the bottom edge: %v", edges[2])
	}
	if edges[3][0].X != 0 || edges[3][1].X != 0 {
		t.Errorf("edge 3 is not the left edge: %v", edges[3])
	}
}

func TestPolygonEdgesClosingLast(t *testing.T) {
	p := NewPolygon([]geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}})
	edges := p.Edges()
	if len(edges) != 3 {
		t.Fatalf("got %d edges, want 3", len(edges))
	}
	closing := edges[2]
	if closing[0] != (geometry.Point2D{X: 10, Y: 10}) || closing[1] != (geometry.Point2D{X: 0, Y: 0}) {
		t.Errorf("closing edge = %v, want last vertex back to first", closing)
	}
}

func TestPointBehavior(t *testing.T) {
	p := NewPoint(5, 7)
	if len(p.Vertices()) != 1 {
		t.Errorf("point should expose a single vertex")
	}
	if p.Edges() != nil {
		t.Errorf("point should have no edges")
	}
	p.MoveVertex(0, geometry.Point2D{X: 1, Y: 2})
	if p.X != 1 || p.Y != 2 {
		t.Errorf("MoveVertex(0) did not move the point: %+v", p)
	}
	p.MoveVertex(1, geometry.Point2D{X: 9, Y: 9})
	if p.X != 1 || p.Y != 2 {
		t.Errorf("MoveVertex with invalid index mutated the point: %+v", p)
	}
}

func TestTranslate(t *testing.T) {
	shapes := []Shape{
		NewPoint(1, 1),
		NewRect(0, 0, 10, 10),
		NewCircle(2, 2, 6, 6),
		NewPolygon([]geometry.Point2D{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}}),
	}
	for _, s := range shapes {
		before := s.Coords()
		s.Translate(3, -2)
		after := s.Coords()
		for i := 0; i < len(before); i += 2 {
			if after[i] != before[i]+3 || after[i+1] != before[i+1]-2 {
				t.Errorf("%s: Translate(3,-2) produced %v from %v", s.Kind(), after, before)
			}
		}
	}
}

func TestShapeArea(t *testing.T) {
	if a := NewRect(0, 0, 10, 20).Area(); a != 200 {
		t.Errorf("rect area = %v, want 200", a)
	}
	poly := NewPolygon([]geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}})
	if a := poly.Area(); math.Abs(a-100) > 1e-9 {
		t.Errorf("polygon area = %v, want 100", a)
	}
	if a := NewPoint(3, 3).Area(); a != 0 {
		t.Errorf("point area = %v, want 0", a)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := NewPolygon([]geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}})
	c := p.Clone().(*Polygon)
	c.Points[0].X = 99
	if p.Points[0].X == 99 {
		t.Error("Clone shares vertex storage with the original")
	}
}
