// Package edit implements the interactive annotation editor: tool
// selection, drag drafting of new shapes, polygon vertex accumulation, and
// vertex/edge editing of existing annotations.
package edit

import (
	"fmt"

	"image-labeler/internal/annotation"
	"image-labeler/internal/view"
	"image-labeler/pkg/geometry"
)

// MinDragDistance is the minimum press-to-release distance, in display
// pixels, for a rectangle or circle drag to commit. Shorter drags are
// treated as accidental clicks and discarded.
const MinDragDistance = 5.0

// Tool selects what mouse input draws.
type Tool int

const (
	ToolNone Tool = iota
	ToolPoint
	ToolRectangle
	ToolCircle
	ToolPolygon
)

func (t Tool) String() string {
	switch t {
	case ToolPoint:
		return "point"
	case ToolRectangle:
		return "rectangle"
	case ToolCircle:
		return "circle"
	case ToolPolygon:
		return "polygon"
	default:
		return "none"
	}
}

// LabelProvider supplies the label and color new annotations are created
// with, typically the side panel's current selection.
type LabelProvider func() (label, color string)

// Editor drives all interactive mutation of the store. All coordinates
// passed in are image-space; the transform supplies the zoom for
// display-space distance checks.
type Editor struct {
	store *annotation.Store
	view  *view.Transform

	labels LabelProvider

	tool Tool

	// Drag draft for rectangle and circle tools.
	dragging bool
	anchor   geometry.Point2D
	draft    annotation.Shape

	// Polygon accumulation.
	polyPoints []geometry.Point2D

	// Edit mode.
	editing    bool
	editIndex  int
	editVertex int
	editEdge   int
	engaged    bool
	pressSnap  []annotation.Annotation
	pressShape annotation.Shape
	pressPoint geometry.Point2D

	onHint    func(string)
	onChanged func()
}

// NewEditor creates an editor over the given store and transform.
func NewEditor(store *annotation.Store, transform *view.Transform) *Editor {
	return &Editor{
		store:      store,
		view:       transform,
		tool:       ToolNone,
		editVertex: -1,
		editEdge:   -1,
	}
}

// SetLabelProvider sets the source of label and color for new annotations.
func (e *Editor) SetLabelProvider(p LabelProvider) {
	e.labels = p
}

// OnHint registers a callback for status messages.
func (e *Editor) OnHint(fn func(string)) {
	e.onHint = fn
}

// OnChanged registers a callback fired whenever annotations or draft
// state change and the canvas should redraw.
func (e *Editor) OnChanged(fn func()) {
	e.onChanged = fn
}

// Tool returns the active tool.
func (e *Editor) Tool() Tool {
	return e.tool
}

// SetTool switches the active tool, discarding any draft in progress and
// leaving edit mode.
func (e *Editor) SetTool(tool Tool) {
	hadState := e.Drafting() || e.editing
	e.resetDraft()
	e.exitEdit()
	e.tool = tool
	if hadState {
		e.changed()
	}
}

// Draft returns the provisional shape of a drag in progress, or nil.
func (e *Editor) Draft() annotation.Shape {
	return e.draft
}

// PolygonPoints returns the vertices accumulated by the polygon tool.
func (e *Editor) PolygonPoints() []geometry.Point2D {
	pts := make([]geometry.Point2D, len(e.polyPoints))
	copy(pts, e.polyPoints)
	return pts
}

// Drafting reports whether a drag or polygon draft is in progress.
func (e *Editor) Drafting() bool {
	return e.dragging || len(e.polyPoints) > 0
}

// InEditMode reports whether the editor is in edit mode.
func (e *Editor) InEditMode() bool {
	return e.editing
}

// EditIndex returns the annotation index being edited, or -1.
func (e *Editor) EditIndex() int {
	if !e.editing {
		return -1
	}
	return e.editIndex
}

// EnterEditMode starts editing the annotation at index. Refused while a
// draft is in progress. The active tool resets to none.
func (e *Editor) EnterEditMode(index int) bool {
	if e.Drafting() {
		e.hint("Finish or cancel the current drawing first")
		return false
	}
	if _, ok := e.store.Get(index); !ok {
		return false
	}
	e.tool = ToolNone
	e.editing = true
	e.editIndex = index
	e.editVertex = -1
	e.editEdge = -1
	e.engaged = false
	e.hint("Edit mode: drag a corner to reshape, an edge to move")
	e.changed()
	return true
}

// ExitEditMode leaves edit mode without committing anything.
func (e *Editor) ExitEditMode() {
	if !e.editing {
		return
	}
	e.exitEdit()
	e.hint("Edit mode off")
	e.changed()
}

// Click handles a tap at image coordinates. The point tool commits
// immediately; the polygon tool accumulates a vertex.
func (e *Editor) Click(x, y float64) {
	if e.editing {
		return
	}
	switch e.tool {
	case ToolPoint:
		label, color, ok := e.currentLabel()
		if !ok {
			return
		}
		if e.store.Add(annotation.New(annotation.NewPoint(x, y), label, color)) {
			e.hint(fmt.Sprintf("Added point at (%.0f, %.0f)", x, y))
			e.changed()
		}
	case ToolPolygon:
		e.polyPoints = append(e.polyPoints, geometry.Point2D{X: x, Y: y})
		e.hint(fmt.Sprintf("Polygon: %d point(s), right-click to finish", len(e.polyPoints)))
		e.changed()
	}
}

// Press handles a mouse press at image coordinates. In edit mode it
// engages a vertex or edge of the edited annotation, or exits edit mode on
// a miss. With the rectangle or circle tool it anchors a new drag.
func (e *Editor) Press(x, y float64) {
	p := geometry.Point2D{X: x, Y: y}

	if e.editing {
		ann, ok := e.store.Get(e.editIndex)
		if !ok {
			e.ExitEditMode()
			return
		}
		if v, ok := e.view.NearestVertex(p, ann.Shape); ok {
			e.editVertex = v
			e.editEdge = -1
		} else if g, ok := e.view.NearestEdge(p, ann.Shape); ok {
			e.editEdge = g
			e.editVertex = -1
		} else {
			e.ExitEditMode()
			return
		}
		e.engaged = true
		e.pressSnap = e.store.Snapshot()
		e.pressShape = ann.Shape.Clone()
		e.pressPoint = p
		return
	}

	switch e.tool {
	case ToolRectangle, ToolCircle:
		e.dragging = true
		e.anchor = p
		e.draft = nil
	}
}

// Drag handles mouse movement with the button held, at image coordinates.
func (e *Editor) Drag(x, y float64) {
	p := geometry.Point2D{X: x, Y: y}

	if e.editing {
		if !e.engaged {
			return
		}
		shape := e.pressShape.Clone()
		if e.editVertex >= 0 {
			shape.MoveVertex(e.editVertex, p)
		} else {
			// Whole-shape move: cumulative delta from the press point, not
			// an increment per drag event.
			delta := p.Sub(e.pressPoint)
			shape.Translate(delta.X, delta.Y)
		}
		e.store.UpdateShapeTransient(e.editIndex, shape)
		e.changed()
		return
	}

	if !e.dragging {
		return
	}
	switch e.tool {
	case ToolRectangle:
		e.draft = annotation.NewRect(e.anchor.X, e.anchor.Y, p.X, p.Y)
	case ToolCircle:
		e.draft = annotation.NewCircle(e.anchor.X, e.anchor.Y, p.X, p.Y)
	default:
		return
	}
	e.changed()
}

// Release handles the button release at image coordinates. In edit mode an
// engaged gesture commits as a single undo step. A rectangle or circle
// drag commits when it covers at least MinDragDistance display pixels.
func (e *Editor) Release(x, y float64) {
	p := geometry.Point2D{X: x, Y: y}

	if e.editing {
		if e.engaged {
			e.store.CommitSnapshot(e.pressSnap)
			e.engaged = false
			e.editVertex = -1
			e.editEdge = -1
			e.pressSnap = nil
			e.pressShape = nil
			e.changed()
		}
		return
	}

	if !e.dragging {
		return
	}
	e.dragging = false
	e.draft = nil

	if e.tool != ToolRectangle && e.tool != ToolCircle {
		return
	}

	displayDist := e.anchor.Distance(p) * e.view.Zoom()
	if displayDist < MinDragDistance {
		e.hint("Drag further to create an annotation")
		e.changed()
		return
	}

	x1, y1 := e.anchor.X, e.anchor.Y
	x2, y2 := p.X, p.Y
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	// Degenerate straight-line drags still get a visible 1px extent.
	if x2-x1 < 1 {
		x2 = x1 + 1
	}
	if y2-y1 < 1 {
		y2 = y1 + 1
	}

	label, color, ok := e.currentLabel()
	if !ok {
		e.changed()
		return
	}

	var shape annotation.Shape
	if e.tool == ToolRectangle {
		shape = annotation.NewRect(x1, y1, x2, y2)
	} else {
		shape = annotation.NewCircle(x1, y1, x2, y2)
	}
	if e.store.Add(annotation.New(shape, label, color)) {
		e.hint(fmt.Sprintf("Added %s", e.tool))
	}
	e.changed()
}

// CompletePolygon commits the accumulated polygon. At least 3 vertices
// are required.
func (e *Editor) CompletePolygon() bool {
	if e.tool != ToolPolygon || len(e.polyPoints) == 0 {
		return false
	}
	if len(e.polyPoints) < 3 {
		e.hint("A polygon needs at least 3 points")
		return false
	}
	label, color, ok := e.currentLabel()
	if !ok {
		return false
	}
	shape := annotation.NewPolygon(e.polyPoints)
	e.polyPoints = nil
	if !e.store.Add(annotation.New(shape, label, color)) {
		return false
	}
	e.hint("Added polygon")
	e.changed()
	return true
}

// Cancel discards any draft in progress.
func (e *Editor) Cancel() {
	if !e.Drafting() {
		return
	}
	e.resetDraft()
	e.hint("Drawing cancelled")
	e.changed()
}

func (e *Editor) currentLabel() (string, string, bool) {
	if e.labels == nil {
		return "", "", false
	}
	label, color := e.labels()
	if label == "" {
		e.hint("Select a label before drawing")
		return "", "", false
	}
	return label, color, true
}

func (e *Editor) resetDraft() {
	e.dragging = false
	e.draft = nil
	e.polyPoints = nil
}

func (e *Editor) exitEdit() {
	e.editing = false
	e.editIndex = 0
	e.editVertex = -1
	e.editEdge = -1
	e.engaged = false
	e.pressSnap = nil
	e.pressShape = nil
}

func (e *Editor) hint(msg string) {
	if e.onHint != nil {
		e.onHint(msg)
	}
}

func (e *Editor) changed() {
	if e.onChanged != nil {
		e.onChanged()
	}
}
