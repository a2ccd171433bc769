// Package canvas provides the annotation canvas: the active image drawn
// at the current zoom with annotations on top, and mouse routing into
// the editor.
package canvas

import (
	"image"
	"image/draw"

	"image-labeler/internal/app"
	"image-labeler/internal/edit"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// AnnotationCanvas displays the active image with its annotations and
// feeds clicks and drags to the editor in image coordinates.
type AnnotationCanvas struct {
	widget.BaseWidget

	state *app.State

	raster  *fynecanvas.Raster
	scroll  *zoomScroll
	content *draggableContent
	imgSize fyne.Size

	// Pan mode turns drags into scrolling instead of drawing.
	panMode bool

	// Drag state: the press position is only known once the first drag
	// event arrives, as its position minus the accumulated delta.
	dragging bool
	lastDrag fyne.Position
}

// New creates the canvas over the given workspace state and subscribes
// to the events that require a redraw.
func New(state *app.State) *AnnotationCanvas {
	ac := &AnnotationCanvas{
		state:   state,
		imgSize: fyne.NewSize(400, 300),
	}

	ac.raster = fynecanvas.NewRaster(ac.draw)
	ac.raster.ScaleMode = fynecanvas.ImageScalePixels
	ac.raster.SetMinSize(ac.imgSize)

	ac.content = newDraggableContent(ac, ac.raster)
	ac.scroll = newZoomScroll(ac.content, ac)

	state.On(app.EventImageLoaded, func(interface{}) { ac.updateContentSize() })
	state.On(app.EventAnnotationsChanged, func(interface{}) { ac.Refresh() })

	ac.ExtendBaseWidget(ac)
	return ac
}

// Container returns the scrollable canvas for embedding in layouts.
func (ac *AnnotationCanvas) Container() fyne.CanvasObject {
	return ac.scroll
}

// SetPanMode switches between drawing and drag-to-pan.
func (ac *AnnotationCanvas) SetPanMode(pan bool) {
	ac.panMode = pan
}

// PanMode reports whether drag-to-pan is active.
func (ac *AnnotationCanvas) PanMode() bool {
	return ac.panMode
}

// ZoomIn applies one zoom button step.
func (ac *AnnotationCanvas) ZoomIn() {
	ac.state.View.ZoomIn()
	ac.updateContentSize()
}

// ZoomOut applies one zoom button step.
func (ac *AnnotationCanvas) ZoomOut() {
	ac.state.View.ZoomOut()
	ac.updateContentSize()
}

// ResetZoom restores 1:1 zoom.
func (ac *AnnotationCanvas) ResetZoom() {
	ac.state.View.Reset()
	ac.updateContentSize()
}

// FitToWindow zooms so the whole image is visible in the viewport.
func (ac *AnnotationCanvas) FitToWindow() {
	layer := ac.state.Layer
	if layer == nil {
		return
	}
	size := ac.scroll.Size()
	ac.state.View.FitToWindow(
		float64(layer.Width()), float64(layer.Height()),
		float64(size.Width), float64(size.Height))
	ac.updateContentSize()
}

func (ac *AnnotationCanvas) wheelZoom(delta float64) {
	ac.state.View.WheelZoom(delta)
	ac.updateContentSize()
}

// Refresh redraws the raster.
func (ac *AnnotationCanvas) Refresh() {
	ac.raster.Refresh()
}

// updateContentSize resizes the raster to the zoomed image dimensions.
func (ac *AnnotationCanvas) updateContentSize() {
	layer := ac.state.Layer
	if layer == nil || layer.Width() == 0 || layer.Height() == 0 {
		ac.imgSize = fyne.NewSize(400, 300)
	} else {
		zoom := ac.state.View.Zoom()
		ac.imgSize = fyne.NewSize(
			float32(float64(layer.Width())*zoom),
			float32(float64(layer.Height())*zoom))
	}

	ac.raster.SetMinSize(ac.imgSize)
	ac.raster.Resize(ac.imgSize)
	if ac.content != nil {
		ac.content.Resize(ac.imgSize)
		ac.content.Refresh()
	}
	ac.raster.Refresh()
	if ac.scroll != nil {
		ac.scroll.Refresh()
	}
}

// imageCoords converts a viewport position to image coordinates,
// correcting for the scroll offset and the zoom.
func (ac *AnnotationCanvas) imageCoords(pos fyne.Position) (float64, float64) {
	offset := ac.scroll.Offset()
	return ac.state.View.DisplayToImage(
		float64(pos.X+offset.X),
		float64(pos.Y+offset.Y))
}

// draw renders the image and annotations at the current zoom.
func (ac *AnnotationCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}

	layer := ac.state.Layer
	if layer == nil {
		return output
	}

	zoom := ac.state.View.Zoom()
	scaled := layer.Display(zoom)
	if scaled != nil {
		b := scaled.Bounds()
		draw.Draw(output, image.Rect(0, 0, b.Dx(), b.Dy()), scaled, b.Min, draw.Src)
	}

	editor := ac.state.Editor
	editIndex := editor.EditIndex()
	for i, a := range ac.state.Store.Annotations() {
		ac.drawAnnotation(output, a, i == editIndex)
	}

	if draft := editor.Draft(); draft != nil {
		ac.drawDraftShape(output, draft)
	}
	if pts := editor.PolygonPoints(); len(pts) > 0 {
		ac.drawPolygonDraft(output, pts)
	}

	return output
}

// zoomScroll wraps a scroll container but routes the wheel to zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *AnnotationCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *AnnotationCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	zs.canvas.wheelZoom(float64(ev.Scrolled.DY))
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// ScrollBy moves the viewport by the given delta.
func (zs *zoomScroll) ScrollBy(dx, dy float32) {
	offset := zs.scroll.Offset
	offset.X -= dx
	offset.Y -= dy
	if offset.X < 0 {
		offset.X = 0
	}
	if offset.Y < 0 {
		offset.Y = 0
	}
	zs.scroll.Offset = offset
	zs.scroll.Refresh()
}

func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// draggableContent wraps the raster to receive mouse events.
type draggableContent struct {
	widget.BaseWidget
	canvas *AnnotationCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(ac *AnnotationCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{canvas: ac, raster: raster}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

// inBounds rejects events Fyne delivers with positions outside the
// widget, which happens when a click lands on a sibling.
func (dc *draggableContent) inBounds(pos fyne.Position) bool {
	size := dc.Size()
	return pos.X >= 0 && pos.Y >= 0 && pos.X <= size.Width && pos.Y <= size.Height
}

// Tapped handles a left click: point placement or polygon vertices.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	if !dc.inBounds(ev.Position) {
		return
	}
	x, y := dc.canvas.imageCoords(ev.Position)
	dc.canvas.state.Editor.Click(x, y)
}

// TappedSecondary handles a right click: completes the polygon in
// progress, or leaves edit mode.
func (dc *draggableContent) TappedSecondary(ev *fyne.PointEvent) {
	if !dc.inBounds(ev.Position) {
		return
	}
	editor := dc.canvas.state.Editor
	if editor.Tool() == edit.ToolPolygon && editor.Drafting() {
		editor.CompletePolygon()
		return
	}
	if editor.InEditMode() {
		editor.ExitEditMode()
	}
}

func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	ac := dc.canvas
	if ac.panMode {
		ac.scroll.ScrollBy(ev.Dragged.DX, ev.Dragged.DY)
		return
	}

	if !ac.dragging {
		ac.dragging = true
		// The press position is this event's position minus the delta
		// accumulated since the press.
		press := fyne.Position{
			X: ev.Position.X - ev.Dragged.DX,
			Y: ev.Position.Y - ev.Dragged.DY,
		}
		px, py := ac.imageCoords(press)
		ac.state.Editor.Press(px, py)
	}

	ac.lastDrag = ev.Position
	x, y := ac.imageCoords(ev.Position)
	ac.state.Editor.Drag(x, y)
}

func (dc *draggableContent) DragEnd() {
	ac := dc.canvas
	if !ac.dragging {
		return
	}
	ac.dragging = false
	x, y := ac.imageCoords(ac.lastDrag)
	ac.state.Editor.Release(x, y)
}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	dc.canvas.wheelZoom(float64(ev.Scrolled.DY))
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

// CreateRenderer implements fyne.Widget.
func (ac *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &annotationCanvasRenderer{canvas: ac}
}

type annotationCanvasRenderer struct {
	canvas *AnnotationCanvas
}

func (r *annotationCanvasRenderer) Layout(size fyne.Size) {
	if r.canvas.scroll != nil {
		r.canvas.scroll.Resize(size)
	}
}

func (r *annotationCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *annotationCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *annotationCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *annotationCanvasRenderer) Destroy() {}
