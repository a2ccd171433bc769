package canvas

import (
	"image"
	"image/color"
	"math"

	"image-labeler/internal/annotation"
	"image-labeler/pkg/colorutil"
	"image-labeler/pkg/geometry"
)

const (
	outlineThickness = 2
	editThickness    = 3
	handleSize       = 6
	pointMarkRadius  = 4
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
// Each digit is represented as 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// letterPatterns contains 3x5 pixel patterns for letters A-Z and common symbols.
var letterPatterns = map[rune][5]uint8{
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'B': {0b110, 0b101, 0b110, 0b101, 0b110},
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	'D': {0b110, 0b101, 0b101, 0b101, 0b110},
	'E': {0b111, 0b100, 0b110, 0b100, 0b111},
	'F': {0b111, 0b100, 0b110, 0b100, 0b100},
	'G': {0b011, 0b100, 0b101, 0b101, 0b011},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'J': {0b001, 0b001, 0b001, 0b101, 0b010},
	'K': {0b101, 0b101, 0b110, 0b101, 0b101},
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'M': {0b101, 0b111, 0b101, 0b101, 0b101},
	'N': {0b101, 0b111, 0b111, 0b101, 0b101},
	'O': {0b010, 0b101, 0b101, 0b101, 0b010},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'Q': {0b010, 0b101, 0b101, 0b111, 0b011},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'S': {0b011, 0b100, 0b010, 0b001, 0b110},
	'T': {0b111, 0b010, 0b010, 0b010, 0b010},
	'U': {0b101, 0b101, 0b101, 0b101, 0b111},
	'V': {0b101, 0b101, 0b101, 0b101, 0b010},
	'W': {0b101, 0b101, 0b101, 0b111, 0b101},
	'X': {0b101, 0b101, 0b010, 0b101, 0b101},
	'Y': {0b101, 0b101, 0b010, 0b010, 0b010},
	'Z': {0b111, 0b001, 0b010, 0b100, 0b111},
	'+': {0b000, 0b010, 0b111, 0b010, 0b000},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	'*': {0b000, 0b101, 0b010, 0b101, 0b000},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

// getCharPattern returns the 3x5 pixel pattern for a character.
// Returns a zero pattern for unsupported characters.
func getCharPattern(ch rune) [5]uint8 {
	if ch >= '0' && ch <= '9' {
		return digitPatterns[ch-'0']
	}
	if ch >= 'a' && ch <= 'z' {
		ch = ch - 'a' + 'A'
	}
	if pattern, ok := letterPatterns[ch]; ok {
		return pattern
	}
	return [5]uint8{}
}

// drawAnnotation draws one annotation in display coordinates. The edited
// annotation gets a thicker outline and grab handles on its vertices.
func (ac *AnnotationCanvas) drawAnnotation(output *image.RGBA, a annotation.Annotation, selected bool) {
	col := colorutil.ParseHex(a.Color)
	zoom := ac.state.View.Zoom()
	coords := ac.state.View.ImageToDisplay(a.Shape.Coords())

	thickness := outlineThickness
	if selected {
		thickness = editThickness
	}

	switch a.Shape.Kind() {
	case annotation.KindPoint:
		ac.drawPointMark(output, int(coords[0]), int(coords[1]), col)
	case annotation.KindRectangle:
		ac.drawRectOutline(output, coords, col, thickness, false)
	case annotation.KindCircle:
		ac.drawEllipseOutline(output, coords, col, thickness)
	case annotation.KindPolygon:
		for i := 0; i+3 < len(coords); i += 2 {
			ac.drawLine(output, int(coords[i]), int(coords[i+1]), int(coords[i+2]), int(coords[i+3]), col, thickness)
		}
		n := len(coords)
		ac.drawLine(output, int(coords[n-2]), int(coords[n-1]), int(coords[0]), int(coords[1]), col, thickness)
	}

	if selected {
		for _, v := range a.Shape.Vertices() {
			ac.drawHandle(output, int(v.X*zoom), int(v.Y*zoom), col)
		}
	}

	if a.Label != "" {
		b := a.Shape.Bounds()
		labelX := int(b.X * zoom)
		labelY := int(b.Y*zoom) - 8
		ac.drawText(output, a.Label, labelX, labelY, col)
	}
}

// drawDraftShape draws an in-progress rectangle or circle drag with a
// dashed outline.
func (ac *AnnotationCanvas) drawDraftShape(output *image.RGBA, shape annotation.Shape) {
	coords := ac.state.View.ImageToDisplay(shape.Coords())
	switch shape.Kind() {
	case annotation.KindRectangle:
		ac.drawRectOutline(output, coords, colorutil.Yellow, 1, true)
	case annotation.KindCircle:
		ac.drawRectOutline(output, coords, colorutil.Yellow, 1, true)
		ac.drawEllipseOutline(output, coords, colorutil.Yellow, 1)
	}
}

// drawPolygonDraft draws the accumulated polygon vertices and the lines
// between them.
func (ac *AnnotationCanvas) drawPolygonDraft(output *image.RGBA, pts []geometry.Point2D) {
	zoom := ac.state.View.Zoom()
	for i := 0; i+1 < len(pts); i++ {
		ac.drawLine(output,
			int(pts[i].X*zoom), int(pts[i].Y*zoom),
			int(pts[i+1].X*zoom), int(pts[i+1].Y*zoom),
			colorutil.Yellow, 1)
	}
	for _, p := range pts {
		ac.drawHandle(output, int(p.X*zoom), int(p.Y*zoom), colorutil.Yellow)
	}
}

// drawRectOutline draws a rectangle outline from display coordinates
// [x1,y1,x2,y2], dashed when requested.
func (ac *AnnotationCanvas) drawRectOutline(output *image.RGBA, coords []float64, col color.RGBA, thickness int, dashed bool) {
	x1, y1, x2, y2 := int(coords[0]), int(coords[1]), int(coords[2]), int(coords[3])
	bounds := output.Bounds()

	set := func(x, y int) {
		if dashed && (x+y)%4 >= 2 {
			return
		}
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			output.Set(x, y, col)
		}
	}

	for t := 0; t < thickness; t++ {
		for x := x1; x <= x2; x++ {
			set(x, y1+t)
			set(x, y2-t)
		}
		for y := y1; y <= y2; y++ {
			set(x1+t, y)
			set(x2-t, y)
		}
	}
}

// drawEllipseOutline draws the ellipse inscribed in the display-space
// bounding box [x1,y1,x2,y2].
func (ac *AnnotationCanvas) drawEllipseOutline(output *image.RGBA, coords []float64, col color.RGBA, thickness int) {
	cx := (coords[0] + coords[2]) / 2
	cy := (coords[1] + coords[3]) / 2
	rx := (coords[2] - coords[0]) / 2
	ry := (coords[3] - coords[1]) / 2
	if rx < 1 {
		rx = 1
	}
	if ry < 1 {
		ry = 1
	}

	bounds := output.Bounds()
	minR := math.Min(rx, ry)
	for y := int(cy - ry - 1); y <= int(cy+ry+1); y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := int(cx - rx - 1); x <= int(cx+rx+1); x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := (float64(x) - cx) / rx
			dy := (float64(y) - cy) / ry
			dist := math.Sqrt(dx*dx + dy*dy)
			if math.Abs(dist-1)*minR <= float64(thickness) {
				output.Set(x, y, col)
			}
		}
	}
}

// drawPointMark draws a point annotation as a small circle with a cross
// through it.
func (ac *AnnotationCanvas) drawPointMark(output *image.RGBA, x, y int, col color.RGBA) {
	bounds := output.Bounds()
	r := pointMarkRadius
	r2 := r * r
	innerR2 := (r - 1) * (r - 1)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d2 := dx*dx + dy*dy
			if d2 > r2 || d2 < innerR2 {
				continue
			}
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				output.Set(px, py, col)
			}
		}
	}
	ac.drawLine(output, x-r-2, y, x+r+2, y, col, 1)
	ac.drawLine(output, x, y-r-2, x, y+r+2, col, 1)
}

// drawHandle draws a vertex grab handle centered on a display position.
func (ac *AnnotationCanvas) drawHandle(output *image.RGBA, x, y int, col color.RGBA) {
	bounds := output.Bounds()
	half := handleSize / 2
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			px, py := x+dx, y+dy
			if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
				continue
			}
			onBorder := dx == -half || dx == half || dy == -half || dy == half
			if onBorder {
				output.Set(px, py, col)
			} else {
				output.Set(px, py, colorutil.White)
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func (ac *AnnotationCanvas) drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.Set(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawText draws a label using the built-in 3x5 pixel font, scaled with
// the zoom so it stays readable.
func (ac *AnnotationCanvas) drawText(output *image.RGBA, text string, x, y int, col color.RGBA) {
	scale := int(ac.state.View.Zoom() * 2)
	if scale < 1 {
		scale = 1
	}
	if scale > 6 {
		scale = 6
	}

	charWidth := 3 * scale
	charHeight := 5 * scale
	spacing := scale

	bounds := output.Bounds()
	startY := y - charHeight
	if startY < bounds.Min.Y {
		startY = bounds.Min.Y
	}

	for i, ch := range text {
		pattern := getCharPattern(ch)
		charX := x + i*(charWidth+spacing)

		for row := 0; row < 5; row++ {
			for c := 0; c < 3; c++ {
				if (pattern[row] & (1 << (2 - c))) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						px := charX + c*scale + dx
						py := startY + row*scale + dy
						if px >= bounds.Min.X && px < bounds.Max.X &&
							py >= bounds.Min.Y && py < bounds.Max.Y {
							output.Set(px, py, col)
						}
					}
				}
			}
		}
	}
}
