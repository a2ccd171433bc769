package annotation

import (
	"fmt"
	"strings"
)

// Annotation is a single annotated shape on an image. Label may be empty
// when the label it referenced was deleted; the drawing color is retained
// so the shape stays visible.
type Annotation struct {
	Shape Shape
	Label string
	Color string
}

// New creates an annotation with the given shape, label, and color.
func New(shape Shape, label, color string) Annotation {
	return Annotation{Shape: shape, Label: label, Color: color}
}

// Clone returns a deep copy of the annotation.
func (a Annotation) Clone() Annotation {
	c := a
	if a.Shape != nil {
		c.Shape = a.Shape.Clone()
	}
	return c
}

// Summary returns a one-line description for list display, numbered from 1.
func (a Annotation) Summary(index int) string {
	label := a.Label
	if label == "" {
		label = "unlabeled"
	}
	return fmt.Sprintf("%d. %s - %s", index+1, a.Shape.Kind(), label)
}

// Details returns a multi-line description for the detail view.
func (a Annotation) Details() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\n", a.Shape.Kind())
	if a.Label != "" {
		fmt.Fprintf(&b, "Label: %s\n", a.Label)
	} else {
		b.WriteString("Label: (none)\n")
	}
	fmt.Fprintf(&b, "Color: %s\n", a.Color)
	coords := a.Shape.Coords()
	fmt.Fprintf(&b, "Coordinates: %v\n", coords)
	if a.Shape.Kind() != KindPoint {
		fmt.Fprintf(&b, "Area: %.1f px²", a.Shape.Area())
	}
	return strings.TrimRight(b.String(), "\n")
}
