// Package colorutil provides shared color utilities for the labeling application.
package colorutil

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultAnnotationColor is the drawing color used when a label has no
// color assigned.
const DefaultAnnotationColor = "#FF0000"

// Common overlay colors used throughout the application.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// ParseHex parses a "#RRGGBB" hex string into an RGBA color.
// Malformed input falls back to the default annotation color.
func ParseHex(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Red
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// FormatHex formats an RGBA color as a "#RRGGBB" hex string.
func FormatHex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RandomLabelColor returns a random pleasant hex color for a newly created
// label, e.g. when importing categories that have no color assigned.
func RandomLabelColor() string {
	return colorful.HappyColor().Hex()
}

// DistinctLabelColors returns n visually distinct hex colors for labels.
// Colors are spread evenly around the hue circle.
func DistinctLabelColors(n int) []string {
	if n <= 0 {
		return nil
	}
	colors := make([]string, n)
	for i := 0; i < n; i++ {
		h := float64(i) * 360.0 / float64(n)
		colors[i] = colorful.Hsv(h, 0.85, 0.95).Hex()
	}
	return colors
}
