package annotation

import "image-labeler/pkg/colorutil"

// LabelSet holds the ordered set of label names and their display colors.
// Deleting a label never deletes annotations; callers clear the references
// through the store so the shapes keep their colors.
type LabelSet struct {
	names  []string
	colors map[string]string
}

// NewLabelSet creates an empty label set.
func NewLabelSet() *LabelSet {
	return &LabelSet{colors: make(map[string]string)}
}

// Names returns the label names in insertion order.
func (ls *LabelSet) Names() []string {
	names := make([]string, len(ls.names))
	copy(names, ls.names)
	return names
}

// Has reports whether the label exists.
func (ls *LabelSet) Has(name string) bool {
	_, ok := ls.colors[name]
	return ok
}

// Count returns the number of labels.
func (ls *LabelSet) Count() int {
	return len(ls.names)
}

// Color returns the display color for a label, falling back to the
// default annotation color for unknown names.
func (ls *LabelSet) Color(name string) string {
	if c, ok := ls.colors[name]; ok && c != "" {
		return c
	}
	return colorutil.DefaultAnnotationColor
}

// Colors returns a copy of the name to color map.
func (ls *LabelSet) Colors() map[string]string {
	colors := make(map[string]string, len(ls.colors))
	for k, v := range ls.colors {
		colors[k] = v
	}
	return colors
}

// Add inserts a new label. Empty names and duplicates are rejected.
func (ls *LabelSet) Add(name, color string) bool {
	if name == "" || ls.Has(name) {
		return false
	}
	if color == "" {
		color = colorutil.DefaultAnnotationColor
	}
	ls.names = append(ls.names, name)
	ls.colors[name] = color
	return true
}

// SetColor changes the color of an existing label.
func (ls *LabelSet) SetColor(name, color string) bool {
	if !ls.Has(name) || color == "" {
		return false
	}
	ls.colors[name] = color
	return true
}

// Rename changes a label's name and color in place, keeping its position.
// Renaming onto another existing label is rejected.
func (ls *LabelSet) Rename(old, new, color string) bool {
	if !ls.Has(old) || new == "" {
		return false
	}
	if new != old && ls.Has(new) {
		return false
	}
	for i, n := range ls.names {
		if n == old {
			ls.names[i] = new
			break
		}
	}
	delete(ls.colors, old)
	if color == "" {
		color = colorutil.DefaultAnnotationColor
	}
	ls.colors[new] = color
	return true
}

// Delete removes a label from the set.
func (ls *LabelSet) Delete(name string) bool {
	if !ls.Has(name) {
		return false
	}
	for i, n := range ls.names {
		if n == name {
			ls.names = append(ls.names[:i], ls.names[i+1:]...)
			break
		}
	}
	delete(ls.colors, name)
	return true
}

// Merge adds labels and colors loaded from annotation files, keeping
// existing entries and their colors.
func (ls *LabelSet) Merge(names []string, colors map[string]string) {
	for _, name := range names {
		if name == "" || ls.Has(name) {
			continue
		}
		color := colors[name]
		if color == "" {
			color = colorutil.RandomLabelColor()
		}
		ls.names = append(ls.names, name)
		ls.colors[name] = color
	}
}

// Clear removes all labels.
func (ls *LabelSet) Clear() {
	ls.names = nil
	ls.colors = make(map[string]string)
}
