// Package app provides application state, lifecycle management, and events.
package app

import (
	"fmt"
	"sync"

	"image-labeler/internal/annotation"
	"image-labeler/internal/edit"
	"image-labeler/internal/image"
	"image-labeler/internal/view"
	"image-labeler/pkg/colorutil"
)

// EventType identifies different application events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventImagesChanged
	EventAnnotationsChanged
	EventLabelsChanged
	EventSelectionChanged
	EventModified
	EventHint
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the workspace: the image list, the active layer, the
// annotation store and label set, and the view/editor pair driving the
// canvas. UI components receive it explicitly; there is no global state.
type State struct {
	mu sync.RWMutex

	Images       []string
	CurrentIndex int
	Layer        *image.Layer

	Store  *annotation.Store
	Labels *annotation.LabelSet
	View   *view.Transform
	Editor *edit.Editor

	SelectedLabel string
	Modified      bool

	listeners map[EventType][]EventListener
}

// NewState creates a workspace with an empty store and wires the editor
// callbacks into the event bus.
func NewState() *State {
	s := &State{
		CurrentIndex: -1,
		Store:        annotation.NewStore(),
		Labels:       annotation.NewLabelSet(),
		View:         view.NewTransform(),
		listeners:    make(map[EventType][]EventListener),
	}
	s.Editor = edit.NewEditor(s.Store, s.View)
	s.Editor.SetLabelProvider(s.CurrentLabelAndColor)
	s.Editor.OnHint(func(msg string) { s.Emit(EventHint, msg) })
	s.Editor.OnChanged(func() {
		s.SetModified(true)
		s.Emit(EventAnnotationsChanged, nil)
	})
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the workspace as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// Hint publishes a status-bar message.
func (s *State) Hint(msg string) {
	s.Emit(EventHint, msg)
}

// CurrentImagePath returns the path of the active image, or "".
func (s *State) CurrentImagePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Images) {
		return ""
	}
	return s.Images[s.CurrentIndex]
}

// LoadImage loads a single image and makes it active, adding it to the
// image list if it is not already there.
func (s *State) LoadImage(path string) error {
	layer, err := image.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	index := -1
	for i, p := range s.Images {
		if p == path {
			index = i
			break
		}
	}
	if index < 0 {
		s.Images = append(s.Images, path)
		index = len(s.Images) - 1
	}
	s.CurrentIndex = index
	s.Layer = layer
	s.mu.Unlock()

	s.Store.SwitchImage(path)

	s.Emit(EventImagesChanged, nil)
	s.Emit(EventImageLoaded, layer)
	s.Emit(EventAnnotationsChanged, nil)
	s.Hint(fmt.Sprintf("Loaded %s (%dx%d)", layer.Name(), layer.Width(), layer.Height()))
	return nil
}

// LoadFolder replaces the image list with the supported images found in
// dir and activates the first one.
func (s *State) LoadFolder(dir string) error {
	files := image.FindImageFiles(dir)
	if len(files) == 0 {
		return fmt.Errorf("no supported images in %s", dir)
	}

	s.mu.Lock()
	s.Images = files
	s.CurrentIndex = -1
	s.mu.Unlock()

	s.Emit(EventImagesChanged, nil)
	return s.LoadImage(files[0])
}

// SwitchToImage activates the image at the given list index.
func (s *State) SwitchToImage(index int) error {
	s.mu.RLock()
	if index < 0 || index >= len(s.Images) {
		s.mu.RUnlock()
		return fmt.Errorf("image index %d out of range", index)
	}
	path := s.Images[index]
	s.mu.RUnlock()
	return s.LoadImage(path)
}

// SelectLabel sets the label new annotations are created with.
func (s *State) SelectLabel(name string) {
	s.mu.Lock()
	s.SelectedLabel = name
	s.mu.Unlock()
	s.Emit(EventSelectionChanged, name)
}

// CurrentLabelAndColor returns the selected label and its color. This is
// the editor's label provider.
func (s *State) CurrentLabelAndColor() (string, string) {
	s.mu.RLock()
	label := s.SelectedLabel
	s.mu.RUnlock()
	if label == "" {
		return "", colorutil.DefaultAnnotationColor
	}
	return label, s.Labels.Color(label)
}

// AddLabel creates a new label and selects it.
func (s *State) AddLabel(name, color string) bool {
	if !s.Labels.Add(name, color) {
		return false
	}
	s.SelectLabel(name)
	s.SetModified(true)
	s.Emit(EventLabelsChanged, nil)
	return true
}

// RenameLabel renames a label and rewrites the references on the active
// image's annotations.
func (s *State) RenameLabel(old, new, color string) bool {
	if !s.Labels.Rename(old, new, color) {
		return false
	}
	s.Store.RenameLabel(old, new, color)
	s.mu.Lock()
	if s.SelectedLabel == old {
		s.SelectedLabel = new
	}
	s.mu.Unlock()
	s.SetModified(true)
	s.Emit(EventLabelsChanged, nil)
	s.Emit(EventAnnotationsChanged, nil)
	return true
}

// DeleteLabel removes a label. Annotations on the active image that
// referenced it keep their shapes and colors but lose the label.
func (s *State) DeleteLabel(name string) bool {
	if !s.Labels.Delete(name) {
		return false
	}
	cleared := s.Store.ClearLabel(name)
	s.mu.Lock()
	if s.SelectedLabel == name {
		s.SelectedLabel = ""
	}
	s.mu.Unlock()
	s.SetModified(true)
	s.Emit(EventLabelsChanged, nil)
	if cleared > 0 {
		s.Emit(EventAnnotationsChanged, nil)
	}
	s.Hint(fmt.Sprintf("Deleted label %q (%d annotation(s) unlabeled)", name, cleared))
	return true
}

// DeleteAnnotation removes the annotation at index on the active image.
func (s *State) DeleteAnnotation(index int) bool {
	removed, ok := s.Store.Delete(index)
	if !ok {
		return false
	}
	s.SetModified(true)
	s.Emit(EventAnnotationsChanged, nil)
	s.Hint(fmt.Sprintf("Deleted %s annotation", removed.Shape.Kind()))
	return true
}

// Undo reverts the most recent annotation change on the active image.
func (s *State) Undo() bool {
	if !s.Store.Undo() {
		s.Hint("Nothing to undo")
		return false
	}
	s.SetModified(true)
	s.Emit(EventAnnotationsChanged, nil)
	return true
}

// Redo re-applies the most recently undone change.
func (s *State) Redo() bool {
	if !s.Store.Redo() {
		s.Hint("Nothing to redo")
		return false
	}
	s.SetModified(true)
	s.Emit(EventAnnotationsChanged, nil)
	return true
}

// ResetWorkspace clears images, annotations, labels, and view state.
// Confirmation is the caller's responsibility.
func (s *State) ResetWorkspace() {
	s.Editor.SetTool(edit.ToolNone)

	s.mu.Lock()
	s.Images = nil
	s.CurrentIndex = -1
	s.Layer = nil
	s.SelectedLabel = ""
	s.Modified = false
	s.mu.Unlock()

	s.Store.Clear()
	s.Labels.Clear()
	s.View.Reset()

	s.Emit(EventImagesChanged, nil)
	s.Emit(EventLabelsChanged, nil)
	s.Emit(EventAnnotationsChanged, nil)
	s.Hint("Workspace reset")
}
