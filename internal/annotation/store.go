package annotation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxUndoSteps bounds the undo history. When full, the oldest snapshot is
// evicted first.
const MaxUndoSteps = 50

// Mutation is a typed edit applied to a stored annotation.
type Mutation interface {
	apply(*Annotation)
}

// SetShape replaces the annotation's geometry.
type SetShape struct {
	Shape Shape
}

func (m SetShape) apply(a *Annotation) {
	if m.Shape != nil {
		a.Shape = m.Shape.Clone()
	}
}

// SetLabel replaces the annotation's label.
type SetLabel struct {
	Label string
}

func (m SetLabel) apply(a *Annotation) { a.Label = m.Label }

// SetColor replaces the annotation's drawing color.
type SetColor struct {
	Color string
}

func (m SetColor) apply(a *Annotation) { a.Color = m.Color }

// Store holds the annotation sequences of all visited images, with exactly
// one active sequence that edits and history apply to. Switching images
// freezes the outgoing sequence and resets both history stacks.
type Store struct {
	byImage map[string][]Annotation
	active  string
	current []Annotation

	undo [][]Annotation
	redo [][]Annotation
}

// NewStore creates an empty store with no active image.
func NewStore() *Store {
	return &Store{byImage: make(map[string][]Annotation)}
}

// ActiveImage returns the identifier of the active image sequence.
func (s *Store) ActiveImage() string {
	return s.active
}

// Count returns the number of annotations on the active image.
func (s *Store) Count() int {
	return len(s.current)
}

// Annotations returns the active sequence. The returned slice is a copy;
// shapes are shared and must be treated as read-only by callers.
func (s *Store) Annotations() []Annotation {
	out := make([]Annotation, len(s.current))
	copy(out, s.current)
	return out
}

// Get returns a deep copy of the annotation at index.
func (s *Store) Get(index int) (Annotation, bool) {
	if index < 0 || index >= len(s.current) {
		return Annotation{}, false
	}
	return s.current[index].Clone(), true
}

// Add appends an annotation to the active sequence. Annotations without a
// shape or without a label are rejected.
func (s *Store) Add(a Annotation) bool {
	if a.Shape == nil || a.Label == "" {
		return false
	}
	s.pushUndo()
	s.current = append(s.current, a.Clone())
	return true
}

// Delete removes the annotation at index, returning the removed entry.
func (s *Store) Delete(index int) (Annotation, bool) {
	if index < 0 || index >= len(s.current) {
		return Annotation{}, false
	}
	removed := s.current[index]
	s.pushUndo()
	s.current = append(s.current[:index], s.current[index+1:]...)
	return removed, true
}

// Update applies mutations to the annotation at index as a single undo step.
func (s *Store) Update(index int, muts ...Mutation) bool {
	if index < 0 || index >= len(s.current) || len(muts) == 0 {
		return false
	}
	s.pushUndo()
	a := s.current[index].Clone()
	for _, m := range muts {
		m.apply(&a)
	}
	s.current[index] = a
	return true
}

// UpdateShapeTransient replaces a shape without touching history. It is
// used for in-progress drags; the caller captures a Snapshot before the
// gesture and commits it once on release.
func (s *Store) UpdateShapeTransient(index int, shape Shape) bool {
	if index < 0 || index >= len(s.current) || shape == nil {
		return false
	}
	s.current[index].Shape = shape.Clone()
	return true
}

// Snapshot returns a deep copy of the active sequence.
func (s *Store) Snapshot() []Annotation {
	return cloneSeq(s.current)
}

// CommitSnapshot pushes a previously captured snapshot onto the undo stack,
// so the whole gesture between capture and commit undoes as one step.
func (s *Store) CommitSnapshot(snap []Annotation) {
	s.undo = append(s.undo, cloneSeq(snap))
	if len(s.undo) > MaxUndoSteps {
		s.undo = s.undo[1:]
	}
	s.redo = nil
}

// Undo restores the most recent snapshot. Returns false when the undo
// stack is empty.
func (s *Store) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	s.redo = append(s.redo, cloneSeq(s.current))
	last := len(s.undo) - 1
	s.current = s.undo[last]
	s.undo = s.undo[:last]
	return true
}

// Redo re-applies the most recently undone snapshot.
func (s *Store) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	s.undo = append(s.undo, cloneSeq(s.current))
	last := len(s.redo) - 1
	s.current = s.redo[last]
	s.redo = s.redo[:last]
	return true
}

// CanUndo reports whether an undo step is available.
func (s *Store) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether a redo step is available.
func (s *Store) CanRedo() bool { return len(s.redo) > 0 }

// SwitchImage saves the active sequence under its image and activates the
// sequence for imageID, creating an empty one for unvisited images. Both
// history stacks are cleared.
func (s *Store) SwitchImage(imageID string) {
	if s.active != "" {
		s.byImage[s.active] = cloneSeq(s.current)
	}
	s.active = imageID
	s.current = cloneSeq(s.byImage[imageID])
	s.undo = nil
	s.redo = nil
}

// SetImageAnnotations replaces the stored sequence for an image, e.g. when
// loading annotation files. Replacing the active image clears history.
func (s *Store) SetImageAnnotations(imageID string, anns []Annotation) {
	if imageID == "" {
		return
	}
	seq := cloneSeq(anns)
	s.byImage[imageID] = seq
	if imageID == s.active {
		s.current = cloneSeq(seq)
		s.undo = nil
		s.redo = nil
	}
}

// ForImage returns a deep copy of the stored sequence for an image, which
// is the live sequence when the image is active.
func (s *Store) ForImage(imageID string) []Annotation {
	if imageID == s.active {
		return cloneSeq(s.current)
	}
	return cloneSeq(s.byImage[imageID])
}

// ClearLabel empties the label on active annotations that reference name,
// keeping their colors. No history step is recorded. Returns the number of
// annotations touched.
func (s *Store) ClearLabel(name string) int {
	if name == "" {
		return 0
	}
	n := 0
	for i := range s.current {
		if s.current[i].Label == name {
			s.current[i].Label = ""
			n++
		}
	}
	return n
}

// RenameLabel rewrites label and color on active annotations that
// reference old. No history step is recorded.
func (s *Store) RenameLabel(old, new, color string) int {
	if old == "" || new == "" {
		return 0
	}
	n := 0
	for i := range s.current {
		if s.current[i].Label == old {
			s.current[i].Label = new
			s.current[i].Color = color
			n++
		}
	}
	return n
}

// Clear removes all sequences and history.
func (s *Store) Clear() {
	s.byImage = make(map[string][]Annotation)
	s.active = ""
	s.current = nil
	s.undo = nil
	s.redo = nil
}

// Stats summarizes the active sequence.
type Stats struct {
	Total   int
	ByKind  map[Kind]int
	ByLabel map[string]int
}

// Statistics counts active annotations by kind and label. Unlabeled
// annotations are counted under "unlabeled".
func (s *Store) Statistics() Stats {
	st := Stats{
		Total:   len(s.current),
		ByKind:  make(map[Kind]int),
		ByLabel: make(map[string]int),
	}
	for _, a := range s.current {
		st.ByKind[a.Shape.Kind()]++
		label := a.Label
		if label == "" {
			label = "unlabeled"
		}
		st.ByLabel[label]++
	}
	return st
}

// AreaStats summarizes the areas of active non-point annotations.
type AreaStats struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

// AreaStatistics computes area statistics over the active sequence.
// Point annotations have no area and are excluded.
func (s *Store) AreaStatistics() AreaStats {
	var areas []float64
	for _, a := range s.current {
		if a.Shape.Kind() == KindPoint {
			continue
		}
		areas = append(areas, a.Shape.Area())
	}
	if len(areas) == 0 {
		return AreaStats{}
	}
	as := AreaStats{
		Count: len(areas),
		Mean:  stat.Mean(areas, nil),
		Min:   floats.Min(areas),
		Max:   floats.Max(areas),
	}
	if len(areas) > 1 {
		as.Std = stat.StdDev(areas, nil)
	}
	return as
}

func cloneSeq(anns []Annotation) []Annotation {
	if anns == nil {
		return nil
	}
	out := make([]Annotation, len(anns))
	for i, a := range anns {
		out[i] = a.Clone()
	}
	return out
}

func (s *Store) pushUndo() {
	s.undo = append(s.undo, cloneSeq(s.current))
	if len(s.undo) > MaxUndoSteps {
		s.undo = s.undo[1:]
	}
	s.redo = nil
}
