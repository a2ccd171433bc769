package annotation

import (
	"fmt"
	"math"
	"reflect"
	"testing"
)

func rectAnn(t *testing.T, label string, coords ...float64) Annotation {
	t.Helper()
	if len(coords) != 4 {
		t.Fatalf("rectAnn needs 4 coords")
	}
	return New(NewRect(coords[0], coords[1], coords[2], coords[3]), label, "#FF0000")
}

func TestStoreAddValidation(t *testing.T) {
	s := NewStore()
	s.SwitchImage("img.png")

	if s.Add(Annotation{Shape: nil, Label: "cat"}) {
		t.Error("Add accepted a nil shape")
	}
	if s.Add(Annotation{Shape: NewPoint(1, 1), Label: ""}) {
		t.Error("Add accepted an empty label")
	}
	if s.Count() != 0 {
		t.Errorf("rejected adds changed the sequence, count = %d", s.Count())
	}

	if !s.Add(rectAnn(t, "cat", 0, 0, 10, 10)) {
		t.Fatal("valid Add failed")
	}
	if s.Count() != 1 {
		t.Errorf("count = %d, want 1", s.Count())
	}
}

func TestStoreUndoRedoDeepEquality(t *testing.T) {
	s := NewStore()
	s.SwitchImage("img.png")

	s.Add(rectAnn(t, "cat", 0, 0, 10, 10))
	before := s.Snapshot()

	s.Update(0, SetShape{Shape: NewRect(5, 5, 20, 20)}, SetLabel{Label: "dog"})
	after := s.Snapshot()

	if !s.Undo() {
		t.Fatal("Undo failed")
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Errorf("after undo: %+v, want %+v", s.Snapshot(), before)
	}

	if !s.Redo() {
		t.Fatal("Redo failed")
	}
	if !reflect.DeepEqual(s.Snapshot(), after) {
		t.Errorf("after redo: %+v, want %+v", s.Snapshot(), after)
	}
}

func TestStoreUndoIsUnaffectedByLaterMutation(t *testing.T) {
	s := NewStore()
	s.SwitchImage("img.png")

	s.Add(rectAnn(t, "cat", 0, 0, 10, 10))
	s.Add(rectAnn(t, "dog", 20, 20, 30, 30))

	// Mutate the live shape through a transient update, then undo twice.
	// The restored snapshots must show the original coordinates.
	s.UpdateShapeTransient(0, NewRect(99, 99, 100, 100))
	s.Undo()
	s.Undo()

	a, ok := s.Get(0)
	if !ok {
		t.Fatal("annotation missing after undo")
	}
	want := []float64{0, 0, 10, 10}
	if !reflect.DeepEqual(a.Shape.Coords(), want) {
		t.Errorf("restored coords = %v, want %v", a.Shape.Coords(), want)
	}
}

func TestStoreRedoClearedByNewMutation(t *testing.T) {
	s := NewStore()
	s.SwitchImage("img.png")

	s.Add(rectAnn(t, "cat", 0, 0, 10, 10))
	s.Undo()
	if !s.CanRedo() {
		t.Fatal("expected redo available after undo")
	}
	s.Add(rectAnn(t, "dog", 1, 1, 2, 2))
	if s.CanRedo() {
		t.Error("new mutation should clear the redo stack")
	}
}

func TestStoreUndoCapacityEvictsOldest(t *testing.T) {
	s := NewStore()
	s.SwitchImage("img.png")

	for i := 0; i < MaxUndoSteps+10; i++ {
		s.Add(rectAnn(t, fmt.Sprintf("l%d", i), float64(i), 0, float64(i)+1, 1))
	}

	undos := 0
	for s.Undo() {
		undos++
	}
	if undos != MaxUndoSteps {
		t.Errorf("performed %d undos, want %d", undos, MaxUndoSteps)
	}
	// The oldest states were evicted, so the floor is not empty.
	if s.Count() != 10 {
		t.Errorf("count after exhausting undo = %d, want 10", s.Count())
	}
}

func TestStoreDeleteBounds(t *testing.T) {
	s := NewStore()
	s.SwitchImage("img.png")
	s.Add(rectAnn(t, "cat", 0, 0, 10, 10))

	if _, ok := s.Delete(5); ok {
		t.Error("Delete accepted an out-of-range index")
	}
	if _, ok := s.Delete(-1); ok {
		t.Error("Delete accepted a negative index")
	}
	removed, ok := s.Delete(0)
	if !ok || removed.Label != "cat" {
		t.Errorf("Delete(0) = %+v, %v", removed, ok)
	}
	if s.Count() != 0 {
		t.Errorf("count = %d after delete, want 0", s.Count())
	}
}

func TestStoreSwitchImage(t *testing.T) {
	s := NewStore()
	s.SwitchImage("a.png")
	s.Add(rectAnn(t, "cat", 0, 0, 10, 10))

	s.SwitchImage("b.png")
	if s.Count() != 0 {
		t.Errorf("fresh image should start empty, count = %d", s.Count())
	}
	if s.CanUndo() || s.CanRedo() {
		t.Error("history should be cleared on image switch")
	}
	s.Add(rectAnn(t, "dog", 1, 1, 2, 2))

	s.SwitchImage("a.png")
	if s.Count() != 1 {
		t.Fatalf("a.png sequence lost, count = %d", s.Count())
	}
	a, _ := s.Get(0)
	if a.Label != "cat" {
		t.Errorf("restored label = %q, want cat", a.Label)
	}
	if s.CanUndo() {
		t.Error("history should not survive an image switch")
	}
}

func TestStoreCommitSnapshotGesture(t *testing.T) {
	s := NewStore()
	s.SwitchImage("img.png")
	s.Add(rectAnn(t, "cat", 0, 0, 10, 10))

	// Simulate an edit gesture: capture, several transient frames, commit.
	snap := s.Snapshot()
	s.UpdateShapeTransient(0, NewRect(1, 1, 11, 11))
	s.UpdateShapeTransient(0, NewRect(2, 2, 12, 12))
	s.UpdateShapeTransient(0, NewRect(3, 3, 13, 13))
	s.CommitSnapshot(snap)

	if !s.Undo() {
		t.Fatal("Undo failed after gesture")
	}
	a, _ := s.Get(0)
	want := []float64{0, 0, 10, 10}
	if !reflect.DeepEqual(a.Shape.Coords(), want) {
		t.Errorf("one undo should revert the whole gesture, got %v", a.Shape.Coords())
	}
}

func TestStoreClearAndRenameLabel(t *testing.T) {
	s := NewStore()
	s.SwitchImage("img.png")
	s.Add(New(NewRect(0, 0, 1, 1), "cat", "#AA0000"))
	s.Add(New(NewRect(1, 1, 2, 2), "dog", "#00AA00"))
	s.Add(New(NewRect(2, 2, 3, 3), "cat", "#AA0000"))

	if n := s.ClearLabel("cat"); n != 2 {
		t.Errorf("ClearLabel touched %d annotations, want 2", n)
	}
	if s.Count() != 3 {
		t.Errorf("ClearLabel deleted annotations, count = %d", s.Count())
	}
	a, _ := s.Get(0)
	if a.Label != "" || a.Color != "#AA0000" {
		t.Errorf("cleared annotation = %+v, want empty label and retained color", a)
	}

	if n := s.RenameLabel("dog", "wolf", "#0000AA"); n != 1 {
		t.Errorf("RenameLabel touched %d annotations, want 1", n)
	}
	b, _ := s.Get(1)
	if b.Label != "wolf" || b.Color != "#0000AA" {
		t.Errorf("renamed annotation = %+v", b)
	}
}

func TestStoreStatistics(t *testing.T) {
	s := NewStore()
	s.SwitchImage("img.png")
	s.Add(New(NewPoint(1, 1), "cat", "#FF0000"))
	s.Add(New(NewRect(0, 0, 10, 10), "cat", "#FF0000"))
	s.Add(New(NewRect(0, 0, 20, 10), "dog", "#FF0000"))

	st := s.Statistics()
	if st.Total != 3 {
		t.Errorf("Total = %d, want 3", st.Total)
	}
	if st.ByKind[KindRectangle] != 2 || st.ByKind[KindPoint] != 1 {
		t.Errorf("ByKind = %v", st.ByKind)
	}
	if st.ByLabel["cat"] != 2 || st.ByLabel["dog"] != 1 {
		t.Errorf("ByLabel = %v", st.ByLabel)
	}

	as := s.AreaStatistics()
	if as.Count != 2 {
		t.Fatalf("area count = %d, want 2 (points excluded)", as.Count)
	}
	if math.Abs(as.Mean-150) > 1e-9 {
		t.Errorf("mean area = %v, want 150", as.Mean)
	}
	if as.Min != 100 || as.Max != 200 {
		t.Errorf("min/max = %v/%v, want 100/200", as.Min, as.Max)
	}
}

func TestLabelSet(t *testing.T) {
	ls := NewLabelSet()

	if !ls.Add("cat", "#AA0000") {
		t.Fatal("Add failed")
	}
	if ls.Add("cat", "#BB0000") {
		t.Error("duplicate Add accepted")
	}
	if ls.Add("", "#BB0000") {
		t.Error("empty name accepted")
	}
	ls.Add("dog", "")
	if ls.Color("dog") != "#FF0000" {
		t.Errorf("empty color should default, got %q", ls.Color("dog"))
	}
	if ls.Color("missing") != "#FF0000" {
		t.Errorf("unknown label color = %q, want default", ls.Color("missing"))
	}

	if !ls.Rename("cat", "tiger", "#CC0000") {
		t.Fatal("Rename failed")
	}
	if ls.Has("cat") || !ls.Has("tiger") {
		t.Error("Rename did not replace the name")
	}
	if ls.Rename("tiger", "dog", "#000000") {
		t.Error("Rename onto an existing label accepted")
	}
	if got := ls.Names(); !reflect.DeepEqual(got, []string{"tiger", "dog"}) {
		t.Errorf("Names() = %v, order not preserved", got)
	}

	if !ls.Delete("tiger") {
		t.Fatal("Delete failed")
	}
	if ls.Has("tiger") || ls.Count() != 1 {
		t.Error("Delete did not remove the label")
	}

	ls.Merge([]string{"dog", "bird"}, map[string]string{"bird": "#112233"})
	if ls.Count() != 2 || ls.Color("bird") != "#112233" {
		t.Errorf("Merge result: names=%v", ls.Names())
	}
}
