// Package panels provides the side panel sections of the main window.
package panels

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"image-labeler/internal/annotation"
	"image-labeler/internal/app"
	"image-labeler/pkg/colorutil"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	imagesPanel      *ImagesPanel
	labelsPanel      *LabelsPanel
	annotationsPanel *AnnotationsPanel
	statsPanel       *StatsPanel
}

// NewSidePanel creates the side panel.
func NewSidePanel(state *app.State) *SidePanel {
	sp := &SidePanel{state: state}

	sp.imagesPanel = NewImagesPanel(state)
	sp.labelsPanel = NewLabelsPanel(state)
	sp.annotationsPanel = NewAnnotationsPanel(state)
	sp.statsPanel = NewStatsPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Images", sp.imagesPanel.Container()),
		container.NewTabItem("Labels", sp.labelsPanel.Container()),
		container.NewTabItem("Annotations", sp.annotationsPanel.Container()),
		container.NewTabItem("Stats", sp.statsPanel.Container()),
	)

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for confirmation dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.labelsPanel.window = w
	sp.annotationsPanel.window = w
}

// ImagesPanel lists the loaded images and switches between them.
type ImagesPanel struct {
	state     *app.State
	list      *widget.List
	container fyne.CanvasObject
}

// NewImagesPanel creates the image list panel.
func NewImagesPanel(state *app.State) *ImagesPanel {
	ip := &ImagesPanel{state: state}

	ip.list = widget.NewList(
		func() int { return len(state.Images) },
		func() fyne.CanvasObject { return widget.NewLabel("image name") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if int(id) < len(state.Images) {
				obj.(*widget.Label).SetText(filepath.Base(state.Images[id]))
			}
		},
	)
	ip.list.OnSelected = func(id widget.ListItemID) {
		if err := state.SwitchToImage(int(id)); err != nil {
			state.Hint(err.Error())
		}
	}

	state.On(app.EventImagesChanged, func(interface{}) { ip.list.Refresh() })
	state.On(app.EventImageLoaded, func(interface{}) {
		if state.CurrentIndex >= 0 {
			ip.list.Select(widget.ListItemID(state.CurrentIndex))
		}
	})

	ip.container = container.NewBorder(widget.NewLabel("Loaded Images"), nil, nil, nil, ip.list)
	return ip
}

// Container returns the panel content.
func (ip *ImagesPanel) Container() fyne.CanvasObject {
	return ip.container
}

// LabelsPanel manages the label set and the selected drawing label.
type LabelsPanel struct {
	state  *app.State
	window fyne.Window

	names      []string
	list       *widget.List
	nameEntry  *widget.Entry
	colorEntry *widget.Entry
	container  fyne.CanvasObject
}

// NewLabelsPanel creates the label management panel.
func NewLabelsPanel(state *app.State) *LabelsPanel {
	lp := &LabelsPanel{state: state, names: state.Labels.Names()}

	lp.list = widget.NewList(
		func() int { return len(lp.names) },
		func() fyne.CanvasObject {
			swatch := fynecanvas.NewRectangle(colorutil.Red)
			swatch.SetMinSize(fyne.NewSize(16, 16))
			return container.NewHBox(swatch, widget.NewLabel("label name"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if int(id) >= len(lp.names) {
				return
			}
			name := lp.names[id]
			box := obj.(*fyne.Container)
			swatch := box.Objects[0].(*fynecanvas.Rectangle)
			swatch.FillColor = colorutil.ParseHex(state.Labels.Color(name))
			swatch.Refresh()
			box.Objects[1].(*widget.Label).SetText(name)
		},
	)
	lp.list.OnSelected = func(id widget.ListItemID) {
		if int(id) < len(lp.names) {
			state.SelectLabel(lp.names[id])
		}
	}

	lp.nameEntry = widget.NewEntry()
	lp.nameEntry.SetPlaceHolder("Label name")
	lp.colorEntry = widget.NewEntry()
	lp.colorEntry.SetPlaceHolder("#RRGGBB (optional)")

	addButton := widget.NewButton("Add", func() {
		name := strings.TrimSpace(lp.nameEntry.Text)
		if name == "" {
			state.Hint("Enter a label name first")
			return
		}
		color := lp.colorEntry.Text
		if color == "" {
			color = colorutil.RandomLabelColor()
		}
		if !state.AddLabel(name, color) {
			state.Hint(fmt.Sprintf("Label %q already exists", name))
			return
		}
		lp.nameEntry.SetText("")
		lp.colorEntry.SetText("")
	})

	renameButton := widget.NewButton("Rename", func() {
		old := state.SelectedLabel
		if old == "" {
			state.Hint("Select a label to rename")
			return
		}
		name := strings.TrimSpace(lp.nameEntry.Text)
		if name == "" {
			state.Hint("Enter the new name first")
			return
		}
		color := lp.colorEntry.Text
		if color == "" {
			color = state.Labels.Color(old)
		}
		if !state.RenameLabel(old, name, color) {
			state.Hint(fmt.Sprintf("Cannot rename %q to %q", old, name))
			return
		}
		lp.nameEntry.SetText("")
		lp.colorEntry.SetText("")
	})

	deleteButton := widget.NewButton("Delete", func() {
		name := state.SelectedLabel
		if name == "" {
			state.Hint("Select a label to delete")
			return
		}
		remove := func() { state.DeleteLabel(name) }
		if lp.window == nil {
			remove()
			return
		}
		dialog.ShowConfirm("Delete Label",
			fmt.Sprintf("Delete label %q? Its annotations keep their shapes and colors.", name),
			func(ok bool) {
				if ok {
					remove()
				}
			}, lp.window)
	})

	state.On(app.EventLabelsChanged, func(interface{}) {
		lp.names = state.Labels.Names()
		lp.list.Refresh()
	})

	controls := container.NewVBox(
		lp.nameEntry,
		lp.colorEntry,
		container.NewGridWithColumns(3, addButton, renameButton, deleteButton),
	)
	lp.container = container.NewBorder(widget.NewLabel("Labels"), controls, nil, nil, lp.list)
	return lp
}

// Container returns the panel content.
func (lp *LabelsPanel) Container() fyne.CanvasObject {
	return lp.container
}

// AnnotationsPanel lists the annotations on the active image with a
// detail view and edit/delete actions.
type AnnotationsPanel struct {
	state  *app.State
	window fyne.Window

	anns      []annotation.Annotation
	selected  int
	list      *widget.List
	details   *widget.Label
	container fyne.CanvasObject
}

// NewAnnotationsPanel creates the annotation list panel.
func NewAnnotationsPanel(state *app.State) *AnnotationsPanel {
	ap := &AnnotationsPanel{state: state, selected: -1}

	ap.list = widget.NewList(
		func() int { return len(ap.anns) },
		func() fyne.CanvasObject { return widget.NewLabel("1. shape - label") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if int(id) < len(ap.anns) {
				obj.(*widget.Label).SetText(ap.anns[id].Summary(int(id)))
			}
		},
	)
	ap.list.OnSelected = func(id widget.ListItemID) {
		ap.selected = int(id)
		if int(id) < len(ap.anns) {
			ap.details.SetText(ap.anns[id].Details())
		}
	}
	ap.list.OnUnselected = func(widget.ListItemID) {
		ap.selected = -1
		ap.details.SetText("")
	}

	ap.details = widget.NewLabel("")
	ap.details.Wrapping = fyne.TextWrapWord

	editButton := widget.NewButton("Edit Shape", func() {
		if ap.selected < 0 {
			state.Hint("Select an annotation to edit")
			return
		}
		state.Editor.EnterEditMode(ap.selected)
	})

	deleteButton := widget.NewButton("Delete", func() {
		if ap.selected < 0 {
			state.Hint("Select an annotation to delete")
			return
		}
		state.DeleteAnnotation(ap.selected)
	})

	state.On(app.EventAnnotationsChanged, func(interface{}) { ap.refresh() })
	state.On(app.EventImageLoaded, func(interface{}) { ap.refresh() })

	controls := container.NewVBox(
		container.NewGridWithColumns(2, editButton, deleteButton),
		ap.details,
	)
	ap.container = container.NewBorder(widget.NewLabel("Annotations"), controls, nil, nil, ap.list)
	return ap
}

func (ap *AnnotationsPanel) refresh() {
	ap.anns = ap.state.Store.Annotations()
	if ap.selected >= len(ap.anns) {
		ap.selected = -1
		ap.details.SetText("")
	}
	ap.list.Refresh()
}

// Container returns the panel content.
func (ap *AnnotationsPanel) Container() fyne.CanvasObject {
	return ap.container
}

// StatsPanel shows annotation counts and area statistics for the active
// image.
type StatsPanel struct {
	state     *app.State
	label     *widget.Label
	container fyne.CanvasObject
}

// NewStatsPanel creates the statistics panel.
func NewStatsPanel(state *app.State) *StatsPanel {
	sp := &StatsPanel{state: state}
	sp.label = widget.NewLabel("No annotations")
	sp.label.Wrapping = fyne.TextWrapWord

	state.On(app.EventAnnotationsChanged, func(interface{}) { sp.refresh() })
	state.On(app.EventImageLoaded, func(interface{}) { sp.refresh() })

	sp.container = container.NewBorder(widget.NewLabel("Statistics"), nil, nil, nil,
		container.NewVScroll(sp.label))
	return sp
}

func (sp *StatsPanel) refresh() {
	stats := sp.state.Store.Statistics()
	if stats.Total == 0 {
		sp.label.SetText("No annotations")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total: %d\n\nBy type:\n", stats.Total)
	for _, kind := range sortedKindKeys(stats.ByKind) {
		fmt.Fprintf(&b, "  %s: %d\n", kind, stats.ByKind[kind])
	}
	b.WriteString("\nBy label:\n")
	for _, label := range sortedStringKeys(stats.ByLabel) {
		fmt.Fprintf(&b, "  %s: %d\n", label, stats.ByLabel[label])
	}

	areas := sp.state.Store.AreaStatistics()
	if areas.Count > 0 {
		fmt.Fprintf(&b, "\nAreas (%d shapes):\n", areas.Count)
		fmt.Fprintf(&b, "  mean: %.1f px²\n", areas.Mean)
		fmt.Fprintf(&b, "  std: %.1f\n", areas.Std)
		fmt.Fprintf(&b, "  min: %.1f\n", areas.Min)
		fmt.Fprintf(&b, "  max: %.1f\n", areas.Max)
	}
	sp.label.SetText(strings.TrimRight(b.String(), "\n"))
}

// Container returns the panel content.
func (sp *StatsPanel) Container() fyne.CanvasObject {
	return sp.container
}

func sortedKindKeys(m map[annotation.Kind]int) []annotation.Kind {
	keys := make([]annotation.Kind, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedStringKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
