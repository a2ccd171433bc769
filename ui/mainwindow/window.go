// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"

	"image-labeler/internal/app"
	"image-labeler/internal/dataset"
	"image-labeler/internal/edit"
	imglayer "image-labeler/internal/image"
	"image-labeler/internal/version"
	"image-labeler/ui/canvas"
	"image-labeler/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir   = "lastDirectory"
	prefKeyLastImage = "lastImage"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	canvas    *canvas.AnnotationCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label

	// Menu items that need state tracking
	panModeItem *fyne.MenuItem
}

// New creates the main window.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow("Image Labeler")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.New(mw.state)

	mw.sidePanel = panels.NewSidePanel(mw.state)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	mw.restoreLastImage()

	canvasArea := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		mw.canvas.Container(),
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		split,
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with the drawing tools and zoom
// controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	selectBtn := widget.NewButton("Select", func() { mw.setTool(edit.ToolNone) })
	pointBtn := widget.NewButton("Point", func() { mw.setTool(edit.ToolPoint) })
	rectBtn := widget.NewButton("Rect", func() { mw.setTool(edit.ToolRectangle) })
	circleBtn := widget.NewButton("Circle", func() { mw.setTool(edit.ToolCircle) })
	polyBtn := widget.NewButton("Polygon", func() { mw.setTool(edit.ToolPolygon) })

	zoomOutBtn := widget.NewButton("-", mw.canvas.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.canvas.ZoomIn)
	fitBtn := widget.NewButton("Fit", mw.canvas.FitToWindow)
	actualBtn := widget.NewButton("1:1", mw.canvas.ResetZoom)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		selectBtn,
		pointBtn,
		rectBtn,
		circleBtn,
		polyBtn,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Open Folder...", mw.onOpenFolder),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Annotations", mw.onSaveAnnotations),
		fyne.NewMenuItem("Load Annotations", mw.onLoadAnnotations),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Master Dataset...", mw.onSaveMaster),
		fyne.NewMenuItem("Load Master Dataset...", mw.onLoadMaster),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import COCO...", mw.onImportCOCO),
		fyne.NewMenuItem("Export COCO...", mw.onExportCOCO),
		fyne.NewMenuItem("Export Pascal VOC...", mw.onExportVOC),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset Workspace", mw.onResetWorkspace),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", func() { mw.state.Undo() }),
		fyne.NewMenuItem("Redo", func() { mw.state.Redo() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Cancel Drawing", func() { mw.state.Editor.Cancel() }),
	)

	mw.panModeItem = fyne.NewMenuItem("  Pan Mode", mw.onTogglePanMode)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
		fyne.NewMenuItem("Actual Size", mw.canvas.ResetZoom),
		fyne.NewMenuItemSeparator(),
		mw.panModeItem,
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Select", func() { mw.setTool(edit.ToolNone) }),
		fyne.NewMenuItem("Point", func() { mw.setTool(edit.ToolPoint) }),
		fyne.NewMenuItem("Rectangle", func() { mw.setTool(edit.ToolRectangle) }),
		fyne.NewMenuItem("Circle", func() { mw.setTool(edit.ToolCircle) }),
		fyne.NewMenuItem("Polygon", func() { mw.setTool(edit.ToolPolygon) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Finish Polygon", func() { mw.state.Editor.CompletePolygon() }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, editMenu, viewMenu, toolsMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventHint, func(data interface{}) {
		if msg, ok := data.(string); ok {
			mw.updateStatus(msg)
		}
	})

	mw.state.On(app.EventImageLoaded, func(interface{}) {
		mw.updateTitle()
		mw.canvas.Refresh()
		if path := mw.state.CurrentImagePath(); path != "" {
			mw.app.Preferences().SetString(prefKeyLastImage, path)
		}
	})

	mw.state.On(app.EventModified, func(interface{}) {
		mw.updateTitle()
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateTitle() {
	title := "Image Labeler"
	if path := mw.state.CurrentImagePath(); path != "" {
		title += " - " + filepath.Base(path)
	}
	if mw.state.Modified {
		title += " *"
	}
	mw.SetTitle(title)
}

func (mw *MainWindow) setTool(tool edit.Tool) {
	mw.canvas.SetPanMode(false)
	mw.panModeItem.Label = "  Pan Mode"
	mw.state.Editor.SetTool(tool)
	if tool == edit.ToolNone {
		mw.updateStatus("Select tool: click an annotation in the side panel to edit it")
	} else {
		mw.updateStatus(fmt.Sprintf("Tool: %s", tool))
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onTogglePanMode() {
	enabled := !mw.canvas.PanMode()
	mw.canvas.SetPanMode(enabled)
	if enabled {
		mw.panModeItem.Label = "✓ Pan Mode"
		mw.updateStatus("Pan mode: drag to scroll the image")
	} else {
		mw.panModeItem.Label = "  Pan Mode"
		mw.updateStatus("Pan mode off")
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// restoreLastImage reloads the image from the previous session.
func (mw *MainWindow) restoreLastImage() {
	path := mw.app.Preferences().String(prefKeyLastImage)
	if path == "" {
		return
	}
	if err := mw.state.LoadImage(path); err != nil {
		log.Printf("could not restore last image %s: %v", path, err)
		return
	}
	mw.state.SetModified(false)
}

// Menu action handlers

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imglayer.FileFilter()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		dir := uri.Path()
		mw.app.Preferences().SetString(prefKeyLastDir, dir)
		if err := mw.state.LoadFolder(dir); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus(fmt.Sprintf("Loaded %d images", len(mw.state.Images)))
	}, mw.Window)
}

func (mw *MainWindow) onSaveAnnotations() {
	if len(mw.state.Images) == 0 {
		mw.updateStatus("No images loaded")
		return
	}
	saved, err := dataset.SaveImageFiles(mw.state.Store, mw.state.Labels, mw.state.Images)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if saved == 0 {
		mw.updateStatus("No annotations to save")
		return
	}
	mw.state.SetModified(false)
	mw.updateStatus(fmt.Sprintf("Saved annotations for %d image(s)", saved))
}

func (mw *MainWindow) onLoadAnnotations() {
	if len(mw.state.Images) == 0 {
		mw.updateStatus("No images loaded")
		return
	}
	loaded, err := dataset.LoadImageFiles(mw.state.Store, mw.state.Labels, mw.state.Images)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	if loaded == 0 {
		mw.updateStatus("No annotation files found")
		return
	}
	mw.state.Emit(app.EventLabelsChanged, nil)
	mw.state.Emit(app.EventAnnotationsChanged, nil)
	mw.updateStatus(fmt.Sprintf("Loaded annotations for %d image(s)", loaded))
}

func (mw *MainWindow) onSaveMaster() {
	if len(mw.state.Images) == 0 {
		mw.updateStatus("No images loaded")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".json" {
			path += ".json"
		}
		mw.saveLastDir(path)
		if err := dataset.SaveMaster(path, mw.state.Store, mw.state.Labels, mw.state.Images); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.SetModified(false)
		mw.updateStatus("Master dataset saved to " + filepath.Base(path))
	}, mw.Window)
	fd.SetFileName("master_dataset.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onLoadMaster() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		mw.state.ResetWorkspace()
		result, err := dataset.LoadMaster(path, mw.state.Store, mw.state.Labels)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.Images = result.Images
		mw.state.Emit(app.EventImagesChanged, nil)
		mw.state.Emit(app.EventLabelsChanged, nil)
		if len(result.Images) > 0 {
			if err := mw.state.LoadImage(result.Images[0]); err != nil {
				dialog.ShowError(err, mw.Window)
			}
		}
		mw.state.SetModified(false)

		status := fmt.Sprintf("Loaded %d image annotation(s)", result.Loaded)
		if result.Skipped > 0 {
			status += fmt.Sprintf(", skipped %d (not found)", result.Skipped)
		}
		mw.updateStatus(status)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onImportCOCO() {
	if len(mw.state.Images) == 0 {
		dialog.ShowInformation("No Images Loaded",
			"Load the images referenced by the COCO file first, then import.", mw.Window)
		return
	}
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		result, err := dataset.ImportCOCO(path, mw.state.Store, mw.state.Labels, mw.state.Images)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.SetModified(true)
		mw.state.Emit(app.EventLabelsChanged, nil)
		mw.state.Emit(app.EventAnnotationsChanged, nil)

		status := fmt.Sprintf("Imported %d annotation(s) onto %d image(s)",
			result.Processed, result.ImagesAnnotated)
		if result.Skipped > 0 {
			status += fmt.Sprintf(", skipped %d", result.Skipped)
		}
		if len(result.MissingImages) > 0 {
			status += fmt.Sprintf(", %d image(s) not loaded", len(result.MissingImages))
		}
		mw.updateStatus(status)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportCOCO() {
	if len(mw.state.Images) == 0 {
		mw.updateStatus("No images loaded")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".json" {
			path += ".json"
		}
		mw.saveLastDir(path)
		result, err := dataset.ExportCOCO(path, mw.state.Store, mw.state.Labels, mw.state.Images)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus(fmt.Sprintf("Exported %d annotation(s), %d image(s), %d categorie(s)",
			result.Annotations, result.Images, result.Categories))
	}, mw.Window)
	fd.SetFileName("annotations_coco.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportVOC() {
	if len(mw.state.Images) == 0 {
		mw.updateStatus("No images loaded")
		return
	}
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		dir := uri.Path()
		result, err := dataset.ExportVOC(dir, mw.state.Store, mw.state.Images)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus(fmt.Sprintf("Exported %d image(s) to %s, skipped %d",
			result.Processed, result.Dir, result.Skipped))
	}, mw.Window)
}

func (mw *MainWindow) onResetWorkspace() {
	reset := func() {
		mw.state.ResetWorkspace()
		mw.canvas.Refresh()
		mw.updateTitle()
	}
	if !mw.state.Modified {
		reset()
		return
	}
	dialog.ShowConfirm("Reset Workspace",
		"Discard all unsaved annotations and labels?",
		func(ok bool) {
			if ok {
				reset()
			}
		}, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Image Labeler",
		fmt.Sprintf("Image Labeler v%s\n\n"+
			"A tool for annotating images with points, rectangles,\n"+
			"circles, and polygons, with COCO and Pascal VOC export.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
