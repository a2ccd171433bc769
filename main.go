// Package main provides the entry point for the Image Labeler application.
package main

import (
	"log"
	"os"
	"time"

	"image-labeler/internal/app"
	"image-labeler/ui/mainwindow"
	"image-labeler/ui/prefs"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const appTitle = "Image Labeler"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s", appTitle)

	fyneApp := fyneapp.NewWithID("io.github.image-labeler")
	fyneApp.Settings().SetTheme(&app.LabelerTheme{})

	appState := app.NewState()
	appPrefs := prefs.Load()
	if zoom := appPrefs.Float("zoom"); zoom > 0 {
		appState.View.SetZoom(zoom)
	}

	win := mainwindow.New(fyneApp, appState)
	win.Resize(fyne.NewSize(
		float32(appPrefs.FloatWithFallback("windowWidth", 1280)),
		float32(appPrefs.FloatWithFallback("windowHeight", 800))))

	if len(os.Args) > 1 {
		path := os.Args[1]
		info, err := os.Stat(path)
		switch {
		case err != nil:
			log.Printf("Cannot open %s: %v", path, err)
		case info.IsDir():
			if err := appState.LoadFolder(path); err != nil {
				log.Printf("Failed to load folder %s: %v", path, err)
			}
		default:
			if err := appState.LoadImage(path); err != nil {
				log.Printf("Failed to load image %s: %v", path, err)
			}
		}
	}

	setupHotReload(win, appState, appPrefs)

	win.ShowAndRun()
}

// setupHotReload configures automatic restart detection when the binary is
// recompiled.
func setupHotReload(win *mainwindow.MainWindow, appState *app.State, appPrefs *prefs.Prefs) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	log.Printf("Hot reload: watching %s (modified %s)",
		reloader.ExecPath(), reloader.StartupTime().Format("15:04:05"))

	savePrefs := func() {
		size := win.Canvas().Size()
		appPrefs.SetFloat("windowWidth", float64(size.Width))
		appPrefs.SetFloat("windowHeight", float64(size.Height))
		appPrefs.SetFloat("zoom", appState.View.Zoom())
		if err := appPrefs.Save(); err != nil {
			log.Printf("Failed to save preferences: %v", err)
		}
	}

	reloader.OnTick(savePrefs)

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if restart {
					savePrefs()
					log.Println("Hot reload: restarting...")
					if err := reloader.Restart(); err != nil {
						log.Printf("Hot reload: restart failed: %v", err)
					}
					return
				}
				reloader.ResetBaseline()
				reloader.Start()
			}, win)
	})

	reloader.Start()
}
