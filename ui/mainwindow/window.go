// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"path/filepath"
	"strings"

	"spacetime-chart/internal/app"
	"spacetime-chart/internal/chart"
	"spacetime-chart/internal/config"
	"spacetime-chart/internal/interaction"
	"spacetime-chart/internal/manchette"
	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/scene"
	"spacetime-chart/internal/version"
	"spacetime-chart/ui/canvas"
	"spacetime-chart/ui/dialogs"
	"spacetime-chart/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	appTitle       = "Space-Time Chart"
	prefKeyLastDir = "lastDirectory"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs
	cfg   config.Config

	chart     *chart.Chart
	canvas    *canvas.ChartCanvas
	manchette *manchette.Manchette
	labels    *canvas.ManchetteView
	statusBar *widget.Label
	zoomX     *widget.Slider
	propCheck *widget.Check

	// syncing suppresses widget callbacks while widgets follow the chart.
	syncing bool
}

// New creates the main window for a chart configured by cfg.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, cfg config.Config, logger *slog.Logger) (*MainWindow, error) {
	c, err := chart.New(cfg,
		chart.WithLogger(logger),
		chart.WithProportional(p.Bool(prefs.KeyProportional, false)),
	)
	if err != nil {
		return nil, err
	}

	mw := &MainWindow{
		Window: fyneApp.NewWindow(appTitle),
		app:    fyneApp,
		state:  state,
		prefs:  p,
		cfg:    cfg,
		chart:  c,
	}
	mw.canvas = canvas.NewChartCanvas(c)
	mw.manchette = manchette.New(c.Controller(), cfg.Layout,
		manchette.WithLogger(logger),
		manchette.WithScheduler(manchette.TimerScheduler{
			Interval: manchette.DefaultFrameInterval,
			Dispatch: func(fn func()) {
				mw.canvas.Do(func(*chart.Chart) { fn() })
			},
		}),
	)
	mw.labels = canvas.NewManchetteView(mw.canvas, mw.manchette)

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restoreView()

	mw.Resize(fyne.NewSize(
		float32(p.Float(prefs.KeyWindowWidth, 1200)),
		float32(p.Float(prefs.KeyWindowHeight, 760)),
	))
	mw.SetOnClosed(mw.shutdown)
	return mw, nil
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.statusBar = widget.NewLabel("Ready")

	chartArea := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.canvas,          // center
	)

	split := container.NewHSplit(mw.labels, chartArea)
	split.SetOffset(0.15)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)
	mw.SetContent(content)
}

// createToolbar creates the zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	zoom := mw.cfg.Zoom
	mw.zoomX = widget.NewSlider(zoom.MinZoomX, zoom.MaxZoomX)
	mw.zoomX.Step = 0.5
	mw.zoomX.OnChanged = func(v float64) {
		if mw.syncing {
			return
		}
		mw.canvas.Do(func(c *chart.Chart) { c.SetXZoom(v) })
	}

	mw.propCheck = widget.NewCheck("Proportional", func(on bool) {
		if mw.syncing {
			return
		}
		mw.canvas.Do(func(c *chart.Chart) { c.SetProportional(on) })
		mw.prefs.SetBool(prefs.KeyProportional, on)
	})

	return container.NewBorder(nil, nil,
		container.NewHBox(
			widget.NewLabel("Space:"),
			widget.NewButton("-", mw.onZoomYOut),
			widget.NewButton("+", mw.onZoomYIn),
			widget.NewButton("Reset", mw.onResetZoom),
			mw.propCheck,
			widget.NewLabel("Time:"),
			widget.NewButton("Fit", mw.onFitTime),
		),
		nil,
		mw.zoomX,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Scene...", mw.onOpenScene),
		fyne.NewMenuItem("Save Scene", mw.onSaveScene),
		fyne.NewMenuItem("Save Scene As...", mw.onSaveSceneAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG...", mw.onExportPNG),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In (Space)", mw.onZoomYIn),
		fyne.NewMenuItem("Zoom Out (Space)", mw.onZoomYOut),
		fyne.NewMenuItem("Reset Zoom", mw.onResetZoom),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Fit Time", mw.onFitTime),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Theme...", mw.onEditTheme),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

// setupEventHandlers wires state events and chart callbacks.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventSceneLoaded, func(data interface{}) {
		sc, ok := data.(*scene.Scene)
		if !ok {
			return
		}
		mw.canvas.Do(sc.Apply)
		_, path := mw.state.CurrentScene()
		if path != "" {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.prefs.SetString(prefs.KeyLastScene, path)
		}
		mw.syncControls()
		mw.updateStatus(fmt.Sprintf("%d waypoints, %d paths", len(sc.OperationalPoints), len(sc.Paths)))
	})

	mw.state.On(app.EventSceneReloadFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Reload failed: " + err.Error())
		}
	})

	mw.state.On(app.EventSceneSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Saved " + path)
		}
	})

	mw.state.On(app.EventSelectionChanged, func(data interface{}) {
		if el, ok := data.(*picking.Element); ok && el != nil {
			mw.updateStatus("Selected " + el.String())
		}
	})

	mw.canvas.OnHover(func(el *picking.Element) {
		if el != nil {
			mw.updateStatus(el.String())
		}
	})

	mw.canvas.OnClick(func(p interaction.Payload) {
		// Runs with the chart locked: only record the selection here.
		go mw.state.SetSelection(p.Element)
	})

	mw.canvas.OnChanged(func() {
		mw.labels.Refresh()
		mw.syncControls()
	})

	mw.labels.OnSelect(func(id string) {
		mw.updateStatus("Waypoint " + id)
	})
}

// syncControls moves the toolbar widgets to the chart's current zoom.
func (mw *MainWindow) syncControls() {
	var zoomX float64
	var proportional bool
	mw.canvas.Read(func(c *chart.Chart) {
		zoomX = c.Controller().ZoomValue()
		proportional = c.Controller().ZoomPanState().IsProportional
	})
	mw.syncing = true
	if mw.zoomX.Value != zoomX {
		mw.zoomX.SetValue(zoomX)
	}
	if mw.propCheck.Checked != proportional {
		mw.propCheck.SetChecked(proportional)
	}
	mw.syncing = false
}

// restoreView applies the stored zoom preferences.
func (mw *MainWindow) restoreView() {
	yZoom := mw.prefs.Float(prefs.KeyYZoom, 1)
	msPerPx := mw.prefs.Float(prefs.KeyMsPerPx, 0)
	mw.canvas.Do(func(c *chart.Chart) {
		c.Controller().SetYZoom(yZoom)
		if msPerPx > 0 {
			zp := c.Controller().ZoomPanState()
			c.Controller().SetTimeView(zp.TimeOrigin, msPerPx, zp.XOffset)
		}
	})
}

// SavePreferences stores the current view and window size.
func (mw *MainWindow) SavePreferences() {
	var zp interaction.ZoomPanState
	mw.canvas.Read(func(c *chart.Chart) { zp = c.Controller().ZoomPanState() })
	mw.prefs.SetFloat(prefs.KeyYZoom, zp.YZoom)
	mw.prefs.SetFloat(prefs.KeyMsPerPx, zp.TimeScale)
	mw.prefs.SetBool(prefs.KeyProportional, zp.IsProportional)
	size := mw.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
		mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	}
	if err := mw.prefs.SaveIfChanged(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}
}

func (mw *MainWindow) shutdown() {
	mw.SavePreferences()
	mw.manchette.Close()
	mw.canvas.Read(func(c *chart.Chart) {
		if err := c.Close(); err != nil {
			log.Printf("Closing chart: %v", err)
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// Menu action handlers

func (mw *MainWindow) onOpenScene() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadScene(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".yaml", ".yml", ".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveScene() {
	if _, path := mw.state.CurrentScene(); path == "" {
		mw.onSaveSceneAs()
		return
	}
	mw.saveScene("")
}

func (mw *MainWindow) onSaveSceneAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
		default:
			path += ".yaml"
		}
		mw.saveLastDir(path)
		mw.saveScene(path)
	}, mw.Window)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// saveScene records the current view into the scene and writes it.
func (mw *MainWindow) saveScene(path string) {
	sc, _ := mw.state.CurrentScene()
	mw.canvas.Read(sc.Capture)
	if err := mw.state.SaveScene(path); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onExportPNG() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		var encErr error
		mw.canvas.Read(func(c *chart.Chart) {
			img, err := c.Render()
			if img == nil {
				encErr = err
				return
			}
			encErr = png.Encode(writer, img)
		})
		if encErr != nil {
			dialog.ShowError(encErr, mw.Window)
			return
		}
		mw.updateStatus("Exported " + writer.URI().Path())
	}, mw.Window)
	fd.SetFileName("chart.png")
	fd.Show()
}

func (mw *MainWindow) onZoomYIn() {
	mw.canvas.Do(func(c *chart.Chart) { c.ZoomYIn() })
}

func (mw *MainWindow) onZoomYOut() {
	mw.canvas.Do(func(c *chart.Chart) { c.ZoomYOut() })
}

func (mw *MainWindow) onResetZoom() {
	mw.canvas.Do(func(c *chart.Chart) { c.ResetZoom() })
}

func (mw *MainWindow) onFitTime() {
	mw.canvas.Do(func(c *chart.Chart) { c.FitTime() })
}

func (mw *MainWindow) onEditTheme() {
	var current config.ThemeConfig
	mw.canvas.Read(func(c *chart.Chart) { current = c.Config().Theme })
	dialogs.NewThemeDialog(current, mw.Window, func(theme config.ThemeConfig) error {
		var err error
		mw.canvas.Do(func(c *chart.Chart) { err = c.SetTheme(theme) })
		if err != nil {
			return err
		}
		palette, err := theme.Palette()
		if err != nil {
			return err
		}
		mw.app.Settings().SetTheme(app.NewChartTheme(palette))
		mw.updateStatus("Theme applied")
		return nil
	}).Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s\nVersion %s", appTitle, version.String()), mw.Window)
}
