// Package main provides the entry point for the space-time chart viewer.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"spacetime-chart/internal/app"
	"spacetime-chart/internal/config"
	"spacetime-chart/internal/version"
	"spacetime-chart/ui/mainwindow"
	"spacetime-chart/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/joho/godotenv"
)

const appID = "io.github.spacetime-chart"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting space-time chart %s", version.String())

	configPath := flag.String("config", "", "Chart configuration file (YAML or JSON)")
	debug := flag.Bool("debug", false, "Log engine diagnostics")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring .env: %v", err)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	palette, err := cfg.Theme.Palette()
	if err != nil {
		log.Fatalf("Invalid theme: %v", err)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(app.NewChartTheme(palette))

	appState := app.NewState()
	appPrefs := prefs.Load()
	reloader := app.NewSceneReloader(appState, logger)
	defer reloader.Stop()

	win, err := mainwindow.New(fyneApp, appState, appPrefs, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}

	// Scene from the command line, or the last one opened.
	scenePath := flag.Arg(0)
	if scenePath == "" {
		scenePath = appPrefs.String(prefs.KeyLastScene)
	}
	if scenePath != "" {
		if err := appState.LoadScene(scenePath); err != nil {
			log.Printf("Failed to load scene %s: %v", scenePath, err)
		}
	}

	win.ShowAndRun()
}
