package app

import (
	"log/slog"
	"sync"

	"spacetime-chart/internal/scene"
)

// SceneReloader follows the scene file of a State: whenever the file changes on
// disk the new content replaces the scene and EventSceneLoaded is emitted.
// Load failures are emitted as EventSceneReloadFailed and keep the old scene.
type SceneReloader struct {
	state  *State
	logger *slog.Logger

	mu      sync.Mutex
	watcher *scene.Watcher
}

// NewSceneReloader creates a reloader for state. It follows every scene the
// state loads from then on.
func NewSceneReloader(state *State, logger *slog.Logger) *SceneReloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &SceneReloader{state: state, logger: logger}
	state.On(EventSceneLoaded, func(interface{}) {
		_, path := state.CurrentScene()
		r.follow(path)
	})
	state.On(EventSceneSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			r.follow(path)
		}
	})
	return r
}

// Path returns the file being watched, or "".
func (r *SceneReloader) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher == nil {
		return ""
	}
	return r.watcher.Path()
}

func (r *SceneReloader) follow(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if path == "" || (r.watcher != nil && r.watcher.Path() == path) {
		return
	}
	r.stopLocked()

	w, err := scene.NewWatcher(path, r.logger)
	if err != nil {
		r.logger.Warn("cannot follow scene file", "path", path, "error", err)
		return
	}
	w.OnReload(func(sc *scene.Scene) {
		r.state.mu.Lock()
		r.state.Scene = sc
		r.state.Selected = nil
		r.state.mu.Unlock()
		r.state.Emit(EventSceneLoaded, sc)
	})
	w.OnError(func(err error) {
		r.state.Emit(EventSceneReloadFailed, err)
	})
	w.Start()
	r.watcher = w
}

// Stop stops following the scene file.
func (r *SceneReloader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *SceneReloader) stopLocked() {
	if r.watcher == nil {
		return
	}
	if err := r.watcher.Stop(); err != nil {
		r.logger.Warn("stopping scene watcher", "error", err)
	}
	r.watcher = nil
}
