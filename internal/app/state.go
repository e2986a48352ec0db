// Package app holds the viewer state shared by the windows: the loaded scene,
// the selection and the events the UI listens to.
package app

import (
	"fmt"
	"path/filepath"
	"sync"

	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/scene"
)

// State holds the scene currently shown and its selection.
type State struct {
	mu sync.RWMutex

	ScenePath string
	Scene     *scene.Scene
	Modified  bool

	// Selected is the element last clicked in the chart, if any.
	Selected *picking.Element

	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventSceneLoaded EventType = iota
	EventSceneSaved
	EventSceneReloadFailed
	EventModified
	EventSelectionChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a state with an empty scene.
func NewState() *State {
	return &State{
		Scene:     &scene.Scene{},
		listeners: make(map[EventType][]EventListener),
	}
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

// SetModified marks the scene as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// CurrentScene returns the scene and the file it came from.
func (s *State) CurrentScene() (*scene.Scene, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Scene, s.ScenePath
}

// LoadScene reads a scene file and emits EventSceneLoaded with the scene.
func (s *State) LoadScene(path string) error {
	sc, err := scene.Load(path)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	s.SetScene(sc, abs)
	return nil
}

// SetScene replaces the scene and clears the selection.
func (s *State) SetScene(sc *scene.Scene, path string) {
	s.mu.Lock()
	s.Scene = sc
	s.ScenePath = path
	s.Modified = false
	s.Selected = nil
	s.mu.Unlock()
	s.Emit(EventSceneLoaded, sc)
}

// SaveScene writes the scene to path, or to the file it came from when path is
// empty.
func (s *State) SaveScene(path string) error {
	s.mu.Lock()
	if path == "" {
		path = s.ScenePath
	}
	sc := s.Scene
	s.mu.Unlock()
	if path == "" {
		return fmt.Errorf("scene has no file name")
	}
	if err := sc.Save(path); err != nil {
		return fmt.Errorf("failed to save scene: %w", err)
	}
	s.mu.Lock()
	s.ScenePath = path
	s.Modified = false
	s.mu.Unlock()
	s.Emit(EventSceneSaved, path)
	return nil
}

// SetSelection records the clicked element; nil clears it.
func (s *State) SetSelection(el *picking.Element) {
	s.mu.Lock()
	if el != nil {
		v := *el
		el = &v
	}
	s.Selected = el
	s.mu.Unlock()
	s.Emit(EventSelectionChanged, el)
}
