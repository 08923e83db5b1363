// Package scenehost provides scenesync.Host implementations for running the
// bridge outside a host application.
package scenehost

import (
	"fmt"
	"sync"

	"touchscenes/logger"
	"touchscenes/scenesync"
)

type staticScene struct {
	index int
	name  string
}

// Static serves a fixed, in-memory scene list and remembers the active scene.
type Static struct {
	mu     sync.RWMutex
	scenes []string
	active string
	log    logger.Logger
}

var _ scenesync.Host = (*Static)(nil)

// NewStatic creates a host with the given scene names in display order.
func NewStatic(scenes []string, log logger.Logger) *Static {
	return &Static{
		scenes: append([]string(nil), scenes...),
		log:    log,
	}
}

func (s *Static) ListScenes() ([]scenesync.SceneHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scenesync.SceneHandle, len(s.scenes))
	for i, name := range s.scenes {
		out[i] = staticScene{index: i, name: name}
	}
	return out, nil
}

func (s *Static) ReleaseScenes([]scenesync.SceneHandle) {}

func (s *Static) SceneName(h scenesync.SceneHandle) string {
	if sc, ok := h.(staticScene); ok {
		return sc.name
	}
	return ""
}

func (s *Static) SetActiveScene(h scenesync.SceneHandle) error {
	sc, ok := h.(staticScene)
	if !ok {
		return fmt.Errorf("foreign scene handle %T", h)
	}
	s.mu.Lock()
	s.active = sc.name
	s.mu.Unlock()
	s.log.Info("active scene set", logger.String("scene", sc.name), logger.Int("index", sc.index))
	return nil
}

// Active returns the name of the last activated scene.
func (s *Static) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetScenes replaces the scene list. The next sync pushes the new names.
func (s *Static) SetScenes(scenes []string) {
	s.mu.Lock()
	s.scenes = append([]string(nil), scenes...)
	s.mu.Unlock()
}
