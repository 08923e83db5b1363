package scenesync

import "errors"

// ErrUnavailable is returned by hosts that cannot answer scene queries, such
// as NopHost in standalone mode. Callers treat it as "nothing to do".
var ErrUnavailable = errors.New("scene host unavailable")

// SceneHandle is an opaque reference to one host scene.
type SceneHandle interface{}

// Host is the scene-management capability of the host application.
//
// ListScenes returns the scenes in display order. The caller owns the
// returned handles and must pass them to ReleaseScenes when done.
type Host interface {
	ListScenes() ([]SceneHandle, error)
	ReleaseScenes(scenes []SceneHandle)
	SceneName(scene SceneHandle) string
	SetActiveScene(scene SceneHandle) error
}

// NopHost is the Host used when running without a host application.
type NopHost struct{}

func (NopHost) ListScenes() ([]SceneHandle, error) { return nil, ErrUnavailable }
func (NopHost) ReleaseScenes([]SceneHandle)        {}
func (NopHost) SceneName(SceneHandle) string       { return "" }
func (NopHost) SetActiveScene(SceneHandle) error   { return ErrUnavailable }
