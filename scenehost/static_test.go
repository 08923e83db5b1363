package scenehost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchscenes/logger"
)

func TestStaticHost(t *testing.T) {
	h := NewStatic([]string{"Intro", "Main", "Outro"}, logger.NewNop())

	scenes, err := h.ListScenes()
	require.NoError(t, err)
	require.Len(t, scenes, 3)
	assert.Equal(t, "Main", h.SceneName(scenes[1]))

	require.NoError(t, h.SetActiveScene(scenes[2]))
	assert.Equal(t, "Outro", h.Active())
	h.ReleaseScenes(scenes)

	assert.Error(t, h.SetActiveScene("not a handle"))
	assert.Empty(t, h.SceneName(42))
}

func TestStaticHostSetScenes(t *testing.T) {
	input := []string{"A"}
	h := NewStatic(input, logger.NewNop())
	input[0] = "mutated"

	scenes, _ := h.ListScenes()
	assert.Equal(t, "A", h.SceneName(scenes[0]), "constructor copies the slice")

	h.SetScenes([]string{"X", "Y"})
	scenes, _ = h.ListScenes()
	assert.Len(t, scenes, 2)
}
