package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchscenes/config"
	"touchscenes/logger"
	"touchscenes/scenehost"
	"touchscenes/scenesync"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "touchscenes version dev\n", out.String())
}

func TestLoadConfigLogLevelFlag(t *testing.T) {
	serveCmd.InheritedFlags() // merges --config and --log-level from the root
	require.NoError(t, serveCmd.Flags().Set("log-level", "debug"))
	t.Cleanup(func() { _ = serveCmd.Flags().Set("log-level", "") })

	cfg, log, err := loadConfig(serveCmd)
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Equal(t, "debug", cfg.Log.Level)

	require.NoError(t, serveCmd.Flags().Set("log-level", "loud"))
	_, _, err = loadConfig(serveCmd)
	assert.Error(t, err)
}

func TestBuildHost(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	cfg := config.Default()
	host, closeHost, err := buildHost(ctx, cfg, false, log)
	require.NoError(t, err)
	defer closeHost()
	assert.IsType(t, scenesync.NopHost{}, host)

	cfg.Host.Kind = config.HostStatic
	cfg.Host.Scenes = []string{"Intro", "Main"}
	host, _, err = buildHost(ctx, cfg, false, log)
	require.NoError(t, err)
	scenes, err := host.ListScenes()
	require.NoError(t, err)
	assert.Len(t, scenes, 2)

	host, _, err = buildHost(ctx, cfg, true, log)
	require.NoError(t, err)
	assert.IsType(t, scenesync.NopHost{}, host, "standalone wins over host.kind")

	cfg.Host.Kind = "obs"
	_, _, err = buildHost(ctx, cfg, false, log)
	assert.Error(t, err)
}

func TestBuildHostRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	_, err := mr.Push("touchscenes:scenes", "Intro", "Main", "Outro")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Host.Kind = config.HostRedis
	cfg.Redis.Addr = mr.Addr()

	host, closeHost, err := buildHost(context.Background(), cfg, false, logger.NewNop())
	require.NoError(t, err)
	defer closeHost()
	assert.IsType(t, &scenehost.Redis{}, host)

	scenes, err := host.ListScenes()
	require.NoError(t, err)
	require.Len(t, scenes, 3)
	assert.Equal(t, "Main", host.SceneName(scenes[1]))
}

func TestBuildHostRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Host.Kind = config.HostRedis
	cfg.Redis.Addr = addr

	_, _, err := buildHost(context.Background(), cfg, false, logger.NewNop())
	assert.Error(t, err)
}
