package bridge

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchscenes/endpointstore"
	"touchscenes/logger"
)

type fakeScheduler struct {
	mu      sync.Mutex
	timers  map[string]func()
	every   time.Duration
	removed []string
}

func (s *fakeScheduler) AddTimer(id string, fn func(), every time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers == nil {
		s.timers = map[string]func(){}
	}
	s.timers[id] = fn
	s.every = every
}

func (s *fakeScheduler) RemoveTimer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
	s.removed = append(s.removed, id)
}

func TestPluginLifecycle(t *testing.T) {
	h := newHarness(t)
	sched := &fakeScheduler{}
	p := NewPlugin(h.server, sched, 5*time.Second, logger.NewNop())

	assert.Equal(t, "Server interface for TouchOSC", p.Description())

	require.NoError(t, p.OnLoad())
	assert.Equal(t, Running, p.Server().State())
	assert.Contains(t, sched.timers, resyncTimer)
	assert.Equal(t, 5*time.Second, sched.every)

	require.NoError(t, p.OnUnload())
	assert.Equal(t, Stopped, p.Server().State())
	assert.Empty(t, sched.timers)
	assert.Equal(t, []string{resyncTimer}, sched.removed)
}

func TestPluginResyncTimerPushesNames(t *testing.T) {
	h := newHarness(t)
	sched := &fakeScheduler{}
	p := NewPlugin(h.server, sched, time.Second, logger.NewNop())
	require.NoError(t, p.OnLoad())
	defer p.OnUnload()

	remote, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer remote.Close()
	h.store.Set("iPad", endpointstore.Endpoint{Host: "127.0.0.1", Port: remote.LocalAddr().(*net.UDPAddr).Port})

	h.host.SetScenes([]string{"Renamed"})
	sched.timers[resyncTimer]()

	require.NoError(t, remote.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := remote.ReadFrom(buf)
	require.NoError(t, err)
	packet, err := osc.ParsePacket(string(buf[:n]))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Renamed"}, packet.(*osc.Message).Arguments)
	assert.Empty(t, h.host.Active(), "resync does not switch scenes")
}

func TestPluginLoadFailsWhenRunning(t *testing.T) {
	h := newHarness(t)
	sched := &fakeScheduler{}
	require.NoError(t, h.server.Start())

	p := NewPlugin(h.server, sched, time.Second, logger.NewNop())
	assert.ErrorIs(t, p.OnLoad(), ErrAlreadyRunning)
	assert.Empty(t, sched.timers, "no resync without a server")
}

func TestTickerScheduler(t *testing.T) {
	ts := NewTickerScheduler()
	var calls atomic.Int32

	ts.AddTimer("tick", func() { calls.Add(1) }, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	ts.RemoveTimer("tick")
	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load(), "no calls after RemoveTimer returns")
}

func TestTickerSchedulerReplace(t *testing.T) {
	ts := NewTickerScheduler()
	var first, second atomic.Int32

	ts.AddTimer("tick", func() { first.Add(1) }, 5*time.Millisecond)
	ts.AddTimer("tick", func() { second.Add(1) }, 5*time.Millisecond)
	stale := first.Load()

	assert.Eventually(t, func() bool { return second.Load() >= 2 }, time.Second, time.Millisecond)
	assert.Equal(t, stale, first.Load())

	ts.RemoveTimer("tick")
	ts.RemoveTimer("missing")
}

func TestTickerSchedulerIndependentTimers(t *testing.T) {
	ts := NewTickerScheduler()
	var a, b atomic.Int32

	ts.AddTimer("a", func() { a.Add(1) }, 5*time.Millisecond)

	added := make(chan struct{})
	go func() {
		ts.AddTimer("b", func() { b.Add(1) }, 5*time.Millisecond)
		close(added)
	}()
	select {
	case <-added:
	case <-time.After(2 * time.Second):
		t.Fatal("adding a second timer blocked on the first")
	}

	assert.Eventually(t, func() bool { return a.Load() >= 2 && b.Load() >= 2 }, time.Second, time.Millisecond)

	removed := make(chan struct{})
	go func() {
		ts.RemoveTimer("a")
		close(removed)
	}()
	select {
	case <-removed:
	case <-time.After(2 * time.Second):
		t.Fatal("removing one timer blocked on another")
	}

	stopped := a.Load()
	seen := b.Load()
	assert.Eventually(t, func() bool { return b.Load() > seen }, time.Second, time.Millisecond, "timer b keeps running")
	assert.Equal(t, stopped, a.Load())

	ts.RemoveTimer("b")
}
