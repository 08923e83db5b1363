package bridge

import (
	"sync"
	"time"

	"touchscenes/logger"
)

const resyncTimer = "resync-scene-names"

// Scheduler runs callbacks on a fixed interval, the way a host application
// exposes timers to its plugins.
type Scheduler interface {
	AddTimer(id string, fn func(), every time.Duration)
	RemoveTimer(id string)
}

// Plugin is the surface a host application drives: load, unload, describe.
type Plugin struct {
	server    *Server
	scheduler Scheduler
	interval  time.Duration
	log       logger.Logger
}

// NewPlugin wires server to scheduler, resyncing scene names every interval.
func NewPlugin(server *Server, scheduler Scheduler, interval time.Duration, log logger.Logger) *Plugin {
	if scheduler == nil {
		scheduler = NewTickerScheduler()
	}
	return &Plugin{
		server:    server,
		scheduler: scheduler,
		interval:  interval,
		log:       log,
	}
}

// Description is shown by the host next to the plugin.
func (p *Plugin) Description() string {
	return "Server interface for TouchOSC"
}

// OnLoad starts the server and the periodic resync.
func (p *Plugin) OnLoad() error {
	p.log.Info("touchscenes loaded")
	if err := p.server.Start(); err != nil {
		return err
	}
	p.scheduler.AddTimer(resyncTimer, p.server.Controller().SyncSceneNames, p.interval)
	return nil
}

// OnUnload stops the resync and the server.
func (p *Plugin) OnUnload() error {
	p.log.Info("touchscenes unloaded")
	p.scheduler.RemoveTimer(resyncTimer)
	return p.server.Stop()
}

// Server returns the plugin's bridge server.
func (p *Plugin) Server() *Server { return p.server }

// TickerScheduler is a Scheduler backed by time.Ticker goroutines.
type TickerScheduler struct {
	mu     sync.Mutex
	timers map[string]*tickerTimer
}

type tickerTimer struct {
	stopCh chan struct{}
	done   chan struct{}
}

// NewTickerScheduler creates a TickerScheduler with no timers.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{timers: make(map[string]*tickerTimer)}
}

// AddTimer starts calling fn every interval. An existing timer with the same
// id is replaced.
func (ts *TickerScheduler) AddTimer(id string, fn func(), every time.Duration) {
	ts.RemoveTimer(id)

	tt := &tickerTimer{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	ts.mu.Lock()
	ts.timers[id] = tt
	ts.mu.Unlock()

	ticker := time.NewTicker(every)
	go func() {
		defer close(tt.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-tt.stopCh:
				return
			}
		}
	}()
}

// RemoveTimer stops the timer and waits for its running callback to finish.
// Other timers keep running.
func (ts *TickerScheduler) RemoveTimer(id string) {
	ts.mu.Lock()
	tt, ok := ts.timers[id]
	delete(ts.timers, id)
	ts.mu.Unlock()

	if !ok {
		return
	}
	close(tt.stopCh)
	<-tt.done
}
