package mdnsmanager

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"touchscenes/endpointstore"
	"touchscenes/logger"
	"touchscenes/util"
)

// EventKind says what happened to a remote controller's advertisement.
type EventKind int

const (
	EventAdded EventKind = iota + 1
	EventUpdated
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventUpdated:
		return "updated"
	case EventRemoved:
		return "removed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a qualifying change of a remote controller's advertisement.
// Endpoint is zero for EventRemoved.
type Event struct {
	Kind     EventKind
	Instance string
	Endpoint endpointstore.Endpoint
}

// Listener browses for remote controllers and turns browse results into
// Events. Our own advertisement and other service types are filtered out.
type Listener struct {
	browser Browser
	self    string
	log     logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// sendMu guards events against a send racing the close in shutdown.
	sendMu sync.RWMutex
	closed bool
	events chan Event

	seenMu sync.Mutex
	seen   map[string]endpointstore.Endpoint
}

// NewListener creates a Listener that ignores the instance named self.
func NewListener(b Browser, self string, log logger.Logger) *Listener {
	return &Listener{
		browser: b,
		self:    self,
		log:     log,
	}
}

// Start begins browsing serviceType. The returned channel is closed after
// Stop, or when ctx is done.
func (l *Listener) Start(ctx context.Context, serviceType string) (<-chan Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return nil, fmt.Errorf("listener already browsing")
	}

	bctx, cancel := context.WithCancel(ctx)
	events := make(chan Event, 16)
	done := make(chan struct{})

	l.sendMu.Lock()
	l.events = events
	l.closed = false
	l.sendMu.Unlock()

	l.seenMu.Lock()
	l.seen = make(map[string]endpointstore.Endpoint)
	l.seenMu.Unlock()

	l.cancel = cancel
	l.done = done

	labels := typeLabels(serviceType)
	go func() {
		defer close(done)
		err := l.browser.Browse(bctx,
			serviceType,
			func(e Entry) { l.found(bctx, labels, e) },
			func(e Entry) { l.lost(bctx, labels, e) },
		)
		if err != nil && bctx.Err() == nil {
			l.log.Warn("mDNS browse stopped", logger.Error(err))
		}
		cancel()
		l.shutdown()
	}()

	l.log.Info("browsing for OSC controllers", logger.String("type", serviceType))
	return events, nil
}

// Stop ends browsing and waits until no more events can be delivered.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Listener) shutdown() {
	l.sendMu.Lock()
	defer l.sendMu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.events)
	}
}

func (l *Listener) emit(ctx context.Context, ev Event) {
	l.sendMu.RLock()
	defer l.sendMu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.events <- ev:
	case <-ctx.Done():
	}
}

// qualifies applies the filter rule: the name must carry the browsed service
// labels and must not be our own instance.
func (l *Listener) qualifies(labels, instance string) bool {
	name := util.NormalizeServiceName(instance)
	if labels == "" || !strings.Contains(name+".", "."+labels+".") {
		return false
	}
	if self := util.NormalizeServiceName(l.self); self != "" && strings.Contains(name, self) {
		return false
	}
	return true
}

func (l *Listener) found(ctx context.Context, labels string, e Entry) {
	if !l.qualifies(labels, e.Instance) {
		l.log.Debug("ignoring service", logger.String("instance", e.Instance))
		return
	}
	ep := entryEndpoint(e)
	if ep.IsZero() {
		l.log.Debug("service has no usable address", logger.String("instance", e.Instance))
		return
	}

	key := util.NormalizeServiceName(e.Instance)
	l.seenMu.Lock()
	_, known := l.seen[key]
	l.seen[key] = ep
	l.seenMu.Unlock()

	kind := EventAdded
	if known {
		kind = EventUpdated
	}
	l.emit(ctx, Event{Kind: kind, Instance: e.Instance, Endpoint: ep})
}

func (l *Listener) lost(ctx context.Context, labels string, e Entry) {
	if !l.qualifies(labels, e.Instance) {
		return
	}
	key := util.NormalizeServiceName(e.Instance)
	l.seenMu.Lock()
	delete(l.seen, key)
	l.seenMu.Unlock()

	l.emit(ctx, Event{Kind: EventRemoved, Instance: e.Instance})
}

// entryEndpoint picks the first IPv4 address of e, falling back to the first
// address of any family.
func entryEndpoint(e Entry) endpointstore.Endpoint {
	if e.Port <= 0 {
		return endpointstore.Endpoint{}
	}
	var host string
	for _, ip := range e.IPs {
		if v4 := ip.To4(); v4 != nil {
			host = v4.String()
			break
		}
	}
	if host == "" && len(e.IPs) > 0 {
		host = e.IPs[0].String()
	}
	if host == "" {
		host = strings.TrimSuffix(e.Host, ".")
	}
	return endpointstore.Endpoint{Host: host, Port: e.Port}
}
