package mdnsmanager

import (
	"context"
	"errors"
	"net"
	"sync"
)

type fakeResponder struct {
	mu           sync.Mutex
	registered   []Record
	unregistered int
	err          error
}

func (f *fakeResponder) Register(rec Record) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.registered = append(f.registered, rec)
	return func() {
		f.mu.Lock()
		f.unregistered++
		f.mu.Unlock()
	}, nil
}

// fakeBrowser hands the callbacks to the test and blocks until ctx is done.
type fakeBrowser struct {
	ready chan struct{}
	found func(Entry)
	lost  func(Entry)
	typ   string
	err   error
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{ready: make(chan struct{})}
}

func (f *fakeBrowser) Browse(ctx context.Context, serviceType string, found, lost func(Entry)) error {
	f.typ = serviceType
	f.found, f.lost = found, lost
	close(f.ready)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func entry(name string, ip string, port int) Entry {
	e := Entry{Instance: name, Port: port}
	if ip != "" {
		e.IPs = []net.IP{net.ParseIP(ip)}
	}
	return e
}

var errBoom = errors.New("boom")
