package mdnsmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/brutella/dnssd"

	"touchscenes/logger"
)

// DNSSD is the Responder and Browser backed by github.com/brutella/dnssd.
type DNSSD struct {
	log logger.Logger
}

// NewDNSSD creates the multicast DNS backend.
func NewDNSSD(log logger.Logger) *DNSSD {
	return &DNSSD{log: log}
}

// Register announces rec and answers queries for it until the returned func
// is called, which sends goodbye packets and stops the responder.
func (d *DNSSD) Register(rec Record) (func(), error) {
	sv, err := dnssd.NewService(serviceConfig(rec))
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("create responder: %w", err)
	}

	handle, err := rp.Add(sv)
	if err != nil {
		return nil, fmt.Errorf("add service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := rp.Respond(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Warn("mDNS responder stopped", logger.Error(err))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			rp.Remove(handle)
			cancel()
			<-done
		})
	}, nil
}

// serviceConfig maps rec to a dnssd service, ex: "_osc._udp.local." ->
// Type "_osc._udp", Domain "local".
func serviceConfig(rec Record) dnssd.Config {
	typ, domain := splitServiceType(rec.ServiceType)
	return dnssd.Config{
		Name:   rec.Instance,
		Type:   typ,
		Domain: domain,
		IPs:    rec.IPs,
		Port:   rec.Port,
	}
}

// Browse looks up instances of serviceType until ctx is done.
func (d *DNSSD) Browse(ctx context.Context, serviceType string, found, lost func(Entry)) error {
	add := func(e dnssd.BrowseEntry) { found(toEntry(e)) }
	rmv := func(e dnssd.BrowseEntry) { lost(toEntry(e)) }

	err := dnssd.LookupType(ctx, serviceType, add, rmv)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func toEntry(e dnssd.BrowseEntry) Entry {
	return Entry{
		Instance: fmt.Sprintf("%s.%s.%s.", e.Name, e.Type, e.Domain),
		Host:     e.Host,
		IPs:      e.IPs,
		Port:     e.Port,
	}
}
