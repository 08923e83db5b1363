package mdnsmanager

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"touchscenes/logger"
	"touchscenes/util"
)

// ErrAddressResolution is returned by Advertiser.Start when this host has no
// non-loopback IPv4 address to advertise.
var ErrAddressResolution = errors.New("resolve local address")

// Advertiser registers this process's OSC endpoint as a DNS-SD service.
type Advertiser struct {
	responder   Responder
	serviceType string
	instance    string
	log         logger.Logger

	// ResolveIP returns the address put in the record. Defaults to util.LocalIPv4.
	ResolveIP func() (net.IP, error)

	mu         sync.Mutex
	record     *Record
	unregister func()
}

// NewAdvertiser creates an Advertiser for the given service type and instance name.
func NewAdvertiser(r Responder, serviceType, instance string, log logger.Logger) *Advertiser {
	return &Advertiser{
		responder:   r,
		serviceType: serviceType,
		instance:    instance,
		log:         log,
		ResolveIP:   util.LocalIPv4,
	}
}

// Start registers the record for port. Nothing is registered if the local
// address cannot be resolved.
func (a *Advertiser) Start(port int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.record != nil {
		return fmt.Errorf("already advertising %s on port %d", a.instance, a.record.Port)
	}

	ip, err := a.ResolveIP()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAddressResolution, err)
	}

	rec := Record{
		ServiceType: a.serviceType,
		Instance:    a.instance,
		Port:        port,
		IPs:         []net.IP{ip},
	}
	unregister, err := a.responder.Register(rec)
	if err != nil {
		return fmt.Errorf("register %s: %w", a.instance, err)
	}

	a.record = &rec
	a.unregister = unregister
	a.log.Info("advertising OSC service",
		logger.String("instance", rec.Instance),
		logger.String("type", rec.ServiceType),
		logger.String("ip", ip.String()),
		logger.Int("port", port))
	return nil
}

// Stop withdraws the record. It does nothing when not advertising.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.record == nil {
		return
	}
	if a.unregister != nil {
		a.unregister()
	}
	a.log.Info("withdrew OSC service", logger.String("instance", a.record.Instance))
	a.record = nil
	a.unregister = nil
}

// Record returns the active registration, if any.
func (a *Advertiser) Record() (Record, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.record == nil {
		return Record{}, false
	}
	return *a.record, true
}
