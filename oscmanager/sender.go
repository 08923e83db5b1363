package oscmanager

import (
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"touchscenes/endpointstore"
	"touchscenes/metrics"
)

// Client is the part of *osc.Client the sender needs.
type Client interface {
	Send(packet osc.Packet) error
}

// ClientFactory builds a client for one remote endpoint.
type ClientFactory func(host string, port int) Client

// DefaultClientFactory returns go-osc UDP clients.
func DefaultClientFactory(host string, port int) Client {
	return osc.NewClient(host, port)
}

// Sender sends single-value OSC messages to the remote controller. There is no
// buffering and no retry: a lost datagram is fixed by the next resync.
type Sender struct {
	newClient ClientFactory
	metrics   *metrics.Metrics

	mu     sync.Mutex
	target endpointstore.Endpoint
	client Client
}

// NewSender creates a Sender. A nil factory selects DefaultClientFactory.
func NewSender(newClient ClientFactory, m *metrics.Metrics) *Sender {
	if newClient == nil {
		newClient = DefaultClientFactory
	}
	return &Sender{
		newClient: newClient,
		metrics:   m,
	}
}

// Send delivers value on address to ep. It does nothing when ep is absent.
func (s *Sender) Send(ep endpointstore.Endpoint, address string, value interface{}) error {
	if ep.IsZero() {
		return nil
	}

	if err := s.clientFor(ep).Send(osc.NewMessage(address, value)); err != nil {
		s.metrics.SendError()
		return err
	}
	s.metrics.MessageSent()
	return nil
}

func (s *Sender) clientFor(ep endpointstore.Endpoint) Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil || s.target != ep {
		s.client = s.newClient(ep.Host, ep.Port)
		s.target = ep
	}
	return s.client
}
