package oscmanager

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"touchscenes/logger"
	"touchscenes/metrics"
)

// ErrInvalidAddress is returned when a handler is registered on something that
// is not a plain OSC address.
var ErrInvalidAddress = errors.New("invalid OSC address")

// Router maps exact OSC addresses to handlers. It implements osc.Dispatcher.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]func(*osc.Message)
	fallback func(*osc.Message)
	log      logger.Logger
	metrics  *metrics.Metrics
}

// NewRouter creates an empty Router.
func NewRouter(log logger.Logger, m *metrics.Metrics) *Router {
	return &Router{
		handlers: make(map[string]func(*osc.Message)),
		log:      log,
		metrics:  m,
	}
}

// Register binds handler to address. A second registration on the same address
// replaces the first.
func (r *Router) Register(address string, handler func(*osc.Message)) error {
	if !strings.HasPrefix(address, "/") || strings.ContainsAny(address, "*?,[]{}# ") {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if handler == nil {
		return fmt.Errorf("nil handler for %s", address)
	}

	r.mu.Lock()
	r.handlers[address] = handler
	r.mu.Unlock()
	return nil
}

// SetFallback sets the handler for messages no address matches. nil drops them.
func (r *Router) SetFallback(handler func(*osc.Message)) {
	r.mu.Lock()
	r.fallback = handler
	r.mu.Unlock()
}

// Addresses returns the number of registered addresses.
func (r *Router) Addresses() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Dispatch delivers a decoded packet. Bundle contents are delivered right away,
// in order, ignoring the time tag.
func (r *Router) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		r.dispatchMessage(p)
	case *osc.Bundle:
		for _, msg := range p.Messages {
			r.dispatchMessage(msg)
		}
		for _, b := range p.Bundles {
			r.Dispatch(b)
		}
	}
}

// DispatchRaw decodes one datagram and dispatches it. Datagrams that do not
// parse are dropped.
func (r *Router) DispatchRaw(data []byte) {
	packet, err := parse(data)
	if err != nil {
		r.metrics.PacketDropped()
		r.log.Debug("dropping malformed OSC packet",
			logger.Int("bytes", len(data)),
			logger.Error(err))
		return
	}
	r.Dispatch(packet)
}

func (r *Router) dispatchMessage(msg *osc.Message) {
	if msg == nil {
		return
	}
	r.mu.RLock()
	handler, ok := r.handlers[msg.Address]
	if !ok {
		handler = r.fallback
	}
	r.mu.RUnlock()
	if handler == nil {
		return
	}
	r.log.Debug("osc message",
		logger.String("address", msg.Address),
		logger.Any("arguments", msg.Arguments))
	handler(msg)
}

// parse wraps osc.ParsePacket; the decoder can panic on truncated input.
func parse(data []byte) (packet osc.Packet, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			packet = nil
			err = fmt.Errorf("parse panic: %v", rec)
		}
	}()
	if len(data) == 0 {
		return nil, errors.New("empty packet")
	}
	packet, err = osc.ParsePacket(string(data))
	if err == nil && packet == nil {
		err = errors.New("unknown packet type")
	}
	return packet, err
}
