package oscmanager

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"touchscenes/logger"
	"touchscenes/metrics"
)

// ErrBind is returned by Start when the listening socket cannot be opened.
var ErrBind = errors.New("bind OSC socket")

// maxDatagram is the largest UDP payload we accept.
const maxDatagram = 65535

// OSCManager owns the listening UDP socket and the receive loop feeding the Router.
type OSCManager struct {
	Addr string

	router  *Router
	log     logger.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	conn net.PacketConn
	done chan struct{}
}

// New creates an OSCManager that will listen on addr (ex: "0.0.0.0:12345").
func New(addr string, router *Router, log logger.Logger, m *metrics.Metrics) *OSCManager {
	return &OSCManager{
		Addr:    addr,
		router:  router,
		log:     log,
		metrics: m,
	}
}

// Start binds the socket and starts the receive loop in its own goroutine.
func (o *OSCManager) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.conn != nil {
		return fmt.Errorf("OSC listener already running on %s", o.conn.LocalAddr())
	}

	conn, err := net.ListenPacket("udp", o.Addr)
	if err != nil {
		return fmt.Errorf("%w on %s: %w", ErrBind, o.Addr, err)
	}

	o.conn = conn
	o.done = make(chan struct{})
	go o.serve(conn, o.done)

	o.log.Info("listening for OSC", logger.String("addr", conn.LocalAddr().String()))
	return nil
}

// LocalAddr returns the bound address, or nil when not running.
func (o *OSCManager) LocalAddr() net.Addr {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conn == nil {
		return nil
	}
	return o.conn.LocalAddr()
}

// Port returns the bound UDP port, or 0 when not running.
func (o *OSCManager) Port() int {
	if addr, ok := o.LocalAddr().(*net.UDPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop closes the socket, which unblocks the pending read, and waits for the
// receive loop to exit. Calling Stop on a stopped manager does nothing.
func (o *OSCManager) Stop() error {
	o.mu.Lock()
	conn, done := o.conn, o.done
	o.conn, o.done = nil, nil
	o.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-done
	o.log.Info("OSC listener stopped")
	return err
}

func (o *OSCManager) serve(conn net.PacketConn, done chan struct{}) {
	defer close(done)

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			o.log.Warn("OSC read failed", logger.Error(err))
			continue
		}
		o.metrics.PacketReceived()
		if from != nil {
			o.log.Debug("osc packet", logger.String("from", from.String()), logger.Int("bytes", n))
		}
		o.router.DispatchRaw(buf[:n])
	}
}
