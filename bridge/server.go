// Package bridge owns the start/stop ordering of the OSC listener, the mDNS
// advertisement and the controller browse, and exposes the plugin lifecycle
// a host application drives.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"touchscenes/logger"
	"touchscenes/mdnsmanager"
	"touchscenes/metrics"
	"touchscenes/oscmanager"
	"touchscenes/scenesync"
)

// ErrAlreadyRunning is returned by Start unless the server is stopped.
var ErrAlreadyRunning = errors.New("server already running")

// State is the lifecycle state of a Server.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Advertiser is implemented by *mdnsmanager.Advertiser.
type Advertiser interface {
	Start(port int) error
	Stop()
}

// Listener is implemented by *mdnsmanager.Listener.
type Listener interface {
	Start(ctx context.Context, serviceType string) (<-chan mdnsmanager.Event, error)
	Stop()
}

// Options configures the OSC socket and the browsed service type.
type Options struct {
	ListenHost  string // ex: "0.0.0.0"
	Port        int    // 0 picks a free port
	ServiceType string // ex: "_osc._udp.local."
}

// Deps are the components a Server drives.
type Deps struct {
	Controller *scenesync.Controller
	Advertiser Advertiser // nil disables advertisement
	Listener   Listener   // nil disables browsing
	Logger     logger.Logger
	Metrics    *metrics.Metrics
}

// Server runs the bridge as one unit.
type Server struct {
	opts       Options
	router     *oscmanager.Router
	osc        *oscmanager.OSCManager
	controller *scenesync.Controller
	advertiser Advertiser
	listener   Listener
	log        logger.Logger

	mu           sync.Mutex
	state        State
	cancel       context.CancelFunc
	consumerDone chan struct{}
}

// NewServer builds the router with one button handler per scene slot.
func NewServer(opts Options, d Deps) (*Server, error) {
	if d.Controller == nil {
		return nil, errors.New("bridge: controller is required")
	}
	if opts.ServiceType == "" {
		opts.ServiceType = mdnsmanager.ServiceType
	}

	router := oscmanager.NewRouter(d.Logger, d.Metrics)
	if err := d.Controller.RegisterButtons(router); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(opts.ListenHost, strconv.Itoa(opts.Port))
	return &Server{
		opts:       opts,
		router:     router,
		osc:        oscmanager.New(addr, router, d.Logger, d.Metrics),
		controller: d.Controller,
		advertiser: d.Advertiser,
		listener:   d.Listener,
		log:        d.Logger,
	}, nil
}

// Router returns the OSC router, for registering extra handlers before Start.
func (s *Server) Router() *oscmanager.Router { return s.router }

// Controller returns the scene controller.
func (s *Server) Controller() *scenesync.Controller { return s.controller }

// State returns the lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Port returns the bound OSC port, 0 when not running.
func (s *Server) Port() int { return s.osc.Port() }

// Start binds the OSC socket, starts receiving, then advertises and browses.
// A bind failure is returned wrapping oscmanager.ErrBind. An advertisement
// failure is only logged: direct-IP controllers can still connect.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.state != Stopped {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.state = Starting
	s.mu.Unlock()

	if err := s.osc.Start(); err != nil {
		s.setState(Stopped)
		return err
	}
	port := s.osc.Port()

	if s.advertiser != nil {
		if err := s.advertiser.Start(port); err != nil {
			if errors.Is(err, mdnsmanager.ErrAddressResolution) {
				s.log.Warn("no local address to advertise, continuing without mDNS advertisement", logger.Error(err))
			} else {
				s.log.Warn("mDNS advertisement failed", logger.Error(err))
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	if s.listener != nil {
		events, err := s.listener.Start(ctx, s.opts.ServiceType)
		if err != nil {
			s.log.Warn("mDNS browse failed", logger.Error(err))
			close(done)
		} else {
			go func() {
				defer close(done)
				s.controller.Run(ctx, events)
			}()
		}
	} else {
		close(done)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.consumerDone = done
	s.state = Running
	s.mu.Unlock()

	s.log.Info("bridge running", logger.Int("port", port))
	return nil
}

// Stop withdraws the advertisement first, then stops browsing and finally
// closes the OSC socket, so no controller is pointed at a closing socket.
// Stopping a stopped server does nothing.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return nil
	}
	s.state = Stopping
	cancel, done := s.cancel, s.consumerDone
	s.cancel, s.consumerDone = nil, nil
	s.mu.Unlock()

	if s.advertiser != nil {
		s.advertiser.Stop()
	}
	if s.listener != nil {
		s.listener.Stop()
	}
	cancel()
	<-done

	err := s.osc.Stop()
	s.setState(Stopped)
	s.log.Info("bridge stopped")
	return err
}

func (s *Server) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
