package endpointstore

import (
	"net"
	"strconv"
	"sync"
)

// Endpoint is the UDP address of the remote controller. The zero value means
// no controller is known.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// IsZero reports whether the endpoint is absent.
func (e Endpoint) IsZero() bool {
	return e.Host == "" || e.Port == 0
}

func (e Endpoint) String() string {
	if e.IsZero() {
		return ""
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Store holds the single remote endpoint. Every write replaces the whole
// value under the lock, so readers never observe a half-updated host/port.
type Store struct {
	mu       sync.RWMutex
	endpoint Endpoint
	instance string
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Get returns the current endpoint and whether one is set.
func (s *Store) Get() (Endpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoint, !s.endpoint.IsZero()
}

// Instance returns the service instance name the current endpoint came from.
func (s *Store) Instance() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instance
}

// Set replaces the endpoint. The most recent call wins.
func (s *Store) Set(instance string, ep Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = ep
	s.instance = instance
}

// Clear forgets the endpoint.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = Endpoint{}
	s.instance = ""
}
