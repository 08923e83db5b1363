// Package mdnsmanager advertises the bridge's OSC endpoint over DNS-SD and
// browses for the remote controller advertising the same service type.
//
// The network side lives behind two small interfaces, Responder and Browser.
// DNSSD implements both on top of github.com/brutella/dnssd; tests use fakes.
package mdnsmanager

import (
	"context"
	"net"
	"strings"

	"touchscenes/util"
)

// ServiceType is the DNS-SD type used by OSC controllers.
const ServiceType = "_osc._udp.local."

// InstanceName is the instance name this process advertises under. The
// listener uses it to ignore our own advertisement.
const InstanceName = "TouchScenes"

// Record describes a service registration.
type Record struct {
	ServiceType string
	Instance    string
	Port        int
	IPs         []net.IP
}

// Entry is a service instance seen while browsing.
type Entry struct {
	// Instance is the full service instance name, ex: "iPad._osc._udp.local.".
	Instance string
	Host     string
	IPs      []net.IP
	Port     int
}

// Responder publishes records. The returned func withdraws the record and
// must be safe to call once.
type Responder interface {
	Register(rec Record) (unregister func(), err error)
}

// Browser reports instances of a service type appearing and disappearing.
// Browse blocks until ctx is done and must not call found or lost after it
// returns.
type Browser interface {
	Browse(ctx context.Context, serviceType string, found, lost func(Entry)) error
}

// typeLabels extracts the service labels from a service type,
// ex: "_osc._udp.local." -> "_osc._udp".
func typeLabels(serviceType string) string {
	var labels []string
	for _, part := range strings.Split(util.NormalizeServiceName(serviceType), ".") {
		if strings.HasPrefix(part, "_") {
			labels = append(labels, part)
		}
	}
	return strings.Join(labels, ".")
}

// splitServiceType splits "_osc._udp.local." into "_osc._udp" and "local".
func splitServiceType(serviceType string) (string, string) {
	labels := typeLabels(serviceType)
	domain := strings.TrimPrefix(util.NormalizeServiceName(serviceType), labels)
	domain = strings.Trim(domain, ".")
	if domain == "" {
		domain = "local"
	}
	return labels, domain
}
