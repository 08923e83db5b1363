package util

import (
	"errors"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoIPv4 is returned when a hostname has no usable IPv4 address.
var ErrNoIPv4 = errors.New("no non-loopback IPv4 address")

// LookupFunc resolves a hostname, like net.LookupIP.
type LookupFunc func(host string) ([]net.IP, error)

// LocalIPv4 resolves this machine's hostname and returns its non-loopback
// IPv4 address.
func LocalIPv4() (net.IP, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, err
	}
	return ResolveIPv4(hostname, net.LookupIP)
}

// ResolveIPv4 returns the last non-loopback IPv4 address lookup reports for
// hostname. Resolvers usually list the primary interface last.
func ResolveIPv4(hostname string, lookup LookupFunc) (net.IP, error) {
	ips, err := lookup(hostname)
	if err != nil {
		return nil, err
	}

	var found net.IP
	for _, ip := range ips {
		v4 := ip.To4()
		if v4 == nil || v4.IsLoopback() || v4.IsUnspecified() {
			continue
		}
		found = v4
	}
	if found == nil {
		return nil, ErrNoIPv4
	}
	return found, nil
}

var escapedByte = regexp.MustCompile(`\\([0-9]{3})`)

// NormalizeServiceName turns a DNS-SD service instance name into a comparable
// form: decimal escapes (\032) and backslash escapes are resolved, the trailing
// root dot is dropped and the result is lowercased.
//
//	`My\032iPad._osc._udp.local.` -> `my ipad._osc._udp.local`
func NormalizeServiceName(raw string) string {
	raw = strings.TrimSpace(raw)

	raw = escapedByte.ReplaceAllStringFunc(raw, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n > 255 {
			return m
		}
		return string(rune(n))
	})
	raw = strings.ReplaceAll(raw, `\`, "")

	return strings.ToLower(strings.TrimSuffix(raw, "."))
}
