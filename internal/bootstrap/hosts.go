package bootstrap

import (
	"net"
	"strings"
)

// HostMap substitutes the streaming host for a given client hostname.
// Keys are bare hostnames (no port), compared case-insensitively.
type HostMap map[string]string

// Resolve returns the host the socket should be opened against. A mapped
// hostname yields the mapped value; anything else is returned verbatim,
// port included.
func (m HostMap) Resolve(clientHost string) string {
	if mapped, ok := m[strings.ToLower(hostname(clientHost))]; ok {
		return mapped
	}
	return clientHost
}

func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
