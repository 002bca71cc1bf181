package httpx

import (
	"net"
	"strconv"
	"strings"
)

type Address string

// SplitHostPort splits the address into the host and port parts,
// a missing or malformed port is 0.
func (a Address) SplitHostPort() (string, int) {
	host, portStr, err := net.SplitHostPort(string(a))
	if err != nil {
		return string(a), 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}

// buildAddress joins network host from the first param
// with the port value of a listener from the second param.
// The zone param is prepended to the host as a subdomain.
//
// As example, address host.com:8080 and listener 123.123.123.123:8888 will be
// transformed to host.com:8888.
func buildAddress(address string, zone string, l Listener) string {
	addr, _, err := net.SplitHostPort(address)
	if err != nil {
		addr = address
	}
	if addr == "" {
		addr = "localhost"
	}
	if zone != "" {
		addr = zone + "." + addr
	}
	if l.Listener == nil {
		return addr
	}
	port := l.GetPort()
	if port > 0 && port != 80 && port != 443 {
		addr += ":" + strconv.Itoa(port)
	}
	return addr
}

func extractHost(address string) string {
	if strings.Contains(address, "://") {
		address = address[strings.Index(address, "://")+3:]
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}
	return host
}
