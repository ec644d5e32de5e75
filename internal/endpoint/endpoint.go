package endpoint

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// Endpoint is an (IPv4 address, UDP port) pair identifying one side of a
// UDP conversation.
type Endpoint struct {
	Addr [4]byte
	Port uint16
}

// Parse parses a dotted-decimal IPv4 "addr:port" string into an Endpoint.
// Hostnames and IPv6 addresses are rejected.
func Parse(s string) (Endpoint, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: %w", s, err)
	}
	if !ap.Addr().Is4() {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: address must be dotted-decimal IPv4", s)
	}
	return Endpoint{Addr: ap.Addr().As4(), Port: ap.Port()}, nil
}

// String returns the endpoint in "addr:port" form. It round-trips with
// Parse.
func (e Endpoint) String() string {
	return netip.AddrPortFrom(netip.AddrFrom4(e.Addr), e.Port).String()
}

// IsZero reports whether the endpoint is the zero value.
func (e Endpoint) IsZero() bool {
	return e == Endpoint{}
}

func (e Endpoint) sockaddr() *unix.SockaddrInet4 {
	sa := &unix.SockaddrInet4{Port: int(e.Port)}
	sa.Addr = e.Addr
	return sa
}

func fromSockaddr(sa unix.Sockaddr) (Endpoint, bool) {
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return Endpoint{}, false
	}
	return Endpoint{Addr: sa4.Addr, Port: uint16(sa4.Port)}, true
}
