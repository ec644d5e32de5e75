package endpoint

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by ReceiveInto when no datagram is currently
// queued. It is the normal queue-drained signal, not a failure.
var ErrWouldBlock = errors.New("endpoint: receive would block")

// Socket is a non-blocking UDP socket bound to exactly one local endpoint.
//
// It wraps a raw file descriptor rather than a net.UDPConn so the relay
// engine can drive readiness itself from a single goroutine; the runtime's
// network poller would park the goroutine on every call instead.
type Socket struct {
	fd    int
	local Endpoint
}

// Open creates a UDP socket in non-blocking mode and binds it to local.
// Failures here are configuration-class: callers are expected to treat
// them as fatal.
func Open(local Endpoint) (*Socket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, fmt.Errorf("create socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set non-blocking: %w", err)
	}
	if err := unix.Bind(fd, local.sockaddr()); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", local, err)
	}

	// Re-read the bound address so a port-0 bind reports the kernel-chosen
	// port.
	sa, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	bound, ok := fromSockaddr(sa)
	if !ok {
		unix.Close(fd)
		return nil, fmt.Errorf("getsockname on %s: unexpected address family", local)
	}

	return &Socket{fd: fd, local: bound}, nil
}

// ReceiveInto performs a single non-blocking receive into buf. It returns
// the payload length and the sender's address, or ErrWouldBlock when the
// receive queue is empty. Any other failure is a real error.
func (s *Socket) ReceiveInto(buf []byte) (int, Endpoint, error) {
	n, sa, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, Endpoint{}, ErrWouldBlock
		}
		return 0, Endpoint{}, fmt.Errorf("recvfrom on %s: %w", s.local, err)
	}
	sender, ok := fromSockaddr(sa)
	if !ok {
		return 0, Endpoint{}, fmt.Errorf("recvfrom on %s: unexpected address family", s.local)
	}
	return n, sender, nil
}

// Send performs a single non-blocking send of buf to dst. A failed send
// means the datagram is dropped; callers must not treat it as fatal and
// must not retry.
func (s *Socket) Send(buf []byte, dst Endpoint) error {
	if err := unix.Sendto(s.fd, buf, 0, dst.sockaddr()); err != nil {
		return fmt.Errorf("sendto %s: %w", dst, err)
	}
	return nil
}

// LocalEndpoint returns the endpoint the socket is actually bound to.
func (s *Socket) LocalEndpoint() Endpoint {
	return s.local
}

// Fd returns the underlying file descriptor for readiness registration.
func (s *Socket) Fd() int {
	return s.fd
}

// Close releases the socket. The relay holds its sockets for the process
// lifetime; Close exists for tests and orderly teardown.
func (s *Socket) Close() error {
	return unix.Close(s.fd)
}
