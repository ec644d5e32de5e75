// Package endpoint provides the IPv4 UDP endpoint value type and the
// non-blocking sockets the relay datapath is built on.
//
// A Socket is created and bound once at startup and never rebound. Receives
// distinguish "queue empty" (ErrWouldBlock) from real failures; sends report
// failures so the caller can drop the datagram, matching UDP's unreliable
// delivery contract.
package endpoint
