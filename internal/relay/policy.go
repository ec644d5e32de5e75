package relay

import (
	"github.com/netfold/udp-relay/internal/endpoint"
)

// ForwardPolicy decides where a received datagram is sent.
type ForwardPolicy interface {
	// Target returns the egress destination for a datagram whose sender
	// was reported as sender.
	Target(sender endpoint.Endpoint) endpoint.Endpoint
}

// FixedDestination returns a policy that always forwards to dst, ignoring
// the sender address. This is the point-to-point bridge mode.
func FixedDestination(dst endpoint.Endpoint) ForwardPolicy {
	return fixedDestination{dst: dst}
}

type fixedDestination struct {
	dst endpoint.Endpoint
}

func (p fixedDestination) Target(endpoint.Endpoint) endpoint.Endpoint {
	return p.dst
}

// PreserveSender returns a policy that forwards each datagram to its own
// reported sender address, out the peer socket. See the package comment for
// why this echo-style addressing is intentional.
func PreserveSender() ForwardPolicy {
	return preserveSender{}
}

type preserveSender struct{}

func (preserveSender) Target(sender endpoint.Endpoint) endpoint.Endpoint {
	return sender
}
