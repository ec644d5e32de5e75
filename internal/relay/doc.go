// Package relay implements the bidirectional UDP datagram forwarding engine.
//
// The Engine owns two bound non-blocking sockets, A and B, and repeatedly
// moves datagrams from whichever socket has data to the other. Payloads are
// opaque; the relay adds no reliability layer on top of UDP.
//
// # Dispatch
//
// Two dispatch strategies drive the same drain logic: StrategyPoll attempts
// both directions in a tight loop, and StrategyReadiness blocks on an epoll
// instance until a socket reports data. Each drain visit is bounded by the
// drain budget so a loaded direction cannot starve the other.
//
// # Forwarding policies
//
// FixedDestination bridges two distinct parties: every datagram received on
// one side is sent to the other side's preconfigured destination.
// PreserveSender instead re-emits each datagram out the peer socket but
// addressed back to its own reported sender. That is an address-translating
// echo, not a bridge; it is intentional, and deployments rely on it to
// reflect traffic back through a different local interface.
//
// # Lifecycle
//
// The engine has one mode: running. It stops only when its context is
// cancelled (external termination) or a configuration-class error occurs
// (unexpected receive or multiplexer failure). Send failures are drops,
// never fatal.
package relay
