package relay

import (
	"fmt"
)

// Strategy selects how the engine waits for inbound datagrams.
type Strategy string

const (
	// StrategyPoll attempts both directions in a tight loop without ever
	// blocking. Portable, but spends CPU while idle.
	StrategyPoll Strategy = "poll"

	// StrategyReadiness blocks on the OS readiness multiplexer until at
	// least one socket has data. Linux only.
	StrategyReadiness Strategy = "readiness"
)

// A Waiter reports which of the two relay sockets are ready for reading.
type Waiter interface {
	// Wait blocks until at least one socket is readable and reports which.
	// Both results may be false after a Wake.
	Wait() (readyA, readyB bool, err error)

	// Wake unblocks a pending Wait. Safe to call from other goroutines.
	Wake()

	// Close releases the waiter's resources.
	Close() error
}

// NewWaiter builds the waiter for the given strategy over the two relay
// socket descriptors.
func NewWaiter(strategy Strategy, fdA, fdB int) (Waiter, error) {
	switch strategy {
	case StrategyPoll:
		return pollWaiter{}, nil
	case StrategyReadiness:
		w, err := newReadinessWaiter(fdA, fdB)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unknown dispatch strategy %q", strategy)
	}
}

// pollWaiter reports both sockets ready unconditionally, turning the engine
// loop into a continuous poll.
type pollWaiter struct{}

func (pollWaiter) Wait() (bool, bool, error) {
	return true, true, nil
}

func (pollWaiter) Wake() {}

func (pollWaiter) Close() error {
	return nil
}
