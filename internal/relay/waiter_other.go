//go:build !linux

package relay

import "errors"

func newReadinessWaiter(fdA, fdB int) (Waiter, error) {
	return nil, errors.New("readiness dispatch requires linux epoll; use the poll strategy")
}
