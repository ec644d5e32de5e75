package relay

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// readinessWaiter multiplexes the two relay sockets through epoll.
//
// Registration is level-triggered: a bounded drain can leave datagrams
// queued, and the next Wait must report the socket ready again without any
// new traffic arriving.
type readinessWaiter struct {
	epfd   int
	fdA    int
	fdB    int
	wakeFd int
	events [8]unix.EpollEvent
}

func newReadinessWaiter(fdA, fdB int) (*readinessWaiter, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("create epoll: %w", err)
	}

	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("create eventfd: %w", err)
	}

	w := &readinessWaiter{epfd: epfd, fdA: fdA, fdB: fdB, wakeFd: wakeFd}
	for _, fd := range []int{fdA, fdB, wakeFd} {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			w.Close()
			return nil, fmt.Errorf("register fd %d for read: %w", fd, err)
		}
	}

	return w, nil
}

func (w *readinessWaiter) Wait() (bool, bool, error) {
	for {
		n, err := unix.EpollWait(w.epfd, w.events[:], -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, false, fmt.Errorf("epoll wait: %w", err)
		}

		var readyA, readyB bool
		for i := 0; i < n; i++ {
			switch int(w.events[i].Fd) {
			case w.fdA:
				readyA = true
			case w.fdB:
				readyB = true
			case w.wakeFd:
				// Reset the eventfd counter so the next Wait blocks.
				var drained [8]byte
				_, _ = unix.Read(w.wakeFd, drained[:])
			}
		}
		return readyA, readyB, nil
	}
}

func (w *readinessWaiter) Wake() {
	var inc [8]byte
	binary.NativeEndian.PutUint64(inc[:], 1)
	_, _ = unix.Write(w.wakeFd, inc[:])
}

func (w *readinessWaiter) Close() error {
	unix.Close(w.wakeFd)
	return unix.Close(w.epfd)
}
