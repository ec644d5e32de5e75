package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/netfold/udp-relay/internal/endpoint"
	"github.com/netfold/udp-relay/internal/logging"
	"github.com/netfold/udp-relay/internal/metrics"
)

// MaxDatagramSize is the IPv4 UDP maximum payload bound. The engine's
// receive buffer holds one datagram of up to this size.
const MaxDatagramSize = 65535

// DefaultDrainBudget caps how many datagrams one direction may move per
// drain visit, so a direction under sustained load cannot starve the
// opposite direction inside one dispatch pass.
const DefaultDrainBudget = 128

// Config holds the engine's tunables.
type Config struct {
	// Strategy selects the dispatch loop: StrategyReadiness or StrategyPoll.
	Strategy Strategy

	// DrainBudget is the per-visit drain bound. Zero means DefaultDrainBudget.
	DrainBudget int

	// PolicyAToB decides the target for datagrams received on A and sent
	// out B; PolicyBToA the reverse.
	PolicyAToB ForwardPolicy
	PolicyBToA ForwardPolicy
}

// DirectionStats is a snapshot of one direction's counters.
type DirectionStats struct {
	Forwarded uint64 `json:"forwarded"`
	Dropped   uint64 `json:"dropped"`
	Bytes     uint64 `json:"bytes"`
}

// Stats is a snapshot of the engine's counters.
type Stats struct {
	AToB DirectionStats `json:"a_to_b"`
	BToA DirectionStats `json:"b_to_a"`
}

// direction pairs an ingress socket with its egress socket and policy.
type direction struct {
	name   string
	from   *endpoint.Socket
	to     *endpoint.Socket
	policy ForwardPolicy

	forwarded atomic.Uint64
	dropped   atomic.Uint64
	bytes     atomic.Uint64
}

func (d *direction) snapshot() DirectionStats {
	return DirectionStats{
		Forwarded: d.forwarded.Load(),
		Dropped:   d.dropped.Load(),
		Bytes:     d.bytes.Load(),
	}
}

// Engine owns the two relay sockets and moves datagrams between them.
//
// The datapath is single-threaded: Run's goroutine is the only one touching
// the sockets and the receive buffer, so no locks guard them. Stats counters
// are atomics because snapshots may be taken from other goroutines.
type Engine struct {
	aToB direction
	bToA direction

	budget int
	waiter Waiter
	buf    []byte

	logger  *slog.Logger
	metrics *metrics.Metrics
	dropLog *rate.Limiter

	running atomic.Bool
}

// New builds an Engine over two bound sockets. The sockets and the receive
// buffer become exclusively owned by the engine.
func New(cfg Config, a, b *endpoint.Socket, logger *slog.Logger, m *metrics.Metrics) (*Engine, error) {
	if a == nil || b == nil {
		return nil, errors.New("relay: both sockets are required")
	}
	if a == b {
		return nil, errors.New("relay: sockets must be distinct")
	}
	if cfg.PolicyAToB == nil || cfg.PolicyBToA == nil {
		return nil, errors.New("relay: both forwarding policies are required")
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	if m == nil {
		m = metrics.Default()
	}

	budget := cfg.DrainBudget
	if budget <= 0 {
		budget = DefaultDrainBudget
	}

	waiter, err := NewWaiter(cfg.Strategy, a.Fd(), b.Fd())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		budget:  budget,
		waiter:  waiter,
		buf:     make([]byte, MaxDatagramSize),
		logger:  logger.With(slog.String(logging.KeyComponent, "relay")),
		metrics: m,
		dropLog: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
	e.aToB.name, e.aToB.from, e.aToB.to, e.aToB.policy = metrics.DirectionAToB, a, b, cfg.PolicyAToB
	e.bToA.name, e.bToA.from, e.bToA.to, e.bToA.policy = metrics.DirectionBToA, b, a, cfg.PolicyBToA

	return e, nil
}

// Run drives the dispatch loop until ctx is cancelled or a fatal error
// occurs. Cancellation is external termination and returns nil; everything
// else that stops the loop is configuration-class and returned.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)

	// A blocked Wait cannot observe ctx directly; nudge it awake.
	stop := context.AfterFunc(ctx, e.waiter.Wake)
	defer stop()

	e.logger.Info("relay running",
		slog.String("a", e.aToB.from.LocalEndpoint().String()),
		slog.String("b", e.bToA.from.LocalEndpoint().String()),
		slog.Int("drain_budget", e.budget))

	for {
		if ctx.Err() != nil {
			return nil
		}

		readyA, readyB, err := e.waiter.Wait()
		if err != nil {
			return err
		}
		e.metrics.RecordWakeup()

		if ctx.Err() != nil {
			return nil
		}

		if readyA {
			if err := e.drain(&e.aToB); err != nil {
				return err
			}
		}
		if readyB {
			if err := e.drain(&e.bToA); err != nil {
				return err
			}
		}
	}
}

// drain moves queued datagrams for one direction, bounded by the drain
// budget. It stops early when the ingress queue is empty. Send failures are
// drops; receive failures other than would-block are fatal.
func (e *Engine) drain(d *direction) error {
	moved := 0
	for moved < e.budget {
		n, sender, err := d.from.ReceiveInto(e.buf)
		if errors.Is(err, endpoint.ErrWouldBlock) {
			break
		}
		if err != nil {
			return fmt.Errorf("relay %s: %w", d.name, err)
		}
		moved++

		target := d.policy.Target(sender)
		if err := d.to.Send(e.buf[:n], target); err != nil {
			d.dropped.Add(1)
			e.metrics.RecordDrop(d.name)
			if e.dropLog.Allow() {
				e.logger.Warn("datagram dropped",
					slog.String(logging.KeyDirection, d.name),
					slog.String(logging.KeyTarget, target.String()),
					slog.String(logging.KeyError, err.Error()))
			}
			continue
		}

		d.forwarded.Add(1)
		d.bytes.Add(uint64(n))
		e.metrics.RecordForward(d.name, n)
	}

	if moved > 0 {
		e.metrics.RecordDrainBatch(moved)
	}
	return nil
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		AToB: e.aToB.snapshot(),
		BToA: e.bToA.snapshot(),
	}
}

// IsRunning reports whether Run is currently executing.
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// Close releases the waiter. The sockets stay open: the relay holds them
// for the process lifetime, and tests close them directly.
func (e *Engine) Close() error {
	return e.waiter.Close()
}
