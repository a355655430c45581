package engine

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/getmockd/stubd/pkg/decision"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/stats"
)

// coordinatorState is replaced as a whole on every change, so the current
// context, the gate and the in-flight count are always read and written
// together.
type coordinatorState struct {
	current  *ExecutionContext
	borrowed bool
	inflight int64
	stopped  bool
}

// BorrowCoordinator decides which ExecutionContext serves each request of a
// shared listener and guards the swap to and from a borrowed context.
type BorrowCoordinator struct {
	original *ExecutionContext
	state    atomic.Pointer[coordinatorState]

	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewBorrowCoordinator returns a coordinator serving original.
func NewBorrowCoordinator(original *ExecutionContext) *BorrowCoordinator {
	b := &BorrowCoordinator{original: original, log: logging.Nop()}
	b.state.Store(&coordinatorState{current: original})
	return b
}

// Original returns the context installed when no borrow is active.
func (b *BorrowCoordinator) Original() *ExecutionContext { return b.original }

// Current returns the context new requests are served with.
func (b *BorrowCoordinator) Current() *ExecutionContext { return b.state.Load().current }

// InFlight returns the number of requests being served.
func (b *BorrowCoordinator) InFlight() int64 { return b.state.Load().inflight }

// Borrowed reports whether a borrowed context is installed.
func (b *BorrowCoordinator) Borrowed() bool { return b.state.Load().borrowed }

func (b *BorrowCoordinator) stopped() bool { return b.state.Load().stopped }

// update applies fn to the current state with compare-and-swap until it
// wins or fn refuses. It returns the state fn was applied to.
func (b *BorrowCoordinator) update(fn func(coordinatorState) (coordinatorState, error)) (coordinatorState, error) {
	for {
		old := b.state.Load()
		next, err := fn(*old)
		if err != nil {
			return *old, err
		}
		if b.state.CompareAndSwap(old, &next) {
			return *old, nil
		}
	}
}

// acquire counts a request as in flight and returns the context it must be
// served with, in one atomic step.
func (b *BorrowCoordinator) acquire() (*ExecutionContext, func()) {
	prev, _ := b.update(func(s coordinatorState) (coordinatorState, error) {
		s.inflight++
		return s, nil
	})
	return prev.current, b.release
}

func (b *BorrowCoordinator) release() {
	_, _ = b.update(func(s coordinatorState) (coordinatorState, error) {
		s.inflight--
		return s, nil
	})
}

// check reports, without changing anything, why a borrow would fail now.
func (b *BorrowCoordinator) check() error {
	s := b.state.Load()
	if s.stopped {
		return stateError("borrow", ErrServerStopped, "")
	}
	return unavailable(*s)
}

func unavailable(s coordinatorState) error {
	if s.borrowed {
		return stateError("borrow", ErrBorrowUnavailable, "another borrow is active")
	}
	if s.inflight > 0 {
		return stateError("borrow", ErrBorrowUnavailable, "%d request(s) in flight", s.inflight)
	}
	return nil
}

// install makes ec current if the listener is idle, running, and not
// already borrowed.
func (b *BorrowCoordinator) install(ec *ExecutionContext) error {
	_, err := b.update(func(s coordinatorState) (coordinatorState, error) {
		if s.stopped {
			return s, stateError("borrow", ErrSharedServerStopped, "")
		}
		if err := unavailable(s); err != nil {
			return s, err
		}
		s.current = ec
		s.borrowed = true
		return s, nil
	})
	return err
}

// restore reinstates the original context if ec is still installed.
func (b *BorrowCoordinator) restore(ec *ExecutionContext) {
	_, _ = b.update(func(s coordinatorState) (coordinatorState, error) {
		if s.current != ec {
			return s, errors.New("context already restored")
		}
		s.current = b.original
		s.borrowed = false
		return s, nil
	})
}

// stop marks the coordinator stopped and reports whether this call did it.
func (b *BorrowCoordinator) stop() bool {
	_, err := b.update(func(s coordinatorState) (coordinatorState, error) {
		if s.stopped {
			return s, ErrSharedServerStopped
		}
		s.stopped = true
		return s, nil
	})
	return err == nil
}

func errorIsStopped(err error) bool {
	return errors.Is(err, ErrServerStopped) || errors.Is(err, ErrSharedServerStopped)
}

// BorrowScope is a prepared borrow of a SharedServer. Run it once.
type BorrowScope struct {
	id       string
	server   *SharedServer
	decision *decision.Decision
	fallback decision.Fallback

	running atomic.Bool
	used    atomic.Bool
	ec      atomic.Pointer[ExecutionContext]
}

func newBorrowScope(s *SharedServer, d *decision.Decision, fb decision.Fallback) *BorrowScope {
	return &BorrowScope{id: uuid.NewString(), server: s, decision: d, fallback: fb}
}

// ID identifies the scope in logs.
func (s *BorrowScope) ID() string { return s.id }

// URL returns the shared server's base URL.
func (s *BorrowScope) URL() string { return s.server.URL() }

// Statistics returns the borrowed context's counters; zero before Run.
func (s *BorrowScope) Statistics() stats.Snapshot {
	if ec := s.ec.Load(); ec != nil {
		return ec.Statistics()
	}
	return stats.Snapshot{}
}

// Run installs a fresh context for the scope's rules, calls fn, and restores
// the original context when fn returns or panics. It never waits: if the
// server is disposed, another borrow is active, or a request is in flight,
// Run fails immediately without calling fn. A scope runs at most once.
func (s *BorrowScope) Run(fn func(*BorrowScope) error) error {
	if fn == nil {
		return errors.New("borrow: nil function")
	}
	if s.used.Load() || !s.running.CompareAndSwap(false, true) {
		return stateError("borrow", ErrScopeUsed, "")
	}
	defer s.running.Store(false)

	coord := s.server.coord
	ec := newExecutionContext(metrics.ContextBorrowed, s.decision, s.fallback)
	if err := coord.install(ec); err != nil {
		coord.recordRejection(err)
		return err
	}
	s.used.Store(true)
	s.ec.Store(ec)

	coord.metrics.RecordBorrow(metrics.BorrowAcquired)
	coord.metrics.SetBorrowActive(true)
	coord.log.Info("borrow started", "borrow_id", s.id, "rules", ec.decision.Len())

	defer func() {
		coord.restore(ec)
		coord.metrics.SetBorrowActive(false)
		snap := ec.Statistics()
		coord.log.Info("borrow ended", "borrow_id", s.id, "hit", snap.Hit, "miss", snap.Miss)
	}()

	return fn(s)
}
