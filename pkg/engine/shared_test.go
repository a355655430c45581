package engine

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/condition"
	"github.com/getmockd/stubd/pkg/decision"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/request"
	"github.com/getmockd/stubd/pkg/response"
	"github.com/getmockd/stubd/pkg/stats"
)

func startShared(t *testing.T, d *decision.Decision, opts ...ServerOption) *SharedServer {
	t.Helper()
	s := NewSharedServer(testConfig(), d, nil, opts...)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Dispose() })
	return s
}

func TestBorrowIsolatesStatistics(t *testing.T) {
	shared := startShared(t, pathDecision("/base", "base"))

	get(t, shared.URL()+"/base")
	get(t, shared.URL()+"/nothing")
	before := shared.Statistics()
	require.Equal(t, stats.Snapshot{Hit: 1, Miss: 1}, before)

	scope, err := shared.Borrow(pathDecision("/borrowed", "borrowed"), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, scope.ID())
	assert.Equal(t, stats.Snapshot{}, scope.Statistics())

	err = scope.Run(func(s *BorrowScope) error {
		assert.True(t, shared.Borrowed())
		assert.Equal(t, shared.URL(), s.URL())

		assert.Equal(t, reply{http.StatusOK, "borrowed"}, get(t, s.URL()+"/borrowed"))
		assert.Equal(t, http.StatusTeapot, get(t, s.URL()+"/base").status, "original rules are not installed")
		get(t, s.URL()+"/borrowed")

		assert.Equal(t, before, shared.Statistics(), "original counters are untouched while borrowed")
		return nil
	})
	require.NoError(t, err)

	assert.False(t, shared.Borrowed())
	assert.Equal(t, stats.Snapshot{Hit: 2, Miss: 1}, scope.Statistics())
	assert.Equal(t, before, shared.Statistics())

	assert.Equal(t, reply{http.StatusOK, "base"}, get(t, shared.URL()+"/base"))
	assert.Equal(t, stats.Snapshot{Hit: 2, Miss: 1}, shared.Statistics(), "original counters resume where they stopped")
}

func TestBorrowRejectsConcurrentBorrow(t *testing.T) {
	shared := startShared(t, nil)

	scope, err := shared.Borrow(nil, nil)
	require.NoError(t, err)
	other, err := shared.Borrow(nil, nil)
	require.NoError(t, err, "nothing is borrowed yet")

	err = scope.Run(func(*BorrowScope) error {
		_, err := shared.Borrow(nil, nil)
		var stateErr *StateError
		require.ErrorAs(t, err, &stateErr)
		assert.ErrorIs(t, err, ErrBorrowUnavailable)
		assert.Contains(t, err.Error(), "another borrow is active")

		start := time.Now()
		err = other.Run(func(*BorrowScope) error {
			t.Error("nested borrow must not run")
			return nil
		})
		assert.ErrorIs(t, err, ErrBorrowUnavailable)
		assert.Less(t, time.Since(start), time.Second, "borrow never waits")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, other.Run(func(*BorrowScope) error { return nil }), "a rejected scope can run once the gate is free")
}

func TestBorrowRejectedWhileRequestInFlight(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	slow := decision.MustCandidate("slow", 0, condition.PathEquals("/slow"), func(*request.View) (*response.Response, error) {
		close(entered)
		<-unblock
		return response.Text(http.StatusOK, "done"), nil
	})
	shared := startShared(t, decision.MustNew(slow))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := http.Get(shared.URL() + "/slow") //nolint:noctx
		if err == nil {
			_ = res.Body.Close()
		}
	}()
	<-entered
	require.Equal(t, int64(1), shared.InFlight())

	_, err := shared.Borrow(nil, nil)
	assert.ErrorIs(t, err, ErrBorrowUnavailable)
	assert.Contains(t, err.Error(), "1 request(s) in flight")

	close(unblock)
	wg.Wait()
	require.Eventually(t, func() bool { return shared.InFlight() == 0 }, time.Second, time.Millisecond)

	scope, err := shared.Borrow(nil, nil)
	require.NoError(t, err)
	assert.NoError(t, scope.Run(func(*BorrowScope) error { return nil }))
}

func TestBorrowRestoresAfterErrorAndPanic(t *testing.T) {
	shared := startShared(t, pathDecision("/base", "base"))
	boom := errors.New("boom")

	scope, err := shared.Borrow(nil, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, scope.Run(func(*BorrowScope) error { return boom }), boom)
	assert.False(t, shared.Borrowed())

	scope, err = shared.Borrow(nil, nil)
	require.NoError(t, err)
	assert.PanicsWithValue(t, "kaboom", func() {
		_ = scope.Run(func(*BorrowScope) error { panic("kaboom") })
	})
	assert.False(t, shared.Borrowed())
	assert.Same(t, shared.Coordinator().Original(), shared.Coordinator().Current())
	assert.Equal(t, reply{http.StatusOK, "base"}, get(t, shared.URL()+"/base"))
}

func TestBorrowScopeRunsOnce(t *testing.T) {
	shared := startShared(t, nil)
	scope, err := shared.Borrow(nil, nil)
	require.NoError(t, err)

	require.NoError(t, scope.Run(func(*BorrowScope) error { return nil }))
	assert.ErrorIs(t, scope.Run(func(*BorrowScope) error { return nil }), ErrScopeUsed)
	assert.Error(t, scope.Run(nil))
}

func TestDisposeIsIdempotent(t *testing.T) {
	shared := NewSharedServer(testConfig(), nil, nil)
	require.NoError(t, shared.Start(context.Background()))

	for range 4 {
		assert.NoError(t, shared.Dispose())
		assert.False(t, shared.IsRunning())
		assert.True(t, shared.Disposed())
	}
	assert.ErrorIs(t, shared.Start(context.Background()), ErrListenerClosed)
}

func TestBorrowAfterDispose(t *testing.T) {
	shared := NewSharedServer(testConfig(), nil, nil)
	require.NoError(t, shared.Start(context.Background()))

	early, err := shared.Borrow(nil, nil)
	require.NoError(t, err)

	require.NoError(t, shared.Dispose())

	_, err = shared.Borrow(nil, nil)
	require.ErrorIs(t, err, ErrServerStopped)
	assert.Contains(t, err.Error(), "cannot borrow from an already-stopped server")

	called := false
	err = early.Run(func(*BorrowScope) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrSharedServerStopped)
	assert.Contains(t, err.Error(), "shared server is already stopped")
	assert.False(t, called)
}

func TestBorrowMetrics(t *testing.T) {
	m := metrics.New()
	shared := startShared(t, nil, WithMetrics(m))

	scope, err := shared.Borrow(pathDecision("/x", "x"), nil)
	require.NoError(t, err)
	require.NoError(t, scope.Run(func(s *BorrowScope) error {
		get(t, s.URL()+"/x")
		_, _ = shared.Borrow(nil, nil)
		return nil
	}))

	rec := httptestRecorder(t, m)
	assert.Contains(t, rec, `stubd_borrows_total{result="acquired"} 1`)
	assert.Contains(t, rec, `stubd_borrows_total{result="rejected"} 1`)
	assert.Contains(t, rec, `stubd_requests_total{context="borrowed",outcome="hit"} 1`)
	assert.Contains(t, rec, "stubd_borrow_active 0")
}

func TestCoordinatorAcquireTracksInFlight(t *testing.T) {
	original := NewExecutionContext(nil, nil)
	coord := NewBorrowCoordinator(original)

	ec, release := coord.acquire()
	assert.Same(t, original, ec)
	assert.Equal(t, int64(1), coord.InFlight())
	assert.Error(t, coord.install(NewExecutionContext(nil, nil)))

	release()
	assert.Zero(t, coord.InFlight())

	borrowed := NewExecutionContext(nil, nil)
	require.NoError(t, coord.install(borrowed))
	ec, release = coord.acquire()
	assert.Same(t, borrowed, ec)
	coord.restore(borrowed)
	assert.Same(t, original, coord.Current())
	assert.Equal(t, int64(1), coord.InFlight(), "restoring keeps the in-flight count")
	release()
}

func TestConcurrentBorrowAttemptsAdmitOne(t *testing.T) {
	shared := startShared(t, nil)
	const attempts = 16

	start := make(chan struct{})
	hold := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	won, lost := 0, 0

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			scope, err := shared.Borrow(nil, nil)
			if err == nil {
				err = scope.Run(func(*BorrowScope) error {
					<-hold
					return nil
				})
				if err == nil {
					mu.Lock()
					won++
					mu.Unlock()
					return
				}
			}
			mu.Lock()
			lost++
			mu.Unlock()
		}()
	}

	close(start)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return lost == attempts-1
	}, 5*time.Second, time.Millisecond)
	close(hold)
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, lost)
}
