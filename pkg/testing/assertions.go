package testing

import (
	"testing"

	"github.com/getmockd/stubd/pkg/stats"
)

// StatisticsSource is anything that reports hit and miss counts: Server,
// Shared, engine.Server, engine.SharedServer and engine.BorrowScope.
type StatisticsSource interface {
	Statistics() stats.Snapshot
}

// AssertHits asserts how many requests matched a rule.
func AssertHits(t testing.TB, src StatisticsSource, want int64) {
	t.Helper()
	if got := src.Statistics().Hit; got != want {
		t.Errorf("expected %d hit(s), got %d", want, got)
	}
}

// AssertMisses asserts how many requests matched no rule.
func AssertMisses(t testing.TB, src StatisticsSource, want int64) {
	t.Helper()
	if got := src.Statistics().Miss; got != want {
		t.Errorf("expected %d miss(es), got %d", want, got)
	}
}

// AssertStats asserts both counts at once.
func AssertStats(t testing.TB, src StatisticsSource, hit, miss int64) {
	t.Helper()
	want := stats.Snapshot{Hit: hit, Miss: miss}
	if got := src.Statistics(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
