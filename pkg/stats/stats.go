// Package stats counts how many requests a configuration matched and missed.
package stats

import (
	"fmt"
	"sync/atomic"
)

// Statistics holds two independent, monotonically increasing counters.
// The zero value is ready to use and safe for concurrent use.
type Statistics struct {
	hit  atomic.Int64
	miss atomic.Int64
}

// New returns a Statistics with both counters at zero.
func New() *Statistics {
	return &Statistics{}
}

// IncrementHit records a request that matched a rule.
func (s *Statistics) IncrementHit() {
	s.hit.Add(1)
}

// IncrementMiss records a request that fell through to the fallback.
func (s *Statistics) IncrementMiss() {
	s.miss.Add(1)
}

// Snapshot copies the counters. The two loads are independent, so under
// concurrent traffic a snapshot is consistent per counter, not across both.
func (s *Statistics) Snapshot() Snapshot {
	return Snapshot{Hit: s.hit.Load(), Miss: s.miss.Load()}
}

// Snapshot is a point-in-time copy of Statistics.
type Snapshot struct {
	Hit  int64 `json:"hit"`
	Miss int64 `json:"miss"`
}

// Total returns Hit + Miss.
func (s Snapshot) Total() int64 {
	return s.Hit + s.Miss
}

// Sub returns the counts accrued between prev and s.
func (s Snapshot) Sub(prev Snapshot) Snapshot {
	return Snapshot{Hit: s.Hit - prev.Hit, Miss: s.Miss - prev.Miss}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("hit=%d miss=%d", s.Hit, s.Miss)
}
