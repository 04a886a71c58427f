package cache

import (
	"strconv"
	"time"
)

// RevisionMemo caches a value derived from a versioned source. A value is
// reused only while the source revision is unchanged, so a mutation makes
// the next read recompute. The TTL bounds memory held for stale revisions.
type RevisionMemo[T any] struct {
	lru *LRUCache[T]
}

// NewRevisionMemo keeps up to size revisions for ttl each.
func NewRevisionMemo[T any](size int, ttl time.Duration) *RevisionMemo[T] {
	return &RevisionMemo[T]{lru: NewLRUCache[T](size, ttl)}
}

// Get returns the value for rev, calling compute on a miss.
func (m *RevisionMemo[T]) Get(rev uint64, compute func() T) T {
	return m.lru.GetOrCompute(strconv.FormatUint(rev, 10), compute)
}

func (m *RevisionMemo[T]) CleanExpired() int { return m.lru.CleanExpired() }

func (m *RevisionMemo[T]) Stats() Stats { return m.lru.Stats() }
