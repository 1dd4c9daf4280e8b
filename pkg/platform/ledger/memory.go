// Package ledger provides an in-memory append-only ledger partitioned by key.
//
// Each partition has its own mutex, so appends for different keys never
// contend. Sequence numbers come from one atomic counter taken while the
// partition is locked: within a partition insertion order equals sequence
// order, and N successful appends consume exactly N consecutive numbers.
package ledger

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	dErrors "carewatch/pkg/domain-errors"
)

type partition[T any] struct {
	mu    sync.RWMutex
	items []T
}

type Memory[T any] struct {
	next       atomic.Int64
	partitions sync.Map // string -> *partition[T]
	size       atomic.Int64
}

func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{}
}

func (m *Memory[T]) partition(key string) *partition[T] {
	if p, ok := m.partitions.Load(key); ok {
		return p.(*partition[T])
	}
	p, _ := m.partitions.LoadOrStore(key, &partition[T]{})
	return p.(*partition[T])
}

// Append assigns the next sequence number and stores build's result under
// key. build runs inside the partition lock and must not block.
func (m *Memory[T]) Append(ctx context.Context, key string, build func(seq int64) T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeTimeout, "append aborted: context cancelled")
	}

	p := m.partition(key)
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeTimeout, "append aborted: context cancelled")
	}
	v := build(m.next.Add(1))
	p.items = append(p.items, v)
	m.size.Add(1)
	return v, nil
}

// List returns a copy of key's entries in insertion order.
func (m *Memory[T]) List(key string) []T {
	p, ok := m.partitions.Load(key)
	if !ok {
		return []T{}
	}
	part := p.(*partition[T])
	part.mu.RLock()
	defer part.mu.RUnlock()
	return slices.Clone(part.items)
}

// All returns a copy of every entry ordered by cmp. Partitions are copied one
// at a time, so appends racing with All may or may not be included.
func (m *Memory[T]) All(cmp func(a, b T) int) []T {
	out := make([]T, 0, m.size.Load())
	m.partitions.Range(func(_, v any) bool {
		part := v.(*partition[T])
		part.mu.RLock()
		out = append(out, part.items...)
		part.mu.RUnlock()
		return true
	})
	slices.SortFunc(out, cmp)
	return out
}

// Len returns the total number of entries across partitions.
func (m *Memory[T]) Len() int {
	return int(m.size.Load())
}
