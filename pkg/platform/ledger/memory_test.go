package ledger

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "carewatch/pkg/domain-errors"
)

type entry struct {
	seq int64
	key string
}

func build(key string) func(int64) entry {
	return func(seq int64) entry { return entry{seq: seq, key: key} }
}

func bySeq(a, b entry) int { return cmp.Compare(a.seq, b.seq) }

func TestMemory_ConcurrentAppendsAreContiguous(t *testing.T) {
	m := NewMemory[entry]()
	const n = 100

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("O00%d", i%3)
			_, err := m.Append(context.Background(), key, build(key))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all := m.All(bySeq)
	require.Len(t, all, n)
	for i, e := range all {
		assert.Equal(t, int64(i+1), e.seq)
	}
	assert.Equal(t, n, m.Len())
}

func TestMemory_PartitionOrderMatchesSequence(t *testing.T) {
	m := NewMemory[entry]()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Append(context.Background(), "O001", build("O001"))
		}()
	}
	wg.Wait()

	list := m.List("O001")
	require.Len(t, list, 50)
	assert.True(t, sort.SliceIsSorted(list, func(i, j int) bool { return list[i].seq < list[j].seq }))
}

func TestMemory_CancelledContextDoesNotConsumeSequence(t *testing.T) {
	m := NewMemory[entry]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Append(ctx, "O001", build("O001"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	assert.Equal(t, 0, m.Len())

	e, err := m.Append(context.Background(), "O001", build("O001"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.seq)
}

func TestMemory_ListUnknownKeyIsEmpty(t *testing.T) {
	m := NewMemory[entry]()
	list := m.List("missing")
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestMemory_ListReturnsCopy(t *testing.T) {
	m := NewMemory[entry]()
	_, _ = m.Append(context.Background(), "k", build("k"))
	list := m.List("k")
	list[0].key = "mutated"
	assert.Equal(t, "k", m.List("k")[0].key)
}
