package unify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testKey uint32

func (k testKey) String() string { return fmt.Sprintf("k%d", uint32(k)) }

func TestSnapshotVecRollback(t *testing.T) {
	v := SnapshotVec[string]{}
	v.Push("a")

	s := v.StartSnapshot()
	v.Push("b")
	v.Set(0, "A")
	assert.Equal(t, 2, v.Len())
	assert.Len(t, v.ActionsSince(s), 2)

	v.RollbackTo(s)
	assert.Equal(t, 1, v.Len())
	assert.Equal(t, "a", v.Get(0))
	assert.False(t, v.InSnapshot())
}

func TestSnapshotVecNestedCommit(t *testing.T) {
	v := SnapshotVec[int]{}
	outer := v.StartSnapshot()
	v.Push(1)
	inner := v.StartSnapshot()
	v.Push(2)
	v.Commit(inner)
	assert.Equal(t, 2, v.Len())

	// the inner changes are still undone by the outer rollback
	v.RollbackTo(outer)
	assert.Equal(t, 0, v.Len())
}

func TestSnapshotVecMisuse(t *testing.T) {
	t.Run("consuming twice", func(t *testing.T) {
		v := SnapshotVec[int]{}
		s := v.StartSnapshot()
		v.Commit(s)
		assert.Panics(t, func() { v.Commit(s) })
	})
	t.Run("stale snapshot after outermost commit", func(t *testing.T) {
		v := SnapshotVec[int]{}
		stale := v.StartSnapshot()
		v.Commit(stale)
		_ = v.StartSnapshot()
		assert.Panics(t, func() { v.RollbackTo(stale) })
	})
	t.Run("outer before inner", func(t *testing.T) {
		v := SnapshotVec[int]{}
		outer := v.StartSnapshot()
		_ = v.StartSnapshot()
		assert.Panics(t, func() { v.Commit(outer) })
	})
}

func TestTableUnion(t *testing.T) {
	table := NewTable[testKey](MergeEqual[string])
	a := table.NewKey("", false)
	b := table.NewKey("", false)
	c := table.NewKey("int", true)

	_, err := table.Union(a, b)
	require.NoError(t, err)
	assert.True(t, table.Unioned(a, b))
	assert.False(t, table.HasValue(a))

	_, err = table.Union(b, c)
	require.NoError(t, err)
	value, ok := table.Probe(a)
	assert.True(t, ok)
	assert.Equal(t, "int", value)
}

func TestTableConflict(t *testing.T) {
	table := NewTable[testKey](MergeEqual[string])
	a := table.NewKey("int", true)
	b := table.NewKey("float", true)

	_, err := table.Union(a, b)
	var conflict *ConflictError[string]
	assert.ErrorAs(t, err, &conflict)
	assert.False(t, table.Unioned(a, b))

	assert.NoError(t, table.UnifyVarValue(a, "int"))
	assert.Error(t, table.UnifyVarValue(a, "bool"))
}

func TestTableSnapshot(t *testing.T) {
	table := NewTable[testKey](MergeEqual[string])
	a := table.NewKey("", false)

	s := table.Snapshot()
	b := table.NewKey("", false)
	_, err := table.Union(a, b)
	require.NoError(t, err)
	require.NoError(t, table.UnifyVarValue(a, "u8"))

	actions := table.ActionsSince(s)
	assert.Equal(t, Action{Kind: NewElem, Key: uint32(b)}, actions[0])

	table.RollbackTo(s)
	assert.Equal(t, 1, table.Len())
	assert.False(t, table.HasValue(a))
}

func TestTablePathCompression(t *testing.T) {
	table := NewTable[testKey](MergeEqual[int])
	keys := make([]testKey, 8)
	for i := range keys {
		keys[i] = table.NewKey(0, false)
	}
	for i := 1; i < len(keys); i++ {
		_, err := table.Union(keys[i-1], keys[i])
		require.NoError(t, err)
	}
	root := table.Find(keys[0])
	for _, k := range keys {
		assert.Equal(t, root, table.Find(k))
	}
}
