package unify

import (
	"fmt"

	"github.com/cottand/tyinfer/internal/log"
	"github.com/pkg/errors"
)

var logger = log.DefaultLogger.With("section", "unify")

// Key is an inference variable id, a dense index into its Table
type Key interface {
	~uint32
	fmt.Stringer
}

// MergeFunc combines the values of two classes being unioned.
// It fails when the values are incompatible
type MergeFunc[V any] func(a, b V) (V, error)

// MergeEqual accepts two values only if they are equal
func MergeEqual[V comparable](a, b V) (V, error) {
	if a != b {
		return a, &ConflictError[V]{A: a, B: b}
	}
	return a, nil
}

// ConflictError is returned when two classes with incompatible values meet
type ConflictError[V any] struct {
	A, B V
}

func (e *ConflictError[V]) Error() string {
	return fmt.Sprintf("cannot unify %v with %v", e.A, e.B)
}

type varValue[K Key, V any] struct {
	parent   K
	rank     uint32
	value    V
	hasValue bool
}

// Table is a union-find structure over keys of type K, where each class
// optionally holds a value of type V
type Table[K Key, V any] struct {
	values SnapshotVec[varValue[K, V]]
	merge  MergeFunc[V]
}

func NewTable[K Key, V any](merge MergeFunc[V]) *Table[K, V] {
	return &Table[K, V]{merge: merge}
}

func (t *Table[K, V]) Len() int { return t.values.Len() }

// NewKey creates a new class, holding value if hasValue is set
func (t *Table[K, V]) NewKey(value V, hasValue bool) K {
	k := K(t.values.Len())
	t.values.Push(varValue[K, V]{parent: k, value: value, hasValue: hasValue})
	logger.Debug("new key", "key", k.String(), "hasValue", hasValue)
	return k
}

// Find returns the root of k's class
func (t *Table[K, V]) Find(k K) K {
	v := t.values.Get(int(k))
	if v.parent == k {
		return k
	}
	root := t.Find(v.parent)
	// path compression is only worth an undo log entry outside of snapshots
	if root != v.parent && !t.values.InSnapshot() {
		v.parent = root
		t.values.Set(int(k), v)
	}
	return root
}

// Probe returns the value of k's class, if it has one
func (t *Table[K, V]) Probe(k K) (V, bool) {
	v := t.values.Get(int(t.Find(k)))
	return v.value, v.hasValue
}

func (t *Table[K, V]) HasValue(k K) bool {
	_, ok := t.Probe(k)
	return ok
}

// Unioned reports whether a and b are in the same class
func (t *Table[K, V]) Unioned(a, b K) bool { return t.Find(a) == t.Find(b) }

// Union merges the classes of a and b and returns the new root.
// If both classes hold a value, they are combined with the table's MergeFunc
func (t *Table[K, V]) Union(a, b K) (K, error) {
	rootA, rootB := t.Find(a), t.Find(b)
	if rootA == rootB {
		return rootA, nil
	}
	va, vb := t.values.Get(int(rootA)), t.values.Get(int(rootB))

	value, hasValue := va.value, va.hasValue
	switch {
	case va.hasValue && vb.hasValue:
		merged, err := t.merge(va.value, vb.value)
		if err != nil {
			return rootA, errors.Wrapf(err, "union of %s and %s", a, b)
		}
		value = merged
	case vb.hasValue:
		value, hasValue = vb.value, true
	}

	newRoot, child := rootA, rootB
	rank := va.rank
	switch {
	case va.rank < vb.rank:
		newRoot, child, rank = rootB, rootA, vb.rank
	case va.rank == vb.rank:
		rank++
	}
	t.values.Update(int(child), func(v varValue[K, V]) varValue[K, V] {
		v.parent = newRoot
		return v
	})
	t.values.Set(int(newRoot), varValue[K, V]{parent: newRoot, rank: rank, value: value, hasValue: hasValue})
	logger.Debug("union", "a", a.String(), "b", b.String(), "root", newRoot.String())
	return newRoot, nil
}

// UnifyVarValue sets the value of k's class. If it already has one, the two
// are combined with the table's MergeFunc
func (t *Table[K, V]) UnifyVarValue(k K, value V) error {
	root := t.Find(k)
	current := t.values.Get(int(root))
	if current.hasValue {
		merged, err := t.merge(current.value, value)
		if err != nil {
			return errors.Wrapf(err, "unifying %s", k)
		}
		value = merged
	}
	current.value, current.hasValue = value, true
	t.values.Set(int(root), current)
	return nil
}

func (t *Table[K, V]) Snapshot() Snapshot     { return t.values.StartSnapshot() }
func (t *Table[K, V]) RollbackTo(s Snapshot) { t.values.RollbackTo(s) }
func (t *Table[K, V]) Commit(s Snapshot)     { t.values.Commit(s) }

// Action is an entry of the table's undo log, stripped of the stored values
type Action struct {
	Kind UndoKind
	Key  uint32
}

// ActionsSince lists the keys created or modified since s was taken
func (t *Table[K, V]) ActionsSince(s Snapshot) []Action {
	entries := t.values.ActionsSince(s)
	actions := make([]Action, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, Action{Kind: e.Kind, Key: uint32(e.Index)})
	}
	return actions
}
