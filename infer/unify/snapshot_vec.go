// Package unify provides the undo-logged storage and union-find tables that
// inference variables live in
package unify

import "fmt"

type UndoKind uint8

const (
	// NewElem records that an element was pushed
	NewElem UndoKind = iota
	// SetElem records the previous value of an overwritten element
	SetElem
	// OpenSnapshot marks where a snapshot that is still open started
	OpenSnapshot
	// CommittedSnapshot replaces OpenSnapshot once the snapshot is committed
	CommittedSnapshot
)

func (k UndoKind) String() string {
	switch k {
	case NewElem:
		return "NewElem"
	case SetElem:
		return "SetElem"
	case OpenSnapshot:
		return "OpenSnapshot"
	}
	return "CommittedSnapshot"
}

type UndoEntry[T any] struct {
	Kind  UndoKind
	Index int
	old   T
	// snapshot identifies an OpenSnapshot entry
	snapshot uint64
}

// Snapshot is a token for a point in the undo log. It must be
// consumed exactly once, by RollbackTo or Commit, in LIFO order
type Snapshot struct {
	length int
	id     uint64
}

// SnapshotVec is an append-only vector whose writes can be undone
// back to a Snapshot
type SnapshotVec[T any] struct {
	values  []T
	undoLog []UndoEntry[T]
	open    int
	nextID  uint64
}

func (v *SnapshotVec[T]) Len() int { return len(v.values) }

func (v *SnapshotVec[T]) InSnapshot() bool { return v.open > 0 }

// Push appends elem and returns its index
func (v *SnapshotVec[T]) Push(elem T) int {
	index := len(v.values)
	v.values = append(v.values, elem)
	if v.InSnapshot() {
		v.undoLog = append(v.undoLog, UndoEntry[T]{Kind: NewElem, Index: index})
	}
	return index
}

func (v *SnapshotVec[T]) Get(index int) T { return v.values[index] }

// Set overwrites the element at index, remembering the old value if a
// snapshot is open
func (v *SnapshotVec[T]) Set(index int, elem T) {
	if v.InSnapshot() {
		v.undoLog = append(v.undoLog, UndoEntry[T]{Kind: SetElem, Index: index, old: v.values[index]})
	}
	v.values[index] = elem
}

// Update applies op to a copy of the element at index and stores the result
func (v *SnapshotVec[T]) Update(index int, op func(elem T) T) {
	v.Set(index, op(v.values[index]))
}

func (v *SnapshotVec[T]) StartSnapshot() Snapshot {
	v.nextID++
	s := Snapshot{length: len(v.undoLog), id: v.nextID}
	v.undoLog = append(v.undoLog, UndoEntry[T]{Kind: OpenSnapshot, snapshot: s.id})
	v.open++
	return s
}

// ActionsSince lists the undo entries recorded after s was taken
func (v *SnapshotVec[T]) ActionsSince(s Snapshot) []UndoEntry[T] {
	v.assertOpen(s)
	return v.undoLog[s.length+1:]
}

func (v *SnapshotVec[T]) assertOpen(s Snapshot) {
	if s.length >= len(v.undoLog) {
		panic(fmt.Sprintf("unify: snapshot %d was already consumed", s.id))
	}
	entry := v.undoLog[s.length]
	if entry.Kind != OpenSnapshot || entry.snapshot != s.id {
		panic(fmt.Sprintf("unify: snapshot %d is not open", s.id))
	}
	for _, later := range v.undoLog[s.length+1:] {
		if later.Kind == OpenSnapshot {
			panic(fmt.Sprintf("unify: snapshot %d consumed while snapshot %d is still open", s.id, later.snapshot))
		}
	}
}

// RollbackTo undoes every change made since s was taken and closes s
func (v *SnapshotVec[T]) RollbackTo(s Snapshot) {
	v.assertOpen(s)
	for len(v.undoLog) > s.length+1 {
		entry := v.undoLog[len(v.undoLog)-1]
		v.undoLog = v.undoLog[:len(v.undoLog)-1]
		switch entry.Kind {
		case NewElem:
			if entry.Index != len(v.values)-1 {
				panic(fmt.Sprintf("unify: undoing push of %d but vector has length %d", entry.Index, len(v.values)))
			}
			v.values = v.values[:entry.Index]
		case SetElem:
			v.values[entry.Index] = entry.old
		case CommittedSnapshot:
		default:
			panic("unify: found an open snapshot while rolling back")
		}
	}
	v.undoLog = v.undoLog[:s.length]
	v.open--
}

// Commit keeps the changes made since s was taken and closes s. Once no
// snapshot is open the undo log is dropped
func (v *SnapshotVec[T]) Commit(s Snapshot) {
	v.assertOpen(s)
	if s.length == 0 {
		v.undoLog = v.undoLog[:0]
	} else {
		v.undoLog[s.length] = UndoEntry[T]{Kind: CommittedSnapshot, snapshot: s.id}
	}
	v.open--
}
