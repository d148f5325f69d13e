package infer

import (
	"fmt"

	"github.com/cottand/tyinfer/infer/region"
	"github.com/cottand/tyinfer/infer/typevar"
	"github.com/cottand/tyinfer/infer/unify"
)

// CombinedSnapshot is a checkpoint of every table of an InferCtxt. It must
// be consumed exactly once, after every snapshot taken after it
type CombinedSnapshot struct {
	types   typevar.Snapshot
	ints    unify.Snapshot
	floats  unify.Snapshot
	regions region.Snapshot
	depth   int
}

// SnapshotDepth is the number of snapshots currently open
func (c *InferCtxt) SnapshotDepth() int { return c.depth }

func (c *InferCtxt) startSnapshot() CombinedSnapshot {
	c.depth++
	return CombinedSnapshot{
		types:   c.types.Snapshot(),
		ints:    c.ints.Snapshot(),
		floats:  c.floats.Snapshot(),
		regions: c.regions.StartSnapshot(),
		depth:   c.depth,
	}
}

func (c *InferCtxt) consume(s CombinedSnapshot) {
	if s.depth != c.depth {
		panic(fmt.Sprintf("infer: snapshot at depth %d consumed at depth %d", s.depth, c.depth))
	}
	c.depth--
}

func (c *InferCtxt) rollbackTo(s CombinedSnapshot) {
	logger.Debug("rollback", "depth", s.depth)
	c.consume(s)
	c.types.RollbackTo(s.types)
	c.ints.RollbackTo(s.ints)
	c.floats.RollbackTo(s.floats)
	c.regions.RollbackTo(s.regions)
}

func (c *InferCtxt) commitFrom(s CombinedSnapshot) {
	logger.Debug("commit", "depth", s.depth)
	c.consume(s)
	c.types.Commit(s.types)
	c.ints.Commit(s.ints)
	c.floats.Commit(s.floats)
	c.regions.Commit(s.regions)
}

// CommitUnconditionally runs f and keeps everything it did
func CommitUnconditionally[T any](c *InferCtxt, f func() T) T {
	s := c.startSnapshot()
	r := f()
	c.commitFrom(s)
	return r
}

// CommitIfOK runs f and keeps what it did only if it succeeds
func CommitIfOK[T any](c *InferCtxt, f func(s CombinedSnapshot) (T, error)) (T, error) {
	s := c.startSnapshot()
	r, err := f(s)
	logger.Debug("commit if ok", "ok", err == nil)
	if err != nil {
		c.rollbackTo(s)
	} else {
		c.commitFrom(s)
	}
	return r, err
}

func (c *InferCtxt) commitIfOK(f func(s CombinedSnapshot) error) error {
	_, err := CommitIfOK(c, func(s CombinedSnapshot) (struct{}, error) {
		return struct{}{}, f(s)
	})
	return err
}

// Probe runs f and then undoes everything it did
func Probe[T any](c *InferCtxt, f func(s CombinedSnapshot) T) T {
	s := c.startSnapshot()
	r := f(s)
	c.rollbackTo(s)
	return r
}

// CommitRegionsIfOK runs f like CommitIfOK, but then undoes every change to
// type, integer and float variables. Only region constraints survive, so f
// must resolve whatever types it means to return itself
func CommitRegionsIfOK[T any](c *InferCtxt, f func() (T, error)) (T, error) {
	s := c.startSnapshot()
	r, err := CommitIfOK(c, func(CombinedSnapshot) (T, error) { return f() })

	c.consume(s)
	c.types.RollbackTo(s.types)
	c.ints.RollbackTo(s.ints)
	c.floats.RollbackTo(s.floats)
	c.regions.Commit(s.regions)
	return r, err
}
