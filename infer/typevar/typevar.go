// Package typevar stores general type inference variables: their values,
// whether they diverge, and the directed relations recorded between
// variables that are not known yet
package typevar

import (
	"fmt"
	"slices"

	"github.com/cottand/tyinfer/infer/unify"
	"github.com/cottand/tyinfer/internal/log"
	"github.com/cottand/tyinfer/ty"
	"github.com/pkg/errors"
)

var logger = log.DefaultLogger.With("section", "typevar")

type RelationDir uint8

const (
	SubtypeOf RelationDir = iota
	SupertypeOf
	EqTo
	BiTo
)

func (d RelationDir) String() string {
	switch d {
	case SubtypeOf:
		return "<:"
	case SupertypeOf:
		return ":>"
	case EqTo:
		return "=="
	}
	return "<>"
}

// Opposite is the direction of the relation seen from the other side
func (d RelationDir) Opposite() RelationDir {
	switch d {
	case SubtypeOf:
		return SupertypeOf
	case SupertypeOf:
		return SubtypeOf
	}
	return d
}

// Relation records that a variable is Dir-related to Vid
type Relation struct {
	Dir RelationDir
	Vid ty.TyVid
}

// Pending is a relation `A Dir B` that still needs to be enforced, produced
// when a variable with recorded relations becomes known
type Pending struct {
	A   ty.Ty
	Dir RelationDir
	B   ty.TyVid
}

type varData struct {
	diverging bool
	// relations are only kept on the root of each class
	relations []Relation
}

type Table struct {
	eq   *unify.Table[ty.TyVid, ty.Ty]
	data unify.SnapshotVec[varData]
}

type Snapshot struct {
	eq, data unify.Snapshot
}

func New() *Table {
	return &Table{eq: unify.NewTable[ty.TyVid](alreadyKnown)}
}

// the combiner relates known types structurally, so a class only ever gets a value once
func alreadyKnown(a, b ty.Ty) (ty.Ty, error) {
	return a, errors.Errorf("typevar: class already known as %s, cannot also be %s", a, b)
}

func (t *Table) NewVar(diverging bool) ty.TyVid {
	vid := t.eq.NewKey(nil, false)
	t.data.Push(varData{diverging: diverging})
	logger.Debug("new type variable", "vid", vid.String(), "diverging", diverging)
	return vid
}

func (t *Table) NumVars() int { return t.data.Len() }

func (t *Table) VarDiverges(vid ty.TyVid) bool { return t.data.Get(int(vid)).diverging }

func (t *Table) Root(vid ty.TyVid) ty.TyVid { return t.eq.Find(vid) }

// Probe returns the type vid is known to be. The result may itself mention
// other variables
func (t *Table) Probe(vid ty.TyVid) (ty.Ty, bool) { return t.eq.Probe(vid) }

// ReplaceIfPossible unwraps one layer: a known variable becomes its value
func (t *Table) ReplaceIfPossible(typ ty.Ty) ty.Ty {
	v, ok := typ.(ty.TyVar)
	if !ok {
		return typ
	}
	if known, ok := t.Probe(v.Vid); ok {
		return known
	}
	return typ
}

// Relations returns the relations recorded on vid's class
func (t *Table) Relations(vid ty.TyVid) []Relation {
	return t.data.Get(int(t.Root(vid))).relations
}

// RelateVars records `a dir b` between two unknown variables. EqTo merges
// the two classes, any other direction is recorded on both sides
func (t *Table) RelateVars(a ty.TyVid, dir RelationDir, b ty.TyVid) {
	rootA, rootB := t.Root(a), t.Root(b)
	if rootA == rootB {
		return
	}
	logger.Debug("relate vars", "a", a.String(), "dir", dir.String(), "b", b.String())
	if dir == EqTo {
		relations := slices.Concat(t.data.Get(int(rootA)).relations, t.data.Get(int(rootB)).relations)
		root, err := t.eq.Union(rootA, rootB)
		if err != nil {
			panic(fmt.Sprintf("typevar: equating unknown variables %s and %s: %v", a, b, err))
		}
		child := rootA
		if root == rootA {
			child = rootB
		}
		t.setRelations(child, nil)
		t.setRelations(root, relations)
		return
	}
	t.addRelation(rootA, Relation{Dir: dir, Vid: b})
	t.addRelation(rootB, Relation{Dir: dir.Opposite(), Vid: a})
}

func (t *Table) addRelation(root ty.TyVid, rel Relation) {
	t.data.Update(int(root), func(d varData) varData {
		d.relations = append(slices.Clip(d.relations), rel)
		return d
	})
}

func (t *Table) setRelations(root ty.TyVid, rels []Relation) {
	t.data.Update(int(root), func(d varData) varData {
		d.relations = rels
		return d
	})
}

// Instantiate makes vid's class known as typ and returns the relations it
// had, which the caller must now enforce against typ
func (t *Table) Instantiate(vid ty.TyVid, typ ty.Ty) []Pending {
	root := t.Root(vid)
	if known, ok := t.Probe(root); ok {
		panic(fmt.Sprintf("typevar: instantiating %s with %s but it is already %s", vid, typ, known))
	}
	relations := t.data.Get(int(root)).relations
	t.setRelations(root, nil)
	if err := t.eq.UnifyVarValue(root, typ); err != nil {
		panic(err)
	}
	logger.Debug("instantiate", "vid", vid.String(), "ty", typ, "pending", len(relations))
	pending := make([]Pending, len(relations))
	for i, rel := range relations {
		pending[i] = Pending{A: typ, Dir: rel.Dir, B: rel.Vid}
	}
	return pending
}

func (t *Table) Snapshot() Snapshot {
	return Snapshot{eq: t.eq.Snapshot(), data: t.data.StartSnapshot()}
}

func (t *Table) RollbackTo(s Snapshot) {
	t.data.RollbackTo(s.data)
	t.eq.RollbackTo(s.eq)
}

func (t *Table) Commit(s Snapshot) {
	t.data.Commit(s.data)
	t.eq.Commit(s.eq)
}

// TypesEscapingSnapshot returns the values given since s to variables which
// existed before s was taken. Regions in these types outlive the snapshot
func (t *Table) TypesEscapingSnapshot(s Snapshot) []ty.Ty {
	threshold := uint32(t.NumVars())
	seen := map[ty.TyVid]bool{}
	var escaping []ty.Ty
	for _, action := range t.eq.ActionsSince(s.eq) {
		switch action.Kind {
		case unify.NewElem:
			threshold = min(threshold, action.Key)
		case unify.SetElem:
			vid := ty.TyVid(action.Key)
			if action.Key >= threshold || seen[vid] {
				continue
			}
			seen[vid] = true
			if known, ok := t.Probe(vid); ok {
				escaping = append(escaping, known)
			}
		}
	}
	return escaping
}
