// Package region records the constraints between regions found while
// relating types, and solves them once all are known
package region

import (
	"fmt"

	"github.com/cottand/tyinfer/infer/origin"
	"github.com/cottand/tyinfer/internal/log"
	"github.com/cottand/tyinfer/ty"
)

var logger = log.DefaultLogger.With("section", "region")

type ConstraintKind uint8

const (
	// VarSubVar is 'Sub <= 'Sup between two variables
	VarSubVar ConstraintKind = iota
	// RegSubVar is Region <= 'Sup
	RegSubVar
	// VarSubReg is 'Sub <= Region
	VarSubReg
)

// Constraint is a subregion relation involving at least one variable
type Constraint struct {
	Kind   ConstraintKind
	Sub    ty.RegionVid
	Sup    ty.RegionVid
	Region ty.Region
}

func (c Constraint) String() string {
	switch c.Kind {
	case RegSubVar:
		return fmt.Sprintf("%s <= %s", c.Region, c.Sup)
	case VarSubReg:
		return fmt.Sprintf("%s <= %s", c.Sub, c.Region)
	}
	return fmt.Sprintf("%s <= %s", c.Sub, c.Sup)
}

// GenericKind is the generic type a bound is verified for
type GenericKind struct {
	Param ty.Ty
}

func (k GenericKind) String() string { return k.Param.String() }

type verifyKind uint8

const (
	verifyRegSubReg verifyKind = iota
	verifyGenericBound
)

// verify is a condition between regions which are not variables, checked
// after variables are solved
type verify struct {
	kind   verifyKind
	origin origin.SubregionOrigin
	sub    ty.Region
	sup    ty.Region
	// for verifyGenericBound: sub must be within one of bounds
	generic GenericKind
	bounds  []ty.Region
}

type given struct {
	free ty.FreeRegion
	vid  ty.RegionVid
}

type combineMapKind uint8

const (
	lubMap combineMapKind = iota
	glbMap
)

type regionPair struct {
	a, b ty.Region
}

type undoKind uint8

const (
	openSnapshot undoKind = iota
	committedSnapshot
	addVar
	addConstraint
	addVerify
	addGiven
	addCombination
)

type undoEntry struct {
	kind       undoKind
	vid        ty.RegionVid
	constraint Constraint
	verify     int
	given      given
	combine    combineMapKind
	pair       regionPair
	snapshot   uint64
}

// Snapshot marks a point in the constraint log. Like every snapshot, it
// must be consumed exactly once in LIFO order
type Snapshot struct {
	length             int
	skolemizationCount uint32
	id                 uint64
}

// Bindings accumulates region variables and the constraints between them
type Bindings struct {
	db ty.Database

	varOrigins []origin.RegionVariableOrigin
	// constraints maps each constraint to the origin it was first recorded with.
	// constraintOrder keeps insertion order for deterministic solving
	constraints     map[Constraint]origin.SubregionOrigin
	constraintOrder []Constraint
	verifys         []verify
	givens          map[given]bool
	lubs, glbs      map[regionPair]ty.RegionVid

	skolemizationCount uint32
	boundCount         uint32

	undoLog        []undoEntry
	nextSnapshotID uint64

	values []varValue
}

func NewBindings(db ty.Database) *Bindings {
	return &Bindings{
		db:          db,
		constraints: map[Constraint]origin.SubregionOrigin{},
		givens:      map[given]bool{},
		lubs:        map[regionPair]ty.RegionVid{},
		glbs:        map[regionPair]ty.RegionVid{},
	}
}

func (b *Bindings) NumVars() int { return len(b.varOrigins) }

func (b *Bindings) VarOrigin(vid ty.RegionVid) origin.RegionVariableOrigin {
	return b.varOrigins[vid]
}

func (b *Bindings) InSnapshot() bool { return len(b.undoLog) > 0 }

func (b *Bindings) StartSnapshot() Snapshot {
	b.nextSnapshotID++
	s := Snapshot{length: len(b.undoLog), skolemizationCount: b.skolemizationCount, id: b.nextSnapshotID}
	b.undoLog = append(b.undoLog, undoEntry{kind: openSnapshot, snapshot: s.id})
	return s
}

// assertLive panics unless s is open, though maybe not innermost
func (b *Bindings) assertLive(s Snapshot) {
	if s.length >= len(b.undoLog) {
		panic(fmt.Sprintf("region: snapshot %d was already consumed", s.id))
	}
	entry := b.undoLog[s.length]
	if entry.kind != openSnapshot || entry.snapshot != s.id {
		panic(fmt.Sprintf("region: snapshot %d is not open", s.id))
	}
}

func (b *Bindings) assertOpen(s Snapshot) {
	b.assertLive(s)
	for _, later := range b.undoLog[s.length+1:] {
		if later.kind == openSnapshot {
			panic(fmt.Sprintf("region: snapshot %d consumed while snapshot %d is still open", s.id, later.snapshot))
		}
	}
}

func (b *Bindings) Commit(s Snapshot) {
	b.assertOpen(s)
	if s.length == 0 {
		b.undoLog = b.undoLog[:0]
	} else {
		b.undoLog[s.length] = undoEntry{kind: committedSnapshot, snapshot: s.id}
	}
	b.skolemizationCount = s.skolemizationCount
}

func (b *Bindings) RollbackTo(s Snapshot) {
	b.assertOpen(s)
	for len(b.undoLog) > s.length+1 {
		entry := b.undoLog[len(b.undoLog)-1]
		b.undoLog = b.undoLog[:len(b.undoLog)-1]
		b.rollbackEntry(entry)
	}
	b.undoLog = b.undoLog[:s.length]
	b.skolemizationCount = s.skolemizationCount
}

func (b *Bindings) rollbackEntry(entry undoEntry) {
	switch entry.kind {
	case committedSnapshot:
	case addVar:
		if int(entry.vid) != len(b.varOrigins)-1 {
			panic(fmt.Sprintf("region: undoing creation of %s out of order", entry.vid))
		}
		b.varOrigins = b.varOrigins[:entry.vid]
	case addConstraint:
		delete(b.constraints, entry.constraint)
		b.constraintOrder = b.constraintOrder[:len(b.constraintOrder)-1]
	case addVerify:
		b.verifys = b.verifys[:entry.verify]
	case addGiven:
		delete(b.givens, entry.given)
	case addCombination:
		if entry.combine == lubMap {
			delete(b.lubs, entry.pair)
		} else {
			delete(b.glbs, entry.pair)
		}
	default:
		panic("region: found an open snapshot while rolling back")
	}
}

func (b *Bindings) NewRegionVar(o origin.RegionVariableOrigin) ty.RegionVid {
	vid := ty.RegionVid(len(b.varOrigins))
	b.varOrigins = append(b.varOrigins, o)
	if b.InSnapshot() {
		b.undoLog = append(b.undoLog, undoEntry{kind: addVar, vid: vid})
	}
	logger.Debug("new region variable", "vid", vid.String(), "origin", o.String())
	return vid
}

// NewSkolemized creates a placeholder for br, unique within snapshot s.
// Placeholders never outlive the snapshot they were created in
func (b *Bindings) NewSkolemized(br ty.BoundRegion, s Snapshot) ty.Region {
	b.assertLive(s)
	sc := b.skolemizationCount
	b.skolemizationCount++
	return ty.ReSkolemized{Index: sc, BR: br}
}

// NewBound creates a late-bound region which is distinct from every other,
// for use in a binder at depth debruijn
func (b *Bindings) NewBound(debruijn ty.DebruijnIndex) ty.Region {
	sc := b.boundCount
	b.boundCount++
	if b.boundCount == 0 {
		panic("region: ran out of fresh bound regions")
	}
	return ty.ReLateBound{Debruijn: debruijn, BR: ty.BrFreshOf(sc)}
}

func (b *Bindings) addConstraint(c Constraint, o origin.SubregionOrigin) {
	if _, ok := b.constraints[c]; ok {
		return
	}
	logger.Debug("add constraint", "constraint", c.String(), "origin", o.String())
	b.constraints[c] = o
	b.constraintOrder = append(b.constraintOrder, c)
	if b.InSnapshot() {
		b.undoLog = append(b.undoLog, undoEntry{kind: addConstraint, constraint: c})
	}
}

func (b *Bindings) addVerify(v verify) {
	if v.kind == verifyRegSubReg && v.sub == v.sup {
		return
	}
	index := len(b.verifys)
	b.verifys = append(b.verifys, v)
	if b.InSnapshot() {
		b.undoLog = append(b.undoLog, undoEntry{kind: addVerify, verify: index})
	}
}

// AddGiven records that free is already known to be within vid
func (b *Bindings) AddGiven(free ty.FreeRegion, vid ty.RegionVid) {
	g := given{free: free, vid: vid}
	if b.givens[g] {
		return
	}
	b.givens[g] = true
	if b.InSnapshot() {
		b.undoLog = append(b.undoLog, undoEntry{kind: addGiven, given: g})
	}
}

// MakeSubregion records that sub must be within sup
func (b *Bindings) MakeSubregion(o origin.SubregionOrigin, sub, sup ty.Region) {
	if ty.IsBound(sub) || ty.IsBound(sup) {
		panic(fmt.Sprintf("region: cannot relate bound regions %s <= %s", sub, sup))
	}
	if sub == sup {
		return
	}
	if _, ok := sup.(ty.ReStatic); ok {
		return
	}
	subVar, subIsVar := sub.(ty.ReVar)
	supVar, supIsVar := sup.(ty.ReVar)
	switch {
	case subIsVar && supIsVar:
		b.addConstraint(Constraint{Kind: VarSubVar, Sub: subVar.Vid, Sup: supVar.Vid}, o)
	case supIsVar:
		b.addConstraint(Constraint{Kind: RegSubVar, Region: sub, Sup: supVar.Vid}, o)
	case subIsVar:
		b.addConstraint(Constraint{Kind: VarSubReg, Sub: subVar.Vid, Region: sup}, o)
	default:
		b.addVerify(verify{kind: verifyRegSubReg, origin: o, sub: sub, sup: sup})
	}
}

func (b *Bindings) MakeEqRegion(o origin.SubregionOrigin, a, r ty.Region) {
	if a == r {
		return
	}
	b.MakeSubregion(o, a, r)
	b.MakeSubregion(o, r, a)
}

// VerifyGenericBound records that sub must be within at least one of bounds,
// which are the declared bounds of kind
func (b *Bindings) VerifyGenericBound(o origin.SubregionOrigin, kind GenericKind, sub ty.Region, bounds []ty.Region) {
	b.addVerify(verify{kind: verifyGenericBound, origin: o, generic: kind, sub: sub, bounds: bounds})
}

// LubRegions returns a region which both a and r are within
func (b *Bindings) LubRegions(o origin.SubregionOrigin, a, r ty.Region) ty.Region {
	if _, ok := a.(ty.ReStatic); ok {
		return a
	}
	if _, ok := r.(ty.ReStatic); ok {
		return r
	}
	if a == r {
		return a
	}
	return b.combineVars(lubMap, a, r, o, func(old, new ty.Region) {
		b.MakeSubregion(o, old, new)
	})
}

// GlbRegions returns a region which is within both a and r
func (b *Bindings) GlbRegions(o origin.SubregionOrigin, a, r ty.Region) ty.Region {
	if _, ok := a.(ty.ReStatic); ok {
		return r
	}
	if _, ok := r.(ty.ReStatic); ok {
		return a
	}
	if a == r {
		return a
	}
	return b.combineVars(glbMap, a, r, o, func(old, new ty.Region) {
		b.MakeSubregion(o, new, old)
	})
}

// combineVars returns the variable standing for the lub or glb of a and r,
// creating and constraining it the first time the pair is seen
func (b *Bindings) combineVars(kind combineMapKind, a, r ty.Region, o origin.SubregionOrigin, relate func(old, new ty.Region)) ty.Region {
	vars := b.lubs
	if kind == glbMap {
		vars = b.glbs
	}
	pair := regionPair{a: a, b: r}
	if vid, ok := vars[pair]; ok {
		return ty.ReVar{Vid: vid}
	}
	vid := b.NewRegionVar(origin.NewRegionVariableOrigin(origin.MiscVariable, o.Span()))
	vars[pair] = vid
	if b.InSnapshot() {
		b.undoLog = append(b.undoLog, undoEntry{kind: addCombination, combine: kind, pair: pair})
	}
	c := ty.ReVar{Vid: vid}
	relate(a, c)
	relate(r, c)
	return c
}

// VarsCreatedSince lists the variables created after s was taken, in creation order
func (b *Bindings) VarsCreatedSince(s Snapshot) []ty.RegionVid {
	b.assertLive(s)
	var vids []ty.RegionVid
	for _, entry := range b.undoLog[s.length:] {
		if entry.kind == addVar {
			vids = append(vids, entry.vid)
		}
	}
	return SortedVids(vids)
}
