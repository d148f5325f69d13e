package infer

import (
	"github.com/cottand/tyinfer/infer/origin"
	"github.com/cottand/tyinfer/infer/typevar"
	"github.com/cottand/tyinfer/infer/unify"
	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
	"github.com/cottand/tyinfer/tyerr"
	"github.com/cottand/tyinfer/util"
	"github.com/pkg/errors"
)

// Relation is one way of relating two values: Equate, Sub, Lub, Glb or
// Bivariate. Relating returns a value related to both inputs, like their
// least upper bound for Lub. Failures are tyerr.TypeError values
type Relation interface {
	// Tag names the relation in logs
	Tag() string
	// AIsExpected tells whether the left operand is the expected one in
	// errors. It never changes the direction of the relation
	AIsExpected() bool
	Tys(a, b ty.Ty) (ty.Ty, error)
	Regions(a, b ty.Region) (ty.Region, error)

	// forVariance returns the relation to use on a component with variance v.
	// If swap is set, the operands must be passed in reverse order
	forVariance(v ty.Variance) (rel Relation, swap bool)
	polyFnSigs(a, b ty.PolyFnSig) (ty.PolyFnSig, error)
	polyTraitRefs(a, b ty.PolyTraitRef) (ty.PolyTraitRef, error)
	fields() combineFields
}

var (
	_ Relation = (*Equate)(nil)
	_ Relation = (*Sub)(nil)
	_ Relation = (*Lub)(nil)
	_ Relation = (*Glb)(nil)
	_ Relation = (*Bivariate)(nil)
)

// combineFields is what every relation of one request shares
type combineFields struct {
	infcx       *InferCtxt
	aIsExpected bool
	trace       origin.TypeTrace
}

func (f combineFields) AIsExpected() bool      { return f.aIsExpected }
func (f combineFields) fields() combineFields  { return f }
func (f combineFields) equate() *Equate        { return &Equate{f} }
func (f combineFields) sub() *Sub              { return &Sub{f} }
func (f combineFields) lub() *Lub              { return &Lub{f} }
func (f combineFields) glb() *Glb              { return &Glb{f} }
func (f combineFields) bivariate() *Bivariate  { return &Bivariate{f} }
func (f combineFields) span() source.Span      { return f.trace.Span() }
func (f combineFields) regionOrigin() origin.SubregionOrigin {
	return origin.SubtypeOrigin(f.trace)
}

func (f combineFields) switchExpected() combineFields {
	f.aIsExpected = !f.aIsExpected
	return f
}

// instantiate enforces `aTy dir bVid`. If bVid is still unknown it becomes a
// generalized copy of aTy, and the relations recorded on it are then
// enforced against that copy
func (f combineFields) instantiate(aTy ty.Ty, dir typevar.RelationDir, bVid ty.TyVid) error {
	types := f.infcx.types
	stack := &util.Stack[typevar.Pending]{}
	stack.Push(typevar.Pending{A: aTy, Dir: dir, B: bVid})
	for {
		p, ok := stack.Pop()
		if !ok {
			return nil
		}

		bTy, known := types.Probe(p.B)
		if !known {
			generalized, err := f.generalize(p.A, p.B, p.Dir != typevar.EqTo)
			if err != nil {
				return err
			}
			logger.Debug("instantiate", "a", p.A, "dir", p.Dir.String(), "b", p.B.String(), "generalized", generalized)
			stack.Push(types.Instantiate(p.B, generalized)...)
			bTy = generalized
		}

		var err error
		switch p.Dir {
		case typevar.BiTo:
			_, err = f.bivariate().Tys(p.A, bTy)
		case typevar.EqTo:
			_, err = f.equate().Tys(p.A, bTy)
		case typevar.SubtypeOf:
			_, err = f.sub().Tys(p.A, bTy)
		case typevar.SupertypeOf:
			_, err = relateTysWithVariance(f.sub(), ty.Contravariant, p.A, bTy)
		}
		if err != nil {
			return err
		}
	}
}

// generalize copies t for use as the value of forVid. Known variables are
// replaced by their values, and unless equating, regions are replaced by
// fresh variables so that the copy is only related to t through constraints.
// If t mentions forVid, the result would be infinite
func (f combineFields) generalize(t ty.Ty, forVid ty.TyVid, makeRegionVars bool) (ty.Ty, error) {
	g := &generalizer{
		infcx:          f.infcx,
		span:           f.span(),
		forRoot:        f.infcx.types.Root(forVid),
		makeRegionVars: makeRegionVars,
	}
	u := g.FoldTy(t)
	if g.cycleDetected {
		return nil, tyerr.CyclicTy{}
	}
	return u, nil
}

type generalizer struct {
	ty.BinderDepth
	infcx          *InferCtxt
	span           source.Span
	forRoot        ty.TyVid
	makeRegionVars bool
	cycleDetected  bool
}

func (g *generalizer) FoldTy(t ty.Ty) ty.Ty {
	if v, ok := t.(ty.TyVar); ok {
		if g.infcx.types.Root(v.Vid) == g.forRoot {
			g.cycleDetected = true
			return ty.Err
		}
		if known, ok := g.infcx.types.Probe(v.Vid); ok {
			return g.FoldTy(known)
		}
		return t
	}
	return ty.SuperFold(g, t)
}

func (g *generalizer) FoldRegion(r ty.Region) ty.Region {
	switch r.(type) {
	case ty.ReLateBound:
		// bound within the type itself
		return r
	case ty.ReEarlyBound:
		panic("infer: early-bound region " + r.String() + " was not substituted before relating")
	case ty.ReSkolemized:
		// higher-ranked checks rely on placeholders always getting a variable
	default:
		if !g.makeRegionVars {
			return r
		}
	}
	return g.infcx.NextRegionVar(origin.NewRegionVariableOrigin(origin.MiscVariable, g.span))
}

// superCombineTys relates numeric variables, and then everything which is
// not a type variable structurally
func superCombineTys(c *InferCtxt, r Relation, a, b ty.Ty) (ty.Ty, error) {
	aIsExpected := r.AIsExpected()
	if ty.IsError(a) || ty.IsError(b) {
		return ty.Err, nil
	}

	switch a := a.(type) {
	case ty.IntVar:
		switch b := b.(type) {
		case ty.IntVar:
			if _, err := c.ints.Union(a.Vid, b.Vid); err != nil {
				return nil, numericMismatch(aIsExpected, err, mkIntMismatch)
			}
			return a, nil
		case ty.Prim:
			if b.Kind.IsIntegral() {
				return unifyIntegralVariable(c, aIsExpected, a.Vid, ty.IntVarValue(b.Kind))
			}
		}
	case ty.FloatVar:
		switch b := b.(type) {
		case ty.FloatVar:
			if _, err := c.floats.Union(a.Vid, b.Vid); err != nil {
				return nil, numericMismatch(aIsExpected, err, mkFloatMismatch)
			}
			return a, nil
		case ty.Prim:
			if b.Kind.IsFloat() {
				return unifyFloatVariable(c, aIsExpected, a.Vid, ty.FloatVarValue(b.Kind))
			}
		}
	case ty.Prim:
		switch b := b.(type) {
		case ty.IntVar:
			if a.Kind.IsIntegral() {
				return unifyIntegralVariable(c, !aIsExpected, b.Vid, ty.IntVarValue(a.Kind))
			}
		case ty.FloatVar:
			if a.Kind.IsFloat() {
				return unifyFloatVariable(c, !aIsExpected, b.Vid, ty.FloatVarValue(a.Kind))
			}
		}
	}

	if ty.IsInfer(a) || ty.IsInfer(b) {
		return nil, tyerr.Sorts{ExpectedFound: expectedFound(r, a, b)}
	}
	return superRelateTys(r, a, b)
}

func unifyIntegralVariable(c *InferCtxt, vidIsExpected bool, vid ty.IntVid, val ty.IntVarValue) (ty.Ty, error) {
	if err := c.ints.UnifyVarValue(vid, val); err != nil {
		return nil, numericMismatch(vidIsExpected, err, mkIntMismatch)
	}
	return val.ToType(), nil
}

func unifyFloatVariable(c *InferCtxt, vidIsExpected bool, vid ty.FloatVid, val ty.FloatVarValue) (ty.Ty, error) {
	if err := c.floats.UnifyVarValue(vid, val); err != nil {
		return nil, numericMismatch(vidIsExpected, err, mkFloatMismatch)
	}
	return val.ToType(), nil
}

func mkIntMismatch(ef ty.ExpectedFound[ty.IntVarValue]) tyerr.TypeError {
	return tyerr.IntMismatch{ExpectedFound: ef}
}

func mkFloatMismatch(ef ty.ExpectedFound[ty.FloatVarValue]) tyerr.TypeError {
	return tyerr.FloatMismatch{ExpectedFound: ef}
}

// numericMismatch turns the conflict reported by a numeric table into a
// TypeError. The conflicting values are ordered as the first operand's
// value, then the second's
func numericMismatch[V any](aIsExpected bool, err error, mk func(ty.ExpectedFound[V]) tyerr.TypeError) error {
	var conflict *unify.ConflictError[V]
	if !errors.As(err, &conflict) {
		return err
	}
	return mk(ty.NewExpectedFound(aIsExpected, conflict.A, conflict.B))
}

func expectedFound[T any](r Relation, a, b T) ty.ExpectedFound[T] {
	return ty.NewExpectedFound(r.AIsExpected(), a, b)
}
