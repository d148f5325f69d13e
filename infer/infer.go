// Package infer relates types and regions while they are being inferred.
//
// An InferCtxt owns the variable tables of one checking session. Callers
// relate values through entry points like SubTypes and EqTypes, which run
// inside transactions so that a failed attempt leaves no trace. Region
// constraints are only recorded while relating, and solved once at the end
// by ResolveRegionsAndReportErrors.
package infer

import (
	"fmt"

	"github.com/cottand/tyinfer/infer/origin"
	"github.com/cottand/tyinfer/infer/region"
	"github.com/cottand/tyinfer/infer/typevar"
	"github.com/cottand/tyinfer/infer/unify"
	"github.com/cottand/tyinfer/internal/log"
	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
	"github.com/cottand/tyinfer/tyerr"
)

var logger = log.DefaultLogger.With("section", "infer")

// InferCtxt holds the type, integer, float and region variables of one
// checking session. It is not safe for concurrent use
type InferCtxt struct {
	db      ty.Database
	types   *typevar.Table
	ints    *unify.Table[ty.IntVid, ty.IntVarValue]
	floats  *unify.Table[ty.FloatVid, ty.FloatVarValue]
	regions *region.Bindings

	// depth is the number of open snapshots
	depth int
	errs  *tyerr.Errors
}

func New(db ty.Database) *InferCtxt {
	return &InferCtxt{
		db:      db,
		types:   typevar.New(),
		ints:    unify.NewTable[ty.IntVid](unify.MergeEqual[ty.IntVarValue]),
		floats:  unify.NewTable[ty.FloatVid](unify.MergeEqual[ty.FloatVarValue]),
		regions: region.NewBindings(db),
	}
}

func (c *InferCtxt) Database() ty.Database { return c.db }

// Errors returns the diagnostics reported so far
func (c *InferCtxt) Errors() *tyerr.Errors { return c.errs }

// RelateError is a failed relation, together with the trace of the request
// that caused it
type RelateError struct {
	Trace origin.TypeTrace
	Err   tyerr.TypeError
}

func (e *RelateError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Trace.Origin, e.Trace.Values, e.Err)
}

func (e *RelateError) Unwrap() error { return e.Err }

func (c *InferCtxt) NextTyVarID(diverging bool) ty.TyVid { return c.types.NewVar(diverging) }

func (c *InferCtxt) NextTyVar() ty.Ty { return ty.TyVar{Vid: c.NextTyVarID(false)} }

func (c *InferCtxt) NextDivergingTyVar() ty.Ty { return ty.TyVar{Vid: c.NextTyVarID(true)} }

func (c *InferCtxt) NextTyVars(n int) []ty.Ty {
	vars := make([]ty.Ty, n)
	for i := range vars {
		vars[i] = c.NextTyVar()
	}
	return vars
}

func (c *InferCtxt) NextIntVarID() ty.IntVid { return c.ints.NewKey(0, false) }

func (c *InferCtxt) NextIntVar() ty.Ty { return ty.IntVar{Vid: c.NextIntVarID()} }

func (c *InferCtxt) NextFloatVarID() ty.FloatVid { return c.floats.NewKey(0, false) }

func (c *InferCtxt) NextFloatVar() ty.Ty { return ty.FloatVar{Vid: c.NextFloatVarID()} }

func (c *InferCtxt) NextRegionVar(o origin.RegionVariableOrigin) ty.Region {
	return ty.ReVar{Vid: c.regions.NewRegionVar(o)}
}

// RegionVarsForDefs creates one region variable per region parameter
func (c *InferCtxt) RegionVarsForDefs(span source.Span, defs []ty.RegionParamDef) []ty.Region {
	regions := make([]ty.Region, len(defs))
	for i, d := range defs {
		regions[i] = c.NextRegionVar(origin.EarlyBoundRegionOrigin(span, d.Name))
	}
	return regions
}

// FreshSubstsForGenerics maps each parameter of generics to a fresh variable
func (c *InferCtxt) FreshSubstsForGenerics(span source.Span, generics ty.Generics) *ty.Substs {
	return ty.NewSubsts(c.NextTyVars(len(generics.Types)), c.RegionVarsForDefs(span, generics.Regions))
}

// FreshSubstsForTrait is like FreshSubstsForGenerics for the generics of a
// trait, whose first type parameter is Self and gets selfTy instead
func (c *InferCtxt) FreshSubstsForTrait(span source.Span, generics ty.Generics, selfTy ty.Ty) *ty.Substs {
	if len(generics.Types) == 0 {
		panic("infer: trait generics must declare Self")
	}
	types := append([]ty.Ty{selfTy}, c.NextTyVars(len(generics.Types)-1)...)
	return ty.NewSubsts(types, c.RegionVarsForDefs(span, generics.Regions))
}

func (c *InferCtxt) FreshBoundRegion(debruijn ty.DebruijnIndex) ty.Region {
	return c.regions.NewBound(debruijn)
}

func (c *InferCtxt) TypeVarDiverges(t ty.Ty) bool {
	if v, ok := t.(ty.TyVar); ok {
		return c.types.VarDiverges(v.Vid)
	}
	return false
}

type UnconstrainedNumeric uint8

const (
	Neither UnconstrainedNumeric = iota
	UnconstrainedInt
	UnconstrainedFloat
)

// TypeIsUnconstrainedNumeric tells whether t is a numeric variable which
// still needs a default
func (c *InferCtxt) TypeIsUnconstrainedNumeric(t ty.Ty) UnconstrainedNumeric {
	switch t := t.(type) {
	case ty.IntVar:
		if !c.ints.HasValue(t.Vid) {
			return UnconstrainedInt
		}
	case ty.FloatVar:
		if !c.floats.HasValue(t.Vid) {
			return UnconstrainedFloat
		}
	}
	return Neither
}

func (c *InferCtxt) AddGiven(sub ty.FreeRegion, sup ty.RegionVid) {
	c.regions.AddGiven(sub, sup)
}

func (c *InferCtxt) VerifyGenericBound(o origin.SubregionOrigin, kind region.GenericKind, a ty.Region, bounds []ty.Region) {
	logger.Debug("verify generic bound", "kind", kind.String(), "region", a, "bounds", len(bounds))
	c.regions.VerifyGenericBound(o, kind, a, bounds)
}

func (c *InferCtxt) fields(aIsExpected bool, trace origin.TypeTrace) combineFields {
	return combineFields{infcx: c, aIsExpected: aIsExpected, trace: trace}
}

func (c *InferCtxt) Equate(aIsExpected bool, trace origin.TypeTrace) *Equate {
	return c.fields(aIsExpected, trace).equate()
}

func (c *InferCtxt) Sub(aIsExpected bool, trace origin.TypeTrace) *Sub {
	return c.fields(aIsExpected, trace).sub()
}

func (c *InferCtxt) Lub(aIsExpected bool, trace origin.TypeTrace) *Lub {
	return c.fields(aIsExpected, trace).lub()
}

func (c *InferCtxt) Glb(aIsExpected bool, trace origin.TypeTrace) *Glb {
	return c.fields(aIsExpected, trace).glb()
}

// relateError attaches trace to a failed relation
func relateError(trace origin.TypeTrace, err error) error {
	if err == nil {
		return nil
	}
	if typeErr, ok := err.(tyerr.TypeError); ok {
		return &RelateError{Trace: trace, Err: typeErr}
	}
	return err
}

// SubTypes requires a to be a subtype of b
func (c *InferCtxt) SubTypes(aIsExpected bool, o origin.TypeOrigin, a, b ty.Ty) error {
	logger.Debug("sub types", "a", a, "b", b)
	trace := origin.TypesTrace(o, aIsExpected, a, b)
	return c.commitIfOK(func(CombinedSnapshot) error {
		_, err := c.Sub(aIsExpected, trace).Tys(a, b)
		return relateError(trace, err)
	})
}

// EqTypes requires a and b to be the same type
func (c *InferCtxt) EqTypes(aIsExpected bool, o origin.TypeOrigin, a, b ty.Ty) error {
	logger.Debug("eq types", "a", a, "b", b)
	trace := origin.TypesTrace(o, aIsExpected, a, b)
	return c.commitIfOK(func(CombinedSnapshot) error {
		_, err := c.Equate(aIsExpected, trace).Tys(a, b)
		return relateError(trace, err)
	})
}

func (c *InferCtxt) SubTraitRefs(aIsExpected bool, o origin.TypeOrigin, a, b ty.TraitRef) error {
	logger.Debug("sub trait refs", "a", a.String(), "b", b.String())
	trace := origin.TraitRefsTrace(o, aIsExpected, a, b)
	return c.commitIfOK(func(CombinedSnapshot) error {
		_, err := relateTraitRefs(c.Sub(aIsExpected, trace), a, b)
		return relateError(trace, err)
	})
}

func (c *InferCtxt) SubPolyTraitRefs(aIsExpected bool, o origin.TypeOrigin, a, b ty.PolyTraitRef) error {
	logger.Debug("sub poly trait refs", "a", a.Value.String(), "b", b.Value.String())
	trace := origin.PolyTraitRefsTrace(o, aIsExpected, a, b)
	return c.commitIfOK(func(CombinedSnapshot) error {
		_, err := c.Sub(aIsExpected, trace).polyTraitRefs(a, b)
		return relateError(trace, err)
	})
}

// CommonSupertype computes the least upper bound of a and b. If there is
// none, the mismatch is reported and the error type is returned
func (c *InferCtxt) CommonSupertype(o origin.TypeOrigin, aIsExpected bool, a, b ty.Ty) ty.Ty {
	logger.Debug("common supertype", "a", a, "b", b)
	trace := origin.TypesTrace(o, aIsExpected, a, b)
	result, err := CommitIfOK(c, func(CombinedSnapshot) (ty.Ty, error) {
		return c.Lub(aIsExpected, trace).Tys(a, b)
	})
	if err != nil {
		c.ReportAndExplainTypeError(trace, err)
		return ty.Err
	}
	return result
}

// EqualityPredicate checks a `where A == B` predicate, whose late-bound
// regions must hold for every instantiation
func (c *InferCtxt) EqualityPredicate(span source.Span, predicate ty.PolyEquatePredicate) error {
	return c.commitIfOK(func(s CombinedSnapshot) error {
		p, skol := SkolemizeLateBoundRegions(c, predicate, s)
		if err := MkEqty(c, false, origin.NewTypeOrigin(origin.EquatePredicate, span), p.A, p.B); err != nil {
			return err
		}
		return c.LeakCheck(skol, s)
	})
}

// RegionOutlivesPredicate checks a `where 'a: 'b` predicate
func (c *InferCtxt) RegionOutlivesPredicate(span source.Span, predicate ty.PolyOutlivesPredicate) error {
	return c.commitIfOK(func(s CombinedSnapshot) error {
		p, skol := SkolemizeLateBoundRegions(c, predicate, s)
		// 'a: 'b means 'b <= 'a
		MkSubr(c, origin.NewSubregionOrigin(origin.RelateRegionParamBound, span), p.B, p.A)
		return c.LeakCheck(skol, s)
	})
}

// CanEquate reports whether a and b could be made equal, without changing anything
func (c *InferCtxt) CanEquate(a, b ty.Ty) error {
	return Probe(c, func(CombinedSnapshot) error {
		trace := origin.DummyTrace()
		_, err := c.Equate(true, trace).Tys(a, b)
		return err
	})
}

// CanSubTypes reports whether a could be made a subtype of b, without changing anything
func (c *InferCtxt) CanSubTypes(a, b ty.Ty) error {
	return Probe(c, func(CombinedSnapshot) error {
		trace := origin.TypesTrace(origin.MiscOrigin(source.DummySpan), true, a, b)
		_, err := c.Sub(true, trace).Tys(a, b)
		return err
	})
}

func MkSubty(c *InferCtxt, aIsExpected bool, o origin.TypeOrigin, a, b ty.Ty) error {
	return c.SubTypes(aIsExpected, o, a, b)
}

func MkEqty(c *InferCtxt, aIsExpected bool, o origin.TypeOrigin, a, b ty.Ty) error {
	return c.commitIfOK(func(CombinedSnapshot) error {
		return c.EqTypes(aIsExpected, o, a, b)
	})
}

func MkSubPolyTraitRefs(c *InferCtxt, aIsExpected bool, o origin.TypeOrigin, a, b ty.PolyTraitRef) error {
	return c.commitIfOK(func(CombinedSnapshot) error {
		return c.SubPolyTraitRefs(aIsExpected, o, a, b)
	})
}

// MkSubr records that region a must be within region b
func MkSubr(c *InferCtxt, o origin.SubregionOrigin, a, b ty.Region) {
	logger.Debug("mk subr", "a", a, "b", b)
	s := c.regions.StartSnapshot()
	c.regions.MakeSubregion(o, a, b)
	c.regions.Commit(s)
}

// ResolveRegionsAndReportErrors solves all the region constraints recorded
// so far. It must be called once, after all relating is done
func (c *InferCtxt) ResolveRegionsAndReportErrors(free region.FreeRegionMap, subject source.NodeID) {
	if c.depth > 0 {
		panic("infer: regions resolved inside a snapshot")
	}
	errs := c.regions.ResolveRegions(free, subject)
	c.ReportRegionErrors(errs)
}

// TyToString prints t with every known variable replaced by its value
func (c *InferCtxt) TyToString(t ty.Ty) string {
	return ResolveTypeVarsIfPossible(c, t).String()
}

func (c *InferCtxt) TraitRefToString(t ty.TraitRef) string {
	return ResolveTypeVarsIfPossible(c, t).String()
}
