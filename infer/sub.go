package infer

import (
	"github.com/cottand/tyinfer/infer/typevar"
	"github.com/cottand/tyinfer/ty"
)

// Sub requires the left side to be a subtype of the right side
type Sub struct{ combineFields }

func (r *Sub) Tag() string { return "Sub" }

func (r *Sub) forVariance(v ty.Variance) (Relation, bool) {
	switch v {
	case ty.Invariant:
		return r.equate(), false
	case ty.Contravariant:
		return r.switchExpected().sub(), true
	case ty.Bivariant:
		return r.bivariate(), false
	}
	return r, false
}

func (r *Sub) Tys(a, b ty.Ty) (ty.Ty, error) {
	logger.Debug("sub tys", "a", a, "b", b)
	if a == b {
		return a, nil
	}
	types := r.infcx.types
	a = types.ReplaceIfPossible(a)
	b = types.ReplaceIfPossible(b)
	if a == b {
		return a, nil
	}

	aVar, aIsVar := a.(ty.TyVar)
	bVar, bIsVar := b.(ty.TyVar)
	switch {
	case aIsVar && bIsVar:
		types.RelateVars(aVar.Vid, typevar.SubtypeOf, bVar.Vid)
		return a, nil
	case aIsVar:
		if err := r.switchExpected().instantiate(b, typevar.SupertypeOf, aVar.Vid); err != nil {
			return nil, err
		}
		return a, nil
	case bIsVar:
		if err := r.instantiate(a, typevar.SubtypeOf, bVar.Vid); err != nil {
			return nil, err
		}
		return a, nil
	case ty.IsError(a) || ty.IsError(b):
		return ty.Err, nil
	}
	if _, err := superCombineTys(r.infcx, r, a, b); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Sub) Regions(a, b ty.Region) (ty.Region, error) {
	r.infcx.regions.MakeSubregion(r.regionOrigin(), a, b)
	return a, nil
}

func (r *Sub) polyFnSigs(a, b ty.PolyFnSig) (ty.PolyFnSig, error) {
	return higherRankedSub(r.combineFields, a, b, relateFnSigs)
}

func (r *Sub) polyTraitRefs(a, b ty.PolyTraitRef) (ty.PolyTraitRef, error) {
	return higherRankedSub(r.combineFields, a, b, relateTraitRefs)
}
