package infer

import (
	"github.com/cottand/tyinfer/infer/typevar"
	"github.com/cottand/tyinfer/ty"
)

// Equate requires both sides to be the same
type Equate struct{ combineFields }

func (r *Equate) Tag() string { return "Equate" }

func (r *Equate) forVariance(ty.Variance) (Relation, bool) { return r, false }

func (r *Equate) Tys(a, b ty.Ty) (ty.Ty, error) {
	logger.Debug("equate tys", "a", a, "b", b)
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
		types.RelateVars(aVar.Vid, typevar.EqTo, bVar.Vid)
	case aIsVar:
		if err := r.instantiate(b, typevar.EqTo, aVar.Vid); err != nil {
			return nil, err
		}
	case bIsVar:
		if err := r.instantiate(a, typevar.EqTo, bVar.Vid); err != nil {
			return nil, err
		}
	default:
		if _, err := superCombineTys(r.infcx, r, a, b); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (r *Equate) Regions(a, b ty.Region) (ty.Region, error) {
	r.infcx.regions.MakeEqRegion(r.regionOrigin(), a, b)
	return a, nil
}

func (r *Equate) polyFnSigs(a, b ty.PolyFnSig) (ty.PolyFnSig, error) {
	return equateBinders(r, a, b, relateFnSigs)
}

func (r *Equate) polyTraitRefs(a, b ty.PolyTraitRef) (ty.PolyTraitRef, error) {
	return equateBinders(r, a, b, relateTraitRefs)
}

// equateBinders requires each binder to be a subtype of the other
func equateBinders[T any](r *Equate, a, b ty.Binder[T], relate func(Relation, T, T) (T, error)) (ty.Binder[T], error) {
	if _, err := higherRankedSub(r.combineFields, a, b, relate); err != nil {
		return ty.Binder[T]{}, err
	}
	return higherRankedSub(r.combineFields, b, a, relate)
}
