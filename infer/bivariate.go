package infer

import (
	"github.com/cottand/tyinfer/infer/typevar"
	"github.com/cottand/tyinfer/ty"
)

// Bivariate relates the arguments of bivariant parameters. These are unused
// by their item, so only the shape of the types is checked and regions are
// never constrained
type Bivariate struct{ combineFields }

func (r *Bivariate) Tag() string { return "Bivariate" }

func (r *Bivariate) forVariance(v ty.Variance) (Relation, bool) {
	if v == ty.Invariant {
		return r.equate(), false
	}
	return r, false
}

func (r *Bivariate) Tys(a, b ty.Ty) (ty.Ty, error) {
	if a == b {
		return a, nil
	}
	types := r.infcx.types
	a = types.ReplaceIfPossible(a)
	b = types.ReplaceIfPossible(b)

	aVar, aIsVar := a.(ty.TyVar)
	bVar, bIsVar := b.(ty.TyVar)
	switch {
	case aIsVar && bIsVar:
		types.RelateVars(aVar.Vid, typevar.BiTo, bVar.Vid)
		return a, nil
	case aIsVar:
		if err := r.instantiate(b, typevar.BiTo, aVar.Vid); err != nil {
			return nil, err
		}
		return a, nil
	case bIsVar:
		if err := r.instantiate(a, typevar.BiTo, bVar.Vid); err != nil {
			return nil, err
		}
		return a, nil
	}
	return superCombineTys(r.infcx, r, a, b)
}

func (r *Bivariate) Regions(a, _ ty.Region) (ty.Region, error) { return a, nil }

func (r *Bivariate) polyFnSigs(a, b ty.PolyFnSig) (ty.PolyFnSig, error) {
	return bivariateBinders(r, a, b, relateFnSigs)
}

func (r *Bivariate) polyTraitRefs(a, b ty.PolyTraitRef) (ty.PolyTraitRef, error) {
	return bivariateBinders(r, a, b, relateTraitRefs)
}

// bivariateBinders relates binders with their bound regions erased
func bivariateBinders[T any](r *Bivariate, a, b ty.Binder[T], relate func(Relation, T, T) (T, error)) (ty.Binder[T], error) {
	erase := func(ty.BoundRegion) ty.Region { return ty.Static }
	a1, _ := ty.ReplaceLateBoundRegions(a, erase)
	b1, _ := ty.ReplaceLateBoundRegions(b, erase)
	c, err := relate(r, a1, b1)
	if err != nil {
		return ty.Binder[T]{}, err
	}
	return ty.Bind(c), nil
}
