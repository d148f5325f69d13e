package infer

import "github.com/cottand/tyinfer/ty"

// Lub computes the least upper bound: the most specific type both sides are
// subtypes of
type Lub struct{ combineFields }

func (r *Lub) Tag() string { return "Lub" }

func (r *Lub) forVariance(v ty.Variance) (Relation, bool) {
	switch v {
	case ty.Invariant:
		return r.equate(), false
	case ty.Contravariant:
		return r.glb(), false
	case ty.Bivariant:
		return r.bivariate(), false
	}
	return r, false
}

func (r *Lub) Tys(a, b ty.Ty) (ty.Ty, error) {
	logger.Debug("lub tys", "a", a, "b", b)
	return superLatticeTys(r, a, b)
}

func (r *Lub) Regions(a, b ty.Region) (ty.Region, error) {
	return r.infcx.regions.LubRegions(r.regionOrigin(), a, b), nil
}

func (r *Lub) relateBound(v, a, b ty.Ty) error {
	sub := r.sub()
	if _, err := sub.Tys(a, v); err != nil {
		return err
	}
	_, err := sub.Tys(b, v)
	return err
}

func (r *Lub) polyFnSigs(a, b ty.PolyFnSig) (ty.PolyFnSig, error) {
	return higherRankedLub(r, a, b, relateFnSigs)
}

func (r *Lub) polyTraitRefs(a, b ty.PolyTraitRef) (ty.PolyTraitRef, error) {
	return higherRankedLub(r, a, b, relateTraitRefs)
}
