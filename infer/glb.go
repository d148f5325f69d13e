package infer

import "github.com/cottand/tyinfer/ty"

// Glb computes the greatest lower bound: the most general type which is a
// subtype of both sides
type Glb struct{ combineFields }

func (r *Glb) Tag() string { return "Glb" }

func (r *Glb) forVariance(v ty.Variance) (Relation, bool) {
	switch v {
	case ty.Invariant:
		return r.equate(), false
	case ty.Contravariant:
		return r.lub(), false
	case ty.Bivariant:
		return r.bivariate(), false
	}
	return r, false
}

func (r *Glb) Tys(a, b ty.Ty) (ty.Ty, error) {
	logger.Debug("glb tys", "a", a, "b", b)
	return superLatticeTys(r, a, b)
}

func (r *Glb) Regions(a, b ty.Region) (ty.Region, error) {
	return r.infcx.regions.GlbRegions(r.regionOrigin(), a, b), nil
}

func (r *Glb) relateBound(v, a, b ty.Ty) error {
	sub := r.sub()
	if _, err := sub.Tys(v, a); err != nil {
		return err
	}
	_, err := sub.Tys(v, b)
	return err
}

func (r *Glb) polyFnSigs(a, b ty.PolyFnSig) (ty.PolyFnSig, error) {
	return higherRankedGlb(r, a, b, relateFnSigs)
}

func (r *Glb) polyTraitRefs(a, b ty.PolyTraitRef) (ty.PolyTraitRef, error) {
	return higherRankedGlb(r, a, b, relateTraitRefs)
}
