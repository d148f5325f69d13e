package infer

import "github.com/cottand/tyinfer/ty"

// latticeDir is a relation computing a bound of two types: Lub or Glb
type latticeDir interface {
	Relation
	// relateBound requires v to be the bound of a and b
	relateBound(v, a, b ty.Ty) error
}

// superLatticeTys computes the bound of a and b. Only when one side is an
// unknown type variable does the bound need a variable of its own
func superLatticeTys(r latticeDir, a, b ty.Ty) (ty.Ty, error) {
	if a == b {
		return a, nil
	}
	c := r.fields().infcx
	a = c.types.ReplaceIfPossible(a)
	b = c.types.ReplaceIfPossible(b)

	_, aIsVar := a.(ty.TyVar)
	_, bIsVar := b.(ty.TyVar)
	if !aIsVar && !bIsVar {
		return superCombineTys(c, r, a, b)
	}

	var v ty.Ty
	if aIsVar && bIsVar && c.TypeVarDiverges(a) && c.TypeVarDiverges(b) {
		v = c.NextDivergingTyVar()
	} else {
		v = c.NextTyVar()
	}
	if err := r.relateBound(v, a, b); err != nil {
		return nil, err
	}
	return v, nil
}
