package infer

import (
	"github.com/cottand/tyinfer/ty"
	"github.com/cottand/tyinfer/tyerr"
)

// relateTysWithVariance relates a and b as a component of variance v of
// whatever r is currently relating
func relateTysWithVariance(r Relation, v ty.Variance, a, b ty.Ty) (ty.Ty, error) {
	rel, swap := r.forVariance(v)
	if swap {
		return rel.Tys(b, a)
	}
	return rel.Tys(a, b)
}

func relateRegionsWithVariance(r Relation, v ty.Variance, a, b ty.Region) (ty.Region, error) {
	rel, swap := r.forVariance(v)
	if swap {
		return rel.Regions(b, a)
	}
	return rel.Regions(a, b)
}

// superRelateTys relates two types which are not inference variables by
// walking their structure, relating components with the relation their
// variance calls for
func superRelateTys(r Relation, a, b ty.Ty) (ty.Ty, error) {
	sorts := func() error { return tyerr.Sorts{ExpectedFound: expectedFound(r, a, b)} }

	switch a := a.(type) {
	case ty.ErrorTy:
		return ty.Err, nil
	case ty.Prim:
		if b, ok := b.(ty.Prim); ok && a == b {
			return a, nil
		}
	case ty.Param:
		if b, ok := b.(ty.Param); ok && a == b {
			return a, nil
		}
	case *ty.Adt:
		if b, ok := b.(*ty.Adt); ok && a.Def == b.Def {
			substs, err := relateItemSubsts(r, a.Def, a.Substs, b.Substs)
			if err != nil {
				return nil, err
			}
			return &ty.Adt{Def: a.Def, Substs: substs}, nil
		}
	case *ty.Dynamic:
		if b, ok := b.(*ty.Dynamic); ok {
			principal, err := r.polyTraitRefs(a.Principal, b.Principal)
			if err != nil {
				return nil, err
			}
			bound, err := relateRegionsWithVariance(r, ty.Contravariant, a.RegionBound, b.RegionBound)
			if err != nil {
				return nil, err
			}
			return &ty.Dynamic{Principal: principal, RegionBound: bound}, nil
		}
	case *ty.RawPtr:
		if b, ok := b.(*ty.RawPtr); ok {
			mut, elem, err := relateMut(r, tyerr.Pointers, a.Mut, b.Mut, a.Elem, b.Elem)
			if err != nil {
				return nil, err
			}
			return &ty.RawPtr{Mut: mut, Elem: elem}, nil
		}
	case *ty.Ref:
		if b, ok := b.(*ty.Ref); ok {
			region, err := relateRegionsWithVariance(r, ty.Contravariant, a.Region, b.Region)
			if err != nil {
				return nil, err
			}
			mut, elem, err := relateMut(r, tyerr.References, a.Mut, b.Mut, a.Elem, b.Elem)
			if err != nil {
				return nil, err
			}
			return &ty.Ref{Region: region, Mut: mut, Elem: elem}, nil
		}
	case *ty.Array:
		if b, ok := b.(*ty.Array); ok {
			elem, err := r.Tys(a.Elem, b.Elem)
			if err != nil {
				return nil, err
			}
			if a.Len != b.Len {
				return nil, tyerr.FixedArraySize{ExpectedFound: expectedFound(r, a.Len, b.Len)}
			}
			return &ty.Array{Elem: elem, Len: a.Len}, nil
		}
	case *ty.Slice:
		if b, ok := b.(*ty.Slice); ok {
			elem, err := r.Tys(a.Elem, b.Elem)
			if err != nil {
				return nil, err
			}
			return &ty.Slice{Elem: elem}, nil
		}
	case *ty.Tuple:
		if b, ok := b.(*ty.Tuple); ok {
			if len(a.Elems) == len(b.Elems) {
				elems := make([]ty.Ty, len(a.Elems))
				for i := range a.Elems {
					elem, err := r.Tys(a.Elems[i], b.Elems[i])
					if err != nil {
						return nil, err
					}
					elems[i] = elem
				}
				return &ty.Tuple{Elems: elems}, nil
			}
			if len(a.Elems) > 0 && len(b.Elems) > 0 {
				return nil, tyerr.TupleSize{ExpectedFound: expectedFound(r, len(a.Elems), len(b.Elems))}
			}
		}
	case *ty.FnPtr:
		if b, ok := b.(*ty.FnPtr); ok {
			if a.Unsafe != b.Unsafe {
				return nil, tyerr.UnsafetyMismatch{ExpectedFound: expectedFound(r, a.Unsafe, b.Unsafe)}
			}
			sig, err := r.polyFnSigs(a.Sig, b.Sig)
			if err != nil {
				return nil, err
			}
			return &ty.FnPtr{Unsafe: a.Unsafe, Sig: sig}, nil
		}
	}
	return nil, sorts()
}

// relateMut relates the pointees of two references or raw pointers, which
// must agree on mutability. A mutable pointee is invariant
func relateMut(r Relation, kind tyerr.MutabilityKind, aMut, bMut ty.Mutability, a, b ty.Ty) (ty.Mutability, ty.Ty, error) {
	if aMut != bMut {
		return 0, nil, tyerr.Mutability{Kind: kind}
	}
	v := ty.Covariant
	if aMut == ty.Mutable {
		v = ty.Invariant
	}
	elem, err := relateTysWithVariance(r, v, a, b)
	return aMut, elem, err
}

// relateItemSubsts relates the arguments of two uses of def, with the
// variances the database declares for its parameters
func relateItemSubsts(r Relation, def ty.DefID, a, b *ty.Substs) (*ty.Substs, error) {
	variances, ok := r.fields().infcx.db.ItemVariances(def)
	if !ok {
		logger.Debug("no variances, relating invariantly", "def", string(def))
	}
	return relateSubsts(r, variances, a, b)
}

func relateSubsts(r Relation, variances ty.ItemVariances, a, b *ty.Substs) (*ty.Substs, error) {
	if a == nil {
		a = ty.EmptySubsts()
	}
	if b == nil {
		b = ty.EmptySubsts()
	}
	if len(a.Types) != len(b.Types) {
		return nil, tyerr.TyParamSize{ExpectedFound: expectedFound(r, len(a.Types), len(b.Types))}
	}
	if len(a.Regions) != len(b.Regions) {
		return nil, tyerr.TyParamSize{ExpectedFound: expectedFound(r, len(a.Regions), len(b.Regions))}
	}

	out := &ty.Substs{
		Types:   make([]ty.Ty, len(a.Types)),
		Regions: make([]ty.Region, len(a.Regions)),
	}
	for i := range a.Types {
		t, err := relateTysWithVariance(r, variances.TypeVariance(i), a.Types[i], b.Types[i])
		if err != nil {
			return nil, err
		}
		out.Types[i] = t
	}
	for i := range a.Regions {
		region, err := relateRegionsWithVariance(r, variances.RegionVariance(i), a.Regions[i], b.Regions[i])
		if err != nil {
			return nil, err
		}
		out.Regions[i] = region
	}
	return out, nil
}

// relateFnSigs relates two signatures under a binder which has already been
// dealt with. Inputs are contravariant and the output covariant
func relateFnSigs(r Relation, a, b ty.FnSig) (ty.FnSig, error) {
	if a.Variadic != b.Variadic {
		return ty.FnSig{}, tyerr.VariadicMismatch{ExpectedFound: expectedFound(r, a.Variadic, b.Variadic)}
	}
	if len(a.Inputs) != len(b.Inputs) {
		return ty.FnSig{}, tyerr.ArgCount{}
	}

	inputs := make([]ty.Ty, len(a.Inputs))
	for i := range a.Inputs {
		in, err := relateTysWithVariance(r, ty.Contravariant, a.Inputs[i], b.Inputs[i])
		if err != nil {
			return ty.FnSig{}, err
		}
		inputs[i] = in
	}

	sig := ty.FnSig{Inputs: inputs, Variadic: a.Variadic}
	switch {
	case a.Diverging && b.Diverging:
		sig.Diverging = true
	case a.Diverging != b.Diverging:
		return ty.FnSig{}, tyerr.ConvergenceMismatch{ExpectedFound: expectedFound(r, a.Diverging, b.Diverging)}
	default:
		out, err := r.Tys(outputOrUnit(a.Output), outputOrUnit(b.Output))
		if err != nil {
			return ty.FnSig{}, err
		}
		sig.Output = out
	}
	return sig, nil
}

func outputOrUnit(t ty.Ty) ty.Ty {
	if t == nil {
		return ty.Unit()
	}
	return t
}

func relateTraitRefs(r Relation, a, b ty.TraitRef) (ty.TraitRef, error) {
	if a.Def != b.Def {
		return ty.TraitRef{}, tyerr.TraitsMismatch{ExpectedFound: expectedFound(r, a.Def, b.Def)}
	}
	substs, err := relateItemSubsts(r, a.Def, a.Substs, b.Substs)
	if err != nil {
		return ty.TraitRef{}, err
	}
	return ty.TraitRef{Def: a.Def, Substs: substs}, nil
}
