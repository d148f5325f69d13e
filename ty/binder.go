package ty

// Binder wraps a value whose late-bound regions with Debruijn index 1 refer
// to this binder, as in `for<'a> fn(&'a u8)`
type Binder[T any] struct {
	Value T
}

func Bind[T any](v T) Binder[T] { return Binder[T]{Value: v} }

// SkipBinder gives access to the bound value. Late-bound regions in the
// result still refer to the dropped binder
func (b Binder[T]) SkipBinder() T { return b.Value }

func (b Binder[T]) FoldWith(f Folder) Binder[T] {
	f.EnterBinder()
	defer f.ExitBinder()
	return Binder[T]{Value: FoldValue(b.Value, f)}
}

// Foldable values can have their types and regions rewritten by a Folder.
// Ty itself is foldable through FoldValue
type Foldable[T any] interface {
	FoldWith(f Folder) T
}

func (s FnSig) FoldWith(f Folder) FnSig {
	inputs := make([]Ty, len(s.Inputs))
	for i, in := range s.Inputs {
		inputs[i] = f.FoldTy(in)
	}
	out := s.Output
	if out != nil {
		out = f.FoldTy(out)
	}
	return FnSig{Inputs: inputs, Output: out, Diverging: s.Diverging, Variadic: s.Variadic}
}

func (t TraitRef) FoldWith(f Folder) TraitRef {
	return TraitRef{Def: t.Def, Substs: t.Substs.FoldWith(f)}
}

// EquatePredicate requires A == B
type EquatePredicate struct {
	A, B Ty
}

func (p EquatePredicate) FoldWith(f Folder) EquatePredicate {
	return EquatePredicate{A: f.FoldTy(p.A), B: f.FoldTy(p.B)}
}

// OutlivesPredicate requires A: B, region A outlives region B
type OutlivesPredicate struct {
	A, B Region
}

func (p OutlivesPredicate) FoldWith(f Folder) OutlivesPredicate {
	return OutlivesPredicate{A: f.FoldRegion(p.A), B: f.FoldRegion(p.B)}
}

type PolyEquatePredicate = Binder[EquatePredicate]
type PolyOutlivesPredicate = Binder[OutlivesPredicate]

// FoldValue folds v, which is either a Ty or implements Foldable
func FoldValue[T any](v T, f Folder) T {
	switch val := any(v).(type) {
	case Ty:
		return any(f.FoldTy(val)).(T)
	case Region:
		return any(f.FoldRegion(val)).(T)
	case Foldable[T]:
		return val.FoldWith(f)
	case []Ty:
		out := make([]Ty, len(val))
		for i, t := range val {
			out[i] = f.FoldTy(t)
		}
		return any(out).(T)
	}
	panic("ty: value is not foldable")
}
