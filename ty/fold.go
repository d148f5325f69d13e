package ty

import "fmt"

// Folder rewrites the types and regions of a value. FoldTy is called on
// every type encountered at the top level; implementations call SuperFold
// to recurse into its components
type Folder interface {
	FoldTy(t Ty) Ty
	FoldRegion(r Region) Region
	EnterBinder()
	ExitBinder()
}

// BinderDepth tracks the binders a Folder is currently under. Its zero value
// is at depth InnermostBinder, so a ReLateBound with Debruijn == Depth() is
// bound by the binder whose contents are being folded
type BinderDepth struct {
	entered uint32
}

func (b *BinderDepth) EnterBinder() { b.entered++ }
func (b *BinderDepth) ExitBinder() {
	if b.entered == 0 {
		panic("ty: unbalanced ExitBinder")
	}
	b.entered--
}
func (b *BinderDepth) Depth() DebruijnIndex { return InnermostBinder.Shifted(b.entered) }

// SuperFold folds the components of t with f, keeping its shape
func SuperFold(f Folder, t Ty) Ty {
	switch t := t.(type) {
	case *Tuple:
		elems := make([]Ty, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = f.FoldTy(e)
		}
		return &Tuple{Elems: elems}
	case *Ref:
		return &Ref{Region: f.FoldRegion(t.Region), Mut: t.Mut, Elem: f.FoldTy(t.Elem)}
	case *RawPtr:
		return &RawPtr{Mut: t.Mut, Elem: f.FoldTy(t.Elem)}
	case *Array:
		return &Array{Elem: f.FoldTy(t.Elem), Len: t.Len}
	case *Slice:
		return &Slice{Elem: f.FoldTy(t.Elem)}
	case *FnPtr:
		return &FnPtr{Unsafe: t.Unsafe, Sig: t.Sig.FoldWith(f)}
	case *Adt:
		return &Adt{Def: t.Def, Substs: t.Substs.FoldWith(f)}
	case *Dynamic:
		return &Dynamic{Principal: t.Principal.FoldWith(f), RegionBound: f.FoldRegion(t.RegionBound)}
	case Prim, Param, TyVar, IntVar, FloatVar, FreshTy, FreshIntTy, FreshFloatTy, ErrorTy:
		return t
	}
	panic(fmt.Sprintf("ty: unexpected type %T in fold", t))
}

// RegionFolder rewrites every region with Fn and leaves types alone
type RegionFolder struct {
	BinderDepth
	Fn func(r Region, depth DebruijnIndex) Region
}

func (f *RegionFolder) FoldTy(t Ty) Ty             { return SuperFold(f, t) }
func (f *RegionFolder) FoldRegion(r Region) Region { return f.Fn(r, f.Depth()) }

// FoldRegions rewrites all regions of v, passing the current binder depth to fn
func FoldRegions[T any](v T, fn func(r Region, depth DebruijnIndex) Region) T {
	return FoldValue(v, &RegionFolder{Fn: fn})
}

// TyFolder rewrites types bottom-up with Fn: children first
type TyFolder struct {
	BinderDepth
	Fn func(t Ty) Ty
}

func (f *TyFolder) FoldTy(t Ty) Ty             { return f.Fn(SuperFold(f, t)) }
func (f *TyFolder) FoldRegion(r Region) Region { return r }

// ReplaceLateBoundRegions instantiates the regions bound by b using mapFn,
// calling it once per distinct bound region in order of first appearance.
// It returns the unwrapped value and the mapping that was used
func ReplaceLateBoundRegions[T any](b Binder[T], mapFn func(br BoundRegion) Region) (T, map[BoundRegion]Region) {
	mapping := map[BoundRegion]Region{}
	value := FoldRegions(b.Value, func(r Region, depth DebruijnIndex) Region {
		lb, ok := r.(ReLateBound)
		if !ok || lb.Debruijn != depth {
			return r
		}
		if replaced, ok := mapping[lb.BR]; ok {
			return shiftRegion(replaced, uint32(depth-InnermostBinder))
		}
		replaced := mapFn(lb.BR)
		mapping[lb.BR] = replaced
		return shiftRegion(replaced, uint32(depth-InnermostBinder))
	})
	return value, mapping
}

// LateBoundRegions lists the distinct regions bound by b, in order of appearance
func LateBoundRegions[T any](b Binder[T]) []BoundRegion {
	var brs []BoundRegion
	seen := map[BoundRegion]bool{}
	WalkRegions(b.Value, func(r Region, depth DebruijnIndex) {
		if lb, ok := r.(ReLateBound); ok && lb.Debruijn == depth && !seen[lb.BR] {
			seen[lb.BR] = true
			brs = append(brs, lb.BR)
		}
	})
	return brs
}

// visitor is a Folder which only observes
type visitor struct {
	BinderDepth
	ty     func(t Ty) bool
	region func(r Region, depth DebruijnIndex)
}

func (v *visitor) FoldTy(t Ty) Ty {
	if v.ty == nil || v.ty(t) {
		SuperFold(v, t)
	}
	return t
}

func (v *visitor) FoldRegion(r Region) Region {
	if v.region != nil {
		v.region(r, v.Depth())
	}
	return r
}

// WalkTys calls fn on every type of v, outermost first. Returning false
// skips the components of that type
func WalkTys[T any](v T, fn func(t Ty) bool) {
	FoldValue(v, &visitor{ty: fn})
}

// WalkRegions calls fn on every region of v with the binder depth it appears at
func WalkRegions[T any](v T, fn func(r Region, depth DebruijnIndex)) {
	FoldValue(v, &visitor{region: fn})
}

// AnyTy reports whether pred holds for any type within v
func AnyTy[T any](v T, pred func(t Ty) bool) bool {
	found := false
	WalkTys(v, func(t Ty) bool {
		if found {
			return false
		}
		if pred(t) {
			found = true
			return false
		}
		return true
	})
	return found
}

// AnyRegion reports whether pred holds for any region within v
func AnyRegion[T any](v T, pred func(r Region, depth DebruijnIndex) bool) bool {
	found := false
	WalkRegions(v, func(r Region, depth DebruijnIndex) {
		found = found || pred(r, depth)
	})
	return found
}

// HasTyInfer reports whether v mentions a type, int or float variable
func HasTyInfer[T any](v T) bool {
	return AnyTy(v, IsInfer)
}

// NeedsInfer reports whether v mentions any inference variable, regions included
func NeedsInfer[T any](v T) bool {
	return HasTyInfer(v) || AnyRegion(v, func(r Region, _ DebruijnIndex) bool {
		return IsRegionVar(r)
	})
}

func ReferencesError[T any](v T) bool {
	return AnyTy(v, IsError)
}

// HasEscapingRegions reports whether v mentions a late-bound region whose binder
// is not part of v
func HasEscapingRegions[T any](v T) bool {
	return AnyRegion(v, func(r Region, depth DebruijnIndex) bool {
		lb, ok := r.(ReLateBound)
		return ok && lb.Debruijn >= depth
	})
}

// CollectRegions lists every region in v that is not bound inside v
func CollectRegions[T any](v T) []Region {
	var out []Region
	WalkRegions(v, func(r Region, depth DebruijnIndex) {
		if lb, ok := r.(ReLateBound); ok && lb.Debruijn < depth {
			return
		}
		out = append(out, r)
	})
	return out
}

// Equal compares types structurally
func Equal(a, b Ty) bool {
	if a == b {
		return true
	}
	switch a := a.(type) {
	case *Tuple:
		b, ok := b.(*Tuple)
		return ok && tysEqual(a.Elems, b.Elems)
	case *Ref:
		b, ok := b.(*Ref)
		return ok && a.Mut == b.Mut && a.Region == b.Region && Equal(a.Elem, b.Elem)
	case *RawPtr:
		b, ok := b.(*RawPtr)
		return ok && a.Mut == b.Mut && Equal(a.Elem, b.Elem)
	case *Array:
		b, ok := b.(*Array)
		return ok && a.Len == b.Len && Equal(a.Elem, b.Elem)
	case *Slice:
		b, ok := b.(*Slice)
		return ok && Equal(a.Elem, b.Elem)
	case *FnPtr:
		b, ok := b.(*FnPtr)
		return ok && a.Unsafe == b.Unsafe && FnSigsEqual(a.Sig.Value, b.Sig.Value)
	case *Adt:
		b, ok := b.(*Adt)
		return ok && a.Def == b.Def && SubstsEqual(a.Substs, b.Substs)
	case *Dynamic:
		b, ok := b.(*Dynamic)
		return ok && a.RegionBound == b.RegionBound && TraitRefsEqual(a.Principal.Value, b.Principal.Value)
	}
	return false
}

func FnSigsEqual(a, b FnSig) bool {
	if a.Diverging != b.Diverging || a.Variadic != b.Variadic || !tysEqual(a.Inputs, b.Inputs) {
		return false
	}
	if a.Diverging {
		return true
	}
	return (a.Output == nil) == (b.Output == nil) && (a.Output == nil || Equal(a.Output, b.Output))
}

func TraitRefsEqual(a, b TraitRef) bool {
	return a.Def == b.Def && SubstsEqual(a.Substs, b.Substs)
}

func SubstsEqual(a, b *Substs) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() && b.IsEmpty()
	}
	if len(a.Regions) != len(b.Regions) {
		return false
	}
	for i := range a.Regions {
		if a.Regions[i] != b.Regions[i] {
			return false
		}
	}
	return tysEqual(a.Types, b.Types)
}

func tysEqual(as, bs []Ty) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}
