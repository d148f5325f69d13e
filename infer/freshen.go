package infer

import (
	"fmt"

	"github.com/cottand/tyinfer/ty"
)

// TypeFreshener replaces unknown variables with fresh markers, numbered in
// order of first appearance, and erases every free region to 'static. Two
// values which freshen to the same result cannot be told apart by anything
// inference might still learn, which makes the result usable as a cache key.
//
// A TypeFreshener can be reused across values: the same variable always
// gets the same marker
type TypeFreshener struct {
	ty.BinderDepth
	infcx *InferCtxt
	count uint32
	fresh map[ty.Ty]ty.Ty
}

func (c *InferCtxt) Freshener() *TypeFreshener {
	return &TypeFreshener{infcx: c, fresh: map[ty.Ty]ty.Ty{}}
}

// Freshen freshens v with a new TypeFreshener
func Freshen[T any](c *InferCtxt, v T) T {
	return ty.FoldValue(v, c.Freshener())
}

func (f *TypeFreshener) freshen(known ty.Ty, isKnown bool, key ty.Ty, mk func(n uint32) ty.Ty) ty.Ty {
	if isKnown {
		return f.FoldTy(known)
	}
	if t, ok := f.fresh[key]; ok {
		return t
	}
	t := mk(f.count)
	f.count++
	f.fresh[key] = t
	return t
}

func (f *TypeFreshener) FoldTy(t ty.Ty) ty.Ty {
	if !ty.NeedsInfer(t) && !hasErasableRegions(t) {
		return t
	}
	switch v := t.(type) {
	case ty.TyVar:
		known, ok := f.infcx.types.Probe(v.Vid)
		return f.freshen(known, ok, t, func(n uint32) ty.Ty { return ty.FreshTy{N: n} })
	case ty.IntVar:
		val, ok := f.infcx.ints.Probe(v.Vid)
		return f.freshen(val.ToType(), ok, t, func(n uint32) ty.Ty { return ty.FreshIntTy{N: n} })
	case ty.FloatVar:
		val, ok := f.infcx.floats.Probe(v.Vid)
		return f.freshen(val.ToType(), ok, t, func(n uint32) ty.Ty { return ty.FreshFloatTy{N: n} })
	case ty.FreshTy:
		f.checkFresh(v.N)
		return t
	case ty.FreshIntTy:
		f.checkFresh(v.N)
		return t
	case ty.FreshFloatTy:
		f.checkFresh(v.N)
		return t
	}
	return ty.SuperFold(f, t)
}

func (f *TypeFreshener) checkFresh(n uint32) {
	if n >= f.count {
		panic(fmt.Sprintf("infer: found freshened type %d but the counter is only at %d", n, f.count))
	}
}

func (f *TypeFreshener) FoldRegion(r ty.Region) ty.Region {
	if ty.IsBound(r) {
		return r
	}
	return ty.Static
}

func hasErasableRegions(t ty.Ty) bool {
	return ty.AnyRegion(t, func(r ty.Region, _ ty.DebruijnIndex) bool {
		return !ty.IsBound(r)
	})
}
