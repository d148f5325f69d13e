package infer

import (
	"fmt"

	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
	"github.com/cottand/tyinfer/tyerr"
)

// ShallowResolve replaces t by its value if it is a known variable. The
// result may still contain variables below its top level
func (c *InferCtxt) ShallowResolve(t ty.Ty) ty.Ty {
	switch v := t.(type) {
	case ty.TyVar:
		if known, ok := c.types.Probe(v.Vid); ok {
			return c.ShallowResolve(known)
		}
	case ty.IntVar:
		if val, ok := c.ints.Probe(v.Vid); ok {
			return val.ToType()
		}
	case ty.FloatVar:
		if val, ok := c.floats.Probe(v.Vid); ok {
			return val.ToType()
		}
	}
	return t
}

type opportunisticResolver struct {
	ty.BinderDepth
	infcx *InferCtxt
}

func (f *opportunisticResolver) FoldTy(t ty.Ty) ty.Ty {
	if !ty.HasTyInfer(t) {
		return t
	}
	return ty.SuperFold(f, f.infcx.ShallowResolve(t))
}

func (f *opportunisticResolver) FoldRegion(r ty.Region) ty.Region { return r }

// ResolveTypeVarsIfPossible replaces every known type, integer and float
// variable in v by its value. Unknown variables are left in place
func ResolveTypeVarsIfPossible[T any](c *InferCtxt, v T) T {
	if !ty.HasTyInfer(v) {
		return v
	}
	return ty.FoldValue(v, &opportunisticResolver{infcx: c})
}

// FixupError is a variable which FullyResolve found no value for
type FixupError struct {
	Kind tyerr.UnresolvedKind
	Var  ty.Ty
}

func (e *FixupError) Error() string {
	switch e.Kind {
	case tyerr.UnresolvedInt:
		return "cannot determine the type of this integer; add a suffix to specify the type explicitly"
	case tyerr.UnresolvedFloat:
		return "cannot determine the type of this number; add a suffix to specify the type explicitly"
	}
	return "unconstrained type"
}

type fullResolver struct {
	ty.BinderDepth
	infcx *InferCtxt
	err   *FixupError
}

func (f *fullResolver) FoldTy(t ty.Ty) ty.Ty {
	if !ty.NeedsInfer(t) {
		return t
	}
	t = f.infcx.ShallowResolve(t)
	var kind tyerr.UnresolvedKind
	switch t.(type) {
	case ty.TyVar:
		kind = tyerr.UnresolvedTy
	case ty.IntVar:
		kind = tyerr.UnresolvedInt
	case ty.FloatVar:
		kind = tyerr.UnresolvedFloat
	case ty.FreshTy, ty.FreshIntTy, ty.FreshFloatTy:
		panic(fmt.Sprintf("infer: cannot resolve fresh type %s", t))
	default:
		return ty.SuperFold(f, t)
	}
	if f.err == nil {
		f.err = &FixupError{Kind: kind, Var: t}
	}
	return ty.Err
}

func (f *fullResolver) FoldRegion(r ty.Region) ty.Region {
	if v, ok := r.(ty.ReVar); ok {
		return f.infcx.regions.ResolveVar(v.Vid)
	}
	return r
}

// FullyResolve replaces every variable in v by its value. Region variables
// can only be resolved after ResolveRegionsAndReportErrors. The first
// variable without a value is returned as a *FixupError
func FullyResolve[T any](c *InferCtxt, v T) (T, error) {
	f := &fullResolver{infcx: c}
	resolved := ty.FoldValue(v, f)
	if f.err != nil {
		var zero T
		return zero, f.err
	}
	return resolved, nil
}

// ReportFixupError records err, as returned by FullyResolve, as a diagnostic at span
func (c *InferCtxt) ReportFixupError(span source.Span, err *FixupError) {
	c.errs = c.errs.With(tyerr.New(tyerr.NewUnresolved{Span: span, Kind: err.Kind, Msg: err.Error()}))
}
