package ty

import (
	"fmt"
	"strings"
)

func (t Prim) String() string { return t.Kind.String() }

func (t *Tuple) String() string {
	if len(t.Elems) == 1 {
		return "(" + t.Elems[0].String() + ",)"
	}
	return "(" + joinTys(t.Elems) + ")"
}

func (t *Ref) String() string {
	if t.Mut == Mutable {
		return fmt.Sprintf("&%s mut %s", t.Region, t.Elem)
	}
	return fmt.Sprintf("&%s %s", t.Region, t.Elem)
}

func (t *RawPtr) String() string {
	if t.Mut == Mutable {
		return "*mut " + t.Elem.String()
	}
	return "*const " + t.Elem.String()
}

func (t *Array) String() string { return fmt.Sprintf("[%s; %d]", t.Elem, t.Len) }
func (t *Slice) String() string { return "[" + t.Elem.String() + "]" }

func (t *FnPtr) String() string {
	sb := strings.Builder{}
	sb.WriteString(binderPrefix(t.Sig))
	if t.Unsafe {
		sb.WriteString("unsafe ")
	}
	sb.WriteString("fn")
	sb.WriteString(t.Sig.Value.String())
	return sb.String()
}

func (s FnSig) String() string {
	sb := strings.Builder{}
	sb.WriteString("(")
	sb.WriteString(joinTys(s.Inputs))
	if s.Variadic {
		if len(s.Inputs) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString(")")
	switch {
	case s.Diverging:
		sb.WriteString(" -> !")
	case s.Output != nil && !IsUnit(s.Output):
		sb.WriteString(" -> ")
		sb.WriteString(s.Output.String())
	}
	return sb.String()
}

func (t *Adt) String() string { return string(t.Def) + substsString(t.Substs, 0) }

func (t TraitRef) String() string {
	self := t.SelfTy()
	if self == nil {
		return string(t.Def)
	}
	return fmt.Sprintf("<%s as %s%s>", self, t.Def, substsString(t.Substs, 1))
}

func (t *Dynamic) String() string {
	principal := t.Principal.Value
	s := binderPrefix(t.Principal) + "dyn " + string(principal.Def) + substsString(principal.Substs, 0)
	if t.RegionBound != nil {
		s += " + " + t.RegionBound.String()
	}
	return s
}

func (t Param) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("T%d", t.Index)
}

func (t TyVar) String() string        { return t.Vid.String() }
func (t IntVar) String() string       { return t.Vid.String() }
func (t FloatVar) String() string     { return t.Vid.String() }
func (t FreshTy) String() string      { return fmt.Sprintf("FreshTy(%d)", t.N) }
func (t FreshIntTy) String() string   { return fmt.Sprintf("FreshIntTy(%d)", t.N) }
func (t FreshFloatTy) String() string { return fmt.Sprintf("FreshFloatTy(%d)", t.N) }
func (ErrorTy) String() string        { return "{error}" }

func (br BoundRegion) String() string {
	switch br.Kind {
	case BrNamed:
		return "'" + br.Name
	case BrFresh:
		return fmt.Sprintf("'_fresh%d", br.Index)
	}
	return fmt.Sprintf("'_%d", br.Index)
}

func (ReStatic) String() string { return "'static" }
func (ReEmpty) String() string  { return "'empty" }

func (r ReEarlyBound) String() string {
	if r.Name != "" {
		return "'" + r.Name
	}
	return fmt.Sprintf("'_early%d", r.Index)
}

func (r ReLateBound) String() string { return r.BR.String() }
func (r ReFree) String() string      { return fmt.Sprintf("%s/s%d", r.BR, r.Scope) }
func (r ReScope) String() string     { return fmt.Sprintf("'s%d", r.Scope) }
func (r ReVar) String() string       { return r.Vid.String() }
func (r ReSkolemized) String() string {
	return fmt.Sprintf("'!%d(%s)", r.Index, r.BR)
}

func joinTys(tys []Ty) string {
	strs := make([]string, len(tys))
	for i, t := range tys {
		strs[i] = t.String()
	}
	return strings.Join(strs, ", ")
}

// substsString renders substitutions as `<'a, T>`, skipping the first skip types
func substsString(s *Substs, skip int) string {
	if s == nil {
		return ""
	}
	var args []string
	for _, r := range s.Regions {
		args = append(args, r.String())
	}
	if skip < len(s.Types) {
		for _, t := range s.Types[skip:] {
			args = append(args, t.String())
		}
	}
	if len(args) == 0 {
		return ""
	}
	return "<" + strings.Join(args, ", ") + ">"
}

func binderPrefix[T any](b Binder[T]) string {
	brs := LateBoundRegions(b)
	if len(brs) == 0 {
		return ""
	}
	names := make([]string, len(brs))
	for i, br := range brs {
		names[i] = br.String()
	}
	return "for<" + strings.Join(names, ", ") + "> "
}
