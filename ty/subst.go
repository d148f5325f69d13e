package ty

import "slices"

// Substs are the generic arguments an item is instantiated with,
// region arguments first as they are written
type Substs struct {
	Types   []Ty
	Regions []Region
}

func EmptySubsts() *Substs { return &Substs{} }

func NewSubsts(types []Ty, regions []Region) *Substs {
	return &Substs{Types: types, Regions: regions}
}

func (s *Substs) IsEmpty() bool {
	return s == nil || (len(s.Types) == 0 && len(s.Regions) == 0)
}

// WithSelf returns a copy of s with self prepended to the types, which is how
// a trait reference stores its Self type
func (s *Substs) WithSelf(self Ty) *Substs {
	types := make([]Ty, 0, len(s.Types)+1)
	types = append(types, self)
	types = append(types, s.Types...)
	return &Substs{Types: types, Regions: slices.Clone(s.Regions)}
}

func (s *Substs) FoldWith(f Folder) *Substs {
	if s == nil {
		return nil
	}
	out := &Substs{
		Types:   make([]Ty, len(s.Types)),
		Regions: make([]Region, len(s.Regions)),
	}
	for i, t := range s.Types {
		out.Types[i] = f.FoldTy(t)
	}
	for i, r := range s.Regions {
		out.Regions[i] = f.FoldRegion(r)
	}
	return out
}

type TypeParamDef struct {
	Name  string
	Index uint32
}

type RegionParamDef struct {
	Name  string
	Index uint32
}

// Generics are the generic parameters an item declares
type Generics struct {
	Types   []TypeParamDef
	Regions []RegionParamDef
}

func (g Generics) IsEmpty() bool { return len(g.Types) == 0 && len(g.Regions) == 0 }

// Identity returns the substitutions which map each parameter to itself
func (g Generics) Identity() *Substs {
	s := &Substs{}
	for _, p := range g.Types {
		s.Types = append(s.Types, Param{Index: p.Index, Name: p.Name})
	}
	for _, p := range g.Regions {
		s.Regions = append(s.Regions, ReEarlyBound{Index: p.Index, Name: p.Name})
	}
	return s
}

// Subst replaces type parameters and early-bound regions in t with the
// arguments in s. Parameters out of range are left alone.
func Subst(t Ty, s *Substs) Ty {
	if s.IsEmpty() {
		return t
	}
	return (&substFolder{substs: s}).FoldTy(t)
}

type substFolder struct {
	BinderDepth
	substs *Substs
}

func (f *substFolder) FoldTy(t Ty) Ty {
	if p, ok := t.(Param); ok && int(p.Index) < len(f.substs.Types) {
		return f.substs.Types[p.Index]
	}
	return SuperFold(f, t)
}

func (f *substFolder) FoldRegion(r Region) Region {
	if eb, ok := r.(ReEarlyBound); ok && int(eb.Index) < len(f.substs.Regions) {
		return shiftRegion(f.substs.Regions[eb.Index], uint32(f.Depth()-InnermostBinder))
	}
	return r
}

func shiftRegion(r Region, amount uint32) Region {
	if lb, ok := r.(ReLateBound); ok && amount > 0 {
		return ReLateBound{Debruijn: lb.Debruijn.Shifted(amount), BR: lb.BR}
	}
	return r
}
