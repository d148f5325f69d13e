package ty

// Region is a lifetime. All regions are comparable values
// and can be used as map keys
type Region interface {
	String() string
	isRegion()
}

var (
	_ Region = ReStatic{}
	_ Region = ReEmpty{}
	_ Region = ReEarlyBound{}
	_ Region = ReLateBound{}
	_ Region = ReFree{}
	_ Region = ReScope{}
	_ Region = ReVar{}
	_ Region = ReSkolemized{}
)

type BrKind uint8

const (
	BrAnon BrKind = iota
	BrNamed
	// BrFresh is produced by NewBound and by the lattice operations on binders
	BrFresh
)

// BoundRegion identifies a region bound by a binder, independently of the binder depth
type BoundRegion struct {
	Kind  BrKind
	Index uint32
	Name  string
}

func BrNamedOf(name string) BoundRegion      { return BoundRegion{Kind: BrNamed, Name: name} }
func BrAnonOf(index uint32) BoundRegion      { return BoundRegion{Kind: BrAnon, Index: index} }
func BrFreshOf(index uint32) BoundRegion     { return BoundRegion{Kind: BrFresh, Index: index} }
func (br BoundRegion) Compare(o BoundRegion) int { return compareBoundRegions(br, o) }

func compareBoundRegions(a, b BoundRegion) int {
	switch {
	case a.Kind != b.Kind:
		return int(a.Kind) - int(b.Kind)
	case a.Index != b.Index:
		if a.Index < b.Index {
			return -1
		}
		return 1
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	}
	return 0
}

// ReStatic outlives every other region
type ReStatic struct{}

// ReEmpty is outlived by every other region
type ReEmpty struct{}

// ReEarlyBound is a region parameter of an item, substituted away before inference
type ReEarlyBound struct {
	Index uint32
	Name  string
}

// ReLateBound is a region bound by a Binder, Debruijn binders outwards
type ReLateBound struct {
	Debruijn DebruijnIndex
	BR       BoundRegion
}

// ReFree is a late-bound region of the enclosing function, freed within Scope
type ReFree struct {
	Scope ScopeID
	BR    BoundRegion
}

// FreeRegion is what the free region map relates
type FreeRegion = ReFree

// ReScope is the region of a code extent
type ReScope struct {
	Scope ScopeID
}

// ReVar is a region inference variable
type ReVar struct {
	Vid RegionVid
}

// ReSkolemized is a placeholder introduced when entering a binder during a
// higher-ranked comparison
type ReSkolemized struct {
	Index uint32
	BR    BoundRegion
}

func (ReStatic) isRegion()     {}
func (ReEmpty) isRegion()      {}
func (ReEarlyBound) isRegion() {}
func (ReLateBound) isRegion()  {}
func (ReFree) isRegion()       {}
func (ReScope) isRegion()      {}
func (ReVar) isRegion()        {}
func (ReSkolemized) isRegion() {}

var (
	Static Region = ReStatic{}
	Empty  Region = ReEmpty{}
)

// IsBound reports whether r is bound by a binder or an item, meaning it
// cannot take part in region constraints directly
func IsBound(r Region) bool {
	switch r.(type) {
	case ReEarlyBound, ReLateBound:
		return true
	}
	return false
}

func IsRegionVar(r Region) bool {
	_, ok := r.(ReVar)
	return ok
}

// EscapesDepth reports whether r is late-bound by a binder further out than depth
func EscapesDepth(r Region, depth DebruijnIndex) bool {
	lb, ok := r.(ReLateBound)
	return ok && lb.Debruijn > depth
}
