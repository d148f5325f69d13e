package region

import (
	"hash/fnv"
	"strconv"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/tyinfer/ty"
)

type freeRegionHasher struct{}

func (freeRegionHasher) Hash(fr ty.FreeRegion) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatUint(uint64(fr.Scope), 10)))
	_, _ = h.Write([]byte{byte(fr.BR.Kind)})
	_, _ = h.Write([]byte(strconv.FormatUint(uint64(fr.BR.Index), 10)))
	_, _ = h.Write([]byte(fr.BR.Name))
	return h.Sum32()
}

func (freeRegionHasher) Equal(a, b ty.FreeRegion) bool { return a == b }

// FreeRegionMap holds the known relations between the free regions of the
// function being checked, as implied by its signature. It is persistent:
// Relate returns a new map
type FreeRegionMap struct {
	// supers maps each free region to all the free regions it is known to be within
	supers *immutable.Map[ty.FreeRegion, immutable.Set[ty.FreeRegion]]
}

func NewFreeRegionMap() FreeRegionMap {
	return FreeRegionMap{supers: immutable.NewMap[ty.FreeRegion, immutable.Set[ty.FreeRegion]](freeRegionHasher{})}
}

// Relate records that sub is within sup, along with what follows transitively
func (m FreeRegionMap) Relate(sub, sup ty.FreeRegion) FreeRegionMap {
	if m.supers == nil {
		m = NewFreeRegionMap()
	}
	if m.SubFreeRegion(sub, sup) {
		return m
	}
	// everything below sub, sub included, is now below sup and everything above sup
	above := m.supersOf(sup).Add(sup)
	below := []ty.FreeRegion{sub}
	itr := m.supers.Iterator()
	for !itr.Done() {
		fr, supers, _ := itr.Next()
		if supers.Has(sub) {
			below = append(below, fr)
		}
	}
	supersMap := m.supers
	for _, fr := range below {
		current := m.supersOf(fr)
		for _, s := range above.Items() {
			if s != fr {
				current = current.Add(s)
			}
		}
		supersMap = supersMap.Set(fr, current)
	}
	return FreeRegionMap{supers: supersMap}
}

func (m FreeRegionMap) supersOf(fr ty.FreeRegion) immutable.Set[ty.FreeRegion] {
	if m.supers != nil {
		if s, ok := m.supers.Get(fr); ok {
			return s
		}
	}
	return immutable.NewSet[ty.FreeRegion](freeRegionHasher{})
}

// SubFreeRegion reports whether sub is known to be within sup
func (m FreeRegionMap) SubFreeRegion(sub, sup ty.FreeRegion) bool {
	return sub == sup || m.supersOf(sub).Has(sup)
}

// LubFreeRegions returns the smallest region both a and b are within
func (m FreeRegionMap) LubFreeRegions(a, b ty.FreeRegion) ty.Region {
	switch {
	case m.SubFreeRegion(a, b):
		return b
	case m.SubFreeRegion(b, a):
		return a
	}
	return ty.Static
}

// IsSubregionOf decides sub <= sup for regions which are not variables
func IsSubregionOf(db ty.Database, free FreeRegionMap, sub, sup ty.Region) bool {
	if sub == sup {
		return true
	}
	switch sub := sub.(type) {
	case ty.ReEmpty:
		return true
	case ty.ReScope:
		switch sup := sup.(type) {
		case ty.ReScope:
			return db.IsSubscopeOf(sub.Scope, sup.Scope)
		case ty.ReFree:
			return db.IsSubscopeOf(sub.Scope, sup.Scope)
		}
	case ty.ReFree:
		if sup, ok := sup.(ty.ReFree); ok {
			return free.SubFreeRegion(sub, sup)
		}
	}
	_, supIsStatic := sup.(ty.ReStatic)
	return supIsStatic
}

// LubConcreteRegions returns the smallest region a and b are both within
func LubConcreteRegions(db ty.Database, free FreeRegionMap, a, b ty.Region) ty.Region {
	if ty.IsBound(a) || ty.IsBound(b) {
		panic("region: cannot take the lub of bound regions")
	}
	if ty.IsRegionVar(a) || ty.IsRegionVar(b) {
		panic("region: cannot take the lub of region variables")
	}
	if a == b {
		return a
	}
	switch {
	case a == ty.Static || b == ty.Static:
		return ty.Static
	case a == ty.Empty:
		return b
	case b == ty.Empty:
		return a
	}
	switch a := a.(type) {
	case ty.ReFree:
		switch b := b.(type) {
		case ty.ReScope:
			return lubFreeAndScope(db, a, b)
		case ty.ReFree:
			return free.LubFreeRegions(a, b)
		}
	case ty.ReScope:
		switch b := b.(type) {
		case ty.ReFree:
			return lubFreeAndScope(db, b, a)
		case ty.ReScope:
			if ancestor, ok := db.NearestCommonAncestor(a.Scope, b.Scope); ok {
				return ty.ReScope{Scope: ancestor}
			}
		}
	}
	return ty.Static
}

// a free region outlives every scope within the body it is free in
func lubFreeAndScope(db ty.Database, fr ty.ReFree, s ty.ReScope) ty.Region {
	if ancestor, ok := db.NearestCommonAncestor(fr.Scope, s.Scope); ok && ancestor == fr.Scope {
		return fr
	}
	return ty.Static
}
