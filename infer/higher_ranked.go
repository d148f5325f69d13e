package infer

import (
	"fmt"
	"iter"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/tyinfer/infer/origin"
	"github.com/cottand/tyinfer/infer/region"
	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
	"github.com/cottand/tyinfer/tyerr"
	"github.com/hashicorp/go-set/v3"
)

type boundRegionComparer struct{}

func (boundRegionComparer) Compare(a, b ty.BoundRegion) int { return a.Compare(b) }

// BoundRegionMap maps the regions bound by a binder to what replaced them,
// ordered by bound region so that iterating it is deterministic
type BoundRegionMap struct {
	m *immutable.SortedMap[ty.BoundRegion, ty.Region]
}

func newBoundRegionMap(replaced map[ty.BoundRegion]ty.Region) BoundRegionMap {
	b := immutable.NewSortedMapBuilder[ty.BoundRegion, ty.Region](boundRegionComparer{})
	for br, r := range replaced {
		b.Set(br, r)
	}
	return BoundRegionMap{m: b.Map()}
}

func (m BoundRegionMap) Len() int {
	if m.m == nil {
		return 0
	}
	return m.m.Len()
}

func (m BoundRegionMap) Get(br ty.BoundRegion) (ty.Region, bool) {
	if m.m == nil {
		return nil, false
	}
	return m.m.Get(br)
}

func (m BoundRegionMap) All() iter.Seq2[ty.BoundRegion, ty.Region] {
	return func(yield func(ty.BoundRegion, ty.Region) bool) {
		if m.m == nil {
			return
		}
		itr := m.m.Iterator()
		for !itr.Done() {
			br, r, _ := itr.Next()
			if !yield(br, r) {
				return
			}
		}
	}
}

// SkolemizationMap maps each region bound by a skolemized binder to its placeholder
type SkolemizationMap = BoundRegionMap

// ReplaceLateBoundRegionsWithFreshVar instantiates the regions bound by b
// with fresh region variables
func ReplaceLateBoundRegionsWithFreshVar[T any](c *InferCtxt, span source.Span, when origin.LateBoundRegionConversionTime, b ty.Binder[T]) (T, BoundRegionMap) {
	value, replaced := ty.ReplaceLateBoundRegions(b, func(br ty.BoundRegion) ty.Region {
		return c.NextRegionVar(origin.LateBoundRegionOrigin(span, br, when))
	})
	return value, newBoundRegionMap(replaced)
}

// SkolemizeLateBoundRegions replaces the regions bound by b with
// placeholders which stand for any region at all. It must be called inside s
func SkolemizeLateBoundRegions[T any](c *InferCtxt, b ty.Binder[T], s CombinedSnapshot) (T, SkolemizationMap) {
	value, replaced := ty.ReplaceLateBoundRegions(b, func(br ty.BoundRegion) ty.Region {
		return c.regions.NewSkolemized(br, s.regions)
	})
	logger.Debug("skolemized", "placeholders", len(replaced))
	return value, newBoundRegionMap(replaced)
}

// LeakCheck fails if a placeholder of skol became related, since s was
// taken, to anything but itself or region variables confined to s
func (c *InferCtxt) LeakCheck(skol SkolemizationMap, s CombinedSnapshot) error {
	br, tainted, ok := c.leakCheck(skol, s)
	if !ok {
		return tyerr.RegionsInsufficientlyPolymorphic{BR: br, Region: tainted}
	}
	return nil
}

func (c *InferCtxt) leakCheck(skol SkolemizationMap, s CombinedSnapshot) (ty.BoundRegion, ty.Region, bool) {
	newVars := set.From(c.regionVarsConfinedToSnapshot(s))
	for br, placeholder := range skol.All() {
		for _, tainted := range c.regions.Tainted(s.regions, placeholder) {
			if v, ok := tainted.(ty.ReVar); ok {
				if newVars.Contains(v.Vid) {
					continue
				}
			} else if tainted == placeholder {
				continue
			}
			logger.Debug("leak check failed", "br", br.String(), "placeholder", placeholder, "tainted", tainted)
			return br, tainted, false
		}
	}
	return ty.BoundRegion{}, nil, true
}

// regionVarsConfinedToSnapshot lists the region variables created since s
// that no variable older than s can reach
func (c *InferCtxt) regionVarsConfinedToSnapshot(s CombinedSnapshot) []ty.RegionVid {
	created := c.regions.VarsCreatedSince(s.regions)

	var escaping []ty.RegionVid
	for _, t := range c.types.TypesEscapingSnapshot(s.types) {
		for _, r := range ty.CollectRegions(t) {
			if v, ok := r.(ty.ReVar); ok {
				escaping = append(escaping, v.Vid)
			}
		}
	}
	if len(escaping) == 0 {
		return created
	}
	return region.DiffVids(created, region.SortedVids(escaping))
}

// PlugLeaks puts the bound regions skol replaced back into value, which
// must have passed LeakCheck. Everything tainted by a placeholder becomes
// the region it stood for, bound by the innermost binder around it. Outside
// of any binder, a fresh region variable is used instead
func PlugLeaks[T any](c *InferCtxt, skol SkolemizationMap, s CombinedSnapshot, value T) T {
	if skol.Len() == 0 {
		return value
	}
	if br, r, ok := c.leakCheck(skol, s); !ok {
		panic(fmt.Sprintf("infer: plugging leaks of %s, which leaked to %s", br, r))
	}

	inverse := map[ty.Region]ty.BoundRegion{}
	for br, placeholder := range skol.All() {
		for _, tainted := range c.regions.Tainted(s.regions, placeholder) {
			inverse[tainted] = br
		}
	}

	value = ResolveTypeVarsIfPossible(c, value)
	return foldFreeRegions(value, func(r ty.Region, depth ty.DebruijnIndex) ty.Region {
		br, ok := inverse[r]
		if !ok {
			return r
		}
		if depth > ty.InnermostBinder {
			return ty.ReLateBound{Debruijn: depth - 1, BR: br}
		}
		return c.NextRegionVar(origin.NewRegionVariableOrigin(origin.MiscVariable, source.DummySpan))
	})
}

// ConstructSkolemizedSubsts returns substitutions for generics where each
// type parameter stands for itself and each region parameter for a
// placeholder, so that whatever holds for them holds for any instantiation
func (c *InferCtxt) ConstructSkolemizedSubsts(generics ty.Generics, s CombinedSnapshot) (*ty.Substs, SkolemizationMap) {
	substs := &ty.Substs{
		Types:   make([]ty.Ty, len(generics.Types)),
		Regions: make([]ty.Region, len(generics.Regions)),
	}
	for i, p := range generics.Types {
		substs.Types[i] = ty.Param{Index: p.Index, Name: p.Name}
	}
	replaced := map[ty.BoundRegion]ty.Region{}
	for i, p := range generics.Regions {
		br := ty.BrNamedOf(p.Name)
		r := c.regions.NewSkolemized(br, s.regions)
		substs.Regions[i] = r
		replaced[br] = r
	}
	return substs, newBoundRegionMap(replaced)
}

// foldFreeRegions rewrites the regions of v which are not bound within v
func foldFreeRegions[T any](v T, fn func(r ty.Region, depth ty.DebruijnIndex) ty.Region) T {
	return ty.FoldRegions(v, func(r ty.Region, depth ty.DebruijnIndex) ty.Region {
		if lb, ok := r.(ty.ReLateBound); ok && lb.Debruijn < depth {
			return r
		}
		return fn(r, depth)
	})
}

// higherRankedSub requires binder a to be a subtype of binder b: a must be
// at least as polymorphic as b. The regions bound by b become placeholders,
// those bound by a become variables, and the placeholders must not leak
func higherRankedSub[T any](f combineFields, a, b ty.Binder[T], relate func(Relation, T, T) (T, error)) (ty.Binder[T], error) {
	c := f.infcx
	return CommitIfOK(c, func(s CombinedSnapshot) (ty.Binder[T], error) {
		aPrime, _ := ReplaceLateBoundRegionsWithFreshVar(c, f.span(), higherRankedType, a)
		bPrime, skol := SkolemizeLateBoundRegions(c, b, s)

		result, err := relate(f.sub(), aPrime, bPrime)
		if err != nil {
			return ty.Binder[T]{}, err
		}

		if br, tainted, ok := c.leakCheck(skol, s); !ok {
			if f.aIsExpected {
				return ty.Binder[T]{}, tyerr.RegionsInsufficientlyPolymorphic{BR: br, Region: tainted}
			}
			return ty.Binder[T]{}, tyerr.RegionsOverlyPolymorphic{BR: br, Region: tainted}
		}
		return ty.Bind(result), nil
	})
}

var higherRankedType = origin.LateBoundRegionConversionTime{Kind: origin.HigherRankedType}

// higherRankedLub computes the least upper bound of two binders. Region
// variables made up while relating, and related only to the variables
// standing for a's bound regions, become bound in the result
func higherRankedLub[T any](r *Lub, a, b ty.Binder[T], relate func(Relation, T, T) (T, error)) (ty.Binder[T], error) {
	c := r.infcx
	return CommitIfOK(c, func(s CombinedSnapshot) (ty.Binder[T], error) {
		aFresh, aMap := ReplaceLateBoundRegionsWithFreshVar(c, r.span(), higherRankedType, a)
		bFresh, _ := ReplaceLateBoundRegionsWithFreshVar(c, r.span(), higherRankedType, b)

		result0, err := relate(r.lub(), aFresh, bFresh)
		if err != nil {
			return ty.Binder[T]{}, err
		}
		result0 = ResolveTypeVarsIfPossible(c, result0)

		newVars := set.From(c.regionVarsConfinedToSnapshot(s))
		result1 := foldFreeRegions(result0, func(r0 ty.Region, depth ty.DebruijnIndex) ty.Region {
			if !isVarIn(newVars, r0) {
				return r0
			}
			tainted := c.regions.Tainted(s.regions, r0)
			for _, t := range tainted {
				if !isVarIn(newVars, t) {
					return r0
				}
			}
			for br, aR := range aMap.All() {
				for _, t := range tainted {
					if t == aR {
						return ty.ReLateBound{Debruijn: depth, BR: br}
					}
				}
			}
			panic(fmt.Sprintf("infer: region %s is not associated with any bound region of %v", r0, r.span()))
		})
		return ty.Bind(result1), nil
	})
}

// higherRankedGlb computes the greatest lower bound of two binders. A new
// region related to exactly one bound region of each side becomes that
// bound region of a. One related to several becomes a new bound region
func higherRankedGlb[T any](r *Glb, a, b ty.Binder[T], relate func(Relation, T, T) (T, error)) (ty.Binder[T], error) {
	c := r.infcx
	return CommitIfOK(c, func(s CombinedSnapshot) (ty.Binder[T], error) {
		aFresh, aMap := ReplaceLateBoundRegionsWithFreshVar(c, r.span(), higherRankedType, a)
		bFresh, bMap := ReplaceLateBoundRegionsWithFreshVar(c, r.span(), higherRankedType, b)
		aVars, bVars := varIDs(aMap), varIDs(bMap)

		result0, err := relate(r.glb(), aFresh, bFresh)
		if err != nil {
			return ty.Binder[T]{}, err
		}
		result0 = ResolveTypeVarsIfPossible(c, result0)

		newVars := set.From(c.regionVarsConfinedToSnapshot(s))
		result1 := foldFreeRegions(result0, func(r0 ty.Region, depth ty.DebruijnIndex) ty.Region {
			if !isVarIn(newVars, r0) {
				return r0
			}
			var aR, bR ty.Region
			onlyNewVars := true
			for _, t := range c.regions.Tainted(s.regions, r0) {
				switch {
				case isVarIn(aVars, t):
					if aR != nil {
						return c.FreshBoundRegion(depth)
					}
					aR = t
				case isVarIn(bVars, t):
					if bR != nil {
						return c.FreshBoundRegion(depth)
					}
					bR = t
				case !isVarIn(newVars, t):
					onlyNewVars = false
				}
			}
			switch {
			case aR != nil && bR != nil && onlyNewVars:
				return revLookup(aMap, aR, depth)
			case aR == nil && bR == nil:
				return r0
			}
			return c.FreshBoundRegion(depth)
		})
		return ty.Bind(result1), nil
	})
}

func varIDs(m BoundRegionMap) *set.Set[ty.RegionVid] {
	vids := set.New[ty.RegionVid](m.Len())
	for _, r := range m.All() {
		v, ok := r.(ty.ReVar)
		if !ok {
			panic(fmt.Sprintf("infer: bound region was replaced by %s, not a variable", r))
		}
		vids.Insert(v.Vid)
	}
	return vids
}

func isVarIn(vids *set.Set[ty.RegionVid], r ty.Region) bool {
	v, ok := r.(ty.ReVar)
	return ok && vids.Contains(v.Vid)
}

func revLookup(m BoundRegionMap, r ty.Region, depth ty.DebruijnIndex) ty.Region {
	for br, replaced := range m.All() {
		if replaced == r {
			return ty.ReLateBound{Debruijn: depth, BR: br}
		}
	}
	panic(fmt.Sprintf("infer: could not find the bound region %s stands for", r))
}
