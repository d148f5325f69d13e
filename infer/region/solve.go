package region

import (
	"fmt"
	"strings"

	"github.com/cottand/tyinfer/infer/origin"
	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
)

type varValue struct {
	region ty.Region
	// err is set when no region satisfies the variable's constraints
	err bool
}

// ResolutionError is a set of region constraints that cannot all hold
type ResolutionError interface {
	error
	Span() source.Span
	isResolutionError()
}

// ConcreteFailure means sub <= sup was required between two concrete regions, but does not hold
type ConcreteFailure struct {
	Origin   origin.SubregionOrigin
	Sub, Sup ty.Region
}

func (e ConcreteFailure) Error() string {
	return fmt.Sprintf("lifetime %s does not outlive lifetime %s", e.Sup, e.Sub)
}
func (e ConcreteFailure) Span() source.Span { return e.Origin.Span() }

// GenericBoundFailure means Sub is not within any of Kind's declared Bounds
type GenericBoundFailure struct {
	Origin origin.SubregionOrigin
	Kind   GenericKind
	Sub    ty.Region
	Bounds []ty.Region
}

func (e GenericBoundFailure) Error() string {
	bounds := make([]string, len(e.Bounds))
	for i, b := range e.Bounds {
		bounds[i] = b.String()
	}
	return fmt.Sprintf("the type `%s` may not live long enough: %s is not within any of [%s]",
		e.Kind, e.Sub, strings.Join(bounds, ", "))
}
func (e GenericBoundFailure) Span() source.Span { return e.Origin.Span() }

// SubSupConflict means a variable must contain Sub and be within Sup,
// yet Sub is not within Sup
type SubSupConflict struct {
	VarOrigin origin.RegionVariableOrigin
	SubOrigin origin.SubregionOrigin
	Sub       ty.Region
	SupOrigin origin.SubregionOrigin
	Sup       ty.Region
}

func (e SubSupConflict) Error() string {
	return fmt.Sprintf("cannot infer an appropriate lifetime for %s: it must outlive %s but be within %s",
		e.VarOrigin, e.Sub, e.Sup)
}
func (e SubSupConflict) Span() source.Span { return e.VarOrigin.Span() }

func (ConcreteFailure) isResolutionError()     {}
func (GenericBoundFailure) isResolutionError() {}
func (SubSupConflict) isResolutionError()      {}

// ResolveRegions solves every variable and checks every verify condition.
// It must be called once, outside of any snapshot
func (b *Bindings) ResolveRegions(free FreeRegionMap, subject source.NodeID) []ResolutionError {
	if b.InSnapshot() {
		panic("region: cannot resolve regions inside a snapshot")
	}
	if b.values != nil {
		panic("region: regions were already resolved")
	}
	logger.Debug("resolve regions", "subject", subject, "vars", b.NumVars(), "constraints", len(b.constraintOrder))

	values := make([]varValue, b.NumVars())
	for i := range values {
		values[i] = varValue{region: ty.Empty}
	}
	b.expand(free, values)

	var errs []ResolutionError
	errs = b.checkUpperBounds(free, values, errs)
	errs = b.checkVerifys(free, values, errs)
	b.values = values
	return errs
}

// ResolveVar returns the value a variable was solved to. Variables whose
// constraints could not be satisfied resolve to 'static
func (b *Bindings) ResolveVar(vid ty.RegionVid) ty.Region {
	if b.values == nil {
		panic(fmt.Sprintf("region: %s resolved before ResolveRegions", vid))
	}
	v := b.values[vid]
	if v.err {
		return ty.Static
	}
	return v.region
}

func (b *Bindings) Resolved() bool { return b.values != nil }

// expand grows each variable from the empty region until it contains
// all its lower bounds
func (b *Bindings) expand(free FreeRegionMap, values []varValue) {
	for changed := true; changed; {
		changed = false
		for _, c := range b.constraintOrder {
			var lower ty.Region
			switch c.Kind {
			case RegSubVar:
				if fr, ok := c.Region.(ty.ReFree); ok && b.givens[given{free: fr, vid: c.Sup}] {
					continue
				}
				lower = c.Region
			case VarSubVar:
				lower = values[c.Sub].region
			default:
				continue
			}
			current := values[c.Sup].region
			lub := LubConcreteRegions(b.db, free, lower, current)
			if lub != current {
				values[c.Sup].region = lub
				changed = true
			}
		}
	}
}

// checkUpperBounds reports variables which grew past one of their upper bounds
func (b *Bindings) checkUpperBounds(free FreeRegionMap, values []varValue, errs []ResolutionError) []ResolutionError {
	reported := map[ty.RegionVid]bool{}
	for _, c := range b.constraintOrder {
		if c.Kind != VarSubReg {
			continue
		}
		if IsSubregionOf(b.db, free, values[c.Sub].region, c.Region) {
			continue
		}
		values[c.Sub].err = true
		if reported[c.Sub] {
			continue
		}
		if conflict, ok := b.findConflict(free, c.Sub, reported); ok {
			errs = append(errs, conflict)
		}
	}
	return errs
}

type bound struct {
	region ty.Region
	origin origin.SubregionOrigin
}

// findConflict looks for a concrete lower bound of vid which is not within
// one of its concrete upper bounds. Variables visited on the way are marked
// as reported so that the same conflict is not reported twice
func (b *Bindings) findConflict(free FreeRegionMap, vid ty.RegionVid, reported map[ty.RegionVid]bool) (SubSupConflict, bool) {
	lowers := b.collectBounds(vid, true, reported)
	uppers := b.collectBounds(vid, false, reported)
	for _, lower := range lowers {
		for _, upper := range uppers {
			if !IsSubregionOf(b.db, free, lower.region, upper.region) {
				return SubSupConflict{
					VarOrigin: b.varOrigins[vid],
					SubOrigin: lower.origin,
					Sub:       lower.region,
					SupOrigin: upper.origin,
					Sup:       upper.region,
				}, true
			}
		}
	}
	return SubSupConflict{}, false
}

// collectBounds walks the constraint graph from vid, backwards for lower
// bounds and forwards for upper bounds
func (b *Bindings) collectBounds(vid ty.RegionVid, lower bool, visited map[ty.RegionVid]bool) []bound {
	var bounds []bound
	seen := map[ty.RegionVid]bool{vid: true}
	stack := []ty.RegionVid{vid}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited[current] = true
		for _, c := range b.constraintOrder {
			switch {
			case c.Kind == VarSubVar && lower && c.Sup == current && !seen[c.Sub]:
				seen[c.Sub] = true
				stack = append(stack, c.Sub)
			case c.Kind == VarSubVar && !lower && c.Sub == current && !seen[c.Sup]:
				seen[c.Sup] = true
				stack = append(stack, c.Sup)
			case c.Kind == RegSubVar && lower && c.Sup == current:
				bounds = append(bounds, bound{region: c.Region, origin: b.constraints[c]})
			case c.Kind == VarSubReg && !lower && c.Sub == current:
				bounds = append(bounds, bound{region: c.Region, origin: b.constraints[c]})
			}
		}
	}
	return bounds
}

func (b *Bindings) normalize(values []varValue, r ty.Region) ty.Region {
	if v, ok := r.(ty.ReVar); ok {
		if values[v.Vid].err {
			return ty.Static
		}
		return values[v.Vid].region
	}
	return r
}

func (b *Bindings) checkVerifys(free FreeRegionMap, values []varValue, errs []ResolutionError) []ResolutionError {
	for _, v := range b.verifys {
		sub := b.normalize(values, v.sub)
		switch v.kind {
		case verifyRegSubReg:
			sup := b.normalize(values, v.sup)
			if !IsSubregionOf(b.db, free, sub, sup) {
				errs = append(errs, ConcreteFailure{Origin: v.origin, Sub: sub, Sup: sup})
			}
		case verifyGenericBound:
			satisfied := false
			for _, bnd := range v.bounds {
				if IsSubregionOf(b.db, free, sub, b.normalize(values, bnd)) {
					satisfied = true
					break
				}
			}
			if !satisfied {
				errs = append(errs, GenericBoundFailure{Origin: v.origin, Kind: v.generic, Sub: sub, Bounds: v.bounds})
			}
		}
	}
	return errs
}
