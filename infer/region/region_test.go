package region

import (
	"testing"

	"github.com/cottand/tyinfer/infer/origin"
	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scope tree used throughout: 1 is the function body, 2 is nested in 1, 3 in 2, 4 in 1
func testDB() *ty.MemDB {
	return ty.NewMemDB().AddScope(2, 1).AddScope(3, 2).AddScope(4, 1)
}

var (
	testOrigin = origin.NewSubregionOrigin(origin.Subtype, source.DummySpan)
	freeA      = ty.ReFree{Scope: 1, BR: ty.BrNamedOf("a")}
	freeB      = ty.ReFree{Scope: 1, BR: ty.BrNamedOf("b")}
)

func scope(s ty.ScopeID) ty.Region { return ty.ReScope{Scope: s} }

func newVar(b *Bindings) ty.ReVar {
	return ty.ReVar{Vid: b.NewRegionVar(origin.NewRegionVariableOrigin(origin.MiscVariable, source.DummySpan))}
}

func TestMakeSubregion(t *testing.T) {
	b := NewBindings(testDB())
	v0, v1 := newVar(b), newVar(b)

	b.MakeSubregion(testOrigin, v0, v1)
	b.MakeSubregion(testOrigin, v0, v1)
	b.MakeSubregion(testOrigin, scope(2), v0)
	b.MakeSubregion(testOrigin, v1, scope(1))
	b.MakeSubregion(testOrigin, v1, ty.Static)
	b.MakeSubregion(testOrigin, v1, v1)

	assert.Equal(t, []Constraint{
		{Kind: VarSubVar, Sub: v0.Vid, Sup: v1.Vid},
		{Kind: RegSubVar, Region: scope(2), Sup: v0.Vid},
		{Kind: VarSubReg, Sub: v1.Vid, Region: scope(1)},
	}, b.constraintOrder)

	b.MakeSubregion(testOrigin, scope(2), scope(1))
	b.MakeSubregion(testOrigin, scope(2), scope(2))
	assert.Len(t, b.verifys, 1)

	assert.Panics(t, func() {
		b.MakeSubregion(testOrigin, ty.ReLateBound{Debruijn: 1, BR: ty.BrAnonOf(0)}, v0)
	})
}

func TestLubGlbRegions(t *testing.T) {
	b := NewBindings(testDB())

	assert.Equal(t, ty.Static, b.LubRegions(testOrigin, ty.Static, scope(1)))
	assert.Equal(t, scope(1), b.GlbRegions(testOrigin, ty.Static, scope(1)))
	assert.Equal(t, scope(2), b.LubRegions(testOrigin, scope(2), scope(2)))

	lub := b.LubRegions(testOrigin, scope(2), scope(3))
	require.IsType(t, ty.ReVar{}, lub)
	assert.Equal(t, lub, b.LubRegions(testOrigin, scope(2), scope(3)), "lub variables are cached per pair")

	glb := b.GlbRegions(testOrigin, scope(2), scope(3))
	assert.NotEqual(t, lub, glb)

	errs := b.ResolveRegions(NewFreeRegionMap(), 0)
	assert.Empty(t, errs)
	assert.Equal(t, scope(2), b.ResolveVar(lub.(ty.ReVar).Vid))
}

func TestSnapshotRollback(t *testing.T) {
	b := NewBindings(testDB())
	v0 := newVar(b)

	s := b.StartSnapshot()
	v1 := newVar(b)
	b.MakeSubregion(testOrigin, v0, v1)
	b.MakeSubregion(testOrigin, scope(1), scope(2))
	b.AddGiven(freeA, v0.Vid)
	b.LubRegions(testOrigin, scope(2), scope(3))
	sk := b.NewSkolemized(ty.BrNamedOf("x"), s)
	assert.Equal(t, ty.ReSkolemized{Index: 0, BR: ty.BrNamedOf("x")}, sk)
	assert.Equal(t, []ty.RegionVid{1, 2}, b.VarsCreatedSince(s))

	b.RollbackTo(s)
	assert.Equal(t, 1, b.NumVars())
	assert.Empty(t, b.constraintOrder)
	assert.Empty(t, b.constraints)
	assert.Empty(t, b.verifys)
	assert.Empty(t, b.givens)
	assert.Empty(t, b.lubs)
	assert.False(t, b.InSnapshot())
	assert.Equal(t, uint32(0), b.skolemizationCount)
}

func TestSnapshotCommit(t *testing.T) {
	b := NewBindings(testDB())
	outer := b.StartSnapshot()
	v0 := newVar(b)
	inner := b.StartSnapshot()
	b.MakeSubregion(testOrigin, scope(2), v0)
	b.NewSkolemized(ty.BrAnonOf(0), inner)

	assert.Panics(t, func() { b.Commit(outer) }, "outer snapshot consumed before inner")

	b.Commit(inner)
	assert.Equal(t, uint32(0), b.skolemizationCount)
	assert.Panics(t, func() { b.Commit(inner) })

	b.RollbackTo(outer)
	assert.Equal(t, 0, b.NumVars())
	assert.Empty(t, b.constraintOrder)
}

func TestTainted(t *testing.T) {
	b := NewBindings(testDB())
	v0 := newVar(b)
	b.MakeSubregion(testOrigin, v0, scope(3))

	s := b.StartSnapshot()
	v1, v2, v3 := newVar(b), newVar(b), newVar(b)
	b.MakeSubregion(testOrigin, v0, v1)
	b.MakeSubregion(testOrigin, v2, v1)
	b.MakeSubregion(testOrigin, scope(4), v3)

	assert.ElementsMatch(t, []ty.Region{v0, v1, v2}, b.Tainted(s, v0))
	assert.ElementsMatch(t, []ty.Region{v3, scope(4)}, b.Tainted(s, v3))
	assert.Equal(t, []ty.Region{scope(1)}, b.Tainted(s, scope(1)))
	b.RollbackTo(s)
}

func TestVidSets(t *testing.T) {
	assert.Equal(t, []ty.RegionVid{1, 2, 5}, SortedVids([]ty.RegionVid{5, 1, 2, 5, 1}))
	assert.Equal(t, []ty.RegionVid{1, 5}, DiffVids([]ty.RegionVid{1, 2, 5}, []ty.RegionVid{2, 3}))
}

func TestFreeRegionMap(t *testing.T) {
	freeC := ty.ReFree{Scope: 1, BR: ty.BrNamedOf("c")}
	m := NewFreeRegionMap().Relate(freeA, freeB)
	assert.True(t, m.SubFreeRegion(freeA, freeB))
	assert.False(t, m.SubFreeRegion(freeB, freeA))

	m2 := m.Relate(freeB, freeC)
	assert.True(t, m2.SubFreeRegion(freeA, freeC), "relations are transitive")
	assert.False(t, m.SubFreeRegion(freeA, freeC), "relating returns a new map")

	assert.Equal(t, freeB, m.LubFreeRegions(freeA, freeB))
	assert.Equal(t, ty.Static, m.LubFreeRegions(freeA, freeC))
}

func TestLubConcreteRegions(t *testing.T) {
	db := testDB()
	free := NewFreeRegionMap()
	tests := []struct {
		name     string
		a, b     ty.Region
		expected ty.Region
	}{
		{"empty", ty.Empty, scope(2), scope(2)},
		{"static", scope(2), ty.Static, ty.Static},
		{"nested scopes", scope(2), scope(3), scope(2)},
		{"sibling scopes", scope(3), scope(4), scope(1)},
		{"free and inner scope", freeA, scope(3), freeA},
		{"unrelated free regions", freeA, freeB, ty.Static},
		{"skolemized", ty.ReSkolemized{BR: ty.BrAnonOf(0)}, scope(1), ty.Static},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LubConcreteRegions(db, free, tt.a, tt.b))
		})
	}
	assert.Panics(t, func() { LubConcreteRegions(db, free, ty.ReVar{}, scope(1)) })
}

func TestIsSubregionOf(t *testing.T) {
	db := testDB()
	free := NewFreeRegionMap().Relate(freeA, freeB)
	assert.True(t, IsSubregionOf(db, free, scope(3), scope(1)))
	assert.False(t, IsSubregionOf(db, free, scope(1), scope(3)))
	assert.True(t, IsSubregionOf(db, free, scope(3), freeA))
	assert.True(t, IsSubregionOf(db, free, freeA, freeB))
	assert.False(t, IsSubregionOf(db, free, freeB, freeA))
	assert.True(t, IsSubregionOf(db, free, ty.Empty, freeA))
	assert.True(t, IsSubregionOf(db, free, freeA, ty.Static))
	assert.False(t, IsSubregionOf(db, free, ty.Static, freeA))
}

func TestResolveRegions(t *testing.T) {
	t.Run("grows from the empty region", func(t *testing.T) {
		b := NewBindings(testDB())
		v0, v1, v2 := newVar(b), newVar(b), newVar(b)
		b.MakeSubregion(testOrigin, scope(3), v0)
		b.MakeSubregion(testOrigin, scope(4), v0)
		b.MakeSubregion(testOrigin, v0, v1)
		b.MakeSubregion(testOrigin, v1, scope(1))

		errs := b.ResolveRegions(NewFreeRegionMap(), 0)
		assert.Empty(t, errs)
		assert.Equal(t, scope(1), b.ResolveVar(v0.Vid))
		assert.Equal(t, scope(1), b.ResolveVar(v1.Vid))
		assert.Equal(t, ty.Empty, b.ResolveVar(v2.Vid))
	})

	t.Run("sub sup conflict", func(t *testing.T) {
		b := NewBindings(testDB())
		v0 := newVar(b)
		b.MakeSubregion(testOrigin, scope(2), v0)
		b.MakeSubregion(testOrigin, v0, scope(3))

		errs := b.ResolveRegions(NewFreeRegionMap(), 0)
		require.Len(t, errs, 1)
		var conflict SubSupConflict
		require.ErrorAs(t, errs[0], &conflict)
		assert.Equal(t, scope(2), conflict.Sub)
		assert.Equal(t, scope(3), conflict.Sup)
		assert.Equal(t, ty.Static, b.ResolveVar(v0.Vid))
	})

	t.Run("concrete failure", func(t *testing.T) {
		b := NewBindings(testDB())
		b.MakeSubregion(testOrigin, scope(1), scope(3))

		errs := b.ResolveRegions(NewFreeRegionMap(), 0)
		require.Len(t, errs, 1)
		assert.Equal(t, ConcreteFailure{Origin: testOrigin, Sub: scope(1), Sup: scope(3)}, errs[0])
	})

	t.Run("generic bound", func(t *testing.T) {
		b := NewBindings(testDB())
		v0 := newVar(b)
		b.MakeSubregion(testOrigin, scope(2), v0)
		kind := GenericKind{Param: ty.Param{Index: 0, Name: "T"}}
		b.VerifyGenericBound(testOrigin, kind, v0, []ty.Region{scope(3), scope(1)})
		b.VerifyGenericBound(testOrigin, kind, v0, []ty.Region{scope(3)})

		errs := b.ResolveRegions(NewFreeRegionMap(), 0)
		require.Len(t, errs, 1)
		failure, ok := errs[0].(GenericBoundFailure)
		require.True(t, ok)
		assert.Equal(t, scope(2), failure.Sub)
		assert.Contains(t, failure.Error(), "`T` may not live long enough")
	})

	t.Run("givens are assumed", func(t *testing.T) {
		b := NewBindings(testDB())
		v0 := newVar(b)
		b.AddGiven(freeA, v0.Vid)
		b.MakeSubregion(testOrigin, freeA, v0)
		b.MakeSubregion(testOrigin, v0, scope(2))

		assert.Empty(t, b.ResolveRegions(NewFreeRegionMap(), 0))
	})

	t.Run("only once and outside snapshots", func(t *testing.T) {
		b := NewBindings(testDB())
		s := b.StartSnapshot()
		assert.Panics(t, func() { b.ResolveRegions(NewFreeRegionMap(), 0) })
		b.Commit(s)
		assert.Panics(t, func() { b.ResolveVar(0) })
		b.ResolveRegions(NewFreeRegionMap(), 0)
		assert.Panics(t, func() { b.ResolveRegions(NewFreeRegionMap(), 0) })
	})
}
