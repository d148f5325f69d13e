package infer

import (
	"errors"
	"testing"

	"github.com/cottand/tyinfer/infer/origin"
	"github.com/cottand/tyinfer/infer/region"
	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
	"github.com/cottand/tyinfer/tyerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	misc       = origin.MiscOrigin(source.DummySpan)
	subOrigin  = origin.NewSubregionOrigin(origin.Subtype, source.DummySpan)
	miscRegion = origin.NewRegionVariableOrigin(origin.MiscVariable, source.DummySpan)

	i32 = ty.Prim{Kind: ty.PrimI32}
	i64 = ty.Prim{Kind: ty.PrimI64}
)

// scopes: 1 is the function body, 2 and 3 are siblings inside it
func testDB() *ty.MemDB {
	return ty.NewMemDB().
		AddScope(2, 1).
		AddScope(3, 1).
		AddItem(ty.Item{Def: "Cell", Variances: ty.ItemVariances{Types: []ty.Variance{ty.Invariant}}}).
		AddItem(ty.Item{Def: "Box", Variances: ty.ItemVariances{Types: []ty.Variance{ty.Covariant}}}).
		AddItem(ty.Item{Def: "Phantom", Variances: ty.ItemVariances{Types: []ty.Variance{ty.Bivariant}}})
}

func newCtxt() *InferCtxt { return New(testDB()) }

func parse(t *testing.T, src string) ty.Ty {
	t.Helper()
	typ, err := ty.Parse(src, nil)
	require.NoError(t, err)
	return typ
}

func lateBound(name string) ty.Region {
	return ty.ReLateBound{Debruijn: ty.InnermostBinder, BR: ty.BrNamedOf(name)}
}

func requireRelateError(t *testing.T, err error) tyerr.TypeError {
	t.Helper()
	var relErr *RelateError
	require.ErrorAs(t, err, &relErr)
	return relErr.Err
}

func TestEquateReflexive(t *testing.T) {
	testCases := []string{
		"i32",
		"(i32, bool)",
		"&'static mut [u8; 4]",
		"*const [char]",
		"fn(i32) -> bool",
		"for<'a> fn(&'a u8) -> &'a u8",
		"for<'a> fn(for<'b> fn(&'a u8, &'b u8))",
		"Vec<'static, i64>",
		"dyn Display + 'static",
		"{error}",
	}
	for _, src := range testCases {
		t.Run(src, func(t *testing.T) {
			c := newCtxt()
			a, b := parse(t, src), parse(t, src)
			res, err := c.Equate(true, origin.TypesTrace(misc, true, a, b)).Tys(a, b)
			require.NoError(t, err)
			assert.True(t, ty.Equal(a, res), "got %s", res)
			assert.Equal(t, 0, c.SnapshotDepth())
		})
	}
}

func TestSubBothWaysImpliesEquate(t *testing.T) {
	testCases := []struct {
		a, b     string
		bothWays bool
	}{
		{"&'static i32", "&'static i32", true},
		{"(?0, bool)", "(i32, bool)", true},
		{"Box<?0>", "Box<u8>", true},
		{"for<'a> fn(&'a u8)", "fn(&'static u8)", false},
		{"for<'a> fn(&'a u8)", "for<'b> fn(&'b u8)", true},
	}
	for _, tc := range testCases {
		t.Run(tc.a+" "+tc.b, func(t *testing.T) {
			c := newCtxt()
			c.NextTyVar()
			a, b := parse(t, tc.a), parse(t, tc.b)

			require.NoError(t, c.SubTypes(true, misc, a, b))
			err := c.SubTypes(true, misc, b, a)
			if !tc.bothWays {
				require.Error(t, err)
				assert.Error(t, c.CanEquate(a, b))
				return
			}
			require.NoError(t, err)
			assert.NoError(t, c.CanEquate(a, b))
		})
	}
}

func TestStructuralMismatches(t *testing.T) {
	testCases := []struct {
		a, b string
		want tyerr.TypeError
	}{
		{"i32", "bool", tyerr.Sorts{ExpectedFound: ty.ExpectedFound[ty.Ty]{Expected: i32, Found: ty.Prim{Kind: ty.PrimBool}}}},
		{"(i32, bool)", "(i32, bool, u8)", tyerr.TupleSize{ExpectedFound: ty.ExpectedFound[int]{Expected: 2, Found: 3}}},
		{"[u8; 3]", "[u8; 4]", tyerr.FixedArraySize{ExpectedFound: ty.ExpectedFound[uint64]{Expected: 3, Found: 4}}},
		{"fn(i32)", "fn(i32, i32)", tyerr.ArgCount{}},
		{"fn(i32, ...)", "fn(i32)", tyerr.VariadicMismatch{ExpectedFound: ty.ExpectedFound[bool]{Expected: true, Found: false}}},
		{"fn() -> !", "fn()", tyerr.ConvergenceMismatch{ExpectedFound: ty.ExpectedFound[bool]{Expected: true, Found: false}}},
		{"unsafe fn()", "fn()", tyerr.UnsafetyMismatch{ExpectedFound: ty.ExpectedFound[bool]{Expected: true, Found: false}}},
		{"*const i32", "*mut i32", tyerr.Mutability{Kind: tyerr.Pointers}},
		{"&'static i32", "&'static mut i32", tyerr.Mutability{Kind: tyerr.References}},
		{"Vec<i32>", "Vec<i32, bool>", tyerr.TyParamSize{ExpectedFound: ty.ExpectedFound[int]{Expected: 1, Found: 2}}},
		{"dyn Foo + 'static", "dyn Bar + 'static", tyerr.TraitsMismatch{ExpectedFound: ty.ExpectedFound[ty.DefID]{Expected: "Foo", Found: "Bar"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.a+" "+tc.b, func(t *testing.T) {
			c := newCtxt()
			err := c.CanEquate(parse(t, tc.a), parse(t, tc.b))
			require.Error(t, err)
			assert.Equal(t, tc.want, err)
		})
	}

	t.Run("sorts between different nominal types", func(t *testing.T) {
		c := newCtxt()
		err := c.CanEquate(parse(t, "Vec<i32>"), parse(t, "Option<i32>"))
		assert.IsType(t, tyerr.Sorts{}, err)
	})
	t.Run("unit against a tuple", func(t *testing.T) {
		c := newCtxt()
		err := c.CanEquate(parse(t, "()"), parse(t, "(i32,)"))
		assert.IsType(t, tyerr.Sorts{}, err)
	})
}

func TestMutableReferencesAreInvariant(t *testing.T) {
	c := newCtxt()
	err := c.SubTypes(true, misc, parse(t, "&'static mut i32"), parse(t, "&'static mut f64"))
	want := tyerr.Sorts{ExpectedFound: ty.ExpectedFound[ty.Ty]{Expected: i32, Found: ty.Prim{Kind: ty.PrimF64}}}
	assert.Equal(t, want, requireRelateError(t, err))

	// shared references are covariant, so a variable pointee may still become anything
	v := c.NextTyVar()
	require.NoError(t, c.SubTypes(true, misc, ty.MkRef(ty.Static, ty.Immutable, v), parse(t, "&'static i32")))
	assert.Equal(t, i32, ResolveTypeVarsIfPossible(c, v))
}

func TestExpectedFoundFollowsAIsExpected(t *testing.T) {
	c := newCtxt()
	err := c.SubTypes(false, misc, parse(t, "(i32, bool)"), parse(t, "(i32,)"))
	want := tyerr.TupleSize{ExpectedFound: ty.ExpectedFound[int]{Expected: 1, Found: 2}}
	assert.Equal(t, want, requireRelateError(t, err))
}

func TestProbeLeavesNoTrace(t *testing.T) {
	c := newCtxt()
	v := c.NextTyVar()
	iv := c.NextIntVar()

	Probe(c, func(CombinedSnapshot) struct{} {
		require.NoError(t, c.EqTypes(true, misc, v, parse(t, "(bool, u8)")))
		require.NoError(t, c.EqTypes(true, misc, iv, i64))
		c.NextTyVars(3)
		c.NextRegionVar(miscRegion)
		return struct{}{}
	})

	assert.Equal(t, v, ResolveTypeVarsIfPossible(c, v))
	assert.Equal(t, iv, c.ShallowResolve(iv))
	assert.Equal(t, 1, c.types.NumVars())
	assert.Equal(t, 0, c.regions.NumVars())
	assert.Equal(t, 0, c.SnapshotDepth())

	assert.Error(t, c.CanEquate(i32, i64))
	assert.NoError(t, c.CanEquate(v, i64))
	assert.Equal(t, v, ResolveTypeVarsIfPossible(c, v))
}

func TestCommitIfOK(t *testing.T) {
	t.Run("rolls back everything on failure", func(t *testing.T) {
		c := newCtxt()
		v := c.NextTyVar()
		_, err := CommitIfOK(c, func(CombinedSnapshot) (int, error) {
			c.NextTyVars(5)
			c.NextIntVar()
			c.NextFloatVar()
			c.NextRegionVar(miscRegion)
			require.NoError(t, c.EqTypes(true, misc, v, i32))
			return 0, errors.New("abandoned")
		})
		require.Error(t, err)

		assert.Equal(t, 1, c.types.NumVars())
		assert.Equal(t, 0, c.ints.Len())
		assert.Equal(t, 0, c.floats.Len())
		assert.Equal(t, 0, c.regions.NumVars())
		assert.Equal(t, v, ResolveTypeVarsIfPossible(c, v))
	})
	t.Run("keeps everything on success", func(t *testing.T) {
		c := newCtxt()
		v := c.NextTyVar()
		n, err := CommitIfOK(c, func(CombinedSnapshot) (int, error) {
			c.NextTyVars(5)
			c.NextRegionVar(miscRegion)
			return 5, c.EqTypes(true, misc, v, i32)
		})
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, 6, c.types.NumVars())
		assert.Equal(t, 1, c.regions.NumVars())
		assert.Equal(t, i32, ResolveTypeVarsIfPossible(c, v))
	})
	t.Run("commit unconditionally", func(t *testing.T) {
		c := newCtxt()
		CommitUnconditionally(c, func() ty.Ty { return c.NextTyVar() })
		assert.Equal(t, 1, c.types.NumVars())
	})
}

func TestSnapshotsAreLIFO(t *testing.T) {
	c := newCtxt()
	outer := c.startSnapshot()
	inner := c.startSnapshot()
	assert.Panics(t, func() { c.commitFrom(outer) })
	c.rollbackTo(inner)
	c.commitFrom(outer)
	assert.Equal(t, 0, c.SnapshotDepth())
	assert.Panics(t, func() { c.rollbackTo(outer) })
}

func TestCommitRegionsIfOK(t *testing.T) {
	c := newCtxt()
	v := c.NextTyVar()

	got, err := CommitRegionsIfOK(c, func() (ty.Ty, error) {
		r := c.NextRegionVar(miscRegion)
		MkSubr(c, subOrigin, r, ty.ReScope{Scope: 1})
		if err := c.EqTypes(true, misc, v, ty.MkRef(r, ty.Immutable, i32)); err != nil {
			return nil, err
		}
		return ResolveTypeVarsIfPossible(c, v), nil
	})
	require.NoError(t, err)

	ref := got.(*ty.Ref)
	assert.True(t, ty.IsRegionVar(ref.Region))
	assert.Equal(t, v, ResolveTypeVarsIfPossible(c, v), "type variables are rolled back")
	assert.Equal(t, 1, c.regions.NumVars(), "region variables survive")
}

func TestOccursCheck(t *testing.T) {
	t.Run("sub", func(t *testing.T) {
		c := newCtxt()
		v := c.NextTyVar()
		err := c.SubTypes(true, misc, v, parse(t, "&'static ?0"))
		assert.Equal(t, tyerr.CyclicTy{}, requireRelateError(t, err))
		assert.Equal(t, v, ResolveTypeVarsIfPossible(c, v))
	})
	t.Run("eq", func(t *testing.T) {
		c := newCtxt()
		v := c.NextTyVar()
		err := c.EqTypes(true, misc, parse(t, "(?0, i32)"), v)
		assert.Equal(t, tyerr.CyclicTy{}, requireRelateError(t, err))
	})
	t.Run("through an equated variable", func(t *testing.T) {
		c := newCtxt()
		v0, v1 := c.NextTyVar(), c.NextTyVar()
		require.NoError(t, c.EqTypes(true, misc, v0, v1))
		err := c.EqTypes(true, misc, v1, parse(t, "[?0]"))
		assert.Equal(t, tyerr.CyclicTy{}, requireRelateError(t, err))
	})
}

func TestResolution(t *testing.T) {
	t.Run("equated variable", func(t *testing.T) {
		c := newCtxt()
		v := c.NextTyVar()
		require.NoError(t, c.EqTypes(true, misc, v, i32))
		assert.Equal(t, i32, ResolveTypeVarsIfPossible(c, v))
	})
	t.Run("bounds propagate eagerly through variables", func(t *testing.T) {
		c := newCtxt()
		v0, v1 := c.NextTyVar(), c.NextTyVar()
		require.NoError(t, c.SubTypes(true, misc, v0, v1))
		require.NoError(t, c.SubTypes(true, misc, v1, i32))

		got, err := FullyResolve(c, v0)
		require.NoError(t, err)
		assert.Equal(t, i32, got)
	})
	t.Run("a bound between variables alone resolves nothing", func(t *testing.T) {
		c := newCtxt()
		v0, v1 := c.NextTyVar(), c.NextTyVar()
		require.NoError(t, c.SubTypes(true, misc, v0, v1))

		_, err := FullyResolve(c, v0)
		var fixup *FixupError
		require.ErrorAs(t, err, &fixup)
		assert.Equal(t, tyerr.UnresolvedTy, fixup.Kind)
		assert.Equal(t, "unconstrained type", fixup.Error())
	})
	t.Run("numeric variables", func(t *testing.T) {
		c := newCtxt()
		_, err := FullyResolve(c, ty.MkTuple(i32, c.NextIntVar()))
		var fixup *FixupError
		require.ErrorAs(t, err, &fixup)
		assert.Equal(t, tyerr.UnresolvedInt, fixup.Kind)

		_, err = FullyResolve(c, c.NextFloatVar())
		require.ErrorAs(t, err, &fixup)
		assert.Equal(t, "cannot determine the type of this number; add a suffix to specify the type explicitly", fixup.Error())
	})
	t.Run("opportunistic resolution keeps unknown variables", func(t *testing.T) {
		c := newCtxt()
		v0, v1 := c.NextTyVar(), c.NextTyVar()
		require.NoError(t, c.EqTypes(true, misc, v0, parse(t, "(?1, bool)")))
		got := ResolveTypeVarsIfPossible(c, v0)
		assert.Equal(t, v1, got.(*ty.Tuple).Elems[0])
		assert.Equal(t, "(?1, bool)", c.TyToString(v0))
	})
}

func TestNumericVariables(t *testing.T) {
	c := newCtxt()
	a, b := c.NextIntVar(), c.NextIntVar()
	f := c.NextFloatVar()
	assert.Equal(t, UnconstrainedInt, c.TypeIsUnconstrainedNumeric(a))
	assert.Equal(t, UnconstrainedFloat, c.TypeIsUnconstrainedNumeric(f))
	assert.Equal(t, Neither, c.TypeIsUnconstrainedNumeric(i32))

	require.NoError(t, c.EqTypes(true, misc, a, b))
	require.NoError(t, c.SubTypes(true, misc, i32, b))
	assert.Equal(t, i32, c.ShallowResolve(a))
	assert.Equal(t, Neither, c.TypeIsUnconstrainedNumeric(a))

	err := c.EqTypes(true, misc, a, i64)
	want := tyerr.IntMismatch{ExpectedFound: ty.ExpectedFound[ty.IntVarValue]{
		Expected: ty.IntVarValue(ty.PrimI32),
		Found:    ty.IntVarValue(ty.PrimI64),
	}}
	assert.Equal(t, want, requireRelateError(t, err))

	err = c.EqTypes(true, misc, f, i32)
	assert.IsType(t, tyerr.Sorts{}, requireRelateError(t, err))
	require.NoError(t, c.EqTypes(true, misc, parse(t, "f32"), f))
	assert.Equal(t, ty.Prim{Kind: ty.PrimF32}, c.ShallowResolve(f))
}

func TestItemVariances(t *testing.T) {
	testCases := []struct {
		name string
		a, b string
	}{
		{"invariant", "Cell<?0>", "Cell<i32>"},
		{"covariant", "Box<?0>", "Box<i32>"},
		{"bivariant", "Phantom<?0>", "Phantom<i32>"},
		{"unknown items are invariant", "Other<?0>", "Other<i32>"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newCtxt()
			v := c.NextTyVar()
			require.NoError(t, c.SubTypes(true, misc, parse(t, tc.a), parse(t, tc.b)))
			assert.Equal(t, i32, ResolveTypeVarsIfPossible(c, v))
		})
	}

	c := newCtxt()
	err := c.SubTypes(true, misc, parse(t, "Cell<&'static mut i32>"), parse(t, "Cell<&'static i32>"))
	assert.Equal(t, tyerr.Mutability{Kind: tyerr.References}, requireRelateError(t, err))
}

func TestTraitRefs(t *testing.T) {
	c := newCtxt()
	foo, err := ty.ParseTraitRef("Foo<i32, bool>", nil)
	require.NoError(t, err)
	bar, err := ty.ParseTraitRef("Bar<i32, bool>", nil)
	require.NoError(t, err)
	fooVar, err := ty.ParseTraitRef("Foo<i32, ?0>", nil)
	require.NoError(t, err)
	v := c.NextTyVar()

	err = c.SubTraitRefs(true, misc, foo.SkipBinder(), bar.SkipBinder())
	want := tyerr.TraitsMismatch{ExpectedFound: ty.ExpectedFound[ty.DefID]{Expected: "Foo", Found: "Bar"}}
	assert.Equal(t, want, requireRelateError(t, err))

	require.NoError(t, c.SubPolyTraitRefs(true, misc, fooVar, foo))
	assert.Equal(t, ty.Prim{Kind: ty.PrimBool}, ResolveTypeVarsIfPossible(c, v))
	assert.Equal(t, "<i32 as Foo<bool>>", c.TraitRefToString(fooVar.SkipBinder()))
}

func TestSkolemizationAndLeakCheck(t *testing.T) {
	outlivesSelf := ty.Bind(ty.OutlivesPredicate{A: lateBound("a"), B: lateBound("a")})

	t.Run("placeholder related only to itself", func(t *testing.T) {
		c := newCtxt()
		require.NoError(t, c.RegionOutlivesPredicate(source.DummySpan, outlivesSelf))
	})
	t.Run("everything outlives static", func(t *testing.T) {
		c := newCtxt()
		p := ty.Bind(ty.OutlivesPredicate{A: ty.Static, B: lateBound("a")})
		require.NoError(t, c.RegionOutlivesPredicate(source.DummySpan, p))
	})
	t.Run("placeholder cannot outlive static", func(t *testing.T) {
		c := newCtxt()
		p := ty.Bind(ty.OutlivesPredicate{A: lateBound("a"), B: ty.Static})
		err := c.RegionOutlivesPredicate(source.DummySpan, p)
		var insufficient tyerr.RegionsInsufficientlyPolymorphic
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, ty.BrNamedOf("a"), insufficient.BR)
	})
	t.Run("placeholder equated with an outer region", func(t *testing.T) {
		c := newCtxt()
		outer := c.NextRegionVar(miscRegion)
		err := c.commitIfOK(func(s CombinedSnapshot) error {
			p, skol := SkolemizeLateBoundRegions(c, outlivesSelf, s)
			assert.Equal(t, 1, skol.Len())
			c.regions.MakeEqRegion(subOrigin, p.A, outer)
			return c.LeakCheck(skol, s)
		})
		var insufficient tyerr.RegionsInsufficientlyPolymorphic
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, outer, insufficient.Region)
	})
	t.Run("placeholder related to a variable of the snapshot", func(t *testing.T) {
		c := newCtxt()
		err := c.commitIfOK(func(s CombinedSnapshot) error {
			p, skol := SkolemizeLateBoundRegions(c, outlivesSelf, s)
			inner := c.NextRegionVar(miscRegion)
			c.regions.MakeEqRegion(subOrigin, p.A, inner)
			return c.LeakCheck(skol, s)
		})
		require.NoError(t, err)
	})
	t.Run("variable escaping through an older type variable", func(t *testing.T) {
		c := newCtxt()
		v := c.NextTyVar()
		err := c.commitIfOK(func(s CombinedSnapshot) error {
			p, skol := SkolemizeLateBoundRegions(c, outlivesSelf, s)
			inner := c.NextRegionVar(miscRegion)
			c.regions.MakeEqRegion(subOrigin, p.A, inner)
			require.NoError(t, c.EqTypes(true, misc, v, ty.MkRef(inner, ty.Immutable, i32)))
			return c.LeakCheck(skol, s)
		})
		require.Error(t, err)
	})
	t.Run("equality predicates", func(t *testing.T) {
		c := newCtxt()
		same := ty.Bind(ty.EquatePredicate{A: ty.MkRef(lateBound("a"), ty.Immutable, i32), B: ty.MkRef(lateBound("a"), ty.Immutable, i32)})
		require.NoError(t, c.EqualityPredicate(source.DummySpan, same))

		static := ty.Bind(ty.EquatePredicate{A: ty.MkRef(lateBound("a"), ty.Immutable, i32), B: parse(t, "&'static i32")})
		require.Error(t, c.EqualityPredicate(source.DummySpan, static))
	})
	t.Run("overly polymorphic when the found side is bound", func(t *testing.T) {
		c := newCtxt()
		err := c.SubTypes(false, misc, parse(t, "fn(&'static u8)"), parse(t, "for<'a> fn(&'a u8)"))
		assert.IsType(t, tyerr.RegionsOverlyPolymorphic{}, requireRelateError(t, err))
	})
}

func TestPlugLeaks(t *testing.T) {
	c := newCtxt()
	pred := ty.Bind(ty.EquatePredicate{A: ty.MkRef(lateBound("a"), ty.Immutable, i32), B: i32})
	require.NoError(t, c.commitIfOK(func(s CombinedSnapshot) error {
		p, skol := SkolemizeLateBoundRegions(c, pred, s)
		require.IsType(t, ty.ReSkolemized{}, p.A.(*ty.Ref).Region)

		inBinder := PlugLeaks(c, skol, s, ty.MkFn([]ty.Ty{p.A}, ty.Unit()))
		input := inBinder.(*ty.FnPtr).Sig.Value.Inputs[0]
		assert.Equal(t, lateBound("a"), input.(*ty.Ref).Region)

		outside := PlugLeaks(c, skol, s, p.A)
		assert.True(t, ty.IsRegionVar(outside.(*ty.Ref).Region))
		return nil
	}))
}

func TestConstructSkolemizedSubsts(t *testing.T) {
	c := newCtxt()
	generics := ty.Generics{
		Types:   []ty.TypeParamDef{{Name: "T", Index: 0}},
		Regions: []ty.RegionParamDef{{Name: "a", Index: 0}},
	}
	require.NoError(t, c.commitIfOK(func(s CombinedSnapshot) error {
		substs, skol := c.ConstructSkolemizedSubsts(generics, s)
		assert.Equal(t, ty.Param{Index: 0, Name: "T"}, substs.Types[0])
		placeholder, ok := skol.Get(ty.BrNamedOf("a"))
		require.True(t, ok)
		assert.Equal(t, placeholder, substs.Regions[0])
		return c.LeakCheck(skol, s)
	}))
}

func TestLubAndGlb(t *testing.T) {
	t.Run("identical types", func(t *testing.T) {
		c := newCtxt()
		a, b := parse(t, "fn(&'static u8) -> i32"), parse(t, "fn(&'static u8) -> i32")
		got := c.CommonSupertype(misc, true, a, b)
		assert.True(t, ty.Equal(a, got), "got %s", got)
		assert.False(t, c.Errors().HasError())
	})
	t.Run("higher-ranked functions", func(t *testing.T) {
		c := newCtxt()
		got := c.CommonSupertype(misc, true, parse(t, "for<'a> fn(&'a u8)"), parse(t, "for<'b> fn(&'b u8)"))
		input := got.(*ty.FnPtr).Sig.Value.Inputs[0]
		assert.Equal(t, lateBound("a"), input.(*ty.Ref).Region)
	})
	t.Run("scopes", func(t *testing.T) {
		c := newCtxt()
		got, err := c.Lub(true, origin.DummyTrace()).Regions(ty.ReScope{Scope: 2}, ty.ReScope{Scope: 3})
		require.NoError(t, err)
		assert.True(t, ty.IsRegionVar(got))
		again, err := c.Lub(true, origin.DummyTrace()).Regions(ty.ReScope{Scope: 2}, ty.ReScope{Scope: 3})
		require.NoError(t, err)
		assert.Equal(t, got, again)

		glb, err := c.Glb(true, origin.DummyTrace()).Regions(ty.Static, ty.ReScope{Scope: 2})
		require.NoError(t, err)
		assert.Equal(t, ty.ReScope{Scope: 2}, glb)
	})
	t.Run("variables", func(t *testing.T) {
		c := newCtxt()
		v := c.NextTyVar()
		got, err := c.Glb(true, origin.DummyTrace()).Tys(v, i32)
		require.NoError(t, err)
		require.IsType(t, ty.TyVar{}, got)
		assert.Equal(t, i32, ResolveTypeVarsIfPossible(c, got))
		assert.Equal(t, i32, ResolveTypeVarsIfPossible(c, v))
	})
	t.Run("diverging variables", func(t *testing.T) {
		c := newCtxt()
		got := c.CommonSupertype(misc, true, c.NextDivergingTyVar(), c.NextDivergingTyVar())
		assert.True(t, c.TypeVarDiverges(got))
		got = c.CommonSupertype(misc, true, c.NextDivergingTyVar(), c.NextTyVar())
		assert.False(t, c.TypeVarDiverges(got))
	})
}

func TestCascadedErrorsAreSuppressed(t *testing.T) {
	c := newCtxt()

	got := c.CommonSupertype(misc, true, i32, parse(t, "bool"))
	assert.Equal(t, ty.Err, got)
	require.Equal(t, 1, c.Errors().Len())

	// anything involving the error type relates silently
	require.NoError(t, c.SubTypes(true, misc, ty.MkTuple(got, i32), parse(t, "(u8, i32)")))
	c.ReportMismatchedTypes(source.DummySpan, ty.MkTuple(got), i32, tyerr.Sorts{})
	c.TypeErrorMessage(source.DummySpan, func(actual string) string { return "cannot index " + actual }, got, nil)
	assert.Equal(t, 1, c.Errors().Len())

	// an unrelated mistake still gets its own diagnostic
	c.CommonSupertype(origin.NewTypeOrigin(origin.IfExpression, source.DummySpan), true, parse(t, "(u8,)"), parse(t, "[u8]"))
	require.Equal(t, 2, c.Errors().Len())

	first := c.Errors().Errors()[0]
	assert.Equal(t, tyerr.TypeMismatch, first.Code())
	assert.Contains(t, first.Error(), "expected `i32`, found `bool`")
}

func TestFreshen(t *testing.T) {
	c := newCtxt()
	v0, v1, v2 := c.NextTyVar(), c.NextTyVar(), c.NextTyVar()
	iv := c.NextIntVar()
	require.NoError(t, c.EqTypes(true, misc, v2, parse(t, "bool")))
	r := c.NextRegionVar(miscRegion)

	f := c.Freshener()
	got := ty.FoldValue(ty.MkTuple(v0, v1, v0, iv, v2, ty.MkRef(r, ty.Immutable, i32)), f).(*ty.Tuple)
	assert.Equal(t, []ty.Ty{ty.FreshTy{N: 0}, ty.FreshTy{N: 1}, ty.FreshTy{N: 0}, ty.FreshIntTy{N: 2}, ty.Prim{Kind: ty.PrimBool}}, got.Elems[:5])
	assert.Equal(t, ty.Static, got.Elems[5].(*ty.Ref).Region)

	// the same freshener keeps its numbering
	assert.Equal(t, ty.FreshTy{N: 1}, ty.FoldValue(v1, f))
	assert.Equal(t, ty.FreshTy{N: 1}, ty.FoldValue[ty.Ty](ty.FreshTy{N: 1}, f))

	bound := parse(t, "for<'a> fn(&'a u8)")
	assert.True(t, ty.Equal(bound, Freshen(c, bound)))
	assert.Panics(t, func() { Freshen[ty.Ty](c, ty.FreshTy{N: 7}) })
}

func TestResolveRegionsAndReportErrors(t *testing.T) {
	t.Run("satisfiable", func(t *testing.T) {
		c := newCtxt()
		r := c.NextRegionVar(miscRegion)
		MkSubr(c, subOrigin, ty.ReScope{Scope: 2}, r)
		MkSubr(c, subOrigin, r, ty.ReScope{Scope: 1})
		c.ResolveRegionsAndReportErrors(region.NewFreeRegionMap(), 0)
		require.False(t, c.Errors().HasError())

		got, err := FullyResolve(c, ty.MkRef(r, ty.Immutable, i32))
		require.NoError(t, err)
		assert.Equal(t, ty.ReScope{Scope: 2}, got.(*ty.Ref).Region)
	})
	t.Run("conflict", func(t *testing.T) {
		c := newCtxt()
		r := c.NextRegionVar(miscRegion)
		MkSubr(c, subOrigin, ty.ReScope{Scope: 2}, r)
		MkSubr(c, subOrigin, r, ty.ReScope{Scope: 3})
		c.ResolveRegionsAndReportErrors(region.NewFreeRegionMap(), 0)
		require.Equal(t, 1, c.Errors().Len())
		assert.Equal(t, tyerr.RegionUnsatisfiable, c.Errors().Errors()[0].Code())
	})
	t.Run("not inside a snapshot", func(t *testing.T) {
		c := newCtxt()
		assert.Panics(t, func() {
			Probe(c, func(CombinedSnapshot) struct{} {
				c.ResolveRegionsAndReportErrors(region.NewFreeRegionMap(), 0)
				return struct{}{}
			})
		})
	})
}

func TestFreshSubsts(t *testing.T) {
	c := newCtxt()
	generics := ty.Generics{
		Types:   []ty.TypeParamDef{{Name: "Self", Index: 0}, {Name: "T", Index: 1}},
		Regions: []ty.RegionParamDef{{Name: "a", Index: 0}},
	}
	substs := c.FreshSubstsForTrait(source.DummySpan, generics, i32)
	assert.Equal(t, i32, substs.Types[0])
	assert.IsType(t, ty.TyVar{}, substs.Types[1])
	assert.True(t, ty.IsRegionVar(substs.Regions[0]))

	substs = c.FreshSubstsForGenerics(source.DummySpan, generics)
	assert.Len(t, substs.Types, 2)
	assert.Equal(t, 3, c.types.NumVars())
	assert.Equal(t, ty.ReLateBound{Debruijn: 2, BR: ty.BrFreshOf(0)}, c.FreshBoundRegion(2))
}
