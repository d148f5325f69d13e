package tyerr

import (
	"testing"

	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
	"github.com/stretchr/testify/assert"
)

func TestTypeErrorMessages(t *testing.T) {
	i32 := ty.Prim{Kind: ty.PrimI32}
	testCases := []struct {
		err  TypeError
		want string
	}{
		{Sorts{ty.ExpectedFound[ty.Ty]{Expected: i32, Found: ty.MkTuple(i32, i32)}}, "expected `i32`, found tuple"},
		{Sorts{ty.ExpectedFound[ty.Ty]{Expected: ty.Unit(), Found: ty.MkRef(ty.Static, ty.Immutable, i32)}}, "expected `()`, found &-ptr"},
		{Mutability{Kind: Pointers}, "pointers differ in mutability"},
		{TupleSize{ty.ExpectedFound[int]{Expected: 2, Found: 3}}, "expected a tuple with 2 elements, found one with 3 elements"},
		{VariadicMismatch{ty.ExpectedFound[bool]{Expected: true}}, "expected variadic fn, found non-variadic function"},
		{ConvergenceMismatch{ty.ExpectedFound[bool]{Found: true}}, "expected converging fn, found diverging function"},
		{UnsafetyMismatch{ty.ExpectedFound[bool]{Expected: true}}, "expected unsafe fn, found normal fn"},
		{IntMismatch{ty.ExpectedFound[ty.IntVarValue]{Expected: ty.IntVarValue(ty.PrimU8), Found: ty.IntVarValue(ty.PrimI64)}}, "expected `u8`, found `i64`"},
		{TraitsMismatch{ty.ExpectedFound[ty.DefID]{Expected: "Clone", Found: "Copy"}}, "expected trait `Clone`, found trait `Copy`"},
		{CyclicTy{}, "cyclic type of infinite size"},
		{RegionsInsufficientlyPolymorphic{BR: ty.BrNamedOf("a")}, "expected bound lifetime parameter 'a, found concrete lifetime"},
	}
	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestErrorCodes(t *testing.T) {
	testCases := []struct {
		name string
		err  Error
		want ErrCode
	}{
		{"mismatch", NewMismatch{Err: Sorts{}}, TypeMismatch},
		{"polymorphism", NewMismatch{Err: RegionsOverlyPolymorphic{}}, InsufficientlyPolymorphic},
		{"message", NewMessage{Msg: "cannot index"}, TypeErrorMessage},
		{"unresolved", NewUnresolved{Kind: UnresolvedTy}, CannotInferType},
		{"unresolved int", NewUnresolved{Kind: UnresolvedInt}, CannotInferInt},
		{"unresolved float", NewUnresolved{Kind: UnresolvedFloat}, CannotInferFloat},
		{"region", NewRegionError{}, RegionUnsatisfiable},
		{"problem file", NewProblemFile{}, ProblemFile},
		{"unclassified", Unclassified{}, None},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Code())
		})
	}
}

func TestFormatWithCode(t *testing.T) {
	err := New(NewMismatch{
		Span:     source.DummySpan,
		Headline: "mismatched types",
		Values:   "expected `i32`, found `bool`",
		Err:      Sorts{ty.ExpectedFound[ty.Ty]{Expected: ty.Prim{Kind: ty.PrimI32}, Found: ty.Prim{Kind: ty.PrimBool}}},
	})
	assert.NotEmpty(t, err.getStack())
	assert.Equal(t, "(E001) mismatched types: expected `i32`, found `bool` (expected `i32`, found `bool`)", FormatWithCode(err))

	msg := New(NewMessage{Msg: "cannot index `i32`"})
	assert.Equal(t, "(E002) cannot index `i32`", FormatWithCode(msg))
}

func TestErrors(t *testing.T) {
	var errs *Errors
	assert.False(t, errs.HasError())
	assert.Equal(t, 0, errs.Len())
	assert.Nil(t, errs.Errors())

	errs = errs.With(New(NewRegionError{Msg: "first"}))
	other := (*Errors)(nil).With(New(NewProblemFile{Msg: "second"}), New(NewProblemFile{Msg: "third"}))
	errs = errs.Merge(other).Merge(nil)

	assert.True(t, errs.HasError())
	assert.Equal(t, 3, errs.Len())
	assert.Equal(t, "first", errs.Errors()[0].Error())
	assert.Equal(t, ProblemFile, errs.Errors()[2].Code())
	assert.Len(t, errs.LogValue().Group(), 3)
}
