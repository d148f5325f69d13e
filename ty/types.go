package ty

import "fmt"

// Ty is a type of the checked language.
//
// Leaf types are plain comparable values while composite types are pointers,
// so comparing two Ty with == never panics. Use Equal for structural equality.
type Ty interface {
	fmt.Stringer
	isTy()
}

var (
	_ Ty = Prim{}
	_ Ty = (*Tuple)(nil)
	_ Ty = (*Ref)(nil)
	_ Ty = (*RawPtr)(nil)
	_ Ty = (*Array)(nil)
	_ Ty = (*Slice)(nil)
	_ Ty = (*FnPtr)(nil)
	_ Ty = (*Adt)(nil)
	_ Ty = (*Dynamic)(nil)
	_ Ty = Param{}
	_ Ty = TyVar{}
	_ Ty = IntVar{}
	_ Ty = FloatVar{}
	_ Ty = FreshTy{}
	_ Ty = FreshIntTy{}
	_ Ty = FreshFloatTy{}
	_ Ty = ErrorTy{}
)

type PrimKind uint8

const (
	PrimBool PrimKind = iota
	PrimChar
	PrimStr
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimIsize
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimUsize
	PrimF32
	PrimF64
)

var primNames = [...]string{
	PrimBool:  "bool",
	PrimChar:  "char",
	PrimStr:   "str",
	PrimI8:    "i8",
	PrimI16:   "i16",
	PrimI32:   "i32",
	PrimI64:   "i64",
	PrimIsize: "isize",
	PrimU8:    "u8",
	PrimU16:   "u16",
	PrimU32:   "u32",
	PrimU64:   "u64",
	PrimUsize: "usize",
	PrimF32:   "f32",
	PrimF64:   "f64",
}

func (k PrimKind) String() string {
	if int(k) < len(primNames) {
		return primNames[k]
	}
	return fmt.Sprintf("prim(%d)", uint8(k))
}

func (k PrimKind) IsIntegral() bool { return k >= PrimI8 && k <= PrimUsize }
func (k PrimKind) IsFloat() bool    { return k == PrimF32 || k == PrimF64 }

// Prim is a primitive scalar type
type Prim struct {
	Kind PrimKind
}

var (
	Bool  Ty = Prim{PrimBool}
	Char  Ty = Prim{PrimChar}
	Str   Ty = Prim{PrimStr}
	I8    Ty = Prim{PrimI8}
	I16   Ty = Prim{PrimI16}
	I32   Ty = Prim{PrimI32}
	I64   Ty = Prim{PrimI64}
	Isize Ty = Prim{PrimIsize}
	U8    Ty = Prim{PrimU8}
	U16   Ty = Prim{PrimU16}
	U32   Ty = Prim{PrimU32}
	U64   Ty = Prim{PrimU64}
	Usize Ty = Prim{PrimUsize}
	F32   Ty = Prim{PrimF32}
	F64   Ty = Prim{PrimF64}
)

// IntVarValue is what an integral variable can resolve to
type IntVarValue PrimKind

func (v IntVarValue) ToType() Ty     { return Prim{PrimKind(v)} }
func (v IntVarValue) String() string { return PrimKind(v).String() }

// FloatVarValue is what a floating point variable can resolve to
type FloatVarValue PrimKind

func (v FloatVarValue) ToType() Ty     { return Prim{PrimKind(v)} }
func (v FloatVarValue) String() string { return PrimKind(v).String() }

type Mutability uint8

const (
	Immutable Mutability = iota
	Mutable
)

func (m Mutability) String() string {
	if m == Mutable {
		return "mut"
	}
	return ""
}

type Tuple struct {
	Elems []Ty
}

// Unit returns the empty tuple
func Unit() Ty { return &Tuple{} }

func IsUnit(t Ty) bool {
	tup, ok := t.(*Tuple)
	return ok && len(tup.Elems) == 0
}

// Ref is a borrowed reference &'r T or &'r mut T
type Ref struct {
	Region Region
	Mut    Mutability
	Elem   Ty
}

type RawPtr struct {
	Mut  Mutability
	Elem Ty
}

// Array is a fixed-size array [T; N]
type Array struct {
	Elem Ty
	Len  uint64
}

type Slice struct {
	Elem Ty
}

// FnSig is the signature of a function, with its late-bound regions still
// bound by an enclosing Binder
type FnSig struct {
	Inputs []Ty
	// Output is ignored when Diverging is set
	Output    Ty
	Diverging bool
	Variadic  bool
}

type PolyFnSig = Binder[FnSig]

// FnPtr is a function pointer type
type FnPtr struct {
	Unsafe bool
	Sig    PolyFnSig
}

// Adt is a nominal struct or enum instantiated with substitutions
type Adt struct {
	Def    DefID
	Substs *Substs
}

// TraitRef names a trait applied to substitutions. The Self type is Substs.Types[0]
type TraitRef struct {
	Def    DefID
	Substs *Substs
}

type PolyTraitRef = Binder[TraitRef]

func (t TraitRef) SelfTy() Ty {
	if t.Substs == nil || len(t.Substs.Types) == 0 {
		return nil
	}
	return t.Substs.Types[0]
}

// Dynamic is a trait object type, `dyn Trait + 'r`
type Dynamic struct {
	Principal   PolyTraitRef
	RegionBound Region
}

// Param is a generic type parameter in scope
type Param struct {
	Index uint32
	Name  string
}

type TyVar struct{ Vid TyVid }
type IntVar struct{ Vid IntVid }
type FloatVar struct{ Vid FloatVid }

// FreshTy and friends are produced by the freshener: stable markers which
// stand for an unresolved variable, used for cache keys
type FreshTy struct{ N uint32 }
type FreshIntTy struct{ N uint32 }
type FreshFloatTy struct{ N uint32 }

// ErrorTy is the error sentinel: it stands for "already reported"
type ErrorTy struct{}

// Err is the designated error sentinel type
var Err Ty = ErrorTy{}

func (Prim) isTy()         {}
func (*Tuple) isTy()       {}
func (*Ref) isTy()         {}
func (*RawPtr) isTy()      {}
func (*Array) isTy()       {}
func (*Slice) isTy()       {}
func (*FnPtr) isTy()       {}
func (*Adt) isTy()         {}
func (*Dynamic) isTy()     {}
func (Param) isTy()        {}
func (TyVar) isTy()        {}
func (IntVar) isTy()       {}
func (FloatVar) isTy()     {}
func (FreshTy) isTy()      {}
func (FreshIntTy) isTy()   {}
func (FreshFloatTy) isTy() {}
func (ErrorTy) isTy()      {}

// IsInfer reports whether t is any kind of inference type, fresh markers included
func IsInfer(t Ty) bool {
	switch t.(type) {
	case TyVar, IntVar, FloatVar, FreshTy, FreshIntTy, FreshFloatTy:
		return true
	}
	return false
}

func IsError(t Ty) bool {
	_, ok := t.(ErrorTy)
	return ok
}

func MkRef(r Region, mut Mutability, elem Ty) Ty {
	return &Ref{Region: r, Mut: mut, Elem: elem}
}

func MkTuple(elems ...Ty) Ty {
	return &Tuple{Elems: elems}
}

func MkAdt(def DefID, substs *Substs) Ty {
	if substs == nil {
		substs = EmptySubsts()
	}
	return &Adt{Def: def, Substs: substs}
}

func MkFn(inputs []Ty, output Ty) Ty {
	return &FnPtr{Sig: Bind(FnSig{Inputs: inputs, Output: output})}
}
