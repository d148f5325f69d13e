package origin

import (
	"fmt"

	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
)

type SubregionOriginKind uint8

const (
	// Subtype arises from relating two types, see Trace
	Subtype SubregionOriginKind = iota
	// DefaultExistentialBound is the default region bound of a trait object
	DefaultExistentialBound
	// InfStackClosure: the stack closure must outlive the call
	InfStackClosure
	// InvokeClosure: the closure must be alive where it is invoked
	InvokeClosure
	// DerefPointer: the pointer must be valid where it is dereferenced
	DerefPointer
	// FreeVariable: the closure may not outlive a variable it captures, see NodeID
	FreeVariable
	// IndexSlice: an index into a slice must be within the slice's region
	IndexSlice
	// RelateObjectBound: a value cast to a trait object must outlive the object bound
	RelateObjectBound
	// RelateParamBound: a type parameter must outlive its declared bounds, see Ty
	RelateParamBound
	// RelateRegionParamBound: a region parameter must outlive its declared bounds
	RelateRegionParamBound
	// RelateDefaultParamBound: a type parameter must outlive its default bound, see Ty
	RelateDefaultParamBound
	// Reborrow: creating a pointer into a borrowed value
	Reborrow
	// ReborrowUpvar: borrowing a captured variable, see Upvar
	ReborrowUpvar
	// ReferenceOutlivesReferent: the referent type must outlive the reference, see Ty
	ReferenceOutlivesReferent
	// ExprTypeIsNotInScope: the type of an expression must be valid for its evaluation, see Ty
	ExprTypeIsNotInScope
	// BindingTypeIsNotValidAtDecl: a local binding's type must be valid where it is declared
	BindingTypeIsNotValidAtDecl
	// CallRcvr: the method receiver must be valid for the call
	CallRcvr
	// CallArg: arguments must be valid for the call
	CallArg
	// CallReturn: the returned value must be valid for the call
	CallReturn
	// Operand: operands must be in scope
	Operand
	// AddrOf: the region of `&expr` must be within expr's lifetime
	AddrOf
	// AutoBorrow: an automatically inserted borrow must outlive its use
	AutoBorrow
	// SafeDestructor: a value must outlive whatever its destructor can access
	SafeDestructor
)

var subregionNames = [...]string{
	Subtype:                     "Subtype",
	DefaultExistentialBound:     "DefaultExistentialBound",
	InfStackClosure:             "InfStackClosure",
	InvokeClosure:               "InvokeClosure",
	DerefPointer:                "DerefPointer",
	FreeVariable:                "FreeVariable",
	IndexSlice:                  "IndexSlice",
	RelateObjectBound:           "RelateObjectBound",
	RelateParamBound:            "RelateParamBound",
	RelateRegionParamBound:      "RelateRegionParamBound",
	RelateDefaultParamBound:     "RelateDefaultParamBound",
	Reborrow:                    "Reborrow",
	ReborrowUpvar:               "ReborrowUpvar",
	ReferenceOutlivesReferent:   "ReferenceOutlivesReferent",
	ExprTypeIsNotInScope:        "ExprTypeIsNotInScope",
	BindingTypeIsNotValidAtDecl: "BindingTypeIsNotValidAtDecl",
	CallRcvr:                    "CallRcvr",
	CallArg:                     "CallArg",
	CallReturn:                  "CallReturn",
	Operand:                     "Operand",
	AddrOf:                      "AddrOf",
	AutoBorrow:                  "AutoBorrow",
	SafeDestructor:              "SafeDestructor",
}

func (k SubregionOriginKind) String() string {
	if int(k) < len(subregionNames) {
		return subregionNames[k]
	}
	return fmt.Sprintf("SubregionOriginKind(%d)", uint8(k))
}

// UpvarID identifies a variable captured by a closure
type UpvarID struct {
	Var     source.NodeID
	Closure source.NodeID
}

// SubregionOrigin explains why one region must outlive another
type SubregionOrigin struct {
	Kind SubregionOriginKind
	span source.Span
	// Trace is set for Subtype and DefaultExistentialBound
	Trace *TypeTrace
	// Ty is set for RelateParamBound, RelateDefaultParamBound,
	// ReferenceOutlivesReferent and ExprTypeIsNotInScope
	Ty     ty.Ty
	NodeID source.NodeID
	Upvar  UpvarID
}

func NewSubregionOrigin(kind SubregionOriginKind, span source.Span) SubregionOrigin {
	return SubregionOrigin{Kind: kind, span: span}
}

func SubtypeOrigin(trace TypeTrace) SubregionOrigin {
	return SubregionOrigin{Kind: Subtype, Trace: &trace}
}

func DefaultExistentialBoundOrigin(trace TypeTrace) SubregionOrigin {
	return SubregionOrigin{Kind: DefaultExistentialBound, Trace: &trace}
}

func FreeVariableOrigin(span source.Span, node source.NodeID) SubregionOrigin {
	return SubregionOrigin{Kind: FreeVariable, span: span, NodeID: node}
}

func ReborrowUpvarOrigin(span source.Span, upvar UpvarID) SubregionOrigin {
	return SubregionOrigin{Kind: ReborrowUpvar, span: span, Upvar: upvar}
}

// TyOrigin builds the origins which are about a type: RelateParamBound,
// RelateDefaultParamBound, ReferenceOutlivesReferent and ExprTypeIsNotInScope
func TyOrigin(kind SubregionOriginKind, span source.Span, t ty.Ty) SubregionOrigin {
	switch kind {
	case RelateParamBound, RelateDefaultParamBound, ReferenceOutlivesReferent, ExprTypeIsNotInScope:
	default:
		panic(fmt.Sprintf("origin: %s does not carry a type", kind))
	}
	return SubregionOrigin{Kind: kind, span: span, Ty: t}
}

func (o SubregionOrigin) Span() source.Span {
	if o.Trace != nil {
		return o.Trace.Span()
	}
	return o.span
}

func (o SubregionOrigin) String() string {
	switch {
	case o.Trace != nil:
		return fmt.Sprintf("%s(%s)", o.Kind, o.Trace)
	case o.Ty != nil:
		return fmt.Sprintf("%s(%s, %s)", o.Kind, o.Ty, o.span)
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.span)
}

// LateBoundRegionConversionTime says why late-bound regions were instantiated
type LateBoundRegionConversionTime struct {
	Kind LateBoundRegionConversionKind
	// AssocName is the projected associated type, for AssocTypeProjection
	AssocName string
}

type LateBoundRegionConversionKind uint8

const (
	// FnCall instantiates the signature of a called function
	FnCall LateBoundRegionConversionKind = iota
	// HigherRankedType instantiates a higher-ranked type being related
	HigherRankedType
	// AssocTypeProjection instantiates a higher-ranked projection
	AssocTypeProjection
)

func (t LateBoundRegionConversionTime) String() string {
	switch t.Kind {
	case FnCall:
		return "FnCall"
	case HigherRankedType:
		return "HigherRankedType"
	}
	return fmt.Sprintf("AssocTypeProjection(%s)", t.AssocName)
}

type RegionVariableOriginKind uint8

const (
	// MiscVariable is a region variable created for no particular reason
	MiscVariable RegionVariableOriginKind = iota
	// PatternRegion is the region of a reference binding in a pattern
	PatternRegion
	// AddrOfRegion is the region of `&expr`
	AddrOfRegion
	// Autoref is created for an automatic borrow
	Autoref
	// Coercion is created while coercing one type into another
	Coercion
	// EarlyBoundRegion instantiates a region parameter of an item, see Name
	EarlyBoundRegion
	// LateBoundRegion instantiates a late-bound region, see BR and When
	LateBoundRegion
	// UpvarRegion is the region of a captured variable, see Upvar
	UpvarRegion
	// BoundRegionInCoherence is created while checking impl overlap, see Name
	BoundRegionInCoherence
)

// RegionVariableOrigin explains why a region variable was created
type RegionVariableOrigin struct {
	Kind  RegionVariableOriginKind
	span  source.Span
	Name  string
	BR    ty.BoundRegion
	When  LateBoundRegionConversionTime
	Upvar UpvarID
}

func NewRegionVariableOrigin(kind RegionVariableOriginKind, span source.Span) RegionVariableOrigin {
	return RegionVariableOrigin{Kind: kind, span: span}
}

func EarlyBoundRegionOrigin(span source.Span, name string) RegionVariableOrigin {
	return RegionVariableOrigin{Kind: EarlyBoundRegion, span: span, Name: name}
}

func LateBoundRegionOrigin(span source.Span, br ty.BoundRegion, when LateBoundRegionConversionTime) RegionVariableOrigin {
	return RegionVariableOrigin{Kind: LateBoundRegion, span: span, BR: br, When: when}
}

func UpvarRegionOrigin(upvar UpvarID, span source.Span) RegionVariableOrigin {
	return RegionVariableOrigin{Kind: UpvarRegion, span: span, Upvar: upvar}
}

func BoundRegionInCoherenceOrigin(name string) RegionVariableOrigin {
	return RegionVariableOrigin{Kind: BoundRegionInCoherence, Name: name}
}

// Span is where the variable was introduced. BoundRegionInCoherence has no location
func (o RegionVariableOrigin) Span() source.Span {
	if o.Kind == BoundRegionInCoherence {
		return source.DummySpan
	}
	return o.span
}

func (o RegionVariableOrigin) String() string {
	switch o.Kind {
	case PatternRegion:
		return "PatternRegion"
	case AddrOfRegion:
		return "AddrOfRegion"
	case Autoref:
		return "Autoref"
	case Coercion:
		return "Coercion"
	case EarlyBoundRegion:
		return fmt.Sprintf("EarlyBoundRegion(%s)", o.Name)
	case LateBoundRegion:
		return fmt.Sprintf("LateBoundRegion(%s, %s)", o.BR, o.When)
	case UpvarRegion:
		return "UpvarRegion"
	case BoundRegionInCoherence:
		return fmt.Sprintf("BoundRegionInCoherence(%s)", o.Name)
	}
	return "MiscVariable"
}
