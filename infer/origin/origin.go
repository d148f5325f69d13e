// Package origin describes why inference was asked to relate two things.
// Origins are carried along with constraints and errors for diagnostics,
// they never influence how constraints are solved
package origin

import (
	"fmt"

	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
)

type TypeOriginKind uint8

const (
	Misc TypeOriginKind = iota
	// MethodCompatCheck checks a method against the trait declaration it implements
	MethodCompatCheck
	// ExprAssignable checks that an expression can be assigned to a place
	ExprAssignable
	RelateTraitRefs
	// RelateSelfType relates the self type of an impl to the expression's type
	RelateSelfType
	RelateOutputImplTypes
	MatchExpressionArm
	IfExpression
	IfExpressionWithNoElse
	RangeExpression
	EquatePredicate
)

// TypeOrigin explains why two types were related
type TypeOrigin struct {
	Kind TypeOriginKind
	Span source.Span
	// ArmSpan is the span of the offending arm for MatchExpressionArm
	ArmSpan source.Span
}

func NewTypeOrigin(kind TypeOriginKind, span source.Span) TypeOrigin {
	return TypeOrigin{Kind: kind, Span: span}
}

func MiscOrigin(span source.Span) TypeOrigin { return TypeOrigin{Kind: Misc, Span: span} }

func MatchArmOrigin(matchSpan, armSpan source.Span) TypeOrigin {
	return TypeOrigin{Kind: MatchExpressionArm, Span: matchSpan, ArmSpan: armSpan}
}

// Describe is the headline of an error caused by a mismatch with this origin
func (o TypeOrigin) Describe() string {
	switch o.Kind {
	case RelateTraitRefs:
		return "mismatched traits"
	case MethodCompatCheck:
		return "method not compatible with trait"
	case MatchExpressionArm:
		return "match arms have incompatible types"
	case IfExpression:
		return "if and else have incompatible types"
	case IfExpressionWithNoElse:
		return "if may be missing an else clause"
	case RangeExpression:
		return "start and end of range have incompatible types"
	case EquatePredicate:
		return "equality predicate not satisfied"
	}
	return "mismatched types"
}

func (o TypeOrigin) String() string { return o.Describe() }

// ValuePairs are the values being related, in expected/found order
type ValuePairs interface {
	fmt.Stringer
	isValuePairs()
}

type Types struct{ ty.ExpectedFound[ty.Ty] }
type TraitRefs struct{ ty.ExpectedFound[ty.TraitRef] }
type PolyTraitRefs struct{ ty.ExpectedFound[ty.PolyTraitRef] }

func (Types) isValuePairs()         {}
func (TraitRefs) isValuePairs()     {}
func (PolyTraitRefs) isValuePairs() {}

func (v Types) String() string {
	return fmt.Sprintf("expected `%s`, found `%s`", v.Expected, v.Found)
}

func (v TraitRefs) String() string {
	return fmt.Sprintf("expected `%s`, found `%s`", v.Expected, v.Found)
}

func (v PolyTraitRefs) String() string {
	return fmt.Sprintf("expected `%s`, found `%s`", v.Expected.Value, v.Found.Value)
}

// TypeTrace records the origin of a relation together with the values it started from
type TypeTrace struct {
	Origin TypeOrigin
	Values ValuePairs
}

func (t TypeTrace) Span() source.Span { return t.Origin.Span }

func (t TypeTrace) String() string { return fmt.Sprintf("TypeTrace(%s)", t.Origin) }

// TypesTrace builds the trace for relating a and b
func TypesTrace(o TypeOrigin, aIsExpected bool, a, b ty.Ty) TypeTrace {
	return TypeTrace{Origin: o, Values: Types{ty.NewExpectedFound(aIsExpected, a, b)}}
}

func TraitRefsTrace(o TypeOrigin, aIsExpected bool, a, b ty.TraitRef) TypeTrace {
	return TypeTrace{Origin: o, Values: TraitRefs{ty.NewExpectedFound(aIsExpected, a, b)}}
}

func PolyTraitRefsTrace(o TypeOrigin, aIsExpected bool, a, b ty.PolyTraitRef) TypeTrace {
	return TypeTrace{Origin: o, Values: PolyTraitRefs{ty.NewExpectedFound(aIsExpected, a, b)}}
}

// DummyTrace is used when no error from the relation will ever be reported
func DummyTrace() TypeTrace {
	return TypesTrace(MiscOrigin(source.DummySpan), true, ty.Err, ty.Err)
}
