package source

import (
	"fmt"
	"go/token"
)

// Positioner allows finding the location in the original source file.
// The easiest way to be a Positioner is to embed a Span
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

// Span is an opaque location token. Inference never looks inside it,
// it is only carried along so that errors can be attributed.
type Span struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

// DummySpan is used where no meaningful location exists, like probes
var DummySpan = Span{}

func (s Span) Pos() token.Pos { return s.PosStart }
func (s Span) End() token.Pos { return s.PosEnd }
func (s Span) IsDummy() bool  { return s == DummySpan }
func (s Span) String() string {
	if s.PosStart == s.PosEnd {
		return fmt.Sprintf("%v", s.PosStart)
	}
	return fmt.Sprintf("%v-%v", s.PosStart, s.PosEnd)
}

func SpanOf(p Positioner) Span {
	if p == nil {
		return DummySpan
	}
	return Span{p.Pos(), p.End()}
}

func SpanBetween(fst, snd Positioner) Span {
	return Span{fst.Pos(), snd.End()}
}

// NodeID identifies a node of the checked program, like the subject of
// region resolution or the closure owning an upvar
type NodeID uint32
