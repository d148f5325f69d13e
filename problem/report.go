package problem

import (
	"fmt"
	"strings"

	"github.com/cottand/tyinfer/tyerr"
	"github.com/cottand/tyinfer/util"
	"github.com/pkg/errors"
)

type StepResult struct {
	Step
	// Value is the bound computed by lub and glb, or yes/no for probes
	Value string
	Err   error
}

// Unexpected tells whether the step did not turn out the way it said it would
func (r StepResult) Unexpected() bool {
	return (r.Err != nil) != (r.Expect == ExpectError)
}

func (r StepResult) describe() string {
	a, b := r.Operands[0], r.Operands[1]
	switch r.Op {
	case OpSub:
		return fmt.Sprintf("%s <: %s", a, b)
	case OpEq:
		return fmt.Sprintf("%s == %s", a, b)
	case OpLub, OpGlb:
		return fmt.Sprintf("%s(%s, %s) = %s", r.Op, a, b, r.Value)
	case OpCanEq:
		return fmt.Sprintf("%s == %s? %s", a, b, r.Value)
	case OpCanSub:
		return fmt.Sprintf("%s <: %s? %s", a, b, r.Value)
	case OpSubregion:
		return fmt.Sprintf("%s <= %s", a, b)
	}
	return string(r.Op)
}

func (r StepResult) outcome() string {
	var s string
	if r.Err == nil {
		s = "ok"
	} else {
		var typeErr tyerr.TypeError
		if errors.As(r.Err, &typeErr) {
			s = "error: " + typeErr.Error()
		} else {
			s = "error: " + r.Err.Error()
		}
	}
	if r.Unexpected() {
		s += " (unexpected)"
	}
	return s
}

type Report struct {
	Name        string
	Steps       []StepResult
	Resolved    []util.Pair[string, string]
	Diagnostics *tyerr.Errors
}

// Failed tells whether any step did not turn out as expected
func (r *Report) Failed() bool {
	for _, s := range r.Steps {
		if s.Unexpected() {
			return true
		}
	}
	return false
}

func (r *Report) String() string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "problem %s\n", r.Name)
	for _, s := range r.Steps {
		fmt.Fprintf(sb, "  line %d: %s: %s\n", s.Line, s.describe(), s.outcome())
	}
	if len(r.Resolved) > 0 {
		sb.WriteString("resolved\n")
		for _, p := range r.Resolved {
			fmt.Fprintf(sb, "  %s = %s\n", p.Fst, p.Snd)
		}
	}
	if r.Diagnostics.HasError() {
		sb.WriteString("diagnostics\n")
		for _, e := range r.Diagnostics.Errors() {
			if line := e.Pos(); line.IsValid() {
				fmt.Fprintf(sb, "  line %d: %s\n", line, tyerr.FormatWithCode(e))
			} else {
				fmt.Fprintf(sb, "  %s\n", tyerr.FormatWithCode(e))
			}
		}
	}
	return sb.String()
}
