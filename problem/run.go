package problem

import (
	"go/token"

	"github.com/cottand/tyinfer/infer"
	"github.com/cottand/tyinfer/infer/origin"
	"github.com/cottand/tyinfer/infer/region"
	"github.com/cottand/tyinfer/internal/log"
	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
	"github.com/cottand/tyinfer/tyerr"
	"github.com/cottand/tyinfer/util"
	"github.com/pkg/errors"
)

var logger = log.DefaultLogger.With("section", "problem")

type Options struct {
	// ReportUnresolved adds a diagnostic for each variable of the resolve
	// list which is still unknown at the end
	ReportUnresolved bool
}

// Run checks p in a fresh inference context. Malformed operands are reported
// as diagnostics of their step; only an unusable problem is an error
func Run(p *Problem, opts Options) (*Report, error) {
	db, err := p.Database()
	if err != nil {
		return nil, err
	}
	r := &runner{
		c: infer.New(db),
		env: ty.MapEnv{
			Vars:    map[string]ty.Ty{},
			Regions: map[string]ty.Region{},
			Params:  map[string]ty.Ty{},
		},
		report: &Report{Name: p.Name},
	}
	if err := r.declare(p); err != nil {
		return nil, err
	}

	for _, s := range p.Steps {
		res := r.step(s)
		logger.Debug("step", "line", s.Line, "op", string(s.Op), "err", res.Err)
		r.report.Steps = append(r.report.Steps, res)
	}

	r.c.ResolveRegionsAndReportErrors(region.NewFreeRegionMap(), 0)
	for _, name := range p.Resolve {
		r.resolve(name, opts)
	}
	r.report.Diagnostics = r.errs.Merge(r.c.Errors())
	return r.report, nil
}

type runner struct {
	c      *infer.InferCtxt
	env    ty.MapEnv
	report *Report
	// errs are the problems with the file itself
	errs *tyerr.Errors
}

func lineSpan(line int) source.Span {
	return source.Span{PosStart: token.Pos(line), PosEnd: token.Pos(line)}
}

var varOrigin = origin.NewRegionVariableOrigin(origin.MiscVariable, source.DummySpan)

func (r *runner) declare(p *Problem) error {
	seen := map[string]bool{}
	var err error
	add := func(name string, record func()) {
		if seen[name] {
			err = errors.Errorf("%s is declared twice", name)
			return
		}
		seen[name] = true
		record()
	}
	for _, s := range p.Scopes {
		add(s.Name, func() { r.env.Regions[s.Name] = ty.ReScope{Scope: s.ID} })
	}
	for i, name := range p.Params {
		add(name, func() { r.env.Params[name] = ty.Param{Index: uint32(i), Name: name} })
	}
	for _, name := range p.Vars.Types {
		add(name, func() { r.env.Vars[name] = r.c.NextTyVar() })
	}
	for _, name := range p.Vars.Ints {
		add(name, func() { r.env.Vars[name] = r.c.NextIntVar() })
	}
	for _, name := range p.Vars.Floats {
		add(name, func() { r.env.Vars[name] = r.c.NextFloatVar() })
	}
	for _, name := range p.Vars.Regions {
		add(name, func() { r.env.Regions[name] = r.c.NextRegionVar(varOrigin) })
	}
	for _, s := range p.Steps {
		if s.As != "" {
			add(s.As, func() {})
		}
	}
	return err
}

func (r *runner) problemFile(span source.Span, err error) {
	r.errs = r.errs.With(tyerr.New(tyerr.NewProblemFile{Span: span, Msg: err.Error()}))
}

func (r *runner) step(s Step) StepResult {
	res := StepResult{Step: s}
	span := lineSpan(s.Line)

	if s.Op == OpSubregion {
		a, errA := ty.ParseRegion(s.Operands[0], r.env)
		b, errB := ty.ParseRegion(s.Operands[1], r.env)
		if res.Err = firstErr(errA, errB); res.Err != nil {
			r.problemFile(span, res.Err)
			return res
		}
		infer.MkSubr(r.c, origin.NewSubregionOrigin(origin.Subtype, span), a, b)
		return res
	}

	a, errA := ty.Parse(s.Operands[0], r.env)
	b, errB := ty.Parse(s.Operands[1], r.env)
	if res.Err = firstErr(errA, errB); res.Err != nil {
		r.problemFile(span, res.Err)
		return res
	}
	o := origin.MiscOrigin(span)
	trace := origin.TypesTrace(o, true, a, b)

	switch s.Op {
	case OpSub:
		res.Err = r.c.SubTypes(true, o, a, b)
	case OpEq:
		res.Err = r.c.EqTypes(true, o, a, b)
	case OpLub, OpGlb:
		var v ty.Ty
		v, res.Err = infer.CommitIfOK(r.c, func(infer.CombinedSnapshot) (ty.Ty, error) {
			if s.Op == OpLub {
				return r.c.Lub(true, trace).Tys(a, b)
			}
			return r.c.Glb(true, trace).Tys(a, b)
		})
		if res.Err != nil {
			v = ty.Err
		}
		res.Value = r.c.TyToString(v)
		if s.As != "" {
			r.env.Vars[s.As] = v
		}
	case OpCanEq:
		res.Err = r.c.CanEquate(a, b)
		res.Value = yesNo(res.Err)
		return res
	case OpCanSub:
		res.Err = r.c.CanSubTypes(a, b)
		res.Value = yesNo(res.Err)
		return res
	}
	if res.Err != nil {
		r.c.ReportAndExplainTypeError(trace, res.Err)
	}
	return res
}

func (r *runner) resolve(name string, opts Options) {
	var (
		value string
		err   error
	)
	if t, ok := r.env.Vars[name]; ok {
		var resolved ty.Ty
		if resolved, err = infer.FullyResolve(r.c, t); err == nil {
			value = resolved.String()
		}
	} else if rg, ok := r.env.Regions[name]; ok {
		var resolved ty.Region
		if resolved, err = infer.FullyResolve(r.c, rg); err == nil {
			value = resolved.String()
		}
	} else {
		r.problemFile(source.DummySpan, errors.Errorf("cannot resolve %s: it is not declared", name))
		return
	}

	var fixup *infer.FixupError
	if errors.As(err, &fixup) {
		value = "unresolved"
		if opts.ReportUnresolved {
			r.c.ReportFixupError(source.DummySpan, fixup)
		}
	}
	r.report.Resolved = append(r.report.Resolved, util.NewPair(name, value))
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func yesNo(err error) string {
	if err != nil {
		return "no"
	}
	return "yes"
}
