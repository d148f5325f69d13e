package infer

import (
	"fmt"

	"github.com/cottand/tyinfer/infer/origin"
	"github.com/cottand/tyinfer/infer/region"
	"github.com/cottand/tyinfer/source"
	"github.com/cottand/tyinfer/ty"
	"github.com/cottand/tyinfer/tyerr"
	"github.com/pkg/errors"
)

// ReportAndExplainTypeError records a diagnostic for a failed relation.
// Nothing is recorded if either value mentions the error type: that error
// was already reported, and this one only follows from it
func (c *InferCtxt) ReportAndExplainTypeError(trace origin.TypeTrace, err error) {
	var typeErr tyerr.TypeError
	if !errors.As(err, &typeErr) {
		c.errs = c.errs.With(tyerr.New(tyerr.Unclassified{From: err, Span: trace.Span()}))
		return
	}
	values, ok := c.valuesString(trace.Values)
	if !ok {
		logger.Debug("suppressed derived error", "origin", trace.Origin.String(), "err", typeErr.Error())
		return
	}
	c.errs = c.errs.With(tyerr.New(tyerr.NewMismatch{
		Span:     trace.Span(),
		Headline: trace.Origin.Describe(),
		Values:   values,
		Err:      typeErr,
	}))
}

func (c *InferCtxt) valuesString(values origin.ValuePairs) (string, bool) {
	switch v := values.(type) {
	case origin.Types:
		return expectedFoundString(c, v.ExpectedFound)
	case origin.TraitRefs:
		return expectedFoundString(c, v.ExpectedFound)
	case origin.PolyTraitRefs:
		return expectedFoundString(c, ty.ExpectedFound[ty.TraitRef]{
			Expected: v.Expected.SkipBinder(),
			Found:    v.Found.SkipBinder(),
		})
	}
	return "", false
}

func expectedFoundString[T fmt.Stringer](c *InferCtxt, ef ty.ExpectedFound[T]) (string, bool) {
	expected := ResolveTypeVarsIfPossible(c, ef.Expected)
	if ty.ReferencesError(expected) {
		return "", false
	}
	found := ResolveTypeVarsIfPossible(c, ef.Found)
	if ty.ReferencesError(found) {
		return "", false
	}
	return fmt.Sprintf("expected `%s`, found `%s`", expected, found), true
}

// ReportMismatchedTypes reports that actual was found where expected was required
func (c *InferCtxt) ReportMismatchedTypes(span source.Span, expected, actual ty.Ty, err tyerr.TypeError) {
	trace := origin.TypesTrace(origin.MiscOrigin(span), true, expected, actual)
	c.ReportAndExplainTypeError(trace, err)
}

// TypeErrorMessage reports a free-form error about actual, whose printed
// form mkMsg turns into the message. err, if not nil, explains it further
func (c *InferCtxt) TypeErrorMessage(span source.Span, mkMsg func(actual string) string, actual ty.Ty, err tyerr.TypeError) {
	actual = ResolveTypeVarsIfPossible(c, actual)
	if ty.ReferencesError(actual) {
		return
	}
	c.errs = c.errs.With(tyerr.New(tyerr.NewMessage{Span: span, Msg: mkMsg(actual.String()), Err: err}))
}

// ReportRegionErrors records one diagnostic per error of the region solver
func (c *InferCtxt) ReportRegionErrors(errs []region.ResolutionError) {
	for _, err := range errs {
		c.errs = c.errs.With(tyerr.New(tyerr.NewRegionError{Span: err.Span(), Msg: err.Error()}))
	}
}
