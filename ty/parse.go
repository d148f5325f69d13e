package ty

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/scanner"
)

// Env resolves the names a textual type refers to
type Env interface {
	// LookupVar resolves `?name` to an inference type
	LookupVar(name string) (Ty, bool)
	// LookupRegion resolves `'name` when it is not bound by an enclosing `for<>`
	LookupRegion(name string) (Region, bool)
	// LookupParam resolves an identifier to a type parameter. Unknown
	// identifiers which are not primitives are nominal types
	LookupParam(name string) (Ty, bool)
}

type MapEnv struct {
	Vars    map[string]Ty
	Regions map[string]Region
	Params  map[string]Ty
}

func (e MapEnv) LookupVar(name string) (Ty, bool) {
	t, ok := e.Vars[name]
	return t, ok
}

func (e MapEnv) LookupRegion(name string) (Region, bool) {
	r, ok := e.Regions[name]
	return r, ok
}

func (e MapEnv) LookupParam(name string) (Ty, bool) {
	t, ok := e.Params[name]
	return t, ok
}

var primsByName = func() map[string]Ty {
	m := map[string]Ty{}
	for k := range primNames {
		m[primNames[k]] = Prim{PrimKind(k)}
	}
	return m
}()

// Parse reads a type written in the syntax String produces:
//
//	i32  (A, B)  &'a mut T  *const T  [T; 3]  [T]  ?0  ?x  {error}
//	for<'a> unsafe fn(&'a u8, ...) -> !  Vec<'a, T>  dyn Trait<T> + 'a
//
// A reference without a region gets 'static. `?N` with N numeric is the
// type variable N unless env names it.
func Parse(src string, env Env) (Ty, error) {
	p := newParser(src, env)
	t := p.parseTy()
	p.expectEOF()
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

func MustParse(src string, env Env) Ty {
	t, err := Parse(src, env)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTraitRef reads `[for<'a>] Trait<Self, T...>`. The first type argument is Self
func ParseTraitRef(src string, env Env) (PolyTraitRef, error) {
	p := newParser(src, env)
	names := p.parseForPrefix()
	p.binders = append(p.binders, names)
	ref := p.parsePath()
	p.binders = p.binders[:len(p.binders)-1]
	p.expectEOF()
	if p.err != nil {
		return PolyTraitRef{}, p.err
	}
	return Bind(TraitRef{Def: ref.Def, Substs: ref.Substs}), nil
}

func ParseRegion(src string, env Env) (Region, error) {
	p := newParser(src, env)
	r := p.parseRegion()
	p.expectEOF()
	if p.err != nil {
		return nil, p.err
	}
	return r, nil
}

type parser struct {
	s       scanner.Scanner
	tok     rune
	text    string
	env     Env
	binders [][]string
	err     error
}

func newParser(src string, env Env) *parser {
	if env == nil {
		env = MapEnv{}
	}
	p := &parser{env: env}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.SkipComments
	p.s.Error = func(s *scanner.Scanner, msg string) { p.fail("%s", msg) }
	p.next()
	return p
}

func (p *parser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
}

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: %s", p.s.Position, fmt.Sprintf(format, args...))
	}
	// stop consuming input
	p.tok = scanner.EOF
}

func (p *parser) expect(tok rune) {
	if p.tok != tok {
		p.fail("expected %s, found %q", scanner.TokenString(tok), p.text)
		return
	}
	p.next()
}

func (p *parser) expectEOF() {
	if p.tok != scanner.EOF {
		p.fail("unexpected %q after type", p.text)
	}
}

func (p *parser) isKeyword(kw string) bool { return p.tok == scanner.Ident && p.text == kw }

func (p *parser) parseTy() Ty {
	if p.err != nil {
		return Err
	}
	switch p.tok {
	case '(':
		return p.parseTuple()
	case '&':
		p.next()
		region := Static
		if p.tok == '\'' {
			region = p.parseRegion()
		}
		mut := Immutable
		if p.isKeyword("mut") {
			mut = Mutable
			p.next()
		}
		return &Ref{Region: region, Mut: mut, Elem: p.parseTy()}
	case '*':
		p.next()
		mut := Immutable
		switch {
		case p.isKeyword("mut"):
			mut = Mutable
		case p.isKeyword("const"):
		default:
			p.fail("expected const or mut after *")
			return Err
		}
		p.next()
		return &RawPtr{Mut: mut, Elem: p.parseTy()}
	case '[':
		p.next()
		elem := p.parseTy()
		if p.tok == ';' {
			p.next()
			n := p.parseUint()
			p.expect(']')
			return &Array{Elem: elem, Len: n}
		}
		p.expect(']')
		return &Slice{Elem: elem}
	case '?':
		p.next()
		return p.parseVar()
	case '{':
		p.next()
		if !p.isKeyword("error") {
			p.fail("expected {error}")
			return Err
		}
		p.next()
		p.expect('}')
		return Err
	case scanner.Ident:
		switch p.text {
		case "for", "fn", "unsafe", "dyn":
			return p.parseBinderTy()
		}
		if prim, ok := primsByName[p.text]; ok {
			p.next()
			return prim
		}
		if param, ok := p.env.LookupParam(p.text); ok {
			p.next()
			return param
		}
		path := p.parsePath()
		return &Adt{Def: path.Def, Substs: path.Substs}
	}
	p.fail("unexpected %q", p.text)
	return Err
}

func (p *parser) parseTuple() Ty {
	p.expect('(')
	var elems []Ty
	trailingComma := false
	for p.tok != ')' && p.err == nil {
		elems = append(elems, p.parseTy())
		trailingComma = false
		if p.tok != ',' {
			break
		}
		p.next()
		trailingComma = true
	}
	p.expect(')')
	if len(elems) == 1 && !trailingComma {
		return elems[0]
	}
	return &Tuple{Elems: elems}
}

func (p *parser) parseVar() Ty {
	name := p.text
	if p.tok != scanner.Ident && p.tok != scanner.Int {
		p.fail("expected variable name after ?")
		return Err
	}
	p.next()
	if t, ok := p.env.LookupVar(name); ok {
		return t
	}
	if n, err := strconv.ParseUint(name, 10, 32); err == nil {
		return TyVar{Vid: TyVid(n)}
	}
	p.fail("unknown variable ?%s", name)
	return Err
}

func (p *parser) parseUint() uint64 {
	if p.tok != scanner.Int {
		p.fail("expected number, found %q", p.text)
		return 0
	}
	n, err := strconv.ParseUint(p.text, 10, 64)
	if err != nil {
		p.fail("%v", err)
	}
	p.next()
	return n
}

// parseForPrefix reads an optional `for<'a, 'b>` and returns the bound names
func (p *parser) parseForPrefix() []string {
	if !p.isKeyword("for") {
		return nil
	}
	p.next()
	p.expect('<')
	var names []string
	for p.tok == '\'' {
		p.next()
		names = append(names, p.text)
		p.expect(scanner.Ident)
		if p.tok != ',' {
			break
		}
		p.next()
	}
	p.expect('>')
	return names
}

// parseBinderTy reads fn pointer and trait object types, which introduce a binder
func (p *parser) parseBinderTy() Ty {
	names := p.parseForPrefix()
	p.binders = append(p.binders, names)
	popBinder := func() { p.binders = p.binders[:len(p.binders)-1] }

	if p.isKeyword("dyn") {
		p.next()
		path := p.parsePath()
		popBinder()
		principal := Bind(TraitRef{Def: path.Def, Substs: path.Substs})
		bound := Static
		if p.tok == '+' {
			p.next()
			bound = p.parseRegion()
		}
		return &Dynamic{Principal: principal, RegionBound: bound}
	}
	defer popBinder()

	unsafe := false
	if p.isKeyword("unsafe") {
		unsafe = true
		p.next()
	}
	if !p.isKeyword("fn") {
		p.fail("expected fn, found %q", p.text)
		return Err
	}
	p.next()
	p.expect('(')
	sig := FnSig{}
	for p.tok != ')' && p.err == nil {
		if p.tok == '.' {
			p.expect('.')
			p.expect('.')
			p.expect('.')
			sig.Variadic = true
			break
		}
		sig.Inputs = append(sig.Inputs, p.parseTy())
		if p.tok != ',' {
			break
		}
		p.next()
	}
	p.expect(')')
	sig.Output = Unit()
	if p.tok == '-' {
		p.next()
		p.expect('>')
		if p.tok == '!' {
			p.next()
			sig.Diverging = true
			sig.Output = nil
		} else {
			sig.Output = p.parseTy()
		}
	}
	return &FnPtr{Unsafe: unsafe, Sig: Bind(sig)}
}

type path struct {
	Def    DefID
	Substs *Substs
}

func (p *parser) parsePath() path {
	name := p.text
	p.expect(scanner.Ident)
	substs := &Substs{}
	if p.tok == '<' {
		p.next()
		for p.tok != '>' && p.err == nil {
			if p.tok == '\'' {
				substs.Regions = append(substs.Regions, p.parseRegion())
			} else {
				substs.Types = append(substs.Types, p.parseTy())
			}
			if p.tok != ',' {
				break
			}
			p.next()
		}
		p.expect('>')
	}
	return path{Def: DefID(name), Substs: substs}
}

func (p *parser) parseRegion() Region {
	p.expect('\'')
	name := p.text
	p.expect(scanner.Ident)
	if p.err != nil {
		return Static
	}
	switch name {
	case "static":
		return Static
	case "empty":
		return Empty
	}
	for depth := len(p.binders) - 1; depth >= 0; depth-- {
		if slices.Contains(p.binders[depth], name) {
			return ReLateBound{
				Debruijn: InnermostBinder.Shifted(uint32(len(p.binders) - 1 - depth)),
				BR:       BrNamedOf(name),
			}
		}
	}
	if r, ok := p.env.LookupRegion(name); ok {
		return r
	}
	p.fail("unknown region '%s", name)
	return Static
}
