// Package problem loads constraint problems from YAML files and runs them
// through an inference context.
//
// A problem declares its variables, the scope tree and item variances, then
// lists steps relating types:
//
//	version: 1.0.0
//	name: lub of two references
//	scopes:
//	  - {name: body, id: 1}
//	  - {name: block, id: 2, parent: 1}
//	vars:
//	  types: [a]
//	  regions: [r]
//	steps:
//	  - sub: ["&'r i32", "?a"]
//	  - subregion: ["'block", "'r"]
//	  - lub: ["&'block i32", "&'body i32"]
//	    as: c
//	  - eq: ["i32", "bool"]
//	    expect: error
//	resolve: [a, c, r]
package problem

import (
	"bytes"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/cottand/tyinfer/ty"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SupportedVersions is the range of format versions this package reads
const SupportedVersions = "^1.0.0"

type Problem struct {
	Version string   `yaml:"version"`
	Name    string   `yaml:"name"`
	Scopes  []Scope  `yaml:"scopes"`
	Items   []Item   `yaml:"items"`
	Vars    Vars     `yaml:"vars"`
	Params  []string `yaml:"params"`
	Steps   []Step   `yaml:"steps"`
	Resolve []string `yaml:"resolve"`
}

// Scope is a node of the scope tree. Its name refers to the region of the scope
type Scope struct {
	Name   string      `yaml:"name"`
	ID     ty.ScopeID  `yaml:"id"`
	Parent *ty.ScopeID `yaml:"parent"`
}

type Item struct {
	Name    string   `yaml:"name"`
	Types   []string `yaml:"types"`
	Regions []string `yaml:"regions"`
}

// Vars names the inference variables a problem starts with
type Vars struct {
	Types   []string `yaml:"types"`
	Ints    []string `yaml:"ints"`
	Floats  []string `yaml:"floats"`
	Regions []string `yaml:"regions"`
}

type Op string

const (
	OpSub       Op = "sub"
	OpEq        Op = "eq"
	OpLub       Op = "lub"
	OpGlb       Op = "glb"
	OpCanEq     Op = "can_eq"
	OpCanSub    Op = "can_sub"
	OpSubregion Op = "subregion"
)

var ops = []Op{OpSub, OpEq, OpLub, OpGlb, OpCanEq, OpCanSub, OpSubregion}

type Expect string

const (
	ExpectOK    Expect = "ok"
	ExpectError Expect = "error"
)

// Step relates two operands. The operands are types, or regions for subregion
type Step struct {
	Op       Op
	Operands [2]string
	// As names the result of lub and glb, for use by later steps
	As     string
	Expect Expect
	// Line is where the step starts in the problem file
	Line int
}

type rawStep struct {
	Sub       []string `yaml:"sub"`
	Eq        []string `yaml:"eq"`
	Lub       []string `yaml:"lub"`
	Glb       []string `yaml:"glb"`
	CanEq     []string `yaml:"can_eq"`
	CanSub    []string `yaml:"can_sub"`
	Subregion []string `yaml:"subregion"`
	As        string   `yaml:"as"`
	Expect    Expect   `yaml:"expect"`
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw rawStep
	if err := node.Decode(&raw); err != nil {
		return err
	}
	byOp := map[Op][]string{
		OpSub:       raw.Sub,
		OpEq:        raw.Eq,
		OpLub:       raw.Lub,
		OpGlb:       raw.Glb,
		OpCanEq:     raw.CanEq,
		OpCanSub:    raw.CanSub,
		OpSubregion: raw.Subregion,
	}
	*s = Step{As: raw.As, Expect: raw.Expect, Line: node.Line}
	for _, op := range ops {
		operands := byOp[op]
		if operands == nil {
			continue
		}
		if s.Op != "" {
			return errors.Errorf("line %d: step has both %s and %s", node.Line, s.Op, op)
		}
		if len(operands) != 2 {
			return errors.Errorf("line %d: %s takes 2 operands, got %d", node.Line, op, len(operands))
		}
		s.Op = op
		s.Operands = [2]string{operands[0], operands[1]}
	}
	if s.Op == "" {
		return errors.Errorf("line %d: step has no operation", node.Line)
	}
	if s.As != "" && s.Op != OpLub && s.Op != OpGlb {
		return errors.Errorf("line %d: only lub and glb results can be named", node.Line)
	}
	switch s.Expect {
	case "":
		s.Expect = ExpectOK
	case ExpectOK, ExpectError:
	default:
		return errors.Errorf("line %d: expect must be ok or error, got %q", node.Line, s.Expect)
	}
	return nil
}

// Parse decodes a problem, refusing format versions outside SupportedVersions
func Parse(src []byte) (*Problem, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	p := &Problem{}
	if err := dec.Decode(p); err != nil {
		return nil, errors.Wrap(err, "decoding problem")
	}
	if err := checkVersion(p.Version); err != nil {
		return nil, err
	}
	return p, nil
}

func Load(path string) (*Problem, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading problem %s", path)
	}
	p, err := Parse(src)
	if err != nil {
		return nil, errors.Wrapf(err, "loading problem %s", path)
	}
	return p, nil
}

func checkVersion(version string) error {
	if version == "" {
		return errors.New("missing format version")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "format version %q", version)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return errors.WithStack(err)
	}
	if !c.Check(v) {
		return errors.Errorf("format version %s is not supported, this build reads %s", v, SupportedVersions)
	}
	return nil
}

func parseVariance(s string) (ty.Variance, error) {
	switch s {
	case "covariant", "+":
		return ty.Covariant, nil
	case "contravariant", "-":
		return ty.Contravariant, nil
	case "invariant", "o":
		return ty.Invariant, nil
	case "bivariant", "*":
		return ty.Bivariant, nil
	}
	return 0, errors.Errorf("unknown variance %q", s)
}

func parseVariances(vs []string) ([]ty.Variance, error) {
	out := make([]ty.Variance, len(vs))
	for i, v := range vs {
		var err error
		if out[i], err = parseVariance(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Database builds the scope tree and item variances the problem declares
func (p *Problem) Database() (*ty.MemDB, error) {
	db := ty.NewMemDB()
	for _, s := range p.Scopes {
		if s.Parent == nil {
			continue
		}
		if *s.Parent == s.ID {
			return nil, errors.Errorf("scope %s is its own parent", s.Name)
		}
		db.AddScope(s.ID, *s.Parent)
	}
	for _, item := range p.Items {
		types, err := parseVariances(item.Types)
		if err != nil {
			return nil, errors.Wrapf(err, "item %s", item.Name)
		}
		regions, err := parseVariances(item.Regions)
		if err != nil {
			return nil, errors.Wrapf(err, "item %s", item.Name)
		}
		db.AddItem(ty.Item{Def: ty.DefID(item.Name), Variances: ty.ItemVariances{Types: types, Regions: regions}})
	}
	return db, nil
}
