// Package charm compiles a tree of converters into a linear grammar program
// and interprets command-line tokens against it.
//
// The package is the engine underneath the `appeal` embedding surface: the
// signature model, the converter tree builder, the grammar compiler, and the
// bytecode interpreter all live here. Compiled artifacts (`Tree`, `Program`)
// are immutable once built and safe to share; all mutable run state lives in
// a `Processor`.
package charm

import (
	"golang.org/x/exp/slices"
)

// ParameterKind describes how a parameter receives its value.
type ParameterKind int

const (
	// Positional parameters consume command-line arguments in order.
	Positional ParameterKind = iota
	// VarPositional parameters consume every remaining fitting argument.
	VarPositional
	// KeywordOnly parameters are set via options and always carry a default.
	KeywordOnly
)

func (k ParameterKind) String() string {
	switch k {
	case Positional:
		return "positional"
	case VarPositional:
		return "var-positional"
	case KeywordOnly:
		return "keyword-only"
	}
	return "unknown"
}

type empty struct{}

// Empty is a sentinel value. It is not a legal default value; registering it
// as one is a configuration error.
var Empty interface{} = empty{}

// Parameter describes a single parameter of a callable.
type Parameter struct {
	// Name is the parameter name; it also seeds default option strings for
	// keyword-only parameters.
	Name string
	// Kind is the parameter kind.
	Kind ParameterKind
	// Annotation is the declared converter. A nil annotation is resolved from
	// the default value (see the tree builder).
	Annotation Converter
	// HasDefault indicates whether Default carries a value.
	HasDefault bool
	// Default is the value used when the parameter receives no tokens.
	Default interface{}

	usage string
}

// UsageName returns the name rendered in usage lines, honoring any
// registered override.
func (p *Parameter) UsageName() string {
	if p.usage != "" {
		return p.usage
	}
	return p.Name
}

// Signature is the ordered parameter list of a callable: positional
// parameters, at most one var-positional, then keyword-only parameters.
type Signature struct {
	params []*Parameter
	varIdx int
}

// NewSignature validates and builds a signature from the provided parameters.
func NewSignature(params ...*Parameter) (*Signature, error) {
	s := &Signature{varIdx: -1}
	seen := map[string]bool{}
	kwSeen := false
	defaultSeen := false
	for _, p := range params {
		if p == nil || p.Name == "" {
			return nil, Configurationf(BadSignatureConfiguration, "parameter with empty name")
		}
		if seen[p.Name] {
			return nil, Configurationf(BadSignatureConfiguration, "duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		if _, ok := p.Default.(empty); ok && p.HasDefault {
			return nil, Configurationf(EmptyDefaultConfiguration, "parameter %q uses the Empty sentinel as a default value", p.Name)
		}
		switch p.Kind {
		case Positional:
			if s.varIdx >= 0 || kwSeen {
				return nil, Configurationf(BadSignatureConfiguration, "positional parameter %q declared after var-positional or keyword-only parameters", p.Name)
			}
			if defaultSeen && !p.HasDefault {
				return nil, Configurationf(BadSignatureConfiguration, "required positional parameter %q declared after a defaulted one", p.Name)
			}
			if p.HasDefault {
				defaultSeen = true
			}
		case VarPositional:
			if s.varIdx >= 0 {
				return nil, Configurationf(BadSignatureConfiguration, "multiple var-positional parameters (%q)", p.Name)
			}
			if kwSeen {
				return nil, Configurationf(BadSignatureConfiguration, "var-positional parameter %q declared after keyword-only parameters", p.Name)
			}
			if p.HasDefault {
				return nil, Configurationf(BadSignatureConfiguration, "var-positional parameter %q can't have a default", p.Name)
			}
			s.varIdx = len(s.params)
		case KeywordOnly:
			kwSeen = true
			if !p.HasDefault {
				return nil, Configurationf(MissingDefaultConfiguration, "keyword-only parameter %q has no default", p.Name)
			}
		default:
			return nil, Configurationf(BadSignatureConfiguration, "parameter %q has unknown kind %d", p.Name, p.Kind)
		}
		s.params = append(s.params, p)
	}
	return s, nil
}

// Parameters returns all parameters in declaration order.
func (s *Signature) Parameters() []*Parameter {
	return slices.Clone(s.params)
}

// Positionals returns the positional parameters in order, excluding the
// var-positional.
func (s *Signature) Positionals() []*Parameter {
	var r []*Parameter
	for _, p := range s.params {
		if p.Kind == Positional {
			r = append(r, p)
		}
	}
	return r
}

// VarPositional returns the var-positional parameter, or nil.
func (s *Signature) VarPositional() *Parameter {
	if s.varIdx < 0 {
		return nil
	}
	return s.params[s.varIdx]
}

// KeywordOnly returns the keyword-only parameters in declaration order.
func (s *Signature) KeywordOnly() []*Parameter {
	var r []*Parameter
	for _, p := range s.params {
		if p.Kind == KeywordOnly {
			r = append(r, p)
		}
	}
	return r
}

// Lookup returns the parameter with the provided name, or nil.
func (s *Signature) Lookup(name string) *Parameter {
	for _, p := range s.params {
		if p.Name == name {
			return p
		}
	}
	return nil
}
