// Package appeal derives command-line interfaces from the declared
// signatures of callables. Positional parameters become arguments,
// keyword-only parameters become options, and parameter annotations are
// themselves converters that can recursively declare further parameters.
//
// The package is the embedding surface: command registration, dispatch, and
// usage generation. The grammar engine lives in the `charm` subpackage.
package appeal

import (
	"github.com/appeal-cli/appeal/charm"
)

// Re-exported primitive converters. They terminate converter recursion and
// consume exactly one token each.
var (
	String  = charm.String
	Bool    = charm.Bool
	Int     = charm.Int
	Float   = charm.Float
	Complex = charm.Complex
)

// ParamOption configures a declared parameter.
type ParamOption func(*charm.Parameter)

// Annotated sets the parameter's converter.
func Annotated(c charm.Converter) ParamOption {
	return func(p *charm.Parameter) {
		p.Annotation = c
	}
}

// Default sets the parameter's default value. Keyword-only parameters
// require one.
func Default(v interface{}) ParamOption {
	return func(p *charm.Parameter) {
		p.HasDefault = true
		p.Default = v
	}
}

func param(name string, kind charm.ParameterKind, opts []ParamOption) *charm.Parameter {
	p := &charm.Parameter{Name: name, Kind: kind}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Positional declares a positional parameter.
func Positional(name string, opts ...ParamOption) *charm.Parameter {
	return param(name, charm.Positional, opts)
}

// VarPositional declares the var-positional parameter.
func VarPositional(name string, opts ...ParamOption) *charm.Parameter {
	return param(name, charm.VarPositional, opts)
}

// KeywordOnly declares a keyword-only parameter; it surfaces as an option.
func KeywordOnly(name string, opts ...ParamOption) *charm.Parameter {
	return param(name, charm.KeywordOnly, opts)
}

// Func declares a callable with the provided parameters.
func Func(name string, fn charm.CallableFunc, params ...*charm.Parameter) *charm.Callable {
	return charm.NewCallable(name, fn, params...)
}

// Counter returns a MultiOption converter that counts option appearances.
func Counter() *charm.MultiOptionSpec {
	return charm.Counter()
}

// Accumulator returns a MultiOption converter that collects one value (or
// tuple) per option appearance.
func Accumulator(converters ...charm.Converter) *charm.MultiOptionSpec {
	return charm.Accumulator(converters...)
}

// Mapping returns a MultiOption converter that collects key/value pairs per
// option appearance.
func Mapping(key, value charm.Converter) *charm.MultiOptionSpec {
	return charm.Mapping(key, value)
}
