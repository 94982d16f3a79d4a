package charm

import (
	"fmt"

	"github.com/appeal-cli/appeal/internal/operator"
)

// Converter describes how to consume command-line tokens and produce a value.
// It is a closed set of variants: the five built-in primitives, user
// callables, boolean toggles, and MultiOption specs.
type Converter interface {
	// Name returns the converter name, used in error and usage text.
	Name() string
	// Signature returns the converter's parameter list.
	Signature() *Signature

	converter()
}

// PrimitiveKind enumerates the built-in primitive converters.
type PrimitiveKind int

const (
	StringValue PrimitiveKind = iota
	BoolValue
	IntValue
	FloatValue
	ComplexValue
)

// Primitive is a built-in converter that consumes exactly one token. The five
// primitives are the leaves of every converter tree.
type Primitive struct {
	kind PrimitiveKind
}

var (
	// String converts a token to itself.
	String = &Primitive{StringValue}
	// Bool converts a token with strconv.ParseBool semantics.
	Bool = &Primitive{BoolValue}
	// Int converts a token to an int.
	Int = &Primitive{IntValue}
	// Float converts a token to a float64.
	Float = &Primitive{FloatValue}
	// Complex converts a token to a complex128.
	Complex = &Primitive{ComplexValue}

	primitiveSig = func() *Signature {
		s, err := NewSignature(&Parameter{Name: "value", Kind: Positional})
		if err != nil {
			panic(err)
		}
		return s
	}()
)

func (p *Primitive) Name() string {
	switch p.kind {
	case BoolValue:
		return "bool"
	case IntValue:
		return "int"
	case FloatValue:
		return "float"
	case ComplexValue:
		return "complex"
	}
	return "str"
}

// Signature returns the synthesized `(value string)` signature shared by all
// primitives.
func (p *Primitive) Signature() *Signature {
	return primitiveSig
}

// Kind returns the primitive kind.
func (p *Primitive) Kind() PrimitiveKind {
	return p.kind
}

// Parse converts a single token into the primitive's value type.
func (p *Primitive) Parse(token string) (interface{}, error) {
	switch p.kind {
	case BoolValue:
		return operator.ParseBool(token)
	case IntValue:
		return operator.ParseInt(token)
	case FloatValue:
		return operator.ParseFloat(token)
	case ComplexValue:
		return operator.ParseComplex(token)
	}
	return token, nil
}

func (p *Primitive) converter() {}

// primitiveFor maps a default value to the primitive of its type.
func primitiveFor(v interface{}) (*Primitive, bool) {
	switch v.(type) {
	case string:
		return String, true
	case bool:
		return Bool, true
	case int:
		return Int, true
	case float64:
		return Float, true
	case complex128:
		return Complex, true
	}
	return nil, false
}

// BooleanToggle is the internal converter for keyword-only parameters with a
// boolean default and no annotation. It consumes no tokens and negates the
// default when its option appears.
type BooleanToggle struct {
	def bool
}

func (t *BooleanToggle) Name() string { return "toggle" }

func (t *BooleanToggle) Signature() *Signature {
	s, _ := NewSignature()
	return s
}

// Toggled returns the value bound when the option appears.
func (t *BooleanToggle) Toggled() bool { return !t.def }

func (t *BooleanToggle) converter() {}

// CallableFunc is the function type behind user callables. The invocation
// carries the converted positional and keyword values.
type CallableFunc func(*Invocation) (interface{}, error)

// Callable is a user-supplied converter or command function with an explicit
// signature. Parameter annotations that are themselves callables recursively
// declare further parameters.
type Callable struct {
	name string
	fn   CallableFunc
	sig  *Signature
	err  error

	optionOverrides []*optionOverride
	usageOverrides  map[string]string
}

type optionOverride struct {
	param      string
	strings    []string
	annotation Converter
	hasDefault bool
	def        interface{}
}

// NewCallable declares a callable with the provided parameters. Signature
// errors are deferred and surfaced when the converter tree is built.
func NewCallable(name string, fn CallableFunc, params ...*Parameter) *Callable {
	c := &Callable{name: name, fn: fn}
	c.sig, c.err = NewSignature(params...)
	if c.err == nil && fn == nil {
		c.err = Configurationf(RegistrationConfiguration, "callable %q has no function", name)
	}
	return c
}

func (c *Callable) Name() string { return c.name }

func (c *Callable) Signature() *Signature { return c.sig }

func (c *Callable) converter() {}

// OptionConfig carries the optional pieces of an option registration.
type OptionConfig struct {
	// Annotation overrides the converter used for the option's opargs.
	Annotation Converter
	// Default overrides the parameter default. Only read if HasDefault is set.
	Default    interface{}
	HasDefault bool
}

// Option registers explicit option strings for a keyword-only parameter,
// replacing the generated `--name` / short forms. Registering a name that is
// not a declared parameter places the value in the invocation's keyword bag.
// Chaining is used here because callables are usually declared as
// package-level variables.
func (c *Callable) Option(param string, optionStrings ...string) *Callable {
	return c.OptionWith(param, OptionConfig{}, optionStrings...)
}

// OptionWith is `Option` with an explicit annotation and/or default.
func (c *Callable) OptionWith(param string, cfg OptionConfig, optionStrings ...string) *Callable {
	if c.err == nil {
		if len(optionStrings) == 0 {
			c.err = Configurationf(RegistrationConfiguration, "option registration for %q on %q has no option strings", param, c.name)
		}
		for _, s := range optionStrings {
			if !optionStringRegex.MatchString(s) {
				c.err = Configurationf(RegistrationConfiguration, "invalid option string %q for parameter %q on %q", s, param, c.name)
				break
			}
		}
	}
	c.optionOverrides = append(c.optionOverrides, &optionOverride{
		param:      param,
		strings:    optionStrings,
		annotation: cfg.Annotation,
		hasDefault: cfg.HasDefault,
		def:        cfg.Default,
	})
	return c
}

// ParameterUsage overrides the name rendered for a parameter in usage lines.
func (c *Callable) ParameterUsage(param, usage string) *Callable {
	if c.usageOverrides == nil {
		c.usageOverrides = map[string]string{}
	}
	c.usageOverrides[param] = usage
	return c
}

// Invoke calls the underlying function with the provided invocation.
func (c *Callable) Invoke(inv *Invocation) (interface{}, error) {
	return c.fn(inv)
}

// Invocation is one bound call of a converter: its converted positional
// values (including any var-positional tail) and keyword values.
type Invocation struct {
	args []interface{}
	kw   map[string]interface{}
}

// NewInvocation builds an invocation directly. Primarily useful for testing
// callables outside the interpreter.
func NewInvocation(args []interface{}, kw map[string]interface{}) *Invocation {
	return &Invocation{args: args, kw: kw}
}

// NumArgs returns the number of positional values.
func (inv *Invocation) NumArgs() int { return len(inv.args) }

// Arg returns the i-th positional value.
func (inv *Invocation) Arg(i int) interface{} { return inv.args[i] }

// Args returns all positional values in order.
func (inv *Invocation) Args() []interface{} { return inv.args }

// Has returns whether or not a keyword value is present.
func (inv *Invocation) Has(name string) bool {
	_, ok := inv.kw[name]
	return ok
}

// Keyword returns the keyword value for name, or nil.
func (inv *Invocation) Keyword(name string) interface{} { return inv.kw[name] }

// Keywords returns the full keyword bag.
func (inv *Invocation) Keywords() map[string]interface{} { return inv.kw }

// ArgAt returns the i-th positional value as T, panicking on a type mismatch.
// A mismatch is a programming error: the grammar guarantees converted types.
func ArgAt[T any](inv *Invocation, i int) T {
	v, ok := inv.args[i].(T)
	if !ok {
		var t T
		panic(fmt.Sprintf("argument %d is %T, not %T", i, inv.args[i], t))
	}
	return v
}

// KeywordOr returns the keyword value for name as T, or dflt if absent.
func KeywordOr[T any](inv *Invocation, name string, dflt T) T {
	raw, ok := inv.kw[name]
	if !ok {
		return dflt
	}
	v, ok := raw.(T)
	if !ok {
		var t T
		panic(fmt.Sprintf("keyword %q is %T, not %T", name, raw, t))
	}
	return v
}
