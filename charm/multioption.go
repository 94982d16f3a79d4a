package charm

import (
	"fmt"
)

// MultiOption is a converter that accumulates state across repeated
// invocations of the same option. Exactly one instance is created the first
// time the option appears in a run; `Option` is called once per appearance
// with freshly converted opargs; `Render` produces the final parameter value
// when the owning frame is finalized.
type MultiOption interface {
	// Init seeds the instance with the parameter's declared default.
	Init(def interface{})
	// Option consumes one appearance's converted opargs.
	Option(opargs ...interface{}) error
	// Render returns the accumulated value.
	Render() (interface{}, error)
}

// MultiOptionSpec declares a MultiOption converter: a factory for per-run
// instances and the oparg signature each appearance consumes.
type MultiOptionSpec struct {
	name    string
	factory func() MultiOption
	opargs  *Signature
	err     error
}

// NewMultiOption declares a MultiOption converter. The opargs must all be
// positional parameters; they describe what each appearance of the option
// consumes.
func NewMultiOption(name string, factory func() MultiOption, opargs ...*Parameter) *MultiOptionSpec {
	m := &MultiOptionSpec{name: name, factory: factory}
	m.opargs, m.err = NewSignature(opargs...)
	if m.err == nil {
		for _, p := range opargs {
			if p.Kind != Positional {
				m.err = Configurationf(BadSignatureConfiguration, "multioption %q oparg %q must be positional", name, p.Name)
				break
			}
		}
	}
	if m.err == nil && factory == nil {
		m.err = Configurationf(RegistrationConfiguration, "multioption %q has no factory", name)
	}
	return m
}

func (m *MultiOptionSpec) Name() string { return m.name }

func (m *MultiOptionSpec) Signature() *Signature { return m.opargs }

func (m *MultiOptionSpec) converter() {}

func (m *MultiOptionSpec) newInstance(def interface{}) MultiOption {
	mo := m.factory()
	mo.Init(def)
	return mo
}

type counter struct {
	n int
}

func (c *counter) Init(def interface{}) {
	if n, ok := def.(int); ok {
		c.n = n
	}
}

func (c *counter) Option(opargs ...interface{}) error {
	c.n++
	return nil
}

func (c *counter) Render() (interface{}, error) {
	return c.n, nil
}

// Counter returns a MultiOption that consumes no opargs and counts its
// appearances, starting from the parameter default.
func Counter() *MultiOptionSpec {
	return NewMultiOption("counter", func() MultiOption { return &counter{} })
}

type accumulator struct {
	single bool
	values []interface{}
}

func (a *accumulator) Init(def interface{}) {
	if vs, ok := def.([]interface{}); ok {
		a.values = append(a.values, vs...)
	}
}

func (a *accumulator) Option(opargs ...interface{}) error {
	if a.single {
		a.values = append(a.values, opargs[0])
		return nil
	}
	a.values = append(a.values, opargs)
	return nil
}

func (a *accumulator) Render() (interface{}, error) {
	return a.values, nil
}

// Accumulator returns a MultiOption that collects one value (or one tuple of
// values) per appearance into a slice. With no converters it accumulates
// single strings.
func Accumulator(converters ...Converter) *MultiOptionSpec {
	if len(converters) == 0 {
		converters = []Converter{String}
	}
	single := len(converters) == 1
	params := make([]*Parameter, 0, len(converters))
	for i, c := range converters {
		params = append(params, &Parameter{
			Name:       fmt.Sprintf("value%d", i+1),
			Kind:       Positional,
			Annotation: c,
		})
	}
	return NewMultiOption("accumulator", func() MultiOption { return &accumulator{single: single} }, params...)
}

type mapping struct {
	m map[interface{}]interface{}
}

func (mp *mapping) Init(def interface{}) {
	mp.m = map[interface{}]interface{}{}
	if dm, ok := def.(map[interface{}]interface{}); ok {
		for k, v := range dm {
			mp.m[k] = v
		}
	}
}

func (mp *mapping) Option(opargs ...interface{}) error {
	mp.m[opargs[0]] = opargs[1]
	return nil
}

func (mp *mapping) Render() (interface{}, error) {
	return mp.m, nil
}

// Mapping returns a MultiOption that consumes a key and a value per
// appearance and renders the accumulated map.
func Mapping(key, value Converter) *MultiOptionSpec {
	return NewMultiOption("mapping", func() MultiOption { return &mapping{} },
		&Parameter{Name: "key", Kind: Positional, Annotation: key},
		&Parameter{Name: "value", Kind: Positional, Annotation: value},
	)
}
