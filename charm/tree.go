package charm

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
)

var (
	// ShortOptionRegex matches registrable short option strings (`-x`).
	ShortOptionRegex = regexp.MustCompile("^-[a-zA-Z0-9]$")
	// LongOptionRegex matches registrable long option strings (`--some-name`).
	LongOptionRegex = regexp.MustCompile("^--[a-zA-Z0-9][-a-zA-Z0-9_]*$")

	optionStringRegex = regexp.MustCompile("^(-[a-zA-Z0-9]|--[a-zA-Z0-9][-a-zA-Z0-9_]*)$")
)

// Unbounded marks a token count with no upper limit.
const Unbounded = -1

// Tree is the converter tree for one root callable: one node per converter
// usage (the same converter used twice yields two independent subtrees).
// Trees are immutable once built.
type Tree struct {
	// Root is the node for the root callable.
	Root *Node
	// Nodes lists every node in creation (depth-first) order; a node's ID
	// indexes this slice.
	Nodes []*Node
	// Specs lists every option spec in creation order; a spec's ID indexes
	// this slice.
	Specs []*OptionSpec

	// known maps every option string to the specs that define it anywhere in
	// the tree, for scope-error messages.
	known map[string][]*OptionSpec
}

// Node is one usage of a callable converter.
type Node struct {
	ID       int
	Callable *Callable
	// Positionals holds one slot per positional parameter, in order.
	Positionals []*Slot
	// Var is the var-positional slot, or nil.
	Var *Slot
	// Options holds the option specs for the node's keyword-only parameters,
	// in declaration order (registration order for keyword-bag extras).
	Options []*OptionSpec
	// Via is the option through which this node is reached, or nil for nodes
	// on the positional spine.
	Via *OptionSpec

	// MinTokens and MaxTokens bound how many tokens the node's positional
	// spine consumes (MaxTokens is Unbounded with a var-positional).
	MinTokens int
	MaxTokens int
}

// Slot binds a positional (or var-positional) parameter to its effective
// converter.
type Slot struct {
	Param *Parameter
	// Conv is the resolved converter.
	Conv Converter
	// Child is the node for Conv when it is a callable, nil otherwise.
	Child *Node

	// Index is the slot's position in the owning node (-1 for var slots).
	Index int

	MinTokens int
	MaxTokens int
}

// OptionSpec binds a keyword-only parameter to its option strings and
// resolved converter.
type OptionSpec struct {
	ID   int
	Node *Node
	// Param is the bound parameter. Keyword-bag extras get a synthesized
	// keyword-only parameter.
	Param *Parameter
	// Strings holds the option strings, shortest first.
	Strings []string
	// Conv is the resolved converter for the option's opargs.
	Conv Converter

	HasDefault bool
	Default    interface{}

	// Exactly one of the following shapes applies.
	Toggle *BooleanToggle
	Multi  *MultiOptionSpec
	Child  *Node
	Prim   *Primitive

	MinTokens int
	MaxTokens int
}

// Primary returns the spec's preferred option string for messages: the first
// long string if one exists, else the first string.
func (os *OptionSpec) Primary() string {
	for _, s := range os.Strings {
		if strings.HasPrefix(s, "--") {
			return s
		}
	}
	return os.Strings[0]
}

// SingleOparg reports whether the option consumes exactly one token, which
// enables the `-Xvalue` / `-X=value` forms.
func (os *OptionSpec) SingleOparg() bool {
	return os.MinTokens == 1 && os.MaxTokens == 1
}

type treeBuilder struct {
	tree *Tree
}

// NewTree builds the converter tree for the provided root callable, applying
// its registered option and usage overrides and enforcing the legality rules.
func NewTree(root *Callable) (*Tree, error) {
	tb := &treeBuilder{tree: &Tree{known: map[string][]*OptionSpec{}}}
	n, err := tb.build(root, nil, nil)
	if err != nil {
		return nil, err
	}
	tb.tree.Root = n
	return tb.tree, nil
}

func (tb *treeBuilder) build(c *Callable, via *OptionSpec, chain []*Callable) (*Node, error) {
	if c.err != nil {
		return nil, c.err
	}
	if slices.Contains(chain, c) {
		return nil, Configurationf(CycleConfiguration, "converter %q is part of its own annotation chain", c.name)
	}
	chain = append(chain, c)

	n := &Node{ID: len(tb.tree.Nodes), Callable: c, Via: via}
	tb.tree.Nodes = append(tb.tree.Nodes, n)

	for name, usage := range c.usageOverrides {
		p := c.sig.Lookup(name)
		if p == nil {
			return nil, Configurationf(RegistrationConfiguration, "usage override for unknown parameter %q on %q", name, c.name)
		}
		p.usage = usage
	}

	for _, p := range c.sig.Positionals() {
		slot, err := tb.buildSlot(n, p, len(n.Positionals), chain)
		if err != nil {
			return nil, err
		}
		n.Positionals = append(n.Positionals, slot)
		n.MinTokens += slot.MinTokens
		if n.MaxTokens != Unbounded {
			if slot.MaxTokens == Unbounded {
				n.MaxTokens = Unbounded
			} else {
				n.MaxTokens += slot.MaxTokens
			}
		}
	}
	if vp := c.sig.VarPositional(); vp != nil {
		slot, err := tb.buildSlot(n, vp, -1, chain)
		if err != nil {
			return nil, err
		}
		if slot.MinTokens < 1 {
			return nil, Configurationf(BottomlessConfiguration, "var-positional parameter %q on %q has a converter that consumes no tokens", vp.Name, c.name)
		}
		n.Var = slot
		n.MaxTokens = Unbounded
	}

	if err := tb.buildOptions(n, chain); err != nil {
		return nil, err
	}
	return n, nil
}

func (tb *treeBuilder) buildSlot(n *Node, p *Parameter, index int, chain []*Callable) (*Slot, error) {
	conv, err := effectiveConverter(p)
	if err != nil {
		return nil, err
	}
	slot := &Slot{Param: p, Conv: conv, Index: index}
	switch cv := conv.(type) {
	case *Primitive:
		slot.MinTokens, slot.MaxTokens = 1, 1
	case *Callable:
		child, err := tb.build(cv, nil, chain)
		if err != nil {
			return nil, err
		}
		slot.Child = child
		slot.MinTokens, slot.MaxTokens = child.MinTokens, child.MaxTokens
	default:
		return nil, Configurationf(RegistrationConfiguration, "parameter %q on %q has converter %q, which can't be used positionally", p.Name, n.Callable.name, conv.Name())
	}
	if p.HasDefault {
		slot.MinTokens = 0
	}
	return slot, nil
}

// buildOptions resolves the node's keyword-only parameters and option
// overrides into option specs.
func (tb *treeBuilder) buildOptions(n *Node, chain []*Callable) error {
	c := n.Callable
	type pending struct {
		param      *Parameter
		strings    []string
		annotation Converter
		hasDefault bool
		def        interface{}
	}
	var order []*pending
	byName := map[string]*pending{}
	// annotations records, per parameter and option string, the converter an
	// override registered, so a conflicting re-registration is rejected.
	annotations := map[string]Converter{}
	for _, p := range c.sig.KeywordOnly() {
		pd := &pending{param: p, hasDefault: p.HasDefault, def: p.Default}
		order = append(order, pd)
		byName[p.Name] = pd
	}
	for _, ov := range c.optionOverrides {
		pd := byName[ov.param]
		if pd == nil {
			if p := c.sig.Lookup(ov.param); p != nil {
				return Configurationf(RegistrationConfiguration, "option registered for non-keyword parameter %q on %q", ov.param, c.name)
			}
			// Keyword-bag entry: an option bound to a name the callable does
			// not declare.
			pd = &pending{param: &Parameter{Name: ov.param, Kind: KeywordOnly, HasDefault: ov.hasDefault, Default: ov.def}}
			order = append(order, pd)
			byName[ov.param] = pd
		}
		pd.strings = append(pd.strings, ov.strings...)
		if ov.annotation != nil {
			for _, s := range ov.strings {
				key := ov.param + " " + s
				if prev, ok := annotations[key]; ok && prev != ov.annotation {
					return Configurationf(OptionConflictConfiguration, "option %s registered for %q on %q with two different converters", s, ov.param, c.name)
				}
				annotations[key] = ov.annotation
			}
			pd.annotation = ov.annotation
		}
		if ov.hasDefault {
			pd.hasDefault, pd.def = true, ov.def
		}
	}

	used := map[string]*pending{}
	for _, pd := range order {
		if pd.hasDefault {
			if _, ok := pd.def.(empty); ok {
				return Configurationf(EmptyDefaultConfiguration, "option %q on %q uses the Empty sentinel as a default value", pd.param.Name, c.name)
			}
		}
		if len(pd.strings) == 0 {
			pd.strings = defaultOptionStrings(pd.param.Name, used)
		}
		for _, s := range pd.strings {
			if prior, ok := used[s]; ok && prior != pd {
				return Configurationf(OptionConflictConfiguration, "option %s registered for both %q and %q on %q", s, prior.param.Name, pd.param.Name, c.name)
			}
			used[s] = pd
		}
		pd.strings = dedupe(pd.strings)

		spec := &OptionSpec{
			ID:         len(tb.tree.Specs),
			Node:       n,
			Param:      pd.param,
			Strings:    sortOptionStrings(pd.strings),
			HasDefault: pd.hasDefault,
			Default:    pd.def,
		}
		tb.tree.Specs = append(tb.tree.Specs, spec)

		conv, err := effectiveOptionConverter(pd.param, pd.annotation, pd.hasDefault, pd.def)
		if err != nil {
			return err
		}
		spec.Conv = conv
		switch cv := conv.(type) {
		case *BooleanToggle:
			spec.Toggle = cv
		case *Primitive:
			spec.Prim = cv
			spec.MinTokens, spec.MaxTokens = 1, 1
		case *MultiOptionSpec:
			if cv.err != nil {
				return cv.err
			}
			for _, op := range cv.opargs.Positionals() {
				oc, err := effectiveConverter(op)
				if err != nil {
					return err
				}
				if _, ok := oc.(*Primitive); !ok {
					return Configurationf(RegistrationConfiguration, "multioption %q oparg %q on %q must convert with a primitive", cv.name, op.Name, c.name)
				}
			}
			spec.Multi = cv
			spec.MinTokens = len(cv.opargs.Positionals())
			spec.MaxTokens = spec.MinTokens
		case *Callable:
			child, err := tb.build(cv, spec, chain)
			if err != nil {
				return err
			}
			spec.Child = child
			spec.MinTokens, spec.MaxTokens = child.MinTokens, child.MaxTokens
		default:
			return Configurationf(RegistrationConfiguration, "option %q on %q has unsupported converter %q", pd.param.Name, c.name, conv.Name())
		}

		n.Options = append(n.Options, spec)
		for _, s := range spec.Strings {
			tb.tree.known[s] = append(tb.tree.known[s], spec)
		}
	}
	return nil
}

// KnownSpecs returns the specs registered anywhere in the tree for the
// provided option string.
func (t *Tree) KnownSpecs(option string) []*OptionSpec {
	return t.known[option]
}

// effectiveConverter resolves a positional parameter's converter:
// explicit annotation, then default-value type, then string.
func effectiveConverter(p *Parameter) (Converter, error) {
	if p.Annotation != nil {
		return p.Annotation, nil
	}
	if p.HasDefault {
		if p.Default == nil {
			return String, nil
		}
		if prim, ok := primitiveFor(p.Default); ok {
			return prim, nil
		}
		return nil, Configurationf(RegistrationConfiguration, "parameter %q has default of type %T, which has no converter", p.Name, p.Default)
	}
	return String, nil
}

// effectiveOptionConverter resolves a keyword-only parameter's converter.
// The rules match effectiveConverter except that an unannotated boolean
// default becomes a toggle that consumes no tokens.
func effectiveOptionConverter(p *Parameter, annotation Converter, hasDefault bool, def interface{}) (Converter, error) {
	if annotation == nil {
		annotation = p.Annotation
	}
	if annotation != nil {
		return annotation, nil
	}
	if hasDefault {
		if def == nil {
			return String, nil
		}
		if b, ok := def.(bool); ok {
			return &BooleanToggle{def: b}, nil
		}
		if prim, ok := primitiveFor(def); ok {
			return prim, nil
		}
		return nil, Configurationf(RegistrationConfiguration, "option %q has default of type %T, which has no converter", p.Name, def)
	}
	return String, nil
}

// defaultOptionStrings generates option strings for an unregistered
// keyword-only parameter: `--name-with-dashes` plus, when free at this
// scope, the one-letter short form. Single-letter names only get the short
// form. Collisions resolve first-come, first-served in declaration order.
func defaultOptionStrings[T any](name string, used map[string]T) []string {
	dashed := strings.ReplaceAll(name, "_", "-")
	runes := []rune(dashed)
	if len(runes) == 1 {
		return []string{"-" + dashed}
	}
	r := []string{"--" + dashed}
	short := "-" + string(runes[0])
	if ShortOptionRegex.MatchString(short) {
		if _, taken := used[short]; !taken {
			r = append(r, short)
		}
	}
	return r
}

func dedupe(ss []string) []string {
	var r []string
	for _, s := range ss {
		if !slices.Contains(r, s) {
			r = append(r, s)
		}
	}
	return r
}

// sortOptionStrings orders option strings shortest first so usage renders as
// `-x|--xxx`.
func sortOptionStrings(ss []string) []string {
	r := slices.Clone(ss)
	slices.SortStableFunc(r, func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})
	return r
}

// OpargUsage renders the oparg shape of an option for usage lines.
func (os *OptionSpec) OpargUsage() []string {
	switch {
	case os.Toggle != nil:
		return nil
	case os.Prim != nil:
		return []string{os.Param.UsageName()}
	case os.Multi != nil:
		var r []string
		for _, p := range os.Multi.opargs.Positionals() {
			r = append(r, p.UsageName())
		}
		return r
	case os.Child != nil:
		var r []string
		for _, slot := range os.Child.Positionals {
			r = append(r, slot.Param.UsageName())
		}
		if os.Child.Var != nil {
			r = append(r, fmt.Sprintf("[%s]...", os.Child.Var.Param.UsageName()))
		}
		return r
	}
	return nil
}
