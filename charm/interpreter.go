package charm

import (
	"strings"
)

// Processor executes a compiled program against one argument stream. All
// mutable run state lives here; the program and tree are shared and
// read-only. A processor is single-shot: allocate a fresh one per run.
type Processor struct {
	prog  *Program
	input *Input
	pc    int

	frames []*frame
	groups []*groupRec

	// bindings maps each option string to its stack of live bindings; the
	// innermost mapping shadows outer ones.
	bindings map[string][]*binding
	// stores maps option spec IDs to their per-run value stores.
	stores map[int]*kwStore

	noMoreOptions bool
	prefix        bool
	result        interface{}
}

// frame accumulates one converter invocation: positional values, the
// var-positional tail, and (for option frames) the child option strings
// mapped when the option was invoked.
type frame struct {
	node    *Node
	pos     []interface{}
	posSet  []bool
	varVals []interface{}
	mapped  []string
}

func newFrame(n *Node) *frame {
	return &frame{
		node:   n,
		pos:    make([]interface{}, len(n.Positionals)),
		posSet: make([]bool, len(n.Positionals)),
	}
}

type groupRec struct {
	id        int
	endPC     int
	committed bool
	mapped    []string
	specIDs   []int
}

// binding is one in-scope mapping of an option string.
type binding struct {
	spec *OptionSpec
	// group is the not-yet-committed group this mapping is provisional for,
	// or nil for committed mappings.
	group *groupRec
	store *kwStore
}

// kwStore holds the run state of one option spec: a converted value, a
// MultiOption instance, or an unfinalized option converter frame.
type kwStore struct {
	set     bool
	value   interface{}
	multi   MultiOption
	pending *frame
}

// NewProcessor returns a fresh processor for the provided program.
func NewProcessor(prog *Program) *Processor {
	return &Processor{
		prog:     prog,
		bindings: map[string][]*binding{},
		stores:   map[int]*kwStore{},
	}
}

// Run drives the argument tokens through the program and returns the root
// callable's result.
func (p *Processor) Run(args []string) (interface{}, error) {
	if err := p.run(args, false); err != nil {
		return nil, err
	}
	return p.result, nil
}

// RunPrefix is Run, except that leftover tokens are returned instead of
// being an error. The dispatcher uses it to consume global options before
// command resolution.
func (p *Processor) RunPrefix(args []string) (interface{}, []string, error) {
	if err := p.run(args, true); err != nil {
		return nil, nil, err
	}
	return p.result, p.input.Remaining(), nil
}

func (p *Processor) run(args []string, prefix bool) error {
	if p.input != nil {
		return Configurationf(RegistrationConfiguration, "processor for %q reused; allocate a new processor per run", p.prog.Name)
	}
	p.input = NewInput(args)
	p.prefix = prefix
	for {
		in := &p.prog.Code[p.pc]
		switch in.Op {
		case OpEnterConverter:
			skipped, err := p.groupGate()
			if err != nil {
				return err
			}
			if skipped {
				continue
			}
			p.frames = append(p.frames, newFrame(p.prog.Tree.Nodes[in.Node]))
			p.pc++

		case OpConsumeArgument:
			skipped, err := p.groupGate()
			if err != nil {
				return err
			}
			if skipped {
				continue
			}
			if err := p.drainOptions(); err != nil {
				return err
			}
			tok, ok := p.input.Pop()
			if !ok {
				return MissingArgumentError(in.Param)
			}
			v, err := in.Conv.Parse(tok)
			if err != nil {
				return ConverterUsageError(tok, err)
			}
			p.bind(p.frames[len(p.frames)-1], in.Pos, v)
			p.pc++

		case OpMapOption:
			p.mapString(in.Option, p.prog.Tree.Specs[in.Spec], nil)
			p.pc++

		case OpEarlyMap:
			p.mapString(in.Option, p.prog.Tree.Specs[in.Spec], p.topGroup())
			p.pc++

		case OpUnmapOption:
			if err := p.drainOptions(); err != nil {
				return err
			}
			p.unmapString(in.Option)
			p.pc++

		case OpGroupBegin:
			p.groups = append(p.groups, &groupRec{id: in.Group, endPC: in.Target})
			p.pc++

		case OpGroupEnd:
			if err := p.drainOptions(); err != nil {
				return err
			}
			g := p.groups[len(p.groups)-1]
			p.groups = p.groups[:len(p.groups)-1]
			for i := len(g.mapped) - 1; i >= 0; i-- {
				p.unmapString(g.mapped[i])
			}
			if !g.committed {
				for _, id := range g.specIDs {
					delete(p.stores, id)
				}
			}
			p.pc++

		case OpBranchOnArgument:
			if err := p.drainOptions(); err != nil {
				return err
			}
			if p.input.NumRemaining() == 0 {
				p.pc = in.Target
			} else {
				p.pc++
			}

		case OpCallConverter:
			if err := p.drainOptions(); err != nil {
				return err
			}
			f := p.frames[len(p.frames)-1]
			p.frames = p.frames[:len(p.frames)-1]
			res, err := p.callFrame(f, "")
			if err != nil {
				if len(p.frames) == 0 {
					// Root callable errors belong to the command, not the
					// command line; the dispatcher decides how they surface.
					return err
				}
				return ConverterUsageError("", err)
			}
			if in.Pos == -2 {
				p.result = res
			} else {
				p.bind(p.frames[len(p.frames)-1], in.Pos, res)
			}
			p.pc++

		case OpJump:
			p.pc = in.Target

		case OpEnd:
			if err := p.drainOptions(); err != nil {
				return err
			}
			if !p.prefix && p.input.NumRemaining() > 0 {
				next, _ := p.input.Peek()
				return TooManyArgumentsError(next)
			}
			return nil

		default:
			panic("interpreter: unknown opcode")
		}
	}
}

func (p *Processor) bind(f *frame, pos int, v interface{}) {
	if pos < 0 {
		f.varVals = append(f.varVals, v)
		return
	}
	f.pos[pos] = v
	f.posSet[pos] = true
}

func (p *Processor) topGroup() *groupRec {
	if len(p.groups) == 0 {
		return nil
	}
	return p.groups[len(p.groups)-1]
}

// groupGate runs at every consume point. When the innermost group is still
// uncommitted it drains leading options (whose use may commit the group) and
// then either commits it (a token is waiting) or skips to the group's end
// (the stream is exhausted). With no pending group decision it does nothing:
// draining waits until the scope's MAP_OPTIONs have executed.
func (p *Processor) groupGate() (bool, error) {
	g := p.topGroup()
	if g == nil || g.committed {
		return false, nil
	}
	if err := p.drainOptions(); err != nil {
		return false, err
	}
	g = p.topGroup()
	if g == nil || g.committed {
		return false, nil
	}
	if p.input.NumRemaining() == 0 {
		p.pc = g.endPC
		return true, nil
	}
	for _, gr := range p.groups {
		gr.committed = true
	}
	return false, nil
}

func (p *Processor) commitThrough(g *groupRec) {
	for _, gr := range p.groups {
		gr.committed = true
		if gr == g {
			return
		}
	}
}

func (p *Processor) mapString(option string, spec *OptionSpec, g *groupRec) {
	st := p.stores[spec.ID]
	if st == nil {
		st = &kwStore{}
		p.stores[spec.ID] = st
	}
	p.bindings[option] = append(p.bindings[option], &binding{spec: spec, group: g, store: st})
	if g != nil {
		g.mapped = append(g.mapped, option)
		g.specIDs = append(g.specIDs, spec.ID)
	}
}

func (p *Processor) unmapString(option string) {
	bs := p.bindings[option]
	p.bindings[option] = bs[:len(bs)-1]
}

func (p *Processor) lookup(option string) *binding {
	bs := p.bindings[option]
	if len(bs) == 0 {
		return nil
	}
	return bs[len(bs)-1]
}

func isOptionToken(tok string) bool {
	return len(tok) > 1 && tok[0] == '-'
}

// drainOptions consumes every leading option token, including `--`.
func (p *Processor) drainOptions() error {
	for {
		tok, ok := p.input.Peek()
		if !ok || p.noMoreOptions {
			return nil
		}
		if tok == "--" {
			p.input.Pop()
			p.noMoreOptions = true
			return nil
		}
		if !isOptionToken(tok) {
			return nil
		}
		p.input.Pop()
		if strings.HasPrefix(tok, "--") {
			name, val, hasVal := strings.Cut(tok, "=")
			var explicit *string
			if hasVal {
				explicit = &val
			}
			if err := p.invokeNamed(name, explicit); err != nil {
				return err
			}
			continue
		}
		if err := p.shortOptions(tok); err != nil {
			return err
		}
	}
}

// shortOptions processes a `-X…` token: the single-oparg `-Xvalue` /
// `-X=value` forms, or multi-letter concatenation (`-XYZ` ≡ `-X -Y -Z`,
// applying each letter's scope effects in order).
func (p *Processor) shortOptions(tok string) error {
	runes := []rune(tok[1:])
	for i := 0; i < len(runes); i++ {
		name := "-" + string(runes[i])
		b := p.lookup(name)
		if b == nil {
			return p.unknownOption(name)
		}
		if rest := string(runes[i+1:]); rest != "" && b.spec.SingleOparg() {
			rest = strings.TrimPrefix(rest, "=")
			return p.invokeBinding(b, &rest)
		}
		if err := p.invokeBinding(b, nil); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) invokeNamed(name string, explicit *string) error {
	b := p.lookup(name)
	if b == nil {
		return p.unknownOption(name)
	}
	return p.invokeBinding(b, explicit)
}

func (p *Processor) unknownOption(name string) error {
	if specs := p.prog.Tree.KnownSpecs(name); len(specs) > 0 {
		spec := specs[0]
		if spec.Node.Via != nil {
			return OptionScopeError(name, spec.Node.Via.Primary())
		}
		return OptionMisplacedError(name, spec.Node.Callable.Name())
	}
	return UnknownOptionError(name)
}

func (p *Processor) invokeBinding(b *binding, explicit *string) error {
	if b.group != nil && !b.group.committed {
		p.commitThrough(b.group)
	}
	spec := b.spec
	if explicit != nil && spec.MaxTokens == 0 {
		return NoOpargError(spec.Primary())
	}
	if explicit != nil {
		p.input.Push(*explicit)
	}
	st := b.store
	switch {
	case spec.Toggle != nil:
		st.set = true
		st.value = spec.Toggle.Toggled()

	case spec.Multi != nil:
		if st.multi == nil {
			var def interface{}
			if spec.HasDefault {
				def = spec.Default
			}
			st.multi = spec.Multi.newInstance(def)
		}
		opargs := spec.Multi.opargs.Positionals()
		vals := make([]interface{}, 0, len(opargs))
		for _, op := range opargs {
			tok, ok := p.input.Pop()
			if !ok {
				return MissingOpargError(spec.Primary(), op.UsageName())
			}
			conv, err := effectiveConverter(op)
			if err != nil {
				return err
			}
			v, err := conv.(*Primitive).Parse(tok)
			if err != nil {
				return ConverterUsageError(tok, err)
			}
			vals = append(vals, v)
		}
		st.set = true
		if err := st.multi.Option(vals...); err != nil {
			return ConverterUsageError(spec.Primary(), err)
		}

	case spec.Prim != nil:
		tok, ok := p.input.Pop()
		if !ok {
			return MissingOpargError(spec.Primary(), spec.Param.UsageName())
		}
		v, err := spec.Prim.Parse(tok)
		if err != nil {
			return ConverterUsageError(tok, err)
		}
		st.set = true
		st.value = v

	case spec.Child != nil:
		if st.pending != nil {
			// Repeated non-multi option: the last occurrence wins and the
			// earlier frame is discarded unfinalized.
			for i := len(st.pending.mapped) - 1; i >= 0; i-- {
				p.unmapString(st.pending.mapped[i])
			}
		}
		pf, err := p.runOptionFrame(spec)
		if err != nil {
			return err
		}
		st.set = true
		st.pending = pf
	}
	return nil
}

// runOptionFrame consumes an option's opargs (one per positional parameter
// of its converter, recursively) and maps the converter's own options into
// the current scope. The frame stays pending until the owning scope closes.
func (p *Processor) runOptionFrame(spec *OptionSpec) (*frame, error) {
	pf, err := p.consumeOpargs(spec, spec.Child)
	if err != nil {
		return nil, err
	}
	for _, cs := range spec.Child.Options {
		st := p.stores[cs.ID]
		if st == nil {
			st = &kwStore{}
			p.stores[cs.ID] = st
		}
		for _, s := range cs.Strings {
			p.bindings[s] = append(p.bindings[s], &binding{spec: cs, store: st})
			pf.mapped = append(pf.mapped, s)
		}
	}
	return pf, nil
}

func (p *Processor) consumeOpargs(spec *OptionSpec, n *Node) (*frame, error) {
	pf := newFrame(n)
	for i, slot := range n.Positionals {
		if !p.opargAvailable() {
			if slot.Param.HasDefault {
				continue
			}
			return nil, MissingOpargError(spec.Primary(), slot.Param.UsageName())
		}
		v, err := p.consumeOpargSlot(spec, slot)
		if err != nil {
			return nil, err
		}
		pf.pos[i] = v
		pf.posSet[i] = true
	}
	if n.Var != nil {
		for p.opargAvailable() {
			v, err := p.consumeOpargSlot(spec, n.Var)
			if err != nil {
				return nil, err
			}
			pf.varVals = append(pf.varVals, v)
		}
	}
	return pf, nil
}

func (p *Processor) consumeOpargSlot(spec *OptionSpec, slot *Slot) (interface{}, error) {
	if slot.Child != nil {
		return p.consumeOpargs(spec, slot.Child)
	}
	tok, ok := p.input.Pop()
	if !ok {
		return nil, MissingOpargError(spec.Primary(), slot.Param.UsageName())
	}
	v, err := slot.Conv.(*Primitive).Parse(tok)
	if err != nil {
		return nil, ConverterUsageError(tok, err)
	}
	return v, nil
}

// opargAvailable reports whether the next token can feed an oparg slot.
// Option-looking tokens from the stream never feed opargs, `--` included; a
// value pushed back from `--name=value` or `-Xvalue` always does, so values
// that start with a dash go through those forms.
func (p *Processor) opargAvailable() bool {
	if len(p.input.pushed) > 0 {
		return true
	}
	tok, ok := p.input.Peek()
	if !ok {
		return false
	}
	return p.noMoreOptions || !isOptionToken(tok)
}

// callFrame finalizes a frame: unset positionals fall back to their
// defaults, option stores resolve (rendering MultiOptions and finalizing
// pending option frames), and the callable is invoked.
func (p *Processor) callFrame(f *frame, viaOption string) (interface{}, error) {
	n := f.node
	args := make([]interface{}, 0, len(n.Positionals)+len(f.varVals))
	for i, slot := range n.Positionals {
		if f.posSet[i] {
			v := f.pos[i]
			if cpf, ok := v.(*frame); ok {
				cv, err := p.callFrame(cpf, viaOption)
				if err != nil {
					return nil, err
				}
				v = cv
			}
			args = append(args, v)
			continue
		}
		args = append(args, slot.Param.Default)
	}
	for _, v := range f.varVals {
		if cpf, ok := v.(*frame); ok {
			cv, err := p.callFrame(cpf, viaOption)
			if err != nil {
				return nil, err
			}
			v = cv
		}
		args = append(args, v)
	}

	kw := map[string]interface{}{}
	for _, spec := range n.Options {
		st := p.stores[spec.ID]
		delete(p.stores, spec.ID)
		v, present, err := p.resolveStore(st, spec)
		if err != nil {
			return nil, err
		}
		if present {
			kw[spec.Param.Name] = v
		}
	}

	res, err := n.Callable.Invoke(&Invocation{args: args, kw: kw})
	if err != nil && viaOption != "" {
		return nil, ConverterUsageError(viaOption, err)
	}
	return res, err
}

func (p *Processor) resolveStore(st *kwStore, spec *OptionSpec) (interface{}, bool, error) {
	if st == nil || !st.set {
		if spec.HasDefault {
			return spec.Default, true, nil
		}
		return nil, false, nil
	}
	if st.multi != nil {
		v, err := st.multi.Render()
		if err != nil {
			return nil, false, ConverterUsageError(spec.Primary(), err)
		}
		return v, true, nil
	}
	if st.pending != nil {
		pf := st.pending
		for i := len(pf.mapped) - 1; i >= 0; i-- {
			p.unmapString(pf.mapped[i])
		}
		v, err := p.callFrame(pf, spec.Primary())
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	return st.value, true, nil
}
