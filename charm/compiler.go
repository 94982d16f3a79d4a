package charm

import (
	"golang.org/x/exp/slices"
)

// Compile flattens the converter tree into a linear grammar program via
// depth-first emission. Options map at scope entry; positionals with
// defaults open optional groups whose reachable options are early-mapped;
// var-positionals compile to a guarded loop. Compilation is deterministic:
// compiling the same tree twice yields identical programs.
func Compile(tree *Tree) (*Program, error) {
	c := &compiler{
		tree:        tree,
		scope:       map[string][]int{},
		earlyMapped: map[*OptionSpec]bool{},
	}
	if err := c.node(tree.Root, -2, ""); err != nil {
		return nil, err
	}
	c.emit(Instruction{Op: OpEnd})
	c.peephole()
	return &Program{
		Name:   tree.Root.Callable.Name(),
		Tree:   tree,
		Code:   c.code,
		Groups: c.groups,
	}, nil
}

type compiler struct {
	tree   *Tree
	code   []Instruction
	groups int

	// scope maps each currently-mapped option string to the stack of nesting
	// depths it is mapped at. Two mappings at the same depth are a
	// compile-time conflict; a deeper mapping shadows.
	scope map[string][]int
	depth int

	// earlyMapped records specs already mapped at an enclosing optional
	// group, so their frames don't map them again.
	earlyMapped map[*OptionSpec]bool
}

func (c *compiler) emit(in Instruction) int {
	c.code = append(c.code, in)
	return len(c.code) - 1
}

func (c *compiler) node(n *Node, parentSlot int, paramInParent string) error {
	c.emit(Instruction{Op: OpEnterConverter, Node: n.ID, PosCount: len(n.Positionals), HasVar: n.Var != nil})
	c.depth++

	var mappedHere []string
	for _, spec := range n.Options {
		if c.earlyMapped[spec] {
			continue
		}
		for _, s := range spec.Strings {
			if err := c.mapString(s, spec.ID, OpMapOption, 0); err != nil {
				return err
			}
			mappedHere = append(mappedHere, s)
		}
	}

	for _, slot := range n.Positionals {
		if slot.Param.HasDefault {
			if err := c.group(slot); err != nil {
				return err
			}
		} else if err := c.slot(slot); err != nil {
			return err
		}
	}

	if n.Var != nil {
		start := len(c.code)
		branch := c.emit(Instruction{Op: OpBranchOnArgument, Param: n.Var.Param.Name})
		if err := c.slot(n.Var); err != nil {
			return err
		}
		c.emit(Instruction{Op: OpJump, Target: start})
		c.code[branch].Target = len(c.code)
	}

	for i := len(mappedHere) - 1; i >= 0; i-- {
		c.emit(Instruction{Op: OpUnmapOption, Option: mappedHere[i]})
		c.unmapString(mappedHere[i])
	}
	c.depth--
	c.emit(Instruction{Op: OpCallConverter, Node: n.ID, Pos: parentSlot, Param: paramInParent})
	return nil
}

func (c *compiler) slot(slot *Slot) error {
	if slot.Child != nil {
		return c.node(slot.Child, slot.Index, slot.Param.Name)
	}
	prim, ok := slot.Conv.(*Primitive)
	if !ok {
		// The tree builder rejects non-primitive, non-callable positional
		// converters; reaching here is a compiler contract failure.
		panic("compiler: positional slot is neither primitive nor callable")
	}
	c.emit(Instruction{Op: OpConsumeArgument, Param: slot.Param.Name, Conv: prim, Pos: slot.Index})
	return nil
}

func (c *compiler) group(slot *Slot) error {
	g := c.groups
	c.groups++
	begin := c.emit(Instruction{Op: OpGroupBegin, Group: g})
	c.depth++

	var mapped []string
	for _, spec := range groupSpecs(slot) {
		c.earlyMapped[spec] = true
		for _, s := range spec.Strings {
			if err := c.mapString(s, spec.ID, OpEarlyMap, g); err != nil {
				return err
			}
			mapped = append(mapped, s)
		}
	}

	if err := c.slot(slot); err != nil {
		return err
	}

	c.depth--
	for i := len(mapped) - 1; i >= 0; i-- {
		// The interpreter unmaps early-mapped options when the group closes;
		// only the compile-time scope needs explicit popping.
		c.unmapString(mapped[i])
	}
	end := c.emit(Instruction{Op: OpGroupEnd, Group: g})
	c.code[begin].Target = end
	return nil
}

// groupSpecs collects the option specs whose earliest reachable position is
// the group wrapping the provided slot: the subtree's options, stopping at
// nested optional groups (they early-map at their own entry) and at
// var-positional loops (they map per iteration).
func groupSpecs(slot *Slot) []*OptionSpec {
	if slot.Child == nil {
		return nil
	}
	return nodeSpecs(slot.Child)
}

func nodeSpecs(n *Node) []*OptionSpec {
	r := slices.Clone(n.Options)
	for _, s := range n.Positionals {
		if s.Param.HasDefault || s.Child == nil {
			continue
		}
		r = append(r, nodeSpecs(s.Child)...)
	}
	return r
}

func (c *compiler) mapString(s string, spec int, op Opcode, group int) error {
	if depths := c.scope[s]; len(depths) > 0 && depths[len(depths)-1] == c.depth {
		return Configurationf(OptionConflictConfiguration, "option %s mapped twice in the same scope", s)
	}
	c.scope[s] = append(c.scope[s], c.depth)
	c.emit(Instruction{Op: op, Option: s, Spec: spec, Group: group})
	return nil
}

func (c *compiler) unmapString(s string) {
	depths := c.scope[s]
	c.scope[s] = depths[:len(depths)-1]
}

// peephole retargets jumps that land on other jumps.
func (c *compiler) peephole() {
	for i := range c.code {
		switch c.code[i].Op {
		case OpJump, OpBranchOnArgument:
			t := c.code[i].Target
			for hops := 0; hops < len(c.code) && t < len(c.code) && c.code[t].Op == OpJump; hops++ {
				t = c.code[t].Target
			}
			c.code[i].Target = t
		}
	}
}
