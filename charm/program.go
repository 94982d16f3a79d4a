package charm

import (
	"fmt"
	"strings"
)

// Opcode enumerates the grammar program instructions.
type Opcode uint8

const (
	// OpEnterConverter pushes a pending call frame for a node.
	OpEnterConverter Opcode = iota
	// OpConsumeArgument consumes the next positional token with a primitive.
	OpConsumeArgument
	// OpMapOption makes an option recognizable in the current scope.
	OpMapOption
	// OpUnmapOption removes an option from the current scope, restoring any
	// shadowed outer mapping.
	OpUnmapOption
	// OpGroupBegin opens an optional group; Target is the matching OpGroupEnd.
	OpGroupBegin
	// OpGroupEnd closes an optional group.
	OpGroupEnd
	// OpEarlyMap provisionally maps an option at optional-group entry;
	// consuming the option commits the group.
	OpEarlyMap
	// OpCallConverter finalizes a frame: calls the converter with its
	// accumulated values and returns the result into the parent slot.
	OpCallConverter
	// OpBranchOnArgument jumps to Target when no argument token remains;
	// it is the var-positional loop guard.
	OpBranchOnArgument
	// OpJump jumps to Target unconditionally.
	OpJump
	// OpEnd terminates the program successfully.
	OpEnd
)

func (op Opcode) String() string {
	switch op {
	case OpEnterConverter:
		return "ENTER_CONVERTER"
	case OpConsumeArgument:
		return "CONSUME_ARGUMENT"
	case OpMapOption:
		return "MAP_OPTION"
	case OpUnmapOption:
		return "UNMAP_OPTION"
	case OpGroupBegin:
		return "OPTIONAL_GROUP_BEGIN"
	case OpGroupEnd:
		return "OPTIONAL_GROUP_END"
	case OpEarlyMap:
		return "EARLY_MAP"
	case OpCallConverter:
		return "CALL_CONVERTER"
	case OpBranchOnArgument:
		return "BRANCH_ON_ARGUMENT"
	case OpJump:
		return "JUMP"
	case OpEnd:
		return "END_PROGRAM"
	}
	return fmt.Sprintf("OP(%d)", op)
}

// Instruction is one grammar program step. Which fields are meaningful
// depends on the opcode.
type Instruction struct {
	Op Opcode

	// Node identifies the node for ENTER_CONVERTER / CALL_CONVERTER.
	Node int
	// Param names the parameter for CONSUME_ARGUMENT and the var-positional
	// for BRANCH_ON_ARGUMENT; for CALL_CONVERTER it names the slot in the
	// parent the result binds to.
	Param string
	// Conv names the converter for CONSUME_ARGUMENT.
	Conv *Primitive
	// Option is the option string for MAP_OPTION / EARLY_MAP / UNMAP_OPTION.
	Option string
	// Spec identifies the option spec for MAP_OPTION / EARLY_MAP.
	Spec int
	// Group identifies the optional group for group opcodes and EARLY_MAP.
	Group int
	// Target is the jump destination for JUMP / BRANCH_ON_ARGUMENT and the
	// matching end for OPTIONAL_GROUP_BEGIN.
	Target int
	// Pos is the destination slot index in the owning frame: the positional
	// index, or -1 to append to the var-positional tail. For CALL_CONVERTER
	// it addresses the parent frame (-2 for the root result).
	Pos int
	// PosCount and HasVar describe the frame shape for ENTER_CONVERTER.
	PosCount int
	HasVar   bool
}

// Program is the compiled linear grammar for one root callable. Programs are
// immutable and safe to share across processors.
type Program struct {
	// Name is the root callable's name.
	Name string
	// Tree is the converter tree the program was compiled from.
	Tree *Tree
	// Code is the instruction sequence.
	Code []Instruction
	// Groups is the number of optional groups.
	Groups int
}

// String renders a disassembly of the program.
func (p *Program) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "program %s\n", p.Name)
	for i, in := range p.Code {
		fmt.Fprintf(&sb, "%04d %s%s\n", i, in.Op, p.operands(in))
	}
	return sb.String()
}

func (p *Program) operands(in Instruction) string {
	switch in.Op {
	case OpEnterConverter:
		return fmt.Sprintf(" %s node=%d pos=%d var=%t", p.Tree.Nodes[in.Node].Callable.Name(), in.Node, in.PosCount, in.HasVar)
	case OpConsumeArgument:
		return fmt.Sprintf(" %s %s slot=%d", in.Param, in.Conv.Name(), in.Pos)
	case OpMapOption, OpEarlyMap:
		s := fmt.Sprintf(" %s spec=%d", in.Option, in.Spec)
		if in.Op == OpEarlyMap {
			s += fmt.Sprintf(" group=%d", in.Group)
		}
		return s
	case OpUnmapOption:
		return fmt.Sprintf(" %s", in.Option)
	case OpGroupBegin:
		return fmt.Sprintf(" group=%d end=%d", in.Group, in.Target)
	case OpGroupEnd:
		return fmt.Sprintf(" group=%d", in.Group)
	case OpCallConverter:
		return fmt.Sprintf(" %s node=%d slot=%d", p.Tree.Nodes[in.Node].Callable.Name(), in.Node, in.Pos)
	case OpBranchOnArgument:
		return fmt.Sprintf(" %s exit=%d", in.Param, in.Target)
	case OpJump:
		return fmt.Sprintf(" %d", in.Target)
	}
	return ""
}
