package appeal

import (
	"fmt"
	"strings"

	"github.com/appeal-cli/appeal/charm"
)

// usageLine renders a command's one-line usage by re-reading its compiled
// program: options as `-x|--xxx` with their oparg shape, optional groups
// bracketed, var-positionals as `[name]...`, and early-mapped options ahead
// of their group's first positional.
func usageLine(program string, path []string, prog *charm.Program) string {
	parts := append([]string{program}, path...)
	parts = append(parts, usageTokens(prog)...)
	line := strings.Join(parts, " ")
	line = strings.ReplaceAll(line, "[ ", "[")
	line = strings.ReplaceAll(line, " ]", "]")
	return line
}

func usageTokens(prog *charm.Program) []string {
	var r []string
	seen := map[int]bool{}
	var nodes []*charm.Node
	for pc := 0; pc < len(prog.Code); pc++ {
		in := prog.Code[pc]
		switch in.Op {
		case charm.OpEnterConverter:
			nodes = append(nodes, prog.Tree.Nodes[in.Node])
		case charm.OpCallConverter:
			nodes = nodes[:len(nodes)-1]
		case charm.OpGroupBegin:
			r = append(r, "[")
		case charm.OpGroupEnd:
			r = append(r, "]")
		case charm.OpMapOption, charm.OpEarlyMap:
			if seen[in.Spec] {
				continue
			}
			seen[in.Spec] = true
			r = append(r, optionUsage(prog.Tree.Specs[in.Spec]))
		case charm.OpConsumeArgument:
			if in.Pos < 0 {
				continue
			}
			n := nodes[len(nodes)-1]
			r = append(r, n.Positionals[in.Pos].Param.UsageName())
		case charm.OpBranchOnArgument:
			n := nodes[len(nodes)-1]
			r = append(r, fmt.Sprintf("[%s]...", n.Var.Param.UsageName()))
			pc = in.Target - 1
		}
	}
	return r
}

func optionUsage(spec *charm.OptionSpec) string {
	parts := []string{strings.Join(spec.Strings, "|")}
	parts = append(parts, spec.OpargUsage()...)
	return strings.Join(parts, " ")
}

// printHelp prints usage for the command at the provided path, plus a
// listing of its subcommands. It returns an error only for unresolvable
// paths.
func (a *Appeal) printHelp(path []string) error {
	cmd, rest := a.resolve(path)
	if len(rest) > 0 {
		return charm.UnknownCommandError(rest[0])
	}
	if cmd.callable != nil {
		a.out.Stdoutf("usage: %s\n", cmd.usage)
		if cmd.desc != "" {
			a.out.Stdoutf("\n%s\n", cmd.desc)
		}
	} else {
		parts := append([]string{a.name}, cmd.Path()...)
		a.out.Stdoutf("usage: %s command [arguments]\n", strings.Join(parts, " "))
	}
	if len(cmd.subOrder) > 0 {
		a.out.Stdout("\ncommands:\n")
		width := 0
		for _, name := range cmd.subOrder {
			if len(name) > width {
				width = len(name)
			}
		}
		for _, name := range cmd.subOrder {
			sub := cmd.sub[name]
			a.out.Stdoutf("  %-*s  %s\n", width, name, sub.desc)
		}
	}
	return nil
}
