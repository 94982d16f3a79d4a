package appeal

import (
	"strings"

	"github.com/appeal-cli/appeal/charm"
)

// Run builds (if needed) and drives the provided tokens — argv without the
// program name — through the command tree, returning the resolved command
// function's result.
func (a *Appeal) Run(tokens []string) (interface{}, error) {
	res, _, err := a.run(tokens)
	return res, err
}

// Main is the process-facing entry: argv[0] is the program name and is
// ignored for parsing. Usage errors print the resolved command's usage line
// (when that command has one) to stderr and map to exit code 2; command
// results and errors map to exit codes.
func (a *Appeal) Main(argv []string) int {
	var tokens []string
	if len(argv) > 0 {
		tokens = argv[1:]
	}
	res, cmd, err := a.run(tokens)
	if err != nil {
		if charm.IsConfigurationError(err) {
			// Misconfiguration is a programming error; it is never handled.
			panic(err)
		}
		prefix := a.name
		if cmd != nil && len(cmd.Path()) > 0 {
			prefix = strings.Join(append([]string{a.name}, cmd.Path()...), " ")
		}
		a.out.Stderrf("%s: %v\n", prefix, err)
		if charm.IsUsageError(err) {
			if cmd != nil && cmd.usage != "" {
				a.out.Stderrf("usage: %s\n", cmd.usage)
			}
			return 2
		}
		return charm.ExitCode(err)
	}
	if code, ok := res.(int); ok {
		return code
	}
	return 0
}

func (a *Appeal) run(tokens []string) (interface{}, *Command, error) {
	if err := a.Build(); err != nil {
		return nil, nil, err
	}

	// Built-in option forms, unless the global command claims the string.
	if a.builtins && len(tokens) > 0 {
		switch tokens[0] {
		case "-h", "--help":
			if !a.globalKnows(tokens[0]) {
				return nil, nil, a.printHelp(tokens[1:])
			}
		case "-v", "--version":
			if !a.globalKnows(tokens[0]) {
				a.printVersion()
				return nil, nil, nil
			}
		}
	}

	rest := tokens
	if a.global != nil {
		proc := charm.NewProcessor(a.global.program)
		_, remaining, err := proc.RunPrefix(rest)
		if err != nil {
			return nil, a.global, err
		}
		rest = remaining
	}

	cmd, rest := a.resolve(rest)
	if cmd.callable == nil {
		if len(rest) > 0 {
			return nil, cmd, charm.UnknownCommandError(rest[0])
		}
		if cmd.dflt != nil {
			proc := charm.NewProcessor(cmd.dflt.program)
			res, err := proc.Run(nil)
			return res, cmd.dflt, err
		}
		// Built-in default: print usage.
		return nil, cmd, a.printHelp(cmd.Path())
	}

	proc := charm.NewProcessor(cmd.program)
	res, err := proc.Run(rest)
	return res, cmd, err
}

// resolve descends the command tree while the next token names a
// subcommand.
func (a *Appeal) resolve(tokens []string) (*Command, []string) {
	cur := a.root
	for len(tokens) > 0 {
		sub, ok := cur.sub[tokens[0]]
		if !ok {
			break
		}
		cur = sub
		tokens = tokens[1:]
	}
	return cur, tokens
}

func (a *Appeal) globalKnows(option string) bool {
	return a.global != nil && len(a.global.program.Tree.KnownSpecs(option)) > 0
}
