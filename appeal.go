package appeal

import (
	"fmt"
	"regexp"

	"github.com/appeal-cli/appeal/charm"
)

// CommandNameRegex matches registrable command and subcommand names.
var CommandNameRegex = regexp.MustCompile("^[a-zA-Z0-9][-a-zA-Z0-9_]*$")

// Appeal is one program: a tree of commands over the charm engine. It
// mutates during registration and freezes on `Build` (implied by the first
// `Run`/`Main`); compiled artifacts are immutable afterwards and safe to
// share across concurrent runs.
type Appeal struct {
	name     string
	version  string
	out      Output
	builtins bool

	root   *Command
	global *Command

	built    bool
	buildErr error
	regErrs  []error
}

// Command is one node of the command tree: a callable, its compiled
// program, and any subcommands.
type Command struct {
	app      *Appeal
	name     string
	desc     string
	callable *charm.Callable

	parent   *Command
	sub      map[string]*Command
	subOrder []string
	dflt     *Command

	program *charm.Program
	usage   string
}

// Option configures an `Appeal` instance.
type Option func(*Appeal)

// WithVersion sets the version string reported by the version built-ins.
func WithVersion(v string) Option {
	return func(a *Appeal) {
		a.version = v
	}
}

// WithOutput routes the instance's output through the provided `Output`.
func WithOutput(o Output) Option {
	return func(a *Appeal) {
		a.out = o
	}
}

// WithoutBuiltins disables the auto-injected help and version surfaces.
func WithoutBuiltins() Option {
	return func(a *Appeal) {
		a.builtins = false
	}
}

// New returns an Appeal instance for the named program.
func New(name string, opts ...Option) *Appeal {
	a := &Appeal{
		name:     name,
		builtins: true,
		out:      NewOutput(),
	}
	a.root = &Command{app: a, sub: map[string]*Command{}}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Command registers a top-level command.
func (a *Appeal) Command(name string, c *charm.Callable) *Command {
	return a.root.Subcommand(name, c)
}

// GlobalCommand registers the callable that consumes global options, the
// ones preceding the first command token. It must declare no positional
// parameters.
func (a *Appeal) GlobalCommand(c *charm.Callable) *Command {
	if a.global != nil {
		a.regErr(charm.Configurationf(charm.RegistrationConfiguration, "global command registered twice"))
	}
	a.global = &Command{app: a, callable: c}
	return a.global
}

// DefaultCommand registers the zero-parameter callable invoked when no
// command token is provided.
func (a *Appeal) DefaultCommand(c *charm.Callable) *Command {
	return a.root.Default(c)
}

// Subcommand registers a subcommand under this command.
func (cmd *Command) Subcommand(name string, c *charm.Callable) *Command {
	a := cmd.app
	if !CommandNameRegex.MatchString(name) {
		a.regErr(charm.Configurationf(charm.RegistrationConfiguration, "invalid command name %q", name))
	}
	if cmd.sub == nil {
		cmd.sub = map[string]*Command{}
	}
	if _, ok := cmd.sub[name]; ok {
		a.regErr(charm.Configurationf(charm.RegistrationConfiguration, "command %q registered twice", name))
	}
	sc := &Command{app: a, name: name, callable: c, parent: cmd}
	cmd.sub[name] = sc
	cmd.subOrder = append(cmd.subOrder, name)
	return sc
}

// Default registers this command's zero-parameter default, invoked when the
// command is named with no subcommand token.
func (cmd *Command) Default(c *charm.Callable) *Command {
	if cmd.dflt != nil {
		cmd.app.regErr(charm.Configurationf(charm.RegistrationConfiguration, "default command registered twice under %q", cmd.name))
	}
	cmd.dflt = &Command{app: cmd.app, callable: c, parent: cmd}
	return cmd.dflt
}

// Describe attaches a one-line description, shown in help listings.
func (cmd *Command) Describe(desc string) *Command {
	cmd.desc = desc
	return cmd
}

// Path returns the command's name path from the root.
func (cmd *Command) Path() []string {
	var r []string
	for c := cmd; c != nil && c.name != ""; c = c.parent {
		r = append([]string{c.name}, r...)
	}
	return r
}

// Program returns the command's compiled grammar program. It is only
// available after `Build`.
func (cmd *Command) Program() *charm.Program {
	return cmd.program
}

func (a *Appeal) regErr(err error) {
	a.regErrs = append(a.regErrs, err)
}

// Build freezes the instance: injects built-ins, compiles every command's
// grammar, and validates the configuration. Build is idempotent and implied
// by the first Run or Main.
func (a *Appeal) Build() error {
	if a.built {
		return a.buildErr
	}
	a.built = true
	a.buildErr = a.build()
	return a.buildErr
}

func (a *Appeal) build() error {
	if len(a.regErrs) > 0 {
		return a.regErrs[0]
	}
	if a.builtins {
		a.injectBuiltins()
	}
	if a.global != nil {
		if err := a.compile(a.global); err != nil {
			return err
		}
		if len(a.global.program.Tree.Root.Positionals) > 0 || a.global.program.Tree.Root.Var != nil {
			return charm.Configurationf(charm.RegistrationConfiguration, "global command %q declares positional parameters; it may only consume options", a.global.callable.Name())
		}
	}
	return a.buildCommand(a.root)
}

func (a *Appeal) buildCommand(cmd *Command) error {
	if cmd.callable != nil {
		if err := a.compile(cmd); err != nil {
			return err
		}
	}
	if cmd.dflt != nil {
		if err := a.compile(cmd.dflt); err != nil {
			return err
		}
		if len(cmd.dflt.program.Tree.Root.Callable.Signature().Parameters()) != 0 {
			return charm.Configurationf(charm.RegistrationConfiguration, "default command %q must take no parameters", cmd.dflt.callable.Name())
		}
	}
	for _, name := range cmd.subOrder {
		if err := a.buildCommand(cmd.sub[name]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Appeal) compile(cmd *Command) error {
	tree, err := charm.NewTree(cmd.callable)
	if err != nil {
		return err
	}
	prog, err := charm.Compile(tree)
	if err != nil {
		return err
	}
	cmd.program = prog
	cmd.usage = usageLine(a.name, cmd.Path(), prog)
	return nil
}

func (a *Appeal) injectBuiltins() {
	if _, ok := a.root.sub["help"]; !ok {
		a.Command("help", charm.NewCallable("help", func(inv *charm.Invocation) (interface{}, error) {
			var path []string
			for _, arg := range inv.Args() {
				path = append(path, fmt.Sprint(arg))
			}
			return nil, a.printHelp(path)
		}, &charm.Parameter{Name: "command", Kind: charm.VarPositional})).Describe("Show help for a command")
	}
	if _, ok := a.root.sub["version"]; !ok {
		a.Command("version", charm.NewCallable("version", func(inv *charm.Invocation) (interface{}, error) {
			a.printVersion()
			return nil, nil
		})).Describe("Show the program version")
	}
}

func (a *Appeal) printVersion() {
	if a.version == "" {
		a.out.Stdoutf("%s\n", a.name)
		return
	}
	a.out.Stdoutf("%s %s\n", a.name, a.version)
}
