package appeal

import (
	"testing"

	"github.com/appeal-cli/appeal/charm"
	"github.com/appeal-cli/appeal/internal/testutil"
)

func TestUsageLines(t *testing.T) {
	intFloat := Func("int_float", func(inv *charm.Invocation) (interface{}, error) {
		return nil, nil
	}, Positional("i", Annotated(Int)), Positional("f", Annotated(Float)))

	myConverter := Func("my_converter", func(inv *charm.Invocation) (interface{}, error) {
		return nil, nil
	},
		Positional("i_f", Annotated(intFloat)),
		Positional("s"),
		KeywordOnly("verbose", Default(false)),
	)

	noop := func(inv *charm.Invocation) (interface{}, error) { return nil, nil }

	for _, test := range []struct {
		name     string
		cmdName  string
		callable *charm.Callable
		want     string
	}{
		{
			name:     "required positional",
			cmdName:  "hello",
			callable: Func("hello", noop, Positional("name")),
			want:     "app hello name",
		},
		{
			name:    "optional positional brackets",
			cmdName: "fgrep",
			callable: Func("fgrep", noop,
				Positional("pattern"),
				Positional("filename", Default(nil)),
			),
			want: "app fgrep pattern [filename]",
		},
		{
			name:    "options and var-positional",
			cmdName: "fgrep",
			callable: Func("fgrep", noop,
				Positional("pattern"),
				VarPositional("filenames"),
				KeywordOnly("color", Default("")),
				KeywordOnly("number", Default(0)),
				KeywordOnly("ignore_case", Default(false)),
			),
			want: "app fgrep -c|--color color -n|--number number -i|--ignore-case pattern [filenames]...",
		},
		{
			name:    "early-mapped options render before the group's first positional",
			cmdName: "recurse2",
			callable: Func("recurse2", noop,
				Positional("a"),
				Positional("b", Annotated(myConverter), Default(nil)),
			),
			want: "app recurse2 a [-v|--verbose i f s]",
		},
		{
			name:    "usage override renames a parameter",
			cmdName: "hello",
			callable: Func("hello", noop,
				Positional("name"),
			).ParameterUsage("name", "WHO"),
			want: "app hello WHO",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			app := New("app", WithOutput(NewFakeOutput()))
			cmd := app.Command(test.cmdName, test.callable)
			if err := app.Build(); err != nil {
				t.Fatalf("Build() returned error: %v", err)
			}
			testutil.Cmp(t, "usage line", test.want, cmd.usage)
		})
	}
}
