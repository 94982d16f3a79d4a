package charm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func discard(*Invocation) (interface{}, error) { return nil, nil }

func TestEffectiveConverterResolution(t *testing.T) {
	intFloat := NewCallable("int_float", discard,
		&Parameter{Name: "i", Kind: Positional, Annotation: Int},
		&Parameter{Name: "f", Kind: Positional, Annotation: Float},
	)
	c := NewCallable("cmd", discard,
		&Parameter{Name: "annotated", Kind: Positional, Annotation: intFloat},
		&Parameter{Name: "plain", Kind: Positional},
		&Parameter{Name: "nilish", Kind: Positional, HasDefault: true, Default: nil},
		&Parameter{Name: "counted", Kind: KeywordOnly, HasDefault: true, Default: 7},
		&Parameter{Name: "flagged", Kind: KeywordOnly, HasDefault: true, Default: false},
		&Parameter{Name: "ratio", Kind: KeywordOnly, HasDefault: true, Default: 2.5},
	)
	tree, err := NewTree(c)
	require.NoError(t, err)

	root := tree.Root
	require.NotNil(t, root.Positionals[0].Child, "annotated callable should produce a child node")
	require.Equal(t, String, root.Positionals[1].Conv, "no annotation, no default resolves to string")
	require.Equal(t, String, root.Positionals[2].Conv, "nil default resolves to string")

	byName := map[string]*OptionSpec{}
	for _, spec := range root.Options {
		byName[spec.Param.Name] = spec
	}
	require.Equal(t, Int, byName["counted"].Conv, "int default resolves to the int primitive")
	require.NotNil(t, byName["flagged"].Toggle, "keyword-only bool default resolves to a toggle")
	require.True(t, byName["flagged"].Toggle.Toggled())
	require.Equal(t, Float, byName["ratio"].Conv)
}

func TestDefaultOptionStrings(t *testing.T) {
	c := NewCallable("cmd", discard,
		&Parameter{Name: "color", Kind: KeywordOnly, HasDefault: true, Default: ""},
		&Parameter{Name: "count", Kind: KeywordOnly, HasDefault: true, Default: 0},
		&Parameter{Name: "ignore_case", Kind: KeywordOnly, HasDefault: true, Default: false},
		&Parameter{Name: "x", Kind: KeywordOnly, HasDefault: true, Default: false},
	)
	tree, err := NewTree(c)
	require.NoError(t, err)

	var got [][]string
	for _, spec := range tree.Root.Options {
		got = append(got, spec.Strings)
	}
	require.Equal(t, [][]string{
		// First-come, first-served: color claims -c, count gets the long form only.
		{"-c", "--color"},
		{"--count"},
		// Underscores become dashes; -i is free.
		{"-i", "--ignore-case"},
		// Single-letter names get the short form only.
		{"-x"},
	}, got)
}

func TestTreeErrors(t *testing.T) {
	selfieParam := &Parameter{Name: "x", Kind: Positional}
	selfie := NewCallable("selfie", discard, selfieParam)
	selfieParam.Annotation = selfie

	nothing := NewCallable("nothing", discard)

	for _, test := range []struct {
		name     string
		callable *Callable
		wantKind ConfigurationKind
	}{
		{
			name:     "keyword-only without default",
			callable: NewCallable("cmd", discard, &Parameter{Name: "k", Kind: KeywordOnly}),
			wantKind: MissingDefaultConfiguration,
		},
		{
			name: "bottomless var-positional",
			callable: NewCallable("cmd", discard,
				&Parameter{Name: "rest", Kind: VarPositional, Annotation: nothing}),
			wantKind: BottomlessConfiguration,
		},
		{
			name: "conflicting option strings",
			callable: NewCallable("cmd", discard,
				&Parameter{Name: "alpha", Kind: KeywordOnly, HasDefault: true, Default: false},
				&Parameter{Name: "beta", Kind: KeywordOnly, HasDefault: true, Default: false},
			).Option("beta", "-a"),
			wantKind: OptionConflictConfiguration,
		},
		{
			name: "empty sentinel option default",
			callable: NewCallable("cmd", discard,
				&Parameter{Name: "k", Kind: KeywordOnly, HasDefault: true, Default: 0},
			).OptionWith("k", OptionConfig{Default: Empty, HasDefault: true}, "--k"),
			wantKind: EmptyDefaultConfiguration,
		},
		{
			name:     "identity cycle",
			callable: selfie,
			wantKind: CycleConfiguration,
		},
		{
			name: "option registered for a positional parameter",
			callable: NewCallable("cmd", discard,
				&Parameter{Name: "a", Kind: Positional},
			).Option("a", "--a"),
			wantKind: RegistrationConfiguration,
		},
		{
			name: "invalid option string",
			callable: NewCallable("cmd", discard,
				&Parameter{Name: "k", Kind: KeywordOnly, HasDefault: true, Default: 0},
			).Option("k", "no-dashes"),
			wantKind: RegistrationConfiguration,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewTree(test.callable)
			require.Error(t, err)
			require.True(t, IsConfigurationError(err), "expected configuration error, got %v", err)
			kind, ok := ConfigurationErrorKind(err)
			require.True(t, ok)
			require.Equal(t, test.wantKind, kind, "error: %v", err)
		})
	}
}

func TestTreeSharesByValue(t *testing.T) {
	pair := NewCallable("pair", discard,
		&Parameter{Name: "x", Kind: Positional, Annotation: Int},
		&Parameter{Name: "y", Kind: Positional, Annotation: Int},
	)
	c := NewCallable("cmd", discard,
		&Parameter{Name: "a", Kind: Positional, Annotation: pair},
		&Parameter{Name: "b", Kind: Positional, Annotation: pair},
	)
	tree, err := NewTree(c)
	require.NoError(t, err)

	// The same converter used twice is walked twice: two independent nodes.
	require.NotNil(t, tree.Root.Positionals[0].Child)
	require.NotNil(t, tree.Root.Positionals[1].Child)
	require.NotEqual(t, tree.Root.Positionals[0].Child.ID, tree.Root.Positionals[1].Child.ID)
}

func TestKeywordBagRegistration(t *testing.T) {
	c := NewCallable("cmd", discard).
		OptionWith("extra", OptionConfig{Annotation: Int, Default: 0, HasDefault: true}, "--extra")
	tree, err := NewTree(c)
	require.NoError(t, err)
	require.Len(t, tree.Root.Options, 1)
	require.Equal(t, "extra", tree.Root.Options[0].Param.Name)
	require.Equal(t, Int, tree.Root.Options[0].Conv)
}

func TestOptionSpecShape(t *testing.T) {
	c := NewCallable("cmd", discard,
		&Parameter{Name: "number", Kind: KeywordOnly, HasDefault: true, Default: 0},
		&Parameter{Name: "verbose", Kind: KeywordOnly, HasDefault: true, Default: false},
	)
	tree, err := NewTree(c)
	require.NoError(t, err)

	number, verbose := tree.Root.Options[0], tree.Root.Options[1]
	require.True(t, number.SingleOparg())
	require.Equal(t, "--number", number.Primary())
	require.False(t, verbose.SingleOparg())
	require.Equal(t, 0, verbose.MaxTokens)
}
