package charm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccumulatorPairs(t *testing.T) {
	var got captured
	c := recorder("cmd", &got,
		&Parameter{Name: "define", Kind: KeywordOnly, Annotation: Accumulator(String, Int), HasDefault: true, Default: nil},
	)

	_, err := runTokens(t, c, []string{"--define", "a", "1", "--define", "b", "2"})
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		"define": []interface{}{
			[]interface{}{"a", 1},
			[]interface{}{"b", 2},
		},
	}, got.kw)
}

func TestAccumulatorSeedsFromDefault(t *testing.T) {
	var got captured
	c := recorder("cmd", &got,
		&Parameter{
			Name: "tag", Kind: KeywordOnly,
			Annotation: Accumulator(),
			HasDefault: true, Default: []interface{}{"seed"},
		},
	)

	_, err := runTokens(t, c, []string{"--tag", "extra"})
	require.NoError(t, err)
	require.Equal(t, []interface{}{"seed", "extra"}, got.kw["tag"])
}

// joiner collects words and renders them joined, exercising the
// init/option/render lifecycle of a user-defined MultiOption.
type joiner struct {
	words []string
}

func (j *joiner) Init(def interface{}) {
	if s, ok := def.(string); ok && s != "" {
		j.words = append(j.words, s)
	}
}

func (j *joiner) Option(opargs ...interface{}) error {
	j.words = append(j.words, opargs[0].(string))
	return nil
}

func (j *joiner) Render() (interface{}, error) {
	return strings.Join(j.words, "+"), nil
}

func TestUserMultiOption(t *testing.T) {
	spec := NewMultiOption("joiner", func() MultiOption { return &joiner{} },
		&Parameter{Name: "word", Kind: Positional})
	var got captured
	c := recorder("cmd", &got,
		&Parameter{Name: "path", Kind: KeywordOnly, Annotation: spec, HasDefault: true, Default: "root"},
	)

	for _, test := range []struct {
		name   string
		tokens []string
		want   interface{}
	}{
		{
			name:   "repeated invocations accumulate",
			tokens: []string{"-p", "usr", "-p", "local"},
			want:   "root+usr+local",
		},
		{
			name:   "never invoked renders the declared default",
			tokens: nil,
			want:   "root",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got = captured{}
			_, err := runTokens(t, c, test.tokens)
			require.NoError(t, err)
			require.Equal(t, test.want, got.kw["path"])
		})
	}
}

func TestMultiOptionRejectsNonPositionalOpargs(t *testing.T) {
	spec := NewMultiOption("bad", func() MultiOption { return &joiner{} },
		&Parameter{Name: "word", Kind: KeywordOnly, HasDefault: true, Default: ""})
	c := NewCallable("cmd", discard,
		&Parameter{Name: "k", Kind: KeywordOnly, Annotation: spec, HasDefault: true, Default: nil})

	_, err := NewTree(c)
	require.Error(t, err)
	require.True(t, IsConfigurationError(err))
}
