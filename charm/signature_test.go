package charm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSignature(t *testing.T) {
	for _, test := range []struct {
		name     string
		params   []*Parameter
		wantErr  bool
		wantKind ConfigurationKind
	}{
		{
			name: "empty signature",
		},
		{
			name: "positional then var then keyword",
			params: []*Parameter{
				{Name: "a", Kind: Positional},
				{Name: "rest", Kind: VarPositional},
				{Name: "k", Kind: KeywordOnly, HasDefault: true},
			},
		},
		{
			name: "duplicate names",
			params: []*Parameter{
				{Name: "a", Kind: Positional},
				{Name: "a", Kind: Positional},
			},
			wantErr:  true,
			wantKind: BadSignatureConfiguration,
		},
		{
			name: "positional after keyword-only",
			params: []*Parameter{
				{Name: "k", Kind: KeywordOnly, HasDefault: true},
				{Name: "a", Kind: Positional},
			},
			wantErr:  true,
			wantKind: BadSignatureConfiguration,
		},
		{
			name: "two var-positionals",
			params: []*Parameter{
				{Name: "rest", Kind: VarPositional},
				{Name: "more", Kind: VarPositional},
			},
			wantErr:  true,
			wantKind: BadSignatureConfiguration,
		},
		{
			name: "var-positional with default",
			params: []*Parameter{
				{Name: "rest", Kind: VarPositional, HasDefault: true},
			},
			wantErr:  true,
			wantKind: BadSignatureConfiguration,
		},
		{
			name: "keyword-only without default",
			params: []*Parameter{
				{Name: "k", Kind: KeywordOnly},
			},
			wantErr:  true,
			wantKind: MissingDefaultConfiguration,
		},
		{
			name: "required positional after defaulted one",
			params: []*Parameter{
				{Name: "a", Kind: Positional, HasDefault: true, Default: 1},
				{Name: "b", Kind: Positional},
			},
			wantErr:  true,
			wantKind: BadSignatureConfiguration,
		},
		{
			name: "empty sentinel default",
			params: []*Parameter{
				{Name: "a", Kind: Positional, HasDefault: true, Default: Empty},
			},
			wantErr:  true,
			wantKind: EmptyDefaultConfiguration,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			s, err := NewSignature(test.params...)
			if !test.wantErr {
				require.NoError(t, err)
				require.Len(t, s.Parameters(), len(test.params))
				return
			}
			require.Error(t, err)
			require.True(t, IsConfigurationError(err), "expected a configuration error, got %v", err)
			kind, ok := ConfigurationErrorKind(err)
			require.True(t, ok)
			require.Equal(t, test.wantKind, kind)
		})
	}
}

func TestSignatureAccessors(t *testing.T) {
	s, err := NewSignature(
		&Parameter{Name: "a", Kind: Positional},
		&Parameter{Name: "b", Kind: Positional, HasDefault: true, Default: "x"},
		&Parameter{Name: "rest", Kind: VarPositional},
		&Parameter{Name: "k", Kind: KeywordOnly, HasDefault: true, Default: 0},
	)
	require.NoError(t, err)

	require.Len(t, s.Positionals(), 2)
	require.Equal(t, "rest", s.VarPositional().Name)
	require.Len(t, s.KeywordOnly(), 1)
	require.Equal(t, "k", s.KeywordOnly()[0].Name)
	require.Nil(t, s.Lookup("missing"))
	require.Equal(t, "b", s.Lookup("b").Name)
}

func TestPrimitiveParse(t *testing.T) {
	for _, test := range []struct {
		prim    *Primitive
		token   string
		want    interface{}
		wantErr bool
	}{
		{prim: String, token: "hello", want: "hello"},
		{prim: Int, token: "42", want: 42},
		{prim: Int, token: "forty-two", wantErr: true},
		{prim: Float, token: "2.5", want: 2.5},
		{prim: Bool, token: "true", want: true},
		{prim: Complex, token: "3+4i", want: complex(3, 4)},
	} {
		t.Run(test.prim.Name()+"/"+test.token, func(t *testing.T) {
			got, err := test.prim.Parse(test.token)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}

func TestPrimitiveSignature(t *testing.T) {
	for _, p := range []*Primitive{String, Bool, Int, Float, Complex} {
		sig := p.Signature()
		require.Len(t, sig.Positionals(), 1, "primitive %s", p.Name())
		require.Equal(t, "value", sig.Positionals()[0].Name)
	}
}
