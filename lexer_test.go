package gridsheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestLexer_FunctionCall(t *testing.T) {
	tokens, err := Tokenize(`SUM(A1:B2, "x""y")`)
	require.NoError(t, err)
	assert.Equal(t, []TokenType{
		TokenFunction, TokenOpen, TokenRange, TokenComma, TokenSpace, TokenValue, TokenClose,
	}, tokenTypes(tokens))
	assert.Equal(t, "SUM", tokens[0].Text)
	assert.Equal(t, `"x""y"`, tokens[5].Text)
	assert.Equal(t, `x"y`, tokens[5].Value)
}

func TestLexer_TextRoundTrip(t *testing.T) {
	inputs := []string{
		`SUM(A1:B2, "x""y")`,
		"-1 - 2",
		"'My Sheet'!A1*2",
		"A1<>B1&\"!\"",
		"10%+1e-3",
	}
	for _, in := range inputs {
		tokens, err := Tokenize(in)
		require.NoError(t, err, in)
		var b strings.Builder
		for _, tok := range tokens {
			b.WriteString(tok.Text)
		}
		assert.Equal(t, in, b.String())
	}
}

func TestLexer_SignContext(t *testing.T) {
	tokens, err := Tokenize("-1 - 2")
	require.NoError(t, err)
	assert.Equal(t, []TokenType{
		TokenPrefixOperator, TokenValue, TokenSpace, TokenInfixOperator, TokenSpace, TokenValue,
	}, tokenTypes(tokens))

	tokens, err = Tokenize("2*-3")
	require.NoError(t, err)
	assert.Equal(t, []TokenType{TokenValue, TokenInfixOperator, TokenPrefixOperator, TokenValue}, tokenTypes(tokens))
}

func TestLexer_Exponent(t *testing.T) {
	tokens, err := Tokenize("1e-3")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenValue, tokens[0].Type)
	assert.InDelta(t, 0.001, tokens[0].Value, 1e-12)
}

func TestLexer_Comparisons(t *testing.T) {
	tokens, err := Tokenize("A1>=1")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, ">=", tokens[1].Text)

	tokens, err = Tokenize("A1<>1")
	require.NoError(t, err)
	assert.Equal(t, "<>", tokens[1].Text)
}

func TestLexer_Identifiers(t *testing.T) {
	cases := []struct {
		in   string
		want TokenType
	}{
		{"TRUE", TokenValue},
		{"false", TokenValue},
		{"B12", TokenRef},
		{"$B$12", TokenRef},
		{"'My Sheet'!A1", TokenRef},
		{"A:A", TokenRange},
		{"1:3", TokenRange},
		{"#1!2", TokenID},
		{"#1!2:#1!5", TokenIDRange},
		{"#REF!", TokenUnreferenced},
		{"foo", TokenInvalidRef},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			tokens, err := Tokenize(tc.in)
			require.NoError(t, err)
			require.Len(t, tokens, 1)
			assert.Equal(t, tc.want, tokens[0].Type)
		})
	}
}

func TestLexer_Unterminated(t *testing.T) {
	_, err := Tokenize(`"abc`)
	assert.True(t, IsFormulaError(err, ErrorCodeSyntax))

	_, err = Tokenize("'Sheet!A1")
	assert.True(t, IsFormulaError(err, ErrorCodeSyntax))
}

func TestLexer_TokenIndexAt(t *testing.T) {
	l := NewLexer("A1+B2")
	_, err := l.Tokenize()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 2}, l.Lengths())
	assert.Equal(t, 0, l.TokenIndexAt(0))
	assert.Equal(t, 0, l.TokenIndexAt(1))
	assert.Equal(t, 1, l.TokenIndexAt(2))
	assert.Equal(t, 2, l.TokenIndexAt(3))
	assert.Equal(t, 2, l.TokenIndexAt(10))
}
