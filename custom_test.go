package gridsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterExpr_Evaluates(t *testing.T) {
	b := newTestBook(t)
	r := b.Registry()
	require.NoError(t, r.RegisterExpr("muladd", "args[0] * args[1] + 1", 2, 2))
	require.NoError(t, r.RegisterExpr("big", "args[0] > 10", 1, 1))
	require.NoError(t, r.RegisterExpr("height", "len(args[0])", 1, 1))
	require.NoError(t, r.RegisterExpr("shout", `args[0] + "!"`, 1, 1))

	sheet := mustSheet(t, b, "S", [][]any{
		{3, 4, "=MULADD(A1, B1)"},
		{12, "", "=BIG(A2)"},
		{1, "", "=HEIGHT(A1:A3)"},
		{"", "", `=SHOUT("hi")`},
	})
	assert.Equal(t, "13", sheet.Stringify(pt("C1"), false))
	assert.Equal(t, "TRUE", sheet.Stringify(pt("C2"), false))
	assert.Equal(t, "3", sheet.Stringify(pt("C3"), false))
	assert.Equal(t, "hi!", sheet.Stringify(pt("C4"), false))

	fn, ok := r.Lookup("MulAdd")
	require.True(t, ok)
	assert.Equal(t, "MULADD", fn.Name)
	assert.Equal(t, "args[0] * args[1] + 1", fn.Description)
}

func TestRegisterExpr_Arity(t *testing.T) {
	b := newTestBook(t)
	require.NoError(t, b.Registry().RegisterExpr("one", "args[0]", 1, 1))
	sheet := mustSheet(t, b, "S", [][]any{{"=ONE(1, 2)"}})
	assert.Equal(t, "#N/A", sheet.Stringify(pt("A1"), false))
}

func TestRegisterExpr_RuntimeError(t *testing.T) {
	b := newTestBook(t)
	require.NoError(t, b.Registry().RegisterExpr("twice", "args[0] * 2", 1, 1))
	sheet := mustSheet(t, b, "S", [][]any{{`=TWICE("abc")`}})
	assert.Equal(t, "#VALUE!", sheet.Stringify(pt("A1"), false))
}

func TestRegisterExpr_Invalid(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.RegisterExpr("bad", "args[0] +", 1, 1))
	assert.Error(t, r.RegisterExpr("empty", "  ", 0, 0))
	_, ok := r.Lookup("BAD")
	assert.False(t, ok)
}

func TestRegisterExpr_ConfigSkipsBroken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Functions = []FunctionConfig{
		{Name: "broken", Expr: "args[0] +", MinArgs: 1, MaxArgs: 1},
		{Name: "inc", Expr: "args[0] + 1", MinArgs: 1, MaxArgs: 1},
	}
	b := newTestBook(t, WithConfig(cfg))
	_, ok := b.Registry().Lookup("BROKEN")
	assert.False(t, ok)
	_, ok = b.Registry().Lookup("INC")
	assert.True(t, ok)
}

func TestRegisterExpr_CellArguments(t *testing.T) {
	b := newTestBook(t)
	require.NoError(t, b.Registry().RegisterExpr("dbl", "args[0] * 2", 1, 1))
	require.NoError(t, b.Registry().RegisterExpr("width", "len(args[0][0])", 1, 1))
	sheet := mustSheet(t, b, "S", [][]any{{3, "=DBL(A1)", "=DBL(3)", "=WIDTH(A1:C1)"}, {"=1/0", "=DBL(A2)"}})

	assert.Equal(t, "6", sheet.Stringify(pt("B1"), false))
	assert.Equal(t, "6", sheet.Stringify(pt("C1"), false))
	assert.Equal(t, "3", sheet.Stringify(pt("D1"), false))
	assert.Equal(t, "#DIV/0!", sheet.Stringify(pt("B2"), false))
}
