package typegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/declgen/symbol"
	"github.com/teranos/declgen/typegen"
	"github.com/teranos/declgen/typegen/nattlua"
)

func newAssembler() *typegen.Assembler {
	d := nattlua.New("", "")
	return typegen.NewAssembler(d, typegen.NewTranslator(d), nil)
}

func lines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func countLinesWithPrefix(text, prefix string) int {
	n := 0
	for _, l := range lines(text) {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func TestAssemble_ConstantAndCallable(t *testing.T) {
	res := newAssembler().Assemble([]symbol.Descriptor{
		symbol.Int("FOO", 3),
		symbol.Func("bar", []string{"char *"}, "void"),
	}, "")

	assert.Contains(t, lines(res.Text), "type o.FOO = 3")
	assert.Contains(t, lines(res.Text), "type o.bar = function=(string)>()")
	assert.Equal(t, "nattlua", res.Language)
	assert.Equal(t, 1, res.Counts[symbol.IntegerConstant])
	assert.Equal(t, 1, res.Counts[symbol.Callable])
	assert.Equal(t, 2, res.Total())
	assert.Empty(t, res.Opaque)
}

func TestAssemble_OpaqueDeclaredOnce(t *testing.T) {
	res := newAssembler().Assemble([]symbol.Descriptor{
		symbol.Func("f", []string{"struct baz *"}, "struct baz *"),
	}, "")

	assert.Equal(t, 1, countLinesWithPrefix(res.Text, "type o.baz = "))
	assert.Equal(t, []string{"baz"}, res.Opaque)

	var decl string
	for _, l := range lines(res.Text) {
		if strings.HasPrefix(l, "type o.f = ") {
			decl = l
		}
	}
	require.NotEmpty(t, decl)

	params, ret, ok := strings.Cut(strings.TrimPrefix(decl, "type o.f = function="), ")>(")
	require.True(t, ok)
	assert.NotContains(t, params, "| nil")
	assert.Contains(t, ret, "| nil")
}

func TestAssemble_RecordSuppressesOpaque(t *testing.T) {
	res := newAssembler().Assemble([]symbol.Descriptor{
		symbol.NewRecord("baz", "a", "b"),
		symbol.Func("use", []string{"struct baz *"}, "void"),
	}, "")

	assert.NotContains(t, res.Text, `__name = "baz"`)
	assert.Empty(t, res.Opaque)
	assert.Equal(t, 1, countLinesWithPrefix(res.Text, "type o.baz = "))
}

func TestAssemble_CategoryOrder(t *testing.T) {
	res := newAssembler().Assemble([]symbol.Descriptor{
		symbol.Func("f2", nil, "int"),
		symbol.NewRecord("R"),
		symbol.String("S", "x"),
		symbol.Int("B", 2),
		symbol.Func("f1", []string{"zz_t *"}, "void"),
		symbol.Int("A", 1),
	}, "")

	assert.Equal(t, []string{
		"local type o = {}",
		`type o.zz_t = {__name = "zz_t"}`,
		"type o.B = 2",
		"type o.A = 1",
		`type o.S = "x"`,
		"type o.R = {}",
		"type o.f2 = function=()>(number)",
		"type o.f1 = function=(o.zz_t--[[ zz_t * ]])>()",
		"type obslua = o",
	}, lines(res.Text))
}

func TestAssemble_Idempotent(t *testing.T) {
	symbols := []symbol.Descriptor{
		symbol.Func("a", []string{"struct zeta *", "struct alpha *", "mid_t *"}, "beta_t *"),
		symbol.Func("b", []string{"gamma *"}, "void"),
		symbol.Int("X", -1),
	}

	first := newAssembler().Assemble(symbols, "")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Text, newAssembler().Assemble(symbols, "").Text)
	}
	assert.Equal(t, []string{"alpha", "beta_t", "gamma", "mid_t", "zeta"}, first.Opaque)
}

func TestAssemble_Empty(t *testing.T) {
	res := newAssembler().Assemble(nil, "")

	assert.Equal(t, "local type o = {}\ntype obslua = o\n", res.Text)
	assert.Zero(t, res.Total())
}

func TestAssemble_DuplicatesAreNotRejected(t *testing.T) {
	res := newAssembler().Assemble([]symbol.Descriptor{
		symbol.Int("A", 1),
		symbol.Int("A", 1),
	}, "")

	assert.Equal(t, 2, countLinesWithPrefix(res.Text, "type o.A = 1"))
}

func TestAssemble_Fixture(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
	}{
		{"with newline", "type o.extra = any\n"},
		{"without newline", "type o.extra = any"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newAssembler().Assemble(nil, tt.fixture)
			assert.Equal(t, "local type o = {}\ntype o.extra = any\ntype obslua = o\n", res.Text)
		})
	}
}

func TestAssemble_CustomNamespace(t *testing.T) {
	d := nattlua.New("api", "hostapi")
	res := typegen.NewAssembler(d, typegen.NewTranslator(d), nil).Assemble([]symbol.Descriptor{
		symbol.Func("get", nil, "handle_t *"),
	}, "")

	assert.Equal(t, []string{
		"local type api = {}",
		`type api.handle_t = {__name = "handle_t"}`,
		"type api.get = function=()>(api.handle_t | nil--[[ handle_t * ]])",
		"type hostapi = api",
	}, lines(res.Text))
}

func TestAssemble_WidenedReported(t *testing.T) {
	res := newAssembler().Assemble([]symbol.Descriptor{
		symbol.Func("cb", []string{"void (*)(void *)", "<unresolved>"}, "<unresolved>"),
	}, "")

	assert.Equal(t, []string{"<unresolved>", "void (*)(void *)"}, res.Widened)
	assert.Contains(t, res.Text, "type o.cb = function=(any, any)>(any)")
}
