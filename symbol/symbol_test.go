package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/declgen/errors"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"integer", IntegerConstant},
		{"INT", IntegerConstant},
		{"string", StringConstant},
		{"class", Record},
		{" record ", Record},
		{"function", Callable},
		{"callable", Callable},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind_Unknown(t *testing.T) {
	_, err := ParseKind("macro")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "integer", IntegerConstant.String())
	assert.Equal(t, "callable", Callable.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestByKindPreservesOrder(t *testing.T) {
	symbols := []Descriptor{
		Func("a", nil, "void"),
		Int("B", 1),
		Func("c", nil, "void"),
		Int("D", 2),
	}

	funcs := ByKind(symbols, Callable)
	require.Len(t, funcs, 2)
	assert.Equal(t, "a", funcs[0].Name)
	assert.Equal(t, "c", funcs[1].Name)

	ints := ByKind(symbols, IntegerConstant)
	require.Len(t, ints, 2)
	assert.Equal(t, "B", ints[0].Name)
	assert.Equal(t, "D", ints[1].Name)
}

func TestRecordNamesAndCount(t *testing.T) {
	symbols := []Descriptor{
		NewRecord("vec2", "x", "y"),
		NewRecord("vec3", "x", "y", "z"),
		String("VERSION", "1.0"),
	}

	names := RecordNames(symbols)
	assert.True(t, names["vec2"])
	assert.True(t, names["vec3"])
	assert.False(t, names["VERSION"])

	counts := Count(symbols)
	assert.Equal(t, 2, counts[Record])
	assert.Equal(t, 1, counts[StringConstant])
	assert.Equal(t, 0, counts[Callable])
}
