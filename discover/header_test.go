package discover

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/symbol"
)

func TestHeaderSource_Discover(t *testing.T) {
	src := &HeaderSource{Path: filepath.Join("testdata", "obs.h")}

	got, err := src.Discover(context.Background())
	require.NoError(t, err)

	want := []symbol.Descriptor{
		symbol.Int("LOG_ERROR", 100),
		symbol.Int("LOG_WARNING", 200),
		symbol.Int("OBS_FLAG_A", 8),
		symbol.Int("OBS_MASK", 255),
		symbol.Int("OBS_NEG", -1),
		symbol.String("MODULE_NAME", `obs "core"`),
		symbol.Int("OBS_SOURCE_TYPE_INPUT", 0),
		symbol.Int("OBS_SOURCE_TYPE_FILTER", 1),
		symbol.Int("OBS_SOURCE_TYPE_SCENE", 5),
		symbol.Int("OBS_SOURCE_TYPE_LAST", 6),
		symbol.NewRecord("vec2", "x", "y"),
		symbol.NewRecord("obs_source_info", "id", "type", "output_flags", "get_name", "update", "matrix"),
		symbol.Func("obs_startup", []string{"const char *", "const char *", "profiler_name_store_t *"}, "bool"),
		symbol.Func("obs_shutdown", []string{"void"}, "void"),
		symbol.Func("obs_get_version", []string{"void"}, "uint32_t"),
		symbol.Func("obs_source_get_name", []string{"const obs_source_t *"}, "const char *"),
		symbol.Func("obs_source_get_ref", []string{"obs_source_t *"}, "obs_source_t *"),
		symbol.Func("obs_data_get_int", []string{"obs_data_t *", "const char *"}, "long long"),
		symbol.Func("obs_enum_sources", []string{"bool (*enum_proc)(void *, obs_source_t *)", "void *"}, "void"),
		symbol.Func("vec2_set", []string{"struct vec2 *", "float", "float"}, "void"),
		symbol.Func("gs_matrix_get", []string{"float[16]"}, "void"),
		symbol.Func("blog", []string{"int", "const char *"}, "void"),
		symbol.Func("obs_get_frame_interval", []string{"void"}, "unsigned int"),
	}
	assert.Equal(t, want, got)
}

func TestHeaderSource_Missing(t *testing.T) {
	src := &HeaderSource{Path: filepath.Join(t.TempDir(), "nope.h")}

	_, err := src.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestParseHeader_SkipsInlineBodies(t *testing.T) {
	got := ParseHeader(`
static inline int clamp(int v)
{
	return max(v, 0);
}
`)
	assert.Empty(t, got)
}

func TestParseIntExpr(t *testing.T) {
	known := map[string]int64{"BASE": 16}
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"0x10", 16, true},
		{"010", 8, true},
		{"-3", -3, true},
		{"((7))", 7, true},
		{"1 << 4", 16, true},
		{"(1<<BASE)", 65536, true},
		{"BASE", 16, true},
		{"100UL", 100, true},
		{"0xFFFFFFFFFFFFFFFF", -1, true},
		{"A + 1", 0, false},
		{"'x'", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseIntExpr(tt.in, known)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestParseEnumValues_UnknownExpression(t *testing.T) {
	got := parseEnumValues("A, B = SOMETHING(), C, D = 10, E", map[string]int64{})

	assert.Equal(t, []symbol.Descriptor{
		symbol.Int("A", 0),
		symbol.Int("D", 10),
		symbol.Int("E", 11),
	}, got)
}

func TestParamType(t *testing.T) {
	tests := map[string]string{
		"const char *name":     "const char *",
		"char*name":            "char *",
		"char **argv":          "char **",
		"obs_source_t *":       "obs_source_t *",
		"obs_source_t * const": "obs_source_t * const",
		"unsigned int":         "unsigned int",
		"unsigned int flags":   "unsigned int",
		"long long":            "long long",
		"struct vec2":          "struct vec2",
		"struct vec2 v":        "struct vec2",
		"size_t":               "size_t",
		"size_t count":         "size_t",
		"float m[4]":           "float[4]",
		"void":                 "void",
	}
	for in, want := range tests {
		assert.Equal(t, want, paramType(in), in)
	}
}

func TestParseParams(t *testing.T) {
	assert.Nil(t, parseParams(""))
	assert.Equal(t, []string{"void"}, parseParams("void"))
	assert.Equal(t, []string{"int", "const char *"}, parseParams("int level, const char *fmt, ..."))
	assert.Equal(t,
		[]string{"void (*cb)(void *, int)", "void *"},
		parseParams("void (*cb)(void *, int), void *data"),
	)
}
