package typegen_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/declgen/typegen"
	"github.com/teranos/declgen/typegen/nattlua"
)

func TestBanner(t *testing.T) {
	got := typegen.Banner(nattlua.New("", ""), "1.2.0")
	assert.Equal(t, "-- Code generated by declgen. DO NOT EDIT.\n-- Source version: 1.2.0\n", got)
}

func TestCheck(t *testing.T) {
	d := nattlua.New("", "")
	body := "local type o = {}\ntype o.A = 1\ntype obslua = o\n"

	tests := []struct {
		name     string
		existing string
		fresh    string
		upToDate bool
		lines    []int
	}{
		{
			name:     "identical",
			existing: body,
			fresh:    body,
			upToDate: true,
		},
		{
			name:     "version line ignored",
			existing: typegen.Banner(d, "1.0.0") + body,
			fresh:    typegen.Banner(d, "2.0.0") + body,
			upToDate: true,
		},
		{
			name:     "changed constant",
			existing: body,
			fresh:    "local type o = {}\ntype o.A = 2\ntype obslua = o\n",
			lines:    []int{2},
		},
		{
			name:     "added declaration",
			existing: body,
			fresh:    "local type o = {}\ntype o.A = 1\ntype o.B = 2\ntype obslua = o\n",
			lines:    []int{3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "obslua.nlua")
			require.NoError(t, os.WriteFile(path, []byte(tt.existing), 0644))

			res, err := typegen.Check(tt.fresh, path, d)
			require.NoError(t, err)
			assert.Equal(t, tt.upToDate, res.UpToDate)
			assert.False(t, res.Missing)
			assert.Equal(t, tt.lines, res.Lines)
			assert.Equal(t, path, res.Path)
		})
	}
}

func TestCheck_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.nlua")

	res, err := typegen.Check("local type o = {}\n", path, nattlua.New("", ""))
	require.NoError(t, err)
	assert.True(t, res.Missing)
	assert.False(t, res.UpToDate)
}
