package discover

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/declgen/errors"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestCommandSource_Discover(t *testing.T) {
	requireBinary(t, "cat")

	src := &CommandSource{
		Command: "cat " + filepath.Join("testdata", "symbols.json"),
	}
	got, err := src.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testdataSymbols, got)
}

func TestCommandSource_QuotedArgs(t *testing.T) {
	requireBinary(t, "sh")

	src := &CommandSource{
		Command: `sh -c 'cat "$0"' ` + filepath.Join("testdata", "symbols.toml"),
		Format:  FormatTOML,
	}
	got, err := src.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testdataSymbols, got)
}

func TestCommandSource_Failure(t *testing.T) {
	requireBinary(t, "sh")

	src := &CommandSource{Command: `sh -c 'echo host not running >&2; exit 3'`}
	_, err := src.Discover(context.Background())
	require.Error(t, err)
	assert.Contains(t, errors.FlattenDetails(err), "host not running")
}

func TestCommandSource_Timeout(t *testing.T) {
	requireBinary(t, "sleep")

	src := &CommandSource{Command: "sleep 5", Timeout: 50 * time.Millisecond}
	_, err := src.Discover(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestCommandSource_BadQuoting(t *testing.T) {
	src := &CommandSource{Command: `cat "unterminated`}
	_, err := src.Discover(context.Background())
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"default manifest", Options{Path: "a.yaml"}, "manifest:a.yaml"},
		{"header", Options{Source: SourceHeader, Path: "obs.h"}, "header:obs.h"},
		{"command", Options{Source: SourceCommand, Command: "dump"}, "command:dump"},
		{"snapshot", Options{Source: SourceSnapshot, Snapshots: stubLoader{}}, "snapshot:latest"},
		{"snapshot id", Options{Source: SourceSnapshot, Snapshots: stubLoader{}, SnapshotID: "abc"}, "snapshot:abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.Name())
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	for _, opts := range []Options{
		{Source: SourceManifest},
		{Source: SourceHeader},
		{Source: SourceCommand},
		{Source: SourceSnapshot},
		{Source: "reflection"},
	} {
		_, err := New(opts)
		assert.True(t, errors.IsInvalidRequestError(err), "source %q", opts.Source)
	}
}
