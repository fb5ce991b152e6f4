package discover

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/symbol"
)

type stubLoader struct {
	symbols []symbol.Descriptor
	err     error
	gotID   *string
}

func (s stubLoader) Load(_ context.Context, id string) ([]symbol.Descriptor, error) {
	if s.gotID != nil {
		*s.gotID = id
	}
	return s.symbols, s.err
}

func TestSnapshotSource(t *testing.T) {
	var id string
	src := &SnapshotSource{
		Loader: stubLoader{symbols: testdataSymbols, gotID: &id},
		ID:     "1234",
	}

	got, err := src.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testdataSymbols, got)
	assert.Equal(t, "1234", id)
}

func TestSnapshotSource_Error(t *testing.T) {
	src := &SnapshotSource{Loader: stubLoader{err: errors.NewNotFoundError("snapshot x")}}

	_, err := src.Discover(context.Background())
	assert.True(t, errors.IsNotFoundError(err))
	assert.Contains(t, err.Error(), "snapshot:latest")
}
