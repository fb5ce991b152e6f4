package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"tagged", Info{Version: "v0.3.0", CommitHash: "0123456789"}, "v0.3.0"},
		{"dev with commit", Info{Version: "dev", CommitHash: "0123456789"}, "0123456"},
		{"dev short commit", Info{Version: "dev", CommitHash: "dev"}, "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.Short())
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
	assert.Contains(t, info.String(), "declgen")
}
