// Package discover produces symbol tables for the declaration engine.
//
// Each Source turns one representation of a host API into an ordered
// []symbol.Descriptor: a manifest file (YAML, JSON or TOML, local or remote),
// a C header, the stdout of an external discovery command, or a stored
// snapshot. Sources validate what they read; the engine downstream accepts
// whatever they return.
package discover

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/symbol"
)

// Source names accepted by New.
const (
	SourceManifest = "manifest"
	SourceHeader   = "header"
	SourceCommand  = "command"
	SourceSnapshot = "snapshot"
)

// DefaultTimeout bounds external commands and remote fetches.
const DefaultTimeout = 30 * time.Second

// Source produces a symbol table.
type Source interface {
	// Name describes the source for logs and snapshot metadata
	Name() string

	Discover(ctx context.Context) ([]symbol.Descriptor, error)
}

// SnapshotLoader loads a stored symbol table. An empty id means the latest.
type SnapshotLoader interface {
	Load(ctx context.Context, id string) ([]symbol.Descriptor, error)
}

// Options selects and configures a Source.
type Options struct {
	Source  string
	Path    string
	Command string
	Format  string
	Timeout time.Duration

	// Snapshots and SnapshotID are used by the snapshot source
	Snapshots  SnapshotLoader
	SnapshotID string

	Logger *zap.SugaredLogger
}

// New returns the source named by opts.Source.
func New(opts Options) (Source, error) {
	l := logger.OrNop(opts.Logger)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch opts.Source {
	case SourceManifest, "":
		if opts.Path == "" {
			return nil, errors.WithHint(
				errors.NewInvalidRequestError("manifest source requires a path"),
				"set discover.path in declgen.toml or pass --input",
			)
		}
		return &ManifestSource{Path: opts.Path, Format: opts.Format, Timeout: timeout, Logger: l}, nil

	case SourceHeader:
		if opts.Path == "" {
			return nil, errors.WithHint(
				errors.NewInvalidRequestError("header source requires a path"),
				"set discover.path to a .h file",
			)
		}
		return &HeaderSource{Path: opts.Path, Logger: l}, nil

	case SourceCommand:
		if opts.Command == "" {
			return nil, errors.WithHint(
				errors.NewInvalidRequestError("command source requires a command"),
				"set discover.command to a program that prints a manifest on stdout",
			)
		}
		return &CommandSource{Command: opts.Command, Format: opts.Format, Timeout: timeout, Logger: l}, nil

	case SourceSnapshot:
		if opts.Snapshots == nil {
			return nil, errors.NewInvalidRequestError("snapshot source requires a snapshot store")
		}
		return &SnapshotSource{Loader: opts.Snapshots, ID: opts.SnapshotID}, nil
	}

	return nil, errors.WithHintf(
		errors.NewInvalidRequestError("unknown discovery source %q", opts.Source),
		"valid sources: %s, %s, %s, %s", SourceManifest, SourceHeader, SourceCommand, SourceSnapshot,
	)
}

// SnapshotSource reads a symbol table previously saved to the snapshot store.
type SnapshotSource struct {
	Loader SnapshotLoader
	ID     string
}

func (s *SnapshotSource) Name() string {
	if s.ID == "" {
		return "snapshot:latest"
	}
	return "snapshot:" + s.ID
}

func (s *SnapshotSource) Discover(ctx context.Context) ([]symbol.Descriptor, error) {
	symbols, err := s.Loader.Load(ctx, s.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", s.Name())
	}
	return symbols, nil
}
