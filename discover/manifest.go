package discover

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/symbol"
)

// Manifest formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// ManifestVersion is written into manifests declgen produces.
const ManifestVersion = "1.0"

// SupportedManifestVersions is the semver range of readable manifests.
const SupportedManifestVersions = ">= 1.0, < 2.0"

// Manifest is the on-disk form of a symbol table.
//
//	version: "1.0"
//	symbols:
//	  - {kind: integer, name: LOG_ERROR, value: 100}
//	  - {kind: callable, name: obs_source_get_name, params: ["const obs_source_t *"], return: "const char *"}
type Manifest struct {
	Version string  `yaml:"version" toml:"version"`
	Symbols []Entry `yaml:"symbols" toml:"symbols"`
}

// Entry is one manifest symbol. Value holds the constant for integer and
// string kinds.
type Entry struct {
	Kind       string   `yaml:"kind" toml:"kind"`
	Name       string   `yaml:"name" toml:"name"`
	Value      any      `yaml:"value,omitempty" toml:"value,omitempty"`
	Properties []string `yaml:"properties,omitempty" toml:"properties,omitempty"`
	Params     []string `yaml:"params,omitempty" toml:"params,omitempty"`
	Return     string   `yaml:"return,omitempty" toml:"return,omitempty"`
}

// FormatFromPath infers a manifest format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.WithHint(
		errors.Wrapf(errors.ErrUnsupportedFormat, "cannot infer manifest format of %s", path),
		"use a .yaml, .json or .toml extension or set discover.format",
	)
}

// ParseManifest decodes data in format and converts it to descriptors.
func ParseManifest(data []byte, format string) ([]symbol.Descriptor, error) {
	var m Manifest

	switch strings.ToLower(format) {
	case FormatYAML, "yml", FormatJSON:
		// JSON documents are valid YAML 1.2 flow documents
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s manifest", format)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, "failed to decode toml manifest")
		}
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedFormat, "manifest format %q", format)
	}

	if err := checkVersion(m.Version); err != nil {
		return nil, err
	}
	return m.Descriptors()
}

func checkVersion(v string) error {
	if v == "" {
		return errors.WithHintf(
			errors.Wrap(errors.ErrIncompatibleVersion, "manifest has no version"),
			"add version = %q to the manifest", ManifestVersion,
		)
	}

	ver, err := semver.NewVersion(v)
	if err != nil {
		return errors.Wrapf(errors.ErrIncompatibleVersion, "invalid manifest version %s: %v", v, err)
	}
	constraint, err := semver.NewConstraint(SupportedManifestVersions)
	if err != nil {
		return errors.Wrap(err, "invalid manifest version constraint")
	}
	if !constraint.Check(ver) {
		return errors.Wrapf(errors.ErrIncompatibleVersion,
			"manifest version %s not in %s", v, SupportedManifestVersions)
	}
	return nil
}

// Descriptors converts manifest entries in order.
func (m *Manifest) Descriptors() ([]symbol.Descriptor, error) {
	out := make([]symbol.Descriptor, 0, len(m.Symbols))
	for i, e := range m.Symbols {
		d, err := e.descriptor()
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %d (%s)", i, e.Name)
		}
		out = append(out, d)
	}
	return out, nil
}

func (e Entry) descriptor() (symbol.Descriptor, error) {
	kind, err := symbol.ParseKind(e.Kind)
	if err != nil {
		return symbol.Descriptor{}, err
	}
	if strings.TrimSpace(e.Name) == "" {
		return symbol.Descriptor{}, errors.NewInvalidRequestError("symbol has no name")
	}

	switch kind {
	case symbol.IntegerConstant:
		v, err := intValue(e.Value)
		if err != nil {
			return symbol.Descriptor{}, err
		}
		return symbol.Int(e.Name, v), nil
	case symbol.StringConstant:
		s, ok := e.Value.(string)
		if !ok && e.Value != nil {
			return symbol.Descriptor{}, errors.NewInvalidRequestError("string constant value must be a string, got %T", e.Value)
		}
		return symbol.String(e.Name, s), nil
	case symbol.Record:
		return symbol.NewRecord(e.Name, e.Properties...), nil
	default:
		return symbol.Func(e.Name, e.Params, e.Return), nil
	}
}

func intValue(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, errors.NewInvalidRequestError("integer constant %d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, errors.NewInvalidRequestError("integer constant has fractional value %v", n)
		}
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 0, 64)
		if err != nil {
			return 0, errors.NewInvalidRequestError("integer constant %q is not a number", n)
		}
		return i, nil
	case nil:
		return 0, errors.NewInvalidRequestError("integer constant has no value")
	}
	return 0, errors.NewInvalidRequestError("integer constant value must be a number, got %T", v)
}

// NewManifest builds a manifest from descriptors.
func NewManifest(symbols []symbol.Descriptor) *Manifest {
	m := &Manifest{Version: ManifestVersion, Symbols: make([]Entry, 0, len(symbols))}
	for _, s := range symbols {
		e := Entry{Kind: s.Kind.String(), Name: s.Name}
		switch s.Kind {
		case symbol.IntegerConstant:
			e.Value = s.Int
		case symbol.StringConstant:
			e.Value = s.Str
		case symbol.Record:
			e.Properties = s.Properties
		case symbol.Callable:
			e.Params = s.Params
			e.Return = s.Return
		}
		m.Symbols = append(m.Symbols, e)
	}
	return m
}

// MarshalManifest encodes descriptors as a manifest in format.
func MarshalManifest(symbols []symbol.Descriptor, format string) ([]byte, error) {
	m := NewManifest(symbols)

	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, errors.Wrap(err, "failed to encode yaml manifest")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "failed to encode yaml manifest")
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, errors.Wrap(err, "failed to encode toml manifest")
		}
		return buf.Bytes(), nil
	}
	return nil, errors.Wrapf(errors.ErrUnsupportedFormat, "cannot write %q manifests", format)
}

// ManifestSource reads a manifest from a local path or a remote URL.
type ManifestSource struct {
	Path    string
	Format  string
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

func (s *ManifestSource) Name() string {
	return "manifest:" + s.Path
}

func (s *ManifestSource) Discover(ctx context.Context) ([]symbol.Descriptor, error) {
	l := logger.OrNop(s.Logger)

	format := s.Format
	if format == "" {
		f, err := FormatFromPath(s.Path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	path := s.Path
	if IsRemote(path) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout())
		defer cancel()

		local, cleanup, err := Fetch(ctx, path, l)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = local
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(
				errors.NewNotFoundError("manifest %s", s.Path),
				"run discovery first or check discover.path",
			)
		}
		return nil, errors.Wrapf(err, "failed to read manifest %s", s.Path)
	}

	symbols, err := ParseManifest(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", s.Path)
	}

	l.Infow("Loaded manifest",
		logger.FieldPath, s.Path,
		logger.FieldFormat, format,
		logger.FieldCount, len(symbols),
	)
	return symbols, nil
}

func (s *ManifestSource) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}
