package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/declgen/am"
	"github.com/teranos/declgen/discover"
	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/snapshot"
	"github.com/teranos/declgen/symbol"
	"github.com/teranos/declgen/typegen"
	"github.com/teranos/declgen/typegen/nattlua"
	"github.com/teranos/declgen/version"
)

// loadConfig loads the layered config, or only --config when given, and
// validates it.
func loadConfig(cmd *cobra.Command) (*am.Config, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger.SetTheme(cfg.Log.Theme)
	if logger.ShouldOutput(logger.Verbosity, logger.OutputConfig) {
		logger.Logger.Debugw("Loaded configuration",
			"files", am.ConfigFiles(),
			"source", cfg.Discover.Source,
			"outputs", cfg.Generate.Outputs,
		)
	}
	return cfg, nil
}

func readConfig(cmd *cobra.Command) (*am.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return am.LoadFromFile(path)
	}
	return am.Load()
}

// configLoader returns the loader a watcher uses to re-read configuration
func configLoader(cmd *cobra.Command) am.LoadFunc {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return func() (*am.Config, error) { return am.LoadFromFile(path) }
	}
	return nil
}

// newDialect returns the dialect named in cfg.
func newDialect(cfg *am.Config) (typegen.Dialect, error) {
	switch cfg.Dialect.Name {
	case "nattlua", "":
		return nattlua.New(cfg.Dialect.Namespace, cfg.Dialect.Alias), nil
	}
	return nil, errors.WithHintf(
		errors.Newf("unknown dialect %q", cfg.Dialect.Name),
		"supported dialects: %s", strings.Join(am.Dialects, ", "),
	)
}

// ruleTarget maps a translate.rules[].to value to an expression constructor.
func ruleTarget(to string) (func(typegen.Dialect) string, error) {
	elem, isList := strings.CutPrefix(to, "list:")

	var base func(typegen.Dialect) string
	switch elem {
	case "any":
		base = typegen.Any
	case "number":
		base = typegen.Number
	case "boolean":
		base = typegen.Boolean
	case "string":
		base = typegen.String
	default:
		return nil, errors.NewInvalidRequestError("unknown rule target %q", to)
	}

	if isList {
		return typegen.ListOf(base), nil
	}
	return base, nil
}

// newTranslator builds the translator configured by cfg.
func newTranslator(cfg *am.Config, d typegen.Dialect, l *zap.SugaredLogger) (*typegen.Translator, error) {
	opts := []typegen.Option{
		typegen.WithMarkers(cfg.Translate.UnresolvedMarkers...),
		typegen.WithLogger(l),
	}
	for _, rc := range cfg.Translate.Rules {
		to, err := ruleTarget(rc.To)
		if err != nil {
			return nil, errors.Wrapf(err, "translate rule %q", rc.Name)
		}
		opts = append(opts, typegen.WithRules(typegen.MatchExact(rc.Name, to, rc.Match...)))
	}
	return typegen.NewTranslator(d, opts...), nil
}

// buildSource returns the configured discovery source. The snapshot store is
// only opened for the snapshot source; the returned close func is never nil.
func buildSource(cfg *am.Config, l *zap.SugaredLogger) (discover.Source, func(), error) {
	opts := discover.Options{
		Source:     cfg.Discover.Source,
		Path:       cfg.Discover.Path,
		Command:    cfg.Discover.Command,
		Format:     cfg.Discover.Format,
		Timeout:    cfg.Timeout(),
		SnapshotID: cfg.Snapshot.ID,
		Logger:     l,
	}

	closer := func() {}
	if cfg.Discover.Source == discover.SourceSnapshot {
		store, err := snapshot.Open(cfg.Snapshot.Path, l)
		if err != nil {
			return nil, closer, err
		}
		opts.Snapshots = store
		closer = func() { store.Close() }
	}

	src, err := discover.New(opts)
	if err != nil {
		closer()
		return nil, func() {}, err
	}
	return src, closer, nil
}

// discoverSymbols runs the configured source once.
func discoverSymbols(ctx context.Context, cfg *am.Config, l *zap.SugaredLogger) ([]symbol.Descriptor, string, error) {
	l = logger.OrNop(l)
	src, closeSource, err := buildSource(cfg, l)
	if err != nil {
		return nil, "", err
	}
	defer closeSource()

	symbols, err := src.Discover(ctx)
	if err != nil {
		return nil, src.Name(), errors.Wrapf(err, "discovery from %s failed", src.Name())
	}
	if logger.ShouldOutput(logger.Verbosity, logger.OutputDataDump) {
		for _, s := range symbols {
			l.Debugw("Discovered symbol", "descriptor", s)
		}
	}
	return symbols, src.Name(), nil
}

// readFixture returns the fixture text, or empty when none is configured.
func readFixture(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.WithHint(
				errors.NewNotFoundError("fixture file %s does not exist", path),
				"set generate.fixture to an existing file or leave it empty",
			)
		}
		return "", errors.Wrapf(err, "failed to read fixture %s", path)
	}
	return string(data), nil
}

// generation is one complete run: discovered symbols in, declaration text out.
type generation struct {
	Dialect typegen.Dialect
	Result  *typegen.Result
	Source  string
	// Text is Result.Text with the banner prepended when enabled
	Text     string
	Duration time.Duration
}

// generateOnce discovers, translates and assembles using cfg. Nothing is written.
func generateOnce(ctx context.Context, cfg *am.Config, l *zap.SugaredLogger) (*generation, error) {
	start := time.Now()
	l = logger.OrNop(l)

	d, err := newDialect(cfg)
	if err != nil {
		return nil, err
	}
	tr, err := newTranslator(cfg, d, l)
	if err != nil {
		return nil, err
	}

	symbols, sourceName, err := discoverSymbols(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	fixture, err := readFixture(cfg.Generate.Fixture)
	if err != nil {
		return nil, err
	}

	res := typegen.NewAssembler(d, tr, l).Assemble(symbols, fixture)

	text := res.Text
	if cfg.Generate.Banner {
		text = typegen.Banner(d, version.Get().Short()) + text
	}

	g := &generation{
		Dialect:  d,
		Result:   res,
		Source:   sourceName,
		Text:     text,
		Duration: time.Since(start),
	}
	l.Infow("Generated declarations",
		logger.FieldSource, sourceName,
		logger.FieldCount, res.Total(),
		"opaque", len(res.Opaque),
		"widened", len(res.Widened),
		logger.FieldDurationMS, g.Duration.Milliseconds(),
	)
	return g, nil
}

// resolveOutputs expands directory destinations (trailing separator or an
// existing directory) to <dir>/<alias>.<extension>.
func resolveOutputs(cfg *am.Config) []string {
	out := make([]string, 0, len(cfg.Generate.Outputs))
	for _, dest := range cfg.Generate.Outputs {
		if dest == typegen.Stdout {
			out = append(out, dest)
			continue
		}
		if strings.HasSuffix(dest, "/") || strings.HasSuffix(dest, string(filepath.Separator)) || isDir(dest) {
			dest = filepath.Join(dest, cfg.Dialect.Alias+"."+cfg.Dialect.Extension)
		}
		out = append(out, dest)
	}
	return out
}

// fileOutputs returns the destinations that are files, not stdout.
func fileOutputs(outputs []string) []string {
	var files []string
	for _, o := range outputs {
		if o != typegen.Stdout {
			files = append(files, o)
		}
	}
	return files
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
