package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/declgen/am"
	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/typegen"
)

// WatchCmd regenerates declarations whenever config or inputs change
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate declarations when config or input files change",
	Long: `Generate once, then watch the config file, the discovery input and the
fixture file, regenerating after every change. A failed run is logged and
the previous output is left in place.

Stop with Ctrl-C.

Examples:
  declgen watch
  declgen watch -i symbols.yaml -o types/`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	addInputFlags(WatchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	l := logger.ComponentLogger("watch")

	if len(fileOutputs(resolveOutputs(cfg))) == 0 {
		return errors.WithHint(
			errors.New("watch needs at least one file output"),
			"pass -o <file> or set generate.outputs",
		)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Command-line overrides stay in force across config reloads
	load := configLoader(cmd)
	reload := func() (*am.Config, error) {
		var fresh *am.Config
		var err error
		if load != nil {
			fresh, err = load()
		} else {
			am.Reset()
			fresh, err = am.Load()
		}
		if err != nil {
			return nil, err
		}
		return applyOverrides(cmd, fresh), nil
	}

	watcher, err := am.NewConfigWatcher(reload, l)
	if err != nil {
		return err
	}
	defer watcher.Stop()
	am.SetGlobalWatcher(watcher)
	defer am.SetGlobalWatcher(nil)

	watched := append(am.ConfigFiles(), cfg.InputFiles()...)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		watched = append(watched, path)
	}
	if err := watcher.Watch(watched...); err != nil {
		return err
	}

	regenerate := func(c *am.Config) error {
		if err := c.Validate(); err != nil {
			return errors.Wrap(err, "invalid config, keeping previous output")
		}
		return writeGeneration(ctx, cmd, c, l)
	}

	if err := regenerate(cfg); err != nil {
		l.Errorw("Initial generation failed", logger.FieldError, err)
	}
	watcher.OnReload(regenerate)
	watcher.Start()

	pterm.Info.WithWriter(cmd.ErrOrStderr()).Printfln("Watching %d files, press Ctrl-C to stop", len(watcher.Files()))
	<-ctx.Done()
	return nil
}

// writeGeneration runs one generation and writes every output
func writeGeneration(ctx context.Context, cmd *cobra.Command, cfg *am.Config, l *zap.SugaredLogger) error {
	gen, err := generateOnce(ctx, cfg, l)
	if err != nil {
		return err
	}
	outputs := resolveOutputs(cfg)
	if err := typegen.WriteOutputs(gen.Text, outputs, cmd.OutOrStdout()); err != nil {
		return errors.Wrap(err, "failed to write declarations")
	}
	for _, f := range fileOutputs(outputs) {
		pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Regenerated %s (%d declarations)", f, gen.Result.Total())
	}
	return nil
}
