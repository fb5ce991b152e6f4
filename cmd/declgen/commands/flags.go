package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/declgen/am"
)

// addInputFlags registers the flags that override discovery and generation
// config keys for a single run.
func addInputFlags(c *cobra.Command) {
	c.Flags().StringP("input", "i", "", "Discovery input path or URL (overrides discover.path)")
	c.Flags().StringP("source", "s", "", "Discovery source: manifest, header, command, snapshot (overrides discover.source)")
	c.Flags().String("format", "", "Manifest format: yaml, json, toml (overrides discover.format)")
	c.Flags().String("snapshot", "", "Snapshot id or prefix to generate from (implies --source snapshot)")
	c.Flags().String("fixture", "", "Static fixture file appended verbatim (overrides generate.fixture)")
	c.Flags().StringSliceP("output", "o", nil, "Output destinations, '-' for stdout (overrides generate.outputs)")
	c.Flags().Bool("no-banner", false, "Omit the generated-file banner")
}

// applyOverrides returns a copy of cfg with changed flags applied.
func applyOverrides(cmd *cobra.Command, cfg *am.Config) *am.Config {
	out := *cfg
	flags := cmd.Flags()

	if flags.Changed("input") {
		out.Discover.Path, _ = flags.GetString("input")
	}
	if flags.Changed("source") {
		out.Discover.Source, _ = flags.GetString("source")
	}
	if flags.Changed("format") {
		out.Discover.Format, _ = flags.GetString("format")
	}
	if flags.Changed("snapshot") {
		out.Discover.Source = am.SourceSnapshot
		out.Snapshot.ID, _ = flags.GetString("snapshot")
	}
	if flags.Changed("fixture") {
		out.Generate.Fixture, _ = flags.GetString("fixture")
	}
	if flags.Changed("output") {
		out.Generate.Outputs, _ = flags.GetStringSlice("output")
	}
	if noBanner, _ := flags.GetBool("no-banner"); noBanner {
		out.Generate.Banner = false
	}
	return &out
}

// runConfig loads config, applies this command's overrides and validates.
func runConfig(cmd *cobra.Command) (*am.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg = applyOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
