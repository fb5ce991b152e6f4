package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/declgen/am"
	"github.com/teranos/declgen/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage declgen configuration",
	Long: `Display and manage declgen configuration.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (DECLGEN_* prefix, e.g. DECLGEN_DISCOVER_PATH)
3. Project config (nearest declgen.toml, searching upward)
4. User config (~/.declgen/declgen.toml)
5. System config (/etc/declgen/declgen.toml)
6. Default values

Examples:
  declgen am show                 # Show current configuration
  declgen am show --sources       # Show where each value came from
  declgen am init                 # Write a starter ./declgen.toml
  declgen am validate             # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmShow,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter declgen.toml with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmValidate,
}

func init() {
	amShowCmd.Flags().String("format", "toml", "Output format: toml, json, yaml")
	amShowCmd.Flags().Bool("sources", false, "Show the source of every setting")

	amInitCmd.Flags().Bool("force", false, "Replace an existing file (the old one is kept as .back1)")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amValidateCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	showSources, _ := cmd.Flags().GetBool("sources")
	out := cmd.OutOrStdout()

	if showSources {
		in, err := am.GetConfigIntrospection()
		if err != nil {
			return err
		}
		file := in.ConfigFile
		if file == "" {
			file = "(none, defaults and environment only)"
		}
		pterm.Info.WithWriter(cmd.ErrOrStderr()).Printfln("Config file: %s", file)

		rows := pterm.TableData{{"Key", "Value", "Source", "From"}}
		for _, s := range in.Settings {
			rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(rows).Render()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# declgen configuration\n%s", data)

	case "toml":
		data, err := am.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# declgen configuration\n%s", data)

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	path := am.ConfigFileName
	if len(args) == 1 {
		path = args[0]
	}

	if err := am.WriteConfig(path, am.Default(), force); err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Wrote %s", path)
	pterm.Info.WithWriter(cmd.ErrOrStderr()).Println("Set discover.path (or discover.command) before running 'declgen generate'")
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Println("Configuration is valid")
	return nil
}
