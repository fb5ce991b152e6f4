package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/declgen/am"
	"github.com/teranos/declgen/discover"
	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/snapshot"
)

// SnapshotCmd manages stored discovery results
var SnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save and inspect discovery snapshots",
	Long: `Snapshots store a discovery result in the SQLite database at snapshot.path,
so declarations can be regenerated later without the native runtime.

Examples:
  declgen snapshot save --note "obs 30.1"   # Discover and store
  declgen snapshot ls                       # List stored snapshots
  declgen snapshot show 3f2a                # Print a snapshot as a manifest
  declgen generate --snapshot 3f2a          # Generate from it`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Run discovery and store the result",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotSave,
}

var snapshotLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored snapshots, newest first",
	Args:    cobra.NoArgs,
	RunE:    runSnapshotLs,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a snapshot as a manifest (latest when no id is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshotShow,
}

var snapshotRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotRm,
}

func init() {
	addInputFlags(snapshotSaveCmd)
	snapshotSaveCmd.Flags().String("note", "", "Free-form note stored with the snapshot")

	snapshotLsCmd.Flags().IntP("limit", "n", 20, "Maximum snapshots to list (0 for all)")

	snapshotShowCmd.Flags().StringP("manifest-format", "f", discover.FormatYAML, "Manifest format: yaml, toml")

	SnapshotCmd.AddCommand(snapshotSaveCmd)
	SnapshotCmd.AddCommand(snapshotLsCmd)
	SnapshotCmd.AddCommand(snapshotShowCmd)
	SnapshotCmd.AddCommand(snapshotRmCmd)
}

// openStore opens the snapshot store named in config
func openStore(cmd *cobra.Command) (*snapshot.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return snapshot.Open(cfg.Snapshot.Path, logger.ComponentLogger("snapshot"))
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Discover.Source == am.SourceSnapshot {
		return errors.WithHint(
			errors.NewInvalidRequestError("cannot save a snapshot from the snapshot source"),
			"pass --source manifest, header or command",
		)
	}
	l := logger.ComponentLogger("snapshot")
	note, _ := cmd.Flags().GetString("note")

	symbols, sourceName, err := discoverSymbols(cmd.Context(), cfg, l)
	if err != nil {
		return err
	}

	store, err := snapshot.Open(cfg.Snapshot.Path, l)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Save(cmd.Context(), sourceName, note, symbols)
	if err != nil {
		return err
	}

	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Saved snapshot %s (%d symbols from %s)", snap.ID, snap.Count, snap.Source)
	fmt.Fprintln(cmd.OutOrStdout(), snap.ID)
	return nil
}

func runSnapshotLs(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		pterm.Info.WithWriter(cmd.ErrOrStderr()).Println("No snapshots stored. Run 'declgen snapshot save' first.")
		return nil
	}

	rows := pterm.TableData{{"ID", "Created", "Symbols", "Source", "Note"}}
	for _, s := range snaps {
		rows = append(rows, []string{
			s.ID,
			s.CreatedAt.Local().Format(time.DateTime),
			strconv.Itoa(s.Count),
			s.Source,
			s.Note,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(rows).Render()
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("manifest-format")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	id := ""
	if len(args) == 1 {
		id = args[0]
	}

	symbols, err := store.Load(cmd.Context(), id)
	if err != nil {
		return err
	}
	data, err := discover.MarshalManifest(symbols, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runSnapshotRm(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.ErrOrStderr()).Printfln("Deleted snapshot %s", args[0])
	return nil
}
