package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scheduleall/internal/config"
	"scheduleall/internal/messaging/inproc"
	"scheduleall/internal/savefile"
	"scheduleall/internal/session"
	sqlitestore "scheduleall/internal/store/sqlite"
)

var headerOnly bool

func init() {
	inspectCmd.Flags().BoolVar(&headerOnly, "header", false, "print only the save header")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [save]",
	Short: "Print a summary of a save file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Runtime.SavePath
		if len(args) == 1 {
			path = args[0]
		}
		header, err := savefile.ReadHeader(path)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if headerOnly {
			return enc.Encode(header)
		}

		doc, err := savefile.Read(path)
		if err != nil {
			return err
		}

		type row struct {
			Pawn    string `json:"pawn"`
			Work    string `json:"work"`
			Restore int    `json:"restore"`
		}
		rows := make([]row, 0, len(doc.Ledger.Pawns))
		n := min(len(doc.Ledger.Pawns), len(doc.Ledger.Works), len(doc.Ledger.Values))
		for i := 0; i < n; i++ {
			rows = append(rows, row{Pawn: doc.Ledger.Pawns[i], Work: doc.Ledger.Works[i], Restore: doc.Ledger.Values[i]})
		}
		out := map[string]any{
			"header":    doc.Header,
			"pawns":     len(doc.Colony.Pawns),
			"ticks":     doc.Colony.Ticks,
			"last_hour": doc.Ledger.LastHour,
			"ledger":    rows,
		}
		return enc.Encode(out)
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [save]",
	Short: "Restore overridden priorities and strip custom slots from a save",
	Long: `uninstall loads a save, puts every overridden work priority back, replaces
every custom slot in every timetable with the default assignment and writes
the save back. The result no longer depends on custom slots.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Runtime.SavePath
		if len(args) == 1 {
			path = args[0]
		}

		dir, err := os.MkdirTemp("", "scheduleall-uninstall-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		store, err := sqlitestore.Open(filepath.Join(dir, "scratch.db"))
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(context.Background()); err != nil {
			return err
		}

		settings, err := config.LoadSettings(cfg.Runtime.SettingsPath)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			settings = config.DefaultSettings()
		}
		// The scenario supplies the work type definitions; pawns come from the save.
		colony, err := buildColony(cfg.Runtime.ScenarioPath)
		if err != nil {
			return err
		}
		svc := session.New(colony, &settings, store, inproc.New(16), session.Config{SavePath: path}, logger)
		if _, err := svc.Load(path); err != nil {
			return err
		}
		report := svc.Uninstall()
		if err := svc.Save(path); err != nil {
			return err
		}
		logger.Info("save cleaned", zap.String("path", path))
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "restored %d, dropped %d, fixed %d cells\n", report.Restored, report.Dropped, report.FixedCells)
		return err
	},
}
