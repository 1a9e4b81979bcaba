package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"farm-alerts/internal/model"
)

// historyCmd groups the detection history subcommands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or change the detection histories",
	Long: `Inspect or change the manual upload and live camera detection logs.

Import files hold one record or an array of records, newest first, in the
same JSON shape the analysis service produces.

Examples:
  farmalert history list manual
  farmalert history import live detections.json
  farmalert history delete-live history_42
  farmalert history clear manual`,
}

var historyListCmd = &cobra.Command{
	Use:       "list <manual|live>",
	Short:     "List stored records",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(model.HistoryManual), string(model.HistoryLive)},
	Run: func(cmd *cobra.Command, args []string) {
		kind := mustHistoryKind(args[0])
		withApp(func(ctx context.Context, a *app) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			if kind == model.HistoryManual {
				records, err := a.history.Manual(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "ID\tDISEASE\tCONFIDENCE\tSEVERITY\tTIMESTAMP")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Key(), orDash(r.Disease), floatOrDash(r.Confidence), orDash(r.Severity), orDash(r.Timestamp))
				}
				return nil
			}

			records, err := a.history.Live(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "ID\tCAMERA\tDISEASE\tCONFIDENCE\tCAPTURED")
			for _, r := range records {
				disease, confidence := "-", "-"
				if r.Detection != nil {
					disease = orDash(r.Detection.Disease)
					confidence = floatOrDash(r.Detection.Confidence)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Key(), orDash(r.Camera.String()), disease, confidence, orDash(r.DriveUploadTime))
			}
			return nil
		})
	},
}

var historyImportCmd = &cobra.Command{
	Use:   "import <manual|live> <file.json>",
	Short: "Append records from a JSON file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		kind := mustHistoryKind(args[0])
		data, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read %s: %v\n", args[1], err)
			os.Exit(1)
		}

		withApp(func(ctx context.Context, a *app) error {
			if kind == model.HistoryManual {
				var records []model.ManualRecord
				if err := decodeOneOrMany(data, &records); err != nil {
					return fmt.Errorf("invalid manual records: %w", err)
				}
				// Oldest first so the first record ends up newest.
				for i := len(records) - 1; i >= 0; i-- {
					rec, err := a.history.AppendManual(ctx, records[i])
					if err != nil {
						return err
					}
					fmt.Printf("✅ manual %s\n", rec.Key())
				}
				return nil
			}

			var records []model.LiveRecord
			if err := decodeOneOrMany(data, &records); err != nil {
				return fmt.Errorf("invalid live records: %w", err)
			}
			stored, err := a.history.AppendLive(ctx, records...)
			if err != nil {
				return err
			}
			for i := range stored {
				fmt.Printf("✅ live %s\n", stored[i].Key())
			}
			return nil
		})
	},
}

var historyDeleteLiveCmd = &cobra.Command{
	Use:   "delete-live <history-id>",
	Short: "Delete one live record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withApp(func(ctx context.Context, a *app) error {
			found, err := a.history.DeleteLive(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("live record %q not found", args[0])
			}
			fmt.Printf("✅ Deleted live record %s\n", args[0])
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:       "clear <manual|live>",
	Short:     "Remove every record of one history",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(model.HistoryManual), string(model.HistoryLive)},
	Run: func(cmd *cobra.Command, args []string) {
		kind := mustHistoryKind(args[0])
		withApp(func(ctx context.Context, a *app) error {
			if err := a.history.Clear(ctx, kind); err != nil {
				return err
			}
			fmt.Printf("✅ Cleared %s history\n", kind)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyImportCmd, historyDeleteLiveCmd, historyClearCmd)
}

// withApp opens the application, runs fn and closes it, exiting on failure.
func withApp(fn func(ctx context.Context, a *app) error) {
	ctx := context.Background()
	cfg, logger := mustLoadConfig()
	a := mustNewApp(ctx, cfg, logger, nil)

	fnErr := fn(ctx, a)
	closeErr := a.Close()

	if fnErr != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", fnErr)
		os.Exit(1)
	}
	if closeErr != nil {
		logger.Warn().Err(closeErr).Msg("failed to close storage")
	}
}

func mustHistoryKind(s string) model.HistoryKind {
	kind, err := model.ParseHistoryKind(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	return kind
}

// decodeOneOrMany decodes a JSON array, or a single object as a one-element array.
func decodeOneOrMany[T any](data []byte, dst *[]T) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, dst)
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*dst = []T{one}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func floatOrDash(f model.OptionalFloat) string {
	if f.Valid {
		return fmt.Sprintf("%.1f%%", f.Value)
	}
	return "-"
}
