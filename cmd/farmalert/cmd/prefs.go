package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"farm-alerts/internal/identity"
	"farm-alerts/internal/model"
	"farm-alerts/internal/preference"
)

// prefsCmd groups the preference subcommands.
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change alert preferences",
	Long: `Show or change the persisted alert preferences.

Examples:
  farmalert prefs show
  farmalert prefs dismiss manual:1718600000000
  farmalert prefs read live:history_42
  farmalert prefs clear dismissed
  farmalert prefs set --manual=false --critical-only`,
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current preferences as JSON",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withPrefs(func(store *preference.Store) error {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(store.Snapshot())
		})
	},
}

var prefsDismissCmd = &cobra.Command{
	Use:   "dismiss <alert-id>...",
	Short: "Dismiss alerts",
	Args:  alertIDArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withPrefs(func(store *preference.Store) error {
			for _, id := range args {
				reportChange(id, "dismissed", store.Dismiss(id))
			}
			return nil
		})
	},
}

var prefsReadCmd = &cobra.Command{
	Use:   "read <alert-id>...",
	Short: "Mark alerts as read",
	Args:  alertIDArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withPrefs(func(store *preference.Store) error {
			for _, id := range args {
				reportChange(id, "marked read", store.MarkRead(id))
			}
			return nil
		})
	},
}

var prefsClearCmd = &cobra.Command{
	Use:       "clear <dismissed|read>",
	Short:     "Empty the dismissed or read set",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(model.ClearDismissed), string(model.ClearRead)},
	Run: func(cmd *cobra.Command, args []string) {
		kind, err := preference.ParseClearKind(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		withPrefs(func(store *preference.Store) error {
			if err := store.Clear(kind); err != nil {
				return err
			}
			fmt.Printf("✅ Cleared %s alerts\n", kind)
			return nil
		})
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change category toggles, the critical-only filter or auto-refresh",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		patch := model.PreferencesPatch{}
		flags := cmd.Flags()
		for name, dst := range map[string]**bool{
			"sensor":        &patch.EnableSensorAlerts,
			"manual":        &patch.EnableManualAlerts,
			"live":          &patch.EnableLiveAlerts,
			"critical-only": &patch.CriticalOnly,
			"auto-refresh":  &patch.AutoRefresh,
		} {
			if flags.Changed(name) {
				v, _ := flags.GetBool(name)
				*dst = model.Bool(v)
			}
		}
		if patch.IsEmpty() {
			fmt.Fprintln(os.Stderr, "❌ Nothing to change, pass at least one flag")
			os.Exit(1)
		}

		withPrefs(func(store *preference.Store) error {
			store.Update(patch)
			fmt.Println("✅ Preferences updated")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsShowCmd, prefsDismissCmd, prefsReadCmd, prefsClearCmd, prefsSetCmd)

	prefsSetCmd.Flags().Bool("sensor", true, "enable sensor alerts")
	prefsSetCmd.Flags().Bool("manual", true, "enable manual upload alerts")
	prefsSetCmd.Flags().Bool("live", true, "enable live camera alerts")
	prefsSetCmd.Flags().Bool("critical-only", false, "show critical alerts only")
	prefsSetCmd.Flags().Bool("auto-refresh", true, "poll the sensor source periodically")
}

// withPrefs opens the store, runs fn and flushes before exiting. A failed
// flush is fatal here because the process is about to exit.
func withPrefs(fn func(store *preference.Store) error) {
	cfg, logger := mustLoadConfig()
	a := mustNewApp(context.Background(), cfg, logger, nil)

	fnErr := fn(a.prefs)
	closeErr := a.Close()

	if fnErr != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", fnErr)
		os.Exit(1)
	}
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to save preferences: %v\n", closeErr)
		os.Exit(1)
	}
}

// alertIDArgs requires at least one id, each prefixed by a known category.
func alertIDArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
		return err
	}
	for _, id := range args {
		if _, ok := identity.CategoryOf(id); !ok {
			return fmt.Errorf("invalid alert id %q, expected sensor:, manual: or live: prefix", id)
		}
	}
	return nil
}

func reportChange(id, action string, changed bool) {
	if changed {
		fmt.Printf("✅ %s %s\n", id, action)
		return
	}
	fmt.Printf("   %s already %s\n", id, action)
}
