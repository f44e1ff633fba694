// Package cmd (settings.go) defines commands for showing and changing the
// persisted settings.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/spsync/internal/app"
	"github.com/tonimelisma/spsync/internal/ui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change SharePoint settings",
	Long:  "Provides commands to inspect the settings file and change individual settings.",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, settingsShowLogic)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and save the file",
	Long: `Changes one setting, given as a dotted key such as sharepoint.drive_id, and
saves the settings file. Run 'spsync settings keys' for the list of keys.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			return settingsSetLogic(a, args[0], args[1])
		})
	},
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys accepted by 'settings set'",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, settingsKeysLogic)
	},
}

func settingsShowLogic(a *app.App) error {
	out, err := a.Settings.Redacted().TOML()
	if err != nil {
		return fmt.Errorf("rendering settings: %w", err)
	}
	if path := a.Settings.Path(); path != "" {
		fmt.Printf("# %s\n", path)
	}
	fmt.Print(out)
	if err := a.Settings.Validate(); err != nil {
		fmt.Printf("\n# warning: %v\n", err)
	}
	return nil
}

func settingsSetLogic(a *app.App, key, value string) error {
	if err := a.Settings.Set(key, value); err != nil {
		return err
	}
	if err := a.Settings.Save(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	shown := value
	if strings.Contains(key, "secret") || strings.Contains(key, "token") {
		shown = "********"
	}
	ui.Success(fmt.Sprintf("Set %s = %s", key, shown))
	return nil
}

func settingsKeysLogic(a *app.App) error {
	for _, key := range a.Settings.Keys() {
		fmt.Println(key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsKeysCmd)
}
