// Package cmd (modules.go) defines commands that manage which module each
// doctype is filed under.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/spsync/internal/app"
	"github.com/tonimelisma/spsync/internal/ui"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Manage the doctype to module mapping",
	Long:  "The module of a doctype becomes the folder level between the root folder and the doctype folder.",
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List doctype modules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			return modulesListLogic(cmd.Context(), a)
		})
	},
}

var modulesSetCmd = &cobra.Command{
	Use:   "set <doctype> <module>",
	Short: "Record the module of a doctype",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			return modulesSetLogic(cmd.Context(), a, args[0], args[1])
		})
	},
}

func modulesListLogic(ctx context.Context, a *app.App) error {
	modules, err := a.SDK.Modules(ctx)
	if err != nil {
		return err
	}
	ui.DisplayModules(modules)
	return nil
}

func modulesSetLogic(ctx context.Context, a *app.App, doctype, module string) error {
	if err := a.SDK.SetModule(ctx, doctype, module); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("%s is now filed under %s", doctype, module))
	return nil
}

func init() {
	rootCmd.AddCommand(modulesCmd)
	modulesCmd.AddCommand(modulesListCmd, modulesSetCmd)
}
