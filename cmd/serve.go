// Package cmd (serve.go) defines the command that runs the HTTP hook and
// admin server with its background upload workers.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tonimelisma/spsync/internal/app"
	"github.com/tonimelisma/spsync/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the file hook and admin API",
	Long: `Starts the HTTP server that receives file events from the host, uploads
document bundles on request and answers the admin discovery calls. Uploads
triggered by file events run on background workers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			listen, _ := cmd.Flags().GetString("listen")
			debug, _ := cmd.Flags().GetBool("debug")
			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveLogic(ctx, a, listen)
		})
	},
}

func serveLogic(ctx context.Context, a *app.App, listen string) error {
	if listen == "" {
		listen = a.Settings.Server.Listen
	}
	if err := a.Settings.Validate(); err != nil {
		a.Logger.Warn("settings are incomplete, uploads will fail until fixed", "error", err)
	}
	if a.Settings.Server.APIToken == "" {
		a.Logger.Warn("server.api_token is not set, /api routes accept unauthenticated requests", "listen", listen)
	}

	s := a.Services
	s.Queue.Start(ctx)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), a.Settings.Timeout())
		defer cancel()
		if err := s.Queue.Shutdown(drainCtx); err != nil {
			a.Logger.Warn("uploads still running at shutdown were cancelled", "error", err)
		}
	}()

	router := server.NewRouter(server.Deps{
		Hooks:     s.Hooks,
		Documents: s.Builder,
		Admin:     s.Admin,
		Jobs:      s.Queue,
		Logger:    a.Logger.With("component", "server"),
		APIToken:  a.Settings.Server.APIToken,
	})
	return server.New(listen, router, a.Logger).Run(ctx)
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (default server.listen)")
	rootCmd.AddCommand(serveCmd)
}
