package commands

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studiops/bankrecon/internal/server"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			srvCfg := a.cfg.Server
			if port > 0 {
				srvCfg.Port = port
			}
			srv := server.New(server.Deps{
				Ingest:   a.ingest,
				Engine:   a.engine,
				Reader:   a.store,
				Server:   srvCfg,
				Auth:     a.cfg.Auth,
				MaxBytes: a.cfg.Import.MaxFileBytes,
				Logger:   a.logger,
			})
			if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server.port")

	return cmd
}
