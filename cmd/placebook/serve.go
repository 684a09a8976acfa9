package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peebers/placebook/internal/mapsurface"
	"github.com/peebers/placebook/internal/markers"
	"github.com/peebers/placebook/internal/service"
	"github.com/peebers/placebook/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API for tapping points of interest, clicking markers and
streaming the bookmark collection.

Examples:
  placebook serve
  placebook serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			p, err := a.newPipeline()
			if err != nil {
				return err
			}
			repo, closeDB, err := a.openRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			surface := mapsurface.NewMemory()
			defer surface.Close()

			maps := service.NewMapService(p, markers.NewAnnotationStore(), surface, repo, a.logger)
			server := web.NewServer(maps, surface, repo, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.ListenAndServe(ctx, addr); err != nil {
				a.logger.Error("server error", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to LISTEN_ADDR)")
	return cmd
}
