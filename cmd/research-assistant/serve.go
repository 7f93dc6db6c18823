package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"research-assistant/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the research HTTP API",
	Long: `Serve exposes POST /api/research (JSON for web research, multipart
with a file for document research), POST /api/websearch and GET /healthz.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r, pool, err := newRAG(ctx, cfg)
		if err != nil {
			return err
		}

		gin.SetMode(gin.ReleaseMode)
		srv, err := server.New(cfg.Server, r)
		if err != nil {
			return err
		}
		err = srv.Run(ctx)

		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if cerr := pool.Close(drainCtx); cerr != nil {
			log.Warn().Err(cerr).Msg("Search workers did not finish before shutdown")
		}
		return err
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "listen address, overrides server.addr")

	rootCmd.AddCommand(serveCmd)
}
