/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryanprajapat98/REMS/config"
	"github.com/aryanprajapat98/REMS/internal/db"
	"github.com/aryanprajapat98/REMS/internal/logger"
	"github.com/aryanprajapat98/REMS/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var migrateOnStart bool

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the rems backend server",
	Long: `Starts the rems backend server. Usage:

	rems server
	rems server --migrate
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		log, sync := logger.New(cfg.Log)
		defer sync()

		if migrateOnStart {
			if err := db.MigrateUp(cfg); err != nil {
				log.Error("failed to migrate database", zap.Error(err))
				sync()
				os.Exit(1)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
			sync()
			os.Exit(1)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				log.Error("server error", zap.Error(err))
				_ = srv.Shutdown(context.Background())
				sync()
				os.Exit(1)
			}
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("graceful shutdown failed", zap.Error(err))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before serving")
}
