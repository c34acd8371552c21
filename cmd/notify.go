/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aryanprajapat98/REMS/config"
	"github.com/aryanprajapat98/REMS/internal/logger"
	"github.com/aryanprajapat98/REMS/internal/mq"
	"github.com/aryanprajapat98/REMS/internal/notify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// notifyCmd runs the notification worker.
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Deliver password reset links and lead alerts from the message queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log, sync := logger.New(cfg.Log)
		defer sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("connect message queue: %w", err)
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is required for the notify worker")
		}
		defer func() {
			_ = broker.Close()
		}()

		worker := notify.NewWorker(broker, notify.NewLogSender(log), log)
		log.Info("notify worker started", zap.String("backend", cfg.MQ.Backend))
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
