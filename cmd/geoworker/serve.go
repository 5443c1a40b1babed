package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quickfab/geoworker/internal/queue"
)

var serveOnce bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch the jobs directory and process work orders",
	RunE:  runServeCmd,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	registerWorkerFlags(serveCmd)
	serveCmd.Flags().BoolVar(&serveOnce, "once", false, "Drain pending jobs and exit")
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	w, err := buildWorker()
	if err != nil {
		return err
	}
	defer w.close()

	if w.cfg.Worker.JobsDir == "" {
		return fmt.Errorf("jobs directory not set; pass --jobs-dir or configure worker.jobs_dir")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	q := queue.New(w.cfg.Worker.JobsDir, w.cfg.Worker.StateDir, w.cfg.Worker.Poll(),
		w.runner.ProcessJob, w.logger)

	w.logger.Info("worker starting",
		"jobs_dir", w.cfg.Worker.JobsDir,
		"database", w.cfg.History.Path,
		"poll", w.cfg.Worker.Poll(),
		"once", serveOnce,
	)

	processed, err := q.Run(ctx, serveOnce)
	if err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if serveOnce && !processed {
		w.logger.Info("no pending jobs")
	}
	w.logger.Info("worker stopped")
	return nil
}
