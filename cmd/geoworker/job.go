package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quickfab/geoworker/internal/job"
)

var jobCmd = &cobra.Command{
	Use:   "job <descriptor.json>",
	Short: "Process a single job descriptor, bypassing the queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobCmd,
}

func init() {
	rootCmd.AddCommand(jobCmd)
	registerWorkerFlags(jobCmd)
}

func runJobCmd(cmd *cobra.Command, args []string) error {
	w, err := buildWorker()
	if err != nil {
		return err
	}
	defer w.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status := w.runner.ProcessJob(ctx, args[0])
	fmt.Println(status)
	if status != string(job.StatusDone) && status != string(job.StatusPartial) {
		return fmt.Errorf("job finished with status %s", status)
	}
	return nil
}
