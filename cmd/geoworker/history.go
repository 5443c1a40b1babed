package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/quickfab/geoworker/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent job attempts",
	RunE:  runHistoryCmd,
}

var historyEventsCmd = &cobra.Command{
	Use:   "events <job-id>",
	Short: "Show the recorded event stream for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryEventsCmd,
}

var historyItemsCmd = &cobra.Command{
	Use:   "items <attempt-id>",
	Short: "Show per-part outcomes for an attempt",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryItemsCmd,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyEventsCmd)
	historyCmd.AddCommand(historyItemsCmd)

	historyCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "History database path")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show")
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	path := cfg.History.Path
	if flagDBPath != "" {
		path = flagDBPath
	}
	if path == "" {
		path = "./data/geoworker.db"
	}
	return history.Open(path)
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	attempts, err := store.RecentAttempts(limit)
	if err != nil {
		return fmt.Errorf("failed to fetch attempts: %w", err)
	}
	if len(attempts) == 0 {
		fmt.Println("No attempts recorded")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-11s  %5s  %-19s  %s\n",
		"ATTEMPT", "JOB", "STATUS", "ITEMS", "STARTED", "DURATION")
	for _, a := range attempts {
		fmt.Printf("%-36s  %-20s  %-11s  %5d  %-19s  %s\n",
			a.ID, a.JobID, a.Status, a.Items,
			a.StartedAt.Local().Format("2006-01-02 15:04:05"),
			attemptDuration(a))
	}
	return nil
}

func attemptDuration(a history.Attempt) string {
	if a.FinishedAt == nil {
		return "running"
	}
	return a.FinishedAt.Sub(a.StartedAt).Round(time.Second).String()
}

func runHistoryEventsCmd(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	evts, err := store.JobEvents(args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}
	if len(evts) == 0 {
		fmt.Println("No events")
		return nil
	}

	for _, e := range evts {
		fmt.Printf("%s  %-15s  %s\n",
			e.OccurredAt.Local().Format("15:04:05"), e.EventType, e.Payload)
	}
	return nil
}

func runHistoryItemsCmd(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	items, err := store.AttemptItems(args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch items: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("No items")
		return nil
	}

	for _, it := range items {
		geo := "-"
		if it.GeoPath != nil {
			geo = *it.GeoPath
		}
		fmt.Printf("%-8d  %-11s  material=%q  geo=%s\n", it.PartID, it.Status, it.MaterialApplied, geo)
		if it.Notes != "" {
			fmt.Printf("          notes: %s\n", it.Notes)
		}
	}
	return nil
}
