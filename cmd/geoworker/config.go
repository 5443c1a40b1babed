package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quickfab/geoworker/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the worker configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the effective config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			found, err := config.Discover()
			if err != nil {
				return err
			}
			path = found
		}
		if _, err := config.Load(path); err != nil {
			return fmt.Errorf("%s:\n%w", path, err)
		}
		fmt.Printf("%s: OK\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}
