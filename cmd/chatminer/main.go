package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bvdhoek/chatminer/internal/chatlog"
	"github.com/bvdhoek/chatminer/internal/config"
	"github.com/bvdhoek/chatminer/internal/pipeline"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "chatminer",
		Short: "chatminer - chat-export parsing and anonymized feature pipeline",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := map[string]interface{}{
				"version": version,
				"go":      "1.23",
			}
			return printJSON(output)
		},
	}

	formatsCmd := &cobra.Command{
		Use:   "formats",
		Short: "List supported chat-export format variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(map[string]interface{}{
				"formats": chatlog.Formats(),
			})
		},
	}

	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "Print chatminer application paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			output := map[string]interface{}{
				"app_dir":        config.GetAppDir(),
				"output_dir":     cfg.OutputDir,
				"warehouse_path": cfg.WarehousePath,
			}
			return printJSON(output)
		},
	}

	var configPath string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full parse/clean/anonymize/feature pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			result, err := pipeline.Run(cfg, nil, logger)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	runCmd.Flags().StringVarP(&configPath, "config", "c", "chatminer.yaml", "path to run configuration")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
