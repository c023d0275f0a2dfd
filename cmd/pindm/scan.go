package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pindm/pkg/archive"
	"pindm/pkg/config"
	"pindm/pkg/logger"
)

var (
	// Scan command flags
	outputDir          string
	workers            int
	delay              time.Duration
	maxDelay           time.Duration
	overwriteGalleries bool
	dryRun             bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <conversation.html>",
	Short: "Extract and download the media shared in a saved conversation page",
	Long: `Scan a saved Pinterest direct-message conversation page for shared pins,
resolve each pin to its best-resolution image or video poster, download
everything that has not been downloaded before, and write one HTML gallery
per month of activity.

Save the conversation page from your browser (Ctrl+S / "Save Page As") and
point this command at the resulting HTML file. Pass "-" to read from stdin.`,
	Example: `  # Scan a saved conversation page
  pindm scan conversation.html

  # Download into a specific directory with more resolution workers
  pindm scan conversation.html --output ./pins --workers 6

  # Slow down the pacing floor for a sensitive connection
  pindm scan conversation.html --delay 3s

  # See what would be downloaded without touching the disk
  pindm scan conversation.html --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads and galleries")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent pin resolutions")
	scanCmd.Flags().DurationVar(&delay, "delay", 0, "initial (floor) delay between downloads")
	scanCmd.Flags().DurationVar(&maxDelay, "max-delay", 0, "ceiling for the adaptive delay")
	scanCmd.Flags().BoolVar(&overwriteGalleries, "overwrite-galleries", true, "regenerate monthly gallery files that already exist")
	scanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be downloaded without writing anything")
}

func runScan(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if workers > 0 {
		flags["workers"] = workers
	}
	if delay > 0 {
		flags["delay"] = delay
	}
	if maxDelay > 0 {
		flags["max-delay"] = maxDelay
	}
	if cmd.Flags().Changed("overwrite-galleries") {
		flags["overwrite-galleries"] = overwriteGalleries
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.GetLogger().WithField("version", version).Info("pindm starting")

	conversation, err := openConversation(args[0])
	if err != nil {
		return err
	}
	defer conversation.Close()

	archiver, err := archive.New(cfg, archive.Options{DryRun: dryRun})
	if err != nil {
		return err
	}

	summary, err := archiver.Run(context.Background(), conversation)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d attachments: %d downloaded, %d skipped, %d errors\n",
		summary.Found, summary.Downloaded, summary.Skipped, summary.Errors)
	if summary.Errors > 0 {
		fmt.Println("Failed attachments will be retried on the next scan.")
	}
	return nil
}

func openConversation(arg string) (io.ReadCloser, error) {
	if arg == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	file, err := os.Open(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation page: %w", err)
	}
	return file, nil
}
