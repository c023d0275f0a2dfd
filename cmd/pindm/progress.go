package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pindm/pkg/logger"
	"pindm/pkg/progress"
)

// progressCmd groups the dedup-state commands
var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or reset the download progress state",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show how many attachments have been downloaded",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := progress.NewDefaultStore(logger.NewNopLogger())
		if err != nil {
			return err
		}

		fmt.Printf("Downloaded attachments: %d\n", store.Count())
		if last := store.LastProcessedMessageID(); last != "" {
			fmt.Printf("Last processed message: %s\n", last)
		}
		fmt.Printf("Progress file: %s\n", store.Path())
		return nil
	},
}

var progressClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all downloaded attachments",
	Long: `Reset the durable dedup state. The next scan will treat every attachment
in the conversation as new and download it again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := progress.NewDefaultStore(logger.NewNopLogger())
		if err != nil {
			return err
		}

		cleared := store.Count()
		if err := store.Clear(); err != nil {
			return err
		}

		fmt.Printf("Cleared %d recorded downloads.\n", cleared)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressClearCmd)
}
