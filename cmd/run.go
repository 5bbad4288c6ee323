package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"papertag/internal/services"
)

var (
	runSource string
	runLimit  int
)

// runCmd processes the whole library: extract, classify, write, once
// per item.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tag every item in the library that has a PDF attachment",
	Long: `Enumerates the library, extracts text from each item's first PDF
attachment, classifies it against the tag vocabulary, and appends any new
tags to the item. Per-item failures are tallied and reported at the end;
the batch always runs to completion.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		mode := runSource
		if mode == "" {
			mode = appInstance.Config.Pipeline.Source
		}
		limit := runLimit
		if limit == 0 {
			limit = appInstance.Config.Pipeline.Limit
		}

		source, closeSource, err := appInstance.NewItemSource(mode)
		if err != nil {
			return fmt.Errorf("init item source: %w", err)
		}
		defer closeSource()

		pipeline := services.NewPipeline(
			source,
			appInstance.Classifier,
			appInstance.Writer,
			services.WithDelay(time.Duration(appInstance.Config.Pipeline.DelayMs)*time.Millisecond),
			services.WithLimit(limit),
		)

		stats, err := pipeline.Run(cmd.Context())
		if err != nil {
			return err
		}

		renderStats(stats)
		return nil
	},
}

func renderStats(stats *services.Stats) {
	fmt.Println("\nRun summary:")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Outcome", "Count"})
	table.SetBorder(true)
	table.Append([]string{"processed", strconv.Itoa(stats.Processed)})
	table.Append([]string{"tags applied", strconv.Itoa(stats.Applied)})
	table.Append([]string{"no new tags", strconv.Itoa(stats.Skipped)})
	table.Append([]string{"write failed", strconv.Itoa(stats.WriteFailed)})
	table.Append([]string{"pdf not found", strconv.Itoa(stats.NotFound)})
	for category, count := range stats.ExtractionErrors {
		table.Append([]string{category, strconv.Itoa(count)})
	}
	table.Render()

	if stats.ErrorCount() == 0 {
		fmt.Println("No extraction errors encountered.")
	}
}

func init() {
	runCmd.Flags().StringVar(&runSource, "source", "", `item source: "local" snapshot or "api" (default from config)`)
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "process at most N items (0 = all)")
	rootCmd.AddCommand(runCmd)
}
