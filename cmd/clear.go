package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var clearConfirm bool

var clearCmd = &cobra.Command{
	Use:   "clear-tags",
	Short: "Remove all tags from every library item",
	Long: `Removes every tag from every item in the library. This is destructive
and cannot be undone, so it requires the --yes flag.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearConfirm {
			return errors.New("refusing to clear tags without --yes")
		}

		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Clearing tags from all library items...")
		cleared, err := appInstance.Writer.ClearAllTags(cmd.Context())
		if err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		fmt.Printf("Cleared tags from %d items.\n", cleared)
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVar(&clearConfirm, "yes", false, "confirm the destructive operation")
	rootCmd.AddCommand(clearCmd)
}
